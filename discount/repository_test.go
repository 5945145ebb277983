package discount

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"goflare.io/marketplace/models/enum"
)

var activeColumns = []string{
	"id", "store_id", "percentage", "start_date", "end_date", "status", "created_at", "updated_at", "item_id", "count",
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func activeRow(discountID, storeID, itemID uint64, pct int64, status enum.DiscountStatus, candidates int64) []any {
	stamp := date(2025, 1, 1)
	return []any{
		discountID, storeID, decimal.NewFromInt(pct), date(2025, 1, 1), date(2025, 12, 31), status,
		stamp, stamp, itemID, candidates,
	}
}

const (
	singleLookup  = `SELECT d.id, .* FROM discount_items di JOIN discounts d ON d.id = di.discount_id WHERE di.item_type = \$1 AND d.store_id = \$2 AND d.status = 'active' AND d.start_date <= \$3 AND d.end_date >= \$3 AND di.item_id = \$4 ORDER BY d.id DESC LIMIT 1`
	batchedLookup = `SELECT DISTINCT ON \(di.item_id\) .* AND di.item_id = ANY\(\$4\) ORDER BY di.item_id, d.id DESC`
)

func TestFindActiveDiscountQueriesEveryCall(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock, zap.NewNop())
	asOf := time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		mock.ExpectQuery(singleLookup).
			WithArgs(enum.EntityTypeFoodItem, uint64(12), date(2025, 6, 1), uint64(7)).
			WillReturnRows(pgxmock.NewRows(activeColumns).AddRow(activeRow(3, 12, 7, 10, enum.DiscountStatusActive, 1)...))
	}

	for i := 0; i < 2; i++ {
		ad, err := repo.FindActiveDiscount(context.Background(), enum.EntityTypeFoodItem, 7, 12, asOf)
		require.NoError(t, err)
		require.NotNil(t, ad)
		assert.Equal(t, uint64(3), ad.ID)
		assert.Equal(t, 1, ad.Candidates)
		assert.True(t, ad.Percentage.Equal(decimal.NewFromInt(10)))
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindActiveDiscountNone(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock, zap.NewNop())

	mock.ExpectQuery(singleLookup).
		WithArgs(enum.EntityTypeSide, uint64(12), date(2025, 6, 1), uint64(5)).
		WillReturnError(pgx.ErrNoRows)

	ad, err := repo.FindActiveDiscount(context.Background(), enum.EntityTypeSide, 5, 12, date(2025, 6, 1))
	require.NoError(t, err)
	assert.Nil(t, ad)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindActiveDiscountPropagatesQueryFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock, zap.NewNop())

	boom := errors.New("connection reset")
	mock.ExpectQuery(singleLookup).
		WithArgs(enum.EntityTypePack, uint64(2), date(2025, 6, 1), uint64(1)).
		WillReturnError(boom)

	_, err = repo.FindActiveDiscount(context.Background(), enum.EntityTypePack, 1, 2, date(2025, 6, 1))
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Single and batched lookups must give the same answer for the same rows,
// including right after a discount is deactivated by another writer.
func TestSingleAndBatchedLookupsAgreeAfterDeactivation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock, zap.NewNop())
	ctx := context.Background()
	asOf := date(2025, 6, 1)

	// discount 3 active
	mock.ExpectQuery(singleLookup).
		WithArgs(enum.EntityTypeFoodItem, uint64(12), asOf, uint64(7)).
		WillReturnRows(pgxmock.NewRows(activeColumns).AddRow(activeRow(3, 12, 7, 10, enum.DiscountStatusActive, 1)...))
	mock.ExpectQuery(batchedLookup).
		WithArgs(enum.EntityTypeFoodItem, uint64(12), asOf, []int64{7}).
		WillReturnRows(pgxmock.NewRows(activeColumns).AddRow(activeRow(3, 12, 7, 10, enum.DiscountStatusActive, 1)...))

	// discount 3 deactivated
	mock.ExpectQuery(singleLookup).
		WithArgs(enum.EntityTypeFoodItem, uint64(12), asOf, uint64(7)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(batchedLookup).
		WithArgs(enum.EntityTypeFoodItem, uint64(12), asOf, []int64{7}).
		WillReturnRows(pgxmock.NewRows(activeColumns))

	single, err := repo.FindActiveDiscount(ctx, enum.EntityTypeFoodItem, 7, 12, asOf)
	require.NoError(t, err)
	batch, err := repo.FindActiveDiscounts(ctx, enum.EntityTypeFoodItem, []uint64{7}, 12, asOf)
	require.NoError(t, err)
	require.NotNil(t, single)
	require.Contains(t, batch, uint64(7))
	assert.Equal(t, single.ID, batch[7].ID)

	single, err = repo.FindActiveDiscount(ctx, enum.EntityTypeFoodItem, 7, 12, asOf)
	require.NoError(t, err)
	batch, err = repo.FindActiveDiscounts(ctx, enum.EntityTypeFoodItem, []uint64{7}, 12, asOf)
	require.NoError(t, err)
	assert.Nil(t, single)
	assert.NotContains(t, batch, uint64(7))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindActiveDiscountsBatched(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock, zap.NewNop())
	asOf := date(2025, 6, 1)

	mock.ExpectQuery(batchedLookup).
		WithArgs(enum.EntityTypeFoodItem, uint64(12), asOf, []int64{7, 8, 9}).
		WillReturnRows(pgxmock.NewRows(activeColumns).
			AddRow(uint64(5), uint64(12), decimal.NewFromInt(20), date(2025, 1, 1), date(2025, 12, 31), enum.DiscountStatusActive, asOf, asOf, uint64(7), int64(2)).
			AddRow(uint64(3), uint64(12), decimal.NewFromInt(10), date(2025, 5, 1), date(2025, 7, 1), enum.DiscountStatusActive, asOf, asOf, uint64(9), int64(1)))

	got, err := repo.FindActiveDiscounts(context.Background(), enum.EntityTypeFoodItem, []uint64{7, 8, 9}, 12, asOf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(5), got[7].ID)
	assert.Equal(t, 2, got[7].Candidates)
	assert.Equal(t, uint64(3), got[9].ID)
	assert.NotContains(t, got, uint64(8))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindActiveDiscountsEmptyInput(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock, zap.NewNop())

	got, err := repo.FindActiveDiscounts(context.Background(), enum.EntityTypeFoodItem, nil, 12, date(2025, 6, 1))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRemovesItemsThenDiscount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM discount_items WHERE discount_id = \$1`).WithArgs(uint64(3)).WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(`DELETE FROM discounts WHERE id = \$1`).WithArgs(uint64(3)).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)
	err = repo.Delete(context.Background(), tx, 3)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, tx.Rollback(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
