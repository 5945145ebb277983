package discount

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"goflare.io/marketplace/driver"
	"goflare.io/marketplace/models"
	"goflare.io/marketplace/models/enum"
)

var ErrNotFound = errors.New("discount not found")

var _ Repository = (*repository)(nil)

type Repository interface {
	FindActiveDiscount(ctx context.Context, itemType enum.EntityType, itemID, storeID uint64, asOf time.Time) (*models.ActiveDiscount, error)
	FindActiveDiscounts(ctx context.Context, itemType enum.EntityType, itemIDs []uint64, storeID uint64, asOf time.Time) (map[uint64]*models.ActiveDiscount, error)

	Create(ctx context.Context, tx pgx.Tx, discount *models.Discount) error
	GetByID(ctx context.Context, tx pgx.Tx, id uint64) (*models.Discount, error)
	Update(ctx context.Context, tx pgx.Tx, discount *models.PartialDiscount) error
	Delete(ctx context.Context, tx pgx.Tx, id uint64) error
	ListByStore(ctx context.Context, storeID uint64) ([]*models.Discount, error)

	LinkItem(ctx context.Context, tx pgx.Tx, item models.DiscountItem) error
	UnlinkItem(ctx context.Context, tx pgx.Tx, item models.DiscountItem) error
	ListItems(ctx context.Context, tx pgx.Tx, discountID uint64) ([]models.DiscountItem, error)
}

// activePredicate is the only filter used to decide whether a discount applies:
// $1 item type, $2 store, $3 calendar date.
const activePredicate = `di.item_type = $1 AND d.store_id = $2 AND d.status = 'active' AND d.start_date <= $3 AND d.end_date >= $3`

const discountColumns = `d.id, d.store_id, d.percentage, d.start_date, d.end_date, d.status, d.created_at, d.updated_at`

// Active discount lookups are never cached.
type repository struct {
	conn   driver.PostgresPool
	logger *zap.Logger
}

func NewRepository(conn driver.PostgresPool, logger *zap.Logger) Repository {
	return &repository{
		conn:   conn,
		logger: logger,
	}
}

func scanActiveDiscount(row pgx.Row) (*models.ActiveDiscount, error) {
	ad := new(models.ActiveDiscount)
	var candidates int64
	if err := row.Scan(
		&ad.ID, &ad.StoreID, &ad.Percentage, &ad.StartDate, &ad.EndDate, &ad.Status, &ad.CreatedAt, &ad.UpdatedAt,
		&ad.ItemID, &candidates,
	); err != nil {
		return nil, err
	}
	ad.Candidates = int(candidates)
	return ad, nil
}

// FindActiveDiscount returns the active discount with the highest id linked to
// the item, or nil when none applies on asOf.
func (r *repository) FindActiveDiscount(ctx context.Context, itemType enum.EntityType, itemID, storeID uint64, asOf time.Time) (*models.ActiveDiscount, error) {
	query := `SELECT ` + discountColumns + `, di.item_id, COUNT(*) OVER () FROM discount_items di JOIN discounts d ON d.id = di.discount_id WHERE ` +
		activePredicate + ` AND di.item_id = $4 ORDER BY d.id DESC LIMIT 1`

	ad, err := scanActiveDiscount(r.conn.QueryRow(ctx, query, itemType, storeID, models.DateOf(asOf), itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("error finding active discount", zap.Error(err), zap.String("type", string(itemType)), zap.Uint64("item_id", itemID))
		return nil, fmt.Errorf("failed to find active discount: %w", err)
	}

	return ad, nil
}

// FindActiveDiscounts resolves many items of one type with a single query.
// Items without an active discount are absent from the map.
func (r *repository) FindActiveDiscounts(ctx context.Context, itemType enum.EntityType, itemIDs []uint64, storeID uint64, asOf time.Time) (map[uint64]*models.ActiveDiscount, error) {
	result := make(map[uint64]*models.ActiveDiscount, len(itemIDs))
	if len(itemIDs) == 0 {
		return result, nil
	}

	ids := make([]int64, 0, len(itemIDs))
	for _, id := range itemIDs {
		ids = append(ids, int64(id))
	}

	query := `SELECT DISTINCT ON (di.item_id) ` + discountColumns + `, di.item_id, COUNT(*) OVER (PARTITION BY di.item_id) FROM discount_items di JOIN discounts d ON d.id = di.discount_id WHERE ` +
		activePredicate + ` AND di.item_id = ANY($4) ORDER BY di.item_id, d.id DESC`

	rows, err := r.conn.Query(ctx, query, itemType, storeID, models.DateOf(asOf), ids)
	if err != nil {
		r.logger.Error("error finding active discounts", zap.Error(err), zap.String("type", string(itemType)))
		return nil, fmt.Errorf("failed to find active discounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		ad, err := scanActiveDiscount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan active discount: %w", err)
		}
		if _, exists := result[ad.ItemID]; !exists {
			result[ad.ItemID] = ad
		}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate active discounts: %w", err)
	}

	return result, nil
}

func (r *repository) Create(ctx context.Context, tx pgx.Tx, discount *models.Discount) error {
	const query = `
    INSERT INTO discounts (store_id, percentage, start_date, end_date, status, created_at, updated_at)
    VALUES (@store_id, @percentage, @start_date, @end_date, @status, NOW(), NOW())
    RETURNING id, created_at, updated_at
    `

	args := pgx.NamedArgs{
		"store_id":   discount.StoreID,
		"percentage": discount.Percentage,
		"start_date": models.DateOf(discount.StartDate),
		"end_date":   models.DateOf(discount.EndDate),
		"status":     discount.Status,
	}

	if err := tx.QueryRow(ctx, query, args).Scan(&discount.ID, &discount.CreatedAt, &discount.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create discount: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, tx pgx.Tx, id uint64) (*models.Discount, error) {
	const query = `SELECT ` + discountColumns + ` FROM discounts d WHERE d.id = $1`

	d := models.NewDiscount()
	err := tx.QueryRow(ctx, query, id).Scan(&d.ID, &d.StoreID, &d.Percentage, &d.StartDate, &d.EndDate, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("error getting discount", zap.Error(err), zap.Uint64("id", id))
		return nil, fmt.Errorf("failed to get discount: %w", err)
	}

	return d, nil
}

func (r *repository) Update(ctx context.Context, tx pgx.Tx, discount *models.PartialDiscount) error {
	const query = `
    UPDATE discounts SET
        store_id = COALESCE(@store_id, discounts.store_id),
        percentage = COALESCE(@percentage, discounts.percentage),
        start_date = COALESCE(@start_date, discounts.start_date),
        end_date = COALESCE(@end_date, discounts.end_date),
        status = COALESCE(@status, discounts.status),
        updated_at = @updated_at
    WHERE discounts.id = @id
    `

	args := pgx.NamedArgs{
		"id":         discount.ID,
		"store_id":   discount.StoreID,
		"percentage": discount.Percentage,
		"start_date": discount.StartDate,
		"end_date":   discount.EndDate,
		"status":     discount.Status,
		"updated_at": time.Now(),
	}

	tag, err := tx.Exec(ctx, query, args)
	if err != nil {
		return fmt.Errorf("failed to update discount: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM discount_items WHERE discount_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete discount items: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM discounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete discount: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *repository) ListByStore(ctx context.Context, storeID uint64) ([]*models.Discount, error) {
	const query = `SELECT ` + discountColumns + ` FROM discounts d WHERE d.store_id = $1 ORDER BY d.id`

	rows, err := r.conn.Query(ctx, query, storeID)
	if err != nil {
		r.logger.Error("error listing discounts", zap.Error(err), zap.Uint64("store_id", storeID))
		return nil, fmt.Errorf("failed to list discounts: %w", err)
	}
	defer rows.Close()

	discounts := make([]*models.Discount, 0)
	for rows.Next() {
		d := models.NewDiscount()
		if err = rows.Scan(&d.ID, &d.StoreID, &d.Percentage, &d.StartDate, &d.EndDate, &d.Status, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan discount: %w", err)
		}
		discounts = append(discounts, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate discounts: %w", err)
	}

	return discounts, nil
}

func (r *repository) LinkItem(ctx context.Context, tx pgx.Tx, item models.DiscountItem) error {
	const query = `
    INSERT INTO discount_items (discount_id, item_id, item_type)
    VALUES ($1, $2, $3)
    ON CONFLICT (discount_id, item_id, item_type) DO NOTHING
    `

	if _, err := tx.Exec(ctx, query, item.DiscountID, item.ItemID, item.ItemType); err != nil {
		return fmt.Errorf("failed to link discount item: %w", err)
	}

	return nil
}

func (r *repository) UnlinkItem(ctx context.Context, tx pgx.Tx, item models.DiscountItem) error {
	const query = `DELETE FROM discount_items WHERE discount_id = $1 AND item_id = $2 AND item_type = $3`

	tag, err := tx.Exec(ctx, query, item.DiscountID, item.ItemID, item.ItemType)
	if err != nil {
		return fmt.Errorf("failed to unlink discount item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *repository) ListItems(ctx context.Context, tx pgx.Tx, discountID uint64) ([]models.DiscountItem, error) {
	const query = `SELECT discount_id, item_id, item_type FROM discount_items WHERE discount_id = $1 ORDER BY item_type, item_id`

	rows, err := tx.Query(ctx, query, discountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list discount items: %w", err)
	}

	items, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.DiscountItem])
	if err != nil {
		return nil, fmt.Errorf("failed to collect discount items: %w", err)
	}

	return items, nil
}
