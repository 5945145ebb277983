package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"goflare.io/marketplace/driver"
	"goflare.io/marketplace/models"
)

const historyPageSize = 50

var ErrNotFound = errors.New("discount event not found")

var _ Repository = (*repository)(nil)

type Repository interface {
	Create(ctx context.Context, event *models.DiscountEvent) error
	GetByID(ctx context.Context, id uint64) (*models.DiscountEvent, error)
	MarkAsPublished(ctx context.Context, id uint64) error
	// ListByDiscount returns the newest historyPageSize events of a discount.
	ListByDiscount(ctx context.Context, discountID uint64) ([]*models.DiscountEvent, error)
	ListUnpublished(ctx context.Context, limit uint64) ([]*models.DiscountEvent, error)
	// Invalidate drops the cached history of a discount.
	Invalidate(ctx context.Context, discountID uint64)
}

type repository struct {
	conn   driver.PostgresPool
	logger *zap.Logger
	cache  driver.Cache
}

func NewRepository(conn driver.PostgresPool, logger *zap.Logger, cache driver.Cache) Repository {
	return &repository{
		conn:   conn,
		logger: logger,
		cache:  cache,
	}
}

const eventColumns = `id, type, discount_id, store_ids, items, published, occurred_at`

func historyCacheKey(discountID uint64) string {
	return fmt.Sprintf("discount:events:%d", discountID)
}

func scanEvent(row pgx.Row) (*models.DiscountEvent, error) {
	var event models.DiscountEvent
	if err := row.Scan(
		&event.ID,
		&event.Type,
		&event.DiscountID,
		&event.StoreIDs,
		&event.Items,
		&event.Published,
		&event.OccurredAt,
	); err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) Create(ctx context.Context, event *models.DiscountEvent) error {
	const query = `INSERT INTO discount_events (type, discount_id, store_ids, items, published, occurred_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	if err := r.conn.QueryRow(ctx, query,
		event.Type,
		event.DiscountID,
		event.StoreIDs,
		event.Items,
		event.Published,
		event.OccurredAt,
	).Scan(&event.ID); err != nil {
		r.logger.Error("error creating discount event", zap.Error(err), zap.Uint64("discount_id", event.DiscountID))
		return fmt.Errorf("failed to create discount event: %w", err)
	}

	r.Invalidate(ctx, event.DiscountID)
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uint64) (*models.DiscountEvent, error) {
	const query = `SELECT ` + eventColumns + ` FROM discount_events WHERE id = $1`

	event, err := scanEvent(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get discount event: %w", err)
	}

	return event, nil
}

func (r *repository) MarkAsPublished(ctx context.Context, id uint64) error {
	const query = `UPDATE discount_events SET published = TRUE WHERE id = $1 RETURNING discount_id`

	var discountID uint64
	if err := r.conn.QueryRow(ctx, query, id).Scan(&discountID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to mark discount event as published: %w", err)
	}

	r.Invalidate(ctx, discountID)
	return nil
}

func (r *repository) ListByDiscount(ctx context.Context, discountID uint64) ([]*models.DiscountEvent, error) {
	cacheKey := historyCacheKey(discountID)

	var cached []*models.DiscountEvent
	found, err := r.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		r.logger.Warn("Failed to get discount events from cache", zap.Error(err), zap.String("key", cacheKey))
	} else if found {
		return cached, nil
	}

	const query = `SELECT ` + eventColumns + ` FROM discount_events WHERE discount_id = $1 ORDER BY id DESC LIMIT $2`
	events, err := r.list(ctx, query, discountID, int64(historyPageSize))
	if err != nil {
		return nil, err
	}

	if err = r.cache.Set(ctx, cacheKey, events); err != nil {
		r.logger.Warn("Failed to cache discount events", zap.Error(err), zap.String("key", cacheKey))
	}

	return events, nil
}

func (r *repository) ListUnpublished(ctx context.Context, limit uint64) ([]*models.DiscountEvent, error) {
	const query = `SELECT ` + eventColumns + ` FROM discount_events WHERE published = FALSE ORDER BY id LIMIT $1`
	return r.list(ctx, query, int64(limit))
}

func (r *repository) Invalidate(ctx context.Context, discountID uint64) {
	cacheKey := historyCacheKey(discountID)
	if err := r.cache.Delete(ctx, cacheKey); err != nil {
		r.logger.Warn("Failed to delete discount events from cache", zap.Error(err), zap.String("key", cacheKey))
	}
}

func (r *repository) list(ctx context.Context, query string, args ...any) ([]*models.DiscountEvent, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("error listing discount events", zap.Error(err))
		return nil, fmt.Errorf("failed to list discount events: %w", err)
	}
	defer rows.Close()

	var events []*models.DiscountEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan discount event: %w", err)
		}
		events = append(events, event)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate discount events: %w", err)
	}

	return events, nil
}
