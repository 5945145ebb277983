package catalog

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"goflare.io/ignite"
	"goflare.io/marketplace/driver"
	"goflare.io/marketplace/models"
	"goflare.io/marketplace/models/enum"
)

var ErrNotFound = errors.New("catalog entity not found")

var _ Repository = (*repository)(nil)

type Repository interface {
	GetEntity(ctx context.Context, entityType enum.EntityType, id, storeID uint64) (models.Entity, error)
	ListEntities(ctx context.Context, entityType enum.EntityType, storeID uint64, limit, offset uint64) ([]models.Entity, error)
}

// source describes how one entity type is selected. Every select returns the
// same column list so a single row buffer can scan any of them.
type source struct {
	from    string
	columns string
	idExpr  string
	store   string
}

var sources = map[enum.EntityType]source{
	enum.EntityTypeFoodItem: {
		from:    "food_items f",
		columns: `f.id, f.store_id, f.name, f.price, f.available, f.created_at, f.updated_at, COALESCE(f.description, ''), f.category_id, COALESCE(f.image, ''), 0::bigint`,
		idExpr:  "f.id",
		store:   "f.store_id",
	},
	enum.EntityTypeSide: {
		from:    "sides s",
		columns: `s.id, s.store_id, s.name, s.price, s.available, s.created_at, s.updated_at, '', NULL::bigint, '', 0::bigint`,
		idExpr:  "s.id",
		store:   "s.store_id",
	},
	enum.EntityTypePack: {
		from:    "packs p",
		columns: `p.id, p.store_id, p.name, p.price, p.available, p.created_at, p.updated_at, COALESCE(p.description, ''), NULL::bigint, '', 0::bigint`,
		idExpr:  "p.id",
		store:   "p.store_id",
	},
	enum.EntityTypeSectionItem: {
		from:    "food_section_items i JOIN food_sections fs ON fs.id = i.section_id",
		columns: `i.id, fs.store_id, i.name, i.price, i.available, i.created_at, i.updated_at, '', NULL::bigint, '', i.section_id`,
		idExpr:  "i.id",
		store:   "fs.store_id",
	},
}

// entityRow is a pooled scan buffer for one catalog row.
type entityRow struct {
	ID          uint64
	StoreID     uint64
	Name        string
	Price       decimal.Decimal
	Available   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Description string
	CategoryID  *uint64
	Image       string
	SectionID   uint64
}

func (r *entityRow) targets() []any {
	return []any{
		&r.ID, &r.StoreID, &r.Name, &r.Price, &r.Available, &r.CreatedAt, &r.UpdatedAt,
		&r.Description, &r.CategoryID, &r.Image, &r.SectionID,
	}
}

// toEntity copies the buffer into a new entity of the given type.
func (r *entityRow) toEntity(entityType enum.EntityType) models.Entity {
	item := models.CatalogItem{
		ID:        r.ID,
		StoreID:   r.StoreID,
		Name:      r.Name,
		Price:     r.Price,
		Available: r.Available,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}

	switch entityType {
	case enum.EntityTypeFoodItem:
		var categoryID *uint64
		if r.CategoryID != nil {
			id := *r.CategoryID
			categoryID = &id
		}
		return &models.FoodItem{CatalogItem: item, Description: r.Description, CategoryID: categoryID, Image: r.Image}
	case enum.EntityTypeSide:
		return &models.Side{CatalogItem: item}
	case enum.EntityTypePack:
		return &models.Pack{CatalogItem: item, Description: r.Description}
	case enum.EntityTypeSectionItem:
		return &models.SectionItem{CatalogItem: item, SectionID: r.SectionID}
	default:
		return nil
	}
}

type repository struct {
	conn        driver.PostgresPool
	logger      *zap.Logger
	poolManager ignite.Manager
}

func NewRepository(conn driver.PostgresPool, logger *zap.Logger, poolManager ignite.Manager) (Repository, error) {
	err := poolManager.RegisterPool(reflect.TypeOf(&entityRow{}), ignite.Config[any]{
		InitialSize: 10,
		MaxSize:     100,
		MaxIdleTime: 10 * time.Minute,
		Factory: func() (any, error) {
			return &entityRow{}, nil
		},
		Reset: func(obj any) error {
			r := obj.(*entityRow)
			*r = entityRow{}
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register entity row pool: %w", err)
	}

	return &repository{
		conn:        conn,
		logger:      logger,
		poolManager: poolManager,
	}, nil
}

func (r *repository) getFromPool(ctx context.Context) (*entityRow, func(), error) {
	pool, err := r.poolManager.GetPool(reflect.TypeOf(&entityRow{}))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get pool: %w", err)
	}

	objWrapper, err := pool.Get(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get object from pool: %w", err)
	}

	row := objWrapper.Object.(*entityRow)
	release := func() {
		pool.Put(objWrapper)
	}

	return row, release, nil
}

func sourceFor(entityType enum.EntityType) (source, error) {
	src, ok := sources[entityType]
	if !ok {
		return source{}, fmt.Errorf("unknown entity type %q", entityType)
	}
	return src, nil
}

func (r *repository) GetEntity(ctx context.Context, entityType enum.EntityType, id, storeID uint64) (models.Entity, error) {
	src, err := sourceFor(entityType)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2`, src.columns, src.from, src.idExpr, src.store)

	row, release, err := r.getFromPool(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if err = r.conn.QueryRow(ctx, query, id, storeID).Scan(row.targets()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("error getting catalog entity",
			zap.Error(err),
			zap.String("type", string(entityType)),
			zap.Uint64("id", id),
			zap.Uint64("store_id", storeID))
		return nil, fmt.Errorf("failed to get %s %d: %w", entityType, id, err)
	}

	return row.toEntity(entityType), nil
}

func (r *repository) ListEntities(ctx context.Context, entityType enum.EntityType, storeID uint64, limit, offset uint64) ([]models.Entity, error) {
	src, err := sourceFor(entityType)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s LIMIT $2 OFFSET $3`,
		src.columns, src.from, src.store, src.idExpr)

	rows, err := r.conn.Query(ctx, query, storeID, int64(limit), int64(offset))
	if err != nil {
		r.logger.Error("error listing catalog entities", zap.Error(err), zap.String("type", string(entityType)))
		return nil, fmt.Errorf("failed to list %s: %w", entityType, err)
	}
	defer rows.Close()

	row, release, err := r.getFromPool(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	entities := make([]models.Entity, 0, limit)
	for rows.Next() {
		*row = entityRow{}
		if err = rows.Scan(row.targets()...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", entityType, err)
		}
		entities = append(entities, row.toEntity(entityType))
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", entityType, err)
	}

	return entities, nil
}
