package marketplace

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"goflare.io/marketplace/discount"
	"goflare.io/marketplace/driver"
	"goflare.io/marketplace/event"
	"goflare.io/marketplace/models"
	"goflare.io/marketplace/models/enum"
	"goflare.io/marketplace/resolver"
)

type Marketplace interface {
	GetEntity(ctx context.Context, entityType enum.EntityType, id, storeID uint64) (*models.EnrichedEntity, error)
	ListEntities(ctx context.Context, entityType enum.EntityType, storeID uint64, limit, offset uint64) ([]*models.EnrichedEntity, error)

	CreateDiscount(ctx context.Context, discount *models.Discount) error
	GetDiscount(ctx context.Context, id uint64) (*models.Discount, error)
	UpdateDiscount(ctx context.Context, discount *models.PartialDiscount) (*models.Discount, error)
	DeleteDiscount(ctx context.Context, id uint64) error
	ListDiscounts(ctx context.Context, storeID uint64) ([]*models.Discount, error)

	LinkDiscountItem(ctx context.Context, item models.DiscountItem) error
	UnlinkDiscountItem(ctx context.Context, item models.DiscountItem) error
	ListDiscountItems(ctx context.Context, discountID uint64) ([]models.DiscountItem, error)
	ListDiscountEvents(ctx context.Context, discountID uint64, limit uint64) ([]*models.DiscountEvent, error)

	Ping(ctx context.Context) error
	Close()
}

type service struct {
	resolver     resolver.Service
	discount     discount.Service
	events       event.Service
	eventManager *EventManager
	postgres     driver.PostgresPool
	redis        *redis.Client
	logger       *zap.Logger
}

func NewMarketplace(
	resolver resolver.Service,
	discount discount.Service,
	events event.Service,
	eventManager *EventManager,
	postgres driver.PostgresPool,
	redis *redis.Client,
	logger *zap.Logger,
) Marketplace {
	return &service{
		resolver:     resolver,
		discount:     discount,
		events:       events,
		eventManager: eventManager,
		postgres:     postgres,
		redis:        redis,
		logger:       logger,
	}
}

// GetEntity loads one catalog entity of the store with its active discount attached.
func (s *service) GetEntity(ctx context.Context, entityType enum.EntityType, id, storeID uint64) (*models.EnrichedEntity, error) {
	return s.resolver.ResolveByID(ctx, entityType, id, storeID)
}

// ListEntities loads a page of catalog entities with their active discounts attached.
func (s *service) ListEntities(ctx context.Context, entityType enum.EntityType, storeID uint64, limit, offset uint64) ([]*models.EnrichedEntity, error) {
	return s.resolver.ResolveList(ctx, entityType, storeID, limit, offset)
}

func (s *service) CreateDiscount(ctx context.Context, discount *models.Discount) error {
	return s.discount.Create(ctx, discount)
}

func (s *service) GetDiscount(ctx context.Context, id uint64) (*models.Discount, error) {
	return s.discount.GetByID(ctx, id)
}

func (s *service) UpdateDiscount(ctx context.Context, discount *models.PartialDiscount) (*models.Discount, error) {
	return s.discount.Update(ctx, discount)
}

func (s *service) DeleteDiscount(ctx context.Context, id uint64) error {
	return s.discount.Delete(ctx, id)
}

func (s *service) ListDiscounts(ctx context.Context, storeID uint64) ([]*models.Discount, error) {
	return s.discount.ListByStore(ctx, storeID)
}

func (s *service) LinkDiscountItem(ctx context.Context, item models.DiscountItem) error {
	return s.discount.LinkItem(ctx, item)
}

func (s *service) UnlinkDiscountItem(ctx context.Context, item models.DiscountItem) error {
	return s.discount.UnlinkItem(ctx, item)
}

func (s *service) ListDiscountItems(ctx context.Context, discountID uint64) ([]models.DiscountItem, error) {
	return s.discount.ListItems(ctx, discountID)
}

// ListDiscountEvents returns the newest recorded changes of a discount, including deleted ones.
func (s *service) ListDiscountEvents(ctx context.Context, discountID uint64, limit uint64) ([]*models.DiscountEvent, error) {
	return s.events.History(ctx, discountID, limit)
}

// Ping checks postgres and redis.
func (s *service) Ping(ctx context.Context) error {
	if err := s.postgres.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (s *service) Close() {
	if s.eventManager != nil {
		s.eventManager.Close()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("Failed to close redis", zap.Error(err))
		}
	}
	s.postgres.Close()
}
