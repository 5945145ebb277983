package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"goflare.io/marketplace/catalog"
	"goflare.io/marketplace/config"
	"goflare.io/marketplace/discount"
	"goflare.io/marketplace/models"
	"goflare.io/marketplace/models/enum"
)

// CatalogStore loads catalog entities.
type CatalogStore interface {
	GetEntity(ctx context.Context, entityType enum.EntityType, id, storeID uint64) (models.Entity, error)
	ListEntities(ctx context.Context, entityType enum.EntityType, storeID uint64, limit, offset uint64) ([]models.Entity, error)
}

// DiscountStore looks up active discounts with the shared active predicate.
type DiscountStore interface {
	FindActiveDiscount(ctx context.Context, itemType enum.EntityType, itemID, storeID uint64, asOf time.Time) (*models.ActiveDiscount, error)
	FindActiveDiscounts(ctx context.Context, itemType enum.EntityType, itemIDs []uint64, storeID uint64, asOf time.Time) (map[uint64]*models.ActiveDiscount, error)
}

// Service attaches active discounts to catalog entities. It keeps no state
// between calls and is safe for concurrent use.
type Service interface {
	ResolveOne(ctx context.Context, entity models.Entity, storeID uint64) (*models.EnrichedEntity, error)
	ResolveMany(ctx context.Context, entities []models.Entity, storeID uint64) ([]*models.EnrichedEntity, error)
	ResolveByID(ctx context.Context, entityType enum.EntityType, id, storeID uint64) (*models.EnrichedEntity, error)
	ResolveList(ctx context.Context, entityType enum.EntityType, storeID uint64, limit, offset uint64) ([]*models.EnrichedEntity, error)
}

type service struct {
	catalog   CatalogStore
	discounts DiscountStore
	location  *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

func NewService(cs catalog.Service, dr discount.Repository, appConfig *config.Config, logger *zap.Logger) (Service, error) {
	location, err := appConfig.Resolver.Location()
	if err != nil {
		return nil, err
	}
	return NewResolver(cs, dr, location, time.Now, logger), nil
}

// NewResolver builds a resolver whose notion of "today" is clock() in location.
func NewResolver(cs CatalogStore, ds DiscountStore, location *time.Location, clock func() time.Time, logger *zap.Logger) Service {
	if location == nil {
		location = time.UTC
	}
	if clock == nil {
		clock = time.Now
	}
	return &service{
		catalog:   cs,
		discounts: ds,
		location:  location,
		now:       clock,
		logger:    logger,
	}
}

func (s *service) today() time.Time {
	return models.DateOf(s.now().In(s.location))
}

func (s *service) ResolveOne(ctx context.Context, entity models.Entity, storeID uint64) (*models.EnrichedEntity, error) {
	if err := checkStore(entity, storeID); err != nil {
		return nil, err
	}

	asOf := s.today()
	ad, err := s.discounts.FindActiveDiscount(ctx, entity.EntityType(), entity.EntityID(), storeID, asOf)
	if err != nil {
		return nil, &DataAccessError{Op: "find active discount", Err: err}
	}

	return s.enrich(entity, storeID, ad, asOf), nil
}

// ResolveMany returns one enriched entity per input, in input order, fetching
// discounts with one query per entity type present in the input.
func (s *service) ResolveMany(ctx context.Context, entities []models.Entity, storeID uint64) ([]*models.EnrichedEntity, error) {
	var (
		order []enum.EntityType
		ids   = make(map[enum.EntityType][]uint64)
		seen  = make(map[enum.EntityType]map[uint64]struct{})
	)

	for _, entity := range entities {
		if err := checkStore(entity, storeID); err != nil {
			return nil, err
		}

		t := entity.EntityType()
		if _, ok := seen[t]; !ok {
			seen[t] = make(map[uint64]struct{})
			order = append(order, t)
		}
		if _, ok := seen[t][entity.EntityID()]; ok {
			continue
		}
		seen[t][entity.EntityID()] = struct{}{}
		ids[t] = append(ids[t], entity.EntityID())
	}

	asOf := s.today()
	found := make(map[enum.EntityType]map[uint64]*models.ActiveDiscount, len(order))
	for _, t := range order {
		byID, err := s.discounts.FindActiveDiscounts(ctx, t, ids[t], storeID, asOf)
		if err != nil {
			return nil, &DataAccessError{Op: fmt.Sprintf("find active %s discounts", t), Err: err}
		}
		found[t] = byID
	}

	result := make([]*models.EnrichedEntity, 0, len(entities))
	for _, entity := range entities {
		ad := found[entity.EntityType()][entity.EntityID()]
		result = append(result, s.enrich(entity, storeID, ad, asOf))
	}

	return result, nil
}

func (s *service) ResolveByID(ctx context.Context, entityType enum.EntityType, id, storeID uint64) (*models.EnrichedEntity, error) {
	entity, err := s.catalog.GetEntity(ctx, entityType, id, storeID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, &NotFoundError{Type: entityType, ID: id, StoreID: storeID}
		}
		return nil, &DataAccessError{Op: "get catalog entity", Err: err}
	}

	return s.ResolveOne(ctx, entity, storeID)
}

func (s *service) ResolveList(ctx context.Context, entityType enum.EntityType, storeID uint64, limit, offset uint64) ([]*models.EnrichedEntity, error) {
	entities, err := s.catalog.ListEntities(ctx, entityType, storeID, limit, offset)
	if err != nil {
		return nil, &DataAccessError{Op: "list catalog entities", Err: err}
	}

	return s.ResolveMany(ctx, entities, storeID)
}

func checkStore(entity models.Entity, storeID uint64) error {
	if entity == nil {
		return &NotFoundError{StoreID: storeID}
	}
	if entity.EntityStoreID() != storeID {
		return &NotFoundError{Type: entity.EntityType(), ID: entity.EntityID(), StoreID: storeID}
	}
	return nil
}

// enrich applies the active predicate once more to the selected discount and
// computes the discounted price. Any rejection yields the bare entity.
func (s *service) enrich(entity models.Entity, storeID uint64, ad *models.ActiveDiscount, asOf time.Time) *models.EnrichedEntity {
	enriched := &models.EnrichedEntity{Entity: entity}
	if ad == nil {
		return enriched
	}

	if ad.Candidates > 1 {
		s.warn(&DataIntegrityError{
			Type:       entity.EntityType(),
			ItemID:     entity.EntityID(),
			StoreID:    storeID,
			DiscountID: ad.ID,
			Candidates: ad.Candidates,
			Reason:     "multiple active discounts, using the highest id",
		})
	}

	if ad.StoreID != storeID || ad.Status != enum.DiscountStatusActive || !ad.Covers(asOf) {
		return enriched
	}

	switch {
	case ad.Percentage.IsZero():
		return enriched
	case ad.Percentage.IsNegative() || ad.Percentage.GreaterThan(hundred):
		s.warn(&DataIntegrityError{
			Type:       entity.EntityType(),
			ItemID:     entity.EntityID(),
			StoreID:    storeID,
			DiscountID: ad.ID,
			Candidates: ad.Candidates,
			Reason:     fmt.Sprintf("percentage %s out of range", ad.Percentage),
		})
		return enriched
	}

	enriched.Discount = &models.DiscountInfo{
		DiscountID:    ad.ID,
		Percentage:    ad.Percentage,
		DiscountPrice: DiscountedPrice(entity.BasePrice(), ad.Percentage),
		StartDate:     models.DateOf(ad.StartDate),
		EndDate:       models.DateOf(ad.EndDate),
	}
	return enriched
}

func (s *service) warn(err *DataIntegrityError) {
	s.logger.Warn("Discount data integrity problem",
		zap.Error(err),
		zap.String("type", string(err.Type)),
		zap.Uint64("item_id", err.ItemID),
		zap.Uint64("store_id", err.StoreID),
		zap.Uint64("discount_id", err.DiscountID),
		zap.Int("candidates", err.Candidates))
}
