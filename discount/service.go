package discount

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"goflare.io/marketplace/driver"
	"goflare.io/marketplace/models"
	"goflare.io/marketplace/models/enum"
)

var ErrInvalidDiscount = errors.New("invalid discount")

var hundred = decimal.NewFromInt(100)

// Publisher delivers discount change events to other instances.
type Publisher interface {
	PublishDiscountEvent(ctx context.Context, event *models.DiscountEvent) error
}

type Service interface {
	Create(ctx context.Context, discount *models.Discount) error
	GetByID(ctx context.Context, id uint64) (*models.Discount, error)
	Update(ctx context.Context, discount *models.PartialDiscount) (*models.Discount, error)
	Delete(ctx context.Context, id uint64) error
	ListByStore(ctx context.Context, storeID uint64) ([]*models.Discount, error)
	LinkItem(ctx context.Context, item models.DiscountItem) error
	UnlinkItem(ctx context.Context, item models.DiscountItem) error
	ListItems(ctx context.Context, discountID uint64) ([]models.DiscountItem, error)
}

type service struct {
	repo               Repository
	transactionManager *driver.TransactionManager
	publisher          Publisher
	logger             *zap.Logger
}

func NewService(repo Repository, tm *driver.TransactionManager, publisher Publisher, logger *zap.Logger) Service {
	return &service{
		repo:               repo,
		transactionManager: tm,
		publisher:          publisher,
		logger:             logger,
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidDiscount, fmt.Sprintf(format, args...))
}

// Validate checks the invariants every stored discount must satisfy.
func Validate(d *models.Discount) error {
	if d.StoreID == 0 {
		return invalid("store_id is required")
	}
	if d.Percentage.IsNegative() || d.Percentage.GreaterThan(hundred) {
		return invalid("percentage must be between 0 and 100")
	}
	if d.StartDate.IsZero() || d.EndDate.IsZero() {
		return invalid("start_date and end_date are required")
	}
	if models.DateOf(d.EndDate).Before(models.DateOf(d.StartDate)) {
		return invalid("end_date must not be before start_date")
	}
	if !d.Status.Valid() {
		return invalid("unknown status %q", d.Status)
	}
	return nil
}

func (s *service) Create(ctx context.Context, discount *models.Discount) error {
	if discount.Status == "" {
		discount.Status = enum.DiscountStatusActive
	}
	if err := Validate(discount); err != nil {
		return err
	}

	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.repo.Create(ctx, tx, discount)
	}); err != nil {
		return err
	}

	s.publish(ctx, enum.DiscountEventCreated, discount.ID, []uint64{discount.StoreID}, nil)
	return nil
}

func (s *service) GetByID(ctx context.Context, id uint64) (*models.Discount, error) {
	var discount *models.Discount
	err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		discount, err = s.repo.GetByID(ctx, tx, id)
		return err
	})
	return discount, err
}

func (s *service) Update(ctx context.Context, partial *models.PartialDiscount) (*models.Discount, error) {
	var (
		previous, updated *models.Discount
		items             []models.DiscountItem
	)

	err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		existing, err := s.repo.GetByID(ctx, tx, partial.ID)
		if err != nil {
			return err
		}
		prev := *existing
		previous = &prev

		// 合併後再驗證，確保日期區間與百分比仍然合法
		merged := *existing
		if partial.StoreID != nil {
			merged.StoreID = *partial.StoreID
		}
		if partial.Percentage != nil {
			merged.Percentage = *partial.Percentage
		}
		if partial.StartDate != nil {
			merged.StartDate = *partial.StartDate
		}
		if partial.EndDate != nil {
			merged.EndDate = *partial.EndDate
		}
		if partial.Status != nil {
			merged.Status = *partial.Status
		}
		if err = Validate(&merged); err != nil {
			return err
		}

		if err = s.repo.Update(ctx, tx, partial); err != nil {
			return err
		}

		if items, err = s.repo.ListItems(ctx, tx, partial.ID); err != nil {
			return err
		}

		updated = &merged
		return nil
	})
	if err != nil {
		return nil, err
	}

	stores := []uint64{previous.StoreID}
	if updated.StoreID != previous.StoreID {
		stores = append(stores, updated.StoreID)
	}
	s.publish(ctx, enum.DiscountEventUpdated, partial.ID, stores, items)

	return updated, nil
}

func (s *service) Delete(ctx context.Context, id uint64) error {
	var (
		existing *models.Discount
		items    []models.DiscountItem
	)

	err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		if existing, err = s.repo.GetByID(ctx, tx, id); err != nil {
			return err
		}
		if items, err = s.repo.ListItems(ctx, tx, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	stores := []uint64{existing.StoreID}
	s.publish(ctx, enum.DiscountEventDeleted, id, stores, items)

	return nil
}

func (s *service) ListByStore(ctx context.Context, storeID uint64) ([]*models.Discount, error) {
	return s.repo.ListByStore(ctx, storeID)
}

func (s *service) LinkItem(ctx context.Context, item models.DiscountItem) error {
	return s.changeItem(ctx, item, enum.DiscountEventItemLinked, s.repo.LinkItem)
}

func (s *service) UnlinkItem(ctx context.Context, item models.DiscountItem) error {
	return s.changeItem(ctx, item, enum.DiscountEventItemUnlinked, s.repo.UnlinkItem)
}

func (s *service) ListItems(ctx context.Context, discountID uint64) ([]models.DiscountItem, error) {
	var items []models.DiscountItem
	err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := s.repo.GetByID(ctx, tx, discountID); err != nil {
			return err
		}
		var err error
		items, err = s.repo.ListItems(ctx, tx, discountID)
		return err
	})
	return items, err
}

func (s *service) changeItem(
	ctx context.Context,
	item models.DiscountItem,
	eventType enum.DiscountEventType,
	apply func(context.Context, pgx.Tx, models.DiscountItem) error,
) error {
	if !item.ItemType.Valid() {
		return invalid("unknown item_type %q", item.ItemType)
	}
	if item.ItemID == 0 {
		return invalid("item_id is required")
	}

	var storeID uint64
	err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		existing, err := s.repo.GetByID(ctx, tx, item.DiscountID)
		if err != nil {
			return err
		}
		storeID = existing.StoreID
		return apply(ctx, tx, item)
	})
	if err != nil {
		return err
	}

	items := []models.DiscountItem{item}
	s.publish(ctx, eventType, item.DiscountID, []uint64{storeID}, items)

	return nil
}

// publish is best effort; a failed publish is only logged.
func (s *service) publish(ctx context.Context, eventType enum.DiscountEventType, discountID uint64, stores []uint64, items []models.DiscountItem) {
	if s.publisher == nil {
		return
	}

	event := &models.DiscountEvent{
		Type:       eventType,
		DiscountID: discountID,
		StoreIDs:   stores,
		Items:      items,
		OccurredAt: time.Now(),
	}
	if err := s.publisher.PublishDiscountEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish discount event",
			zap.Error(err),
			zap.String("event_type", string(eventType)),
			zap.Uint64("discount_id", discountID))
	}
}
