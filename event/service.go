package event

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"goflare.io/marketplace/models"
)

const (
	DefaultHistoryLimit = historyPageSize
	replayBatchSize     = 100
)

// Publisher delivers an event to the message bus.
type Publisher interface {
	PublishDiscountEvent(ctx context.Context, event *models.DiscountEvent) error
}

type Service interface {
	// PublishDiscountEvent records the event, then hands it to the bus.
	PublishDiscountEvent(ctx context.Context, event *models.DiscountEvent) error
	IsEventPublished(ctx context.Context, id uint64) (bool, error)
	History(ctx context.Context, discountID uint64, limit uint64) ([]*models.DiscountEvent, error)
	// RepublishPending retries events recorded while the bus was unreachable.
	RepublishPending(ctx context.Context) (int, error)
}

type service struct {
	repo      Repository
	publisher Publisher
	logger    *zap.Logger
}

func NewService(repo Repository, publisher Publisher, logger *zap.Logger) Service {
	return &service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *service) PublishDiscountEvent(ctx context.Context, event *models.DiscountEvent) error {
	recordErr := s.repo.Create(ctx, event)
	if recordErr != nil {
		s.logger.Warn("Failed to record discount event",
			zap.Error(recordErr),
			zap.Uint64("discount_id", event.DiscountID))
	}

	// 即使紀錄失敗仍要發佈，讓其他節點清除快取
	if err := s.publisher.PublishDiscountEvent(ctx, event); err != nil {
		return errors.Join(recordErr, err)
	}

	if recordErr != nil {
		return recordErr
	}
	return s.markPublished(ctx, event)
}

func (s *service) markPublished(ctx context.Context, event *models.DiscountEvent) error {
	if err := s.repo.MarkAsPublished(ctx, event.ID); err != nil {
		return err
	}
	event.Published = true
	return nil
}

func (s *service) IsEventPublished(ctx context.Context, id uint64) (bool, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return event.Published, nil
}

func (s *service) History(ctx context.Context, discountID uint64, limit uint64) ([]*models.DiscountEvent, error) {
	if limit == 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}

	events, err := s.repo.ListByDiscount(ctx, discountID)
	if err != nil {
		return nil, err
	}
	if uint64(len(events)) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (s *service) RepublishPending(ctx context.Context) (int, error) {
	published := 0
	defer func() {
		if published > 0 {
			s.logger.Info("Republished pending discount events", zap.Int("count", published))
		}
	}()

	for {
		pending, err := s.repo.ListUnpublished(ctx, replayBatchSize)
		if err != nil {
			return published, err
		}

		for _, event := range pending {
			if err = s.publisher.PublishDiscountEvent(ctx, event); err != nil {
				return published, err
			}
			if err = s.markPublished(ctx, event); err != nil {
				return published, err
			}
			published++
		}

		// 不足一批代表已處理完畢
		if len(pending) < replayBatchSize {
			return published, nil
		}
	}
}
