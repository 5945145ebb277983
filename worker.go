package marketplace

import (
	"context"

	"go.uber.org/zap"

	"goflare.io/marketplace/models"
)

// Invalidator drops the cached event history of a discount.
type Invalidator interface {
	Invalidate(ctx context.Context, discountID uint64)
}

type Worker struct {
	ID          int
	WorkerPool  chan chan WorkRequest
	JobChannel  chan WorkRequest
	quit        chan struct{}
	invalidator Invalidator
	logger      *zap.Logger
}

type WorkRequest struct {
	Event *models.DiscountEvent
	Ctx   context.Context
}

func NewWorker(id int, workerPool chan chan WorkRequest, invalidator Invalidator, logger *zap.Logger) Worker {
	return Worker{
		ID:          id,
		WorkerPool:  workerPool,
		JobChannel:  make(chan WorkRequest),
		quit:        make(chan struct{}),
		invalidator: invalidator,
		logger:      logger,
	}
}

func (w Worker) Start() {
	go func() {
		for {
			select {
			case w.WorkerPool <- w.JobChannel:
			case <-w.quit:
				return
			}

			select {
			case job := <-w.JobChannel:
				w.process(job)
			case <-w.quit:
				return
			}
		}
	}()
}

func (w Worker) process(job WorkRequest) {
	event := job.Event
	w.invalidator.Invalidate(job.Ctx, event.DiscountID)

	w.logger.Debug("discount event processed",
		zap.Int("worker_id", w.ID),
		zap.String("event_type", string(event.Type)),
		zap.Uint64("discount_id", event.DiscountID),
		zap.Int("items", len(event.Items)))
}

func (w Worker) Stop() {
	close(w.quit)
}
