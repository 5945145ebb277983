package marketplace

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"goflare.io/marketplace/config"
	"goflare.io/marketplace/event"
	"goflare.io/marketplace/models"
)

const (
	minTickerInterval = 5 * time.Second
	maxTickerInterval = 30 * time.Second
	handoffTimeout    = time.Second
)

var ErrQueueFull = errors.New("event queue is full")

type Dispatcher struct {
	WorkerPool  chan chan WorkRequest
	maxWorkers  int
	jobQueue    chan WorkRequest
	invalidator Invalidator
	logger      *zap.Logger
	workers     []Worker
	nextID      int
	stop        chan struct{}
	stopOnce    sync.Once
	mu          sync.Mutex
}

func NewDispatcher(maxWorkers int, jobQueueSize int, invalidator Invalidator, logger *zap.Logger) *Dispatcher {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if jobQueueSize < 1 {
		jobQueueSize = 1
	}
	pool := make(chan chan WorkRequest, maxWorkers)
	return &Dispatcher{
		WorkerPool:  pool,
		maxWorkers:  maxWorkers,
		jobQueue:    make(chan WorkRequest, jobQueueSize),
		invalidator: invalidator,
		logger:      logger,
		stop:        make(chan struct{}),
	}
}

func ProvideDispatcher(appConfig *config.Config, repo event.Repository, logger *zap.Logger) *Dispatcher {
	return NewDispatcher(appConfig.Events.Workers, appConfig.Events.QueueSize, repo, logger)
}

// Run starts one worker and lets the dispatch loop scale up to maxWorkers.
func (d *Dispatcher) Run() {
	d.mu.Lock()
	d.addWorker()
	d.mu.Unlock()

	go d.dispatch()
}

// Submit queues an event without blocking.
func (d *Dispatcher) Submit(ctx context.Context, event *models.DiscountEvent) error {
	select {
	case d.jobQueue <- WorkRequest{Event: event, Ctx: ctx}:
		return nil
	case <-d.stop:
		return errors.New("dispatcher stopped")
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) dispatch() {
	tickerInterval := 10 * time.Second
	ticker := time.NewTicker(tickerInterval)
	defer ticker.Stop()
	var wg sync.WaitGroup

	for {
		select {
		case job := <-d.jobQueue:
			if len(d.jobQueue) > 0 {
				d.adjustWorkerPool()
			}
			wg.Add(1)
			go func(job WorkRequest) {
				defer wg.Done()
				d.deliver(job)
			}(job)

		case <-ticker.C:
			d.adjustWorkerPool()

			jobQueueLength := len(d.jobQueue)
			if jobQueueLength > 50 {
				tickerInterval = minTickerInterval
			} else if jobQueueLength > 20 {
				tickerInterval = 10 * time.Second
			} else {
				tickerInterval = maxTickerInterval
			}

			ticker.Reset(tickerInterval)
		case <-d.stop:
			wg.Wait()
			return
		}
	}
}

// deliver hands job to the next idle worker. A channel left behind by a
// stopped worker is skipped after handoffTimeout.
func (d *Dispatcher) deliver(job WorkRequest) {
	for {
		select {
		case jobChannel := <-d.WorkerPool:
			select {
			case jobChannel <- job:
				// 成功將任務發送給 worker
				return
			case <-time.After(handoffTimeout):
				continue
			case <-job.Ctx.Done():
				d.logger.Warn("Job context canceled before processing",
					zap.Error(job.Ctx.Err()),
					zap.Uint64("discount_id", job.Event.DiscountID))
				return
			}
		case <-job.Ctx.Done():
			d.logger.Warn("Job context canceled while waiting for available worker",
				zap.Error(job.Ctx.Err()),
				zap.Uint64("discount_id", job.Event.DiscountID))
			return
		case <-d.stop:
			return
		}
	}
}

// adjustWorkerPool grows the pool while events are queued and shrinks it to
// one worker when the queue is empty.
func (d *Dispatcher) adjustWorkerPool() {
	d.mu.Lock()
	defer d.mu.Unlock()

	queued := len(d.jobQueue)
	current := len(d.workers)

	switch {
	case queued > current && current < d.maxWorkers:
		d.addWorker()
		d.logger.Info("Added new worker", zap.Int("workers", len(d.workers)), zap.Int("queued", queued))
	case queued == 0 && current > 1:
		worker := d.workers[len(d.workers)-1]
		worker.Stop()
		d.workers = d.workers[:len(d.workers)-1]
		d.logger.Info("Removed worker", zap.Int("worker_id", worker.ID))
	case current == 0:
		d.addWorker()
	}
}

// addWorker must be called with d.mu held.
func (d *Dispatcher) addWorker() {
	d.nextID++
	worker := NewWorker(d.nextID, d.WorkerPool, d.invalidator, d.logger)
	worker.Start()
	d.workers = append(d.workers, worker)
}

func (d *Dispatcher) WorkerCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.workers)
}

func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.stop)

		d.mu.Lock()
		for _, worker := range d.workers {
			worker.Stop()
		}
		d.workers = nil
		d.mu.Unlock()
	})
}
