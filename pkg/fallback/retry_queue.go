package fallback

import (
	"context"
	"sync"
	"time"

	"userflow/pkg/logger"
)

// RetryQueue re-runs failed side effects in the background with a bounded
// number of attempts per item.
type RetryQueue struct {
	items   chan *RetryItem
	workers int
	logger  logger.Logger
	closed  bool
	mutex   sync.Mutex
	wg      sync.WaitGroup
}

type RetryItem struct {
	ID         string
	Function   func() error
	MaxRetries int
	Interval   time.Duration
	Attempt    int
}

func NewRetryQueue(workers int, logger logger.Logger) *RetryQueue {
	rq := &RetryQueue{
		items:   make(chan *RetryItem, 1000),
		workers: workers,
		logger:  logger,
	}

	for i := 0; i < workers; i++ {
		rq.wg.Add(1)
		go func() {
			defer rq.wg.Done()
			rq.worker()
		}()
	}

	return rq
}

func (rq *RetryQueue) Add(item *RetryItem) {
	rq.mutex.Lock()
	defer rq.mutex.Unlock()

	if rq.closed {
		rq.logger.Warn("Retry queue is closed, dropping item", map[string]interface{}{
			"item_id": item.ID,
		})
		return
	}

	select {
	case rq.items <- item:
	default:
		rq.logger.Error("Retry queue is full, dropping item", map[string]interface{}{
			"item_id": item.ID,
		})
	}
}

func (rq *RetryQueue) Len() int {
	return len(rq.items)
}

// Close stops accepting new items and waits for the workers to finish the
// backlog. Items waiting on a retry interval when Close is called are
// dropped.
func (rq *RetryQueue) Close() {
	rq.mutex.Lock()
	if rq.closed {
		rq.mutex.Unlock()
		return
	}
	rq.closed = true
	close(rq.items)
	rq.mutex.Unlock()

	rq.wg.Wait()
}

func (rq *RetryQueue) worker() {
	for item := range rq.items {
		rq.processRetryItem(item)
	}
}

func (rq *RetryQueue) processRetryItem(item *RetryItem) {
	item.Attempt++

	err := item.Function()
	if err == nil {
		rq.logger.InfoContext(context.Background(), "Retry operation successful", map[string]interface{}{
			"item_id": item.ID,
			"attempt": item.Attempt,
		})
		return
	}

	if item.Attempt < item.MaxRetries {
		go func() {
			time.Sleep(item.Interval)
			rq.Add(item)
		}()

		rq.logger.Error("Retry operation failed, scheduling retry", map[string]interface{}{
			"item_id": item.ID,
			"attempt": item.Attempt,
			"error":   err.Error(),
		})
	} else {
		rq.logger.Error("Retry operation failed permanently", map[string]interface{}{
			"item_id":     item.ID,
			"attempt":     item.Attempt,
			"max_retries": item.MaxRetries,
			"error":       err.Error(),
		})
	}
}
