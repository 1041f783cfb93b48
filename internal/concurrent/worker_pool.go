package concurrent

import (
	"sync"
	"time"

	"userflow/internal/domain"
	"userflow/pkg/logger"
	"userflow/pkg/metrics"
)

type AuditLogProcessor = func(entry *domain.AuditLog) error

type WorkerPool struct {
	numWorkers     int
	jobQueue       chan *domain.AuditLog
	processor      AuditLogProcessor
	wg             sync.WaitGroup
	logger         logger.Logger
	started        bool
	mutex          sync.Mutex
	statsCollector *StatsCollector
}

func NewWorkerPool(numWorkers int, queueSize int, processor AuditLogProcessor, logger logger.Logger) *WorkerPool {
	return &WorkerPool{
		numWorkers:     numWorkers,
		jobQueue:       make(chan *domain.AuditLog, queueSize),
		processor:      processor,
		logger:         logger,
		started:        false,
		statsCollector: NewStatsCollector(),
	}
}

func (wp *WorkerPool) Start() {
	wp.mutex.Lock()
	defer wp.mutex.Unlock()

	if wp.started {
		return
	}

	wp.logger.Info("İşçi havuzu başlatılıyor", map[string]interface{}{
		"num_workers": wp.numWorkers,
		"queue_size":  cap(wp.jobQueue),
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		workerID := i
		go func() {
			defer wp.wg.Done()
			wp.worker(workerID)
		}()
	}

	wp.started = true
}

// Stop closes the queue and waits until the workers have drained every
// pending entry. No entry accepted by Submit is lost.
func (wp *WorkerPool) Stop() {
	wp.mutex.Lock()
	if !wp.started {
		wp.mutex.Unlock()
		return
	}
	wp.started = false
	wp.mutex.Unlock()

	wp.logger.Info("İşçi havuzu durduruluyor", map[string]interface{}{
		"pending": len(wp.jobQueue),
	})

	close(wp.jobQueue)
	wp.wg.Wait()
}

// Submit queues an entry without blocking. It returns false when the pool is
// stopped or the queue is full, so the caller can fall back to a synchronous
// write.
func (wp *WorkerPool) Submit(entry *domain.AuditLog) bool {
	wp.mutex.Lock()
	if !wp.started {
		wp.mutex.Unlock()
		return false
	}
	wp.mutex.Unlock()

	select {
	case wp.jobQueue <- entry:
		wp.statsCollector.IncrementSubmitted()
		metrics.UpdateWorkerPoolStats(len(wp.jobQueue), wp.statsCollector.ActiveWorkers())
		return true
	default:
		wp.statsCollector.IncrementRejected()
		wp.logger.Warn("Denetim kuyruğu dolu, kayıt reddedildi", map[string]interface{}{
			"entity_type": entry.EntityType,
			"entity_id":   entry.EntityID,
		})
		return false
	}
}

func (wp *WorkerPool) worker(id int) {
	wp.logger.Debug("İşçi başlatıldı", map[string]interface{}{"worker_id": id})

	for entry := range wp.jobQueue {
		wp.statsCollector.IncrementActive()
		metrics.UpdateWorkerPoolStats(len(wp.jobQueue), wp.statsCollector.ActiveWorkers())

		startTime := time.Now()
		err := wp.processor(entry)
		processingTime := time.Since(startTime)

		if err != nil {
			wp.statsCollector.IncrementFailed()
			wp.logger.Error("Denetim kaydı işlenemedi", map[string]interface{}{
				"worker_id":       id,
				"entity_type":     entry.EntityType,
				"entity_id":       entry.EntityID,
				"action":          entry.Action,
				"error":           err.Error(),
				"processing_time": processingTime.String(),
			})
		} else {
			wp.statsCollector.IncrementCompleted()
			wp.statsCollector.RecordProcessingTime(processingTime)
		}

		wp.statsCollector.DecrementActive()
		metrics.UpdateWorkerPoolStats(len(wp.jobQueue), wp.statsCollector.ActiveWorkers())
	}

	wp.logger.Debug("İş kuyruğu kapatıldı, işçi durduruldu", map[string]interface{}{"worker_id": id})
}

func (wp *WorkerPool) GetStats() Stats {
	return wp.statsCollector.GetStats()
}

func (wp *WorkerPool) QueueLength() int {
	return len(wp.jobQueue)
}

func (wp *WorkerPool) QueueCapacity() int {
	return cap(wp.jobQueue)
}
