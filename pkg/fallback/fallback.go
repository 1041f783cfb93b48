package fallback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"userflow/pkg/circuitbreaker"
	"userflow/pkg/logger"
)

type Strategy int

const (
	StrategyCache Strategy = iota
	StrategyDefault
	StrategyRetry
)

// PrimaryFunc is the operation being protected. It is supplied per call so a
// single registered fallback can serve reads keyed by entity.
type PrimaryFunc func(ctx context.Context) (interface{}, error)

type FallbackManager struct {
	strategies map[string]*FallbackConfig
	cache      FallbackCache
	logger     logger.Logger
	retryQueue *RetryQueue
	mutex      sync.RWMutex
}

type FallbackConfig struct {
	Name           string
	FallbackFunc   func(ctx context.Context, err error) (interface{}, error)
	Strategy       Strategy
	MaxRetries     int
	RetryInterval  time.Duration
	Timeout        time.Duration
	CircuitBreaker *circuitbreaker.CircuitBreaker
	CacheTTL       time.Duration
	DefaultValue   interface{}
}

type FallbackCache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{}, ttl time.Duration)
	Delete(key string)
}

func NewFallbackManager(logger logger.Logger) *FallbackManager {
	return &FallbackManager{
		strategies: make(map[string]*FallbackConfig),
		cache:      NewSimpleCache(),
		logger:     logger,
		retryQueue: NewRetryQueue(5, logger),
	}
}

func (fm *FallbackManager) RegisterFallback(config *FallbackConfig) {
	fm.mutex.Lock()
	defer fm.mutex.Unlock()

	fm.strategies[config.Name] = config
	fm.logger.InfoContext(context.Background(), "Fallback registered", map[string]interface{}{
		"name":     config.Name,
		"strategy": config.Strategy,
	})
}

// Execute runs primary under the named fallback policy. Successful results
// are remembered under cacheKey; when the primary fails (or its circuit
// breaker is open) the last known good value is served instead.
func (fm *FallbackManager) Execute(ctx context.Context, name string, cacheKey string, primary PrimaryFunc) (interface{}, error) {
	fm.mutex.RLock()
	config, exists := fm.strategies[name]
	fm.mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("fallback configuration not found: %s", name)
	}

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	result, err := fm.executePrimary(ctx, config, primary)
	if err == nil {
		if config.Strategy == StrategyCache && cacheKey != "" && result != nil {
			fm.cache.Set(cacheKey, result, config.CacheTTL)
		}
		return result, nil
	}

	return fm.executeFallback(ctx, config, cacheKey, primary, err)
}

func (fm *FallbackManager) executePrimary(ctx context.Context, config *FallbackConfig, primary PrimaryFunc) (interface{}, error) {
	if config.CircuitBreaker != nil {
		return config.CircuitBreaker.Execute(func() (interface{}, error) {
			return primary(ctx)
		})
	}

	return primary(ctx)
}

func (fm *FallbackManager) executeFallback(ctx context.Context, config *FallbackConfig, cacheKey string, primary PrimaryFunc, primaryErr error) (interface{}, error) {
	switch config.Strategy {
	case StrategyCache:
		return fm.fallbackCache(config, cacheKey, primaryErr)
	case StrategyDefault:
		return fm.fallbackDefault(config, primaryErr)
	case StrategyRetry:
		return fm.fallbackRetry(ctx, config, primary, primaryErr)
	default:
		if config.FallbackFunc != nil {
			return config.FallbackFunc(ctx, primaryErr)
		}
		return nil, primaryErr
	}
}

func (fm *FallbackManager) fallbackCache(config *FallbackConfig, cacheKey string, primaryErr error) (interface{}, error) {
	if cacheKey == "" {
		return nil, fmt.Errorf("cache key not specified for cache fallback: %w", primaryErr)
	}

	if value, found := fm.cache.Get(cacheKey); found {
		fm.logger.InfoContext(context.Background(), "Fallback cache hit", map[string]interface{}{
			"name":      config.Name,
			"cache_key": cacheKey,
		})
		return value, nil
	}

	if config.DefaultValue != nil {
		fm.logger.InfoContext(context.Background(), "Fallback to default value", map[string]interface{}{
			"name": config.Name,
		})
		return config.DefaultValue, nil
	}

	return nil, fmt.Errorf("cache fallback failed, no cached value or default: %w", primaryErr)
}

func (fm *FallbackManager) fallbackDefault(config *FallbackConfig, primaryErr error) (interface{}, error) {
	if config.DefaultValue != nil {
		fm.logger.InfoContext(context.Background(), "Fallback to default value", map[string]interface{}{
			"name": config.Name,
		})
		return config.DefaultValue, nil
	}

	return nil, fmt.Errorf("no default value specified: %w", primaryErr)
}

func (fm *FallbackManager) fallbackRetry(ctx context.Context, config *FallbackConfig, primary PrimaryFunc, primaryErr error) (interface{}, error) {
	maxRetries := config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	interval := config.RetryInterval
	if interval <= 0 {
		interval = time.Second
	}

	for attempt := 1; attempt <= maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
			result, err := fm.executePrimary(ctx, config, primary)
			if err == nil {
				fm.logger.InfoContext(context.Background(), "Retry successful", map[string]interface{}{
					"name":    config.Name,
					"attempt": attempt,
				})
				return result, nil
			}

			fm.logger.Error("Retry attempt failed", map[string]interface{}{
				"name":    config.Name,
				"attempt": attempt,
				"error":   err.Error(),
			})

			interval *= 2
		}
	}

	if config.FallbackFunc != nil {
		return config.FallbackFunc(ctx, primaryErr)
	}

	return nil, fmt.Errorf("all retry attempts failed: %w", primaryErr)
}

// InvalidateCache drops the remembered value for a key, for callers that
// know the underlying data changed.
func (fm *FallbackManager) InvalidateCache(cacheKey string) {
	fm.cache.Delete(cacheKey)
}

func (fm *FallbackManager) QueueRetry(item *RetryItem) {
	fm.retryQueue.Add(item)
}

func (fm *FallbackManager) GetStats() map[string]interface{} {
	fm.mutex.RLock()
	defer fm.mutex.RUnlock()

	stats := map[string]interface{}{
		"registered_fallbacks": len(fm.strategies),
		"retry_queue_size":     fm.retryQueue.Len(),
	}

	fallbackStats := make(map[string]interface{})
	for name, config := range fm.strategies {
		stat := map[string]interface{}{
			"strategy": config.Strategy,
		}
		if config.CircuitBreaker != nil {
			stat["circuit_breaker_state"] = config.CircuitBreaker.State().String()
			stat["circuit_breaker_counts"] = config.CircuitBreaker.Counts()
		}
		fallbackStats[name] = stat
	}
	stats["fallbacks"] = fallbackStats

	return stats
}

func (fm *FallbackManager) Close() {
	fm.retryQueue.Close()
}
