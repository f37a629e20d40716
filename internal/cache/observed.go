package cache

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Observed считает попадания и промахи кэша для одной проекции.
type Observed struct {
	Cache
	projection string
	lookups    *prometheus.CounterVec
}

// NewObserved оборачивает c. lookups ожидает метки projection и result.
func NewObserved(c Cache, projection string, lookups *prometheus.CounterVec) *Observed {
	return &Observed{Cache: c, projection: projection, lookups: lookups}
}

// Get читает key и отмечает hit, miss или error.
func (o *Observed) Get(ctx context.Context, key string, result any) (bool, error) {
	found, err := o.Cache.Get(ctx, key, result)
	switch {
	case err != nil:
		o.lookups.WithLabelValues(o.projection, "error").Inc()
	case found:
		o.lookups.WithLabelValues(o.projection, "hit").Inc()
	default:
		o.lookups.WithLabelValues(o.projection, "miss").Inc()
	}
	return found, err
}

// Set сохраняет value без учёта в метриках.
func (o *Observed) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return o.Cache.Set(ctx, key, value, expiration)
}
