// cache.go — LRU-кэш отчётов dashboard с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exam_report_cache_hits_total",
		Help: "Общее количество попаданий в кэш отчётов dashboard.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exam_report_cache_misses_total",
		Help: "Общее количество промахов кэша отчётов dashboard.",
	})
)

// ReportCache — кэш отчётов по ключу "отчёт[:параметры]".
// Каждый экземпляр сервиса держит собственный in-memory кэш.
// Нулевой TTL отключает кэш: Get всегда промахивается, Set ничего не делает.
type ReportCache struct {
	cache *expirable.LRU[string, any]
}

// NewReportCache создаёт кэш с указанным максимальным размером и TTL.
func NewReportCache(maxSize int, ttl time.Duration) *ReportCache {
	if ttl <= 0 || maxSize <= 0 {
		return &ReportCache{}
	}
	return &ReportCache{cache: expirable.NewLRU[string, any](maxSize, nil, ttl)}
}

// Get возвращает отчёт из кэша.
func (c *ReportCache) Get(key string) (any, bool) {
	if c == nil || c.cache == nil {
		return nil, false
	}
	val, ok := c.cache.Get(key)
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Set добавляет или обновляет отчёт в кэше.
func (c *ReportCache) Set(key string, value any) {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.Add(key, value)
}
