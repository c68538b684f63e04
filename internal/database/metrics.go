package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// storeMetrics holds the per-context metric set.
type storeMetrics struct {
	set *metrics.Set
}

func newStoreMetrics(liveHandles func() float64) *storeMetrics {
	set := metrics.NewSet()
	set.NewGauge("focus_store_live_handles", liveHandles)
	return &storeMetrics{set: set}
}

func (m *storeMetrics) observe(op, collection string, start time.Time, err error) {
	if collection == "" {
		collection = "-"
	}
	m.set.GetOrCreateCounter(fmt.Sprintf(`focus_store_operations_total{op=%q,collection=%q}`, op, collection)).Inc()
	m.set.GetOrCreateHistogram(fmt.Sprintf(`focus_store_operation_duration_seconds{op=%q}`, op)).UpdateDuration(start)
	if err != nil {
		code := strings.ReplaceAll(CodeOf(err).String(), " ", "_")
		m.set.GetOrCreateCounter(fmt.Sprintf(`focus_store_errors_total{op=%q,code=%q}`, op, code)).Inc()
	}
}

func (m *storeMetrics) upgraded(gates, steps int) {
	m.set.GetOrCreateCounter("focus_store_upgrades_total").Inc()
	m.set.GetOrCreateCounter("focus_store_migration_gates_total").Add(gates)
	m.set.GetOrCreateCounter("focus_store_migration_steps_total").Add(steps)
}
