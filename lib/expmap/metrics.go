package expmap

import (
	"fmt"
	"io"

	"github.com/VictoriaMetrics/metrics"
	gometrics "github.com/rcrowley/go-metrics"
)

// mapMetrics bundles the instrumentation of one map.
//
// Counters and gauges live in a VictoriaMetrics set so they can be written in the Prometheus text
// format. The sweep lag and duration need percentiles over a decaying window, those are kept in
// go-metrics meters and exported to the set as gauges.
type mapMetrics struct {
	set *metrics.Set

	puts       *metrics.Counter
	overwrites *metrics.Counter
	removes    *metrics.Counter
	evictions  *metrics.Counter
	sweeps     *metrics.Counter

	lag   gometrics.Histogram // ms between a bucket's deadline and its sweep
	sweep gometrics.Timer
}

// newMapMetrics registers the metrics of the map called name in set.
// The gauges read size and buckets through the given callbacks.
// Registering two maps with the same name in one set panics, as VictoriaMetrics does for duplicates.
func newMapMetrics(set *metrics.Set, name string, entries, buckets func() float64) *mapMetrics {
	if set == nil {
		set = metrics.NewSet()
	}

	m := &mapMetrics{
		set:        set,
		puts:       set.NewCounter(metricName("expmap_puts_total", name)),
		overwrites: set.NewCounter(metricName("expmap_overwrites_total", name)),
		removes:    set.NewCounter(metricName("expmap_removes_total", name)),
		evictions:  set.NewCounter(metricName("expmap_evictions_total", name)),
		sweeps:     set.NewCounter(metricName("expmap_sweeps_total", name)),
		lag:        gometrics.NewHistogram(gometrics.NewExpDecaySample(1028, 0.015)),
		sweep:      gometrics.NewTimer(),
	}

	set.NewGauge(metricName("expmap_entries", name), entries)
	set.NewGauge(metricName("expmap_buckets", name), buckets)
	set.NewGauge(fmt.Sprintf(`expmap_sweep_lag_ms{map=%q,quantile="0.5"}`, name), func() float64 {
		return m.lag.Percentile(0.5)
	})
	set.NewGauge(fmt.Sprintf(`expmap_sweep_lag_ms{map=%q,quantile="0.99"}`, name), func() float64 {
		return m.lag.Percentile(0.99)
	})
	set.NewGauge(metricName("expmap_sweep_duration_seconds_mean", name), func() float64 {
		return m.sweep.Mean() / 1e9
	})

	return m
}

func metricName(metric, mapName string) string {
	return fmt.Sprintf("%s{map=%q}", metric, mapName)
}

// write renders all metrics of the set in the Prometheus text format
func (m *mapMetrics) write(w io.Writer) {
	m.set.WritePrometheus(w)
}

// stop releases the sweep timer, its meter ticks in a shared background goroutine
func (m *mapMetrics) stop() {
	m.sweep.Stop()
}
