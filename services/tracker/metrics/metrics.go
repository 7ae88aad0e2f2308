package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// appendsTotal counts submitted runs by append outcome
	appendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bench_tracker_appends_total",
		Help: "Total submitted benchmark runs by append outcome",
	}, []string{"outcome"})

	// classificationsTotal counts regression classifications by status
	classificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bench_tracker_classifications_total",
		Help: "Total regression classifications by status",
	}, []string{"status"})

	// flushesTotal counts history flushes by result
	flushesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bench_tracker_flushes_total",
		Help: "Total history flushes to the persister by result",
	}, []string{"result"})

	// runsPerFlush tracks how many runs the flushed snapshot held
	runsPerFlush = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bench_tracker_flush_runs",
		Help:    "Number of runs held by a flushed history snapshot",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})
)

// RecordAppend counts one append outcome
func RecordAppend(outcome string) {
	appendsTotal.WithLabelValues(outcome).Inc()
}

// RecordClassification counts one regression classification
func RecordClassification(status string) {
	classificationsTotal.WithLabelValues(status).Inc()
}

// RecordFlush counts one flush and the size of the flushed snapshot
func RecordFlush(err error, numRuns int) {
	if err != nil {
		flushesTotal.WithLabelValues("error").Inc()
		return
	}

	flushesTotal.WithLabelValues("ok").Inc()
	runsPerFlush.Observe(float64(numRuns))
}
