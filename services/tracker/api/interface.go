package api

import (
	"iter"

	"github.com/iulianpascalau/bench-tracker/services/tracker/ingest"
	"github.com/iulianpascalau/bench-tracker/services/tracker/model"
	"github.com/iulianpascalau/bench-tracker/services/tracker/query"
)

// Ingester appends submitted runs and classifies them
type Ingester interface {
	// Submit appends the run to the group and returns the outcome together with the advisory classifications
	Submit(group string, run model.BenchRun) ingest.Result

	IsInterfaceNil() bool
}

// QueryEngine answers read-only queries over the stored runs
type QueryEngine interface {
	// Series yields the points of a metric in stored run order
	Series(group string, metricName string) iter.Seq[query.Point]

	// Latest returns the last point of a metric, if any
	Latest(group string, metricName string) (query.Point, bool)

	// Window returns the last n points of a metric
	Window(group string, metricName string, n int) []query.Point

	// Metrics returns the distinct metric names of a group
	Metrics(group string) []string

	IsInterfaceNil() bool
}

// HistoryReader exposes read access to the append store
type HistoryReader interface {
	// Get returns the stored runs of a group
	Get(group string) []model.BenchRun

	// Groups returns the known group labels
	Groups() []string

	// LastUpdate returns the timestamp of the most recent accepted run
	LastUpdate() int64

	// Snapshot returns an immutable view of the whole history
	Snapshot() model.History

	IsInterfaceNil() bool
}
