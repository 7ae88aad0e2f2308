package ingest

import (
	"context"

	"github.com/iulianpascalau/bench-tracker/services/tracker/history"
	"github.com/iulianpascalau/bench-tracker/services/tracker/model"
	"github.com/iulianpascalau/bench-tracker/services/tracker/regression"
)

// HistoryStore is the append store the processor mutates
type HistoryStore interface {
	Append(group string, run model.BenchRun) (history.Outcome, int, error)
	Get(group string) []model.BenchRun
	IsInterfaceNil() bool
}

// Detector classifies a freshly appended run against its preceding runs
type Detector interface {
	Detect(group string, runs []model.BenchRun, position int) []regression.Classification
	IsInterfaceNil() bool
}

// Notifier surfaces regression alerts to an external collaborator
type Notifier interface {
	Notify(ctx context.Context, group string, revisionID string, alerts []regression.Classification) error
	IsInterfaceNil() bool
}
