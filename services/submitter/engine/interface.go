package engine

import (
	"context"

	"github.com/iulianpascalau/bench-tracker/services/submitter/common"
	"github.com/iulianpascalau/bench-tracker/services/submitter/config"
	trackerCommon "github.com/iulianpascalau/bench-tracker/services/tracker/common"
	"github.com/iulianpascalau/bench-tracker/services/tracker/model"
)

// Collector defines the interface for reading benchmark outputs
type Collector interface {
	// CollectAll reads and parses all configured sources concurrently.
	// Sources that fail to load or parse are omitted from the returned map.
	CollectAll(ctx context.Context, sources []config.SourceConfig) map[string]common.SourceResult

	IsInterfaceNil() bool
}

// Reporter defines the interface for submitting a run to the tracker
type Reporter interface {
	// Report submits the run and returns the tracker's answer. A duplicate revision is not an error.
	Report(ctx context.Context, group string, run model.BenchRun) (*trackerCommon.SubmitRunResponse, error)

	IsInterfaceNil() bool
}
