package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iulianpascalau/bench-tracker/services/submitter/common"
	"github.com/iulianpascalau/bench-tracker/services/submitter/config"
	"github.com/iulianpascalau/bench-tracker/services/tracker/model"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("engine")

const (
	defaultCollectTimeout = 30 * time.Second
	defaultReportTimeout  = 10 * time.Second
)

// ErrNoMetrics signals that none of the configured sources produced a metric
var ErrNoMetrics = errors.New("no metric collected")

// ErrRegressionDetected signals that the tracker flagged at least one metric of the submitted run
var ErrRegressionDetected = errors.New("regression detected")

// submitEngine collects the benchmark outputs of one revision and submits them as a single run
type submitEngine struct {
	config    config.Config
	revision  common.RevisionInfo
	collector Collector
	reporter  Reporter
	timeNow   func() time.Time
}

// NewSubmitEngine creates a new engine instance
func NewSubmitEngine(cfg config.Config, revision common.RevisionInfo, c Collector, r Reporter) (*submitEngine, error) {
	if check.IfNil(c) {
		return nil, errors.New("nil collector")
	}
	if check.IfNil(r) {
		return nil, errors.New("nil reporter")
	}
	err := cfg.CheckSources()
	if err != nil {
		return nil, err
	}

	return &submitEngine{
		config:    cfg,
		revision:  revision,
		collector: c,
		reporter:  r,
		timeNow:   time.Now,
	}, nil
}

// Process collects all sources, builds the run and submits it to the tracker
func (e *submitEngine) Process(ctx context.Context) error {
	log.Debug("collecting benchmark sources", "count", len(e.config.Sources))

	collectCtx, cancelCollect := context.WithTimeout(ctx, durationOrDefault(e.config.CollectTimeoutInSeconds, defaultCollectTimeout))
	defer cancelCollect()
	results := e.collector.CollectAll(collectCtx, e.config.Sources)

	run := e.buildRun(results)
	if len(run.Metrics) == 0 {
		return ErrNoMetrics
	}

	log.Debug("finished collecting", "successful sources", len(results), "metrics", len(run.Metrics))

	reportCtx, cancelReport := context.WithTimeout(ctx, durationOrDefault(e.config.ReportTimeoutInSeconds, defaultReportTimeout))
	defer cancelReport()

	response, err := e.reporter.Report(reportCtx, e.config.Group, run)
	if err != nil {
		return err
	}

	log.Info("run submitted", "group", e.config.Group, "revision", run.Revision.ID,
		"outcome", response.Outcome, "position", response.Position)

	numAlerts := 0
	for _, classification := range response.Classifications {
		if !classification.IsAlert() {
			continue
		}

		numAlerts++
		log.Warn("possible performance regression", "metric", classification.Metric,
			"value", classification.Value, "baseline", classification.Baseline, "ratio", classification.Ratio)
	}

	if numAlerts > 0 && e.config.FailOnRegression {
		return fmt.Errorf("%w: %d metric(s) of revision %s", ErrRegressionDetected, numAlerts, run.Revision.ID)
	}

	return nil
}

// buildRun keeps the configured source order so the stored metric order is stable between runs
func (e *submitEngine) buildRun(results map[string]common.SourceResult) model.BenchRun {
	run := model.BenchRun{
		Revision:  e.revision.ToRevision(),
		Tool:      e.config.Tool,
		Timestamp: e.timeNow().Unix(),
		Metrics:   make([]model.Metric, 0),
	}
	if run.Revision.Timestamp == 0 {
		run.Revision.Timestamp = run.Timestamp
	}

	for _, source := range e.config.Sources {
		result, found := results[source.Name]
		if !found {
			continue
		}

		run.Metrics = append(run.Metrics, result.Metrics...)
	}

	return run
}

func durationOrDefault(seconds uint32, defaultDuration time.Duration) time.Duration {
	if seconds == 0 {
		return defaultDuration
	}

	return time.Duration(seconds) * time.Second
}

// IsInterfaceNil returns true if the value under the interface is nil
func (e *submitEngine) IsInterfaceNil() bool {
	return e == nil
}
