package factory

import (
	"context"
	"errors"
	"time"

	"github.com/iulianpascalau/bench-tracker/services/submitter/collector"
	"github.com/iulianpascalau/bench-tracker/services/submitter/common"
	"github.com/iulianpascalau/bench-tracker/services/submitter/config"
	"github.com/iulianpascalau/bench-tracker/services/submitter/engine"
	"github.com/iulianpascalau/bench-tracker/services/submitter/reporter"
)

const defaultTimeout = 30 * time.Second

type componentsHandler struct {
	collector engine.Collector
	reporter  engine.Reporter
	engine    Engine
}

// NewComponentsHandler creates a new components handler
func NewComponentsHandler(
	serviceKeyApi string,
	cfg config.Config,
	revision common.RevisionInfo,
) (*componentsHandler, error) {
	if len(cfg.TrackerEndpoint) == 0 {
		return nil, errors.New("empty tracker endpoint")
	}
	if len(cfg.Sources) == 0 {
		return nil, errors.New("no benchmark source configured")
	}

	coll := collector.NewBenchCollector(timeoutOrDefault(cfg.CollectTimeoutInSeconds))
	rep := reporter.NewHTTPReporter(cfg.TrackerEndpoint, serviceKeyApi, timeoutOrDefault(cfg.ReportTimeoutInSeconds))

	eng, err := engine.NewSubmitEngine(cfg, revision, coll, rep)
	if err != nil {
		return nil, err
	}

	return &componentsHandler{
		collector: coll,
		reporter:  rep,
		engine:    eng,
	}, nil
}

func timeoutOrDefault(seconds uint32) time.Duration {
	if seconds == 0 {
		return defaultTimeout
	}

	return time.Duration(seconds) * time.Second
}

// GetCollector returns the collector component
func (ch *componentsHandler) GetCollector() engine.Collector {
	return ch.collector
}

// GetReporter returns the reporter component
func (ch *componentsHandler) GetReporter() engine.Reporter {
	return ch.reporter
}

// GetEngine returns the engine component
func (ch *componentsHandler) GetEngine() Engine {
	return ch.engine
}

// Run collects and submits the run once
func (ch *componentsHandler) Run(ctx context.Context) error {
	return ch.engine.Process(ctx)
}
