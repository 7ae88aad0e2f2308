package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iulianpascalau/bench-tracker/services/submitter/common"
	"github.com/iulianpascalau/bench-tracker/services/submitter/config"
	"github.com/iulianpascalau/bench-tracker/services/submitter/testsCommon"
	trackerCommon "github.com/iulianpascalau/bench-tracker/services/tracker/common"
	"github.com/iulianpascalau/bench-tracker/services/tracker/model"
	"github.com/iulianpascalau/bench-tracker/services/tracker/regression"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createConfig() config.Config {
	return config.Config{
		Group: "Track benchmarks",
		Tool:  "cargo",
		Sources: []config.SourceConfig{
			{Name: "track", Format: config.FormatCargo},
			{Name: "background", Format: config.FormatCargo},
			{Name: "missing", Format: config.FormatJSON},
		},
	}
}

func createRevision() common.RevisionInfo {
	return common.RevisionInfo{
		ID:           "rev1",
		Message:      "Improve load",
		AuthorName:   "vorner",
		AuthorHandle: "vorner",
	}
}

func createCollector() *testsCommon.CollectorStub {
	return &testsCommon.CollectorStub{
		CollectAllHandler: func(ctx context.Context, sources []config.SourceConfig) map[string]common.SourceResult {
			return map[string]common.SourceResult{
				"background": {
					Config:  sources[1],
					Metrics: []model.Metric{{Name: "background/lease", Value: 30, Unit: "ns/iter"}},
				},
				"track": {
					Config: sources[0],
					Metrics: []model.Metric{
						{Name: "uncontended/load", Value: 12, Unit: "ns/iter"},
						{Name: "uncontended/store", Value: 1234, ErrorMargin: 56, Unit: "ns/iter"},
					},
				},
			}
		},
	}
}

func TestNewSubmitEngine(t *testing.T) {
	t.Parallel()

	t.Run("nil collector should error", func(t *testing.T) {
		engine, err := NewSubmitEngine(config.Config{}, common.RevisionInfo{}, nil, &testsCommon.ReporterStub{})

		assert.Nil(t, engine)
		assert.True(t, engine.IsInterfaceNil())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "nil collector")
	})
	t.Run("nil reporter should error", func(t *testing.T) {
		engine, err := NewSubmitEngine(config.Config{}, common.RevisionInfo{}, &testsCommon.CollectorStub{}, nil)

		assert.Nil(t, engine)
		assert.True(t, engine.IsInterfaceNil())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "nil reporter")
	})
	t.Run("sources sharing a name should error", func(t *testing.T) {
		cfg := config.Config{
			Sources: []config.SourceConfig{
				{Name: "bench", Location: "a.txt", Format: config.FormatCargo},
				{Name: "bench", Location: "b.txt", Format: config.FormatCargo},
			},
		}
		engine, err := NewSubmitEngine(cfg, common.RevisionInfo{}, &testsCommon.CollectorStub{}, &testsCommon.ReporterStub{})

		assert.Nil(t, engine)
		assert.True(t, errors.Is(err, config.ErrInvalidSources))
	})
	t.Run("should work", func(t *testing.T) {
		engine, err := NewSubmitEngine(config.Config{}, common.RevisionInfo{}, &testsCommon.CollectorStub{}, &testsCommon.ReporterStub{})

		assert.NotNil(t, engine)
		assert.False(t, engine.IsInterfaceNil())
		assert.Nil(t, err)
	})
}

func TestSubmitEngine_Process(t *testing.T) {
	t.Parallel()

	t.Run("no metrics should error without reporting", func(t *testing.T) {
		t.Parallel()

		reported := false
		engine, _ := NewSubmitEngine(createConfig(), createRevision(), &testsCommon.CollectorStub{}, &testsCommon.ReporterStub{
			ReportHandler: func(ctx context.Context, group string, run model.BenchRun) (*trackerCommon.SubmitRunResponse, error) {
				reported = true
				return nil, nil
			},
		})

		err := engine.Process(context.Background())
		assert.Equal(t, ErrNoMetrics, err)
		assert.False(t, reported)
	})
	t.Run("should build the run in source order", func(t *testing.T) {
		t.Parallel()

		var reportedGroup string
		var reportedRun model.BenchRun
		engine, _ := NewSubmitEngine(createConfig(), createRevision(), createCollector(), &testsCommon.ReporterStub{
			ReportHandler: func(ctx context.Context, group string, run model.BenchRun) (*trackerCommon.SubmitRunResponse, error) {
				reportedGroup = group
				reportedRun = run
				return &trackerCommon.SubmitRunResponse{Outcome: "accepted", Position: 0}, nil
			},
		})
		engine.timeNow = func() time.Time {
			return time.Unix(1609614900, 0)
		}

		err := engine.Process(context.Background())
		require.Nil(t, err)

		assert.Equal(t, "Track benchmarks", reportedGroup)
		assert.Equal(t, "cargo", reportedRun.Tool)
		assert.Equal(t, int64(1609614900), reportedRun.Timestamp)
		assert.Equal(t, "rev1", reportedRun.Revision.ID)
		assert.Equal(t, int64(1609614900), reportedRun.Revision.Timestamp)
		assert.Equal(t, model.Identity{Name: "vorner", Handle: "vorner"}, reportedRun.Revision.Committer)

		names := make([]string, 0, len(reportedRun.Metrics))
		for _, m := range reportedRun.Metrics {
			names = append(names, m.Name)
		}
		assert.Equal(t, []string{"uncontended/load", "uncontended/store", "background/lease"}, names)
	})
	t.Run("reporter error should be returned", func(t *testing.T) {
		t.Parallel()

		expectedErr := errors.New("expected error")
		engine, _ := NewSubmitEngine(createConfig(), createRevision(), createCollector(), &testsCommon.ReporterStub{
			ReportHandler: func(ctx context.Context, group string, run model.BenchRun) (*trackerCommon.SubmitRunResponse, error) {
				return nil, expectedErr
			},
		})

		err := engine.Process(context.Background())
		assert.Equal(t, expectedErr, err)
	})

	alertingReporter := &testsCommon.ReporterStub{
		ReportHandler: func(ctx context.Context, group string, run model.BenchRun) (*trackerCommon.SubmitRunResponse, error) {
			return &trackerCommon.SubmitRunResponse{
				Outcome:  "accepted",
				Position: 5,
				Classifications: []regression.Classification{
					{Metric: "uncontended/load", Status: regression.Pass},
					{Metric: "uncontended/store", Status: regression.Alert, Value: 1234, Baseline: 968, Ratio: 1.2748},
				},
			}, nil
		},
	}

	t.Run("alerts should only be logged by default", func(t *testing.T) {
		t.Parallel()

		engine, _ := NewSubmitEngine(createConfig(), createRevision(), createCollector(), alertingReporter)

		err := engine.Process(context.Background())
		assert.Nil(t, err)
	})
	t.Run("alerts should fail the run when configured", func(t *testing.T) {
		t.Parallel()

		cfg := createConfig()
		cfg.FailOnRegression = true
		engine, _ := NewSubmitEngine(cfg, createRevision(), createCollector(), alertingReporter)

		err := engine.Process(context.Background())
		assert.True(t, errors.Is(err, ErrRegressionDetected))
		assert.Contains(t, err.Error(), "1 metric(s) of revision rev1")
	})
}
