package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/iulianpascalau/bench-tracker/services/tracker/history"
	"github.com/iulianpascalau/bench-tracker/services/tracker/model"
	"github.com/iulianpascalau/bench-tracker/services/tracker/regression"
	"github.com/iulianpascalau/bench-tracker/services/tracker/testsCommon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGroup = "Track benchmarks"

func createArgs(t *testing.T) ArgsProcessor {
	d, err := regression.NewDetector(regression.Config{WindowSize: 5})
	require.NoError(t, err)

	return ArgsProcessor{
		Store:    history.NewStore(),
		Detector: d,
		Notifier: &testsCommon.NotifierStub{},
	}
}

func createRun(revisionID string, value float64) model.BenchRun {
	return model.BenchRun{
		Revision:  model.Revision{ID: revisionID, Timestamp: 1},
		Tool:      "cargo",
		Timestamp: 2,
		Metrics:   []model.Metric{{Name: "store", Value: value, Unit: "ns/iter"}},
	}
}

func TestNewProcessor(t *testing.T) {
	t.Parallel()

	t.Run("nil store should error", func(t *testing.T) {
		args := createArgs(t)
		args.Store = nil

		p, err := NewProcessor(args)
		assert.Nil(t, p)
		assert.True(t, p.IsInterfaceNil())
		assert.Equal(t, errNilStore, err)
	})
	t.Run("nil detector should error", func(t *testing.T) {
		args := createArgs(t)
		args.Detector = nil

		p, err := NewProcessor(args)
		assert.Nil(t, p)
		assert.Equal(t, errNilDetector, err)
	})
	t.Run("nil notifier should error", func(t *testing.T) {
		args := createArgs(t)
		args.Notifier = nil

		p, err := NewProcessor(args)
		assert.Nil(t, p)
		assert.Equal(t, errNilNotifier, err)
	})
	t.Run("should work", func(t *testing.T) {
		p, err := NewProcessor(createArgs(t))
		assert.NotNil(t, p)
		assert.False(t, p.IsInterfaceNil())
		assert.Nil(t, err)
	})
}

func TestProcessor_SubmitClassifiesAndNotifies(t *testing.T) {
	t.Parallel()

	args := createArgs(t)
	var mut sync.Mutex
	notified := make([]regression.Classification, 0)
	args.Notifier = &testsCommon.NotifierStub{
		NotifyHandler: func(ctx context.Context, group string, revisionID string, alerts []regression.Classification) error {
			mut.Lock()
			defer mut.Unlock()

			assert.Equal(t, testGroup, group)
			assert.Equal(t, "rev-new", revisionID)
			notified = append(notified, alerts...)
			return errors.New("webhook down")
		},
	}
	p, err := NewProcessor(args)
	require.NoError(t, err)

	first := p.Submit(testGroup, createRun("rev-0", 100))
	assert.Equal(t, history.Accepted, first.Outcome)
	require.Len(t, first.Classifications, 1)
	assert.Equal(t, regression.Baseline, first.Classifications[0].State)

	for i, v := range []float64{110, 105, 95, 100} {
		res := p.Submit(testGroup, createRun(string(rune('a'+i)), v))
		require.Equal(t, history.Accepted, res.Outcome)
	}

	res := p.Submit(testGroup, createRun("rev-new", 130))
	assert.Equal(t, history.Accepted, res.Outcome)
	assert.Equal(t, 5, res.Position)
	require.Len(t, res.Classifications, 1)
	assert.Equal(t, regression.Alert, res.Classifications[0].Status)
	assert.InDelta(t, 1.2745, res.Classifications[0].Ratio, 1e-3)

	require.NoError(t, p.Close())

	mut.Lock()
	defer mut.Unlock()
	require.Len(t, notified, 1)
	assert.Equal(t, "store", notified[0].Metric)
}

func TestProcessor_SubmitRejections(t *testing.T) {
	t.Parallel()

	numDetections := 0
	args := createArgs(t)
	args.Detector = &testsCommon.DetectorStub{
		DetectHandler: func(group string, runs []model.BenchRun, position int) []regression.Classification {
			numDetections++
			return nil
		},
	}
	p, err := NewProcessor(args)
	require.NoError(t, err)

	res := p.Submit(testGroup, createRun("rev-1", 1))
	assert.Equal(t, history.Accepted, res.Outcome)

	res = p.Submit(testGroup, createRun("rev-1", 1))
	assert.Equal(t, history.RejectedDuplicateRevision, res.Outcome)
	assert.True(t, errors.Is(res.Err, history.ErrDuplicateRevision))

	invalid := createRun("rev-2", 1)
	invalid.Tool = ""
	res = p.Submit(testGroup, invalid)
	assert.Equal(t, history.RejectedInvalidRun, res.Outcome)
	assert.True(t, errors.Is(res.Err, model.ErrInvalidRun))

	assert.Equal(t, 1, numDetections)
	assert.Len(t, args.Store.Get(testGroup), 1)
}
