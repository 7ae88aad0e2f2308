package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iulianpascalau/bench-tracker/services/tracker/history"
	"github.com/iulianpascalau/bench-tracker/services/tracker/metrics"
	"github.com/iulianpascalau/bench-tracker/services/tracker/model"
	"github.com/iulianpascalau/bench-tracker/services/tracker/regression"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("ingest")

const notifyTimeout = 30 * time.Second

var (
	errNilStore    = errors.New("nil history store")
	errNilDetector = errors.New("nil regression detector")
	errNilNotifier = errors.New("nil alert notifier")
)

// Result is what a submitter learns about its run
type Result struct {
	Outcome         history.Outcome
	Position        int
	Classifications []regression.Classification
	Err             error
}

// ArgsProcessor defines the processor arguments
type ArgsProcessor struct {
	Store    HistoryStore
	Detector Detector
	Notifier Notifier
}

type processor struct {
	store    HistoryStore
	detector Detector
	notifier Notifier
	wg       sync.WaitGroup
}

// NewProcessor creates the component that appends submitted runs and classifies them
func NewProcessor(args ArgsProcessor) (*processor, error) {
	if check.IfNil(args.Store) {
		return nil, errNilStore
	}
	if check.IfNil(args.Detector) {
		return nil, errNilDetector
	}
	if check.IfNil(args.Notifier) {
		return nil, errNilNotifier
	}

	return &processor{
		store:    args.Store,
		detector: args.Detector,
		notifier: args.Notifier,
	}, nil
}

// Submit appends the run to the group and, on acceptance, classifies every metric of it.
// Classification is advisory: it never changes the append outcome.
func (p *processor) Submit(group string, run model.BenchRun) Result {
	outcome, position, err := p.store.Append(group, run)
	metrics.RecordAppend(outcome.String())
	if outcome != history.Accepted {
		log.Debug("run rejected", "group", group, "revision", run.Revision.ID, "outcome", outcome.String(), "error", err)
		return Result{
			Outcome:  outcome,
			Position: position,
			Err:      err,
		}
	}

	log.Info("run accepted", "group", group, "revision", run.Revision.ID, "position", position, "num metrics", len(run.Metrics))

	classifications := p.detector.Detect(group, p.store.Get(group), position)
	alerts := make([]regression.Classification, 0)
	for _, c := range classifications {
		metrics.RecordClassification(string(c.Status))
		if c.IsAlert() {
			alerts = append(alerts, c)
		}
	}
	p.notifyAsync(group, run.Revision.ID, alerts)

	return Result{
		Outcome:         outcome,
		Position:        position,
		Classifications: classifications,
	}
}

func (p *processor) notifyAsync(group string, revisionID string, alerts []regression.Classification) {
	if len(alerts) == 0 {
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		err := p.notifier.Notify(ctx, group, revisionID, alerts)
		if err != nil {
			log.Warn("failed to notify regression alerts", "group", group, "revision", revisionID, "error", err)
		}
	}()
}

// Close waits for pending notifications
func (p *processor) Close() error {
	p.wg.Wait()
	return nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (p *processor) IsInterfaceNil() bool {
	return p == nil
}
