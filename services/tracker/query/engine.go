package query

import (
	"iter"

	"github.com/iulianpascalau/bench-tracker/services/tracker/model"
	"github.com/multiversx/mx-chain-core-go/core/check"
)

// Point is one sample of a metric series
type Point struct {
	Revision     model.Revision `json:"revision"`
	Value        float64        `json:"value"`
	ErrorMargin  float64        `json:"errorMargin"`
	Unit         string         `json:"unit"`
	RunTimestamp int64          `json:"runTimestamp"`
}

type engine struct {
	source Source
}

// NewEngine creates a query engine over the provided source
func NewEngine(source Source) (*engine, error) {
	if check.IfNil(source) {
		return nil, ErrNilSource
	}

	return &engine{
		source: source,
	}, nil
}

// Series returns a lazy, restartable sequence of the metric's points in stored run order.
// Runs lacking the metric are skipped. The group's runs are captured at call time.
func (e *engine) Series(group string, metricName string) iter.Seq[Point] {
	return seriesOf(e.source.Get(group), metricName)
}

// Latest returns the last point of the series, if any
func (e *engine) Latest(group string, metricName string) (Point, bool) {
	runs := e.source.Get(group)
	for i := len(runs) - 1; i >= 0; i-- {
		m, found := runs[i].MetricByName(metricName)
		if found {
			return newPoint(runs[i], m), true
		}
	}

	return Point{}, false
}

// Window returns the last n points of the series. Values of n below 1 are treated as 1
func (e *engine) Window(group string, metricName string, n int) []Point {
	return lastPoints(e.source.Get(group), metricName, n)
}

// Metrics returns the distinct metric names of a group in first-seen order
func (e *engine) Metrics(group string) []string {
	names := make([]string, 0)
	seen := make(map[string]struct{})
	for _, run := range e.source.Get(group) {
		for _, m := range run.Metrics {
			_, exists := seen[m.Name]
			if exists {
				continue
			}
			seen[m.Name] = struct{}{}
			names = append(names, m.Name)
		}
	}

	return names
}

// IsInterfaceNil returns true if the value under the interface is nil
func (e *engine) IsInterfaceNil() bool {
	return e == nil
}

func seriesOf(runs []model.BenchRun, metricName string) iter.Seq[Point] {
	return func(yield func(Point) bool) {
		for _, run := range runs {
			m, found := run.MetricByName(metricName)
			if !found {
				continue
			}
			if !yield(newPoint(run, m)) {
				return
			}
		}
	}
}

// lastPoints walks backwards so the cost is bounded by the runs after the n-th last point
func lastPoints(runs []model.BenchRun, metricName string, n int) []Point {
	if n < 1 {
		n = 1
	}

	reversed := make([]Point, 0, n)
	for i := len(runs) - 1; i >= 0 && len(reversed) < n; i-- {
		m, found := runs[i].MetricByName(metricName)
		if found {
			reversed = append(reversed, newPoint(runs[i], m))
		}
	}

	points := make([]Point, len(reversed))
	for i, p := range reversed {
		points[len(reversed)-1-i] = p
	}

	return points
}

// WindowBefore returns up to n points of the metric from the runs strictly before position
func WindowBefore(runs []model.BenchRun, position int, metricName string, n int) []Point {
	if position > len(runs) {
		position = len(runs)
	}
	if position <= 0 || n <= 0 {
		return make([]Point, 0)
	}

	return lastPoints(runs[:position], metricName, n)
}

func newPoint(run model.BenchRun, m model.Metric) Point {
	return Point{
		Revision:     run.Revision,
		Value:        m.Value,
		ErrorMargin:  m.ErrorMargin,
		Unit:         m.Unit,
		RunTimestamp: run.Timestamp,
	}
}
