package regression

import (
	"errors"
	"fmt"
	"math"

	"github.com/aclements/go-moremath/stats"
	"github.com/iulianpascalau/bench-tracker/services/tracker/model"
	"github.com/iulianpascalau/bench-tracker/services/tracker/query"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("regression")

const (
	// DefaultWindowSize is the number of preceding points averaged into the baseline
	DefaultWindowSize = 5
	// DefaultTolerance is the relative band tolerated around the baseline
	DefaultTolerance = 0.2
	// DefaultEpsilon is the absolute value above which a zero baseline is considered exceeded
	DefaultEpsilon = 1e-9
)

// ErrUnknownDirection signals an unsupported direction name
var ErrUnknownDirection = errors.New("unknown direction")

// ErrInvalidTolerance signals a negative or non-finite tolerance
var ErrInvalidTolerance = errors.New("invalid tolerance")

// MetricConfig overrides the detection settings of one metric
type MetricConfig struct {
	Direction Direction
	Tolerance *float64
}

// Config holds the detector settings
type Config struct {
	WindowSize int
	Tolerance  *float64 // nil means DefaultTolerance, zero flags any change in the bad direction
	Epsilon    float64
	Metrics    map[string]MetricConfig
}

type detector struct {
	windowSize int
	tolerance  float64
	epsilon    float64
	metrics    map[string]MetricConfig
}

// NewDetector creates a regression detector. Zero window size and epsilon, and a nil tolerance, fall back to the defaults
func NewDetector(cfg Config) (*detector, error) {
	d := &detector{
		windowSize: cfg.WindowSize,
		tolerance:  DefaultTolerance,
		epsilon:    cfg.Epsilon,
		metrics:    make(map[string]MetricConfig, len(cfg.Metrics)),
	}
	if d.windowSize <= 0 {
		d.windowSize = DefaultWindowSize
	}
	if cfg.Tolerance != nil {
		d.tolerance = *cfg.Tolerance
	}
	if d.epsilon <= 0 {
		d.epsilon = DefaultEpsilon
	}

	err := checkTolerance(d.tolerance)
	if err != nil {
		return nil, err
	}

	for name, mc := range cfg.Metrics {
		if mc.Tolerance != nil {
			err = checkTolerance(*mc.Tolerance)
			if err != nil {
				return nil, fmt.Errorf("%w for metric %s", err, name)
			}
		}
		d.metrics[name] = mc
	}

	return d, nil
}

func checkTolerance(tolerance float64) error {
	if tolerance < 0 || math.IsNaN(tolerance) || math.IsInf(tolerance, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidTolerance, tolerance)
	}

	return nil
}

// WindowSize returns the number of preceding points used for the baseline
func (d *detector) WindowSize() int {
	return d.windowSize
}

func (d *detector) settingsFor(metricName string) (Direction, float64) {
	mc, found := d.metrics[metricName]
	if !found {
		return SmallerIsBetter, d.tolerance
	}
	if mc.Tolerance == nil {
		return mc.Direction, d.tolerance
	}

	return mc.Direction, *mc.Tolerance
}

// Classify compares value against the mean of the preceding window of the metric
func (d *detector) Classify(metricName string, window []float64, value float64) Classification {
	direction, tolerance := d.settingsFor(metricName)
	c := Classification{
		Metric:     metricName,
		State:      Baseline,
		Status:     Pass,
		Direction:  direction,
		Value:      value,
		WindowSize: len(window),
	}
	if len(window) == 0 {
		return c
	}

	c.State = Tracking
	c.Baseline = stats.Mean(window)

	if direction == BiggerIsBetter {
		c.Threshold = c.Baseline * (1 - tolerance)
	} else {
		c.Threshold = c.Baseline * (1 + tolerance)
	}

	if c.Baseline == 0 {
		if d.worseThanZero(direction, value) {
			c.Status = Alert
		}
		return c
	}

	c.Ratio = value / c.Baseline
	if direction == BiggerIsBetter && value < c.Threshold {
		c.Status = Alert
	}
	if direction == SmallerIsBetter && value > c.Threshold {
		c.Status = Alert
	}

	return c
}

// worseThanZero judges a value against a zero baseline, where a relative band is meaningless
func (d *detector) worseThanZero(direction Direction, value float64) bool {
	if direction == BiggerIsBetter {
		return value < -d.epsilon
	}

	return value > d.epsilon
}

// Detect classifies every metric of the run stored at position inside the group's runs.
// Only runs strictly before position contribute to the baselines.
func (d *detector) Detect(group string, runs []model.BenchRun, position int) []Classification {
	if position < 0 || position >= len(runs) {
		return make([]Classification, 0)
	}

	run := runs[position]
	results := make([]Classification, 0, len(run.Metrics))
	for _, m := range run.Metrics {
		points := query.WindowBefore(runs, position, m.Name, d.windowSize)
		window := make([]float64, 0, len(points))
		for _, p := range points {
			window = append(window, p.Value)
		}

		c := d.Classify(m.Name, window, m.Value)
		c.Group = group
		c.RevisionID = run.Revision.ID
		results = append(results, c)

		if c.IsAlert() {
			log.Warn("performance regression detected", "group", group, "metric", m.Name,
				"revision", run.Revision.ID, "value", m.Value, "baseline", c.Baseline, "ratio", c.Ratio)
		}
	}

	return results
}

// IsInterfaceNil returns true if the value under the interface is nil
func (d *detector) IsInterfaceNil() bool {
	return d == nil
}
