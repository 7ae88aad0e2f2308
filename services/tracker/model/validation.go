package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidMetric signals a structurally malformed metric
var ErrInvalidMetric = errors.New("invalid metric")

// ErrInvalidRun signals a structurally malformed bench run
var ErrInvalidRun = errors.New("invalid run")

// ValidateMetric checks the structural well-formedness of a metric
func ValidateMetric(m Metric) error {
	if len(m.Name) == 0 {
		return fmt.Errorf("%w: empty name", ErrInvalidMetric)
	}
	if math.IsNaN(m.ErrorMargin) || m.ErrorMargin < 0 {
		return fmt.Errorf("%w: negative error margin %v for %s", ErrInvalidMetric, m.ErrorMargin, m.Name)
	}

	return nil
}

// ValidateRun checks the structural well-formedness of a bench run and all its metrics.
// A metric failure is reported as both ErrInvalidRun and ErrInvalidMetric.
func ValidateRun(r BenchRun) error {
	if len(r.Tool) == 0 {
		return fmt.Errorf("%w: empty tool", ErrInvalidRun)
	}
	if len(r.Revision.ID) == 0 {
		return fmt.Errorf("%w: empty revision id", ErrInvalidRun)
	}
	if len(r.Metrics) == 0 {
		return fmt.Errorf("%w: no metrics", ErrInvalidRun)
	}

	names := make(map[string]struct{}, len(r.Metrics))
	for i, m := range r.Metrics {
		err := ValidateMetric(m)
		if err != nil {
			return fmt.Errorf("%w at index %d: %w", ErrInvalidRun, i, err)
		}

		_, exists := names[m.Name]
		if exists {
			return fmt.Errorf("%w: duplicate metric name %s", ErrInvalidRun, m.Name)
		}
		names[m.Name] = struct{}{}
	}

	return nil
}
