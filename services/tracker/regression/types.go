package regression

import (
	"fmt"
	"strings"
)

// Direction tells which way a metric gets worse
type Direction int

const (
	// SmallerIsBetter means larger values are regressions (time per op, bytes)
	SmallerIsBetter Direction = iota
	// BiggerIsBetter means smaller values are regressions (throughput)
	BiggerIsBetter
)

const (
	smallerIsBetterName = "smaller-is-better"
	biggerIsBetterName  = "bigger-is-better"
)

// String returns the config name of the direction
func (d Direction) String() string {
	if d == BiggerIsBetter {
		return biggerIsBetterName
	}

	return smallerIsBetterName
}

// MarshalText implements encoding.TextMarshaler
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed

	return nil
}

// ParseDirection converts a config value into a Direction. The empty string maps to SmallerIsBetter
func ParseDirection(value string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", smallerIsBetterName:
		return SmallerIsBetter, nil
	case biggerIsBetterName:
		return BiggerIsBetter, nil
	default:
		return SmallerIsBetter, fmt.Errorf("%w: %q", ErrUnknownDirection, value)
	}
}

// State is the per (group, metric) detection state
type State string

const (
	// Baseline means there was no prior data and the value is accepted unconditionally
	Baseline State = "baseline"
	// Tracking means at least one prior point was used to judge the value
	Tracking State = "tracking"
)

// Status is the advisory verdict of a classification
type Status string

const (
	// Pass means the value is within the tolerated band
	Pass Status = "pass"
	// Alert means the value regressed past the threshold
	Alert Status = "alert"
)

// Classification describes how a freshly appended value compares with its rolling baseline
type Classification struct {
	Group      string    `json:"group"`
	Metric     string    `json:"metric"`
	RevisionID string    `json:"revisionId"`
	State      State     `json:"state"`
	Status     Status    `json:"status"`
	Direction  Direction `json:"direction"`
	Value      float64   `json:"value"`
	Baseline   float64   `json:"baseline"`
	Threshold  float64   `json:"threshold"`
	Ratio      float64   `json:"ratio"`
	WindowSize int       `json:"windowSize"`
}

// IsAlert returns true if the classification is an alert
func (c Classification) IsAlert() bool {
	return c.Status == Alert
}
