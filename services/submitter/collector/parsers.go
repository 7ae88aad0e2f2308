package collector

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/iulianpascalau/bench-tracker/services/tracker/datajs"
	"github.com/iulianpascalau/bench-tracker/services/tracker/model"
	"github.com/tidwall/gjson"
)

// test uncontended/load ... bench:          12 ns/iter (+/- 0)
var cargoBenchLine = regexp.MustCompile(`^test\s+(\S+)\s+\.\.\.\s+bench:\s+([\d,]+(?:\.\d+)?)\s+(\S+)\s+\(\+/-\s+([\d,]+(?:\.\d+)?)\)`)

// ParseJSON extracts metrics from a custom benchmark JSON array:
// [{"name": "...", "value": 1.5, "unit": "ns/op", "range": "± 0.2"}]. A numeric errorMargin wins over range.
func ParseJSON(body []byte) ([]model.Metric, error) {
	if !gjson.ValidBytes(body) {
		return nil, errInvalidEntry("output is not valid JSON")
	}

	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, errInvalidEntry("output is not a JSON array")
	}

	entries := root.Array()
	if len(entries) == 0 {
		return nil, errNoBenchmarks
	}

	metrics := make([]model.Metric, 0, len(entries))
	for i, entry := range entries {
		name := entry.Get("name")
		if name.Type != gjson.String || len(name.String()) == 0 {
			return nil, errInvalidEntry(fmt.Sprintf("missing name at index %d", i))
		}

		value := entry.Get("value")
		if value.Type != gjson.Number {
			return nil, errInvalidEntry(fmt.Sprintf("non-numeric value for %s", name.String()))
		}

		m := model.Metric{
			Name:  name.String(),
			Value: value.Float(),
			Unit:  entry.Get("unit").String(),
		}

		errorMargin := entry.Get("errorMargin")
		if errorMargin.Type == gjson.Number {
			m.ErrorMargin = math.Abs(errorMargin.Float())
		} else {
			m.ErrorMargin = datajs.ParseRange(entry.Get("range").String(), m.Value)
		}

		metrics = append(metrics, m)
	}

	return metrics, nil
}

// ParseCargo extracts metrics from libtest bench output. Lines that are not bench results are ignored
func ParseCargo(body []byte) ([]model.Metric, error) {
	metrics := make([]model.Metric, 0)
	for _, line := range strings.Split(string(body), "\n") {
		matches := cargoBenchLine.FindStringSubmatch(strings.TrimSpace(line))
		if matches == nil {
			continue
		}

		value, err := parseCargoNumber(matches[2])
		if err != nil {
			return nil, errInvalidEntry(fmt.Sprintf("%s: %v", matches[1], err))
		}
		margin, err := parseCargoNumber(matches[4])
		if err != nil {
			return nil, errInvalidEntry(fmt.Sprintf("%s: %v", matches[1], err))
		}

		metrics = append(metrics, model.Metric{
			Name:        matches[1],
			Value:       value,
			ErrorMargin: margin,
			Unit:        matches[3],
		})
	}

	if len(metrics) == 0 {
		return nil, errNoBenchmarks
	}

	return metrics, nil
}

func parseCargoNumber(text string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64)
}
