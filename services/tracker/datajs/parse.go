package datajs

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/iulianpascalau/bench-tracker/services/tracker/model"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/tidwall/gjson"
)

var log = logger.GetOrCreate("datajs")

// ErrInvalidDocument signals a data.js document that is not valid JSON after the assignment prefix
var ErrInvalidDocument = errors.New("invalid data.js document")

const assignmentPrefix = "window.BENCHMARK_DATA ="

// Parse converts a github-action-benchmark data.js document (the assignment prefix is optional)
// into a history. Millisecond timestamps become seconds and display ranges become numeric margins.
func Parse(data []byte) (model.History, error) {
	body := bytes.TrimSpace(data)
	body = bytes.TrimPrefix(body, []byte(assignmentPrefix))
	body = bytes.TrimSpace(body)
	body = bytes.TrimSuffix(body, []byte(";"))

	if !gjson.ValidBytes(body) {
		return model.History{}, ErrInvalidDocument
	}

	doc := gjson.ParseBytes(body)
	entries := doc.Get("entries")
	if !doc.IsObject() || (entries.Exists() && !entries.IsObject()) {
		return model.History{}, fmt.Errorf("%w: entries must be an object", ErrInvalidDocument)
	}

	h := model.NewHistory()
	h.LastUpdate = doc.Get("lastUpdate").Int() / 1000
	h.RepoURL = doc.Get("repoUrl").String()

	var errParse error
	entries.ForEach(func(group, runs gjson.Result) bool {
		parsed := make([]model.BenchRun, 0)
		for i, run := range runs.Array() {
			br, err := parseRun(run)
			if err != nil {
				errParse = fmt.Errorf("%w: group %s, entry %d: %w", ErrInvalidDocument, group.String(), i, err)
				return false
			}
			parsed = append(parsed, br)
		}
		h.Groups[group.String()] = parsed

		return true
	})
	if errParse != nil {
		return model.History{}, errParse
	}

	return h, nil
}

func parseRun(run gjson.Result) (model.BenchRun, error) {
	commit := run.Get("commit")
	revisionTimestamp, err := parseCommitTimestamp(commit.Get("timestamp"))
	if err != nil {
		return model.BenchRun{}, err
	}

	br := model.BenchRun{
		Revision: model.Revision{
			ID:        commit.Get("id").String(),
			Author:    parseIdentity(commit.Get("author")),
			Committer: parseIdentity(commit.Get("committer")),
			Message:   commit.Get("message").String(),
			Timestamp: revisionTimestamp,
			URL:       commit.Get("url").String(),
		},
		Tool:      run.Get("tool").String(),
		Timestamp: run.Get("date").Int() / 1000,
		Metrics:   make([]model.Metric, 0),
	}

	for _, bench := range run.Get("benches").Array() {
		value := bench.Get("value").Float()
		br.Metrics = append(br.Metrics, model.Metric{
			Name:        bench.Get("name").String(),
			Value:       value,
			ErrorMargin: ParseRange(bench.Get("range").String(), value),
			Unit:        bench.Get("unit").String(),
		})
	}

	return br, nil
}

func parseIdentity(identity gjson.Result) model.Identity {
	return model.Identity{
		Name:   identity.Get("name").String(),
		Handle: identity.Get("username").String(),
	}
}

func parseCommitTimestamp(value gjson.Result) (int64, error) {
	if !value.Exists() {
		return 0, nil
	}
	if value.Type == gjson.Number {
		return value.Int(), nil
	}

	t, err := time.Parse(time.RFC3339, value.String())
	if err != nil {
		return 0, fmt.Errorf("commit timestamp %q: %w", value.String(), err)
	}

	return t.Unix(), nil
}

// ParseRange converts a display range such as "± 10" or "± 2.5%" into a non-negative margin.
// Unparsable or missing ranges yield 0.
func ParseRange(text string, value float64) float64 {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) == 0 {
		return 0
	}

	for _, prefix := range []string{"±", "+/-", "stddev:"} {
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, prefix))
	}

	isPercent := strings.HasSuffix(trimmed, "%")
	trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, "%"))

	margin, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(margin) || math.IsInf(margin, 0) {
		log.Debug("unparsable range, using zero margin", "range", text)
		return 0
	}
	if isPercent {
		margin = value * margin / 100
	}

	return math.Abs(margin)
}
