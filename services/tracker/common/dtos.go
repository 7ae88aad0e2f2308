package common

import (
	"github.com/iulianpascalau/bench-tracker/services/tracker/model"
	"github.com/iulianpascalau/bench-tracker/services/tracker/query"
	"github.com/iulianpascalau/bench-tracker/services/tracker/regression"
)

// SubmitRunPayload represents the incoming JSON body on /api/runs
type SubmitRunPayload struct {
	Group string         `json:"group"`
	Run   model.BenchRun `json:"run"`
}

// SubmitRunResponse is returned to the submitter for every submitted run
type SubmitRunResponse struct {
	Outcome         string                      `json:"outcome"`
	Error           string                      `json:"error,omitempty"`
	Position        int                         `json:"position"`
	Classifications []regression.Classification `json:"classifications,omitempty"`
}

// GroupsResponse lists the known groups
type GroupsResponse struct {
	LastUpdate int64    `json:"lastUpdate"`
	Groups     []string `json:"groups"`
}

// RunsResponse holds the stored runs of a group
type RunsResponse struct {
	Group   string           `json:"group"`
	Metrics []string         `json:"metrics"`
	Runs    []model.BenchRun `json:"runs"`
}

// SeriesResponse holds points of a metric series
type SeriesResponse struct {
	Group  string        `json:"group"`
	Metric string        `json:"metric"`
	Points []query.Point `json:"points"`
}

// LatestResponse holds the latest point of a metric series, if any
type LatestResponse struct {
	Group  string       `json:"group"`
	Metric string       `json:"metric"`
	Found  bool         `json:"found"`
	Point  *query.Point `json:"point,omitempty"`
}
