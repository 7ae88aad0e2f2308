package model

// Identity names a revision author or committer. Handle is optional
type Identity struct {
	Name   string `json:"name"`
	Handle string `json:"handle,omitempty"`
}

// Revision identifies a point in the tracked source history
type Revision struct {
	ID        string   `json:"id"`
	Author    Identity `json:"author"`
	Committer Identity `json:"committer"`
	Message   string   `json:"message"`
	Timestamp int64    `json:"timestamp"` // Unix seconds, not guaranteed to be monotonic across runs
	URL       string   `json:"url,omitempty"`
}

// Metric is one named measurement within a run
type Metric struct {
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	ErrorMargin float64 `json:"errorMargin"`
	Unit        string  `json:"unit"`
}

// BenchRun is one complete benchmark execution tied to one revision
type BenchRun struct {
	Revision  Revision `json:"revision"`
	Tool      string   `json:"tool"`
	Timestamp int64    `json:"timestamp"` // ingestion time, Unix seconds
	Metrics   []Metric `json:"metrics"`
}

// MetricByName returns the first metric of the run carrying the provided name
func (r *BenchRun) MetricByName(name string) (Metric, bool) {
	for _, m := range r.Metrics {
		if m.Name == name {
			return m, true
		}
	}

	return Metric{}, false
}

// History is the persisted aggregate: ordered runs per group label
type History struct {
	LastUpdate int64                 `json:"lastUpdate"`
	RepoURL    string                `json:"repoUrl,omitempty"`
	Groups     map[string][]BenchRun `json:"groups"`
}

// NewHistory returns an empty history
func NewHistory() History {
	return History{
		Groups: make(map[string][]BenchRun),
	}
}

// Get returns the runs of the provided group. Unknown groups yield an empty slice
func (h History) Get(group string) []BenchRun {
	runs, found := h.Groups[group]
	if !found {
		return make([]BenchRun, 0)
	}

	return runs
}
