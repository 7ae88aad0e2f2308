package datajs

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/iulianpascalau/bench-tracker/services/tracker/model"
)

type identityJS struct {
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
}

type commitJS struct {
	Author    identityJS `json:"author"`
	Committer identityJS `json:"committer"`
	ID        string     `json:"id"`
	Message   string     `json:"message"`
	Timestamp string     `json:"timestamp"`
	URL       string     `json:"url,omitempty"`
}

type benchJS struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Range string  `json:"range"`
	Unit  string  `json:"unit"`
}

type entryJS struct {
	Commit  commitJS  `json:"commit"`
	Date    int64     `json:"date"`
	Tool    string    `json:"tool"`
	Benches []benchJS `json:"benches"`
}

type documentJS struct {
	LastUpdate int64                `json:"lastUpdate"`
	RepoURL    string               `json:"repoUrl"`
	Entries    map[string][]entryJS `json:"entries"`
}

// Render writes the history in the data.js shape consumed by the benchmark chart front-end
func Render(h model.History) ([]byte, error) {
	doc := documentJS{
		LastUpdate: h.LastUpdate * 1000,
		RepoURL:    h.RepoURL,
		Entries:    make(map[string][]entryJS, len(h.Groups)),
	}

	for group, runs := range h.Groups {
		entries := make([]entryJS, 0, len(runs))
		for _, run := range runs {
			entries = append(entries, renderRun(run))
		}
		doc.Entries[group] = entries
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}

	buff := bytes.NewBufferString(assignmentPrefix + " ")
	buff.Write(body)
	buff.WriteString("\n")

	return buff.Bytes(), nil
}

func renderRun(run model.BenchRun) entryJS {
	benches := make([]benchJS, 0, len(run.Metrics))
	for _, m := range run.Metrics {
		benches = append(benches, benchJS{
			Name:  m.Name,
			Value: m.Value,
			Range: FormatRange(m.ErrorMargin),
			Unit:  m.Unit,
		})
	}

	return entryJS{
		Commit: commitJS{
			Author:    identityJS{Name: run.Revision.Author.Name, Username: run.Revision.Author.Handle},
			Committer: identityJS{Name: run.Revision.Committer.Name, Username: run.Revision.Committer.Handle},
			ID:        run.Revision.ID,
			Message:   run.Revision.Message,
			Timestamp: time.Unix(run.Revision.Timestamp, 0).UTC().Format(time.RFC3339),
			URL:       run.Revision.URL,
		},
		Date:    run.Timestamp * 1000,
		Tool:    run.Tool,
		Benches: benches,
	}
}

// FormatRange renders a numeric margin the way the chart front-end displays it
func FormatRange(margin float64) string {
	return "± " + strconv.FormatFloat(margin, 'f', -1, 64)
}
