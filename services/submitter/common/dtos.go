package common

import (
	"github.com/iulianpascalau/bench-tracker/services/submitter/config"
	"github.com/iulianpascalau/bench-tracker/services/tracker/model"
)

// SourceResult holds the metrics extracted from one configured benchmark source
type SourceResult struct {
	Config  config.SourceConfig
	Metrics []model.Metric
}

// RevisionInfo describes the revision the collected benchmarks were run against
type RevisionInfo struct {
	ID              string
	Message         string
	AuthorName      string
	AuthorHandle    string
	CommitterName   string
	CommitterHandle string
	Timestamp       int64
	URL             string
}

// ToRevision converts the collected info into the tracker's revision
func (info RevisionInfo) ToRevision() model.Revision {
	committer := model.Identity{
		Name:   info.CommitterName,
		Handle: info.CommitterHandle,
	}
	if len(committer.Name) == 0 {
		committer = model.Identity{
			Name:   info.AuthorName,
			Handle: info.AuthorHandle,
		}
	}

	return model.Revision{
		ID: info.ID,
		Author: model.Identity{
			Name:   info.AuthorName,
			Handle: info.AuthorHandle,
		},
		Committer: committer,
		Message:   info.Message,
		Timestamp: info.Timestamp,
		URL:       info.URL,
	}
}
