package testsCommon

import (
	"context"

	"github.com/iulianpascalau/bench-tracker/services/submitter/common"
	"github.com/iulianpascalau/bench-tracker/services/submitter/config"
)

// CollectorStub -
type CollectorStub struct {
	CollectAllHandler func(ctx context.Context, sources []config.SourceConfig) map[string]common.SourceResult
}

// CollectAll -
func (stub *CollectorStub) CollectAll(ctx context.Context, sources []config.SourceConfig) map[string]common.SourceResult {
	if stub.CollectAllHandler != nil {
		return stub.CollectAllHandler(ctx, sources)
	}

	return make(map[string]common.SourceResult)
}

// IsInterfaceNil -
func (stub *CollectorStub) IsInterfaceNil() bool {
	return stub == nil
}
