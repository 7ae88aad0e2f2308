package testsCommon

import (
	"context"

	"github.com/iulianpascalau/bench-tracker/services/tracker/common"
	"github.com/iulianpascalau/bench-tracker/services/tracker/model"
)

// ReporterStub -
type ReporterStub struct {
	ReportHandler func(ctx context.Context, group string, run model.BenchRun) (*common.SubmitRunResponse, error)
}

// Report -
func (stub *ReporterStub) Report(ctx context.Context, group string, run model.BenchRun) (*common.SubmitRunResponse, error) {
	if stub.ReportHandler != nil {
		return stub.ReportHandler(ctx, group, run)
	}

	return &common.SubmitRunResponse{Outcome: "accepted"}, nil
}

// IsInterfaceNil -
func (stub *ReporterStub) IsInterfaceNil() bool {
	return stub == nil
}
