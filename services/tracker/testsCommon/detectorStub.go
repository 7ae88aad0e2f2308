package testsCommon

import (
	"github.com/iulianpascalau/bench-tracker/services/tracker/model"
	"github.com/iulianpascalau/bench-tracker/services/tracker/regression"
)

// DetectorStub -
type DetectorStub struct {
	DetectHandler func(group string, runs []model.BenchRun, position int) []regression.Classification
}

// Detect -
func (stub *DetectorStub) Detect(group string, runs []model.BenchRun, position int) []regression.Classification {
	if stub.DetectHandler != nil {
		return stub.DetectHandler(group, runs, position)
	}

	return make([]regression.Classification, 0)
}

// IsInterfaceNil -
func (stub *DetectorStub) IsInterfaceNil() bool {
	return stub == nil
}
