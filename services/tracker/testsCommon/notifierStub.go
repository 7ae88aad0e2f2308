package testsCommon

import (
	"context"

	"github.com/iulianpascalau/bench-tracker/services/tracker/regression"
)

// NotifierStub -
type NotifierStub struct {
	NotifyHandler func(ctx context.Context, group string, revisionID string, alerts []regression.Classification) error
}

// Notify -
func (stub *NotifierStub) Notify(ctx context.Context, group string, revisionID string, alerts []regression.Classification) error {
	if stub.NotifyHandler != nil {
		return stub.NotifyHandler(ctx, group, revisionID, alerts)
	}

	return nil
}

// IsInterfaceNil -
func (stub *NotifierStub) IsInterfaceNil() bool {
	return stub == nil
}
