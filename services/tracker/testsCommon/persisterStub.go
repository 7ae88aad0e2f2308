package testsCommon

import (
	"context"

	"github.com/iulianpascalau/bench-tracker/services/tracker/model"
)

// PersisterStub -
type PersisterStub struct {
	SaveHandler  func(ctx context.Context, h model.History) error
	LoadHandler  func(ctx context.Context) (model.History, error)
	CloseHandler func() error
}

// Save -
func (stub *PersisterStub) Save(ctx context.Context, h model.History) error {
	if stub.SaveHandler != nil {
		return stub.SaveHandler(ctx, h)
	}

	return nil
}

// Load -
func (stub *PersisterStub) Load(ctx context.Context) (model.History, error) {
	if stub.LoadHandler != nil {
		return stub.LoadHandler(ctx)
	}

	return model.NewHistory(), nil
}

// Close -
func (stub *PersisterStub) Close() error {
	if stub.CloseHandler != nil {
		return stub.CloseHandler()
	}

	return nil
}

// IsInterfaceNil -
func (stub *PersisterStub) IsInterfaceNil() bool {
	return stub == nil
}
