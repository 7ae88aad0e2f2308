package storage

import (
	"context"

	"github.com/iulianpascalau/bench-tracker/services/tracker/model"
)

// disabledPersister keeps nothing: the history lives only as long as the process
type disabledPersister struct{}

// NewDisabledPersister creates a persister that loads an empty history and drops every save
func NewDisabledPersister() *disabledPersister {
	return &disabledPersister{}
}

// Save does nothing
func (d *disabledPersister) Save(_ context.Context, _ model.History) error {
	return nil
}

// Load returns an empty history
func (d *disabledPersister) Load(_ context.Context) (model.History, error) {
	return model.NewHistory(), nil
}

// Close does nothing
func (d *disabledPersister) Close() error {
	return nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (d *disabledPersister) IsInterfaceNil() bool {
	return d == nil
}
