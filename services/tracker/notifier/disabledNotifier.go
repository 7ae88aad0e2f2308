package notifier

import (
	"context"

	"github.com/iulianpascalau/bench-tracker/services/tracker/regression"
)

type disabledNotifier struct{}

// NewDisabledNotifier creates a notifier that drops every alert
func NewDisabledNotifier() *disabledNotifier {
	return &disabledNotifier{}
}

// Notify does nothing
func (n *disabledNotifier) Notify(_ context.Context, _ string, _ string, _ []regression.Classification) error {
	return nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (n *disabledNotifier) IsInterfaceNil() bool {
	return n == nil
}
