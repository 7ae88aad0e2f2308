package factory

import (
	"context"

	"github.com/iulianpascalau/bench-tracker/services/tracker/api"
	"github.com/iulianpascalau/bench-tracker/services/tracker/model"
)

// Server defines the operation of an entity able to serve requests
type Server interface {
	Start() error
	Address() string
	Close() error
}

// Persister saves and restores the append store content
type Persister interface {
	Load(ctx context.Context) (model.History, error)
	Save(ctx context.Context, h model.History) error
	Close() error
	IsInterfaceNil() bool
}

// Processor is the ingestion component that has pending work to wait for on shutdown
type Processor interface {
	api.Ingester
	Close() error
}
