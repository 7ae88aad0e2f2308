package query

import (
	"errors"

	"github.com/iulianpascalau/bench-tracker/services/tracker/model"
)

// ErrNilSource signals a nil runs source
var ErrNilSource = errors.New("nil runs source")

// Source provides the stored runs of a group, in stored order
type Source interface {
	Get(group string) []model.BenchRun
	IsInterfaceNil() bool
}
