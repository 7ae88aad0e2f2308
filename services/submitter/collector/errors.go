package collector

import (
	"errors"
	"net/http"
)

var errUnknownFormat = errors.New("unknown benchmark output format")

var errNoBenchmarks = errors.New("no benchmark found in output")

type errStatusNotOK int

func (e errStatusNotOK) Error() string {
	return "non-2xx HTTP status code: " + http.StatusText(int(e))
}

type errInvalidEntry string

func (e errInvalidEntry) Error() string {
	return "invalid benchmark entry: " + string(e)
}
