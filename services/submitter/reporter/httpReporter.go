package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/iulianpascalau/bench-tracker/services/tracker/common"
	"github.com/iulianpascalau/bench-tracker/services/tracker/model"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("reporter")

// ErrRunRejected signals that the tracker refused the submitted run as invalid
var ErrRunRejected = errors.New("run rejected by the tracker")

type httpReporter struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPReporter creates a new reporter that submits runs to the configured tracker endpoint
func NewHTTPReporter(endpoint string, apiKey string, timeout time.Duration) *httpReporter {
	return &httpReporter{
		endpoint: endpoint,
		apiKey:   apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Report submits the run to the tracker. A duplicate revision is not an error: the run was already recorded
func (r *httpReporter) Report(ctx context.Context, group string, run model.BenchRun) (*common.SubmitRunResponse, error) {
	payload := common.SubmitRunPayload{
		Group: group,
		Run:   run,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create report request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error sending run: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
		response, errDecode := decodeResponse(resp.Body)
		if errDecode != nil {
			return nil, errDecode
		}

		log.Debug("successfully submitted run", "endpoint", r.endpoint, "group", group,
			"revision", run.Revision.ID, "position", response.Position)
		return response, nil
	case http.StatusConflict:
		response, errDecode := decodeResponse(resp.Body)
		if errDecode != nil {
			return nil, errDecode
		}

		log.Info("revision already recorded, nothing to do", "group", group, "revision", run.Revision.ID)
		return response, nil
	case http.StatusBadRequest:
		response, errDecode := decodeResponse(resp.Body)
		if errDecode != nil {
			return nil, fmt.Errorf("%w: %w", ErrRunRejected, errDecode)
		}

		return response, fmt.Errorf("%w: %s", ErrRunRejected, response.Error)
	default:
		return nil, fmt.Errorf("tracker rejected run with status code: %d", resp.StatusCode)
	}
}

func decodeResponse(body io.Reader) (*common.SubmitRunResponse, error) {
	response := &common.SubmitRunResponse{}
	err := json.NewDecoder(body).Decode(response)
	if err != nil {
		return nil, fmt.Errorf("failed to decode tracker response: %w", err)
	}

	return response, nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (r *httpReporter) IsInterfaceNil() bool {
	return r == nil
}
