package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/iulianpascalau/bench-tracker/services/tracker/regression"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("notifier")

// AlertPayload is the body posted to the webhook
type AlertPayload struct {
	Group      string                      `json:"group"`
	RevisionID string                      `json:"revisionId"`
	Alerts     []regression.Classification `json:"alerts"`
}

type webhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a notifier that posts regression alerts to the provided URL
func NewWebhookNotifier(url string, timeout time.Duration) *webhookNotifier {
	return &webhookNotifier{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Notify posts the alerts of one run. Nothing is sent when there are no alerts
func (n *webhookNotifier) Notify(ctx context.Context, group string, revisionID string, alerts []regression.Classification) error {
	if len(alerts) == 0 {
		return nil
	}

	payload := AlertPayload{
		Group:      group,
		RevisionID: revisionID,
		Alerts:     alerts,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal alert payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("network error sending alerts: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook rejected alerts with status code: %d", resp.StatusCode)
	}

	log.Debug("sent regression alerts", "url", n.url, "group", group, "revision", revisionID, "num alerts", len(alerts))

	return nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (n *webhookNotifier) IsInterfaceNil() bool {
	return n == nil
}
