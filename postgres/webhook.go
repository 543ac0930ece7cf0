package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gosom/scrapemate"
)

// WebhookClient notifies an external endpoint when a root job completes.
// A nil client or an empty URL disables notifications.
type WebhookClient struct {
	completionURL string
	httpClient    *http.Client
}

// NewWebhookClient creates a WebhookClient posting to the given URL.
func NewWebhookClient(completionURL string) *WebhookClient {
	return &WebhookClient{
		completionURL: completionURL,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
	}
}

// NotifyJobDoneAsync posts a completion notification without blocking the caller.
func (c *WebhookClient) NotifyJobDoneAsync(ctx context.Context, jobID string, payload []byte) {
	if c == nil || c.completionURL == "" {
		return
	}

	go func() {
		var rawJSON string
		if err := json.Unmarshal(payload, &rawJSON); err == nil {
			payload = []byte(rawJSON)
		}

		var jsonJob JSONJob
		if err := json.Unmarshal(payload, &jsonJob); err != nil {
			return
		}

		var ownerID, listID string
		if jsonJob.Metadata != nil {
			if id, ok := jsonJob.Metadata["owner_id"].(string); ok {
				ownerID = id
			}
			if id, ok := jsonJob.Metadata["list_id"].(string); ok {
				listID = id
			}
		}

		apiPayload := map[string]interface{}{
			"jobId":  jobID,
			"userId": ownerID,
			"listId": listID,
		}

		jsonData, err := json.Marshal(apiPayload)
		if err != nil {
			return
		}

		req, err := http.NewRequestWithContext(context.Background(), "POST", c.completionURL, bytes.NewBuffer(jsonData))
		if err != nil {
			return
		}

		req.Header.Set("Content-Type", "application/json")

		log := scrapemate.GetLoggerFromContext(ctx)
		log.Info(fmt.Sprintf("notification de fin de job: %s", c.completionURL))

		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.Error(fmt.Sprintf("échec de la notification de fin de job: %v", err))
			return
		}
		defer resp.Body.Close()

		log.Info(fmt.Sprintf("notification de fin de job envoyée (status: %d)", resp.StatusCode))
	}()
}
