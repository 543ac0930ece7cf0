package webserver

import (
	"log"

	"github.com/posthog/posthog-go"
)

// Analytics captures product events. A nil Analytics is a no-op, the API
// works the same without a posthog key.
type Analytics struct {
	client posthog.Client
}

// NewAnalytics creates an Analytics client, or nil when apiKey is empty.
func NewAnalytics(apiKey, endpoint string) *Analytics {
	if apiKey == "" {
		return nil
	}

	if endpoint == "" {
		endpoint = "https://eu.i.posthog.com"
	}

	client, err := posthog.NewWithConfig(apiKey, posthog.Config{Endpoint: endpoint})
	if err != nil {
		log.Printf("posthog indisponible: %v", err)
		return nil
	}

	return &Analytics{client: client}
}

// Close flushes pending events.
func (a *Analytics) Close() {
	if a != nil {
		_ = a.client.Close()
	}
}

// CaptureSearch records one executed search.
func (a *Analytics) CaptureSearch(userID, query string, total int) {
	if a == nil {
		return
	}

	_ = a.client.Enqueue(posthog.Capture{
		DistinctId: userID,
		Event:      "company_search",
		Properties: posthog.NewProperties().
			Set("query", query).
			Set("total", total),
	})
}

// CaptureImport records one import batch.
func (a *Analytics) CaptureImport(userID, listID string, count int) {
	if a == nil {
		return
	}

	_ = a.client.Enqueue(posthog.Capture{
		DistinctId: userID,
		Event:      "list_import",
		Properties: posthog.NewProperties().
			Set("list_id", listID).
			Set("sirens", count),
	})
}
