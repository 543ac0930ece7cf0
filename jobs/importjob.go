package jobs

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gosom/scrapemate"

	"github.com/tpgainz/sirene-search/sirene"
)

type ImportJobOptions func(*ImportJob)

// ImportJob fans a company-list import out into one EnrichJob per SIREN.
// Malformed identifiers are dropped at fan-out with a log line rather than
// poisoning the queue.
type ImportJob struct {
	scrapemate.Job
	ListID  string
	OwnerID string
	Sirens  []string
}

func NewImportJob(listID, ownerID string, sirens []string, opts ...ImportJobOptions) *ImportJob {
	const (
		defaultPrio       = scrapemate.PriorityMedium
		defaultMaxRetries = 1
	)

	job := ImportJob{
		Job: scrapemate.Job{
			ID:         uuid.New().String(),
			Method:     http.MethodGet,
			URL:        sirene.DefaultBaseURL,
			MaxRetries: defaultMaxRetries,
			Priority:   defaultPrio,
		},
		ListID:  listID,
		OwnerID: ownerID,
		Sirens:  sirens,
	}

	for _, opt := range opts {
		opt(&job)
	}

	return &job
}

func WithImportJobPriority(priority int) ImportJobOptions {
	return func(j *ImportJob) {
		j.Priority = priority
	}
}

func (j *ImportJob) Process(ctx context.Context, resp *scrapemate.Response) (any, []scrapemate.IJob, error) {
	defer func() {
		resp.Document = nil
		resp.Body = nil
		resp.Meta = nil
	}()

	logr := scrapemate.GetLoggerFromContext(ctx)

	next := make([]scrapemate.IJob, 0, len(j.Sirens))
	seen := make(map[string]bool, len(j.Sirens))

	for _, siren := range j.Sirens {
		if seen[siren] {
			continue
		}
		seen[siren] = true

		if !sirene.IsValidSiren(siren) {
			logr.Info(fmt.Sprintf("Import %s: siren invalide ignoré: %q", j.ListID, siren))
			continue
		}

		next = append(next, NewEnrichJob(j.ListID, j.OwnerID, siren, WithEnrichJobParentID(j.GetID())))
	}

	logr.Info(fmt.Sprintf("Import %s: %d siren(s) à enrichir", j.ListID, len(next)))

	return nil, next, nil
}

func (j *ImportJob) UseInResults() bool { return false }

func (j *ImportJob) ProcessOnFetchError() bool { return true }
