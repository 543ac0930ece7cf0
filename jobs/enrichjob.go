package jobs

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gosom/scrapemate"

	"github.com/tpgainz/sirene-search/exiter"
	"github.com/tpgainz/sirene-search/sirene"
)

// CompanyLookup is the slice of the sirene facade the enrichment jobs
// need.
type CompanyLookup interface {
	SearchBySiren(ctx context.Context, siren string) (*sirene.SearchPage, error)
}

type lookupKey struct{}

// ContextWithLookup injects the lookup used by jobs during Process. The
// provider wrapper installs it before dispatching.
func ContextWithLookup(ctx context.Context, lookup CompanyLookup) context.Context {
	return context.WithValue(ctx, lookupKey{}, lookup)
}

// LookupFromContext returns the injected lookup, or nil.
func LookupFromContext(ctx context.Context) CompanyLookup {
	lookup, _ := ctx.Value(lookupKey{}).(CompanyLookup)
	return lookup
}

// EnrichResult is what an EnrichJob emits for the result writer.
type EnrichResult struct {
	ListID  string                 `json:"listId"`
	OwnerID string                 `json:"ownerId"`
	Siren   string                 `json:"siren"`
	Records []sirene.CompanyRecord `json:"records"`
}

func (r *EnrichResult) GetID() string { return r.Siren }

func (r *EnrichResult) GetData() interface{} { return r }

type EnrichJobOptions func(*EnrichJob)

// EnrichJob resolves one SIREN against the registry and emits the
// normalized records for every establishment found. The registry call
// happens inside Process with the facade's own authenticated client; the
// fetcher response is ignored.
type EnrichJob struct {
	scrapemate.Job
	ListID  string
	OwnerID string
	Siren   string

	ExitMonitor exiter.Exiter
}

func NewEnrichJob(listID, ownerID, siren string, opts ...EnrichJobOptions) *EnrichJob {
	const (
		defaultPrio       = scrapemate.PriorityHigh
		defaultMaxRetries = 2
	)

	job := EnrichJob{
		Job: scrapemate.Job{
			ID:         uuid.New().String(),
			Method:     http.MethodGet,
			URL:        sirene.DefaultBaseURL + "/siren/" + siren,
			MaxRetries: defaultMaxRetries,
			Priority:   defaultPrio,
		},
		ListID:  listID,
		OwnerID: ownerID,
		Siren:   siren,
	}

	for _, opt := range opts {
		opt(&job)
	}

	return &job
}

func WithEnrichJobParentID(parentID string) EnrichJobOptions {
	return func(j *EnrichJob) {
		j.ParentID = parentID
	}
}

func WithEnrichJobPriority(priority int) EnrichJobOptions {
	return func(j *EnrichJob) {
		j.Priority = priority
	}
}

func WithEnrichJobExitMonitor(monitor exiter.Exiter) EnrichJobOptions {
	return func(j *EnrichJob) {
		j.ExitMonitor = monitor
	}
}

func (j *EnrichJob) Process(ctx context.Context, resp *scrapemate.Response) (any, []scrapemate.IJob, error) {
	defer func() {
		resp.Document = nil
		resp.Body = nil
		resp.Meta = nil
	}()

	if j.ExitMonitor != nil {
		defer j.ExitMonitor.IncrSeedCompleted(1)
	}

	logr := scrapemate.GetLoggerFromContext(ctx)

	lookup := LookupFromContext(ctx)
	if lookup == nil {
		return nil, nil, fmt.Errorf("aucun service sirene dans le contexte")
	}

	page, err := lookup.SearchBySiren(ctx, j.Siren)
	if err != nil {
		logr.Info(fmt.Sprintf("Enrichissement échoué pour %s: %v", j.Siren, err))
		return nil, nil, err
	}

	logr.Info(fmt.Sprintf("Enrichissement de %s: %d établissement(s)", j.Siren, len(page.Results)))

	return &EnrichResult{
		ListID:  j.ListID,
		OwnerID: j.OwnerID,
		Siren:   j.Siren,
		Records: page.Results,
	}, nil, nil
}

func (j *EnrichJob) UseInResults() bool { return true }

// ProcessOnFetchError keeps the job alive when the probe fetch of the
// registry URL fails; Process performs the authenticated call itself.
func (j *EnrichJob) ProcessOnFetchError() bool { return true }
