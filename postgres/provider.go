package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gosom/scrapemate"

	"github.com/tpgainz/sirene-search/exiter"
	"github.com/tpgainz/sirene-search/jobs"
)

const (
	statusNew        = "new"
	statusQueued     = "queued"
	statusProcessing = "processing"
	statusDone       = "done"
	statusFailed     = "failed"
)

var _ scrapemate.JobProvider = (*provider)(nil)

type JSONJob struct {
	ID         string                 `json:"id"`
	ParentID   *string                `json:"parent_id,omitempty"`
	Priority   int                    `json:"priority"`
	URL        string                 `json:"url"`
	URLParams  map[string]string      `json:"url_params"`
	MaxRetries int                    `json:"max_retries"`
	JobType    string                 `json:"job_type"`
	Metadata   map[string]interface{} `json:"metadata"` // données spécifiques au type
}

type provider struct {
	db            *sql.DB
	mu            *sync.Mutex
	jobc          chan scrapemate.IJob
	errc          chan error
	started       bool
	lookup        jobs.CompanyLookup
	codecRegistry *CodecRegistry
	statusManager *StatusManager
	exitMonitor   exiter.Exiter
	seedMu        sync.Mutex
	seedIDs       map[string]struct{}
}

// ProviderOption customizes the provider.
type ProviderOption func(*provider)

// WithExitMonitor reports finished seed jobs to the monitor so a bounded
// run can stop once its batch is through. Only jobs registered via
// MarkSeed count, the queue may still hold jobs from earlier runs.
func WithExitMonitor(monitor exiter.Exiter) ProviderOption {
	return func(p *provider) {
		p.exitMonitor = monitor
	}
}

// SeedMarker is implemented by providers that gate their exit monitor on
// an explicit batch of seed jobs.
type SeedMarker interface {
	MarkSeed(id string)
}

// MarkSeed registers a job as part of the current run's batch.
func (p *provider) MarkSeed(id string) {
	p.seedMu.Lock()
	defer p.seedMu.Unlock()

	if p.seedIDs == nil {
		p.seedIDs = make(map[string]struct{})
	}

	p.seedIDs[id] = struct{}{}
}

func (p *provider) countsTowardExit(jobID string) bool {
	p.seedMu.Lock()
	defer p.seedMu.Unlock()

	_, ok := p.seedIDs[jobID]

	return ok
}

// NewProvider creates a job provider backed by the sirene_jobs table. The
// lookup is injected into every job's context before it runs.
func NewProvider(db *sql.DB, lookup jobs.CompanyLookup, webhook *WebhookClient, opts ...ProviderOption) scrapemate.JobProvider {
	prov := provider{
		db:            db,
		mu:            &sync.Mutex{},
		errc:          make(chan error, 1),
		jobc:          make(chan scrapemate.IJob, 100),
		lookup:        lookup,
		codecRegistry: NewCodecRegistry(),
	}

	prov.statusManager = NewStatusManager(db, webhook)

	for _, opt := range opts {
		opt(&prov)
	}

	return &prov
}

//nolint:gocritic // it contains about unnamed results
func (p *provider) Jobs(ctx context.Context) (<-chan scrapemate.IJob, <-chan error) {
	outc := make(chan scrapemate.IJob)
	errc := make(chan error, 1)

	p.mu.Lock()
	if !p.started {
		go p.fetchJobs(ctx)

		p.started = true
	}
	p.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-p.errc:
				errc <- err

				return
			case job, ok := <-p.jobc:
				if !ok {
					return
				}

				// Wrap the job to handle marking it as done after processing
				wrappedJob := &jobWrapper{
					IJob:     job,
					provider: p,
				}

				select {
				case outc <- wrappedJob:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return outc, errc
}

// Push pushes a job to the job provider
func (p *provider) Push(ctx context.Context, job scrapemate.IJob) error {
	q := `INSERT INTO sirene_jobs
		(id, priority, payload_type, payload, created_at, status)
		VALUES
		($1, $2, $3, $4, $5, $6) ON CONFLICT DO NOTHING`

	jsonJob, jobType, err := p.codecRegistry.EncodeJob(job)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(jsonJob)
	if err != nil {
		return fmt.Errorf("sérialisation du job: %w", err)
	}

	_, err = p.db.ExecContext(ctx, q,
		jsonJob.ID, jsonJob.Priority, jobType, payload, time.Now().UTC(), statusNew,
	)

	return err
}

func (p *provider) fetchJobs(ctx context.Context) {
	defer close(p.jobc)
	defer close(p.errc)

	q := `
	WITH updated AS (
		UPDATE sirene_jobs
		SET status = $1
		WHERE id IN (
			SELECT id from sirene_jobs
			WHERE status = $2
			ORDER BY priority ASC, created_at ASC FOR UPDATE SKIP LOCKED
		LIMIT 50
		)
		RETURNING *
	)
	SELECT payload_type, payload from updated ORDER by priority ASC, created_at ASC
	`

	baseDelay := time.Second
	maxDelay := time.Minute
	factor := 2
	currentDelay := baseDelay

	pending := make([]scrapemate.IJob, 0, 50)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		rows, err := p.db.QueryContext(ctx, q, statusQueued, statusNew)
		if err != nil {
			p.errc <- err

			return
		}

		for rows.Next() {
			var (
				payloadType string
				payload     []byte
			)

			if err := rows.Scan(&payloadType, &payload); err != nil {
				p.errc <- err

				return
			}

			job, err := p.codecRegistry.DecodeJob(payloadType, payload)
			if err != nil {
				p.errc <- err

				return
			}

			pending = append(pending, job)
		}

		if err := rows.Err(); err != nil {
			p.errc <- err

			return
		}

		if err := rows.Close(); err != nil {
			p.errc <- err

			return
		}

		if len(pending) > 0 {
			for _, job := range pending {
				select {
				case p.jobc <- job:
				case <-ctx.Done():
					return
				}
			}

			pending = pending[:0]
			currentDelay = baseDelay
		} else {
			select {
			case <-time.After(currentDelay):
				currentDelay = time.Duration(float64(currentDelay) * float64(factor))
				if currentDelay > maxDelay {
					currentDelay = maxDelay
				}
			case <-ctx.Done():
				return
			}
		}
	}
}
