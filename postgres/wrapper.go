package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gosom/scrapemate"

	"github.com/tpgainz/sirene-search/jobs"
)

// jobWrapper wraps jobs to inject the lookup service and to update their
// status after processing.
type jobWrapper struct {
	scrapemate.IJob
	provider *provider
}

// Process handles job processing and child job management.
func (w *jobWrapper) Process(ctx context.Context, resp *scrapemate.Response) (any, []scrapemate.IJob, error) {
	log := scrapemate.GetLoggerFromContext(ctx)
	log.Info(fmt.Sprintf("jobWrapper.Process: traitement du job %s (type: %T)", w.IJob.GetID(), w.IJob))

	ctx = jobs.ContextWithLookup(ctx, w.provider.lookup)

	if w.provider.exitMonitor != nil && w.provider.countsTowardExit(w.IJob.GetID()) {
		defer w.provider.exitMonitor.IncrSeedCompleted(1)
	}

	data, nextJobs, err := w.IJob.Process(ctx, resp)

	if err == nil {
		if len(nextJobs) > 0 {
			if err := w.provider.pushChildJobs(ctx, w.IJob, nextJobs); err != nil {
				log.Error(fmt.Sprintf("jobWrapper.Process: échec d'insertion des jobs enfants: %v", err))
				return data, nextJobs, fmt.Errorf("while pushing jobs: %w", err)
			}
		}

		if err := w.provider.statusManager.MarkDone(ctx, w.IJob, len(nextJobs)); err != nil {
			return data, nextJobs, err
		}

		var wrappedNextJobs []scrapemate.IJob
		if len(nextJobs) > 0 {
			wrappedNextJobs = make([]scrapemate.IJob, len(nextJobs))
			for i := range nextJobs {
				wrappedNextJobs[i] = &jobWrapper{IJob: nextJobs[i], provider: w.provider}
			}
		}

		return data, wrappedNextJobs, err
	}

	_ = w.provider.statusManager.MarkFailed(ctx, w.IJob)

	return data, nextJobs, err
}

// pushChildJobs pushes child jobs synchronously within a transaction.
func (p *provider) pushChildJobs(ctx context.Context, parentJob scrapemate.IJob, childJobs []scrapemate.IJob) error {
	if len(childJobs) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	updateParentQuery := `UPDATE sirene_jobs SET child_jobs_count = child_jobs_count + $1 WHERE id = $2`
	_, err = tx.ExecContext(ctx, updateParentQuery, len(childJobs), parentJob.GetID())
	if err != nil {
		return err
	}

	for _, childJob := range childJobs {
		if err := p.pushJobWithParent(ctx, tx, childJob, parentJob.GetID()); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// pushJobWithParent inserts a job with a parent reference.
func (p *provider) pushJobWithParent(ctx context.Context, tx *sql.Tx, job scrapemate.IJob, parentID string) error {
	q := `INSERT INTO sirene_jobs
		(id, parent_id, priority, payload_type, payload, created_at, status)
		VALUES
		($1, $2, $3, $4, $5, $6, $7) ON CONFLICT DO NOTHING`

	actualJob := job
	if wrapper, ok := job.(*jobWrapper); ok {
		actualJob = wrapper.IJob
	}

	jsonJob, jobType, err := p.codecRegistry.EncodeJob(actualJob)
	if err != nil {
		return fmt.Errorf("invalid job type in pushJobWithParent: %w", err)
	}

	jsonJob.ParentID = &parentID

	if jsonJob.ID == "" {
		jsonJob.ID = uuid.New().String()
	}

	payload, err := json.Marshal(jsonJob)
	if err != nil {
		return fmt.Errorf("sérialisation du job: %w", err)
	}

	result, err := tx.ExecContext(ctx, q,
		jsonJob.ID,
		parentID,
		jsonJob.Priority,
		jobType,
		payload,
		time.Now().UTC(),
		statusNew,
	)
	if err != nil {
		return fmt.Errorf("insertion du job: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	// A duplicate child counts as failed so the parent can still complete.
	if rowsAffected == 0 {
		_, err = tx.ExecContext(ctx, `UPDATE sirene_jobs SET child_jobs_failed = child_jobs_failed + 1 WHERE id = $1`, parentID)
		if err != nil {
			return fmt.Errorf("incrément du compteur d'échecs: %w", err)
		}
	}

	return nil
}
