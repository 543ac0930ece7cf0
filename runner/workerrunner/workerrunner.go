// Package workerrunner consumes the postgres job queue and, in produce
// mode, seeds it from an input file.
package workerrunner

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"os"
	"time"

	"github.com/gosom/scrapemate"
	"github.com/gosom/scrapemate/scrapemateapp"

	"github.com/tpgainz/sirene-search/deduper"
	"github.com/tpgainz/sirene-search/exiter"
	"github.com/tpgainz/sirene-search/postgres"
	"github.com/tpgainz/sirene-search/runner"
	"github.com/tpgainz/sirene-search/sirene"
)

type workerRunner struct {
	cfg         *runner.Config
	db          *sql.DB
	provider    scrapemate.JobProvider
	app         *scrapemateapp.ScrapemateApp
	exitMonitor exiter.Exiter
	produce     bool
}

// New builds the worker. Produce mode only needs the provider, worker
// mode also builds the scrapemate app around it.
func New(cfg *runner.Config) (runner.Runner, error) {
	if cfg.Dsn == "" {
		return nil, errors.New("dsn requis")
	}

	db, err := postgres.Open(cfg.Dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := postgres.CreateSchema(ctx, db); err != nil {
		return nil, err
	}

	apiKey := os.Getenv("INSEE_API_KEY")
	if apiKey == "" {
		return nil, errors.New("INSEE_API_KEY doit être définie")
	}

	client := sirene.NewClient(sirene.ClientConfig{APIKey: apiKey})
	service := sirene.NewService(client,
		sirene.WithCache(sirene.NewCache(cfg.CacheTTL, nil)),
	)

	provider := postgres.NewProvider(db, service, postgres.NewWebhookClient(cfg.WebhookURL))

	ret := workerRunner{
		cfg:     cfg,
		db:      db,
		produce: cfg.RunMode == runner.RunModeProduce,
	}

	if ret.produce {
		ret.provider = provider
		return &ret, nil
	}

	// A worker given an input file processes that batch and exits once
	// every seeded job went through.
	if cfg.InputFile != "" {
		ret.exitMonitor = exiter.New()
		provider = postgres.NewProvider(db, service,
			postgres.NewWebhookClient(cfg.WebhookURL),
			postgres.WithExitMonitor(ret.exitMonitor),
		)
	}

	ret.provider = provider

	writer := postgres.NewResultWriter(db)

	opts := []func(*scrapemateapp.Config) error{
		scrapemateapp.WithConcurrency(cfg.Concurrency),
		scrapemateapp.WithProvider(provider),
	}

	if cfg.ExitOnInactivityDuration > 0 {
		opts = append(opts, scrapemateapp.WithExitOnInactivity(cfg.ExitOnInactivityDuration))
	}

	mateCfg, err := scrapemateapp.NewConfig(
		[]scrapemate.ResultWriter{writer},
		opts...,
	)
	if err != nil {
		return nil, err
	}

	app, err := scrapemateapp.NewScrapeMateApp(mateCfg)
	if err != nil {
		return nil, err
	}

	ret.app = app

	return &ret, nil
}

func (w *workerRunner) Run(ctx context.Context) error {
	if w.produce {
		return w.produceSeedJobs(ctx)
	}

	if w.exitMonitor != nil {
		count, err := w.seedFromInput(ctx)
		if err != nil {
			return err
		}

		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		w.exitMonitor.SetSeedCount(count)
		w.exitMonitor.SetCancelFunc(cancel)

		go w.exitMonitor.Run(runCtx)

		if err := w.app.Start(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}

		return nil
	}

	return w.app.Start(ctx)
}

func (w *workerRunner) Close(context.Context) error {
	if w.app != nil {
		_ = w.app.Close()
	}

	return w.db.Close()
}

func (w *workerRunner) produceSeedJobs(ctx context.Context) error {
	count, err := w.seedFromInput(ctx)
	if err != nil {
		return err
	}

	log.Printf("%d jobs insérés dans la file", count)

	return nil
}

func (w *workerRunner) seedFromInput(ctx context.Context) (int, error) {
	f, err := os.Open(w.cfg.InputFile)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	seeds, err := runner.CreateSeedJobs(w.cfg.ListID, w.cfg.OwnerID, f, deduper.New(), w.exitMonitor)
	if err != nil {
		return 0, err
	}

	marker, _ := w.provider.(postgres.SeedMarker)

	for _, seed := range seeds {
		if err := w.provider.Push(ctx, seed); err != nil {
			return 0, err
		}

		// only this batch counts toward the exit monitor, the queue may
		// still hold jobs from earlier runs
		if marker != nil && w.exitMonitor != nil {
			marker.MarkSeed(seed.GetID())
		}
	}

	return len(seeds), nil
}
