// Package webrunner serves the HTTP API backed by the sirene facade.
package webrunner

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tpgainz/sirene-search/jobs"
	"github.com/tpgainz/sirene-search/postgres"
	"github.com/tpgainz/sirene-search/runner"
	"github.com/tpgainz/sirene-search/sirene"
	"github.com/tpgainz/sirene-search/webserver"
)

type webRunner struct {
	cfg       *runner.Config
	srv       *http.Server
	db        *sql.DB
	analytics *webserver.Analytics
}

// New builds the web runner. The database is optional, without it the
// list endpoints answer 503 and only the search facade is available.
func New(cfg *runner.Config) (runner.Runner, error) {
	apiKey := os.Getenv("INSEE_API_KEY")
	if apiKey == "" {
		return nil, errors.New("INSEE_API_KEY doit être définie")
	}

	client := sirene.NewClient(sirene.ClientConfig{APIKey: apiKey})
	service := sirene.NewService(client,
		sirene.WithCache(sirene.NewCache(cfg.CacheTTL, nil)),
	)

	analytics := webserver.NewAnalytics(os.Getenv("POSTHOG_API_KEY"), os.Getenv("POSTHOG_ENDPOINT"))

	webCfg := webserver.Config{
		Facade:    service,
		APIToken:  os.Getenv("API_TOKEN"),
		Analytics: analytics,
		Metrics:   webserver.NewMetrics(),
	}

	var db *sql.DB

	if cfg.Dsn != "" {
		var err error

		db, err = postgres.Open(cfg.Dsn)
		if err != nil {
			return nil, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := postgres.CreateSchema(ctx, db); err != nil {
			return nil, err
		}

		provider := postgres.NewProvider(db, service, postgres.NewWebhookClient(cfg.WebhookURL))

		webCfg.Lists = postgres.NewListStore(db)
		webCfg.History = postgres.NewHistoryStore(db)
		webCfg.Enqueue = func(ctx context.Context, listID, ownerID string, sirens []string) (string, error) {
			job := jobs.NewImportJob(listID, ownerID, sirens)
			if err := provider.Push(ctx, job); err != nil {
				return "", err
			}

			return job.GetID(), nil
		}
	}

	server := webserver.New(webCfg)

	return &webRunner{
		cfg: cfg,
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           server.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		},
		db:        db,
		analytics: analytics,
	}, nil
}

func (w *webRunner) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Printf("API HTTP à l'écoute sur %s", w.cfg.Addr)

		if err := w.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	group.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return w.srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

func (w *webRunner) Close(context.Context) error {
	w.analytics.Close()

	if w.db != nil {
		return w.db.Close()
	}

	return nil
}
