package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosom/scrapemate"

	"github.com/tpgainz/sirene-search/jobs"
	"github.com/tpgainz/sirene-search/sirene"
)

type dbEntry struct {
	ListID             string
	Siren              string
	Siret              string
	Denomination       string
	ActivitePrincipale string
	CategorieJuridique string
	EtatAdministratif  string
	CodePostal         string
	Commune            string
	DateCreation       string
}

// NewResultWriter persists enrichment results into list_companies.
func NewResultWriter(db *sql.DB) scrapemate.ResultWriter {
	return &resultWriter{
		db: db,
	}
}

type resultWriter struct {
	db *sql.DB
}

func (r *resultWriter) Run(ctx context.Context, in <-chan scrapemate.Result) error {
	const maxBatchSize = 50

	buff := make([]dbEntry, 0, maxBatchSize)
	lastSave := time.Now().UTC()
	ticker := time.NewTicker(time.Second * 10)
	defer ticker.Stop()

	for {
		select {
		case result, ok := <-in:
			if !ok {
				if len(buff) > 0 {
					if err := r.batchSave(ctx, buff); err != nil {
						return err
					}
				}
				return nil
			}

			enriched, ok := result.Data.(*jobs.EnrichResult)
			if !ok {
				return errors.New("invalid data type")
			}

			for i := range enriched.Records {
				buff = append(buff, toDBEntry(enriched.ListID, &enriched.Records[i]))
			}

			if len(buff) >= maxBatchSize {
				err := r.batchSave(ctx, buff)
				if err != nil {
					return err
				}

				buff = buff[:0]
				lastSave = time.Now().UTC()
			}
		case <-ticker.C:
			if len(buff) > 0 && time.Since(lastSave) >= time.Second*5 {
				if err := r.batchSave(ctx, buff); err != nil {
					return err
				}
				buff = buff[:0]
				lastSave = time.Now().UTC()
			}
		case <-ctx.Done():
			if len(buff) > 0 {
				saveCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
				defer cancel()
				_ = r.batchSave(saveCtx, buff)
			}
			return ctx.Err()
		}
	}
}

func toDBEntry(listID string, rec *sirene.CompanyRecord) dbEntry {
	return dbEntry{
		ListID:             listID,
		Siren:              rec.Siren,
		Siret:              rec.Siret,
		Denomination:       rec.Denomination,
		ActivitePrincipale: rec.ActivitePrincipale,
		CategorieJuridique: rec.CategorieJuridique,
		EtatAdministratif:  rec.EtatAdministratif,
		CodePostal:         rec.Adresse.CodePostal,
		Commune:            rec.Adresse.Commune,
		DateCreation:       rec.DateCreation,
	}
}

// dedupeEntries keeps the last record per (list_id, siren, siret). One
// batch must never carry two upsert tuples for the same row, postgres
// rejects the whole statement with a cardinality violation otherwise.
func dedupeEntries(entries []dbEntry) []dbEntry {
	seen := make(map[string]int, len(entries))
	out := make([]dbEntry, 0, len(entries))

	for _, item := range entries {
		key := item.ListID + "|" + item.Siren + "|" + item.Siret
		if idx, ok := seen[key]; ok {
			out[idx] = item
			continue
		}

		seen[key] = len(out)
		out = append(out, item)
	}

	return out
}

// enrichedPairs returns the distinct (list_id, siren) pairs of a batch
// that carry a real siret, those are the pairs whose empty-siret
// placeholder rows can go.
func enrichedPairs(entries []dbEntry) [][2]string {
	seen := make(map[string]bool, len(entries))
	out := make([][2]string, 0, len(entries))

	for _, item := range entries {
		if item.Siret == "" {
			continue
		}

		key := item.ListID + "|" + item.Siren
		if seen[key] {
			continue
		}

		seen[key] = true
		out = append(out, [2]string{item.ListID, item.Siren})
	}

	return out
}

func (r *resultWriter) batchSave(ctx context.Context, entries []dbEntry) error {
	entries = dedupeEntries(entries)

	if len(entries) == 0 {
		return nil
	}

	log := scrapemate.GetLoggerFromContext(ctx)

	log.Info(fmt.Sprintf("enregistrement de %d établissements", len(entries)))

	q := `INSERT INTO list_companies
		(id, list_id, siren, siret, denomination, activite_principale,
		 categorie_juridique, etat_administratif, code_postal, commune,
		 date_creation, enriched_at)
		VALUES
		`

	const cols = 12

	elements := make([]string, 0, len(entries))
	args := make([]interface{}, 0, len(entries)*cols)
	now := time.Now().UTC()

	for i, item := range entries {
		placeholders := make([]string, cols)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", i*cols+j+1)
		}

		elements = append(elements, "("+strings.Join(placeholders, ", ")+")")
		args = append(args,
			uuid.New().String(), item.ListID, item.Siren, item.Siret,
			item.Denomination, item.ActivitePrincipale, item.CategorieJuridique,
			item.EtatAdministratif, item.CodePostal, item.Commune,
			item.DateCreation, now)
	}

	q += strings.Join(elements, ", ")
	q += ` ON CONFLICT (list_id, siren, siret) DO UPDATE SET
		denomination = EXCLUDED.denomination,
		activite_principale = EXCLUDED.activite_principale,
		categorie_juridique = EXCLUDED.categorie_juridique,
		etat_administratif = EXCLUDED.etat_administratif,
		code_postal = EXCLUDED.code_postal,
		commune = EXCLUDED.commune,
		date_creation = EXCLUDED.date_creation,
		enriched_at = EXCLUDED.enriched_at`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}

	for _, pair := range enrichedPairs(entries) {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM list_companies WHERE list_id = $1 AND siren = $2 AND siret = ''`,
			pair[0], pair[1])
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.Info(fmt.Sprintf("%d établissements enregistrés", len(entries)))

	return nil
}
