package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tpgainz/sirene-search/sirene"
)

// ErrListNotFound is returned when the requested list does not exist or
// belongs to another owner.
var ErrListNotFound = errors.New("liste introuvable")

// CompanyList is a user-owned collection of SIREN identifiers to track.
type CompanyList struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsArchived  bool      `json:"isArchived"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ListCompany is one tracked establishment of a list. EnrichedAt is nil
// until an enrichment job populated the record.
type ListCompany struct {
	sirene.CompanyRecord
	EnrichedAt *time.Time `json:"enrichedAt,omitempty"`
}

// ListStore provides CRUD on company lists.
type ListStore struct {
	db *sql.DB
}

// NewListStore creates a ListStore on top of db.
func NewListStore(db *sql.DB) *ListStore {
	return &ListStore{db: db}
}

// Create inserts a new list for the given owner.
func (s *ListStore) Create(ctx context.Context, ownerID, name, description string) (*CompanyList, error) {
	list := CompanyList{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	list.UpdatedAt = list.CreatedAt

	q := `INSERT INTO company_lists (id, owner_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.db.ExecContext(ctx, q,
		list.ID, list.OwnerID, list.Name, list.Description, list.CreatedAt, list.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("création de la liste: %w", err)
	}

	return &list, nil
}

// Get returns a single list owned by ownerID.
func (s *ListStore) Get(ctx context.Context, ownerID, listID string) (*CompanyList, error) {
	q := `SELECT id, owner_id, name, description, is_archived, created_at, updated_at
		FROM company_lists
		WHERE id = $1 AND owner_id = $2`

	var list CompanyList

	err := s.db.QueryRowContext(ctx, q, listID, ownerID).Scan(
		&list.ID, &list.OwnerID, &list.Name, &list.Description,
		&list.IsArchived, &list.CreatedAt, &list.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrListNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("lecture de la liste: %w", err)
	}

	return &list, nil
}

// List returns the lists of an owner, archived ones excluded unless asked.
func (s *ListStore) List(ctx context.Context, ownerID string, includeArchived bool) ([]CompanyList, error) {
	builder := NewCompanyListsQuery(ownerID)
	if includeArchived {
		builder.WithArchived()
	}

	q, args, ok := builder.Build()
	if !ok {
		return nil, errors.New("owner_id manquant")
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("lecture des listes: %w", err)
	}
	defer rows.Close()

	out := make([]CompanyList, 0)

	for rows.Next() {
		var list CompanyList
		if err := rows.Scan(&list.ID, &list.OwnerID, &list.Name, &list.Description,
			&list.IsArchived, &list.CreatedAt, &list.UpdatedAt); err != nil {
			return nil, err
		}

		out = append(out, list)
	}

	return out, rows.Err()
}

// Archive flags a list as archived without deleting its companies.
func (s *ListStore) Archive(ctx context.Context, ownerID, listID string) error {
	q := `UPDATE company_lists SET is_archived = TRUE, updated_at = $1
		WHERE id = $2 AND owner_id = $3`

	res, err := s.db.ExecContext(ctx, q, time.Now().UTC(), listID, ownerID)
	if err != nil {
		return fmt.Errorf("archivage de la liste: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return ErrListNotFound
	}

	return nil
}

// Delete removes a list and, via the cascade, its companies.
func (s *ListStore) Delete(ctx context.Context, ownerID, listID string) error {
	q := `DELETE FROM company_lists WHERE id = $1 AND owner_id = $2`

	res, err := s.db.ExecContext(ctx, q, listID, ownerID)
	if err != nil {
		return fmt.Errorf("suppression de la liste: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return ErrListNotFound
	}

	return nil
}

// AddCompany inserts a bare, not yet enriched siren into a list.
func (s *ListStore) AddCompany(ctx context.Context, listID, siren string) error {
	q := `INSERT INTO list_companies (id, list_id, siren)
		VALUES ($1, $2, $3) ON CONFLICT (list_id, siren, siret) DO NOTHING`

	_, err := s.db.ExecContext(ctx, q, uuid.New().String(), listID, siren)
	if err != nil {
		return fmt.Errorf("ajout à la liste: %w", err)
	}

	return nil
}

// RemoveCompany removes every establishment of a siren from a list.
func (s *ListStore) RemoveCompany(ctx context.Context, listID, siren string) error {
	q := `DELETE FROM list_companies WHERE list_id = $1 AND siren = $2`

	if _, err := s.db.ExecContext(ctx, q, listID, siren); err != nil {
		return fmt.Errorf("retrait de la liste: %w", err)
	}

	return nil
}

// Companies returns the companies of a list using the query builder.
func (s *ListStore) Companies(ctx context.Context, query *ListCompaniesQuery) ([]ListCompany, error) {
	q, args, ok := query.Build()
	if !ok {
		return nil, errors.New("list_id manquant")
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("lecture des établissements: %w", err)
	}
	defer rows.Close()

	out := make([]ListCompany, 0)

	for rows.Next() {
		var (
			c          ListCompany
			enrichedAt sql.NullTime
		)

		if err := rows.Scan(&c.Siren, &c.Siret, &c.Denomination,
			&c.ActivitePrincipale, &c.CategorieJuridique, &c.EtatAdministratif,
			&c.Adresse.CodePostal, &c.Adresse.Commune, &c.DateCreation,
			&enrichedAt); err != nil {
			return nil, err
		}

		if enrichedAt.Valid {
			t := enrichedAt.Time
			c.EnrichedAt = &t
		}

		out = append(out, c)
	}

	return out, rows.Err()
}
