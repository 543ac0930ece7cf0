package postgres

import "fmt"

// ListCompaniesQuery builds the SELECT over list_companies with optional
// filters. Filters compose, every added clause reuses the running argument
// position.
type ListCompaniesQuery struct {
	listID       string
	siren        string
	enrichedOnly bool
	limit        int
}

// NewListCompaniesQuery creates a query for the companies of a list.
func NewListCompaniesQuery(listID string) *ListCompaniesQuery {
	return &ListCompaniesQuery{
		listID: listID,
		limit:  500,
	}
}

// WithSiren restricts the query to a single legal unit.
func (q *ListCompaniesQuery) WithSiren(siren string) *ListCompaniesQuery {
	q.siren = siren
	return q
}

// WithEnrichedOnly keeps only rows that already went through enrichment.
func (q *ListCompaniesQuery) WithEnrichedOnly() *ListCompaniesQuery {
	q.enrichedOnly = true
	return q
}

// WithLimit caps the number of returned rows.
func (q *ListCompaniesQuery) WithLimit(limit int) *ListCompaniesQuery {
	if limit > 0 {
		q.limit = limit
	}

	return q
}

// Build returns the SQL query string and its arguments.
func (q *ListCompaniesQuery) Build() (string, []interface{}, bool) {
	if q.listID == "" {
		return "", nil, false
	}

	query := `SELECT
		siren, siret, denomination, activite_principale, categorie_juridique,
		etat_administratif, code_postal, commune, date_creation, enriched_at
		FROM list_companies
		WHERE list_id = $1`
	args := []interface{}{q.listID}

	if q.siren != "" {
		args = append(args, q.siren)
		query += fmt.Sprintf(" AND siren = $%d", len(args))
	}

	if q.enrichedOnly {
		query += " AND enriched_at IS NOT NULL"
	}

	args = append(args, q.limit)
	query += fmt.Sprintf(" ORDER BY added_at ASC LIMIT $%d", len(args))

	return query, args, true
}

// CompanyListsQuery builds the SELECT over company_lists for one owner.
type CompanyListsQuery struct {
	ownerID         string
	includeArchived bool
}

// NewCompanyListsQuery creates a query for the lists of an owner.
func NewCompanyListsQuery(ownerID string) *CompanyListsQuery {
	return &CompanyListsQuery{ownerID: ownerID}
}

// WithArchived includes archived lists in the result.
func (q *CompanyListsQuery) WithArchived() *CompanyListsQuery {
	q.includeArchived = true
	return q
}

// Build returns the SQL query string and its arguments.
func (q *CompanyListsQuery) Build() (string, []interface{}, bool) {
	if q.ownerID == "" {
		return "", nil, false
	}

	query := `SELECT id, owner_id, name, description, is_archived, created_at, updated_at
		FROM company_lists
		WHERE owner_id = $1`

	if !q.includeArchived {
		query += " AND is_archived = FALSE"
	}

	query += " ORDER BY created_at DESC"

	return query, []interface{}{q.ownerID}, true
}
