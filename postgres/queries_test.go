package postgres

import (
	"strings"
	"testing"
)

func TestListCompaniesQueryBuild(t *testing.T) {
	q, args, ok := NewListCompaniesQuery("list-1").Build()
	if !ok {
		t.Fatal("expected query to build")
	}

	if !strings.Contains(q, "WHERE list_id = $1") {
		t.Errorf("missing list filter in %q", q)
	}

	if len(args) != 2 {
		t.Fatalf("args = %d, want 2 (list_id + limit)", len(args))
	}
}

func TestListCompaniesQueryFilters(t *testing.T) {
	q, args, ok := NewListCompaniesQuery("list-1").
		WithSiren("552100554").
		WithEnrichedOnly().
		WithLimit(10).
		Build()
	if !ok {
		t.Fatal("expected query to build")
	}

	if !strings.Contains(q, "siren = $2") {
		t.Errorf("missing siren filter in %q", q)
	}

	if !strings.Contains(q, "enriched_at IS NOT NULL") {
		t.Errorf("missing enriched filter in %q", q)
	}

	if got := args[len(args)-1]; got != 10 {
		t.Errorf("limit arg = %v, want 10", got)
	}
}

func TestListCompaniesQueryRequiresListID(t *testing.T) {
	if _, _, ok := NewListCompaniesQuery("").Build(); ok {
		t.Fatal("expected build to fail without list_id")
	}
}

func TestCompanyListsQueryArchived(t *testing.T) {
	q, _, ok := NewCompanyListsQuery("owner-1").Build()
	if !ok {
		t.Fatal("expected query to build")
	}

	if !strings.Contains(q, "is_archived = FALSE") {
		t.Errorf("archived lists should be excluded by default: %q", q)
	}

	q, _, _ = NewCompanyListsQuery("owner-1").WithArchived().Build()
	if strings.Contains(q, "is_archived = FALSE") {
		t.Errorf("WithArchived should drop the archived filter: %q", q)
	}
}
