package postgres

import (
	"testing"
)

func TestDedupeEntriesCollapsesSameRow(t *testing.T) {
	entries := []dbEntry{
		{ListID: "list-1", Siren: "552100554", Siret: "55210055400013", Denomination: "ANCIEN NOM"},
		{ListID: "list-1", Siren: "356000000", Siret: "35600000000048", Denomination: "LA POSTE"},
		{ListID: "list-1", Siren: "552100554", Siret: "55210055400013", Denomination: "NOUVEAU NOM"},
	}

	got := dedupeEntries(entries)

	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}

	if got[0].Denomination != "NOUVEAU NOM" {
		t.Errorf("denomination = %q, want le dernier enregistrement", got[0].Denomination)
	}

	if got[1].Siren != "356000000" {
		t.Errorf("siren = %q, want 356000000", got[1].Siren)
	}
}

func TestDedupeEntriesKeepsDistinctSirets(t *testing.T) {
	entries := []dbEntry{
		{ListID: "list-1", Siren: "552100554", Siret: "55210055400013"},
		{ListID: "list-1", Siren: "552100554", Siret: "55210055400021"},
		{ListID: "list-2", Siren: "552100554", Siret: "55210055400013"},
	}

	got := dedupeEntries(entries)

	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
}

func TestEnrichedPairs(t *testing.T) {
	entries := []dbEntry{
		{ListID: "list-1", Siren: "552100554", Siret: "55210055400013"},
		{ListID: "list-1", Siren: "552100554", Siret: "55210055400021"},
		{ListID: "list-1", Siren: "356000000", Siret: ""},
		{ListID: "list-2", Siren: "552100554", Siret: "55210055400013"},
	}

	got := enrichedPairs(entries)

	want := [][2]string{
		{"list-1", "552100554"},
		{"list-2", "552100554"},
	}

	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pair %d = %v, want %v", i, got[i], want[i])
		}
	}
}
