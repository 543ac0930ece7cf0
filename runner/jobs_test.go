package runner

import (
	"strings"
	"testing"

	"github.com/tpgainz/sirene-search/deduper"
	"github.com/tpgainz/sirene-search/jobs"
)

func TestCreateSeedJobs(t *testing.T) {
	input := strings.Join([]string{
		"552100554",
		"",
		"# commentaire",
		"542051180",
		"notasiren",
		"552100554", // doublon
		"775665019 #!# list-42",
	}, "\n")

	seeds, err := CreateSeedJobs("list-1", "owner-1", strings.NewReader(input), deduper.New(), nil)
	if err != nil {
		t.Fatalf("CreateSeedJobs: %v", err)
	}

	if len(seeds) != 3 {
		t.Fatalf("seeds = %d, want 3", len(seeds))
	}

	first, ok := seeds[0].(*jobs.EnrichJob)
	if !ok {
		t.Fatalf("seed type = %T, want *jobs.EnrichJob", seeds[0])
	}

	if first.Siren != "552100554" || first.ListID != "list-1" {
		t.Errorf("first seed = %+v", first)
	}

	last := seeds[2].(*jobs.EnrichJob)
	if last.ListID != "list-42" {
		t.Errorf("per-line list override not applied: %q", last.ListID)
	}
}

func TestCreateSeedJobsDedupesAcrossLists(t *testing.T) {
	input := "552100554\n552100554 #!# list-2\n"

	seeds, err := CreateSeedJobs("list-1", "owner-1", strings.NewReader(input), deduper.New(), nil)
	if err != nil {
		t.Fatalf("CreateSeedJobs: %v", err)
	}

	// same siren but different lists, both kept
	if len(seeds) != 2 {
		t.Fatalf("seeds = %d, want 2", len(seeds))
	}
}
