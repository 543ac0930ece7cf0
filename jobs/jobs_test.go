package jobs

import (
	"testing"
)

func TestNewEnrichJob(t *testing.T) {
	job := NewEnrichJob("list123", "user456", "552100554")

	if job.ListID != "list123" {
		t.Error("ListID should match")
	}

	if job.OwnerID != "user456" {
		t.Error("OwnerID should match")
	}

	if job.Siren != "552100554" {
		t.Error("Siren should match")
	}

	if job.GetID() == "" {
		t.Error("a job should get a generated ID")
	}

	if !job.UseInResults() {
		t.Error("enrich jobs feed the result writer")
	}

	if !job.ProcessOnFetchError() {
		t.Error("enrich jobs must process even when the probe fetch fails")
	}
}

func TestNewEnrichJobWithParent(t *testing.T) {
	job := NewEnrichJob("list123", "user456", "552100554", WithEnrichJobParentID("parent789"))

	if job.ParentID != "parent789" {
		t.Error("ParentID should match")
	}
}

func TestNewImportJob(t *testing.T) {
	job := NewImportJob("list123", "user456", []string{"552100554", "111111111"})

	if len(job.Sirens) != 2 {
		t.Errorf("expected 2 sirens, got %d", len(job.Sirens))
	}

	if job.UseInResults() {
		t.Error("import jobs only fan out, they produce no result rows")
	}
}
