package sirene

import (
	"testing"
)

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  Peugeot  ", "PEUGEOT"},
		{"Société Générale", "SOCIETE GENERALE"},
		{"P&G France", "PETG FRANCE"},
		{"crédit;agricole", "CREDIT AGRICOLE"},
		{"", ""},
		{"   ", ""},
	}

	for _, test := range tests {
		result := SanitizeInput(test.input)
		if result != test.expected {
			t.Errorf("SanitizeInput(%q) = %q, expected %q", test.input, result, test.expected)
		}
	}
}

func TestValidateAcceptsCleanCriteria(t *testing.T) {
	criteria := SearchCriteria{
		Siren:             "552100554",
		Siret:             "55210055400017",
		CodePostal:        "75001",
		Commune:           "paris",
		EtatAdministratif: "a",
		Departement:       "75",
		DateCreationDebut: "2020-01-01",
	}

	validated, err := criteria.Validate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if validated.Commune != "PARIS" {
		t.Errorf("Commune = %q, expected sanitized value", validated.Commune)
	}
	if validated.EtatAdministratif != "A" {
		t.Errorf("EtatAdministratif = %q, expected uppercased A", validated.EtatAdministratif)
	}
}

func TestValidateIdentifierShapes(t *testing.T) {
	tests := []struct {
		name    string
		value   SearchCriteria
		wantErr bool
	}{
		{"valid siren", SearchCriteria{Siren: "552100554"}, false},
		{"siren with letters", SearchCriteria{Siren: "55210055a"}, true},
		{"siren too long", SearchCriteria{Siren: "5521005540"}, true},
		{"valid siret", SearchCriteria{Siret: "55210055400017"}, false},
		{"siret too short", SearchCriteria{Siret: "552100554"}, true},
		{"matching pair", SearchCriteria{Siren: "552100554", Siret: "55210055400017"}, false},
		{"conflicting pair", SearchCriteria{Siren: "111111111", Siret: "55210055400017"}, true},
		{"departement three digits", SearchCriteria{Departement: "971"}, false},
		{"departement malformed", SearchCriteria{Departement: "7"}, true},
	}

	for _, test := range tests {
		_, err := test.value.Validate()
		if (err != nil) != test.wantErr {
			t.Errorf("%s: err = %v, wantErr = %v", test.name, err, test.wantErr)
		}
	}
}

func TestIsZero(t *testing.T) {
	if !(SearchCriteria{}).IsZero() {
		t.Error("empty criteria should be zero")
	}
	if (SearchCriteria{Siren: "552100554"}).IsZero() {
		t.Error("criteria with a siren should not be zero")
	}
}
