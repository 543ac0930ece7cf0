package sirene

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildSirenToken(t *testing.T) {
	sirens := []string{"552100554", "123456789", "000000001"}

	for _, siren := range sirens {
		query, err := QueryBuilder{}.Build("", SearchCriteria{Siren: siren})
		if err != nil {
			t.Fatalf("Build(siren=%s) returned error: %v", siren, err)
		}

		want := "siren:" + siren
		if !strings.Contains(query, want) {
			t.Errorf("Build(siren=%s) = %q, missing token %q", siren, query, want)
		}

		if strings.Contains(query, siren+"*") {
			t.Errorf("Build(siren=%s) = %q, siren token must not be wildcarded", siren, query)
		}
	}
}

func TestBuildFreeText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		strategy PhraseStrategy
		expected string
	}{
		{
			name:     "single word gets wildcard",
			text:     "PEUGEOT",
			expected: "denominationUniteLegale:PEUGEOT* AND etatAdministratifUniteLegale:A",
		},
		{
			name:     "spaced term stays one quoted phrase",
			text:     "CREDIT AGRICOLE",
			expected: `denominationUniteLegale:"CREDIT AGRICOLE" AND etatAdministratifUniteLegale:A`,
		},
		{
			name:     "wildcard strategy splits per word on the field",
			text:     "CREDIT AGRICOLE",
			strategy: PhraseWildcardAnd,
			expected: "denominationUniteLegale:(CREDIT* AND AGRICOLE*) AND etatAdministratifUniteLegale:A",
		},
		{
			name:     "diacritics and case are normalized",
			text:     "  société générale ",
			expected: `denominationUniteLegale:"SOCIETE GENERALE" AND etatAdministratifUniteLegale:A`,
		},
	}

	for _, test := range tests {
		builder := QueryBuilder{Phrase: test.strategy}
		query, err := builder.Build(test.text, SearchCriteria{})
		if err != nil {
			t.Errorf("%s: unexpected error: %v", test.name, err)
			continue
		}
		if query != test.expected {
			t.Errorf("%s: got %q, expected %q", test.name, query, test.expected)
		}
	}
}

func TestBuildPhraseNeverSplitsIntoBareTokens(t *testing.T) {
	inputs := []string{"CREDIT AGRICOLE", "LA POSTE MOBILE", "AIR FRANCE KLM"}

	for _, input := range inputs {
		query, err := QueryBuilder{}.Build(input, SearchCriteria{})
		if err != nil {
			t.Fatalf("Build(%q) returned error: %v", input, err)
		}

		want := `denominationUniteLegale:"` + input + `"`
		if !strings.Contains(query, want) {
			t.Errorf("Build(%q) = %q, phrase not kept as a single quoted unit", input, query)
		}

		for _, word := range strings.Fields(input) {
			bare := " AND " + word + " "
			if strings.Contains(" "+query+" ", bare) {
				t.Errorf("Build(%q) = %q, phrase split into bare token %q", input, query, word)
			}
		}
	}
}

func TestBuildCriteriaTokens(t *testing.T) {
	tests := []struct {
		name     string
		criteria SearchCriteria
		contains []string
	}{
		{
			name:     "postal code",
			criteria: SearchCriteria{CodePostal: "75001"},
			contains: []string{"codePostalEtablissement:75001"},
		},
		{
			name:     "commune with space is quoted",
			criteria: SearchCriteria{Commune: "Le Havre"},
			contains: []string{`libelleCommuneEtablissement:"LE HAVRE"`},
		},
		{
			name:     "activity gets wildcard",
			criteria: SearchCriteria{ActivitePrincipale: "6201Z"},
			contains: []string{"activitePrincipaleUniteLegale:6201Z*"},
		},
		{
			name:     "departement maps to postal prefix",
			criteria: SearchCriteria{Departement: "69"},
			contains: []string{"codePostalEtablissement:69*"},
		},
		{
			name:     "date range lower bound",
			criteria: SearchCriteria{DateCreationDebut: "2020-01-01"},
			contains: []string{"dateCreationUniteLegale:[2020-01-01 TO *]"},
		},
		{
			name:     "date range upper bound",
			criteria: SearchCriteria{DateCreationFin: "2022-12-31"},
			contains: []string{"dateCreationUniteLegale:[* TO 2022-12-31]"},
		},
		{
			name:     "explicit etat overrides the active default",
			criteria: SearchCriteria{Siren: "552100554", EtatAdministratif: "F"},
			contains: []string{"etatAdministratifUniteLegale:F"},
		},
		{
			name:     "several tokens join with AND inside one group",
			criteria: SearchCriteria{CodePostal: "75001", ActivitePrincipale: "6201Z"},
			contains: []string{"codePostalEtablissement:75001 AND ", ") AND etatAdministratifUniteLegale:A"},
		},
	}

	for _, test := range tests {
		query, err := QueryBuilder{}.Build("", test.criteria)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", test.name, err)
			continue
		}
		for _, fragment := range test.contains {
			if !strings.Contains(query, fragment) {
				t.Errorf("%s: got %q, missing %q", test.name, query, fragment)
			}
		}
	}
}

func TestBuildDefaultsToActive(t *testing.T) {
	query, err := QueryBuilder{}.Build("", SearchCriteria{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if query != "etatAdministratifUniteLegale:A" {
		t.Errorf("empty criteria should fall back to the active filter, got %q", query)
	}
}

func TestBuildRejectsMalformedIdentifiers(t *testing.T) {
	tests := []struct {
		name     string
		criteria SearchCriteria
	}{
		{"short siren", SearchCriteria{Siren: "12345"}},
		{"non digit siren", SearchCriteria{Siren: "55210055A"}},
		{"short siret", SearchCriteria{Siret: "5521005540001"}},
		{"conflicting siren and siret", SearchCriteria{Siren: "552100554", Siret: "11111111100012"}},
		{"bad postal code", SearchCriteria{CodePostal: "7500"}},
		{"bad etat", SearchCriteria{EtatAdministratif: "X"}},
		{"bad date", SearchCriteria{DateCreationDebut: "01/01/2020"}},
	}

	for _, test := range tests {
		_, err := QueryBuilder{}.Build("", test.criteria)

		var malformed *MalformedCriteriaError
		if !errors.As(err, &malformed) {
			t.Errorf("%s: expected MalformedCriteriaError, got %v", test.name, err)
		}
	}
}
