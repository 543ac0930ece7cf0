package sirene

import (
	"reflect"
	"testing"
)

func strPtr(s string) *string { return &s }

func sampleUniteLegale() *UniteLegale {
	return &UniteLegale{
		Siren:                   "552100554",
		DateCreationUniteLegale: "1955-01-01",
		PeriodesUniteLegale: []PeriodeUniteLegale{
			{
				DateDebut:                     "2010-06-01",
				DateFin:                       nil,
				DenominationUniteLegale:       "PEUGEOT SA",
				ActivitePrincipaleUniteLegale: "7010Z",
				CategorieJuridiqueUniteLegale: "5699",
				EtatAdministratifUniteLegale:  "A",
			},
			{
				DateDebut:                     "1990-01-01",
				DateFin:                       strPtr("2010-05-31"),
				DenominationUniteLegale:       "AUTOMOBILES PEUGEOT",
				ActivitePrincipaleUniteLegale: "2910Z",
				EtatAdministratifUniteLegale:  "A",
			},
			{
				DateDebut:                     "1955-01-01",
				DateFin:                       strPtr("1989-12-31"),
				DenominationUniteLegale:       "PEUGEOT ET CIE",
				ActivitePrincipaleUniteLegale: "2910Z",
				EtatAdministratifUniteLegale:  "A",
			},
		},
	}
}

func TestNormalizeUniteLegaleSelectsCurrentPeriod(t *testing.T) {
	record, err := NormalizeUniteLegale(sampleUniteLegale(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if record.Denomination != "PEUGEOT SA" {
		t.Errorf("Denomination = %q, expected the current period value", record.Denomination)
	}
	if record.ActivitePrincipale != "7010Z" {
		t.Errorf("ActivitePrincipale = %q, expected 7010Z", record.ActivitePrincipale)
	}
	if record.Siren != "552100554" {
		t.Errorf("Siren = %q, expected 552100554", record.Siren)
	}
}

func TestNormalizeUniteLegaleAsOfDate(t *testing.T) {
	tests := []struct {
		date     string
		expected string
	}{
		{"2015-01-01", "PEUGEOT SA"},
		{"2000-06-15", "AUTOMOBILES PEUGEOT"},
		{"1960-01-01", "PEUGEOT ET CIE"},
	}

	for _, test := range tests {
		record, err := NormalizeUniteLegale(sampleUniteLegale(), test.date)
		if err != nil {
			t.Errorf("date %s: unexpected error: %v", test.date, err)
			continue
		}
		if record.Denomination != test.expected {
			t.Errorf("date %s: Denomination = %q, expected %q", test.date, record.Denomination, test.expected)
		}
	}
}

func TestNormalizeUniteLegaleNoPeriodQualifies(t *testing.T) {
	_, err := NormalizeUniteLegale(sampleUniteLegale(), "1940-01-01")
	if err != ErrNoCurrentPeriod {
		t.Errorf("expected ErrNoCurrentPeriod for a date before all periods, got %v", err)
	}

	_, err = NormalizeUniteLegale(&UniteLegale{Siren: "111111111"}, "")
	if err != ErrNoCurrentPeriod {
		t.Errorf("expected ErrNoCurrentPeriod for a unit without periods, got %v", err)
	}
}

func TestNormalizeUniteLegaleZeroEstablishments(t *testing.T) {
	record, err := NormalizeUniteLegale(sampleUniteLegale(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if record.Adresse != (Adresse{}) {
		t.Errorf("a legal unit without establishments must have empty address fields, got %+v", record.Adresse)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	etab := Etablissement{
		Siren: "552100554",
		Siret: "55210055400017",
		UniteLegale: &UniteLegale{
			DenominationUniteLegale:       "PEUGEOT SA",
			ActivitePrincipaleUniteLegale: "7010Z",
			EtatAdministratifUniteLegale:  "A",
			DateCreationUniteLegale:       "1955-01-01",
		},
		AdresseEtablissement: &AdresseEtablissement{
			NumeroVoieEtablissement:     "7",
			TypeVoieEtablissement:       "RUE",
			LibelleVoieEtablissement:    "HENRI SAINTE CLAIRE DEVILLE",
			CodePostalEtablissement:     "92500",
			LibelleCommuneEtablissement: "RUEIL-MALMAISON",
			CodeCommuneEtablissement:    "92063",
		},
	}

	first := NormalizeEtablissement(etab)
	second := NormalizeEtablissement(etab)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("normalize is not idempotent: %+v vs %+v", first, second)
	}
}

func TestNormalizeEtablissementFields(t *testing.T) {
	etab := Etablissement{
		Siret: "55210055400017",
		UniteLegale: &UniteLegale{
			DenominationUniteLegale: "PEUGEOT SA",
		},
		AdresseEtablissement: &AdresseEtablissement{
			CodePostalEtablissement:     "92500",
			LibelleCommuneEtablissement: "RUEIL-MALMAISON",
			CodeCommuneEtablissement:    "92063",
		},
	}

	record := NormalizeEtablissement(etab)

	if record.Siren != "552100554" {
		t.Errorf("Siren = %q, expected it derived from the siret prefix", record.Siren)
	}
	if record.Adresse.Departement != "92" {
		t.Errorf("Departement = %q, expected 92 from the commune code", record.Adresse.Departement)
	}
	if record.Adresse.Commune != "RUEIL-MALMAISON" {
		t.Errorf("Commune = %q", record.Adresse.Commune)
	}
}

func TestNormalizeEtablissementEntrepreneurIndividuel(t *testing.T) {
	etab := Etablissement{
		Siren: "511111111",
		Siret: "51111111100012",
		UniteLegale: &UniteLegale{
			NomUniteLegale:                "ARAMIS",
			Prenom1UniteLegale:            "NADIA",
			CategorieJuridiqueUniteLegale: "1000",
		},
	}

	record := NormalizeEtablissement(etab)
	if record.Denomination != "NADIA ARAMIS" {
		t.Errorf("Denomination = %q, expected the person name fallback", record.Denomination)
	}
}

func TestNormalizeEtablissementPeriodFallback(t *testing.T) {
	etab := Etablissement{
		Siren: "522222222",
		Siret: "52222222200011",
		UniteLegale: &UniteLegale{
			SigleUniteLegale: "ACME",
		},
		PeriodesEtablissement: []PeriodeEtablissement{
			{
				DateDebut:                       "2021-01-01",
				DateFin:                         nil,
				EtatAdministratifEtablissement:  "A",
				ActivitePrincipaleEtablissement: "6201Z",
			},
			{
				DateDebut:                       "2018-01-01",
				DateFin:                         strPtr("2020-12-31"),
				EtatAdministratifEtablissement:  "A",
				ActivitePrincipaleEtablissement: "6202A",
			},
		},
	}

	record := NormalizeEtablissement(etab)

	if record.ActivitePrincipale != "6201Z" {
		t.Errorf("ActivitePrincipale = %q, expected the current establishment period value", record.ActivitePrincipale)
	}
	if record.EtatAdministratif != "A" {
		t.Errorf("EtatAdministratif = %q", record.EtatAdministratif)
	}
	if record.Denomination != "ACME" {
		t.Errorf("Denomination = %q, expected the sigle fallback", record.Denomination)
	}
}
