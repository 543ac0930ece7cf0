package sirene

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	digitsOnlyRe = regexp.MustCompile(`^\d+$`)
	isoDateRe    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	multiSpaceRe = regexp.MustCompile(`\s+`)
)

// SearchCriteria carries the optional filters of a company search. All
// fields are optional; Validate rejects malformed identifiers before any
// network call.
type SearchCriteria struct {
	Denomination       string
	Siren              string
	Siret              string
	CodePostal         string
	Commune            string
	ActivitePrincipale string
	CategorieJuridique string
	EtatAdministratif  string
	TrancheEffectifs   string
	Departement        string
	DateCreationDebut  string
	DateCreationFin    string
}

// IsZero reports whether no criterion is set.
func (c SearchCriteria) IsZero() bool {
	return c == SearchCriteria{}
}

// Validate returns a cleaned copy of the criteria or a
// *MalformedCriteriaError. Text fields are sanitized, identifiers must be
// digit-only strings of exact length, and SIREN/SIRET must agree when both
// are present.
func (c SearchCriteria) Validate() (SearchCriteria, error) {
	out := SearchCriteria{}

	out.Denomination = SanitizeInput(c.Denomination)
	out.Commune = SanitizeInput(c.Commune)
	out.ActivitePrincipale = strings.ToUpper(strings.TrimSpace(c.ActivitePrincipale))
	out.CategorieJuridique = strings.TrimSpace(c.CategorieJuridique)
	out.TrancheEffectifs = strings.TrimSpace(c.TrancheEffectifs)

	if c.Siren != "" {
		if !IsValidSiren(c.Siren) {
			return out, &MalformedCriteriaError{Field: "siren", Reason: "doit être un numéro à 9 chiffres"}
		}
		out.Siren = c.Siren
	}

	if c.Siret != "" {
		if !IsValidSiret(c.Siret) {
			return out, &MalformedCriteriaError{Field: "siret", Reason: "doit être un numéro à 14 chiffres"}
		}
		out.Siret = c.Siret
	}

	if out.Siren != "" && out.Siret != "" && !strings.HasPrefix(out.Siret, out.Siren) {
		return out, &MalformedCriteriaError{Field: "siret", Reason: "ne correspond pas au siren fourni"}
	}

	if c.CodePostal != "" {
		cp := strings.TrimSpace(c.CodePostal)
		if len(cp) != 5 || !digitsOnlyRe.MatchString(cp) {
			return out, &MalformedCriteriaError{Field: "codePostal", Reason: "doit être un code à 5 chiffres"}
		}
		out.CodePostal = cp
	}

	if c.Departement != "" {
		dep := strings.TrimSpace(c.Departement)
		if len(dep) < 2 || len(dep) > 3 || !digitsOnlyRe.MatchString(dep) {
			return out, &MalformedCriteriaError{Field: "departement", Reason: "doit être un code à 2 ou 3 chiffres"}
		}
		out.Departement = dep
	}

	if c.EtatAdministratif != "" {
		etat := strings.ToUpper(strings.TrimSpace(c.EtatAdministratif))
		if etat != "A" && etat != "F" {
			return out, &MalformedCriteriaError{Field: "etatAdministratif", Reason: "doit être A ou F"}
		}
		out.EtatAdministratif = etat
	}

	if c.DateCreationDebut != "" {
		if !IsValidDate(c.DateCreationDebut) {
			return out, &MalformedCriteriaError{Field: "dateCreationDebut", Reason: "doit être au format AAAA-MM-JJ"}
		}
		out.DateCreationDebut = c.DateCreationDebut
	}

	if c.DateCreationFin != "" {
		if !IsValidDate(c.DateCreationFin) {
			return out, &MalformedCriteriaError{Field: "dateCreationFin", Reason: "doit être au format AAAA-MM-JJ"}
		}
		out.DateCreationFin = c.DateCreationFin
	}

	return out, nil
}

// SanitizeInput uppercases, strips diacritics and collapses whitespace so
// the value is safe inside the registry query grammar.
func SanitizeInput(input string) string {
	cleaned := strings.TrimSpace(input)
	if cleaned == "" {
		return ""
	}

	cleaned = strings.ReplaceAll(cleaned, "&", "ET")
	cleaned = strings.ToUpper(cleaned)
	cleaned = norm.NFD.String(cleaned)

	var builder strings.Builder
	for _, r := range cleaned {
		if unicode.IsMark(r) {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '-' || r == '\'' {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}

	cleaned = multiSpaceRe.ReplaceAllString(builder.String(), " ")

	return strings.TrimSpace(cleaned)
}

// IsValidSiren reports whether s is a 9 digit SIREN.
func IsValidSiren(s string) bool {
	return len(s) == 9 && digitsOnlyRe.MatchString(s)
}

// IsValidSiret reports whether s is a 14 digit SIRET.
func IsValidSiret(s string) bool {
	return len(s) == 14 && digitsOnlyRe.MatchString(s)
}

// IsValidDate reports whether s is an AAAA-MM-JJ date.
func IsValidDate(s string) bool {
	return isoDateRe.MatchString(s)
}
