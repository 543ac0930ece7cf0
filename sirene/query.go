package sirene

import (
	"fmt"
	"strings"
)

// PhraseStrategy controls how a multi-word free-text term is combined with
// the rest of the query. The upstream grammar around quoted phrases is not
// fully documented, so the strategy is pluggable rather than hard coded.
type PhraseStrategy int

const (
	// PhraseQuoted keeps a spaced term as a single quoted phrase:
	// denominationUniteLegale:"CREDIT AGRICOLE". Splitting the phrase into
	// bare AND tokens silently narrows the match, so this is the default.
	PhraseQuoted PhraseStrategy = iota

	// PhraseWildcardAnd splits a spaced term into per-word wildcard tokens
	// grouped on the field: denominationUniteLegale:(CREDIT* AND AGRICOLE*).
	PhraseWildcardAnd
)

const defaultQueryField = "denominationUniteLegale"

// QueryBuilder converts validated criteria into the registry query-string
// grammar. The zero value is ready to use.
type QueryBuilder struct {
	// DefaultField receives free-text terms. Empty means
	// denominationUniteLegale.
	DefaultField string

	// Phrase selects the multi-word free-text strategy.
	Phrase PhraseStrategy
}

// Build assembles the boolean query for a free-text term plus criteria.
// Tokens join with a literal " AND "; the caller percent-encodes the whole
// string exactly once when placing it in the q parameter. It returns a
// *MalformedCriteriaError when the criteria do not validate.
func (b QueryBuilder) Build(freeText string, criteria SearchCriteria) (string, error) {
	validated, err := criteria.Validate()
	if err != nil {
		return "", err
	}

	field := b.DefaultField
	if field == "" {
		field = defaultQueryField
	}

	var tokens []string

	if term := SanitizeInput(freeText); term != "" {
		tokens = append(tokens, b.freeTextToken(field, term))
	}

	if validated.Denomination != "" {
		tokens = append(tokens, b.freeTextToken(defaultQueryField, validated.Denomination))
	}

	if validated.Siren != "" {
		tokens = append(tokens, "siren:"+validated.Siren)
	}

	if validated.Siret != "" {
		tokens = append(tokens, "siret:"+validated.Siret)
	}

	if validated.CodePostal != "" {
		tokens = append(tokens, "codePostalEtablissement:"+validated.CodePostal)
	}

	if validated.Commune != "" {
		tokens = append(tokens, phraseToken("libelleCommuneEtablissement", validated.Commune))
	}

	if validated.ActivitePrincipale != "" {
		tokens = append(tokens, "activitePrincipaleUniteLegale:"+validated.ActivitePrincipale+"*")
	}

	if validated.CategorieJuridique != "" {
		tokens = append(tokens, "categorieJuridiqueUniteLegale:"+validated.CategorieJuridique)
	}

	if validated.TrancheEffectifs != "" {
		tokens = append(tokens, "trancheEffectifsUniteLegale:"+validated.TrancheEffectifs)
	}

	if validated.Departement != "" {
		// Pas de champ département côté INSEE: filtre sur le préfixe du
		// code postal.
		tokens = append(tokens, "codePostalEtablissement:"+validated.Departement+"*")
	}

	if validated.DateCreationDebut != "" {
		tokens = append(tokens, fmt.Sprintf("dateCreationUniteLegale:[%s TO *]", validated.DateCreationDebut))
	}

	if validated.DateCreationFin != "" {
		tokens = append(tokens, fmt.Sprintf("dateCreationUniteLegale:[* TO %s]", validated.DateCreationFin))
	}

	etat := validated.EtatAdministratif
	if etat == "" {
		etat = "A"
	}
	etatToken := "etatAdministratifUniteLegale:" + etat

	if len(tokens) == 0 {
		return etatToken, nil
	}

	if len(tokens) == 1 {
		return tokens[0] + " AND " + etatToken, nil
	}

	return "(" + strings.Join(tokens, " AND ") + ") AND " + etatToken, nil
}

func (b QueryBuilder) freeTextToken(field, term string) string {
	if !strings.Contains(term, " ") {
		return field + ":" + term + "*"
	}

	switch b.Phrase {
	case PhraseWildcardAnd:
		words := strings.Fields(term)
		for i, w := range words {
			words[i] = w + "*"
		}
		return field + ":(" + strings.Join(words, " AND ") + ")"
	default:
		return phraseToken(field, term)
	}
}

func phraseToken(field, value string) string {
	if strings.Contains(value, " ") {
		return field + `:"` + value + `"`
	}
	return field + ":" + value
}
