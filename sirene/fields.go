package sirene

import "strings"

// Field projections for the champs parameter, matching what the
// normalizer actually reads. Restricting the projection keeps responses
// small and stays inside the documented v3.11 field list.

var uniteLegaleFields = []string{
	"siren",
	"denominationUniteLegale",
	"denominationUsuelle1UniteLegale",
	"sigleUniteLegale",
	"nomUniteLegale",
	"nomUsageUniteLegale",
	"prenom1UniteLegale",
	"prenomUsuelUniteLegale",
	"categorieJuridiqueUniteLegale",
	"activitePrincipaleUniteLegale",
	"etatAdministratifUniteLegale",
	"statutDiffusionUniteLegale",
	"dateCreationUniteLegale",
	"trancheEffectifsUniteLegale",
}

var etablissementFields = []string{
	"siret",
	"etablissementSiege",
	"etatAdministratifEtablissement",
	"enseigne1Etablissement",
	"denominationUsuelleEtablissement",
	"activitePrincipaleEtablissement",
	"dateCreationEtablissement",
	"numeroVoieEtablissement",
	"typeVoieEtablissement",
	"libelleVoieEtablissement",
	"complementAdresseEtablissement",
	"codePostalEtablissement",
	"libelleCommuneEtablissement",
	"codeCommuneEtablissement",
	"trancheEffectifsEtablissement",
}

// DefaultFields is the projection requested on /siret searches.
var DefaultFields = append(append([]string{}, uniteLegaleFields...), etablissementFields...)

func joinFields(fields []string) string {
	return strings.Join(fields, ",")
}
