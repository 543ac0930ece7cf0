package sirene

// Raw response shapes of the INSEE SIRENE v3.11 API. Only the fields the
// normalizer reads are mapped; the rest of the payload is ignored.

type Header struct {
	Statut  int    `json:"statut"`
	Message string `json:"message"`
	Total   int    `json:"total"`
	Debut   int    `json:"debut"`
	Nombre  int    `json:"nombre"`
}

// RawPage is one upstream response: a /siret search carries
// etablissements, a /siren point lookup carries a single uniteLegale.
type RawPage struct {
	Header         Header          `json:"header"`
	Etablissements []Etablissement `json:"etablissements,omitempty"`
	UniteLegale    *UniteLegale    `json:"uniteLegale,omitempty"`
}

type Etablissement struct {
	Siren                 string                 `json:"siren"`
	Siret                 string                 `json:"siret"`
	EtablissementSiege    bool                   `json:"etablissementSiege"`
	UniteLegale           *UniteLegale           `json:"uniteLegale,omitempty"`
	AdresseEtablissement  *AdresseEtablissement  `json:"adresseEtablissement,omitempty"`
	PeriodesEtablissement []PeriodeEtablissement `json:"periodesEtablissement,omitempty"`
}

// UniteLegale covers both upstream shapes: the flat current-period fields
// embedded in /siret results and the historized periodesUniteLegale array
// returned by /siren.
type UniteLegale struct {
	Siren                           string               `json:"siren,omitempty"`
	DateCreationUniteLegale         string               `json:"dateCreationUniteLegale,omitempty"`
	TrancheEffectifsUniteLegale     string               `json:"trancheEffectifsUniteLegale,omitempty"`
	StatutDiffusionUniteLegale      string               `json:"statutDiffusionUniteLegale,omitempty"`
	DenominationUniteLegale         string               `json:"denominationUniteLegale,omitempty"`
	DenominationUsuelle1UniteLegale string               `json:"denominationUsuelle1UniteLegale,omitempty"`
	SigleUniteLegale                string               `json:"sigleUniteLegale,omitempty"`
	NomUniteLegale                  string               `json:"nomUniteLegale,omitempty"`
	NomUsageUniteLegale             string               `json:"nomUsageUniteLegale,omitempty"`
	Prenom1UniteLegale              string               `json:"prenom1UniteLegale,omitempty"`
	PrenomUsuelUniteLegale          string               `json:"prenomUsuelUniteLegale,omitempty"`
	CategorieJuridiqueUniteLegale   string               `json:"categorieJuridiqueUniteLegale,omitempty"`
	ActivitePrincipaleUniteLegale   string               `json:"activitePrincipaleUniteLegale,omitempty"`
	EtatAdministratifUniteLegale    string               `json:"etatAdministratifUniteLegale,omitempty"`
	PeriodesUniteLegale             []PeriodeUniteLegale `json:"periodesUniteLegale,omitempty"`
}

// PeriodeUniteLegale is one time-bounded snapshot of a legal unit. The
// current period has a null dateFin.
type PeriodeUniteLegale struct {
	DateDebut                     string  `json:"dateDebut"`
	DateFin                       *string `json:"dateFin"`
	DenominationUniteLegale       string  `json:"denominationUniteLegale,omitempty"`
	NomUniteLegale                string  `json:"nomUniteLegale,omitempty"`
	ActivitePrincipaleUniteLegale string  `json:"activitePrincipaleUniteLegale,omitempty"`
	CategorieJuridiqueUniteLegale string  `json:"categorieJuridiqueUniteLegale,omitempty"`
	EtatAdministratifUniteLegale  string  `json:"etatAdministratifUniteLegale,omitempty"`
}

type PeriodeEtablissement struct {
	DateDebut                       string  `json:"dateDebut"`
	DateFin                         *string `json:"dateFin"`
	EtatAdministratifEtablissement  string  `json:"etatAdministratifEtablissement,omitempty"`
	ActivitePrincipaleEtablissement string  `json:"activitePrincipaleEtablissement,omitempty"`
	Enseigne1Etablissement          string  `json:"enseigne1Etablissement,omitempty"`
}

type AdresseEtablissement struct {
	ComplementAdresseEtablissement string `json:"complementAdresseEtablissement,omitempty"`
	NumeroVoieEtablissement        string `json:"numeroVoieEtablissement,omitempty"`
	TypeVoieEtablissement          string `json:"typeVoieEtablissement,omitempty"`
	LibelleVoieEtablissement       string `json:"libelleVoieEtablissement,omitempty"`
	CodePostalEtablissement        string `json:"codePostalEtablissement,omitempty"`
	LibelleCommuneEtablissement    string `json:"libelleCommuneEtablissement,omitempty"`
	CodeCommuneEtablissement       string `json:"codeCommuneEtablissement,omitempty"`
}

// Adresse is the flat normalized address of a CompanyRecord.
type Adresse struct {
	NumeroVoie  string `json:"numeroVoie,omitempty"`
	TypeVoie    string `json:"typeVoie,omitempty"`
	LibelleVoie string `json:"libelleVoie,omitempty"`
	CodePostal  string `json:"codePostal,omitempty"`
	Commune     string `json:"commune,omitempty"`
	Departement string `json:"departement,omitempty"`
}

// CompanyRecord is the stable normalized output of the service. It is
// immutable once produced and has no identity beyond its siren/siret pair.
type CompanyRecord struct {
	Siren              string  `json:"siren"`
	Siret              string  `json:"siret,omitempty"`
	Denomination       string  `json:"denomination"`
	ActivitePrincipale string  `json:"activitePrincipale,omitempty"`
	CategorieJuridique string  `json:"categorieJuridique,omitempty"`
	EtatAdministratif  string  `json:"etatAdministratif,omitempty"`
	TrancheEffectifs   string  `json:"trancheEffectifs,omitempty"`
	Adresse            Adresse `json:"adresse"`
	DateCreation       string  `json:"dateCreation,omitempty"`
}

// SearchPage is one page of normalized search results plus pagination
// metadata taken from the upstream header envelope.
type SearchPage struct {
	Results []CompanyRecord `json:"results"`
	Total   int             `json:"total"`
	Page    int             `json:"page"`
}
