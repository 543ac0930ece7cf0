package sirene

import "strings"

// NormalizeEtablissement flattens one /siret search result into a
// CompanyRecord. It is total over the shapes the upstream actually
// returns, including establishments without address or period data.
func NormalizeEtablissement(etab Etablissement) CompanyRecord {
	record := CompanyRecord{
		Siren: etab.Siren,
		Siret: etab.Siret,
	}

	if record.Siren == "" && len(etab.Siret) >= 9 {
		record.Siren = etab.Siret[:9]
	}

	periode := currentPeriodeEtablissement(etab.PeriodesEtablissement)

	ul := etab.UniteLegale
	if ul == nil {
		ul = &UniteLegale{}
	}

	record.Denomination = denominationFor(ul, etab, periode)
	record.CategorieJuridique = ul.CategorieJuridiqueUniteLegale
	record.TrancheEffectifs = ul.TrancheEffectifsUniteLegale
	record.DateCreation = ul.DateCreationUniteLegale

	record.ActivitePrincipale = ul.ActivitePrincipaleUniteLegale
	if record.ActivitePrincipale == "" && periode != nil {
		record.ActivitePrincipale = periode.ActivitePrincipaleEtablissement
	}

	record.EtatAdministratif = ul.EtatAdministratifUniteLegale
	if record.EtatAdministratif == "" && periode != nil {
		record.EtatAdministratif = periode.EtatAdministratifEtablissement
	}

	if adresse := etab.AdresseEtablissement; adresse != nil {
		record.Adresse = normalizeAdresse(adresse)
	}

	return record
}

// NormalizeUniteLegale flattens a /siren point lookup into a
// CompanyRecord, selecting the period effective at asOfDate (AAAA-MM-JJ)
// or the current one when asOfDate is empty. It returns ErrNoCurrentPeriod
// when no period qualifies. A legal unit carries no establishment address,
// so the address fields stay empty.
func NormalizeUniteLegale(ul *UniteLegale, asOfDate string) (CompanyRecord, error) {
	if ul == nil {
		return CompanyRecord{}, ErrNoCurrentPeriod
	}

	periode, ok := selectPeriode(ul.PeriodesUniteLegale, asOfDate)
	if !ok {
		return CompanyRecord{}, ErrNoCurrentPeriod
	}

	record := CompanyRecord{
		Siren:              ul.Siren,
		Denomination:       periode.DenominationUniteLegale,
		ActivitePrincipale: periode.ActivitePrincipaleUniteLegale,
		CategorieJuridique: periode.CategorieJuridiqueUniteLegale,
		EtatAdministratif:  periode.EtatAdministratifUniteLegale,
		TrancheEffectifs:   ul.TrancheEffectifsUniteLegale,
		DateCreation:       ul.DateCreationUniteLegale,
	}

	if record.Denomination == "" {
		record.Denomination = personName(ul.Prenom1UniteLegale, periode.NomUniteLegale)
	}
	if record.Denomination == "" {
		record.Denomination = denominationFallback(ul)
	}

	return record, nil
}

// selectPeriode picks the current period (null dateFin, else the most
// recent dateDebut), or the latest period starting on or before asOfDate.
// ISO dates compare correctly as strings.
func selectPeriode(periodes []PeriodeUniteLegale, asOfDate string) (PeriodeUniteLegale, bool) {
	if len(periodes) == 0 {
		return PeriodeUniteLegale{}, false
	}

	if asOfDate == "" {
		best := -1
		for i, p := range periodes {
			if p.DateFin == nil || *p.DateFin == "" {
				return p, true
			}
			if best < 0 || p.DateDebut > periodes[best].DateDebut {
				best = i
			}
		}
		return periodes[best], true
	}

	best := -1
	for i, p := range periodes {
		if p.DateDebut != "" && p.DateDebut > asOfDate {
			continue
		}
		if best < 0 || p.DateDebut > periodes[best].DateDebut {
			best = i
		}
	}
	if best < 0 {
		return PeriodeUniteLegale{}, false
	}

	return periodes[best], true
}

// currentPeriodeEtablissement picks the establishment period with a null
// dateFin, falling back to the first one. This selection is independent of
// the legal-unit period selection: name and address histories need not
// align in time.
func currentPeriodeEtablissement(periodes []PeriodeEtablissement) *PeriodeEtablissement {
	if len(periodes) == 0 {
		return nil
	}

	for i := range periodes {
		if periodes[i].DateFin == nil || *periodes[i].DateFin == "" {
			return &periodes[i]
		}
	}

	return &periodes[0]
}

func normalizeAdresse(adresse *AdresseEtablissement) Adresse {
	out := Adresse{
		NumeroVoie:  adresse.NumeroVoieEtablissement,
		TypeVoie:    adresse.TypeVoieEtablissement,
		LibelleVoie: adresse.LibelleVoieEtablissement,
		CodePostal:  adresse.CodePostalEtablissement,
		Commune:     adresse.LibelleCommuneEtablissement,
	}

	if code := adresse.CodeCommuneEtablissement; len(code) >= 2 {
		out.Departement = code[:2]
	} else if len(out.CodePostal) >= 2 {
		out.Departement = out.CodePostal[:2]
	}

	return out
}

// denominationFor mirrors the fallback chain the upstream data demands:
// company name, person name for entrepreneurs individuels, then usual
// names, sigle and enseignes.
func denominationFor(ul *UniteLegale, etab Etablissement, periode *PeriodeEtablissement) string {
	if ul.DenominationUniteLegale != "" {
		return ul.DenominationUniteLegale
	}

	if name := personName(prenomFor(ul), nomFor(ul)); name != "" {
		return name
	}

	if name := denominationFallback(ul); name != "" {
		return name
	}

	if periode != nil && periode.Enseigne1Etablissement != "" {
		return periode.Enseigne1Etablissement
	}

	return ""
}

func denominationFallback(ul *UniteLegale) string {
	switch {
	case ul.DenominationUsuelle1UniteLegale != "":
		return ul.DenominationUsuelle1UniteLegale
	case ul.SigleUniteLegale != "":
		return ul.SigleUniteLegale
	default:
		return ""
	}
}

func prenomFor(ul *UniteLegale) string {
	if ul.PrenomUsuelUniteLegale != "" {
		return ul.PrenomUsuelUniteLegale
	}
	return ul.Prenom1UniteLegale
}

func nomFor(ul *UniteLegale) string {
	if ul.NomUsageUniteLegale != "" {
		return ul.NomUsageUniteLegale
	}
	return ul.NomUniteLegale
}

func personName(prenom, nom string) string {
	prenom = strings.TrimSpace(prenom)
	nom = strings.TrimSpace(nom)

	switch {
	case prenom != "" && nom != "":
		return prenom + " " + nom
	case nom != "":
		return nom
	default:
		return ""
	}
}
