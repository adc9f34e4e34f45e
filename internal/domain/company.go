package domain

// RegistryRow is one row of the national company registry (the `sirene`
// table once ingested by the registry loader).
type RegistryRow struct {
	SIRET              string  `db:"siret"`
	SIREN              string  `db:"siren"`
	NIC                string  `db:"nic"`
	EtatAdministratif  string  `db:"etatadministratifetablissement"`
	DenominationLegale string  `db:"denominationunitelegale"`
	DenominationUsuelle string `db:"denominationusuelleunitelegale"`
	Enseigne           string  `db:"enseigne1etablissement"`
	CodePostal         string  `db:"codepostaletablissement"`
	LibelleCommune     string  `db:"libellecommuneetablissement"`
	TrancheEffectifs   string  `db:"trancheeffectifsetablissement"`
	ActivitePrincipale string  `db:"activiteprincipaleetablissement"`
	SectionLabel       string  `db:"section_label"`
	CategorieJuridique string  `db:"categoriejuridiqueunitelegale"`
	IsSiege            bool    `db:"etablissementsiege"`
	// Lat/Lon are never stored columns: every query against sirene that
	// needs them selects `ST_Y(geolocetablissement) AS latitude,
	// ST_X(geolocetablissement) AS longitude` explicitly, since the
	// registry's native geometry column is packed and only readable
	// through the spatial extension.
	Lat float64 `db:"latitude"`
	Lon float64 `db:"longitude"`
}

// Active reports whether the establishment is administratively active,
// per spec's `etatadministratifetablissement='A'` invariant.
func (r *RegistryRow) Active() bool {
	return r.EtatAdministratif == "A"
}

// IsPublic derives the isPublic flag from the legal category: categories
// starting with '7' (public administration) or '4' (public establishment)
// flag the establishment as public-sector.
func (r *RegistryRow) IsPublic() bool {
	if len(r.CategorieJuridique) == 0 {
		return false
	}
	switch r.CategorieJuridique[0] {
	case '7', '4':
		return true
	default:
		return false
	}
}

// PreferredName resolves the display name in the order the worker's
// mapping uses: usual name, then legal name, then enseigne.
func (r *RegistryRow) PreferredName() string {
	if r.DenominationUsuelle != "" {
		return r.DenominationUsuelle
	}
	if r.DenominationLegale != "" {
		return r.DenominationLegale
	}
	return r.Enseigne
}

// Sector is the denormalized economic-sector information attached to a
// CompanyLocation.
type Sector struct {
	Section string `json:"section"`
	NAF     string `json:"naf"`
	Label   string `json:"label"`
}

// CompanyLocation is the pipeline's unit of aggregation: one per
// (SIRET-or-virtual-hash, lat rounded to 4dp, lon rounded to 4dp).
type CompanyLocation struct {
	StorageID      string   `json:"storage_id"`
	SIRET          string   `json:"siret,omitempty"`
	Company        string   `json:"company"`
	Lat            float64  `json:"-"`
	Lon            float64  `json:"-"`
	Sector         Sector   `json:"sector"`
	Size           string   `json:"size"`
	IsVirtual      bool     `json:"is_virtual"`
	IsPublic       bool     `json:"isPublic"`
	TransportModes []string `json:"transport_modes"`
	TransportScore float64  `json:"transport_score"`
	OffersCount    int      `json:"offers_count"`
	StationsCount  int      `json:"stations_count"`
}
