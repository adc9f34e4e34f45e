// Package resolve implements the identity resolver (C5): maps each
// offer to a registry row, SIRET-first with a name+zip+geo fallback
// cascade.
package resolve

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/sourcegraph/conc/pool"

	"github.com/geomatic-pipeline/pipeline/internal/domain"
	"github.com/geomatic-pipeline/pipeline/internal/domain/repository"
	"github.com/geomatic-pipeline/pipeline/internal/pkg/text"
)

const resolverConcurrency = 5

// registryColumns selects every field RegistryRow needs, extracting
// lat/lon from the registry's own packed geometry column
// (geolocetablissement) via the spatial extension rather than relying
// on lat_cached/lon_cached columns the loader never materializes.
const registryColumns = `siret, siren, nic, etatadministratifetablissement,
	denominationunitelegale, denominationusuelleunitelegale, enseigne1etablissement,
	codepostaletablissement, libellecommuneetablissement, trancheeffectifsetablissement,
	activiteprincipaleetablissement, section_label, categoriejuridiqueunitelegale,
	etablissementsiege, ST_Y(geolocetablissement) AS latitude, ST_X(geolocetablissement) AS longitude`

// Resolver enriches RawOffers against the sirene table, maintaining the
// per-SIRET and per-search-key caches across batches for the lifetime
// of P2.
type Resolver struct {
	store repository.Store

	mu          sync.Mutex
	siretCache  map[string]*domain.RegistryRow
	searchCache map[string]string // cleanedName|zip|lat-or-empty -> SIRET or "" for a confirmed miss
}

// New returns a Resolver with empty caches.
func New(store repository.Store) *Resolver {
	return &Resolver{
		store:       store,
		siretCache:  make(map[string]*domain.RegistryRow),
		searchCache: make(map[string]string),
	}
}

// EnrichBatch resolves up to 100 RawOffers: a batch pre-fetch hydrates
// the SIRET cache, then each offer is resolved concurrently with a
// bound of 5 in-flight tasks.
func (r *Resolver) EnrichBatch(ctx context.Context, offers []*domain.RawOffer) error {
	if err := r.prefetch(ctx, offers); err != nil {
		return err
	}

	p := pool.New().WithMaxGoroutines(resolverConcurrency).WithContext(ctx)
	for _, o := range offers {
		o := o
		p.Go(func(ctx context.Context) error {
			r.resolveOne(ctx, o)
			return nil
		})
	}
	return p.Wait()
}

func (r *Resolver) prefetch(ctx context.Context, offers []*domain.RawOffer) error {
	var missing []string
	r.mu.Lock()
	for _, o := range offers {
		if o.SIRET == "" {
			continue
		}
		if _, cached := r.siretCache[o.SIRET]; !cached {
			missing = append(missing, o.SIRET)
		}
	}
	r.mu.Unlock()
	if len(missing) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`SELECT `+registryColumns+` FROM sirene WHERE siret IN (?)`, missing)
	if err != nil {
		return fmt.Errorf("building siret prefetch query: %w", err)
	}
	var rows []domain.RegistryRow
	if err := r.store.Select(ctx, &rows, query, args...); err != nil {
		return fmt.Errorf("prefetching sirets: %w", err)
	}

	r.mu.Lock()
	for i := range rows {
		row := rows[i]
		r.siretCache[row.SIRET] = &row
	}
	r.mu.Unlock()
	return nil
}

func (r *Resolver) resolveOne(ctx context.Context, offer *domain.RawOffer) {
	if offer.SIRET != "" {
		r.mu.Lock()
		row, ok := r.siretCache[offer.SIRET]
		r.mu.Unlock()
		if ok && row != nil {
			applyRegistryRow(offer, row)
			return
		}
	}

	siret, ok := r.cascadeSearch(ctx, offer)
	if !ok {
		return
	}

	r.mu.Lock()
	row, cached := r.siretCache[siret]
	r.mu.Unlock()
	if !cached {
		var fetched domain.RegistryRow
		if err := r.store.Get(ctx, &fetched, `SELECT `+registryColumns+` FROM sirene WHERE siret = ?`, siret); err != nil {
			return
		}
		row = &fetched
		r.mu.Lock()
		r.siretCache[siret] = row
		r.mu.Unlock()
	}
	if row != nil {
		offer.SIRET = siret
		applyRegistryRow(offer, row)
	}
}

// cascadeSearch implements the fallback search keyed on
// (cleanedName, zipCode, lat-or-none), per §4.5 step 2.
func (r *Resolver) cascadeSearch(ctx context.Context, offer *domain.RawOffer) (string, bool) {
	zip := text.ExtractPostalCode(offer.WorkplaceAddress)
	if zip == "" {
		return "", false
	}
	cleaned := text.CleanName(offer.CompanyName)

	latKey := ""
	if offer.Lat != nil {
		latKey = fmt.Sprintf("%.4f", *offer.Lat)
	}
	key := strings.Join([]string{strings.ToLower(cleaned), zip, latKey}, "|")

	r.mu.Lock()
	cachedSiret, cached := r.searchCache[key]
	r.mu.Unlock()
	if cached {
		if cachedSiret == "" {
			return "", false
		}
		return cachedSiret, true
	}

	siret, found := r.nameAndGeoSearch(ctx, cleaned, zip, offer.Lat, offer.Lon)
	if !found {
		siret, found = r.spatialSimilaritySearch(ctx, cleaned, zip, offer.Lat, offer.Lon)
	}

	r.mu.Lock()
	r.searchCache[key] = siret
	r.mu.Unlock()
	return siret, found
}

func (r *Resolver) nameAndGeoSearch(ctx context.Context, cleanedName, zip string, lat, lon *float64) (string, bool) {
	query := `SELECT siret FROM sirene WHERE etatadministratifetablissement = 'A'
		AND codepostaletablissement = ?
		AND (lower(denominationunitelegale) LIKE ? OR lower(enseigne1etablissement) LIKE ?)`
	args := []interface{}{zip, "%" + strings.ToLower(cleanedName) + "%", "%" + strings.ToLower(cleanedName) + "%"}

	if lat != nil && lon != nil {
		query += ` AND ST_Y(geolocetablissement) BETWEEN ? AND ? AND ST_X(geolocetablissement) BETWEEN ? AND ?`
		args = append(args, *lat-0.02, *lat+0.02, *lon-0.02, *lon+0.02)
	}
	query += ` LIMIT 1`

	var siret string
	if err := r.store.Get(ctx, &siret, query, args...); err != nil {
		return "", false
	}
	return siret, siret != ""
}

type candidateRow struct {
	SIRET               string `db:"siret"`
	DenominationLegale  string `db:"denominationunitelegale"`
	Enseigne            string `db:"enseigne1etablissement"`
}

// spatialSimilaritySearch implements §4.5.d's tight-box candidate set: a
// same-postal-code pool additionally bounded to a ±0.001° box around the
// offer's coordinates when they're known, matching the box predicate
// nameAndGeoSearch already applies at its own (wider) tolerance.
func (r *Resolver) spatialSimilaritySearch(ctx context.Context, cleanedName, zip string, lat, lon *float64) (string, bool) {
	query := `SELECT siret, denominationunitelegale, enseigne1etablissement FROM sirene
		WHERE codepostaletablissement = ?`
	args := []interface{}{zip}

	if lat != nil && lon != nil {
		query += ` AND ST_Y(geolocetablissement) BETWEEN ? AND ? AND ST_X(geolocetablissement) BETWEEN ? AND ?`
		args = append(args, *lat-0.001, *lat+0.001, *lon-0.001, *lon+0.001)
	}
	query += ` LIMIT 15`

	var candidates []candidateRow
	if err := r.store.Select(ctx, &candidates, query, args...); err != nil || len(candidates) == 0 {
		return "", false
	}

	best := -1.0
	bestSiret := ""
	for _, c := range candidates {
		sim := text.NormalizedSimilarity(cleanedName, c.DenominationLegale)
		if s2 := text.NormalizedSimilarity(cleanedName, c.Enseigne); s2 > sim {
			sim = s2
		}
		if sim > best {
			best = sim
			bestSiret = c.SIRET
		}
	}
	if best >= 0.5 {
		return bestSiret, true
	}
	return "", false
}

func applyRegistryRow(offer *domain.RawOffer, row *domain.RegistryRow) {
	offer.CompanyName = row.PreferredName()
	offer.Size = row.TrancheEffectifs
	offer.Sector = domain.Sector{Section: row.SectionLabel, NAF: row.ActivitePrincipale, Label: row.SectionLabel}
	offer.IsPublic = row.IsPublic()
	if row.Lat != 0 || row.Lon != 0 {
		lat, lon := row.Lat, row.Lon
		offer.Lat, offer.Lon = &lat, &lon
	}
}
