package orbit

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"gopkg.in/ini.v1"

	"github.com/star/orbitview/internal/tle"
)

// geostationaryAltitudeKm is the altitude of a geostationary orbit.
const geostationaryAltitudeKm = 35786.0

// Elements describes the simplified circular orbit of a known satellite.
type Elements struct {
	ID             string
	Name           string
	AltitudeKm     float64
	InclinationDeg float64
	LongitudeDeg   float64 // fixed slot for geostationary bodies, phase offset otherwise
	Geostationary  bool
	TLELine1       string
	TLELine2       string
}

// HasTLE reports whether the entry can be refined with SGP4.
func (e Elements) HasTLE() bool {
	return e.TLELine1 != "" && e.TLELine2 != ""
}

var builtinElements = []Elements{
	{ID: "terra", Name: "Terra", AltitudeKm: 705, InclinationDeg: 98.5},
	{ID: "aqua", Name: "Aqua", AltitudeKm: 705, InclinationDeg: 98.2},
	{ID: "landsat-8", Name: "Landsat 8", AltitudeKm: 705, InclinationDeg: 98.2},
	{ID: "landsat-9", Name: "Landsat 9", AltitudeKm: 705, InclinationDeg: 98.2},
	{ID: "iss", Name: "ISS (ZARYA)", AltitudeKm: 420, InclinationDeg: 51.6},
	{ID: "starlink-32713", Name: "STARLINK-32713", AltitudeKm: 550, InclinationDeg: 53},
	{ID: "himawari-8", Name: "Himawari-8", AltitudeKm: geostationaryAltitudeKm, LongitudeDeg: 140.7, Geostationary: true},
	{ID: "himawari-9", Name: "Himawari-9", AltitudeKm: geostationaryAltitudeKm, LongitudeDeg: 140.7, Geostationary: true},
}

// Catalog is a lookup table of known satellite orbits. Safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]Elements
}

// NewCatalog returns a catalog preloaded with the built-in satellites.
func NewCatalog() *Catalog {
	c := &Catalog{entries: make(map[string]Elements, len(builtinElements))}
	for _, e := range builtinElements {
		c.entries[normalizeID(e.ID)] = e
	}
	return c
}

// normalizeID folds case and the separators users type into satellite IDs,
// so "Himawari 8", "HIMAWARI_8" and "himawari8" all resolve alike.
func normalizeID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(id)
}

// Lookup returns the elements for id, if known.
func (c *Catalog) Lookup(id string) (Elements, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[normalizeID(id)]
	return e, ok
}

// Put adds or replaces an entry.
func (c *Catalog) Put(e Elements) {
	c.mu.Lock()
	c.entries[normalizeID(e.ID)] = e
	c.mu.Unlock()
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// LoadINI merges satellite sections from an INI file into the catalog.
// Each section name is a satellite ID:
//
//	[terra]
//	name = Terra
//	altitude_km = 705
//	inclination_deg = 98.5
//	longitude_deg = 0
//	geostationary = false
//	tle_line1 = 1 25994U ...
//	tle_line2 = 2 25994 ...
//
// Sections with an invalid TLE are loaded without it.
func (c *Catalog) LoadINI(source any, logger *slog.Logger) (int, error) {
	cfg, err := ini.Load(source)
	if err != nil {
		return 0, fmt.Errorf("loading catalog: %w", err)
	}

	var loaded int
	for _, sec := range cfg.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}

		e := Elements{
			ID:             sec.Name(),
			Name:           sec.Key("name").MustString(sec.Name()),
			AltitudeKm:     sec.Key("altitude_km").MustFloat64(defaultAltitudeKm),
			InclinationDeg: sec.Key("inclination_deg").MustFloat64(0),
			LongitudeDeg:   sec.Key("longitude_deg").MustFloat64(0),
			Geostationary:  sec.Key("geostationary").MustBool(false),
			TLELine1:       strings.TrimSpace(sec.Key("tle_line1").String()),
			TLELine2:       strings.TrimSpace(sec.Key("tle_line2").String()),
		}

		if e.HasTLE() {
			if err := validateTLELines(e.TLELine1, e.TLELine2); err != nil {
				logger.Warn("ignoring invalid catalog TLE", "satellite_id", e.ID, "error", err)
				e.TLELine1, e.TLELine2 = "", ""
			}
		}

		c.Put(e)
		loaded++
	}

	return loaded, nil
}

// MergeTLE attaches element sets to the catalog. An entry whose name matches
// a known satellite refines it; others are added under their TLE name.
// Sets that SGP4 cannot take are skipped. Returns the number merged.
func (c *Catalog) MergeTLE(entries []tle.Entry, logger *slog.Logger) int {
	var merged int
	for _, te := range entries {
		if err := validateTLELines(te.Line1, te.Line2); err != nil {
			logger.Warn("ignoring TLE", "name", te.Name, "norad_id", te.NORADID, "error", err)
			continue
		}

		e, ok := c.lookupByName(te.Name)
		if !ok {
			e = Elements{ID: te.Name, Name: te.Name}
		}
		e.AltitudeKm = te.AltitudeKm()
		e.InclinationDeg = te.InclinationDeg
		e.TLELine1, e.TLELine2 = te.Line1, te.Line2
		c.Put(e)
		merged++
	}
	return merged
}

// lookupByName matches name against IDs first, then display names.
func (c *Catalog) lookupByName(name string) (Elements, bool) {
	if e, ok := c.Lookup(name); ok {
		return e, true
	}
	key := normalizeID(name)
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries {
		if normalizeID(e.Name) == key {
			return e, true
		}
	}
	return Elements{}, false
}
