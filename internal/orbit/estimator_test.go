package orbit

import (
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/star/orbitview/internal/tle"
)

// ISS TLE (epoch 2024). Real orbital elements used for testing.
const (
	issLine1 = "1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005"
	issLine2 = "2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    09"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// TestTerraAtEpoch checks the base case of the orbit formula: at t=0 the
// sine term vanishes and longitude equals the phase offset.
func TestTerraAtEpoch(t *testing.T) {
	est := NewEstimator(NewCatalog(), 0)

	lat, lon := est.LatLon("terra", 705, 98.5, time.Unix(0, 0))
	if lat != 0 {
		t.Errorf("latitude = %v, want 0", lat)
	}
	if lon != 0 {
		t.Errorf("longitude = %v, want 0", lon)
	}

	loc := est.Locate("terra", time.Unix(0, 0))
	if !loc.Known || loc.AltitudeKm != 705 || loc.InclinationDeg != 98.5 {
		t.Errorf("terra resolved to %+v", loc)
	}
	if loc.LatitudeDeg != 0 || loc.LongitudeDeg != 0 {
		t.Errorf("Locate(terra, 0) = (%v, %v), want (0, 0)", loc.LatitudeDeg, loc.LongitudeDeg)
	}
}

func TestLatitudeBoundedByInclination(t *testing.T) {
	est := NewEstimator(NewCatalog(), 0.05)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 2000; i++ {
		ts := start.Add(time.Duration(i) * 17 * time.Second)
		lat, lon := est.LatLon("terra", 705, 98.5, ts)
		if math.Abs(lat) > 98.5+1e-9 {
			t.Fatalf("t=%v: |lat| = %v exceeds inclination", ts, lat)
		}
		if lon <= -180-1e-9 || lon > 180+1e-9 {
			t.Fatalf("t=%v: lon %v outside (-180, 180]", ts, lon)
		}
	}
}

func TestDeterministic(t *testing.T) {
	est := NewEstimator(NewCatalog(), 0)
	ts := time.Date(2026, 10, 16, 12, 30, 0, 0, time.UTC)

	a := est.Locate("aqua", ts)
	b := est.Locate("aqua", ts)
	if a != b {
		t.Errorf("Locate not deterministic: %+v vs %+v", a, b)
	}
}

func TestGeostationaryFixed(t *testing.T) {
	est := NewEstimator(NewCatalog(), 0)

	for _, id := range []string{"himawari-8", "Himawari 9", "HIMAWARI_9", "himawari8"} {
		for _, ts := range []time.Time{time.Unix(0, 0), time.Unix(1_700_000_000, 0), time.Unix(1_800_000_123, 0)} {
			loc := est.Locate(id, ts)
			if loc.LatitudeDeg != 0 {
				t.Errorf("%s at %v: latitude = %v, want 0", id, ts, loc.LatitudeDeg)
			}
			if math.Abs(loc.LongitudeDeg-140.7) > 1e-9 {
				t.Errorf("%s at %v: longitude = %v, want 140.7", id, ts, loc.LongitudeDeg)
			}
		}
	}

	// Unknown body parked at geostationary altitude on the equator.
	lat, lon := est.LatLon("unknown-geo", 35786, 0, time.Unix(1_700_000_000, 0))
	if lat != 0 || lon != 0 {
		t.Errorf("unknown geostationary = (%v, %v), want (0, 0)", lat, lon)
	}
}

func TestUnknownSatelliteDefaults(t *testing.T) {
	est := NewEstimator(NewCatalog(), 0)
	ts := time.Unix(1_750_000_000, 0)

	loc := est.Locate("no-such-sat", ts)
	if loc.Known {
		t.Error("expected unknown satellite")
	}
	if loc.AltitudeKm != 400 || loc.InclinationDeg != 0 {
		t.Errorf("defaults = alt %v inc %v, want 400 / 0", loc.AltitudeKm, loc.InclinationDeg)
	}
	if loc.LatitudeDeg != 0 {
		t.Errorf("latitude = %v, want 0 for zero inclination", loc.LatitudeDeg)
	}
	if loc.Method != "circular" {
		t.Errorf("method = %q, want circular", loc.Method)
	}
}

func TestPeriodFactorSlowerWhenHigher(t *testing.T) {
	est := NewEstimator(NewCatalog(), 0)
	if got := est.PeriodFactor(0); math.Abs(got-DefaultTimeScale) > 1e-15 {
		t.Errorf("PeriodFactor(0) = %v, want %v", got, DefaultTimeScale)
	}
	if est.PeriodFactor(400) <= est.PeriodFactor(2000) {
		t.Error("expected lower orbits to move faster")
	}
}

func TestLocateWithAltitude(t *testing.T) {
	est := NewEstimator(NewCatalog(), 0)
	ts := time.Unix(1_750_000_000, 0)
	alt := 712.5

	loc := est.LocateWithAltitude("terra", &alt, ts)
	if loc.AltitudeKm != alt {
		t.Errorf("altitude = %v, want %v", loc.AltitudeKm, alt)
	}
	lat, lon := est.LatLon("terra", alt, 98.5, ts)
	if loc.LatitudeDeg != lat || loc.LongitudeDeg != lon {
		t.Errorf("got (%v, %v), want (%v, %v)", loc.LatitudeDeg, loc.LongitudeDeg, lat, lon)
	}

	if got := est.LocateWithAltitude("terra", nil, ts); got.AltitudeKm != 705 {
		t.Errorf("nil altitude: altitude = %v, want catalog 705", got.AltitudeKm)
	}
}

func TestLocateSGP4(t *testing.T) {
	cat := NewCatalog()
	cat.Put(Elements{ID: "iss-tle", AltitudeKm: 420, InclinationDeg: 51.64, TLELine1: issLine1, TLELine2: issLine2})
	est := NewEstimator(cat, 0)

	loc := est.Locate("iss-tle", time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC))
	if loc.Method != "sgp4" {
		t.Fatalf("method = %q, want sgp4", loc.Method)
	}
	if math.Abs(loc.LatitudeDeg) > 52 {
		t.Errorf("latitude %v exceeds ISS inclination", loc.LatitudeDeg)
	}
	if loc.AltitudeKm < 300 || loc.AltitudeKm > 500 {
		t.Errorf("altitude = %.1f km, expected ISS-like ~420 km", loc.AltitudeKm)
	}
	if !loc.Position.IsFinite() {
		t.Errorf("position not finite: %+v", loc.Position)
	}
}

func TestLocateSGP4FallsBack(t *testing.T) {
	cat := NewCatalog()
	cat.Put(Elements{ID: "broken", AltitudeKm: 600, InclinationDeg: 45, TLELine1: "1 short", TLELine2: "2 short"})
	est := NewEstimator(cat, 0)

	loc := est.Locate("broken", time.Unix(0, 0))
	if loc.Method != "circular" {
		t.Errorf("method = %q, want circular fallback", loc.Method)
	}
	if loc.AltitudeKm != 600 {
		t.Errorf("altitude = %v, want 600", loc.AltitudeKm)
	}
}

func TestValidateTLELines(t *testing.T) {
	if err := validateTLELines(issLine1, issLine2); err != nil {
		t.Errorf("valid TLE rejected: %v", err)
	}
	if err := validateTLELines("invalid line 1", "invalid line 2"); err == nil {
		t.Error("expected error for invalid TLE")
	}
	if err := validateTLELines(issLine2, issLine1); err == nil {
		t.Error("expected error for swapped lines")
	}
}

func TestCatalogLoadINI(t *testing.T) {
	data := `
[goes-16]
name = GOES-16
altitude_km = 35786
longitude_deg = -75.2
geostationary = true

[iss]
altitude_km = 415
inclination_deg = 51.64
tle_line1 = ` + issLine1 + `
tle_line2 = ` + issLine2 + `

[bad-tle]
altitude_km = 800
tle_line1 = 1 nope
tle_line2 = 2 nope
`
	cat := NewCatalog()
	before := cat.Len()

	n, err := cat.LoadINI([]byte(data), testLogger())
	if err != nil {
		t.Fatalf("LoadINI: %v", err)
	}
	if n != 3 {
		t.Errorf("loaded %d sections, want 3", n)
	}
	if cat.Len() != before+2 { // iss overrides the built-in entry
		t.Errorf("catalog size = %d, want %d", cat.Len(), before+2)
	}

	goes, ok := cat.Lookup("GOES 16")
	if !ok || !goes.Geostationary || goes.LongitudeDeg != -75.2 || goes.Name != "GOES-16" {
		t.Errorf("goes-16 = %+v, %v", goes, ok)
	}

	iss, ok := cat.Lookup("ISS")
	if !ok || iss.AltitudeKm != 415 || !iss.HasTLE() {
		t.Errorf("iss = %+v, %v", iss, ok)
	}

	bad, ok := cat.Lookup("bad-tle")
	if !ok || bad.HasTLE() {
		t.Errorf("bad-tle should load without TLE: %+v", bad)
	}
	if bad.Name != "bad-tle" {
		t.Errorf("name default = %q, want section name", bad.Name)
	}
}

func TestCatalogLoadINIError(t *testing.T) {
	_, err := NewCatalog().LoadINI("/nonexistent/catalog.ini", testLogger())
	if err == nil || !strings.Contains(err.Error(), "loading catalog") {
		t.Errorf("expected wrapped load error, got %v", err)
	}
}

func TestCatalogMergeTLE(t *testing.T) {
	entries := []tle.Entry{
		{NORADID: 25544, Name: "ISS (ZARYA)", InclinationDeg: 51.64, MeanMotion: 15.5, Line1: issLine1, Line2: issLine2},
		{NORADID: 99999, Name: "NEWSAT", InclinationDeg: 51.64, MeanMotion: 15.5, Line1: issLine1, Line2: issLine2},
		{NORADID: 11111, Name: "TRUNCATED", MeanMotion: 15, Line1: "1 11111U", Line2: "2 11111"},
	}

	cat := NewCatalog()
	before := cat.Len()
	if n := cat.MergeTLE(entries, testLogger()); n != 2 {
		t.Errorf("merged %d entries, want 2", n)
	}
	if cat.Len() != before+1 {
		t.Errorf("catalog size = %d, want %d", cat.Len(), before+1)
	}

	iss, ok := cat.Lookup("iss")
	if !ok || !iss.HasTLE() {
		t.Fatalf("built-in iss not refined: %+v", iss)
	}
	if math.Abs(iss.AltitudeKm-424) > 5 {
		t.Errorf("iss altitude = %.1f km, want about 424", iss.AltitudeKm)
	}

	if _, ok := cat.Lookup("newsat"); !ok {
		t.Error("unknown TLE name not added to the catalog")
	}
	if _, ok := cat.Lookup("truncated"); ok {
		t.Error("invalid TLE should not be merged")
	}

	loc := NewEstimator(cat, 0).Locate("iss", time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC))
	if loc.Method != "sgp4" {
		t.Errorf("method = %q, want sgp4 after merge", loc.Method)
	}
}

func TestSecondsOutsideNanosecondRange(t *testing.T) {
	tests := []struct {
		t    time.Time
		want float64
	}{
		{time.Unix(0, 0), 0},
		{time.Unix(1, 500_000_000), 1.5},
		{time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC), 32503680000},
		{time.Date(1500, 1, 1, 0, 0, 0, 0, time.UTC), -14831769600},
	}
	for _, tt := range tests {
		if got := seconds(tt.t); got != tt.want {
			t.Errorf("seconds(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}

	est := NewEstimator(NewCatalog(), 0)
	far := time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC)
	lat, _ := est.LatLon("terra", 705, 98.5, far)
	want := 98.5 * math.Sin(32503680000*est.PeriodFactor(705))
	if math.Abs(lat-want) > 1e-9 {
		t.Errorf("latitude in year 3000 = %v, want %v", lat, want)
	}
}
