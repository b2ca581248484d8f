package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/star/orbitview/internal/frame"
	"github.com/star/orbitview/internal/model"
)

// maxOrbitIDs bounds one bulk orbit request.
const maxOrbitIDs = 50

// handleFrame serves the current scene frame.
// GET /api/v1/scene/frame
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.deps.Frames.Frame(s.now()))
}

// handleOrbit serves the estimated position of one satellite.
// GET /api/v1/scene/orbit/{satellite_id}?t=2024-04-10T12:00:00Z&altitude_km=705
func (s *Server) handleOrbit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("satellite_id")

	t, err := parseTime(r.URL.Query().Get("t"), s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var alt *float64
	if v := r.URL.Query().Get("altitude_km"); v != "" {
		a, err := strconv.ParseFloat(v, 64)
		if err != nil || a < 0 || a > 1e6 {
			writeError(w, http.StatusBadRequest, "invalid altitude_km parameter")
			return
		}
		alt = &a
	}

	s.writeJSON(w, r, http.StatusOK, s.deps.Estimator.LocateWithAltitude(id, alt, t))
}

// handleCamera serves the camera for the current selection.
// GET /api/v1/scene/camera
func (s *Server) handleCamera(w http.ResponseWriter, r *http.Request) {
	f := s.deps.Frames.Frame(s.now())
	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"satellite_id": f.SatelliteID,
		"camera":       f.Camera,
	})
}

type debrisResponse struct {
	MissionID string               `json:"mission_id,omitempty"`
	Source    string               `json:"debris_source,omitempty"`
	Reason    string               `json:"debris_reason,omitempty"`
	Count     int                  `json:"count"`
	Debris    []frame.DebrisMarker `json:"debris"`
}

// handleDebris serves the renderable debris of the current mission. The
// source says whether it came from the backend or the mock generator.
// GET /api/v1/scene/debris
func (s *Server) handleDebris(w http.ResponseWriter, r *http.Request) {
	f := s.deps.Frames.Frame(s.now())
	resp := debrisResponse{
		MissionID: f.MissionID,
		Source:    string(f.DebrisSource),
		Count:     len(f.Debris),
		Debris:    f.Debris,
	}
	if snap := s.deps.Telemetry.Snapshot(); snap != nil && snap.Generation == f.Generation {
		resp.Reason = snap.DebrisReason
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

type orbitsResponse struct {
	Orbits map[string]*model.OrbitSample `json:"orbits"`
	Errors map[string]string             `json:"errors,omitempty"`
}

// handleOrbits fetches the latest orbit of several satellites at once.
// GET /api/v1/scene/orbits?ids=terra,aqua
func (s *Server) handleOrbits(w http.ResponseWriter, r *http.Request) {
	var ids []string
	for _, id := range strings.Split(r.URL.Query().Get("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		writeError(w, http.StatusBadRequest, "ids parameter is required")
		return
	}
	if len(ids) > maxOrbitIDs {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d ids per request", maxOrbitIDs))
		return
	}

	orbits, failures := s.deps.Telemetry.FetchOrbits(r.Context(), ids)
	resp := orbitsResponse{Orbits: orbits}
	if len(failures) > 0 {
		resp.Errors = make(map[string]string, len(failures))
		for id, err := range failures {
			resp.Errors[id] = err.Error()
		}
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

// parseTime accepts RFC 3339 or Unix seconds. Empty means def.
func parseTime(v string, def time.Time) (time.Time, error) {
	if v == "" {
		return def, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(secs) || math.Abs(secs) > 1e11 {
		return time.Time{}, fmt.Errorf("invalid t parameter %q, want RFC 3339 or Unix seconds", v)
	}
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*float64(time.Second))).UTC(), nil
}
