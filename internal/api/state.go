package api

import (
	"net/http"
	"slices"

	"github.com/star/orbitview/internal/state"
)

// handleState serves the application state.
// GET /api/v1/state
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.deps.Store.Get())
}

// handleHydrate replaces the game data (players, ground stations, missions,
// scores). A body without a selection keeps the current one; a body with
// one switches telemetry polling to it.
// PUT /api/v1/state
func (s *Server) handleHydrate(w http.ResponseWriter, r *http.Request) {
	var req state.State
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	_, next := s.deps.Store.Update(func(st state.State) state.State {
		next := state.Hydrate(st, req)
		if next.SelectedSatelliteID != st.SelectedSatelliteID || next.MissionID != st.MissionID {
			s.deps.Telemetry.Select(next.SelectedSatelliteID, next.MissionID)
		}
		return next
	})

	s.logger.Info("state hydrated",
		"players", len(next.Players),
		"missions", len(next.Missions),
		"ground_stations", len(next.GroundStations),
	)
	s.writeJSON(w, r, http.StatusOK, next)
}

// handleReset returns the game to its initial state and clears the
// selection, which stops telemetry polling.
// POST /api/v1/state/reset
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	_, next := s.deps.Store.Update(func(st state.State) state.State {
		s.deps.Telemetry.Select("", "")
		return state.Reset(st)
	})
	s.logger.Info("state reset")
	s.writeJSON(w, r, http.StatusOK, next)
}

// selectRequest changes the selection. Omitted fields keep their current
// value; an empty string clears it.
type selectRequest struct {
	SatelliteID *string `json:"satellite_id"`
	MissionID   *string `json:"mission_id"`
}

type selectResponse struct {
	SatelliteID string `json:"satellite_id"`
	MissionID   string `json:"mission_id"`
	Changed     bool   `json:"changed"`
}

// handleSelect changes the selected satellite and mission. Polls of the
// previous selection are cancelled.
// POST /api/v1/state/select
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.SatelliteID == nil && req.MissionID == nil {
		writeError(w, http.StatusBadRequest, "satellite_id or mission_id is required")
		return
	}

	var changed bool
	_, next := s.deps.Store.Update(func(st state.State) state.State {
		sat, mission := st.SelectedSatelliteID, st.MissionID
		if req.SatelliteID != nil {
			sat = *req.SatelliteID
		}
		if req.MissionID != nil {
			mission = *req.MissionID
		}
		// Select under the store lock so the poller and the state agree on
		// the order of concurrent selections.
		changed = s.deps.Telemetry.Select(sat, mission)
		return state.Select(st, sat, mission)
	})

	if changed {
		s.logger.Info("selection updated", "satellite_id", next.SelectedSatelliteID, "mission_id", next.MissionID)
	}
	s.writeJSON(w, r, http.StatusOK, selectResponse{
		SatelliteID: next.SelectedSatelliteID,
		MissionID:   next.MissionID,
		Changed:     changed,
	})
}

type assignRequest struct {
	PlayerID    string `json:"player_id"`
	SatelliteID string `json:"satellite_id"`
}

// handleAssign assigns a satellite to a player.
// POST /api/v1/state/assign
func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}

	known := false
	_, next := s.deps.Store.Update(func(st state.State) state.State {
		known = slices.ContainsFunc(st.Players, func(p state.Player) bool { return p.ID == req.PlayerID })
		return state.AssignSatellite(st, req.PlayerID, req.SatelliteID)
	})
	if !known {
		writeError(w, http.StatusNotFound, "unknown player")
		return
	}
	s.writeJSON(w, r, http.StatusOK, next)
}

type completeRequest struct {
	PlayerID string `json:"player_id"`
}

// handleCompleteMission marks a game mission complete and credits its
// points to the player. Unknown missions credit nothing.
// POST /api/v1/state/missions/{mission_id}/complete
func (s *Server) handleCompleteMission(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}

	missionID := r.PathValue("mission_id")
	_, next := s.deps.Store.Update(func(st state.State) state.State {
		return state.CompleteMission(st, missionID, req.PlayerID)
	})
	s.writeJSON(w, r, http.StatusOK, next)
}
