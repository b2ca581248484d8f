package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/star/orbitview/internal/model"
	"github.com/star/orbitview/internal/state"
)

// handleAvailableSatellites proxies the backend satellite list and records it
// in the state. A failed fetch answers an empty list instead of an error.
// GET /api/v1/satellite/available
func (s *Server) handleAvailableSatellites(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Backend.AvailableSatellites(r.Context())
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		s.logger.Warn("available satellites unavailable; answering empty list", "error", err)
		s.writeJSON(w, r, http.StatusOK, model.AvailableSatellites{Satellites: []model.Satellite{}})
		return
	}
	if list.Satellites == nil {
		list.Satellites = []model.Satellite{}
	}

	s.deps.Store.Update(func(st state.State) state.State {
		return state.SetSatellites(st, list.Satellites)
	})
	s.writeJSON(w, r, http.StatusOK, list)
}

// handleManeuver forwards a thrust command.
// POST /api/v1/satellite/{id}/maneuver
func (s *Server) handleManeuver(w http.ResponseWriter, r *http.Request) {
	var req model.ManeuverRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.deps.Backend.Maneuver(r.Context(), r.PathValue("id"), req)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	if len(res) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(res)
}

// handleRealtimeVideo forwards a capture request after validating it.
// GET /api/v1/satellite/video/realtime?latitude=35.6&longitude=139.7&zoom=10
func (s *Server) handleRealtimeVideo(w http.ResponseWriter, r *http.Request) {
	q, err := parseVideoQuery(r)
	if err == nil {
		err = q.Validate()
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	video, err := s.deps.Backend.RealtimeVideo(r.Context(), q)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, video)
}

type paramError string

func (e paramError) Error() string { return "invalid " + string(e) + " parameter" }

func parseVideoQuery(r *http.Request) (model.RealtimeVideoQuery, error) {
	v := r.URL.Query()
	q := model.RealtimeVideoQuery{Zoom: 10, PreferSatellite: v.Get("prefer_satellite")}

	var err error
	if q.Latitude, err = strconv.ParseFloat(v.Get("latitude"), 64); err != nil {
		return q, paramError("latitude")
	}
	if q.Longitude, err = strconv.ParseFloat(v.Get("longitude"), 64); err != nil {
		return q, paramError("longitude")
	}
	if z := v.Get("zoom"); z != "" {
		if q.Zoom, err = strconv.Atoi(z); err != nil {
			return q, paramError("zoom")
		}
	}
	if res := v.Get("required_resolution"); res != "" {
		f, err := strconv.ParseFloat(res, 64)
		if err != nil {
			return q, paramError("required_resolution")
		}
		q.RequiredResolution = &f
	}
	return q, nil
}

// handleMissions lists Ground Control missions.
// GET /api/v1/missions
func (s *Server) handleMissions(w http.ResponseWriter, r *http.Request) {
	missions, err := s.deps.Backend.Missions(r.Context())
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, model.MissionList{Missions: missions})
}

// handleCreateMission opens a mission for a disaster event.
// POST /api/v1/missions
func (s *Server) handleCreateMission(w http.ResponseWriter, r *http.Request) {
	var event model.DisasterEvent
	if err := decodeBody(w, r, &event); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := event.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	mission, err := s.deps.Backend.CreateMission(r.Context(), event)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, mission)
}

// handleMission returns one mission with its chat history.
// GET /api/v1/missions/{id}
func (s *Server) handleMission(w http.ResponseWriter, r *http.Request) {
	mission, err := s.deps.Backend.Mission(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, mission)
}

// handleSendMessage posts a chat message and returns Ground Control's reply.
// POST /api/v1/missions/{id}/message
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req model.SendMessageRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := s.deps.Backend.SendMessage(r.Context(), r.PathValue("id"), req.Message)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, reply)
}
