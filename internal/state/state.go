// Package state holds the viewer's game state: players, satellites, ground
// stations, missions and scores, plus the current selection.
//
// Actions are pure functions that return a new State and never modify their
// input. Store publishes the current State for lock-free reads.
package state

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/star/orbitview/internal/model"
)

// Player is a participant who may be assigned a satellite.
type Player struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	AssignedSatelliteID string `json:"assignedSatelliteId,omitempty"`
}

// GroundStation is a fixed receiving site.
type GroundStation struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	ElevationM float64 `json:"elevationM"`
}

// Mission task types.
const (
	TaskDownlinkData     = "downlink_data"
	TaskChangeAttitude   = "change_attitude"
	TaskEstablishContact = "establish_contact"
)

// Mission is a scored game task.
type Mission struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	TaskType    string `json:"taskType"`
	Description string `json:"description"`
	Points      int    `json:"points"`
	ExpiresAt   string `json:"expiresAt,omitempty"`
	Completed   bool   `json:"completed"`
}

// State is an immutable snapshot of the game.
type State struct {
	Players             []Player          `json:"players"`
	Satellites          []model.Satellite `json:"satellites"`
	GroundStations      []GroundStation   `json:"groundStations"`
	Missions            []Mission         `json:"missions"`
	ScoreByPlayerID     map[string]int    `json:"scoreByPlayerId"`
	SelectedSatelliteID string            `json:"selectedSatelliteId,omitempty"`
	MissionID           string            `json:"missionId,omitempty"`
}

// Initial returns the empty starting state.
func Initial() State {
	return State{
		Players:         []Player{},
		Satellites:      []model.Satellite{},
		GroundStations:  []GroundStation{},
		Missions:        []Mission{},
		ScoreByPlayerID: map[string]int{},
	}
}

// AssignSatellite sets the assigned satellite of playerID. Unknown players
// leave the state unchanged.
func AssignSatellite(s State, playerID, satelliteID string) State {
	s.Players = slices.Clone(s.Players)
	for i := range s.Players {
		if s.Players[i].ID == playerID {
			s.Players[i].AssignedSatelliteID = satelliteID
		}
	}
	return s
}

// CompleteMission marks missionID completed and credits its points to
// playerID. An unknown mission credits zero points.
func CompleteMission(s State, missionID, playerID string) State {
	points := 0
	s.Missions = slices.Clone(s.Missions)
	for i := range s.Missions {
		if s.Missions[i].ID == missionID {
			points = s.Missions[i].Points
			s.Missions[i].Completed = true
		}
	}
	return AddScore(s, playerID, points)
}

// AddScore adds points to playerID's score.
func AddScore(s State, playerID string, points int) State {
	scores := maps.Clone(s.ScoreByPlayerID)
	if scores == nil {
		scores = map[string]int{}
	}
	scores[playerID] += points
	s.ScoreByPlayerID = scores
	return s
}

// Select records the viewer's satellite and mission selection.
func Select(s State, satelliteID, missionID string) State {
	s.SelectedSatelliteID = satelliteID
	s.MissionID = missionID
	return s
}

// SetSatellites replaces the available satellite list.
func SetSatellites(s State, satellites []model.Satellite) State {
	if satellites == nil {
		satellites = []model.Satellite{}
	}
	s.Satellites = slices.Clone(satellites)
	return s
}

// Hydrate replaces the game data with next, keeping the current selection
// when next carries none. Nil collections are normalized to empty ones.
func Hydrate(s State, next State) State {
	if next.SelectedSatelliteID == "" {
		next.SelectedSatelliteID = s.SelectedSatelliteID
	}
	if next.MissionID == "" {
		next.MissionID = s.MissionID
	}
	empty := Initial()
	if next.Players == nil {
		next.Players = empty.Players
	}
	if next.Satellites == nil {
		next.Satellites = empty.Satellites
	}
	if next.GroundStations == nil {
		next.GroundStations = empty.GroundStations
	}
	if next.Missions == nil {
		next.Missions = empty.Missions
	}
	if next.ScoreByPlayerID == nil {
		next.ScoreByPlayerID = empty.ScoreByPlayerID
	}
	return next
}

// Validate checks that players, ground stations and missions carry unique,
// non-empty IDs.
func (s State) Validate() error {
	if err := uniqueIDs("player", s.Players, func(p Player) string { return p.ID }); err != nil {
		return err
	}
	if err := uniqueIDs("ground station", s.GroundStations, func(g GroundStation) string { return g.ID }); err != nil {
		return err
	}
	return uniqueIDs("mission", s.Missions, func(m Mission) string { return m.ID })
}

func uniqueIDs[T any](kind string, items []T, id func(T) string) error {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		v := id(it)
		if v == "" {
			return errors.New(kind + " id is required")
		}
		if seen[v] {
			return fmt.Errorf("duplicate %s id %q", kind, v)
		}
		seen[v] = true
	}
	return nil
}

// Reset returns the initial state.
func Reset(State) State {
	return Initial()
}
