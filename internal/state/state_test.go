package state

import (
	"sync"
	"testing"

	"github.com/star/orbitview/internal/model"
)

func sampleState() State {
	s := Initial()
	s.Players = []Player{{ID: "p1", Name: "Aoi"}, {ID: "p2", Name: "Ren"}}
	s.Missions = []Mission{
		{ID: "m1", Title: "Downlink", TaskType: TaskDownlinkData, Points: 30},
		{ID: "m2", Title: "Contact", TaskType: TaskEstablishContact, Points: 50},
	}
	return s
}

func TestAssignSatelliteIsPure(t *testing.T) {
	before := sampleState()
	after := AssignSatellite(before, "p2", "terra")

	if after.Players[1].AssignedSatelliteID != "terra" {
		t.Errorf("p2 assigned %q, want terra", after.Players[1].AssignedSatelliteID)
	}
	if after.Players[0].AssignedSatelliteID != "" {
		t.Error("p1 should be unchanged")
	}
	if before.Players[1].AssignedSatelliteID != "" {
		t.Error("input state was modified")
	}

	same := AssignSatellite(before, "nobody", "terra")
	for _, p := range same.Players {
		if p.AssignedSatelliteID != "" {
			t.Errorf("unknown player changed %s", p.ID)
		}
	}
}

func TestCompleteMission(t *testing.T) {
	before := sampleState()
	after := CompleteMission(before, "m2", "p1")

	if !after.Missions[1].Completed || after.Missions[0].Completed {
		t.Errorf("missions = %+v", after.Missions)
	}
	if after.ScoreByPlayerID["p1"] != 50 {
		t.Errorf("score = %d, want 50", after.ScoreByPlayerID["p1"])
	}
	if before.Missions[1].Completed || len(before.ScoreByPlayerID) != 0 {
		t.Error("input state was modified")
	}

	again := CompleteMission(after, "unknown", "p1")
	if again.ScoreByPlayerID["p1"] != 50 {
		t.Errorf("unknown mission changed score to %d", again.ScoreByPlayerID["p1"])
	}
}

func TestAddScoreAccumulates(t *testing.T) {
	s := Initial()
	s = AddScore(s, "p1", 10)
	s = AddScore(s, "p1", 5)
	s = AddScore(s, "p2", 7)
	if s.ScoreByPlayerID["p1"] != 15 || s.ScoreByPlayerID["p2"] != 7 {
		t.Errorf("scores = %v", s.ScoreByPlayerID)
	}

	var zero State
	if got := AddScore(zero, "p1", 1).ScoreByPlayerID["p1"]; got != 1 {
		t.Errorf("nil score map: got %d", got)
	}
}

func TestHydrateAndReset(t *testing.T) {
	cur := Select(sampleState(), "terra", "demo")
	next := Hydrate(cur, State{Players: []Player{{ID: "p9"}}})

	if len(next.Players) != 1 || next.Players[0].ID != "p9" {
		t.Errorf("players = %+v", next.Players)
	}
	if next.SelectedSatelliteID != "terra" || next.MissionID != "demo" {
		t.Errorf("selection lost: %q/%q", next.SelectedSatelliteID, next.MissionID)
	}
	if next.Missions == nil || next.ScoreByPlayerID == nil || next.Satellites == nil || next.GroundStations == nil {
		t.Error("nil collections not normalized")
	}

	r := Reset(next)
	if len(r.Players) != 0 || r.SelectedSatelliteID != "" {
		t.Errorf("reset = %+v", r)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		st      State
		wantErr bool
	}{
		{"sample", sampleState(), false},
		{"initial", Initial(), false},
		{"player without id", State{Players: []Player{{Name: "Aoi"}}}, true},
		{"duplicate player", State{Players: []Player{{ID: "p1"}, {ID: "p1"}}}, true},
		{"ground station without id", State{GroundStations: []GroundStation{{Name: "Svalbard"}}}, true},
		{"duplicate mission", State{Missions: []Mission{{ID: "m1"}, {ID: "m1"}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.st.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStoreUpdateSerialized(t *testing.T) {
	store := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Update(func(s State) State { return AddScore(s, "p1", 1) })
		}()
	}
	wg.Wait()

	if got := store.Get().ScoreByPlayerID["p1"]; got != 100 {
		t.Errorf("score = %d, want 100", got)
	}

	prev, next := store.Update(func(s State) State { return Select(s, "aqua", "") })
	if prev.SelectedSatelliteID != "" || next.SelectedSatelliteID != "aqua" {
		t.Errorf("prev/next = %q/%q", prev.SelectedSatelliteID, next.SelectedSatelliteID)
	}
}

func TestDefaultSatelliteID(t *testing.T) {
	tests := []struct {
		name       string
		satellites []model.Satellite
		configured string
		want       string
	}{
		{
			name:       "configured wins",
			satellites: []model.Satellite{{ID: "STARLINK-32713"}},
			configured: "terra",
			want:       "terra",
		},
		{
			name: "no satellites yet",
			want: "STARLINK-32713",
		},
		{
			name:       "starlink by name",
			satellites: []model.Satellite{{ID: "a"}, {ID: "sl-1", Name: "Starlink-32713"}},
			want:       "sl-1",
		},
		{
			name: "himawari-9 norad beats himawari-8 listed first",
			satellites: []model.Satellite{
				{ID: "h8", NoradID: 40267},
				{ID: "h9", NoradID: 41836},
			},
			want: "h9",
		},
		{
			name: "cospar id",
			satellites: []model.Satellite{
				{ID: "x"},
				{ID: "h8", ObjectID: "2014-060A"},
			},
			want: "h8",
		},
		{
			name:       "name variant",
			satellites: []model.Satellite{{ID: "x"}, {ID: "jp-geo", Name: "Himawari 8"}},
			want:       "jp-geo",
		},
		{
			name:       "substring",
			satellites: []model.Satellite{{ID: "terra"}, {ID: "himawari-legacy"}},
			want:       "himawari-legacy",
		},
		{
			name:       "first satellite",
			satellites: []model.Satellite{{ID: "terra"}, {ID: "aqua"}},
			want:       "terra",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultSatelliteID(tt.satellites, tt.configured); got != tt.want {
				t.Errorf("DefaultSatelliteID = %q, want %q", got, tt.want)
			}
		})
	}
}
