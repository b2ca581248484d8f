package model

import (
	"math"
	"testing"
)

func TestRealtimeVideoQueryValidate(t *testing.T) {
	zero, res := 0.0, 0.5
	tests := []struct {
		name    string
		q       RealtimeVideoQuery
		wantErr bool
	}{
		{"valid", RealtimeVideoQuery{Latitude: 35.68, Longitude: 139.69, Zoom: 10}, false},
		{"with resolution", RealtimeVideoQuery{Zoom: 1, RequiredResolution: &res}, false},
		{"latitude out of range", RealtimeVideoQuery{Latitude: 91, Zoom: 10}, true},
		{"latitude NaN", RealtimeVideoQuery{Latitude: math.NaN(), Zoom: 10}, true},
		{"longitude out of range", RealtimeVideoQuery{Longitude: -181, Zoom: 10}, true},
		{"zoom too low", RealtimeVideoQuery{Zoom: 0}, true},
		{"zoom too high", RealtimeVideoQuery{Zoom: 21}, true},
		{"zero resolution", RealtimeVideoQuery{Zoom: 10, RequiredResolution: &zero}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.q.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestManeuverRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		r       ManeuverRequest
		wantErr bool
	}{
		{"valid", ManeuverRequest{PlayerID: "p1", ThrustVector: Vector3{X: 0.1}, Duration: 5}, false},
		{"missing player", ManeuverRequest{ThrustVector: Vector3{X: 0.1}, Duration: 5}, true},
		{"infinite thrust", ManeuverRequest{PlayerID: "p1", ThrustVector: Vector3{Y: math.Inf(1)}, Duration: 5}, true},
		{"zero duration", ManeuverRequest{PlayerID: "p1"}, true},
		{"NaN duration", ManeuverRequest{PlayerID: "p1", Duration: math.NaN()}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.r.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDisasterEventValidate(t *testing.T) {
	if err := (DisasterEvent{Type: "earthquake", Location: "Tokyo"}).Validate(); err != nil {
		t.Errorf("valid event rejected: %v", err)
	}
	if err := (DisasterEvent{Location: "Tokyo"}).Validate(); err == nil {
		t.Error("expected error for missing type")
	}
	if err := (DisasterEvent{Type: "flood"}).Validate(); err == nil {
		t.Error("expected error for missing location")
	}
}
