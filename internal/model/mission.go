package model

import (
	"encoding/json"
	"errors"
	"math"
)

// DisasterEvent describes the event a mission responds to.
type DisasterEvent struct {
	Type      string   `json:"type"`
	Location  string   `json:"location"`
	Severity  string   `json:"severity"`
	Magnitude *float64 `json:"magnitude,omitempty"`
}

// OperatorInfo identifies the Ground Control operator on duty.
type OperatorInfo struct {
	Name    string `json:"name"`
	Rank    string `json:"rank"`
	Station string `json:"station"`
	Shift   string `json:"shift"`
}

// ChatMessage is one Ground Control chat entry.
type ChatMessage struct {
	ID          string `json:"id"`
	Role        string `json:"role"` // user | assistant
	Content     string `json:"content"`
	Timestamp   string `json:"timestamp"`
	MessageType string `json:"message_type"`
	Urgent      bool   `json:"urgent"`
}

// Mission is a Ground Control mission with its chat history.
type Mission struct {
	ID           string        `json:"id"`
	CallSign     string        `json:"call_sign"`
	Disaster     DisasterEvent `json:"disaster"`
	Status       string        `json:"status"`
	Priority     string        `json:"priority"`
	ChatHistory  []ChatMessage `json:"chat_history"`
	OperatorInfo OperatorInfo  `json:"operator_info"`
}

// MissionList is the body of GET /api/v1/missions.
type MissionList struct {
	Missions []Mission `json:"missions"`
}

// SendMessageRequest is the body of POST /api/v1/missions/{id}/message.
type SendMessageRequest struct {
	Message string `json:"message"`
}

// RealtimeVideoQuery holds the query of GET /api/v1/satellite/video/realtime.
type RealtimeVideoQuery struct {
	Latitude           float64
	Longitude          float64
	Zoom               int
	RequiredResolution *float64
	PreferSatellite    string
}

// VideoLocation is the capture location echoed by the backend.
type VideoLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      float64 `json:"zoom"`
}

// VideoSize is a frame size in pixels.
type VideoSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// VideoData carries media URLs and encoding details.
type VideoData struct {
	VideoURL     string    `json:"video_url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	StreamURL    string    `json:"stream_url"`
	Format       string    `json:"format"`
	Codec        string    `json:"codec"`
	Bitrate      string    `json:"bitrate"`
	FrameRate    float64   `json:"frame_rate"`
	Duration     float64   `json:"duration"`
	Size         VideoSize `json:"size"`
}

// CaptureQuality is the backend's assessment of a capture.
type CaptureQuality struct {
	OverallQuality     float64 `json:"overall_quality"`
	CloudCoverage      float64 `json:"cloud_coverage"`
	AtmosphericClarity float64 `json:"atmospheric_clarity"`
	SunAngle           float64 `json:"sun_angle"`
	SignalStrength     float64 `json:"signal_strength"`
	ViewingAngle       float64 `json:"viewing_angle"`
}

// RealtimeVideo is the body of GET /api/v1/satellite/video/realtime.
type RealtimeVideo struct {
	VideoID       string         `json:"video_id"`
	SatelliteID   string         `json:"satellite_id"`
	SatelliteName string         `json:"satellite_name"`
	Location      VideoLocation  `json:"location"`
	VideoData     VideoData      `json:"video_data"`
	CaptureTime   string         `json:"capture_time"`
	Resolution    float64        `json:"resolution"`
	Quality       CaptureQuality `json:"quality"`
	NextUpdate    string         `json:"next_update"`
	Status        string         `json:"status"`
}

// ManeuverResult is passed through from the backend untouched.
type ManeuverResult = json.RawMessage

// Validate checks the query against the ranges the backend accepts.
func (q RealtimeVideoQuery) Validate() error {
	switch {
	case math.IsNaN(q.Latitude) || q.Latitude < -90 || q.Latitude > 90:
		return errors.New("latitude must be between -90 and 90")
	case math.IsNaN(q.Longitude) || q.Longitude < -180 || q.Longitude > 180:
		return errors.New("longitude must be between -180 and 180")
	case q.Zoom < 1 || q.Zoom > 20:
		return errors.New("zoom must be between 1 and 20")
	case q.RequiredResolution != nil && !(*q.RequiredResolution > 0):
		return errors.New("required_resolution must be positive")
	}
	return nil
}

// Validate checks a thrust command before it is forwarded.
func (r ManeuverRequest) Validate() error {
	switch {
	case r.PlayerID == "":
		return errors.New("player_id is required")
	case !r.ThrustVector.IsFinite():
		return errors.New("thrust_vector must be finite")
	case math.IsNaN(r.Duration) || math.IsInf(r.Duration, 0) || r.Duration <= 0:
		return errors.New("duration must be a positive number of seconds")
	}
	return nil
}

// Validate checks that the event names a type and location.
func (e DisasterEvent) Validate() error {
	switch {
	case e.Type == "":
		return errors.New("type is required")
	case e.Location == "":
		return errors.New("location is required")
	}
	return nil
}
