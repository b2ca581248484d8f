package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/star/orbitview/internal/model"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

func newTestClient(url string) *Client {
	return New(Config{BaseURL: url, Timeout: 5 * time.Second, Logger: testLogger})
}

func TestNewDefaults(t *testing.T) {
	c := New(Config{})
	if c.BaseURL() != DefaultBaseURL {
		t.Errorf("base URL = %q, want %q", c.BaseURL(), DefaultBaseURL)
	}
	c = New(Config{BaseURL: "http://backend:9000/"})
	if c.BaseURL() != "http://backend:9000" {
		t.Errorf("trailing slash not trimmed: %q", c.BaseURL())
	}
}

func TestOrbitRequest(t *testing.T) {
	var gotPath, gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"satellite_id":"terra","timestamp":"2026-10-16T00:00:00Z","position":{"x":7076,"y":0,"z":0},"altitude":705}`))
	}))
	defer server.Close()

	sample, err := newTestClient(server.URL).Orbit(context.Background(), "terra")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/api/v1/satellite/terra/orbit" {
		t.Errorf("path = %q", gotPath)
	}
	if _, err := uuid.Parse(gotRequestID); err != nil {
		t.Errorf("X-Request-ID %q is not a UUID: %v", gotRequestID, err)
	}
	if sample.Position == nil || sample.Position.X != 7076 {
		t.Errorf("position = %+v", sample.Position)
	}
	if sample.Altitude == nil || *sample.Altitude != 705 {
		t.Errorf("altitude = %v", sample.Altitude)
	}
	if sample.ReceivedAt.IsZero() {
		t.Error("ReceivedAt not stamped")
	}
}

// TestPathEscaping verifies IDs with reserved characters stay in one segment.
func TestPathEscaping(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{"threats":[]}`))
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).DebrisThreats(context.Background(), "a/b c"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/api/v1/mission/debris/a%2Fb%20c/threats" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "satellite not found", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Status(context.Background(), "nope")
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *HTTPError, got %T: %v", err, err)
	}
	if httpErr.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d", httpErr.StatusCode)
	}
	if httpErr.Body != "satellite not found" {
		t.Errorf("body = %q", httpErr.Body)
	}
	if IsAbort(err) {
		t.Error("HTTP error must not be classified as abort")
	}
}

func TestMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>gateway</html>`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).DebrisThreats(context.Background(), "demo")
	if err == nil || !strings.Contains(err.Error(), "decoding response") {
		t.Errorf("expected decode error, got %v", err)
	}
}

func TestBodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		chunk := strings.Repeat("A", 1024*1024)
		for i := 0; i < 6; i++ {
			if _, err := w.Write([]byte(chunk)); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Missions(context.Background())
	if err == nil || !strings.Contains(err.Error(), "byte limit") {
		t.Errorf("expected body limit error, got %v", err)
	}
}

func TestAbort(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := newTestClient(server.URL).Coverage(ctx, "terra")
	if err == nil {
		t.Fatal("expected error after cancel")
	}
	if !IsAbort(err) {
		t.Errorf("IsAbort(%v) = false, want true", err)
	}
}

func TestTimeoutIsNotAbort(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := newTestClient("http://127.0.0.1:1").AvailableSatellites(ctx)
	if err == nil {
		t.Fatal("expected error")
	}
	if IsAbort(err) {
		t.Errorf("deadline exceeded classified as abort: %v", err)
	}
}

func TestManeuverBody(t *testing.T) {
	var got model.ManeuverRequest
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"accepted":true}`))
	}))
	defer server.Close()

	req := model.ManeuverRequest{PlayerID: "p1", ThrustVector: model.Vector3{X: 0.1, Y: 0, Z: -0.2}, Duration: 30}
	res, err := newTestClient(server.URL).Maneuver(context.Background(), "terra", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != req {
		t.Errorf("backend received %+v, want %+v", got, req)
	}
	if contentType != "application/json" {
		t.Errorf("content type = %q", contentType)
	}
	if string(res) != `{"accepted":true}` {
		t.Errorf("result = %s", res)
	}
}

func TestRealtimeVideoQuery(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Write([]byte(`{"video_id":"v1","satellite_id":"terra","status":"ready"}`))
	}))
	defer server.Close()

	res := 10.0
	c := newTestClient(server.URL)
	video, err := c.RealtimeVideo(context.Background(), model.RealtimeVideoQuery{
		Latitude: 35.68, Longitude: 139.69, Zoom: 12, RequiredResolution: &res, PreferSatellite: "terra",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if video.VideoID != "v1" {
		t.Errorf("video id = %q", video.VideoID)
	}
	want := map[string]string{"latitude": "35.68", "longitude": "139.69", "zoom": "12", "required_resolution": "10", "prefer_satellite": "terra"}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("query %s = %q, want %q", k, gotQuery[k], v)
		}
	}

	// Invalid queries never reach the backend.
	gotQuery = nil
	if _, err := c.RealtimeVideo(context.Background(), model.RealtimeVideoQuery{Latitude: 91, Longitude: 0, Zoom: 5}); err == nil {
		t.Error("expected validation error")
	}
	if gotQuery != nil {
		t.Error("invalid query was sent to the backend")
	}
}

func TestMissionEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/missions", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("POST /api/v1/missions", func(w http.ResponseWriter, r *http.Request) {
		var ev model.DisasterEvent
		json.NewDecoder(r.Body).Decode(&ev)
		json.NewEncoder(w).Encode(model.Mission{ID: "m1", Disaster: ev, Status: "active"})
	})
	mux.HandleFunc("GET /api/v1/missions/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.Mission{ID: r.PathValue("id")})
	})
	mux.HandleFunc("POST /api/v1/missions/{id}/message", func(w http.ResponseWriter, r *http.Request) {
		var in model.SendMessageRequest
		json.NewDecoder(r.Body).Decode(&in)
		json.NewEncoder(w).Encode(model.ChatMessage{ID: "c1", Role: "assistant", Content: "ack: " + in.Message})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := newTestClient(server.URL)
	ctx := context.Background()

	missions, err := c.Missions(ctx)
	if err != nil || missions == nil || len(missions) != 0 {
		t.Errorf("Missions = %v, %v; want empty non-nil list", missions, err)
	}

	m, err := c.CreateMission(ctx, model.DisasterEvent{Type: "flood", Location: "Kumamoto", Severity: "high"})
	if err != nil || m.ID != "m1" || m.Disaster.Type != "flood" {
		t.Errorf("CreateMission = %+v, %v", m, err)
	}

	m, err = c.Mission(ctx, "m-7")
	if err != nil || m.ID != "m-7" {
		t.Errorf("Mission = %+v, %v", m, err)
	}

	msg, err := c.SendMessage(ctx, "m-7", "status?")
	if err != nil || msg.Content != "ack: status?" {
		t.Errorf("SendMessage = %+v, %v", msg, err)
	}
}

func TestRateLimiterWaitsForCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"satellites":[],"total":0}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, RequestsPerSecond: 0.001, Burst: 1, Logger: testLogger})
	if _, err := c.AvailableSatellites(context.Background()); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.AvailableSatellites(ctx)
	if err == nil {
		t.Fatal("expected limiter error with cancelled context")
	}
	if !IsAbort(err) {
		t.Errorf("cancelled limiter wait should be an abort, got %v", err)
	}
}
