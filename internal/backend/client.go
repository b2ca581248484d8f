// Package backend is the HTTP client for the mission backend that owns
// satellite, debris and mission data.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/star/orbitview/internal/metrics"
	"github.com/star/orbitview/internal/model"
)

const (
	// DefaultBaseURL is used when no backend URL is configured.
	DefaultBaseURL = "http://localhost:8080"

	defaultTimeout   = 10 * time.Second
	maxResponseBytes = 4 << 20
	maxErrorBody     = 512
)

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration

	// RequestsPerSecond caps outbound calls. Zero disables the limiter.
	RequestsPerSecond float64
	Burst             int

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client calls the mission backend. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	tracer     trace.Tracer
	logger     *slog.Logger
}

// New creates a Client.
func New(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = int(cfg.RequestsPerSecond) + 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	return &Client{
		baseURL:    base,
		httpClient: hc,
		limiter:    limiter,
		tracer:     otel.Tracer("github.com/star/orbitview/internal/backend"),
		logger:     logger.With("component", "backend"),
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HTTPError is returned for non-2xx backend responses.
type HTTPError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: backend returned HTTP %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s: backend returned HTTP %d: %s", e.Operation, e.StatusCode, e.Body)
}

// IsAbort reports whether err comes from the caller cancelling the request,
// as opposed to a real failure. Timeouts are failures.
func IsAbort(err error) bool {
	return errors.Is(err, context.Canceled)
}

// AvailableSatellites lists the satellites the backend can task.
func (c *Client) AvailableSatellites(ctx context.Context) (*model.AvailableSatellites, error) {
	var out model.AvailableSatellites
	if err := c.do(ctx, "available_satellites", http.MethodGet, "/api/v1/satellite/available", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Orbit returns the latest orbit sample of a satellite.
func (c *Client) Orbit(ctx context.Context, satelliteID string) (*model.OrbitSample, error) {
	var out model.OrbitSample
	if err := c.do(ctx, "orbit", http.MethodGet, "/api/v1/satellite/"+url.PathEscape(satelliteID)+"/orbit", nil, nil, &out); err != nil {
		return nil, err
	}
	out.ReceivedAt = time.Now()
	return &out, nil
}

// Status returns the health and attitude of a satellite.
func (c *Client) Status(ctx context.Context, satelliteID string) (*model.StatusResponse, error) {
	var out model.StatusResponse
	if err := c.do(ctx, "status", http.MethodGet, "/api/v1/satellite/"+url.PathEscape(satelliteID)+"/status", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Coverage returns the sub-satellite point and next pass of a satellite.
func (c *Client) Coverage(ctx context.Context, satelliteID string) (*model.CoverageResponse, error) {
	var out model.CoverageResponse
	if err := c.do(ctx, "coverage", http.MethodGet, "/api/v1/satellite/"+url.PathEscape(satelliteID)+"/coverage", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DebrisThreats returns the debris threat list of a mission. A body that is
// not a threat list is an error.
func (c *Client) DebrisThreats(ctx context.Context, missionID string) ([]model.DebrisThreat, error) {
	var out model.ThreatsResponse
	if err := c.do(ctx, "debris_threats", http.MethodGet, "/api/v1/mission/debris/"+url.PathEscape(missionID)+"/threats", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Threats, nil
}

// Maneuver submits a thrust command and returns the backend's reply as is.
func (c *Client) Maneuver(ctx context.Context, satelliteID string, req model.ManeuverRequest) (model.ManeuverResult, error) {
	var out json.RawMessage
	if err := c.do(ctx, "maneuver", http.MethodPost, "/api/v1/satellite/"+url.PathEscape(satelliteID)+"/maneuver", nil, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RealtimeVideo requests capture metadata for a location. The query is
// validated before any request is made.
func (c *Client) RealtimeVideo(ctx context.Context, q model.RealtimeVideoQuery) (*model.RealtimeVideo, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("realtime_video: %w", err)
	}

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(q.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(q.Longitude, 'f', -1, 64))
	params.Set("zoom", strconv.Itoa(q.Zoom))
	if q.RequiredResolution != nil {
		params.Set("required_resolution", strconv.FormatFloat(*q.RequiredResolution, 'f', -1, 64))
	}
	if q.PreferSatellite != "" {
		params.Set("prefer_satellite", q.PreferSatellite)
	}

	var out model.RealtimeVideo
	if err := c.do(ctx, "realtime_video", http.MethodGet, "/api/v1/satellite/video/realtime", params, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Missions lists Ground Control missions.
func (c *Client) Missions(ctx context.Context) ([]model.Mission, error) {
	var out model.MissionList
	if err := c.do(ctx, "missions", http.MethodGet, "/api/v1/missions", nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Missions == nil {
		out.Missions = []model.Mission{}
	}
	return out.Missions, nil
}

// CreateMission opens a mission for a disaster event.
func (c *Client) CreateMission(ctx context.Context, event model.DisasterEvent) (*model.Mission, error) {
	var out model.Mission
	if err := c.do(ctx, "create_mission", http.MethodPost, "/api/v1/missions", nil, event, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Mission returns one mission with its chat history.
func (c *Client) Mission(ctx context.Context, missionID string) (*model.Mission, error) {
	var out model.Mission
	if err := c.do(ctx, "mission", http.MethodGet, "/api/v1/missions/"+url.PathEscape(missionID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendMessage posts a chat message to Ground Control and returns the reply.
func (c *Client) SendMessage(ctx context.Context, missionID, message string) (*model.ChatMessage, error) {
	var out model.ChatMessage
	body := model.SendMessageRequest{Message: message}
	if err := c.do(ctx, "send_message", http.MethodPost, "/api/v1/missions/"+url.PathEscape(missionID)+"/message", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do performs one request: rate limit, span, request ID, trace headers,
// bounded body read and JSON decode into out.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out any) (err error) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "backend."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
	defer func() {
		outcome := "ok"
		switch {
		case err == nil:
		case IsAbort(err):
			outcome = "abort"
		default:
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		metrics.ObserveBackend(op, outcome, time.Since(start))
		span.End()
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: waiting for rate limiter: %w", op, ctxErr)
		}
		return fmt.Errorf("%s: waiting for rate limiter: %w", op, err)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("%s: creating request: %w", op, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	span.SetAttributes(attribute.String("request.id", reqID))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	limited := io.LimitReader(resp.Body, maxResponseBytes+1)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(limited, maxErrorBody))
		c.logger.Debug("backend error response", "operation", op, "status", resp.StatusCode, "request_id", reqID)
		return &HTTPError{Operation: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	data, err := io.ReadAll(limited)
	if err != nil {
		return fmt.Errorf("%s: reading response body: %w", op, err)
	}
	if len(data) > maxResponseBytes {
		return fmt.Errorf("%s: response exceeds %d byte limit", op, maxResponseBytes)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}
