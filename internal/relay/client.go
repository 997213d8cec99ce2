package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// API defines the backend operations used by the sync layer.
// This interface is implemented by *Client and can be used for testing.
type API interface {
	FetchDevices(ctx context.Context) ([]Device, error)
	FetchSchedules(ctx context.Context) ([]Schedule, error)
	FetchLogs(ctx context.Context, query LogQuery) ([]LogEntry, error)
	FetchStats(ctx context.Context) (Stats, error)
	ControlDevice(ctx context.Context, control Control) error
	CreateDevice(ctx context.Context, in NewDevice) (Device, error)
	UpdateDevice(ctx context.Context, id string, in DeviceUpdate) (Device, error)
	DeleteDevice(ctx context.Context, id string) error
	CreateSchedule(ctx context.Context, in NewSchedule) (Schedule, error)
	UpdateSchedule(ctx context.Context, id string, in NewSchedule) (Schedule, error)
	ToggleSchedule(ctx context.Context, id string) error
	DeleteSchedule(ctx context.Context, id string) error
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Client talks to the relay backend REST API under /api.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultBackendURL     = "http://127.0.0.1:8001"
	defaultUserAgent      = "relaydash/0.1"
	defaultRequestTimeout = 10 * time.Second
	apiPrefix             = "/api"
)

// Option customizes a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient builds a Client for the backend at backendURL (scheme optional).
func NewClient(backendURL string, opts ...Option) (*Client, error) {
	base, err := ParseBackendURL(backendURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: defaultRequestTimeout},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// FetchInfo retrieves the API banner.
func (c *Client) FetchInfo(ctx context.Context) (Info, error) {
	var payload Info
	if err := c.do(ctx, http.MethodGet, "/", nil, &payload); err != nil {
		return Info{}, err
	}
	return payload, nil
}

// FetchDevices retrieves every device.
func (c *Client) FetchDevices(ctx context.Context) ([]Device, error) {
	var payload []Device
	if err := c.do(ctx, http.MethodGet, "/devices", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchDevice retrieves a single device.
func (c *Client) FetchDevice(ctx context.Context, id string) (Device, error) {
	if err := requireID("device", id); err != nil {
		return Device{}, err
	}
	var payload Device
	if err := c.do(ctx, http.MethodGet, "/devices/"+url.PathEscape(id), nil, &payload); err != nil {
		return Device{}, err
	}
	return payload, nil
}

// FetchSchedules retrieves every schedule.
func (c *Client) FetchSchedules(ctx context.Context) ([]Schedule, error) {
	var payload []Schedule
	if err := c.do(ctx, http.MethodGet, "/schedules", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchDeviceSchedules retrieves the schedules bound to one device.
func (c *Client) FetchDeviceSchedules(ctx context.Context, deviceID string) ([]Schedule, error) {
	if err := requireID("device", deviceID); err != nil {
		return nil, err
	}
	var payload []Schedule
	if err := c.do(ctx, http.MethodGet, "/schedules/device/"+url.PathEscape(deviceID), nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// LogQuery configures /api/logs requests.
type LogQuery struct {
	DeviceID string
	Limit    int
}

// FetchLogs retrieves the most recent log entries, newest first.
func (c *Client) FetchLogs(ctx context.Context, query LogQuery) ([]LogEntry, error) {
	values := url.Values{}
	if id := strings.TrimSpace(query.DeviceID); id != "" {
		values.Set("device_id", id)
	}
	if query.Limit > 0 {
		values.Set("limit", strconv.Itoa(query.Limit))
	}
	var payload []LogEntry
	if err := c.doURL(ctx, http.MethodGet, c.endpoint("/logs", values), nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchStats retrieves the aggregate statistics.
func (c *Client) FetchStats(ctx context.Context) (Stats, error) {
	var payload Stats
	if err := c.do(ctx, http.MethodGet, "/stats", nil, &payload); err != nil {
		return Stats{}, err
	}
	return payload, nil
}

// ControlDevice switches a relay.
func (c *Client) ControlDevice(ctx context.Context, control Control) error {
	if err := requireID("device", control.DeviceID); err != nil {
		return err
	}
	if !control.State.Valid() {
		return fmt.Errorf("invalid relay state %q", control.State)
	}
	return c.do(ctx, http.MethodPost, "/devices/control", control, nil)
}

// CreateDevice registers a new device.
func (c *Client) CreateDevice(ctx context.Context, in NewDevice) (Device, error) {
	var payload Device
	if err := c.do(ctx, http.MethodPost, "/devices", in, &payload); err != nil {
		return Device{}, err
	}
	return payload, nil
}

// UpdateDevice edits a device's name, room or pin.
func (c *Client) UpdateDevice(ctx context.Context, id string, in DeviceUpdate) (Device, error) {
	if err := requireID("device", id); err != nil {
		return Device{}, err
	}
	var payload Device
	if err := c.do(ctx, http.MethodPut, "/devices/"+url.PathEscape(id), in, &payload); err != nil {
		return Device{}, err
	}
	return payload, nil
}

// DeleteDevice removes a device.
func (c *Client) DeleteDevice(ctx context.Context, id string) error {
	if err := requireID("device", id); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, "/devices/"+url.PathEscape(id), nil, nil)
}

// CreateSchedule adds a schedule.
func (c *Client) CreateSchedule(ctx context.Context, in NewSchedule) (Schedule, error) {
	var payload Schedule
	if err := c.do(ctx, http.MethodPost, "/schedules", in, &payload); err != nil {
		return Schedule{}, err
	}
	return payload, nil
}

// UpdateSchedule replaces a schedule's definition.
func (c *Client) UpdateSchedule(ctx context.Context, id string, in NewSchedule) (Schedule, error) {
	if err := requireID("schedule", id); err != nil {
		return Schedule{}, err
	}
	var payload Schedule
	if err := c.do(ctx, http.MethodPut, "/schedules/"+url.PathEscape(id), in, &payload); err != nil {
		return Schedule{}, err
	}
	return payload, nil
}

// ToggleSchedule flips a schedule's active flag. The backend answers with a
// message rather than the schedule, so the body is ignored.
func (c *Client) ToggleSchedule(ctx context.Context, id string) error {
	if err := requireID("schedule", id); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, "/schedules/"+url.PathEscape(id)+"/toggle", nil, nil)
}

// DeleteSchedule removes a schedule.
func (c *Client) DeleteSchedule(ctx context.Context, id string) error {
	if err := requireID("schedule", id); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, "/schedules/"+url.PathEscape(id), nil, nil)
}

// endpoint appends /api and path, already escaped, to the backend root.
func (c *Client) endpoint(path string, query url.Values) *url.URL {
	u := *c.baseURL
	u.RawPath = c.baseURL.EscapedPath() + apiPrefix + path
	u.Path = u.RawPath
	if unescaped, err := url.PathUnescape(u.RawPath); err == nil {
		u.Path = unescaped
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return &u
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	return c.doURL(ctx, method, c.endpoint(path, nil), body, dest)
}

func (c *Client) doURL(ctx context.Context, method string, reqURL *url.URL, body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return newAPIError(method, reqURL.Path, requestID, resp)
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func requireID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%s id required", kind)
	}
	return nil
}

// ParseBackendURL normalizes the configured backend root. A missing scheme
// defaults to http. A path prefix is kept without its trailing slash; query
// and fragment are dropped.
func ParseBackendURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBackendURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse backend url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q: unsupported scheme %q", raw, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("backend url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = strings.TrimRight(u.RawPath, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// WebSocketURL derives the push channel URL from the backend root by
// swapping http for ws and https for wss and appending /ws to its path.
func WebSocketURL(backendURL string) (string, error) {
	u, err := ParseBackendURL(backendURL)
	if err != nil {
		return "", err
	}
	ws := *u
	if u.Scheme == "https" {
		ws.Scheme = "wss"
	} else {
		ws.Scheme = "ws"
	}
	ws.Path += "/ws"
	if ws.RawPath != "" {
		ws.RawPath += "/ws"
	}
	return ws.String(), nil
}
