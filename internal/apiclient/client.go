// Package apiclient is the HTTP transport for the event-management REST API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/eventbook/internal/logger"
	"github.com/Shivanand-hulikatti/eventbook/internal/model"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

// ErrTransport marks failures where no HTTP response was received.
var ErrTransport = errors.New("transport failure")

// ErrUndecodable marks a 2xx response whose body could not be decoded. The
// server has accepted the request even though the result is unknown.
var ErrUndecodable = errors.New("undecodable success response")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// StatusOf returns the HTTP status carried by err, or 0 if err did not come
// from a response.
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// MessageOf returns the server-provided message carried by err, if any.
func MessageOf(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Message
	}
	return ""
}

// IsUndecodable reports whether err is a success response with an unreadable
// body.
func IsUndecodable(err error) bool {
	return errors.Is(err, ErrUndecodable)
}

// IsTransport reports whether err means the server never answered.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// Client talks to the events API. It is safe for concurrent use.
type Client struct {
	baseURL string
	authURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithAuthURL points the login and registration calls at a separate service.
func WithAuthURL(u string) Option {
	return func(c *Client) { c.authURL = strings.TrimRight(u, "/") }
}

// WithToken attaches a bearer token to every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.authURL == "" {
		c.authURL = c.baseURL
	}
	return c
}

// ─── Events ───────────────────────────────────────────────────────────────────

func (c *Client) ListEvents(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	if err := c.do(ctx, c.baseURL, http.MethodGet, "/api/Events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) GetEvent(ctx context.Context, id int64) (*model.Event, error) {
	var event model.Event
	if err := c.do(ctx, c.baseURL, http.MethodGet, fmt.Sprintf("/api/Events/%d", id), nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *Client) CreateEvent(ctx context.Context, req model.EventRequest) (*model.Event, error) {
	var event model.Event
	if err := c.do(ctx, c.baseURL, http.MethodPost, "/api/Events", req, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *Client) UpdateEvent(ctx context.Context, id int64, req model.EventRequest) (*model.Event, error) {
	var event model.Event
	if err := c.do(ctx, c.baseURL, http.MethodPut, fmt.Sprintf("/api/Events/%d", id), req, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *Client) DeleteEvent(ctx context.Context, id int64) error {
	return c.do(ctx, c.baseURL, http.MethodDelete, fmt.Sprintf("/api/Events/%d", id), nil, nil)
}

// ─── Bookings ─────────────────────────────────────────────────────────────────

// ListBookings returns every booking. Used by the admin dashboard.
func (c *Client) ListBookings(ctx context.Context) ([]model.Booking, error) {
	var bookings []model.Booking
	if err := c.do(ctx, c.baseURL, http.MethodGet, "/api/EventBookings", nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (c *Client) ListUserBookings(ctx context.Context, userID int64) ([]model.Booking, error) {
	var bookings []model.Booking
	path := fmt.Sprintf("/api/EventBookings/user/%d", userID)
	if err := c.do(ctx, c.baseURL, http.MethodGet, path, nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// CreateBooking returns the record as created by the server.
func (c *Client) CreateBooking(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error) {
	var booking model.Booking
	if err := c.do(ctx, c.baseURL, http.MethodPost, "/api/EventBookings", req, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *Client) DeleteBooking(ctx context.Context, bookingID, userID int64) error {
	path := fmt.Sprintf("/api/EventBookings/%d/user/%d", bookingID, userID)
	return c.do(ctx, c.baseURL, http.MethodDelete, path, nil, nil)
}

// ─── Auth ─────────────────────────────────────────────────────────────────────

func (c *Client) Login(ctx context.Context, creds model.Credentials) (*model.AuthResponse, error) {
	var res model.AuthResponse
	if err := c.do(ctx, c.authURL, http.MethodPost, "/api/auth/login", creds, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Register(ctx context.Context, creds model.Credentials) (*model.AuthResponse, error) {
	var res model.AuthResponse
	if err := c.do(ctx, c.authURL, http.MethodPost, "/api/auth/register", creds, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ─── Plumbing ─────────────────────────────────────────────────────────────────

func (c *Client) do(ctx context.Context, base, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return errors.Wrapf(err, "encode %s %s", method, path)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, body)
	if err != nil {
		return errors.Wrapf(err, "build %s %s", method, path)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "request_id", requestID, "method", method, "path", path, "error", err)
		return errors.Mark(errors.Wrapf(err, "%s %s", method, path), ErrTransport)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "read %s %s", method, path), ErrTransport)
	}

	c.logger.Debug("request completed",
		"request_id", requestID,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: extractMessage(data),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Mark(errors.Wrapf(err, "decode %s %s", method, path), ErrUndecodable)
	}
	return nil
}

// extractMessage pulls a human message out of an error body. Servers answer
// with {"message": ...}, {"error": ...}, a bare JSON string or plain text.
func extractMessage(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ""
	}

	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Title   string `json:"title"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil {
		switch {
		case envelope.Message != "":
			return envelope.Message
		case envelope.Error != "":
			return envelope.Error
		case envelope.Title != "":
			return envelope.Title
		}
		return ""
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}

	if data[0] == '{' || data[0] == '[' || data[0] == '<' {
		return ""
	}
	const maxMessage = 200
	if len(data) > maxMessage {
		data = data[:maxMessage]
	}
	return string(data)
}
