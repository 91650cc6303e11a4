// Package model defines the wire types shared by the booking client and the
// development API.
package model

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Event is a bookable item in the remote catalog.
type Event struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

// Booking links one user to one event. EventName and UserName are
// denormalized by the server.
type Booking struct {
	ID          int64  `json:"id"`
	EventID     int64  `json:"eventId"`
	UserID      int64  `json:"userId"`
	EventName   string `json:"eventName"`
	UserName    string `json:"userName"`
	BookingDate string `json:"bookingDate"`
}

// SessionUser is the authenticated user as persisted by the login flow.
type SessionUser struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

// CreateBookingRequest is the payload for POST /api/EventBookings.
type CreateBookingRequest struct {
	EventID int64 `json:"eventId"`
	UserID  int64 `json:"userId"`
}

// EventRequest is the payload for creating or updating an event.
type EventRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

// Credentials is the payload for login and registration.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is returned by the login and registration endpoints.
type AuthResponse struct {
	Token string      `json:"token"`
	User  SessionUser `json:"user"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Message string `json:"message"`
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate parses the ISO-8601 shapes the backend is known to emit.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Newf("unrecognized date %q", s)
}

// FormatDate renders an ISO-8601 string as a calendar date, falling back to
// the raw value when it cannot be parsed.
func FormatDate(s string) string {
	t, err := ParseDate(s)
	if err != nil {
		return s
	}
	return t.Format("2006-01-02")
}
