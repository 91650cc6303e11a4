// Package booking keeps a user's view of the event catalog and their own
// bookings in step with the remote booking collection.
//
// The local booking list is a cache of a server-owned set. It only changes
// after the server has answered: a created booking is appended as returned by
// the server, a deleted booking is removed by id, and a delete the server
// reports as not found triggers a full re-fetch.
package booking

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/Shivanand-hulikatti/eventbook/internal/logger"
	"github.com/Shivanand-hulikatti/eventbook/internal/model"
	"github.com/Shivanand-hulikatti/eventbook/internal/notify"
	"github.com/Shivanand-hulikatti/eventbook/internal/session"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnauthenticated = errors.New("no authenticated session")
	ErrAlreadyBooked   = errors.New("event is already booked by the current user")
	ErrConflict        = errors.New("server reported a duplicate booking")
	ErrNotFound        = errors.New("booking not found")
	ErrForbidden       = errors.New("booking belongs to another user")
	ErrInFlight        = errors.New("action already in progress")
	ErrUnknownEvent    = errors.New("event is not in the catalog")
	ErrNoSelection     = errors.New("no event selected")
)

const (
	msgInvalidUser       = "Invalid user data"
	msgUserNotFound      = "User not found"
	msgLoadEventsFailed  = "Failed to load events"
	msgLoadBookingFailed = "Failed to load your bookings"
	msgAlreadyBooked     = "You have already booked this event"
	msgBookFailed        = "Failed to book event"
	msgCancelled         = "Booking deleted successfully!"
	msgBookingGone       = "Booking not found or already deleted"
	msgForbidden         = "You don't have permission to delete this booking"
	msgLoginAgain        = "Please login again"
	msgCancelFailed      = "Failed to delete booking"
	msgNetwork           = "Network error - please check if server is running"
	msgUnexpected        = "An unexpected error occurred"
)

// Client is the slice of the REST API the view needs.
type Client interface {
	ListEvents(ctx context.Context) ([]model.Event, error)
	ListUserBookings(ctx context.Context, userID int64) ([]model.Booking, error)
	CreateBooking(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error)
	DeleteBooking(ctx context.Context, bookingID, userID int64) error
}

// Navigator sends the user to the login flow.
type Navigator interface {
	RedirectToLogin()
}

// SessionStore is the persisted session, read once at Init.
type SessionStore interface {
	Load() (model.SessionUser, error)
	Clear() error
}

// EventStatus is an event annotated with the current user's booking status.
type EventStatus struct {
	Event  model.Event
	Booked bool
}

// View is safe for concurrent use. Collaborators are never called while the
// internal lock is held.
type View struct {
	client         Client
	notifier       notify.Notifier
	nav            Navigator
	logger         *slog.Logger
	conflictStatus int
	observer       func(Target, ActionState)

	mu       sync.Mutex
	user     *model.SessionUser
	events   []model.Event
	bookings []model.Booking
	selected *model.Event
	inflight map[Target]struct{}
}

type Option func(*View)

func WithLogger(l *slog.Logger) Option {
	return func(v *View) { v.logger = l }
}

// WithConflictStatus sets the HTTP status the backend uses for a duplicate
// booking. The default is 409.
func WithConflictStatus(status int) Option {
	return func(v *View) { v.conflictStatus = status }
}

// WithStateObserver registers fn to receive every action state transition.
// fn runs synchronously on the goroutine performing the action.
func WithStateObserver(fn func(Target, ActionState)) Option {
	return func(v *View) { v.observer = fn }
}

func New(client Client, notifier notify.Notifier, nav Navigator, opts ...Option) *View {
	v := &View{
		client:         client,
		notifier:       notifier,
		nav:            nav,
		logger:         logger.Discard(),
		conflictStatus: http.StatusConflict,
		inflight:       make(map[Target]struct{}),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Init loads the session user from store and then fetches the event catalog
// and the user's bookings concurrently.
//
// Without a usable session the user is redirected to login, nothing is
// fetched, and the returned error matches ErrUnauthenticated. A failed fetch
// has already been reported through the notifier when Init returns it; the
// other fetch still completes and the view stays usable.
func (v *View) Init(ctx context.Context, store SessionStore) error {
	user, err := store.Load()
	if err != nil {
		v.rejectSession(store, err)
		return errors.Mark(errors.Wrap(err, "load session"), ErrUnauthenticated)
	}

	v.mu.Lock()
	v.user = &user
	v.mu.Unlock()
	v.logger.Debug("session loaded", "user_id", user.UserID)

	var g errgroup.Group
	g.Go(func() error { return v.RefreshEvents(ctx) })
	g.Go(func() error { return v.RefreshBookings(ctx) })
	return g.Wait()
}

func (v *View) rejectSession(store SessionStore, err error) {
	switch {
	case errors.Is(err, session.ErrMissingUserID):
		v.notifier.Error(msgInvalidUser)
	case errors.Is(err, session.ErrMalformed):
		if cerr := store.Clear(); cerr != nil {
			v.logger.Warn("failed to clear malformed session", "error", cerr)
		}
	}
	v.logger.Info("no usable session, redirecting to login", "reason", err)
	v.nav.RedirectToLogin()
}

// RefreshEvents replaces the event catalog. On failure the previous catalog
// is kept.
func (v *View) RefreshEvents(ctx context.Context) error {
	events, err := v.client.ListEvents(ctx)
	if err != nil {
		v.logger.Error("failed to load events", "error", err)
		v.notifier.Error(msgLoadEventsFailed)
		return errors.Wrap(err, "load events")
	}

	v.mu.Lock()
	v.events = events
	v.mu.Unlock()
	return nil
}

// RefreshBookings replaces the local booking list with the server's. On
// failure the previous list is kept.
func (v *View) RefreshBookings(ctx context.Context) error {
	user, ok := v.currentUser()
	if !ok {
		return ErrUnauthenticated
	}

	bookings, err := v.client.ListUserBookings(ctx, user.UserID)
	if err != nil {
		v.logger.Error("failed to load bookings", "user_id", user.UserID, "error", err)
		v.notifier.Error(msgLoadBookingFailed)
		return errors.Wrap(err, "load bookings")
	}

	v.mu.Lock()
	v.bookings = bookings
	v.mu.Unlock()
	return nil
}

// User returns the session user, if Init accepted one.
func (v *View) User() (model.SessionUser, bool) {
	return v.currentUser()
}

func (v *View) currentUser() (model.SessionUser, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.user == nil {
		return model.SessionUser{}, false
	}
	return *v.user, true
}

// Events returns a copy of the event catalog.
func (v *View) Events() []model.Event {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]model.Event(nil), v.events...)
}

// Bookings returns a copy of the local booking list.
func (v *View) Bookings() []model.Booking {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]model.Booking(nil), v.bookings...)
}

// IsBooked reports whether any booking in the local list references eventID.
func (v *View) IsBooked(eventID int64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.isBookedLocked(eventID)
}

func (v *View) isBookedLocked(eventID int64) bool {
	for _, b := range v.bookings {
		if b.EventID == eventID {
			return true
		}
	}
	return false
}

// Statuses projects every event onto the current booking list.
func (v *View) Statuses() []EventStatus {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]EventStatus, 0, len(v.events))
	for _, e := range v.events {
		out = append(out, EventStatus{Event: e, Booked: v.isBookedLocked(e.ID)})
	}
	return out
}

func (v *View) eventLocked(eventID int64) (model.Event, bool) {
	for _, e := range v.events {
		if e.ID == eventID {
			return e, true
		}
	}
	return model.Event{}, false
}

// Select marks eventID as the pending booking. Booked events and events
// with a booking in flight cannot be selected.
func (v *View) Select(eventID int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	e, ok := v.eventLocked(eventID)
	if !ok {
		return ErrUnknownEvent
	}
	if v.isBookedLocked(eventID) {
		return ErrAlreadyBooked
	}
	if _, busy := v.inflight[Target{Kind: ActionBook, ID: eventID}]; busy {
		return ErrInFlight
	}
	v.selected = &e
	return nil
}

func (v *View) Selected() (model.Event, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.selected == nil {
		return model.Event{}, false
	}
	return *v.selected, true
}

func (v *View) ClearSelection() {
	v.mu.Lock()
	v.selected = nil
	v.mu.Unlock()
}

// ConfirmSelection books the selected event.
func (v *View) ConfirmSelection(ctx context.Context) error {
	e, ok := v.Selected()
	if !ok {
		return ErrNoSelection
	}
	return v.Book(ctx, e.ID)
}
