// Package manage is the administrator's event dashboard: catalog CRUD and a
// per-event booking roster.
package manage

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Shivanand-hulikatti/eventbook/internal/apiclient"
	"github.com/Shivanand-hulikatti/eventbook/internal/logger"
	"github.com/Shivanand-hulikatti/eventbook/internal/model"
	"github.com/Shivanand-hulikatti/eventbook/internal/notify"

	"github.com/cockroachdb/errors"
)

var (
	ErrUnauthenticated = errors.New("no authenticated session")
	ErrNotAdmin        = errors.New("admin role required")
	ErrInvalidEvent    = errors.New("invalid event")
)

const (
	roleAdmin = "Admin"

	msgLoadEventsFailed   = "Failed to load events"
	msgLoadBookingsFailed = "Failed to load bookings"
	msgConnect            = "Error connecting to server"
	msgAdminOnly          = "Admin access required"
	msgEventUpdated       = "Event updated successfully!"
	msgEventDeleted       = "Event deleted successfully!"
)

// Client is the slice of the REST API the dashboard needs.
type Client interface {
	ListEvents(ctx context.Context) ([]model.Event, error)
	CreateEvent(ctx context.Context, req model.EventRequest) (*model.Event, error)
	UpdateEvent(ctx context.Context, id int64, req model.EventRequest) (*model.Event, error)
	DeleteEvent(ctx context.Context, id int64) error
	ListBookings(ctx context.Context) ([]model.Booking, error)
}

// SessionStore yields the logged-in user.
type SessionStore interface {
	Load() (model.SessionUser, error)
}

type Dashboard struct {
	client   Client
	notifier notify.Notifier
	logger   *slog.Logger
}

func New(client Client, notifier notify.Notifier, l *slog.Logger) *Dashboard {
	if l == nil {
		l = logger.Discard()
	}
	return &Dashboard{client: client, notifier: notifier, logger: l}
}

// Authorize checks that the stored session belongs to an administrator.
func (d *Dashboard) Authorize(store SessionStore) (model.SessionUser, error) {
	user, err := store.Load()
	if err != nil {
		return model.SessionUser{}, errors.Mark(errors.Wrap(err, "load session"), ErrUnauthenticated)
	}
	if user.Role != roleAdmin {
		d.notifier.Error(msgAdminOnly)
		return model.SessionUser{}, errors.Mark(errors.Newf("user %q has role %q", user.Username, user.Role), ErrNotAdmin)
	}
	return user, nil
}

// ValidateEvent checks that every field is present and both dates parse.
// Ordering and length rules are left to the server.
func ValidateEvent(req model.EventRequest) error {
	fail := func(msg string) error { return errors.Mark(errors.New(msg), ErrInvalidEvent) }

	switch {
	case strings.TrimSpace(req.Name) == "":
		return fail("Event name is required")
	case strings.TrimSpace(req.Description) == "":
		return fail("Description is required")
	case req.StartDate == "":
		return fail("Start date is required")
	case req.EndDate == "":
		return fail("End date is required")
	}
	if _, err := model.ParseDate(req.StartDate); err != nil {
		return fail("Start date is not a valid date")
	}
	if _, err := model.ParseDate(req.EndDate); err != nil {
		return fail("End date is not a valid date")
	}
	return nil
}

func (d *Dashboard) Events(ctx context.Context) ([]model.Event, error) {
	events, err := d.client.ListEvents(ctx)
	if err != nil {
		d.logger.Error("list events failed", "error", err)
		d.notifier.Error(msgLoadEventsFailed)
		return nil, err
	}
	return events, nil
}

func (d *Dashboard) CreateEvent(ctx context.Context, req model.EventRequest) (*model.Event, error) {
	if err := ValidateEvent(req); err != nil {
		d.notifier.Error(err.Error())
		return nil, err
	}

	event, err := d.client.CreateEvent(ctx, req)
	if err != nil {
		d.writeFailed("create", err)
		return nil, err
	}
	name := req.Name
	if event != nil && event.Name != "" {
		name = event.Name
	}
	d.notifier.Success(`Event "` + name + `" created successfully!`)
	return event, nil
}

func (d *Dashboard) UpdateEvent(ctx context.Context, id int64, req model.EventRequest) (*model.Event, error) {
	if err := ValidateEvent(req); err != nil {
		d.notifier.Error(err.Error())
		return nil, err
	}

	event, err := d.client.UpdateEvent(ctx, id, req)
	if err != nil {
		d.writeFailed("update", err)
		return nil, err
	}
	d.notifier.Success(msgEventUpdated)
	return event, nil
}

func (d *Dashboard) DeleteEvent(ctx context.Context, id int64) error {
	if err := d.client.DeleteEvent(ctx, id); err != nil {
		d.writeFailed("delete", err)
		return err
	}
	d.notifier.Success(msgEventDeleted)
	return nil
}

// BookingsForEvent returns every booking that references eventID.
func (d *Dashboard) BookingsForEvent(ctx context.Context, eventID int64) ([]model.Booking, error) {
	all, err := d.client.ListBookings(ctx)
	if err != nil {
		d.logger.Error("list bookings failed", "error", err)
		d.notifier.Error(msgLoadBookingsFailed)
		return nil, err
	}
	var out []model.Booking
	for _, b := range all {
		if b.EventID == eventID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (d *Dashboard) writeFailed(verb string, err error) {
	d.logger.Error(verb+" event failed", "error", err)
	if apiclient.IsTransport(err) {
		d.notifier.Error(msgConnect)
		return
	}
	msg := apiclient.MessageOf(err)
	if msg == "" {
		msg = err.Error()
	}
	d.notifier.Error("Failed to " + verb + " event: " + msg)
}
