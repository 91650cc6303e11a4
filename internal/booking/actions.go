package booking

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Shivanand-hulikatti/eventbook/internal/apiclient"
	"github.com/Shivanand-hulikatti/eventbook/internal/model"

	"github.com/cockroachdb/errors"
)

type ActionKind string

const (
	ActionBook   ActionKind = "book"
	ActionCancel ActionKind = "cancel"
)

// Target identifies the control an action was triggered from: an event for
// Book, a booking for Cancel.
type Target struct {
	Kind ActionKind
	ID   int64
}

// ActionState is the per-invocation lifecycle:
// Idle → Submitting → Succeeded|Failed → Idle.
type ActionState int

const (
	Idle ActionState = iota
	Submitting
	Succeeded
	Failed
)

func (s ActionState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("ActionState(%d)", int(s))
	}
}

// State reports whether an action on t is in flight.
func (v *View) State(t Target) ActionState {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, busy := v.inflight[t]; busy {
		return Submitting
	}
	return Idle
}

func (v *View) begin(t Target) error {
	v.mu.Lock()
	if _, busy := v.inflight[t]; busy {
		v.mu.Unlock()
		return ErrInFlight
	}
	v.inflight[t] = struct{}{}
	v.mu.Unlock()

	v.observe(t, Submitting)
	return nil
}

// finish must run after the action's notification has been issued.
func (v *View) finish(t Target, err error) {
	if err != nil {
		v.observe(t, Failed)
	} else {
		v.observe(t, Succeeded)
	}

	v.mu.Lock()
	delete(v.inflight, t)
	v.mu.Unlock()

	v.observe(t, Idle)
}

func (v *View) observe(t Target, s ActionState) {
	if v.observer != nil {
		v.observer(t, s)
	}
}

// Book creates a booking for eventID. The local list is only touched once the
// server has confirmed, and then with the server's record.
func (v *View) Book(ctx context.Context, eventID int64) error {
	user, ok := v.currentUser()
	if !ok {
		v.notifier.Error(msgUserNotFound)
		return ErrUnauthenticated
	}
	if v.IsBooked(eventID) {
		v.notifier.Error(msgAlreadyBooked)
		return ErrAlreadyBooked
	}

	t := Target{Kind: ActionBook, ID: eventID}
	if err := v.begin(t); err != nil {
		return err
	}

	created, err := v.client.CreateBooking(ctx, model.CreateBookingRequest{EventID: eventID, UserID: user.UserID})
	if apiclient.IsUndecodable(err) {
		// A 2xx means the booking exists; only the record is missing.
		v.logger.Warn("booking response could not be decoded", "event_id", eventID, "error", err)
		created, err = nil, nil
	}
	if err != nil {
		err = v.bookFailed(eventID, err)
		v.finish(t, err)
		return err
	}

	if created == nil {
		created = &model.Booking{}
	}

	v.mu.Lock()
	name := created.EventName
	if e, ok := v.eventLocked(eventID); ok {
		name = e.Name
	}
	reconcile := created.ID == 0
	if !reconcile {
		v.bookings = append(v.bookings, *created)
	}
	v.selected = nil
	v.mu.Unlock()

	if reconcile {
		// The server confirmed without returning the record.
		v.logger.Warn("booking created without a record in the response, re-fetching", "event_id", eventID)
		if rerr := v.RefreshBookings(ctx); rerr != nil {
			v.logger.Error("resync after booking without record failed", "event_id", eventID, "error", rerr)
		}
	}
	if name == "" {
		name = fmt.Sprintf("event #%d", eventID)
	}

	v.logger.Info("booking created", "event_id", eventID, "booking_id", created.ID, "user_id", user.UserID)
	v.notifier.Success(fmt.Sprintf("Successfully booked %s!", name))
	v.finish(t, nil)
	return nil
}

func (v *View) bookFailed(eventID int64, err error) error {
	v.logger.Warn("booking failed", "event_id", eventID, "status", apiclient.StatusOf(err), "error", err)

	if apiclient.StatusOf(err) == v.conflictStatus {
		v.notifier.Error(msgAlreadyBooked)
		return errors.Mark(errors.Wrapf(err, "book event %d", eventID), ErrConflict)
	}

	msg := apiclient.MessageOf(err)
	if msg == "" {
		msg = msgBookFailed
	}
	v.notifier.Error(msg)
	return errors.Wrapf(err, "book event %d", eventID)
}

// Cancel deletes bookingID. A booking the server no longer has is treated as
// a divergence: the user's bookings are re-fetched so the list reflects the
// server.
func (v *View) Cancel(ctx context.Context, bookingID int64) error {
	user, ok := v.currentUser()
	if !ok {
		v.notifier.Error(msgUserNotFound)
		return ErrUnauthenticated
	}

	t := Target{Kind: ActionCancel, ID: bookingID}
	if err := v.begin(t); err != nil {
		return err
	}

	if err := v.client.DeleteBooking(ctx, bookingID, user.UserID); err != nil {
		err = v.cancelFailed(ctx, bookingID, err)
		v.finish(t, err)
		return err
	}

	v.mu.Lock()
	v.bookings = withoutBooking(v.bookings, bookingID)
	v.mu.Unlock()

	v.logger.Info("booking deleted", "booking_id", bookingID, "user_id", user.UserID)
	v.notifier.Success(msgCancelled)
	v.finish(t, nil)
	return nil
}

func (v *View) cancelFailed(ctx context.Context, bookingID int64, err error) error {
	status := apiclient.StatusOf(err)
	v.logger.Warn("cancel failed", "booking_id", bookingID, "status", status, "error", err)
	wrapped := errors.Wrapf(err, "cancel booking %d", bookingID)

	switch {
	case apiclient.IsTransport(err):
		v.notifier.Error(msgNetwork)
		return wrapped
	case status == http.StatusNotFound:
		v.notifier.Error(msgBookingGone)
		if rerr := v.RefreshBookings(ctx); rerr != nil {
			v.logger.Error("resync after missing booking failed", "booking_id", bookingID, "error", rerr)
		}
		return errors.Mark(wrapped, ErrNotFound)
	case status == http.StatusForbidden:
		v.notifier.Error(msgForbidden)
		return errors.Mark(wrapped, ErrForbidden)
	case status == http.StatusUnauthorized:
		v.notifier.Error(msgLoginAgain)
		v.nav.RedirectToLogin()
		return errors.Mark(wrapped, ErrUnauthenticated)
	case status != 0:
		msg := apiclient.MessageOf(err)
		if msg == "" {
			msg = msgCancelFailed
		}
		v.notifier.Error(msg)
		return wrapped
	default:
		v.notifier.Error(msgUnexpected)
		return wrapped
	}
}

func withoutBooking(bookings []model.Booking, id int64) []model.Booking {
	out := make([]model.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}
