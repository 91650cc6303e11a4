// Package service implements the development API's rules between the HTTP
// handlers and the repository layer.
package service

import (
	"strings"

	"github.com/Shivanand-hulikatti/eventbook/internal/model"
	"github.com/Shivanand-hulikatti/eventbook/internal/repository"

	"github.com/cockroachdb/errors"
)

// ErrValidation marks request errors the client can fix.
var ErrValidation = errors.New("validation failed")

// ErrForbidden is returned when acting on another user's booking.
var ErrForbidden = errors.New("forbidden")

func invalid(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrValidation)
}

// EventService orchestrates event operations.
type EventService struct {
	events *repository.EventRepository
}

func NewEventService(events *repository.EventRepository) *EventService {
	return &EventService{events: events}
}

func validateEvent(req *model.EventRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return invalid("event name is required")
	}
	if req.StartDate == "" || req.EndDate == "" {
		return invalid("startDate and endDate are required")
	}
	start, err := model.ParseDate(req.StartDate)
	if err != nil {
		return invalid("startDate is not an ISO-8601 date")
	}
	end, err := model.ParseDate(req.EndDate)
	if err != nil {
		return invalid("endDate is not an ISO-8601 date")
	}
	if end.Before(start) {
		return invalid("endDate must not be before startDate")
	}
	return nil
}

func (s *EventService) CreateEvent(req model.EventRequest) (model.Event, error) {
	if err := validateEvent(&req); err != nil {
		return model.Event{}, err
	}
	return s.events.Create(req), nil
}

func (s *EventService) UpdateEvent(id int64, req model.EventRequest) (model.Event, error) {
	if err := validateEvent(&req); err != nil {
		return model.Event{}, err
	}
	return s.events.Update(id, req)
}

func (s *EventService) ListEvents() []model.Event {
	return s.events.List()
}

func (s *EventService) GetEvent(id int64) (model.Event, error) {
	return s.events.GetByID(id)
}

func (s *EventService) DeleteEvent(id int64) error {
	return s.events.Delete(id)
}

// BookingService orchestrates booking operations.
type BookingService struct {
	bookings *repository.BookingRepository
}

func NewBookingService(bookings *repository.BookingRepository) *BookingService {
	return &BookingService{bookings: bookings}
}

// Book creates a booking. actor is the authenticated user id, or 0 when the
// request carried no token.
func (s *BookingService) Book(actor int64, req model.CreateBookingRequest) (model.Booking, error) {
	if req.EventID <= 0 || req.UserID <= 0 {
		return model.Booking{}, invalid("eventId and userId are required")
	}
	if actor != 0 && actor != req.UserID {
		return model.Booking{}, ErrForbidden
	}
	return s.bookings.Book(req.EventID, req.UserID)
}

func (s *BookingService) ListAll() []model.Booking {
	return s.bookings.List()
}

func (s *BookingService) ListByUser(userID int64) []model.Booking {
	return s.bookings.ListByUser(userID)
}

// Cancel deletes bookingID on behalf of userID. A booking that exists but
// belongs to someone else is forbidden, not missing.
func (s *BookingService) Cancel(actor, bookingID, userID int64) error {
	if actor != 0 && actor != userID {
		return ErrForbidden
	}
	b, err := s.bookings.GetByID(bookingID)
	if err != nil {
		return err
	}
	if b.UserID != userID {
		return ErrForbidden
	}
	return s.bookings.Delete(bookingID)
}
