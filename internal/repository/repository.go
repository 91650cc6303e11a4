// Package repository is the in-memory store behind the development API.
// Every write happens under a single lock, so a check-then-insert (such as
// the duplicate booking check) is atomic.
package repository

import (
	"sort"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/eventbook/internal/model"

	"github.com/cockroachdb/errors"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyBooked is returned when the same user books an event twice.
var ErrAlreadyBooked = errors.New("user already booked this event")

// ErrUsernameTaken is returned when registering an existing username.
var ErrUsernameTaken = errors.New("username already taken")

// User is a stored account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         string
}

// DB holds all tables.
type DB struct {
	mu sync.Mutex

	events   map[int64]model.Event
	bookings map[int64]model.Booking
	users    map[int64]User

	nextEventID   int64
	nextBookingID int64
	nextUserID    int64

	now func() time.Time
}

// NewDB returns an empty store. Booking ids start at 101 so they are easy to
// tell apart from event ids in logs.
func NewDB() *DB {
	return &DB{
		events:        make(map[int64]model.Event),
		bookings:      make(map[int64]model.Booking),
		users:         make(map[int64]User),
		nextEventID:   1,
		nextBookingID: 101,
		nextUserID:    1,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// EventRepository handles persistence for events.
type EventRepository struct {
	db *DB
}

func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event and assigns its id.
func (r *EventRepository) Create(req model.EventRequest) model.Event {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	e := model.Event{
		ID:          r.db.nextEventID,
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	r.db.nextEventID++
	r.db.events[e.ID] = e
	return e
}

// List returns all events ordered by id.
func (r *EventRepository) List() []model.Event {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	events := make([]model.Event, 0, len(r.db.events))
	for _, e := range r.db.events {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events
}

// GetByID returns a single event or ErrNotFound.
func (r *EventRepository) GetByID(id int64) (model.Event, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	e, ok := r.db.events[id]
	if !ok {
		return model.Event{}, ErrNotFound
	}
	return e, nil
}

// Update replaces an event's fields and refreshes the denormalized event
// name on its bookings.
func (r *EventRepository) Update(id int64, req model.EventRequest) (model.Event, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.events[id]; !ok {
		return model.Event{}, ErrNotFound
	}
	e := model.Event{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	r.db.events[id] = e
	for bid, b := range r.db.bookings {
		if b.EventID == id {
			b.EventName = e.Name
			r.db.bookings[bid] = b
		}
	}
	return e, nil
}

// Delete removes an event together with its bookings.
func (r *EventRepository) Delete(id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.events[id]; !ok {
		return ErrNotFound
	}
	delete(r.db.events, id)
	for bid, b := range r.db.bookings {
		if b.EventID == id {
			delete(r.db.bookings, bid)
		}
	}
	return nil
}

// BookingRepository handles persistence for bookings.
type BookingRepository struct {
	db *DB
}

func NewBookingRepository(db *DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Book creates a booking for (eventID, userID). The event and user must
// exist, and the pair must not already be booked.
func (r *BookingRepository) Book(eventID, userID int64) (model.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	event, ok := r.db.events[eventID]
	if !ok {
		return model.Booking{}, errors.Wrap(ErrNotFound, "event")
	}
	user, ok := r.db.users[userID]
	if !ok {
		return model.Booking{}, errors.Wrap(ErrNotFound, "user")
	}
	for _, b := range r.db.bookings {
		if b.EventID == eventID && b.UserID == userID {
			return model.Booking{}, ErrAlreadyBooked
		}
	}

	b := model.Booking{
		ID:          r.db.nextBookingID,
		EventID:     eventID,
		UserID:      userID,
		EventName:   event.Name,
		UserName:    user.Username,
		BookingDate: r.db.now().Format(time.RFC3339),
	}
	r.db.nextBookingID++
	r.db.bookings[b.ID] = b
	return b, nil
}

// GetByID returns a single booking or ErrNotFound.
func (r *BookingRepository) GetByID(id int64) (model.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	b, ok := r.db.bookings[id]
	if !ok {
		return model.Booking{}, ErrNotFound
	}
	return b, nil
}

// List returns every booking ordered by id.
func (r *BookingRepository) List() []model.Booking {
	return r.filter(func(model.Booking) bool { return true })
}

// ListByUser returns a user's bookings ordered by id.
func (r *BookingRepository) ListByUser(userID int64) []model.Booking {
	return r.filter(func(b model.Booking) bool { return b.UserID == userID })
}

func (r *BookingRepository) filter(keep func(model.Booking) bool) []model.Booking {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := make([]model.Booking, 0)
	for _, b := range r.db.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Delete removes a booking or returns ErrNotFound.
func (r *BookingRepository) Delete(id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.bookings[id]; !ok {
		return ErrNotFound
	}
	delete(r.db.bookings, id)
	return nil
}

// UserRepository handles persistence for accounts.
type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user or returns ErrUsernameTaken.
func (r *UserRepository) Create(username, passwordHash, role string) (User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Username == username {
			return User{}, ErrUsernameTaken
		}
	}
	u := User{ID: r.db.nextUserID, Username: username, PasswordHash: passwordHash, Role: role}
	r.db.nextUserID++
	r.db.users[u.ID] = u
	return u, nil
}

// GetByUsername returns a user or ErrNotFound.
func (r *UserRepository) GetByUsername(username string) (User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}
