package manage

import (
	"context"
	"net/http"
	"testing"

	"github.com/Shivanand-hulikatti/eventbook/internal/apiclient"
	"github.com/Shivanand-hulikatti/eventbook/internal/model"
	"github.com/Shivanand-hulikatti/eventbook/internal/notify"
	"github.com/Shivanand-hulikatti/eventbook/internal/session"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	events   []model.Event
	bookings []model.Booking
	err      error
	created  []model.EventRequest
	deleted  []int64
}

func (f *fakeClient) ListEvents(context.Context) ([]model.Event, error) { return f.events, f.err }

func (f *fakeClient) CreateEvent(_ context.Context, req model.EventRequest) (*model.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, req)
	return &model.Event{ID: 3, Name: req.Name, Description: req.Description, StartDate: req.StartDate, EndDate: req.EndDate}, nil
}

func (f *fakeClient) UpdateEvent(_ context.Context, id int64, req model.EventRequest) (*model.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.Event{ID: id, Name: req.Name}, nil
}

func (f *fakeClient) DeleteEvent(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeClient) ListBookings(context.Context) ([]model.Booking, error) { return f.bookings, f.err }

type userStore struct {
	user model.SessionUser
	err  error
}

func (s userStore) Load() (model.SessionUser, error) { return s.user, s.err }

var validEvent = model.EventRequest{
	Name:        "Go Meetup",
	Description: "An evening of lightning talks.",
	StartDate:   "2025-12-01",
	EndDate:     "2025-12-01",
}

func TestAuthorize(t *testing.T) {
	rec := &notify.Recorder{}
	d := New(&fakeClient{}, rec, nil)

	_, err := d.Authorize(userStore{err: session.ErrNoSession})
	assert.True(t, errors.Is(err, ErrUnauthenticated))

	_, err = d.Authorize(userStore{user: model.SessionUser{UserID: 7, Username: "jane", Role: "User"}})
	assert.True(t, errors.Is(err, ErrNotAdmin))
	assert.Equal(t, "Admin access required", rec.Last().Text)

	user, err := d.Authorize(userStore{user: model.SessionUser{UserID: 1, Username: "admin", Role: "Admin"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.UserID)
}

func TestValidateEvent(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.EventRequest)
		want   string
	}{
		{name: "valid", mutate: func(*model.EventRequest) {}},
		{name: "missing name", mutate: func(r *model.EventRequest) { r.Name = "" }, want: "Event name is required"},
		{name: "missing description", mutate: func(r *model.EventRequest) { r.Description = " " }, want: "Description is required"},
		{name: "missing end", mutate: func(r *model.EventRequest) { r.EndDate = "" }, want: "End date is required"},
		{name: "bad start", mutate: func(r *model.EventRequest) { r.StartDate = "soon" }, want: "Start date is not a valid date"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validEvent
			tc.mutate(&req)
			err := ValidateEvent(req)
			if tc.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrInvalidEvent))
			assert.Equal(t, tc.want, err.Error())
		})
	}
}

func TestCreateEvent(t *testing.T) {
	client := &fakeClient{}
	rec := &notify.Recorder{}
	d := New(client, rec, nil)

	event, err := d.CreateEvent(t.Context(), validEvent)
	require.NoError(t, err)
	assert.Equal(t, int64(3), event.ID)
	assert.Equal(t, notify.Message{Kind: notify.KindSuccess, Text: `Event "Go Meetup" created successfully!`}, rec.Last())

	bad := validEvent
	bad.Name = ""
	_, err = d.CreateEvent(t.Context(), bad)
	require.Error(t, err)
	assert.Len(t, client.created, 1, "invalid input never reaches the server")
}

func TestWriteFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "server message", err: &apiclient.StatusError{Status: http.StatusBadRequest, Message: "endDate must not be before startDate"}, want: "Failed to create event: endDate must not be before startDate"},
		{name: "transport", err: errors.Mark(errors.New("refused"), apiclient.ErrTransport), want: "Error connecting to server"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &notify.Recorder{}
			d := New(&fakeClient{err: tc.err}, rec, nil)
			_, err := d.CreateEvent(t.Context(), validEvent)
			require.Error(t, err)
			assert.Equal(t, notify.Message{Kind: notify.KindError, Text: tc.want}, rec.Last())
		})
	}
}

func TestUpdateAndDelete(t *testing.T) {
	client := &fakeClient{}
	rec := &notify.Recorder{}
	d := New(client, rec, nil)

	_, err := d.UpdateEvent(t.Context(), 2, validEvent)
	require.NoError(t, err)
	assert.Equal(t, "Event updated successfully!", rec.Last().Text)

	require.NoError(t, d.DeleteEvent(t.Context(), 2))
	assert.Equal(t, []int64{2}, client.deleted)
	assert.Equal(t, "Event deleted successfully!", rec.Last().Text)

	client.err = &apiclient.StatusError{Status: http.StatusNotFound, Message: "event not found"}
	require.Error(t, d.DeleteEvent(t.Context(), 9))
	assert.Equal(t, "Failed to delete event: event not found", rec.Last().Text)
}

func TestBookingsForEvent(t *testing.T) {
	client := &fakeClient{bookings: []model.Booking{
		{ID: 101, EventID: 1, UserID: 7},
		{ID: 102, EventID: 2, UserID: 7},
		{ID: 103, EventID: 1, UserID: 8},
	}}
	d := New(client, &notify.Recorder{}, nil)

	got, err := d.BookingsForEvent(t.Context(), 1)
	require.NoError(t, err)
	want := []model.Booking{{ID: 101, EventID: 1, UserID: 7}, {ID: 103, EventID: 1, UserID: 8}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("roster mismatch (-want +got):\n%s", diff)
	}

	client.err = errors.New("boom")
	client.bookings = nil
	_, err = d.BookingsForEvent(t.Context(), 1)
	require.Error(t, err)
}
