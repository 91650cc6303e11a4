package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Shivanand-hulikatti/eventbook/internal/booking"
	"github.com/Shivanand-hulikatti/eventbook/internal/model"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func writeStatuses(w io.Writer, statuses []booking.EventStatus) {
	if len(statuses) == 0 {
		fmt.Fprintln(w, "No events available")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tSTART\tEND\tSTATUS")
	for _, s := range statuses {
		status := "Available"
		if s.Booked {
			status = "Booked"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", s.Event.ID, s.Event.Name,
			model.FormatDate(s.Event.StartDate), model.FormatDate(s.Event.EndDate), status)
	}
	tw.Flush()
}

func writeEvents(w io.Writer, events []model.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events available")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tSTART\tEND\tDESCRIPTION")
	for _, e := range events {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.Name,
			model.FormatDate(e.StartDate), model.FormatDate(e.EndDate), e.Description)
	}
	tw.Flush()
}

func writeBookings(w io.Writer, bookings []model.Booking) {
	if len(bookings) == 0 {
		fmt.Fprintln(w, "You have no bookings")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "BOOKING\tEVENT\tNAME\tBOOKED ON")
	for _, b := range bookings {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", b.ID, b.EventID, b.EventName, model.FormatDate(b.BookingDate))
	}
	tw.Flush()
}

func writeRoster(w io.Writer, bookings []model.Booking) {
	if len(bookings) == 0 {
		fmt.Fprintln(w, "No bookings for this event")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "BOOKING\tUSER\tUSERNAME\tBOOKED ON")
	for _, b := range bookings {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", b.ID, b.UserID, b.UserName, model.FormatDate(b.BookingDate))
	}
	tw.Flush()
}
