// Package cli is the eventbook terminal front end.
package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/Shivanand-hulikatti/eventbook/internal/account"
	"github.com/Shivanand-hulikatti/eventbook/internal/apiclient"
	"github.com/Shivanand-hulikatti/eventbook/internal/booking"
	"github.com/Shivanand-hulikatti/eventbook/internal/config"
	"github.com/Shivanand-hulikatti/eventbook/internal/logger"
	"github.com/Shivanand-hulikatti/eventbook/internal/manage"
	"github.com/Shivanand-hulikatti/eventbook/internal/model"
	"github.com/Shivanand-hulikatti/eventbook/internal/notify"
	"github.com/Shivanand-hulikatti/eventbook/internal/session"

	"github.com/cockroachdb/errors"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitLogin = 2
	ExitUsage = 64
)

const usage = `usage: eventbook <command> [arguments]

commands:
  login   [-username name] [-password pw]   sign in and store the session
  signup  [-username name] [-password pw]   create an account and sign in
  logout                                    forget the stored session
  events                                    list events with your booking status
  bookings                                  list your bookings
  book    <eventId>                         book an event
  cancel  <bookingId>                       cancel one of your bookings
  admin   events                            list the catalog
  admin   create -name n -description d -start s -end e
  admin   update <eventId> -name n -description d -start s -end e
  admin   delete <eventId>
  admin   bookings <eventId>                list who booked an event
`

// App holds everything a command needs. Zero-valued fields are filled in
// from Config by Run.
type App struct {
	Config config.Client
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// HTTPClient overrides the transport; nil means a client with
	// Config.API.Timeout.
	HTTPClient *http.Client

	logger   *slog.Logger
	store    *session.FileStore
	client   *apiclient.Client
	notifier notify.Notifier
	nav      *loginHint
}

// loginHint turns a redirect to login into a printed hint.
type loginHint struct {
	w          io.Writer
	redirected atomic.Bool
}

func (n *loginHint) RedirectToLogin() {
	if n.redirected.Swap(true) {
		return
	}
	fmt.Fprintln(n.w, "Not signed in. Run `eventbook login` first.")
}

type command func(ctx context.Context, args []string) error

var errUsage = errors.New("usage")

// Run executes one command and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if err := a.setup(); err != nil {
		fmt.Fprintln(a.Stderr, "eventbook:", err)
		return ExitError
	}
	if len(args) == 0 {
		fmt.Fprint(a.Stderr, usage)
		return ExitUsage
	}

	commands := map[string]command{
		"login":    a.login,
		"signup":   a.signup,
		"logout":   a.logout,
		"events":   a.events,
		"bookings": a.bookings,
		"book":     a.book,
		"cancel":   a.cancel,
		"admin":    a.admin,
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(a.Stderr, "eventbook: unknown command %q\n\n%s", args[0], usage)
		return ExitUsage
	}

	err := cmd(ctx, args[1:])
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		fmt.Fprint(a.Stderr, usage)
		return ExitUsage
	case a.nav.redirected.Load(), errors.Is(err, booking.ErrUnauthenticated), errors.Is(err, manage.ErrUnauthenticated):
		a.nav.RedirectToLogin()
		return ExitLogin
	default:
		a.logger.Debug("command failed", "command", args[0], "error", err)
		return ExitError
	}
}

func (a *App) setup() error {
	if a.Stdin == nil {
		a.Stdin = strings.NewReader("")
	}
	if a.Stdout == nil {
		a.Stdout = io.Discard
	}
	if a.Stderr == nil {
		a.Stderr = io.Discard
	}
	a.logger = logger.New(a.Config.Log, a.Stderr)

	path, err := a.Config.Session.SessionPath()
	if err != nil {
		return err
	}
	a.store = session.NewFileStore(path)

	hc := a.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: a.Config.API.Timeout}
	}
	a.client = apiclient.New(a.Config.API.BaseURL,
		apiclient.WithAuthURL(a.Config.API.AuthBaseURL()),
		apiclient.WithToken(a.store.Token()),
		apiclient.WithHTTPClient(hc),
		apiclient.WithLogger(a.logger),
	)
	a.notifier = notify.NewConsole(a.Stderr)
	a.nav = &loginHint{w: a.Stderr}
	return nil
}

// ─── Account ──────────────────────────────────────────────────────────────────

func (a *App) credentials(name string, args []string) (model.Credentials, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var creds model.Credentials
	fs.StringVar(&creds.Username, "username", "", "account name")
	fs.StringVar(&creds.Password, "password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return creds, errors.Mark(err, errUsage)
	}

	in := bufio.NewReader(a.Stdin)
	prompt := func(label string, dst *string) {
		if *dst != "" {
			return
		}
		fmt.Fprintf(a.Stderr, "%s: ", label)
		line, _ := in.ReadString('\n')
		*dst = strings.TrimRight(line, "\r\n")
	}
	prompt("Username", &creds.Username)
	prompt("Password", &creds.Password)
	return creds, nil
}

func (a *App) accounts() *account.Service {
	return account.New(a.client, a.store, a.notifier, a.logger)
}

func (a *App) login(ctx context.Context, args []string) error {
	creds, err := a.credentials("login", args)
	if err != nil {
		return err
	}
	user, err := a.accounts().Login(ctx, creds)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Stdout, "Signed in as %s (%s)\n", user.Username, user.Role)
	return nil
}

func (a *App) signup(ctx context.Context, args []string) error {
	creds, err := a.credentials("signup", args)
	if err != nil {
		return err
	}
	user, err := a.accounts().Signup(ctx, creds)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Stdout, "Signed in as %s (%s)\n", user.Username, user.Role)
	return nil
}

func (a *App) logout(_ context.Context, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	return a.accounts().Logout()
}

// ─── Bookings ─────────────────────────────────────────────────────────────────

func (a *App) view(ctx context.Context) (*booking.View, error) {
	v := booking.New(a.client, a.notifier, a.nav,
		booking.WithLogger(a.logger),
		booking.WithConflictStatus(a.Config.API.ConflictStatus),
	)
	return v, v.Init(ctx, a.store)
}

func (a *App) events(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	v, err := a.view(ctx)
	if errors.Is(err, booking.ErrUnauthenticated) {
		return err
	}
	writeStatuses(a.Stdout, v.Statuses())
	return err
}

func (a *App) bookings(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	v, err := a.view(ctx)
	if errors.Is(err, booking.ErrUnauthenticated) {
		return err
	}
	writeBookings(a.Stdout, v.Bookings())
	return err
}

func (a *App) book(ctx context.Context, args []string) error {
	id, err := idArg(args)
	if err != nil {
		return err
	}
	v, err := a.view(ctx)
	if err != nil {
		return err
	}
	if err := v.Select(id); err != nil {
		switch {
		case errors.Is(err, booking.ErrUnknownEvent):
			a.notifier.Error(fmt.Sprintf("Event %d not found", id))
		case errors.Is(err, booking.ErrAlreadyBooked):
			a.notifier.Error("You have already booked this event")
		}
		return err
	}
	return v.ConfirmSelection(ctx)
}

func (a *App) cancel(ctx context.Context, args []string) error {
	id, err := idArg(args)
	if err != nil {
		return err
	}
	// Cancelling needs only the session, so a failed catalog or booking
	// load does not block it.
	v, err := a.view(ctx)
	if errors.Is(err, booking.ErrUnauthenticated) {
		return err
	}
	if err != nil {
		a.logger.Debug("cancel proceeding after partial load", "error", err)
	}
	return v.Cancel(ctx, id)
}

// ─── Admin ────────────────────────────────────────────────────────────────────

func (a *App) admin(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	d := manage.New(a.client, a.notifier, a.logger)
	if _, err := d.Authorize(a.store); err != nil {
		return err
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "events":
		events, err := d.Events(ctx)
		if err != nil {
			return err
		}
		writeEvents(a.Stdout, events)
		return nil
	case "create":
		req, err := eventFlags("create", rest)
		if err != nil {
			return err
		}
		e, err := d.CreateEvent(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Stdout, "Created event %d\n", e.ID)
		return nil
	case "update":
		if len(rest) == 0 {
			return errUsage
		}
		id, err := idArg(rest[:1])
		if err != nil {
			return err
		}
		req, err := eventFlags("update", rest[1:])
		if err != nil {
			return err
		}
		_, err = d.UpdateEvent(ctx, id, req)
		return err
	case "delete":
		id, err := idArg(rest)
		if err != nil {
			return err
		}
		return d.DeleteEvent(ctx, id)
	case "bookings":
		id, err := idArg(rest)
		if err != nil {
			return err
		}
		roster, err := d.BookingsForEvent(ctx, id)
		if err != nil {
			return err
		}
		writeRoster(a.Stdout, roster)
		return nil
	default:
		return errUsage
	}
}

func eventFlags(name string, args []string) (model.EventRequest, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var req model.EventRequest
	fs.StringVar(&req.Name, "name", "", "event name")
	fs.StringVar(&req.Description, "description", "", "event description")
	fs.StringVar(&req.StartDate, "start", "", "start date (YYYY-MM-DD or ISO-8601)")
	fs.StringVar(&req.EndDate, "end", "", "end date (YYYY-MM-DD or ISO-8601)")
	if err := fs.Parse(args); err != nil {
		return req, errors.Mark(err, errUsage)
	}
	if fs.NArg() != 0 {
		return req, errUsage
	}
	return req, nil
}

func idArg(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errUsage
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Mark(errors.Newf("invalid id %q", args[0]), errUsage)
	}
	return id, nil
}
