package handler

import (
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/eventbook/internal/config"
	"github.com/Shivanand-hulikatti/eventbook/internal/model"
	"github.com/Shivanand-hulikatti/eventbook/internal/repository"
	"github.com/Shivanand-hulikatti/eventbook/internal/service"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Services bundles what the router needs.
type Services struct {
	Events   *service.EventService
	Bookings *service.BookingService
	Auth     *service.AuthService
}

// NewServices wires the services over a fresh in-memory database.
func NewServices(cfg config.Server) Services {
	db := repository.NewDB()
	return Services{
		Events:   service.NewEventService(repository.NewEventRepository(db)),
		Bookings: service.NewBookingService(repository.NewBookingRepository(db)),
		Auth:     service.NewAuthService(repository.NewUserRepository(db), cfg.JWT.Secret, cfg.JWT.Duration),
	}
}

// NewRouter builds the development API.
func NewRouter(svc Services, cfg config.Server, logger *slog.Logger) http.Handler {
	events := NewEventHandler(svc.Events)
	bookings := NewBookingHandler(svc.Bookings)
	auth := NewAuthHandler(svc.Auth)

	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(logger))          // structured access log
	r.Use(CORS(cfg.CORS))

	r.Get("/health", HealthCheck)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", auth.Login)
		r.Post("/register", auth.Register)
	})

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(svc.Auth))

		r.Route("/api/Events", func(r chi.Router) {
			r.Get("/", events.ListEvents)
			r.Post("/", events.CreateEvent)
			r.Get("/{id}", events.GetEvent)
			r.Put("/{id}", events.UpdateEvent)
			r.Delete("/{id}", events.DeleteEvent)
		})

		r.Route("/api/EventBookings", func(r chi.Router) {
			r.Get("/", bookings.ListBookings)
			r.Post("/", bookings.CreateBooking)
			r.Get("/user/{userId}", bookings.ListUserBookings)
			r.Delete("/{id}/user/{userId}", bookings.DeleteBooking)
		})
	})

	return r
}

// Seed loads the sample catalog and a default admin account.
func Seed(svc Services, cfg config.SeedConfig, logger *slog.Logger) error {
	samples := []model.EventRequest{
		{Name: "Tech Summit 2024", Description: "Two days of talks on platform engineering.", StartDate: "2025-10-01", EndDate: "2025-10-03"},
		{Name: "Workshop on AI", Description: "Hands-on introduction to applied machine learning.", StartDate: "2025-11-05", EndDate: "2025-11-05"},
	}
	for _, req := range samples {
		if _, err := svc.Events.CreateEvent(req); err != nil {
			return errors.Wrapf(err, "seed event %q", req.Name)
		}
	}
	if cfg.AdminUser != "" {
		if _, err := svc.Auth.RegisterAdmin(model.Credentials{Username: cfg.AdminUser, Password: cfg.AdminPassword}); err != nil {
			return errors.Wrap(err, "seed admin")
		}
	}
	logger.Info("seeded development data", "events", len(samples), "admin", cfg.AdminUser)
	return nil
}
