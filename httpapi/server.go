package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"rentflow/auth"
	"rentflow/car"
	"rentflow/reservation"
	"rentflow/storage"
)

// AuthService is the authentication surface consumed by the handlers.
type AuthService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.User, error)
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResult, error)
	Logout(ctx context.Context, token string) error
	VerifyToken(ctx context.Context, token string) (string, auth.Role, error)
}

// CarService is the inventory surface consumed by the handlers.
type CarService interface {
	Create(ctx context.Context, params car.CreateParams) (car.Car, error)
	GetByID(ctx context.Context, id string) (car.Car, error)
	List(ctx context.Context, filter car.Filter) ([]car.Car, error)
	Update(ctx context.Context, id string, params car.UpdateParams) (car.Car, error)
	Delete(ctx context.Context, id string) error
}

// LedgerService is the availability-ledger surface consumed by the handlers.
type LedgerService interface {
	AddAvailableDate(ctx context.Context, carID, date string) error
	RemoveAvailableDate(ctx context.Context, carID, date string) error
	AvailableDates(ctx context.Context, carID string) ([]string, error)
	Reserve(ctx context.Context, params reservation.ReserveParams) (reservation.Reservation, error)
	Cancel(ctx context.Context, reservationID string) error
	ListForUser(ctx context.Context, userID string) ([]reservation.Detail, error)
	ListAll(ctx context.Context) ([]reservation.Detail, error)
}

// Server wires the booking services to their HTTP surface.
type Server struct {
	authService   AuthService
	carService    CarService
	ledgerService LedgerService

	// images is nil when object storage is not configured; the upload
	// endpoint answers 503 in that case.
	images            storage.ObjectStore
	allowedExtensions []string

	logger *slog.Logger
}

// Config collects the server's dependencies.
type Config struct {
	Auth              AuthService
	Cars              CarService
	Ledger            LedgerService
	Images            storage.ObjectStore
	AllowedExtensions []string
	Logger            *slog.Logger
}

// NewServer builds the handler set.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	extensions := cfg.AllowedExtensions
	if len(extensions) == 0 {
		extensions = []string{"jpg", "jpeg", "png"}
	}
	return &Server{
		authService:       cfg.Auth,
		carService:        cfg.Cars,
		ledgerService:     cfg.Ledger,
		images:            cfg.Images,
		allowedExtensions: extensions,
		logger:            logger,
	}
}

// Router creates the chi router with all routes configured.
func (s *Server) Router(corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if len(corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   corsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
		}))
	}

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.With(s.requireAuth).Post("/logout", s.handleLogout)
		})

		r.Route("/cars", func(r chi.Router) {
			r.Get("/", s.handleListCars)
			r.With(s.requireAuth, s.requireAdmin).Post("/", s.handleCreateCar)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetCar)
				r.With(s.requireAuth, s.requireAdmin).Put("/", s.handleUpdateCar)
				r.With(s.requireAuth, s.requireAdmin).Delete("/", s.handleDeleteCar)

				r.Get("/dates", s.handleListDates)
				r.With(s.requireAuth, s.requireAdmin).Post("/dates", s.handleAddDate)
				r.With(s.requireAuth, s.requireAdmin).Delete("/dates/{date}", s.handleRemoveDate)

				r.With(s.requireAuth, s.requireAdmin).Post("/images", s.handleUploadImage)
			})
		})

		r.Route("/reservations", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/", s.handleListReservations)
			r.Post("/", s.handleReserve)
			r.Delete("/{id}", s.handleCancelReservation)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
