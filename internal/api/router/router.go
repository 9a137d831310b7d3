package router

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dentalops/clinic-platform/internal/appointments"
	"github.com/dentalops/clinic-platform/internal/availability"
	"github.com/dentalops/clinic-platform/internal/branches"
	"github.com/dentalops/clinic-platform/internal/clinic"
	"github.com/dentalops/clinic-platform/internal/doctors"
	"github.com/dentalops/clinic-platform/internal/http/handlers"
	httpmiddleware "github.com/dentalops/clinic-platform/internal/http/middleware"
	"github.com/dentalops/clinic-platform/internal/invoices"
	"github.com/dentalops/clinic-platform/internal/scheduling"
	"github.com/dentalops/clinic-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	BranchesHandler     *branches.Handler
	DoctorsHandler      *doctors.Handler
	AvailabilityHandler *availability.Handler
	AppointmentsHandler *appointments.Handler
	InvoicesHandler     *invoices.Handler
	SlotsHandler        *scheduling.Handler
	SettingsHandler     *clinic.Handler
	ClinicStatsHandler  *clinic.StatsHandler
	ClinicDashboard     *clinic.DashboardHandler
	MetricsHandler      http.Handler

	// BookingToken, when set, is required on public booking requests.
	BookingToken string

	// StaffAuthSecret signs staff and admin JWTs. Staff and admin routes
	// are disabled when empty.
	StaffAuthSecret string

	CORSAllowedOrigins []string

	// Public booking rate limit. Zero disables rate limiting.
	RateLimitPerSec float64
	RateLimitBurst  int

	// Doctor portal dependencies (optional)
	DB *sql.DB
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Public endpoints (booking frontend)
	r.Group(func(public chi.Router) {
		if cfg.RateLimitPerSec > 0 {
			public.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSec, cfg.RateLimitBurst))
		}

		if cfg.BranchesHandler != nil {
			public.Get("/branches", cfg.BranchesHandler.List)
			public.Get("/branches/{code}", cfg.BranchesHandler.Get)
			public.Get("/branches/{code}/hours", cfg.BranchesHandler.Hours)
		}
		if cfg.DoctorsHandler != nil {
			public.Get("/doctors", cfg.DoctorsHandler.List)
			public.Get("/doctors/{doctorID}", cfg.DoctorsHandler.Get)
		}
		if cfg.SlotsHandler != nil {
			public.Get("/slots", cfg.SlotsHandler.GetSlots)
			public.Get("/slots/next", cfg.SlotsHandler.GetNextSlot)
		}
		if cfg.AppointmentsHandler != nil {
			public.Get("/appointments/available-doctors", cfg.AppointmentsHandler.AvailableDoctors)
			public.With(requireBookingToken(cfg.BookingToken)).Post("/appointments", cfg.AppointmentsHandler.Book)
		}
	})

	// Staff routes (front desk, protected by JWT)
	if cfg.StaffAuthSecret != "" {
		r.Route("/staff", func(staff chi.Router) {
			staff.Use(httpmiddleware.StaffJWT(cfg.StaffAuthSecret))
			staff.Use(httpmiddleware.RequireRole(httpmiddleware.RoleStaff))

			if cfg.AppointmentsHandler != nil {
				staff.Get("/appointments", cfg.AppointmentsHandler.List)
				staff.Get("/appointments/{appointmentID}", cfg.AppointmentsHandler.Get)
				staff.Post("/appointments", cfg.AppointmentsHandler.Book)
				staff.Patch("/appointments/{appointmentID}/status", cfg.AppointmentsHandler.UpdateStatus)
				staff.Post("/appointments/{appointmentID}/reschedule", cfg.AppointmentsHandler.Reschedule)
			}
			if cfg.InvoicesHandler != nil {
				staff.Post("/invoices", cfg.InvoicesHandler.Create)
				staff.Get("/invoices", cfg.InvoicesHandler.List)
				staff.Get("/invoices/{invoiceID}", cfg.InvoicesHandler.Get)
				staff.Post("/invoices/{invoiceID}/issue", cfg.InvoicesHandler.Issue)
				staff.Post("/invoices/{invoiceID}/pay", cfg.InvoicesHandler.MarkPaid)
				staff.Post("/invoices/{invoiceID}/void", cfg.InvoicesHandler.Void)
			}
			if cfg.AvailabilityHandler != nil {
				staff.Post("/doctors/{doctorID}/availability", cfg.AvailabilityHandler.Create)
				staff.Get("/doctors/{doctorID}/availability", cfg.AvailabilityHandler.List)
				staff.Delete("/doctors/{doctorID}/availability/{windowID}", cfg.AvailabilityHandler.Delete)
			}
		})

		// Admin routes (practice management)
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.StaffJWT(cfg.StaffAuthSecret))
			admin.Use(httpmiddleware.RequireRole(httpmiddleware.RoleAdmin))

			if cfg.DoctorsHandler != nil {
				admin.Post("/doctors", cfg.DoctorsHandler.Create)
				admin.Patch("/doctors/{doctorID}", cfg.DoctorsHandler.Update)
			}
			admin.Route("/branches/{code}", func(branchRoutes chi.Router) {
				if cfg.BranchesHandler != nil {
					branchRoutes.Put("/", cfg.BranchesHandler.Upsert)
					branchRoutes.Put("/hours", cfg.BranchesHandler.SetHours)
				}
				if cfg.SettingsHandler != nil {
					branchRoutes.Get("/settings", cfg.SettingsHandler.GetSettings)
					branchRoutes.Put("/settings", cfg.SettingsHandler.UpdateSettings)
				}
				if cfg.ClinicStatsHandler != nil {
					branchRoutes.Get("/stats", cfg.ClinicStatsHandler.GetStats)
					branchRoutes.Get("/doctor-loads", cfg.ClinicStatsHandler.GetDoctorLoads)
				}
				if cfg.ClinicDashboard != nil {
					branchRoutes.Get("/dashboard", cfg.ClinicDashboard.GetDashboard)
				}
			})
		})

		// Doctor portal routes (read-only, scoped to the doctor)
		if cfg.DB != nil {
			r.Route("/portal", func(portal chi.Router) {
				portal.Use(httpmiddleware.StaffJWT(cfg.StaffAuthSecret))

				dashboardHandler := handlers.NewPortalDashboardHandler(cfg.DB, cfg.Logger)

				portal.Route("/doctors/{doctorID}", func(r chi.Router) {
					r.Use(requirePortalDoctor(cfg.Logger))
					r.Get("/dashboard", dashboardHandler.GetDashboard)
				})
			})
		}
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
