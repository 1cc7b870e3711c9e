package httpapi

import (
	"net/http"
	"time"

	"indorunners-backend-go/internal/config"
	"indorunners-backend-go/internal/models"
	"indorunners-backend-go/internal/policy"
	"indorunners-backend-go/internal/services"
	"indorunners-backend-go/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

type Server struct {
	Config        config.Config
	Store         *store.Store
	Log           zerolog.Logger
	Tokens        services.TokenService
	Users         *services.UserService
	Events        *services.EventService
	Activities    *services.ActivityService
	Registrations *services.RegistrationService
	Attendance    *services.AttendanceService
	Media         *services.MediaService
	Statistics    *services.StatisticsService
	MetricsHub    *services.MetricsHub
}

// NewServer wires the services on top of one store. A nil publisher
// disables lifecycle messages.
func NewServer(cfg config.Config, st *store.Store, hub *services.MetricsHub, pub services.Publisher, log zerolog.Logger) *Server {
	tokens := services.TokenService{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTTL(),
		RefreshTTL: cfg.RefreshTTL(),
	}
	deps := services.Deps{
		Store:     st,
		Policy:    policy.Policy{ScopeAdminsToOwnRecords: cfg.AdminOwnershipScope},
		Publisher: pub,
		Log:       log,
	}
	files := services.DiskFileStore{Base: cfg.MediaStoragePath}
	return &Server{
		Config:        cfg,
		Store:         st,
		Log:           log,
		Tokens:        tokens,
		Users:         services.NewUserService(deps, tokens, cfg.AdminSetupKey),
		Events:        services.NewEventService(deps),
		Activities:    services.NewActivityService(deps),
		Registrations: services.NewRegistrationService(deps),
		Attendance:    services.NewAttendanceService(deps),
		Media:         services.NewMediaService(deps, files, cfg.MaxProofBytes),
		Statistics:    services.NewStatisticsService(deps),
		MetricsHub:    hub,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.Log))
	r.Use(middleware.Recoverer)
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Setup-Key"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/signup", s.Signup)
		api.Post("/auth/login", s.Login)
		api.Post("/auth/refresh", s.Refresh)
		api.Post("/auth/logout", s.Logout)
		api.Post("/setup/admin", s.SetupAdmin)

		api.Route("/public", func(pub chi.Router) {
			pub.Use(OptionalAuth(s.Tokens))
			pub.Get("/events", s.PublicEvents)
			pub.Get("/events/{eventId}", s.PublicEventDetail)
			pub.Post("/events/{eventId}/registrations", s.PublicRegister)
			pub.Post("/uploads/payment-proof", s.UploadPaymentProof)
		})

		api.Group(func(member chi.Router) {
			member.Use(WithAuth(s.Tokens))
			member.Get("/me", s.Me)
			member.Get("/me/registrations", s.MyRegistrations)
			member.Get("/statistics", s.Dashboard)
			member.Post("/events/{eventId}/registrations", s.MemberRegister)
			member.Get("/attendance", s.ListAttendance)
			member.Post("/attendance", s.RecordAttendance)
			member.Get("/activities", s.ListActivities)
			member.Get("/activities/{activityId}", s.ActivityDetail)
			member.Get("/media/assets/{assetId}/content", s.MediaContent)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(WithAuth(s.Tokens))
			admin.Use(RequireRole(models.RoleAdmin))
			admin.Get("/metrics/history", s.MetricsHistory)
			admin.Get("/users", s.ListUsers)
			admin.Route("/events", func(events chi.Router) {
				events.Get("/", s.AdminEvents)
				events.Post("/", s.CreateEvent)
				events.Get("/{eventId}", s.AdminEventDetail)
				events.Put("/{eventId}", s.UpdateEvent)
				events.Delete("/{eventId}", s.DeleteEvent)
			})
			admin.Route("/activities", func(activities chi.Router) {
				activities.Post("/", s.CreateActivity)
				activities.Put("/{activityId}", s.UpdateActivity)
				activities.Delete("/{activityId}", s.DeleteActivity)
			})
			admin.Route("/registrations", func(regs chi.Router) {
				regs.Get("/", s.AdminRegistrations)
				regs.Get("/{registrationId}", s.AdminRegistrationDetail)
				regs.Patch("/{registrationId}/status", s.TransitionRegistration)
			})
		})
	})

	r.Get("/ws/metrics", s.MetricsSocket)
	r.Get("/healthz", s.Health)
	return r
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.DB().PingContext(r.Context()); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Database unreachable")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) now() time.Time {
	return time.Now().UTC()
}
