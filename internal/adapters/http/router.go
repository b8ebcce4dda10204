package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nischalstumbeti/contestzen/internal/application"
	"github.com/nischalstumbeti/contestzen/internal/domain"
	"golang.org/x/time/rate"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Options tunes the router. Zero values fall back to defaults.
type Options struct {
	// AuthRatePerMinute and AuthBurst bound the unauthenticated login and registration routes per IP.
	AuthRatePerMinute int
	AuthBurst         int
	AllowedOrigins    []string
	Readiness         []ReadinessCheck
	Metrics           *Metrics
}

type Handler struct {
	service   *application.Service
	readiness []ReadinessCheck
}

func NewHandler(service *application.Service, readiness ...ReadinessCheck) *Handler {
	return &Handler{service: service, readiness: readiness}
}

// NewRouter registers every route with its auth and permission guards.
func NewRouter(handler *Handler, opts Options) http.Handler {
	if opts.AuthRatePerMinute <= 0 {
		opts.AuthRatePerMinute = 20
	}
	if opts.AuthBurst <= 0 {
		opts.AuthBurst = 5
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	if len(opts.Readiness) > 0 {
		handler.readiness = append(handler.readiness, opts.Readiness...)
	}
	authLimiter := NewIPRateLimiter(rate.Every(time.Minute/time.Duration(opts.AuthRatePerMinute)), opts.AuthBurst)

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)
	r.Use(opts.Metrics.Middleware)
	r.Use(corsMiddleware(opts.AllowedOrigins))

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)
	r.Handle("/metrics", opts.Metrics.Handler())
	r.Get("/.well-known/jwks.json", handler.jwks)
	r.Get("/auth/callback", handler.magicLinkCallback)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(rateLimitMiddleware(authLimiter))
			r.Post("/register", handler.register)
			r.Post("/generate-otp", handler.generateOTP)
			r.Post("/verify-otp", handler.verifyOTP)
			r.Post("/participant-login", handler.participantLogin)
			r.Post("/admin-login", handler.adminLogin)
		})

		r.Get("/registration-control", handler.getRegistrationControl)
		r.Get("/submission-control", handler.getSubmissionControl)
		r.Get("/branding", handler.getBranding)
		r.Get("/enhanced-branding", handler.getEnhancedBranding)
		r.Get("/form-fields", handler.listFormFields)
		r.Get("/cms", handler.listPublishedCMS)
		r.Get("/cms/{slug}", handler.getPublishedCMS)
		r.Get("/announcements", handler.listPublishedAnnouncements)
		r.Get("/announcements/{id}", handler.getPublishedAnnouncement)

		r.Group(func(r chi.Router) {
			r.Use(handler.authMiddleware)
			r.Post("/logout", handler.logout)
			r.Post("/refresh", handler.refreshToken)

			r.Group(func(r chi.Router) {
				r.Use(requireSubject(domain.SubjectParticipant))
				r.Get("/me", handler.getMe)
				r.Put("/me", handler.updateMe)
				r.Get("/submissions/me", handler.mySubmission)
				r.Post("/submissions", handler.createSubmission)
			})

			r.Group(func(r chi.Router) {
				r.Use(handler.requirePermission(domain.PermManageSettings))
				r.Put("/registration-control", handler.putRegistrationControl)
				r.Put("/submission-control", handler.putSubmissionControl)
				r.Put("/branding", handler.putBranding)
				r.Put("/enhanced-branding", handler.putEnhancedBranding)
				r.Get("/admin/form-fields", handler.listAllFormFields)
				r.Post("/form-fields", handler.createFormField)
				r.Put("/form-fields/{id}", handler.updateFormField)
				r.Delete("/form-fields/{id}", handler.deleteFormField)
				r.Get("/admin/cms", handler.listAllCMS)
				r.Get("/admin/cms/{slug}", handler.getAnyCMS)
				r.Post("/cms", handler.createCMS)
				r.Put("/cms/{slug}", handler.updateCMS)
				r.Delete("/cms/{slug}", handler.deleteCMS)
			})

			r.Group(func(r chi.Router) {
				r.Use(handler.requirePermission(domain.PermManageAnnouncements))
				r.Get("/admin/announcements", handler.listAllAnnouncements)
				r.Post("/announcements", handler.createAnnouncement)
				r.Put("/announcements/{id}", handler.updateAnnouncement)
				r.Delete("/announcements/{id}", handler.deleteAnnouncement)
			})

			r.Group(func(r chi.Router) {
				r.Use(handler.requireSuperadmin)
				r.Get("/admins", handler.listAdmins)
				r.Post("/admins", handler.createAdmin)
				r.Get("/admins/{id}", handler.getAdmin)
				r.Put("/admins/{id}", handler.updateAdmin)
				r.Delete("/admins/{id}", handler.deleteAdmin)
			})

			r.Group(func(r chi.Router) {
				r.Use(handler.requirePermission(domain.PermManageParticipants))
				r.Get("/participants", handler.listParticipants)
				r.Get("/participants/{id}", handler.getParticipant)
				r.Put("/participants/{id}", handler.updateParticipant)
				r.Get("/participants/{id}/mutations", handler.listMutations)
			})

			r.Group(func(r chi.Router) {
				r.Use(handler.requirePermission(domain.PermManageSubmissions))
				r.Get("/admin/submissions", handler.listSubmissions)
				r.Get("/admin/submissions/{id}", handler.getSubmission)
				r.Put("/admin/submissions/{id}", handler.updateSubmission)
			})

			r.With(handler.requirePermission(domain.PermViewAnalytics)).Get("/analytics", handler.analytics)
			r.With(handler.requirePermission(domain.PermExportData)).Get("/export-users", handler.exportUsers)
		})
	})

	return r
}
