package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/metrics"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	Logger         *slog.Logger
	AllowedOrigins []string
}

func NewRouter(opts RouterOptions, JWTService jwt.Service, attendanceHandler AttendanceHandler, scheduleHandler ScheduleHandler, dashboardHandler DashboardHandler) *chi.Mux {
	r := chi.NewRouter()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/punches", attendanceHandler.RecordPunch)
				r.Get("/today", attendanceHandler.GetToday)
				r.Get("/calendar", attendanceHandler.GetCalendar)

				r.Route("/regularizations", func(r chi.Router) {
					r.Get("/", attendanceHandler.ListRegularizations)
					r.Post("/", attendanceHandler.CreateRegularization)

					// Admin only
					r.Group(func(r chi.Router) {
						r.Use(middleware.AdminOnly)
						r.Post("/{id}/approve", attendanceHandler.ApproveRegularization)
						r.Post("/{id}/reject", attendanceHandler.RejectRegularization)
					})
				})

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Put("/manual", attendanceHandler.ManualEdit)

					r.Route("/locks", func(r chi.Router) {
						r.Get("/", attendanceHandler.ListLocks)
						r.Post("/", attendanceHandler.LockPeriod)
						r.Delete("/{period}", attendanceHandler.UnlockPeriod)
					})
				})
			})

			r.Route("/holidays", func(r chi.Router) {
				r.Get("/", scheduleHandler.ListHolidays)
				r.With(middleware.AdminOnly).Post("/", scheduleHandler.CreateHoliday)
				r.With(middleware.AdminOnly).Put("/{id}", scheduleHandler.UpdateHoliday)
				r.With(middleware.AdminOnly).Delete("/{id}", scheduleHandler.DeleteHoliday)
			})

			r.Route("/assignments", func(r chi.Router) {
				r.Get("/", scheduleHandler.ListAssignments)
				r.With(middleware.AdminOnly).Post("/", scheduleHandler.CreateAssignments)
				r.With(middleware.AdminOnly).Put("/{id}", scheduleHandler.UpdateAssignment)
				r.With(middleware.AdminOnly).Delete("/{id}", scheduleHandler.DeleteAssignment)
			})

			// Admin only
			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminOnly)

				r.Route("/policies", func(r chi.Router) {
					r.Get("/", scheduleHandler.ListPolicies)
					r.Post("/", scheduleHandler.CreatePolicy)
					r.Get("/{id}", scheduleHandler.GetPolicy)
					r.Put("/{id}", scheduleHandler.UpdatePolicy)
					r.Delete("/{id}", scheduleHandler.DeletePolicy)
				})

				r.Route("/shifts", func(r chi.Router) {
					r.Get("/", scheduleHandler.ListShifts)
					r.Post("/", scheduleHandler.CreateShift)
					r.Get("/{id}", scheduleHandler.GetShift)
					r.Put("/{id}", scheduleHandler.UpdateShift)
					r.Delete("/{id}", scheduleHandler.DeleteShift)
				})

				r.Route("/dashboard", func(r chi.Router) {
					r.Get("/", dashboardHandler.GetDashboard)
					r.Get("/logs", dashboardHandler.GetAttendanceLogs)
					r.Post("/backfill", dashboardHandler.Backfill)
				})
			})
		})
	})
	return r
}
