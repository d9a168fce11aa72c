package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-shift-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-shift-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-shift-go/internal/handler/http/response"
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

func NewRouter(
	opts RouterOptions,
	tokenAuth *jwtauth.JWTAuth,
	shiftHandler ShiftHandler,
	assignmentHandler ShiftAssignmentHandler,
	employeeShiftHandler EmployeeShiftHandler,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", IdempotencyKeyHeader},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(opts.Logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(tokenAuth))
			r.Use(middleware.AuthRequired)
			r.Use(middleware.RequireCompany)

			r.Route("/shifts", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionShiftView))
					r.Get("/", shiftHandler.List)
					r.Get("/default", shiftHandler.GetDefault)
					r.Get("/{id}", shiftHandler.Get)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionShiftManage))
					r.Post("/", shiftHandler.Create)
					r.Post("/defaults", shiftHandler.SeedDefaults)
					r.Put("/{id}", shiftHandler.Update)
					r.Delete("/{id}", shiftHandler.Delete)
				})

				r.With(middleware.RequirePermission(user.PermissionShiftViewAll)).
					Get("/{id}/employees", shiftHandler.ListEmployees)
			})

			r.Route("/shift-assignments", func(r chi.Router) {
				r.With(middleware.RequireAnyPermission(user.PermissionShiftAssign, user.PermissionShiftRequest)).
					Post("/", assignmentHandler.Assign)
				r.With(middleware.RequirePermission(user.PermissionShiftAssign)).
					Post("/bulk", assignmentHandler.BulkAssign)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAnyPermission(user.PermissionShiftViewAll, user.PermissionShiftViewOwn))
					r.Get("/", assignmentHandler.List)
					r.Get("/{id}", assignmentHandler.Get)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionShiftApprove))
					r.Post("/{id}/approve", assignmentHandler.Approve)
					r.Post("/{id}/reject", assignmentHandler.Reject)
				})
			})

			r.Route("/employees/{employeeID}/shift", func(r chi.Router) {
				r.Use(middleware.RequireAnyPermission(user.PermissionShiftViewAll, user.PermissionShiftViewOwn))
				r.Get("/", employeeShiftHandler.Current)
				r.Get("/effective", employeeShiftHandler.Effective)
				r.Get("/history", employeeShiftHandler.History)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})
	return r
}
