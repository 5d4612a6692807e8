package routes

import (
	"collegeportal/internal/handlers"
	"collegeportal/internal/middleware"
	"collegeportal/internal/models"
	"net/http"

	"github.com/gorilla/mux"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	Password *handlers.PasswordHandler
	Health   *handlers.HealthHandler
	Logs     *handlers.AdminLogsHandler
}

func InitRoutes(router *mux.Router, gate middleware.Authorizer, h Handlers) {
	router.Use(middleware.RequestID, middleware.Logging, middleware.Recoverer)

	router.HandleFunc("/healthz", h.Health.Health).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	// --- Публичные маршруты ---
	api.HandleFunc("/register", h.Auth.Register).Methods(http.MethodPost)
	api.HandleFunc("/login", h.Auth.Login).Methods(http.MethodPost)
	api.HandleFunc("/validate", h.Auth.Validate).Methods(http.MethodPost)
	api.HandleFunc("/password/forgot", h.Password.Forgot).Methods(http.MethodPost)
	api.HandleFunc("/password/reset", h.Password.Reset).Methods(http.MethodPost)

	// --- Любая роль ---
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.JWTAuth(gate))
	protected.HandleFunc("/me", h.Auth.Me).Methods(http.MethodGet)
	protected.HandleFunc("/password/change", h.Password.Change).Methods(http.MethodPost)

	// --- По ролям: каждая ветка требует ровно свою роль ---
	student := api.PathPrefix("/student").Subrouter()
	student.Use(middleware.RequireRole(gate, models.RoleStudent))
	student.HandleFunc("/dashboard", h.Auth.Dashboard).Methods(http.MethodGet)

	faculty := api.PathPrefix("/faculty").Subrouter()
	faculty.Use(middleware.RequireRole(gate, models.RoleFaculty))
	faculty.HandleFunc("/dashboard", h.Auth.Dashboard).Methods(http.MethodGet)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireRole(gate, models.RoleAdmin))
	admin.HandleFunc("/dashboard", h.Auth.Dashboard).Methods(http.MethodGet)
	admin.HandleFunc("/users", h.Auth.GetUsers).Methods(http.MethodGet)
	admin.HandleFunc("/logs", h.Logs.GetLogs).Methods(http.MethodGet)
	admin.HandleFunc("/logs/summary", h.Logs.Summary).Methods(http.MethodGet)
}
