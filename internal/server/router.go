package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/demonshower/BFTBrain/internal/domain"
	"github.com/demonshower/BFTBrain/internal/handlers"
	"github.com/demonshower/BFTBrain/internal/middleware"
)

// API routes.
const (
	FeaturesPath     = "/api/v1/features"
	ProtocolsPath    = "/api/v1/protocols"
	ObservationsPath = "/api/v1/observations"
	HealthPath       = "/health"
	ReadyPath        = "/ready"
)

// RouterDeps are the collaborators wired into the router.
type RouterDeps struct {
	Store        handlers.ObservationStore
	Catalogue    handlers.ProtocolCatalogue
	Storage      handlers.Pinger
	Auth         domain.AuthService
	Metrics      domain.MetricsService
	Logger       domain.Logger
	Version      string
	NodeID       string
	MaxBodyBytes int64
	// MetricsPath mounts the Prometheus handler when non-empty.
	MetricsPath string
}

// NewRouter builds the HTTP routes.
func NewRouter(deps RouterDeps) *mux.Router {
	features := handlers.NewFeaturesHandler(deps.Logger)
	protocols := handlers.NewProtocolsHandler(deps.Catalogue, deps.Logger)
	observations := handlers.NewObservationsHandler(
		deps.Store, deps.Catalogue, deps.Metrics, deps.Logger, deps.MaxBodyBytes)
	health := handlers.NewHealthHandler(deps.Logger, deps.Version, deps.NodeID, deps.Storage)
	auth := middleware.NewAuthMiddleware(deps.Auth, deps.Logger)

	router := mux.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.NewLoggingMiddleware(deps.Logger).LogRequests,
		middleware.NewMetricsMiddleware(deps.Metrics).RecordMetrics,
	)

	router.HandleFunc(HealthPath, health.Health).Methods(http.MethodGet)
	router.HandleFunc(ReadyPath, health.Readiness).Methods(http.MethodGet)
	if deps.MetricsPath != "" {
		router.Handle(deps.MetricsPath, deps.Metrics.Handler()).Methods(http.MethodGet)
	}

	router.Handle(FeaturesPath, features).Methods(http.MethodGet)
	router.Handle(ProtocolsPath, protocols).Methods(http.MethodGet)

	router.Handle(ObservationsPath, auth.Authenticate(http.HandlerFunc(observations.Create))).
		Methods(http.MethodPost)
	router.HandleFunc(ObservationsPath, observations.Nodes).Methods(http.MethodGet)
	router.HandleFunc(ObservationsPath+"/{node}/latest", observations.Latest).Methods(http.MethodGet)
	router.HandleFunc(ObservationsPath+"/{node}", observations.History).Methods(http.MethodGet)

	return router
}
