package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/demonshower/BFTBrain/internal/domain"
	"github.com/demonshower/BFTBrain/internal/features"
	"github.com/demonshower/BFTBrain/internal/infrastructure/logger"
	"github.com/demonshower/BFTBrain/internal/middleware"
	"github.com/demonshower/BFTBrain/internal/services/experience"
	"github.com/demonshower/BFTBrain/internal/telemetry"
)

// Rejection reasons recorded in metrics.
const (
	ReasonMalformed       = "malformed"
	ReasonInvalid         = "invalid"
	ReasonReplicaMismatch = "replica_mismatch"
	ReasonUnknownProtocol = "unknown_protocol"
	ReasonTraitMismatch   = "trait_mismatch"
	ReasonStaleEpoch      = "stale_epoch"
	ReasonStorage         = "storage"
)

// ObservationStore persists and queries observations.
type ObservationStore interface {
	Append(ctx context.Context, obs telemetry.Observation) error
	Latest(ctx context.Context, nodeID string) (telemetry.Observation, error)
	History(ctx context.Context, nodeID string, limit int) ([]telemetry.Observation, error)
	Nodes(ctx context.Context) ([]string, error)
}

// ObservationsHandler ingests and serves replica observations.
type ObservationsHandler struct {
	store        ObservationStore
	catalogue    ProtocolCatalogue
	metrics      domain.MetricsService
	logger       domain.Logger
	maxBodyBytes int64
}

// NewObservationsHandler creates an observations handler.
func NewObservationsHandler(
	store ObservationStore,
	catalogue ProtocolCatalogue,
	metrics domain.MetricsService,
	log domain.Logger,
	maxBodyBytes int64,
) *ObservationsHandler {
	return &ObservationsHandler{
		store:        store,
		catalogue:    catalogue,
		metrics:      metrics,
		logger:       log.With(logger.Component("observations-handler")),
		maxBodyBytes: maxBodyBytes,
	}
}

// Create handles POST /api/v1/observations.
func (h *ObservationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var obs telemetry.Observation
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&obs); err != nil {
		h.reject(ctx, w, obs.NodeID, ReasonMalformed, decodeError(err))
		return
	}

	if replica := middleware.ReplicaFromContext(ctx); replica != nil && replica.NodeID != obs.NodeID {
		h.reject(ctx, w, replica.NodeID, ReasonReplicaMismatch, domain.ErrReplicaMismatch)
		return
	}

	protocol, err := h.catalogue.Lookup(obs.Protocol)
	if err != nil {
		h.reject(ctx, w, obs.NodeID, ReasonUnknownProtocol,
			domain.NewBadRequestError(fmt.Sprintf("Unknown protocol %q", obs.Protocol), err))
		return
	}
	obs.Protocol = protocol.Name

	if err := checkTraits(obs, protocol); err != nil {
		h.reject(ctx, w, obs.NodeID, ReasonTraitMismatch, domain.NewBadRequestError(err.Error(), err))
		return
	}

	if err := h.store.Append(ctx, obs); err != nil {
		h.rejectAppend(ctx, w, obs, err)
		return
	}

	h.metrics.RecordObservation(ctx, obs.NodeID, obs.Protocol, obs.Features, obs.Reward)
	h.logger.Info("Observation accepted",
		logger.NodeID(obs.NodeID),
		logger.Protocol(obs.Protocol),
		logger.Epoch(obs.Epoch),
		logger.Float("reward", obs.Reward),
		logger.RequestID(middleware.RequestIDFromContext(ctx)))

	writeJSON(w, h.logger, http.StatusCreated, obs)
}

func (h *ObservationsHandler) rejectAppend(ctx context.Context, w http.ResponseWriter, obs telemetry.Observation, err error) {
	switch {
	case errors.Is(err, telemetry.ErrInvalidObservation):
		h.reject(ctx, w, obs.NodeID, ReasonInvalid, domain.NewBadRequestError(err.Error(), err))
	case errors.Is(err, experience.ErrStaleEpoch):
		h.reject(ctx, w, obs.NodeID, ReasonStaleEpoch, domain.NewConflictError(err.Error(), err))
	case errors.Is(err, domain.ErrNotLeader), errors.Is(err, domain.ErrStorageUnavailable):
		h.reject(ctx, w, obs.NodeID, ReasonStorage, domain.NewUnavailableError("Storage cannot accept writes", err))
	default:
		h.reject(ctx, w, obs.NodeID, ReasonStorage, err)
	}
}

func (h *ObservationsHandler) reject(ctx context.Context, w http.ResponseWriter, nodeID, reason string, err error) {
	h.metrics.RecordRejectedObservation(ctx, nodeID, reason)
	h.logger.Warn("Observation rejected",
		logger.NodeID(nodeID),
		logger.String("reason", reason),
		logger.Error(err),
		logger.RequestID(middleware.RequestIDFromContext(ctx)))
	writeError(w, h.logger, err)
}

func decodeError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return domain.NewAppError(domain.ErrCodeBadRequest,
			fmt.Sprintf("Observation exceeds %d bytes", tooLarge.Limit),
			http.StatusRequestEntityTooLarge, err)
	}
	return domain.NewBadRequestError(fmt.Sprintf("Malformed observation: %v", err), err)
}

// checkTraits verifies that the binary columns agree with the catalogue.
func checkTraits(obs telemetry.Observation, protocol domain.Protocol) error {
	fast, rotation := protocol.Traits()
	for idx, want := range map[features.Index]float64{
		features.HasFastPath:       fast,
		features.HasLeaderRotation: rotation,
	} {
		if got := obs.Features[idx]; got != want {
			return fmt.Errorf("%s is %v but protocol %s has %v", idx, got, protocol.Name, want)
		}
	}
	return nil
}

// Nodes handles GET /api/v1/observations.
func (h *ObservationsHandler) Nodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.store.Nodes(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"nodes": nodes})
}

// Latest handles GET /api/v1/observations/{node}/latest.
func (h *ObservationsHandler) Latest(w http.ResponseWriter, r *http.Request) {
	node := mux.Vars(r)["node"]

	obs, err := h.store.Latest(r.Context(), node)
	if err != nil {
		writeError(w, h.logger, queryError(err))
		return
	}
	writeJSON(w, h.logger, http.StatusOK, obs)
}

// History handles GET /api/v1/observations/{node}?limit=N.
func (h *ObservationsHandler) History(w http.ResponseWriter, r *http.Request) {
	node := mux.Vars(r)["node"]

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, h.logger, domain.NewBadRequestError("limit must be a positive integer", err))
			return
		}
		limit = parsed
	}

	history, err := h.store.History(r.Context(), node, limit)
	if err != nil {
		writeError(w, h.logger, queryError(err))
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"node":         node,
		"observations": history,
	})
}

func queryError(err error) error {
	if errors.Is(err, experience.ErrNoObservations) {
		return domain.NewNotFoundError(err.Error(), err)
	}
	return err
}
