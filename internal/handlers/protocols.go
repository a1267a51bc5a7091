package handlers

import (
	"net/http"

	"github.com/demonshower/BFTBrain/internal/domain"
	"github.com/demonshower/BFTBrain/internal/infrastructure/logger"
)

// ProtocolCatalogue resolves protocol names.
type ProtocolCatalogue interface {
	Lookup(name string) (domain.Protocol, error)
	List() []domain.Protocol
}

// ProtocolsHandler serves the protocol catalogue.
type ProtocolsHandler struct {
	catalogue ProtocolCatalogue
	logger    domain.Logger
}

// NewProtocolsHandler creates a protocols handler.
func NewProtocolsHandler(catalogue ProtocolCatalogue, log domain.Logger) *ProtocolsHandler {
	return &ProtocolsHandler{
		catalogue: catalogue,
		logger:    log.With(logger.Component("protocols-handler")),
	}
}

func (h *ProtocolsHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"protocols": h.catalogue.List(),
	})
}
