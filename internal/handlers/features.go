package handlers

import (
	"net/http"

	"github.com/demonshower/BFTBrain/internal/domain"
	"github.com/demonshower/BFTBrain/internal/features"
	"github.com/demonshower/BFTBrain/internal/infrastructure/logger"
)

// FeatureEntry describes one registry entry.
type FeatureEntry struct {
	Name   string `json:"name"`
	Index  int    `json:"index"`
	Column bool   `json:"column"`
	Binary bool   `json:"binary"`
}

// Registry returns every registry entry, reward first.
func Registry() []FeatureEntry {
	all := features.All()
	entries := make([]FeatureEntry, 0, len(all))
	for _, idx := range all {
		entries = append(entries, FeatureEntry{
			Name:   idx.String(),
			Index:  int(idx),
			Column: idx.IsColumn(),
			Binary: idx.IsBinary(),
		})
	}
	return entries
}

// FeaturesHandler serves the feature registry.
type FeaturesHandler struct {
	logger domain.Logger
}

// NewFeaturesHandler creates a features handler.
func NewFeaturesHandler(log domain.Logger) *FeaturesHandler {
	return &FeaturesHandler{logger: log.With(logger.Component("features-handler"))}
}

func (h *FeaturesHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"dimension": features.Dimension,
		"features":  Registry(),
	})
}
