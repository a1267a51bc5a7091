package telemetry

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/demonshower/BFTBrain/internal/features"
)

// ErrInvalidObservation is wrapped by every Validate failure.
var ErrInvalidObservation = errors.New("invalid observation")

// Observation is one replica's summary of one epoch.
type Observation struct {
	NodeID      string    `json:"node_id"`
	Protocol    string    `json:"protocol"`
	Epoch       uint64    `json:"epoch"`
	Features    Vector    `json:"features"`
	Reward      float64   `json:"reward"`
	Slots       int       `json:"slots"`
	CollectedAt time.Time `json:"collected_at"`
}

// Value resolves idx against the observation. features.Reward selects the
// reward channel; any column selects the vector.
func (o *Observation) Value(idx features.Index) (float64, error) {
	if idx.IsReward() {
		return o.Reward, nil
	}
	return o.Features.Get(idx)
}

// Validate checks identity fields and value ranges.
func (o *Observation) Validate() error {
	if o.NodeID == "" {
		return fmt.Errorf("%w: node_id is required", ErrInvalidObservation)
	}
	if o.Protocol == "" {
		return fmt.Errorf("%w: protocol is required", ErrInvalidObservation)
	}
	if o.Slots < 0 {
		return fmt.Errorf("%w: slots must not be negative", ErrInvalidObservation)
	}

	for _, idx := range features.All() {
		value, _ := o.Value(idx)
		if err := checkValue(idx, value); err != nil {
			return fmt.Errorf("%w: %s %w", ErrInvalidObservation, idx, err)
		}
	}
	return nil
}

func checkValue(idx features.Index, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return errors.New("is not finite")
	}

	switch {
	case idx.IsBinary():
		if value != 0 && value != 1 {
			return fmt.Errorf("must be 0 or 1, got %v", value)
		}
	case idx == features.FastPathFrequency:
		if value < 0 || value > 1 {
			return fmt.Errorf("must be within [0, 1], got %v", value)
		}
	default:
		if value < 0 {
			return fmt.Errorf("must not be negative, got %v", value)
		}
	}
	return nil
}
