// Package telemetry turns per-slot protocol activity into feature vectors and
// ships them, together with the epoch reward, to the BFTBrain service.
package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/demonshower/BFTBrain/internal/features"
)

var (
	// ErrNotAColumn is returned when an index does not address a vector column.
	ErrNotAColumn = errors.New("index is not a feature column")
	// ErrMissingColumn is returned when a decoded vector lacks a column.
	ErrMissingColumn = errors.New("missing feature column")
	// ErrDuplicateColumn is returned when two keys of a decoded vector name
	// the same column.
	ErrDuplicateColumn = errors.New("duplicate feature column")
)

// Vector holds one value per feature column.
type Vector [features.Dimension]float64

// Get returns the value stored at idx.
func (v *Vector) Get(idx features.Index) (float64, error) {
	if !idx.IsColumn() {
		return 0, fmt.Errorf("%w: %s", ErrNotAColumn, idx)
	}
	return v[idx], nil
}

// Set stores value at idx.
func (v *Vector) Set(idx features.Index, value float64) error {
	if !idx.IsColumn() {
		return fmt.Errorf("%w: %s", ErrNotAColumn, idx)
	}
	v[idx] = value
	return nil
}

// MarshalJSON encodes the vector as an object keyed by wire names.
func (v Vector) MarshalJSON() ([]byte, error) {
	out := make(map[string]float64, features.Dimension)
	for _, idx := range features.Columns() {
		out[idx.String()] = v[idx]
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes an object keyed by wire names. Every column must be
// present exactly once, in any letter case, and no other key is accepted.
func (v *Vector) UnmarshalJSON(data []byte) error {
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode feature vector: %w", err)
	}

	var decoded Vector
	seen := make(map[features.Index]bool, features.Dimension)
	for name, value := range raw {
		idx, err := features.Parse(name)
		if err != nil {
			return err
		}
		if !idx.IsColumn() {
			return fmt.Errorf("%w: %s", ErrNotAColumn, idx)
		}
		if seen[idx] {
			return fmt.Errorf("%w: %s", ErrDuplicateColumn, idx)
		}
		decoded[idx] = value
		seen[idx] = true
	}

	for _, idx := range features.Columns() {
		if !seen[idx] {
			return fmt.Errorf("%w: %s", ErrMissingColumn, idx)
		}
	}

	*v = decoded
	return nil
}

// Slice returns the values as a plain slice in column order.
func (v Vector) Slice() []float64 {
	out := make([]float64, features.Dimension)
	copy(out, v[:])
	return out
}
