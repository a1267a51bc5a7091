// Package features is the single source of truth for the column layout of the
// BFT telemetry feature vector and for the reward channel identifier.
//
// Producers (the per-replica collector) and consumers (the learning agent) both
// index observations through these constants, never through literal integers.
// Changing any value breaks every collaborator that exchanges vectors.
package features

import (
	"errors"
	"fmt"
	"strings"
)

// Index names a position in the feature vector, or the reward channel.
type Index int

// Reward identifies the reward signal (epoch throughput). It is a sentinel, not
// a vector column: it is negative so a simple range check tells it apart.
const Reward Index = -1

// Feature vector columns.
const (
	// FastPathFrequency is the fraction of slots decided on the fast path.
	FastPathFrequency Index = iota
	// SlownessOfProposal is the mean delay before a proposal is seen, in milliseconds.
	SlownessOfProposal
	// RequestSize is the mean client request payload size in bytes.
	RequestSize
	// HasFastPath is 1 when the running protocol has a fast path, 0 otherwise.
	HasFastPath
	// HasLeaderRotation is 1 when the running protocol rotates its leader, 0 otherwise.
	HasLeaderRotation
	// ReceivedMessagePerSlot is the mean number of protocol messages received per slot.
	ReceivedMessagePerSlot
)

// Dimension is the length of a feature vector.
const Dimension = int(ReceivedMessagePerSlot) + 1

// ErrUnknownFeature is returned by Parse for names outside the registry.
var ErrUnknownFeature = errors.New("unknown feature")

const rewardName = "REWARD"

// columnNames is indexed by column. Never written after initialisation.
var columnNames = [Dimension]string{
	FastPathFrequency:      "FAST_PATH_FREQUENCY",
	SlownessOfProposal:     "SLOWNESS_OF_PROPOSAL",
	RequestSize:            "REQUEST_SIZE",
	HasFastPath:            "HAS_FAST_PATH",
	HasLeaderRotation:      "HAS_LEADER_ROTATION",
	ReceivedMessagePerSlot: "RECEIVED_MESSAGE_PER_SLOT",
}

// String returns the wire name shared with non-Go collaborators.
func (i Index) String() string {
	switch {
	case i == Reward:
		return rewardName
	case i.IsColumn():
		return columnNames[i]
	default:
		return fmt.Sprintf("Index(%d)", int(i))
	}
}

// IsColumn reports whether i addresses a feature vector column.
func (i Index) IsColumn() bool {
	return i >= 0 && int(i) < Dimension
}

// IsReward reports whether i is the reward channel sentinel.
func (i Index) IsReward() bool {
	return i == Reward
}

// IsBinary reports whether the column only ever holds 0 or 1.
func (i Index) IsBinary() bool {
	return i == HasFastPath || i == HasLeaderRotation
}

// Columns returns the feature columns in vector order.
func Columns() []Index {
	cols := make([]Index, Dimension)
	for c := range cols {
		cols[c] = Index(c)
	}
	return cols
}

// All returns the reward sentinel followed by every column.
func All() []Index {
	return append([]Index{Reward}, Columns()...)
}

// Parse resolves a wire name, ignoring case and surrounding whitespace.
func Parse(name string) (Index, error) {
	normalized := strings.ToUpper(strings.TrimSpace(name))
	if normalized == rewardName {
		return Reward, nil
	}
	for c, n := range columnNames {
		if n == normalized {
			return Index(c), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFeature, name)
}

// MarshalText implements encoding.TextMarshaler.
func (i Index) MarshalText() ([]byte, error) {
	if !i.IsColumn() && !i.IsReward() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFeature, int(i))
	}
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Index) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
