package telemetry

import (
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/demonshower/BFTBrain/internal/domain"
	"github.com/demonshower/BFTBrain/internal/features"
)

// SlotEvent is what a replica reports after processing one consensus slot.
type SlotEvent struct {
	Slot             uint64
	FastPath         bool
	ProposalDelay    time.Duration
	RequestBytes     []int
	MessagesReceived int
	Committed        int
}

// Collector accumulates slot events for one replica and closes them into an
// Observation per epoch. It is safe for concurrent use.
type Collector struct {
	nodeID string
	clock  func() time.Time

	mu         sync.Mutex
	protocol   domain.Protocol
	epoch      uint64
	epochStart time.Time
	slots      int
	fastSlots  int
	delaysMS   []float64
	reqSizes   []float64
	messages   int
	committed  int
}

// NewCollector creates a collector. A nil clock uses time.Now.
func NewCollector(nodeID string, protocol domain.Protocol, clock func() time.Time) *Collector {
	if clock == nil {
		clock = time.Now
	}
	return &Collector{
		nodeID:     nodeID,
		clock:      clock,
		protocol:   protocol,
		epochStart: clock(),
	}
}

// NodeID returns the replica this collector reports for.
func (c *Collector) NodeID() string {
	return c.nodeID
}

// Protocol returns the protocol currently in effect.
func (c *Collector) Protocol() domain.Protocol {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.protocol
}

// RecordSlot adds one slot to the current epoch. Negative measurements are
// recorded as zero so the epoch still yields a valid observation.
func (c *Collector) RecordSlot(ev SlotEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.slots++
	if ev.FastPath {
		c.fastSlots++
	}
	c.delaysMS = append(c.delaysMS, float64(max(ev.ProposalDelay, 0))/float64(time.Millisecond))
	for _, size := range ev.RequestBytes {
		c.reqSizes = append(c.reqSizes, float64(max(size, 0)))
	}
	c.messages += max(ev.MessagesReceived, 0)
	c.committed += max(ev.Committed, 0)
}

// SwitchProtocol changes the protocol whose traits the next snapshot exports.
// Slots already recorded stay in the current epoch.
func (c *Collector) SwitchProtocol(protocol domain.Protocol) {
	c.mu.Lock()
	c.protocol = protocol
	c.mu.Unlock()
}

// Snapshot closes the current epoch and starts the next one.
func (c *Collector) Snapshot() Observation {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	c.epoch++

	var vec Vector
	fast, rotation := c.protocol.Traits()
	vec[features.HasFastPath] = fast
	vec[features.HasLeaderRotation] = rotation
	vec[features.SlownessOfProposal] = mean(c.delaysMS)
	vec[features.RequestSize] = mean(c.reqSizes)
	if c.slots > 0 {
		vec[features.FastPathFrequency] = float64(c.fastSlots) / float64(c.slots)
		vec[features.ReceivedMessagePerSlot] = float64(c.messages) / float64(c.slots)
	}

	var reward float64
	if elapsed := now.Sub(c.epochStart).Seconds(); elapsed > 0 {
		reward = float64(c.committed) / elapsed
	}

	obs := Observation{
		NodeID:      c.nodeID,
		Protocol:    c.protocol.Name,
		Epoch:       c.epoch,
		Features:    vec,
		Reward:      reward,
		Slots:       c.slots,
		CollectedAt: now,
	}

	c.epochStart = now
	c.slots = 0
	c.fastSlots = 0
	c.delaysMS = c.delaysMS[:0]
	c.reqSizes = c.reqSizes[:0]
	c.messages = 0
	c.committed = 0

	return obs
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}
