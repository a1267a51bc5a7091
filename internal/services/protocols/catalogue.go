// Package protocols holds the catalogue of BFT protocols a deployment can
// switch between and the traits each one exports as binary feature columns.
package protocols

import (
	"fmt"
	"slices"
	"strings"

	"github.com/demonshower/BFTBrain/internal/domain"
)

// Defaults returns the protocols known to BFTBrain deployments.
func Defaults() []domain.Protocol {
	return []domain.Protocol{
		{Name: "pbft"},
		{Name: "zyzzyva", HasFastPath: true},
		{Name: "cheapbft"},
		{Name: "sbft", HasFastPath: true},
		{Name: "hotstuff2", HasLeaderRotation: true},
		{Name: "prime"},
	}
}

// Catalogue is an immutable set of protocols keyed by lower-case name.
type Catalogue struct {
	byName map[string]domain.Protocol
}

// NewCatalogue builds a catalogue, rejecting empty and duplicate names.
// Names are normalised to lower case.
func NewCatalogue(list []domain.Protocol) (*Catalogue, error) {
	byName := make(map[string]domain.Protocol, len(list))
	for i, p := range list {
		name := normalize(p.Name)
		if name == "" {
			return nil, fmt.Errorf("protocol at position %d has no name", i)
		}
		if _, exists := byName[name]; exists {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateProtocol, name)
		}
		p.Name = name
		byName[name] = p
	}
	return &Catalogue{byName: byName}, nil
}

// Lookup returns the protocol with the given name.
func (c *Catalogue) Lookup(name string) (domain.Protocol, error) {
	p, ok := c.byName[normalize(name)]
	if !ok {
		return domain.Protocol{}, fmt.Errorf("%w: %q", domain.ErrUnknownProtocol, name)
	}
	return p, nil
}

// List returns every protocol sorted by name.
func (c *Catalogue) List() []domain.Protocol {
	out := make([]domain.Protocol, 0, len(c.byName))
	for _, name := range c.Names() {
		out = append(out, c.byName[name])
	}
	return out
}

// Names returns the sorted protocol names.
func (c *Catalogue) Names() []string {
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of protocols.
func (c *Catalogue) Len() int {
	return len(c.byName)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
