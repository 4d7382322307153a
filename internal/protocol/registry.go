package protocol

import (
	"fmt"
	"sync"

	"github.com/alanyoungcy/yieldscan/internal/config"
	"github.com/alanyoungcy/yieldscan/internal/domain"
)

// Entry pairs an adapter with the scan-level metadata that is configuration,
// not on-chain state.
type Entry struct {
	Adapter Adapter
	// BaseReputation seeds the protocol reputation factor, 0..1.
	BaseReputation float64
	// MetricsID is the protocol's slug on the metrics API, empty to skip
	// metrics lookups for this protocol.
	MetricsID string
}

// Registry holds the configured protocol adapters keyed by name. Registration
// happens once during wiring; lookups are concurrent during scans.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	order   []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register adds an adapter entry. Duplicate names are rejected.
func (r *Registry) Register(e Entry) error {
	if e.Adapter == nil {
		return fmt.Errorf("protocol: register nil adapter")
	}
	name := e.Adapter.Name()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("protocol: adapter %q already registered", name)
	}
	r.entries[name] = e
	r.order = append(r.order, name)
	return nil
}

// Get returns the entry for a protocol name.
func (r *Registry) Get(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// List returns all entries in registration order.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name])
	}
	return out
}

// Build constructs a Registry from the protocol configuration, one adapter
// per configured protocol.
func Build(cfg config.ProtocolsConfig, reader domain.ContractReader) (*Registry, error) {
	reg := NewRegistry()

	for _, p := range cfg.Farms {
		err := reg.Register(Entry{
			Adapter:        NewAmmFarm(p.Name, p.Masterchef, p.RewardToken, p.EmissionMethod, reader),
			BaseReputation: p.BaseReputation,
			MetricsID:      p.MetricsID,
		})
		if err != nil {
			return nil, err
		}
	}
	for _, p := range cfg.Lending {
		err := reg.Register(Entry{
			Adapter:        NewLending(p.Name, p.Comptroller, reader),
			BaseReputation: p.BaseReputation,
			MetricsID:      p.MetricsID,
		})
		if err != nil {
			return nil, err
		}
	}
	for _, p := range cfg.Vaults {
		err := reg.Register(Entry{
			Adapter:        NewVault(p.Name, p.Fairlaunch, p.RewardToken, p.EmissionMethod, reader),
			BaseReputation: p.BaseReputation,
			MetricsID:      p.MetricsID,
		})
		if err != nil {
			return nil, err
		}
	}

	return reg, nil
}
