package catalog

import (
	"context"
	"sort"
	"sync"

	"apogeecore/pkg/domain"
)

// Compile-time contract assertion.
var _ Store = (*Memory)(nil)

// Memory is the in-memory catalog used for tests and ephemeral environments,
// and the state holder embedded by the persistent drivers.
type Memory struct {
	mu          sync.RWMutex
	propellants map[string]domain.PropellantSpec
	designs     map[string]domain.MotorSpec
}

// NewMemory constructs an empty in-memory catalog.
func NewMemory() *Memory {
	return &Memory{
		propellants: make(map[string]domain.PropellantSpec),
		designs:     make(map[string]domain.MotorSpec),
	}
}

func (m *Memory) PutPropellant(_ context.Context, spec domain.PropellantSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.propellants[spec.Name] = spec
	return nil
}

func (m *Memory) Propellant(_ context.Context, name string) (domain.PropellantSpec, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	spec, ok := m.propellants[name]
	if !ok {
		return domain.PropellantSpec{}, NotFoundError{Kind: "propellant", Name: name}
	}
	return spec, nil
}

func (m *Memory) Propellants(_ context.Context) ([]domain.PropellantSpec, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.PropellantSpec, 0, len(m.propellants))
	for _, spec := range m.propellants {
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) PutDesign(_ context.Context, spec domain.MotorSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.designs[spec.Name] = spec
	return nil
}

func (m *Memory) Design(_ context.Context, name string) (domain.MotorSpec, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	spec, ok := m.designs[name]
	if !ok {
		return domain.MotorSpec{}, NotFoundError{Kind: "design", Name: name}
	}
	return spec, nil
}

func (m *Memory) Designs(_ context.Context) ([]domain.MotorSpec, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.MotorSpec, 0, len(m.designs))
	for _, spec := range m.designs {
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) Close() error { return nil }

// ExportState clones the catalog into a Snapshot.
func (m *Memory) ExportState() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := Snapshot{
		Propellants: make(map[string]domain.PropellantSpec, len(m.propellants)),
		Designs:     make(map[string]domain.MotorSpec, len(m.designs)),
	}
	for name, spec := range m.propellants {
		snap.Propellants[name] = spec
	}
	for name, spec := range m.designs {
		snap.Designs[name] = spec
	}
	return snap
}

// ImportState replaces the catalog contents with the snapshot.
func (m *Memory) ImportState(snap Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.propellants = make(map[string]domain.PropellantSpec, len(snap.Propellants))
	for name, spec := range snap.Propellants {
		m.propellants[name] = spec
	}
	m.designs = make(map[string]domain.MotorSpec, len(snap.Designs))
	for name, spec := range snap.Designs {
		m.designs[name] = spec
	}
}
