// Package catalog stores named propellant presets and saved motor designs.
// The memory store is authoritative for semantics; the sqlite and postgres
// stores snapshot its state as JSON buckets after every successful mutation.
package catalog

import (
	"context"
	"fmt"

	"apogeecore/pkg/domain"
)

// Store is the keyed catalog contract consumed by the search service.
type Store interface {
	// PutPropellant validates and upserts a propellant preset by name.
	PutPropellant(ctx context.Context, spec domain.PropellantSpec) error
	// Propellant fetches one preset; a missing name yields NotFoundError.
	Propellant(ctx context.Context, name string) (domain.PropellantSpec, error)
	// Propellants lists every preset sorted by name.
	Propellants(ctx context.Context) ([]domain.PropellantSpec, error)

	// PutDesign validates and upserts a complete motor design by name.
	PutDesign(ctx context.Context, spec domain.MotorSpec) error
	// Design fetches one design; a missing name yields NotFoundError.
	Design(ctx context.Context, name string) (domain.MotorSpec, error)
	// Designs lists every saved design sorted by name.
	Designs(ctx context.Context) ([]domain.MotorSpec, error)

	Close() error
}

// NotFoundError reports a missing catalog entry.
type NotFoundError struct {
	Kind string
	Name string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// Snapshot captures a point-in-time clone of the catalog state.
type Snapshot struct {
	Propellants map[string]domain.PropellantSpec `json:"propellants"`
	Designs     map[string]domain.MotorSpec      `json:"designs"`
}
