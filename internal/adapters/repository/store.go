// Package repository stores heroes for the REST backend.
package repository

import (
	"context"

	"github.com/okian/heroes/internal/domain/model"
)

// Driver names reported in metrics.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Store provides read/write access to heroes.
type Store interface {
	// List returns every hero ordered by id.
	List(ctx context.Context) ([]model.Hero, error)

	// Get returns the hero with id or ErrNotFound.
	Get(ctx context.Context, id int) (model.Hero, error)

	// FindByID returns a list holding the hero with id, or an empty list.
	FindByID(ctx context.Context, id int) ([]model.Hero, error)

	// SearchByName returns heroes whose name contains term, case-insensitively.
	SearchByName(ctx context.Context, term string) ([]model.Hero, error)

	// Create stores h. A zero id is replaced by the next free id; an id
	// already in use yields ErrConflict.
	Create(ctx context.Context, h model.Hero) (model.Hero, error)

	// Update replaces the name of an existing hero or returns ErrNotFound.
	Update(ctx context.Context, h model.Hero) (model.Hero, error)

	// Delete removes the hero with id and returns it, or ErrNotFound.
	Delete(ctx context.Context, id int) (model.Hero, error)

	// Count returns the number of stored heroes.
	Count(ctx context.Context) int

	// Close releases background resources.
	Close() error
}

// DefaultHeroes is the roster a fresh store is seeded with.
func DefaultHeroes() []model.Hero {
	return []model.Hero{
		{ID: 11, Name: "Mr. Nice"},
		{ID: 12, Name: "Narco"},
		{ID: 13, Name: "Bombasto"},
		{ID: 14, Name: "Celeritas"},
		{ID: 15, Name: "Magneta"},
		{ID: 16, Name: "RubberMan"},
		{ID: 17, Name: "Dynama"},
		{ID: 18, Name: "Dr IQ"},
		{ID: 19, Name: "Magma"},
		{ID: 20, Name: "Tornado"},
	}
}
