// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidHero reports a hero that cannot be stored.
var ErrInvalidHero = errors.New("invalid hero")

// Hero is the single resource served by the backend.
// ID is assigned by the server and never changes; Name is the only mutable field.
type Hero struct {
	ID   int    `json:"id" db:"id" yaml:"id,omitempty"`
	Name string `json:"name" db:"name" yaml:"name"`
}

// HeroID lets a Hero be passed wherever a Ref is accepted.
func (h Hero) HeroID() int { return h.ID }

func (h Hero) String() string {
	return strconv.Itoa(h.ID) + ":" + h.Name
}

// Validate checks the fields a client may set.
func (h Hero) Validate() error {
	if strings.TrimSpace(h.Name) == "" {
		return errors.Join(ErrInvalidHero, errors.New("name must not be blank"))
	}
	if h.ID < 0 {
		return errors.Join(ErrInvalidHero, errors.New("id must not be negative"))
	}
	return nil
}

// ID is a bare hero identifier.
type ID int

// HeroID implements Ref.
func (id ID) HeroID() int { return int(id) }

// Ref is either a Hero or an ID; delete accepts both.
type Ref interface {
	HeroID() int
}
