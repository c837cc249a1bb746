// Package profile holds the gaming profiles the runner switches
// between and their persisted form. Loads are tolerant: a corrupt entry
// in the profiles file is skipped and reported, never fatal to the
// rest of the load.
package profile

import (
	"fmt"

	"github.com/dshills/gamebridge/internal/macro"
	"github.com/google/uuid"
)

// maxNameLength bounds a profile name.
const maxNameLength = 50

// Overlay is the crosshair overlay configuration for a profile.
type Overlay struct {
	ImagePath string `json:"image_path,omitempty"`
	X         int    `json:"x,omitempty"`
	Y         int    `json:"y,omitempty"`
}

// Profile is one named gaming profile. Its macros are persisted nested
// under it and die with it.
type Profile struct {
	ID      uuid.UUID          `json:"id"`
	Name    string             `json:"name"`
	Overlay Overlay            `json:"overlay,omitempty"`
	Macros  []macro.Definition `json:"macros,omitempty"`
}

// New creates a profile with a fresh identifier.
func New(name string) Profile {
	return Profile{ID: uuid.New(), Name: name}
}

// Validate checks the profile for storage.
func (p Profile) Validate() error {
	if p.ID == uuid.Nil {
		return ErrInvalidProfile
	}
	if p.Name == "" || len(p.Name) > maxNameLength {
		return ErrInvalidProfile
	}
	for _, def := range p.Macros {
		if def.ProfileID != p.ID {
			return fmt.Errorf("%w: macro %q belongs to another profile", ErrInvalidProfile, def.Name)
		}
		if err := def.Validate(); err != nil {
			return fmt.Errorf("%w: macro %q: %v", ErrInvalidProfile, def.Name, err)
		}
	}
	return nil
}
