// Package domain contains the core data types for the Meety meetup planner.
// This package has no dependencies beyond uuid and is imported by every other
// internal package (geo, meeting, suggest, repo, service, handler).
package domain

import "fmt"

// Coordinate is an immutable geographic point with a human-readable label.
// Lat is in [-90, 90] and Lng in [-180, 180]; Validate enforces both.
type Coordinate struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

// Validate reports ErrValidation when either component is out of range.
func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: lat must be between -90 and 90", ErrValidation)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: lng must be between -180 and 180", ErrValidation)
	}
	return nil
}

// SamePoint reports whether two coordinates refer to the same position,
// ignoring the address label.
func (c Coordinate) SamePoint(o Coordinate) bool {
	return c.Lat == o.Lat && c.Lng == o.Lng
}
