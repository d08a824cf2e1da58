// Package employee holds the rider records the pipeline routes. An
// Employee is immutable after ingestion except for the derived zone and
// facility-distance fields; per-route position and times live on the
// route wrapper, never here.
package employee

import "github.com/transitops/shuttleplan-go/internal/domain/geo"

// Gender values as they appear on the wire.
type Gender string

const (
	Male   Gender = "M"
	Female Gender = "F"
)

// Employee is a rider to be placed on a shuttle route.
type Employee struct {
	EmpCode   string
	Location  geo.Point
	HasCoords bool
	Gender    Gender

	IsMedical bool
	IsPWD     bool
	IsNMT     bool
	IsOOB     bool

	// Derived during ingestion and zoning.
	Zone             string
	DistToFacilityKm float64
}

// SpecialNeeds reports whether the employee needs a special-needs route
// (medical or PWD).
func (e *Employee) SpecialNeeds() bool {
	return e.IsMedical || e.IsPWD
}
