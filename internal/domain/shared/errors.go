package shared

import "fmt"

// DomainError is the base error type for all domain errors
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(message string) *DomainError {
	return &DomainError{Message: message}
}

// Road service errors
//
// A RoadServiceError means the current routing attempt is infeasible, not
// that the request as a whole must fail. Callers abandon the attempt and
// move the affected employees to the unrouted pool.

type RoadServiceError struct {
	*DomainError
	Op    string // "route", "table" or "probe"
	City  string
	Cause error
}

func (e *RoadServiceError) Unwrap() error {
	return e.Cause
}

func NewRoadServiceError(op, city, message string, cause error) *RoadServiceError {
	return &RoadServiceError{
		DomainError: &DomainError{Message: fmt.Sprintf("road service %s failed for city %q: %s", op, city, message)},
		Op:          op,
		City:        city,
		Cause:       cause,
	}
}

// Solver errors

type SolverError struct {
	*DomainError
	Stderr string
	Cause  error
}

func (e *SolverError) Unwrap() error {
	return e.Cause
}

func NewSolverError(message, stderr string, cause error) *SolverError {
	return &SolverError{
		DomainError: &DomainError{Message: fmt.Sprintf("vrp solver failed: %s", message)},
		Stderr:      stderr,
		Cause:       cause,
	}
}

// Capacity errors

type CapacityError struct {
	*DomainError
	Required int
}

func NewCapacityError(required int) *CapacityError {
	return &CapacityError{
		DomainError: &DomainError{Message: fmt.Sprintf("no vehicle can seat %d and no medium fallback is defined", required)},
		Required:    required,
	}
}

// Deviation errors

type DeviationError struct {
	*DomainError
	TotalKm float64
	LimitKm float64
}

func NewDeviationError(totalKm, limitKm float64) *DeviationError {
	return &DeviationError{
		DomainError: &DomainError{Message: fmt.Sprintf("route distance %.2f km exceeds deviation limit %.2f km", totalKm, limitKm)},
		TotalKm:     totalKm,
		LimitKm:     limitKm,
	}
}

// Validation error

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
