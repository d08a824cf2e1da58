package route

// TripType is the direction of a shuttle trip relative to the facility.
type TripType string

const (
	TripPickup  TripType = "PICKUP"
	TripDropoff TripType = "DROPOFF"
)

// IsPickup reports whether the trip collects employees toward the facility.
func (t TripType) IsPickup() bool {
	return t == TripPickup
}

// ShortCode returns the single-letter wire form used in responses.
func (t TripType) ShortCode() string {
	if t.IsPickup() {
		return "P"
	}
	return "D"
}

// Valid reports whether t is one of the two supported directions.
func (t TripType) Valid() bool {
	return t == TripPickup || t == TripDropoff
}
