package profile

import "github.com/transitops/shuttleplan-go/internal/domain/route"

// Tunables are the pipeline constants that vary across deployments. All
// fields are optional on the wire; zero values take the defaults below.
type Tunables struct {
	MaxSwapDistanceKm            float64 `json:"maxSwapDistanceKm"`
	ImpossibleDistanceKm         float64 `json:"impossibleDistanceKm"`
	ForceSingletonDistanceKm     float64 `json:"forceSingletonDistanceKm"`
	UnroutedGroupDistanceKm      float64 `json:"unroutedGroupDistanceKm"`
	UnroutedGroupSpanKm          float64 `json:"unroutedGroupSpanKm"`
	UnroutedAvgDistanceReducerKm float64 `json:"unroutedAvgDistanceReducerKm"`
	MaxUnroutedAttempts          int     `json:"maxUnroutedAttempts"`
	MaxTrimAttemptsPerGroup      int     `json:"maxTrimAttemptsPerGroup"`

	ProgressWeight          float64 `json:"progressWeight"`
	ProgressPenaltyScalar   float64 `json:"progressPenaltyScalar"`
	DistanceWeight          float64 `json:"distanceWeight"`
	DistanceScalar          float64 `json:"distanceScalar"`
	PickupAcceptanceFactor  float64 `json:"pickupAcceptanceFactor"`
	DropoffAcceptanceFactor float64 `json:"dropoffAcceptanceFactor"`
	ScoreTolerance          float64 `json:"scoreTolerance"`

	TrafficBufferPeak       float64 `json:"trafficBufferPeak"`
	TrafficBufferOffPeak    float64 `json:"trafficBufferOffPeak"`
	EtaBufferCap            float64 `json:"etaBufferCap"`
	SwapDurationIncreaseCap float64 `json:"swapDurationIncreaseCap"`
}

// AcceptanceFactor returns the monotonic-progress allowance for the trip
// direction.
func (t Tunables) AcceptanceFactor(trip route.TripType) float64 {
	if trip.IsPickup() {
		return t.PickupAcceptanceFactor
	}
	return t.DropoffAcceptanceFactor
}

// SetDefaults fills unset tunables.
func (t *Tunables) SetDefaults() {
	if t.MaxSwapDistanceKm == 0 {
		t.MaxSwapDistanceKm = 1.5
	}
	if t.ImpossibleDistanceKm == 0 {
		t.ImpossibleDistanceKm = 50
	}
	if t.ForceSingletonDistanceKm == 0 {
		t.ForceSingletonDistanceKm = 40
	}
	if t.UnroutedGroupDistanceKm == 0 {
		t.UnroutedGroupDistanceKm = 5
	}
	if t.UnroutedGroupSpanKm == 0 {
		t.UnroutedGroupSpanKm = 12
	}
	if t.UnroutedAvgDistanceReducerKm == 0 {
		t.UnroutedAvgDistanceReducerKm = 15
	}
	if t.MaxUnroutedAttempts == 0 {
		t.MaxUnroutedAttempts = 3
	}
	if t.MaxTrimAttemptsPerGroup == 0 {
		t.MaxTrimAttemptsPerGroup = 3
	}
	if t.ProgressWeight == 0 {
		t.ProgressWeight = 1.0
	}
	if t.ProgressPenaltyScalar == 0 {
		t.ProgressPenaltyScalar = 3.0
	}
	if t.DistanceWeight == 0 {
		t.DistanceWeight = 1.0
	}
	if t.DistanceScalar == 0 {
		t.DistanceScalar = 10.0
	}
	if t.PickupAcceptanceFactor == 0 {
		t.PickupAcceptanceFactor = 2.5
	}
	if t.DropoffAcceptanceFactor == 0 {
		t.DropoffAcceptanceFactor = 0.95
	}
	if t.ScoreTolerance == 0 {
		t.ScoreTolerance = 1e-6
	}
	if t.TrafficBufferPeak == 0 {
		t.TrafficBufferPeak = 0.60
	}
	if t.TrafficBufferOffPeak == 0 {
		t.TrafficBufferOffPeak = 0.40
	}
	if t.EtaBufferCap == 0 {
		t.EtaBufferCap = 0.40
	}
	if t.SwapDurationIncreaseCap == 0 {
		t.SwapDurationIncreaseCap = 0.25
	}
}

// SetDefaults fills unset profile options with their documented defaults.
func (p *Profile) SetDefaults() {
	if p.FacilityType == "" {
		p.FacilityType = "DEFAULT"
	}
	if p.MaxDurationSeconds == 0 {
		p.MaxDurationSeconds = 7200
	}
	if p.DirectionPenaltyWeight == 0 {
		p.DirectionPenaltyWeight = 2.0
	}
	if p.ReoptDirectionPenaltyWeight == 0 {
		p.ReoptDirectionPenaltyWeight = 0.5
	}
	p.Tunables.SetDefaults()
}
