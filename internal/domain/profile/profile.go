// Package profile models the per-request operating profile: fleet
// composition, zone sizing, deviation rule tables, penalties, night-shift
// guard windows and the pipeline tunables.
package profile

import (
	"fmt"
	"sort"
	"time"

	"github.com/transitops/shuttleplan-go/internal/domain/fleet"
	"github.com/transitops/shuttleplan-go/internal/domain/route"
	"github.com/transitops/shuttleplan-go/pkg/utils"
)

// Zone heuristic target sizes by capacity tier.
const (
	LargeZoneTargetSize   = 12
	MediumZoneTargetSize  = 6
	SmallZoneTargetSize   = 4
	DefaultZoneTargetSize = 6
)

// DeviationRule bounds a route's total one-way distance as a function of
// its farthest employee's road distance from the facility.
type DeviationRule struct {
	MinDistKm        float64 `json:"minDistKm"`
	MaxDistKm        float64 `json:"maxDistKm"`
	MaxTotalOneWayKm float64 `json:"maxTotalOneWayKm"`
}

// GuardWindow is a night-shift window in HHMM wall-clock form. Windows may
// wrap past midnight (e.g. 2000–0700).
type GuardWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Contains reports whether the wall-clock offset t falls inside the window.
func (w GuardWindow) Contains(t time.Duration) (bool, error) {
	start, err := utils.ParseHHMM(w.Start)
	if err != nil {
		return false, fmt.Errorf("guard window start: %w", err)
	}
	end, err := utils.ParseHHMM(w.End)
	if err != nil {
		return false, fmt.Errorf("guard window end: %w", err)
	}
	if start <= end {
		return t >= start && t < end, nil
	}
	return t >= start || t < end, nil
}

// Profile is the operating profile carried inside each plan request.
type Profile struct {
	Name         string `json:"name"`
	FacilityType string `json:"facilityType"`

	Fleet []fleet.VehicleClass `json:"fleet"`

	ZoneBasedRouting  *bool               `json:"zoneBasedRouting,omitempty"`
	ZoneClubbing      bool                `json:"zoneClubbing"`
	ZonePairingMatrix map[string][]string `json:"zonePairingMatrix"`

	LargeCapacityZones  []string `json:"LargeCapacityZones"`
	MediumCapacityZones []string `json:"MediumCapacityZones"`
	SmallCapacityZones  []string `json:"SmallCapacityZones"`

	RouteDeviationRules map[string][]DeviationRule `json:"routeDeviationRules"`

	MaxDurationSeconds          float64 `json:"maxDuration"`
	DirectionPenaltyWeight      float64 `json:"directionPenaltyWeight"`
	ReoptDirectionPenaltyWeight float64 `json:"reoptDirectionPenaltyWeight"`
	DropPenalty                 float64 `json:"dropPenalty"`

	AllowDroppingVisitsForProblematicZones bool `json:"allowDroppingVisitsForProblematicZones"`

	NightShiftGuardTimings map[string]GuardWindow `json:"nightShiftGuardTimings"`

	Tunables Tunables `json:"tunables"`
}

// ZoneRoutingEnabled reports whether employees are partitioned by polygon
// zones; when disabled everything is planned as one zone.
func (p *Profile) ZoneRoutingEnabled() bool {
	return p.ZoneBasedRouting == nil || *p.ZoneBasedRouting
}

// ZoneTargetSize returns the heuristic group target size for a zone.
func (p *Profile) ZoneTargetSize(zoneName string) int {
	for _, z := range p.LargeCapacityZones {
		if z == zoneName {
			return LargeZoneTargetSize
		}
	}
	for _, z := range p.MediumCapacityZones {
		if z == zoneName {
			return MediumZoneTargetSize
		}
	}
	for _, z := range p.SmallCapacityZones {
		if z == zoneName {
			return SmallZoneTargetSize
		}
	}
	return DefaultZoneTargetSize
}

// DeviationRules returns the rule table for the profile's facility type,
// sorted ascending by band start. Falls back to the DEFAULT table.
func (p *Profile) DeviationRules() []DeviationRule {
	rules, ok := p.RouteDeviationRules[p.FacilityType]
	if !ok {
		rules = p.RouteDeviationRules["DEFAULT"]
	}
	out := make([]DeviationRule, len(rules))
	copy(out, rules)
	sort.SliceStable(out, func(i, j int) bool { return out[i].MinDistKm < out[j].MinDistKm })
	return out
}

// GuardWindowFor returns the night-shift guard window for the trip
// direction, keyed as facilityType_TRIPTYPE.
func (p *Profile) GuardWindowFor(trip route.TripType) (GuardWindow, bool) {
	w, ok := p.NightShiftGuardTimings[p.FacilityType+"_"+string(trip)]
	return w, ok
}
