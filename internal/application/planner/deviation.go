package planner

import (
	"context"

	"github.com/transitops/shuttleplan-go/internal/domain/employee"
	"github.com/transitops/shuttleplan-go/internal/domain/profile"
	"github.com/transitops/shuttleplan-go/internal/domain/route"
	"github.com/transitops/shuttleplan-go/internal/domain/shared"
	"github.com/transitops/shuttleplan-go/pkg/utils"
)

const (
	deviationEpsilonKm = 1e-6

	// Recovery-pass exceedance allowance: min(5% of the limit, 2 km).
	recoveryToleranceFraction = 0.05
	recoveryToleranceCapKm    = 2.0
)

// pickDeviationRule selects the band whose [min, max] contains farthestKm.
// Distances beyond every band take the highest band; below every band, the
// closest one.
func pickDeviationRule(rules []profile.DeviationRule, farthestKm float64) (profile.DeviationRule, bool) {
	if len(rules) == 0 {
		return profile.DeviationRule{}, false
	}
	for _, rule := range rules {
		if farthestKm >= rule.MinDistKm-deviationEpsilonKm && farthestKm <= rule.MaxDistKm+deviationEpsilonKm {
			return rule, true
		}
	}
	if farthestKm < rules[0].MinDistKm {
		return rules[0], true
	}
	return rules[len(rules)-1], true
}

// checkDeviation validates a group's total driven distance against the rule
// for its farthest member's road distance. It returns the farthest distance
// for the route record. tolerant enables the recovery-pass allowance.
func (r *run) checkDeviation(ctx context.Context, emps []*employee.Employee, details route.Details, tolerant bool) (float64, error) {
	rules := r.profile.DeviationRules()
	if r.svc.opts.DeviationBypass || len(rules) == 0 {
		return farthestHaversineKm(emps), nil
	}

	farthest, err := r.farthestRoadKm(ctx, emps)
	if err != nil {
		return 0, err
	}
	rule, ok := pickDeviationRule(rules, farthest)
	if !ok {
		return farthest, nil
	}

	limit := rule.MaxTotalOneWayKm
	allowed := limit
	if tolerant {
		allowed += utils.MinFloat(recoveryToleranceFraction*limit, recoveryToleranceCapKm)
	}
	if total := details.TotalKm(); total > allowed+deviationEpsilonKm {
		return farthest, shared.NewDeviationError(total, limit)
	}
	return farthest, nil
}

// durationOK reports whether a driven route fits the profile's buffered
// duration cap.
func (r *run) durationOK(details route.Details) bool {
	return details.TotalDurationSeconds <= r.profile.MaxDurationSeconds
}
