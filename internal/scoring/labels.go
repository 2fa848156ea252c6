package scoring

import "apogeecore/pkg/domain"

// Label thresholds. Proximity is measured as peak value over its cap.
const (
	capProximity    = 0.9
	shortBurnLimit  = 3.0
	longBurnLimit   = 8.0
	highThrustFloor = 500.0
)

// classify assigns a descriptive label from simple threshold rules on burn
// time, average thrust and pressure/Kn proximity to their caps. Labels are
// informational only and never feed the composite score.
func classify(c domain.Candidate, limits Limits) string {
	m := c.Metrics
	if limits.MaxPressure > 0 && m.PeakPressure >= capProximity*limits.MaxPressure {
		return "Pressure-limited design"
	}
	if limits.MaxKn > 0 && m.PeakKn >= capProximity*limits.MaxKn {
		return "Kn-limited design"
	}
	if m.BurnTime > 0 && m.BurnTime <= shortBurnLimit && m.AverageThrust >= highThrustFloor {
		return "High-thrust booster"
	}
	if m.BurnTime >= longBurnLimit {
		return "Long-burn sustainer"
	}
	return "Balanced design"
}
