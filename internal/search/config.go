package search

import "apogeecore/pkg/domain"

// StageSearchConfig describes one stage's grid and refinement behaviour.
type StageSearchConfig struct {
	Axes Axes `json:"axes"`
	// RefinementSpread is the fractional half-width of the local refinement
	// ranges around the full-grid winner. Zero selects the default 5%.
	RefinementSpread float64 `json:"refinement_spread,omitempty"`
	// SplitRatios lists the candidate booster shares of total impulse when
	// co-searching two stages. Zero length selects the defaults.
	SplitRatios []float64 `json:"split_ratios,omitempty"`
}

func (c StageSearchConfig) spread() float64 {
	if c.RefinementSpread <= 0 {
		return 0.05
	}
	return c.RefinementSpread
}

func (c StageSearchConfig) splitRatios() []float64 {
	if len(c.SplitRatios) == 0 {
		return []float64{0.55, 0.6, 0.65}
	}
	return c.SplitRatios
}

// Constraints are the hardware limits applied to every evaluated grid point
// and to paired-stage combinations.
type Constraints struct {
	// MaxPressure caps peak chamber pressure (Pa).
	MaxPressure float64 `json:"max_pressure"`
	// MaxKn caps the peak burning-area ratio.
	MaxKn float64 `json:"max_kn"`
	// MaxVehicleLength budgets the summed stage stack lengths (m).
	MaxVehicleLength float64 `json:"max_vehicle_length"`
	// MaxStageLengthRatio bounds how much paired stage lengths may differ.
	MaxStageLengthRatio float64 `json:"max_stage_length_ratio"`
}

// check filters a stage result against the per-stage limits. A nil return
// means the point passes.
func (c Constraints) check(res domain.StageResult) *domain.Rejection {
	if c.MaxPressure > 0 && res.Metrics.PeakPressure > c.MaxPressure {
		return &domain.Rejection{
			Reason:     domain.ReasonPressureExceeded,
			Detail:     detailf("peak pressure %.0f Pa exceeds limit %.0f Pa", res.Metrics.PeakPressure, c.MaxPressure),
			Propellant: res.Spec.Propellant.Name,
			Scales:     res.Scales,
		}
	}
	if c.MaxKn > 0 && res.Metrics.PeakKn > c.MaxKn {
		return &domain.Rejection{
			Reason:     domain.ReasonKnExceeded,
			Detail:     detailf("peak Kn %.1f exceeds limit %.1f", res.Metrics.PeakKn, c.MaxKn),
			Propellant: res.Spec.Propellant.Name,
			Scales:     res.Scales,
		}
	}
	return nil
}

// Objectives describe the mission targets driving the search.
type Objectives struct {
	// TargetApogee in metres.
	TargetApogee float64 `json:"target_apogee"`
	// TargetVelocity is an optional max-velocity target (m/s).
	TargetVelocity float64 `json:"target_velocity,omitempty"`
	// Tolerance is the fractional acceptance band around the apogee target.
	// Zero selects 10%.
	Tolerance float64 `json:"tolerance,omitempty"`
	// TargetImpulse overrides the impulse derivation when positive (N*s).
	TargetImpulse float64 `json:"target_impulse,omitempty"`
}

func (o Objectives) tolerance() float64 {
	if o.Tolerance <= 0 {
		return 0.10
	}
	return o.Tolerance
}

// deriveTargetImpulse estimates the total impulse needed to push totalMass to
// the target apogee: the ideal velocity for a drag-free vertical coast,
// inflated by a loss factor for drag and gravity during the burn.
func (o Objectives) deriveTargetImpulse(totalMass float64) float64 {
	if o.TargetImpulse > 0 {
		return o.TargetImpulse
	}
	const lossFactor = 1.25
	vIdeal := sqrt2gh(o.TargetApogee)
	if o.TargetVelocity > vIdeal {
		vIdeal = o.TargetVelocity
	}
	return totalMass * vIdeal * lossFactor
}
