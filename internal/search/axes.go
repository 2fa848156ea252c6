// Package search explores a multi-dimensional geometric/propellant design
// space around baseline motor specs, memoizing simulation results and
// coordinating paired stages under shared hardware constraints.
package search

import (
	"math"

	"apogeecore/pkg/domain"
)

// Axes holds the per-axis scale lists defining the search grid. An empty axis
// means the identity scale.
type Axes struct {
	Diameter []float64 `json:"diameter,omitempty"`
	Length   []float64 `json:"length,omitempty"`
	Core     []float64 `json:"core,omitempty"`
	Throat   []float64 `json:"throat,omitempty"`
	Exit     []float64 `json:"exit,omitempty"`
}

func axisOrUnit(vals []float64) []float64 {
	if len(vals) == 0 {
		return []float64{1}
	}
	return vals
}

// Points expands the full Cartesian product over the five named axes. When
// fixedDiameter is non-nil the diameter axis is restricted to that single
// scale, the mode used when co-searching paired stages that must share a
// diameter.
func (a Axes) Points(fixedDiameter *float64) []domain.StageScales {
	diameters := axisOrUnit(a.Diameter)
	if fixedDiameter != nil {
		diameters = []float64{*fixedDiameter}
	}
	lengths := axisOrUnit(a.Length)
	cores := axisOrUnit(a.Core)
	throats := axisOrUnit(a.Throat)
	exits := axisOrUnit(a.Exit)

	points := make([]domain.StageScales, 0, len(diameters)*len(lengths)*len(cores)*len(throats)*len(exits))
	for _, d := range diameters {
		for _, l := range lengths {
			for _, c := range cores {
				for _, th := range throats {
					for _, ex := range exits {
						points = append(points, domain.StageScales{
							Diameter: d, Length: l, Core: c, Throat: th, Exit: ex,
						})
					}
				}
			}
		}
	}
	return points
}

// refinedAxes builds the narrower five-point per-axis ranges centered on the
// winning scales, spread by +/-spread fractionally.
func refinedAxes(center domain.StageScales, spread float64) Axes {
	span := func(c float64) []float64 {
		return []float64{
			c * (1 - spread),
			c * (1 - spread/2),
			c,
			c * (1 + spread/2),
			c * (1 + spread),
		}
	}
	return Axes{
		Diameter: span(center.Diameter),
		Length:   span(center.Length),
		Core:     span(center.Core),
		Throat:   span(center.Throat),
		Exit:     span(center.Exit),
	}
}

// Normalize clamps a scale tuple into simulable territory for the given
// baseline: the core stays below 98% of the scaled grain diameter, the throat
// is reined in so the port-to-throat area ratio respects the configured
// minimum, and the exit never closes below the throat.
func Normalize(baseline domain.MotorSpec, s domain.StageScales) domain.StageScales {
	out := s
	var refGrain domain.GrainGeometry
	for _, g := range baseline.Grains {
		if g.Diameter > refGrain.Diameter {
			refGrain = g
		}
	}

	scaledDiameter := refGrain.Diameter * out.Diameter
	scaledCore := refGrain.CoreDiameter * out.Core
	if limit := 0.98 * scaledDiameter; scaledCore > limit && refGrain.CoreDiameter > 0 {
		out.Core = limit / refGrain.CoreDiameter
		scaledCore = limit
	}

	if minRatio := baseline.Config.MinPortThroatRatio; minRatio > 0 {
		// Single-grain port/throat ratio (core/throat)^2: a conservative
		// floor, since the stack's summed port only raises the ratio.
		maxThroat := scaledCore / math.Sqrt(minRatio)
		if scaled := baseline.Nozzle.ThroatDiameter * out.Throat; scaled > maxThroat && baseline.Nozzle.ThroatDiameter > 0 {
			out.Throat = maxThroat / baseline.Nozzle.ThroatDiameter
		}
	}

	scaledThroat := baseline.Nozzle.ThroatDiameter * out.Throat
	if scaledExit := baseline.Nozzle.ExitDiameter * out.Exit; scaledExit < scaledThroat && baseline.Nozzle.ExitDiameter > 0 {
		out.Exit = scaledThroat / baseline.Nozzle.ExitDiameter
	}
	return out
}
