package ballistics

import (
	"math"

	"apogeecore/pkg/domain"
)

// TotalImpulse integrates a thrust curve by the trapezoidal rule.
func TotalImpulse(steps []domain.TimeStep) float64 {
	var impulse float64
	for i := 1; i < len(steps); i++ {
		dt := steps[i].Time - steps[i-1].Time
		impulse += (steps[i].Thrust + steps[i-1].Thrust) / 2 * dt
	}
	return impulse
}

// rollup computes the aggregate scalar metrics for a non-empty thrust curve.
func rollup(spec domain.MotorSpec, steps []domain.TimeStep) domain.AggregateMetrics {
	m := domain.AggregateMetrics{
		TotalImpulse:     TotalImpulse(steps),
		BurnTime:         steps[len(steps)-1].Time,
		InitialKn:        steps[0].Kn,
		PropellantMass:   spec.PropellantMass(),
		PropellantLength: spec.StackLength(),
	}

	var pressureSum, thrustSum float64
	for _, s := range steps {
		pressureSum += s.ChamberPressure
		thrustSum += s.Thrust
		if s.ChamberPressure > m.PeakPressure {
			m.PeakPressure = s.ChamberPressure
		}
		if s.Thrust > m.PeakThrust {
			m.PeakThrust = s.Thrust
		}
		if s.Kn > m.PeakKn {
			m.PeakKn = s.Kn
		}
		if s.PortArea > 0 {
			flux := s.MassFlow / s.PortArea
			if flux > m.PeakMassFlux {
				m.PeakMassFlux = flux
			}
		}
	}
	n := float64(len(steps))
	m.AveragePressure = pressureSum / n
	m.AverageThrust = thrustSum / n

	throatArea := spec.Nozzle.ThroatArea()
	m.PortThroatRatio = steps[0].PortArea / throatArea

	tab := spec.Propellant.TabForPressure(m.AveragePressure)
	m.IdealCf = thrustCoefficient(m.AveragePressure, spec.Config.AmbientPressure,
		spec.Nozzle.ExitArea()/throatArea, tab.SpecificHeatRatio)
	m.DeliveredCf = m.IdealCf * spec.Nozzle.Efficiency

	bore := spec.Diameter() / 2
	envelope := math.Pi * bore * bore * spec.StackLength()
	if envelope > 0 {
		m.VolumeLoading = (m.PropellantMass / spec.Propellant.Density) / envelope
	}
	if m.PropellantMass > 0 {
		m.DeliveredIsp = m.TotalImpulse / (m.PropellantMass * domain.StandardGravity)
	}
	return m
}
