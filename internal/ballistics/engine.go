package ballistics

import (
	"math"

	"apogeecore/pkg/domain"
)

// maxSteps caps the integration loop so malformed tuning can never spin
// forever.
const maxSteps = 20000

// Simulate runs the fixed-timestep regression integration for spec and
// returns the thrust curve with its scalar rollup. It returns a
// SimulationError when ignition never sustains or the state diverges, and a
// ConfigError when the spec is structurally invalid.
func Simulate(spec domain.MotorSpec) ([]domain.TimeStep, domain.AggregateMetrics, error) {
	if err := spec.Validate(); err != nil {
		return nil, domain.AggregateMetrics{}, err
	}

	cfg := spec.Config
	throatArea := spec.Nozzle.ThroatArea()
	exitArea := spec.Nozzle.ExitArea()
	areaRatio := exitArea / throatArea
	density := spec.Propellant.Density

	_, initialPort := motorAreas(spec, 0)
	if cfg.MinPortThroatRatio > 0 && initialPort/throatArea < cfg.MinPortThroatRatio {
		return nil, domain.AggregateMetrics{}, domain.SimulationError{
			Spec:   spec.Name,
			Reason: "port-to-throat ratio below configured minimum",
		}
	}

	var (
		steps   []domain.TimeStep
		elapsed float64
		web     float64
	)
	pressure := cfg.AmbientPressure

	for i := 0; i < maxSteps; i++ {
		burning, port := motorAreas(spec, web)
		if burning <= 0 || port <= 0 {
			break // burnout
		}

		// Two-pass fixed point: solve with the tab selected by the previous
		// pressure, then re-select by the result and solve once more. Not
		// iterated to convergence; changing this requires re-validation
		// against reference burns.
		tab := spec.Propellant.TabForPressure(pressure)
		p, err := solvePressure(spec.Name, tab, density, burning, throatArea)
		if err != nil {
			return nil, domain.AggregateMetrics{}, err
		}
		tab = spec.Propellant.TabForPressure(p)
		p, err = solvePressure(spec.Name, tab, density, burning, throatArea)
		if err != nil {
			return nil, domain.AggregateMetrics{}, err
		}
		pressure = p

		burnRate := tab.BurnRateCoef * math.Pow(pressure, tab.BurnRateExp)
		cf := thrustCoefficient(pressure, cfg.AmbientPressure, areaRatio, tab.SpecificHeatRatio)
		thrust := cf * pressure * throatArea * spec.Nozzle.Efficiency
		massFlow := pressure * throatArea / tab.CharacteristicVelocity()

		if err := domain.FiniteOrErr(spec.Name, pressure, burnRate, thrust, massFlow); err != nil {
			return nil, domain.AggregateMetrics{}, err
		}

		steps = append(steps, domain.TimeStep{
			Time:            elapsed,
			ChamberPressure: pressure,
			Thrust:          thrust,
			MassFlow:        massFlow,
			Kn:              burning / throatArea,
			PortArea:        port,
		})

		elapsed += cfg.Timestep
		web += burnRate * cfg.Timestep

		if pressure > cfg.MaxPressure {
			break
		}
		if burnRate*cfg.Timestep < cfg.BurnoutWebThreshold {
			break
		}
		if thrust < cfg.BurnoutThrustThreshold {
			break
		}
	}

	if len(steps) == 0 {
		return nil, domain.AggregateMetrics{}, domain.SimulationError{
			Spec:   spec.Name,
			Reason: "ignition never sustained",
		}
	}
	return steps, rollup(spec, steps), nil
}

// solvePressure evaluates the quasi-steady mass-balance chamber pressure
// P = (rho*Ab*a*cstar/At)^(1/(1-n)). A non-positive base or degenerate
// exponent is an immediate simulation failure, never a NaN.
func solvePressure(name string, tab domain.PropellantTab, density, burning, throatArea float64) (float64, error) {
	denom := 1 - tab.BurnRateExp
	if denom <= 0 {
		return 0, domain.SimulationError{Spec: name, Reason: "burn rate exponent at or above 1"}
	}
	base := density * burning * tab.BurnRateCoef * tab.CharacteristicVelocity() / throatArea
	if base <= 0 {
		return 0, domain.SimulationError{Spec: name, Reason: "non-positive pressure base (no burning area)"}
	}
	p := math.Pow(base, 1/denom)
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, domain.SimulationError{Spec: name, Reason: "pressure solve diverged"}
	}
	return p, nil
}
