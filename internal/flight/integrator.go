// Package flight propagates single- and two-stage vertical trajectories from
// ignition through apogee, consuming thrust curves from the ballistics
// simulator and density/drag from the atmosphere model.
package flight

import (
	"math"

	"apogeecore/internal/atmosphere"
	"apogeecore/pkg/domain"
)

const (
	// earthRadius for the inverse-square gravity correction (m).
	earthRadius = 6.371e6
	// stepSeconds is the fixed integration step.
	stepSeconds = 0.01
	// maxFlightSteps caps any phase so a flight that never reaches apogee is
	// flagged implausible instead of looping forever.
	maxFlightSteps = 500000
)

// Environment carries the flight conditions shared by every stage.
type Environment struct {
	Atmosphere atmosphere.Model
	Drag       atmosphere.DragModel
	// LaunchAngleDeg is measured from vertical; thrust is projected by its
	// cosine.
	LaunchAngleDeg float64
	// WindSpeed is the scalar relative-velocity adjustment (m/s).
	WindSpeed float64
}

// StageInput couples a simulated thrust curve with the stage's inert mass.
type StageInput struct {
	Steps   []domain.TimeStep
	Metrics domain.AggregateMetrics
	DryMass float64
}

// state is the integrator's running condition, shared across phases.
type state struct {
	time     float64
	altitude float64
	velocity float64
	maxVel   float64
	maxAccel float64
}

// gravityAt returns local gravitational acceleration with the inverse-square
// altitude correction.
func gravityAt(altitude float64) float64 {
	r := earthRadius / (earthRadius + altitude)
	return domain.StandardGravity * r * r
}

// interpolate linearly samples the thrust curve at time t, returning thrust
// and mass flow. Beyond the final sample both are zero.
func interpolate(steps []domain.TimeStep, t float64) (thrust, massFlow float64) {
	if len(steps) == 0 || t > steps[len(steps)-1].Time {
		return 0, 0
	}
	if t <= steps[0].Time {
		return steps[0].Thrust, steps[0].MassFlow
	}
	for i := 1; i < len(steps); i++ {
		if t <= steps[i].Time {
			lo, hi := steps[i-1], steps[i]
			frac := (t - lo.Time) / (hi.Time - lo.Time)
			return lo.Thrust + frac*(hi.Thrust-lo.Thrust), lo.MassFlow + frac*(hi.MassFlow-lo.MassFlow)
		}
	}
	return 0, 0
}

// burn integrates one powered phase. mass starts at wet and is depleted by
// the interpolated mass-flow rate down to dry. The reference area is derived
// from diameter.
func (e Environment) burn(st *state, steps []domain.TimeStep, wet, dry, diameter float64) (float64, error) {
	if len(steps) == 0 {
		return wet, domain.SimulationError{Reason: "empty thrust curve"}
	}
	area := math.Pi * diameter * diameter / 4
	cosAngle := math.Cos(e.LaunchAngleDeg * math.Pi / 180)
	duration := steps[len(steps)-1].Time
	mass := wet

	for t := 0.0; t <= duration; t += stepSeconds {
		thrust, massFlow := interpolate(steps, t)
		if err := e.step(st, mass, thrust*cosAngle, area); err != nil {
			return mass, err
		}
		mass -= massFlow * stepSeconds
		if mass < dry {
			mass = dry
		}
		// A rocket that cannot lift its own weight stays on the pad.
		if st.altitude <= 0 && st.velocity < 0 {
			st.altitude = 0
			st.velocity = 0
		}
	}
	return mass, nil
}

// coast integrates an unpowered phase. A negative duration means coast until
// vertical velocity crosses zero (apogee).
func (e Environment) coast(st *state, mass, diameter, duration float64) error {
	area := math.Pi * diameter * diameter / 4
	toApogee := duration < 0
	steps := 0
	for {
		if toApogee {
			if st.velocity <= 0 {
				return nil
			}
		} else if duration <= 0 {
			return nil
		}
		if steps >= maxFlightSteps {
			return errStepCap
		}
		if err := e.step(st, mass, 0, area); err != nil {
			return err
		}
		duration -= stepSeconds
		steps++
	}
}

// errStepCap marks a phase that hit the hard iteration cap.
var errStepCap = domain.SimulationError{Reason: "flight step cap reached before apogee"}

// step advances the state one fixed timestep under the supplied thrust.
func (e Environment) step(st *state, mass, thrust, area float64) error {
	relVel := st.velocity + e.WindSpeed
	rho := e.Atmosphere.Density(st.altitude)
	mach := math.Abs(relVel) / e.Atmosphere.SpeedOfSound(st.altitude)
	cd := e.Drag.Coefficient(mach)
	drag := 0.5 * rho * cd * area * relVel * math.Abs(relVel)

	accel := (thrust - mass*gravityAt(st.altitude) - drag) / mass
	st.velocity += accel * stepSeconds
	st.altitude += st.velocity * stepSeconds
	st.time += stepSeconds

	if err := domain.FiniteOrErr("", st.velocity, st.altitude, accel); err != nil {
		return err
	}
	if st.velocity > st.maxVel {
		st.maxVel = st.velocity
	}
	if a := math.Abs(accel); a > st.maxAccel {
		st.maxAccel = a
	}
	return nil
}

// SimulateSingleStage flies one stage vertically from the pad to apogee.
func SimulateSingleStage(stage StageInput, diameter float64, env Environment) (domain.ApogeeResult, error) {
	if stage.DryMass <= 0 {
		return domain.ApogeeResult{}, domain.ConfigError{Field: "flight.dry_mass", Reason: "must be positive"}
	}
	st := &state{}
	wet := stage.DryMass + stage.Metrics.PropellantMass
	if _, err := env.burn(st, stage.Steps, wet, stage.DryMass, diameter); err != nil {
		return domain.ApogeeResult{}, err
	}
	burnout := st.time
	err := env.coast(st, stage.DryMass, diameter, -1)
	result := domain.ApogeeResult{
		Apogee:      st.altitude,
		MaxVelocity: st.maxVel,
		MaxAccel:    st.maxAccel,
		BurnoutTime: burnout,
	}
	if err == errStepCap {
		result.Implausible = true
		return result, nil
	}
	if err != nil {
		return domain.ApogeeResult{}, err
	}
	return result, nil
}
