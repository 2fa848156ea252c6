package flight

import "apogeecore/pkg/domain"

// TwoStageInput describes a booster/sustainer flight.
type TwoStageInput struct {
	Booster   StageInput
	Sustainer StageInput
	// SeparationDelay is the coast between booster burnout and staging (s);
	// IgnitionDelay is the coast between staging and sustainer ignition.
	SeparationDelay float64
	IgnitionDelay   float64
	// RailOffset is the optional launch-rod altitude offset (m).
	RailOffset float64
	// TotalMass, when positive, is a combined mass target: dry masses are
	// rescaled proportionally so dry + simulated propellant sums to it while
	// preserving the stage-to-stage dry-mass ratio of the baseline hardware.
	TotalMass float64
}

// rescaleDryMasses applies the TotalMass target, mutating the stage inputs.
func (in *TwoStageInput) rescaleDryMasses() error {
	if in.TotalMass <= 0 {
		return nil
	}
	prop := in.Booster.Metrics.PropellantMass + in.Sustainer.Metrics.PropellantMass
	budget := in.TotalMass - prop
	baseline := in.Booster.DryMass + in.Sustainer.DryMass
	if budget <= 0 || baseline <= 0 {
		return domain.ConfigError{Field: "flight.total_mass", Reason: "target leaves no dry mass budget"}
	}
	scale := budget / baseline
	in.Booster.DryMass *= scale
	in.Sustainer.DryMass *= scale
	return nil
}

// SimulateTwoStage flies booster burn, separation coast, stage drop, ignition
// coast, sustainer burn, then coasts to apogee. Altitude and velocity carry
// over between phases.
func SimulateTwoStage(in TwoStageInput, diameter float64, env Environment) (domain.ApogeeResult, error) {
	if in.Booster.DryMass <= 0 || in.Sustainer.DryMass <= 0 {
		return domain.ApogeeResult{}, domain.ConfigError{Field: "flight.dry_mass", Reason: "must be positive"}
	}
	if err := in.rescaleDryMasses(); err != nil {
		return domain.ApogeeResult{}, err
	}

	st := &state{altitude: in.RailOffset}
	sustainerWet := in.Sustainer.DryMass + in.Sustainer.Metrics.PropellantMass

	boosterWet := in.Booster.DryMass + in.Booster.Metrics.PropellantMass + sustainerWet
	boosterDry := in.Booster.DryMass + sustainerWet
	if _, err := env.burn(st, in.Booster.Steps, boosterWet, boosterDry, diameter); err != nil {
		return domain.ApogeeResult{}, err
	}
	if err := env.coast(st, boosterDry, diameter, in.SeparationDelay); err != nil {
		return domain.ApogeeResult{}, err
	}
	// Staging: the booster's inert mass is dropped.
	if err := env.coast(st, sustainerWet, diameter, in.IgnitionDelay); err != nil {
		return domain.ApogeeResult{}, err
	}
	if _, err := env.burn(st, in.Sustainer.Steps, sustainerWet, in.Sustainer.DryMass, diameter); err != nil {
		return domain.ApogeeResult{}, err
	}
	burnout := st.time

	err := env.coast(st, in.Sustainer.DryMass, diameter, -1)
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
