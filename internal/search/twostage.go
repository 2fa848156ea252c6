package search

import (
	"context"
	"math"

	"apogeecore/internal/flight"
	"apogeecore/pkg/domain"
)

// diameterTolerance is the floating tolerance for the shared-diameter match
// between paired stages.
const diameterTolerance = 1e-9

// exploreTwoStage co-searches a booster/sustainer pair under one propellant.
// Paired stages must share a diameter exactly, so the diameter axis is walked
// jointly: for every shared diameter scale and every impulse split ratio both
// stage grids are built with the diameter fixed, then the winning pair is
// checked against the length constraints and flown end to end.
func (e *Engine) exploreTwoStage(ctx context.Context, req Request, prop domain.PropellantSpec, env flight.Environment) (*domain.Candidate, []domain.Rejection, error) {
	booster := withPropellant(req.Baselines[0], prop)
	sustainer := withPropellant(req.Baselines[1], prop)

	totalMass := req.TotalMass
	if totalMass <= 0 {
		totalMass = req.DryMasses[0] + req.DryMasses[1] + booster.PropellantMass() + sustainer.PropellantMass()
	}
	totalTarget := req.Objectives.deriveTargetImpulse(totalMass)

	var (
		best      *domain.Candidate
		bestErr   float64
		rejection []domain.Rejection
	)
	diameters := axisOrUnit(req.stageConfig(0).Axes.Diameter)
	for _, dScale := range diameters {
		for _, split := range req.stageConfig(0).splitRatios() {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			cand, rejs, err := e.evaluatePair(ctx, req, booster, sustainer, prop, env, pairTargets{
				diameterScale: dScale,
				boosterTarget: totalTarget * split,
				sustainTarget: totalTarget * (1 - split),
			})
			if err != nil {
				return nil, nil, err
			}
			rejection = append(rejection, rejs...)
			if cand == nil {
				continue
			}
			objErr := math.Abs(cand.Apogee.Apogee - req.Objectives.TargetApogee)
			if best == nil || objErr < bestErr {
				best = cand
				bestErr = objErr
			}
		}
	}

	if best != nil && !withinTolerance(req.Objectives, best.Apogee.Apogee) {
		rejection = append(rejection, domain.Rejection{
			Reason:     domain.ReasonOutsideTolerance,
			Detail:     detailf("apogee %.0f m outside %.0f%% of target %.0f m", best.Apogee.Apogee, req.Objectives.tolerance()*100, req.Objectives.TargetApogee),
			Propellant: prop.Name,
		})
	}
	return best, rejection, nil
}

// pairTargets carries one (diameter scale, impulse split) combination.
type pairTargets struct {
	diameterScale float64
	boosterTarget float64
	sustainTarget float64
}

func (e *Engine) evaluatePair(ctx context.Context, req Request, booster, sustainer domain.MotorSpec, prop domain.PropellantSpec, env flight.Environment, pt pairTargets) (*domain.Candidate, []domain.Rejection, error) {
	boosterGrid, err := e.BuildStageGrid(ctx, booster, pt.boosterTarget, req.stageConfig(0), req.Constraints, &pt.diameterScale)
	if err != nil {
		return nil, nil, err
	}
	boosterGrid, err = e.Refine(ctx, booster, pt.boosterTarget, req.stageConfig(0), req.Constraints, boosterGrid, &pt.diameterScale)
	if err != nil {
		return nil, nil, err
	}
	sustainGrid, err := e.BuildStageGrid(ctx, sustainer, pt.sustainTarget, req.stageConfig(1), req.Constraints, &pt.diameterScale)
	if err != nil {
		return nil, nil, err
	}
	sustainGrid, err = e.Refine(ctx, sustainer, pt.sustainTarget, req.stageConfig(1), req.Constraints, sustainGrid, &pt.diameterScale)
	if err != nil {
		return nil, nil, err
	}

	rejections := append(boosterGrid.Rejections, sustainGrid.Rejections...)
	if boosterGrid.Best == nil || sustainGrid.Best == nil {
		return nil, rejections, nil
	}
	b, s := *boosterGrid.Best, *sustainGrid.Best

	if math.Abs(b.Spec.Diameter()-s.Spec.Diameter()) > diameterTolerance {
		rejections = append(rejections, domain.Rejection{
			Reason:     domain.ReasonDiameterMismatch,
			Detail:     detailf("booster %.4f m vs sustainer %.4f m", b.Spec.Diameter(), s.Spec.Diameter()),
			Propellant: prop.Name,
		})
		return nil, rejections, nil
	}

	lenB, lenS := b.Metrics.PropellantLength, s.Metrics.PropellantLength
	if ratio := req.Constraints.MaxStageLengthRatio; ratio > 0 {
		longer, shorter := lenB, lenS
		if shorter > longer {
			longer, shorter = shorter, longer
		}
		if shorter > 0 && longer/shorter > ratio {
			rejections = append(rejections, domain.Rejection{
				Reason:     domain.ReasonLengthRatio,
				Detail:     detailf("stage lengths %.3f m and %.3f m exceed ratio %.2f", lenB, lenS, ratio),
				Propellant: prop.Name,
			})
			return nil, rejections, nil
		}
	}
	if budget := req.Constraints.MaxVehicleLength; budget > 0 && lenB+lenS > budget {
		rejections = append(rejections, domain.Rejection{
			Reason:     domain.ReasonStackTooLong,
			Detail:     detailf("stack %.3f m exceeds vehicle budget %.3f m", lenB+lenS, budget),
			Propellant: prop.Name,
		})
		return nil, rejections, nil
	}

	_, bSteps, err := e.evaluate(booster, *b.Scales)
	if err != nil {
		return nil, rejections, nil
	}
	_, sSteps, err := e.evaluate(sustainer, *s.Scales)
	if err != nil {
		return nil, rejections, nil
	}

	diameter := req.VehicleDiameter
	if diameter <= 0 {
		diameter = b.Spec.Diameter()
	}
	apogee, err := flight.SimulateTwoStage(flight.TwoStageInput{
		Booster:         flight.StageInput{Steps: bSteps, Metrics: b.Metrics, DryMass: req.DryMasses[0]},
		Sustainer:       flight.StageInput{Steps: sSteps, Metrics: s.Metrics, DryMass: req.DryMasses[1]},
		SeparationDelay: req.SeparationDelay,
		IgnitionDelay:   req.IgnitionDelay,
		RailOffset:      req.RailOffset,
		TotalMass:       req.TotalMass,
	}, diameter, env)
	if err != nil {
		if domain.IsSimulationFailure(err) {
			rejections = append(rejections, domain.Rejection{
				Reason:     domain.ReasonSimulationFailed,
				Detail:     err.Error(),
				Propellant: prop.Name,
			})
			return nil, rejections, nil
		}
		return nil, nil, err
	}
	if apogee.Implausible {
		rejections = append(rejections, domain.Rejection{
			Reason:     domain.ReasonFlightImplausible,
			Detail:     "step cap reached before apogee",
			Propellant: prop.Name,
		})
	}

	engineTag := domain.EnginePrimary
	if b.Engine == domain.EngineFallback || s.Engine == domain.EngineFallback {
		engineTag = domain.EngineFallback
	}
	vehicleLength := req.Constraints.MaxVehicleLength
	if vehicleLength <= 0 {
		vehicleLength = lenB + lenS
	}
	cand := domain.Candidate{
		Name:            booster.Name + "+" + sustainer.Name + "/" + prop.Name,
		Metrics:         combineMetrics(b.Metrics, s.Metrics),
		Steps:           bSteps,
		Apogee:          apogee,
		StageLength:     lenB,
		VehicleLength:   vehicleLength,
		VehicleDiameter: diameter,
		Engine:          engineTag,
		Stages:          []domain.StageResult{b, s},
	}
	return &cand, rejections, nil
}

// combineMetrics rolls two stage rollups into vehicle-level metrics: additive
// quantities sum, envelope quantities take the worst stage.
func combineMetrics(a, b domain.AggregateMetrics) domain.AggregateMetrics {
	out := a
	out.TotalImpulse += b.TotalImpulse
	out.BurnTime += b.BurnTime
	out.PropellantMass += b.PropellantMass
	out.PropellantLength += b.PropellantLength
	out.AveragePressure = (a.AveragePressure + b.AveragePressure) / 2
	out.AverageThrust = (a.AverageThrust + b.AverageThrust) / 2
	out.PeakPressure = math.Max(a.PeakPressure, b.PeakPressure)
	out.PeakThrust = math.Max(a.PeakThrust, b.PeakThrust)
	out.PeakKn = math.Max(a.PeakKn, b.PeakKn)
	out.PeakMassFlux = math.Max(a.PeakMassFlux, b.PeakMassFlux)
	out.PortThroatRatio = math.Min(a.PortThroatRatio, b.PortThroatRatio)
	out.VolumeLoading = (a.VolumeLoading + b.VolumeLoading) / 2
	if out.PropellantMass > 0 {
		out.DeliveredIsp = out.TotalImpulse / (out.PropellantMass * domain.StandardGravity)
	}
	return out
}
