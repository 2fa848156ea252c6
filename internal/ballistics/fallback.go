package ballistics

import "apogeecore/pkg/domain"

// engineState tracks the simulate-then-relax transitions explicitly rather
// than through nested retries.
type engineState int

const (
	statePrimary engineState = iota
	stateRelaxed
	stateFailed
)

// relaxed returns a copy of spec with burnout thresholds and the minimum
// port-to-throat ratio zeroed, the best-effort rerun used for geometries the
// primary pass rejects cleanly.
func relaxed(spec domain.MotorSpec) domain.MotorSpec {
	out := spec
	out.Config.BurnoutWebThreshold = 0
	out.Config.BurnoutThrustThreshold = 0
	out.Config.MinPortThroatRatio = 0
	return out
}

// SimulateWithFallback runs the primary integrator and, on a clean simulation
// failure, reruns once with the relaxed variant. The returned engine tag lets
// downstream consumers distinguish authoritative from best-effort output.
// Configuration errors propagate immediately without a relaxed attempt.
func SimulateWithFallback(spec domain.MotorSpec) ([]domain.TimeStep, domain.AggregateMetrics, domain.SimulationEngine, error) {
	state := statePrimary
	for {
		switch state {
		case statePrimary:
			steps, metrics, err := Simulate(spec)
			if err == nil {
				return steps, metrics, domain.EnginePrimary, nil
			}
			if !domain.IsSimulationFailure(err) {
				return nil, domain.AggregateMetrics{}, "", err
			}
			state = stateRelaxed
		case stateRelaxed:
			steps, metrics, err := Simulate(relaxed(spec))
			if err == nil {
				return steps, metrics, domain.EngineFallback, nil
			}
			if !domain.IsSimulationFailure(err) {
				return nil, domain.AggregateMetrics{}, "", err
			}
			state = stateFailed
		case stateFailed:
			return nil, domain.AggregateMetrics{}, "", domain.SimulationError{
				Spec:   spec.Name,
				Reason: "primary and relaxed integrations both failed",
			}
		}
	}
}
