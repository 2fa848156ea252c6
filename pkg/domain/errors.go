package domain

import (
	"errors"
	"fmt"
	"math"
)

// SimulationError reports that a spec could not sustain a burn or produced a
// physically invalid state. It is recoverable: the caller may retry with the
// relaxed fallback engine or record the point as a rejection. It is never
// fatal to an overall search.
type SimulationError struct {
	Spec   string
	Reason string
}

func (e SimulationError) Error() string {
	if e.Spec == "" {
		return "simulation failed: " + e.Reason
	}
	return fmt.Sprintf("simulation of %s failed: %s", e.Spec, e.Reason)
}

// IsSimulationFailure reports whether err is a SimulationError anywhere in its
// chain. NumericalDivergence is folded in here: NaN/Inf in a trajectory is
// recorded as a simulation failure for that candidate.
func IsSimulationFailure(err error) bool {
	var se SimulationError
	return errors.As(err, &se)
}

// ConfigError reports a structurally invalid input: missing propellant tabs,
// an empty grain list, non-positive geometry. Always fatal, raised at the
// load boundary before any simulation runs.
type ConfigError struct {
	Field  string
	Reason string
	// Index identifies the offending element for list-valued fields.
	Index int
}

func (e ConfigError) Error() string {
	if e.Index > 0 {
		return fmt.Sprintf("invalid %s[%d]: %s", e.Field, e.Index, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConstraintViolation reports that an otherwise valid candidate failed a
// hardware or mission constraint. It filters the candidate out with a recorded
// reason; it is not raised as an exception by the optimizer.
type ConstraintViolation struct {
	Reason RejectionReason
	Detail string
}

func (e ConstraintViolation) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

// ErrNoViableCandidates is the sentinel carried in a summary when the entire
// explored space was rejected. It is reported, not raised.
var ErrNoViableCandidates = errors.New("no viable candidates")

// FiniteOrErr returns a SimulationError when any of the values is NaN or Inf,
// preventing numerical divergence from propagating through the pipeline.
func FiniteOrErr(spec string, values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return SimulationError{Spec: spec, Reason: "numerical divergence (NaN or Inf)"}
		}
	}
	return nil
}
