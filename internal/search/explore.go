package search

import (
	"context"
	"math"
	"strings"

	"apogeecore/internal/atmosphere"
	"apogeecore/internal/flight"
	"apogeecore/pkg/domain"
)

// Request describes one complete search invocation.
type Request struct {
	// Baselines holds the per-stage baseline specs: one for a single-stage
	// search, two (booster, sustainer) for a paired search.
	Baselines []domain.MotorSpec `json:"baselines"`
	// Configs holds the per-stage search grids; when shorter than Baselines
	// the first entry is reused.
	Configs     []StageSearchConfig `json:"configs"`
	Objectives  Objectives          `json:"objectives"`
	Constraints Constraints         `json:"constraints"`
	// Propellants is the preset catalog slice to explore. Empty means the
	// baselines' own propellants only.
	Propellants []domain.PropellantSpec `json:"propellants,omitempty"`
	// AllowFamilies and AllowNames filter the catalog before exploration.
	AllowFamilies []string `json:"allow_families,omitempty"`
	AllowNames    []string `json:"allow_names,omitempty"`
	// DryMasses per stage (kg); TotalMass optionally rescales them.
	DryMasses []float64 `json:"dry_masses"`
	TotalMass float64   `json:"total_mass,omitempty"`
	// VehicleDiameter overrides the reference diameter; zero derives it from
	// the scaled booster.
	VehicleDiameter float64 `json:"vehicle_diameter,omitempty"`
	SeparationDelay float64 `json:"separation_delay,omitempty"`
	IgnitionDelay   float64 `json:"ignition_delay,omitempty"`
	RailOffset      float64 `json:"rail_offset,omitempty"`
	// Env carries the flight conditions; zero values are defaulted.
	Env flight.Environment `json:"-"`
	// Seed drives reproducible tie-breaking and exploration order.
	Seed        int64 `json:"seed"`
	Parallelism int   `json:"parallelism,omitempty"`
}

// Response is the search result envelope.
type Response struct {
	// Candidates lists every end-to-end evaluated design, feasible or not;
	// ranking is the scorer's job.
	Candidates []domain.Candidate   `json:"candidates"`
	Rejections []domain.Rejection   `json:"rejections"`
	Summary    domain.SearchSummary `json:"summary"`
}

// filterPropellants applies the family/name allow-lists.
func filterPropellants(catalog []domain.PropellantSpec, families, names []string) []domain.PropellantSpec {
	if len(families) == 0 && len(names) == 0 {
		return catalog
	}
	allowed := func(p domain.PropellantSpec) bool {
		for _, f := range families {
			if strings.EqualFold(p.Family, f) {
				return true
			}
		}
		for _, n := range names {
			if strings.EqualFold(p.Name, n) {
				return true
			}
		}
		return false
	}
	var out []domain.PropellantSpec
	for _, p := range catalog {
		if allowed(p) {
			out = append(out, p)
		}
	}
	return out
}

func (r Request) stageConfig(i int) StageSearchConfig {
	if i < len(r.Configs) {
		return r.Configs[i]
	}
	if len(r.Configs) > 0 {
		return r.Configs[0]
	}
	return StageSearchConfig{}
}

// withPropellant returns a baseline variant carrying the candidate propellant.
func withPropellant(baseline domain.MotorSpec, p domain.PropellantSpec) domain.MotorSpec {
	out := baseline
	out.Propellant = p
	return out
}

// defaultedEnv fills unset flight-environment values.
func defaultedEnv(env flight.Environment) flight.Environment {
	if env.Drag == nil {
		env.Drag = atmosphere.ConstantDrag{Cd: 0.5}
	}
	var zero atmosphere.Model
	if env.Atmosphere == zero {
		env.Atmosphere = atmosphere.NewModel(0)
	}
	return env
}

// Explore runs the full multi-propellant design-space search and aggregates
// every evaluated candidate and every rejection. Absence of a viable
// candidate is reported in the summary, not returned as an error; only a
// structurally invalid search space fails.
func Explore(ctx context.Context, req Request) (Response, error) {
	switch len(req.Baselines) {
	case 1, 2:
	default:
		return Response{}, domain.ConfigError{Field: "search.baselines", Reason: "exactly one or two stage baselines required"}
	}
	if len(req.DryMasses) < len(req.Baselines) {
		return Response{}, domain.ConfigError{Field: "search.dry_masses", Reason: "one dry mass per stage required"}
	}
	for _, b := range req.Baselines {
		if err := b.Validate(); err != nil {
			return Response{}, err
		}
	}

	propellants := req.Propellants
	if len(propellants) == 0 {
		propellants = []domain.PropellantSpec{req.Baselines[0].Propellant}
	}
	propellants = filterPropellants(propellants, req.AllowFamilies, req.AllowNames)
	if len(propellants) == 0 {
		return Response{}, domain.ConfigError{Field: "search.propellants", Reason: "no propellants matched the allow-list"}
	}
	for _, p := range propellants {
		if err := p.Validate(); err != nil {
			return Response{}, err
		}
	}

	engine := NewEngine(req.Seed, req.Parallelism)
	env := defaultedEnv(req.Env)

	// Exploration order is shuffled through the seeded RNG so catalog order
	// never silently biases tie outcomes, while staying reproducible.
	order := engine.rng.Perm(len(propellants))

	resp := Response{}
	for _, idx := range order {
		p := propellants[idx]
		var (
			candidate *domain.Candidate
			rejs      []domain.Rejection
			err       error
		)
		if len(req.Baselines) == 1 {
			candidate, rejs, err = engine.exploreSingle(ctx, req, p, env)
		} else {
			candidate, rejs, err = engine.exploreTwoStage(ctx, req, p, env)
		}
		if err != nil {
			return Response{}, err
		}
		resp.Rejections = append(resp.Rejections, rejs...)
		if candidate != nil {
			resp.Candidates = append(resp.Candidates, *candidate)
		}
	}

	resp.Summary = summarize(req, resp, engine)
	return resp, nil
}

// exploreSingle searches one stage under one propellant and assembles the
// end-to-end candidate for the winning grid point.
func (e *Engine) exploreSingle(ctx context.Context, req Request, prop domain.PropellantSpec, env flight.Environment) (*domain.Candidate, []domain.Rejection, error) {
	baseline := withPropellant(req.Baselines[0], prop)
	target := req.Objectives.deriveTargetImpulse(req.DryMasses[0] + baseline.PropellantMass())

	coarse, err := e.BuildStageGrid(ctx, baseline, target, req.stageConfig(0), req.Constraints, nil)
	if err != nil {
		return nil, nil, err
	}
	outcome, err := e.Refine(ctx, baseline, target, req.stageConfig(0), req.Constraints, coarse, nil)
	if err != nil {
		return nil, nil, err
	}
	if outcome.Best == nil {
		return nil, outcome.Rejections, nil
	}

	best := *outcome.Best
	_, steps, err := e.evaluate(baseline, *best.Scales)
	if err != nil {
		return nil, outcome.Rejections, nil
	}

	rejections := outcome.Rejections
	if req.Constraints.MaxVehicleLength > 0 && best.Metrics.PropellantLength > req.Constraints.MaxVehicleLength {
		rejections = append(rejections, domain.Rejection{
			Reason:     domain.ReasonStackTooLong,
			Detail:     detailf("stack %.3f m exceeds vehicle budget %.3f m", best.Metrics.PropellantLength, req.Constraints.MaxVehicleLength),
			Propellant: prop.Name,
			Scales:     best.Scales,
		})
		return nil, rejections, nil
	}

	diameter := req.VehicleDiameter
	if diameter <= 0 {
		diameter = best.Spec.Diameter()
	}
	apogee, err := flight.SimulateSingleStage(flight.StageInput{
		Steps:   steps,
		Metrics: best.Metrics,
		DryMass: req.DryMasses[0],
	}, diameter, env)
	if err != nil {
		if domain.IsSimulationFailure(err) {
			rejections = append(rejections, domain.Rejection{
				Reason:     domain.ReasonSimulationFailed,
				Detail:     err.Error(),
				Propellant: prop.Name,
				Scales:     best.Scales,
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
			Scales:     best.Scales,
		})
	}

	vehicleLength := req.Constraints.MaxVehicleLength
	if vehicleLength <= 0 {
		vehicleLength = best.Metrics.PropellantLength
	}
	cand := domain.Candidate{
		Name:            baseline.Name + "/" + prop.Name,
		Metrics:         best.Metrics,
		Steps:           steps,
		Apogee:          apogee,
		StageLength:     best.Metrics.PropellantLength,
		VehicleLength:   vehicleLength,
		VehicleDiameter: diameter,
		Engine:          best.Engine,
		Stages:          []domain.StageResult{best},
	}
	if !withinTolerance(req.Objectives, apogee.Apogee) {
		rejections = append(rejections, domain.Rejection{
			Reason:     domain.ReasonOutsideTolerance,
			Detail:     detailf("apogee %.0f m outside %.0f%% of target %.0f m", apogee.Apogee, req.Objectives.tolerance()*100, req.Objectives.TargetApogee),
			Propellant: prop.Name,
			Scales:     best.Scales,
		})
	}
	return &cand, rejections, nil
}

func withinTolerance(o Objectives, apogee float64) bool {
	if o.TargetApogee <= 0 {
		return true
	}
	return math.Abs(apogee-o.TargetApogee) <= o.tolerance()*o.TargetApogee
}

// summarize folds candidates and rejections into the summary status.
func summarize(req Request, resp Response, engine *Engine) domain.SearchSummary {
	summary := domain.SearchSummary{
		Evaluated: engine.Evaluated(),
		CacheHits: engine.CacheHits(),
		Seed:      engine.Seed(),
	}
	if len(resp.Candidates) == 0 {
		summary.Status = domain.StatusNoViableCandidates
		summary.Detail = domain.ErrNoViableCandidates.Error()
		return summary
	}
	for _, c := range resp.Candidates {
		if c.Engine == domain.EnginePrimary && withinTolerance(req.Objectives, c.Apogee.Apogee) && !c.Apogee.Implausible {
			summary.Status = domain.StatusOK
			return summary
		}
	}
	summary.Status = domain.StatusBestEffort
	summary.Detail = "candidates exist but rely on fallback simulation or miss the objective tolerance"
	return summary
}
