package search

import (
	"context"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"apogeecore/internal/ballistics"
	"apogeecore/pkg/domain"
)

// Engine runs grid searches over stage design spaces. One engine carries the
// memoization cache and the seeded RNG for an entire search invocation; it is
// safe for concurrent grid evaluation internally but a single invocation
// should drive it from one goroutine.
type Engine struct {
	cache       *resultCache
	rng         *rand.Rand
	seed        int64
	parallelism int
}

// NewEngine constructs a search engine. The seed makes randomized
// tie-breaking reproducible; parallelism <= 0 selects serial evaluation.
func NewEngine(seed int64, parallelism int) *Engine {
	if parallelism <= 0 {
		parallelism = 1
	}
	return &Engine{
		cache:       newResultCache(),
		rng:         rand.New(rand.NewSource(seed)),
		seed:        seed,
		parallelism: parallelism,
	}
}

// Seed returns the RNG seed for summary reporting.
func (e *Engine) Seed() int64 { return e.seed }

// CacheHits returns the number of memoized reuses so far.
func (e *Engine) CacheHits() int { return e.cache.hitCount() }

// Evaluated returns the number of actual simulations run so far.
func (e *Engine) Evaluated() int { return e.cache.missCount() }

// GridOutcome aggregates one stage-grid exploration.
type GridOutcome struct {
	// Best is the constraint-passing result closest to the target impulse,
	// nil when nothing passed.
	Best *domain.StageResult
	// Results lists every successfully simulated point, feasible or not.
	Results []domain.StageResult
	// Rejections lists every filtered or failed point with its reason.
	Rejections []domain.Rejection
}

// evaluate simulates one normalized grid point through the memo cache. The
// thrust curve rides alongside the result so candidate assembly can reuse it
// without a second integration.
func (e *Engine) evaluate(baseline domain.MotorSpec, scales domain.StageScales) (domain.StageResult, []domain.TimeStep, error) {
	key := cacheKey(baseline, scales)
	if entry, ok := e.cache.get(key); ok {
		return entry.result, entry.steps, entry.err
	}

	spec := baseline.Scaled(scales)
	steps, metrics, engine, err := ballistics.SimulateWithFallback(spec)
	if err != nil {
		e.cache.put(key, cacheEntry{err: err})
		return domain.StageResult{}, nil, err
	}
	sc := scales
	res := domain.StageResult{
		Spec:    spec,
		Metrics: metrics,
		Engine:  engine,
		Scales:  &sc,
		Log: detailf("impulse=%.1f N*s burn=%.2f s avg=%.0f Pa peak=%.0f Pa Kn=%.0f mass=%.3f kg",
			metrics.TotalImpulse, metrics.BurnTime, metrics.AveragePressure,
			metrics.PeakPressure, metrics.PeakKn, metrics.PropellantMass),
	}
	e.cache.put(key, cacheEntry{result: res, steps: steps})
	return res, steps, nil
}

// BuildStageGrid explores the full Cartesian grid for one stage and returns
// the outcome with the constraint-passing point closest to targetImpulse.
// Grid points are normalized before simulation and evaluated by a bounded
// worker pool; the caller's context is checked between points, never
// mid-integration.
func (e *Engine) BuildStageGrid(ctx context.Context, baseline domain.MotorSpec, targetImpulse float64, cfg StageSearchConfig, cons Constraints, fixedDiameter *float64) (GridOutcome, error) {
	if err := baseline.Validate(); err != nil {
		return GridOutcome{}, err
	}

	points := cfg.Axes.Points(fixedDiameter)
	type slot struct {
		result domain.StageResult
		err    error
		ok     bool
	}
	slots := make([]slot, len(points))
	normed := make([]domain.StageScales, len(points))

	var group errgroup.Group
	group.SetLimit(e.parallelism)
	for i, p := range points {
		if err := ctx.Err(); err != nil {
			return GridOutcome{}, err
		}
		normalized := Normalize(baseline, p)
		normed[i] = normalized
		group.Go(func() error {
			res, _, err := e.evaluate(baseline, normalized)
			if err != nil {
				if !domain.IsSimulationFailure(err) {
					return err // structural problems abort the whole grid
				}
				slots[i] = slot{err: err}
				return nil
			}
			slots[i] = slot{result: res, ok: true}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return GridOutcome{}, err
	}

	outcome := GridOutcome{}
	var (
		best     *domain.StageResult
		bestDist float64
	)
	for i := range slots {
		s := &slots[i]
		if !s.ok {
			// Log the normalized tuple: the geometry that was simulated.
			sc := normed[i]
			outcome.Rejections = append(outcome.Rejections, domain.Rejection{
				Reason:     domain.ReasonSimulationFailed,
				Detail:     s.err.Error(),
				Propellant: baseline.Propellant.Name,
				Scales:     &sc,
			})
			continue
		}
		outcome.Results = append(outcome.Results, s.result)
		if rej := cons.check(s.result); rej != nil {
			outcome.Rejections = append(outcome.Rejections, *rej)
			continue
		}
		dist := math.Abs(s.result.Metrics.TotalImpulse - targetImpulse)
		switch {
		case best == nil || dist < bestDist-impulseTieEpsilon:
			best = &outcome.Results[len(outcome.Results)-1]
			bestDist = dist
		case math.Abs(dist-bestDist) <= impulseTieEpsilon:
			// Exact ties are broken randomly but reproducibly by seed.
			if e.rng.Intn(2) == 0 {
				best = &outcome.Results[len(outcome.Results)-1]
				bestDist = dist
			}
		}
	}
	outcome.Best = best
	return outcome, nil
}

// impulseTieEpsilon treats impulse distances this close as a tie.
const impulseTieEpsilon = 1e-9

// Refine re-runs the grid on narrower five-point ranges centered on the
// full-grid winner and returns the refined outcome when it improves the
// impulse distance, otherwise the original.
func (e *Engine) Refine(ctx context.Context, baseline domain.MotorSpec, targetImpulse float64, cfg StageSearchConfig, cons Constraints, coarse GridOutcome, fixedDiameter *float64) (GridOutcome, error) {
	if coarse.Best == nil || coarse.Best.Scales == nil {
		return coarse, nil
	}
	refined := cfg
	refined.Axes = refinedAxes(*coarse.Best.Scales, cfg.spread())
	fine, err := e.BuildStageGrid(ctx, baseline, targetImpulse, refined, cons, fixedDiameter)
	if err != nil {
		return GridOutcome{}, err
	}
	// Keep the coarse diagnostics either way.
	fine.Results = append(coarse.Results, fine.Results...)
	fine.Rejections = append(coarse.Rejections, fine.Rejections...)
	if fine.Best == nil {
		fine.Best = coarse.Best
		return fine, nil
	}
	coarseDist := math.Abs(coarse.Best.Metrics.TotalImpulse - targetImpulse)
	fineDist := math.Abs(fine.Best.Metrics.TotalImpulse - targetImpulse)
	if coarseDist < fineDist {
		fine.Best = coarse.Best
	}
	return fine, nil
}
