package search

import (
	"context"
	"math"
	"testing"

	"apogeecore/pkg/domain"
)

func testPropellant() domain.PropellantSpec {
	return domain.PropellantSpec{
		Name:    "AP/HTPB",
		Family:  "AP",
		Density: 1680,
		Tabs: []domain.PropellantTab{{
			BurnRateCoef:      2.83e-5,
			BurnRateExp:       0.35,
			SpecificHeatRatio: 1.21,
			MolarMass:         0.0238,
			CombustionTemp:    3200,
			MinPressure:       0,
			MaxPressure:       1.5e7,
		}},
	}
}

func testBaseline(name string, diameter float64) domain.MotorSpec {
	grain := domain.GrainGeometry{
		Diameter:      diameter,
		CoreDiameter:  diameter * 0.375,
		Length:        0.12,
		InhibitedEnds: domain.InhibitNeither,
	}
	return domain.MotorSpec{
		Name:       name,
		Config:     domain.DefaultMotorConfig(),
		Propellant: testPropellant(),
		Grains:     []domain.GrainGeometry{grain, grain, grain},
		Nozzle: domain.NozzleSpec{
			ThroatDiameter: diameter * 0.25,
			ExitDiameter:   diameter * 0.5,
			Efficiency:     0.9,
		},
	}
}

func smallConfig() StageSearchConfig {
	return StageSearchConfig{
		Axes: Axes{
			Length: []float64{0.9, 1.0, 1.1},
			Core:   []float64{0.95, 1.0},
		},
		SplitRatios: []float64{0.6},
	}
}

func TestAxesCartesianProduct(t *testing.T) {
	a := Axes{
		Diameter: []float64{1, 1.1},
		Length:   []float64{0.9, 1, 1.1},
		Core:     []float64{1},
	}
	points := a.Points(nil)
	if len(points) != 6 {
		t.Fatalf("expected 2*3*1*1*1=6 points, got %d", len(points))
	}

	fixed := 1.05
	points = a.Points(&fixed)
	if len(points) != 3 {
		t.Fatalf("expected fixed diameter to collapse the axis, got %d points", len(points))
	}
	for _, p := range points {
		if p.Diameter != fixed {
			t.Fatalf("expected diameter scale %f, got %f", fixed, p.Diameter)
		}
	}
}

func TestNormalizeClampsCoreAndThroat(t *testing.T) {
	baseline := testBaseline("clamp", 0.08)
	out := Normalize(baseline, domain.StageScales{Diameter: 1, Length: 1, Core: 3.0, Throat: 1, Exit: 1})
	scaledCore := baseline.Grains[0].CoreDiameter * out.Core
	if scaledCore > 0.98*baseline.Grains[0].Diameter+1e-12 {
		t.Fatalf("core not clamped below 98%% of diameter: %f", scaledCore)
	}
	// The throat must respect the minimum port/throat area ratio.
	throat := baseline.Nozzle.ThroatDiameter * out.Throat
	ratio := (scaledCore / throat) * (scaledCore / throat)
	if ratio < baseline.Config.MinPortThroatRatio-1e-9 {
		t.Fatalf("port/throat ratio %f below configured minimum", ratio)
	}
	// Exit never closes below throat.
	out = Normalize(baseline, domain.StageScales{Diameter: 1, Length: 1, Core: 1, Throat: 2, Exit: 0.5})
	if baseline.Nozzle.ExitDiameter*out.Exit < baseline.Nozzle.ThroatDiameter*out.Throat-1e-12 {
		t.Fatalf("exit clamped below throat")
	}
}

func TestBuildStageGridDeterministic(t *testing.T) {
	baseline := testBaseline("det", 0.08)
	cfg := smallConfig()
	cons := Constraints{MaxPressure: 1.2e7, MaxKn: 600}

	a, err := NewEngine(42, 4).BuildStageGrid(context.Background(), baseline, 4000, cfg, cons, nil)
	if err != nil {
		t.Fatalf("grid a: %v", err)
	}
	b, err := NewEngine(42, 4).BuildStageGrid(context.Background(), baseline, 4000, cfg, cons, nil)
	if err != nil {
		t.Fatalf("grid b: %v", err)
	}
	if len(a.Results) != len(b.Results) {
		t.Fatalf("result counts differ: %d vs %d", len(a.Results), len(b.Results))
	}
	for i := range a.Results {
		if a.Results[i].Metrics != b.Results[i].Metrics {
			t.Fatalf("metrics differ at %d between identical grids", i)
		}
	}
	if a.Best == nil || b.Best == nil || *a.Best.Scales != *b.Best.Scales {
		t.Fatalf("winners differ between identical grids")
	}
}

func TestBuildStageGridCacheReuse(t *testing.T) {
	baseline := testBaseline("cache", 0.08)
	cfg := smallConfig()
	engine := NewEngine(1, 1)

	if _, err := engine.BuildStageGrid(context.Background(), baseline, 4000, cfg, Constraints{}, nil); err != nil {
		t.Fatalf("first grid: %v", err)
	}
	evaluated := engine.Evaluated()
	if _, err := engine.BuildStageGrid(context.Background(), baseline, 4000, cfg, Constraints{}, nil); err != nil {
		t.Fatalf("second grid: %v", err)
	}
	if engine.Evaluated() != evaluated {
		t.Fatalf("second identical grid re-simulated: %d -> %d", evaluated, engine.Evaluated())
	}
	if engine.CacheHits() == 0 {
		t.Fatalf("expected cache hits on the second pass")
	}
}

func TestBuildStageGridExactTarget(t *testing.T) {
	baseline := testBaseline("exact", 0.08)
	cfg := smallConfig()
	engine := NewEngine(7, 2)

	// Pre-simulate one grid point and use its impulse as the target.
	want := Normalize(baseline, domain.StageScales{Diameter: 1, Length: 1.1, Core: 1, Throat: 1, Exit: 1})
	res, _, err := engine.evaluate(baseline, want)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	outcome, err := engine.BuildStageGrid(context.Background(), baseline, res.Metrics.TotalImpulse, cfg, Constraints{}, nil)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	if outcome.Best == nil {
		t.Fatalf("expected a winner")
	}
	if *outcome.Best.Scales != want {
		t.Fatalf("expected the exact-impulse point to win, got %+v", outcome.Best.Scales)
	}
	if got := outcome.Best.Metrics.TotalImpulse; got != res.Metrics.TotalImpulse {
		t.Fatalf("winner impulse %f differs from target %f", got, res.Metrics.TotalImpulse)
	}
}

func TestBuildStageGridConstraintFilter(t *testing.T) {
	baseline := testBaseline("filter", 0.08)
	cfg := smallConfig()
	outcome, err := NewEngine(3, 1).BuildStageGrid(context.Background(), baseline, 4000, cfg, Constraints{MaxPressure: 1}, nil)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	if outcome.Best != nil {
		t.Fatalf("expected no winner under an impossible pressure cap")
	}
	if len(outcome.Rejections) == 0 {
		t.Fatalf("expected rejections recording the pressure filter")
	}
	for _, r := range outcome.Rejections {
		if r.Reason != domain.ReasonPressureExceeded {
			t.Fatalf("unexpected rejection reason %q", r.Reason)
		}
	}
}

func TestBuildStageGridFailureLogsNormalizedScales(t *testing.T) {
	baseline := testBaseline("degenerate", 0.08)
	// A burn-rate exponent at 1 fails every simulation, fallback included.
	baseline.Propellant.Tabs[0].BurnRateExp = 1.0
	cfg := StageSearchConfig{
		Axes: Axes{Core: []float64{3.0}},
	}

	outcome, err := NewEngine(5, 1).BuildStageGrid(context.Background(), baseline, 4000, cfg, Constraints{}, nil)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	if len(outcome.Rejections) != 1 {
		t.Fatalf("expected one rejection, got %d", len(outcome.Rejections))
	}
	rej := outcome.Rejections[0]
	if rej.Reason != domain.ReasonSimulationFailed {
		t.Fatalf("unexpected rejection reason %q", rej.Reason)
	}
	want := Normalize(baseline, domain.StageScales{Diameter: 1, Length: 1, Core: 3.0, Throat: 1, Exit: 1})
	if rej.Scales == nil || *rej.Scales != want {
		t.Fatalf("rejection scales %+v, want the normalized tuple %+v", rej.Scales, want)
	}
	if rej.Scales.Core == 3.0 {
		t.Fatalf("rejection recorded the raw core scale instead of the clamped one")
	}
}

func TestExploreSingleStage(t *testing.T) {
	req := Request{
		Baselines:  []domain.MotorSpec{testBaseline("booster", 0.08)},
		Configs:    []StageSearchConfig{smallConfig()},
		Objectives: Objectives{TargetImpulse: 4000},
		DryMasses:  []float64{3.0},
		Seed:       11,
	}
	resp, err := Explore(context.Background(), req)
	if err != nil {
		t.Fatalf("explore: %v", err)
	}
	if len(resp.Candidates) == 0 {
		t.Fatalf("expected at least one candidate")
	}
	if resp.Summary.Status != domain.StatusOK {
		t.Fatalf("expected ok status, got %q (%s)", resp.Summary.Status, resp.Summary.Detail)
	}
	if resp.Summary.Seed != 11 {
		t.Fatalf("summary should echo the seed")
	}
	c := resp.Candidates[0]
	if c.Apogee.Apogee <= 0 {
		t.Fatalf("candidate has no apogee")
	}
	if len(c.Steps) == 0 {
		t.Fatalf("candidate lost its thrust curve")
	}
	if c.Engine != domain.EnginePrimary {
		t.Fatalf("expected primary engine tag, got %q", c.Engine)
	}
}

func TestExploreReproducibleBySeed(t *testing.T) {
	req := Request{
		Baselines:  []domain.MotorSpec{testBaseline("seed", 0.08)},
		Configs:    []StageSearchConfig{smallConfig()},
		Objectives: Objectives{TargetImpulse: 4000},
		DryMasses:  []float64{3.0},
		Seed:       99,
	}
	a, err := Explore(context.Background(), req)
	if err != nil {
		t.Fatalf("explore a: %v", err)
	}
	b, err := Explore(context.Background(), req)
	if err != nil {
		t.Fatalf("explore b: %v", err)
	}
	if len(a.Candidates) != len(b.Candidates) {
		t.Fatalf("candidate counts differ under the same seed")
	}
	for i := range a.Candidates {
		if a.Candidates[i].Metrics != b.Candidates[i].Metrics {
			t.Fatalf("candidate %d differs under the same seed", i)
		}
	}
}

func TestExploreEmptyAllowListFails(t *testing.T) {
	req := Request{
		Baselines:  []domain.MotorSpec{testBaseline("allow", 0.08)},
		Objectives: Objectives{TargetImpulse: 4000},
		DryMasses:  []float64{3.0},
		AllowNames: []string{"does-not-exist"},
	}
	if _, err := Explore(context.Background(), req); err == nil {
		t.Fatalf("expected configuration error for an empty allow-list match")
	}
}

func TestExploreTwoStageDiameterMismatchRejected(t *testing.T) {
	req := Request{
		Baselines: []domain.MotorSpec{
			testBaseline("booster", 0.08),
			testBaseline("sustainer", 0.06),
		},
		Configs:    []StageSearchConfig{smallConfig(), smallConfig()},
		Objectives: Objectives{TargetImpulse: 6000},
		DryMasses:  []float64{3.0, 1.5},
		Seed:       5,
	}
	resp, err := Explore(context.Background(), req)
	if err != nil {
		t.Fatalf("explore: %v", err)
	}
	if len(resp.Candidates) != 0 {
		t.Fatalf("mismatched diameters must never produce a candidate")
	}
	if resp.Summary.Status != domain.StatusNoViableCandidates {
		t.Fatalf("expected no_viable_candidates, got %q", resp.Summary.Status)
	}
	var sawMismatch bool
	for _, r := range resp.Rejections {
		if r.Reason == domain.ReasonDiameterMismatch {
			sawMismatch = true
		}
	}
	if !sawMismatch {
		t.Fatalf("expected a %q rejection, got %+v", domain.ReasonDiameterMismatch, resp.Rejections)
	}
}

func TestExploreTwoStageMatchedDiameters(t *testing.T) {
	req := Request{
		Baselines: []domain.MotorSpec{
			testBaseline("booster", 0.08),
			testBaseline("sustainer", 0.08),
		},
		Configs:     []StageSearchConfig{smallConfig(), smallConfig()},
		Objectives:  Objectives{TargetImpulse: 8000},
		DryMasses:   []float64{3.0, 1.5},
		Constraints: Constraints{MaxVehicleLength: 2, MaxStageLengthRatio: 3},
		Seed:        13,
	}
	resp, err := Explore(context.Background(), req)
	if err != nil {
		t.Fatalf("explore: %v", err)
	}
	if len(resp.Candidates) == 0 {
		t.Fatalf("expected a two-stage candidate, rejections: %+v", resp.Rejections)
	}
	c := resp.Candidates[0]
	if len(c.Stages) != 2 {
		t.Fatalf("expected two stage results, got %d", len(c.Stages))
	}
	if math.Abs(c.Stages[0].Spec.Diameter()-c.Stages[1].Spec.Diameter()) > diameterTolerance {
		t.Fatalf("paired stages do not share a diameter")
	}
}

func TestDeriveTargetImpulse(t *testing.T) {
	o := Objectives{TargetApogee: 1000}
	got := o.deriveTargetImpulse(10)
	want := 10 * math.Sqrt(2*domain.StandardGravity*1000) * 1.25
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("derived impulse %f, want %f", got, want)
	}
	o.TargetImpulse = 500
	if o.deriveTargetImpulse(10) != 500 {
		t.Fatalf("explicit target impulse should win")
	}
}
