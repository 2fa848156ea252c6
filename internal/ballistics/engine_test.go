package ballistics

import (
	"math"
	"testing"

	"apogeecore/pkg/domain"
)

// testPropellant approximates an AP/HTPB composite formulation.
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

func testSpec() domain.MotorSpec {
	grain := domain.GrainGeometry{
		Diameter:      0.08,
		CoreDiameter:  0.03,
		Length:        0.12,
		InhibitedEnds: domain.InhibitNeither,
	}
	return domain.MotorSpec{
		Name:       "test-motor",
		Config:     domain.DefaultMotorConfig(),
		Propellant: testPropellant(),
		Grains:     []domain.GrainGeometry{grain, grain, grain},
		Nozzle: domain.NozzleSpec{
			ThroatDiameter: 0.02,
			ExitDiameter:   0.04,
			Efficiency:     0.9,
		},
	}
}

func TestSimulateScenario(t *testing.T) {
	spec := testSpec()
	steps, metrics, err := Simulate(spec)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if len(steps) == 0 {
		t.Fatalf("expected a non-empty thrust curve")
	}
	if metrics.TotalImpulse <= 0 {
		t.Fatalf("expected positive total impulse, got %f", metrics.TotalImpulse)
	}
	if metrics.PeakPressure >= spec.Config.MaxPressure {
		t.Fatalf("peak pressure %f should stay below configured max %f", metrics.PeakPressure, spec.Config.MaxPressure)
	}
	for i, s := range steps {
		if s.ChamberPressure <= 0 {
			t.Fatalf("step %d has non-positive pressure %f", i, s.ChamberPressure)
		}
		if math.IsNaN(s.Thrust) || math.IsInf(s.Thrust, 0) {
			t.Fatalf("step %d thrust is not finite", i)
		}
		if i > 0 && steps[i].Time <= steps[i-1].Time {
			t.Fatalf("time not ascending at step %d", i)
		}
	}
}

func TestAggregateImpulseMatchesTrapezoid(t *testing.T) {
	steps, metrics, err := Simulate(testSpec())
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	want := TotalImpulse(steps)
	if math.Abs(metrics.TotalImpulse-want) > 1e-9 {
		t.Fatalf("rollup impulse %f differs from trapezoidal integration %f", metrics.TotalImpulse, want)
	}
}

func TestSimulateRejectsEmptyGrains(t *testing.T) {
	spec := testSpec()
	spec.Grains = nil
	_, _, err := Simulate(spec)
	if err == nil {
		t.Fatalf("expected configuration error for empty grain list")
	}
	if domain.IsSimulationFailure(err) {
		t.Fatalf("empty grain list is a configuration error, not a simulation failure: %v", err)
	}
}

func TestSimulateRejectsBurnRateExponentAtOne(t *testing.T) {
	spec := testSpec()
	spec.Propellant.Tabs[0].BurnRateExp = 1.0
	_, _, err := Simulate(spec)
	if !domain.IsSimulationFailure(err) {
		t.Fatalf("expected simulation failure for degenerate exponent, got %v", err)
	}
}

func TestMotorAreasSumAcrossGrains(t *testing.T) {
	spec := testSpec()
	singleBurning, singlePort := grainAreas(spec.Grains[0], 0)
	burning, port := motorAreas(spec, 0)
	if math.Abs(burning-3*singleBurning) > 1e-12 {
		t.Fatalf("burning area = %g, want %g", burning, 3*singleBurning)
	}
	if math.Abs(port-3*singlePort) > 1e-12 {
		t.Fatalf("port area = %g, want %g", port, 3*singlePort)
	}

	steps, metrics, err := Simulate(spec)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if math.Abs(steps[0].PortArea-port) > 1e-12 {
		t.Fatalf("first step port area = %g, want %g", steps[0].PortArea, port)
	}
	// Three grains with 0.03 m cores over a 0.02 m throat: 3*(0.015/0.01)^2.
	if math.Abs(metrics.PortThroatRatio-6.75) > 1e-9 {
		t.Fatalf("port/throat ratio = %f, want 6.75", metrics.PortThroatRatio)
	}
}

func TestSimulatePortThroatFloor(t *testing.T) {
	spec := testSpec()
	// Open the throat until the summed port-to-throat ratio falls below the
	// minimum: 3*(0.015/0.02)^2 = 1.6875 < 2.
	spec.Nozzle.ThroatDiameter = 0.04
	spec.Nozzle.ExitDiameter = 0.06
	_, _, err := Simulate(spec)
	if !domain.IsSimulationFailure(err) {
		t.Fatalf("expected simulation failure below port/throat floor, got %v", err)
	}

	steps, _, engine, err := SimulateWithFallback(spec)
	if err != nil {
		t.Fatalf("fallback should rescue the relaxed geometry: %v", err)
	}
	if engine != domain.EngineFallback {
		t.Fatalf("expected fallback engine tag, got %q", engine)
	}
	if len(steps) == 0 {
		t.Fatalf("fallback run should produce a thrust curve")
	}
}

func TestSimulateWithFallbackPrimaryTag(t *testing.T) {
	_, _, engine, err := SimulateWithFallback(testSpec())
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if engine != domain.EnginePrimary {
		t.Fatalf("expected primary engine tag, got %q", engine)
	}
}

func TestSimulateDeterministic(t *testing.T) {
	a, am, err := Simulate(testSpec())
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	b, bm, err := Simulate(testSpec())
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("step counts differ: %d vs %d", len(a), len(b))
	}
	if am != bm {
		t.Fatalf("metrics differ between identical runs")
	}
}

func TestExitMachSupersonic(t *testing.T) {
	for _, ratio := range []float64{1.5, 2, 4, 8} {
		m := exitMach(ratio, 1.21)
		if m <= 1 {
			t.Fatalf("expected supersonic exit Mach for ratio %f, got %f", ratio, m)
		}
		back := areaRatioForMach(m, 1.21)
		if math.Abs(back-ratio)/ratio > 1e-6 {
			t.Fatalf("area ratio round trip for %f gave %f", ratio, back)
		}
	}
}

func TestGrainBurnout(t *testing.T) {
	g := domain.GrainGeometry{Diameter: 0.08, CoreDiameter: 0.03, Length: 0.12, InhibitedEnds: domain.InhibitNeither}
	burning, port := grainAreas(g, 0.03)
	if burning != 0 {
		t.Fatalf("expected zero burning area past web limit, got %f", burning)
	}
	bore := math.Pi * 0.04 * 0.04
	if math.Abs(port-bore) > 1e-12 {
		t.Fatalf("expected port to open to full bore %f, got %f", bore, port)
	}
}

func TestInhibitedEndsReduceArea(t *testing.T) {
	base := domain.GrainGeometry{Diameter: 0.08, CoreDiameter: 0.03, Length: 0.12}
	var prev float64 = math.Inf(1)
	for _, inhibition := range []domain.GrainInhibition{domain.InhibitNeither, domain.InhibitTop, domain.InhibitBoth} {
		g := base
		g.InhibitedEnds = inhibition
		burning, _ := grainAreas(g, 0.005)
		if burning >= prev {
			t.Fatalf("burning area should shrink as ends are inhibited: %s gave %f", inhibition, burning)
		}
		prev = burning
	}
}
