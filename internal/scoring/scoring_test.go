package scoring

import (
	"math"
	"testing"

	"apogeecore/pkg/domain"
)

func curve(thrusts ...float64) []domain.TimeStep {
	steps := make([]domain.TimeStep, len(thrusts))
	for i, f := range thrusts {
		steps[i] = domain.TimeStep{Time: float64(i) * 0.01, Thrust: f}
	}
	return steps
}

func baseCandidate(name string) domain.Candidate {
	return domain.Candidate{
		Name: name,
		Metrics: domain.AggregateMetrics{
			TotalImpulse:    4000,
			BurnTime:        5,
			AveragePressure: 2.5e6,
			PeakPressure:    3e6,
			AverageThrust:   800,
			PeakThrust:      900,
			PeakKn:          200,
			PropellantMass:  2.2,
			DeliveredIsp:    185,
			PortThroatRatio: 2.25,
			PeakMassFlux:    900,
		},
		Steps:           curve(700, 800, 820, 810, 780),
		Apogee:          domain.ApogeeResult{Apogee: 2900, MaxVelocity: 240},
		StageLength:     0.36,
		VehicleLength:   1.5,
		VehicleDiameter: 0.08,
		Engine:          domain.EnginePrimary,
	}
}

func TestSingleCandidateDegenerateNormalization(t *testing.T) {
	weights := domain.DefaultScoreWeights()
	ranked := Rank([]domain.Candidate{baseCandidate("solo")}, weights, Limits{MaxPressure: 1e7, MaxKn: 400})
	if len(ranked) != 1 {
		t.Fatalf("expected 1 ranked candidate, got %d", len(ranked))
	}
	// With zero spread every normalized objective is 1.0, so the composite
	// collapses to the weight sum.
	if got, want := ranked[0].Score, weights.Sum(); math.Abs(got-want) > 1e-12 {
		t.Fatalf("composite %f, want weight sum %f", got, want)
	}
}

func TestRankOrdersByApogee(t *testing.T) {
	low := baseCandidate("low")
	high := baseCandidate("high")
	high.Apogee.Apogee = 3500

	weights := domain.ScoreWeights{Apogee: 1}
	ranked := Rank([]domain.Candidate{low, high}, weights, Limits{})
	if ranked[0].Name != "high" {
		t.Fatalf("expected the higher-flying candidate first, got %q", ranked[0].Name)
	}
	if ranked[0].Score != 1 || ranked[1].Score != 0 {
		t.Fatalf("min-max scores wrong: %f, %f", ranked[0].Score, ranked[1].Score)
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	in := []domain.Candidate{baseCandidate("b"), baseCandidate("a")}
	Rank(in, domain.DefaultScoreWeights(), Limits{})
	if in[0].Score != 0 || in[0].Label != "" {
		t.Fatalf("input slice was mutated")
	}
}

func TestRankTieBreaksByName(t *testing.T) {
	ranked := Rank([]domain.Candidate{baseCandidate("beta"), baseCandidate("alpha")}, domain.DefaultScoreWeights(), Limits{})
	if ranked[0].Name != "alpha" {
		t.Fatalf("expected name tie-break, got %q first", ranked[0].Name)
	}
}

func TestThrustQualityPrefersSmoothCurves(t *testing.T) {
	smooth := thrustQuality(curve(800, 805, 810, 805, 800))
	spiky := thrustQuality(curve(800, 1600, 200, 1500, 300))
	if smooth <= spiky {
		t.Fatalf("smooth curve %f should beat spiky %f", smooth, spiky)
	}
	if thrustQuality(nil) != 0 {
		t.Fatalf("empty curve should score zero quality")
	}
}

func TestMarginObjectives(t *testing.T) {
	if got := margin(9e6, 1e7); math.Abs(got-0.1) > 1e-12 {
		t.Fatalf("pressure margin %f, want 0.1", got)
	}
	if margin(2e6, 0) != 1 {
		t.Fatalf("missing cap should yield full margin")
	}
	if margin(1.2e7, 1e7) >= 0 {
		t.Fatalf("exceeding the cap must go negative before normalization")
	}
}

func TestManufacturabilityPenalties(t *testing.T) {
	comfortable := manufacturability(domain.AggregateMetrics{PortThroatRatio: 3, PeakMassFlux: 1000})
	chokedPort := manufacturability(domain.AggregateMetrics{PortThroatRatio: 1.2, PeakMassFlux: 1000})
	erosive := manufacturability(domain.AggregateMetrics{PortThroatRatio: 3, PeakMassFlux: 2500})
	if comfortable != 1 {
		t.Fatalf("comfortable geometry should score 1, got %f", comfortable)
	}
	if chokedPort >= comfortable || erosive >= comfortable {
		t.Fatalf("penalized geometries must score below comfortable: %f, %f", chokedPort, erosive)
	}
}

func TestClassifyLabels(t *testing.T) {
	limits := Limits{MaxPressure: 1e7, MaxKn: 400}

	pressureLimited := baseCandidate("p")
	pressureLimited.Metrics.PeakPressure = 9.5e6
	if got := classify(pressureLimited, limits); got != "Pressure-limited design" {
		t.Fatalf("got %q", got)
	}

	knLimited := baseCandidate("k")
	knLimited.Metrics.PeakKn = 380
	if got := classify(knLimited, limits); got != "Kn-limited design" {
		t.Fatalf("got %q", got)
	}

	booster := baseCandidate("b")
	booster.Metrics.BurnTime = 2
	booster.Metrics.AverageThrust = 1200
	if got := classify(booster, limits); got != "High-thrust booster" {
		t.Fatalf("got %q", got)
	}

	sustainer := baseCandidate("s")
	sustainer.Metrics.BurnTime = 12
	sustainer.Metrics.AverageThrust = 150
	if got := classify(sustainer, limits); got != "Long-burn sustainer" {
		t.Fatalf("got %q", got)
	}

	if got := classify(baseCandidate("d"), limits); got != "Balanced design" {
		t.Fatalf("got %q", got)
	}
}
