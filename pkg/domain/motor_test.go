package domain

import (
	"errors"
	"math"
	"testing"
)

func validSpec() MotorSpec {
	grain := GrainGeometry{
		Diameter:      0.08,
		CoreDiameter:  0.03,
		Length:        0.12,
		InhibitedEnds: InhibitNeither,
	}
	return MotorSpec{
		Name:   "test-motor",
		Config: DefaultMotorConfig(),
		Propellant: PropellantSpec{
			Name:    "KNSU",
			Family:  "KN",
			Density: 1889,
			Tabs: []PropellantTab{{
				BurnRateCoef:      5.27e-5,
				BurnRateExp:       0.319,
				SpecificHeatRatio: 1.133,
				MolarMass:         0.0419,
				CombustionTemp:    1720,
				MaxPressure:       1.5e7,
			}},
		},
		Grains: []GrainGeometry{grain, grain},
		Nozzle: NozzleSpec{
			ThroatDiameter: 0.02,
			ExitDiameter:   0.04,
			Efficiency:     0.9,
		},
	}
}

func TestGrainInhibitionEnds(t *testing.T) {
	cases := []struct {
		inhibition GrainInhibition
		ends       int
		factor     float64
	}{
		{InhibitNeither, 2, 1.0},
		{InhibitTop, 1, 0.5},
		{InhibitBottom, 1, 0.5},
		{InhibitBoth, 0, 0.0},
		{GrainInhibition(""), 2, 1.0},
	}
	for _, tc := range cases {
		if got := tc.inhibition.UninhibitedEnds(); got != tc.ends {
			t.Fatalf("%q: ends = %d, want %d", tc.inhibition, got, tc.ends)
		}
		if got := tc.inhibition.EndRegressionFactor(); got != tc.factor {
			t.Fatalf("%q: factor = %f, want %f", tc.inhibition, got, tc.factor)
		}
	}
}

func TestGrainVolume(t *testing.T) {
	g := GrainGeometry{Diameter: 0.08, CoreDiameter: 0.03, Length: 0.12}
	want := math.Pi * (0.04*0.04 - 0.015*0.015) * 0.12
	if got := g.Volume(); math.Abs(got-want) > 1e-12 {
		t.Fatalf("volume = %g, want %g", got, want)
	}
}

func TestMotorSpecDerivedGeometry(t *testing.T) {
	spec := validSpec()
	if got := spec.Diameter(); got != 0.08 {
		t.Fatalf("diameter = %f", got)
	}
	if got := spec.StackLength(); math.Abs(got-0.24) > 1e-12 {
		t.Fatalf("stack length = %f", got)
	}
	wantMass := 2 * spec.Grains[0].Volume() * spec.Propellant.Density
	if got := spec.PropellantMass(); math.Abs(got-wantMass) > 1e-9 {
		t.Fatalf("propellant mass = %f, want %f", got, wantMass)
	}
}

func TestMotorSpecValidate(t *testing.T) {
	if err := validSpec().Validate(); err != nil {
		t.Fatalf("valid spec rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*MotorSpec)
		field  string
	}{
		{"no grains", func(m *MotorSpec) { m.Grains = nil }, "motor.grains"},
		{"inverted core", func(m *MotorSpec) { m.Grains[1].CoreDiameter = 0.09 }, "grain.core_diameter"},
		{"zero length", func(m *MotorSpec) { m.Grains[0].Length = 0 }, "grain.length"},
		{"exit under throat", func(m *MotorSpec) { m.Nozzle.ExitDiameter = 0.01 }, "nozzle.exit_diameter"},
		{"efficiency over one", func(m *MotorSpec) { m.Nozzle.Efficiency = 1.2 }, "nozzle.efficiency"},
		{"no density", func(m *MotorSpec) { m.Propellant.Density = 0 }, "propellant.density"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := validSpec()
			tc.mutate(&spec)
			err := spec.Validate()
			var ce ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if ce.Field != tc.field {
				t.Fatalf("field = %q, want %q", ce.Field, tc.field)
			}
		})
	}
}

func TestValidateReportsGrainIndex(t *testing.T) {
	spec := validSpec()
	spec.Grains[1].Diameter = -1
	var ce ConfigError
	if err := spec.Validate(); !errors.As(err, &ce) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if ce.Index != 1 {
		t.Fatalf("index = %d, want 1", ce.Index)
	}
}

func TestScaledLeavesReceiverUntouched(t *testing.T) {
	spec := validSpec()
	scaled := spec.Scaled(StageScales{Diameter: 1.1, Length: 1.2, Core: 0.9, Throat: 1.05, Exit: 1.05})

	if spec.Grains[0].Diameter != 0.08 {
		t.Fatalf("receiver mutated: %f", spec.Grains[0].Diameter)
	}
	if math.Abs(scaled.Grains[0].Diameter-0.088) > 1e-12 {
		t.Fatalf("scaled diameter = %f", scaled.Grains[0].Diameter)
	}
	if math.Abs(scaled.Grains[0].Length-0.144) > 1e-12 {
		t.Fatalf("scaled length = %f", scaled.Grains[0].Length)
	}
	if math.Abs(scaled.Nozzle.ThroatDiameter-0.021) > 1e-12 {
		t.Fatalf("scaled throat = %f", scaled.Nozzle.ThroatDiameter)
	}

	identity := spec.Scaled(UnitScales())
	if identity.Fingerprint() != spec.Fingerprint() {
		t.Fatal("identity scaling changed the fingerprint")
	}
}

func TestFingerprintAbsorbsFloatJitter(t *testing.T) {
	spec := validSpec()
	jittered := spec
	jittered.Grains = append([]GrainGeometry(nil), spec.Grains...)
	jittered.Grains[0].Diameter += 1e-9
	if spec.Fingerprint() != jittered.Fingerprint() {
		t.Fatal("sub-rounding jitter changed the fingerprint")
	}

	widened := spec.Scaled(StageScales{Diameter: 1.01, Length: 1, Core: 1, Throat: 1, Exit: 1})
	if spec.Fingerprint() == widened.Fingerprint() {
		t.Fatal("distinct geometry shares a fingerprint")
	}
}
