package domain

import (
	"fmt"
	"math"
	"strings"
)

// GrainInhibition enumerates which end faces of a BATES grain are inhibited
// from burning.
type GrainInhibition string

// Supported grain end inhibition configurations.
const (
	// InhibitNeither leaves both end faces burning.
	InhibitNeither GrainInhibition = "neither"
	// InhibitTop inhibits the forward end face.
	InhibitTop GrainInhibition = "top"
	// InhibitBottom inhibits the aft end face.
	InhibitBottom GrainInhibition = "bottom"
	// InhibitBoth inhibits both end faces; only the core wall burns.
	InhibitBoth GrainInhibition = "both"
)

// UninhibitedEnds returns the count of burning end faces (0, 1 or 2).
func (g GrainInhibition) UninhibitedEnds() int {
	switch g {
	case InhibitBoth:
		return 0
	case InhibitTop, InhibitBottom:
		return 1
	default:
		return 2
	}
}

// EndRegressionFactor returns the fraction of the full two-ended axial
// regression applied per unit web: 0, 0.5 or 1 for 0, 1 or 2 burning ends.
func (g GrainInhibition) EndRegressionFactor() float64 {
	return float64(g.UninhibitedEnds()) / 2
}

// GrainGeometry describes one cylindrical BATES grain. All lengths in metres.
type GrainGeometry struct {
	Diameter      float64         `json:"diameter"`
	CoreDiameter  float64         `json:"core_diameter"`
	Length        float64         `json:"length"`
	InhibitedEnds GrainInhibition `json:"inhibited_ends"`
}

// Validate checks the grain for non-positive or inverted dimensions.
func (g GrainGeometry) Validate() error {
	switch {
	case g.Diameter <= 0:
		return ConfigError{Field: "grain.diameter", Reason: "must be positive"}
	case g.CoreDiameter <= 0:
		return ConfigError{Field: "grain.core_diameter", Reason: "must be positive"}
	case g.CoreDiameter >= g.Diameter:
		return ConfigError{Field: "grain.core_diameter", Reason: "must be smaller than grain diameter"}
	case g.Length <= 0:
		return ConfigError{Field: "grain.length", Reason: "must be positive"}
	}
	return nil
}

// Volume returns the unburned propellant volume of the grain in m^3.
func (g GrainGeometry) Volume() float64 {
	ro := g.Diameter / 2
	rc := g.CoreDiameter / 2
	return math.Pi * (ro*ro - rc*rc) * g.Length
}

// NozzleSpec describes the nozzle geometry and efficiency. Erosion and slag
// coefficients are carried for loader compatibility; the core physics treats
// the throat as fixed.
type NozzleSpec struct {
	ThroatDiameter    float64 `json:"throat_diameter"`
	ExitDiameter      float64 `json:"exit_diameter"`
	ThroatLength      float64 `json:"throat_length,omitempty"`
	ConvergentHalfDeg float64 `json:"convergent_half_angle_deg,omitempty"`
	DivergentHalfDeg  float64 `json:"divergent_half_angle_deg,omitempty"`
	Efficiency        float64 `json:"efficiency"`
	ErosionCoef       float64 `json:"erosion_coef,omitempty"`
	SlagCoef          float64 `json:"slag_coef,omitempty"`
}

// ThroatArea returns the nozzle throat area in m^2.
func (n NozzleSpec) ThroatArea() float64 {
	r := n.ThroatDiameter / 2
	return math.Pi * r * r
}

// ExitArea returns the nozzle exit area in m^2.
func (n NozzleSpec) ExitArea() float64 {
	r := n.ExitDiameter / 2
	return math.Pi * r * r
}

// Validate checks the nozzle for unusable geometry.
func (n NozzleSpec) Validate() error {
	switch {
	case n.ThroatDiameter <= 0:
		return ConfigError{Field: "nozzle.throat_diameter", Reason: "must be positive"}
	case n.ExitDiameter < n.ThroatDiameter:
		return ConfigError{Field: "nozzle.exit_diameter", Reason: "must be at least the throat diameter"}
	case n.Efficiency <= 0 || n.Efficiency > 1:
		return ConfigError{Field: "nozzle.efficiency", Reason: "must be in (0,1]"}
	}
	return nil
}

// MotorConfig carries simulation tuning values.
type MotorConfig struct {
	// AmbientPressure in Pa.
	AmbientPressure float64 `json:"ambient_pressure"`
	// BurnoutWebThreshold stops the burn when incremental web growth per step
	// falls below this value (m).
	BurnoutWebThreshold float64 `json:"burnout_web_threshold"`
	// BurnoutThrustThreshold stops the burn when thrust falls below this value (N).
	BurnoutThrustThreshold float64 `json:"burnout_thrust_threshold"`
	// Timestep is the fixed integration step (s).
	Timestep float64 `json:"timestep"`
	// MaxPressure aborts the simulation when chamber pressure exceeds it (Pa).
	MaxPressure float64 `json:"max_pressure"`
	// MinPortThroatRatio is the minimum allowed port-to-throat area ratio.
	MinPortThroatRatio float64 `json:"min_port_throat_ratio"`
	// MapDim is the grid resolution hint carried for loader compatibility.
	MapDim int `json:"map_dim,omitempty"`
}

// DefaultMotorConfig returns the tuning used when a loaded description omits one.
func DefaultMotorConfig() MotorConfig {
	return MotorConfig{
		AmbientPressure:        101325,
		BurnoutWebThreshold:    2.5e-6,
		BurnoutThrustThreshold: 0.1,
		Timestep:               0.01,
		MaxPressure:            1.5e7,
		MinPortThroatRatio:     2,
	}
}

// Validate checks the tuning values.
func (c MotorConfig) Validate() error {
	switch {
	case c.Timestep <= 0:
		return ConfigError{Field: "config.timestep", Reason: "must be positive"}
	case c.MaxPressure <= 0:
		return ConfigError{Field: "config.max_pressure", Reason: "must be positive"}
	case c.AmbientPressure < 0:
		return ConfigError{Field: "config.ambient_pressure", Reason: "must not be negative"}
	}
	return nil
}

// MotorSpec aggregates everything the ballistics simulator needs. It is an
// immutable value: design-space transforms construct new specs, never mutate.
type MotorSpec struct {
	Name       string          `json:"name"`
	Config     MotorConfig     `json:"config"`
	Propellant PropellantSpec  `json:"propellant"`
	Grains     []GrainGeometry `json:"grains"`
	Nozzle     NozzleSpec      `json:"nozzle"`
}

// Validate checks the whole spec at the load boundary so downstream code can
// operate on trusted values.
func (m MotorSpec) Validate() error {
	if len(m.Grains) == 0 {
		return ConfigError{Field: "motor.grains", Reason: "at least one grain required"}
	}
	if err := m.Config.Validate(); err != nil {
		return err
	}
	if err := m.Propellant.Validate(); err != nil {
		return err
	}
	for i, g := range m.Grains {
		if err := g.Validate(); err != nil {
			ce, ok := err.(ConfigError)
			if ok {
				ce.Index = i
				return ce
			}
			return err
		}
	}
	return m.Nozzle.Validate()
}

// Diameter returns the largest grain diameter, the motor's reference bore.
func (m MotorSpec) Diameter() float64 {
	var d float64
	for _, g := range m.Grains {
		if g.Diameter > d {
			d = g.Diameter
		}
	}
	return d
}

// StackLength returns the total grain stack length in metres.
func (m MotorSpec) StackLength() float64 {
	var l float64
	for _, g := range m.Grains {
		l += g.Length
	}
	return l
}

// PropellantMass returns the loaded propellant mass in kg.
func (m MotorSpec) PropellantMass() float64 {
	var v float64
	for _, g := range m.Grains {
		v += g.Volume()
	}
	return v * m.Propellant.Density
}

// StageScales holds the five scale factors applied to a baseline spec to
// produce one search-grid point.
type StageScales struct {
	Diameter float64 `json:"diameter"`
	Length   float64 `json:"length"`
	Core     float64 `json:"core"`
	Throat   float64 `json:"throat"`
	Exit     float64 `json:"exit"`
}

// UnitScales is the identity transform.
func UnitScales() StageScales {
	return StageScales{Diameter: 1, Length: 1, Core: 1, Throat: 1, Exit: 1}
}

// Scaled constructs a new MotorSpec with the scale factors applied. The
// receiver is not modified.
func (m MotorSpec) Scaled(s StageScales) MotorSpec {
	out := m
	out.Grains = make([]GrainGeometry, len(m.Grains))
	for i, g := range m.Grains {
		g.Diameter *= s.Diameter
		g.CoreDiameter *= s.Core
		g.Length *= s.Length
		out.Grains[i] = g
	}
	out.Nozzle.ThroatDiameter *= s.Throat
	out.Nozzle.ExitDiameter *= s.Exit
	return out
}

// Fingerprint returns a rounded-float identity for the spec, stable under the
// floating-point jitter introduced by repeated grid arithmetic. It is the
// memoization key component for search caching.
func (m MotorSpec) Fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "p=%s;d=%s;", m.Propellant.Name, roundKey(m.Propellant.Density))
	for _, g := range m.Grains {
		fmt.Fprintf(&b, "g=%s,%s,%s,%s;", roundKey(g.Diameter), roundKey(g.CoreDiameter), roundKey(g.Length), g.InhibitedEnds)
	}
	fmt.Fprintf(&b, "n=%s,%s,%s", roundKey(m.Nozzle.ThroatDiameter), roundKey(m.Nozzle.ExitDiameter), roundKey(m.Nozzle.Efficiency))
	return b.String()
}

// Fingerprint returns the rounded scale tuple as a cache key component.
func (s StageScales) Fingerprint() string {
	return fmt.Sprintf("%s,%s,%s,%s,%s",
		roundKey(s.Diameter), roundKey(s.Length), roundKey(s.Core), roundKey(s.Throat), roundKey(s.Exit))
}

// roundKey renders v rounded to six decimals, enough to absorb grid jitter
// while distinguishing real geometry differences.
func roundKey(v float64) string {
	return fmt.Sprintf("%.6f", v)
}
