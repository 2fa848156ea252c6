// Package ballistics implements the BATES-grain regression integrator that
// turns a motor spec into a discretized thrust curve, together with the
// isentropic nozzle relations and the relaxed fallback rerun path.
package ballistics

import (
	"math"

	"apogeecore/pkg/domain"
)

// grainAreas returns the burning surface area and open port area of a single
// grain at burned web depth w. A grain stops contributing burning area once
// its core reaches the outer wall or its length is fully consumed; its port
// then opens to the full casing bore.
func grainAreas(g domain.GrainGeometry, w float64) (burning, port float64) {
	ro := g.Diameter / 2
	rc := g.CoreDiameter/2 + w
	ends := g.InhibitedEnds.UninhibitedEnds()
	length := g.Length - float64(ends)*w
	if rc >= ro || length <= 0 {
		return 0, math.Pi * ro * ro
	}
	wall := 2 * math.Pi * rc * length
	face := float64(ends) * math.Pi * (ro*ro - rc*rc)
	return wall + face, math.Pi * rc * rc
}

// motorAreas sums burning surface area and open port area across all grains.
func motorAreas(spec domain.MotorSpec, w float64) (burning, port float64) {
	for _, g := range spec.Grains {
		b, p := grainAreas(g, w)
		burning += b
		port += p
	}
	return burning, port
}
