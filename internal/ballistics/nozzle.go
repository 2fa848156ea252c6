package ballistics

import "math"

const (
	machIterations = 80
	machBracketLo  = 1e-6
	machBracketHi  = 20.0
)

// areaRatioForMach evaluates A/A* for exit Mach m at specific heat ratio k.
func areaRatioForMach(m, k float64) float64 {
	return (1 / m) * math.Pow((2/(k+1))*(1+(k-1)/2*m*m), (k+1)/(2*(k-1)))
}

// exitMach solves the supersonic branch of the isentropic area-Mach relation
// for the given expansion ratio by bisection.
func exitMach(areaRatio, k float64) float64 {
	lo, hi := machBracketLo, machBracketHi
	for i := 0; i < machIterations; i++ {
		mid := (lo + hi) / 2
		// Below the sonic point the relation is on the subsonic branch; push
		// the bracket up so the iteration converges on the supersonic root.
		if mid < 1 || areaRatioForMach(mid, k) < areaRatio {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// exitPressure returns static pressure at the nozzle exit for chamber
// pressure p and exit Mach m.
func exitPressure(p, m, k float64) float64 {
	return p * math.Pow(1+(k-1)/2*m*m, -k/(k-1))
}

// thrustCoefficient returns the closed-form ideal Cf for chamber pressure p,
// ambient pressure pa and nozzle expansion ratio areaRatio.
func thrustCoefficient(p, pa, areaRatio, k float64) float64 {
	m := exitMach(areaRatio, k)
	pe := exitPressure(p, m, k)
	momentum := (2 * k * k / (k - 1)) * math.Pow(2/(k+1), (k+1)/(k-1)) * (1 - math.Pow(pe/p, (k-1)/k))
	if momentum < 0 {
		momentum = 0
	}
	return math.Sqrt(momentum) + (pe-pa)/p*areaRatio
}
