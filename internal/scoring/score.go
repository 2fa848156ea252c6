// Package scoring normalizes per-candidate objective values into a weighted
// composite score and ranks candidates, attaching qualitative labels.
package scoring

import (
	"math"
	"sort"

	"apogeecore/pkg/domain"
)

// Limits are the global hardware caps the margin objectives score against.
type Limits struct {
	// MaxPressure in Pa; zero disables the pressure-margin objective.
	MaxPressure float64
	// MaxKn caps the burning-area ratio; zero disables the Kn-margin objective.
	MaxKn float64
}

const objectiveCount = 7

// Objective column indices within a raw score vector.
const (
	objApogee = iota
	objEfficiency
	objThrustQuality
	objPressureMargin
	objKnMargin
	objPackaging
	objManufacturability
)

// massFluxComfort is the peak port mass flux (kg/(m^2*s)) above which the
// manufacturability heuristic starts penalizing.
const massFluxComfort = 1400

// rawObjectives computes the seven unnormalized objective values for one
// candidate. Higher is better for every column.
func rawObjectives(c domain.Candidate, limits Limits) [objectiveCount]float64 {
	var raw [objectiveCount]float64
	raw[objApogee] = c.Apogee.Apogee
	raw[objEfficiency] = c.Metrics.DeliveredIsp
	raw[objThrustQuality] = thrustQuality(c.Steps)
	raw[objPressureMargin] = margin(c.Metrics.PeakPressure, limits.MaxPressure)
	raw[objKnMargin] = margin(c.Metrics.PeakKn, limits.MaxKn)
	raw[objPackaging] = packaging(c)
	raw[objManufacturability] = manufacturability(c.Metrics)
	return raw
}

// margin scores distance below a cap as a fraction of the cap. No cap means
// a full margin; exceeding the cap goes negative and normalizes to the floor.
func margin(peak, cap float64) float64 {
	if cap <= 0 {
		return 1
	}
	return (cap - peak) / cap
}

// thrustQuality is the inverse of the worst point-to-point thrust slope, so
// smooth curves beat spiky ones. Fewer than two samples scores zero.
func thrustQuality(steps []domain.TimeStep) float64 {
	if len(steps) < 2 {
		return 0
	}
	worst := 0.0
	for i := 1; i < len(steps); i++ {
		dt := steps[i].Time - steps[i-1].Time
		if dt <= 0 {
			continue
		}
		slope := math.Abs(steps[i].Thrust-steps[i-1].Thrust) / dt
		if slope > worst {
			worst = slope
		}
	}
	return 1 / (1 + worst)
}

// packaging rewards motors that leave room in the airframe.
func packaging(c domain.Candidate) float64 {
	if c.VehicleLength <= 0 {
		return 0
	}
	v := 1 - c.StageLength/c.VehicleLength
	if v < 0 {
		return 0
	}
	return v
}

// manufacturability penalizes port-to-throat ratios outside the comfortable
// band and peak mass flux beyond the erosive-burning comfort limit.
func manufacturability(m domain.AggregateMetrics) float64 {
	penalty := 0.0
	switch {
	case m.PortThroatRatio > 8:
		penalty += (m.PortThroatRatio - 8) / 8
	case m.PortThroatRatio > 0 && m.PortThroatRatio < 2:
		penalty += (2 - m.PortThroatRatio) / 2
	}
	if m.PeakMassFlux > massFluxComfort {
		penalty += (m.PeakMassFlux - massFluxComfort) / massFluxComfort
	}
	return 1 / (1 + penalty)
}

// normalizeColumn min-max scales one objective across the candidate set.
// Zero spread means every candidate is equally good: all score 1.0.
func normalizeColumn(rows [][objectiveCount]float64, col int) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range rows {
		lo = math.Min(lo, r[col])
		hi = math.Max(hi, r[col])
	}
	spread := hi - lo
	for i := range rows {
		if spread <= 1e-12 {
			rows[i][col] = 1
			continue
		}
		rows[i][col] = (rows[i][col] - lo) / spread
	}
}

func composite(row [objectiveCount]float64, w domain.ScoreWeights) float64 {
	return row[objApogee]*w.Apogee +
		row[objEfficiency]*w.Efficiency +
		row[objThrustQuality]*w.ThrustQuality +
		row[objPressureMargin]*w.PressureMargin +
		row[objKnMargin]*w.KnMargin +
		row[objPackaging]*w.Packaging +
		row[objManufacturability]*w.Manufacturability
}

// Rank scores every candidate against the set and returns a new slice sorted
// by descending composite score, with Score and Label filled in. The input
// slice is not modified. Ties sort by name so rankings are deterministic.
func Rank(candidates []domain.Candidate, weights domain.ScoreWeights, limits Limits) []domain.Candidate {
	if len(candidates) == 0 {
		return nil
	}
	rows := make([][objectiveCount]float64, len(candidates))
	for i, c := range candidates {
		rows[i] = rawObjectives(c, limits)
	}
	for col := 0; col < objectiveCount; col++ {
		normalizeColumn(rows, col)
	}

	ranked := make([]domain.Candidate, len(candidates))
	copy(ranked, candidates)
	for i := range ranked {
		ranked[i].Score = composite(rows[i], weights)
		ranked[i].Label = classify(ranked[i], limits)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Name < ranked[j].Name
	})
	return ranked
}
