package atmosphere

import "sort"

// DragModel returns the drag coefficient for a given Mach number. Exactly one
// policy is active per simulation call.
type DragModel interface {
	Coefficient(mach float64) float64
}

// ConstantDrag applies a fixed coefficient at every Mach number.
type ConstantDrag struct {
	Cd float64
}

// Coefficient implements DragModel.
func (c ConstantDrag) Coefficient(float64) float64 { return c.Cd }

// RampDrag ramps linearly from 0 to CdMax as Mach approaches MachMax, then
// holds constant above it.
type RampDrag struct {
	CdMax   float64
	MachMax float64
}

// Coefficient implements DragModel.
func (r RampDrag) Coefficient(mach float64) float64 {
	if r.MachMax <= 0 {
		return r.CdMax
	}
	if mach >= r.MachMax {
		return r.CdMax
	}
	if mach <= 0 {
		return 0
	}
	return r.CdMax * mach / r.MachMax
}

// TablePoint is one entry of a piecewise-linear Cd lookup table.
type TablePoint struct {
	Mach float64 `json:"mach"`
	Cd   float64 `json:"cd"`
}

// TableDrag interpolates a piecewise-linear table indexed by Mach, clamped at
// the table edges. When a table is supplied it takes precedence over the
// other policies.
type TableDrag struct {
	points []TablePoint
}

// NewTableDrag builds a table policy; points are sorted by Mach.
func NewTableDrag(points []TablePoint) TableDrag {
	sorted := make([]TablePoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Mach < sorted[j].Mach })
	return TableDrag{points: sorted}
}

// Coefficient implements DragModel.
func (t TableDrag) Coefficient(mach float64) float64 {
	if len(t.points) == 0 {
		return 0
	}
	if mach <= t.points[0].Mach {
		return t.points[0].Cd
	}
	last := t.points[len(t.points)-1]
	if mach >= last.Mach {
		return last.Cd
	}
	i := sort.Search(len(t.points), func(i int) bool { return t.points[i].Mach >= mach })
	lo, hi := t.points[i-1], t.points[i]
	frac := (mach - lo.Mach) / (hi.Mach - lo.Mach)
	return lo.Cd + frac*(hi.Cd-lo.Cd)
}

// Select picks the active policy: table when supplied, otherwise ramp when a
// positive MachMax is configured, otherwise constant.
func Select(cd, cdMax, machMax float64, table []TablePoint) DragModel {
	if len(table) > 0 {
		return NewTableDrag(table)
	}
	if machMax > 0 {
		return RampDrag{CdMax: cdMax, MachMax: machMax}
	}
	return ConstantDrag{Cd: cd}
}
