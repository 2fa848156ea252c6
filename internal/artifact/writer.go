// Package artifact persists winning motor designs as downstream-consumable
// documents: a structured geometry file and a RASP-style thrust-curve export.
package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"apogeecore/internal/blob"
	"apogeecore/pkg/domain"
)

// Paths names the two documents produced for one design.
type Paths struct {
	SpecKey  string `json:"spec_key"`
	CurveKey string `json:"curve_key"`
}

// Writer persists design artifacts into a blob store.
type Writer struct {
	store blob.Store
}

// NewWriter wraps a blob store.
func NewWriter(store blob.Store) *Writer {
	return &Writer{store: store}
}

// specDocument is the structured geometry export.
type specDocument struct {
	Spec    domain.MotorSpec        `json:"spec"`
	Metrics domain.AggregateMetrics `json:"metrics"`
}

// Write persists the spec and its thrust curve under the prefix and returns
// the stored keys. The curve export follows the RASP engine-file layout so
// flight-simulation tools can consume it directly.
func (w *Writer) Write(ctx context.Context, spec domain.MotorSpec, metrics domain.AggregateMetrics, steps []domain.TimeStep, prefix string) (Paths, error) {
	if len(steps) == 0 {
		return Paths{}, domain.SimulationError{Spec: spec.Name, Reason: "no thrust curve to export"}
	}
	name := safeName(spec.Name)
	paths := Paths{
		SpecKey:  path.Join(prefix, name+".json"),
		CurveKey: path.Join(prefix, name+".eng"),
	}

	doc, err := json.MarshalIndent(specDocument{Spec: spec, Metrics: metrics}, "", "  ")
	if err != nil {
		return Paths{}, fmt.Errorf("encode spec document: %w", err)
	}
	if _, err := w.store.Put(ctx, paths.SpecKey, bytes.NewReader(doc), blob.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"motor": spec.Name},
	}); err != nil {
		return Paths{}, fmt.Errorf("store spec document: %w", err)
	}

	curve := engFile(spec, metrics, steps)
	if _, err := w.store.Put(ctx, paths.CurveKey, strings.NewReader(curve), blob.PutOptions{
		ContentType: "text/plain",
		Metadata:    map[string]string{"motor": spec.Name},
	}); err != nil {
		return Paths{}, fmt.Errorf("store curve document: %w", err)
	}
	return paths, nil
}

// engFile renders the RASP engine-file text: a comment header, a single
// declaration line with millimetre dimensions and kilogram masses, then
// time/thrust pairs ending at zero thrust.
func engFile(spec domain.MotorSpec, metrics domain.AggregateMetrics, steps []domain.TimeStep) string {
	var b strings.Builder
	fmt.Fprintf(&b, "; %s\n", spec.Name)
	fmt.Fprintf(&b, "; total impulse %.1f N*s, burn time %.2f s\n", metrics.TotalImpulse, metrics.BurnTime)

	propMass := metrics.PropellantMass
	totalMass := propMass // casing mass unknown at this layer
	fmt.Fprintf(&b, "%s %.0f %.0f P %.4f %.4f apogeecore\n",
		safeName(spec.Name),
		spec.Diameter()*1000,
		spec.StackLength()*1000,
		propMass,
		totalMass,
	)
	for _, s := range steps {
		fmt.Fprintf(&b, "   %.3f %.3f\n", s.Time, s.Thrust)
	}
	last := steps[len(steps)-1]
	if last.Thrust > 0 {
		fmt.Fprintf(&b, "   %.3f 0.000\n", last.Time+spec.Config.Timestep)
	}
	return b.String()
}

// safeName flattens a candidate name into a key-safe token.
func safeName(name string) string {
	if name == "" {
		return "motor"
	}
	replacer := strings.NewReplacer("/", "-", " ", "_", "+", "-")
	return replacer.Replace(name)
}
