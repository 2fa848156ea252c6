// Package core wires the catalog, optimizer, scorer and artifact writer into
// the outward search service.
package core

import (
	"context"
	"fmt"
	"time"

	"apogeecore/internal/artifact"
	"apogeecore/internal/blob"
	"apogeecore/internal/catalog"
	"apogeecore/internal/scoring"
	"apogeecore/internal/search"
	"apogeecore/pkg/domain"
)

// Service runs design searches end to end: propellant catalog lookup, grid
// exploration, candidate ranking and artifact persistence.
type Service struct {
	catalog catalog.Store
	writer  *artifact.Writer
	metrics MetricsRecorder
	prom    *PrometheusRecorder
	tracer  Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithArtifactStore enables artifact persistence into the blob store.
func WithArtifactStore(store blob.Store) Option {
	return func(s *Service) { s.writer = artifact.NewWriter(store) }
}

// WithMetrics sets the operation metrics recorder.
func WithMetrics(rec MetricsRecorder) Option {
	return func(s *Service) { s.metrics = rec }
}

// WithPrometheus attaches search-outcome collectors. The recorder also serves
// as the operation metrics recorder unless WithMetrics overrides it.
func WithPrometheus(rec *PrometheusRecorder) Option {
	return func(s *Service) {
		s.prom = rec
		s.metrics = rec
	}
}

// WithTracer sets the span tracer.
func WithTracer(t Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// NewService constructs a search service over the given catalog.
func NewService(cat catalog.Store, opts ...Option) *Service {
	s := &Service{
		catalog: cat,
		metrics: noopMetrics{},
		tracer:  noopTracer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the backing catalog store.
func (s *Service) Catalog() catalog.Store { return s.catalog }

// Bootstrap seeds the builtin propellant presets when the catalog is empty.
func (s *Service) Bootstrap(ctx context.Context) error {
	props, err := s.catalog.Propellants(ctx)
	if err != nil {
		return err
	}
	if len(props) > 0 {
		return nil
	}
	return catalog.SeedPresets(ctx, s.catalog)
}

// SearchRequest extends the optimizer request with ranking and persistence
// directives. When Propellants is empty the catalog presets are used.
type SearchRequest struct {
	search.Request
	// Weights for the composite score; a zero value selects the defaults.
	Weights domain.ScoreWeights
	// SaveArtifacts persists the top-ranked designs when an artifact store is
	// configured, and records the winner in the design catalog.
	SaveArtifacts bool
	// ArtifactPrefix is the blob key prefix for saved documents.
	ArtifactPrefix string
	// TopN caps how many ranked candidates get artifacts (default 1).
	TopN int
}

// SearchOutput is the outward result of one search invocation.
type SearchOutput struct {
	// Ranked lists every evaluated candidate by descending composite score.
	Ranked     []domain.Candidate   `json:"ranked"`
	Rejections []domain.Rejection   `json:"rejections"`
	Summary    domain.SearchSummary `json:"summary"`
	// Artifacts names the persisted documents, aligned with the top of Ranked.
	Artifacts []artifact.Paths `json:"artifacts,omitempty"`
}

// Search explores the design space, ranks the evaluated candidates and
// optionally persists the winners.
func (s *Service) Search(ctx context.Context, req SearchRequest) (out SearchOutput, err error) {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, "search")
	defer func() {
		span.End(err)
		s.metrics.Observe(ctx, "search", err == nil, time.Since(started))
	}()

	if len(req.Propellants) == 0 && s.catalog != nil {
		req.Propellants, err = s.catalog.Propellants(ctx)
		if err != nil {
			return SearchOutput{}, fmt.Errorf("load propellant catalog: %w", err)
		}
	}

	resp, err := search.Explore(ctx, req.Request)
	if err != nil {
		return SearchOutput{}, err
	}

	weights := req.Weights
	if weights.Sum() == 0 {
		weights = domain.DefaultScoreWeights()
	}
	out = SearchOutput{
		Ranked: scoring.Rank(resp.Candidates, weights, scoring.Limits{
			MaxPressure: req.Constraints.MaxPressure,
			MaxKn:       req.Constraints.MaxKn,
		}),
		Rejections: resp.Rejections,
		Summary:    resp.Summary,
	}
	if s.prom != nil {
		s.prom.RecordSearch(out.Summary, out.Ranked, out.Rejections)
	}

	if req.SaveArtifacts && len(out.Ranked) > 0 {
		paths, saveErr := s.saveWinners(ctx, req, out.Ranked)
		if saveErr != nil {
			err = saveErr
			return SearchOutput{}, err
		}
		out.Artifacts = paths
	}
	return out, nil
}

// saveWinners writes artifact documents for the top candidates and records
// the overall winner in the design catalog.
func (s *Service) saveWinners(ctx context.Context, req SearchRequest, ranked []domain.Candidate) ([]artifact.Paths, error) {
	topN := req.TopN
	if topN <= 0 {
		topN = 1
	}
	if topN > len(ranked) {
		topN = len(ranked)
	}

	var paths []artifact.Paths
	if s.writer != nil {
		for _, cand := range ranked[:topN] {
			if len(cand.Stages) == 0 {
				continue
			}
			spec := cand.Stages[0].Spec
			spec.Name = cand.Name
			p, err := s.writer.Write(ctx, spec, cand.Metrics, cand.Steps, req.ArtifactPrefix)
			if err != nil {
				return nil, fmt.Errorf("persist artifacts for %s: %w", cand.Name, err)
			}
			paths = append(paths, p)
		}
	}

	if s.catalog != nil && len(ranked[0].Stages) > 0 {
		winner := ranked[0].Stages[0].Spec
		winner.Name = ranked[0].Name
		if err := s.catalog.PutDesign(ctx, winner); err != nil {
			return nil, fmt.Errorf("record winning design: %w", err)
		}
	}
	return paths, nil
}

// OpenCatalog opens the env-selected catalog store and seeds presets when it
// is empty.
func OpenCatalog(ctx context.Context) (catalog.Store, error) {
	store, err := catalog.OpenStore()
	if err != nil {
		return nil, err
	}
	props, err := store.Propellants(ctx)
	if err != nil {
		return nil, err
	}
	if len(props) == 0 {
		if err := catalog.SeedPresets(ctx, store); err != nil {
			return nil, err
		}
	}
	return store, nil
}
