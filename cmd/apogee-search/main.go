// Command apogee-search explores motor design spaces around one or two
// baseline specs and prints the ranked candidates.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"apogeecore/internal/blob"
	"apogeecore/internal/catalog"
	"apogeecore/internal/core"
	"apogeecore/internal/search"
	"apogeecore/pkg/domain"
)

var exitFunc = os.Exit

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "apogee-search: %v\n", err)
		exitFunc(1)
	}
}

type options struct {
	boosterPath   string
	sustainerPath string

	targetImpulse float64
	targetApogee  float64
	tolerance     float64
	dryMasses     string
	totalMass     float64

	maxPressure   float64
	maxKn         float64
	maxVehicleLen float64
	maxStageRatio float64

	allowNames    string
	allowFamilies string

	seed        int64
	parallelism int

	save   bool
	prefix string
	topN   int

	jsonOut bool
	listen  string
}

func parseOptions(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("apogee-search", flag.ContinueOnError)
	fs.StringVar(&opts.boosterPath, "booster", "", "path to the booster baseline spec (JSON, required)")
	fs.StringVar(&opts.sustainerPath, "sustainer", "", "path to the sustainer baseline spec for a two-stage search")
	fs.Float64Var(&opts.targetImpulse, "target-impulse", 0, "target total impulse (N*s)")
	fs.Float64Var(&opts.targetApogee, "target-apogee", 0, "target apogee (m); derives the impulse target when set")
	fs.Float64Var(&opts.tolerance, "tolerance", 0, "apogee acceptance band as a fraction of the target (default 0.10)")
	fs.StringVar(&opts.dryMasses, "dry-mass", "3.0", "comma-separated per-stage dry masses (kg)")
	fs.Float64Var(&opts.totalMass, "total-mass", 0, "total vehicle dry mass (kg); rescales the per-stage masses")
	fs.Float64Var(&opts.maxPressure, "max-pressure", 0, "chamber pressure cap (Pa); 0 keeps the spec default")
	fs.Float64Var(&opts.maxKn, "max-kn", 0, "Kn cap; 0 disables the constraint")
	fs.Float64Var(&opts.maxVehicleLen, "max-vehicle-length", 0, "vehicle length budget (m)")
	fs.Float64Var(&opts.maxStageRatio, "max-stage-ratio", 0, "cap on how much paired stage lengths may differ")
	fs.StringVar(&opts.allowNames, "propellants", "", "comma-separated propellant names to explore (default: full catalog)")
	fs.StringVar(&opts.allowFamilies, "families", "", "comma-separated propellant families to explore")
	fs.Int64Var(&opts.seed, "seed", 0, "search seed for reproducible runs")
	fs.IntVar(&opts.parallelism, "parallelism", runtime.GOMAXPROCS(0), "concurrent grid evaluations")
	fs.BoolVar(&opts.save, "save", false, "persist artifacts for the top candidates and record the winner")
	fs.StringVar(&opts.prefix, "prefix", "runs", "artifact key prefix used with -save")
	fs.IntVar(&opts.topN, "top", 1, "how many ranked candidates get artifacts with -save")
	fs.BoolVar(&opts.jsonOut, "json", false, "emit the full result envelope as JSON")
	fs.StringVar(&opts.listen, "listen", "", "serve /metrics and /debug/vars on this address while searching")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.boosterPath == "" {
		return options{}, fmt.Errorf("-booster is required")
	}
	return opts, nil
}

func run(args []string, out *os.File) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	ctx := context.Background()

	req, err := buildRequest(opts)
	if err != nil {
		return err
	}

	cat, err := core.OpenCatalog(ctx)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer cat.Close()

	svcOpts := []core.Option{
		core.WithMetrics(core.NewExpvarMetricsRecorder("apogee_search")),
		core.WithTracer(core.NewJSONTracer(os.Stderr)),
	}
	if opts.save {
		store, err := blob.Open(ctx)
		if err != nil {
			return fmt.Errorf("open artifact store: %w", err)
		}
		svcOpts = append(svcOpts, core.WithArtifactStore(store))
	}
	if opts.listen != "" {
		prom := core.NewPrometheusRecorder()
		svcOpts = append(svcOpts, core.WithPrometheus(prom))
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(prom.Registry(), promhttp.HandlerOpts{}))
		mux.Handle("/debug/vars", http.DefaultServeMux)
		go func() {
			if err := http.ListenAndServe(opts.listen, mux); err != nil {
				fmt.Fprintf(os.Stderr, "apogee-search: metrics listener: %v\n", err)
			}
		}()
	}

	svc := core.NewService(cat, svcOpts...)
	result, err := svc.Search(ctx, req)
	if err != nil {
		return err
	}

	if opts.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printTable(out, result)
	return nil
}

func buildRequest(opts options) (core.SearchRequest, error) {
	booster, err := catalog.LoadMotorSpecFile(opts.boosterPath)
	if err != nil {
		return core.SearchRequest{}, err
	}
	baselines := []domain.MotorSpec{booster}
	if opts.sustainerPath != "" {
		sustainer, err := catalog.LoadMotorSpecFile(opts.sustainerPath)
		if err != nil {
			return core.SearchRequest{}, err
		}
		baselines = append(baselines, sustainer)
	}

	dryMasses, err := parseMasses(opts.dryMasses)
	if err != nil {
		return core.SearchRequest{}, err
	}

	return core.SearchRequest{
		Request: search.Request{
			Baselines: baselines,
			Objectives: search.Objectives{
				TargetImpulse: opts.targetImpulse,
				TargetApogee:  opts.targetApogee,
				Tolerance:     opts.tolerance,
			},
			Constraints: search.Constraints{
				MaxPressure:         opts.maxPressure,
				MaxKn:               opts.maxKn,
				MaxVehicleLength:    opts.maxVehicleLen,
				MaxStageLengthRatio: opts.maxStageRatio,
			},
			AllowNames:    splitList(opts.allowNames),
			AllowFamilies: splitList(opts.allowFamilies),
			DryMasses:     dryMasses,
			TotalMass:     opts.totalMass,
			Seed:          opts.seed,
			Parallelism:   opts.parallelism,
		},
		SaveArtifacts:  opts.save,
		ArtifactPrefix: opts.prefix,
		TopN:           opts.topN,
	}, nil
}

func parseMasses(csv string) ([]float64, error) {
	var out []float64
	for _, field := range splitList(csv) {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid dry mass %q: %w", field, err)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one dry mass is required")
	}
	return out, nil
}

func splitList(csv string) []string {
	var out []string
	for _, field := range strings.Split(csv, ",") {
		field = strings.TrimSpace(field)
		if field != "" {
			out = append(out, field)
		}
	}
	return out
}

func printTable(out *os.File, result core.SearchOutput) {
	fmt.Fprintf(out, "status: %s  evaluated: %d  cache hits: %d  seed: %d\n\n",
		result.Summary.Status, result.Summary.Evaluated, result.Summary.CacheHits, result.Summary.Seed)

	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tNAME\tSCORE\tAPOGEE (m)\tIMPULSE (N*s)\tBURN (s)\tPEAK P (MPa)\tLABEL")
	for i, cand := range result.Ranked {
		fmt.Fprintf(w, "%d\t%s\t%.3f\t%.0f\t%.0f\t%.2f\t%.2f\t%s\n",
			i+1, cand.Name, cand.Score, cand.Apogee.Apogee, cand.Metrics.TotalImpulse,
			cand.Metrics.BurnTime, cand.Metrics.PeakPressure/1e6, cand.Label)
	}
	w.Flush()

	if len(result.Rejections) > 0 {
		counts := map[domain.RejectionReason]int{}
		for _, rej := range result.Rejections {
			counts[rej.Reason]++
		}
		fmt.Fprintln(out, "\nrejections:")
		for reason, n := range counts {
			fmt.Fprintf(out, "  %s: %d\n", reason, n)
		}
	}
	for _, paths := range result.Artifacts {
		fmt.Fprintf(out, "\nsaved: %s, %s\n", paths.SpecKey, paths.CurveKey)
	}
}
