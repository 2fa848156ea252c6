package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"apogeecore/pkg/domain"
)

func testDesign(name string) domain.MotorSpec {
	grain := domain.GrainGeometry{
		Diameter:      0.08,
		CoreDiameter:  0.03,
		Length:        0.12,
		InhibitedEnds: domain.InhibitNeither,
	}
	return domain.MotorSpec{
		Name:       name,
		Config:     domain.DefaultMotorConfig(),
		Propellant: BuiltinPropellants()[0],
		Grains:     []domain.GrainGeometry{grain, grain, grain},
		Nozzle: domain.NozzleSpec{
			ThroatDiameter: 0.02,
			ExitDiameter:   0.04,
			Efficiency:     0.9,
		},
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	if err := SeedPresets(ctx, store); err != nil {
		t.Fatalf("seed presets: %v", err)
	}
	props, err := store.Propellants(ctx)
	if err != nil {
		t.Fatalf("list propellants: %v", err)
	}
	if len(props) != len(BuiltinPropellants()) {
		t.Fatalf("expected %d presets, got %d", len(BuiltinPropellants()), len(props))
	}
	for i := 1; i < len(props); i++ {
		if props[i-1].Name >= props[i].Name {
			t.Fatalf("propellants not sorted by name: %q >= %q", props[i-1].Name, props[i].Name)
		}
	}

	knsb, err := store.Propellant(ctx, "KNSB")
	if err != nil {
		t.Fatalf("get KNSB: %v", err)
	}
	if len(knsb.Tabs) != 2 {
		t.Fatalf("KNSB should carry two pressure tabs, got %d", len(knsb.Tabs))
	}

	if _, err := store.Propellant(ctx, "unobtainium"); err == nil {
		t.Fatalf("expected not-found error")
	} else {
		var nf NotFoundError
		if !errors.As(err, &nf) || nf.Kind != "propellant" {
			t.Fatalf("expected propellant NotFoundError, got %v", err)
		}
	}

	design := testDesign("L1-baseline")
	if err := store.PutDesign(ctx, design); err != nil {
		t.Fatalf("put design: %v", err)
	}
	got, err := store.Design(ctx, "L1-baseline")
	if err != nil {
		t.Fatalf("get design: %v", err)
	}
	if got.PropellantMass() != design.PropellantMass() {
		t.Fatalf("design round-trip changed the spec")
	}
}

func TestMemoryRejectsInvalidSpecs(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	bad := testDesign("bad")
	bad.Grains = nil
	if err := store.PutDesign(ctx, bad); err == nil {
		t.Fatalf("expected validation error for empty grain list")
	}

	prop := BuiltinPropellants()[0]
	prop.Tabs = nil
	if err := store.PutPropellant(ctx, prop); err == nil {
		t.Fatalf("expected validation error for tabless propellant")
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := SeedPresets(ctx, store); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.PutDesign(ctx, testDesign("persisted")); err != nil {
		t.Fatalf("put design: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	props, err := reopened.Propellants(ctx)
	if err != nil {
		t.Fatalf("list after reopen: %v", err)
	}
	if len(props) != len(BuiltinPropellants()) {
		t.Fatalf("presets lost across reopen: got %d", len(props))
	}
	if _, err := reopened.Design(ctx, "persisted"); err != nil {
		t.Fatalf("design lost across reopen: %v", err)
	}
}

func TestSQLiteStoreDefaultsPath(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sub", "catalog.db"))
	if err != nil {
		t.Fatalf("open with missing parent dir: %v", err)
	}
	defer func() { _ = store.Close() }()
	if store.Path() == "" {
		t.Fatalf("path not recorded")
	}
}

func TestOpenStoreDrivers(t *testing.T) {
	withEnv := func(key, value string, fn func()) {
		prev, had := os.LookupEnv(key)
		if err := os.Setenv(key, value); err != nil {
			t.Fatalf("setenv: %v", err)
		}
		defer func() {
			if had {
				_ = os.Setenv(key, prev)
			} else {
				_ = os.Unsetenv(key)
			}
		}()
		fn()
	}

	withEnv("APOGEECORE_CATALOG_DRIVER", "memory", func() {
		store, err := OpenStore()
		if err != nil {
			t.Fatalf("open memory: %v", err)
		}
		if _, ok := store.(*Memory); !ok {
			t.Fatalf("expected *Memory, got %T", store)
		}
	})

	withEnv("APOGEECORE_CATALOG_DRIVER", "sqlite", func() {
		withEnv("APOGEECORE_SQLITE_PATH", filepath.Join(t.TempDir(), "env.db"), func() {
			store, err := OpenStore()
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			defer func() { _ = store.Close() }()
			if _, ok := store.(*SQLiteStore); !ok {
				t.Fatalf("expected *SQLiteStore, got %T", store)
			}
		})
	})

	withEnv("APOGEECORE_CATALOG_DRIVER", "gibberish", func() {
		if _, err := OpenStore(); err == nil || !strings.Contains(err.Error(), "unknown catalog driver") {
			t.Fatalf("expected unknown driver error, got %v", err)
		}
	})
}

func TestLoadMotorSpec(t *testing.T) {
	doc := `{
		"name": "loaded",
		"propellant": {
			"name": "KNSU",
			"family": "KN",
			"density": 1889,
			"tabs": [{
				"burn_rate_coef": 5.27e-5,
				"burn_rate_exp": 0.319,
				"specific_heat_ratio": 1.133,
				"molar_mass": 0.0419,
				"combustion_temp": 1720,
				"min_pressure": 0,
				"max_pressure": 1.2e7
			}]
		},
		"grains": [
			{"diameter": 0.08, "core_diameter": 0.03, "length": 0.12, "inhibited_ends": "neither"}
		],
		"nozzle": {"throat_diameter": 0.02, "exit_diameter": 0.04, "efficiency": 0.9}
	}`
	spec, err := LoadMotorSpec(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// The omitted config block must be filled from defaults.
	if spec.Config.Timestep != domain.DefaultMotorConfig().Timestep {
		t.Fatalf("config defaults not applied: %+v", spec.Config)
	}
	if spec.Propellant.Name != "KNSU" {
		t.Fatalf("propellant lost in load")
	}
}

func TestLoadMotorSpecRejectsUnknownFields(t *testing.T) {
	doc := `{"name": "typo", "grians": []}`
	if _, err := LoadMotorSpec(strings.NewReader(doc)); err == nil {
		t.Fatalf("expected unknown-field rejection")
	}
}

func TestLoadMotorSpecFileMissing(t *testing.T) {
	if _, err := LoadMotorSpecFile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
