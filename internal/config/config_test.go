package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/scoutpoint/scoutpoint/internal/plan"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	p, err := cfg.Catalog().Lookup("light")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if p.PointsIncluded != 50 {
		t.Errorf("points_included = %d, want 50", p.PointsIncluded)
	}

	cost, err := cfg.CostTable().Lookup(plan.ActionContactDisclosure)
	if err != nil {
		t.Fatalf("cost lookup: %v", err)
	}
	if cost != 10 {
		t.Errorf("cost = %d, want 10", cost)
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := cfg.Catalog().Lookup("premium"); err != nil {
		t.Errorf("expected default premium plan, got %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoutpoint.toml")
	data := `
[[plans]]
id = "starter"
display_name = "Starter"
points_included = 25
additional_point_price = 600

[action_costs]
contact_disclosure = 12
scout_message = 5
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	p, err := cfg.Catalog().Lookup("starter")
	if err != nil {
		t.Fatalf("lookup starter: %v", err)
	}
	if p.PointsIncluded != 25 || p.AdditionalPointPrice != 600 {
		t.Errorf("starter = %+v, want 25 points at 600 each", p)
	}

	// Config-defined plans replace the defaults entirely
	if _, err := cfg.Catalog().Lookup("light"); err == nil {
		t.Error("expected default plans to be replaced")
	}

	cost, err := cfg.CostTable().Lookup(plan.ActionContactDisclosure)
	if err != nil {
		t.Fatalf("cost lookup: %v", err)
	}
	if cost != 12 {
		t.Errorf("cost = %d, want 12", cost)
	}
}

func TestLoadBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoutpoint.toml")
	if err := os.WriteFile(path, []byte("plans = not-toml"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
