package plan

import (
	"errors"
	"testing"
)

func TestCatalogLookup(t *testing.T) {
	catalog := NewCatalog(DefaultPlans())

	p, err := catalog.Lookup("standard")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if p.PointsIncluded != 200 || p.AdditionalPointPrice != 400 {
		t.Errorf("standard = %+v, want 200 points at 400 each", p)
	}
}

func TestCatalogLookupUnknown(t *testing.T) {
	catalog := NewCatalog(DefaultPlans())

	_, err := catalog.Lookup("platinum")
	if !errors.Is(err, ErrUnknownPlan) {
		t.Fatalf("expected ErrUnknownPlan, got %v", err)
	}
}

func TestCatalogList(t *testing.T) {
	catalog := NewCatalog(DefaultPlans())

	plans := catalog.List()
	if len(plans) != 3 {
		t.Fatalf("expected 3 plans, got %d", len(plans))
	}
	seen := make(map[string]bool)
	for _, p := range plans {
		seen[p.ID] = true
	}
	for _, id := range []string{"light", "standard", "premium"} {
		if !seen[id] {
			t.Errorf("missing plan %q", id)
		}
	}
}

func TestCostsLookup(t *testing.T) {
	costs := NewCosts(DefaultCosts())

	cost, err := costs.Lookup(ActionContactDisclosure)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if cost != 10 {
		t.Errorf("contact_disclosure cost = %d, want 10", cost)
	}

	cost, err = costs.Lookup(ActionScoutMessage)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if cost != 3 {
		t.Errorf("scout_message cost = %d, want 3", cost)
	}
}

func TestCostsLookupUnknown(t *testing.T) {
	costs := NewCosts(DefaultCosts())

	_, err := costs.Lookup("teleport")
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}
