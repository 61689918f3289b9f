// Package plan holds the static plan catalog and the gated-action cost table.
// Both are configuration, not stored entities: they are loaded once at startup
// and never mutated.
package plan

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownPlan   = errors.New("unknown plan")
	ErrUnknownAction = errors.New("unknown action kind")
)

// Plan describes a subscription tier: how many points it grants on signup and
// what one extra point costs (in yen) when purchased on top.
type Plan struct {
	ID                   string `json:"id" toml:"id"`
	DisplayName          string `json:"display_name" toml:"display_name"`
	PointsIncluded       int64  `json:"points_included" toml:"points_included"`
	AdditionalPointPrice int64  `json:"additional_point_price" toml:"additional_point_price"`
}

// Catalog maps plan IDs to plans.
type Catalog struct {
	plans map[string]Plan
}

// DefaultPlans is the built-in catalog, used when no config file overrides it.
func DefaultPlans() []Plan {
	return []Plan{
		{ID: "light", DisplayName: "Light", PointsIncluded: 50, AdditionalPointPrice: 500},
		{ID: "standard", DisplayName: "Standard", PointsIncluded: 200, AdditionalPointPrice: 400},
		{ID: "premium", DisplayName: "Premium", PointsIncluded: 500, AdditionalPointPrice: 300},
	}
}

func NewCatalog(plans []Plan) *Catalog {
	m := make(map[string]Plan, len(plans))
	for _, p := range plans {
		m[p.ID] = p
	}
	return &Catalog{plans: m}
}

// Lookup returns the plan for the given ID.
func (c *Catalog) Lookup(planID string) (*Plan, error) {
	p, ok := c.plans[planID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, planID)
	}
	return &p, nil
}

// List returns all plans. Order is unspecified.
func (c *Catalog) List() []Plan {
	out := make([]Plan, 0, len(c.plans))
	for _, p := range c.plans {
		out = append(out, p)
	}
	return out
}

// ActionKind identifies a gated action.
type ActionKind string

const (
	ActionContactDisclosure ActionKind = "contact_disclosure"
	ActionScoutMessage      ActionKind = "scout_message"
)

// Costs maps action kinds to their point cost.
type Costs struct {
	costs map[ActionKind]int64
}

// DefaultCosts is the built-in cost table.
func DefaultCosts() map[ActionKind]int64 {
	return map[ActionKind]int64{
		ActionContactDisclosure: 10,
		ActionScoutMessage:      3,
	}
}

func NewCosts(costs map[ActionKind]int64) *Costs {
	m := make(map[ActionKind]int64, len(costs))
	for k, v := range costs {
		m[k] = v
	}
	return &Costs{costs: m}
}

// Lookup returns the point cost of an action kind.
func (c *Costs) Lookup(kind ActionKind) (int64, error) {
	cost, ok := c.costs[kind]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownAction, kind)
	}
	return cost, nil
}
