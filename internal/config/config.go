// Package config loads the plan catalog and action cost table from a TOML
// file. Secrets and infrastructure settings (port, DB path, Stripe keys, S3)
// come from the environment instead; see cmd/scoutpoint.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/scoutpoint/scoutpoint/internal/plan"
)

type Config struct {
	Plans       []plan.Plan      `toml:"plans"`
	ActionCosts map[string]int64 `toml:"action_costs"`
}

// Load reads the TOML file at path. A missing file is not an error: the
// built-in defaults apply. A present-but-broken file is an error so a typo
// never silently reprices actions.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Catalog builds the plan catalog, falling back to the defaults when the
// config file defines no plans.
func (c *Config) Catalog() *plan.Catalog {
	plans := c.Plans
	if len(plans) == 0 {
		plans = plan.DefaultPlans()
	}
	return plan.NewCatalog(plans)
}

// CostTable builds the action cost table, falling back to the defaults when
// the config file defines no costs.
func (c *Config) CostTable() *plan.Costs {
	if len(c.ActionCosts) == 0 {
		return plan.NewCosts(plan.DefaultCosts())
	}
	costs := make(map[plan.ActionKind]int64, len(c.ActionCosts))
	for k, v := range c.ActionCosts {
		costs[plan.ActionKind(k)] = v
	}
	return plan.NewCosts(costs)
}
