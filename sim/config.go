package sim

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/chainreact/chainreact-sim/sim/trace"
)

// DefaultWeeks is the run length used when a configuration leaves it unset.
const DefaultWeeks = 50

// RunConfig holds the configuration of one run, loadable from a YAML file.
// Nil pointer fields mean "not set in YAML" and take the package defaults.
// String fields use empty string for "not set".
type RunConfig struct {
	Weeks           int                   `yaml:"weeks" json:"weeks"`
	TargetInventory *int                  `yaml:"target_inventory" json:"target_inventory,omitempty"`
	HoldingCost     *int                  `yaml:"holding_cost" json:"holding_cost,omitempty"`
	StockoutCost    *int                  `yaml:"stockout_cost" json:"stockout_cost,omitempty"`
	Tiers           map[string]string     `yaml:"tiers" json:"config,omitempty"`
	Predictor       string                `yaml:"predictor" json:"predictor,omitempty"`
	Narrator        string                `yaml:"narrator" json:"narrator,omitempty"`
	Trace           string                `yaml:"trace" json:"trace,omitempty"`
	Demand          DemandConfig          `yaml:"demand" json:"demand"`
	Disruptions     []ScheduledDisruption `yaml:"disruptions" json:"disruptions,omitempty"`
}

// DemandConfig selects the customer-demand schedule of a run.
type DemandConfig struct {
	Kind      string `yaml:"kind" json:"kind,omitempty"` // "constant", "step" (default), "random"
	Base      *int   `yaml:"base" json:"base,omitempty"`
	Shifted   *int   `yaml:"shifted" json:"shifted,omitempty"`
	ShiftWeek *int   `yaml:"shift_week" json:"shift_week,omitempty"`
	Seed      *int64 `yaml:"seed" json:"seed,omitempty"`
}

// ScheduledDisruption is a disruption injected just before the given week.
type ScheduledDisruption struct {
	Week       int `yaml:"week" json:"week"`
	Disruption `yaml:",inline"`
}

// ValidNarrators is the set of recognized narrator names.
var ValidNarrators = map[string]bool{"": true, "none": true, "template": true, "llm": true}

// ValidDemandKinds is the set of recognized demand schedule kinds.
var ValidDemandKinds = map[string]bool{"": true, "constant": true, "step": true, "random": true}

// LoadRunConfig reads and parses a YAML run configuration file.
// Unknown top-level keys are rejected so typos surface as errors.
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run config: %w", err)
	}
	var cfg RunConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing run config: %w", err)
	}
	return &cfg, nil
}

// Validate checks names and parameter ranges. Unknown tier names and policy
// kinds are not errors: ResolvePolicies ignores or downgrades them.
func (c *RunConfig) Validate() error {
	if c.Weeks < 0 {
		return fmt.Errorf("weeks must be non-negative, got %d", c.Weeks)
	}
	if c.TargetInventory != nil && *c.TargetInventory <= 0 {
		return fmt.Errorf("target_inventory must be positive, got %d", *c.TargetInventory)
	}
	if c.HoldingCost != nil && *c.HoldingCost < 0 {
		return fmt.Errorf("holding_cost must be non-negative, got %d", *c.HoldingCost)
	}
	if c.StockoutCost != nil && *c.StockoutCost < 0 {
		return fmt.Errorf("stockout_cost must be non-negative, got %d", *c.StockoutCost)
	}
	if !ValidNarrators[c.Narrator] {
		return fmt.Errorf("unknown narrator %q", c.Narrator)
	}
	if !trace.IsValidTraceLevel(c.Trace) {
		return fmt.Errorf("unknown trace level %q", c.Trace)
	}
	if !ValidDemandKinds[c.Demand.Kind] {
		return fmt.Errorf("unknown demand kind %q", c.Demand.Kind)
	}
	if c.Demand.Base != nil && *c.Demand.Base < 0 {
		return fmt.Errorf("demand base must be non-negative, got %d", *c.Demand.Base)
	}
	if c.Demand.Shifted != nil && *c.Demand.Shifted < 0 {
		return fmt.Errorf("demand shifted must be non-negative, got %d", *c.Demand.Shifted)
	}
	for i, d := range c.Disruptions {
		if d.Week < 1 {
			return fmt.Errorf("disruptions[%d]: week must be >= 1, got %d", i, d.Week)
		}
		if d.Duration < 0 {
			return fmt.Errorf("disruptions[%d]: duration must be non-negative, got %d", i, d.Duration)
		}
		if d.Type == "" {
			return fmt.Errorf("disruptions[%d]: type is required", i)
		}
	}
	return nil
}

// WeeksOrDefault returns Weeks, or DefaultWeeks when unset.
func (c *RunConfig) WeeksOrDefault() int {
	if c.Weeks <= 0 {
		return DefaultWeeks
	}
	return c.Weeks
}

// EngineConfig converts the file-level settings into an EngineConfig.
// Collaborators (predictor, narrator, trace) are left for the caller to attach.
func (c *RunConfig) EngineConfig() EngineConfig {
	costs := DefaultCostRates()
	if c.HoldingCost != nil {
		costs.Holding = *c.HoldingCost
	}
	if c.StockoutCost != nil {
		costs.Stockout = *c.StockoutCost
	}
	cfg := EngineConfig{
		Policies:        ResolvePolicies(c.Tiers),
		TargetInventory: DefaultTargetInventory,
		Costs:           &costs,
	}
	if c.TargetInventory != nil {
		cfg.TargetInventory = *c.TargetInventory
	}
	return cfg
}

// ResolvePolicies maps raw tier names to policy kinds. Unknown tier names are
// dropped and unknown kinds become PolicyStandard, each with a warning.
func ResolvePolicies(raw map[string]string) map[Tier]PolicyKind {
	out := make(map[Tier]PolicyKind, len(Tiers))
	for name, kindName := range raw {
		tier, ok := ParseTier(name)
		if !ok {
			logrus.Warnf("ignoring unknown tier %q in run config", name)
			continue
		}
		kind, ok := ParsePolicyKind(kindName)
		if !ok {
			logrus.Warnf("unknown policy %q for %s; using %s", kindName, tier, PolicyStandard)
		}
		out[tier] = kind
	}
	return out
}
