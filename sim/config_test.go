package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRunConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRunConfig_ValidYAML(t *testing.T) {
	path := writeRunConfig(t, `
weeks: 30
target_inventory: 120
stockout_cost: 0
tiers:
  Retailer: PREDICTIVE
  wholesaler: ai
predictor: models/gbrt.yaml
narrator: template
trace: decisions
demand:
  kind: random
  seed: 7
disruptions:
  - week: 6
    type: DEMAND_SPIKE
    value: 60
    duration: 3
`)
	cfg, err := LoadRunConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 30, cfg.WeeksOrDefault())
	require.NotNil(t, cfg.StockoutCost, "explicit zero is distinct from unset")
	assert.Equal(t, 0, *cfg.StockoutCost)
	assert.Nil(t, cfg.HoldingCost)
	assert.Equal(t, "random", cfg.Demand.Kind)
	require.NotNil(t, cfg.Demand.Seed)
	assert.Equal(t, int64(7), *cfg.Demand.Seed)
	require.Len(t, cfg.Disruptions, 1)
	assert.Equal(t, 6, cfg.Disruptions[0].Week)
	assert.Equal(t, DisruptionDemandSpike, cfg.Disruptions[0].Type)
	assert.Equal(t, 3, cfg.Disruptions[0].Duration)

	ec := cfg.EngineConfig()
	assert.Equal(t, 120, ec.TargetInventory)
	require.NotNil(t, ec.Costs)
	assert.Equal(t, CostRates{Holding: DefaultHoldingCost, Stockout: 0}, *ec.Costs)
	assert.Equal(t, PolicyPredictive, ec.Policies[Retailer])
	assert.Equal(t, PolicyPredictive, ec.Policies[Wholesaler])
	_, listed := ec.Policies[Factory]
	assert.False(t, listed)
}

func TestLoadRunConfig_RejectsUnknownKeys(t *testing.T) {
	path := writeRunConfig(t, "weeks: 10\nweeeks: 12\n")
	_, err := LoadRunConfig(path)
	assert.Error(t, err)
}

func TestLoadRunConfig_MissingFile(t *testing.T) {
	_, err := LoadRunConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestRunConfig_Defaults(t *testing.T) {
	var cfg RunConfig
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultWeeks, cfg.WeeksOrDefault())

	ec := cfg.EngineConfig()
	assert.Equal(t, DefaultTargetInventory, ec.TargetInventory)
	assert.Equal(t, DefaultCostRates(), *ec.Costs)
	assert.Empty(t, ec.Policies)
}

func TestRunConfig_Validate(t *testing.T) {
	neg := -1
	zero := 0
	tests := []struct {
		name string
		cfg  RunConfig
	}{
		{"negative weeks", RunConfig{Weeks: -3}},
		{"zero target", RunConfig{TargetInventory: &zero}},
		{"negative holding", RunConfig{HoldingCost: &neg}},
		{"negative stockout", RunConfig{StockoutCost: &neg}},
		{"unknown narrator", RunConfig{Narrator: "oracle"}},
		{"unknown trace level", RunConfig{Trace: "verbose"}},
		{"unknown demand kind", RunConfig{Demand: DemandConfig{Kind: "seasonal"}}},
		{"negative base demand", RunConfig{Demand: DemandConfig{Base: &neg}}},
		{"disruption before week 1", RunConfig{Disruptions: []ScheduledDisruption{{Week: 0, Disruption: Disruption{Type: "X"}}}}},
		{"disruption without type", RunConfig{Disruptions: []ScheduledDisruption{{Week: 3}}}},
		{"negative duration", RunConfig{Disruptions: []ScheduledDisruption{{Week: 3, Disruption: Disruption{Type: "X", Duration: -1}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
		})
	}
}

func TestResolvePolicies_IgnoresUnknownNames(t *testing.T) {
	got := ResolvePolicies(map[string]string{
		"Retailer":    "PREDICTIVE",
		"Distributor": "quantum",
		"Supplier":    "PREDICTIVE",
	})

	assert.Equal(t, map[Tier]PolicyKind{
		Retailer:    PolicyPredictive,
		Distributor: PolicyStandard,
	}, got)
}
