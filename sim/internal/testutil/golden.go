// Package testutil provides shared test infrastructure for the ChainReact
// simulator: the golden scenario dataset and its assertion helpers.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is one scenario: a demand schedule, an optional disruption
// and the run-level outcome it must reproduce.
type GoldenTestCase struct {
	Name       string            `json:"name"`
	Weeks      int               `json:"weeks"`
	Demand     GoldenDemand      `json:"demand"`
	Disruption *GoldenDisruption `json:"disruption"`
	Expected   GoldenOutcome     `json:"expected"`
}

// GoldenDemand mirrors the demand section of a run config.
type GoldenDemand struct {
	Kind string `json:"kind"`
	Base *int   `json:"base"`
}

// GoldenDisruption is injected just before Week.
type GoldenDisruption struct {
	Week     int    `json:"week"`
	Type     string `json:"type"`
	Value    int    `json:"value"`
	Duration int    `json:"duration"`
}

// GoldenOutcome holds the expected results of a scenario.
type GoldenOutcome struct {
	// Exact match
	TotalCosts           map[string]int `json:"total_costs"`
	BullwhipWeeks        []int          `json:"bullwhip_weeks"`
	RetailerHoldingCost  int            `json:"retailer_holding_cost"`
	RetailerStockoutCost int            `json:"retailer_stockout_cost"`
	MaxOrder             int            `json:"max_order"`

	// Rounded to four decimals
	BullwhipRatio map[string]float64 `json:"bullwhip_ratio"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from sim/internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "goldendataset.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
