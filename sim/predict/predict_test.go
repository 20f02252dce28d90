package predict

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Ensemble(t *testing.T) {
	p, err := Load(filepath.Join("testdata", "gbrt.yaml"))
	require.NoError(t, err)
	require.IsType(t, &Ensemble{}, p)

	tests := []struct {
		name        string
		inventory   int
		demandTrend float64
		want        float64
	}{
		{"low stock, flat demand", 80, 20, 20 + 0.1*(50+0)},
		{"high stock, flat demand", 100, 20, 20 + 0.1*(-30+0)},
		{"low stock, rising demand", 60, 25, 20 + 0.1*(50+40)},
		{"threshold goes left", 90, 22.5, 20 + 0.1*(50+0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, p.Predict(tt.inventory, 0, tt.demandTrend), 1e-9)
		})
	}
}

func TestParse_JSONLinear(t *testing.T) {
	p, err := Parse([]byte(`{"kind": "linear", "intercept": 5, "coefficients": [-0.5, 1.0, 2.0]}`))
	require.NoError(t, err)

	// 5 - 0.5*80 + 1*10 + 2*20
	assert.InDelta(t, 15.0, p.Predict(80, 10, 20), 1e-9)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown kind", "kind: forest\n"},
		{"no trees", "kind: gbrt\nlearning_rate: 0.1\n"},
		{"zero learning rate", "kind: gbrt\ntrees:\n  - nodes:\n      - {left: -1, right: -1, value: 1}\n"},
		{"empty tree", "kind: gbrt\nlearning_rate: 0.1\ntrees:\n  - nodes: []\n"},
		{"child points backwards", "kind: gbrt\nlearning_rate: 0.1\ntrees:\n  - nodes:\n      - {feature: 0, threshold: 1, left: 0, right: 1}\n      - {left: -1, right: -1, value: 1}\n"},
		{"child out of range", "kind: gbrt\nlearning_rate: 0.1\ntrees:\n  - nodes:\n      - {feature: 0, threshold: 1, left: 1, right: 5}\n      - {left: -1, right: -1, value: 1}\n"},
		{"feature out of range", "kind: gbrt\nlearning_rate: 0.1\ntrees:\n  - nodes:\n      - {feature: 3, threshold: 1, left: 1, right: 2}\n      - {left: -1, right: -1}\n      - {left: -1, right: -1}\n"},
		{"wrong coefficient count", "kind: linear\ncoefficients: [1, 2]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidModel), "got %v", err)
		})
	}
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("kind: linear\ncoefficients: [1, 2, 3]\nbias: 4\n"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidModel), "decode errors are not validation errors")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
