// Package predict provides trained order-quantity models for predictive
// ordering policies.
//
// Models are exported from the offline training pipeline as YAML (or JSON,
// which the YAML decoder also accepts) and consume the feature vector
// [inventory, backlog, demand_trend].
package predict

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chainreact/chainreact-sim/sim"
)

// Feature indices into the model input vector.
const (
	FeatureInventory = iota
	FeatureBacklog
	FeatureDemandTrend

	NumFeatures
)

// Model kinds accepted in the "kind" field of a model file.
const (
	KindEnsemble = "gbrt"
	KindLinear   = "linear"
)

// ValidKinds is the set of recognized model kinds.
var ValidKinds = map[string]bool{KindEnsemble: true, KindLinear: true}

// ErrInvalidModel is wrapped by every model validation failure.
var ErrInvalidModel = errors.New("invalid model")

// modelFile is the on-disk layout shared by all kinds.
type modelFile struct {
	Kind string `yaml:"kind"`

	// gbrt
	Init         float64 `yaml:"init"`
	LearningRate float64 `yaml:"learning_rate"`
	Trees        []Tree  `yaml:"trees"`

	// linear
	Intercept    float64   `yaml:"intercept"`
	Coefficients []float64 `yaml:"coefficients"`
}

// Load reads a model file and returns the predictor it describes.
func Load(path string) (sim.Predictor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model: %w", err)
	}
	return Parse(data)
}

// Parse decodes a model from YAML or JSON bytes.
func Parse(data []byte) (sim.Predictor, error) {
	var mf modelFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&mf); err != nil {
		return nil, fmt.Errorf("parsing model: %w", err)
	}

	switch mf.Kind {
	case KindEnsemble:
		e := &Ensemble{Init: mf.Init, LearningRate: mf.LearningRate, Trees: mf.Trees}
		if err := e.Validate(); err != nil {
			return nil, err
		}
		return e, nil
	case KindLinear:
		if len(mf.Coefficients) != NumFeatures {
			return nil, fmt.Errorf("%w: linear model needs %d coefficients, got %d",
				ErrInvalidModel, NumFeatures, len(mf.Coefficients))
		}
		l := &Linear{Intercept: mf.Intercept}
		copy(l.Coefficients[:], mf.Coefficients)
		return l, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidModel, mf.Kind)
	}
}

func features(inventory, backlog int, demandTrend float64) [NumFeatures]float64 {
	return [NumFeatures]float64{float64(inventory), float64(backlog), demandTrend}
}
