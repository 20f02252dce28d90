package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/chainreact/chainreact-sim/sim"
	"github.com/chainreact/chainreact-sim/sim/demand"
	"github.com/chainreact/chainreact-sim/sim/narrate"
	"github.com/chainreact/chainreact-sim/sim/predict"
	"github.com/chainreact/chainreact-sim/sim/trace"
)

// runSetup is everything needed to execute one validated run configuration.
type runSetup struct {
	Config     *sim.RunConfig
	Engine     sim.EngineConfig
	Schedule   demand.Schedule
	Summarizer narrate.Summarizer
	Trace      *trace.DecisionTrace
}

// buildRun validates cfg and resolves its predictor, narrator, trace and
// demand schedule. predictor, when non-nil, is used instead of loading
// cfg.Predictor so that concurrent runs can share one loaded model.
func buildRun(cfg *sim.RunConfig, env Env, predictor sim.Predictor) (*runSetup, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run config: %w", err)
	}
	setup := &runSetup{Config: cfg, Engine: cfg.EngineConfig()}

	if predictor == nil && cfg.Predictor != "" {
		p, err := predict.Load(cfg.Predictor)
		if err != nil {
			return nil, fmt.Errorf("loading predictor: %w", err)
		}
		predictor = p
	}
	if predictor != nil {
		setup.Engine.Predictor = predictor
	}

	switch cfg.Narrator {
	case "template":
		setup.Engine.Narrator = narrate.Template{}
		setup.Summarizer = narrate.Template{}
	case "llm":
		if l := narrate.NewLLM(env.narratorConfig()); l != nil {
			setup.Engine.Narrator = l
			setup.Summarizer = l
		} else {
			logrus.Warn("llm narrator requested but GROQ_API_KEY is not set; using template narrator")
			setup.Engine.Narrator = narrate.Template{}
			setup.Summarizer = narrate.Template{}
		}
	}

	setup.Trace = trace.New(trace.TraceLevel(cfg.Trace))
	setup.Engine.Trace = setup.Trace

	schedule, err := demand.FromConfig(cfg.Demand)
	if err != nil {
		return nil, err
	}
	setup.Schedule = schedule
	return setup, nil
}

// loadPredictor loads path, or returns nil for an empty path.
func loadPredictor(path string) (sim.Predictor, error) {
	if path == "" {
		return nil, nil
	}
	p, err := predict.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading predictor: %w", err)
	}
	return p, nil
}
