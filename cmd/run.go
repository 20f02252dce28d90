package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/chainreact/chainreact-sim/sim"
	"github.com/chainreact/chainreact-sim/sim/narrate"
	"github.com/chainreact/chainreact-sim/sim/session"
	"github.com/chainreact/chainreact-sim/sim/store"
	"github.com/chainreact/chainreact-sim/sim/trace"
)

var printWeeks bool // Print one line per simulated week

// runCmd executes one simulation from a config file and/or flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one beer game simulation",
	Run: func(cmd *cobra.Command, args []string) {
		env := loadEnv()
		cfg, err := resolveRunConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		setup, err := buildRun(cfg, env, nil)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		s := session.New(uuid.NewString(), setup.Engine)
		opts := session.RunOptions{
			Weeks:       cfg.WeeksOrDefault(),
			Schedule:    setup.Schedule,
			Disruptions: cfg.Disruptions,
		}
		if printWeeks {
			opts.Publish = func(ws sim.WeekState) error {
				printWeek(os.Stdout, ws)
				return nil
			}
		}
		logrus.Infof("running %d weeks, demand %s", opts.Weeks, setup.Schedule.Name())

		summary, err := s.Run(ctx, opts)
		if errors.Is(err, context.Canceled) {
			logrus.Warnf("interrupted after week %d", s.Week())
		} else if err != nil {
			logrus.Fatalf("simulation failed: %v", err)
		}

		summary.Text = narrate.Summary(context.Background(), setup.Summarizer, summary)
		summary.Print(os.Stdout)
		if setup.Trace != nil {
			printTraceSummary(os.Stdout, trace.Summarize(setup.Trace))
		}

		if path := firstNonEmpty(dbPath, env.DBPath); path != "" {
			if err := archiveRun(context.Background(), path, s.Archive(*cfg, summary)); err != nil {
				logrus.Errorf("archiving run: %v", err)
			} else {
				logrus.Infof("run %s archived to %s", s.ID, path)
			}
		}
	},
}

// resolveRunConfig loads --config when given and applies explicitly set flags on top.
func resolveRunConfig(cmd *cobra.Command) (*sim.RunConfig, error) {
	cfg := &sim.RunConfig{}
	if configPath != "" {
		loaded, err := sim.LoadRunConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("weeks") {
		cfg.Weeks = weeks
	}
	if flags.Changed("tier") {
		if cfg.Tiers == nil {
			cfg.Tiers = make(map[string]string, len(tierPolicies))
		}
		for tier, kind := range tierPolicies {
			cfg.Tiers[tier] = kind
		}
	}
	if flags.Changed("predictor") {
		cfg.Predictor = predictorPath
	}
	if flags.Changed("narrator") {
		cfg.Narrator = narratorName
	}
	if flags.Changed("demand") {
		cfg.Demand.Kind = demandKind
	}
	if flags.Changed("seed") || (cfg.Demand.Seed == nil && cfg.Demand.Kind == "random") {
		s := seed
		cfg.Demand.Seed = &s
	}
	if flags.Changed("trace-level") {
		cfg.Trace = traceLevel
	}
	return cfg, nil
}

func archiveRun(ctx context.Context, path string, run store.Run) error {
	db, err := store.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.SaveRun(ctx, run)
}

func printWeek(w io.Writer, ws sim.WeekState) {
	fmt.Fprintf(w, "week %3d demand %3d |", ws.Week, ws.CustomerDemand)
	for _, tier := range sim.Tiers {
		a := ws.Agents[string(tier)]
		fmt.Fprintf(w, " %s inv=%d ord=%d bl=%d |", tier.String()[:1], a.Inventory, a.PlacedOrderAmount, a.Backlog)
	}
	fmt.Fprintln(w)
	for _, ev := range ws.Events {
		text := ev.Text
		if text == "" {
			text = fmt.Sprintf("%v", ev.Data)
		}
		fmt.Fprintf(w, "  [%s] %s: %s\n", ev.Severity, ev.Kind, text)
	}
}

func printTraceSummary(w io.Writer, ts *trace.TraceSummary) {
	fmt.Fprintln(w, "\n=== Decision Trace ===")
	fmt.Fprintf(w, "Decisions            : %d\n", ts.TotalDecisions)
	reasons := make([]string, 0, len(ts.ReasonCounts))
	for r := range ts.ReasonCounts {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Fprintf(w, "  %-20s: %d\n", r, ts.ReasonCounts[r])
	}
	for _, tier := range sim.Tiers {
		t, ok := ts.Tiers[string(tier)]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%-11s mean=%.1f max=%d fallbacks=%d\n", tier, t.MeanOrder, t.MaxOrder, t.Fallbacks)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
