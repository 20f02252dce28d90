package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/chainreact/chainreact-sim/sim"
	"github.com/chainreact/chainreact-sim/sim/session"
)

// variant is one tier configuration in a comparison.
type variant struct {
	Name  string
	Tiers map[string]string
}

// defaultVariants compares the rule-based chain against predictive tiers.
func defaultVariants() []variant {
	return []variant{
		{Name: "standard"},
		{Name: "predictive-retailer", Tiers: map[string]string{"Retailer": "PREDICTIVE"}},
		{Name: "predictive-all", Tiers: map[string]string{
			"Distributor": "PREDICTIVE", "Wholesaler": "PREDICTIVE", "Retailer": "PREDICTIVE",
		}},
	}
}

// compareResult is one finished variant.
type compareResult struct {
	Variant variant
	Summary sim.RunSummary
}

// compareCmd runs several tier configurations on the same demand schedule
var compareCmd = &cobra.Command{
	Use:   "compare [config.yaml ...]",
	Short: "Run several tier configurations side by side",
	Long: "Runs each given YAML run configuration (or a built-in standard vs predictive set) " +
		"concurrently on the same demand schedule and prints total costs per tier.",
	Run: func(cmd *cobra.Command, args []string) {
		env := loadEnv()
		base, err := resolveRunConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		variants := defaultVariants()
		if len(args) > 0 {
			variants = variants[:0]
			for _, path := range args {
				c, err := sim.LoadRunConfig(path)
				if err != nil {
					logrus.Fatalf("%v", err)
				}
				variants = append(variants, variant{Name: path, Tiers: c.Tiers})
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		results, err := runComparison(ctx, *base, env, variants)
		if err != nil {
			logrus.Fatalf("comparison failed: %v", err)
		}
		printComparison(os.Stdout, results)
	},
}

// runComparison runs every variant of base concurrently, one engine per
// goroutine. The predictor is loaded once and shared read-only.
func runComparison(ctx context.Context, base sim.RunConfig, env Env, variants []variant) ([]compareResult, error) {
	predictor, err := loadPredictor(base.Predictor)
	if err != nil {
		return nil, err
	}

	results := make([]compareResult, len(variants))
	g, ctx := errgroup.WithContext(ctx)
	for i, v := range variants {
		g.Go(func() error {
			cfg := base
			cfg.Tiers = v.Tiers
			// narration would only add latency to a cost comparison
			cfg.Narrator = ""
			setup, err := buildRun(&cfg, env, predictor)
			if err != nil {
				return fmt.Errorf("%s: %w", v.Name, err)
			}
			s := session.New(uuid.NewString(), setup.Engine)
			summary, err := s.Run(ctx, session.RunOptions{
				Weeks:       cfg.WeeksOrDefault(),
				Schedule:    setup.Schedule,
				Disruptions: cfg.Disruptions,
			})
			if err != nil {
				return fmt.Errorf("%s: %w", v.Name, err)
			}
			results[i] = compareResult{Variant: v, Summary: summary}
			logrus.Debugf("variant %s finished: total cost %d", v.Name, summary.TotalCost())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func printComparison(w io.Writer, results []compareResult) {
	fmt.Fprintln(w, "=== Policy Comparison ===")
	fmt.Fprintf(w, "%-24s", "variant")
	for _, tier := range sim.Tiers {
		fmt.Fprintf(w, " %12s", tier)
	}
	fmt.Fprintf(w, " %12s\n", "total")
	for _, r := range results {
		fmt.Fprintf(w, "%-24s", r.Variant.Name)
		for _, tier := range sim.Tiers {
			fmt.Fprintf(w, " %12d", r.Summary.TotalCosts[string(tier)])
		}
		fmt.Fprintf(w, " %12d\n", r.Summary.TotalCost())
	}
}
