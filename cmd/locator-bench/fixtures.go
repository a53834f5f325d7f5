package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"indoor-locator/internal/resultwriter"
	"indoor-locator/locatorlog"
)

// scenarioPanel is the fixed set of scenarios run by the fixtures
// subcommand: one source-estimation scenario per robust method.
var scenarioPanel = []string{"ransac", "msac", "lmeds", "prosac", "promeds"}

var fixturesCmd = &cobra.Command{
	Use:   "fixtures",
	Short: "Run the full scenario panel across all robust methods concurrently",
	RunE: func(cmd *cobra.Command, args []string) error {
		baseCfg := loadConfig()
		log := locatorlog.New("locator-bench")
		if verbose {
			log = log.WithLevel(locatorlog.LevelDebug)
		}

		if err := os.MkdirAll(baseCfg.Scenario.OutputDir, 0o755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}

		reports := make([]resultwriter.ScenarioReport, len(scenarioPanel))
		errs := make([]error, len(scenarioPanel))
		var completed atomic.Int64

		var wg conc.WaitGroup
		for i, name := range scenarioPanel {
			i, name := i, name
			wg.Go(func() {
				cfg := *baseCfg
				cfg.Robust.Method = name
				scopedLog := log.With(name)
				scopedRng := rand.New(rand.NewSource(baseCfg.Scenario.Seed + int64(i)))

				report, err := runScenario(context.Background(), name, &cfg, scopedLog, scopedRng)
				completed.Add(1)
				fmt.Printf("[%d/%d] %s done\n", completed.Load(), len(scenarioPanel), name)
				if err != nil {
					errs[i] = fmt.Errorf("%s: %w", name, err)
					return
				}
				reports[i] = report
			})
		}
		wg.Wait()

		runErr := multierr.Combine(errs...)
		w := resultwriter.NewWriter()
		if err := w.WriteFile(filepath.Join(baseCfg.Scenario.OutputDir, "fixtures.yaml"), reports); err != nil {
			runErr = multierr.Append(runErr, err)
		}
		return runErr
	},
}
