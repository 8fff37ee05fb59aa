// Command gim runs the global interactions simulation: a deterministic
// yearly model of national economies, resource markets, climate, and
// geopolitics driven by per-country policy agents.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Theclimateguy/GIM/internal/config"
	"github.com/Theclimateguy/GIM/internal/engine"
	"github.com/Theclimateguy/GIM/internal/persistence"
	"github.com/Theclimateguy/GIM/internal/policy"
	"github.com/Theclimateguy/GIM/internal/world"
)

var (
	inputPath          string
	paramsPath         string
	dbPath             string
	policyMode         string
	years              int
	seed               int64
	maxAgents          int
	noExtremeEvents    bool
	noPoliticalFilters bool
	noInstitutions     bool
	logLevel           string
)

var rootCmd = &cobra.Command{
	Use:   "gim",
	Short: "Run the global interactions world simulation",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&inputPath, "input", "", "path to the country CSV (required)")
	rootCmd.Flags().StringVar(&paramsPath, "params", "", "optional YAML parameter overlay")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "SQLite path for run history (disabled when empty)")
	rootCmd.Flags().StringVar(&policyMode, "policy", "auto", "policy mode: auto|simple|llm|growth")
	rootCmd.Flags().IntVar(&years, "years", 10, "number of years to simulate")
	rootCmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
	rootCmd.Flags().IntVar(&maxAgents, "max-agents", 0, "limit loaded countries (0 = all)")
	rootCmd.Flags().BoolVar(&noExtremeEvents, "no-extreme-events", false, "disable climate extreme events")
	rootCmd.Flags().BoolVar(&noPoliticalFilters, "no-political-filters", false, "disable political action filters")
	rootCmd.Flags().BoolVar(&noInstitutions, "no-institutions", false, "disable international institutions")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug|info|warn|error")
	rootCmd.MarkFlagRequired("input")
}

func run(cmd *cobra.Command, _ []string) error {
	logger := newLogger(logLevel)
	slog.SetDefault(logger)

	params := config.Default()
	if paramsPath != "" {
		var err error
		params, err = config.Load(paramsPath)
		if err != nil {
			return err
		}
		logger.Info("parameter overlay loaded", "path", paramsPath)
	}

	if !cmd.Flags().Changed("policy") {
		if env := os.Getenv("GIM_POLICY_MODE"); env != "" {
			policyMode = env
		}
	}

	w, err := world.LoadWorldCSV(inputPath, maxAgents, params)
	if err != nil {
		return fmt.Errorf("load world: %w", err)
	}
	logger.Info("world loaded", "agents", len(w.Agents), "gdp_total", w.TotalGDP())

	provider, err := policy.ForMode(policyMode, params.LLM, logger)
	if err != nil {
		return err
	}

	var recorder engine.Recorder
	if dbPath != "" {
		db, err := persistence.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		runRec, err := db.NewRun(seed, policyMode)
		if err != nil {
			return err
		}
		recorder = runRec
		logger.Info("run history enabled", "path", dbPath, "run_id", runRec.ID())
	}

	opts := engine.Options{
		ExtremeEvents:    !noExtremeEvents,
		PoliticalFilters: !noPoliticalFilters,
		Institutions:     !noInstitutions,
	}
	sim := engine.New(w, params, seed, provider, recorder, logger, opts)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sim.Run(ctx, years); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}

	logger.Info("simulation finished",
		"years", years,
		"gdp_total", sim.World.TotalGDP(),
		"co2_gt", sim.World.Global.CO2,
		"temperature", sim.World.Global.TemperatureGlobal,
	)
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
