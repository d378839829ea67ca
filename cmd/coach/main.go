package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/peakform/coach/internal/observability"
	"github.com/peakform/coach/internal/profile"
	coach "github.com/peakform/coach/plugin/coach"
	"github.com/peakform/coach/plugin/coach/advisor"
	"github.com/peakform/coach/plugin/coach/fitness"
	"github.com/peakform/coach/plugin/coach/policy"
	"github.com/peakform/coach/store"
	"github.com/peakform/coach/store/db"
)

var rootCmd = &cobra.Command{
	Use:   "coach",
	Short: "Deterministic coaching pipeline for daily check-ins",
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Run one decision cycle and print the recommendation",
	RunE: func(cmd *cobra.Command, _ []string) error {
		inputsPath, _ := cmd.Flags().GetString("inputs")
		return runRecommend(cmd.Context(), inputsPath)
	},
}

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Assemble and print the budget-bounded context packet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		inputsPath, _ := cmd.Flags().GetString("inputs")
		return runContext(cmd.Context(), inputsPath)
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Resolve expired signals in the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runPrune(cmd.Context())
	},
}

func init() {
	viper.SetEnvPrefix("coach")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().String("mode", "demo", `mode of the binary, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", `database driver, can be "sqlite" or "postgres"`)
	rootCmd.PersistentFlags().String("dsn", "", "database source name")
	rootCmd.PersistentFlags().Int("token-budget", 0, "token budget for the context packet, 0 means default")

	for _, flag := range []string{"mode", "data", "driver", "dsn", "token-budget"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	recommendCmd.Flags().String("inputs", "", "path to the JSON snapshot of today's inputs")
	contextCmd.Flags().String("inputs", "", "path to the JSON snapshot of today's inputs")

	rootCmd.AddCommand(recommendCmd, contextCmd, pruneCmd)
}

func loadInputs(path string) (*fitness.Inputs, error) {
	if path == "" {
		return &fitness.Inputs{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inputs: %w", err)
	}
	in := &fitness.Inputs{}
	if err := json.Unmarshal(raw, in); err != nil {
		return nil, fmt.Errorf("failed to decode inputs: %w", err)
	}
	return in, nil
}

// openStore builds the store and hydrates the snapshot with persisted
// signals and behavior events. Pruning runs alongside the loads.
func openStore(ctx context.Context, p *profile.Profile, in *fitness.Inputs) (*store.Store, error) {
	driver, err := db.NewDBDriver(p)
	if err != nil {
		return nil, err
	}
	st := store.New(driver)

	now := time.Now()
	var signals []fitness.Signal
	var events []fitness.BehaviorEvent

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := driver.PruneExpiredSignals(gctx, now.Unix())
		return err
	})
	g.Go(func() error {
		var err error
		signals, err = st.ActiveSignals(gctx, now)
		return err
	})
	g.Go(func() error {
		var err error
		events, err = st.EventsSince(gctx, now.AddDate(0, 0, -28))
		return err
	})
	if err := g.Wait(); err != nil {
		_ = st.Close()
		return nil, err
	}

	in.Signals = append(in.Signals, signals...)
	in.Events = append(in.Events, events...)
	return st, nil
}

func runRecommend(ctx context.Context, inputsPath string) error {
	p, err := profile.FromViper()
	if err != nil {
		return err
	}
	in, err := loadInputs(inputsPath)
	if err != nil {
		return err
	}

	st, err := openStore(ctx, p, in)
	if err != nil {
		return err
	}
	defer st.Close()

	logger := slog.Default()
	cycle := observability.NewCycleContext(logger, "recommend")
	ctx = observability.WithCycleContext(ctx, cycle)

	engine := coach.NewEngine(coach.Config{TokenBudget: p.TokenBudget}, st, logger)
	now := time.Now()

	var proposal *policy.Proposal
	pkt := engine.BuildContext(now, in)
	proposer := advisorFor(p)
	if proposer != nil {
		proposal, err = proposer.Propose(ctx, pkt)
		if err != nil {
			cycle.Warn("advisor failed, continuing without proposal", slog.String("error", err.Error()))
			proposal = nil
		}
	}

	rec := engine.Recommend(ctx, now, in, proposal)
	cycle.Info("decision cycle finished",
		slog.Int64(observability.LogFieldDuration, cycle.DurationMs()),
		slog.Int(observability.LogFieldTokens, pkt.EstimatedTokens),
		slog.String(observability.LogFieldAction, rec.PrimaryAction))

	return printJSON(rec)
}

func runContext(ctx context.Context, inputsPath string) error {
	p, err := profile.FromViper()
	if err != nil {
		return err
	}
	in, err := loadInputs(inputsPath)
	if err != nil {
		return err
	}

	st, err := openStore(ctx, p, in)
	if err != nil {
		return err
	}
	defer st.Close()

	engine := coach.NewEngine(coach.Config{TokenBudget: p.TokenBudget}, st, slog.Default())
	return printJSON(engine.BuildContext(time.Now(), in))
}

func runPrune(ctx context.Context) error {
	p, err := profile.FromViper()
	if err != nil {
		return err
	}
	driver, err := db.NewDBDriver(p)
	if err != nil {
		return err
	}
	defer driver.Close()

	pruned, err := driver.PruneExpiredSignals(ctx, time.Now().Unix())
	if err != nil {
		return err
	}
	fmt.Printf("resolved %d expired signals\n", pruned)
	return nil
}

func advisorFor(p *profile.Profile) advisor.Proposer {
	if p.IsAdvisorEnabled() {
		return advisor.NewOpenAI(advisor.OpenAIConfig{
			APIKey:  p.AdvisorAPIKey,
			BaseURL: p.AdvisorBaseURL,
			Model:   p.AdvisorModel,
		})
	}
	return advisor.NewStatic()
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
