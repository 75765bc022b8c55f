// Command strategyci runs the adaptive bootstrap confidence-interval
// tournament against a column of per-period returns and reports the
// winning method's interval plus why it won.
//
// Grounded on cmd/cryptorun/main.go's cobra root command plus
// subcommand layout.
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sawpanic/strategyci/internal/annualize"
	"github.com/sawpanic/strategyci/internal/ciresult"
	"github.com/sawpanic/strategyci/internal/config"
	"github.com/sawpanic/strategyci/internal/factory"
	"github.com/sawpanic/strategyci/internal/obslog"
	"github.com/sawpanic/strategyci/internal/resultcache"
	"github.com/sawpanic/strategyci/internal/scoring"
	"github.com/sawpanic/strategyci/internal/service"
	"github.com/sawpanic/strategyci/internal/smalln"
	"github.com/sawpanic/strategyci/internal/statistic"
	"github.com/sawpanic/strategyci/internal/support"
	"github.com/sawpanic/strategyci/internal/telemetry"
	"github.com/sawpanic/strategyci/internal/tournament"
)

var (
	logLevel   string
	configPath string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "strategyci",
		Short: "Adaptive bootstrap confidence-interval engine for trading strategy statistics",
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (optional)")

	root.AddCommand(newEvaluateCmd())
	root.AddCommand(newServeCmd())
	return root
}

func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func newLogger() zerolog.Logger {
	return obslog.New(obslog.Options{Level: logLevel, Pretty: term.IsTerminal(int(os.Stdout.Fd()))})
}

func newEvaluateCmd() *cobra.Command {
	var (
		csvPath    string
		strategyID string
		statName   string
		cl         float64
		bOuter     int
		blockLen   int
		ratio      bool
		annualizeFlag bool
		timeframe     string
		minutesPerBar int
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run the bootstrap tournament against a CSV column of per-period returns",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("strategyci: %w", err)
			}

			returns, err := readReturnsCSV(csvPath)
			if err != nil {
				return fmt.Errorf("strategyci: read returns: %w", err)
			}
			if cl == 0 {
				cl = cfg.Engine.ConfidenceLvl
			}
			if bOuter == 0 {
				bOuter = cfg.Engine.BOuterDefault
			}

			heavyTailed := smalln.IsHeavyTailed(returns)
			if blockLen == 0 {
				blockLen = smalln.ChooseBlockSmallN(len(returns), heavyTailed)
			}

			id := factory.Identity{StrategyID: strategyID, StageTag: "cli", BlockLen: blockLen}
			bundle := factory.BuildBundle(cfg.MasterSeed, id, nil)

			metrics := telemetry.NewMetrics()
			statFn := statisticFuncFor(statName)
			cands := bundle.RunAll(returns, statFn, cl, bOuter, ciresult.TwoSided)
			if len(cands) == 0 {
				return fmt.Errorf("strategyci: no engine produced a candidate for %d observations", len(returns))
			}
			for _, c := range cands {
				metrics.ObserveCandidate(c)
			}

			class := scoring.ClassReturnsBased
			if ratio {
				class = scoring.ClassRatio
			}
			profile := cfg.ToScoringProfile(class)
			widest := widestInterval(cands)
			sup := support.ForStatistic(statName)
			breakdowns := scoring.Score(cands, profile, widest, support.Violations(cands, sup))

			result, err := tournament.Select(cands, breakdowns)
			metrics.ObserveResult(result, err)
			if err != nil {
				return fmt.Errorf("strategyci: %w", err)
			}

			chosen := result.Chosen.Candidate
			if heavyTailed && len(returns) < 30 {
				if mn, ok := findMethod(cands, ciresult.MethodMOutOfN); ok {
					chosen = smalln.DuelCombine(chosen, mn)
				}
			}

			var annualized *annualize.Triplet
			if annualizeFlag {
				tf, err := parseTimeframe(timeframe)
				if err != nil {
					return fmt.Errorf("strategyci: %w", err)
				}
				k, err := annualize.Factor(tf, minutesPerBar, cfg.Engine.TradingDaysPerYear, cfg.Engine.TradingHoursPerDay)
				if err != nil {
					return fmt.Errorf("strategyci: annualization factor: %w", err)
				}
				t, err := annualize.AnnualizeTriplet(annualize.Triplet{Lower: chosen.Lower, Mean: chosen.Mean, Upper: chosen.Upper}, k, 0, 0)
				if err != nil {
					return fmt.Errorf("strategyci: annualize: %w", err)
				}
				annualized = &t
			}

			log.Info().
				Str("strategy_id", strategyID).
				Str("chosen_method", result.ChosenMethod.String()).
				Float64("lower", chosen.Lower).
				Float64("mean", chosen.Mean).
				Float64("upper", chosen.Upper).
				Bool("heavy_tailed", heavyTailed).
				Int("candidate_count", len(cands)).
				Msg("tournament complete")

			fmt.Printf("method=%s lower=%.6f mean=%.6f upper=%.6f n=%d heavy_tailed=%v\n",
				result.ChosenMethod, chosen.Lower, chosen.Mean, chosen.Upper, len(returns), heavyTailed)
			if annualized != nil {
				fmt.Printf("annualized: lower=%.6f mean=%.6f upper=%.6f\n", annualized.Lower, annualized.Mean, annualized.Upper)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&csvPath, "returns", "", "path to a single-column CSV of per-period returns")
	cmd.Flags().StringVar(&strategyID, "strategy-id", "strategy", "strategy identifier, seeds the CRN stream")
	cmd.Flags().StringVar(&statName, "statistic", "mean", "statistic to bootstrap: mean, geomean, profit_factor, median")
	cmd.Flags().Float64Var(&cl, "confidence-level", 0, "confidence level in (0.5,1); 0 uses the config default")
	cmd.Flags().IntVar(&bOuter, "replicates", 0, "outer replicate count; 0 uses the config default")
	cmd.Flags().IntVar(&blockLen, "block-len", 0, "stationary-block mean length; 1 uses IID resampling, 0 auto-selects from sample size and tail weight")
	cmd.Flags().BoolVar(&ratio, "ratio-statistic", false, "score under the ratio-class weight profile (e.g. profit factor)")
	cmd.Flags().BoolVar(&annualizeFlag, "annualize", false, "also report the chosen interval annualized via --timeframe")
	cmd.Flags().StringVar(&timeframe, "timeframe", "daily", "period timeframe for --annualize: daily, weekly, monthly, quarterly, yearly, intraday")
	cmd.Flags().IntVar(&minutesPerBar, "intraday-minutes-per-bar", 0, "bar width in minutes; required when --timeframe=intraday")
	_ = cmd.MarkFlagRequired("returns")
	return cmd
}

func findMethod(cands []ciresult.Candidate, method ciresult.MethodId) (ciresult.Candidate, bool) {
	for _, c := range cands {
		if c.Method == method {
			return c, true
		}
	}
	return ciresult.Candidate{}, false
}

func parseTimeframe(name string) (annualize.Timeframe, error) {
	switch name {
	case "daily", "":
		return annualize.Daily, nil
	case "weekly":
		return annualize.Weekly, nil
	case "monthly":
		return annualize.Monthly, nil
	case "quarterly":
		return annualize.Quarterly, nil
	case "yearly":
		return annualize.Yearly, nil
	case "intraday":
		return annualize.Intraday, nil
	default:
		return 0, fmt.Errorf("unknown timeframe %q", name)
	}
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the confidence-interval tournament over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("strategyci: %w", err)
			}
			if addr == "" {
				addr = cfg.Service.Addr
			}

			srv := service.NewServer(cfg.MasterSeed, cfg.Service.RateLimitPerSec, cfg.Service.RateBurst, &log)
			if cfg.ResultCache.Enabled {
				ttl := time.Duration(cfg.ResultCache.TTLSecs) * time.Second
				srv.SetCache(resultcache.New(cfg.ResultCache.Addr, cfg.ResultCache.Prefix, ttl, &log))
				log.Info().Str("addr", cfg.ResultCache.Addr).Msg("result cache enabled")
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			log.Info().Str("addr", addr).Msg("starting strategyci service")
			return serveUntilCancelled(ctx, addr, srv, &log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address; empty uses the config default")
	return cmd
}

func widestInterval(cands []ciresult.Candidate) float64 {
	var w float64
	for _, c := range cands {
		if width := c.Upper - c.Lower; width > w {
			w = width
		}
	}
	return w
}

func statisticFuncFor(name string) statistic.Func {
	switch name {
	case "geomean":
		return statistic.GeoMean
	case "profit_factor":
		return statistic.ProfitFactor
	case "median":
		return statistic.Median
	default:
		return statistic.Mean
	}
}

func readReturnsCSV(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
