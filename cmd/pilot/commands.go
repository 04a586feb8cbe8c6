package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"OptionPilot/internal/autopilot"
	"OptionPilot/internal/backtest"
	"OptionPilot/internal/calculator"
	"OptionPilot/internal/market"
	"OptionPilot/internal/model"
	"OptionPilot/internal/notifier"
	"OptionPilot/internal/options"
	"OptionPilot/internal/recorder"
	"OptionPilot/internal/scheduler"
	"OptionPilot/internal/state"
	"OptionPilot/internal/strategy"
	"OptionPilot/internal/workflow"
)

func scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Classify every watchlist symbol once and print the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			src := market.NewYahooSource(cfg.Proxy)
			sched := scheduler.NewScheduler(cmd.Context(), src, calculator.NewEngine(0, 0, 0, 0),
				buildClassifier(cfg), nil, notifier.LogNotifier{}, recorder.NewNoopRecorder(),
				cfg.State.WatchlistFile)

			for _, r := range sched.ScanOnce(cmd.Context()) {
				if r.Err != nil {
					fmt.Printf("%-6s  error: %v\n", r.Symbol, r.Err)
					continue
				}
				fmt.Printf("%-6s  %8.2f  %-10s  RSI %5.1f  %s\n",
					r.Symbol, r.Snapshot.Close, r.Signal.Kind, r.Snapshot.RSI, r.Signal.Reason)
			}
			return nil
		},
	}
}

func strikesCmd() *cobra.Command {
	var direction string
	cmd := &cobra.Command{
		Use:   "strikes <symbol>",
		Short: "Recommend ITM/ATM/OTM contracts for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			symbol := strings.ToUpper(args[0])
			ctx := cmd.Context()
			src := market.NewYahooSource(cfg.Proxy)

			dir := model.DirectionCall
			switch strings.ToLower(direction) {
			case "call":
			case "put":
				dir = model.DirectionPut
			case "auto":
				// Let the classifier pick the side from the trend.
				bars, err := src.GetBars(ctx, symbol, 320)
				if err != nil {
					return err
				}
				snap, err := calculator.Snapshot(calculator.NewEngine(0, 0, 0, 0).Enrich(symbol, bars))
				if err != nil {
					return err
				}
				sig := buildClassifier(cfg).ClassifyOption(snap, symbol)
				d, ok := strategy.Direction(sig)
				if !ok {
					return fmt.Errorf("%s classifies as %s (%s), no direction to recommend", symbol, sig.Kind, sig.Reason)
				}
				dir = d
			default:
				return fmt.Errorf("--direction must be call, put or auto")
			}

			bar, err := src.GetLatestBar(ctx, symbol)
			if err != nil {
				return err
			}
			expiries, err := src.GetExpiries(ctx, symbol)
			if err != nil {
				return err
			}
			idx := options.ChooseExpiry(expiries, time.Now())
			if idx < 0 {
				return fmt.Errorf("%s has no listed expiries", symbol)
			}
			expiry := expiries[idx]
			chain, err := src.GetOptionChain(ctx, symbol, expiry, dir)
			if err != nil {
				return err
			}
			sel, err := options.SelectStrikes(chain, bar.Close, dir)
			if err != nil {
				return err
			}

			dte := options.DTE(expiry, time.Now())
			fmt.Printf("%s %s @ %.2f | expiry %s (%dd, %s risk)\n\n",
				symbol, dir, bar.Close, expiry.Format("2006-01-02"), dte, options.Bucket(dte))
			for _, row := range []struct {
				label string
				c     model.OptionContract
			}{
				{"ITM", sel.ITM}, {"ATM", sel.ATM}, {"OTM", sel.OTM},
			} {
				fmt.Printf("%-4s strike %8.2f  bid %6.2f  ask %6.2f  last %6.2f\n",
					row.label, row.c.Strike, row.c.Bid, row.c.Ask, row.c.LastPrice)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&direction, "direction", "d", "auto", "call, put, or auto (classifier decides)")
	return cmd
}

func backtestCmd() *cobra.Command {
	var (
		capital  float64
		short    int
		long     int
		ceiling  float64
		stopLoss float64
		lookback int
	)
	cmd := &cobra.Command{
		Use:   "backtest <symbol>",
		Short: "Replay the long-only strategy over historical bars",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			symbol := strings.ToUpper(args[0])
			src := market.NewYahooSource(cfg.Proxy)
			bars, err := src.GetBars(cmd.Context(), symbol, lookback)
			if err != nil {
				return err
			}

			eng := backtest.NewEngine(model.BacktestParams{
				InitialCapital: capital,
				ShortWindow:    short,
				LongWindow:     long,
				RSICeiling:     ceiling,
				StopLossPct:    stopLoss,
			})
			report, err := eng.Run(symbol, bars)
			if err != nil {
				return err
			}

			if cfg.Database.SQLitePath != "" {
				if sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath); err == nil {
					defer sr.Close()
					if err := sr.RecordBacktest(&recorder.BacktestRun{
						Symbol:           report.Symbol,
						InitialCapital:   eng.Params.InitialCapital,
						FinalEquity:      report.FinalEquity,
						TotalReturnPct:   report.TotalReturnPct,
						TradeCount:       report.TradeCount,
						WinRate:          report.WinRate,
						BuyHoldReturnPct: report.BuyHoldReturnPct,
					}); err != nil {
						fmt.Printf("warning: record backtest: %v\n", err)
					}
				}
			}

			if report.NoTrades {
				fmt.Printf("%s: no qualifying trades over %d bars (buy & hold %+.2f%%)\n",
					symbol, len(bars), report.BuyHoldReturnPct)
				return nil
			}
			fmt.Printf("%s over %d bars\n", symbol, len(bars))
			fmt.Printf("final equity:  %.2f (%+.2f%%)\n", report.FinalEquity, report.TotalReturnPct)
			fmt.Printf("trades:        %d (win rate %.1f%%)\n", report.TradeCount, report.WinRate)
			fmt.Printf("buy & hold:    %+.2f%%\n\n", report.BuyHoldReturnPct)
			for _, tr := range report.Trades {
				if tr.Action == "BUY" {
					fmt.Printf("%s  BUY  %4d @ %8.2f\n", tr.Time.Format("2006-01-02"), tr.Qty, tr.Price)
				} else {
					fmt.Printf("%s  SELL %4d @ %8.2f  P/L %+.2f (%+.1f%%) [%s]\n",
						tr.Time.Format("2006-01-02"), tr.Qty, tr.Price, tr.Profit, tr.ProfitPct, tr.Reason)
				}
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&capital, "capital", 10000, "initial capital")
	cmd.Flags().IntVar(&short, "short-window", 20, "short SMA window")
	cmd.Flags().IntVar(&long, "long-window", 200, "long SMA window")
	cmd.Flags().Float64Var(&ceiling, "rsi-ceiling", 70, "skip entries above this RSI")
	cmd.Flags().Float64Var(&stopLoss, "stop-loss", 0.10, "exit this fraction below entry")
	cmd.Flags().IntVar(&lookback, "lookback", 730, "days of history to fetch")
	return cmd
}

func autopilotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autopilot",
		Short: "Arm, inspect or disarm the scheduled one-shot buy",
	}

	var (
		symbol  string
		trigger string
		budget  float64
		askMin  float64
		askMax  float64
		trend   bool
	)
	armCmd := &cobra.Command{
		Use:     "arm",
		Aliases: []string{"start"},
		Short:   "Persist a run that fires at a wall-clock time",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if symbol == "" {
				return fmt.Errorf("--symbol is required")
			}
			src := market.NewYahooSource(cfg.Proxy)
			wf := workflow.NewEngine(buildBroker(cfg))
			pilot := autopilot.NewPilot(src, wf, cfg.State.AutoPilotFile)
			err = pilot.Arm(&model.AutoPilotState{
				Symbol:      strings.ToUpper(symbol),
				TriggerTime: trigger,
				Budget:      budget,
				AskMin:      askMin,
				AskMax:      askMax,
				TrendFilter: trend,
			})
			if err != nil {
				return err
			}
			fmt.Println("armed; a running `pilot run` daemon picks it up within its watch interval")
			return nil
		},
	}
	armCmd.Flags().StringVar(&symbol, "symbol", "", "underlying symbol")
	armCmd.Flags().StringVar(&trigger, "time", "09:35", "wall-clock trigger, HH:MM")
	armCmd.Flags().Float64Var(&budget, "budget", 500, "max spend in dollars")
	armCmd.Flags().Float64Var(&askMin, "ask-min", 0.50, "minimum candidate ask")
	armCmd.Flags().Float64Var(&askMax, "ask-max", 2.00, "maximum candidate ask")
	armCmd.Flags().BoolVar(&trend, "trend-filter", true, "require a green latest bar before firing")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the armed run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st := state.LoadAutoPilot(cfg.State.AutoPilotFile)
			if st == nil {
				fmt.Println("nothing armed")
				return nil
			}
			fmt.Printf("symbol:       %s\n", st.Symbol)
			fmt.Printf("trigger:      %s\n", st.TriggerTime)
			fmt.Printf("budget:       %.2f\n", st.Budget)
			fmt.Printf("ask range:    [%.2f, %.2f]\n", st.AskMin, st.AskMax)
			fmt.Printf("trend filter: %v\n", st.TrendFilter)
			fmt.Printf("armed at:     %s\n", st.CreatedAt.Format("2006-01-02 15:04"))
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Disarm the pending run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if state.LoadAutoPilot(cfg.State.AutoPilotFile) == nil {
				fmt.Println("nothing armed")
				return nil
			}
			if err := state.ClearAutoPilot(cfg.State.AutoPilotFile); err != nil {
				return err
			}
			fmt.Println("disarmed")
			return nil
		},
	}

	cmd.AddCommand(armCmd, statusCmd, stopCmd)
	return cmd
}
