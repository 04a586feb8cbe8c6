package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"OptionPilot/internal/autopilot"
	"OptionPilot/internal/broker"
	"OptionPilot/internal/calculator"
	"OptionPilot/internal/config"
	"OptionPilot/internal/market"
	"OptionPilot/internal/metrics"
	"OptionPilot/internal/notifier"
	"OptionPilot/internal/recorder"
	"OptionPilot/internal/scheduler"
	"OptionPilot/internal/strategy"
	"OptionPilot/internal/workflow"
)

var cfgPath string

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Optional .env for local credentials; absence is fine.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "pilot",
		Short: "Options trading assistant",
		Long: `pilot scans a stock watchlist with SMA/RSI indicators, recommends
option contracts, and runs bounded buy-then-hedge order workflows
against a paper or live broker.`,
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default configs/config.yaml)")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(strikesCmd())
	rootCmd.AddCommand(backtestCmd())
	rootCmd.AddCommand(autopilotCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	path := cfgPath
	if path == "" {
		path = "configs/config.yaml"
		if v := os.Getenv("CONFIG_PATH"); v != "" {
			path = v
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func buildBroker(cfg *config.Config) broker.Broker {
	if cfg.Broker.Backend == "alpaca" {
		return broker.NewAlpacaClient(cfg.Broker.BaseURL, cfg.Broker.KeyID, cfg.Broker.SecretKey, cfg.Proxy)
	}
	return broker.NewPaperBroker()
}

func buildNotifier(cfg *config.Config) notifier.Notifier {
	if cfg.Telegram.BotToken != "" {
		return notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	}
	return notifier.LogNotifier{}
}

func buildClassifier(cfg *config.Config) *strategy.Classifier {
	th := strategy.Thresholds{RSIUpper: cfg.Strategy.RSIUpper, RSILower: cfg.Strategy.RSILower}
	return strategy.NewClassifier(th, cfg.Strategy.CashSymbols)
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the assistant daemon (scheduled scans, Telegram commands, autopilot resume)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log.Println("[INFO] pilot starting...")

			var rec recorder.Recorder
			if cfg.Database.SQLitePath != "" {
				sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
				if err != nil {
					log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
					rec = recorder.NewNoopRecorder()
				} else {
					rec = sr
					defer sr.Close()
				}
			} else {
				rec = recorder.NewNoopRecorder()
			}

			src := market.NewYahooSource(cfg.Proxy)
			b := buildBroker(cfg)
			log.Printf("[INFO] broker backend: %s", b.Name())

			n := buildNotifier(cfg)
			wf := workflow.NewEngine(b)
			pilot := autopilot.NewPilot(src, wf, cfg.State.AutoPilotFile)
			pilot.Notify = func(msg string) {
				if err := n.Send("🛩 " + msg); err != nil {
					log.Printf("[ERROR] send notification: %v", err)
				}
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sched := scheduler.NewScheduler(ctx, src, calculator.NewEngine(0, 0, 0, 0),
				buildClassifier(cfg), pilot, n, rec, cfg.State.WatchlistFile)
			sched.Broker = b
			if err := sched.RegisterAll(cfg.Schedule.ScanCron); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			if cfg.Metrics.Addr != "" {
				metrics.Serve(cfg.Metrics.Addr)
			}

			if tn, ok := n.(*notifier.TelegramNotifier); ok {
				go tn.StartPolling(ctx, sched.HandleCommand)
				log.Println("[INFO] Telegram polling started")
			}

			report := func(res *autopilot.RunResult) {
				if res == nil {
					return
				}
				metrics.IncAutoPilotRun(res.Outcome)
				if err := rec.RecordAutoPilot(&recorder.AutoPilotRun{
					Outcome: res.Outcome, Detail: res.Detail,
				}); err != nil {
					log.Printf("[ERROR] record autopilot run: %v", err)
				}
				if res.Workflow != nil {
					wr := res.Workflow
					row := &recorder.WorkflowRun{
						Symbol:     wr.EntryOrder.Symbol,
						State:      string(wr.State),
						Outcome:    wr.Outcome,
						EntryQty:   wr.EntryOrder.FilledQty,
						EntryPrice: wr.EntryOrder.FilledAvgPrice,
					}
					if wr.ExitOrder != nil {
						row.ExitQty = wr.ExitOrder.Qty
						row.ExitPrice = wr.ExitOrder.LimitPrice
					}
					if err := rec.RecordWorkflow(row); err != nil {
						log.Printf("[ERROR] record workflow run: %v", err)
					}
					if err := n.Send(notifier.FormatWorkflowResult(*wr)); err != nil {
						log.Printf("[ERROR] send workflow result: %v", err)
					}
				}
			}

			// Pick up a run that survived a restart (Resume waits out a grace
			// window first), then keep watching the state file so a record
			// armed by a separate process fires without a daemon restart.
			go func() {
				report(pilot.Resume(ctx))
				pilot.Watch(ctx, report)
			}()

			if os.Getenv("RUN_ON_START") == "true" {
				log.Println("[INFO] RUN_ON_START enabled, scanning now")
				go sched.RunScanNow()
			}

			log.Println("[INFO] pilot is running. Press Ctrl+C to stop.")
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			log.Println("[INFO] shutdown signal received, stopping...")
			cancel()
			log.Println("[INFO] pilot stopped")
			return nil
		},
	}
}
