// sns-trade-bot торгует по стратегиям и условиям поиска через Kiwoom OpenAPI
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kirillm/sns-trade-bot/internal/app"
	"github.com/kirillm/sns-trade-bot/internal/config"
	"github.com/kirillm/sns-trade-bot/internal/storage"
	"github.com/kirillm/sns-trade-bot/pkg/utils"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "sns-trade-bot",
		Short: "Kiwoom OpenAPI trading bot",
		Long: `sns-trade-bot keeps an instrument ledger, runs buy and sell strategies
on real-time quotes and condition search events, and sends orders through
the Kiwoom OpenAPI bridge.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to the bridge and trade until the scheduled exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			logger, err := utils.NewFileLogger(cfg.LogLevel, cfg.LogDir, time.Now())
			if err != nil {
				return err
			}
			defer logger.Close()

			table, err := config.LoadSchedule(cfg.Storage.SchedulePath)
			if err != nil {
				return fmt.Errorf("failed to load schedule: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, closeAll, err := app.Build(ctx, cfg, table, logger)
			if err != nil {
				return err
			}
			defer closeAll()

			logger.Info("Starting sns-trade-bot %s", version)
			return a.Run(ctx)
		},
	}
}

func listCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the saved stock list",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := storage.LoadStockList(path)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Printf("no stocks in %s\n", path)
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tNAME\tTARGET\tBUY\tSELL")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", e.Code, e.Name, e.TargetQty, names(e.BuyStrategies), names(e.SellStrategies))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", envOr("STOCK_LIST_PATH", "stock_list.json"), "stock list JSON file")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sns-trade-bot version %s\n", version)
		},
	}
}

func names(m map[string]map[string]any) string {
	if len(m) == 0 {
		return "-"
	}
	out := make([]string, 0, len(m))
	for name := range m {
		out = append(out, name)
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
