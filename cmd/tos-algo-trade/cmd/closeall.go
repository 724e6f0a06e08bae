package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ganchinyao/tos-algo-trade/broker/ameritrade"
	"github.com/ganchinyao/tos-algo-trade/config"
	"github.com/ganchinyao/tos-algo-trade/gate"
	"github.com/ganchinyao/tos-algo-trade/ledger"
	"github.com/ganchinyao/tos-algo-trade/logbook"
	"github.com/ganchinyao/tos-algo-trade/logx"
	"github.com/ganchinyao/tos-algo-trade/trader"
)

var closeAllCmd = &cobra.Command{
	Use:   "closeall",
	Short: "Flatten every open position now",
	Long: `Restore today's positions from the logbook and close them all at
market, without waiting for the scheduled 15:50 close-out. Intended for
manual intervention when the serve process is down.

Example:
  tos-algo-trade closeall -f config.yaml`,
	RunE: runCloseAll,
}

var closeAllConfigPath string

func init() {
	rootCmd.AddCommand(closeAllCmd)

	closeAllCmd.Flags().StringVarP(&closeAllConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	closeAllCmd.MarkFlagRequired("config")
}

func runCloseAll(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(closeAllConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logx.SetLevel(cfg.Log.Level)

	book, err := logbook.Open(cfg.Data.Dir)
	if err != nil {
		return fmt.Errorf("open logbook: %w", err)
	}
	store, err := config.OpenStore(filepath.Join(cfg.Data.Dir, "trading.json"))
	if err != nil {
		return fmt.Errorf("open trading config: %w", err)
	}

	b := ameritrade.New(cfg.Broker.BaseURL, cfg.Broker.ClientID,
		cfg.Broker.RefreshToken, cfg.Broker.AccountID)

	orch := trader.New(ledger.New(), gate.New(gate.DefaultPolicy(), store, book), book, b, nil)
	if err := orch.Restore(); err != nil {
		return fmt.Errorf("restore positions: %w", err)
	}

	if err := orch.CloseAll(cmd.Context()); err != nil {
		return fmt.Errorf("close all: %w", err)
	}
	fmt.Println("✓ All positions closed")
	return nil
}
