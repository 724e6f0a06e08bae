package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ganchinyao/tos-algo-trade/config"
)

var tradingCmd = &cobra.Command{
	Use:   "trading",
	Short: "Inspect or mutate the trading switches",
	Long: `Manage the mutable trading configuration: the kill switch and the
blackout dates. Mutations persist immediately and are appended to the
audit log next to the config file.

Subcommands:
  show     - Print the current trading config
  kill     - Disable all trading
  resume   - Re-enable trading
  blackout - Add a no-trade date

Examples:
  tos-algo-trade trading kill -d ./db
  tos-algo-trade trading blackout -d ./db 2023-07-04`,
}

var tradingShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current trading config",
	RunE:  runTradingShow,
}

var tradingKillCmd = &cobra.Command{
	Use:   "kill",
	Short: "Disable all trading",
	RunE:  runTradingKill,
}

var tradingResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Re-enable trading",
	RunE:  runTradingResume,
}

var tradingBlackoutCmd = &cobra.Command{
	Use:   "blackout <date>",
	Short: "Add a no-trade date (YYYY-MM-DD)",
	Args:  cobra.ExactArgs(1),
	RunE:  runTradingBlackout,
}

var tradingDataDir string

func init() {
	rootCmd.AddCommand(tradingCmd)
	tradingCmd.AddCommand(tradingShowCmd)
	tradingCmd.AddCommand(tradingKillCmd)
	tradingCmd.AddCommand(tradingResumeCmd)
	tradingCmd.AddCommand(tradingBlackoutCmd)

	tradingCmd.PersistentFlags().StringVarP(&tradingDataDir, "data", "d", "./db", "data directory")
}

func openTradingStore() (*config.Store, error) {
	return config.OpenStore(filepath.Join(tradingDataDir, "trading.json"))
}

func runTradingShow(cmd *cobra.Command, args []string) error {
	store, err := openTradingStore()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(store.Snapshot())
}

func runTradingKill(cmd *cobra.Command, args []string) error {
	store, err := openTradingStore()
	if err != nil {
		return err
	}
	if err := store.SetKillSwitch(false, "cli"); err != nil {
		return err
	}
	fmt.Println("✓ Trading disabled")
	return nil
}

func runTradingResume(cmd *cobra.Command, args []string) error {
	store, err := openTradingStore()
	if err != nil {
		return err
	}
	if err := store.SetKillSwitch(true, "cli"); err != nil {
		return err
	}
	fmt.Println("✓ Trading enabled")
	return nil
}

func runTradingBlackout(cmd *cobra.Command, args []string) error {
	store, err := openTradingStore()
	if err != nil {
		return err
	}
	if err := store.AddBlackoutDate(args[0], "cli"); err != nil {
		return err
	}
	fmt.Printf("✓ %s marked unavailable to trade\n", args[0])
	return nil
}
