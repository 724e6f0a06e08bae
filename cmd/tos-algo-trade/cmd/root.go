package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tos-algo-trade",
	Short: "An automated equity trading bot for TD Ameritrade",
	Long: `tos-algo-trade executes webhook-driven market orders against a
TD Ameritrade account while keeping a weekly-sharded logbook of every
order, error and daily P/L summary.

It provides:
  - A per-strategy position state machine (long, short, flat)
  - An eligibility gate: kill switch, blackout dates, daily trade ceiling
  - A scheduled 15:50 New York close-out of all open positions
  - An authenticated HTTP surface for trade intents and logbook queries
  - Telegram notifications and a SQLite archive of past trading`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
