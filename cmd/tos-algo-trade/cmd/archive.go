package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ganchinyao/tos-algo-trade/archive"
	"github.com/ganchinyao/tos-algo-trade/logbook"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Compact the JSON logbook into a SQLite database",
	Long: `Import every order and summary record into a SQLite database so
past trading can be queried with SQL. Safe to re-run; existing rows are
overwritten, not duplicated.

Example:
  tos-algo-trade archive -d ./db -o trades.sqlite`,
	RunE: runArchive,
}

var (
	archiveDataDir string
	archiveOutput  string
)

func init() {
	rootCmd.AddCommand(archiveCmd)

	archiveCmd.Flags().StringVarP(&archiveDataDir, "data", "d", "./db", "data directory")
	archiveCmd.Flags().StringVarP(&archiveOutput, "output", "o", "trades.sqlite", "output SQLite file")
}

func runArchive(cmd *cobra.Command, args []string) error {
	book, err := logbook.Open(archiveDataDir)
	if err != nil {
		return fmt.Errorf("open logbook: %w", err)
	}

	a, err := archive.Open(archiveOutput)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer a.Close()

	n, err := a.Import(book)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	fmt.Printf("✓ Archived %d trades to %s\n", n, archiveOutput)
	return nil
}
