package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ganchinyao/tos-algo-trade/logbook"
)

var logbookCmd = &cobra.Command{
	Use:   "logbook",
	Short: "Print logbook records as JSON",
	Long: `Read order, summary or error records straight from the data
directory and print them to stdout.

A date (YYYY-MM-DD) narrows to one day; a week bucket (YYYY-MM-wN)
narrows to one week. Date wins when both are given; with neither, the
whole history is printed.

Examples:
  tos-algo-trade logbook -d ./db -t orders --date 2023-06-13
  tos-algo-trade logbook -d ./db -t summary --week 2023-06-w2`,
	RunE: runLogbook,
}

var (
	logbookDataDir string
	logbookType    string
	logbookDate    string
	logbookWeek    string
)

func init() {
	rootCmd.AddCommand(logbookCmd)

	logbookCmd.Flags().StringVarP(&logbookDataDir, "data", "d", "./db", "data directory")
	logbookCmd.Flags().StringVarP(&logbookType, "type", "t", "orders", "record kind: orders, summary or error")
	logbookCmd.Flags().StringVar(&logbookDate, "date", "", "one day, YYYY-MM-DD")
	logbookCmd.Flags().StringVar(&logbookWeek, "week", "", "one week bucket, YYYY-MM-wN")
}

func runLogbook(cmd *cobra.Command, args []string) error {
	book, err := logbook.Open(logbookDataDir)
	if err != nil {
		return fmt.Errorf("open logbook: %w", err)
	}

	var out any
	switch logbookType {
	case "orders":
		switch {
		case logbookDate != "":
			out, err = book.OrdersForDate(logbookDate)
		case logbookWeek != "":
			out, err = book.OrdersForWeek(logbookWeek)
		default:
			out, err = book.AllOrders()
		}
	case "summary":
		switch {
		case logbookDate != "":
			out, err = book.SummaryForDate(logbookDate)
		case logbookWeek != "":
			out, err = book.SummariesForWeek(logbookWeek)
		default:
			out, err = book.AllSummaries()
		}
	case "error":
		switch {
		case logbookDate != "":
			out, err = book.ErrorsForDate(logbookDate)
		case logbookWeek != "":
			out, err = book.ErrorsForWeek(logbookWeek)
		default:
			out, err = book.AllErrors()
		}
	default:
		return fmt.Errorf("type must be orders, summary or error, got %q", logbookType)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
