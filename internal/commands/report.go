package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/p2c2e/gnucash-cli/internal/model"
)

func newReportCommand() *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Generate reports",
	}
	reportCmd.AddCommand(newReportViewCommand("cashflow", "Cash flow by category", model.ReportCashFlow))
	reportCmd.AddCommand(newReportViewCommand("balance-sheet", "Assets, liabilities and equity", model.ReportBalanceSheet))
	return reportCmd
}

func newReportViewCommand(use, short string, kind model.ReportKind) *cobra.Command {
	var bookDir string
	var fromStr, toStr string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseDateFlag(fromStr)
			if err != nil {
				return fmt.Errorf("parsing --from: %w", err)
			}
			to, err := parseDateFlag(toStr)
			if err != nil {
				return fmt.Errorf("parsing --to: %w", err)
			}

			s, err := openSession(bookDir)
			if err != nil {
				return err
			}
			res := s.Apply(model.Report{ReportKind: kind, From: from, To: to})
			fmt.Println(res.Message)
			if !res.OK {
				return fmt.Errorf("command failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bookDir, "book", ".", "book directory")
	cmd.Flags().StringVar(&fromStr, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toStr, "to", "", "end date (YYYY-MM-DD)")
	return cmd
}

func parseDateFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}
