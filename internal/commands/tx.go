package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/p2c2e/gnucash-cli/internal/model"
)

func newTxCommand() *cobra.Command {
	txCmd := &cobra.Command{
		Use:   "tx",
		Short: "Transaction operations",
	}
	txCmd.AddCommand(newTxListCommand())
	return txCmd
}

func newTxListCommand() *cobra.Command {
	var bookDir string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(bookDir)
			if err != nil {
				return err
			}
			res := s.Apply(model.ListTransactions{Limit: limit})
			fmt.Println(res.Message)
			if !res.OK {
				return fmt.Errorf("command failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bookDir, "book", ".", "book directory")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of transactions to show")
	return cmd
}
