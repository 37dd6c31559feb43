package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/p2c2e/gnucash-cli/internal/importer"
	"github.com/p2c2e/gnucash-cli/internal/model"
)

func newAccountsCommand() *cobra.Command {
	accountsCmd := &cobra.Command{
		Use:   "accounts",
		Short: "Chart of accounts operations",
	}
	accountsCmd.AddCommand(newAccountsListCommand())
	accountsCmd.AddCommand(newAccountsExportCommand())
	return accountsCmd
}

func newAccountsListCommand() *cobra.Command {
	var bookDir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all accounts with balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(bookDir)
			if err != nil {
				return err
			}
			res := s.Apply(model.ListAccounts{})
			fmt.Println(res.Message)
			if !res.OK {
				return fmt.Errorf("command failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bookDir, "book", ".", "book directory")
	return cmd
}

func newAccountsExportCommand() *cobra.Command {
	var bookDir string
	var output string

	cmd := &cobra.Command{
		Use:   "export-template",
		Short: "Export the chart of accounts as an importable template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(bookDir)
			if err != nil {
				return err
			}

			doc := importer.ExportTemplate(s.Tree(), s.Config().Book.Currency)

			w := os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating template file: %w", err)
				}
				defer f.Close()
				w = f
			}
			return importer.WriteTemplate(w, doc)
		},
	}

	cmd.Flags().StringVar(&bookDir, "book", ".", "book directory")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	return cmd
}
