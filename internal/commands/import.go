package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/p2c2e/gnucash-cli/internal/importer"
)

func newImportCommand() *cobra.Command {
	var bookDir string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Bulk-import an account hierarchy from a YAML document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := importer.ParseFile(args[0])
			if err != nil {
				return err
			}

			s, err := openSession(bookDir)
			if err != nil {
				return err
			}
			res, err := s.Import(doc)
			if err != nil {
				return err
			}
			fmt.Println(res.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&bookDir, "book", ".", "book directory")
	return cmd
}
