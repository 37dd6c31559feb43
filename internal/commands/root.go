package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/p2c2e/gnucash-cli/internal/buildinfo"
	"github.com/p2c2e/gnucash-cli/internal/logger"
	"github.com/p2c2e/gnucash-cli/internal/session"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "gnucash-cli",
		Short:   "Natural-language double-entry ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newAskCommand())
	rootCmd.AddCommand(newAccountsCommand())
	rootCmd.AddCommand(newTxCommand())
	rootCmd.AddCommand(newReportCommand())
	rootCmd.AddCommand(newImportCommand())
	rootCmd.AddCommand(newBackupCommand())

	return rootCmd
}

// openSession loads the book at dir for a subcommand.
func openSession(dir string) (*session.Session, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	return session.Open(absDir, logger.New())
}
