package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/p2c2e/gnucash-cli/internal/book"
	"github.com/p2c2e/gnucash-cli/internal/config"
	"github.com/p2c2e/gnucash-cli/internal/gitops"
	"github.com/p2c2e/gnucash-cli/internal/importer"
	"github.com/p2c2e/gnucash-cli/internal/intent"
	"github.com/p2c2e/gnucash-cli/internal/logger"
	"github.com/p2c2e/gnucash-cli/internal/session"
	"github.com/p2c2e/gnucash-cli/internal/store"
)

func newInitCommand() *cobra.Command {
	var name string
	var currency string
	var empty bool
	var useGit bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ledger book",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			if name == "" {
				name = filepath.Base(absDir)
			}

			return runInit(absDir, name, currency, empty, useGit)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "book name (defaults to the directory name)")
	cmd.Flags().StringVar(&currency, "currency", "USD", "default currency code")
	cmd.Flags().BoolVar(&empty, "empty", false, "seed only the five top-level accounts, no sample children")
	cmd.Flags().BoolVar(&useGit, "git", false, "initialize a git repository and auto-commit mutations")

	return cmd
}

func runInit(dir, name, currency string, empty, useGit bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating book directory: %w", err)
	}

	cfgPath := filepath.Join(dir, session.ConfigFile)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("book already initialized at %s", dir)
	}

	cfg := config.Default(name)
	cfg.Book.Currency = currency
	cfg.Git.AutoCommit = useGit
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	log := logger.New()
	s := session.New(cfg, cfgPath, book.NewTree(), store.New(dir, log),
		intent.NewExtractor(nil, time.Duration(cfg.Inference.TimeoutSeconds)*time.Second, log), log)

	doc := importer.Sample()
	if empty {
		doc = emptyChart()
	}
	if _, err := s.Import(doc); err != nil {
		return fmt.Errorf("seeding chart of accounts: %w", err)
	}

	if useGit {
		if err := gitops.Init(dir); err != nil {
			return fmt.Errorf("git init: %w", err)
		}
		hash, err := gitops.CommitAll(dir, "init: "+name, cfg.Git.AuthorName, cfg.Git.AuthorEmail)
		if err != nil {
			return fmt.Errorf("initial commit: %w", err)
		}
		fmt.Printf("Initialized book %q at %s (%s)\n", name, dir, hash)
		return nil
	}

	fmt.Printf("Initialized book %q at %s\n", name, dir)
	return nil
}

// emptyChart is the minimal book: the five top-level accounts only.
func emptyChart() *importer.Document {
	return &importer.Document{Accounts: []importer.Node{
		{Name: "Assets", Type: "ASSET"},
		{Name: "Liabilities", Type: "LIABILITY"},
		{Name: "Income", Type: "INCOME"},
		{Name: "Expenses", Type: "EXPENSE"},
		{Name: "Equity", Type: "EQUITY"},
	}}
}
