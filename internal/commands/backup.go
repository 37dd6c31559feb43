package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newBackupCommand() *cobra.Command {
	var bookDir string
	var purge bool
	var retentionDays int

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the book files, optionally purging old backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(bookDir)
			if err != nil {
				return err
			}

			dir, err := s.Backup(time.Now())
			if err != nil {
				return err
			}
			fmt.Printf("Backed up book to %s\n", dir)

			if !purge {
				return nil
			}
			days := retentionDays
			if days <= 0 {
				days = s.Config().Backups.RetentionDays
			}
			cutoff := time.Now().AddDate(0, 0, -days)
			removed, err := s.PurgeBackups(cutoff)
			if err != nil {
				return err
			}
			fmt.Printf("Purged %d backups older than %d days\n", len(removed), days)
			return nil
		},
	}

	cmd.Flags().StringVar(&bookDir, "book", ".", "book directory")
	cmd.Flags().BoolVar(&purge, "purge", false, "remove backups older than the retention window")
	cmd.Flags().IntVar(&retentionDays, "retention-days", 0, "override the configured retention window")
	return cmd
}
