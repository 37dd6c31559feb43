package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/p2c2e/gnucash-cli/internal/model"
)

// executor narrows session.Session to what the prompt loop needs.
type executor interface {
	Execute(ctx context.Context, text string) model.Result
}

func newAskCommand() *cobra.Command {
	var bookDir string

	cmd := &cobra.Command{
		Use:   "ask [text...]",
		Short: "Run a natural-language ledger command",
		Long: `Interprets freeform text as a ledger command and executes it.
With no arguments, starts an interactive prompt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(bookDir)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				return runREPL(cmd, s)
			}

			res := s.Execute(cmd.Context(), strings.Join(args, " "))
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

func runREPL(cmd *cobra.Command, s executor) error {
	fmt.Println(`Type a command ("transfer 100 from Checking to Groceries"), or "quit" to exit.`)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		res := s.Execute(cmd.Context(), line)
		fmt.Println(res.Message)
	}
	return scanner.Err()
}
