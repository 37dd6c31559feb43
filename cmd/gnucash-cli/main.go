package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/p2c2e/gnucash-cli/internal/commands"
)

func main() {
	// A missing .env is fine; GEMINI_API_KEY may come from the shell.
	_ = godotenv.Load()

	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
