package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/kirillkom/invoice-assistant/internal/adapters/cli"
)

func main() {
	// A missing .env is fine; the environment still applies.
	_ = godotenv.Load()

	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
