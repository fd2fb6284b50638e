package main

import (
	"fmt"
	"os"

	"github.com/rocketscienceinc/tictactoe-arena/internal/cli"
)

// main - is the entry point of the application.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
