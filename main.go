package main

import (
	"os"

	"github.com/pegwatch/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
