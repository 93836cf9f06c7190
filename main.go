package main

import (
	"os"

	"github.com/Aashish23092/income-underwriting/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
