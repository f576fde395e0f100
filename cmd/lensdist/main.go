package main

import (
	"os"

	"lensdist/cmd/lensdist/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
