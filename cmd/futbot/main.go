package main

import (
	"os"

	"github.com/rustyeddy/futbot/cmd/futbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
