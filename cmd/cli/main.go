package main

import (
	"os"

	"github.com/rentalx-dev/rentalx/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
