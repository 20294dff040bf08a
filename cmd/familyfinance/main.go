package main

import (
	"os"

	"github.com/boddenberg/family-finance-go/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
