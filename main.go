package main

import (
	"os"

	"github.com/chauffeurjet/dispatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
