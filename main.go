package main

import (
	"os"

	"github.com/travelkb/kbuilder/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
