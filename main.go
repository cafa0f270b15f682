package main

import (
	"os"

	"github.com/minecom/minedash/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
