package main

import (
	"os"

	"github.com/abhisek/singular/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
