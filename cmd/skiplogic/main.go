package main

import (
	"os"

	"github.com/solatis/skiplogic/cmd/skiplogic/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
