package main

import (
	"os"

	"github.com/rxfeed/oracle/cmd/oracle/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
