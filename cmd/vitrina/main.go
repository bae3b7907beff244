package main

import (
	"os"

	"github.com/katworks/vitrina/cmd/vitrina/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
