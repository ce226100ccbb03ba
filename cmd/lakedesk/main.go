package main

import (
	"os"

	"github.com/lakedesk/lakedesk/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
