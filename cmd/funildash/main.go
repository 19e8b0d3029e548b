package main

import (
	_ "embed"
	"strings"

	"github.com/vendaflow/funildash/internal/cli"
	"github.com/vendaflow/funildash/internal/logging"
)

//go:embed VERSION
var versionFile string

var executeCLI = cli.Execute

func run() error {
	return executeCLI(strings.TrimSpace(versionFile))
}

func main() {
	if err := run(); err != nil {
		logging.Fatal("funildash execution failed", "error", err)
	}
}
