package main

import (
	"github.com/nektos/stackscope/cmd"
	"github.com/nektos/stackscope/pkg/common"
)

var version = "v0.1.0" // Manually bump after tagging next release

func main() {
	ctx, cancel := common.CreateGracefulCancellationContext()
	defer cancel()

	// run the command
	cmd.Execute(ctx, version)
}
