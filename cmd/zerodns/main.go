// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: jroosing-HydraDNS's cmd/hydradns/main.go (a thin main()
// delegating to an Execute-and-classify function), restructured around
// github.com/spf13/cobra's command tree instead of the flag package, per
// folbricht-routedns's CLI grounding in SPEC_FULL.md §6.2.

// Command zerodns is the CLI entry point: `run` starts the server, `resolve`
// performs one query and prints it. Exit codes per spec.md §6: 0 success, 1
// configuration error, 2 fatal runtime error.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/zerodns-io/zerodns/internal/wire"
)

func main() {
	os.Exit(run())
}

func run() int {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCode(err)
	}
	return 0
}

func exitCode(err error) int {
	var werr *wire.Error
	if errors.As(err, &werr) && werr.Kind == wire.KindConfig {
		return 1
	}
	return 2
}
