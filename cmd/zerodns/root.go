// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/zerodns-io/zerodns/internal/logging"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "zerodns",
		Short:         "A filterable, rule-driven DNS resolver and proxy",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			logging.Configure(os.Getenv("LOG"))
			return nil
		},
	}
	cmd.AddCommand(newRunCmd(), newResolveCmd())
	return cmd
}
