package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:       "sync [push|pull]",
	Short:     "Sync with the API now (default: push, then pull)",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"push", "pull"},
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := ""
		if len(args) == 1 {
			mode = args[0]
		}
		if mode != "" && mode != "push" && mode != "pull" {
			return fmt.Errorf("unknown sync mode %q (use push or pull)", mode)
		}
		if offline {
			return fmt.Errorf("sync is not available with --offline")
		}
		return run(cmd, func(a *app) error {
			out := cmd.OutOrStdout()
			ctx := cmd.Context()
			if mode != "pull" {
				if !a.ws.SyncNow(ctx) {
					return fmt.Errorf("push to %s failed; changes stay in the local cache", a.cfg.Server)
				}
				fmt.Fprintln(out, "Pushed local changes.")
			}
			if mode != "push" {
				if a.ws.PullNow(ctx) {
					fmt.Fprintln(out, "Pulled the working set from the server.")
				} else {
					fmt.Fprintln(out, "Nothing to pull; keeping the local working set.")
				}
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
