package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/duaragha/cat-tracker-sub000/internal/domain"
	"github.com/duaragha/cat-tracker-sub000/internal/workingset"
)

var (
	colorOnline  = lipgloss.Color("#10B981")
	colorOffline = lipgloss.Color("#EF4444")
	colorSyncing = lipgloss.Color("#3B82F6")
	colorMuted   = lipgloss.Color("#6B7280")

	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F3F4F6")).
			Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)

// badge renders the connectivity indicator. Syncing wins over online.
func badge(online, syncing bool) string {
	switch {
	case syncing:
		return badgeStyle.Background(colorSyncing).Render("SYNCING")
	case online:
		return badgeStyle.Background(colorOnline).Render("ONLINE")
	default:
		return badgeStyle.Background(colorOffline).Render("OFFLINE")
	}
}

func printStatus(w io.Writer, ws *workingset.Store, server string) {
	snap := ws.Snapshot()
	fmt.Fprintf(w, "%s %s\n", badge(ws.IsOnline(), ws.IsSyncing()), mutedStyle.Render(server))

	last := "never"
	if t := ws.LastSyncedAt(); t != nil {
		last = formatTime(*t)
	}
	pending := 0
	for _, ids := range snap.PendingDeletes {
		pending += len(ids)
	}
	changes := "none"
	if snap.Dirty {
		changes = "waiting to be pushed"
	}
	fmt.Fprintf(w, "Last synced:     %s\n", last)
	fmt.Fprintf(w, "Local changes:   %s\n", changes)
	fmt.Fprintf(w, "Pending deletes: %d\n", pending)

	if snap.CatProfile == nil {
		fmt.Fprintln(w, "Profile:         (none)")
		return
	}
	fmt.Fprintf(w, "Profile:         %s, %s\n", snap.CatProfile.Name, snap.CatProfile.WeightDisplay())
	for _, kind := range domain.AllKinds {
		fmt.Fprintf(w, "  %-9s %d\n", kind, len(snap.Entries(kind)))
	}
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show connectivity, sync state and entry counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(a *app) error {
			printStatus(cmd.OutOrStdout(), a.ws, a.cfg.Server)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
