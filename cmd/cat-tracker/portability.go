package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/duaragha/cat-tracker-sub000/internal/portability"
)

var (
	exportOut    string
	exportFormat string
	importIn     string
	assumeYes     bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the working set (json or xlsx)",
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(strings.TrimSpace(exportFormat))
		if format == "" {
			format = strings.TrimPrefix(strings.ToLower(filepath.Ext(exportOut)), ".")
		}
		if format != "json" && format != "xlsx" {
			return fmt.Errorf("unsupported --format %q (use json or xlsx)", exportFormat)
		}
		if strings.TrimSpace(exportOut) == "" {
			exportOut = fmt.Sprintf("cat-tracker-%s.%s", time.Now().Format("20060102-150405"), format)
		}

		return run(cmd, func(a *app) error {
			f, err := os.Create(exportOut)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			defer f.Close()

			snap := a.ws.Snapshot()
			if format == "xlsx" {
				err = portability.WriteXLSX(f, snap, time.Local)
			} else {
				err = portability.ExportJSON(f, snap, time.Now())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported data to %s\n", exportOut)
			return f.Close()
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace the working set with a JSON export",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(importIn) == "" {
			return fmt.Errorf("--in is required")
		}
		f, err := os.Open(importIn)
		if err != nil {
			return fmt.Errorf("read import file: %w", err)
		}
		defer f.Close()
		snap, err := portability.ImportJSON(f)
		if err != nil {
			return err
		}

		return run(cmd, func(a *app) error {
			if cur := a.ws.Profile(); cur != nil && !assumeYes {
				if !confirm(cmd, fmt.Sprintf("This replaces all data for %s. Continue?", cur.Name)) {
					return fmt.Errorf("import cancelled")
				}
			}
			a.ws.Import(cmd.Context(), snap)
			name := "(no profile)"
			if snap.CatProfile != nil {
				name = snap.CatProfile.Name
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported data for %s from %s\n", name, importIn)
			return nil
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all local data (the server copy is kept)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), offlineOptions(), func(a *app) error {
			if !assumeYes && !confirm(cmd, "Delete all local data?") {
				return fmt.Errorf("reset cancelled")
			}
			a.ws.ClearAllData(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Local data cleared.")
			return nil
		})
	},
}

func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", question)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd, resetCmd)

	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default cat-tracker-<time>.<format>)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "json or xlsx (default from --out extension, else json)")
	importCmd.Flags().StringVarP(&importIn, "in", "i", "", "JSON export to import")
	importCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	resetCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
}
