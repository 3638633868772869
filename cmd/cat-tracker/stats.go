package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/duaragha/cat-tracker-sub000/internal/domain"
	"github.com/duaragha/cat-tracker-sub000/internal/stats"
)

var statsDays int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summaries over the last days of entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(a *app) error {
			opts := stats.Options{Location: time.Local}
			if statsDays > 0 {
				opts.Since = time.Now().AddDate(0, 0, -statsDays)
			}
			s := stats.Compute(a.ws.Snapshot(), opts)
			out := cmd.OutOrStdout()

			if statsDays > 0 {
				fmt.Fprintf(out, "Last %d days\n", statsDays)
			} else {
				fmt.Fprintln(out, "All time")
			}
			for _, kind := range domain.AllKinds {
				fmt.Fprintf(out, "  %-9s %d\n", kind, s.Counts[kind])
			}

			fmt.Fprintln(out, "Washroom")
			for _, t := range []string{domain.WashroomUrination, domain.WashroomDefecation, domain.WashroomBoth} {
				fmt.Fprintf(out, "  %-11s %d\n", t, s.WashroomByType[t])
			}
			if s.BloodFlags > 0 {
				fmt.Fprintf(out, "  blood seen  %d time(s)\n", s.BloodFlags)
			}

			fmt.Fprintln(out, "Food (grams per day)")
			for _, d := range s.DailyFoodGrams {
				fmt.Fprintf(out, "  %s  %g\n", d.Date, domain.RoundTo(d.Grams, 1))
			}
			if s.UnconvertedFeedings > 0 {
				fmt.Fprintf(out, "  %d feeding(s) not in grams\n", s.UnconvertedFeedings)
			}

			fmt.Fprintf(out, "Sleep: %d min total, %.0f min average\n", s.TotalSleepMinutes, s.AverageSleepMinutes)
			if s.LatestWeightKg != nil {
				line := fmt.Sprintf("Weight: %s", domain.FormatPounds(*s.LatestWeightKg))
				if s.WeightChangeKg != nil {
					line += fmt.Sprintf(" (%+.2f kg)", *s.WeightChangeKg)
				}
				fmt.Fprintln(out, line)
			}
			if s.TreatCalories > 0 {
				fmt.Fprintf(out, "Treats: %g kcal\n", domain.RoundTo(s.TreatCalories, 1))
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().IntVar(&statsDays, "days", 7, "Look back this many days (0 = all time)")
}
