package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/duaragha/cat-tracker-sub000/internal/domain"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or edit the cat profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the cat profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(a *app) error {
			p := a.ws.Profile()
			out := cmd.OutOrStdout()
			if p == nil {
				fmt.Fprintln(out, "No cat profile yet. Create one with: cat-tracker profile set --name <name>")
				return nil
			}
			fmt.Fprintf(out, "Name:        %s\n", p.Name)
			fmt.Fprintf(out, "Breed:       %s\n", orDash(p.Breed))
			fmt.Fprintf(out, "Born:        %s\n", dateOrDash(p.BirthDate))
			fmt.Fprintf(out, "Gotcha day:  %s\n", dateOrDash(p.AcquisitionDate))
			fmt.Fprintf(out, "Weight:      %s\n", p.WeightDisplay())
			fmt.Fprintf(out, "Photo:       %s\n", orDash(p.PhotoURL))
			fmt.Fprintf(out, "ID:          %s\n", p.ID)
			return nil
		})
	},
}

var (
	profName     string
	profBreed    string
	profBirth    string
	profGotcha   string
	profWeight   float64
	profUnit     string
	profPhotoURL string
)

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create the profile or change some of its fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(a *app) error {
			p := domain.CatProfile{}
			if cur := a.ws.Profile(); cur != nil {
				p = *cur
			}
			flags := cmd.Flags()
			if flags.Changed("name") {
				p.Name = profName
			}
			if flags.Changed("breed") {
				p.Breed = profBreed
			}
			if flags.Changed("birth-date") {
				t, err := parseDate(profBirth)
				if err != nil {
					return err
				}
				p.BirthDate = t
			}
			if flags.Changed("gotcha-day") {
				t, err := parseDate(profGotcha)
				if err != nil {
					return err
				}
				p.AcquisitionDate = t
			}
			if flags.Changed("weight") {
				kg, err := domain.ToKg(profWeight, profUnit)
				if err != nil {
					return err
				}
				p.Weight = &kg
			}
			if flags.Changed("photo") {
				p.PhotoURL = profPhotoURL
			}
			if err := p.Validate(); err != nil {
				return err
			}
			saved := a.ws.SetProfile(p)
			fmt.Fprintf(cmd.OutOrStdout(), "Saved profile for %s (%s)\n", saved.Name, saved.WeightDisplay())
			return nil
		})
	},
}

// parseDate accepts YYYY-MM-DD; an empty string clears the date.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return &t, nil
}

func dateOrDash(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02")
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileShowCmd, profileSetCmd)

	profileSetCmd.Flags().StringVar(&profName, "name", "", "Cat name")
	profileSetCmd.Flags().StringVar(&profBreed, "breed", "", "Breed")
	profileSetCmd.Flags().StringVar(&profBirth, "birth-date", "", "Birth date (YYYY-MM-DD, empty clears)")
	profileSetCmd.Flags().StringVar(&profGotcha, "gotcha-day", "", "Adoption date (YYYY-MM-DD, empty clears)")
	profileSetCmd.Flags().Float64Var(&profWeight, "weight", 0, "Current weight")
	profileSetCmd.Flags().StringVar(&profUnit, "unit", "kg", "Weight unit: kg or lb")
	profileSetCmd.Flags().StringVar(&profPhotoURL, "photo", "", "Profile photo URL")
}
