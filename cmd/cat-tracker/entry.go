package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/duaragha/cat-tracker-sub000/internal/domain"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a new entry",
}

// entryForm registers a kind's flags on cmd and returns the function that
// builds the entry from them once the command runs.
type entryForm func(cmd *cobra.Command) func(at time.Time) (domain.Entry, error)

func newAddCmd(use, short string, form entryForm) *cobra.Command {
	var at, notes string
	cmd := &cobra.Command{Use: use, Short: short, Args: cobra.NoArgs}
	build := form(cmd)
	cmd.Flags().StringVar(&at, "at", "", "When it happened (default now; e.g. \"2024-01-02 21:30\", \"yesterday 9pm\")")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-text notes")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		when, err := parseWhen(at, time.Now())
		if err != nil {
			return err
		}
		e, err := build(when)
		if err != nil {
			return err
		}
		setNotes(e, notes)
		e.Normalize()
		if err := e.Validate(); err != nil {
			return err
		}
		return run(cmd, func(a *app) error {
			added, err := a.ws.AddEntry(e)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s: %s\n", added.EntryKind(), shortID(added.EntryID()), describe(added))
			return nil
		})
	}
	return cmd
}

func washroomForm(cmd *cobra.Command) func(time.Time) (domain.Entry, error) {
	var typ, consistency, color string
	var blood bool
	var photos []string
	f := cmd.Flags()
	f.StringVar(&typ, "type", domain.WashroomUrination, "urination, defecation or both")
	f.StringVar(&consistency, "consistency", "", "normal, soft, hard or diarrhea")
	f.StringVar(&color, "color", "", "normal, dark, light or unusual")
	f.BoolVar(&blood, "blood", false, "Blood was present")
	f.StringArrayVar(&photos, "photo", nil, "Photo URL (repeatable)")
	return func(at time.Time) (domain.Entry, error) {
		return &domain.WashroomEntry{Timestamp: at, Type: typ, Consistency: consistency, Color: color, HasBlood: blood, Photos: photos}, nil
	}
}

func foodForm(cmd *cobra.Command) func(time.Time) (domain.Entry, error) {
	var category, food, brand, unit string
	var amount, portionGrams float64
	f := cmd.Flags()
	f.StringVar(&category, "category", "dry", "dry or wet")
	f.StringVar(&food, "food", "", "What was eaten")
	f.StringVar(&brand, "brand", "", "Brand")
	f.Float64Var(&amount, "amount", 0, "Amount")
	f.StringVar(&unit, "unit", "grams", "grams, cups, pieces or portions")
	f.Float64Var(&portionGrams, "portion-grams", 0, "Grams per portion, for unit=portions")
	return func(at time.Time) (domain.Entry, error) {
		e := &domain.FoodEntry{Timestamp: at, FoodCategory: category, FoodType: food, Brand: brand, Amount: amount, Unit: unit}
		if cmd.Flags().Changed("portion-grams") {
			e.PortionToGrams = &portionGrams
		}
		return e, nil
	}
}

func sleepForm(cmd *cobra.Command) func(time.Time) (domain.Entry, error) {
	var start, end, quality, location string
	var photos []string
	f := cmd.Flags()
	f.StringVar(&start, "start", "", "When the nap started (required)")
	f.StringVar(&end, "end", "", "When it ended (default --at, i.e. now)")
	f.StringVar(&quality, "quality", "", "restful, normal or restless")
	f.StringVar(&location, "location", "", "Where, e.g. bed, sofa, window")
	f.StringArrayVar(&photos, "photo", nil, "Photo URL (repeatable)")
	return func(at time.Time) (domain.Entry, error) {
		if start == "" {
			return nil, fmt.Errorf("--start is required")
		}
		s, err := parseWhen(start, time.Now())
		if err != nil {
			return nil, err
		}
		e := at
		if end != "" {
			if e, err = parseWhen(end, time.Now()); err != nil {
				return nil, err
			}
		}
		return &domain.SleepEntry{StartTime: s, EndTime: e, Quality: quality, Location: location, Photos: photos}, nil
	}
}

func weightForm(cmd *cobra.Command) func(time.Time) (domain.Entry, error) {
	var value float64
	var unit string
	var photos []string
	f := cmd.Flags()
	f.Float64Var(&value, "weight", 0, "Measured weight")
	f.StringVar(&unit, "unit", "kg", "kg or lb")
	f.StringArrayVar(&photos, "photo", nil, "Photo URL (repeatable)")
	return func(at time.Time) (domain.Entry, error) {
		kg, err := domain.ToKg(value, unit)
		if err != nil {
			return nil, err
		}
		return &domain.WeightEntry{Weight: kg, MeasurementDate: at, Photos: photos}, nil
	}
}

func treatForm(cmd *cobra.Command) func(time.Time) (domain.Entry, error) {
	var treat, brand string
	var quantity, calories float64
	f := cmd.Flags()
	f.StringVar(&treat, "treat", "", "Treat type")
	f.StringVar(&brand, "brand", "", "Brand")
	f.Float64Var(&quantity, "quantity", 1, "How many")
	f.Float64Var(&calories, "calories", 0, "Calories per treat")
	return func(at time.Time) (domain.Entry, error) {
		e := &domain.TreatEntry{Timestamp: at, TreatType: treat, Brand: brand, Quantity: quantity}
		if cmd.Flags().Changed("calories") {
			e.Calories = &calories
		}
		return e, nil
	}
}

func photoForm(cmd *cobra.Command) func(time.Time) (domain.Entry, error) {
	var url, description string
	var tags []string
	f := cmd.Flags()
	f.StringVar(&url, "url", "", "Image URL")
	f.StringVar(&description, "description", "", "Caption")
	f.StringSliceVar(&tags, "tag", nil, "Tag (repeatable or comma separated)")
	return func(at time.Time) (domain.Entry, error) {
		return &domain.PhotoEntry{ImageURL: url, UploadDate: at, Description: description, Tags: tags}, nil
	}
}

func setNotes(e domain.Entry, notes string) {
	switch v := e.(type) {
	case *domain.WashroomEntry:
		v.Notes = notes
	case *domain.FoodEntry:
		v.Notes = notes
	case *domain.SleepEntry:
		v.Notes = notes
	case *domain.WeightEntry:
		v.Notes = notes
	case *domain.PhotoEntry:
		v.Notes = notes
	case *domain.TreatEntry:
		v.Notes = notes
	}
}

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list <kind>",
	Short: "List entries of one kind, newest first",
	Long:  "Kinds: washroom, food, sleep, weight, photos, treats.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := domain.ParseKind(args[0])
		if err != nil {
			return err
		}
		return run(cmd, func(a *app) error {
			list := a.ws.Entries(kind)
			if len(list) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No %s entries.\n", kind)
				return nil
			}
			if listLimit > 0 && len(list) > listLimit {
				list = list[:listLimit]
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tWHEN\tDETAILS\tNOTES")
			for _, e := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", shortID(e.EntryID()), formatTime(e.OccurredAt()), describe(e), orDash(notes(e)))
			}
			return tw.Flush()
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <kind> <id>",
	Short: "Delete an entry (an id prefix from list is enough)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := domain.ParseKind(args[0])
		if err != nil {
			return err
		}
		return run(cmd, func(a *app) error {
			id, err := resolveID(a, kind, args[1])
			if err != nil {
				return err
			}
			if err := a.ws.DeleteEntry(kind, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", kind, shortID(id))
			return nil
		})
	},
}

var (
	editStart    string
	editEnd      string
	editQuality  string
	editLocation string
	editNotes    string
	editRecalc   bool
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Change an existing entry",
}

var editSleepCmd = &cobra.Command{
	Use:   "sleep <id>",
	Short: "Change a nap; the duration is only recomputed with --recalc",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(a *app) error {
			id, err := resolveID(a, domain.KindSleep, args[0])
			if err != nil {
				return err
			}
			got, err := a.ws.Entry(domain.KindSleep, id)
			if err != nil {
				return err
			}
			e := got.(*domain.SleepEntry)
			flags := cmd.Flags()
			if flags.Changed("start") {
				if e.StartTime, err = parseWhen(editStart, time.Now()); err != nil {
					return err
				}
			}
			if flags.Changed("end") {
				if e.EndTime, err = parseWhen(editEnd, time.Now()); err != nil {
					return err
				}
			}
			if flags.Changed("quality") {
				e.Quality = editQuality
			}
			if flags.Changed("location") {
				e.Location = editLocation
			}
			if flags.Changed("notes") {
				e.Notes = editNotes
			}
			if editRecalc {
				e.Recalculate()
			}
			if err := e.Validate(); err != nil {
				return err
			}
			if err := a.ws.UpdateEntry(e); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated sleep %s: %s\n", shortID(id), describe(e))
			return nil
		})
	},
}

// resolveID expands an id prefix to the one matching entry.
func resolveID(a *app, kind domain.Kind, prefix string) (string, error) {
	var match string
	for _, e := range a.ws.Entries(kind) {
		id := e.EntryID()
		if id == prefix {
			return id, nil
		}
		if len(prefix) >= 4 && len(id) > len(prefix) && id[:len(prefix)] == prefix {
			if match != "" {
				return "", fmt.Errorf("id prefix %q matches more than one %s entry", prefix, kind)
			}
			match = id
		}
	}
	if match == "" {
		return "", fmt.Errorf("no %s entry with id %q", kind, prefix)
	}
	return match, nil
}

func init() {
	rootCmd.AddCommand(addCmd, listCmd, deleteCmd, editCmd)
	addCmd.AddCommand(
		newAddCmd("washroom", "Record a litter box visit", washroomForm),
		newAddCmd("food", "Record a feeding", foodForm),
		newAddCmd("sleep", "Record a nap", sleepForm),
		newAddCmd("weight", "Record a weigh-in", weightForm),
		newAddCmd("treat", "Record a treat", treatForm),
		newAddCmd("photo", "Add a photo", photoForm),
	)
	editCmd.AddCommand(editSleepCmd)

	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "Show at most n entries (0 = all)")

	editSleepCmd.Flags().StringVar(&editStart, "start", "", "New start time")
	editSleepCmd.Flags().StringVar(&editEnd, "end", "", "New end time")
	editSleepCmd.Flags().StringVar(&editQuality, "quality", "", "restful, normal or restless")
	editSleepCmd.Flags().StringVar(&editLocation, "location", "", "Where")
	editSleepCmd.Flags().StringVar(&editNotes, "notes", "", "Notes")
	editSleepCmd.Flags().BoolVar(&editRecalc, "recalc", false, "Recompute the duration from start and end")
}
