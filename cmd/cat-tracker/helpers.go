package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/duaragha/cat-tracker-sub000/internal/domain"
)

var timeParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// parseWhen reads a user-entered time. Empty means now. Besides RFC 3339 and
// "YYYY-MM-DD HH:MM" it understands phrases like "yesterday 9pm" or "2 hours ago".
func parseWhen(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t, nil
		}
	}
	r, err := timeParser.Parse(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", s, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("invalid time %q (try \"2024-01-02 21:30\" or \"yesterday 9pm\")", s)
	}
	return r.Time, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// describe renders the kind-specific part of a list row.
func describe(e domain.Entry) string {
	switch v := e.(type) {
	case *domain.WashroomEntry:
		parts := []string{v.Type}
		if v.Consistency != "" {
			parts = append(parts, v.Consistency)
		}
		if v.Color != "" {
			parts = append(parts, "color "+v.Color)
		}
		if v.HasBlood {
			parts = append(parts, "BLOOD")
		}
		return strings.Join(parts, ", ")
	case *domain.FoodEntry:
		s := fmt.Sprintf("%g %s %s %s", v.Amount, v.Unit, v.FoodCategory, v.FoodType)
		if g, ok := v.Grams(); ok && v.Unit != "grams" {
			s += fmt.Sprintf(" (%gg)", domain.RoundTo(g, 1))
		}
		return s
	case *domain.SleepEntry:
		s := fmt.Sprintf("%dh%02dm until %s", v.Duration/60, v.Duration%60, formatTime(v.EndTime))
		if v.Location != "" {
			s += " on " + v.Location
		}
		if v.Quality != "" {
			s += ", " + v.Quality
		}
		return s
	case *domain.WeightEntry:
		return fmt.Sprintf("%.2f kg (%s)", v.Weight, domain.FormatPounds(v.Weight))
	case *domain.PhotoEntry:
		s := v.ImageURL
		if len(v.Tags) > 0 {
			s += " [" + strings.Join(v.Tags, ", ") + "]"
		}
		return s
	case *domain.TreatEntry:
		s := fmt.Sprintf("%g x %s", v.Quantity, v.TreatType)
		if v.Calories != nil {
			s += fmt.Sprintf(" (%g kcal each)", *v.Calories)
		}
		return s
	}
	return ""
}

func notes(e domain.Entry) string {
	switch v := e.(type) {
	case *domain.WashroomEntry:
		return v.Notes
	case *domain.FoodEntry:
		return v.Notes
	case *domain.SleepEntry:
		return v.Notes
	case *domain.WeightEntry:
		return v.Notes
	case *domain.PhotoEntry:
		return v.Notes
	case *domain.TreatEntry:
		return v.Notes
	}
	return ""
}
