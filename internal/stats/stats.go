// Package stats derives summaries from a working set: plain sums, averages and
// groupings over the entry lists.
package stats

import (
	"sort"
	"time"

	"github.com/duaragha/cat-tracker-sub000/internal/domain"
)

// Options narrows the computation. Zero values mean all time, UTC.
type Options struct {
	Since    time.Time
	Location *time.Location
}

// DayTotal grams of food eaten on one calendar day.
type DayTotal struct {
	Date  string  `json:"date"` // YYYY-MM-DD in Options.Location
	Grams float64 `json:"grams"`
}

type Summary struct {
	Counts              map[domain.Kind]int `json:"counts"`
	DailyFoodGrams      []DayTotal          `json:"dailyFoodGrams"`
	UnconvertedFeedings int                 `json:"unconvertedFeedings"` // cups/pieces, or portions without a factor
	TotalSleepMinutes   int                 `json:"totalSleepMinutes"`
	AverageSleepMinutes float64             `json:"averageSleepMinutes"`
	WashroomByType      map[string]int      `json:"washroomByType"`
	BloodFlags          int                 `json:"bloodFlags"`
	LatestWeightKg      *float64            `json:"latestWeightKg,omitempty"`
	WeightChangeKg      *float64            `json:"weightChangeKg,omitempty"` // latest minus earliest in range
	TreatCalories       float64             `json:"treatCalories"`
}

// Compute summarizes s. A nil snapshot yields zero counts.
func Compute(s *domain.Snapshot, opts Options) Summary {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	in := func(t time.Time) bool { return opts.Since.IsZero() || !t.Before(opts.Since) }

	sum := Summary{
		Counts:         map[domain.Kind]int{},
		DailyFoodGrams: []DayTotal{},
		WashroomByType: map[string]int{},
	}
	for _, k := range domain.AllKinds {
		sum.Counts[k] = 0
	}
	if s == nil {
		return sum
	}

	for _, e := range s.WashroomEntries {
		if !in(e.Timestamp) {
			continue
		}
		sum.Counts[domain.KindWashroom]++
		sum.WashroomByType[e.Type]++
		if e.HasBlood {
			sum.BloodFlags++
		}
	}

	daily := map[string]float64{}
	for _, e := range s.FoodEntries {
		if !in(e.Timestamp) {
			continue
		}
		sum.Counts[domain.KindFood]++
		grams, ok := e.Grams()
		if !ok {
			sum.UnconvertedFeedings++
			continue
		}
		daily[e.Timestamp.In(loc).Format("2006-01-02")] += grams
	}
	for day, g := range daily {
		sum.DailyFoodGrams = append(sum.DailyFoodGrams, DayTotal{Date: day, Grams: domain.RoundTo(g, 1)})
	}
	sort.Slice(sum.DailyFoodGrams, func(i, j int) bool { return sum.DailyFoodGrams[i].Date < sum.DailyFoodGrams[j].Date })

	for _, e := range s.SleepEntries {
		if !in(e.StartTime) {
			continue
		}
		sum.Counts[domain.KindSleep]++
		sum.TotalSleepMinutes += e.Duration
	}
	if n := sum.Counts[domain.KindSleep]; n > 0 {
		sum.AverageSleepMinutes = domain.RoundTo(float64(sum.TotalSleepMinutes)/float64(n), 1)
	}

	var earliest, latest *domain.WeightEntry
	for _, e := range s.WeightEntries {
		if !in(e.MeasurementDate) {
			continue
		}
		sum.Counts[domain.KindWeight]++
		if latest == nil || e.MeasurementDate.After(latest.MeasurementDate) {
			latest = e
		}
		if earliest == nil || e.MeasurementDate.Before(earliest.MeasurementDate) {
			earliest = e
		}
	}
	if latest != nil {
		w := latest.Weight
		sum.LatestWeightKg = &w
		change := domain.RoundTo(latest.Weight-earliest.Weight, 3)
		sum.WeightChangeKg = &change
	}

	for _, e := range s.Photos {
		if in(e.UploadDate) {
			sum.Counts[domain.KindPhoto]++
		}
	}
	for _, e := range s.TreatEntries {
		if !in(e.Timestamp) {
			continue
		}
		sum.Counts[domain.KindTreat]++
		if e.Calories != nil {
			sum.TreatCalories += *e.Calories * e.Quantity
		}
	}
	return sum
}
