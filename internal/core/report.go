package core

import (
	"math"
	"sort"
)

// Daily buckets are used up to this span; longer ranges fall back to
// monthly buckets.
const dailyTrendMaxDays = 60

const topCategoryLimit = 5

// CategoryTotal is one entry of a ranked category breakdown.
type CategoryTotal struct {
	Name   string
	Amount float64
}

// Summary aggregates a set of expenses against a monthly budget.
type Summary struct {
	Total         float64
	Budget        float64
	Remaining     float64
	ByCategory    map[string]float64
	TopCategories []CategoryTotal
	TrendLabels   []string
	TrendValues   []float64
}

// OverBudget reports whether spending exceeded the budget.
func (s Summary) OverBudget() bool {
	return s.Remaining < 0
}

// Summarize computes dashboard aggregates for expenses already filtered to
// the given range. rng selects trend granularity: daily keys (YYYY-MM-DD)
// for spans up to 60 days, monthly keys (YYYY-MM) otherwise or when no
// range applies. Keys sort lexicographically, which for these layouts is
// chronological order.
func Summarize(expenses []Expense, budget float64, rng *DateRange) Summary {
	s := Summary{
		Budget:     Round2(budget),
		ByCategory: make(map[string]float64),
	}

	layout := "2006-01"
	if rng != nil && rng.Days() <= dailyTrendMaxDays {
		layout = "2006-01-02"
	}

	trend := make(map[string]float64)
	var total float64
	for _, e := range expenses {
		total += e.Amount
		s.ByCategory[e.Category] += e.Amount
		trend[e.Timestamp.Format(layout)] += e.Amount
	}

	s.Total = Round2(total)
	s.Remaining = Round2(budget - total)

	s.TrendLabels = make([]string, 0, len(trend))
	for k := range trend {
		s.TrendLabels = append(s.TrendLabels, k)
	}
	sort.Strings(s.TrendLabels)
	s.TrendValues = make([]float64, len(s.TrendLabels))
	for i, k := range s.TrendLabels {
		s.TrendValues[i] = Round2(trend[k])
	}

	s.TopCategories = rankCategories(s.ByCategory, topCategoryLimit)
	return s
}

// rankCategories sorts breakdown entries by amount descending, ties broken
// by name so the order is stable, and truncates to limit.
func rankCategories(byCategory map[string]float64, limit int) []CategoryTotal {
	ranked := make([]CategoryTotal, 0, len(byCategory))
	for name, amount := range byCategory {
		ranked = append(ranked, CategoryTotal{Name: name, Amount: amount})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Amount != ranked[j].Amount {
			return ranked[i].Amount > ranked[j].Amount
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Round2 rounds to two decimals for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
