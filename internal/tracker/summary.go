package tracker

import (
	"sort"

	"eets/internal/models"

	"github.com/shopspring/decimal"
)

// Bucket is the spending total of one category or one date.
type Bucket struct {
	Label      string
	Total      decimal.Decimal
	Count      int
	Percentage float64
}

// Summary aggregates a set of expenses by category and by date.
type Summary struct {
	Total      decimal.Decimal
	ByCategory map[string]decimal.Decimal
	ByDate     map[string]decimal.Decimal
	// Categories is sorted by total, largest first.
	Categories []Bucket
	// Dates is sorted by date string, ascending.
	Dates []Bucket
}

// Summarize sums the amounts of expenses grouped by category and by date.
func Summarize(expenses []models.Expense) Summary {
	s := Summary{
		Total:      decimal.Zero,
		ByCategory: make(map[string]decimal.Decimal),
		ByDate:     make(map[string]decimal.Decimal),
	}

	categoryCounts := make(map[string]int)
	dateCounts := make(map[string]int)
	for _, e := range expenses {
		s.Total = s.Total.Add(e.Amount)
		s.ByCategory[e.Category] = s.ByCategory[e.Category].Add(e.Amount)
		s.ByDate[e.Date] = s.ByDate[e.Date].Add(e.Amount)
		categoryCounts[e.Category]++
		dateCounts[e.Date]++
	}

	s.Categories = buckets(s.ByCategory, categoryCounts, s.Total)
	sort.SliceStable(s.Categories, func(i, j int) bool {
		if c := s.Categories[i].Total.Cmp(s.Categories[j].Total); c != 0 {
			return c > 0
		}
		return s.Categories[i].Label < s.Categories[j].Label
	})

	s.Dates = buckets(s.ByDate, dateCounts, s.Total)
	sort.Slice(s.Dates, func(i, j int) bool { return s.Dates[i].Label < s.Dates[j].Label })

	return s
}

func buckets(totals map[string]decimal.Decimal, counts map[string]int, total decimal.Decimal) []Bucket {
	out := make([]Bucket, 0, len(totals))
	for label, sum := range totals {
		percentage := 0.0
		if total.IsPositive() {
			percentage = sum.Div(total).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}
		out = append(out, Bucket{
			Label:      label,
			Total:      sum,
			Count:      counts[label],
			Percentage: percentage,
		})
	}
	return out
}
