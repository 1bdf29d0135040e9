package model

import (
	"math"
	"sort"
)

// CategoryStats aggregates product prices within one category.
type CategoryStats struct {
	Category     string  `json:"category"`
	Count        int64   `json:"count"`
	TotalValue   float64 `json:"totalValue"`
	AveragePrice float64 `json:"averagePrice"`
	MinPrice     float64 `json:"minPrice"`
	MaxPrice     float64 `json:"maxPrice"`
}

// StatsSummary describes stock levels across the whole catalog.
type StatsSummary struct {
	TotalProducts     int64 `json:"totalProducts"`
	InStockCount      int64 `json:"inStockCount"`
	OutOfStockCount   int64 `json:"outOfStockCount"`
	InStockPercentage int   `json:"inStockPercentage"`
}

// ProductStats is the payload of the statistics endpoint.
type ProductStats struct {
	Summary    StatsSummary    `json:"summary"`
	ByCategory []CategoryStats `json:"byCategory"`
}

// NewStatsSummary derives the summary from the total and in-stock counts.
// The percentage is 0 for an empty catalog.
func NewStatsSummary(total, inStock int64) StatsSummary {
	s := StatsSummary{
		TotalProducts:   total,
		InStockCount:    inStock,
		OutOfStockCount: total - inStock,
	}
	if total > 0 {
		s.InStockPercentage = int(math.Round(float64(inStock) / float64(total) * 100))
	}
	return s
}

// RoundPrice rounds v to two decimal places.
func RoundPrice(v float64) float64 {
	return math.Round(v*100) / 100
}

// AggregateByCategory groups products by category. The result is ordered by
// count descending, then category name.
func AggregateByCategory(products []Product) []CategoryStats {
	index := make(map[string]int)
	stats := make([]CategoryStats, 0)

	for _, p := range products {
		i, ok := index[p.Category]
		if !ok {
			index[p.Category] = len(stats)
			stats = append(stats, CategoryStats{
				Category: p.Category,
				MinPrice: p.Price,
				MaxPrice: p.Price,
			})
			i = len(stats) - 1
		}

		s := &stats[i]
		s.Count++
		s.TotalValue += p.Price
		s.MinPrice = math.Min(s.MinPrice, p.Price)
		s.MaxPrice = math.Max(s.MaxPrice, p.Price)
	}

	for i := range stats {
		stats[i].AveragePrice = RoundPrice(stats[i].TotalValue / float64(stats[i].Count))
	}

	SortCategoryStats(stats)
	return stats
}

// SortCategoryStats orders stats by count descending, then category name.
func SortCategoryStats(stats []CategoryStats) {
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Category < stats[j].Category
	})
}
