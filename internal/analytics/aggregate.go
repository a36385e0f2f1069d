package analytics

import (
	"slices"
	"strings"
	"time"

	"resto-insights/internal/models"
)

// Rollup aggregates order facts into the basic period stats. AvgCheck stays 0
// when there are no orders.
func Rollup(facts []models.OrderFact) models.PeriodStats {
	var stats models.PeriodStats
	for _, f := range facts {
		stats.OrdersCount++
		stats.Revenue += f.Total
	}
	if stats.OrdersCount > 0 {
		stats.AvgCheck = stats.Revenue / float64(stats.OrdersCount)
	}
	return stats
}

// HourlyBuckets always returns exactly 24 entries; hours without orders stay
// zero-filled so callers never infer missing hours from absence.
func HourlyBuckets(facts []models.OrderFact, loc *time.Location) []models.HourBucket {
	buckets := make([]models.HourBucket, 24)
	for i := range buckets {
		buckets[i].Hour = i
	}
	for _, f := range facts {
		h := f.Timestamp.In(loc).Hour()
		buckets[h].OrdersCount++
		buckets[h].Revenue += f.Total
	}
	return buckets
}

// DailyBuckets materializes one bucket per tenant-local calendar day in
// [from, to] inclusive, zero-filled. Facts outside the range are ignored.
func DailyBuckets(facts []models.OrderFact, from, to time.Time, loc *time.Location) []models.DayBucket {
	start := dayStart(from.In(loc))
	end := dayStart(to.In(loc))
	if end.Before(start) {
		return []models.DayBucket{}
	}

	index := make(map[string]int)
	buckets := make([]models.DayBucket, 0, daysBetween(start, end)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		index[key] = len(buckets)
		buckets = append(buckets, models.DayBucket{Date: key})
	}

	for _, f := range facts {
		key := f.Timestamp.In(loc).Format(dateLayout)
		i, ok := index[key]
		if !ok {
			continue
		}
		buckets[i].OrdersCount++
		buckets[i].Revenue += f.Total
	}
	return buckets
}

// PeakHours returns every hour whose order count is within tolerance of the
// busiest hour: with tolerance 0.1, hours at >= 90% of the maximum count.
// Ties with the maximum are always included. No orders means no peaks.
func PeakHours(hours []models.HourBucket, tolerance float64) []int {
	maxCount := 0
	for _, h := range hours {
		if h.OrdersCount > maxCount {
			maxCount = h.OrdersCount
		}
	}
	if maxCount == 0 {
		return []int{}
	}

	cutoff := float64(maxCount) * (1 - tolerance)
	peaks := make([]int, 0)
	for _, h := range hours {
		if float64(h.OrdersCount) >= cutoff {
			peaks = append(peaks, h.Hour)
		}
	}
	return peaks
}

// TopDishes ranks dishes by revenue descending, dish id ascending on ties.
// limit <= 0 returns all dishes.
func TopDishes(lines []models.OrderLineFact, limit int) []models.DishSales {
	groups := make(map[string]*models.DishSales)
	for _, l := range lines {
		d := groups[l.DishID]
		if d == nil {
			d = &models.DishSales{DishID: l.DishID, DishName: l.DishName}
			groups[l.DishID] = d
		}
		d.Quantity += l.Quantity
		d.Revenue += l.LineTotal
	}

	result := make([]models.DishSales, 0, len(groups))
	for _, d := range groups {
		result = append(result, *d)
	}
	slices.SortFunc(result, func(a, b models.DishSales) int {
		if a.Revenue > b.Revenue {
			return -1
		}
		if a.Revenue < b.Revenue {
			return 1
		}
		return strings.Compare(a.DishID, b.DishID)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// WaiterRollup groups orders by the serving waiter, revenue descending,
// waiter id ascending on ties. Orders with no waiter recorded are skipped.
func WaiterRollup(facts []models.OrderFact) []models.WaiterSales {
	groups := make(map[string]*models.WaiterSales)
	for _, f := range facts {
		if f.WaiterID == "" {
			continue
		}
		w := groups[f.WaiterID]
		if w == nil {
			w = &models.WaiterSales{WaiterID: f.WaiterID}
			groups[f.WaiterID] = w
		}
		w.OrdersCount++
		w.Revenue += f.Total
	}

	result := make([]models.WaiterSales, 0, len(groups))
	for _, w := range groups {
		w.AvgCheck = w.Revenue / float64(w.OrdersCount)
		result = append(result, *w)
	}
	slices.SortFunc(result, func(a, b models.WaiterSales) int {
		if a.Revenue > b.Revenue {
			return -1
		}
		if a.Revenue < b.Revenue {
			return 1
		}
		return strings.Compare(a.WaiterID, b.WaiterID)
	})
	return result
}

// CategoryBreakdown groups line facts by category. Percent shares sum to
// ~100 for non-empty sales.
func CategoryBreakdown(lines []models.OrderLineFact) models.CategoryReport {
	type catAgg struct {
		sales  models.CategorySales
		dishes map[string]struct{}
	}

	groups := make(map[string]*catAgg)
	total := 0.0
	for _, l := range lines {
		c := groups[l.CategoryID]
		if c == nil {
			c = &catAgg{
				sales:  models.CategorySales{CategoryID: l.CategoryID, Name: l.CategoryName},
				dishes: make(map[string]struct{}),
			}
			groups[l.CategoryID] = c
		}
		c.sales.Quantity += l.Quantity
		c.sales.Revenue += l.LineTotal
		c.dishes[l.DishID] = struct{}{}
		total += l.LineTotal
	}

	categories := make([]models.CategorySales, 0, len(groups))
	for _, c := range groups {
		c.sales.DishesCount = len(c.dishes)
		if total > 0 {
			c.sales.Percent = c.sales.Revenue / total * 100
		}
		categories = append(categories, c.sales)
	}
	slices.SortFunc(categories, func(a, b models.CategorySales) int {
		if a.Revenue > b.Revenue {
			return -1
		}
		if a.Revenue < b.Revenue {
			return 1
		}
		return strings.Compare(a.CategoryID, b.CategoryID)
	})

	return models.CategoryReport{Categories: categories, TotalRevenue: total}
}
