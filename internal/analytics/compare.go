package analytics

import (
	"resto-insights/internal/models"
)

const (
	TrendUp   = "up"
	TrendDown = "down"
	TrendFlat = "flat"
)

const topDishesLimit = 5

// Compare runs two independent rollups and derives per-metric deltas.
// Percent change is 0 when the first period's value is 0.
func Compare(p1 models.PeriodSummary, facts1 []models.OrderFact, lines1 []models.OrderLineFact,
	p2 models.PeriodSummary, facts2 []models.OrderFact, lines2 []models.OrderLineFact) models.ComparisonReport {

	p1.Stats = Rollup(facts1)
	p1.TopDishes = TopDishes(lines1, topDishesLimit)
	p2.Stats = Rollup(facts2)
	p2.TopDishes = TopDishes(lines2, topDishesLimit)

	return models.ComparisonReport{
		Period1: p1,
		Period2: p2,
		Changes: StatChanges(p1.Stats, p2.Stats),
	}
}

// StatChanges computes the per-metric change map between two period stats.
func StatChanges(s1, s2 models.PeriodStats) map[string]models.MetricChange {
	return map[string]models.MetricChange{
		"orders_count": metricChange(float64(s1.OrdersCount), float64(s2.OrdersCount)),
		"revenue":      metricChange(s1.Revenue, s2.Revenue),
		"avg_check":    metricChange(s1.AvgCheck, s2.AvgCheck),
	}
}

func metricChange(v1, v2 float64) models.MetricChange {
	diff := v2 - v1

	percent := 0.0
	if v1 != 0 {
		percent = diff / v1 * 100
	}

	trend := TrendFlat
	if diff > 0 {
		trend = TrendUp
	} else if diff < 0 {
		trend = TrendDown
	}

	return models.MetricChange{
		Period1: v1,
		Period2: v2,
		Diff:    diff,
		Percent: percent,
		Trend:   trend,
	}
}
