package analytics

import (
	"slices"
	"strings"

	"resto-insights/internal/models"
)

const (
	MetricRevenue  = "revenue"
	MetricQuantity = "quantity"
)

// ABCThresholds are cumulative-percent cutoffs: items whose running share is
// <= A are category A, <= B are category B, the rest are C. The item that
// crosses a threshold lands in the lower category.
type ABCThresholds struct {
	A float64
	B float64
}

// ClassifyABC runs a Pareto classification of dishes over the chosen metric.
// Items come back sorted descending by metric value, tie-broken by dish id
// ascending so results are deterministic. Empty input yields items=[] and a
// nil summary.
func ClassifyABC(lines []models.OrderLineFact, metric string, thresholds ABCThresholds, periodDays int) models.ABCReport {
	report := models.ABCReport{
		Items:      []models.ABCItem{},
		PeriodDays: periodDays,
		Metric:     metric,
	}

	groups := make(map[string]*models.ABCItem)
	for _, l := range lines {
		it := groups[l.DishID]
		if it == nil {
			it = &models.ABCItem{DishID: l.DishID, DishName: l.DishName}
			groups[l.DishID] = it
		}
		it.Revenue += l.LineTotal
		it.Quantity += l.Quantity
	}
	if len(groups) == 0 {
		return report
	}

	items := make([]models.ABCItem, 0, len(groups))
	totalMetric := 0.0
	for _, it := range groups {
		if metric == MetricQuantity {
			it.MetricValue = float64(it.Quantity)
		} else {
			it.MetricValue = it.Revenue
		}
		totalMetric += it.MetricValue
		report.TotalRevenue += it.Revenue
		report.TotalQuantity += it.Quantity
		items = append(items, *it)
	}

	slices.SortFunc(items, func(a, b models.ABCItem) int {
		if a.MetricValue > b.MetricValue {
			return -1
		}
		if a.MetricValue < b.MetricValue {
			return 1
		}
		return strings.Compare(a.DishID, b.DishID)
	})

	summary := &models.ABCSummary{}
	running := 0.0
	for i := range items {
		it := &items[i]
		running += it.MetricValue
		if totalMetric > 0 {
			it.PercentOfTotal = it.MetricValue / totalMetric * 100
			it.CumulativePercent = running / totalMetric * 100
		}

		var bucket *models.ABCBucket
		switch {
		case it.CumulativePercent <= thresholds.A:
			it.Category = "A"
			bucket = &summary.A
		case it.CumulativePercent <= thresholds.B:
			it.Category = "B"
			bucket = &summary.B
		default:
			it.Category = "C"
			bucket = &summary.C
		}
		bucket.ItemsCount++
		bucket.Revenue += it.Revenue
	}

	if report.TotalRevenue > 0 {
		summary.A.Percent = summary.A.Revenue / report.TotalRevenue * 100
		summary.B.Percent = summary.B.Revenue / report.TotalRevenue * 100
		summary.C.Percent = summary.C.Revenue / report.TotalRevenue * 100
	}

	report.Items = items
	report.Summary = summary
	return report
}
