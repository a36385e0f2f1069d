package analytics

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"resto-insights/internal/models"
)

// ChurnThresholds classify customers by recency: active up to AtRiskDays,
// at risk up to ChurnedDays, churned beyond that.
type ChurnThresholds struct {
	AtRiskDays  int
	ChurnedDays int
}

const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"

	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

type customerRecency struct {
	customerID string
	recency    int
}

// AnalyzeChurn derives per-customer risk and the cohort summary from the full
// order history. Churn probability is min(1, recency/churned_days), so it
// grows monotonically with recency. Known customers with no order history
// widen the cohort total without entering a risk bucket.
func AnalyzeChurn(orders []models.OrderFact, known []models.CustomerFact, now time.Time, loc *time.Location, t ChurnThresholds) models.ChurnReport {
	report := models.ChurnReport{
		AtRisk:          []models.ChurnAssessment{},
		ChurnedRecently: []models.ChurnAssessment{},
	}

	recencies := collectRecencies(orders, now, loc)
	seen := make(map[string]bool, len(recencies))
	for _, c := range recencies {
		seen[c.customerID] = true
		report.Summary.Total++
		switch {
		case c.recency <= t.AtRiskDays:
			report.Summary.Active++
		case c.recency <= t.ChurnedDays:
			report.Summary.AtRisk++
			report.AtRisk = append(report.AtRisk, assess(c, t))
		default:
			report.Summary.Churned++
			// Recently churned means within one more churn window past the line.
			if c.recency <= 2*t.ChurnedDays {
				report.ChurnedRecently = append(report.ChurnedRecently, assess(c, t))
			}
		}
	}

	for _, k := range known {
		if k.CustomerID == "" || seen[k.CustomerID] {
			continue
		}
		seen[k.CustomerID] = true
		report.Summary.Total++
	}

	if report.Summary.Total > 0 {
		report.Summary.ChurnRate = float64(report.Summary.Churned) / float64(report.Summary.Total)
		report.Summary.RetentionRate = 1 - report.Summary.ChurnRate
	}

	sortAssessments(report.AtRisk)
	sortAssessments(report.ChurnedRecently)
	return report
}

func assess(c customerRecency, t ChurnThresholds) models.ChurnAssessment {
	probability := float64(c.recency) / float64(t.ChurnedDays)
	if probability > 1 {
		probability = 1
	}

	var risk, action string
	switch {
	case probability <= 1.0/3:
		risk = RiskLow
		action = "No action needed; keep the regular experience"
	case probability <= 2.0/3:
		risk = RiskMedium
		action = "Send a reminder with a modest incentive"
	default:
		risk = RiskHigh
		action = "Reach out personally with a strong comeback offer"
	}

	return models.ChurnAssessment{
		CustomerID:        c.customerID,
		RecencyDays:       c.recency,
		ChurnProbability:  probability,
		RiskLevel:         risk,
		RecommendedAction: action,
	}
}

func sortAssessments(a []models.ChurnAssessment) {
	slices.SortFunc(a, func(x, y models.ChurnAssessment) int {
		if x.RecencyDays != y.RecencyDays {
			return y.RecencyDays - x.RecencyDays
		}
		return strings.Compare(x.CustomerID, y.CustomerID)
	})
}

// ChurnAlerts buckets at-risk and churned customers by how far past the
// thresholds they are: at risk is informational, churned is a warning, and
// beyond twice the churn window is critical.
func ChurnAlerts(orders []models.OrderFact, now time.Time, loc *time.Location, t ChurnThresholds) models.ChurnAlertsReport {
	report := models.ChurnAlertsReport{
		Critical: []models.ChurnAlert{},
		Warning:  []models.ChurnAlert{},
		Info:     []models.ChurnAlert{},
	}

	for _, c := range collectRecencies(orders, now, loc) {
		switch {
		case c.recency > 2*t.ChurnedDays:
			report.Critical = append(report.Critical, models.ChurnAlert{
				CustomerID:  c.customerID,
				RecencyDays: c.recency,
				Severity:    SeverityCritical,
				Message:     fmt.Sprintf("no orders for %d days, far past the churn threshold of %d", c.recency, t.ChurnedDays),
			})
		case c.recency > t.ChurnedDays:
			report.Warning = append(report.Warning, models.ChurnAlert{
				CustomerID:  c.customerID,
				RecencyDays: c.recency,
				Severity:    SeverityWarning,
				Message:     fmt.Sprintf("churned: no orders for %d days", c.recency),
			})
		case c.recency > t.AtRiskDays:
			report.Info = append(report.Info, models.ChurnAlert{
				CustomerID:  c.customerID,
				RecencyDays: c.recency,
				Severity:    SeverityInfo,
				Message:     fmt.Sprintf("at risk: no orders for %d days", c.recency),
			})
		}
	}

	sortAlerts(report.Critical)
	sortAlerts(report.Warning)
	sortAlerts(report.Info)
	return report
}

func sortAlerts(a []models.ChurnAlert) {
	slices.SortFunc(a, func(x, y models.ChurnAlert) int {
		if x.RecencyDays != y.RecencyDays {
			return y.RecencyDays - x.RecencyDays
		}
		return strings.Compare(x.CustomerID, y.CustomerID)
	})
}

// ChurnTrend computes the cohort snapshot as of the end of each of the
// trailing `months` calendar months (oldest first, current month last). Each
// snapshot only sees orders placed up to that month's end; the current month
// is evaluated as of now.
func ChurnTrend(orders []models.OrderFact, now time.Time, loc *time.Location, months int, t ChurnThresholds) []models.ChurnTrendPoint {
	points := make([]models.ChurnTrendPoint, 0, months)
	localNow := now.In(loc)

	for i := months - 1; i >= 0; i-- {
		monthStart := time.Date(localNow.Year(), localNow.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, -i, 0)
		cutoff := monthEnd(monthStart)
		if cutoff.After(localNow) {
			cutoff = localNow
		}

		visible := make([]models.OrderFact, 0, len(orders))
		for _, o := range orders {
			if o.Timestamp.In(loc).Before(cutoff) {
				visible = append(visible, o)
			}
		}

		point := models.ChurnTrendPoint{Month: monthStart.Format("2006-01")}
		for _, c := range collectRecencies(visible, cutoff, loc) {
			point.Total++
			switch {
			case c.recency <= t.AtRiskDays:
				point.Active++
			case c.recency <= t.ChurnedDays:
				point.AtRisk++
			default:
				point.Churned++
			}
		}
		if point.Total > 0 {
			point.ChurnRate = float64(point.Churned) / float64(point.Total)
			point.RetentionRate = 1 - point.ChurnRate
		}
		points = append(points, point)
	}

	return points
}

func collectRecencies(orders []models.OrderFact, now time.Time, loc *time.Location) []customerRecency {
	last := make(map[string]time.Time)
	for _, o := range orders {
		if o.CustomerID == "" {
			continue
		}
		if o.Timestamp.After(last[o.CustomerID]) {
			last[o.CustomerID] = o.Timestamp
		}
	}

	today := dayStart(now.In(loc))
	result := make([]customerRecency, 0, len(last))
	for id, ts := range last {
		result = append(result, customerRecency{
			customerID: id,
			recency:    daysBetween(dayStart(ts.In(loc)), today),
		})
	}
	slices.SortFunc(result, func(a, b customerRecency) int {
		return strings.Compare(a.customerID, b.customerID)
	})
	return result
}
