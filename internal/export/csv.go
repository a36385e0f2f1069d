// Package export renders report objects to CSV for the download endpoints.
// It consumes the analytics core's results; it never computes anything.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"resto-insights/internal/models"
)

func WriteSalesCSV(w io.Writer, daily []models.DayBucket) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "orders_count", "revenue", "avg_check"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, d := range daily {
		avgCheck := 0.0
		if d.OrdersCount > 0 {
			avgCheck = d.Revenue / float64(d.OrdersCount)
		}
		record := []string{
			d.Date,
			strconv.Itoa(d.OrdersCount),
			formatMoney(d.Revenue),
			formatMoney(avgCheck),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func WriteABCCSV(w io.Writer, report models.ABCReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"dish_id", "dish_name", "metric_value", "revenue", "quantity", "percent_of_total", "cumulative_percent", "category"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, it := range report.Items {
		record := []string{
			it.DishID,
			it.DishName,
			formatMoney(it.MetricValue),
			formatMoney(it.Revenue),
			strconv.Itoa(it.Quantity),
			formatMoney(it.PercentOfTotal),
			formatMoney(it.CumulativePercent),
			it.Category,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func WriteRFMCSV(w io.Writer, report models.RFMReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"customer_id", "recency_days", "frequency", "monetary", "r_score", "f_score", "m_score", "rfm_score", "segment", "recommended_action"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, s := range report.Scores {
		record := []string{
			s.CustomerID,
			strconv.Itoa(s.RecencyDays),
			strconv.Itoa(s.Frequency),
			formatMoney(s.Monetary),
			strconv.Itoa(s.RScore),
			strconv.Itoa(s.FScore),
			strconv.Itoa(s.MScore),
			s.RFMScore,
			s.Segment,
			s.RecommendedAction,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func WriteChurnCSV(w io.Writer, report models.ChurnReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"customer_id", "recency_days", "churn_probability", "risk_level", "status", "recommended_action"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	write := func(status string, assessments []models.ChurnAssessment) error {
		for _, a := range assessments {
			record := []string{
				a.CustomerID,
				strconv.Itoa(a.RecencyDays),
				strconv.FormatFloat(a.ChurnProbability, 'f', 4, 64),
				a.RiskLevel,
				status,
				a.RecommendedAction,
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
		return nil
	}

	if err := write("at_risk", report.AtRisk); err != nil {
		return err
	}
	if err := write("churned", report.ChurnedRecently); err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
