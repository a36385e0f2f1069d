package analytics

import (
	"math"
	"slices"
	"strings"
	"time"

	"resto-insights/internal/models"
)

const confidenceZ = 1.96 // 95% interval

type weekdaySeries struct {
	revenue [7][]float64
	orders  [7][]int
}

// Forecast is the baseline predictor: per-weekday historical averages plus a
// linear revenue trend. It returns exactly `days` points starting at the
// tenant-local today; empty history yields empty forecast and historical.
func Forecast(daily []models.DayBucket, days int, today time.Time, loc *time.Location) models.ForecastReport {
	report := models.ForecastReport{
		Forecast:   []models.ForecastPoint{},
		Historical: []models.DayBucket{},
		AvgByDay:   map[string]float64{},
	}
	if len(daily) == 0 || days <= 0 {
		return report
	}

	report.Historical = daily
	series := collectWeekdaySeries(daily)
	for wd := range 7 {
		if len(series.revenue[wd]) > 0 {
			report.AvgByDay[time.Weekday(wd).String()] = mean(series.revenue[wd])
		}
	}
	report.TrendSlope = linearSlope(daily)

	start := dayStart(today.In(loc))
	last := lastHistoricalDay(daily, loc)

	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i)
		report.Forecast = append(report.Forecast, baselinePoint(d, last, series, report.TrendSlope))
	}
	return report
}

// EnhancedForecast layers weekday seasonality and confidence intervals on top
// of the baseline. Seasonality factors are normalized to mean 1; intervals
// come from the per-weekday revenue variance; confidence shrinks when a
// weekday has few historical samples.
func EnhancedForecast(daily []models.DayBucket, days int, today time.Time, loc *time.Location) models.EnhancedForecastReport {
	report := models.EnhancedForecastReport{
		Forecast:    []models.EnhancedForecastPoint{},
		Historical:  []models.DayBucket{},
		AvgByDay:    map[string]float64{},
		Seasonality: map[string]float64{},
		DataQuality: models.DataQuality{Rating: "poor"},
	}
	if len(daily) == 0 || days <= 0 {
		return report
	}

	baseline := Forecast(daily, days, today, loc)
	report.Historical = baseline.Historical
	report.AvgByDay = baseline.AvgByDay
	report.TrendSlope = baseline.TrendSlope

	series := collectWeekdaySeries(daily)
	overall := overallMeanRevenue(daily)
	if overall > 0 {
		report.TrendPercent = baseline.TrendSlope / overall * 100
	}

	factors := seasonalityFactors(series, overall)
	minSamples := math.MaxInt
	for wd := range 7 {
		report.Seasonality[time.Weekday(wd).String()] = factors[wd]
		if n := len(series.revenue[wd]); n < minSamples {
			minSamples = n
		}
	}

	report.DataQuality = models.DataQuality{
		Rating:            qualityRating(minSamples),
		DaysOfHistory:     len(daily),
		MinWeekdaySamples: minSamples,
	}

	for _, base := range baseline.Forecast {
		wd := weekdayOf(base.Date, loc)
		predicted := base.PredictedRevenue * factors[wd]
		if predicted < 0 {
			predicted = 0
		}

		sd := stddev(series.revenue[wd])
		minRev := predicted - confidenceZ*sd
		if minRev < 0 {
			minRev = 0
		}

		confidence := weekdayConfidence(len(series.revenue[wd]))
		point := models.EnhancedForecastPoint{
			ForecastPoint:     base,
			Confidence:        confidence,
			ConfidencePercent: confidence * 100,
			RevenueMin:        minRev,
			RevenueMax:        predicted + confidenceZ*sd,
		}
		point.PredictedRevenue = predicted
		report.Forecast = append(report.Forecast, point)
	}
	return report
}

// CategoryForecasts runs the baseline machinery once per category over that
// category's own daily revenue series. Order counts per category count line
// occurrences, a per-category demand proxy.
func CategoryForecasts(orders []models.OrderFact, lines []models.OrderLineFact, from, to time.Time, days int, today time.Time, loc *time.Location) models.CategoryForecastReport {
	report := models.CategoryForecastReport{
		Categories: []models.CategoryForecast{},
		Days:       days,
	}

	orderDays := make(map[string]string, len(orders))
	for _, o := range orders {
		orderDays[o.ID] = o.Timestamp.In(loc).Format(dateLayout)
	}

	type catSeries struct {
		name    string
		revenue map[string]float64
		counts  map[string]int
	}
	cats := make(map[string]*catSeries)
	for _, l := range lines {
		day, ok := orderDays[l.OrderID]
		if !ok {
			continue
		}
		c := cats[l.CategoryID]
		if c == nil {
			c = &catSeries{name: l.CategoryName, revenue: map[string]float64{}, counts: map[string]int{}}
			cats[l.CategoryID] = c
		}
		c.revenue[day] += l.LineTotal
		c.counts[day]++
	}

	template := DailyBuckets(nil, from, to, loc)
	for id, c := range cats {
		daily := make([]models.DayBucket, len(template))
		copy(daily, template)
		for i := range daily {
			daily[i].Revenue = c.revenue[daily[i].Date]
			daily[i].OrdersCount = c.counts[daily[i].Date]
		}

		forecast := Forecast(daily, days, today, loc)
		total := 0.0
		for _, p := range forecast.Forecast {
			total += p.PredictedRevenue
		}
		report.Categories = append(report.Categories, models.CategoryForecast{
			CategoryID:       id,
			Name:             c.name,
			Forecast:         forecast.Forecast,
			PredictedRevenue: total,
		})
	}

	slices.SortFunc(report.Categories, func(a, b models.CategoryForecast) int {
		if a.PredictedRevenue > b.PredictedRevenue {
			return -1
		}
		if a.PredictedRevenue < b.PredictedRevenue {
			return 1
		}
		return strings.Compare(a.CategoryID, b.CategoryID)
	})
	return report
}

// StaffForecast derives staffing needs from the baseline order forecast via
// the configured ratios. Every forecast day gets at least one waiter and one
// cook; the floor is a minimum-shift rule, not a demand prediction.
func StaffForecast(daily []models.DayBucket, days int, today time.Time, loc *time.Location, ratios models.StaffingRatios) models.StaffForecastReport {
	report := models.StaffForecastReport{
		Forecast: []models.StaffForecastPoint{},
		Ratios:   ratios,
	}

	baseline := Forecast(daily, days, today, loc)
	for _, p := range baseline.Forecast {
		report.Forecast = append(report.Forecast, models.StaffForecastPoint{
			Date:            p.Date,
			DayName:         p.DayName,
			PredictedOrders: p.PredictedOrders,
			WaitersNeeded:   staffNeeded(p.PredictedOrders, ratios.OrdersPerWaiter),
			CooksNeeded:     staffNeeded(p.PredictedOrders, ratios.OrdersPerCook),
		})
	}
	return report
}

func staffNeeded(orders int, perStaff float64) int {
	if perStaff <= 0 {
		return 1
	}
	n := int(math.Ceil(float64(orders) / perStaff))
	if n < 1 {
		n = 1
	}
	return n
}

func baselinePoint(d, last time.Time, series weekdaySeries, slope float64) models.ForecastPoint {
	wd := int(d.Weekday())
	offset := float64(daysBetween(last, d))

	revenue := mean(series.revenue[wd]) + slope*offset
	if revenue < 0 {
		revenue = 0
	}

	orders := int(math.Round(meanInts(series.orders[wd])))
	if orders < 0 {
		orders = 0
	}

	return models.ForecastPoint{
		Date:             d.Format(dateLayout),
		DayName:          d.Weekday().String(),
		PredictedRevenue: revenue,
		PredictedOrders:  orders,
	}
}

func collectWeekdaySeries(daily []models.DayBucket) weekdaySeries {
	var series weekdaySeries
	for _, b := range daily {
		d, err := time.Parse(dateLayout, b.Date)
		if err != nil {
			continue
		}
		wd := int(d.Weekday())
		series.revenue[wd] = append(series.revenue[wd], b.Revenue)
		series.orders[wd] = append(series.orders[wd], b.OrdersCount)
	}
	return series
}

func lastHistoricalDay(daily []models.DayBucket, loc *time.Location) time.Time {
	last := daily[len(daily)-1]
	d, err := time.ParseInLocation(dateLayout, last.Date, loc)
	if err != nil {
		return dayStart(time.Now().In(loc))
	}
	return d
}

func weekdayOf(date string, loc *time.Location) int {
	d, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return 0
	}
	return int(d.Weekday())
}

// linearSlope fits revenue against day index with ordinary least squares.
func linearSlope(daily []models.DayBucket) float64 {
	n := float64(len(daily))
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, b := range daily {
		x := float64(i)
		sumX += x
		sumY += b.Revenue
		sumXY += x * b.Revenue
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// seasonalityFactors normalizes per-weekday revenue averages so the factors'
// mean is 1. Weekdays without history get a neutral factor of 1.
func seasonalityFactors(series weekdaySeries, overall float64) [7]float64 {
	var factors [7]float64
	for wd := range 7 {
		factors[wd] = 1
	}
	if overall <= 0 {
		return factors
	}

	raw := make([]float64, 0, 7)
	present := make([]int, 0, 7)
	for wd := range 7 {
		if len(series.revenue[wd]) == 0 {
			continue
		}
		raw = append(raw, mean(series.revenue[wd])/overall)
		present = append(present, wd)
	}
	if len(raw) == 0 {
		return factors
	}

	rawMean := mean(raw)
	if rawMean <= 0 {
		return factors
	}
	for i, wd := range present {
		factors[wd] = raw[i] / rawMean
	}
	return factors
}

// weekdayConfidence grows with the number of historical samples for the
// weekday: n/(n+3), capped at 0.95. Zero samples means zero confidence.
func weekdayConfidence(n int) float64 {
	if n <= 0 {
		return 0
	}
	c := float64(n) / float64(n+3)
	if c > 0.95 {
		c = 0.95
	}
	return c
}

func qualityRating(minSamples int) string {
	switch {
	case minSamples >= 4:
		return "good"
	case minSamples >= 2:
		return "fair"
	default:
		return "poor"
	}
}

func overallMeanRevenue(daily []models.DayBucket) float64 {
	total := 0.0
	for _, b := range daily {
		total += b.Revenue
	}
	return total / float64(len(daily))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func meanInts(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sq float64
	for _, v := range values {
		sq += (v - m) * (v - m)
	}
	return math.Sqrt(sq / float64(len(values)))
}
