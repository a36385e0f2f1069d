package analytics

import (
	"context"
	"log/slog"
	"time"

	"resto-insights/internal/config"
	apperrors "resto-insights/internal/errors"
	"resto-insights/internal/ledger"
	"resto-insights/internal/models"
	"golang.org/x/sync/errgroup"
)

// Service orchestrates report computation over the ledger collaborator. It
// holds no mutable state: every report is a pure function of (restaurant,
// date range, parameters), so concurrent requests need no coordination.
type Service struct {
	ledger ledger.Ledger
	cfg    config.AnalyticsConfig
	loc    *time.Location
	logger *slog.Logger
	now    func() time.Time
}

func NewService(l ledger.Ledger, cfg config.AnalyticsConfig, logger *slog.Logger) *Service {
	return &Service{
		ledger: l,
		cfg:    cfg,
		loc:    cfg.Location(),
		logger: logger,
		now:    time.Now,
	}
}

// Dashboard assembles today/yesterday/week/month rollups, the trailing
// two-week daily trend, and the trailing week's top dishes and per-waiter
// totals. Sub-reports are independent and computed in parallel.
func (s *Service) Dashboard(ctx context.Context, restaurantID string) (models.DashboardReport, error) {
	var report models.DashboardReport

	now := s.now().In(s.loc)
	today := dayStart(now)
	monthFrom := today.AddDate(0, 0, -29)

	monthFacts, err := s.orders(ctx, restaurantID, monthFrom, now)
	if err != nil {
		return report, err
	}

	yesterday := today.AddDate(0, 0, -1)
	weekFrom := today.AddDate(0, 0, -6)
	trendFrom := today.AddDate(0, 0, -13)

	todayFacts := filterRange(monthFacts, today, now)
	yesterdayFacts := filterRange(monthFacts, yesterday, today)
	weekFacts := filterRange(monthFacts, weekFrom, now)

	weekLines, err := s.linesFor(ctx, weekFacts)
	if err != nil {
		return report, err
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		report.Today = Rollup(todayFacts)
		return nil
	})
	g.Go(func() error {
		report.Yesterday = Rollup(yesterdayFacts)
		return nil
	})
	g.Go(func() error {
		report.Week = Rollup(weekFacts)
		return nil
	})
	g.Go(func() error {
		report.Month = Rollup(monthFacts)
		return nil
	})
	g.Go(func() error {
		report.TopDishes = TopDishes(weekLines, topDishesLimit)
		return nil
	})
	g.Go(func() error {
		report.TopWaiters = WaiterRollup(weekFacts)
		return nil
	})
	g.Go(func() error {
		report.DailyTrend = DailyBuckets(filterRange(monthFacts, trendFrom, now), trendFrom, today, s.loc)
		return nil
	})
	if err := g.Wait(); err != nil {
		return report, err
	}

	report.TodayVsYesterday = StatChanges(report.Yesterday, report.Today)
	return report, nil
}

func (s *Service) Hourly(ctx context.Context, restaurantID string, periodDays int) (models.HourlyReport, error) {
	days := s.clampPeriod(periodDays)
	from, now := s.trailingWindow(days)

	facts, err := s.orders(ctx, restaurantID, from, now)
	if err != nil {
		return models.HourlyReport{}, err
	}

	hours := HourlyBuckets(facts, s.loc)
	stats := Rollup(facts)
	return models.HourlyReport{
		Hours:        hours,
		PeakHours:    PeakHours(hours, s.cfg.PeakHourTolerance),
		TotalOrders:  stats.OrdersCount,
		TotalRevenue: stats.Revenue,
	}, nil
}

// Categories breaks revenue down by menu category. With both bounds zero the
// default trailing period applies; a single zero bound stays open on that
// side, matching the ledger's range semantics.
func (s *Service) Categories(ctx context.Context, restaurantID string, from, to time.Time) (models.CategoryReport, error) {
	if from.IsZero() && to.IsZero() {
		from, to = s.trailingWindow(s.cfg.DefaultPeriodDays)
	}

	facts, err := s.orders(ctx, restaurantID, from, to)
	if err != nil {
		return models.CategoryReport{}, err
	}
	lines, err := s.linesFor(ctx, facts)
	if err != nil {
		return models.CategoryReport{}, err
	}

	return CategoryBreakdown(lines), nil
}

func (s *Service) ABC(ctx context.Context, restaurantID string, periodDays int, metric string) (models.ABCReport, error) {
	days := s.clampPeriod(periodDays)
	from, now := s.trailingWindow(days)

	facts, err := s.orders(ctx, restaurantID, from, now)
	if err != nil {
		return models.ABCReport{}, err
	}
	lines, err := s.linesFor(ctx, facts)
	if err != nil {
		return models.ABCReport{}, err
	}

	thresholds := ABCThresholds{A: s.cfg.ABCThresholdA, B: s.cfg.ABCThresholdB}
	return ClassifyABC(lines, metric, thresholds, days), nil
}

func (s *Service) RFM(ctx context.Context, restaurantID string, periodDays int) (models.RFMReport, error) {
	days := s.clampPeriod(periodDays)
	from, now := s.trailingWindow(days)

	facts, err := s.orders(ctx, restaurantID, from, now)
	if err != nil {
		return models.RFMReport{}, err
	}

	bands := RFMBands{High: s.cfg.RFMHighScore, Low: s.cfg.RFMLowScore}
	return ScoreRFM(facts, now, s.loc, days, bands), nil
}

func (s *Service) RFMSegments(ctx context.Context, restaurantID string, periodDays int) (models.RFMSegmentsReport, error) {
	report, err := s.RFM(ctx, restaurantID, periodDays)
	if err != nil {
		return models.RFMSegmentsReport{}, err
	}
	return models.RFMSegmentsReport{
		Segments:     report.Segments,
		Distribution: report.Distribution,
		PeriodDays:   report.PeriodDays,
	}, nil
}

// Churn assesses the cohort over the full order history. The ledger's
// customer list widens the cohort with customers that have never ordered.
func (s *Service) Churn(ctx context.Context, restaurantID string) (models.ChurnReport, error) {
	facts, now, err := s.fullHistory(ctx, restaurantID)
	if err != nil {
		return models.ChurnReport{}, err
	}
	known, err := s.customers(ctx, restaurantID)
	if err != nil {
		return models.ChurnReport{}, err
	}
	return AnalyzeChurn(facts, known, now, s.loc, s.churnThresholds()), nil
}

func (s *Service) ChurnAlerts(ctx context.Context, restaurantID string) (models.ChurnAlertsReport, error) {
	facts, now, err := s.fullHistory(ctx, restaurantID)
	if err != nil {
		return models.ChurnAlertsReport{}, err
	}
	return ChurnAlerts(facts, now, s.loc, s.churnThresholds()), nil
}

func (s *Service) ChurnTrend(ctx context.Context, restaurantID string, months int) ([]models.ChurnTrendPoint, error) {
	if months < 1 {
		months = 6
	}
	if months > s.cfg.MaxTrendMonths {
		months = s.cfg.MaxTrendMonths
	}

	facts, now, err := s.fullHistory(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	return ChurnTrend(facts, now, s.loc, months, s.churnThresholds()), nil
}

func (s *Service) Forecast(ctx context.Context, restaurantID string, days int) (models.ForecastReport, error) {
	daily, now, err := s.forecastHistory(ctx, restaurantID)
	if err != nil {
		return models.ForecastReport{}, err
	}
	return Forecast(daily, s.clampForecast(days), now, s.loc), nil
}

func (s *Service) EnhancedForecast(ctx context.Context, restaurantID string, days int) (models.EnhancedForecastReport, error) {
	daily, now, err := s.forecastHistory(ctx, restaurantID)
	if err != nil {
		return models.EnhancedForecastReport{}, err
	}
	return EnhancedForecast(daily, s.clampForecast(days), now, s.loc), nil
}

func (s *Service) CategoryForecast(ctx context.Context, restaurantID string, days int) (models.CategoryForecastReport, error) {
	now := s.now().In(s.loc)
	today := dayStart(now)
	from := today.AddDate(0, 0, -s.cfg.ForecastHistoryDays)

	facts, err := s.orders(ctx, restaurantID, from, today)
	if err != nil {
		return models.CategoryForecastReport{}, err
	}
	lines, err := s.linesFor(ctx, facts)
	if err != nil {
		return models.CategoryForecastReport{}, err
	}

	yesterday := today.AddDate(0, 0, -1)
	return CategoryForecasts(facts, lines, from, yesterday, s.clampForecast(days), now, s.loc), nil
}

func (s *Service) StaffForecast(ctx context.Context, restaurantID string, days int) (models.StaffForecastReport, error) {
	daily, now, err := s.forecastHistory(ctx, restaurantID)
	if err != nil {
		return models.StaffForecastReport{}, err
	}
	ratios := models.StaffingRatios{
		OrdersPerWaiter: s.cfg.OrdersPerWaiter,
		OrdersPerCook:   s.cfg.OrdersPerCook,
	}
	return StaffForecast(daily, s.clampForecast(days), now, s.loc, ratios), nil
}

// Comparison compares two explicit periods. When any bound is missing the
// default is the trailing 7 days as period2 against the 7 days immediately
// before as period1, so the delta reads newer-minus-older.
func (s *Service) Comparison(ctx context.Context, restaurantID string, p1From, p1To, p2From, p2To time.Time) (models.ComparisonReport, error) {
	if p1From.IsZero() || p1To.IsZero() || p2From.IsZero() || p2To.IsZero() {
		now := s.now().In(s.loc)
		today := dayStart(now)
		p2From, p2To = today.AddDate(0, 0, -6), now
		p1From, p1To = today.AddDate(0, 0, -13), p2From
	}

	facts1, err := s.orders(ctx, restaurantID, p1From, p1To)
	if err != nil {
		return models.ComparisonReport{}, err
	}
	facts2, err := s.orders(ctx, restaurantID, p2From, p2To)
	if err != nil {
		return models.ComparisonReport{}, err
	}
	lines1, err := s.linesFor(ctx, facts1)
	if err != nil {
		return models.ComparisonReport{}, err
	}
	lines2, err := s.linesFor(ctx, facts2)
	if err != nil {
		return models.ComparisonReport{}, err
	}

	p1 := models.PeriodSummary{From: p1From.In(s.loc).Format(dateLayout), To: p1To.In(s.loc).Format(dateLayout)}
	p2 := models.PeriodSummary{From: p2From.In(s.loc).Format(dateLayout), To: p2To.In(s.loc).Format(dateLayout)}
	return Compare(p1, facts1, lines1, p2, facts2, lines2), nil
}

// DailySales is the daily rollup series behind the sales export.
func (s *Service) DailySales(ctx context.Context, restaurantID string, periodDays int) ([]models.DayBucket, error) {
	days := s.clampPeriod(periodDays)
	from, now := s.trailingWindow(days)

	facts, err := s.orders(ctx, restaurantID, from, now)
	if err != nil {
		return nil, err
	}
	return DailyBuckets(facts, from, dayStart(now), s.loc), nil
}

// ParseDay parses a YYYY-MM-DD value as a tenant-local midnight.
func (s *Service) ParseDay(value string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, value, s.loc)
}

func (s *Service) clampPeriod(days int) int {
	if days < 1 {
		return s.cfg.DefaultPeriodDays
	}
	if days > s.cfg.MaxPeriodDays {
		return s.cfg.MaxPeriodDays
	}
	return days
}

func (s *Service) clampForecast(days int) int {
	if days < 1 {
		return s.cfg.DefaultForecastDays
	}
	if days > s.cfg.MaxForecastDays {
		return s.cfg.MaxForecastDays
	}
	return days
}

func (s *Service) churnThresholds() ChurnThresholds {
	return ChurnThresholds{
		AtRiskDays:  s.cfg.AtRiskDays,
		ChurnedDays: s.cfg.ChurnedDays,
	}
}

// trailingWindow returns the half-open window covering the trailing `days`
// tenant-local calendar days including today, plus the current time.
func (s *Service) trailingWindow(days int) (time.Time, time.Time) {
	now := s.now().In(s.loc)
	return dayStart(now).AddDate(0, 0, -(days - 1)), now
}

// forecastHistory loads the complete-day series preceding today. No orders
// in the window means no history, which the forecasters treat as empty.
func (s *Service) forecastHistory(ctx context.Context, restaurantID string) ([]models.DayBucket, time.Time, error) {
	now := s.now().In(s.loc)
	today := dayStart(now)
	from := today.AddDate(0, 0, -s.cfg.ForecastHistoryDays)

	facts, err := s.orders(ctx, restaurantID, from, today)
	if err != nil {
		return nil, now, err
	}
	if len(facts) == 0 {
		return nil, now, nil
	}
	return DailyBuckets(facts, from, today.AddDate(0, 0, -1), s.loc), now, nil
}

func (s *Service) fullHistory(ctx context.Context, restaurantID string) ([]models.OrderFact, time.Time, error) {
	now := s.now().In(s.loc)
	facts, err := s.orders(ctx, restaurantID, time.Time{}, now)
	if err != nil {
		return nil, now, err
	}
	return facts, now, nil
}

func (s *Service) orders(ctx context.Context, restaurantID string, from, to time.Time) ([]models.OrderFact, error) {
	facts, err := s.ledger.Orders(ctx, restaurantID, from, to)
	if err != nil {
		s.logger.Error("ledger order read failed", "restaurant_id", restaurantID, "error", err)
		return nil, apperrors.UpstreamWrap(err, "Order ledger is unavailable")
	}
	return facts, nil
}

func (s *Service) customers(ctx context.Context, restaurantID string) ([]models.CustomerFact, error) {
	known, err := s.ledger.Customers(ctx, restaurantID)
	if err != nil {
		s.logger.Error("ledger customer read failed", "restaurant_id", restaurantID, "error", err)
		return nil, apperrors.UpstreamWrap(err, "Order ledger is unavailable")
	}
	return known, nil
}

func (s *Service) linesFor(ctx context.Context, facts []models.OrderFact) ([]models.OrderLineFact, error) {
	ids := make([]string, 0, len(facts))
	for _, f := range facts {
		ids = append(ids, f.ID)
	}

	lines, err := s.ledger.OrderLines(ctx, ids)
	if err != nil {
		s.logger.Error("ledger line read failed", "orders", len(ids), "error", err)
		return nil, apperrors.UpstreamWrap(err, "Order ledger is unavailable")
	}
	return lines, nil
}

func filterRange(facts []models.OrderFact, from, to time.Time) []models.OrderFact {
	result := make([]models.OrderFact, 0, len(facts))
	for _, f := range facts {
		if f.Timestamp.Before(from) || !f.Timestamp.Before(to) {
			continue
		}
		result = append(result, f)
	}
	return result
}
