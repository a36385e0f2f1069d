package models

// PeriodStats is the basic rollup over a date range. AvgCheck is 0 when no
// orders fell into the range.
type PeriodStats struct {
	OrdersCount int     `json:"orders_count"`
	Revenue     float64 `json:"revenue"`
	AvgCheck    float64 `json:"avg_check"`
}

type HourBucket struct {
	Hour        int     `json:"hour"`
	OrdersCount int     `json:"orders_count"`
	Revenue     float64 `json:"revenue"`
}

// DayBucket is one tenant-local calendar day. Date is YYYY-MM-DD.
type DayBucket struct {
	Date        string  `json:"date"`
	OrdersCount int     `json:"orders_count"`
	Revenue     float64 `json:"revenue"`
}

type DishSales struct {
	DishID   string  `json:"dish_id"`
	DishName string  `json:"dish_name"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

// WaiterSales is the per-waiter slice of the dashboard, keyed by the waiter
// id the ledger records against each order.
type WaiterSales struct {
	WaiterID    string  `json:"waiter_id"`
	OrdersCount int     `json:"orders_count"`
	Revenue     float64 `json:"revenue"`
	AvgCheck    float64 `json:"avg_check"`
}

type DashboardReport struct {
	Today            PeriodStats             `json:"today"`
	Yesterday        PeriodStats             `json:"yesterday"`
	Week             PeriodStats             `json:"week"`
	Month            PeriodStats             `json:"month"`
	TopDishes        []DishSales             `json:"top_dishes"`
	TopWaiters       []WaiterSales           `json:"top_waiters"`
	DailyTrend       []DayBucket             `json:"daily_trend"`
	TodayVsYesterday map[string]MetricChange `json:"today_vs_yesterday"`
}

type HourlyReport struct {
	Hours        []HourBucket `json:"hours"`
	PeakHours    []int        `json:"peak_hours"`
	TotalOrders  int          `json:"total_orders"`
	TotalRevenue float64      `json:"total_revenue"`
}

type CategorySales struct {
	CategoryID  string  `json:"id"`
	Name        string  `json:"name"`
	DishesCount int     `json:"dishes_count"`
	Quantity    int     `json:"quantity"`
	Revenue     float64 `json:"revenue"`
	Percent     float64 `json:"percent"`
}

type CategoryReport struct {
	Categories   []CategorySales `json:"categories"`
	TotalRevenue float64         `json:"total_revenue"`
}

type ABCItem struct {
	DishID            string  `json:"dish_id"`
	DishName          string  `json:"dish_name"`
	MetricValue       float64 `json:"metric_value"`
	Revenue           float64 `json:"revenue"`
	Quantity          int     `json:"quantity"`
	PercentOfTotal    float64 `json:"percent_of_total"`
	CumulativePercent float64 `json:"cumulative_percent"`
	Category          string  `json:"category"`
}

type ABCBucket struct {
	ItemsCount int     `json:"items_count"`
	Revenue    float64 `json:"revenue"`
	Percent    float64 `json:"percent"`
}

type ABCSummary struct {
	A ABCBucket `json:"A"`
	B ABCBucket `json:"B"`
	C ABCBucket `json:"C"`
}

type ABCReport struct {
	Items         []ABCItem   `json:"items"`
	Summary       *ABCSummary `json:"summary"`
	TotalRevenue  float64     `json:"total_revenue"`
	TotalQuantity int         `json:"total_quantity"`
	PeriodDays    int         `json:"period_days"`
	Metric        string      `json:"metric"`
}

// RFMScore holds one customer's recency/frequency/monetary scoring. RFMScore
// is the three digits concatenated, R first, e.g. "545".
type RFMScore struct {
	CustomerID        string  `json:"customer_id"`
	RecencyDays       int     `json:"recency_days"`
	Frequency         int     `json:"frequency"`
	Monetary          float64 `json:"monetary"`
	RScore            int     `json:"r_score"`
	FScore            int     `json:"f_score"`
	MScore            int     `json:"m_score"`
	RFMScore          string  `json:"rfm_score"`
	Segment           string  `json:"segment"`
	RecommendedAction string  `json:"recommended_action"`
}

type SegmentStats struct {
	Segment     string  `json:"segment"`
	Customers   int     `json:"customers"`
	Percent     float64 `json:"percent"`
	AvgMonetary float64 `json:"avg_monetary"`
}

type SegmentDescription struct {
	Segment     string `json:"segment"`
	Description string `json:"description"`
	Action      string `json:"action"`
}

type RFMSegmentsReport struct {
	Segments     []SegmentStats `json:"segments"`
	Distribution map[string]int `json:"distribution"`
	PeriodDays   int            `json:"period_days"`
}

type RFMReport struct {
	Scores       []RFMScore     `json:"scores"`
	Distribution map[string]int `json:"distribution"`
	Segments     []SegmentStats `json:"segments"`
	PeriodDays   int            `json:"period_days"`
}

type ChurnAssessment struct {
	CustomerID        string  `json:"customer_id"`
	RecencyDays       int     `json:"recency_days"`
	ChurnProbability  float64 `json:"churn_probability"`
	RiskLevel         string  `json:"risk_level"`
	RecommendedAction string  `json:"recommended_action"`
}

type CohortSummary struct {
	Total         int     `json:"total"`
	Active        int     `json:"active"`
	AtRisk        int     `json:"at_risk"`
	Churned       int     `json:"churned"`
	ChurnRate     float64 `json:"churn_rate"`
	RetentionRate float64 `json:"retention_rate"`
}

type ChurnReport struct {
	Summary         CohortSummary     `json:"summary"`
	AtRisk          []ChurnAssessment `json:"at_risk"`
	ChurnedRecently []ChurnAssessment `json:"churned_recently"`
}

type ChurnAlert struct {
	CustomerID  string `json:"customer_id"`
	RecencyDays int    `json:"recency_days"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
}

type ChurnAlertsReport struct {
	Critical []ChurnAlert `json:"critical"`
	Warning  []ChurnAlert `json:"warning"`
	Info     []ChurnAlert `json:"info"`
}

// ChurnTrendPoint is the cohort snapshot as of the end of one calendar month,
// computed only from orders placed up to that point.
type ChurnTrendPoint struct {
	Month         string  `json:"month"`
	Total         int     `json:"total"`
	Active        int     `json:"active"`
	AtRisk        int     `json:"at_risk"`
	Churned       int     `json:"churned"`
	ChurnRate     float64 `json:"churn_rate"`
	RetentionRate float64 `json:"retention_rate"`
}

type ForecastPoint struct {
	Date             string  `json:"date"`
	DayName          string  `json:"day_name"`
	PredictedRevenue float64 `json:"predicted_revenue"`
	PredictedOrders  int     `json:"predicted_orders"`
}

type EnhancedForecastPoint struct {
	ForecastPoint
	Confidence        float64 `json:"confidence"`
	ConfidencePercent float64 `json:"confidence_percent"`
	RevenueMin        float64 `json:"revenue_min"`
	RevenueMax        float64 `json:"revenue_max"`
}

type ForecastReport struct {
	Forecast   []ForecastPoint    `json:"forecast"`
	Historical []DayBucket        `json:"historical"`
	AvgByDay   map[string]float64 `json:"avg_by_day"`
	TrendSlope float64            `json:"trend_slope"`
}

type DataQuality struct {
	Rating            string `json:"rating"`
	DaysOfHistory     int    `json:"days_of_history"`
	MinWeekdaySamples int    `json:"min_weekday_samples"`
}

type EnhancedForecastReport struct {
	Forecast     []EnhancedForecastPoint `json:"forecast"`
	Historical   []DayBucket             `json:"historical"`
	AvgByDay     map[string]float64      `json:"avg_by_day"`
	TrendSlope   float64                 `json:"trend_slope"`
	TrendPercent float64                 `json:"trend_percent"`
	Seasonality  map[string]float64      `json:"seasonality"`
	DataQuality  DataQuality             `json:"data_quality"`
}

type CategoryForecast struct {
	CategoryID       string          `json:"category_id"`
	Name             string          `json:"name"`
	Forecast         []ForecastPoint `json:"forecast"`
	PredictedRevenue float64         `json:"predicted_revenue"`
}

type CategoryForecastReport struct {
	Categories []CategoryForecast `json:"categories"`
	Days       int                `json:"days"`
}

type StaffingRatios struct {
	OrdersPerWaiter float64 `json:"orders_per_waiter"`
	OrdersPerCook   float64 `json:"orders_per_cook"`
}

type StaffForecastPoint struct {
	Date            string `json:"date"`
	DayName         string `json:"day_name"`
	PredictedOrders int    `json:"predicted_orders"`
	WaitersNeeded   int    `json:"waiters_needed"`
	CooksNeeded     int    `json:"cooks_needed"`
}

type StaffForecastReport struct {
	Forecast []StaffForecastPoint `json:"forecast"`
	Ratios   StaffingRatios       `json:"ratios"`
}

type MetricChange struct {
	Period1 float64 `json:"period1"`
	Period2 float64 `json:"period2"`
	Diff    float64 `json:"diff"`
	Percent float64 `json:"percent"`
	Trend   string  `json:"trend"`
}

type PeriodSummary struct {
	From      string      `json:"from"`
	To        string      `json:"to"`
	Stats     PeriodStats `json:"stats"`
	TopDishes []DishSales `json:"top_dishes"`
}

type ComparisonReport struct {
	Period1 PeriodSummary           `json:"period1"`
	Period2 PeriodSummary           `json:"period2"`
	Changes map[string]MetricChange `json:"changes"`
}
