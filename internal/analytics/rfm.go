package analytics

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"resto-insights/internal/models"
)

// RFMBands are the segment band cutoffs: a score >= High counts as "high",
// <= Low counts as "low", anything between is "mid".
type RFMBands struct {
	High int
	Low  int
}

// Segment names. Every (r,f,m) combination maps to exactly one of these.
const (
	SegmentChampions        = "Champions"
	SegmentLoyal            = "Loyal"
	SegmentPotentialLoyal   = "Potential Loyalist"
	SegmentNew              = "New"
	SegmentPromising        = "Promising"
	SegmentNeedAttention    = "Need Attention"
	SegmentAtRisk           = "At Risk"
	SegmentHibernating      = "Hibernating"
	SegmentLost             = "Lost"
)

type rfmMeasures struct {
	customerID string
	recency    int
	frequency  int
	monetary   float64
}

// ScoreRFM scores every customer that placed at least one eligible order in
// the window. Customers with zero orders are absent from the result, not
// zero-scored. Scores are rank-based quintiles against the observed
// distribution: customers are stably ordered worst-to-best per measure
// (ties broken by customer id) and scored rank*5/n+1, so the output is
// deterministic for a given fact set.
func ScoreRFM(orders []models.OrderFact, now time.Time, loc *time.Location, periodDays int, bands RFMBands) models.RFMReport {
	report := models.RFMReport{
		Scores:       []models.RFMScore{},
		Distribution: map[string]int{},
		Segments:     []models.SegmentStats{},
		PeriodDays:   periodDays,
	}

	measures := collectMeasures(orders, now, loc)
	if len(measures) == 0 {
		return report
	}

	// Lower recency is better; higher frequency/monetary are better.
	rScores := quintileScores(measures, func(m rfmMeasures) float64 { return -float64(m.recency) })
	fScores := quintileScores(measures, func(m rfmMeasures) float64 { return float64(m.frequency) })
	mScores := quintileScores(measures, func(m rfmMeasures) float64 { return m.monetary })

	monetaryBySegment := make(map[string]float64)
	for _, m := range measures {
		r, f, mm := rScores[m.customerID], fScores[m.customerID], mScores[m.customerID]
		segment, action := segmentFor(r, f, mm, bands)

		report.Scores = append(report.Scores, models.RFMScore{
			CustomerID:        m.customerID,
			RecencyDays:       m.recency,
			Frequency:         m.frequency,
			Monetary:          m.monetary,
			RScore:            r,
			FScore:            f,
			MScore:            mm,
			RFMScore:          fmt.Sprintf("%d%d%d", r, f, mm),
			Segment:           segment,
			RecommendedAction: action,
		})
		report.Distribution[segment]++
		monetaryBySegment[segment] += m.monetary
	}

	slices.SortFunc(report.Scores, func(a, b models.RFMScore) int {
		if a.RFMScore != b.RFMScore {
			return strings.Compare(b.RFMScore, a.RFMScore)
		}
		return strings.Compare(a.CustomerID, b.CustomerID)
	})

	total := len(measures)
	for segment, count := range report.Distribution {
		report.Segments = append(report.Segments, models.SegmentStats{
			Segment:     segment,
			Customers:   count,
			Percent:     float64(count) / float64(total) * 100,
			AvgMonetary: monetaryBySegment[segment] / float64(count),
		})
	}
	slices.SortFunc(report.Segments, func(a, b models.SegmentStats) int {
		if a.Customers != b.Customers {
			return b.Customers - a.Customers
		}
		return strings.Compare(a.Segment, b.Segment)
	})

	return report
}

func collectMeasures(orders []models.OrderFact, now time.Time, loc *time.Location) []rfmMeasures {
	type agg struct {
		last      time.Time
		frequency int
		monetary  float64
	}

	groups := make(map[string]*agg)
	for _, o := range orders {
		if o.CustomerID == "" {
			continue // walk-in orders carry no customer
		}
		a := groups[o.CustomerID]
		if a == nil {
			a = &agg{}
			groups[o.CustomerID] = a
		}
		a.frequency++
		a.monetary += o.Total
		if o.Timestamp.After(a.last) {
			a.last = o.Timestamp
		}
	}

	today := dayStart(now.In(loc))
	measures := make([]rfmMeasures, 0, len(groups))
	for id, a := range groups {
		measures = append(measures, rfmMeasures{
			customerID: id,
			recency:    daysBetween(dayStart(a.last.In(loc)), today),
			frequency:  a.frequency,
			monetary:   a.monetary,
		})
	}
	slices.SortFunc(measures, func(a, b rfmMeasures) int {
		return strings.Compare(a.customerID, b.customerID)
	})
	return measures
}

// quintileScores assigns 1..5 by rank position against the observed
// distribution. value must be oriented so that higher is better.
func quintileScores(measures []rfmMeasures, value func(rfmMeasures) float64) map[string]int {
	sorted := slices.Clone(measures)
	slices.SortStableFunc(sorted, func(a, b rfmMeasures) int {
		va, vb := value(a), value(b)
		if va < vb {
			return -1
		}
		if va > vb {
			return 1
		}
		return strings.Compare(a.customerID, b.customerID)
	})

	n := len(sorted)
	scores := make(map[string]int, n)
	for i, m := range sorted {
		scores[m.customerID] = i*5/n + 1
	}
	return scores
}

// segmentFor is the fixed (r,f,m) band to segment lookup. Case order matters:
// earlier rules win, so a low-recency big spender is At Risk, not Loyal.
func segmentFor(r, f, m int, bands RFMBands) (string, string) {
	high := func(s int) bool { return s >= bands.High }
	low := func(s int) bool { return s <= bands.Low }

	switch {
	case high(r) && high(f) && high(m):
		return SegmentChampions, "Reward them; they can become ambassadors"
	case low(r) && (high(f) || high(m)):
		return SegmentAtRisk, "Win them back with a personal reactivation offer"
	case high(f) && high(m):
		return SegmentLoyal, "Upsell higher-value dishes and ask for reviews"
	case low(r) && low(f) && low(m):
		if r == 1 {
			return SegmentLost, "Revive with a one-off campaign or let them go"
		}
		return SegmentHibernating, "Offer a comeback discount before they are lost"
	case high(r) && low(f):
		return SegmentNew, "Onboard well; early experience decides retention"
	case high(r):
		return SegmentPromising, "Create brand awareness and first loyalty perks"
	case low(r):
		return SegmentNeedAttention, "Reactivate with limited-time offers"
	default:
		return SegmentPotentialLoyal, "Recommend favorites and nudge a repeat visit"
	}
}

// SegmentDescriptions is the static description table behind the
// rfm/descriptions endpoint; it is independent of any computed data.
func SegmentDescriptions() []models.SegmentDescription {
	return []models.SegmentDescription{
		{Segment: SegmentChampions, Description: "Bought recently, order often, spend the most", Action: "Reward them; they can become ambassadors"},
		{Segment: SegmentLoyal, Description: "Order often and spend well, not always recent", Action: "Upsell higher-value dishes and ask for reviews"},
		{Segment: SegmentPotentialLoyal, Description: "Recent customers with average frequency and spend", Action: "Recommend favorites and nudge a repeat visit"},
		{Segment: SegmentNew, Description: "First orders within the window, low frequency so far", Action: "Onboard well; early experience decides retention"},
		{Segment: SegmentPromising, Description: "Recent but low spenders", Action: "Create brand awareness and first loyalty perks"},
		{Segment: SegmentNeedAttention, Description: "Slipping recency with unremarkable frequency and spend", Action: "Reactivate with limited-time offers"},
		{Segment: SegmentAtRisk, Description: "Used to order often or spend well, has gone quiet", Action: "Win them back with a personal reactivation offer"},
		{Segment: SegmentHibernating, Description: "Long inactive, low frequency and spend", Action: "Offer a comeback discount before they are lost"},
		{Segment: SegmentLost, Description: "Lowest recency, frequency and spend", Action: "Revive with a one-off campaign or let them go"},
	}
}
