package waste

import (
	"context"
	"math"
	"time"

	"github.com/i474232898/food-waste-optimizer/internal/common"
)

// Risk model weights.
const (
	modelWeight      = 0.6
	timeDecayWeight  = 0.4
	riskFloor        = 0.05
	tempDriftPerDay  = 0.3
	humidDriftPerDay = 0.5
	maxRiskScore     = 100.0
	positiveClassIdx = 1
)

// Calibration maps a product id to a flat offset added to its risk scores.
type Calibration map[string]float64

// Offset returns the configured offset for productID, 0 if none.
func (c Calibration) Offset(productID string) float64 {
	if c == nil {
		return 0
	}
	return c[productID]
}

// RiskEstimator blends the classifier's spoilage probability with a
// time-decay term into a 7-day risk forecast.
type RiskEstimator struct {
	classifier  Classifier
	calibration Calibration
	clock       Clock
}

// NewRiskEstimator creates a RiskEstimator. A nil classifier makes every
// estimate fail with ErrNotFound; a nil clock uses the system clock.
func NewRiskEstimator(classifier Classifier, calibration Calibration, clock Clock) *RiskEstimator {
	if clock == nil {
		clock = SystemClock{}
	}
	return &RiskEstimator{
		classifier:  classifier,
		calibration: calibration,
		clock:       clock,
	}
}

// Available reports whether a classifier is configured.
func (e *RiskEstimator) Available() bool {
	return e.classifier != nil
}

// TimeFactor is the risk contributed purely by distance into the horizon.
func TimeFactor(dayOffset int) float64 {
	return (float64(dayOffset) / float64(HorizonDays)) * timeDecayWeight
}

// Estimate returns the spoilage risk forecast for productID starting at start
// (today when nil).
func (e *RiskEstimator) Estimate(ctx context.Context, productID string, records []ProductRecord, start *time.Time) (RiskSummary, error) {
	const op = "estimate spoilage"

	if e.classifier == nil {
		return RiskSummary{}, NotFoundError(op, "spoilage classifier is not available")
	}

	stats, ok := AggregateStats(productID, records)
	if !ok {
		return RiskSummary{}, NotFoundError(op, "no records for product %s", productID)
	}

	day := truncateDay(e.clock.Now())
	if start != nil {
		day = truncateDay(*start)
	}

	points := make([]RiskPoint, 0, HorizonDays)
	var sum float64

	for i := 0; i < HorizonDays; i++ {
		shelfLife := stats.BaselineShelfLife - i
		if shelfLife < 0 {
			shelfLife = 0
		}
		features := []float64{
			stats.AvgTemperature + float64(i)*tempDriftPerDay,
			stats.AvgHumidity + float64(i)*humidDriftPerDay,
			stats.AvgRainfall,
			float64(shelfLife),
		}

		probs, err := e.classifier.PredictProba(ctx, features)
		if err != nil {
			return RiskSummary{}, ComputationError(op, err, "classifier failed for %s day %d", productID, i)
		}
		var p float64
		if len(probs) > positiveClassIdx {
			p = probs[positiveClassIdx]
		}

		finalRisk := math.Min(1.0, p*modelWeight+TimeFactor(i)+riskFloor)
		score := common.Round(finalRisk*100, 1)
		sum += score

		points = append(points, RiskPoint{
			Date:      Date(day.AddDate(0, 0, i)),
			RiskScore: score,
		})
	}

	avg := common.Round(sum/float64(HorizonDays), 1)

	if offset := e.calibration.Offset(productID); offset != 0 {
		avg = common.Round(avg+offset, 1)
		for i := range points {
			points[i].RiskScore = common.Round(points[i].RiskScore+offset, 1)
		}
	}

	for i := range points {
		points[i].RiskScore = common.Clamp(points[i].RiskScore, 0, maxRiskScore)
	}

	return RiskSummary{
		ProductID: productID,
		Forecast:  points,
		AvgRisk:   common.Clamp(avg, 0, maxRiskScore),
	}, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
