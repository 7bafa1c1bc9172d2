package waste

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/i474232898/food-waste-optimizer/internal/common"
	"github.com/i474232898/food-waste-optimizer/internal/geo"
)

// Route optimizer defaults.
const (
	DefaultRiskThreshold = 45.0
	DefaultTopK          = 2
	DefaultStock         = 50

	suitabilityPerKm = 5.0
)

// DefaultOrigin is the central warehouse location.
var DefaultOrigin = geo.Point{Lat: 12.9716, Lon: 77.5946}

// RouteOptions configures a RouteOptimizer.
type RouteOptions struct {
	Threshold float64
	TopK      int
	Origin    geo.Point
	Inventory Inventory
}

// RouteOptimizer selects high-risk products and ranks nearby recipients.
type RouteOptimizer struct {
	estimator *RiskEstimator
	opts      RouteOptions
}

// NewRouteOptimizer creates a RouteOptimizer. A zero TopK or nil Inventory
// falls back to the defaults; the threshold and origin are used as given.
func NewRouteOptimizer(estimator *RiskEstimator, opts RouteOptions) *RouteOptimizer {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.Inventory == nil {
		opts.Inventory = FixedStock{Quantity: DefaultStock}
	}
	return &RouteOptimizer{estimator: estimator, opts: opts}
}

// Origin returns the location distances are measured from.
func (o *RouteOptimizer) Origin() geo.Point {
	return o.opts.Origin
}

// Optimize scores each product, keeps those whose average risk exceeds the
// threshold, and attaches the TopK nearest recipients to each. Products with
// no records are skipped. Output follows the order of products.
func (o *RouteOptimizer) Optimize(ctx context.Context, products []string, records []ProductRecord, recipients []Recipient) ([]RouteRecommendation, error) {
	const op = "optimize routes"

	if len(recipients) == 0 {
		return nil, ConfigurationError(op, nil, "recipient directory is empty")
	}

	routes := make([]RouteRecommendation, 0)
	for _, productID := range products {
		summary, err := o.estimator.Estimate(ctx, productID, records, nil)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		if summary.AvgRisk <= o.opts.Threshold {
			continue
		}

		stock, err := o.opts.Inventory.Lookup(ctx, productID)
		if err != nil {
			return nil, ComputationError(op, err, "inventory lookup for %s", productID)
		}

		routes = append(routes, RouteRecommendation{
			ProductID:             productID,
			ProductName:           stock.Name,
			RiskScore:             summary.AvgRisk,
			Quantity:              stock.Quantity,
			RecommendedRecipients: o.rank(recipients),
		})
	}
	return routes, nil
}

// rank orders recipients nearest-first from the origin and keeps TopK.
// Ties keep directory order.
func (o *RouteOptimizer) rank(recipients []Recipient) []RecipientMatch {
	matches := make([]RecipientMatch, 0, len(recipients))
	for _, r := range recipients {
		d := o.opts.Origin.DistanceTo(r.Point())
		matches = append(matches, RecipientMatch{
			RecipientID:      r.ID,
			Name:             r.Name,
			DistanceKm:       common.Round(d, 2),
			Address:          r.Address,
			SuitabilityScore: common.Round(Suitability(d), 1),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].DistanceKm < matches[j].DistanceKm
	})

	if len(matches) > o.opts.TopK {
		matches = matches[:o.opts.TopK]
	}
	return matches
}

// Suitability decays linearly from 100 at the origin to 0 at 20 km.
func Suitability(distanceKm float64) float64 {
	return math.Max(0, 100-distanceKm*suitabilityPerKm)
}
