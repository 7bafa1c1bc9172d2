package waste

import (
	"context"
	"time"

	"github.com/i474232898/food-waste-optimizer/internal/geo"
)

// DatasetReader supplies every daily record for every product.
type DatasetReader interface {
	ReadAll(ctx context.Context) ([]ProductRecord, error)
}

// Classifier is the shared spoilage classifier. Features are
// [temperature, humidity, rainfall, shelf_life]; the result holds one
// probability per class, class 1 meaning spoiled.
type Classifier interface {
	PredictProba(ctx context.Context, features []float64) ([]float64, error)
}

// ForecastModel is a trained per-product demand model.
type ForecastModel interface {
	Predict(ctx context.Context, horizon int) ([]ForecastEstimate, error)
}

// ModelLoader loads a product's forecasting model. It returns an error
// matching ErrNotFound when no model exists for the product.
type ModelLoader interface {
	Load(ctx context.Context, productID string) (ForecastModel, error)
}

// ModelCatalog is implemented by loaders that can list their models.
type ModelCatalog interface {
	Available(ctx context.Context) ([]string, error)
}

// RecipientDirectory lists the organizations that can receive stock.
type RecipientDirectory interface {
	ListAll(ctx context.Context) ([]Recipient, error)
}

// Inventory reports on-hand stock for a product.
type Inventory interface {
	Lookup(ctx context.Context, productID string) (StockItem, error)
}

// Clock supplies "today" when no start date is given.
type Clock interface {
	Now() time.Time
}

// PlanStore persists route plans per origin.
type PlanStore interface {
	SavePlan(ctx context.Context, origin geo.Point, plan RoutePlan) error
	GetLatest(ctx context.Context, origin geo.Point) (RoutePlan, error)
	GetRange(ctx context.Context, origin geo.Point, from, to time.Time) ([]RoutePlan, error)
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock time.Time

// Now implements Clock.
func (c FixedClock) Now() time.Time { return time.Time(c) }

// FixedStock reports the same quantity for every product. It stands in for a
// real inventory system.
type FixedStock struct {
	Quantity int
}

// Lookup implements Inventory.
func (s FixedStock) Lookup(_ context.Context, productID string) (StockItem, error) {
	return StockItem{Name: "Product " + productID, Quantity: s.Quantity}, nil
}
