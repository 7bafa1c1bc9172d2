package waste

import (
	"time"

	"github.com/i474232898/food-waste-optimizer/internal/geo"
)

// HorizonDays is the fixed forecast window used for demand and spoilage.
const HorizonDays = 7

// DateLayout is the calendar-date format used on the wire.
const DateLayout = "2006-01-02"

// ProductRecord is one daily aggregated observation for a product.
type ProductRecord struct {
	ProductID     string    `json:"product_id"`
	Date          time.Time `json:"date"`
	Temperature   float64   `json:"temperature"`
	Humidity      float64   `json:"humidity"`
	RainfallMM    float64   `json:"rainfall_mm"`
	ShelfLifeDays int       `json:"shelf_life_days"`
	UnitsSold     int       `json:"units_sold"`
}

// ProductStats is the per-product aggregate the risk estimator scores from.
// BaselineShelfLife is taken from the first matching record, not averaged.
type ProductStats struct {
	ProductID         string  `json:"product_id"`
	AvgTemperature    float64 `json:"avg_temperature"`
	AvgHumidity       float64 `json:"avg_humidity"`
	AvgRainfall       float64 `json:"avg_rainfall"`
	BaselineShelfLife int     `json:"baseline_shelf_life"`
	Records           int     `json:"records"`
}

// Date is a calendar day that marshals as YYYY-MM-DD.
type Date time.Time

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(d).Format(DateLayout) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	if len(b) < 2 {
		return &time.ParseError{Layout: DateLayout, Value: string(b)}
	}
	t, err := time.Parse(DateLayout, string(b[1:len(b)-1]))
	if err != nil {
		return err
	}
	*d = Date(t)
	return nil
}

// Time returns the underlying time.
func (d Date) Time() time.Time { return time.Time(d) }

// String implements fmt.Stringer.
func (d Date) String() string { return time.Time(d).Format(DateLayout) }

// RiskPoint is the spoilage risk for a single day of the horizon.
type RiskPoint struct {
	Date      Date    `json:"date"`
	RiskScore float64 `json:"risk_score"`
}

// RiskSummary is a 7-day spoilage risk forecast for one product.
type RiskSummary struct {
	ProductID string      `json:"product_id"`
	Forecast  []RiskPoint `json:"forecast"`
	AvgRisk   float64     `json:"avg_risk"`
}

// DemandPoint is a non-negative integer demand estimate for one day.
type DemandPoint struct {
	Date  Date `json:"date"`
	Value int  `json:"value"`
}

// DemandForecast is a 7-day demand forecast for one product.
type DemandForecast struct {
	ProductID   string        `json:"product_id"`
	Forecast    []DemandPoint `json:"forecast"`
	TotalDemand int           `json:"total_demand"`
}

// Recipient is an organization that can receive redistributed stock.
type Recipient struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Point returns the recipient's coordinates.
func (r Recipient) Point() geo.Point {
	return geo.Point{Lat: r.Lat, Lon: r.Lon}
}

// RecipientMatch is a ranked candidate recipient for a product.
type RecipientMatch struct {
	RecipientID      string  `json:"recipient_id"`
	Name             string  `json:"name"`
	DistanceKm       float64 `json:"distance_km"`
	Address          string  `json:"address"`
	SuitabilityScore float64 `json:"suitability_score"`
}

// RouteRecommendation pairs a high-risk product with its nearest recipients.
type RouteRecommendation struct {
	ProductID             string           `json:"product_id"`
	ProductName           string           `json:"product_name"`
	RiskScore             float64          `json:"risk_score"`
	Quantity              int              `json:"quantity"`
	RecommendedRecipients []RecipientMatch `json:"recommended_recipients"`
}

// RoutePlan is one route-optimization run, as stored and served.
type RoutePlan struct {
	ID          string                `json:"id"`
	GeneratedAt time.Time             `json:"generated_at"` // always UTC
	Origin      geo.Point             `json:"store_location"`
	Routes      []RouteRecommendation `json:"optimized_routes"`
}

// StockItem is what the inventory collaborator knows about a product.
type StockItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// ForecastEstimate is a raw point estimate returned by a forecasting model.
type ForecastEstimate struct {
	Date     time.Time `json:"date"`
	Estimate float64   `json:"yhat"`
}

// Health reports which model capabilities are currently usable.
type Health struct {
	Status            string   `json:"status"`
	ModelsAvailable   bool     `json:"models_available"`
	SpoilageModel     bool     `json:"spoilage_model"`
	DemandModelsFound []string `json:"demand_models_found"`
}
