package waste

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/food-waste-optimizer/internal/metrics"
)

// Service wires the decision pipeline to its collaborators.
type Service struct {
	dataset    DatasetReader
	directory  RecipientDirectory
	estimator  *RiskEstimator
	forecaster *DemandForecaster
	optimizer  *RouteOptimizer
	store      PlanStore
	catalog    ModelCatalog
	clock      Clock
	products   []string
	log        *zap.Logger
}

// ServiceDeps bundles everything NewService needs.
type ServiceDeps struct {
	Dataset    DatasetReader
	Directory  RecipientDirectory
	Estimator  *RiskEstimator
	Forecaster *DemandForecaster
	Optimizer  *RouteOptimizer
	Store      PlanStore
	Catalog    ModelCatalog // optional, lists demand models for health checks
	Clock      Clock
	Products   []string
	Logger     *zap.Logger
}

// NewService creates a new Service.
func NewService(deps ServiceDeps) *Service {
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Service{
		dataset:    deps.Dataset,
		directory:  deps.Directory,
		estimator:  deps.Estimator,
		forecaster: deps.Forecaster,
		optimizer:  deps.Optimizer,
		store:      deps.Store,
		catalog:    deps.Catalog,
		clock:      deps.Clock,
		products:   deps.Products,
		log:        deps.Logger,
	}
}

// Products returns the product ids considered for route planning.
func (s *Service) Products() []string {
	return s.products
}

// Spoilage returns the risk forecast for productID.
func (s *Service) Spoilage(ctx context.Context, productID string, start *time.Time) (RiskSummary, error) {
	records, err := s.readDataset(ctx)
	if err != nil {
		metrics.RiskEstimations.WithLabelValues(outcome(err)).Inc()
		return RiskSummary{}, err
	}

	summary, err := s.estimator.Estimate(ctx, productID, records, start)
	metrics.RiskEstimations.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return RiskSummary{}, err
	}
	return summary, nil
}

// Demand returns the demand forecast for productID.
func (s *Service) Demand(ctx context.Context, productID string) (DemandForecast, error) {
	forecast, err := s.forecaster.Forecast(ctx, productID)
	metrics.DemandForecasts.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return DemandForecast{}, err
	}
	return forecast, nil
}

// Routes computes a fresh route plan for the configured products.
func (s *Service) Routes(ctx context.Context) (RoutePlan, error) {
	const op = "plan routes"

	recipients, err := s.directory.ListAll(ctx)
	if err != nil {
		if CodeOf(err) == "" {
			err = ConfigurationError(op, err, "read recipient directory")
		}
		return RoutePlan{}, err
	}

	records, err := s.readDataset(ctx)
	if err != nil {
		return RoutePlan{}, err
	}

	routes, err := s.optimizer.Optimize(ctx, s.products, records, recipients)
	if err != nil {
		return RoutePlan{}, err
	}
	metrics.HighRiskProducts.Set(float64(len(routes)))

	return RoutePlan{
		ID:          uuid.NewString(),
		GeneratedAt: s.clock.Now().UTC(),
		Origin:      s.optimizer.Origin(),
		Routes:      routes,
	}, nil
}

// RefreshRoutes computes a route plan and stores it.
func (s *Service) RefreshRoutes(ctx context.Context) (RoutePlan, error) {
	plan, err := s.Routes(ctx)
	if err != nil {
		metrics.PlanRefreshes.WithLabelValues("error").Inc()
		return RoutePlan{}, err
	}

	if err := s.store.SavePlan(ctx, plan.Origin, plan); err != nil {
		metrics.PlanRefreshes.WithLabelValues("error").Inc()
		return RoutePlan{}, err
	}
	metrics.PlanRefreshes.WithLabelValues("ok").Inc()

	s.log.Info("route plan refreshed",
		zap.String("plan_id", plan.ID),
		zap.Int("high_risk_products", len(plan.Routes)),
	)
	return plan, nil
}

// LatestPlan returns the most recently stored plan.
func (s *Service) LatestPlan(ctx context.Context) (RoutePlan, error) {
	return s.store.GetLatest(ctx, s.optimizer.Origin())
}

// PlanHistory returns stored plans generated between from and to (inclusive).
func (s *Service) PlanHistory(ctx context.Context, from, to time.Time) ([]RoutePlan, error) {
	return s.store.GetRange(ctx, s.optimizer.Origin(), from, to)
}

// WarmModels preloads demand models for the configured products.
func (s *Service) WarmModels(ctx context.Context) {
	failed := s.forecaster.Warm(ctx, s.products)
	if len(failed) > 0 {
		s.log.Warn("demand models unavailable", zap.Strings("products", failed))
	}
}

// Health reports which model capabilities are usable.
func (s *Service) Health(ctx context.Context) Health {
	found := s.forecaster.Cached()
	if s.catalog != nil {
		ids, err := s.catalog.Available(ctx)
		if err != nil {
			s.log.Warn("list demand models failed", zap.Error(err))
		} else {
			found = mergeIDs(found, ids)
		}
	}

	spoilage := s.estimator.Available()
	return Health{
		Status:            "healthy",
		ModelsAvailable:   spoilage && len(found) > 0,
		SpoilageModel:     spoilage,
		DemandModelsFound: found,
	}
}

func (s *Service) readDataset(ctx context.Context) ([]ProductRecord, error) {
	records, err := s.dataset.ReadAll(ctx)
	if err != nil {
		if CodeOf(err) == "" {
			err = ConfigurationError("read dataset", err, "dataset unavailable")
		}
		return nil, err
	}
	return records, nil
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, ErrNotFound) {
		return "not_found"
	}
	if code := CodeOf(err); code != "" {
		return strings.ToLower(string(code))
	}
	return "error"
}

func mergeIDs(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, ids := range [][]string{a, b} {
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
