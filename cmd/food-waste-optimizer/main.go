package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/food-waste-optimizer/internal/api/http"
	"github.com/i474232898/food-waste-optimizer/internal/config"
	"github.com/i474232898/food-waste-optimizer/internal/dataset"
	"github.com/i474232898/food-waste-optimizer/internal/geo"
	"github.com/i474232898/food-waste-optimizer/internal/logger"
	"github.com/i474232898/food-waste-optimizer/internal/recipients"
	"github.com/i474232898/food-waste-optimizer/internal/scheduler"
	"github.com/i474232898/food-waste-optimizer/internal/store"
	"github.com/i474232898/food-waste-optimizer/internal/waste"
	"github.com/i474232898/food-waste-optimizer/internal/waste/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if !cfg.EnvFileLoaded {
		zl.Info("no .env file found, using process environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Dataset of daily product records.
	data, err := dataset.Open(ctx, dataset.Config{
		Format: cfg.Dataset.Format,
		Path:   cfg.Dataset.Path,
		Sheet:  cfg.Dataset.Sheet,
		DSN:    cfg.Dataset.DSN,
		Table:  cfg.Dataset.Table,
	})
	if err != nil {
		zl.Fatal("failed to open dataset", zap.Error(err))
	}
	defer data.Close()

	// Shared HTTP client for outbound model server calls.
	httpCfg := models.HTTPClientConfig{
		Client: &http.Client{Timeout: cfg.HTTPTimeout},
		Logger: zl.Named("models"),
	}

	var classifier waste.Classifier
	switch cfg.ClassifierBackend {
	case config.BackendHTTP:
		classifier = models.NewHTTPClassifier(cfg.ModelServerURL, httpCfg)
	case config.BackendRules:
		classifier = models.RuleClassifier{}
	default:
		zl.Warn("spoilage classifier disabled; spoilage and route requests will return not found")
	}

	var registry interface {
		waste.ModelLoader
		waste.ModelCatalog
	}
	if cfg.ForecastBackend == config.BackendHTTP {
		registry = models.NewHTTPModelRegistry(cfg.ModelServerURL, httpCfg)
	} else {
		registry = models.NewFileModelRegistry(cfg.ModelDir)
	}

	// Plan store with configured retention.
	var plans waste.PlanStore
	if cfg.Redis.Addr != "" {
		rs := store.NewRedisStore(store.NewRedisClient(store.RedisConfig{
			Address:  cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}), cfg.StoreMaxHistory, cfg.StoreMaxAge)
		if err := rs.Ping(ctx); err != nil {
			zl.Fatal("redis unavailable", zap.Error(err))
		}
		defer rs.Close()
		plans = rs
	} else {
		plans = store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)
	}

	estimator := waste.NewRiskEstimator(classifier, waste.Calibration(cfg.Calibration), waste.SystemClock{})
	service := waste.NewService(waste.ServiceDeps{
		Dataset:    data,
		Directory:  recipients.NewFileDirectory(cfg.RecipientsPath, cfg.GeocoderAPIKey, zl.Named("recipients")),
		Estimator:  estimator,
		Forecaster: waste.NewDemandForecaster(waste.NewModelCache(registry)),
		Optimizer: waste.NewRouteOptimizer(estimator, waste.RouteOptions{
			Threshold: cfg.RiskThreshold,
			TopK:      cfg.TopK,
			Origin:    geo.Point{Lat: cfg.OriginLat, Lon: cfg.OriginLon},
			Inventory: waste.FixedStock{Quantity: cfg.DefaultStock},
		}),
		Store:    plans,
		Catalog:  registry,
		Products: cfg.Products,
		Logger:   zl.Named("service"),
	})

	// Scheduler that periodically refreshes the stored route plan.
	sched := scheduler.New(cfg.RefreshInterval, service, zl.Named("scheduler"))
	if err := sched.Start(); err != nil {
		zl.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "food-waste-optimizer",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler(zl.Named("http")),
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, service)

	go func() {
		zl.Info("listening", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			zl.Error("fiber server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zl.Error("error during shutdown", zap.Error(err))
	}
}
