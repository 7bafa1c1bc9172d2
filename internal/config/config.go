package config

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Model backends.
const (
	BackendHTTP  = "http"
	BackendRules = "rules"
	BackendFile  = "file"
	BackendNone  = "none"
)

// DatasetConfig locates the daily aggregated dataset.
type DatasetConfig struct {
	Format string
	Path   string
	Sheet  string
	DSN    string
	Table  string
}

// RedisConfig enables the redis plan store when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AppConfig struct {
	Port      string
	LogLevel  string
	LogFormat string

	Dataset DatasetConfig

	RecipientsPath string
	GeocoderAPIKey string

	ModelDir          string
	ModelServerURL    string
	ClassifierBackend string
	ForecastBackend   string
	HTTPTimeout       time.Duration

	// Route planning.
	Products      []string
	RiskThreshold float64
	TopK          int
	OriginLat     float64
	OriginLon     float64
	DefaultStock  int

	// Calibration maps product ids to a flat risk offset.
	Calibration map[string]float64

	// RefreshInterval controls how often a route plan is computed and stored.
	RefreshInterval time.Duration

	Redis RedisConfig

	// Plan store retention.
	StoreMaxHistory int           // max number of plans per origin (0 = unlimited)
	StoreMaxAge     time.Duration // max age of plans (0 = unlimited)

	// EnvFileLoaded reports whether a .env file was found.
	EnvFileLoaded bool
}

var defaults = map[string]string{
	"PORT":                "8080",
	"LOG_LEVEL":           "info",
	"LOG_FORMAT":          "console",
	"DATASET_FORMAT":      "csv",
	"DATASET_PATH":        "data/daily_aggregated.csv",
	"DATASET_TABLE":       "daily_aggregated",
	"RECIPIENTS_PATH":     "data/recipients.json",
	"MODEL_DIR":           "models",
	"CLASSIFIER_BACKEND":  BackendRules,
	"FORECAST_BACKEND":    BackendFile,
	"HTTP_TIMEOUT":        "10s",
	"PRODUCTS":            "P001,P002,P003,P004,P005",
	"RISK_THRESHOLD":      "45",
	"TOP_K":               "2",
	"ORIGIN_LAT":          "12.9716",
	"ORIGIN_LON":          "77.5946",
	"DEFAULT_STOCK":       "50",
	"CALIBRATION_OFFSETS": "P002=25.5",
	"REFRESH_INTERVAL":    "15m",
	"REDIS_DB":            "0",
	"STORE_MAX_HISTORY":   "96", // roughly 24h at 15-minute intervals
	"STORE_MAX_AGE":       "24h",
}

// Load reads configuration from the environment (and a .env file, if any)
// with sensible defaults.
func Load() (*AppConfig, error) {
	loaded := true
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
		loaded = false
	}

	cfg, err := FromViper(newViper())
	if err != nil {
		return nil, err
	}
	cfg.EnvFileLoaded = loaded
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	return v
}

// FromViper builds and validates an AppConfig from v.
func FromViper(v *viper.Viper) (*AppConfig, error) {
	p := parser{v: v}
	cfg := &AppConfig{
		Port:      v.GetString("PORT"),
		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
		Dataset: DatasetConfig{
			Format: strings.ToLower(v.GetString("DATASET_FORMAT")),
			Path:   v.GetString("DATASET_PATH"),
			Sheet:  v.GetString("DATASET_SHEET"),
			DSN:    v.GetString("POSTGRES_DSN"),
			Table:  v.GetString("DATASET_TABLE"),
		},
		RecipientsPath:    v.GetString("RECIPIENTS_PATH"),
		GeocoderAPIKey:    v.GetString("GEOCODER_API_KEY"),
		ModelDir:          v.GetString("MODEL_DIR"),
		ModelServerURL:    v.GetString("MODEL_SERVER_URL"),
		ClassifierBackend: strings.ToLower(v.GetString("CLASSIFIER_BACKEND")),
		ForecastBackend:   strings.ToLower(v.GetString("FORECAST_BACKEND")),
		HTTPTimeout:       p.duration("HTTP_TIMEOUT"),
		Products:          splitList(v.GetString("PRODUCTS")),
		RiskThreshold:     p.float("RISK_THRESHOLD"),
		TopK:              p.int("TOP_K"),
		OriginLat:         p.float("ORIGIN_LAT"),
		OriginLon:         p.float("ORIGIN_LON"),
		DefaultStock:      p.int("DEFAULT_STOCK"),
		RefreshInterval:   p.duration("REFRESH_INTERVAL"),
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       p.int("REDIS_DB"),
		},
		StoreMaxHistory: p.int("STORE_MAX_HISTORY"),
		StoreMaxAge:     p.duration("STORE_MAX_AGE"),
	}
	if p.err != nil {
		return nil, p.err
	}

	calibration, err := ParseCalibration(v.GetString("CALIBRATION_OFFSETS"))
	if err != nil {
		return nil, fmt.Errorf("invalid CALIBRATION_OFFSETS: %w", err)
	}
	cfg.Calibration = calibration

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseCalibration parses "P002=25.5,P004=-3" into an offset table. An empty
// value or "none" yields an empty table.
func ParseCalibration(s string) (map[string]float64, error) {
	out := make(map[string]float64)
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return out, nil
	}

	for _, pair := range splitList(s) {
		id, value, ok := strings.Cut(pair, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("entry %q is not product=offset", pair)
		}
		offset, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("entry %q: offset is not a number", pair)
		}
		if _, dup := out[id]; dup {
			return nil, fmt.Errorf("product %s listed twice", id)
		}
		out[id] = offset
	}
	return out, nil
}

func (c *AppConfig) validate() error {
	var problems []string

	switch c.ClassifierBackend {
	case BackendHTTP, BackendRules, BackendNone:
	default:
		problems = append(problems, fmt.Sprintf("CLASSIFIER_BACKEND %q must be http, rules or none", c.ClassifierBackend))
	}
	switch c.ForecastBackend {
	case BackendHTTP, BackendFile:
	default:
		problems = append(problems, fmt.Sprintf("FORECAST_BACKEND %q must be http or file", c.ForecastBackend))
	}
	if (c.ClassifierBackend == BackendHTTP || c.ForecastBackend == BackendHTTP) && c.ModelServerURL == "" {
		problems = append(problems, "MODEL_SERVER_URL is required for the http backend")
	}
	if len(c.Products) == 0 {
		problems = append(problems, "PRODUCTS must list at least one product")
	}
	if c.RiskThreshold < 0 || c.RiskThreshold > 100 {
		problems = append(problems, "RISK_THRESHOLD must be within [0, 100]")
	}
	if c.TopK < 1 {
		problems = append(problems, "TOP_K must be at least 1")
	}
	if c.OriginLat < -90 || c.OriginLat > 90 || c.OriginLon < -180 || c.OriginLon > 180 {
		problems = append(problems, "ORIGIN_LAT/ORIGIN_LON out of range")
	}
	if c.DefaultStock < 0 {
		problems = append(problems, "DEFAULT_STOCK must not be negative")
	}
	if c.RefreshInterval < time.Minute {
		problems = append(problems, "REFRESH_INTERVAL must be at least 1m")
	}
	if c.HTTPTimeout <= 0 {
		problems = append(problems, "HTTP_TIMEOUT must be positive")
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// parser records the first conversion error so FromViper can read every
// field in one expression.
type parser struct {
	v   *viper.Viper
	err error
}

func (p *parser) duration(key string) time.Duration {
	d, err := time.ParseDuration(p.v.GetString(key))
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
	}
	return d
}

func (p *parser) int(key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(p.v.GetString(key)))
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
	}
	return n
}

func (p *parser) float(key string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(p.v.GetString(key)), 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
	}
	return f
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
