package models

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"

	"github.com/i474232898/food-waste-optimizer/internal/metrics"
	"github.com/i474232898/food-waste-optimizer/internal/waste"
)

// HTTPModelRegistry resolves per-product demand models on a model server.
//
//	GET  {base}/models/demand              -> {"models": ["P001", ...]}
//	GET  {base}/models/demand/{id}         -> 200 or 404
//	POST {base}/models/demand/{id}/predict {"horizon": 7}
//	     -> {"forecast": [{"date": "2024-01-01", "yhat": 12.3}, ...]}
type HTTPModelRegistry struct {
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewHTTPModelRegistry creates a registry client for the server at baseURL.
func NewHTTPModelRegistry(baseURL string, cfg HTTPClientConfig) *HTTPModelRegistry {
	return &HTTPModelRegistry{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: cfg.withDefaults(),
		circuit: newCircuitBreaker("demand-models"),
	}
}

// Load implements waste.ModelLoader.
func (r *HTTPModelRegistry) Load(ctx context.Context, productID string) (waste.ForecastModel, error) {
	timer := prometheus.NewTimer(metrics.ModelCallDuration.WithLabelValues("load"))
	defer timer.ObserveDuration()

	resp, err := r.do(ctx, http.MethodGet, r.modelURL(productID), nil)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, waste.NotFoundError("load demand model", "no model for %s", productID)
		}
		return nil, fmt.Errorf("load demand model %s: %w", productID, err)
	}
	resp.Body.Close()

	return &remoteModel{registry: r, productID: productID}, nil
}

// Available implements waste.ModelCatalog.
func (r *HTTPModelRegistry) Available(ctx context.Context) ([]string, error) {
	resp, err := r.do(ctx, http.MethodGet, r.baseURL+"/models/demand", nil)
	if err != nil {
		return nil, fmt.Errorf("list demand models: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Models []string `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode model list: %w", err)
	}
	sort.Strings(payload.Models)
	return payload.Models, nil
}

func (r *HTTPModelRegistry) modelURL(productID string) string {
	return r.baseURL + "/models/demand/" + url.PathEscape(productID)
}

func (r *HTTPModelRegistry) do(ctx context.Context, method, u string, body []byte) (*http.Response, error) {
	buildRequest := func() (*http.Request, error) {
		var req *http.Request
		var err error
		if body != nil {
			req, err = http.NewRequest(method, u, bytes.NewReader(body))
		} else {
			req, err = http.NewRequest(method, u, nil)
		}
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req, nil
	}
	return doRequestWithResilience(ctx, r.httpCfg, r.circuit, buildRequest)
}

type remoteModel struct {
	registry  *HTTPModelRegistry
	productID string
}

func (m *remoteModel) Predict(ctx context.Context, horizon int) ([]waste.ForecastEstimate, error) {
	timer := prometheus.NewTimer(metrics.ModelCallDuration.WithLabelValues("predict"))
	defer timer.ObserveDuration()

	body, err := json.Marshal(map[string]int{"horizon": horizon})
	if err != nil {
		return nil, err
	}

	resp, err := m.registry.do(ctx, http.MethodPost, m.registry.modelURL(m.productID)+"/predict", body)
	if err != nil {
		return nil, fmt.Errorf("predict %s: %w", m.productID, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Forecast []struct {
			Date string  `json:"date"`
			YHat float64 `json:"yhat"`
		} `json:"forecast"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}

	out := make([]waste.ForecastEstimate, 0, len(payload.Forecast))
	for _, p := range payload.Forecast {
		ts, err := parseForecastDate(p.Date)
		if err != nil {
			return nil, fmt.Errorf("forecast date %q: %w", p.Date, err)
		}
		out = append(out, waste.ForecastEstimate{Date: ts, Estimate: p.YHat})
	}
	return out, nil
}

// parseForecastDate accepts plain dates and the timestamps pandas emits.
func parseForecastDate(s string) (time.Time, error) {
	for _, layout := range []string{waste.DateLayout, "2006-01-02T15:04:05", time.RFC3339} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date format")
}
