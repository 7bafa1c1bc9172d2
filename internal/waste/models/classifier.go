package models

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"

	"github.com/i474232898/food-waste-optimizer/internal/metrics"
)

// HTTPClassifier calls a model server's spoilage classifier.
//
//	POST {base}/classify {"features": [t, h, r, s]} -> {"probabilities": [p0, p1]}
type HTTPClassifier struct {
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewHTTPClassifier creates a classifier client for the server at baseURL.
func NewHTTPClassifier(baseURL string, cfg HTTPClientConfig) *HTTPClassifier {
	return &HTTPClassifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: cfg.withDefaults(),
		circuit: newCircuitBreaker("spoilage-classifier"),
	}
}

// PredictProba implements waste.Classifier.
func (c *HTTPClassifier) PredictProba(ctx context.Context, features []float64) ([]float64, error) {
	timer := prometheus.NewTimer(metrics.ModelCallDuration.WithLabelValues("classify"))
	defer timer.ObserveDuration()

	body, err := json.Marshal(struct {
		Features []float64 `json:"features"`
	}{Features: features})
	if err != nil {
		return nil, err
	}

	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, c.baseURL+"/classify", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Probabilities []float64 `json:"probabilities"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode classifier response: %w", err)
	}
	if len(payload.Probabilities) == 0 {
		return nil, fmt.Errorf("classifier returned no probabilities")
	}
	return payload.Probabilities, nil
}
