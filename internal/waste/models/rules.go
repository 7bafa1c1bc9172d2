package models

import (
	"context"
	"fmt"
)

// Thresholds of the spoilage labelling rule the classifier is trained on.
const (
	hotTemperature      = 32.0
	extremeTemperature  = 38.0
	expiringShelfLife   = 3.0
	classifierFeatures  = 4
	featureTemperature  = 0
	featureShelfLifeIdx = 3
)

// RuleClassifier applies the spoilage labelling rule directly: a product is
// spoiled when it is hot and close to expiry, or extremely hot. It lets the
// service run without a model server.
type RuleClassifier struct{}

// PredictProba implements waste.Classifier. It returns [1, 0] or [0, 1].
func (RuleClassifier) PredictProba(_ context.Context, features []float64) ([]float64, error) {
	if len(features) != classifierFeatures {
		return nil, fmt.Errorf("rule classifier expects %d features, got %d", classifierFeatures, len(features))
	}

	temp := features[featureTemperature]
	shelfLife := features[featureShelfLifeIdx]

	spoiled := (temp > hotTemperature && shelfLife < expiringShelfLife) || temp > extremeTemperature
	if spoiled {
		return []float64{0, 1}, nil
	}
	return []float64{1, 0}, nil
}
