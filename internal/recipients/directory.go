// Package recipients loads the directory of organizations that can receive
// redistributed stock.
package recipients

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/i474232898/food-waste-optimizer/internal/waste"
)

//go:embed schema.json
var schemaJSON string

var directorySchema = mustSchema(schemaJSON)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("recipients: invalid embedded schema: %v", err))
	}
	return schema
}

// geocode resolves a street address. Replaced in tests.
var geocode = func(address string) (float64, float64, error) {
	loc, err := geocoder.Geocoding(geocoder.Address{Street: address})
	if err != nil {
		return 0, 0, err
	}
	return loc.Latitude, loc.Longitude, nil
}

// FileDirectory reads recipients from a JSON file on every call. Entries
// without coordinates are geocoded from their address when an API key is set;
// resolved addresses are remembered for the life of the process.
type FileDirectory struct {
	path      string
	geocoding bool
	log       *zap.Logger

	mu       sync.Mutex
	resolved map[string][2]float64
}

// NewFileDirectory creates a directory backed by path. An empty apiKey
// disables geocoding.
func NewFileDirectory(path, apiKey string, log *zap.Logger) *FileDirectory {
	if apiKey != "" {
		geocoder.ApiKey = apiKey
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FileDirectory{
		path:      path,
		geocoding: apiKey != "",
		log:       log,
		resolved:  make(map[string][2]float64),
	}
}

type entry struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

// ListAll implements waste.RecipientDirectory. Every failure is a
// configuration error.
func (d *FileDirectory) ListAll(ctx context.Context) ([]waste.Recipient, error) {
	const op = "load recipients"

	raw, err := os.ReadFile(d.path)
	if err != nil {
		return nil, waste.ConfigurationError(op, err, "read %s", d.path)
	}

	result, err := directorySchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, waste.ConfigurationError(op, err, "parse %s", d.path)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, waste.ConfigurationError(op, nil, "%s failed validation: %s", d.path, strings.Join(errs, "; "))
	}

	var entries []entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, waste.ConfigurationError(op, err, "decode %s", d.path)
	}
	if len(entries) == 0 {
		return nil, waste.ConfigurationError(op, nil, "%s lists no recipients", d.path)
	}

	out := make([]waste.Recipient, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.ID]; dup {
			return nil, waste.ConfigurationError(op, nil, "duplicate recipient id %s", e.ID)
		}
		seen[e.ID] = struct{}{}

		r := waste.Recipient{ID: e.ID, Name: e.Name, Address: e.Address}
		if e.Lat != nil && e.Lon != nil {
			r.Lat, r.Lon = *e.Lat, *e.Lon
		} else {
			lat, lon, err := d.locate(ctx, e)
			if err != nil {
				return nil, err
			}
			r.Lat, r.Lon = lat, lon
		}
		out = append(out, r)
	}
	return out, nil
}

func (d *FileDirectory) locate(ctx context.Context, e entry) (float64, float64, error) {
	const op = "geocode recipient"

	if !d.geocoding {
		return 0, 0, waste.ConfigurationError(op, nil, "recipient %s has no coordinates and geocoding is disabled", e.ID)
	}
	if strings.TrimSpace(e.Address) == "" {
		return 0, 0, waste.ConfigurationError(op, nil, "recipient %s has neither coordinates nor an address", e.ID)
	}
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if ll, ok := d.resolved[e.Address]; ok {
		return ll[0], ll[1], nil
	}

	lat, lon, err := geocode(e.Address)
	if err != nil {
		return 0, 0, waste.ConfigurationError(op, err, "recipient %s address %q", e.ID, e.Address)
	}
	d.resolved[e.Address] = [2]float64{lat, lon}
	d.log.Info("geocoded recipient",
		zap.String("recipient_id", e.ID),
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
	)
	return lat, lon, nil
}
