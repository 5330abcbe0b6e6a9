package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/NaimTheDev/devvit-trip-spin/internal/domain"
)

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string            `json:"type"`
	Properties featureProperties `json:"properties"`
}

type featureProperties struct {
	Name       string   `json:"name"`
	NameASCII  string   `json:"nameascii"`
	Adm0Name   string   `json:"adm0name"`
	Adm1Name   string   `json:"adm1name"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	PopMax     float64  `json:"pop_max"`
	FeatureCla string   `json:"featurecla"`
}

// Dataset loads a GeoJSON populated-places collection once, from a file
// path or an http(s) URL.
type Dataset struct {
	source     string
	httpClient *http.Client
	logger     *slog.Logger

	mu     sync.Mutex
	loaded bool
	places []domain.Place
}

func NewDataset(source string, httpClient *http.Client, logger *slog.Logger) *Dataset {
	return &Dataset{source: source, httpClient: httpClient, logger: logger}
}

// Places returns the validated places. A failed load is retried on the next call.
func (d *Dataset) Places(ctx context.Context) ([]domain.Place, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.loaded {
		return d.places, nil
	}

	raw, err := d.read(ctx)
	if err != nil {
		return nil, err
	}
	places, skipped, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		d.logger.WarnContext(ctx, "skipped invalid dataset features", "source", d.source, "skipped", skipped)
	}
	d.logger.InfoContext(ctx, "loaded places dataset", "source", d.source, "places", len(places))

	d.places = places
	d.loaded = true
	return places, nil
}

func (d *Dataset) read(ctx context.Context) ([]byte, error) {
	if !strings.HasPrefix(d.source, "http://") && !strings.HasPrefix(d.source, "https://") {
		raw, err := os.ReadFile(d.source)
		if err != nil {
			return nil, fmt.Errorf("read dataset: %w", err)
		}
		return raw, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.source, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch dataset: status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return raw, nil
}

// Parse decodes a FeatureCollection into places. Features without a name,
// country or valid coordinates are skipped and counted.
func Parse(raw []byte) ([]domain.Place, int, error) {
	var fc featureCollection
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, 0, fmt.Errorf("parse dataset: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, 0, fmt.Errorf("parse dataset: unexpected type %q", fc.Type)
	}

	places := make([]domain.Place, 0, len(fc.Features))
	skipped := 0
	for _, f := range fc.Features {
		p, ok := toPlace(f.Properties)
		if !ok {
			skipped++
			continue
		}
		places = append(places, p)
	}
	return places, skipped, nil
}

func toPlace(props featureProperties) (domain.Place, bool) {
	name := strings.TrimSpace(props.NameASCII)
	if name == "" {
		name = strings.TrimSpace(props.Name)
	}
	country := strings.TrimSpace(props.Adm0Name)
	if name == "" || country == "" || props.Latitude == nil || props.Longitude == nil {
		return domain.Place{}, false
	}
	lat, lon := *props.Latitude, *props.Longitude
	if math.Abs(lat) > 90 || math.Abs(lon) > 180 {
		return domain.Place{}, false
	}

	pop := int64(0)
	if props.PopMax > 0 {
		pop = int64(props.PopMax)
	}
	return domain.Place{
		Name:         name,
		Country:      country,
		Region:       strings.TrimSpace(props.Adm1Name),
		Latitude:     lat,
		Longitude:    lon,
		Population:   pop,
		FeatureClass: props.FeatureCla,
	}, true
}
