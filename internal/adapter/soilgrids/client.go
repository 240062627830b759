// Package soilgrids reads topsoil texture from the ISRIC SoilGrids point
// query API. The API is keyless and has global coverage.
package soilgrids

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/agri-risk-service/internal/domain"
)

const (
	propClay = "clay"
	propSand = "sand"

	// topsoilDepth is the layer the texture modifiers describe.
	topsoilDepth = "0-5cm"
)

// Client implements domain.SoilProvider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a SoilGrids client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     logger,
	}
}

// Soil returns the topsoil texture class at loc with its clay and sand
// percentages. Points with no mapped soil (open water, ice, sealed urban
// ground) yield a nil reading and no error.
func (c *Client) Soil(ctx context.Context, loc domain.Location) (*domain.SoilReading, error) {
	q := url.Values{
		"lat":      {strconv.FormatFloat(loc.Lat, 'f', 4, 64)},
		"lon":      {strconv.FormatFloat(loc.Lon, 'f', 4, 64)},
		"property": {propClay, propSand},
		"depth":    {topsoilDepth},
		"value":    {"mean"},
	}

	var out response
	if err := c.getJSON(ctx, q, &out); err != nil {
		return nil, err
	}

	clay, hasClay := out.percent(propClay)
	sand, hasSand := out.percent(propSand)
	if !hasClay || !hasSand {
		c.logger.Debug("no soil mapped at location", "location", loc.Label())
		return nil, nil
	}

	return &domain.SoilReading{
		Texture:     domain.TextureFromFractions(clay, sand),
		ClayPercent: domain.Float(clay),
		SandPercent: domain.Float(sand),
	}, nil
}

func (c *Client) getJSON(ctx context.Context, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("soilgrids request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("soilgrids API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// SoilGrids API response types.

type response struct {
	Properties struct {
		Layers []layer `json:"layers"`
	} `json:"properties"`
}

type layer struct {
	Name        string `json:"name"`
	UnitMeasure struct {
		DFactor float64 `json:"d_factor"`
	} `json:"unit_measure"`
	Depths []depth `json:"depths"`
}

type depth struct {
	Label  string `json:"label"`
	Values struct {
		Mean *float64 `json:"mean"`
	} `json:"values"`
}

// percent returns the topsoil mean of a property in percent. Clay and sand
// are mapped in g/kg, so a d_factor of 10 turns them into percentages.
func (r response) percent(name string) (float64, bool) {
	for _, l := range r.Properties.Layers {
		if l.Name != name {
			continue
		}
		factor := l.UnitMeasure.DFactor
		if factor <= 0 {
			factor = 1
		}
		for _, d := range l.Depths {
			if d.Label == topsoilDepth && d.Values.Mean != nil {
				return *d.Values.Mean / factor, true
			}
		}
	}
	return 0, false
}
