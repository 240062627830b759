// Package openmeteo reads short-range weather forecasts and place names from
// the keyless Open-Meteo APIs.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Open-Meteo serves at most 16 forecast days.
const maxForecastDays = 16

// Client talks to the Open-Meteo forecast and geocoding endpoints.
type Client struct {
	httpClient   *http.Client
	forecastURL  string
	geocodingURL string
	logger       *slog.Logger
}

// NewClient creates an Open-Meteo client.
func NewClient(forecastURL, geocodingURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		forecastURL:  forecastURL,
		geocodingURL: geocodingURL,
		logger:       logger,
	}
}

func (c *Client) getJSON(ctx context.Context, base string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("open-meteo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
