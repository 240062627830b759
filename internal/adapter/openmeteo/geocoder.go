package openmeteo

import (
	"context"
	"net/url"
	"strings"

	"github.com/couchcryptid/agri-risk-service/internal/domain"
)

type geocodingResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Admin1    string  `json:"admin1"`
		Country   string  `json:"country"`
	} `json:"results"`
}

// ForwardGeocode looks up a place name. Open-Meteo matches on the place name
// alone, so only the first comma segment of the query is sent.
func (c *Client) ForwardGeocode(ctx context.Context, query string) (domain.GeocodingResult, error) {
	name, _, _ := strings.Cut(query, ",")
	params := url.Values{
		"name":     {strings.TrimSpace(name)},
		"count":    {"1"},
		"language": {"en"},
		"format":   {"json"},
	}

	var resp geocodingResponse
	if err := c.getJSON(ctx, c.geocodingURL, params, &resp); err != nil {
		return domain.GeocodingResult{}, err
	}
	if len(resp.Results) == 0 {
		return domain.GeocodingResult{}, nil
	}

	r := resp.Results[0]
	parts := []string{r.Name}
	for _, p := range []string{r.Admin1, r.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return domain.GeocodingResult{
		Lat:              r.Latitude,
		Lon:              r.Longitude,
		FormattedAddress: strings.Join(parts, ", "),
		PlaceName:        r.Name,
		Confidence:       1,
	}, nil
}

// ReverseGeocode is not offered by Open-Meteo; it always finds nothing so
// callers keep the raw coordinates as the label.
func (c *Client) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	return domain.GeocodingResult{}, nil
}
