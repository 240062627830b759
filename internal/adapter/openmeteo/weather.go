package openmeteo

import (
	"context"
	"net/url"
	"strconv"

	"github.com/couchcryptid/agri-risk-service/internal/domain"
)

type forecastResponse struct {
	Daily struct {
		Time                     []string   `json:"time"`
		TemperatureMax           []*float64 `json:"temperature_2m_max"`
		TemperatureMin           []*float64 `json:"temperature_2m_min"`
		PrecipitationSum         []*float64 `json:"precipitation_sum"`
		PrecipitationProbability []*float64 `json:"precipitation_probability_max"`
		HumidityMean             []*float64 `json:"relative_humidity_2m_mean"`
	} `json:"daily"`
}

// Weather summarizes the daily forecast over the next days (capped at 16):
// total precipitation, mean precipitation probability, peak temperature, and
// mean relative humidity. Days with null values are skipped per field.
func (c *Client) Weather(ctx context.Context, loc domain.Location, days int) (*domain.WeatherReading, error) {
	days = min(max(days, 1), maxForecastDays)

	params := url.Values{
		"latitude":      {strconv.FormatFloat(loc.Lat, 'f', 4, 64)},
		"longitude":     {strconv.FormatFloat(loc.Lon, 'f', 4, 64)},
		"daily":         {"temperature_2m_max,temperature_2m_min,precipitation_sum,precipitation_probability_max,relative_humidity_2m_mean"},
		"forecast_days": {strconv.Itoa(days)},
		"timezone":      {"auto"},
	}

	var resp forecastResponse
	if err := c.getJSON(ctx, c.forecastURL, params, &resp); err != nil {
		return nil, err
	}

	d := resp.Daily
	reading := &domain.WeatherReading{
		PrecipitationTotal:       sum(d.PrecipitationSum),
		PrecipitationProbability: mean(d.PrecipitationProbability),
		MaxTemperature:           peak(d.TemperatureMax),
		Humidity:                 mean(d.HumidityMean),
	}

	c.logger.Debug("open-meteo forecast",
		"location", loc.Label(),
		"days", len(d.Time),
	)
	return reading, nil
}

func sum(vals []*float64) *float64 {
	var total float64
	n := 0
	for _, v := range vals {
		if v != nil {
			total += *v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return domain.Float(total)
}

func mean(vals []*float64) *float64 {
	total := sum(vals)
	if total == nil {
		return nil
	}
	n := 0
	for _, v := range vals {
		if v != nil {
			n++
		}
	}
	return domain.Float(*total / float64(n))
}

func peak(vals []*float64) *float64 {
	var out *float64
	for _, v := range vals {
		if v != nil && (out == nil || *v > *out) {
			out = domain.Float(*v)
		}
	}
	return out
}
