// Package nasapower reads satellite-derived agroclimatology from the NASA
// POWER daily point API. The API is keyless.
package nasapower

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/agri-risk-service/internal/domain"
)

// POWER parameters requested by this client.
const (
	paramPrecip   = "PRECTOTCORR"       // mm/day
	paramTemp     = "T2M"               // °C
	paramTempMax  = "T2M_MAX"           // °C
	paramTempMin  = "T2M_MIN"           // °C
	paramSolar    = "ALLSKY_SFC_SW_DWN" // MJ/m²/day in the AG community
	paramTOA      = "TOA_SW_DWN"        // extraterrestrial radiation, MJ/m²/day in the AG community
	paramRootSoil = "GWETROOT"          // root zone wetness, 0-1
)

// fillValue marks days POWER has no data for yet.
const fillValue = -999

const mjPerKWh = 3.6

// mmPerMJ converts radiation in MJ/m²/day to its evaporation equivalent.
const mmPerMJ = 0.408

// Client implements domain.SatelliteProvider and domain.ClimateProvider.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	lookbackDays int
	logger       *slog.Logger
}

// NewClient creates a NASA POWER client that looks back lookbackDays from today.
func NewClient(baseURL string, lookbackDays int, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      baseURL,
		lookbackDays: lookbackDays,
		logger:       logger,
	}
}

// Satellite returns observed precipitation, temperature, and solar radiation
// over the lookback window.
func (c *Client) Satellite(ctx context.Context, loc domain.Location) (*domain.SatelliteReading, error) {
	series, err := c.fetch(ctx, loc, paramPrecip, paramTemp, paramSolar)
	if err != nil {
		return nil, err
	}

	reading := &domain.SatelliteReading{
		PrecipitationTotal: series[paramPrecip].sum(),
		AverageTemperature: series[paramTemp].mean(),
	}
	if solar := series[paramSolar].mean(); solar != nil {
		reading.SolarRadiation = domain.Float(*solar / mjPerKWh)
	}
	return reading, nil
}

// Climate returns root-zone soil moisture as a percentage plus reference
// evapotranspiration. NDVI is not offered by POWER and stays absent.
func (c *Client) Climate(ctx context.Context, loc domain.Location) (*domain.ClimateReading, error) {
	series, err := c.fetch(ctx, loc, paramRootSoil, paramTemp, paramTempMax, paramTempMin, paramSolar, paramTOA)
	if err != nil {
		return nil, err
	}

	reading := &domain.ClimateReading{}
	if w := series[paramRootSoil].mean(); w != nil {
		reading.SoilMoisture = domain.Float(*w * 100)
	}

	temp := series[paramTemp].mean()
	ra, tmax, tmin := series[paramTOA].mean(), series[paramTempMax].mean(), series[paramTempMin].mean()
	switch {
	case temp != nil && ra != nil && tmax != nil && tmin != nil:
		reading.Evapotranspiration = domain.Float(hargreavesET(*ra, *temp, *tmax, *tmin))
	case temp != nil:
		if solar := series[paramSolar].mean(); solar != nil {
			reading.Evapotranspiration = domain.Float(estimateET(*solar, *temp))
		}
	}
	return reading, nil
}

// hargreavesET is the Hargreaves reference evapotranspiration in mm/day from
// extraterrestrial radiation in MJ/m²/day and air temperatures in °C.
func hargreavesET(ra, tmean, tmax, tmin float64) float64 {
	spread := math.Sqrt(max(0, tmax-tmin))
	return max(0, 0.0023*ra*mmPerMJ*(tmean+17.8)*spread)
}

// estimateET approximates crop water use in mm/day from surface solar
// radiation in MJ/m²/day and mean temperature in °C, bounded to [0.5, 8].
// It is used when the temperature extremes or extraterrestrial radiation
// are missing.
func estimateET(solar, temp float64) float64 {
	et := 0.12*solar + 0.04*max(0, temp-20)
	return min(max(et, 0.5), 8)
}

type series map[string]float64

func (s series) values() []float64 {
	out := make([]float64, 0, len(s))
	for _, v := range s {
		if v > fillValue {
			out = append(out, v)
		}
	}
	return out
}

func (s series) sum() *float64 {
	vals := s.values()
	if len(vals) == 0 {
		return nil
	}
	var total float64
	for _, v := range vals {
		total += v
	}
	return domain.Float(total)
}

func (s series) mean() *float64 {
	total := s.sum()
	if total == nil {
		return nil
	}
	return domain.Float(*total / float64(len(s.values())))
}

type response struct {
	Properties struct {
		Parameter map[string]series `json:"parameter"`
	} `json:"properties"`
	Messages []string `json:"messages"`
}

func (c *Client) fetch(ctx context.Context, loc domain.Location, params ...string) (map[string]series, error) {
	end := domain.Now().UTC()
	start := end.AddDate(0, 0, -c.lookbackDays)

	q := url.Values{
		"parameters": {strings.Join(params, ",")},
		"community":  {"AG"},
		"latitude":   {strconv.FormatFloat(loc.Lat, 'f', 4, 64)},
		"longitude":  {strconv.FormatFloat(loc.Lon, 'f', 4, 64)},
		"start":      {start.Format("20060102")},
		"end":        {end.Format("20060102")},
		"format":     {"JSON"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nasa power request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("nasa power API error: status %d: %s", resp.StatusCode, body)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Properties.Parameter) == 0 {
		return nil, fmt.Errorf("nasa power returned no parameters: %s", strings.Join(out.Messages, "; "))
	}

	c.logger.Debug("nasa power series",
		"location", loc.Label(),
		"parameters", params,
		"start", q.Get("start"),
		"end", q.Get("end"),
	)
	return out.Properties.Parameter, nil
}
