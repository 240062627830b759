package stage

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/couchcryptid/agri-risk-service/internal/domain"
	"github.com/couchcryptid/agri-risk-service/internal/observability"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

type fakeGeocoder struct {
	mu       sync.Mutex
	forward  domain.GeocodingResult
	reverse  domain.GeocodingResult
	err      error
	calls    int
	lastName string
}

func (g *fakeGeocoder) ForwardGeocode(_ context.Context, query string) (domain.GeocodingResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.lastName = query
	return g.forward, g.err
}

func (g *fakeGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.reverse, g.err
}

type weatherFunc func(ctx context.Context, loc domain.Location, days int) (*domain.WeatherReading, error)

func (f weatherFunc) Weather(ctx context.Context, loc domain.Location, days int) (*domain.WeatherReading, error) {
	return f(ctx, loc, days)
}

type satelliteFunc func(ctx context.Context, loc domain.Location) (*domain.SatelliteReading, error)

func (f satelliteFunc) Satellite(ctx context.Context, loc domain.Location) (*domain.SatelliteReading, error) {
	return f(ctx, loc)
}

type climateFunc func(ctx context.Context, loc domain.Location) (*domain.ClimateReading, error)

func (f climateFunc) Climate(ctx context.Context, loc domain.Location) (*domain.ClimateReading, error) {
	return f(ctx, loc)
}

type soilFunc func(ctx context.Context, loc domain.Location) (*domain.SoilReading, error)

func (f soilFunc) Soil(ctx context.Context, loc domain.Location) (*domain.SoilReading, error) {
	return f(ctx, loc)
}

type searchFunc func(ctx context.Context, query string, limit int) ([]domain.SearchHit, error)

func (f searchFunc) Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	return f(ctx, query, limit)
}

type advisoryFunc func(ctx context.Context, prompt string) (string, error)

func (f advisoryFunc) WriteAdvisory(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func hits(n int) []domain.SearchHit {
	out := make([]domain.SearchHit, n)
	for i := range out {
		out[i] = domain.SearchHit{Title: "result", Link: "https://example.org"}
	}
	return out
}

// forecastWith builds a forecast with the given levels; other categories are Low.
func forecastWith(sources int, levels map[domain.RiskCategory]domain.Level) *domain.ForecastResult {
	names := []string{domain.SourceWeather, domain.SourceSatellite, domain.SourceClimate, domain.SourceSoil}
	f := &domain.ForecastResult{
		Location:            domain.Location{Query: "Pune", Name: "Pune, Maharashtra", Lat: 18.52, Lon: 73.85},
		HorizonDays:         30,
		Categories:          make(map[domain.RiskCategory]domain.RiskAssessment),
		SourcesUsed:         names[:sources],
		MonitoringFrequency: "Weekly",
	}
	conf := domain.SourceConfidence(sources)
	for _, c := range domain.AllCategories {
		l := levels[c]
		f.Categories[c] = domain.RiskAssessment{Level: l, Confidence: conf, Drivers: []string{c.String() + " driver"}}
	}
	f.OverallRisk = domain.MaxLevel(f.Categories)
	return f
}
