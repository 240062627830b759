package stage

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/agri-risk-service/internal/domain"
	"github.com/couchcryptid/agri-risk-service/internal/observability"
)

// ForecastDeps are the collaborators the forecast stage reads from. Any of
// them may be nil; a nil provider is an absent source.
type ForecastDeps struct {
	Geocoder  domain.Geocoder
	Weather   domain.WeatherProvider
	Satellite domain.SatelliteProvider
	Climate   domain.ClimateProvider
	Soil      domain.SoilProvider
}

// Forecast resolves the location, gathers readings, and fuses them.
type Forecast struct {
	deps    ForecastDeps
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewForecast creates the forecast stage.
func NewForecast(deps ForecastDeps, logger *slog.Logger, metrics *observability.Metrics) *Forecast {
	return &Forecast{deps: deps, logger: logger, metrics: metrics}
}

func (f *Forecast) Name() string { return NameForecast }

// Run produces a forecast for rc.Query over rc.HorizonDays. Provider failures
// degrade to absent readings; an unresolvable location or a cancelled
// context fails the stage.
func (f *Forecast) Run(ctx context.Context, rc *RunContext) (Result, error) {
	if rc.Location == nil {
		loc, err := f.resolve(ctx, rc.Query)
		if err != nil {
			return Result{Status: StatusError}, fmt.Errorf("resolve location %q: %w", rc.Query, err)
		}
		rc.Location = &loc
	}
	loc := *rc.Location

	in := domain.FusionInput{Zone: domain.ZoneForLatitude(loc.Lat)}

	var g errgroup.Group
	if f.deps.Weather != nil {
		g.Go(func() error {
			in.Weather = fetch(ctx, f, collabWeather, func(ctx context.Context) (*domain.WeatherReading, error) {
				return f.deps.Weather.Weather(ctx, loc, rc.HorizonDays)
			})
			return nil
		})
	}
	if f.deps.Satellite != nil {
		g.Go(func() error {
			in.Satellite = fetch(ctx, f, collabSatellite, func(ctx context.Context) (*domain.SatelliteReading, error) {
				return f.deps.Satellite.Satellite(ctx, loc)
			})
			return nil
		})
	}
	if f.deps.Climate != nil {
		g.Go(func() error {
			in.Climate = fetch(ctx, f, collabClimate, func(ctx context.Context) (*domain.ClimateReading, error) {
				return f.deps.Climate.Climate(ctx, loc)
			})
			return nil
		})
	}
	if f.deps.Soil != nil {
		g.Go(func() error {
			in.Soil = fetch(ctx, f, collabSoil, func(ctx context.Context) (*domain.SoilReading, error) {
				return f.deps.Soil.Soil(ctx, loc)
			})
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Result{Status: StatusError}, err
	}

	fusion := domain.Fuse(in)
	forecast := domain.NewForecastResult(loc, rc.HorizonDays, in.Zone, fusion)

	f.logger.Debug("forecast fused",
		"location", loc.Label(),
		"horizon_days", rc.HorizonDays,
		"sources", fusion.Sources,
		"overall_risk", fusion.Overall,
	)

	return Result{
		Status:     StatusSuccess,
		Confidence: meanConfidence(forecast.Categories),
		Forecast:   forecast,
	}, nil
}

func (f *Forecast) resolve(ctx context.Context, query string) (domain.Location, error) {
	if lat, lon, ok := domain.ParseCoordinates(query); ok {
		loc := domain.Location{Query: query, Lat: lat, Lon: lon}
		if f.deps.Geocoder == nil {
			return loc, nil
		}
		r, err := f.deps.Geocoder.ReverseGeocode(ctx, lat, lon)
		f.metrics.CollaboratorCall(collabGeocoder, err)
		if err != nil {
			f.logger.Warn("reverse geocode failed", "lat", lat, "lon", lon, "error", err)
			return loc, nil
		}
		loc.Name = r.FormattedAddress
		return loc, nil
	}

	cleaned, err := domain.CleanLocation(query)
	if err != nil {
		return domain.Location{}, err
	}
	if f.deps.Geocoder == nil {
		return domain.Location{}, ErrNoGeocoder
	}
	r, err := f.deps.Geocoder.ForwardGeocode(ctx, cleaned)
	f.metrics.CollaboratorCall(collabGeocoder, err)
	if err != nil {
		return domain.Location{}, err
	}
	if r.Empty() {
		return domain.Location{}, ErrLocationNotFound
	}
	return domain.Location{Query: cleaned, Name: r.FormattedAddress, Lat: r.Lat, Lon: r.Lon}, nil
}

// fetch calls one provider, turning failures into an absent reading.
func fetch[T any](ctx context.Context, f *Forecast, name string, call func(context.Context) (*T, error)) *T {
	v, err := call(ctx)
	f.metrics.CollaboratorCall(name, err)
	if err != nil {
		f.logger.Warn("source unavailable, treating as absent", "source", name, "error", err)
		return nil
	}
	return v
}

func meanConfidence(categories map[domain.RiskCategory]domain.RiskAssessment) int {
	if len(categories) == 0 {
		return 0
	}
	total := 0
	for _, a := range categories {
		total += a.Confidence
	}
	return total / len(categories)
}
