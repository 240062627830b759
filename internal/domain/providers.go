package domain

import (
	"context"
	"time"
)

// Collaborators the analysis stages depend on. Each is an opaque remote call
// that either returns a value or fails; callers decide how failures degrade.

// WeatherProvider returns a forecast summary for the coming days.
type WeatherProvider interface {
	Weather(ctx context.Context, loc Location, days int) (*WeatherReading, error)
}

// SatelliteProvider returns observed conditions for the recent past.
type SatelliteProvider interface {
	Satellite(ctx context.Context, loc Location) (*SatelliteReading, error)
}

// ClimateProvider returns land-surface indicators.
type ClimateProvider interface {
	Climate(ctx context.Context, loc Location) (*ClimateReading, error)
}

// SoilProvider returns the soil profile at a location.
type SoilProvider interface {
	Soil(ctx context.Context, loc Location) (*SoilReading, error)
}

// SearchHit is one web search result.
type SearchHit struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet,omitempty"`
}

// Searcher runs web searches.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
}

// AdvisoryWriter produces free-text advice for a prompt.
type AdvisoryWriter interface {
	WriteAdvisory(ctx context.Context, prompt string) (string, error)
}

// Notification is a message destined for a farmer.
type Notification struct {
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"sent_at"`
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
