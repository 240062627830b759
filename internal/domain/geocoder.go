package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Empty reports whether the provider found nothing.
func (r GeocodingResult) Empty() bool {
	return r.FormattedAddress == "" && r.PlaceName == ""
}

// Geocoder resolves farm locations.
type Geocoder interface {
	// ForwardGeocode converts a free-form place query to coordinates.
	ForwardGeocode(ctx context.Context, query string) (GeocodingResult, error)

	// ReverseGeocode converts coordinates to place details.
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}
