package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrEmptyLocation is returned when a location string has no usable content.
var ErrEmptyLocation = errors.New("location is empty")

// Location is a resolved point of interest.
type Location struct {
	Query string  `json:"query"`
	Name  string  `json:"name,omitempty"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

// Label returns the most descriptive name for the location.
func (l Location) Label() string {
	if l.Name != "" {
		return l.Name
	}
	if l.Query != "" {
		return l.Query
	}
	return fmt.Sprintf("%.4f,%.4f", l.Lat, l.Lon)
}

var coordinatePattern = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*$`)

// ParseCoordinates recognizes a "lat,lon" literal. The second return value
// is false for anything else, including out-of-range coordinates.
func ParseCoordinates(s string) (lat, lon float64, ok bool) {
	m := coordinatePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, 0, false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, false
	}
	return lat, lon, true
}

// CleanLocation normalizes a user-supplied place name: it collapses
// whitespace, trims stray punctuation, and drops empty comma segments.
func CleanLocation(s string) (string, error) {
	parts := strings.Split(s, ",")
	kept := parts[:0]
	for _, p := range parts {
		p = strings.Join(strings.Fields(p), " ")
		p = strings.Trim(p, " .;:")
		if p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return "", ErrEmptyLocation
	}
	return strings.Join(kept, ", "), nil
}
