// Package geoip resolves client IP addresses to a country code and a
// coordinate pair using a MaxMind database. Callers decide what to fall
// back to when resolution fails.
package geoip

import (
	"errors"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

var ErrUnresolvable = errors.New("geoip: address could not be resolved")

type Resolver interface {
	Country(ip string) (string, error)
	LatLon(ip string) (float64, float64, error)
}

type MaxMindResolver struct {
	db *geoip2.Reader
}

func Open(path string) (*MaxMindResolver, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip database: %w", err)
	}
	return &MaxMindResolver{db: db}, nil
}

func (r *MaxMindResolver) Close() error {
	return r.db.Close()
}

func (r *MaxMindResolver) Country(ip string) (string, error) {
	rec, err := r.lookup(ip)
	if err != nil {
		return "", err
	}
	if rec.Country.IsoCode == "" {
		return "", ErrUnresolvable
	}
	return rec.Country.IsoCode, nil
}

func (r *MaxMindResolver) LatLon(ip string) (float64, float64, error) {
	rec, err := r.lookup(ip)
	if err != nil {
		return 0, 0, err
	}
	// MaxMind returns a zero location for addresses it has no data on.
	if rec.Location.Latitude == 0 && rec.Location.Longitude == 0 && rec.Country.IsoCode == "" {
		return 0, 0, ErrUnresolvable
	}
	return rec.Location.Latitude, rec.Location.Longitude, nil
}

func (r *MaxMindResolver) lookup(ip string) (*geoip2.City, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil, ErrUnresolvable
	}
	rec, err := r.db.City(parsed)
	if err != nil {
		return nil, ErrUnresolvable
	}
	return rec, nil
}

// Unavailable is used when no database file is configured; every lookup
// fails so callers take their fallback path.
type Unavailable struct{}

func (Unavailable) Country(string) (string, error) {
	return "", ErrUnresolvable
}

func (Unavailable) LatLon(string) (float64, float64, error) {
	return 0, 0, ErrUnresolvable
}
