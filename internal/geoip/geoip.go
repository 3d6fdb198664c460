package geoip

import (
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"

	"github.com/seuros/funnelscope/internal/dataset"
	"github.com/seuros/funnelscope/internal/logging"
)

// Locator maps client IPs to the dashboard's country dimension. A Locator
// without a database is valid and always answers with the fallback.
type Locator struct {
	reader *geoip2.Reader
}

// Open loads a MaxMind country or city database. An empty path disables
// lookups without error.
func Open(path string) (*Locator, error) {
	if strings.TrimSpace(path) == "" {
		return &Locator{}, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open GeoIP database: %w", err)
	}
	logging.L().Info("GeoIP database loaded", "path", path)
	return &Locator{reader: reader}, nil
}

// Enabled reports whether a database is loaded.
func (l *Locator) Enabled() bool {
	return l != nil && l.reader != nil
}

// CountryCode returns the ISO 3166-1 alpha-2 code for ip, or "" when unknown.
func (l *Locator) CountryCode(ipStr string) string {
	if !l.Enabled() {
		return ""
	}
	ip := net.ParseIP(strings.TrimSpace(ipStr))
	if ip == nil {
		return ""
	}
	record, err := l.reader.Country(ip)
	if err != nil {
		logging.L().Debug("GeoIP lookup failed", "ip", ipStr, "error", err)
		return ""
	}
	return record.Country.IsoCode
}

// DefaultCountry picks the country a request without an explicit selection
// starts on: us for US clients, fallback otherwise.
func (l *Locator) DefaultCountry(ipStr string, fallback dataset.Country) dataset.Country {
	return countryForCode(l.CountryCode(ipStr), fallback)
}

func countryForCode(code string, fallback dataset.Country) dataset.Country {
	if strings.EqualFold(code, "US") {
		return dataset.CountryUS
	}
	return fallback
}

// Close releases the database.
func (l *Locator) Close() error {
	if !l.Enabled() {
		return nil
	}
	return l.reader.Close()
}
