// Package mains estimates the local electrical mains frequency so the
// recording tips can name the likely fundamental of a ground-loop buzz.
package mains

import (
	"strings"

	tz "github.com/medama-io/go-timezone-country"
	"github.com/thlib/go-timezone-local/tzlocal"
)

// HumFundamentalHz returns the probable mains hum fundamental for the machine
// this recording was made on: 60 Hz in the Americas and a handful of Asian
// and Pacific grids, 50 Hz everywhere else. Any detection failure falls back
// to 50 Hz, the globally more common standard.
func HumFundamentalHz() float64 {
	timezone, err := tzlocal.RuntimeTZ()
	if err != nil {
		return 50
	}
	return HumFundamentalForTimezone(timezone)
}

// HumFundamentalForTimezone maps an IANA timezone to its grid's mains
// frequency. Exported so tests can pin specific locales.
func HumFundamentalForTimezone(timezone string) float64 {
	// UTC/GMT and the Etc/ aliases carry no country association.
	if timezone == "UTC" || timezone == "GMT" || strings.HasPrefix(timezone, "Etc/") {
		return 50
	}

	tzMap, err := tz.NewTimezoneCountryMap()
	if err != nil {
		return 50
	}
	country, err := tzMap.GetCountry(timezone)
	if err != nil {
		return 50
	}

	// Japan runs both grids split by region; Tokyo's 50 Hz side covers the
	// larger population, so it wins the ambiguity.
	if country == "Japan" {
		return 50
	}
	if sixtyHzGrids[country] {
		return 60
	}
	return 50
}

// sixtyHzGrids lists countries whose power grid runs at 60 Hz.
// Everything absent runs at 50 Hz.
// Source: https://en.wikipedia.org/wiki/Mains_electricity_by_country
var sixtyHzGrids = map[string]bool{
	// North and Central America
	"United States": true,
	"Canada":        true,
	"Mexico":        true,
	"Belize":        true,
	"Costa Rica":    true,
	"El Salvador":   true,
	"Guatemala":     true,
	"Honduras":      true,
	"Nicaragua":     true,
	"Panama":        true,

	// Caribbean
	"Bahamas":             true,
	"Barbados":            true,
	"Cayman Islands":      true,
	"Cuba":                true,
	"Dominican Republic":  true,
	"Haiti":               true,
	"Jamaica":             true,
	"Puerto Rico":         true,
	"Trinidad and Tobago": true,
	"U.S. Virgin Islands": true,

	// South America (most of the continent runs 50 Hz)
	"Brazil":    true, // both grids exist; 60 Hz predominates
	"Colombia":  true,
	"Ecuador":   true,
	"Guyana":    true,
	"Peru":      true,
	"Suriname":  true,
	"Venezuela": true,

	// Asia
	"South Korea":  true,
	"Taiwan":       true,
	"Philippines":  true,
	"Saudi Arabia": true,

	// Pacific
	"Guam":             true,
	"American Samoa":   true,
	"Marshall Islands": true,
	"Micronesia":       true,
	"Palau":            true,
}
