package handlers

import (
	"github.com/biter777/countries"

	"github.com/seuros/funnelscope/internal/dataset"
)

// countryLabel returns the display name of a country dimension value.
func countryLabel(c dataset.Country) string {
	if c == dataset.CountryGlobal {
		return "Global"
	}
	code := countries.ByName(string(c))
	if code == countries.Unknown {
		return string(c)
	}
	return code.String()
}

// countryOptions lists the supported countries in display order.
func countryOptions() []CountryOption {
	options := make([]CountryOption, 0, len(dataset.Countries))
	for _, c := range dataset.Countries {
		options = append(options, CountryOption{Value: c, Label: countryLabel(c)})
	}
	return options
}
