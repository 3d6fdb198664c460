package geoip

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seuros/funnelscope/internal/dataset"
)

func TestOpenWithoutPathIsDisabled(t *testing.T) {
	locator, err := Open("")
	require.NoError(t, err)
	assert.False(t, locator.Enabled())
	assert.Equal(t, "", locator.CountryCode("8.8.8.8"))
	assert.Equal(t, dataset.CountryGlobal, locator.DefaultCountry("8.8.8.8", dataset.CountryGlobal))
	assert.NoError(t, locator.Close())
}

func TestOpenMissingFileFails(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.mmdb"))
	assert.Error(t, err)
}

func TestNilLocatorIsSafe(t *testing.T) {
	var locator *Locator
	assert.False(t, locator.Enabled())
	assert.Equal(t, dataset.CountryUS, locator.DefaultCountry("1.1.1.1", dataset.CountryUS))
}

func TestCountryForCode(t *testing.T) {
	assert.Equal(t, dataset.CountryUS, countryForCode("US", dataset.CountryGlobal))
	assert.Equal(t, dataset.CountryUS, countryForCode("us", dataset.CountryGlobal))
	assert.Equal(t, dataset.CountryGlobal, countryForCode("DE", dataset.CountryGlobal))
	assert.Equal(t, dataset.CountryGlobal, countryForCode("", dataset.CountryGlobal))
}
