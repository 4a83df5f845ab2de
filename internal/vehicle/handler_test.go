package vehicle

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputFromForm(t *testing.T) {
	form := url.Values{
		"model":       {"Iron 883"},
		"year":        {"2020"},
		"mileage":     {"12000"},
		"price":       {"8500.50"},
		"description": {"Great shape"},
		"featured":    {"1"},
	}
	r := httptest.NewRequest("POST", "/api/v1/vehicles", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	in, err := inputFromForm(r)
	require.NoError(t, err)

	assert.Equal(t, "Iron 883", in.Model)
	assert.Equal(t, "Harley-Davidson", in.Brand)
	assert.Equal(t, "custom", in.Category)
	assert.Equal(t, "moto", in.Type)
	assert.Equal(t, 2020, in.Year)
	assert.Equal(t, 12000, in.Mileage)
	assert.Equal(t, 8500.50, in.Price)
	require.NotNil(t, in.Description)
	assert.Equal(t, "Great shape", *in.Description)
	assert.True(t, in.Featured)
	assert.False(t, in.Sold)
}

func TestInputFromFormRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{"missing model", url.Values{"year": {"2020"}, "mileage": {"1"}, "price": {"1"}}},
		{"missing year", url.Values{"model": {"X"}, "mileage": {"1"}, "price": {"1"}}},
		{"bad mileage", url.Values{"model": {"X"}, "year": {"2020"}, "mileage": {"many"}, "price": {"1"}}},
		{"bad price", url.Values{"model": {"X"}, "year": {"2020"}, "mileage": {"1"}, "price": {"cheap"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/v1/vehicles", strings.NewReader(tt.form.Encode()))
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			_, err := inputFromForm(r)
			assert.Error(t, err)
		})
	}
}

func TestFilterFromQuery(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/vehicles?model=iron&sold=all&sort=price_asc&minPrice=1000&year=2021&featured=true", nil)

	f := filterFromQuery(r)

	assert.Equal(t, "iron", f.Model)
	assert.Equal(t, SoldAll, f.Sold)
	assert.Equal(t, "price_asc", f.Sort)
	require.NotNil(t, f.MinPrice)
	assert.Equal(t, float64(1000), *f.MinPrice)
	require.NotNil(t, f.Year)
	assert.Equal(t, 2021, *f.Year)
	assert.True(t, f.Featured)
	assert.Nil(t, f.MaxPrice)
}

func TestNormalizeSold(t *testing.T) {
	tests := map[string]string{
		"all":   SoldAll,
		"ALL":   SoldAll,
		"true":  SoldOnly,
		"1":     SoldOnly,
		"false": SoldExclude,
		"0":     SoldExclude,
		"":      SoldExclude,
		"junk":  SoldExclude,
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeSold(in), "input %q", in)
	}
}
