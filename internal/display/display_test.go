package display

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/weather-lookup/internal/weather"
)

func ptr(v float64) *float64 { return &v }

func TestUnit_Convert(t *testing.T) {
	tests := []struct {
		name    string
		unit    Unit
		celsius float64
		want    int
	}{
		{name: "celsius rounds down", unit: Celsius, celsius: 14.4, want: 14},
		{name: "celsius half rounds up", unit: Celsius, celsius: 14.5, want: 15},
		{name: "negative half rounds up", unit: Celsius, celsius: -2.5, want: -2},
		{name: "freezing in fahrenheit", unit: Fahrenheit, celsius: 0, want: 32},
		{name: "body temperature", unit: Fahrenheit, celsius: 37, want: 99},
		{name: "minus forty", unit: Fahrenheit, celsius: -40, want: -40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.unit.Convert(tt.celsius))
		})
	}
}

func TestParseUnit(t *testing.T) {
	u, err := ParseUnit("Fahrenheit")
	require.NoError(t, err)
	assert.Equal(t, Fahrenheit, u)
	assert.Equal(t, "°F", u.Symbol())

	u, err = ParseUnit("")
	require.NoError(t, err)
	assert.Equal(t, Celsius, u)

	_, err = ParseUnit("kelvin")
	assert.Error(t, err)
}

func TestGlyph(t *testing.T) {
	assert.Equal(t, "☀", Glyph("01n"))
	assert.Equal(t, "⛅", Glyph("02d"))
	assert.Equal(t, "☁", Glyph("04n"))
	assert.Equal(t, "🌧", Glyph("10d"))
	assert.Equal(t, "🌫", Glyph("50d"))
	assert.Equal(t, "☀", Glyph(""))
	assert.Equal(t, "☀", Glyph("99x"))
}

func sample() *weather.Response {
	day := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &weather.Response{
		City:            "Tokyo",
		Country:         "JP",
		ObservationTime: day,
		Temperature:     21.6,
		FeelsLike:       ptr(22.4),
		Description:     "scattered clouds",
		Icon:            "03d",
		WindSpeed:       3.6,
		Humidity:        64,
		Pressure:        ptr(1012),
		Visibility:      ptr(9500),
		Forecast: []weather.DailyForecast{
			{Date: day.AddDate(0, 0, 1), Temperature: 23, Icon: "01d", Description: "clear sky"},
			{Date: day.AddDate(0, 0, 2), Temperature: 19.5, Icon: "10d", Description: "light rain"},
			{Date: day.AddDate(0, 0, 3), Temperature: 18, Icon: "13d", Description: "snow"},
		},
		Source: weather.SourceIntermediary,
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sample(), Options{Unit: Celsius}))

	out := buf.String()
	assert.Contains(t, out, "Tokyo, JP")
	assert.Contains(t, out, "Wed, May 1")
	assert.Contains(t, out, "22°C")
	assert.Contains(t, out, "9.5 km")
	assert.Contains(t, out, "1012 hPa")
	assert.Contains(t, out, "64%")
	assert.Contains(t, out, "3.6 km/h")
	assert.Contains(t, out, "3-Day Forecast")
	assert.Contains(t, out, "Thu, May 2")
	assert.Contains(t, out, "Sat, May 4")
	assert.Contains(t, out, "intermediary")
}

func TestRender_Fahrenheit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sample(), Options{Unit: Fahrenheit}))

	out := buf.String()
	assert.Contains(t, out, "71°F")
	assert.Contains(t, out, "73°F")
	assert.NotContains(t, out, "°C")
}

func TestRender_UnknownOptionalFields(t *testing.T) {
	resp := sample()
	resp.FeelsLike = nil
	resp.Pressure = nil
	resp.Visibility = nil

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, resp, Options{}))

	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "unknown"))
	assert.NotContains(t, out, "hPa")
}

func TestRender_LimitsForecastCards(t *testing.T) {
	resp := sample()
	resp.Forecast = append(resp.Forecast, weather.DailyForecast{
		Date: resp.ObservationTime.AddDate(0, 0, 4), Temperature: 10, Description: "extra day",
	})

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, resp, Options{}))
	assert.NotContains(t, buf.String(), "extra day")
}

func TestRender_CachedSource(t *testing.T) {
	resp := sample()
	resp.Cache = &weather.CacheMetadata{Cached: true, CachedAt: time.Date(2024, 5, 1, 15, 4, 0, 0, time.UTC)}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, resp, Options{}))
	assert.Contains(t, buf.String(), "intermediary (cached 3:04PM)")
}

func TestRender_Nil(t *testing.T) {
	assert.Error(t, Render(&bytes.Buffer{}, nil, Options{}))
}
