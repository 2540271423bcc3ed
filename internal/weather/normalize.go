package weather

import (
	"encoding/json"
	"strings"
	"time"
)

// Normalize maps a raw provider payload plus an already reduced forecast into
// the canonical response. fallbackTime is used when the payload carries no
// observation timestamp.
//
// Feels-like, pressure and visibility may be absent and stay nil. City,
// country, the first condition entry and temperature are required.
func Normalize(raw *RawCurrent, forecast []DailyForecast, source Source, fallbackTime time.Time) (*Response, error) {
	if raw == nil {
		return nil, malformed("empty current conditions payload")
	}
	if strings.TrimSpace(raw.Name) == "" {
		return nil, malformed("missing city name")
	}
	if strings.TrimSpace(raw.Sys.Country) == "" {
		return nil, malformed("missing country code for %q", raw.Name)
	}
	if len(raw.Weather) == 0 {
		return nil, malformed("missing weather condition for %q", raw.Name)
	}
	if raw.Main.Temp == nil {
		return nil, malformed("missing temperature for %q", raw.Name)
	}

	observed := fallbackTime.UTC()
	if raw.Dt > 0 {
		observed = time.Unix(raw.Dt, 0).UTC()
	}

	if forecast == nil {
		forecast = []DailyForecast{}
	}

	return &Response{
		City:            raw.Name,
		Country:         raw.Sys.Country,
		ObservationTime: observed,
		Temperature:     *raw.Main.Temp,
		FeelsLike:       cloneFloat(raw.Main.FeelsLike),
		Description:     raw.Weather[0].Description,
		Icon:            raw.Weather[0].Icon,
		WindSpeed:       raw.Wind.Speed,
		Humidity:        raw.Main.Humidity,
		Pressure:        cloneFloat(raw.Main.Pressure),
		Visibility:      cloneFloat(raw.Visibility),
		Forecast:        forecast,
		Source:          source,
	}, nil
}

// DecodeResponse parses a canonical body produced by another service and
// validates it. Temperature must be present; a missing value is not 0°C.
func DecodeResponse(data []byte) (*Response, error) {
	var presence struct {
		Temp *float64 `json:"temp"`
	}
	if err := json.Unmarshal(data, &presence); err != nil {
		return nil, malformed("decode response: %v", err)
	}

	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, malformed("decode response: %v", err)
	}

	if err := Validate(&out); err != nil {
		return nil, err
	}
	if presence.Temp == nil {
		return nil, malformed("missing temperature for %q", out.City)
	}

	return &out, nil
}

// Validate checks that a response carries the identity and condition fields
// the display layer relies on.
func Validate(r *Response) error {
	if r == nil {
		return malformed("empty response")
	}
	if strings.TrimSpace(r.City) == "" {
		return malformed("missing city name")
	}
	if strings.TrimSpace(r.Country) == "" {
		return malformed("missing country code for %q", r.City)
	}
	if strings.TrimSpace(r.Description) == "" || strings.TrimSpace(r.Icon) == "" {
		return malformed("missing weather condition for %q", r.City)
	}
	if r.Forecast == nil {
		return malformed("missing forecast for %q", r.City)
	}
	if len(r.Forecast) > MaxForecastDays {
		return malformed("forecast for %q has %d entries", r.City, len(r.Forecast))
	}
	return nil
}
