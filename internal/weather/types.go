package weather

import "time"

// Source tags where a response was resolved from.
type Source string

const (
	SourceIntermediary   Source = "intermediary"
	SourceDirectProvider Source = "direct-provider"
)

// Response is the canonical weather record handed to the display layer
// regardless of which upstream produced it.
type Response struct {
	City            string          `json:"city"`
	Country         string          `json:"country"`
	ObservationTime time.Time       `json:"date"`
	Temperature     float64         `json:"temp"`
	FeelsLike       *float64        `json:"feels_like"`
	Description     string          `json:"description"`
	Icon            string          `json:"icon"`
	WindSpeed       float64         `json:"windSpeed"`
	Humidity        float64         `json:"humidity"`
	Pressure        *float64        `json:"pressure"`
	Visibility      *float64        `json:"visibility"`
	Forecast        []DailyForecast `json:"forecast"`
	Source          Source          `json:"source"`
	Cache           *CacheMetadata  `json:"cache,omitempty"`
}

// DailyForecast is a single day of the short-range forecast.
type DailyForecast struct {
	Date        time.Time `json:"date"`
	Temperature float64   `json:"temp"`
	Icon        string    `json:"icon"`
	Description string    `json:"description"`
}

// CacheMetadata is only set when a response was served from the local cache.
type CacheMetadata struct {
	Cached   bool      `json:"cached"`
	CachedAt time.Time `json:"cachedAt"`
}

// Clone returns a deep copy so cached payloads are never mutated by callers.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}

	out := *r
	out.FeelsLike = cloneFloat(r.FeelsLike)
	out.Pressure = cloneFloat(r.Pressure)
	out.Visibility = cloneFloat(r.Visibility)

	if r.Forecast != nil {
		out.Forecast = make([]DailyForecast, len(r.Forecast))
		copy(out.Forecast, r.Forecast)
	}

	if r.Cache != nil {
		meta := *r.Cache
		out.Cache = &meta
	}

	return &out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
