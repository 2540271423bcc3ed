package weather

// RawCondition is one entry of the provider "weather" array.
type RawCondition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// RawCurrent mirrors the provider current-conditions payload. Optional
// fields are pointers so that absence can be told apart from zero.
type RawCurrent struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main struct {
		Temp      *float64 `json:"temp"`
		FeelsLike *float64 `json:"feels_like"`
		Humidity  float64  `json:"humidity"`
		Pressure  *float64 `json:"pressure"`
	} `json:"main"`
	Weather []RawCondition `json:"weather"`
	Wind    struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Visibility *float64 `json:"visibility"`
	Dt         int64    `json:"dt"`
}

// RawForecastPoint is a single 3-hour slot of the provider forecast.
type RawForecastPoint struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []RawCondition `json:"weather"`
}

// RawForecast mirrors the provider 5 day / 3 hour forecast payload.
type RawForecast struct {
	List []RawForecastPoint `json:"list"`
	City struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"city"`
}
