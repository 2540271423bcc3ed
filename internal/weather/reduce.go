package weather

import (
	"fmt"
	"time"
)

const (
	// MaxForecastDays is the number of daily entries kept after reduction.
	MaxForecastDays = 3

	// pointsPerDay is the number of 3-hour slots in a day.
	pointsPerDay = 8
)

// ForecastPolicy selects how 3-hour forecast points collapse into days.
type ForecastPolicy string

const (
	// PolicyStride keeps every 8th point starting at index 0. When the list
	// starts at the current slot the first entry is "today".
	PolicyStride ForecastPolicy = "stride"

	// PolicySkipToday drops points on the current calendar day and keeps the
	// first point of each of the following days.
	PolicySkipToday ForecastPolicy = "skip-today"
)

// Reducer collapses a fine-grained forecast list into at most MaxForecastDays
// daily entries. now is only consulted by policies that care about "today".
type Reducer interface {
	Reduce(points []RawForecastPoint, now time.Time) []DailyForecast
	Policy() ForecastPolicy
}

// NewReducer returns the reducer for policy. Calendar days are evaluated in loc;
// a nil loc means UTC.
func NewReducer(policy ForecastPolicy, loc *time.Location) (Reducer, error) {
	if loc == nil {
		loc = time.UTC
	}

	switch policy {
	case PolicyStride, "":
		return StrideReducer{}, nil
	case PolicySkipToday:
		return SkipTodayReducer{Location: loc}, nil
	default:
		return nil, fmt.Errorf("%w: unknown forecast policy %q", ErrConfiguration, policy)
	}
}

type StrideReducer struct{}

func (StrideReducer) Policy() ForecastPolicy { return PolicyStride }

func (StrideReducer) Reduce(points []RawForecastPoint, _ time.Time) []DailyForecast {
	days := make([]DailyForecast, 0, MaxForecastDays)
	for i := 0; i < len(points) && len(days) < MaxForecastDays; i += pointsPerDay {
		days = append(days, dailyFromPoint(points[i]))
	}
	return days
}

type SkipTodayReducer struct {
	Location *time.Location
}

func (r SkipTodayReducer) Policy() ForecastPolicy { return PolicySkipToday }

func (r SkipTodayReducer) Reduce(points []RawForecastPoint, now time.Time) []DailyForecast {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}

	today := now.In(loc).Format(time.DateOnly)
	seen := make(map[string]struct{}, MaxForecastDays)
	days := make([]DailyForecast, 0, MaxForecastDays)

	for _, p := range points {
		day := time.Unix(p.Dt, 0).In(loc).Format(time.DateOnly)
		if day == today {
			continue
		}
		if _, ok := seen[day]; ok {
			continue
		}

		seen[day] = struct{}{}
		days = append(days, dailyFromPoint(p))
		if len(days) == MaxForecastDays {
			break
		}
	}

	return days
}

func dailyFromPoint(p RawForecastPoint) DailyForecast {
	d := DailyForecast{
		Date:        time.Unix(p.Dt, 0).UTC(),
		Temperature: p.Main.Temp,
	}
	if len(p.Weather) > 0 {
		d.Icon = p.Weather[0].Icon
		d.Description = p.Weather[0].Description
	}
	return d
}
