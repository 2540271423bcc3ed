package display

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/vzahanych/weather-lookup/internal/weather"
)

// ForecastCards is how many forecast days are shown.
const ForecastCards = 3

const dateLayout = "Mon, Jan 2"

const unknown = "unknown"

type Options struct {
	Unit Unit
	// Location is used for dates; nil means UTC.
	Location *time.Location
}

// Render writes a plain-text view of resp: current conditions, details and
// up to three forecast cards.
func Render(w io.Writer, resp *weather.Response, opts Options) error {
	if resp == nil {
		return errors.New("display: nil weather response")
	}
	if opts.Unit == "" {
		opts.Unit = Celsius
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "%s, %s\t%s\n", resp.City, resp.Country, resp.ObservationTime.In(loc).Format(dateLayout))
	fmt.Fprintf(tw, "%s %d%s\t%s\n", Glyph(resp.Icon), opts.Unit.Convert(resp.Temperature), opts.Unit.Symbol(), resp.Description)
	fmt.Fprintf(tw, "Feels like\t%s\n", temperature(resp.FeelsLike, opts.Unit))
	fmt.Fprintf(tw, "Wind\t%s km/h\n", number(resp.WindSpeed))
	fmt.Fprintf(tw, "Humidity\t%s%%\n", number(resp.Humidity))
	fmt.Fprintf(tw, "Pressure\t%s\n", withSuffix(resp.Pressure, " hPa", number))
	fmt.Fprintf(tw, "Visibility\t%s\n", withSuffix(resp.Visibility, " km", kilometres))
	fmt.Fprintf(tw, "Source\t%s\n", source(resp, loc))

	if len(resp.Forecast) > 0 {
		fmt.Fprintf(tw, "\n%d-Day Forecast\t\n", ForecastCards)
		for i, day := range resp.Forecast {
			if i == ForecastCards {
				break
			}
			fmt.Fprintf(tw, "%s\t%s %d%s\t%s\n",
				day.Date.In(loc).Format(dateLayout),
				Glyph(day.Icon),
				opts.Unit.Convert(day.Temperature),
				opts.Unit.Symbol(),
				day.Description)
		}
	}

	return tw.Flush()
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func kilometres(metres float64) string {
	return strconv.FormatFloat(metres/1000, 'f', 1, 64)
}

func withSuffix(v *float64, suffix string, format func(float64) string) string {
	if v == nil {
		return unknown
	}
	return format(*v) + suffix
}

func temperature(v *float64, u Unit) string {
	if v == nil {
		return unknown
	}
	return fmt.Sprintf("%d%s", u.Convert(*v), u.Symbol())
}

func source(resp *weather.Response, loc *time.Location) string {
	if resp.Cache != nil && resp.Cache.Cached {
		return fmt.Sprintf("%s (cached %s)", resp.Source, resp.Cache.CachedAt.In(loc).Format(time.Kitchen))
	}
	return string(resp.Source)
}
