package display

// Glyph maps a provider icon code such as "10d" to a terminal glyph.
// Unknown codes render as the clear-sky sun.
func Glyph(icon string) string {
	switch icon {
	case "01d", "01n":
		return "☀"
	case "02d", "02n":
		return "⛅"
	case "03d", "03n", "04d", "04n":
		return "☁"
	case "09d", "09n":
		return "🌦"
	case "10d", "10n":
		return "🌧"
	case "11d", "11n":
		return "⛈"
	case "13d", "13n":
		return "🌨"
	case "50d", "50n":
		return "🌫"
	default:
		return "☀"
	}
}
