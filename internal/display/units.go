package display

import (
	"fmt"
	"math"
	"strings"
)

// Unit is a temperature display unit. Canonical data is always Celsius.
type Unit string

const (
	Celsius    Unit = "celsius"
	Fahrenheit Unit = "fahrenheit"
)

func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "c", string(Celsius):
		return Celsius, nil
	case "f", string(Fahrenheit):
		return Fahrenheit, nil
	default:
		return "", fmt.Errorf("unknown temperature unit %q (want celsius or fahrenheit)", s)
	}
}

// Convert turns a Celsius value into a whole number in u. Halves round
// towards positive infinity.
func (u Unit) Convert(celsius float64) int {
	v := celsius
	if u == Fahrenheit {
		v = celsius*9/5 + 32
	}
	return int(math.Floor(v + 0.5))
}

func (u Unit) Symbol() string {
	if u == Fahrenheit {
		return "°F"
	}
	return "°C"
}
