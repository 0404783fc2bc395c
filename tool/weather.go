package tool

import (
	"context"
	"fmt"
	"strings"
)

// Weather reports canned weather conditions for a small set of cities.
// It stands in for a real weather API in examples and tests.
type Weather struct {
	// Conditions maps lowercase city names to their reported weather.
	Conditions map[string]string
}

// NewWeather creates a Weather tool with a default set of cities.
func NewWeather() *Weather {
	return &Weather{
		Conditions: map[string]string{
			"san francisco": "60°F, foggy",
			"new york":      "75°F, sunny",
			"london":        "55°F, rainy",
			"tokyo":         "70°F, clear",
		},
	}
}

// Name returns the tool name.
func (w *Weather) Name() string {
	return "weather"
}

// Description returns what the tool does, for the model's tool selection.
func (w *Weather) Description() string {
	return "Returns the current weather for a city, e.g. 'San Francisco'."
}

// Call looks up the city and returns its conditions.
func (w *Weather) Call(ctx context.Context, input string) (string, error) {
	city := strings.ToLower(strings.TrimSpace(input))
	if conditions, ok := w.Conditions[city]; ok {
		return fmt.Sprintf("Weather in %s: %s", input, conditions), nil
	}
	return fmt.Sprintf("No weather data for %s", input), nil
}
