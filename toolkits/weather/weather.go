// Package weather provides get_weather, a lookup in a fixed table of city reports.
package weather

import (
	"context"
	"maps"
	"slices"

	"github.com/skosovsky/toolflow"
)

// Name is the registered tool name.
const Name = "get_weather"

const description = "Gets the current weather for a given city"

var reports = map[string]string{
	"New York": "Sunny, 72°F",
	"London":   "Cloudy, 15°C",
	"Tokyo":    "Rainy, 18°C",
	"Paris":    "Partly cloudy, 20°C",
}

// Args are the get_weather arguments.
type Args struct {
	City string `json:"city" description:"The city name"`
}

// New returns the get_weather tool.
func New(opts ...toolflow.ToolOption) (toolflow.Tool, error) {
	return toolflow.NewTool(Name, description, func(_ context.Context, args Args) (string, error) {
		return Lookup(args.City), nil
	}, opts...)
}

// Lookup returns the report for city. Matching is exact.
func Lookup(city string) string {
	if r, ok := reports[city]; ok {
		return r
	}
	return "Weather data not available for " + city
}

// Cities lists the cities with a report, sorted.
func Cities() []string {
	return slices.Sorted(maps.Keys(reports))
}
