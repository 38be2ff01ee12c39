// Package toolkits bundles the built-in tools.
package toolkits

import (
	"github.com/skosovsky/toolflow"
	"github.com/skosovsky/toolflow/toolkits/calculator"
	"github.com/skosovsky/toolflow/toolkits/textops"
	"github.com/skosovsky/toolflow/toolkits/weather"
)

// Default returns calculator, get_weather and string_operations, in that order.
func Default(opts ...toolflow.ToolOption) ([]toolflow.Tool, error) {
	ctors := []func(...toolflow.ToolOption) (toolflow.Tool, error){
		calculator.New,
		weather.New,
		textops.New,
	}
	tools := make([]toolflow.Tool, 0, len(ctors))
	for _, ctor := range ctors {
		t, err := ctor(opts...)
		if err != nil {
			return nil, err
		}
		tools = append(tools, t)
	}
	return tools, nil
}

// DefaultRegistry returns a Registry holding the Default tools.
func DefaultRegistry(opts ...toolflow.RegistryOption) (*toolflow.Registry, error) {
	tools, err := Default()
	if err != nil {
		return nil, err
	}
	return toolflow.NewRegistryWith(tools, opts...)
}
