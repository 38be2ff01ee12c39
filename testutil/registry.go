package testutil

import (
	"github.com/skosovsky/toolflow"
)

// NewTestRegistry returns a Registry with panic recovery enabled holding tools in order.
// It panics on a duplicate name, which is always a bug in the test itself.
func NewTestRegistry(tools ...toolflow.Tool) *toolflow.Registry {
	reg, err := toolflow.NewRegistryWith(tools, toolflow.WithRecoverPanics(true))
	if err != nil {
		panic(err)
	}
	return reg
}
