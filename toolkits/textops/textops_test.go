package textops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name string
		args Args
		want string
	}{
		{"uppercase", Args{"uppercase", "Hello World"}, "HELLO WORLD"},
		{"lowercase", Args{"lowercase", "Hello World"}, "hello world"},
		{"reverse", Args{"reverse", "abc"}, "cba"},
		{"reverse multibyte", Args{"reverse", "héllo"}, "olléh"},
		{"length", Args{"length", "42"}, "2"},
		{"length empty", Args{"length", ""}, "0"},
		{"length astral", Args{"length", "a😀"}, "3"},
		{"unknown", Args{"titlecase", "x"}, UnknownOperation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Apply(tt.args))
		})
	}
}

func TestNew(t *testing.T) {
	tool, err := New()
	require.NoError(t, err)
	assert.Equal(t, Name, tool.Name())

	out, err := tool.Execute(context.Background(), []byte(`{"operation":"uppercase","text":"Hello World"}`))
	require.NoError(t, err)
	assert.Equal(t, "HELLO WORLD", out)

	_, err = tool.Execute(context.Background(), []byte(`{"operation":"shout","text":"x"}`))
	require.Error(t, err)
}
