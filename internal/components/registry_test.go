package components

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterIsIdempotent(t *testing.T) {
	reg := NewRegistry()

	first := Component{Name: "about-team", Title: "About", Template: "about.html"}
	assert.True(t, reg.Register(first))

	second := Component{Name: "about-team", Title: "Replaced", Template: "other.html"}
	assert.False(t, reg.Register(second), "duplicate name should be ignored")

	got, ok := reg.Lookup("about-team")
	require.True(t, ok)
	assert.Equal(t, "About", got.Title)
	assert.Equal(t, []string{"about-team"}, reg.Names())
}

func TestRegisterRejectsEmptyName(t *testing.T) {
	reg := NewRegistry()
	assert.False(t, reg.Register(Component{Title: "nameless"}))
	assert.Empty(t, reg.Names())
}

func TestLookupUnknown(t *testing.T) {
	reg := NewRegistry()
	_, ok := reg.Lookup("missing")
	assert.False(t, ok)
}

func TestNamesKeepRegistrationOrder(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"inicio-componente", "air-quality-dashboard", "data-crud"} {
		reg.Register(Component{Name: name})
	}

	assert.Equal(t, []string{"inicio-componente", "air-quality-dashboard", "data-crud"}, reg.Names())

	names := reg.Names()
	names[0] = "mutated"
	assert.Equal(t, "inicio-componente", reg.Names()[0], "Names returns a copy")

	all := reg.All()
	require.Len(t, all, 3)
	assert.Equal(t, "data-crud", all[2].Name)
}

func TestLoadIsCallable(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Component{
		Name: "inicio-componente",
		Load: func(ctx context.Context, r *http.Request) (any, error) {
			return "hello", nil
		},
	})

	c, ok := reg.Lookup("inicio-componente")
	require.True(t, ok)
	data, err := c.Load(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", data)
}
