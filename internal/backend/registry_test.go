package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sunsetrd/internal/interp"
)

type mockBackend struct {
	name string
}

func (m *mockBackend) Name() string             { return m.name }
func (m *mockBackend) TestConnection() error    { return nil }
func (m *mockBackend) Apply(interp.Values) error { return nil }
func (m *mockBackend) Cleanup() error           { return nil }

func TestRegistry_Register(t *testing.T) {
	tests := []struct {
		name        string
		info        Info
		wantErr     bool
		errContains string
	}{
		{
			name: "valid registration",
			info: Info{
				Name:        "socket",
				Description: "helper-daemon socket backend",
				Priority:    PriorityDefault,
				Factory:     func(ctx *Context) (Backend, error) { return &mockBackend{name: "socket"}, nil },
			},
		},
		{
			name:        "empty name",
			info:        Info{Factory: func(ctx *Context) (Backend, error) { return nil, nil }},
			wantErr:     true,
			errContains: "name cannot be empty",
		},
		{
			name:        "nil factory",
			info:        Info{Name: "socket"},
			wantErr:     true,
			errContains: "factory cannot be nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewRegistry()
			err := registry.Register(tt.info)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRegistry_PriorityOverride(t *testing.T) {
	registry := NewRegistry()

	require.NoError(t, registry.Register(Info{
		Name:        "gamma",
		Description: "default gamma backend",
		Priority:    PriorityDefault,
		Factory:     func(ctx *Context) (Backend, error) { return &mockBackend{name: "default"}, nil },
	}))

	require.NoError(t, registry.Register(Info{
		Name:        "gamma",
		Description: "vendor-specific gamma backend",
		Priority:    PriorityOverride,
		Factory:     func(ctx *Context) (Backend, error) { return &mockBackend{name: "override"}, nil },
	}))

	info := registry.Get("gamma")
	require.NotNil(t, info)
	assert.Equal(t, "vendor-specific gamma backend", info.Description)

	b, err := info.Factory(nil)
	require.NoError(t, err)
	assert.Equal(t, "override", b.Name())
}

func TestRegistry_LowerPrioritySkipped(t *testing.T) {
	registry := NewRegistry()

	require.NoError(t, registry.Register(Info{
		Name: "gamma", Priority: PriorityOverride, Description: "high",
		Factory: func(ctx *Context) (Backend, error) { return &mockBackend{name: "high"}, nil },
	}))
	require.NoError(t, registry.Register(Info{
		Name: "gamma", Priority: PriorityDefault, Description: "low",
		Factory: func(ctx *Context) (Backend, error) { return &mockBackend{name: "low"}, nil },
	}))

	info := registry.Get("gamma")
	require.NotNil(t, info)
	assert.Equal(t, "high", info.Description)
}

func TestRegistry_Create(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(Info{
		Name:    "socket",
		Factory: func(ctx *Context) (Backend, error) { return &mockBackend{name: "socket"}, nil },
	}))

	b, err := registry.Create("socket", nil)
	require.NoError(t, err)
	assert.Equal(t, "socket", b.Name())

	_, err = registry.Create("nonexistent", nil)
	assert.Error(t, err)
}

func TestRegistry_NamesAndClear(t *testing.T) {
	registry := NewRegistry()
	registry.Register(Info{Name: "socket", Factory: func(ctx *Context) (Backend, error) { return &mockBackend{}, nil }})
	registry.Register(Info{Name: "gamma", Factory: func(ctx *Context) (Backend, error) { return &mockBackend{}, nil }})

	assert.ElementsMatch(t, []string{"socket", "gamma"}, registry.Names())

	registry.Clear()
	assert.Empty(t, registry.Names())
}
