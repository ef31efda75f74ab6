package weld

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Binding{Scope: "App", BoundType: "greet.Greeter", Impl: "greet.EnglishGreeter"}))
	require.NoError(t, r.Register(Binding{Scope: "App", BoundType: "greet.Clock", Impl: "greet.SystemClock"}))

	bs, err := r.Bindings("App")
	require.NoError(t, err)
	require.Len(t, bs, 2)
	// Ordered by bound type.
	assert.Equal(t, "greet.Clock", bs[0].BoundType)
	assert.Equal(t, "greet.Greeter", bs[1].BoundType)

	assert.Equal(t, []string{"App"}, r.Scopes())
}

func TestRegistryIdenticalReRegistrationIsNoop(t *testing.T) {
	r := NewRegistry()
	b := Binding{Scope: "App", BoundType: "greet.Greeter", Impl: "greet.EnglishGreeter"}
	require.NoError(t, r.Register(b))
	require.NoError(t, r.Register(b))

	bs, err := r.Bindings("App")
	require.NoError(t, err)
	assert.Len(t, bs, 1)
}

func TestRegistryConflict(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Binding{Scope: "App", BoundType: "greet.Greeter", Impl: "greet.EnglishGreeter"}))

	err := r.Register(Binding{Scope: "App", BoundType: "greet.Greeter", Impl: "greet.FrenchGreeter"})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.ErrorIs(t, err, ErrConflictingBinding)

	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "App", ce.Scope)
	assert.Equal(t, "greet.EnglishGreeter", ce.Existing)
	assert.Equal(t, "greet.FrenchGreeter", ce.Incoming)

	// The same implementations bind without conflict in another scope.
	require.NoError(t, r.Register(Binding{Scope: "Test", BoundType: "greet.Greeter", Impl: "greet.FrenchGreeter"}))
}

func TestRegistryMultibindings(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Binding{Scope: "App", BoundType: "metrics.Sink", Impl: "metrics.Statsd", Multi: true}))
	require.NoError(t, r.Register(Binding{Scope: "App", BoundType: "metrics.Sink", Impl: "metrics.Prometheus", Multi: true}))

	bs, err := r.Bindings("App")
	require.NoError(t, err)
	assert.Len(t, bs, 2)

	// A plain binding cannot join an existing multibinding set.
	err = r.Register(Binding{Scope: "App", BoundType: "metrics.Sink", Impl: "metrics.Plain"})
	assert.True(t, IsConflict(err))
}

func TestRegistryUnknownScope(t *testing.T) {
	r := NewRegistry()
	_, err := r.Bindings("Nowhere")
	assert.ErrorIs(t, err, ErrUnknownScope)
}

func TestMustRegisterPanicsOnConflict(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(Binding{Scope: "App", BoundType: "greet.Greeter", Impl: "greet.EnglishGreeter"})
	assert.Panics(t, func() {
		r.MustRegister(Binding{Scope: "App", BoundType: "greet.Greeter", Impl: "greet.FrenchGreeter"})
	})
}

func TestRegistryConcurrentRegistration(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	b := Binding{Scope: "App", BoundType: "greet.Greeter", Impl: "greet.EnglishGreeter"}
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Register(b))
		}()
	}
	wg.Wait()

	bs, err := r.Bindings("App")
	require.NoError(t, err)
	assert.Len(t, bs, 1)
}

func TestDefaultRegistry(t *testing.T) {
	require.NoError(t, Register(Binding{Scope: "registry-test", BoundType: "pkg.T", Impl: "pkg.Impl"}))
	bs, err := Bindings("registry-test")
	require.NoError(t, err)
	assert.Len(t, bs, 1)
}
