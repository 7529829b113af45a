package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	c := newClient(newMockConn())

	reg.Register(1, c)

	got, ok := reg.Lookup(1)
	require.True(t, ok)
	assert.Same(t, c, got)

	_, ok = reg.Lookup(2)
	assert.False(t, ok)
}

func TestRegistryReplacementClosesPrevious(t *testing.T) {
	reg := NewRegistry()
	firstConn := newMockConn()
	first := newClient(firstConn)
	second := newClient(newMockConn())

	reg.Register(1, first)
	reg.Register(1, second)

	// The identity maps to the newer connection and the older one is closed.
	got, ok := reg.Lookup(1)
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.True(t, firstConn.isClosed())

	// The replaced socket's departure must not evict the replacement.
	assert.False(t, reg.Unregister(1, first))
	got, ok = reg.Lookup(1)
	require.True(t, ok)
	assert.Same(t, second, got)
}

func TestRegistryUnregister(t *testing.T) {
	reg := NewRegistry()
	c := newClient(newMockConn())
	reg.Register(1, c)

	assert.True(t, reg.Unregister(1, c))
	_, ok := reg.Lookup(1)
	assert.False(t, ok)

	// Second call is a no-op.
	assert.False(t, reg.Unregister(1, c))
}

func TestRegistrySnapshot(t *testing.T) {
	reg := NewRegistry()
	assert.Empty(t, reg.Snapshot())

	reg.Register(1, newClient(newMockConn()))
	reg.Register(2, newClient(newMockConn()))
	reg.Register(3, newClient(newMockConn()))

	assert.ElementsMatch(t, []uint{1, 2, 3}, reg.Snapshot())
}
