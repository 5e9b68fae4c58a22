package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeConn struct {
	mu     sync.Mutex
	closed bool
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func TestSessionRegistryRegister(t *testing.T) {
	registry := NewSessionRegistry()
	conn := &fakeConn{}

	assert.Nil(t, registry.Register("s1", conn))
	assert.True(t, registry.IsConnected("s1"))
	assert.Equal(t, 1, registry.Count())
}

func TestSessionRegistryDuplicateReplacesAndReturnsDisplaced(t *testing.T) {
	registry := NewSessionRegistry()
	first := &fakeConn{}
	second := &fakeConn{}

	assert.Nil(t, registry.Register("s1", first))
	displaced := registry.Register("s1", second)
	assert.Same(t, first, displaced)

	assert.True(t, registry.IsConnected("s1"))
	assert.Equal(t, 1, registry.Count())
}

func TestSessionRegistryReRegisterSameConn(t *testing.T) {
	registry := NewSessionRegistry()
	conn := &fakeConn{}

	registry.Register("s1", conn)
	assert.Nil(t, registry.Register("s1", conn))
	assert.Equal(t, 1, registry.Count())
}

func TestSessionRegistryDeregister(t *testing.T) {
	registry := NewSessionRegistry()
	conn := &fakeConn{}

	registry.Register("s1", conn)
	registry.Deregister("s1", conn)

	assert.False(t, registry.IsConnected("s1"))
	assert.Equal(t, 0, registry.Count())
}

func TestSessionRegistryDeregisterStaleConnIsNoop(t *testing.T) {
	registry := NewSessionRegistry()
	first := &fakeConn{}
	second := &fakeConn{}

	registry.Register("s1", first)
	registry.Register("s1", second)

	// The displaced connection's cleanup must not remove its replacement.
	registry.Deregister("s1", first)
	assert.True(t, registry.IsConnected("s1"))

	registry.Deregister("s1", second)
	assert.False(t, registry.IsConnected("s1"))
}

func TestSessionRegistryConcurrentAccess(t *testing.T) {
	registry := NewSessionRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			conn := &fakeConn{}
			registry.Register(id, conn)
			registry.IsConnected(id)
			registry.Deregister(id, conn)
		}(string(rune('a' + i%26)))
	}
	wg.Wait()

	assert.Equal(t, 0, registry.Count())
}
