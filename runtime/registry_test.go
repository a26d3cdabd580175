package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"huddle/domain"
)

func Test_Registry_Register_And_Get(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Given no user is connected
	req.Zero(registry.Count())

	// When a principal connects
	conn := newTestConn("Alice", "lobby")
	previous := registry.Register(conn)

	// Then there was nothing to replace and the lookup finds it
	req.Nil(previous)
	req.Equal(1, registry.Count())
	found, ok := registry.Get("user-Alice")
	req.True(ok)
	req.Same(conn, found)
}

func Test_Registry_Second_Login_Replaces_First(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	first := newTestConn("Alice", "lobby")
	req.Nil(registry.Register(first))

	// When the same principal connects again
	second := newTestConn("Alice", "lobby")
	previous := registry.Register(second)

	// Then the old connection is handed back for closing
	req.Same(first, previous)
	req.Equal(1, registry.Count())
	found, _ := registry.Get("user-Alice")
	req.Same(second, found)
}

func Test_Registry_Remove_Ignores_Stale_Handle(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	first := newTestConn("Alice", "lobby")
	registry.Register(first)
	second := newTestConn("Alice", "lobby")
	registry.Register(second)

	// Removing through the replaced handle must not evict the live one
	req.False(registry.Remove(first))
	req.Equal(1, registry.Count())

	// The live handle removes fine
	req.True(registry.Remove(second))
	req.Zero(registry.Count())
}

func Test_Registry_TotalDropped_Sums_Connections(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	conn := NewConnection(domain.Principal{UserID: "u-1", Name: "Alice"}, "lobby", domain.KindChat, 1)
	registry.Register(conn)

	// Overflow the single slot queue twice
	for i := 0; i < 3; i++ {
		_, err := conn.Enqueue(newTestEnvelope())
		req.NoError(err)
	}
	req.Equal(uint64(2), registry.TotalDropped())
}
