package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStore_SetGet(t *testing.T) {
	t.Parallel()

	s := New()
	s.Set("k1", "v1", time.Minute)

	v, ok := s.Get("k1")
	require.True(t, ok)
	require.Equal(t, "v1", v)

	_, ok = s.Get("absent")
	require.False(t, ok)
}

func TestStore_ExpiresLazilyOnRead(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := New()
	s.now = func() time.Time { return now }

	s.Set("k1", "v1", time.Minute)

	now = now.Add(59 * time.Second)
	_, ok := s.Get("k1")
	require.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok = s.Get("k1")
	require.False(t, ok, "entry must expire once its TTL elapsed")
}

func TestStore_ZeroTTLNeverStores(t *testing.T) {
	t.Parallel()

	s := New()
	s.Set("k1", "v1", 0)

	_, ok := s.Get("k1")
	require.False(t, ok)
}

func TestIsLimited_UnderThenOverBudget(t *testing.T) {
	t.Parallel()

	s := New()
	for i := 0; i < 10; i++ {
		require.False(t, s.IsLimited("client", 10, time.Minute), "request %d should pass", i+1)
	}
	require.True(t, s.IsLimited("client", 10, time.Minute))
}

func TestIsLimited_WindowSlides(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := New()
	s.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		require.False(t, s.IsLimited("client", 3, time.Minute))
	}
	require.True(t, s.IsLimited("client", 3, time.Minute))

	now = now.Add(61 * time.Second)
	require.False(t, s.IsLimited("client", 3, time.Minute), "old requests must fall out of the window")
}

func TestIsLimited_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	s := New()
	for i := 0; i < 3; i++ {
		require.False(t, s.IsLimited("a", 3, time.Minute))
	}
	require.True(t, s.IsLimited("a", 3, time.Minute))
	require.False(t, s.IsLimited("b", 3, time.Minute))
}
