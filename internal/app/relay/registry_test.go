package relay

import (
	"context"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubChannel records pushes and closes for assertions.
type stubChannel struct {
	mu      sync.Mutex
	sent    []PlayCommand
	closed  bool
	sendErr error
}

func (c *stubChannel) Send(cmd PlayCommand) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, cmd)
	return nil
}

func (c *stubChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *stubChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// stubDirectory is a fixed set of known usernames.
type stubDirectory struct {
	usernames map[string]bool
	err       error
}

func (d *stubDirectory) UsernameExists(_ context.Context, username string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	return d.usernames[username], nil
}

func newTestRegistry(usernames ...string) *Registry {
	known := make(map[string]bool, len(usernames))
	for _, u := range usernames {
		known[u] = true
	}
	return NewRegistry(&stubDirectory{usernames: known})
}

func TestRegistry_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("known username", func(t *testing.T) {
		r := newTestRegistry("alice")
		ch := &stubChannel{}

		token, err := r.Register(ctx, "alice", ch)
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.True(t, r.IsConnected("alice"))
		assert.Equal(t, 1, r.Count())

		got, ok := r.Get("alice")
		require.True(t, ok)
		assert.Same(t, Channel(ch), got)
	})

	t.Run("unknown username is refused", func(t *testing.T) {
		r := newTestRegistry("alice")

		_, err := r.Register(ctx, "mallory", &stubChannel{})
		assert.ErrorIs(t, err, ErrUnknownUsername)
		assert.False(t, r.IsConnected("mallory"))
		assert.Equal(t, 0, r.Count())
	})

	t.Run("directory failure propagates", func(t *testing.T) {
		r := NewRegistry(&stubDirectory{err: errors.New("db gone")})

		_, err := r.Register(ctx, "alice", &stubChannel{})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnknownUsername)
	})

	t.Run("replacement closes the displaced channel", func(t *testing.T) {
		r := newTestRegistry("alice")
		first := &stubChannel{}
		second := &stubChannel{}

		_, err := r.Register(ctx, "alice", first)
		require.NoError(t, err)
		_, err = r.Register(ctx, "alice", second)
		require.NoError(t, err)

		assert.True(t, first.isClosed())
		assert.False(t, second.isClosed())
		assert.Equal(t, 1, r.Count(), "one live channel per username")

		got, ok := r.Get("alice")
		require.True(t, ok)
		assert.Same(t, Channel(second), got)
	})
}

func TestRegistry_Unregister(t *testing.T) {
	ctx := context.Background()

	t.Run("matching token removes the registration", func(t *testing.T) {
		r := newTestRegistry("alice")
		token, err := r.Register(ctx, "alice", &stubChannel{})
		require.NoError(t, err)

		r.Unregister("alice", token)
		assert.False(t, r.IsConnected("alice"))
	})

	t.Run("stale token is a no-op", func(t *testing.T) {
		r := newTestRegistry("alice")
		staleToken, err := r.Register(ctx, "alice", &stubChannel{})
		require.NoError(t, err)

		current := &stubChannel{}
		currentToken, err := r.Register(ctx, "alice", current)
		require.NoError(t, err)

		// The old connection's close path fires after the replacement.
		// It must not evict the successor.
		r.Unregister("alice", staleToken)
		assert.True(t, r.IsConnected("alice"))

		got, ok := r.Get("alice")
		require.True(t, ok)
		assert.Same(t, Channel(current), got)

		r.Unregister("alice", currentToken)
		assert.False(t, r.IsConnected("alice"))
	})

	t.Run("unknown username is a no-op", func(t *testing.T) {
		r := newTestRegistry("alice")
		r.Unregister("nobody", "some-token")
		assert.Equal(t, 0, r.Count())
	})
}

func TestRegistry_CloseAll(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry("alice", "bob")

	a := &stubChannel{}
	b := &stubChannel{}
	_, err := r.Register(ctx, "alice", a)
	require.NoError(t, err)
	_, err = r.Register(ctx, "bob", b)
	require.NoError(t, err)

	r.CloseAll()

	assert.Equal(t, 0, r.Count())
	assert.True(t, a.isClosed())
	assert.True(t, b.isClosed())
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry("alice")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			token, err := r.Register(ctx, "alice", &stubChannel{})
			if err == nil {
				r.Unregister("alice", token)
			}
		}()
		go func() {
			defer wg.Done()
			r.IsConnected("alice")
			r.Count()
		}()
	}
	wg.Wait()
}
