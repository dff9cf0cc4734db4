package relay

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// ErrUnknownUsername is returned when a registration names a username that
// does not resolve to an account.
var ErrUnknownUsername = errors.New("unknown username")

// AccountDirectory answers username existence questions for registration.
type AccountDirectory interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// registration pairs a channel with the generation token it was stored under.
type registration struct {
	channel Channel
	token   string
}

// Registry tracks at most one live spectator channel per username with
// thread-safe access. State is purely in-memory; a restart empties it.
type Registry struct {
	mu       sync.RWMutex
	accounts AccountDirectory
	channels map[string]*registration
}

// NewRegistry creates a new connection registry.
func NewRegistry(accounts AccountDirectory) *Registry {
	return &Registry{
		accounts: accounts,
		channels: make(map[string]*registration),
	}
}

// Register stores ch as the live channel for username and returns a
// generation token identifying this registration. A previous channel for
// the same username is closed and silently replaced (last write wins).
// Usernames that do not resolve to an account are refused; the caller must
// close the channel itself in that case.
func (r *Registry) Register(ctx context.Context, username string, ch Channel) (string, error) {
	exists, err := r.accounts.UsernameExists(ctx, username)
	if err != nil {
		return "", errors.Wrap(err, "failed to look up username")
	}
	if !exists {
		return "", ErrUnknownUsername
	}

	token := uuid.New().String()

	r.mu.Lock()
	displaced := r.channels[username]
	r.channels[username] = &registration{channel: ch, token: token}
	r.mu.Unlock()

	if displaced != nil {
		_ = displaced.channel.Close()
	}
	return token, nil
}

// Unregister removes the registration for username, but only when token
// still matches the current registration. A stale token means the
// connection was already replaced and the call is a no-op, so a slow close
// of an old connection can never evict its successor.
func (r *Registry) Unregister(username, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.channels[username]
	if !ok || reg.token != token {
		return
	}
	delete(r.channels, username)
}

// Get returns the live channel for username.
func (r *Registry) Get(username string) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.channels[username]
	if !ok {
		return nil, false
	}
	return reg.channel, true
}

// IsConnected reports whether username has a live channel.
func (r *Registry) IsConnected(username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.channels[username]
	return ok
}

// Count returns the number of live channels.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

// CloseAll closes every live channel and empties the registry.
// Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	channels := r.channels
	r.channels = make(map[string]*registration)
	r.mu.Unlock()

	for _, reg := range channels {
		_ = reg.channel.Close()
	}
}
