package dispatch

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunecast/tunecast/internal/app/catalog"
	"github.com/tunecast/tunecast/internal/app/relay"
	"github.com/tunecast/tunecast/internal/domain/account"
	"github.com/tunecast/tunecast/internal/domain/track"
	"github.com/tunecast/tunecast/internal/infra/store"
)

type stubAccounts struct {
	accounts map[int64]*account.Account
}

func (s *stubAccounts) AccountByID(_ context.Context, id int64) (*account.Account, error) {
	acct, ok := s.accounts[id]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	return acct, nil
}

type stubChannel struct {
	sent    []relay.PlayCommand
	sendErr error
}

func (c *stubChannel) Send(cmd relay.PlayCommand) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, cmd)
	return nil
}

func (c *stubChannel) Close() error { return nil }

type stubChannels struct {
	channels map[string]relay.Channel
}

func (s *stubChannels) Get(username string) (relay.Channel, bool) {
	ch, ok := s.channels[username]
	return ch, ok
}

type stubResolver struct {
	track *track.Track
	err   error

	calls       int
	lastService track.Service
	lastQuery   string
}

func (r *stubResolver) Resolve(_ context.Context, service track.Service, query string) (*track.Track, error) {
	r.calls++
	r.lastService = service
	r.lastQuery = query
	if r.err != nil {
		return nil, r.err
	}
	return r.track, nil
}

func TestDispatcher_Dispatch(t *testing.T) {
	ctx := context.Background()

	alice := &account.Account{
		ID:               1,
		Email:            "alice@example.com",
		Username:         "alice",
		DefaultOffsetSec: 45,
	}

	t.Run("pushes play command to the connected spectator", func(t *testing.T) {
		ch := &stubChannel{}
		resolver := &stubResolver{
			track: &track.Track{Service: track.ServiceSpotify, ID: "abc", Name: "Yesterday", Artist: "The Beatles"},
		}
		d := New(
			&stubAccounts{accounts: map[int64]*account.Account{1: alice}},
			&stubChannels{channels: map[string]relay.Channel{"alice": ch}},
			resolver,
		)

		got, err := d.Dispatch(ctx, 1, "Yesterday", "spotify")
		require.NoError(t, err)
		assert.Equal(t, "abc", got.ID)

		assert.Equal(t, 1, resolver.calls)
		assert.Equal(t, track.ServiceSpotify, resolver.lastService)
		assert.Equal(t, "Yesterday", resolver.lastQuery)

		require.Len(t, ch.sent, 1)
		assert.Equal(t, relay.PlayCommand{
			Type:      relay.PlayCommandType,
			Service:   "spotify",
			TrackID:   "abc",
			Timestamp: 45,
			Name:      "Yesterday",
			Artist:    "The Beatles",
		}, ch.sent[0])
	})

	t.Run("uses the offset stored at dispatch time", func(t *testing.T) {
		updated := *alice
		updated.DefaultOffsetSec = 90

		ch := &stubChannel{}
		d := New(
			&stubAccounts{accounts: map[int64]*account.Account{1: &updated}},
			&stubChannels{channels: map[string]relay.Channel{"alice": ch}},
			&stubResolver{track: &track.Track{Service: track.ServiceSpotify, ID: "abc", Name: "Yesterday", Artist: "The Beatles"}},
		)

		_, err := d.Dispatch(ctx, 1, "Yesterday", "spotify")
		require.NoError(t, err)
		require.Len(t, ch.sent, 1)
		assert.Equal(t, 90, ch.sent[0].Timestamp)
	})

	t.Run("no spectator connection skips the catalog entirely", func(t *testing.T) {
		resolver := &stubResolver{
			track: &track.Track{Service: track.ServiceSpotify, ID: "abc", Name: "Yesterday", Artist: "The Beatles"},
		}
		d := New(
			&stubAccounts{accounts: map[int64]*account.Account{1: alice}},
			&stubChannels{channels: map[string]relay.Channel{}},
			resolver,
		)

		_, err := d.Dispatch(ctx, 1, "Yesterday", "spotify")
		assert.ErrorIs(t, err, ErrSpectatorNotConnected)
		assert.Equal(t, 0, resolver.calls)
	})

	t.Run("resolver miss passes through", func(t *testing.T) {
		d := New(
			&stubAccounts{accounts: map[int64]*account.Account{1: alice}},
			&stubChannels{channels: map[string]relay.Channel{"alice": &stubChannel{}}},
			&stubResolver{err: catalog.ErrNotFound},
		)

		_, err := d.Dispatch(ctx, 1, "no such song", "spotify")
		assert.ErrorIs(t, err, catalog.ErrNotFound)
	})

	t.Run("unconfigured provider passes through", func(t *testing.T) {
		d := New(
			&stubAccounts{accounts: map[int64]*account.Account{1: alice}},
			&stubChannels{channels: map[string]relay.Channel{"alice": &stubChannel{}}},
			&stubResolver{err: catalog.ErrUnconfigured},
		)

		_, err := d.Dispatch(ctx, 1, "Yesterday", "apple")
		assert.ErrorIs(t, err, catalog.ErrUnconfigured)
	})

	t.Run("push failure reports a lost spectator", func(t *testing.T) {
		ch := &stubChannel{sendErr: errors.New("connection reset")}
		d := New(
			&stubAccounts{accounts: map[int64]*account.Account{1: alice}},
			&stubChannels{channels: map[string]relay.Channel{"alice": ch}},
			&stubResolver{track: &track.Track{Service: track.ServiceSpotify, ID: "abc", Name: "Yesterday", Artist: "The Beatles"}},
		)

		_, err := d.Dispatch(ctx, 1, "Yesterday", "spotify")
		assert.ErrorIs(t, err, ErrSpectatorNotConnected)
		assert.Empty(t, ch.sent)
	})

	t.Run("unknown account propagates", func(t *testing.T) {
		d := New(
			&stubAccounts{accounts: map[int64]*account.Account{}},
			&stubChannels{channels: map[string]relay.Channel{}},
			&stubResolver{},
		)

		_, err := d.Dispatch(ctx, 404, "Yesterday", "spotify")
		assert.ErrorIs(t, err, store.ErrAccountNotFound)
	})
}
