// Package dispatch turns a song request into a play command on the
// requester's spectator connection.
package dispatch

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/tunecast/tunecast/internal/app/catalog"
	"github.com/tunecast/tunecast/internal/app/relay"
	"github.com/tunecast/tunecast/internal/domain/account"
	"github.com/tunecast/tunecast/internal/domain/track"
)

// ErrSpectatorNotConnected means the account has no live spectator
// connection, or the connection died while the command was pushed.
var ErrSpectatorNotConnected = errors.New("spectator is not connected")

// AccountSource loads the account issuing the request.
type AccountSource interface {
	AccountByID(ctx context.Context, id int64) (*account.Account, error)
}

// ChannelSource looks up the live spectator channel for a username.
type ChannelSource interface {
	Get(username string) (relay.Channel, bool)
}

// Dispatcher resolves song queries and pushes the resulting play command.
type Dispatcher struct {
	accounts AccountSource
	channels ChannelSource
	resolver catalog.Resolver
}

// New creates a Dispatcher.
func New(accounts AccountSource, channels ChannelSource, resolver catalog.Resolver) *Dispatcher {
	return &Dispatcher{
		accounts: accounts,
		channels: channels,
		resolver: resolver,
	}
}

// Dispatch resolves query against the requested service and pushes the play
// command to the account's spectator connection.
//
// The connection is checked before the catalog is consulted: with nobody
// listening there is nothing worth resolving. The command carries the
// playback offset stored on the account at dispatch time.
func (d *Dispatcher) Dispatch(ctx context.Context, accountID int64, query, service string) (*track.Track, error) {
	acct, err := d.accounts.AccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	ch, ok := d.channels.Get(acct.Username)
	if !ok {
		return nil, ErrSpectatorNotConnected
	}

	t, err := d.resolver.Resolve(ctx, track.ParseService(service), query)
	if err != nil {
		return nil, err
	}

	cmd := relay.PlayCommand{
		Type:      relay.PlayCommandType,
		Service:   t.Service.String(),
		TrackID:   t.ID,
		Timestamp: acct.DefaultOffsetSec,
		Name:      t.Name,
		Artist:    t.Artist,
	}
	if err := ch.Send(cmd); err != nil {
		zlog.Warn().Msgf("play command push failed: username=%s error=%v", acct.Username, err)
		return nil, ErrSpectatorNotConnected
	}

	zlog.Info().Msgf("play command sent: username=%s service=%s track_id=%s offset=%d",
		acct.Username, cmd.Service, cmd.TrackID, cmd.Timestamp)
	return t, nil
}
