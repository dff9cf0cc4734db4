// Package account provides the Account domain entity.
package account

import (
	"regexp"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/tunecast/tunecast/internal/domain/track"
)

// UsernameMaxLength caps the public name length.
const UsernameMaxLength = 32

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// Username validation errors.
var (
	ErrUsernameEmpty        = errors.New("username must not be empty")
	ErrUsernameTooLong      = errors.Newf("username must be at most %d characters", UsernameMaxLength)
	ErrUsernameInvalidChars = errors.New("username must contain only letters and digits")
)

// Account represents a registered sender identity.
type Account struct {
	ID               int64         // Storage-assigned identifier
	Email            string        // Unique login email
	Username         string        // Unique alphanumeric public name
	PasswordHash     string        // bcrypt hash of the login secret
	DefaultOffsetSec int           // Playback offset stamped on every play command
	PreferredService track.Service // Spectator-side catalog preference (optional)
	CreatedAt        time.Time     // Registration time
}

// ValidateUsername checks the alphanumeric username rules.
func ValidateUsername(username string) error {
	if username == "" {
		return ErrUsernameEmpty
	}
	if len(username) > UsernameMaxLength {
		return ErrUsernameTooLong
	}
	if !usernamePattern.MatchString(username) {
		return ErrUsernameInvalidChars
	}
	return nil
}

// SpectatorURL returns the public spectator page URL for this account,
// built as <base>/<username>.
func (a *Account) SpectatorURL(base string) string {
	return strings.TrimRight(base, "/") + "/" + a.Username
}
