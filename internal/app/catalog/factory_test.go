package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunecast/tunecast/internal/domain/track"
	"github.com/tunecast/tunecast/internal/infra/config"
)

func TestNewFromConfig(t *testing.T) {
	t.Run("all providers registered regardless of credentials", func(t *testing.T) {
		cfg := &config.Config{
			Providers: config.ProvidersConfig{
				TimeoutSec: 5,
				Catalogs: []config.CatalogConfig{
					{
						Type:     "spotify",
						Settings: map[string]any{"client_id": "id", "client_secret": "secret"},
					},
				},
			},
		}

		c, err := NewFromConfig(cfg)
		require.NoError(t, err)

		assert.True(t, c.providers[track.ServiceSpotify].Configured())
		assert.False(t, c.providers[track.ServiceApple].Configured())
		assert.False(t, c.providers[track.ServiceYouTube].Configured())
	})

	t.Run("unconfigured provider resolves to unconfigured error", func(t *testing.T) {
		cfg := &config.Config{
			Providers: config.ProvidersConfig{TimeoutSec: 5},
		}

		c, err := NewFromConfig(cfg)
		require.NoError(t, err)

		_, err = c.Resolve(context.Background(), track.ServiceApple, "yesterday")
		assert.ErrorIs(t, err, ErrUnconfigured)
	})

	t.Run("invalid storefront fails fast", func(t *testing.T) {
		cfg := &config.Config{
			Providers: config.ProvidersConfig{
				TimeoutSec: 5,
				Catalogs: []config.CatalogConfig{
					{
						Type: "apple",
						Settings: map[string]any{
							"developer_token": "token",
							"storefront":      "states",
						},
					},
				},
			},
		}

		_, err := NewFromConfig(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "apple")
	})
}
