package catalog

import (
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/tunecast/tunecast/internal/domain/track"
	"github.com/tunecast/tunecast/internal/infra/apple"
	"github.com/tunecast/tunecast/internal/infra/config"
	"github.com/tunecast/tunecast/internal/infra/spotify"
	"github.com/tunecast/tunecast/internal/infra/youtube"
)

// NewFromConfig builds the Catalog from configuration. All three providers
// are always constructed; a catalog without credentials stays registered
// and reports itself as unconfigured.
func NewFromConfig(cfg *config.Config) (*Catalog, error) {
	providers := make(map[track.Service]Provider)

	for _, svc := range []track.Service{track.ServiceSpotify, track.ServiceApple, track.ServiceYouTube} {
		settings := map[string]any{}
		if cc, ok := cfg.Catalog(svc.String()); ok && cc.Settings != nil {
			settings = cc.Settings
		}

		p, err := newProvider(svc, settings)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create provider (type %s)", svc)
		}
		providers[svc] = p

		zlog.Info().Msgf("registered catalog provider: type=%s configured=%t", p.Name(), p.Configured())
	}

	return New(providers, cfg.ProviderTimeout()), nil
}

func newProvider(svc track.Service, settings map[string]any) (Provider, error) {
	switch svc {
	case track.ServiceSpotify:
		var pcfg spotify.Config
		if err := decodeSettings(settings, &pcfg); err != nil {
			return nil, err
		}
		return spotify.New(pcfg), nil

	case track.ServiceApple:
		var pcfg apple.Config
		if err := decodeSettings(settings, &pcfg); err != nil {
			return nil, err
		}
		return apple.New(pcfg), nil

	case track.ServiceYouTube:
		var pcfg youtube.Config
		if err := decodeSettings(settings, &pcfg); err != nil {
			return nil, err
		}
		return youtube.New(pcfg), nil

	default:
		return nil, errors.Newf("unsupported provider type: %s", svc)
	}
}

// decodeSettings decodes the free-form settings map into a typed provider
// config, applying struct defaults and validation.
func decodeSettings(settings map[string]any, out any) error {
	if err := mapstructure.Decode(settings, out); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}
