// Package track provides the track descriptor and catalog service identifiers.
package track

// Service identifies the music catalog a track is resolved against.
type Service string

const (
	ServiceSpotify Service = "spotify"
	ServiceApple   Service = "apple"
	ServiceYouTube Service = "youtube"
	ServiceUnknown Service = ""
)

// ParseService maps a wire-level service name to a known catalog.
// Only the exact names "spotify", "apple" and "youtube" are recognized;
// everything else yields ServiceUnknown.
func ParseService(name string) Service {
	switch name {
	case "spotify":
		return ServiceSpotify
	case "apple":
		return ServiceApple
	case "youtube":
		return ServiceYouTube
	default:
		return ServiceUnknown
	}
}

// Known reports whether s names one of the supported catalogs.
func (s Service) Known() bool {
	switch s {
	case ServiceSpotify, ServiceApple, ServiceYouTube:
		return true
	default:
		return false
	}
}

// String returns the wire-level name of the service.
func (s Service) String() string {
	return string(s)
}

// Track describes a single playable song resolved from a catalog search.
// It lives only for the duration of one dispatch and is never persisted.
type Track struct {
	Service Service // Catalog the track was resolved against
	ID      string  // Provider-native track identifier
	Name    string  // Track title
	Artist  string  // Primary artist name
}
