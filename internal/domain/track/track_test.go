package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseService(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Service
	}{
		{
			name:     "spotify",
			input:    "spotify",
			expected: ServiceSpotify,
		},
		{
			name:     "apple",
			input:    "apple",
			expected: ServiceApple,
		},
		{
			name:     "youtube",
			input:    "youtube",
			expected: ServiceYouTube,
		},
		{
			name:     "unknown service name",
			input:    "tidal",
			expected: ServiceUnknown,
		},
		{
			name:     "empty string",
			input:    "",
			expected: ServiceUnknown,
		},
		{
			name:     "case sensitivity",
			input:    "Spotify",
			expected: ServiceUnknown,
		},
		{
			name:     "surrounding whitespace is not trimmed",
			input:    " spotify ",
			expected: ServiceUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseService(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestService_Known(t *testing.T) {
	tests := []struct {
		name     string
		service  Service
		expected bool
	}{
		{
			name:     "spotify is known",
			service:  ServiceSpotify,
			expected: true,
		},
		{
			name:     "apple is known",
			service:  ServiceApple,
			expected: true,
		},
		{
			name:     "youtube is known",
			service:  ServiceYouTube,
			expected: true,
		},
		{
			name:     "unknown is not known",
			service:  ServiceUnknown,
			expected: false,
		},
		{
			name:     "arbitrary value is not known",
			service:  Service("soundcloud"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.service.Known())
		})
	}
}
