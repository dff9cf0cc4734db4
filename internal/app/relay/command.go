// Package relay tracks live spectator connections and pushes play commands.
package relay

// PlayCommandType is the type tag carried by every play command frame.
const PlayCommandType = "play"

// PlayCommand is the wire frame pushed to a spectator when a song is
// dispatched. Timestamp is the playback offset in seconds.
type PlayCommand struct {
	Type      string `json:"type"`
	Service   string `json:"service"`
	TrackID   string `json:"trackId"`
	Timestamp int    `json:"timestamp"`
	Name      string `json:"name"`
	Artist    string `json:"artist"`
}
