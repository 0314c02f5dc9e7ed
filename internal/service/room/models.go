package room

type Participant struct {
	ConnectionId string `json:"connection_id"`
	Username     string `json:"username"`
}

type QueueVideo struct {
	VideoId     string `json:"video_id"`
	Title       string `json:"title"`
	SuggestedBy string `json:"suggested_by"`
	Votes       int    `json:"votes"`
}

type Message struct {
	Id        string `json:"id"`
	SenderId  string `json:"sender_id"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// RoomState is the full snapshot pushed to a joining connection.
type RoomState struct {
	RoomId         string        `json:"room_id"`
	Host           Participant   `json:"host"`
	Guests         []Participant `json:"guests"`
	CurrentVideoId string        `json:"current_video_id"`
	PlaybackState  string        `json:"playback_state"`
	LastSeekTime   float64       `json:"last_seek_time"`
	Queue          []QueueVideo  `json:"queue"`
	Chat           []Message     `json:"chat"`
}

const (
	PlaybackStatePlaying = "PLAYING"
	PlaybackStatePaused  = "PAUSED"
)

func playbackState(isPlaying bool) string {
	if isPlaying {
		return PlaybackStatePlaying
	}

	return PlaybackStatePaused
}
