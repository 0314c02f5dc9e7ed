package room

import "time"

type Room struct {
	HostId        string
	HostUsername  string
	MaxGuests     int
	LastSuggestAt time.Time
}

type Member struct {
	ConnectionId string
	Username     string
}

// Video is a queue entry. Votes is the size of the entry's voter set.
type Video struct {
	VideoId       string
	Title         string
	SuggestedById string
	Votes         int
}

type Player struct {
	CurrentVideoId string
	IsPlaying      bool
	LastSeekTime   float64
}
