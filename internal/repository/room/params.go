package room

type SetRoomParams struct {
	RoomId       string
	HostId       string
	HostUsername string
	MaxGuests    int
}

type AddMemberParams struct {
	RoomId       string
	ConnectionId string
	Username     string
}

type RemoveMemberParams struct {
	RoomId       string
	ConnectionId string
}

type AddVideoParams struct {
	RoomId        string
	VideoId       string
	Title         string
	SuggestedById string
}

type RemoveVideoParams struct {
	RoomId  string
	VideoId string
}

type ToggleVoteParams struct {
	RoomId       string
	VideoId      string
	ConnectionId string
}

type UpdatePlayerStateParams struct {
	RoomId       string
	IsPlaying    bool
	LastSeekTime float64
}

type UpdatePlayerVideoParams struct {
	RoomId  string
	VideoId string
}
