package inmemory

import (
	"context"

	"github.com/watchalong/server/internal/repository/room"
)

func (r *repo) GetPlayer(ctx context.Context, roomId string) (room.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.rooms[roomId]
	if !ok {
		return room.Player{}, room.ErrRoomNotFound
	}

	return room.Player{
		CurrentVideoId: state.player.currentVideoId,
		IsPlaying:      state.player.isPlaying,
		LastSeekTime:   state.player.lastSeekTime,
	}, nil
}

func (r *repo) UpdatePlayerState(ctx context.Context, params *room.UpdatePlayerStateParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.rooms[params.RoomId]
	if !ok {
		return room.ErrRoomNotFound
	}

	state.player.isPlaying = params.IsPlaying
	state.player.lastSeekTime = params.LastSeekTime

	return nil
}

// UpdatePlayerVideo switches the room to a new video, playing from the start.
func (r *repo) UpdatePlayerVideo(ctx context.Context, params *room.UpdatePlayerVideoParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.rooms[params.RoomId]
	if !ok {
		return room.ErrRoomNotFound
	}

	state.player.currentVideoId = params.VideoId
	state.player.isPlaying = true
	state.player.lastSeekTime = 0

	return nil
}
