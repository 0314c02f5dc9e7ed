package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/watchalong/server/internal/repository/room"
	"github.com/watchalong/server/pkg/wsconn"
)

const (
	HostActionPlay  = "play"
	HostActionPause = "pause"
	HostActionSeek  = "seek"
)

type HostActionParams struct {
	RoomId   string
	SenderId string
	Action   string
	Time     float64
}

type HostActionResponse struct {
	Action string
	Time   float64
	// Conns excludes the host, whose client already reflects the action.
	Conns []*wsconn.Conn
}

// HostAction applies a play/pause/seek issued by the host and returns the
// conns the event is relayed to. Non-host callers get ErrPermissionDenied.
func (s *service) HostAction(ctx context.Context, params *HostActionParams) (HostActionResponse, error) {
	unlock := s.lockRoom(params.RoomId)
	defer unlock()

	r, err := s.roomRepo.GetRoom(ctx, params.RoomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return HostActionResponse{}, ErrRoomNotFound
		}
		return HostActionResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	if r.HostId != params.SenderId {
		return HostActionResponse{}, ErrPermissionDenied
	}

	player, err := s.roomRepo.GetPlayer(ctx, params.RoomId)
	if err != nil {
		return HostActionResponse{}, fmt.Errorf("failed to get player: %w", err)
	}

	isPlaying := player.IsPlaying
	switch params.Action {
	case HostActionPlay:
		isPlaying = true
	case HostActionPause:
		isPlaying = false
	case HostActionSeek:
		// playback state unchanged, only the cursor moves
	default:
		return HostActionResponse{}, fmt.Errorf("unknown host action: %s", params.Action)
	}

	if err := s.roomRepo.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{
		RoomId:       params.RoomId,
		IsPlaying:    isPlaying,
		LastSeekTime: params.Time,
	}); err != nil {
		return HostActionResponse{}, fmt.Errorf("failed to update player state: %w", err)
	}

	conns, err := s.getGuestConns(ctx, params.RoomId)
	if err != nil {
		return HostActionResponse{}, fmt.Errorf("failed to get guest conns: %w", err)
	}

	return HostActionResponse{
		Action: params.Action,
		Time:   params.Time,
		Conns:  conns,
	}, nil
}
