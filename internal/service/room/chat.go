package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/watchalong/server/internal/repository/room"
	"github.com/watchalong/server/pkg/wsconn"
)

type SendMessageParams struct {
	RoomId   string
	SenderId string
	Username string
	Message  string
}

type SendMessageResponse struct {
	Message Message
	Conns   []*wsconn.Conn
}

// SendMessage builds the chat record, queues it for durable storage and
// returns the conns to broadcast it to. A persistence failure is logged,
// never surfaced.
func (s *service) SendMessage(ctx context.Context, params *SendMessageParams) (SendMessageResponse, error) {
	unlock := s.lockRoom(params.RoomId)
	defer unlock()

	if _, err := s.roomRepo.GetRoom(ctx, params.RoomId); err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return SendMessageResponse{}, ErrRoomNotFound
		}
		return SendMessageResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	message := s.newMessage(params.SenderId, params.Username, params.Message)
	s.appendMessageAsync(params.RoomId, message)

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return SendMessageResponse{}, fmt.Errorf("failed to get conns: %w", err)
	}

	return SendMessageResponse{
		Message: message,
		Conns:   conns,
	}, nil
}
