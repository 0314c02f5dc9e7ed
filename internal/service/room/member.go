package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/watchalong/server/internal/repository/room"
	"github.com/watchalong/server/pkg/wsconn"
)

type DisconnectResponse struct {
	RoomId        string
	IsRoomDeleted bool
	Conns         []*wsconn.Conn
	SystemMessage *Message
}

// Disconnect resolves which room, if any, contains the connection. Host
// loss tears the whole room down; a guest is simply removed from the
// roster. A connection in no room is a harmless no-op.
func (s *service) Disconnect(ctx context.Context, connectionId string) (DisconnectResponse, error) {
	roomId, err := s.roomRepo.GetRoomIdByConnectionId(ctx, connectionId)
	if err != nil {
		s.connRepo.RemoveByConnectionId(connectionId)
		return DisconnectResponse{}, nil
	}

	unlock := s.lockRoom(roomId)
	defer unlock()

	r, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		s.connRepo.RemoveByConnectionId(connectionId)
		return DisconnectResponse{}, nil
	}

	if r.HostId == connectionId {
		return s.closeRoom(ctx, roomId, connectionId)
	}

	return s.removeGuest(ctx, roomId, connectionId)
}

func (s *service) closeRoom(ctx context.Context, roomId, hostConnectionId string) (DisconnectResponse, error) {
	// collect guest conns before the roster is gone
	conns, err := s.getGuestConns(ctx, roomId)
	if err != nil {
		return DisconnectResponse{}, fmt.Errorf("failed to get guest conns: %w", err)
	}

	if err := s.roomRepo.RemoveRoom(ctx, roomId); err != nil {
		return DisconnectResponse{}, fmt.Errorf("failed to remove room: %w", err)
	}
	s.releaseRoomLock(roomId)
	s.removeMessagesAsync(roomId)

	s.connRepo.RemoveByConnectionId(hostConnectionId)

	s.logger.InfoContext(ctx, "room closed", "room_id", roomId)

	return DisconnectResponse{
		RoomId:        roomId,
		IsRoomDeleted: true,
		Conns:         conns,
	}, nil
}

func (s *service) removeGuest(ctx context.Context, roomId, connectionId string) (DisconnectResponse, error) {
	members, err := s.roomRepo.GetMembers(ctx, roomId)
	if err != nil {
		return DisconnectResponse{}, fmt.Errorf("failed to get members: %w", err)
	}

	var username string
	for _, m := range members {
		if m.ConnectionId == connectionId {
			username = m.Username
			break
		}
	}

	if err := s.roomRepo.RemoveMember(ctx, &room.RemoveMemberParams{
		RoomId:       roomId,
		ConnectionId: connectionId,
	}); err != nil {
		if !errors.Is(err, room.ErrMemberNotFound) {
			return DisconnectResponse{}, fmt.Errorf("failed to remove member: %w", err)
		}
	}

	s.connRepo.RemoveByConnectionId(connectionId)

	conns, err := s.getConnsByRoomId(ctx, roomId)
	if err != nil {
		return DisconnectResponse{}, fmt.Errorf("failed to get conns: %w", err)
	}

	systemMessage := s.newSystemMessage(username + " left the room")
	s.appendMessageAsync(roomId, systemMessage)

	return DisconnectResponse{
		RoomId:        roomId,
		Conns:         conns,
		SystemMessage: &systemMessage,
	}, nil
}
