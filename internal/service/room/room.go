package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/watchalong/server/internal/repository/room"
	"github.com/watchalong/server/pkg/wsconn"
)

// Connect registers a fresh websocket connection and mints its connection id.
func (s *service) Connect(ctx context.Context, conn *wsconn.Conn) (string, error) {
	connectionId := uuid.NewString()
	if err := s.connRepo.Add(conn, connectionId); err != nil {
		return "", fmt.Errorf("failed to add connection: %w", err)
	}

	return connectionId, nil
}

type CreateRoomParams struct {
	ConnectionId string
	Username     string
	MaxGuests    int
}

type CreateRoomResponse struct {
	RoomId string
}

// CreateRoom mints a room token and stores a fresh session with the caller
// as host, default paused player and an empty queue.
func (s *service) CreateRoom(ctx context.Context, params *CreateRoomParams) (CreateRoomResponse, error) {
	if params.MaxGuests < 1 || params.MaxGuests > s.maxGuestsLimit {
		return CreateRoomResponse{}, ErrInvalidMaxGuests
	}

	// regenerate on the off chance the token is already bound to a live room
	roomId := s.generator.GenerateRandomString(roomIdLength)
	for {
		err := s.roomRepo.SetRoom(ctx, &room.SetRoomParams{
			RoomId:       roomId,
			HostId:       params.ConnectionId,
			HostUsername: params.Username,
			MaxGuests:    params.MaxGuests,
		})
		if err == nil {
			break
		}
		if !errors.Is(err, room.ErrRoomAlreadyExists) {
			return CreateRoomResponse{}, fmt.Errorf("failed to set room: %w", err)
		}

		roomId = s.generator.GenerateRandomString(roomIdLength)
	}

	s.logger.InfoContext(ctx, "room created", "room_id", roomId, "max_guests", params.MaxGuests)

	return CreateRoomResponse{RoomId: roomId}, nil
}

type JoinRoomParams struct {
	RoomId       string
	ConnectionId string
	Username     string
}

type JoinRoomResponse struct {
	RoomState     RoomState
	Conns         []*wsconn.Conn
	SystemMessage Message
}

// JoinRoom appends the caller to the roster and returns the full state
// snapshot plus the system notice to broadcast.
func (s *service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	unlock := s.lockRoom(params.RoomId)
	defer unlock()

	r, err := s.roomRepo.GetRoom(ctx, params.RoomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return JoinRoomResponse{}, ErrRoomNotFound
		}
		return JoinRoomResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	members, err := s.roomRepo.GetMembers(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get members: %w", err)
	}

	if len(members) >= r.MaxGuests {
		return JoinRoomResponse{}, ErrRoomFull
	}

	if err := s.roomRepo.AddMember(ctx, &room.AddMemberParams{
		RoomId:       params.RoomId,
		ConnectionId: params.ConnectionId,
		Username:     params.Username,
	}); err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to add member: %w", err)
	}

	roomState, err := s.getRoomState(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get room state: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get conns: %w", err)
	}

	systemMessage := s.newSystemMessage(params.Username + " joined the room")
	s.appendMessageAsync(params.RoomId, systemMessage)

	return JoinRoomResponse{
		RoomState:     roomState,
		Conns:         conns,
		SystemMessage: systemMessage,
	}, nil
}

func (s *service) getRoomState(ctx context.Context, roomId string) (RoomState, error) {
	r, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		return RoomState{}, err
	}

	guests, err := s.getGuests(ctx, roomId)
	if err != nil {
		return RoomState{}, err
	}

	queue, err := s.getQueue(ctx, roomId)
	if err != nil {
		return RoomState{}, err
	}

	player, err := s.roomRepo.GetPlayer(ctx, roomId)
	if err != nil {
		return RoomState{}, err
	}

	// history is only as complete as the collaborator's writes succeeded
	chatCtx, cancel := context.WithTimeout(ctx, chatReadTimeout)
	defer cancel()

	var messages []Message
	stored, err := s.chatRepo.GetMessages(chatCtx, roomId)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to get chat history", "room_id", roomId, "error", err)
	} else {
		messages = make([]Message, 0, len(stored))
		for _, m := range stored {
			messages = append(messages, Message{
				Id:        m.Id,
				SenderId:  m.SenderId,
				Username:  m.Username,
				Message:   m.Message,
				Timestamp: m.Timestamp,
			})
		}
	}

	return RoomState{
		RoomId: roomId,
		Host: Participant{
			ConnectionId: r.HostId,
			Username:     r.HostUsername,
		},
		Guests:         guests,
		CurrentVideoId: player.CurrentVideoId,
		PlaybackState:  playbackState(player.IsPlaying),
		LastSeekTime:   player.LastSeekTime,
		Queue:          queue,
		Chat:           messages,
	}, nil
}
