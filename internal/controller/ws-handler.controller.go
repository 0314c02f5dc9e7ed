package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/watchalong/server/internal/service/room"
	"github.com/watchalong/server/pkg/wsconn"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type EmptyInput struct{}

func (i *EmptyInput) UnmarshalJSON([]byte) error {
	return nil
}

func (c controller) handleAlive(_ context.Context, _ *wsconn.Conn, _ EmptyInput) error {
	return nil
}

type User struct {
	Username string `json:"username" validate:"required,max=32"`
}

type CreateRoomInput struct {
	MaxGuests int  `json:"max_guests" validate:"required,gte=1"`
	User      User `json:"user"`
}

func (c controller) handleCreateRoom(ctx context.Context, conn *wsconn.Conn, input CreateRoomInput) error {
	connectionId := c.getConnectionIdFromCtx(ctx)

	if validationErrors, ok := c.validate.Validate(input); !ok {
		return c.writeAck(ctx, conn, "room-created", map[string]any{
			"success": false,
			"message": validationErrors[0].Message,
		})
	}

	createRoomResp, err := c.roomService.CreateRoom(ctx, &room.CreateRoomParams{
		ConnectionId: connectionId,
		Username:     input.User.Username,
		MaxGuests:    input.MaxGuests,
	})
	if err != nil {
		c.logger.DebugContext(ctx, "failed to create room", "error", err)
		return c.writeAck(ctx, conn, "room-created", map[string]any{
			"success": false,
			"message": err.Error(),
		})
	}

	return c.writeAck(ctx, conn, "room-created", map[string]any{
		"success": true,
		"room_id": createRoomResp.RoomId,
	})
}

type JoinRoomInput struct {
	RoomId string `json:"room_id" validate:"required"`
	User   User   `json:"user"`
}

func (c controller) handleJoinRoom(ctx context.Context, conn *wsconn.Conn, input JoinRoomInput) error {
	connectionId := c.getConnectionIdFromCtx(ctx)

	if validationErrors, ok := c.validate.Validate(input); !ok {
		return c.writeAck(ctx, conn, "room-joined", map[string]any{
			"success": false,
			"message": validationErrors[0].Message,
		})
	}

	joinRoomResp, err := c.roomService.JoinRoom(ctx, &room.JoinRoomParams{
		RoomId:       input.RoomId,
		ConnectionId: connectionId,
		Username:     input.User.Username,
	})
	if err != nil {
		c.logger.DebugContext(ctx, "failed to join room", "error", err)
		return c.writeAck(ctx, conn, "room-joined", map[string]any{
			"success": false,
			"message": err.Error(),
		})
	}

	if err := c.writeAck(ctx, conn, "room-joined", map[string]any{
		"success": true,
	}); err != nil {
		return fmt.Errorf("failed to write ack: %w", err)
	}

	if err := c.writeToConn(ctx, conn, &Output{
		Type:    "room-state",
		Payload: joinRoomResp.RoomState,
	}); err != nil {
		return fmt.Errorf("failed to write room state: %w", err)
	}

	if err := c.broadcast(ctx, joinRoomResp.Conns, &Output{
		Type:    "new-message",
		Payload: joinRoomResp.SystemMessage,
	}); err != nil {
		return fmt.Errorf("failed to broadcast system message: %w", err)
	}

	return nil
}

type HostActionInput struct {
	RoomId string  `json:"room_id" validate:"required"`
	Action string  `json:"action" validate:"required,oneof=play pause seek"`
	Time   float64 `json:"time" validate:"gte=0"`
}

func (c controller) handleHostAction(ctx context.Context, conn *wsconn.Conn, input HostActionInput) error {
	connectionId := c.getConnectionIdFromCtx(ctx)

	if validationErrors, ok := c.validate.Validate(input); !ok {
		return c.writeError(ctx, conn, errors.New(validationErrors[0].Message))
	}

	hostActionResp, err := c.roomService.HostAction(ctx, &room.HostActionParams{
		RoomId:   input.RoomId,
		SenderId: connectionId,
		Action:   input.Action,
		Time:     input.Time,
	})
	if err != nil {
		c.logger.DebugContext(ctx, "failed to handle host action", "error", err)
		return c.writeError(ctx, conn, err)
	}

	if err := c.broadcast(ctx, hostActionResp.Conns, &Output{
		Type: "sync-playback",
		Payload: map[string]any{
			"action": hostActionResp.Action,
			"time":   hostActionResp.Time,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast sync playback: %w", err)
	}

	return nil
}

type SuggestTrackInput struct {
	RoomId  string `json:"room_id" validate:"required"`
	VideoId string `json:"video_id" validate:"required"`
	Title   string `json:"title" validate:"required,max=128"`
}

func (c controller) handleSuggestTrack(ctx context.Context, conn *wsconn.Conn, input SuggestTrackInput) error {
	connectionId := c.getConnectionIdFromCtx(ctx)

	if validationErrors, ok := c.validate.Validate(input); !ok {
		return c.writeAck(ctx, conn, "track-suggested", map[string]any{
			"success": false,
			"message": validationErrors[0].Message,
		})
	}

	suggestResp, err := c.roomService.SuggestVideo(ctx, &room.SuggestVideoParams{
		RoomId:   input.RoomId,
		SenderId: connectionId,
		VideoId:  input.VideoId,
		Title:    input.Title,
	})
	if err != nil {
		c.logger.DebugContext(ctx, "failed to suggest video", "error", err)

		var rateLimited *room.RateLimitedError
		if errors.As(err, &rateLimited) {
			return c.writeAck(ctx, conn, "track-suggested", map[string]any{
				"success":           false,
				"message":           rateLimited.Error(),
				"cooldown_active":   true,
				"seconds_remaining": rateLimited.SecondsRemaining,
			})
		}

		return c.writeAck(ctx, conn, "track-suggested", map[string]any{
			"success": false,
			"message": err.Error(),
		})
	}

	if err := c.writeAck(ctx, conn, "track-suggested", map[string]any{
		"success":         true,
		"cooldown_active": suggestResp.CooldownActive,
	}); err != nil {
		return fmt.Errorf("failed to write ack: %w", err)
	}

	if err := c.broadcast(ctx, suggestResp.Conns, &Output{
		Type: "update-queue",
		Payload: map[string]any{
			"queue": suggestResp.Queue,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast queue: %w", err)
	}

	return nil
}

type VoteTrackInput struct {
	RoomId  string `json:"room_id" validate:"required"`
	VideoId string `json:"video_id" validate:"required"`
}

func (c controller) handleVoteTrack(ctx context.Context, conn *wsconn.Conn, input VoteTrackInput) error {
	connectionId := c.getConnectionIdFromCtx(ctx)

	if validationErrors, ok := c.validate.Validate(input); !ok {
		return c.writeError(ctx, conn, errors.New(validationErrors[0].Message))
	}

	toggleVoteResp, err := c.roomService.ToggleVote(ctx, &room.ToggleVoteParams{
		RoomId:   input.RoomId,
		SenderId: connectionId,
		VideoId:  input.VideoId,
	})
	if err != nil {
		// voting on an unknown room or candidate is a no-op
		c.logger.DebugContext(ctx, "failed to toggle vote", "error", err)
		return nil
	}

	if err := c.broadcast(ctx, toggleVoteResp.Conns, &Output{
		Type: "update-queue",
		Payload: map[string]any{
			"queue": toggleVoteResp.Queue,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast queue: %w", err)
	}

	return nil
}

type PlayTopVotedInput struct {
	RoomId string `json:"room_id" validate:"required"`
}

func (c controller) handlePlayTopVoted(ctx context.Context, conn *wsconn.Conn, input PlayTopVotedInput) error {
	connectionId := c.getConnectionIdFromCtx(ctx)

	if validationErrors, ok := c.validate.Validate(input); !ok {
		return c.writeError(ctx, conn, errors.New(validationErrors[0].Message))
	}

	playTopVotedResp, err := c.roomService.PlayTopVoted(ctx, &room.PlayTopVotedParams{
		RoomId:   input.RoomId,
		SenderId: connectionId,
	})
	if err != nil {
		c.logger.DebugContext(ctx, "failed to play top voted", "error", err)
		if errors.Is(err, room.ErrPermissionDenied) {
			return c.writeError(ctx, conn, err)
		}
		// empty queue or vanished room is a no-op
		return nil
	}

	if err := c.broadcast(ctx, playTopVotedResp.Conns, &Output{
		Type: "set-video",
		Payload: map[string]any{
			"video_id": playTopVotedResp.VideoId,
			"queue":    playTopVotedResp.Queue,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast set video: %w", err)
	}

	return nil
}

type SendMessageInput struct {
	RoomId  string `json:"room_id" validate:"required"`
	Message string `json:"message" validate:"required,max=500"`
	User    User   `json:"user"`
}

func (c controller) handleSendMessage(ctx context.Context, conn *wsconn.Conn, input SendMessageInput) error {
	connectionId := c.getConnectionIdFromCtx(ctx)

	if validationErrors, ok := c.validate.Validate(input); !ok {
		return c.writeError(ctx, conn, errors.New(validationErrors[0].Message))
	}

	sendMessageResp, err := c.roomService.SendMessage(ctx, &room.SendMessageParams{
		RoomId:   input.RoomId,
		SenderId: connectionId,
		Username: input.User.Username,
		Message:  input.Message,
	})
	if err != nil {
		c.logger.DebugContext(ctx, "failed to send message", "error", err)
		return c.writeError(ctx, conn, err)
	}

	if err := c.broadcast(ctx, sendMessageResp.Conns, &Output{
		Type:    "new-message",
		Payload: sendMessageResp.Message,
	}); err != nil {
		return fmt.Errorf("failed to broadcast message: %w", err)
	}

	return nil
}
