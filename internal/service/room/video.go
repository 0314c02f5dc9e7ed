package room

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/watchalong/server/internal/repository/room"
	"github.com/watchalong/server/pkg/wsconn"
)

type SuggestVideoParams struct {
	RoomId   string
	SenderId string
	VideoId  string
	Title    string
}

type SuggestVideoResponse struct {
	Queue []QueueVideo
	Conns []*wsconn.Conn
	// CooldownActive reports that the accepted suggestion started a
	// cooldown window for the room.
	CooldownActive bool
}

// SuggestVideo appends a candidate to the queue. Once the room holds five
// or more participants a 60-second cooldown applies between suggestions.
func (s *service) SuggestVideo(ctx context.Context, params *SuggestVideoParams) (SuggestVideoResponse, error) {
	unlock := s.lockRoom(params.RoomId)
	defer unlock()

	r, err := s.roomRepo.GetRoom(ctx, params.RoomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return SuggestVideoResponse{}, ErrRoomNotFound
		}
		return SuggestVideoResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	videos, err := s.roomRepo.GetVideos(ctx, params.RoomId)
	if err != nil {
		return SuggestVideoResponse{}, fmt.Errorf("failed to get videos: %w", err)
	}

	for _, v := range videos {
		if v.VideoId == params.VideoId {
			return SuggestVideoResponse{}, ErrVideoAlreadyQueued
		}
	}

	members, err := s.roomRepo.GetMembers(ctx, params.RoomId)
	if err != nil {
		return SuggestVideoResponse{}, fmt.Errorf("failed to get members: %w", err)
	}

	totalParticipants := len(members) + 1
	cooldownActive := totalParticipants >= cooldownMinParticipants
	if cooldownActive && !r.LastSuggestAt.IsZero() {
		elapsed := s.now().Sub(r.LastSuggestAt)
		if elapsed < suggestCooldown {
			remaining := int(math.Ceil((suggestCooldown - elapsed).Seconds()))
			return SuggestVideoResponse{}, &RateLimitedError{SecondsRemaining: remaining}
		}
	}

	if err := s.roomRepo.AddVideo(ctx, &room.AddVideoParams{
		RoomId:        params.RoomId,
		VideoId:       params.VideoId,
		Title:         params.Title,
		SuggestedById: params.SenderId,
	}); err != nil {
		return SuggestVideoResponse{}, fmt.Errorf("failed to add video: %w", err)
	}

	// the timestamp updates on every accepted suggestion, whether or not
	// the window was checked
	if err := s.roomRepo.SetLastSuggestAt(ctx, params.RoomId, s.now()); err != nil {
		return SuggestVideoResponse{}, fmt.Errorf("failed to set last suggest at: %w", err)
	}

	queue, err := s.getQueue(ctx, params.RoomId)
	if err != nil {
		return SuggestVideoResponse{}, fmt.Errorf("failed to get queue: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return SuggestVideoResponse{}, fmt.Errorf("failed to get conns: %w", err)
	}

	return SuggestVideoResponse{
		Queue:          queue,
		Conns:          conns,
		CooldownActive: cooldownActive,
	}, nil
}

type ToggleVoteParams struct {
	RoomId   string
	SenderId string
	VideoId  string
}

type ToggleVoteResponse struct {
	Queue []QueueVideo
	Conns []*wsconn.Conn
}

// ToggleVote flips the caller's vote on a candidate. Each connection holds
// at most one vote per candidate at any time.
func (s *service) ToggleVote(ctx context.Context, params *ToggleVoteParams) (ToggleVoteResponse, error) {
	unlock := s.lockRoom(params.RoomId)
	defer unlock()

	if _, err := s.roomRepo.ToggleVote(ctx, &room.ToggleVoteParams{
		RoomId:       params.RoomId,
		VideoId:      params.VideoId,
		ConnectionId: params.SenderId,
	}); err != nil {
		switch {
		case errors.Is(err, room.ErrRoomNotFound):
			return ToggleVoteResponse{}, ErrRoomNotFound
		case errors.Is(err, room.ErrVideoNotFound):
			return ToggleVoteResponse{}, ErrVideoNotFound
		}
		return ToggleVoteResponse{}, fmt.Errorf("failed to toggle vote: %w", err)
	}

	queue, err := s.getQueue(ctx, params.RoomId)
	if err != nil {
		return ToggleVoteResponse{}, fmt.Errorf("failed to get queue: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return ToggleVoteResponse{}, fmt.Errorf("failed to get conns: %w", err)
	}

	return ToggleVoteResponse{
		Queue: queue,
		Conns: conns,
	}, nil
}

type PlayTopVotedParams struct {
	RoomId   string
	SenderId string
}

type PlayTopVotedResponse struct {
	VideoId string
	Queue   []QueueVideo
	Conns   []*wsconn.Conn
}

// PlayTopVoted makes the highest-voted candidate the current video and
// removes it from the queue. Ties go to the earliest suggestion. Host only.
func (s *service) PlayTopVoted(ctx context.Context, params *PlayTopVotedParams) (PlayTopVotedResponse, error) {
	unlock := s.lockRoom(params.RoomId)
	defer unlock()

	r, err := s.roomRepo.GetRoom(ctx, params.RoomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return PlayTopVotedResponse{}, ErrRoomNotFound
		}
		return PlayTopVotedResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	if r.HostId != params.SenderId {
		return PlayTopVotedResponse{}, ErrPermissionDenied
	}

	videos, err := s.roomRepo.GetVideos(ctx, params.RoomId)
	if err != nil {
		return PlayTopVotedResponse{}, fmt.Errorf("failed to get videos: %w", err)
	}

	if len(videos) == 0 {
		return PlayTopVotedResponse{}, ErrQueueEmpty
	}

	// strict > keeps the earliest suggestion on equal vote counts
	winner := videos[0]
	for _, v := range videos[1:] {
		if v.Votes > winner.Votes {
			winner = v
		}
	}

	if err := s.roomRepo.UpdatePlayerVideo(ctx, &room.UpdatePlayerVideoParams{
		RoomId:  params.RoomId,
		VideoId: winner.VideoId,
	}); err != nil {
		return PlayTopVotedResponse{}, fmt.Errorf("failed to update player video: %w", err)
	}

	if err := s.roomRepo.RemoveVideo(ctx, &room.RemoveVideoParams{
		RoomId:  params.RoomId,
		VideoId: winner.VideoId,
	}); err != nil {
		return PlayTopVotedResponse{}, fmt.Errorf("failed to remove video: %w", err)
	}

	queue, err := s.getQueue(ctx, params.RoomId)
	if err != nil {
		return PlayTopVotedResponse{}, fmt.Errorf("failed to get queue: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return PlayTopVotedResponse{}, fmt.Errorf("failed to get conns: %w", err)
	}

	return PlayTopVotedResponse{
		VideoId: winner.VideoId,
		Queue:   queue,
		Conns:   conns,
	}, nil
}
