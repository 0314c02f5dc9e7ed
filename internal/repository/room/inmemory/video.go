package inmemory

import (
	"context"

	"github.com/watchalong/server/internal/repository/room"
)

func (r *repo) AddVideo(ctx context.Context, params *room.AddVideoParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.rooms[params.RoomId]
	if !ok {
		return room.ErrRoomNotFound
	}

	for _, v := range state.videos {
		if v.videoId == params.VideoId {
			return room.ErrVideoAlreadyExists
		}
	}

	state.videos = append(state.videos, video{
		videoId:       params.VideoId,
		title:         params.Title,
		suggestedById: params.SuggestedById,
		voters:        make(map[string]struct{}),
	})

	return nil
}

func (r *repo) RemoveVideo(ctx context.Context, params *room.RemoveVideoParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.rooms[params.RoomId]
	if !ok {
		return room.ErrRoomNotFound
	}

	for i, v := range state.videos {
		if v.videoId == params.VideoId {
			state.videos = append(state.videos[:i], state.videos[i+1:]...)
			return nil
		}
	}

	return room.ErrVideoNotFound
}

// GetVideos returns the queue in suggestion order with computed vote counts.
func (r *repo) GetVideos(ctx context.Context, roomId string) ([]room.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.rooms[roomId]
	if !ok {
		return nil, room.ErrRoomNotFound
	}

	videos := make([]room.Video, 0, len(state.videos))
	for _, v := range state.videos {
		videos = append(videos, room.Video{
			VideoId:       v.videoId,
			Title:         v.title,
			SuggestedById: v.suggestedById,
			Votes:         len(v.voters),
		})
	}

	return videos, nil
}

// ToggleVote flips the connection's membership in the video's voter set and
// reports whether the vote is present after the call.
func (r *repo) ToggleVote(ctx context.Context, params *room.ToggleVoteParams) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.rooms[params.RoomId]
	if !ok {
		return false, room.ErrRoomNotFound
	}

	for i := range state.videos {
		if state.videos[i].videoId == params.VideoId {
			if _, voted := state.videos[i].voters[params.ConnectionId]; voted {
				delete(state.videos[i].voters, params.ConnectionId)
				return false, nil
			}

			state.videos[i].voters[params.ConnectionId] = struct{}{}
			return true, nil
		}
	}

	return false, room.ErrVideoNotFound
}
