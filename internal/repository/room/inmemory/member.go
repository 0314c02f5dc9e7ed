package inmemory

import (
	"context"

	"github.com/watchalong/server/internal/repository/room"
)

func (r *repo) AddMember(ctx context.Context, params *room.AddMemberParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.rooms[params.RoomId]
	if !ok {
		return room.ErrRoomNotFound
	}

	state.members = append(state.members, member{
		connectionId: params.ConnectionId,
		username:     params.Username,
	})
	r.memberRoom[params.ConnectionId] = params.RoomId

	return nil
}

func (r *repo) RemoveMember(ctx context.Context, params *room.RemoveMemberParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.rooms[params.RoomId]
	if !ok {
		return room.ErrRoomNotFound
	}

	for i, m := range state.members {
		if m.connectionId == params.ConnectionId {
			state.members = append(state.members[:i], state.members[i+1:]...)
			delete(r.memberRoom, params.ConnectionId)
			return nil
		}
	}

	return room.ErrMemberNotFound
}

// GetMembers returns the guests of a room in join order. The host is not
// part of the list.
func (r *repo) GetMembers(ctx context.Context, roomId string) ([]room.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.rooms[roomId]
	if !ok {
		return nil, room.ErrRoomNotFound
	}

	members := make([]room.Member, 0, len(state.members))
	for _, m := range state.members {
		members = append(members, room.Member{
			ConnectionId: m.connectionId,
			Username:     m.username,
		})
	}

	return members, nil
}
