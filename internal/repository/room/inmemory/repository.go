package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/watchalong/server/internal/repository/room"
)

type member struct {
	connectionId string
	username     string
}

type video struct {
	videoId       string
	title         string
	suggestedById string
	voters        map[string]struct{}
}

type player struct {
	currentVideoId string
	isPlaying      bool
	lastSeekTime   float64
}

type roomState struct {
	hostId        string
	hostUsername  string
	maxGuests     int
	lastSuggestAt time.Time
	members       []member
	videos        []video
	player        player
}

// repo is the process-wide room registry. Rooms live only in memory and die
// with the process.
type repo struct {
	rooms      map[string]*roomState
	memberRoom map[string]string
	mu         sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		rooms:      make(map[string]*roomState),
		memberRoom: make(map[string]string),
	}
}

func (r *repo) SetRoom(ctx context.Context, params *room.SetRoomParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[params.RoomId]; ok {
		return room.ErrRoomAlreadyExists
	}

	r.rooms[params.RoomId] = &roomState{
		hostId:       params.HostId,
		hostUsername: params.HostUsername,
		maxGuests:    params.MaxGuests,
		player: player{
			isPlaying: false,
		},
	}
	r.memberRoom[params.HostId] = params.RoomId

	return nil
}

func (r *repo) GetRoom(ctx context.Context, roomId string) (room.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.rooms[roomId]
	if !ok {
		return room.Room{}, room.ErrRoomNotFound
	}

	return room.Room{
		HostId:        state.hostId,
		HostUsername:  state.hostUsername,
		MaxGuests:     state.maxGuests,
		LastSuggestAt: state.lastSuggestAt,
	}, nil
}

func (r *repo) RemoveRoom(ctx context.Context, roomId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.rooms[roomId]
	if !ok {
		return room.ErrRoomNotFound
	}

	delete(r.memberRoom, state.hostId)
	for _, m := range state.members {
		delete(r.memberRoom, m.connectionId)
	}
	delete(r.rooms, roomId)

	return nil
}

func (r *repo) SetLastSuggestAt(ctx context.Context, roomId string, lastSuggestAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.rooms[roomId]
	if !ok {
		return room.ErrRoomNotFound
	}

	state.lastSuggestAt = lastSuggestAt

	return nil
}

// GetRoomIdByConnectionId resolves which room, if any, contains the given
// connection. Hosts are indexed like guests.
func (r *repo) GetRoomIdByConnectionId(ctx context.Context, connectionId string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roomId, ok := r.memberRoom[connectionId]
	if !ok {
		return "", room.ErrMemberNotFound
	}

	return roomId, nil
}
