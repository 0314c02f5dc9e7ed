package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/watchalong/server/internal/repository/chat"
	"github.com/watchalong/server/internal/repository/room"
	"github.com/watchalong/server/pkg/randstr"
	"github.com/watchalong/server/pkg/wsconn"
)

var (
	ErrPermissionDenied   = errors.New("permission denied")
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrInvalidMaxGuests   = errors.New("invalid max guests")
	ErrVideoAlreadyQueued = errors.New("video already in queue")
	ErrVideoNotFound      = errors.New("video not found")
	ErrQueueEmpty         = errors.New("queue is empty")
)

// RateLimitedError carries the ceiling of seconds left in the suggestion
// cooldown window.
type RateLimitedError struct {
	SecondsRemaining int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("suggestion cooldown active, retry in %d seconds", e.SecondsRemaining)
}

const (
	roomIdLength = 8

	// suggestion cooldown applies once the room reaches this many
	// participants, host included
	cooldownMinParticipants = 5
	suggestCooldown         = 60 * time.Second

	chatAppendTimeout = 3 * time.Second
	chatReadTimeout   = 3 * time.Second
)

type iRoomRepo interface {
	SetRoom(context.Context, *room.SetRoomParams) error
	GetRoom(context.Context, string) (room.Room, error)
	RemoveRoom(context.Context, string) error
	SetLastSuggestAt(ctx context.Context, roomId string, lastSuggestAt time.Time) error
	GetRoomIdByConnectionId(context.Context, string) (string, error)
	// members
	AddMember(context.Context, *room.AddMemberParams) error
	RemoveMember(context.Context, *room.RemoveMemberParams) error
	GetMembers(context.Context, string) ([]room.Member, error)
	// videos
	AddVideo(context.Context, *room.AddVideoParams) error
	RemoveVideo(context.Context, *room.RemoveVideoParams) error
	GetVideos(context.Context, string) ([]room.Video, error)
	ToggleVote(context.Context, *room.ToggleVoteParams) (bool, error)
	// player
	GetPlayer(context.Context, string) (room.Player, error)
	UpdatePlayerState(context.Context, *room.UpdatePlayerStateParams) error
	UpdatePlayerVideo(context.Context, *room.UpdatePlayerVideoParams) error
}

type iConnRepo interface {
	Add(*wsconn.Conn, string) error
	RemoveByConnectionId(string) (*wsconn.Conn, error)
	GetConn(string) (*wsconn.Conn, error)
}

type iChatRepo interface {
	AppendMessage(context.Context, *chat.AppendMessageParams) error
	GetMessages(context.Context, string) ([]chat.Message, error)
	RemoveMessages(context.Context, string) error
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type service struct {
	roomRepo       iRoomRepo
	connRepo       iConnRepo
	chatRepo       iChatRepo
	generator      iGenerator
	logger         *slog.Logger
	maxGuestsLimit int
	now            func() time.Time

	mu        sync.Mutex
	roomLocks map[string]*sync.Mutex
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, chatRepo iChatRepo, maxGuestsLimit int, logger *slog.Logger) *service {
	s := service{
		roomRepo:       roomRepo,
		connRepo:       connRepo,
		chatRepo:       chatRepo,
		logger:         logger,
		maxGuestsLimit: maxGuestsLimit,
		now:            time.Now,
		roomLocks:      make(map[string]*sync.Mutex),
	}

	letterBytes := []byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
	s.generator = randstr.New(letterBytes)

	return &s
}

// lockRoom serializes mutating operations on a single room so no two of
// them ever interleave, while operations on different rooms proceed in
// parallel. The returned func releases the lock.
func (s *service) lockRoom(roomId string) func() {
	s.mu.Lock()
	l, ok := s.roomLocks[roomId]
	if !ok {
		l = &sync.Mutex{}
		s.roomLocks[roomId] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// releaseRoomLock drops the lock entry of a removed room. A goroutine still
// waiting on the old mutex acquires it and then fails with ErrRoomNotFound.
func (s *service) releaseRoomLock(roomId string) {
	s.mu.Lock()
	delete(s.roomLocks, roomId)
	s.mu.Unlock()
}
