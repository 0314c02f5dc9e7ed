package room

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chatredis "github.com/watchalong/server/internal/repository/chat/redis"
	connectioninmemory "github.com/watchalong/server/internal/repository/connection/inmemory"
	roominmemory "github.com/watchalong/server/internal/repository/room/inmemory"
	"github.com/watchalong/server/pkg/wsconn"
)

func newTestService(t *testing.T) *service {
	t.Helper()

	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	chatRepo := chatredis.NewRepo(rc, time.Hour, logger)
	roomRepo := roominmemory.NewRepo()
	connRepo := connectioninmemory.NewRepo()

	return NewService(roomRepo, connRepo, chatRepo, 9, logger)
}

func connect(t *testing.T, s *service) string {
	t.Helper()

	connectionId, err := s.Connect(context.Background(), wsconn.New(&websocket.Conn{}))
	require.NoError(t, err)

	return connectionId
}

func TestCreateAndJoinRoom(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	hostId := connect(t, s)

	createRoomResp, err := s.CreateRoom(ctx, &CreateRoomParams{
		ConnectionId: hostId,
		Username:     "alice",
		MaxGuests:    3,
	})
	require.NoError(t, err)
	assert.Len(t, createRoomResp.RoomId, 8, "room id must be 8 characters")

	guestId := connect(t, s)
	joinRoomResp, err := s.JoinRoom(ctx, &JoinRoomParams{
		RoomId:       createRoomResp.RoomId,
		ConnectionId: guestId,
		Username:     "bob",
	})
	require.NoError(t, err)

	assert.Equal(t, createRoomResp.RoomId, joinRoomResp.RoomState.RoomId)
	assert.Equal(t, "alice", joinRoomResp.RoomState.Host.Username)
	assert.Equal(t, hostId, joinRoomResp.RoomState.Host.ConnectionId)
	require.Len(t, joinRoomResp.RoomState.Guests, 1)
	assert.Equal(t, "bob", joinRoomResp.RoomState.Guests[0].Username)
	assert.Equal(t, PlaybackStatePaused, joinRoomResp.RoomState.PlaybackState)
	assert.Empty(t, joinRoomResp.RoomState.CurrentVideoId)
	assert.Empty(t, joinRoomResp.RoomState.Queue)
	assert.Len(t, joinRoomResp.Conns, 2, "host and guest conns expected")
	assert.Equal(t, "bob joined the room", joinRoomResp.SystemMessage.Message)
	assert.Equal(t, systemSenderId, joinRoomResp.SystemMessage.SenderId)
}

func TestCreateRoomInvalidMaxGuests(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	hostId := connect(t, s)

	_, err := s.CreateRoom(ctx, &CreateRoomParams{ConnectionId: hostId, Username: "alice", MaxGuests: 0})
	assert.ErrorIs(t, err, ErrInvalidMaxGuests)

	_, err = s.CreateRoom(ctx, &CreateRoomParams{ConnectionId: hostId, Username: "alice", MaxGuests: 100})
	assert.ErrorIs(t, err, ErrInvalidMaxGuests)
}

func TestJoinRoomNotFound(t *testing.T) {
	s := newTestService(t)

	guestId := connect(t, s)
	_, err := s.JoinRoom(context.Background(), &JoinRoomParams{
		RoomId:       "missing1",
		ConnectionId: guestId,
		Username:     "bob",
	})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestJoinRoomFull(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	hostId := connect(t, s)
	createRoomResp, err := s.CreateRoom(ctx, &CreateRoomParams{
		ConnectionId: hostId,
		Username:     "alice",
		MaxGuests:    1,
	})
	require.NoError(t, err)

	guestId := connect(t, s)
	_, err = s.JoinRoom(ctx, &JoinRoomParams{RoomId: createRoomResp.RoomId, ConnectionId: guestId, Username: "bob"})
	require.NoError(t, err)

	lateId := connect(t, s)
	_, err = s.JoinRoom(ctx, &JoinRoomParams{RoomId: createRoomResp.RoomId, ConnectionId: lateId, Username: "carol"})
	assert.ErrorIs(t, err, ErrRoomFull)
}

// fillRoom creates a room with the given number of guests and returns the
// room id, the host connection id and the guest connection ids.
func fillRoom(t *testing.T, s *service, guests int) (string, string, []string) {
	t.Helper()
	ctx := context.Background()

	hostId := connect(t, s)
	createRoomResp, err := s.CreateRoom(ctx, &CreateRoomParams{
		ConnectionId: hostId,
		Username:     "host",
		MaxGuests:    9,
	})
	require.NoError(t, err)

	guestIds := make([]string, 0, guests)
	for i := 0; i < guests; i++ {
		guestId := connect(t, s)
		_, err := s.JoinRoom(ctx, &JoinRoomParams{
			RoomId:       createRoomResp.RoomId,
			ConnectionId: guestId,
			Username:     "guest",
		})
		require.NoError(t, err)
		guestIds = append(guestIds, guestId)
	}

	return createRoomResp.RoomId, hostId, guestIds
}

func TestSuggestVideoBelowCooldownThreshold(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	roomId, hostId, _ := fillRoom(t, s, 3)

	for _, videoId := range []string{"v1", "v2", "v3"} {
		resp, err := s.SuggestVideo(ctx, &SuggestVideoParams{
			RoomId:   roomId,
			SenderId: hostId,
			VideoId:  videoId,
			Title:    "title",
		})
		require.NoError(t, err)
		assert.False(t, resp.CooldownActive)
	}

	queue, err := s.getQueue(ctx, roomId)
	require.NoError(t, err)
	assert.Len(t, queue, 3)
}

func TestSuggestVideoDuplicate(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	roomId, hostId, guestIds := fillRoom(t, s, 1)

	_, err := s.SuggestVideo(ctx, &SuggestVideoParams{RoomId: roomId, SenderId: hostId, VideoId: "v1", Title: "first"})
	require.NoError(t, err)

	_, err = s.SuggestVideo(ctx, &SuggestVideoParams{RoomId: roomId, SenderId: guestIds[0], VideoId: "v1", Title: "again"})
	assert.ErrorIs(t, err, ErrVideoAlreadyQueued)
}

func TestSuggestVideoCooldown(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	// host plus four guests reaches the cooldown threshold
	roomId, hostId, guestIds := fillRoom(t, s, 4)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	resp, err := s.SuggestVideo(ctx, &SuggestVideoParams{RoomId: roomId, SenderId: hostId, VideoId: "v1", Title: "first"})
	require.NoError(t, err)
	assert.True(t, resp.CooldownActive)

	// 10 seconds later the window still has 50 seconds left
	now = now.Add(10 * time.Second)
	_, err = s.SuggestVideo(ctx, &SuggestVideoParams{RoomId: roomId, SenderId: guestIds[0], VideoId: "v2", Title: "second"})
	var rateLimited *RateLimitedError
	require.ErrorAs(t, err, &rateLimited)
	assert.Equal(t, 50, rateLimited.SecondsRemaining)

	// a duplicate is rejected as a duplicate even while rate limited
	_, err = s.SuggestVideo(ctx, &SuggestVideoParams{RoomId: roomId, SenderId: guestIds[1], VideoId: "v1", Title: "dup"})
	assert.ErrorIs(t, err, ErrVideoAlreadyQueued)

	// rejection must not have touched the window
	now = now.Add(1 * time.Second)
	_, err = s.SuggestVideo(ctx, &SuggestVideoParams{RoomId: roomId, SenderId: guestIds[0], VideoId: "v3", Title: "third"})
	require.ErrorAs(t, err, &rateLimited)
	assert.Equal(t, 49, rateLimited.SecondsRemaining)

	// window expired
	now = now.Add(50 * time.Second)
	_, err = s.SuggestVideo(ctx, &SuggestVideoParams{RoomId: roomId, SenderId: guestIds[0], VideoId: "v4", Title: "fourth"})
	require.NoError(t, err)
}

func TestSuggestVideoFractionalRemaining(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	roomId, hostId, guestIds := fillRoom(t, s, 4)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_, err := s.SuggestVideo(ctx, &SuggestVideoParams{RoomId: roomId, SenderId: hostId, VideoId: "v1", Title: "first"})
	require.NoError(t, err)

	// 59.5s elapsed rounds the remaining half second up to one
	now = now.Add(59*time.Second + 500*time.Millisecond)
	_, err = s.SuggestVideo(ctx, &SuggestVideoParams{RoomId: roomId, SenderId: guestIds[0], VideoId: "v2", Title: "second"})
	var rateLimited *RateLimitedError
	require.ErrorAs(t, err, &rateLimited)
	assert.Equal(t, 1, rateLimited.SecondsRemaining)
}

func TestToggleVote(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	roomId, hostId, guestIds := fillRoom(t, s, 2)

	_, err := s.SuggestVideo(ctx, &SuggestVideoParams{RoomId: roomId, SenderId: hostId, VideoId: "v1", Title: "title"})
	require.NoError(t, err)

	resp, err := s.ToggleVote(ctx, &ToggleVoteParams{RoomId: roomId, SenderId: guestIds[0], VideoId: "v1"})
	require.NoError(t, err)
	require.Len(t, resp.Queue, 1)
	assert.Equal(t, 1, resp.Queue[0].Votes)

	// same voter again retracts
	resp, err = s.ToggleVote(ctx, &ToggleVoteParams{RoomId: roomId, SenderId: guestIds[0], VideoId: "v1"})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Queue[0].Votes)

	// votes from distinct connections accumulate
	for _, voter := range []string{hostId, guestIds[0], guestIds[1]} {
		resp, err = s.ToggleVote(ctx, &ToggleVoteParams{RoomId: roomId, SenderId: voter, VideoId: "v1"})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, resp.Queue[0].Votes)

	_, err = s.ToggleVote(ctx, &ToggleVoteParams{RoomId: roomId, SenderId: hostId, VideoId: "missing"})
	assert.ErrorIs(t, err, ErrVideoNotFound)

	_, err = s.ToggleVote(ctx, &ToggleVoteParams{RoomId: "missing1", SenderId: hostId, VideoId: "v1"})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestPlayTopVoted(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	roomId, hostId, guestIds := fillRoom(t, s, 2)

	for _, videoId := range []string{"v1", "v2", "v3"} {
		_, err := s.SuggestVideo(ctx, &SuggestVideoParams{RoomId: roomId, SenderId: hostId, VideoId: videoId, Title: "title"})
		require.NoError(t, err)
	}

	_, err := s.ToggleVote(ctx, &ToggleVoteParams{RoomId: roomId, SenderId: guestIds[0], VideoId: "v2"})
	require.NoError(t, err)
	_, err = s.ToggleVote(ctx, &ToggleVoteParams{RoomId: roomId, SenderId: guestIds[1], VideoId: "v2"})
	require.NoError(t, err)
	_, err = s.ToggleVote(ctx, &ToggleVoteParams{RoomId: roomId, SenderId: hostId, VideoId: "v3"})
	require.NoError(t, err)

	resp, err := s.PlayTopVoted(ctx, &PlayTopVotedParams{RoomId: roomId, SenderId: hostId})
	require.NoError(t, err)
	assert.Equal(t, "v2", resp.VideoId)
	require.Len(t, resp.Queue, 2)
	assert.Equal(t, "v1", resp.Queue[0].VideoId)
	assert.Equal(t, "v3", resp.Queue[1].VideoId)

	state, err := s.getRoomState(ctx, roomId)
	require.NoError(t, err)
	assert.Equal(t, "v2", state.CurrentVideoId)
	assert.Equal(t, PlaybackStatePlaying, state.PlaybackState)
	assert.Equal(t, float64(0), state.LastSeekTime)
}

func TestPlayTopVotedTieKeepsEarliest(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	roomId, hostId, guestIds := fillRoom(t, s, 1)

	for _, videoId := range []string{"v1", "v2"} {
		_, err := s.SuggestVideo(ctx, &SuggestVideoParams{RoomId: roomId, SenderId: hostId, VideoId: videoId, Title: "title"})
		require.NoError(t, err)
	}

	_, err := s.ToggleVote(ctx, &ToggleVoteParams{RoomId: roomId, SenderId: guestIds[0], VideoId: "v1"})
	require.NoError(t, err)
	_, err = s.ToggleVote(ctx, &ToggleVoteParams{RoomId: roomId, SenderId: guestIds[0], VideoId: "v2"})
	require.NoError(t, err)

	resp, err := s.PlayTopVoted(ctx, &PlayTopVotedParams{RoomId: roomId, SenderId: hostId})
	require.NoError(t, err)
	assert.Equal(t, "v1", resp.VideoId)
}

func TestPlayTopVotedErrors(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	roomId, hostId, guestIds := fillRoom(t, s, 1)

	_, err := s.PlayTopVoted(ctx, &PlayTopVotedParams{RoomId: roomId, SenderId: hostId})
	assert.ErrorIs(t, err, ErrQueueEmpty)

	_, err = s.SuggestVideo(ctx, &SuggestVideoParams{RoomId: roomId, SenderId: hostId, VideoId: "v1", Title: "title"})
	require.NoError(t, err)

	_, err = s.PlayTopVoted(ctx, &PlayTopVotedParams{RoomId: roomId, SenderId: guestIds[0]})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestHostAction(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	roomId, hostId, guestIds := fillRoom(t, s, 2)

	resp, err := s.HostAction(ctx, &HostActionParams{RoomId: roomId, SenderId: hostId, Action: HostActionPlay, Time: 12.5})
	require.NoError(t, err)
	assert.Equal(t, HostActionPlay, resp.Action)
	assert.Equal(t, 12.5, resp.Time)
	assert.Len(t, resp.Conns, 2, "host must be excluded from the relay")

	state, err := s.getRoomState(ctx, roomId)
	require.NoError(t, err)
	assert.Equal(t, PlaybackStatePlaying, state.PlaybackState)
	assert.Equal(t, 12.5, state.LastSeekTime)

	_, err = s.HostAction(ctx, &HostActionParams{RoomId: roomId, SenderId: hostId, Action: HostActionPause, Time: 20})
	require.NoError(t, err)

	state, err = s.getRoomState(ctx, roomId)
	require.NoError(t, err)
	assert.Equal(t, PlaybackStatePaused, state.PlaybackState)

	// seek leaves playback state untouched
	_, err = s.HostAction(ctx, &HostActionParams{RoomId: roomId, SenderId: hostId, Action: HostActionSeek, Time: 42})
	require.NoError(t, err)

	state, err = s.getRoomState(ctx, roomId)
	require.NoError(t, err)
	assert.Equal(t, PlaybackStatePaused, state.PlaybackState)
	assert.Equal(t, float64(42), state.LastSeekTime)

	_, err = s.HostAction(ctx, &HostActionParams{RoomId: roomId, SenderId: guestIds[0], Action: HostActionPlay})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestGuestDisconnect(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	roomId, _, guestIds := fillRoom(t, s, 2)

	resp, err := s.Disconnect(ctx, guestIds[0])
	require.NoError(t, err)
	assert.Equal(t, roomId, resp.RoomId)
	assert.False(t, resp.IsRoomDeleted)
	require.NotNil(t, resp.SystemMessage)
	assert.Equal(t, "guest left the room", resp.SystemMessage.Message)
	assert.Len(t, resp.Conns, 2, "host and remaining guest")

	guests, err := s.getGuests(ctx, roomId)
	require.NoError(t, err)
	assert.Len(t, guests, 1)
}

func TestHostDisconnectClosesRoom(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	roomId, hostId, _ := fillRoom(t, s, 2)

	resp, err := s.Disconnect(ctx, hostId)
	require.NoError(t, err)
	assert.Equal(t, roomId, resp.RoomId)
	assert.True(t, resp.IsRoomDeleted)
	assert.Len(t, resp.Conns, 2, "only guest conns get the close notice")

	lateId := connect(t, s)
	_, err = s.JoinRoom(ctx, &JoinRoomParams{RoomId: roomId, ConnectionId: lateId, Username: "late"})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestDisconnectUnknownConnection(t *testing.T) {
	s := newTestService(t)

	resp, err := s.Disconnect(context.Background(), "never-joined")
	require.NoError(t, err)
	assert.Empty(t, resp.RoomId)
}

func TestSendMessagePersistsHistory(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	roomId, hostId, guestIds := fillRoom(t, s, 1)

	// pin the clock so the two messages get distinct history scores
	now := time.Now().Add(time.Minute)
	s.now = func() time.Time { return now }

	resp, err := s.SendMessage(ctx, &SendMessageParams{
		RoomId:   roomId,
		SenderId: guestIds[0],
		Username: "guest",
		Message:  "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Message.Message)
	assert.Equal(t, guestIds[0], resp.Message.SenderId)
	assert.NotEmpty(t, resp.Message.Id)
	assert.Len(t, resp.Conns, 2)

	now = now.Add(time.Second)
	_, err = s.SendMessage(ctx, &SendMessageParams{
		RoomId:   roomId,
		SenderId: hostId,
		Username: "host",
		Message:  "hi there",
	})
	require.NoError(t, err)

	// persistence is async, poll until both messages plus the join notice land
	require.Eventually(t, func() bool {
		messages, err := s.chatRepo.GetMessages(ctx, roomId)
		return err == nil && len(messages) == 3
	}, 2*time.Second, 10*time.Millisecond)

	messages, err := s.chatRepo.GetMessages(ctx, roomId)
	require.NoError(t, err)
	assert.Equal(t, "hello", messages[1].Message)
	assert.Equal(t, "hi there", messages[2].Message)
}

func TestSendMessageRoomNotFound(t *testing.T) {
	s := newTestService(t)

	senderId := connect(t, s)
	_, err := s.SendMessage(context.Background(), &SendMessageParams{
		RoomId:   "missing1",
		SenderId: senderId,
		Username: "bob",
		Message:  "hello",
	})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestCreateRoomTokenCollisionRetries(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	s.generator = &sequenceGenerator{values: []string{"sametokn", "sametokn", "freshtok"}}

	firstHost := connect(t, s)
	first, err := s.CreateRoom(ctx, &CreateRoomParams{ConnectionId: firstHost, Username: "alice", MaxGuests: 2})
	require.NoError(t, err)
	assert.Equal(t, "sametokn", first.RoomId)

	secondHost := connect(t, s)
	second, err := s.CreateRoom(ctx, &CreateRoomParams{ConnectionId: secondHost, Username: "bob", MaxGuests: 2})
	require.NoError(t, err)
	assert.Equal(t, "freshtok", second.RoomId)
}

type sequenceGenerator struct {
	values []string
	i      int
}

func (g *sequenceGenerator) GenerateRandomString(length int) string {
	v := g.values[g.i%len(g.values)]
	g.i++
	return v
}
