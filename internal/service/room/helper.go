package room

import (
	"context"

	"github.com/google/uuid"

	"github.com/watchalong/server/internal/repository/chat"
	"github.com/watchalong/server/pkg/wsconn"
)

// getConnsByRoomId collects the connections of the host and every guest.
// A participant without a registered connection is skipped.
func (s *service) getConnsByRoomId(ctx context.Context, roomId string) ([]*wsconn.Conn, error) {
	r, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		return nil, err
	}

	members, err := s.roomRepo.GetMembers(ctx, roomId)
	if err != nil {
		return nil, err
	}

	connectionIds := make([]string, 0, len(members)+1)
	connectionIds = append(connectionIds, r.HostId)
	for _, m := range members {
		connectionIds = append(connectionIds, m.ConnectionId)
	}

	conns := make([]*wsconn.Conn, 0, len(connectionIds))
	for _, connectionId := range connectionIds {
		conn, err := s.connRepo.GetConn(connectionId)
		if err != nil {
			s.logger.DebugContext(ctx, "no conn for participant", "connection_id", connectionId)
			continue
		}

		conns = append(conns, conn)
	}

	return conns, nil
}

// getGuestConns is getConnsByRoomId without the host, for pushes the host's
// own client already reflects.
func (s *service) getGuestConns(ctx context.Context, roomId string) ([]*wsconn.Conn, error) {
	members, err := s.roomRepo.GetMembers(ctx, roomId)
	if err != nil {
		return nil, err
	}

	conns := make([]*wsconn.Conn, 0, len(members))
	for _, m := range members {
		conn, err := s.connRepo.GetConn(m.ConnectionId)
		if err != nil {
			s.logger.DebugContext(ctx, "no conn for participant", "connection_id", m.ConnectionId)
			continue
		}

		conns = append(conns, conn)
	}

	return conns, nil
}

func (s *service) getQueue(ctx context.Context, roomId string) ([]QueueVideo, error) {
	videos, err := s.roomRepo.GetVideos(ctx, roomId)
	if err != nil {
		return nil, err
	}

	queue := make([]QueueVideo, 0, len(videos))
	for _, v := range videos {
		queue = append(queue, QueueVideo{
			VideoId:     v.VideoId,
			Title:       v.Title,
			SuggestedBy: v.SuggestedById,
			Votes:       v.Votes,
		})
	}

	return queue, nil
}

func (s *service) getGuests(ctx context.Context, roomId string) ([]Participant, error) {
	members, err := s.roomRepo.GetMembers(ctx, roomId)
	if err != nil {
		return nil, err
	}

	guests := make([]Participant, 0, len(members))
	for _, m := range members {
		guests = append(guests, Participant{
			ConnectionId: m.ConnectionId,
			Username:     m.Username,
		})
	}

	return guests, nil
}

const systemSenderId = "system"

func (s *service) newMessage(senderId, username, text string) Message {
	return Message{
		Id:        uuid.NewString(),
		SenderId:  senderId,
		Username:  username,
		Message:   text,
		Timestamp: s.now().UnixMilli(),
	}
}

func (s *service) newSystemMessage(text string) Message {
	return s.newMessage(systemSenderId, systemSenderId, text)
}

// appendMessageAsync queues a message for durable storage. Persistence is
// best-effort and never gates the broadcast path.
func (s *service) appendMessageAsync(roomId string, msg Message) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), chatAppendTimeout)
		defer cancel()

		if err := s.chatRepo.AppendMessage(ctx, &chat.AppendMessageParams{
			RoomId: roomId,
			Message: chat.Message{
				Id:        msg.Id,
				SenderId:  msg.SenderId,
				Username:  msg.Username,
				Message:   msg.Message,
				Timestamp: msg.Timestamp,
			},
		}); err != nil {
			s.logger.WarnContext(ctx, "failed to append chat message", "room_id", roomId, "error", err)
		}
	}()
}

func (s *service) removeMessagesAsync(roomId string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), chatAppendTimeout)
		defer cancel()

		if err := s.chatRepo.RemoveMessages(ctx, roomId); err != nil {
			s.logger.WarnContext(ctx, "failed to remove chat history", "room_id", roomId, "error", err)
		}
	}()
}
