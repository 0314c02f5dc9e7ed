package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/watchalong/server/pkg/wsconn"
)

func (c controller) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	conn := wsconn.New(ws)
	connectionId, err := c.roomService.Connect(r.Context(), conn)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to register connection", "error", err)
		conn.Close()
		return
	}

	ctx := context.WithValue(r.Context(), connectionIdCtxKey, connectionId)
	defer c.disconnect(ctx, connectionId)

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		c.logger.DebugContext(ctx, "connection closed", "connection_id", connectionId, "error", err)
	}
}

func (c controller) disconnect(ctx context.Context, connectionId string) {
	disconnectResp, err := c.roomService.Disconnect(ctx, connectionId)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to disconnect", "error", err)
		return
	}

	if disconnectResp.RoomId == "" {
		return
	}

	if disconnectResp.IsRoomDeleted {
		c.broadcast(ctx, disconnectResp.Conns, &Output{
			Type: "host-left",
			Payload: map[string]any{
				"room_id": disconnectResp.RoomId,
			},
		})

		for _, conn := range disconnectResp.Conns {
			conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(4000, "host left"), time.Now().Add(5*time.Second))
			conn.Close()
		}

		return
	}

	if disconnectResp.SystemMessage != nil {
		c.broadcast(ctx, disconnectResp.Conns, &Output{
			Type:    "new-message",
			Payload: disconnectResp.SystemMessage,
		})
	}
}
