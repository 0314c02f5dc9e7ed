package controller

import (
	"context"
	"strconv"
	"time"

	"github.com/watchalong/server/pkg/wsconn"
)

func (c controller) generateTimeBasedId() string {
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}

func (c controller) writeToConn(ctx context.Context, conn *wsconn.Conn, output *Output) error {
	if err := conn.WriteJSON(output); err != nil {
		c.logger.DebugContext(ctx, "failed to write to conn", "error", err)
		return err
	}

	return nil
}

func (c controller) writeAck(ctx context.Context, conn *wsconn.Conn, messageType string, payload map[string]any) error {
	return c.writeToConn(ctx, conn, &Output{
		Type:    messageType,
		Payload: payload,
	})
}

func (c controller) writeError(ctx context.Context, conn *wsconn.Conn, err error) error {
	c.logger.DebugContext(ctx, "writing error", "error", err)

	return c.writeToConn(ctx, conn, &Output{
		Type: "error",
		Payload: map[string]any{
			"message": err.Error(),
		},
	})
}

func (c controller) wsErrorHandler(ctx context.Context, conn *wsconn.Conn, err error) {
	c.logger.WarnContext(ctx, "failed to handle websocket message", "error", err)
	c.writeError(ctx, conn, err)
}

func (c controller) broadcast(ctx context.Context, conns []*wsconn.Conn, output *Output) error {
	for _, conn := range conns {
		if err := c.writeToConn(ctx, conn, output); err != nil {
			c.logger.WarnContext(ctx, "failed to broadcast to conn", "error", err)
		}
	}

	return nil
}
