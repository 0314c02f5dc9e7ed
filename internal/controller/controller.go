package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/watchalong/server/internal/service/room"
	"github.com/watchalong/server/pkg/validator"
	"github.com/watchalong/server/pkg/wsconn"
	"github.com/watchalong/server/pkg/wsrouter"
	"github.com/watchalong/server/pkg/ytsearch"
)

type iRoomService interface {
	Connect(context.Context, *wsconn.Conn) (string, error)
	Disconnect(context.Context, string) (room.DisconnectResponse, error)
	CreateRoom(context.Context, *room.CreateRoomParams) (room.CreateRoomResponse, error)
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	HostAction(context.Context, *room.HostActionParams) (room.HostActionResponse, error)
	SuggestVideo(context.Context, *room.SuggestVideoParams) (room.SuggestVideoResponse, error)
	ToggleVote(context.Context, *room.ToggleVoteParams) (room.ToggleVoteResponse, error)
	PlayTopVoted(context.Context, *room.PlayTopVotedParams) (room.PlayTopVotedResponse, error)
	SendMessage(context.Context, *room.SendMessageParams) (room.SendMessageResponse, error)
}

type iSearchClient interface {
	Search(ctx context.Context, query string) ([]ytsearch.SearchResult, error)
}

type controller struct {
	roomService   iRoomService
	searchClient  iSearchClient
	upgrader      websocket.Upgrader
	validate      *validator.Validator
	wsmux         *wsrouter.WSRouter
	logger        *slog.Logger
	allowedOrigin string
}

func NewController(roomService iRoomService, searchClient iSearchClient, allowedOrigin string, logger *slog.Logger) *controller {
	c := controller{
		roomService:   roomService,
		searchClient:  searchClient,
		validate:      validator.NewValidator(),
		logger:        logger,
		allowedOrigin: allowedOrigin,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "*" {
					return true
				}

				return r.Header.Get("Origin") == allowedOrigin
			},
		},
	}
	c.wsmux = c.initWSMux()

	return &c
}
