package controller

import (
	"github.com/watchalong/server/pkg/wsrouter"
)

func (c controller) initWSMux() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.Use(c.wsRequestIdWSMw())
	mux.Use(c.loggerWSMw())
	mux.SetErrorHandler(c.wsErrorHandler)

	wsrouter.Handle(mux, "alive", c.handleAlive)
	wsrouter.Handle(mux, "create-room", c.handleCreateRoom)
	wsrouter.Handle(mux, "join-room", c.handleJoinRoom)
	wsrouter.Handle(mux, "host-action", c.handleHostAction)
	wsrouter.Handle(mux, "suggest-track", c.handleSuggestTrack)
	wsrouter.Handle(mux, "vote-track", c.handleVoteTrack)
	wsrouter.Handle(mux, "play-top-voted", c.handlePlayTopVoted)
	wsrouter.Handle(mux, "send-message", c.handleSendMessage)

	return mux
}
