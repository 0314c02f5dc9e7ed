package room

import "errors"

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomAlreadyExists  = errors.New("room already exists")
	ErrMemberNotFound     = errors.New("member not found")
	ErrVideoNotFound      = errors.New("video not found")
	ErrVideoAlreadyExists = errors.New("video already exists")
)
