package server

import "presidente-server/internal/presidente"

var (
	ErrRoomNotFound       = presidente.NewError("ROOM_NOT_FOUND", "Room not found")
	ErrRoomFull           = presidente.NewError("ROOM_FULL", "Room is full")
	ErrNotCreator         = presidente.NewError("NOT_CREATOR", "Only the room creator can do that")
	ErrCannotStartYet     = presidente.NewError("CANNOT_START_YET", "The game cannot be started now")
	ErrGameNotFinishedYet = presidente.NewError("GAME_NOT_FINISHED_YET", "The current game has not finished yet")
	ErrNotInRoom          = presidente.NewError("NOT_IN_ROOM", "You are not in a room")
	ErrAlreadyInRoom      = presidente.NewError("ALREADY_IN_ROOM", "You are already in another room")
	ErrGameInProgress     = presidente.NewError("GAME_IN_PROGRESS", "Cannot join a game in progress")
	ErrInvalidName        = presidente.NewError("INVALID_NAME", "Name is invalid")
	ErrRateLimited        = presidente.NewError("RATE_LIMITED", "Too many messages, slow down")
	ErrInvalidPayload     = presidente.NewError("INVALID_PAYLOAD", "Invalid payload")
)
