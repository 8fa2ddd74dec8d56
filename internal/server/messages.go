package server

import "encoding/json"

type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type ServerMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Inbound actions.
const (
	ActionPing          = "ping"
	ActionCreateRoom    = "create_room"
	ActionJoinRoom      = "join_room"
	ActionStartGame     = "start_game"
	ActionPlayCards     = "play_cards"
	ActionPass          = "pass"
	ActionStartNextGame = "start_next_game"
)

// Outbound events.
const (
	EventPlayerJoined          = "PlayerJoined"
	EventPlayerLeft            = "PlayerLeft"
	EventRoomState             = "RoomState"
	EventRoomClosed            = "RoomClosed"
	EventGameStarted           = "GameStarted"
	EventCardExchangeStarted   = "CardExchangeStarted"
	EventCardExchangeCompleted = "CardExchangeCompleted"
	EventPlayerPlayed          = "PlayerPlayed"
	EventPlayerPassed          = "PlayerPassed"
	EventNewRound              = "NewRound"
	EventPlayerFinished        = "PlayerFinished"
	EventGameFinished          = "GameFinished"
)

func resultType(action string) string {
	return action + "_result"
}
