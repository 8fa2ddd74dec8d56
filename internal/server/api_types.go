package server

import (
	"presidente-server/internal/game"
	"presidente-server/internal/presidente"
)

// ============================================================================
// RESULTS
// ============================================================================

// ActionResult answers every inbound action. Exactly one of Data or Code and
// Error is set.
type ActionResult struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type ErrorMessage struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ============================================================================
// CREATE ROOM (create_room)
// ============================================================================
type CreateRoomRequest struct {
	RoomName string `json:"roomName"`
}

type CreateRoomResponse struct {
	RoomId   string `json:"roomId"`
	RoomName string `json:"roomName"`
}

// ============================================================================
// JOIN ROOM (join_room)
// ============================================================================
type JoinRoomRequest struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type JoinRoomResponse struct {
	RoomId   string `json:"roomId"`
	RoomName string `json:"roomName"`
	PlayerId string `json:"playerId"`
}

// ============================================================================
// START GAME (start_game, start_next_game)
// ============================================================================
type StartGameResponse struct {
	GameNumber int `json:"gameNumber"`
}

// ============================================================================
// PLAY CARDS (play_cards)
// ============================================================================
type PlayCardsRequest struct {
	CardIds []string `json:"cardIds"`
}

type PlayCardsResponse struct {
	RemainingCards int `json:"remainingCards"`
}

// ============================================================================
// PASS (pass)
// ============================================================================
type PassResponse struct {
	RoundEnded bool `json:"roundEnded"`
}

// ============================================================================
// EVENTS
// ============================================================================
type PlayerJoinedEvent struct {
	Player       presidente.PublicPlayer `json:"player"`
	TotalPlayers int                     `json:"totalPlayers"`
}

type PlayerLeftEvent struct {
	PlayerId         string                `json:"playerId"`
	PlayerName       string                `json:"playerName"`
	RemainingPlayers int                   `json:"remainingPlayers"`
	NewCreatorId     string                `json:"newCreatorId,omitempty"`
	CurrentPlayer    *presidente.PlayerRef `json:"currentPlayer,omitempty"`
}

// RoomStateEvent is the full room snapshot sent to a joining connection.
type RoomStateEvent struct {
	RoomId     string                    `json:"roomId"`
	RoomName   string                    `json:"roomName"`
	Players    []presidente.PublicPlayer `json:"players"`
	Phase      presidente.Phase          `json:"phase"`
	CanStart   bool                      `json:"canStart"`
	IsCreator  bool                      `json:"isCreator"`
	GameNumber int                       `json:"gameNumber"`
}

type RoomClosedEvent struct {
	RoomId string `json:"roomId"`
	Reason string `json:"reason"`
}

type CardExchangeStartedEvent struct {
	Exchanges []presidente.ExchangeView `json:"exchanges"`
}

type CardExchangeCompletedEvent struct {
	GameNumber int `json:"gameNumber"`
}

type PlayerPlayedEvent struct {
	PlayerId        string                `json:"playerId"`
	PlayerName      string                `json:"playerName"`
	Cards           []game.Card           `json:"cards"`
	PlayType        presidente.PlayType   `json:"playType"`
	PlayerCardCount int                   `json:"playerCardCount"`
	CurrentPlayer   *presidente.PlayerRef `json:"currentPlayer"`
	Phase           presidente.Phase      `json:"phase"`
}

type PlayerPassedEvent struct {
	PlayerId      string                `json:"playerId"`
	PlayerName    string                `json:"playerName"`
	CurrentPlayer *presidente.PlayerRef `json:"currentPlayer"`
}

type NewRoundEvent struct {
	WinnerId      string                `json:"winnerId"`
	CurrentPlayer *presidente.PlayerRef `json:"currentPlayer"`
}

type PlayerFinishedEvent struct {
	PlayerId   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Position   int    `json:"position"`
}

type GameFinishedEvent struct {
	GameNumber int                  `json:"gameNumber"`
	Rankings   []presidente.Ranking `json:"rankings"`
}
