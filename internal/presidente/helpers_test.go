package presidente_test

import (
	"fmt"
	"presidente-server/internal/game"
	"presidente-server/internal/presidente"
)

func card(id string, rank game.Rank, suit game.Suit) game.Card {
	return game.Card{Id: id, Rank: rank, Suit: suit}
}

// newPlayingState seats one player per hand, named A, B, C... and starts play
// at seat 0.
func newPlayingState(hands ...[]game.Card) *presidente.GameState {
	state := presidente.NewGameState("TEST01")
	for i, hand := range hands {
		name := string(rune('A' + i))
		p := presidente.NewPlayer(fmt.Sprintf("conn-%s", name), name, i == 0)
		p.Id = name
		p.AddCards(hand...)
		p.SortHand()
		state.Players = append(state.Players, p)
	}
	state.Phase = presidente.PhasePlaying
	state.GameNumber = 1
	return state
}

func ids(cards ...game.Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.Id)
	}
	return out
}
