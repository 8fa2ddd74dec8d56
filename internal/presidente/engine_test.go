package presidente_test

import (
	"presidente-server/internal/game"
	"presidente-server/internal/presidente"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePlay(t *testing.T) {
	sevenH := card("7h", game.Seven, game.Hearts)
	sevenC := card("7c", game.Seven, game.Clubs)
	eightH := card("8h", game.Eight, game.Hearts)
	eightC := card("8c", game.Eight, game.Clubs)
	sixH := card("6h", game.Six, game.Hearts)
	sixC := card("6c", game.Six, game.Clubs)
	kingS := card("ks", game.King, game.Spades)
	fives := []game.Card{
		card("5a", game.Five, game.Hearts),
		card("5b", game.Five, game.Clubs),
		card("5c", game.Five, game.Spades),
		card("5d", game.Five, game.Diamonds),
		card("5e", game.Five, game.Hearts),
	}

	hand := append([]game.Card{sevenH, sevenC, eightH, eightC, sixH, sixC, kingS}, fives...)

	tests := []struct {
		name     string
		seat     int
		cardIds  []string
		lastPlay []game.Card
		want     error
	}{
		{"opening single", 0, ids(kingS), nil, nil},
		{"opening double", 0, ids(sevenH, sevenC), nil, nil},
		{"not your turn", 1, ids(card("x", game.Two, game.Hearts)), nil, presidente.ErrNotYourTurn},
		{"unknown card", 0, []string{"nope"}, nil, presidente.ErrCardsNotOwned},
		{"repeated card", 0, []string{"7h", "7h"}, nil, presidente.ErrCardsNotOwned},
		{"no cards", 0, []string{}, nil, presidente.ErrInvalidCount},
		{"five cards", 0, ids(fives...), nil, presidente.ErrInvalidCount},
		{"mixed ranks", 0, ids(sevenH, eightH), nil, presidente.ErrMixedRanks},
		{"double eight over double seven", 0, ids(eightH, eightC), []game.Card{sevenH, sevenC}, nil},
		{"double six under double seven", 0, ids(sixH, sixC), []game.Card{sevenH, sevenC}, presidente.ErrTooLow},
		{"single king over double seven", 0, ids(kingS), []game.Card{sevenH, sevenC}, presidente.ErrWrongPlayType},
		{"equal rank", 0, ids(sevenH, sevenC), []game.Card{card("7s", game.Seven, game.Spades), card("7d", game.Seven, game.Diamonds)}, presidente.ErrTooLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)

			state := newPlayingState(hand, []game.Card{card("x", game.Two, game.Hearts)})
			if tt.lastPlay != nil {
				play := presidente.NewPlay(state.Players[1], tt.lastPlay)
				state.LastPlay = &play
			}

			err := state.ValidatePlay(state.Players[tt.seat], tt.cardIds)
			if tt.want == nil {
				assert.NoError(err)
			} else {
				assert.ErrorIs(err, tt.want)
			}
		})
	}
}

func TestValidatePlayOutsidePlayingPhase(t *testing.T) {
	state := newPlayingState(
		[]game.Card{card("a", game.Two, game.Hearts)},
		[]game.Card{card("b", game.Three, game.Hearts)},
	)
	state.Phase = presidente.PhaseGameFinished

	assert.ErrorIs(t, state.ValidatePlay(state.Players[0], []string{"a"}), presidente.ErrNotPlaying)
}

func TestExecutePlayAdvancesTurn(t *testing.T) {
	assert := assert.New(t)

	state := newPlayingState(
		[]game.Card{card("a1", game.Four, game.Hearts), card("a2", game.Nine, game.Clubs)},
		[]game.Card{card("b1", game.Five, game.Hearts), card("b2", game.Ten, game.Clubs)},
		[]game.Card{card("c1", game.Six, game.Hearts), card("c2", game.Jack, game.Clubs)},
	)
	a := state.Players[0]

	outcome := state.ExecutePlay(a, []string{"a1"})

	assert.False(outcome.PlayerFinished)
	assert.False(outcome.RoundEnded)
	assert.Len(a.Hand, 1)
	assert.Equal("a1", state.LastPlay.Cards[0].Id)
	assert.Len(state.CurrentRoundPlays, 1)
	assert.Equal("B", state.CurrentPlayer().Id)
}

func TestKingEndsRound(t *testing.T) {
	assert := assert.New(t)

	state := newPlayingState(
		[]game.Card{card("ak", game.King, game.Hearts), card("a2", game.Two, game.Clubs)},
		[]game.Card{card("b1", game.Five, game.Hearts)},
		[]game.Card{card("c1", game.Six, game.Hearts)},
		[]game.Card{card("d1", game.Seven, game.Hearts)},
	)

	outcome := state.ExecutePlay(state.Players[0], []string{"ak"})

	assert.True(outcome.RoundEnded)
	assert.False(outcome.GameFinished)
	assert.Nil(state.LastPlay)
	assert.Empty(state.CurrentRoundPlays)
	assert.Equal(0, state.ConsecutivePasses)
	assert.Equal("A", state.RoundWinnerId)
	assert.Equal("A", state.CurrentPlayer().Id)
}

func TestPassesEndRound(t *testing.T) {
	assert := assert.New(t)

	state := newPlayingState(
		[]game.Card{card("a1", game.Five, game.Hearts), card("a2", game.Nine, game.Clubs)},
		[]game.Card{card("b1", game.Two, game.Hearts)},
		[]game.Card{card("c1", game.Two, game.Clubs)},
		[]game.Card{card("d1", game.Two, game.Spades)},
	)

	state.ExecutePlay(state.Players[0], []string{"a1"})

	for _, id := range []string{"B", "C"} {
		assert.Equal(id, state.CurrentPlayer().Id)
		assert.NoError(state.ValidatePass(state.CurrentPlayer()))
		outcome := state.ExecutePass()
		assert.False(outcome.RoundEnded)
	}

	assert.Equal("D", state.CurrentPlayer().Id)
	outcome := state.ExecutePass()

	assert.True(outcome.RoundEnded)
	assert.Equal("A", outcome.WinnerId)
	assert.Nil(state.LastPlay)
	assert.Equal("A", state.CurrentPlayer().Id)
}

func TestCannotPassOpening(t *testing.T) {
	state := newPlayingState(
		[]game.Card{card("a1", game.Five, game.Hearts)},
		[]game.Card{card("b1", game.Two, game.Hearts)},
	)

	assert.ErrorIs(t, state.ValidatePass(state.Players[0]), presidente.ErrCannotPassOpening)
	assert.ErrorIs(t, state.ValidatePass(state.Players[1]), presidente.ErrNotYourTurn)
}

func TestFinishOrderAndStandings(t *testing.T) {
	assert := assert.New(t)

	state := newPlayingState(
		[]game.Card{card("a1", game.Three, game.Hearts)},
		[]game.Card{card("b1", game.Four, game.Hearts), card("b2", game.Nine, game.Clubs)},
		[]game.Card{card("c1", game.Five, game.Hearts), card("c2", game.Ten, game.Clubs)},
	)
	a, b, c := state.Players[0], state.Players[1], state.Players[2]

	outcome := state.ExecutePlay(a, []string{"a1"})
	assert.True(outcome.PlayerFinished)
	assert.Equal(1, a.FinishPosition)
	assert.Equal("B", state.CurrentPlayer().Id)

	state.ExecutePlay(b, []string{"b1"})
	assert.Equal("C", state.CurrentPlayer().Id)

	state.ExecutePlay(c, []string{"c1"})
	assert.Equal("B", state.CurrentPlayer().Id, "finished seats are skipped")

	pass := state.ExecutePass()
	assert.True(pass.RoundEnded)
	assert.Equal("C", state.CurrentPlayer().Id)

	outcome = state.ExecutePlay(c, []string{"c2"})
	assert.True(outcome.PlayerFinished)
	assert.True(outcome.GameFinished)

	assert.Equal(presidente.PhaseGameFinished, state.Phase)
	assert.False(state.IsFirstGame)
	assert.Equal(2, c.FinishPosition)
	assert.Equal(3, b.FinishPosition)
	assert.True(b.HasFinished)

	assert.Equal(presidente.President, a.Standing)
	assert.Equal(presidente.SubScum, c.Standing)
	assert.Equal(presidente.Scum, b.Standing)
}

func TestKingOnLastCardCanFinishGame(t *testing.T) {
	assert := assert.New(t)

	state := newPlayingState(
		[]game.Card{card("ak", game.King, game.Hearts)},
		[]game.Card{card("b1", game.Two, game.Hearts), card("b2", game.Three, game.Hearts)},
	)

	outcome := state.ExecutePlay(state.Players[0], []string{"ak"})

	assert.True(outcome.RoundEnded)
	assert.True(outcome.GameFinished)
	assert.Equal(presidente.PhaseGameFinished, state.Phase)
	assert.Equal(presidente.President, state.Players[0].Standing)
	assert.Equal(presidente.Scum, state.Players[1].Standing)
	assert.Equal(2, state.Players[1].FinishPosition)
}

func TestPerformCardExchange(t *testing.T) {
	assert := assert.New(t)

	state := newPlayingState(
		[]game.Card{card("p2", game.Two, game.Hearts), card("p3", game.Three, game.Hearts), card("pq", game.Queen, game.Hearts)},
		[]game.Card{card("v4", game.Four, game.Clubs), card("vj", game.Jack, game.Clubs)},
		[]game.Card{card("s5", game.Five, game.Spades), card("sk", game.King, game.Spades)},
		[]game.Card{card("c6", game.Six, game.Diamonds), card("ck", game.King, game.Diamonds), card("cq", game.Queen, game.Diamonds)},
	)
	president, vice, subScum, scum := state.Players[0], state.Players[1], state.Players[2], state.Players[3]
	president.Standing = presidente.President
	vice.Standing = presidente.VicePresident
	subScum.Standing = presidente.SubScum
	scum.Standing = presidente.Scum

	exchanges := state.PerformCardExchange()

	assert.Len(exchanges, 4)
	assert.ElementsMatch([]string{"cq", "ck", "pq"}, ids(president.Hand...))
	assert.ElementsMatch([]string{"c6", "p2", "p3"}, ids(scum.Hand...))
	assert.ElementsMatch([]string{"sk", "vj"}, ids(vice.Hand...))
	assert.ElementsMatch([]string{"s5", "v4"}, ids(subScum.Hand...))

	assert.Same(scum, exchanges[0].From)
	assert.Same(president, exchanges[0].To)
	assert.Len(exchanges[0].Cards, 2)
	assert.Same(president, exchanges[1].From)
	assert.Same(scum, exchanges[1].To)
	assert.Same(subScum, exchanges[2].From)
	assert.Same(vice, exchanges[2].To)
	assert.Len(exchanges[2].Cards, 1)

	views := presidente.ExchangeViews(exchanges)
	assert.Equal("D", views[0].FromPlayer.Id)
	assert.Equal("A", views[0].ToPlayer.Id)
	assert.Equal(2, views[0].CardCount)
}

func TestPerformCardExchangeSkipsVacantStandings(t *testing.T) {
	assert := assert.New(t)

	state := newPlayingState(
		[]game.Card{card("p2", game.Two, game.Hearts), card("p3", game.Three, game.Hearts)},
		[]game.Card{card("sq", game.Queen, game.Spades), card("sk", game.King, game.Spades)},
	)
	state.Players[0].Standing = presidente.President
	state.Players[1].Standing = presidente.Scum

	exchanges := state.PerformCardExchange()

	assert.Len(exchanges, 2)
	assert.ElementsMatch([]string{"sq", "sk"}, ids(state.Players[0].Hand...))
	assert.ElementsMatch([]string{"p2", "p3"}, ids(state.Players[1].Hand...))
}

func TestStartGame(t *testing.T) {
	assert := assert.New(t)

	state := newPlayingState(nil, nil, nil, nil)
	state.Phase = presidente.PhaseWaitingForPlayers
	state.GameNumber = 0

	exchanges := state.StartGame()

	assert.Empty(exchanges)
	assert.Equal(presidente.PhasePlaying, state.Phase)
	assert.Equal(1, state.GameNumber)
	assert.Equal(1, state.NumberOfDecks)
	assert.Equal("A", state.CurrentPlayer().Id)
	assert.Nil(state.LastPlay)
	for i, want := range []int{8, 8, 8, 7} {
		assert.Len(state.Players[i].Hand, want)
	}
}

func TestStartGameExchangesAfterFirstGame(t *testing.T) {
	assert := assert.New(t)

	state := newPlayingState(nil, nil, nil, nil, nil, nil)
	state.Phase = presidente.PhaseWaitingForPlayers
	state.IsFirstGame = false
	state.Players[0].Standing = presidente.President
	state.Players[1].Standing = presidente.VicePresident
	state.Players[4].Standing = presidente.SubScum
	state.Players[5].Standing = presidente.Scum

	exchanges := state.StartGame()

	assert.Len(exchanges, 4)
	assert.Equal(2, state.NumberOfDecks)
	assert.Equal(presidente.PhasePlaying, state.Phase)
	for i, want := range []int{8, 8, 8, 7, 7, 7} {
		assert.Len(state.Players[i].Hand, want, "exchanges keep hand sizes")
	}
}

func TestHandlePlayerJoinAfterFirstGame(t *testing.T) {
	assert := assert.New(t)

	state := newPlayingState(nil, nil, nil, nil)
	state.Phase = presidente.PhaseWaitingForPlayers
	state.IsFirstGame = false
	state.Players[0].Standing = presidente.President
	state.Players[1].Standing = presidente.VicePresident
	state.Players[2].Standing = presidente.SubScum
	state.Players[3].Standing = presidente.Scum

	newcomer := presidente.NewPlayer("conn-E", "E", false)
	state.HandlePlayerJoinAfterFirstGame(newcomer)

	assert.Equal(presidente.Scum, newcomer.Standing)
	assert.Equal(presidente.SubScum, state.Players[3].Standing)
	assert.Equal(presidente.None, state.Players[2].Standing)
	assert.Equal(presidente.President, state.Players[0].Standing)
}

func TestHandlePlayerJoinBeforeFirstGameFinishes(t *testing.T) {
	state := newPlayingState(nil, nil)
	state.Phase = presidente.PhaseWaitingForPlayers

	newcomer := presidente.NewPlayer("conn-C", "C", false)
	state.HandlePlayerJoinAfterFirstGame(newcomer)

	assert.Equal(t, presidente.None, newcomer.Standing)
}

func TestPrepareNextGameKeepsStandings(t *testing.T) {
	assert := assert.New(t)

	state := newPlayingState(
		[]game.Card{card("ak", game.King, game.Hearts)},
		[]game.Card{card("b1", game.Two, game.Hearts)},
	)
	state.ExecutePlay(state.Players[0], []string{"ak"})

	state.PrepareNextGame()

	assert.Equal(presidente.PhaseWaitingForPlayers, state.Phase)
	assert.Nil(state.LastPlay)
	assert.Empty(state.RoundWinnerId)
	assert.False(state.Players[0].HasFinished)
	assert.Zero(state.Players[1].FinishPosition)
	assert.Equal(presidente.President, state.Players[0].Standing)
	assert.Equal(presidente.Scum, state.Players[1].Standing)
	assert.True(state.CanStart())
}

func TestFinishIfDoneAfterRemoval(t *testing.T) {
	assert := assert.New(t)

	state := newPlayingState(
		[]game.Card{card("a1", game.Two, game.Hearts)},
		[]game.Card{card("b1", game.Three, game.Hearts)},
	)
	assert.False(state.FinishIfDone())

	state.RemovePlayer("conn-A")

	assert.True(state.FinishIfDone())
	assert.Equal(presidente.PhaseGameFinished, state.Phase)
	assert.Equal(presidente.President, state.Players[0].Standing)
}
