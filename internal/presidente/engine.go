package presidente

import "presidente-server/internal/game"

// Exchange records cards moved from one player to another before a game.
type Exchange struct {
	From  *Player
	To    *Player
	Cards []game.Card
}

// PlayOutcome tells the caller which transitions a play triggered.
type PlayOutcome struct {
	Play           Play
	PlayerFinished bool
	RoundEnded     bool
	GameFinished   bool
}

// PassOutcome tells the caller whether a pass closed the round.
type PassOutcome struct {
	RoundEnded bool
	WinnerId   string
}

// StartGame deals a new game to the seated players. When the room has
// finished a game before, standings trade cards first; the trades are
// returned.
func (s *GameState) StartGame() []Exchange {
	s.NumberOfDecks = game.DetermineNumberOfDecks(len(s.Players))

	deck := game.BuildDeck(s.NumberOfDecks)
	game.Shuffle(deck)
	hands := game.Distribute(deck, len(s.Players))

	for i, p := range s.Players {
		p.ClearHand()
		p.AddCards(hands[i]...)
		p.SortHand()
		p.resetForDeal()
	}

	var exchanges []Exchange
	if !s.IsFirstGame {
		s.Phase = PhaseCardExchange
		exchanges = s.PerformCardExchange()
	}

	s.CurrentPlayerIndex = 0
	s.RoundWinnerId = ""
	s.Phase = PhasePlaying
	s.GameNumber++
	s.StartNewRound()

	return exchanges
}

// PerformCardExchange makes the Scum hand their two highest cards to the
// President for the President's two lowest, and the SubScum their highest to
// the VicePresident for the VicePresident's lowest. Each trade is skipped
// when either side is vacant.
func (s *GameState) PerformCardExchange() []Exchange {
	exchanges := make([]Exchange, 0, 4)

	trade := func(low, high *Player, count int) {
		if low == nil || high == nil || low == high {
			return
		}
		up := low.highest(count)
		down := high.lowest(count)
		if len(up) == 0 || len(down) == 0 {
			return
		}

		low.RemoveCards(up)
		high.AddCards(up...)
		high.RemoveCards(down)
		low.AddCards(down...)

		low.SortHand()
		high.SortHand()

		exchanges = append(exchanges,
			Exchange{From: low, To: high, Cards: up},
			Exchange{From: high, To: low, Cards: down},
		)
	}

	trade(s.PlayerWithStanding(Scum), s.PlayerWithStanding(President), 2)
	trade(s.PlayerWithStanding(SubScum), s.PlayerWithStanding(VicePresident), 1)

	return exchanges
}

// ValidatePlay checks a play without changing any state.
func (s *GameState) ValidatePlay(player *Player, cardIds []string) error {
	if s.Phase != PhasePlaying {
		return ErrNotPlaying
	}

	current := s.CurrentPlayer()
	if current == nil || current.Id != player.Id {
		return ErrNotYourTurn
	}

	cards := player.CardsById(cardIds)
	if len(cards) != len(cardIds) {
		return ErrCardsNotOwned
	}

	if len(cards) == 0 || len(cards) > 4 {
		return ErrInvalidCount
	}

	play := NewPlay(player, cards)
	if !play.IsValid() {
		return ErrMixedRanks
	}

	if s.LastPlay == nil {
		return nil
	}

	if play.Type != s.LastPlay.Type {
		return ErrWrongPlayType
	}

	if !play.IsHigherThan(s.LastPlay) {
		return ErrTooLow
	}

	return nil
}

// ExecutePlay applies a play that passed ValidatePlay.
func (s *GameState) ExecutePlay(player *Player, cardIds []string) PlayOutcome {
	cards := player.CardsById(cardIds)
	play := NewPlay(player, cards)

	player.RemoveCards(cards)

	s.LastPlay = &play
	s.CurrentRoundPlays = append(s.CurrentRoundPlays, play)
	s.ConsecutivePasses = 0

	outcome := PlayOutcome{Play: play}

	if len(player.Hand) == 0 {
		player.HasFinished = true
		player.FinishPosition = s.FinishedCount()
		outcome.PlayerFinished = true
	}

	// A King closes the round on the spot.
	if play.Rank == game.King {
		s.RoundWinnerId = player.Id
		s.StartNewRound()
		outcome.RoundEnded = true
		if s.IsGameFinished() {
			s.finishGame()
			outcome.GameFinished = true
		}
		return outcome
	}

	if s.IsGameFinished() {
		s.finishGame()
		outcome.GameFinished = true
		return outcome
	}

	s.advanceFrom(player)
	return outcome
}

// ValidatePass checks that player may pass now.
func (s *GameState) ValidatePass(player *Player) error {
	if s.Phase != PhasePlaying {
		return ErrNotPlaying
	}

	current := s.CurrentPlayer()
	if current == nil || current.Id != player.Id {
		return ErrNotYourTurn
	}

	if s.LastPlay == nil {
		return ErrCannotPassOpening
	}

	return nil
}

// ExecutePass records a pass by the current player. Once every active player
// but one has passed in a row, the author of the last play wins the round.
func (s *GameState) ExecutePass() PassOutcome {
	s.ConsecutivePasses++

	if s.ConsecutivePasses >= len(s.ActivePlayers())-1 {
		if s.LastPlay != nil {
			s.RoundWinnerId = s.LastPlay.PlayerId
		}
		s.StartNewRound()
		return PassOutcome{RoundEnded: true, WinnerId: s.RoundWinnerId}
	}

	s.NextPlayer()
	return PassOutcome{}
}

// FinishIfDone ends the game when at most one active player is left, as can
// happen after a player leaves mid-game. It reports whether the game ended.
func (s *GameState) FinishIfDone() bool {
	if s.Phase != PhasePlaying || !s.IsGameFinished() {
		return false
	}
	s.finishGame()
	return true
}

func (s *GameState) finishGame() {
	for _, p := range s.Players {
		if !p.HasFinished {
			p.HasFinished = true
			p.FinishPosition = s.FinishedCount()
		}
	}

	s.CalculateRanks()
	s.Phase = PhaseGameFinished
	s.IsFirstGame = false
}

// HandlePlayerJoinAfterFirstGame seats a newcomer as Scum once the room has
// completed a game. The previous Scum moves up to SubScum and the previous
// SubScum drops to None. Call it before the newcomer is added to Players.
func (s *GameState) HandlePlayerJoinAfterFirstGame(newcomer *Player) {
	if s.IsFirstGame {
		return
	}

	scum := s.PlayerWithStanding(Scum)
	subScum := s.PlayerWithStanding(SubScum)

	newcomer.Standing = Scum
	if scum != nil {
		scum.Standing = SubScum
	}
	if subScum != nil {
		subScum.Standing = None
	}
}

// PrepareNextGame returns a finished room to WaitingForPlayers. Standings
// are kept.
func (s *GameState) PrepareNextGame() {
	s.Phase = PhaseWaitingForPlayers
	s.LastPlay = nil
	s.CurrentRoundPlays = make([]Play, 0)
	s.ConsecutivePasses = 0
	s.RoundWinnerId = ""

	for _, p := range s.Players {
		p.resetForDeal()
	}
}
