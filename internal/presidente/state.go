package presidente

import "sort"

type Phase string

const (
	PhaseWaitingForPlayers Phase = "WaitingForPlayers"
	PhaseCardExchange      Phase = "CardExchange"
	PhasePlaying           Phase = "Playing"
	PhaseGameFinished      Phase = "GameFinished"
)

const (
	MinPlayers = 2
	MaxPlayers = 8
)

// GameState is the per-room state machine. It is not safe for concurrent
// use; the owning room serializes access.
type GameState struct {
	RoomId             string    `json:"roomId"`
	Phase              Phase     `json:"phase"`
	Players            []*Player `json:"players"`
	CurrentPlayerIndex int       `json:"currentPlayerIndex"`
	LastPlay           *Play     `json:"lastPlay"`
	CurrentRoundPlays  []Play    `json:"currentRoundPlays"`
	ConsecutivePasses  int       `json:"consecutivePasses"`
	IsFirstGame        bool      `json:"isFirstGame"`
	NumberOfDecks      int       `json:"numberOfDecks"`
	GameNumber         int       `json:"gameNumber"`
	RoundWinnerId      string    `json:"roundWinnerId,omitempty"`
}

func NewGameState(roomId string) *GameState {
	return &GameState{
		RoomId:            roomId,
		Phase:             PhaseWaitingForPlayers,
		Players:           make([]*Player, 0),
		CurrentRoundPlays: make([]Play, 0),
		IsFirstGame:       true,
		NumberOfDecks:     1,
	}
}

// ActivePlayers are the players still holding cards this game, in seat order.
func (s *GameState) ActivePlayers() []*Player {
	active := make([]*Player, 0, len(s.Players))
	for _, p := range s.Players {
		if !p.HasFinished {
			active = append(active, p)
		}
	}
	return active
}

func (s *GameState) FinishedCount() int {
	return len(s.Players) - len(s.ActivePlayers())
}

// CurrentPlayer resolves CurrentPlayerIndex against the active players.
func (s *GameState) CurrentPlayer() *Player {
	active := s.ActivePlayers()
	if len(active) == 0 {
		return nil
	}
	return active[s.CurrentPlayerIndex%len(active)]
}

func (s *GameState) PlayerById(id string) *Player {
	for _, p := range s.Players {
		if p.Id == id {
			return p
		}
	}
	return nil
}

func (s *GameState) PlayerByConnection(connectionId string) *Player {
	for _, p := range s.Players {
		if p.ConnectionId == connectionId {
			return p
		}
	}
	return nil
}

func (s *GameState) PlayerWithStanding(standing Standing) *Player {
	for _, p := range s.Players {
		if p.Standing == standing {
			return p
		}
	}
	return nil
}

// NextPlayer moves the turn to the next active player. With one or no active
// players it does nothing.
func (s *GameState) NextPlayer() {
	s.advanceFrom(s.CurrentPlayer())
}

// advanceFrom gives the turn to the first active player seated after actor.
// actor may have just gone out, in which case it is no longer in the active
// subset and the index alone would skip a seat.
func (s *GameState) advanceFrom(actor *Player) {
	if actor == nil || len(s.ActivePlayers()) <= 1 {
		return
	}

	seat := -1
	for i, p := range s.Players {
		if p == actor {
			seat = i
			break
		}
	}
	if seat < 0 {
		return
	}

	for offset := 1; offset <= len(s.Players); offset++ {
		next := s.Players[(seat+offset)%len(s.Players)]
		if !next.HasFinished {
			s.pointAt(next)
			return
		}
	}
}

// StartNewRound clears the table. A recorded round winner leads; when the
// winner has already gone out the lead passes to the next active seat.
func (s *GameState) StartNewRound() {
	s.CurrentRoundPlays = make([]Play, 0)
	s.LastPlay = nil
	s.ConsecutivePasses = 0

	if s.RoundWinnerId == "" {
		return
	}

	seat := -1
	for i, p := range s.Players {
		if p.Id == s.RoundWinnerId {
			seat = i
			break
		}
	}
	if seat < 0 {
		return
	}

	for offset := range len(s.Players) {
		leader := s.Players[(seat+offset)%len(s.Players)]
		if leader.HasFinished {
			continue
		}
		s.pointAt(leader)
		return
	}
}

// pointAt sets the turn to the given active player.
func (s *GameState) pointAt(target *Player) {
	for i, p := range s.ActivePlayers() {
		if p == target {
			s.CurrentPlayerIndex = i
			return
		}
	}
}

func (s *GameState) IsGameFinished() bool {
	return len(s.ActivePlayers()) <= 1
}

// CalculateRanks hands out standings by finishing order: first is President,
// second VicePresident, second to last SubScum (three or more finishers) and
// last Scum (two or more). Later assignments override earlier ones, so with
// two finishers the second is Scum rather than VicePresident.
func (s *GameState) CalculateRanks() {
	for _, p := range s.Players {
		p.Standing = None
	}

	finished := make([]*Player, 0, len(s.Players))
	for _, p := range s.Players {
		if p.HasFinished {
			finished = append(finished, p)
		}
	}
	sort.SliceStable(finished, func(i, j int) bool {
		return finished[i].FinishPosition < finished[j].FinishPosition
	})

	n := len(finished)
	if n >= 1 {
		finished[0].Standing = President
	}
	if n >= 2 {
		finished[1].Standing = VicePresident
	}
	if n >= 3 {
		finished[n-2].Standing = SubScum
	}
	if n >= 2 {
		finished[n-1].Standing = Scum
	}
}

// CanStart reports whether a game may be dealt now.
func (s *GameState) CanStart() bool {
	return len(s.Players) >= MinPlayers &&
		len(s.Players) <= MaxPlayers &&
		s.Phase == PhaseWaitingForPlayers
}

// RemovePlayer drops the player bound to connectionId and keeps the turn on
// the same active player when possible.
func (s *GameState) RemovePlayer(connectionId string) *Player {
	idx := -1
	for i, p := range s.Players {
		if p.ConnectionId == connectionId {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	current := s.CurrentPlayer()
	removed := s.Players[idx]
	s.Players = append(s.Players[:idx], s.Players[idx+1:]...)

	if current != nil && current != removed {
		s.pointAt(current)
	} else if active := len(s.ActivePlayers()); active > 0 {
		s.CurrentPlayerIndex %= active
	} else {
		s.CurrentPlayerIndex = 0
	}

	return removed
}
