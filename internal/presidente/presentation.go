package presidente

import (
	"presidente-server/internal/game"
	"sort"
)

type PlayerRef struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

// PublicPlayer is what every seat may see about a player.
type PublicPlayer struct {
	Id             string   `json:"id"`
	Name           string   `json:"name"`
	Rank           Standing `json:"rank"`
	IsRoomCreator  bool     `json:"isRoomCreator"`
	HasFinished    bool     `json:"hasFinished"`
	FinishPosition int      `json:"finishPosition"`
	CardCount      int      `json:"cardCount"`
}

type Ranking struct {
	Id       string   `json:"id"`
	Name     string   `json:"name"`
	Rank     Standing `json:"rank"`
	Position int      `json:"position"`
}

type ExchangeView struct {
	FromPlayer PlayerRef `json:"fromPlayer"`
	ToPlayer   PlayerRef `json:"toPlayer"`
	CardCount  int       `json:"cardCount"`
}

// ClientState is the private view of the table for one player.
type ClientState struct {
	YourPlayerId  string         `json:"yourPlayerId"`
	YourCards     []game.Card    `json:"yourCards"`
	GameNumber    int            `json:"gameNumber"`
	IsFirstGame   bool           `json:"isFirstGame"`
	Phase         Phase          `json:"phase"`
	CurrentPlayer *PlayerRef     `json:"currentPlayer"`
	LastPlay      *Play          `json:"lastPlay"`
	Players       []PublicPlayer `json:"players"`
}

func RefOf(p *Player) *PlayerRef {
	if p == nil {
		return nil
	}
	return &PlayerRef{Id: p.Id, Name: p.Name}
}

func GetPublicPlayer(p *Player) PublicPlayer {
	return PublicPlayer{
		Id:             p.Id,
		Name:           p.Name,
		Rank:           p.Standing,
		IsRoomCreator:  p.IsRoomCreator,
		HasFinished:    p.HasFinished,
		FinishPosition: p.FinishPosition,
		CardCount:      len(p.Hand),
	}
}

func (s *GameState) PublicPlayers() []PublicPlayer {
	players := make([]PublicPlayer, 0, len(s.Players))
	for _, p := range s.Players {
		players = append(players, GetPublicPlayer(p))
	}
	return players
}

func (s *GameState) GetClientState(playerId string) *ClientState {
	state := &ClientState{
		YourPlayerId:  playerId,
		YourCards:     []game.Card{},
		GameNumber:    s.GameNumber,
		IsFirstGame:   s.IsFirstGame,
		Phase:         s.Phase,
		CurrentPlayer: RefOf(s.CurrentPlayer()),
		LastPlay:      s.LastPlay,
		Players:       s.PublicPlayers(),
	}

	if p := s.PlayerById(playerId); p != nil {
		state.YourCards = append(state.YourCards, p.Hand...)
	}

	return state
}

// Rankings lists players by finishing position; unfinished players go last.
func (s *GameState) Rankings() []Ranking {
	rankings := make([]Ranking, 0, len(s.Players))
	for _, p := range s.Players {
		rankings = append(rankings, Ranking{
			Id:       p.Id,
			Name:     p.Name,
			Rank:     p.Standing,
			Position: p.FinishPosition,
		})
	}

	sort.SliceStable(rankings, func(i, j int) bool {
		a, b := rankings[i].Position, rankings[j].Position
		if a == 0 || b == 0 {
			return b == 0 && a != 0
		}
		return a < b
	})

	return rankings
}

func ExchangeViews(exchanges []Exchange) []ExchangeView {
	views := make([]ExchangeView, 0, len(exchanges))
	for _, e := range exchanges {
		views = append(views, ExchangeView{
			FromPlayer: *RefOf(e.From),
			ToPlayer:   *RefOf(e.To),
			CardCount:  len(e.Cards),
		})
	}
	return views
}
