package presidente

import (
	"presidente-server/internal/game"
	"time"
)

// PlayType is the number of cards in a play.
type PlayType int

const (
	Single PlayType = iota + 1
	Double
	Triple
	Quadruple
)

var playTypeString = map[PlayType]string{
	Single:    "Single",
	Double:    "Double",
	Triple:    "Triple",
	Quadruple: "Quadruple",
}

func (t PlayType) String() string {
	return playTypeString[t]
}

func (t PlayType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Play is one to four same-rank cards put down together.
type Play struct {
	PlayerId   string      `json:"playerId"`
	PlayerName string      `json:"playerName"`
	Cards      []game.Card `json:"cards"`
	Type       PlayType    `json:"playType"`
	Rank       game.Rank   `json:"value"`
	Timestamp  time.Time   `json:"timestamp"`
}

// NewPlay expects at least one card; the rank is taken from the first.
func NewPlay(player *Player, cards []game.Card) Play {
	return Play{
		PlayerId:   player.Id,
		PlayerName: player.Name,
		Cards:      cards,
		Type:       PlayType(len(cards)),
		Rank:       cards[0].Rank,
		Timestamp:  time.Now().UTC(),
	}
}

func (p Play) IsValid() bool {
	if len(p.Cards) == 0 || len(p.Cards) > 4 {
		return false
	}
	for _, card := range p.Cards {
		if card.Rank != p.Rank {
			return false
		}
	}
	return true
}

// IsHigherThan compares by rank within the same play type. Suits never matter.
func (p Play) IsHigherThan(other *Play) bool {
	if other == nil {
		return true
	}
	if p.Type != other.Type {
		return false
	}
	return p.Rank > other.Rank
}
