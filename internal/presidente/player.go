package presidente

import (
	"fmt"
	"presidente-server/internal/game"
	"slices"

	"github.com/google/uuid"
)

// Standing is a player's rank carried from one game to the next.
type Standing int

const (
	None Standing = iota
	President
	VicePresident
	SubScum
	Scum
)

var standingString = map[Standing]string{
	None:          "None",
	President:     "President",
	VicePresident: "VicePresident",
	SubScum:       "SubScum",
	Scum:          "Scum",
}

func (s Standing) String() string {
	return standingString[s]
}

func (s Standing) MarshalText() ([]byte, error) {
	name, ok := standingString[s]
	if !ok {
		return nil, fmt.Errorf("unknown standing %d", int(s))
	}
	return []byte(name), nil
}

func (s *Standing) UnmarshalText(text []byte) error {
	for standing, name := range standingString {
		if name == string(text) {
			*s = standing
			return nil
		}
	}
	return fmt.Errorf("unknown standing %q", string(text))
}

type Player struct {
	Id             string      `json:"id"`
	ConnectionId   string      `json:"-"`
	Name           string      `json:"name"`
	Hand           []game.Card `json:"-"`
	Standing       Standing    `json:"rank"`
	HasFinished    bool        `json:"hasFinished"`
	FinishPosition int         `json:"finishPosition"`
	IsRoomCreator  bool        `json:"isRoomCreator"`
}

func NewPlayer(connectionId, name string, isRoomCreator bool) *Player {
	return &Player{
		Id:            uuid.NewString(),
		ConnectionId:  connectionId,
		Name:          name,
		Hand:          make([]game.Card, 0),
		IsRoomCreator: isRoomCreator,
	}
}

func (p *Player) AddCards(cards ...game.Card) {
	p.Hand = append(p.Hand, cards...)
}

// RemoveCards drops cards by id and ignores ids not in the hand.
func (p *Player) RemoveCards(cards []game.Card) {
	for _, card := range cards {
		p.Hand = slices.DeleteFunc(p.Hand, func(c game.Card) bool { return c.Id == card.Id })
	}
}

func (p *Player) ClearHand() {
	p.Hand = make([]game.Card, 0)
}

func (p *Player) SortHand() {
	game.SortCards(p.Hand)
}

// CardsById resolves ids against the hand, in hand order. Unknown and
// repeated ids are not resolved.
func (p *Player) CardsById(ids []string) []game.Card {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	cards := make([]game.Card, 0, len(ids))
	for _, card := range p.Hand {
		if wanted[card.Id] {
			cards = append(cards, card)
		}
	}
	return cards
}

// highest returns up to n cards of the highest ranks in the hand.
func (p *Player) highest(n int) []game.Card {
	sorted := slices.Clone(p.Hand)
	game.SortCards(sorted)
	n = min(n, len(sorted))
	out := slices.Clone(sorted[len(sorted)-n:])
	slices.Reverse(out)
	return out
}

// lowest returns up to n cards of the lowest ranks in the hand.
func (p *Player) lowest(n int) []game.Card {
	sorted := slices.Clone(p.Hand)
	game.SortCards(sorted)
	n = min(n, len(sorted))
	return slices.Clone(sorted[:n])
}

func (p *Player) resetForDeal() {
	p.HasFinished = false
	p.FinishPosition = 0
}
