package game

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/google/uuid"
)

type Suit int

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
)

var suits = []Suit{Hearts, Diamonds, Clubs, Spades}

var suitString = map[Suit]string{
	Hearts:   "Hearts",
	Diamonds: "Diamonds",
	Clubs:    "Clubs",
	Spades:   "Spades",
}

func (s Suit) String() string {
	return suitString[s]
}

func (s Suit) MarshalText() ([]byte, error) {
	name, ok := suitString[s]
	if !ok {
		return nil, fmt.Errorf("unknown suit %d", int(s))
	}
	return []byte(name), nil
}

func (s *Suit) UnmarshalText(text []byte) error {
	for suit, name := range suitString {
		if name == string(text) {
			*s = suit
			return nil
		}
	}
	return fmt.Errorf("unknown suit %q", string(text))
}

// Rank orders Ace low through King high.
type Rank int

const (
	Ace Rank = iota + 1
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

var rankString = map[Rank]string{
	Ace:   "Ace",
	Two:   "Two",
	Three: "Three",
	Four:  "Four",
	Five:  "Five",
	Six:   "Six",
	Seven: "Seven",
	Eight: "Eight",
	Nine:  "Nine",
	Ten:   "Ten",
	Jack:  "Jack",
	Queen: "Queen",
	King:  "King",
}

func (r Rank) String() string {
	return rankString[r]
}

func (r Rank) MarshalText() ([]byte, error) {
	name, ok := rankString[r]
	if !ok {
		return nil, fmt.Errorf("unknown rank %d", int(r))
	}
	return []byte(name), nil
}

func (r *Rank) UnmarshalText(text []byte) error {
	for rank, name := range rankString {
		if name == string(text) {
			*r = rank
			return nil
		}
	}
	return fmt.Errorf("unknown rank %q", string(text))
}

// Card is identified by Id. Multi-deck games hold several cards with the
// same rank and suit.
type Card struct {
	Id   string `json:"id"`
	Rank Rank   `json:"value"`
	Suit Suit   `json:"suit"`
}

func NewCard(rank Rank, suit Suit) Card {
	return Card{Id: uuid.NewString(), Rank: rank, Suit: suit}
}

func (card Card) String() string {
	return fmt.Sprintf("%s of %s", card.Rank.String(), card.Suit.String())
}

// BuildDeck returns numberOfDecks full 52 card decks, every card with a fresh id.
func BuildDeck(numberOfDecks int) []Card {
	deck := make([]Card, 0, numberOfDecks*52)

	for range numberOfDecks {
		for _, suit := range suits {
			for rank := Ace; rank <= King; rank++ {
				deck = append(deck, NewCard(rank, suit))
			}
		}
	}

	return deck
}

func Shuffle(deck []Card) {
	rand.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
}

// DetermineNumberOfDecks picks one deck for up to five players and two above that.
func DetermineNumberOfDecks(playerCount int) int {
	if playerCount >= 6 {
		return 2
	}
	return 1
}

// HandSize is how many cards the seat at index receives.
func HandSize(index int) int {
	if index < 3 {
		return 8
	}
	return 7
}

// Distribute fills each seat's full allotment before moving to the next seat.
// Cards left over after the last seat are not dealt, and a seat is short
// when the deck runs out.
func Distribute(deck []Card, playerCount int) [][]Card {
	hands := make([][]Card, playerCount)

	next := 0
	for seat := range playerCount {
		hands[seat] = make([]Card, 0, HandSize(seat))
		for range HandSize(seat) {
			if next >= len(deck) {
				break
			}
			hands[seat] = append(hands[seat], deck[next])
			next++
		}
	}

	return hands
}

// SortCards orders cards by rank, then suit.
func SortCards(cards []Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		if cards[i].Rank != cards[j].Rank {
			return cards[i].Rank < cards[j].Rank
		}
		return cards[i].Suit < cards[j].Suit
	})
}
