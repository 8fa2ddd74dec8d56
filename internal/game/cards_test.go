package game_test

import (
	"fmt"
	"presidente-server/internal/game"
	"slices"
	"testing"
)

type pair struct {
	rank game.Rank
	suit game.Suit
}

func TestBuildDeck(t *testing.T) {
	for _, decks := range []int{1, 2, 3} {
		t.Run(fmt.Sprintf("%d decks", decks), func(t *testing.T) {
			deck := game.BuildDeck(decks)

			if len(deck) != 52*decks {
				t.Fatalf("Deck should be %d cards, %d given.", 52*decks, len(deck))
			}

			ids := make(map[string]bool)
			pairs := make(map[pair]int)
			for _, card := range deck {
				if card.Id == "" {
					t.Fatal("Card without an id")
				}
				if ids[card.Id] {
					t.Fatalf("Duplicate card id %s", card.Id)
				}
				ids[card.Id] = true
				pairs[pair{card.Rank, card.Suit}]++
			}

			if len(pairs) != 52 {
				t.Errorf("Expected 52 distinct rank/suit pairs, got %d", len(pairs))
			}
			for p, count := range pairs {
				if count != decks {
					t.Errorf("%s of %s appears %d times, %d expected", p.rank, p.suit, count, decks)
				}
			}
		})
	}
}

func TestShuffle(t *testing.T) {
	deckA := game.BuildDeck(1)
	deckB := slices.Clone(deckA)

	game.Shuffle(deckB)

	if slices.Equal(deckA, deckB) {
		t.Error("Shuffling didn't work")
	}

	idsA := make([]string, 0, len(deckA))
	idsB := make([]string, 0, len(deckB))
	for i := range deckA {
		idsA = append(idsA, deckA[i].Id)
		idsB = append(idsB, deckB[i].Id)
	}
	slices.Sort(idsA)
	slices.Sort(idsB)

	if !slices.Equal(idsA, idsB) {
		t.Error("Shuffled deck is not a permutation of the original")
	}
}

func TestDetermineNumberOfDecks(t *testing.T) {
	for players := 2; players <= 8; players++ {
		want := 1
		if players >= 6 {
			want = 2
		}
		if got := game.DetermineNumberOfDecks(players); got != want {
			t.Errorf("%d players: %d decks, %d expected", players, got, want)
		}
	}
}

func TestDistribute(t *testing.T) {
	for players := 2; players <= 8; players++ {
		t.Run(fmt.Sprintf("%d players", players), func(t *testing.T) {
			deck := game.BuildDeck(game.DetermineNumberOfDecks(players))
			game.Shuffle(deck)

			hands := game.Distribute(deck, players)

			if len(hands) != players {
				t.Fatalf("Expected %d hands, got %d", players, len(hands))
			}

			seen := make(map[string]bool)
			total := 0
			for seat, hand := range hands {
				want := 7
				if seat < 3 {
					want = 8
				}
				if len(hand) != want {
					t.Errorf("Seat %d has %d cards, %d expected", seat, len(hand), want)
				}
				for _, card := range hand {
					if seen[card.Id] {
						t.Errorf("Card %s dealt twice", card.Id)
					}
					seen[card.Id] = true
				}
				total += len(hand)
			}

			if total > len(deck) {
				t.Errorf("Dealt %d cards from a %d card deck", total, len(deck))
			}
		})
	}
}

func TestDistributeFillsSeatsInOrder(t *testing.T) {
	deck := game.BuildDeck(1)

	hands := game.Distribute(deck, 2)

	if !slices.Equal(hands[0], deck[:8]) {
		t.Error("First seat should receive the first eight cards")
	}
	if !slices.Equal(hands[1], deck[8:16]) {
		t.Error("Second seat should receive the next eight cards")
	}
}

func TestDistributeShortDeck(t *testing.T) {
	deck := game.BuildDeck(1)[:20]

	hands := game.Distribute(deck, 4)

	sizes := []int{len(hands[0]), len(hands[1]), len(hands[2]), len(hands[3])}
	if !slices.Equal(sizes, []int{8, 8, 4, 0}) {
		t.Errorf("Expected truncated hands [8 8 4 0], got %v", sizes)
	}
}

func TestSortCards(t *testing.T) {
	cards := []game.Card{
		{Id: "a", Rank: game.King, Suit: game.Hearts},
		{Id: "b", Rank: game.Ace, Suit: game.Spades},
		{Id: "c", Rank: game.Ace, Suit: game.Hearts},
		{Id: "d", Rank: game.Seven, Suit: game.Clubs},
	}

	game.SortCards(cards)

	var order []string
	for _, card := range cards {
		order = append(order, card.Id)
	}
	if !slices.Equal(order, []string{"c", "b", "d", "a"}) {
		t.Errorf("Unexpected order %v", order)
	}
}

func TestCardJSONNames(t *testing.T) {
	card := game.Card{Id: "x", Rank: game.Queen, Suit: game.Diamonds}

	rank, err := card.Rank.MarshalText()
	if err != nil || string(rank) != "Queen" {
		t.Errorf("Rank marshalled to %q (%v)", rank, err)
	}

	var suit game.Suit
	if err := suit.UnmarshalText([]byte("Spades")); err != nil || suit != game.Spades {
		t.Errorf("Suit unmarshalled to %v (%v)", suit, err)
	}

	if card.String() != "Queen of Diamonds" {
		t.Errorf("Unexpected card string %q", card.String())
	}
}
