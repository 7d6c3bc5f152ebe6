package poker

import (
	rand "math/rand/v2"
)

// Deck represents a standard 52-card deck
type Deck struct {
	cards  [52]Card // Fixed size array
	next   int
	burned int
	rng    *rand.Rand // Random source for deterministic shuffling
}

// NewDeck creates a new shuffled deck with explicit RNG
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{
		next: 0,
		rng:  rng,
	}

	// Create all 52 cards
	i := 0
	for suit := range uint8(4) {
		for rank := range uint8(13) {
			d.cards[i] = NewCard(rank, suit)
			i++
		}
	}

	// Shuffle
	d.Shuffle()
	return d
}

// NewStackedDeck returns a deck that deals the given cards first, in order,
// followed by the rest of the 52 in canonical order. Used by tests and
// replays that need a known deal.
func NewStackedDeck(cards ...Card) *Deck {
	d := &Deck{}
	var seen Hand
	i := 0
	for _, c := range cards {
		d.cards[i] = c
		seen |= Hand(c)
		i++
	}
	for suit := range uint8(4) {
		for rank := range uint8(13) {
			c := NewCard(rank, suit)
			if !seen.HasCard(c) {
				d.cards[i] = c
				i++
			}
		}
	}
	return d
}

// Shuffle shuffles the deck using Fisher-Yates
func (d *Deck) Shuffle() {
	d.next = 0
	d.burned = 0
	for i := len(d.cards) - 1; i > 0; i-- {
		var j int
		if d.rng != nil {
			j = d.rng.IntN(i + 1)
		} else {
			j = rand.IntN(i + 1)
		}
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Deal deals n cards from the deck
func (d *Deck) Deal(n int) []Card {
	if d.next+n > len(d.cards) {
		return nil
	}
	cards := d.cards[d.next : d.next+n]
	d.next += n
	return cards
}

// DealOne deals a single card from the deck
func (d *Deck) DealOne() Card {
	if d.next >= len(d.cards) {
		return 0
	}
	card := d.cards[d.next]
	d.next++
	return card
}

// Burn discards the top card face down, as done before each
// community-card deal. Returns false once the deck is exhausted.
func (d *Deck) Burn() bool {
	if d.next >= len(d.cards) {
		return false
	}
	d.next++
	d.burned++
	return true
}

// Burned returns how many cards have been burned since the last shuffle
func (d *Deck) Burned() int {
	return d.burned
}

// Reset resets and reshuffles the deck
func (d *Deck) Reset() {
	d.Shuffle()
}

// CardsRemaining returns the number of cards left in the deck
func (d *Deck) CardsRemaining() int {
	return len(d.cards) - d.next
}
