package game

import (
	rand "math/rand/v2"

	"github.com/lox/holdem-rooms/poker"
)

// HandOption configures a HandState during creation.
type HandOption func(*handConfig)

// handConfig holds all configuration for creating a hand.
type handConfig struct {
	// Required fields (set via NewHand)
	rng         *rand.Rand
	playerNames []string
	button      int
	smallBlind  int
	bigBlind    int

	// Optional fields (set via options)
	id         string
	mode       BettingMode
	ante       int
	chipCounts []int       // If nil, uses uniform starting chips
	startChips int         // Default: 1000
	deck       *poker.Deck // If provided, uses this deck instead of shuffling one
}

// NewHand creates a hand at the start of preflop: antes collected, blinds
// posted, hole cards dealt and the first seat to act selected. The RNG is
// required to make randomness explicit and testing deterministic.
//
// The button must sit on a funded seat; seats with no chips sit the hand
// out. Heads-up the button posts the small blind and acts first preflop.
//
// Example usage:
//
//	// Production - time-seeded RNG
//	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
//	h := NewHand(rng, []string{"Alice", "Bob"}, 0, 10, 20)
//
//	// Testing - deterministic RNG
//	rng := rand.New(rand.NewPCG(42, 0))
//	h := NewHand(rng, []string{"Alice", "Bob"}, 0, 10, 20)
//
//	// With options
//	h := NewHand(rng, players, 0, 10, 20,
//	    WithChips([]int{1000, 800, 1200}),
//	    WithBettingMode(PotLimit))
func NewHand(rng *rand.Rand, playerNames []string, button int, smallBlind, bigBlind int, opts ...HandOption) *HandState {
	if rng == nil {
		panic("rng is required for hand creation")
	}
	if len(playerNames) < 2 {
		panic("at least 2 players required")
	}
	if button < 0 || button >= len(playerNames) {
		panic("button position out of range")
	}

	cfg := &handConfig{
		rng:         rng,
		playerNames: playerNames,
		button:      button,
		smallBlind:  smallBlind,
		bigBlind:    bigBlind,
		startChips:  1000,
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	// Validation
	if cfg.chipCounts != nil && len(cfg.chipCounts) != len(playerNames) {
		panic("chip counts must match number of players")
	}

	// Build players; zero-chip seats sit out
	players := make([]*Player, len(playerNames))
	funded := 0
	for i, name := range playerNames {
		chips := cfg.startChips
		if cfg.chipCounts != nil {
			chips = cfg.chipCounts[i]
		}
		players[i] = &Player{
			Seat:       i,
			Name:       name,
			Chips:      chips,
			SittingOut: chips <= 0,
		}
		if chips > 0 {
			funded++
		}
	}
	if funded < 2 {
		panic("at least 2 funded players required")
	}
	if players[button].SittingOut {
		panic("button must sit on a funded seat")
	}

	// Setup deck (deck option overrides RNG if provided)
	var deck *poker.Deck
	if cfg.deck != nil {
		deck = cfg.deck
	} else {
		deck = poker.NewDeck(cfg.rng)
	}

	h := &HandState{
		ID:         cfg.id,
		Players:    players,
		Button:     button,
		Street:     Preflop,
		Deck:       deck,
		Betting:    NewBettingRound(len(players), bigBlind, cfg.mode),
		SmallBlind: smallBlind,
		BigBlind:   bigBlind,
		Ante:       cfg.ante,
	}
	for _, p := range players {
		h.startTotal += p.Chips
	}

	// Antes are dead money collected before the blinds
	if cfg.ante > 0 {
		for _, p := range players {
			if !p.SittingOut {
				p.commitAnte(cfg.ante)
			}
		}
	}
	h.postBlinds(funded)
	h.dealHoleCards()

	// Preflop action starts left of the big blind; heads-up that wraps
	// around to the button. Blinds can put everyone all-in, in which case
	// the street is already over.
	h.ActivePlayer = h.nextActivePlayer(h.bigBlindSeat + 1)
	if h.ActivePlayer == -1 || h.Betting.Complete(h.Players) {
		h.closeStreet()
	}
	return h
}

// postBlinds commits the blinds and registers the big blind as the live
// bet. Heads-up the button posts the small blind.
func (h *HandState) postBlinds(funded int) {
	var sbPos int
	if funded == 2 {
		sbPos = h.Button
	} else {
		sbPos = h.nextInHand(h.Button + 1)
	}
	bbPos := h.nextInHand(sbPos + 1)

	h.Players[sbPos].commit(h.SmallBlind)
	h.Players[bbPos].commit(h.BigBlind)
	h.Betting.PostBlindBet(h.BigBlind)

	h.smallBlindSeat = sbPos
	h.bigBlindSeat = bbPos
}

// dealHoleCards deals two cards to every seat that is in the hand
func (h *HandState) dealHoleCards() {
	for _, p := range h.Players {
		if p.SittingOut {
			continue
		}
		cards := h.Deck.Deal(2)
		p.HoleCards = poker.NewHand(cards...)
	}
}

// nextInHand scans clockwise for the next seat dealt into the hand
func (h *HandState) nextInHand(from int) int {
	numPlayers := len(h.Players)
	for i := 0; i < numPlayers; i++ {
		pos := (from + i) % numPlayers
		if h.Players[pos].InHand() {
			return pos
		}
	}
	return -1
}

// Option Functions

// WithID sets the hand's identifier, used to key timers and snapshots.
func WithID(id string) HandOption {
	return func(c *handConfig) {
		c.id = id
	}
}

// WithBettingMode sets the betting structure for the hand.
// Default is NoLimit.
func WithBettingMode(mode BettingMode) HandOption {
	return func(c *handConfig) {
		c.mode = mode
	}
}

// WithAnte sets a per-seat ante collected before the blinds.
// Default is 0.
func WithAnte(ante int) HandOption {
	return func(c *handConfig) {
		c.ante = ante
	}
}

// WithUniformChips sets the same starting chips for all players.
// Default is 1000 if not specified.
func WithUniformChips(chips int) HandOption {
	return func(c *handConfig) {
		c.startChips = chips
		c.chipCounts = nil // Clear any individual counts
	}
}

// WithChips sets individual chip counts for each player.
// The length must match the number of players.
func WithChips(chipCounts []int) HandOption {
	return func(c *handConfig) {
		c.chipCounts = chipCounts
	}
}

// WithDeck sets a specific pre-arranged deck, overriding the RNG shuffle.
// Seats are dealt two cards at a time in seat order starting from seat 0.
func WithDeck(deck *poker.Deck) HandOption {
	return func(c *handConfig) {
		c.deck = deck
	}
}
