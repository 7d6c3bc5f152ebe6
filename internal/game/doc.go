// Package game implements the core poker game logic for Texas Hold'em.
//
// The main type is HandState, which manages the state of a single poker hand
// including players, betting rounds, pot management, and winner determination.
// Limit, no-limit and pot-limit betting structures are supported; raise
// amounts are additive everywhere (a raise of N puts the bet at to-call + N).
//
// # Basic Usage
//
// Create and run a simple hand:
//
//	h := game.NewHand(rng, []string{"Alice", "Bob", "Charlie"}, 0, 10, 20)
//	// Process actions...
//	err := h.ProcessAction(h.ActivePlayer, game.Call, 0)
//	// Deal the next street once betting closes
//	if h.StreetComplete() {
//	    h.NextStreet()
//	}
//	// Distribute the pots once the hand is over
//	if h.Complete() {
//	    winners, err := h.Finish()
//	}
//
// # Deterministic Testing
//
// The RNG is always explicit. Fix the seed for reproducible shuffles, or
// provide a pre-arranged deck for complete control:
//
//	rng := rand.New(rand.NewPCG(42, 0)) // Fixed seed
//	h := game.NewHand(rng, players, 0, 10, 20, game.WithDeck(deck))
//
// # Architecture
//
// HandState delegates responsibilities to specialized components:
//   - BettingRound: betting state, action legality and raise windows
//   - CalculatePots / DistributePots: side pot layering and awards
//   - poker.Deck: provides shuffled cards with optional RNG injection
//   - poker.Evaluate: determines hand rankings and winners
//
// Each hand is independent: the room that owns the players carries chip
// stacks from one hand to the next.
package game
