package game

import (
	"testing"

	"github.com/lox/holdem-rooms/internal/randutil"
	"github.com/lox/holdem-rooms/poker"
)

func TestNewHand(t *testing.T) {
	t.Parallel()

	t.Run("basic construction", func(t *testing.T) {
		h := NewHand(randutil.New(42), []string{"Alice", "Bob", "Charlie"}, 0, 10, 20)

		if len(h.Players) != 3 {
			t.Errorf("Expected 3 players, got %d", len(h.Players))
		}
		if h.Button != 0 {
			t.Errorf("Button should be 0, got %d", h.Button)
		}
		if h.Street != Preflop {
			t.Errorf("Should start at Preflop, got %v", h.Street)
		}
		if h.SmallBlindSeat() != 1 || h.BigBlindSeat() != 2 {
			t.Errorf("Blinds at %d/%d, expected 1/2", h.SmallBlindSeat(), h.BigBlindSeat())
		}

		// Blinds posted and deducted
		if h.Players[1].Chips != 990 || h.Players[1].Bet != 10 {
			t.Errorf("SB not posted: chips=%d bet=%d", h.Players[1].Chips, h.Players[1].Bet)
		}
		if h.Players[2].Chips != 980 || h.Players[2].Bet != 20 {
			t.Errorf("BB not posted: chips=%d bet=%d", h.Players[2].Chips, h.Players[2].Bet)
		}
		if h.Betting.CurrentBet != 20 {
			t.Errorf("Current bet should be the big blind, got %d", h.Betting.CurrentBet)
		}

		// Everyone dealt two cards
		for _, p := range h.Players {
			if p.HoleCards.CountCards() != 2 {
				t.Errorf("Player %s has %d hole cards, expected 2", p.Name, p.HoleCards.CountCards())
			}
		}

		// Three-handed the button is under the gun
		if h.ActivePlayer != 0 {
			t.Errorf("Button should act first three-handed, got seat %d", h.ActivePlayer)
		}
	})

	t.Run("requires RNG", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("Expected panic for nil RNG")
			}
		}()
		NewHand(nil, []string{"Alice", "Bob"}, 0, 10, 20)
	})

	t.Run("requires at least 2 players", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("Expected panic for < 2 players")
			}
		}()
		NewHand(randutil.New(42), []string{"Alice"}, 0, 10, 20)
	})

	t.Run("requires at least 2 funded players", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("Expected panic for < 2 funded players")
			}
		}()
		NewHand(randutil.New(42), []string{"Alice", "Bob", "Charlie"}, 0, 10, 20,
			WithChips([]int{1000, 0, 0}))
	})

	t.Run("validates button position", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("Expected panic for invalid button")
			}
		}()
		NewHand(randutil.New(42), []string{"Alice", "Bob"}, 5, 10, 20)
	})
}

func TestHandOptions(t *testing.T) {
	t.Parallel()

	t.Run("WithUniformChips", func(t *testing.T) {
		h := NewHand(randutil.New(42), []string{"Alice", "Bob", "Charlie"}, 0, 10, 20, WithUniformChips(500))

		if h.Players[0].Chips != 500 { // Button, no blind
			t.Errorf("Button should have 500 chips, got %d", h.Players[0].Chips)
		}
		if h.Players[1].Chips != 490 {
			t.Errorf("SB should have 490 chips after blind, got %d", h.Players[1].Chips)
		}
		if h.Players[2].Chips != 480 {
			t.Errorf("BB should have 480 chips after blind, got %d", h.Players[2].Chips)
		}
	})

	t.Run("WithChips individual counts", func(t *testing.T) {
		h := NewHand(randutil.New(42), []string{"Alice", "Bob", "Charlie"}, 0, 10, 20,
			WithChips([]int{1000, 800, 1200}))

		if h.Players[0].Chips != 1000 {
			t.Errorf("Button should have 1000 chips, got %d", h.Players[0].Chips)
		}
		if h.Players[1].Chips != 790 {
			t.Errorf("SB should have 790 chips after blind, got %d", h.Players[1].Chips)
		}
		if h.Players[2].Chips != 1180 {
			t.Errorf("BB should have 1180 chips after blind, got %d", h.Players[2].Chips)
		}
	})

	t.Run("WithChips validates count", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("Expected panic for mismatched chip counts")
			}
		}()
		NewHand(randutil.New(42), []string{"Alice", "Bob", "Charlie"}, 0, 10, 20,
			WithChips([]int{1000, 800}))
	})

	t.Run("WithAnte collects dead money before blinds", func(t *testing.T) {
		h := NewHand(randutil.New(42), []string{"Alice", "Bob", "Charlie"}, 0, 10, 20, WithAnte(5))

		// Antes count toward the hand but not toward the street bet
		if h.Players[0].TotalBet != 5 || h.Players[0].Bet != 0 {
			t.Errorf("Button ante wrong: total=%d bet=%d", h.Players[0].TotalBet, h.Players[0].Bet)
		}
		if h.Players[2].TotalBet != 25 || h.Players[2].Bet != 20 {
			t.Errorf("BB ante wrong: total=%d bet=%d", h.Players[2].TotalBet, h.Players[2].Bet)
		}
		if got := PotTotal(h.Players); got != 45 {
			t.Errorf("Pot should hold antes and blinds (45), got %d", got)
		}

		// The ante does not reduce what the button owes
		if b := h.Bounds(0); b.ToCall != 20 {
			t.Errorf("Button should owe the full big blind, got %d", b.ToCall)
		}
	})

	t.Run("WithBettingMode", func(t *testing.T) {
		h := NewHand(randutil.New(42), []string{"Alice", "Bob"}, 0, 10, 20, WithBettingMode(PotLimit))
		if h.Betting.Mode != PotLimit {
			t.Errorf("Betting mode should be PotLimit, got %v", h.Betting.Mode)
		}
	})

	t.Run("WithID", func(t *testing.T) {
		h := NewHand(randutil.New(42), []string{"Alice", "Bob"}, 0, 10, 20, WithID("hand-7"))
		if h.ID != "hand-7" {
			t.Errorf("ID should be hand-7, got %q", h.ID)
		}
	})

	t.Run("WithDeck uses provided deck", func(t *testing.T) {
		deck := poker.NewDeck(randutil.New(99))
		h := NewHand(randutil.New(42), []string{"Alice", "Bob"}, 0, 10, 20, WithDeck(deck))

		if h.Deck != deck {
			t.Error("Should use provided deck")
		}
	})

	t.Run("multiple options compose", func(t *testing.T) {
		deck := poker.NewDeck(randutil.New(99))
		h := NewHand(randutil.New(42), []string{"Alice", "Bob"}, 0, 10, 20,
			WithChips([]int{500, 600}),
			WithDeck(deck))

		if h.Deck != deck {
			t.Error("Should use provided deck")
		}
		if h.Players[0].Chips != 490 { // Button posts SB in heads-up
			t.Errorf("Button should have 490 chips after SB, got %d", h.Players[0].Chips)
		}
		if h.Players[1].Chips != 580 {
			t.Errorf("BB should have 580 chips after blind, got %d", h.Players[1].Chips)
		}
	})
}

func TestNewHandSittingOut(t *testing.T) {
	t.Parallel()

	// Seat 1 arrives broke: no cards, no blinds, action passes over it.
	h := NewHand(randutil.New(42), []string{"Alice", "Bob", "Charlie"}, 0, 10, 20,
		WithChips([]int{1000, 0, 1000}))

	if !h.Players[1].SittingOut {
		t.Error("Broke seat should sit out")
	}
	if h.Players[1].HoleCards != 0 {
		t.Error("Sitting-out seat should receive no cards")
	}

	// Two funded seats make the hand heads-up: button posts the small blind
	if h.SmallBlindSeat() != 0 {
		t.Errorf("Button should post SB heads-up, got seat %d", h.SmallBlindSeat())
	}
	if h.BigBlindSeat() != 2 {
		t.Errorf("BB should skip the broke seat, got %d", h.BigBlindSeat())
	}
	if h.ActivePlayer != 0 {
		t.Errorf("Button should act first heads-up, got seat %d", h.ActivePlayer)
	}
}

func TestNewHandDeterministic(t *testing.T) {
	t.Parallel()

	players := []string{"Alice", "Bob", "Charlie"}
	h1 := NewHand(randutil.New(12345), players, 0, 10, 20)
	h2 := NewHand(randutil.New(12345), players, 0, 10, 20)

	for i := range players {
		if h1.Players[i].HoleCards != h2.Players[i].HoleCards {
			t.Errorf("Player %d hole cards differ with same seed", i)
		}
	}
}

func TestNewHandBlindsAllIn(t *testing.T) {
	t.Parallel()

	// Blinds can put short stacks all-in; posting stops at the stack.
	h := NewHand(randutil.New(42), []string{"Alice", "Bob", "Charlie"}, 0, 10, 20,
		WithChips([]int{1000, 4, 15}))

	if !h.Players[1].AllInFlag || h.Players[1].Bet != 4 {
		t.Errorf("Short SB should be all-in for 4, got bet %d", h.Players[1].Bet)
	}
	if !h.Players[2].AllInFlag || h.Players[2].Bet != 15 {
		t.Errorf("Short BB should be all-in for 15, got bet %d", h.Players[2].Bet)
	}

	// The bet to match is still the full big blind
	if b := h.Bounds(0); b.ToCall != 20 {
		t.Errorf("UTG should owe 20, got %d", b.ToCall)
	}
}
