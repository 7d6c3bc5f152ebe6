package game

import "fmt"

// Street represents the betting round
type Street int

const (
	Preflop Street = iota
	Flop
	Turn
	River
	Showdown
)

func (s Street) String() string {
	return [...]string{"preflop", "flop", "turn", "river", "showdown"}[s]
}

// BettingMode selects the table's betting structure
type BettingMode int

const (
	NoLimit BettingMode = iota
	Limit
	PotLimit
)

func (m BettingMode) String() string {
	return [...]string{"no_limit", "limit", "pot_limit"}[m]
}

// ParseBettingMode parses the wire form of a betting mode
func ParseBettingMode(s string) (BettingMode, error) {
	switch s {
	case "no_limit":
		return NoLimit, nil
	case "limit":
		return Limit, nil
	case "pot_limit":
		return PotLimit, nil
	default:
		return NoLimit, fmt.Errorf("unknown betting mode %q", s)
	}
}

// ActionKind represents a player action
type ActionKind int

const (
	Fold ActionKind = iota
	Check
	Call
	Bet
	Raise
	AllIn
)

func (a ActionKind) String() string {
	return [...]string{"fold", "check", "call", "bet", "raise", "all_in"}[a]
}

// ParseActionKind parses the wire form of an action
func ParseActionKind(s string) (ActionKind, error) {
	switch s {
	case "fold":
		return Fold, nil
	case "check":
		return Check, nil
	case "call":
		return Call, nil
	case "bet":
		return Bet, nil
	case "raise":
		return Raise, nil
	case "all_in":
		return AllIn, nil
	default:
		return Fold, fmt.Errorf("unknown action %q", s)
	}
}

// maxAggressiveActs caps limit-mode betting at an opening bet plus three raises per street.
const maxAggressiveActs = 4

// BettingRound encapsulates the state for one street of betting.
//
// Raise amounts are additive throughout: a raise of N puts the current bet
// at CurrentBet+N. Short all-ins may push CurrentBet above LastFullRaiseBet
// without reopening the action to seats that already acted.
type BettingRound struct {
	Mode             BettingMode
	BigBlind         int
	CurrentBet       int // Highest street bet any seat has committed
	LastRaiseSize    int // Size of the last full bet or raise
	LastFullRaiseBet int // CurrentBet as of the last full bet or raise
	Aggressor        int // Seat of the last full bettor/raiser, -1 if none
	AggressiveActs   int // Opening bet plus raises this street (limit cap)

	// actedAtBet[seat] records CurrentBet at the seat's last voluntary
	// action this street, -1 before they act. Posting a blind does not
	// count: the big blind keeps its preflop option.
	actedAtBet []int
}

// NewBettingRound creates betting state for a fresh street
func NewBettingRound(numPlayers int, bigBlind int, mode BettingMode) *BettingRound {
	br := &BettingRound{
		Mode:      mode,
		BigBlind:  bigBlind,
		Aggressor: -1,
	}
	br.actedAtBet = make([]int, numPlayers)
	for i := range br.actedAtBet {
		br.actedAtBet[i] = -1
	}
	return br
}

// PostBlindBet registers the big blind as the live bet to match. The blind
// counts as the street's first aggressive action for the limit-mode cap.
func (br *BettingRound) PostBlindBet(bigBlind int) {
	br.CurrentBet = bigBlind
	br.LastRaiseSize = bigBlind
	br.LastFullRaiseBet = bigBlind
	br.AggressiveActs = 1
}

// ResetForStreet clears the round for the next street
func (br *BettingRound) ResetForStreet() {
	br.CurrentBet = 0
	br.LastRaiseSize = 0
	br.LastFullRaiseBet = 0
	br.Aggressor = -1
	br.AggressiveActs = 0
	for i := range br.actedAtBet {
		br.actedAtBet[i] = -1
	}
}

// MarkActed records that the seat acted at the current bet level
func (br *BettingRound) MarkActed(seat int) {
	if seat >= 0 && seat < len(br.actedAtBet) {
		br.actedAtBet[seat] = br.CurrentBet
	}
}

// HasActed reports whether the seat has voluntarily acted this street
func (br *BettingRound) HasActed(seat int) bool {
	return seat >= 0 && seat < len(br.actedAtBet) && br.actedAtBet[seat] >= 0
}

// ReopenedTo reports whether the seat may still raise: either it has not
// acted this street, or a full raise arrived after its last action. A short
// all-in moves CurrentBet but not LastFullRaiseBet, so it never reopens.
func (br *BettingRound) ReopenedTo(seat int) bool {
	if seat < 0 || seat >= len(br.actedAtBet) {
		return false
	}
	return br.actedAtBet[seat] < 0 || br.actedAtBet[seat] < br.LastFullRaiseBet
}

// RegisterFullAggression updates the round for a full bet or raise to the
// given street-bet level by the given seat.
func (br *BettingRound) RegisterFullAggression(seat, newBet int) {
	br.LastRaiseSize = newBet - br.CurrentBet
	br.CurrentBet = newBet
	br.LastFullRaiseBet = newBet
	br.Aggressor = seat
	br.AggressiveActs++
}

// RegisterShortAllIn raises the bet to match a short all-in without
// reopening the action.
func (br *BettingRound) RegisterShortAllIn(newBet int) {
	if newBet > br.CurrentBet {
		br.CurrentBet = newBet
	}
}

// FixedBetSize returns the mandated limit-mode bet/raise increment:
// one big blind on the early streets, two on the turn and river.
func (br *BettingRound) FixedBetSize(street Street) int {
	if street == Turn || street == River {
		return 2 * br.BigBlind
	}
	return br.BigBlind
}

// minRaiseSize returns the minimum additive raise for the street
func (br *BettingRound) minRaiseSize(street Street) int {
	if br.Mode == Limit {
		return br.FixedBetSize(street)
	}
	if br.LastRaiseSize > br.BigBlind {
		return br.LastRaiseSize
	}
	return br.BigBlind
}

// ActionBounds describes what the acting seat may legally do and the
// additive raise window. MinRaise and MaxRaise are amounts above the
// current bet, matching the wire protocol's raise semantics.
type ActionBounds struct {
	ToCall   int
	MinRaise int
	MaxRaise int
	CanCheck bool
	CanCall  bool
	CanBet   bool
	CanRaise bool
}

// Bounds computes the legal action envelope for a player. potTotal is the
// sum of every seat's whole-hand contribution, used for pot-limit sizing.
func (br *BettingRound) Bounds(p *Player, street Street, potTotal int) ActionBounds {
	toCall := br.CurrentBet - p.Bet
	if toCall < 0 {
		toCall = 0
	}
	if toCall > p.Chips {
		toCall = p.Chips
	}

	b := ActionBounds{ToCall: toCall}
	if !p.IsActive() {
		return b
	}

	b.CanCheck = br.CurrentBet <= p.Bet
	b.CanCall = toCall > 0

	underCap := br.Mode != Limit || br.AggressiveActs < maxAggressiveActs

	if br.CurrentBet == 0 {
		// Unopened street: betting, not raising
		b.CanBet = underCap
		if b.CanBet {
			b.MinRaise, b.MaxRaise = br.betWindow(p, street, potTotal)
			if b.MaxRaise <= 0 {
				b.CanBet = false
			}
		}
		return b
	}

	// A bet exists: raising requires chips beyond the call, the limit cap
	// not reached, and the action open to this seat.
	b.CanRaise = underCap && p.Chips > toCall && br.ReopenedTo(p.Seat)
	if b.CanRaise {
		b.MinRaise, b.MaxRaise = br.raiseWindow(p, street, potTotal, toCall)
		if b.MaxRaise <= 0 {
			b.CanRaise = false
		}
	}
	return b
}

// betWindow returns the additive window for an opening bet
func (br *BettingRound) betWindow(p *Player, street Street, potTotal int) (minBet, maxBet int) {
	switch br.Mode {
	case Limit:
		fixed := br.FixedBetSize(street)
		return fixed, fixed
	case PotLimit:
		maxBet = potTotal - p.Bet
		if maxBet > p.Chips {
			maxBet = p.Chips
		}
		if maxBet < br.BigBlind {
			maxBet = min(br.BigBlind, p.Chips)
		}
		return min(br.BigBlind, maxBet), maxBet
	default: // NoLimit
		return min(br.BigBlind, p.Chips), p.Chips
	}
}

// raiseWindow returns the additive window for a raise over the current bet.
// Pot-limit caps the raise at the pot: collected chips, every other seat's
// street bet, and the caller's own call amount.
func (br *BettingRound) raiseWindow(p *Player, street Street, potTotal, toCall int) (minRaise, maxRaise int) {
	chipsAfterCall := p.Chips - toCall
	minRaise = br.minRaiseSize(street)

	switch br.Mode {
	case Limit:
		maxRaise = minRaise
		if maxRaise > chipsAfterCall {
			// Short stack: only the all-in action can put in less
			maxRaise = chipsAfterCall
			minRaise = chipsAfterCall
		}
	case PotLimit:
		maxRaise = potTotal - p.Bet + toCall
		if maxRaise > chipsAfterCall {
			maxRaise = chipsAfterCall
		}
	default: // NoLimit
		maxRaise = chipsAfterCall
	}

	if minRaise > maxRaise {
		minRaise = maxRaise
	}
	return minRaise, maxRaise
}

// Complete reports whether betting on this street is finished: every seat
// still able to act has acted at least once and matched the current bet.
func (br *BettingRound) Complete(players []*Player) bool {
	for _, p := range players {
		if !p.IsActive() {
			continue
		}
		if !br.HasActed(p.Seat) || p.Bet != br.CurrentBet {
			return false
		}
	}
	return true
}
