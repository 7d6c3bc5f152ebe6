package game

import (
	"fmt"

	"github.com/lox/holdem-rooms/poker"
)

// HandState drives one poker hand from the first deal to distribution.
// Players are seat-indexed: Players[i].Seat == i.
type HandState struct {
	ID      string
	Players []*Player
	Button  int
	Street  Street
	Board   []poker.Card
	Deck    *poker.Deck
	Betting *BettingRound

	SmallBlind int
	BigBlind   int
	Ante       int

	// ActivePlayer is the acting seat, -1 when nobody can act.
	// ActionIndex increments on every accepted or forced action; together
	// with ID and the acting seat it keys the room's turn timer so a stale
	// fire can be recognised and dropped.
	ActivePlayer int
	ActionIndex  int

	History []ActionRecord
	Winners []Winner

	smallBlindSeat int
	bigBlindSeat   int
	startTotal     int
	streetDone     bool
	finished       bool
}

// SmallBlindSeat returns the seat that posted the small blind
func (h *HandState) SmallBlindSeat() int { return h.smallBlindSeat }

// BigBlindSeat returns the seat that posted the big blind
func (h *HandState) BigBlindSeat() int { return h.bigBlindSeat }

// BoardHand returns the community cards as a bitset
func (h *HandState) BoardHand() poker.Hand {
	return poker.NewHand(h.Board...)
}

// Bounds returns the legal action envelope for a seat
func (h *HandState) Bounds(seat int) ActionBounds {
	if seat < 0 || seat >= len(h.Players) || h.finished {
		return ActionBounds{}
	}
	return h.Betting.Bounds(h.Players[seat], h.Street, PotTotal(h.Players))
}

// Pots returns the settled pots for display. Live street bets sit in front
// of each seat until the street closes, so they are excluded here; the
// hand total including them is PotTotal.
func (h *HandState) Pots() []Pot {
	if h.finished {
		return nil
	}
	contrib := make([]int, len(h.Players))
	for i, p := range h.Players {
		contrib[i] = p.TotalBet - p.Bet
	}
	return potLayers(h.Players, contrib)
}

// StreetComplete reports whether betting has closed on the current street
// and the next street (or showdown) is due.
func (h *HandState) StreetComplete() bool {
	return h.streetDone
}

// Uncontested reports whether at most one seat still contests the pot
func (h *HandState) Uncontested() bool {
	inHand := 0
	for _, p := range h.Players {
		if p.InHand() {
			inHand++
		}
	}
	return inHand <= 1
}

// Finished reports whether the pots have been distributed
func (h *HandState) Finished() bool {
	return h.finished
}

// Complete reports whether the hand is over: one seat left standing, or
// betting closed on the river and the hand reached showdown.
func (h *HandState) Complete() bool {
	return h.finished || h.Uncontested() || h.Street == Showdown
}

// ProcessAction validates and applies an action by the acting seat. An
// illegal action returns an error and leaves the hand untouched. When the
// action closes the street, bets are folded into the pots and the caller
// advances the hand with NextStreet.
func (h *HandState) ProcessAction(seat int, kind ActionKind, amount int) error {
	if h.finished {
		return fmt.Errorf("hand is already complete")
	}
	if h.ActivePlayer < 0 || seat != h.ActivePlayer {
		return fmt.Errorf("it is not seat %d's turn", seat)
	}

	p := h.Players[seat]
	bounds := h.Betting.Bounds(p, h.Street, PotTotal(h.Players))

	// Limit mode dictates bet sizes; the wire amount is advisory there.
	if h.Betting.Mode == Limit && (kind == Bet || kind == Raise) {
		amount = bounds.MaxRaise
	}

	switch kind {
	case Fold:
		// Always legal for the acting seat

	case Check:
		if !bounds.CanCheck {
			return fmt.Errorf("cannot check, %d to call", bounds.ToCall)
		}

	case Call:
		if bounds.ToCall == 0 {
			return fmt.Errorf("nothing to call")
		}

	case Bet:
		if h.Betting.CurrentBet > 0 {
			return fmt.Errorf("a bet already stands, raise instead")
		}
		if !bounds.CanBet {
			return fmt.Errorf("betting is not available")
		}
		if amount <= 0 {
			return fmt.Errorf("bet must be positive")
		}
		if amount > p.Chips {
			return fmt.Errorf("insufficient chips: have %d, bet %d", p.Chips, amount)
		}
		if amount > bounds.MaxRaise {
			return fmt.Errorf("bet above maximum %d", bounds.MaxRaise)
		}
		// Below-minimum bets are legal only as an all-in for less
		if amount < bounds.MinRaise && amount < p.Chips {
			return fmt.Errorf("bet below minimum %d", bounds.MinRaise)
		}

	case Raise:
		if h.Betting.CurrentBet == 0 {
			return fmt.Errorf("nothing to raise, bet instead")
		}
		if h.Betting.Mode == Limit && h.Betting.AggressiveActs >= maxAggressiveActs {
			return fmt.Errorf("raise cap reached for this street")
		}
		if !h.Betting.ReopenedTo(seat) {
			return fmt.Errorf("raising is closed, call or fold")
		}
		if p.Chips <= bounds.ToCall {
			return fmt.Errorf("insufficient chips to raise")
		}
		if amount <= 0 {
			return fmt.Errorf("raise must be positive")
		}
		if bounds.ToCall+amount > p.Chips {
			return fmt.Errorf("insufficient chips: have %d, need %d", p.Chips, bounds.ToCall+amount)
		}
		if amount > bounds.MaxRaise {
			return fmt.Errorf("raise above maximum %d", bounds.MaxRaise)
		}
		// A short raise is legal only when it is an all-in
		if amount < bounds.MinRaise && bounds.ToCall+amount < p.Chips {
			return fmt.Errorf("raise below minimum %d", bounds.MinRaise)
		}

	case AllIn:
		// Always legal while the seat has chips; reaching here means it does

	default:
		return fmt.Errorf("unknown action")
	}

	h.apply(p, kind, amount, bounds)
	h.appendHistory(ActionRecord{
		Seat:   seat,
		Name:   p.Name,
		Street: h.Street,
		Kind:   kind,
		Amount: h.recordedAmount(p, kind, amount, bounds),
	})
	h.Betting.MarkActed(seat)
	h.ActionIndex++

	h.ActivePlayer = h.nextActivePlayer(seat + 1)
	if h.Uncontested() {
		h.ActivePlayer = -1
		return nil
	}
	if h.ActivePlayer == -1 || h.Betting.Complete(h.Players) {
		h.closeStreet()
	}
	return nil
}

// apply mutates chips and betting state for a validated action
func (h *HandState) apply(p *Player, kind ActionKind, amount int, bounds ActionBounds) {
	switch kind {
	case Fold:
		p.Folded = true

	case Check:
		// No chips move

	case Call:
		p.commit(bounds.ToCall)

	case Bet, Raise:
		target := h.Betting.CurrentBet + amount
		p.commit(target - p.Bet)
		if amount >= h.fullAggressionFloor() {
			h.Betting.RegisterFullAggression(p.Seat, p.Bet)
		} else {
			h.Betting.RegisterShortAllIn(p.Bet)
		}

	case AllIn:
		p.commit(p.Chips)
		if p.Bet > h.Betting.CurrentBet {
			if p.Bet-h.Betting.CurrentBet >= h.fullAggressionFloor() {
				h.Betting.RegisterFullAggression(p.Seat, p.Bet)
			} else {
				h.Betting.RegisterShortAllIn(p.Bet)
			}
		}
	}
}

// fullAggressionFloor is the smallest additive amount that counts as a
// full bet or raise; anything below it is a short all-in that neither
// reopens the action nor counts toward the limit cap.
func (h *HandState) fullAggressionFloor() int {
	if h.Betting.CurrentBet == 0 {
		if h.Betting.Mode == Limit {
			return h.Betting.FixedBetSize(h.Street)
		}
		return h.BigBlind
	}
	return h.Betting.minRaiseSize(h.Street)
}

// recordedAmount resolves the amount stored in the action history
func (h *HandState) recordedAmount(p *Player, kind ActionKind, amount int, bounds ActionBounds) int {
	switch kind {
	case Call:
		return bounds.ToCall
	case Bet, Raise:
		return amount
	case AllIn:
		return p.Bet
	default:
		return 0
	}
}

// ForceFold folds a seat immediately regardless of turn order. Used for
// leaves, disconnects and protocol violations.
func (h *HandState) ForceFold(seat int) {
	if h.finished || seat < 0 || seat >= len(h.Players) {
		return
	}
	p := h.Players[seat]
	if p.Folded {
		return
	}

	p.Folded = true
	h.Betting.MarkActed(seat)
	h.appendHistory(ActionRecord{Seat: seat, Name: p.Name, Street: h.Street, Kind: Fold})
	h.ActionIndex++

	if seat == h.ActivePlayer {
		h.ActivePlayer = h.nextActivePlayer(seat + 1)
	}
	if h.Uncontested() {
		h.ActivePlayer = -1
		return
	}
	if h.ActivePlayer == -1 || h.Betting.Complete(h.Players) {
		h.closeStreet()
	}
}

// nextActivePlayer scans clockwise from the given seat for a seat that can
// still act, returning -1 when none can.
func (h *HandState) nextActivePlayer(from int) int {
	numPlayers := len(h.Players)
	for i := 0; i < numPlayers; i++ {
		pos := (from + i) % numPlayers
		if h.Players[pos].IsActive() {
			return pos
		}
	}
	return -1
}

// countActive counts seats that can still make betting decisions
func (h *HandState) countActive() int {
	n := 0
	for _, p := range h.Players {
		if p.IsActive() {
			n++
		}
	}
	return n
}

// closeStreet folds street bets into the pots: the uncalled portion of an
// unmatched wager returns to its owner, bets reset, betting state clears.
func (h *HandState) closeStreet() {
	h.refundUncalled()
	for _, p := range h.Players {
		p.Bet = 0
	}
	h.Betting.ResetForStreet()
	h.ActivePlayer = -1
	h.streetDone = true
}

// refundUncalled returns the top wager's excess over the highest matching
// bet. Only possible when everyone still in is all-in for less.
func (h *HandState) refundUncalled() {
	top, second, topSeat, topCount := 0, 0, -1, 0
	for _, p := range h.Players {
		switch {
		case p.Bet > top:
			second = top
			top = p.Bet
			topSeat = p.Seat
			topCount = 1
		case p.Bet == top && top > 0:
			topCount++
		case p.Bet > second:
			second = p.Bet
		}
	}
	if topCount != 1 || top == second {
		return
	}

	p := h.Players[topSeat]
	excess := top - second
	p.Bet -= excess
	p.TotalBet -= excess
	p.Chips += excess
	if p.AllInFlag && p.Chips > 0 {
		p.AllInFlag = false
	}
}

// NextStreet deals the next street once the current one has closed. When
// one seat at most can still act, the new street closes immediately so the
// caller can keep dealing toward showdown.
func (h *HandState) NextStreet() error {
	if h.finished || !h.streetDone || h.Street == Showdown {
		return nil
	}

	switch h.Street {
	case Preflop:
		h.Street = Flop
		if err := h.burnAndDeal(3); err != nil {
			return err
		}
	case Flop:
		h.Street = Turn
		if err := h.burnAndDeal(1); err != nil {
			return err
		}
	case Turn:
		h.Street = River
		if err := h.burnAndDeal(1); err != nil {
			return err
		}
	case River:
		h.Street = Showdown
		h.ActivePlayer = -1
		return nil
	}

	if h.countActive() <= 1 {
		// Betting skipped: the board keeps running out
		h.ActivePlayer = -1
		h.streetDone = true
		return nil
	}

	h.ActivePlayer = h.nextActivePlayer((h.Button + 1) % len(h.Players))
	h.streetDone = false
	return nil
}

func (h *HandState) burnAndDeal(n int) error {
	if !h.Deck.Burn() {
		return fmt.Errorf("deck exhausted burning before %s", h.Street)
	}
	cards := h.Deck.Deal(n)
	if cards == nil {
		return fmt.Errorf("deck exhausted dealing %s", h.Street)
	}
	h.Board = append(h.Board, cards...)
	return nil
}

// Finish distributes the pots and ends the hand. Legal once the hand is
// uncontested or betting closed on the river. The winners are also kept on
// h.Winners for the showdown snapshot.
func (h *HandState) Finish() ([]Winner, error) {
	if h.finished {
		return h.Winners, nil
	}
	if !h.Uncontested() && h.Street != Showdown {
		return nil, fmt.Errorf("hand is still being played")
	}

	// An uncontested win can leave live bets on the table
	if !h.streetDone {
		for _, p := range h.Players {
			p.Bet = 0
		}
	}

	pots := CalculatePots(h.Players)
	winners := DistributePots(pots, h.Players, h.BoardHand(), h.Button)

	for _, p := range h.Players {
		p.TotalBet = 0
		p.Bet = 0
	}
	h.Winners = winners
	h.finished = true
	h.ActivePlayer = -1

	total := 0
	for _, p := range h.Players {
		total += p.Chips
	}
	if total != h.startTotal {
		return winners, fmt.Errorf("chip conservation violated: have %d, started with %d", total, h.startTotal)
	}
	return winners, nil
}

// CheckConservation verifies that no chips have appeared or vanished
func (h *HandState) CheckConservation() error {
	total := 0
	for _, p := range h.Players {
		total += p.Chips
		if !h.finished {
			total += p.TotalBet
		}
	}
	if total != h.startTotal {
		return fmt.Errorf("chip conservation violated: have %d, started with %d", total, h.startTotal)
	}
	return nil
}
