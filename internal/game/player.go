package game

import (
	"github.com/lox/holdem-rooms/poker"
)

// Player represents a player in a hand. Seats that arrive with no chips
// sit out: they receive no cards and the action passes over them.
type Player struct {
	Seat       int
	Name       string
	Chips      int
	HoleCards  poker.Hand
	Folded     bool
	AllInFlag  bool
	SittingOut bool
	Bet        int // Current bet in this street
	TotalBet   int // Total committed in the hand, antes included
}

// IsActive returns true if the player can still act
func (p *Player) IsActive() bool {
	return !p.Folded && !p.SittingOut && !p.AllInFlag && p.Chips > 0
}

// InHand returns true if the player still contests the pot
func (p *Player) InHand() bool {
	return !p.Folded && !p.SittingOut
}

// commit moves up to amount chips from the stack into the current bet,
// returning how much actually moved. Running out of chips puts the player
// all-in.
func (p *Player) commit(amount int) int {
	if amount > p.Chips {
		amount = p.Chips
	}
	p.Chips -= amount
	p.Bet += amount
	p.TotalBet += amount
	if p.Chips == 0 {
		p.AllInFlag = true
	}
	return amount
}

// commitAnte moves chips into the hand total without touching the street
// bet; antes are dead money that never counts toward calling.
func (p *Player) commitAnte(amount int) int {
	if amount > p.Chips {
		amount = p.Chips
	}
	p.Chips -= amount
	p.TotalBet += amount
	if p.Chips == 0 {
		p.AllInFlag = true
	}
	return amount
}
