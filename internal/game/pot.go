package game

import (
	"slices"

	"github.com/lox/holdem-rooms/poker"
)

// Pot represents a main or side pot. Eligible holds the seats that can win
// it: everyone who contributed at least Cap and has not folded. Folded
// seats' chips still count toward Amount.
type Pot struct {
	Amount   int
	Cap      int   // Per-player contribution cap for this pot
	Eligible []int // Seat numbers eligible to win, ascending
}

// CalculatePots builds the ordered pot list from whole-hand contributions.
// Each distinct contribution level closes a pot layer; layers whose
// eligible seats are identical are merged, so the result is the familiar
// main pot followed by one side pot per short all-in.
func CalculatePots(players []*Player) []Pot {
	contrib := make([]int, len(players))
	for i, p := range players {
		contrib[i] = p.TotalBet
	}
	return potLayers(players, contrib)
}

// potLayers is the level algorithm over an explicit contribution slice,
// indexed like players. The hand uses it with live street bets excluded to
// present settled pots while a street is still being bet.
func potLayers(players []*Player, contrib []int) []Pot {
	levels := make([]int, 0, len(players))
	for _, c := range contrib {
		if c > 0 && !slices.Contains(levels, c) {
			levels = append(levels, c)
		}
	}
	if len(levels) == 0 {
		return nil
	}
	slices.Sort(levels)

	var pots []Pot
	prev := 0
	for _, level := range levels {
		pot := Pot{Cap: level}
		for i, p := range players {
			pot.Amount += min(contrib[i], level) - min(contrib[i], prev)
			if p.InHand() && contrib[i] >= level {
				pot.Eligible = append(pot.Eligible, p.Seat)
			}
		}
		prev = level

		if pot.Amount == 0 {
			continue
		}
		if len(pot.Eligible) == 0 && len(pots) > 0 {
			// Dead money above every live stack flows into the pot below
			pots[len(pots)-1].Amount += pot.Amount
			continue
		}
		if len(pots) > 0 && slices.Equal(pots[len(pots)-1].Eligible, pot.Eligible) {
			pots[len(pots)-1].Amount += pot.Amount
			pots[len(pots)-1].Cap = pot.Cap
			continue
		}
		pots = append(pots, pot)
	}
	return pots
}

// PotTotal sums every seat's whole-hand contribution
func PotTotal(players []*Player) int {
	total := 0
	for _, p := range players {
		total += p.TotalBet
	}
	return total
}

// Winner records one seat's share of the distributed pots
type Winner struct {
	Seat     int
	Name     string
	Amount   int
	HandName string // Empty when the pot was won without a showdown
}

// DistributePots awards each pot to the eligible seat(s) holding the best
// hand, crediting winnings straight onto the players' stacks. Split pots
// divide evenly; odd chips go one apiece to the winners nearest clockwise
// from the button. Returns the aggregate winnings per seat, ordered
// clockwise from the button.
func DistributePots(pots []Pot, players []*Player, board poker.Hand, button int) []Winner {
	winnings := make(map[int]int)
	handNames := make(map[int]string)

	for _, pot := range pots {
		if pot.Amount == 0 || len(pot.Eligible) == 0 {
			continue
		}

		var best []int
		if len(pot.Eligible) == 1 {
			// Unopposed pot: no cards shown
			best = pot.Eligible
		} else {
			var bestRank poker.HandRank
			for _, seat := range pot.Eligible {
				rank := poker.Evaluate(players[seat].HoleCards | board)
				handNames[seat] = rank.String()

				cmp := 1
				if len(best) > 0 {
					cmp = poker.CompareHands(rank, bestRank)
				}
				if cmp > 0 {
					bestRank = rank
					best = []int{seat}
				} else if cmp == 0 {
					best = append(best, seat)
				}
			}
		}

		share := pot.Amount / len(best)
		remainder := pot.Amount % len(best)

		// Odd chips go to the winners nearest clockwise from the button
		ordered := slices.Clone(best)
		slices.SortFunc(ordered, func(a, b int) int {
			return clockwiseFrom(button, a, len(players)) - clockwiseFrom(button, b, len(players))
		})
		for i, seat := range ordered {
			amount := share
			if i < remainder {
				amount++
			}
			players[seat].Chips += amount
			winnings[seat] += amount
		}
	}

	seats := make([]int, 0, len(winnings))
	for seat := range winnings {
		seats = append(seats, seat)
	}
	slices.SortFunc(seats, func(a, b int) int {
		return clockwiseFrom(button, a, len(players)) - clockwiseFrom(button, b, len(players))
	})

	winners := make([]Winner, 0, len(seats))
	for _, seat := range seats {
		winners = append(winners, Winner{
			Seat:     seat,
			Name:     players[seat].Name,
			Amount:   winnings[seat],
			HandName: handNames[seat],
		})
	}
	return winners
}

// clockwiseFrom orders seats by distance clockwise from the button, with
// the seat directly after the button first and the button itself last.
func clockwiseFrom(button, seat, numSeats int) int {
	return (seat - button - 1 + 2*numSeats) % numSeats
}
