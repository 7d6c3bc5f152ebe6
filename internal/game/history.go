package game

import "fmt"

// maxHistory bounds the per-hand action log; older entries fall off the front.
const maxHistory = 50

// ActionRecord is one entry in a hand's action history
type ActionRecord struct {
	Seat   int
	Name   string
	Street Street
	Kind   ActionKind
	Amount int
}

// String renders the record the way clients display it
func (r ActionRecord) String() string {
	switch r.Kind {
	case Fold:
		return fmt.Sprintf("%s folds", r.Name)
	case Check:
		return fmt.Sprintf("%s checks", r.Name)
	case Call:
		return fmt.Sprintf("%s calls %d", r.Name, r.Amount)
	case Bet:
		return fmt.Sprintf("%s bets %d", r.Name, r.Amount)
	case Raise:
		return fmt.Sprintf("%s raises %d", r.Name, r.Amount)
	case AllIn:
		return fmt.Sprintf("%s goes all-in for %d", r.Name, r.Amount)
	default:
		return fmt.Sprintf("%s %s", r.Name, r.Kind)
	}
}

// appendHistory adds a record, trimming the log to its cap
func (h *HandState) appendHistory(r ActionRecord) {
	h.History = append(h.History, r)
	if len(h.History) > maxHistory {
		h.History = h.History[len(h.History)-maxHistory:]
	}
}

// RecentHistory returns up to the last n records
func (h *HandState) RecentHistory(n int) []ActionRecord {
	if len(h.History) <= n {
		return h.History
	}
	return h.History[len(h.History)-n:]
}
