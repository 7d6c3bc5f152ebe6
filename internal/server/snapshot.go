package server

import (
	"time"

	"github.com/lox/holdem-rooms/internal/game"
	"github.com/lox/holdem-rooms/poker"
)

// Wire forms for cards, indexed by the poker package's suit and rank values
var (
	suitSymbols = [4]string{"♣", "♦", "♥", "♠"}
	rankSymbols = [13]string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}
)

// CardView is a card as clients render it. A face-down card carries only
// the hidden marker.
type CardView struct {
	Suit   string `json:"suit,omitempty"`
	Rank   string `json:"rank,omitempty"`
	Color  string `json:"color,omitempty"`
	Hidden bool   `json:"hidden,omitempty"`
}

// NewCardView converts a card to its wire form
func NewCardView(c poker.Card) CardView {
	color := "black"
	if c.IsRed() {
		color = "red"
	}
	return CardView{
		Suit:  suitSymbols[c.Suit()],
		Rank:  rankSymbols[c.Rank()],
		Color: color,
	}
}

// HiddenCardView is the face-down marker sent for opponents' hole cards
func HiddenCardView() CardView {
	return CardView{Hidden: true}
}

// PlayerView is one seat as a given viewer sees it
type PlayerView struct {
	Name       string     `json:"name"`
	Chips      int        `json:"chips"`
	CurrentBet int        `json:"current_bet"`
	TotalBet   int        `json:"total_bet"`
	Folded     bool       `json:"folded"`
	AllIn      bool       `json:"all_in"`
	IsDealer   bool       `json:"is_dealer"`
	IsSB       bool       `json:"is_sb"`
	IsBB       bool       `json:"is_bb"`
	IsSelf     bool       `json:"is_self"`
	IsCurrent  bool       `json:"is_current"`
	Hand       []CardView `json:"hand"`
}

// SidePotView is one capped pot layer with the names eligible to win it
type SidePotView struct {
	Amount   int      `json:"amount"`
	Eligible []string `json:"eligible"`
}

// ActionView is one recent action as shown in the snapshot's history strip
type ActionView struct {
	Player string `json:"player"`
	Action string `json:"action"`
	Amount int    `json:"amount"`
}

// WinnerView is one seat's winnings from the last finished hand. HandName
// is empty when the pot was won without a showdown.
type WinnerView struct {
	Name     string `json:"name"`
	Amount   int    `json:"amount"`
	HandName string `json:"hand_name,omitempty"`
}

// Snapshot is the full game state personalised for one viewer: their own
// hole cards are revealed, everyone else's are face down until showdown.
// Every broadcast sends the complete snapshot, so clients never need to
// patch deltas.
type Snapshot struct {
	RoomID      string `json:"room_id"`
	RoomName    string `json:"room_name"`
	Stage       string `json:"stage"`
	BettingMode string `json:"betting_mode"`
	SmallBlind  int    `json:"small_blind"`
	BigBlind    int    `json:"big_blind"`
	Ante        int    `json:"ante"`

	Players        []PlayerView  `json:"players"`
	CommunityCards []CardView    `json:"community_cards"`
	MainPot        int           `json:"main_pot"`
	SidePots       []SidePotView `json:"side_pots"`

	CurrentBet      int  `json:"current_bet"`
	HasBetThisRound bool `json:"has_bet_this_round"`
	ToCall          int  `json:"to_call"`
	MinRaise        int  `json:"min_raise"`
	MaxRaise        int  `json:"max_raise"`
	CanRaise        bool `json:"can_raise"`

	IsMyTurn      bool `json:"is_my_turn"`
	IsRoomOwner   bool `json:"is_room_owner"`
	CanStart      bool `json:"can_start"`
	RemainingTime int  `json:"remaining_time"`

	ActionHistory []ActionView `json:"action_history"`
	Winners       []WinnerView `json:"winners,omitempty"`
}

// snapshotFor builds the viewer's personalised snapshot. Runs on the room
// goroutine only.
func (r *Room) snapshotFor(viewerID string) *Snapshot {
	snap := &Snapshot{
		RoomID:         r.ID,
		RoomName:       r.cfg.Name,
		Stage:          r.stage(),
		BettingMode:    r.cfg.Mode.String(),
		SmallBlind:     r.cfg.SmallBlind,
		BigBlind:       r.cfg.BigBlind,
		Ante:           r.cfg.Ante,
		Players:        r.playerViews(viewerID),
		CommunityCards: []CardView{},
		SidePots:       []SidePotView{},
		ActionHistory:  []ActionView{},
		IsRoomOwner:    viewerID == r.owner,
		RemainingTime:  int(r.cfg.TurnTimeout / time.Second),
	}

	funded := 0
	for _, s := range r.seats {
		if s.chips > 0 {
			funded++
		}
	}
	snap.CanStart = funded >= 2 && r.phase != phaseInHand

	h := r.hand
	if h == nil {
		return snap
	}

	// Settled pot layers only; chips still in front of players this street
	// appear as their current_bet, so stacks + pots + bets always add up
	if pots := h.Pots(); len(pots) > 0 {
		snap.MainPot = pots[0].Amount
		for _, pot := range pots[1:] {
			names := make([]string, len(pot.Eligible))
			for i, seatIdx := range pot.Eligible {
				names[i] = h.Players[seatIdx].Name
			}
			snap.SidePots = append(snap.SidePots, SidePotView{Amount: pot.Amount, Eligible: names})
		}
	}

	for _, c := range h.Board {
		snap.CommunityCards = append(snap.CommunityCards, NewCardView(c))
	}

	for _, rec := range h.RecentHistory(snapshotHistory) {
		snap.ActionHistory = append(snap.ActionHistory, ActionView{
			Player: rec.Name,
			Action: rec.Kind.String(),
			Amount: rec.Amount,
		})
	}

	snap.CurrentBet = h.Betting.CurrentBet
	snap.HasBetThisRound = h.Betting.CurrentBet > 0

	viewerSeat := r.handSeatOf(viewerID)
	if viewerSeat >= 0 && !h.Finished() {
		b := h.Bounds(viewerSeat)
		snap.ToCall = b.ToCall
		snap.MinRaise = b.MinRaise
		snap.MaxRaise = b.MaxRaise
		snap.CanRaise = b.CanBet || b.CanRaise
		snap.IsMyTurn = h.ActivePlayer == viewerSeat
	}

	if !r.turnDeadline.IsZero() {
		remaining := r.turnDeadline.Sub(r.clock.Now())
		if remaining < 0 {
			remaining = 0
		}
		snap.RemainingTime = int(remaining / time.Second)
	}

	if h.Finished() && len(r.lastWinners) > 0 {
		snap.Winners = r.lastWinners
	}

	return snap
}

// playerViews renders the seats for one viewer. Seats currently dealt into
// a hand show the live hand state; between hands a freshly joined seat
// shows only its stack.
func (r *Room) playerViews(viewerID string) []PlayerView {
	showdown := r.hand != nil && r.hand.Street == game.Showdown

	views := make([]PlayerView, len(r.seats))
	for i, s := range r.seats {
		pv := PlayerView{
			Name:   s.name,
			Chips:  s.chips,
			IsSelf: s.playerID == viewerID,
			Hand:   []CardView{},
		}

		if r.hand != nil {
			if hs := r.handSeatOf(s.playerID); hs >= 0 {
				p := r.hand.Players[hs]
				pv.Chips = p.Chips
				pv.CurrentBet = p.Bet
				pv.TotalBet = p.TotalBet
				pv.Folded = p.Folded
				pv.AllIn = p.AllInFlag
				pv.IsDealer = hs == r.hand.Button
				pv.IsSB = hs == r.hand.SmallBlindSeat()
				pv.IsBB = hs == r.hand.BigBlindSeat()
				pv.IsCurrent = hs == r.hand.ActivePlayer

				// Hole cards: the owner always sees them; everyone sees a
				// live hand at showdown. An uncontested win never reveals,
				// the winner mucks.
				if p.HoleCards != 0 {
					if s.playerID == viewerID || (showdown && !p.Folded) {
						for _, c := range p.HoleCards.Cards() {
							pv.Hand = append(pv.Hand, NewCardView(c))
						}
					} else {
						pv.Hand = []CardView{HiddenCardView(), HiddenCardView()}
					}
				}
			}
		}

		views[i] = pv
	}
	return views
}
