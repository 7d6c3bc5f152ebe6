package server

import (
	"strings"
	"testing"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/lox/holdem-rooms/internal/randutil"
)

func TestJoinSeatsPlayersInOrder(t *testing.T) {
	t.Parallel()
	s := newSyncRoom(t, defaultRoomConfig())

	trAlice := s.join("p1", "Alice")
	s.join("p2", "Bob")
	s.join("p3", "Carol")

	snap := s.snap("p1")
	require.Len(t, snap.Players, 3)
	require.Equal(t, "Alice", snap.Players[0].Name)
	require.Equal(t, "Bob", snap.Players[1].Name)
	require.Equal(t, "Carol", snap.Players[2].Name)
	for _, p := range snap.Players {
		require.Equal(t, 1000, p.Chips)
	}

	// First joiner owns the room
	require.True(t, snap.IsRoomOwner)
	require.False(t, s.snap("p2").IsRoomOwner)

	// Everyone saw the join broadcasts
	require.NotZero(t, trAlice.countByType(MessageTypeGameState))
}

func TestJoinRejectedWhenFull(t *testing.T) {
	t.Parallel()
	cfg := defaultRoomConfig()
	cfg.MaxPlayers = 2
	s := newSyncRoom(t, cfg)

	s.join("p1", "Alice")
	s.join("p2", "Bob")

	err := s.room.handleJoin("p3", "Carol")
	require.Error(t, err)
	require.Contains(t, err.Error(), "full")
	require.Len(t, s.snap("p1").Players, 2)
}

func TestJoinRejectedMidHand(t *testing.T) {
	t.Parallel()
	s := newSyncRoom(t, defaultRoomConfig())
	s.join("p1", "Alice")
	s.join("p2", "Bob")
	s.start("p1")

	err := s.room.handleJoin("p3", "Carol")
	require.Error(t, err)
	require.Contains(t, err.Error(), "hand is in progress")

	// The same identity may reattach while the hand runs
	require.NoError(t, s.room.handleJoin("p2", "Bob"))
	require.Len(t, s.snap("p1").Players, 2)
}

func TestJoinBetweenHandsAllowed(t *testing.T) {
	t.Parallel()
	s := newSyncRoom(t, defaultRoomConfig())
	s.join("p1", "Alice")
	s.join("p2", "Bob")
	s.start("p1")

	// Fold out the hand, then a new player may sit down
	s.cmd("p1", ActionFold, 0)
	require.True(t, s.room.hand.Finished())

	require.NoError(t, s.room.handleJoin("p3", "Carol"))
	snap := s.snap("p3")
	require.Len(t, snap.Players, 3)
	require.Equal(t, "showdown", snap.Stage)

	// The newcomer has no cards and full starting chips
	require.Empty(t, snap.Players[2].Hand)
	require.Equal(t, 1000, snap.Players[2].Chips)
}

func TestStartGameOwnerOnly(t *testing.T) {
	t.Parallel()
	s := newSyncRoom(t, defaultRoomConfig())
	s.join("p1", "Alice")
	trBob := s.join("p2", "Bob")

	s.cmd("p2", ActionStartGame, 0)
	require.Nil(t, s.room.hand)
	require.Contains(t, trBob.errorCodes(t), "not_owner")

	s.cmd("p1", ActionStartGame, 0)
	require.NotNil(t, s.room.hand)
	require.Equal(t, "preflop", s.snap("p1").Stage)
}

func TestStartGameNeedsTwoFundedPlayers(t *testing.T) {
	t.Parallel()
	s := newSyncRoom(t, defaultRoomConfig())
	trAlice := s.join("p1", "Alice")

	s.cmd("p1", ActionStartGame, 0)
	require.Nil(t, s.room.hand)
	require.Contains(t, trAlice.errorCodes(t), "not_enough_players")

	// A busted second player does not make a game
	s.join("p2", "Bob")
	s.room.seats[1].chips = 0
	s.cmd("p1", ActionStartGame, 0)
	require.Nil(t, s.room.hand)
}

func TestStartGamePostsBlindsAndDeals(t *testing.T) {
	t.Parallel()
	s := newSyncRoom(t, defaultRoomConfig())
	s.join("p1", "Alice")
	s.join("p2", "Bob")
	s.start("p1")

	snap := s.snap("p1")
	require.Equal(t, "preflop", snap.Stage)

	// Heads-up: the button posts the small blind and acts first
	require.True(t, snap.Players[0].IsDealer)
	require.True(t, snap.Players[0].IsSB)
	require.True(t, snap.Players[1].IsBB)
	require.Equal(t, 10, snap.Players[0].CurrentBet)
	require.Equal(t, 20, snap.Players[1].CurrentBet)
	require.Equal(t, 990, snap.Players[0].Chips)
	require.Equal(t, 980, snap.Players[1].Chips)
	require.True(t, snap.IsMyTurn)
	require.Equal(t, 10, snap.ToCall)

	// Each player sees two cards of their own
	require.Len(t, snap.Players[0].Hand, 2)
	require.False(t, snap.Players[0].Hand[0].Hidden)
}

func TestSecondHandMovesButton(t *testing.T) {
	t.Parallel()
	s := newSyncRoom(t, defaultRoomConfig())
	s.join("p1", "Alice")
	s.join("p2", "Bob")
	s.join("p3", "Carol")

	s.start("p1")
	require.True(t, s.snap("p1").Players[0].IsDealer)

	// Fold to a winner, then deal again
	for !s.room.hand.Finished() {
		actor := s.room.hand.ActivePlayer
		require.GreaterOrEqual(t, actor, 0)
		s.cmd(s.room.handSeats[actor], ActionFold, 0)
	}

	s.cmd("p1", ActionStartGame, 0)
	snap := s.snap("p1")
	require.Equal(t, "preflop", snap.Stage)
	require.True(t, snap.Players[1].IsDealer, "button should advance to the next seat")
}

func TestLeaveTransfersOwnership(t *testing.T) {
	t.Parallel()
	s := newSyncRoom(t, defaultRoomConfig())
	s.join("p1", "Alice")
	trBob := s.join("p2", "Bob")
	s.join("p3", "Carol")

	s.cmd("p1", ActionLeave, 0)

	snapBob := s.snap("p2")
	require.Len(t, snapBob.Players, 2)
	require.Equal(t, "Bob", snapBob.Players[0].Name)
	require.True(t, snapBob.IsRoomOwner)
	require.False(t, s.snap("p3").IsRoomOwner)

	var contents []string
	for _, c := range trBob.chats(t) {
		contents = append(contents, c.Content)
	}
	require.Contains(t, contents, "Alice left the room")
	require.Contains(t, contents, "Bob is now the room owner")
}

func TestLeaveMidHandFoldsSeat(t *testing.T) {
	t.Parallel()
	s := newSyncRoom(t, defaultRoomConfig())
	s.join("p1", "Alice")
	s.join("p2", "Bob")
	s.join("p3", "Carol")
	s.start("p1")

	// Three-handed: seat 0 is the button and acts first preflop.
	// A non-actor leaving folds their hand but play continues.
	s.cmd("p2", ActionLeave, 0)
	require.Len(t, s.room.seats, 2)
	require.NotNil(t, s.room.hand)
	require.False(t, s.room.hand.Finished())
	require.True(t, s.room.hand.Players[1].Folded)

	// The actor leaving passes the turn; with one player left the hand ends
	s.cmd("p1", ActionLeave, 0)
	require.True(t, s.room.hand.Finished())

	snap := s.snap("p3")
	require.Equal(t, "showdown", snap.Stage)
	require.Len(t, snap.Winners, 1)
	require.Equal(t, "Carol", snap.Winners[0].Name)
	require.Empty(t, snap.Winners[0].HandName)
}

func TestLastLeaveClosesRoom(t *testing.T) {
	t.Parallel()
	removed := make(chan string, 1)
	sessions := NewSessionManager(testLogger())
	room := NewRoom("TESTROOM", defaultRoomConfig(), sessions, testLogger(),
		quartz.NewMock(t), randutil.New(1), func(id string) { removed <- id })

	require.NoError(t, room.handleJoin("p1", "Alice"))
	room.handleLeave("p1")

	select {
	case id := <-removed:
		require.Equal(t, "TESTROOM", id)
	default:
		t.Fatal("deregister was not called")
	}
	select {
	case <-room.done:
	default:
		t.Fatal("room did not close")
	}
}

func TestReconnectKeepsSeatAndChips(t *testing.T) {
	t.Parallel()
	s := newSyncRoom(t, defaultRoomConfig())
	s.join("p1", "Alice")
	trBob := s.join("p2", "Bob")
	s.start("p1")

	// Bob's transport dies mid-hand; the seat stays
	s.sessions.Unregister(s.room.ID, "p2", trBob)
	s.room.handleDisconnect("p2")
	require.Len(t, s.room.seats, 2)
	require.False(t, s.room.seats[1].connected)

	// Reconnecting reattaches and resends the full state
	tr2 := &fakeTransport{}
	s.sessions.Register(s.room.ID, "p2", tr2)
	require.NoError(t, s.room.handleJoin("p2", "Bob"))
	require.True(t, s.room.seats[1].connected)

	snap := tr2.lastSnapshot(t)
	require.Equal(t, "preflop", snap.Stage)
	require.Len(t, snap.Players, 2)
	require.Len(t, snap.Players[1].Hand, 2)
	require.False(t, snap.Players[1].Hand[0].Hidden, "own cards visible after reconnect")
	require.True(t, snap.Players[0].Hand[0].Hidden, "opponent cards stay hidden")
}

func TestChatClampsAndBroadcasts(t *testing.T) {
	t.Parallel()
	s := newSyncRoom(t, defaultRoomConfig())
	trAlice := s.join("p1", "Alice")
	trBob := s.join("p2", "Bob")

	s.room.handleCommand("p1", ClientCommand{Action: ActionChat, Content: "  hello  "})
	chats := trBob.chats(t)
	last := chats[len(chats)-1]
	require.Equal(t, "Alice", last.PlayerName)
	require.Equal(t, "hello", last.Content)
	require.Equal(t, ChatTypePlayer, last.MsgType)

	// Long lines are clamped to 200 runes
	s.room.handleCommand("p1", ClientCommand{Action: ActionChat, Content: strings.Repeat("x", 250)})
	chats = trAlice.chats(t)
	require.Len(t, chats[len(chats)-1].Content, maxChatLength)

	// Blank lines are dropped
	before := trBob.countByType(MessageTypeChat)
	s.room.handleCommand("p1", ClientCommand{Action: ActionChat, Content: "   "})
	require.Equal(t, before, trBob.countByType(MessageTypeChat))
}

func TestChatHistoryCappedAndReplayed(t *testing.T) {
	t.Parallel()
	s := newSyncRoom(t, defaultRoomConfig())
	s.join("p1", "Alice")

	for i := 0; i < maxChatHistory+5; i++ {
		s.room.handleCommand("p1", ClientCommand{Action: ActionChat, Content: "line"})
	}
	require.Len(t, s.room.chat, maxChatHistory)

	// A new joiner gets the retained log, then the join announcement
	trBob := s.join("p2", "Bob")
	chats := trBob.chats(t)
	require.Len(t, chats, maxChatHistory+1)
	require.Equal(t, "Bob joined the room", chats[len(chats)-1].Content)
}

func TestIllegalActionRejectedWithoutBroadcast(t *testing.T) {
	t.Parallel()
	s := newSyncRoom(t, defaultRoomConfig())
	trAlice := s.join("p1", "Alice")
	trBob := s.join("p2", "Bob")
	s.start("p1")

	before := s.snap("p1")
	aliceStates := trAlice.countByType(MessageTypeGameState)
	bobStates := trBob.countByType(MessageTypeGameState)

	// Heads-up, seat 0 acts first; Bob is out of turn
	s.cmd("p2", ActionCall, 0)
	require.Contains(t, trBob.errorCodes(t), "illegal_action")

	// Checking when facing a bet is just as illegal
	s.cmd("p1", ActionCheck, 0)
	require.Contains(t, trAlice.errorCodes(t), "illegal_action")

	// Nothing changed and nobody got a new snapshot
	after := s.snap("p1")
	require.Equal(t, before.Players, after.Players)
	require.Equal(t, before.CurrentBet, after.CurrentBet)
	require.Equal(t, aliceStates, trAlice.countByType(MessageTypeGameState))
	require.Equal(t, bobStates, trBob.countByType(MessageTypeGameState))
}

func TestUnknownActionRejected(t *testing.T) {
	t.Parallel()
	s := newSyncRoom(t, defaultRoomConfig())
	trAlice := s.join("p1", "Alice")

	s.room.handleCommand("p1", ClientCommand{Action: "jump"})
	require.Contains(t, trAlice.errorCodes(t), "unknown_action")

	s.cmd("p1", ActionFold, 0)
	require.Contains(t, trAlice.errorCodes(t), "no_hand")
}

func TestBetRaiseFlowUpdatesPotAndBets(t *testing.T) {
	t.Parallel()
	s := newSyncRoom(t, defaultRoomConfig())
	s.join("p1", "Alice")
	s.join("p2", "Bob")
	s.start("p1")

	// Raise is additive: 40 over the big blind puts the price at 60
	s.cmd("p1", ActionRaise, 40)
	snapBob := s.snap("p2")
	require.Equal(t, 60, snapBob.CurrentBet)
	require.Equal(t, 40, snapBob.ToCall)
	require.True(t, snapBob.IsMyTurn)
	require.True(t, snapBob.HasBetThisRound)

	// While the street is open the chips stay in front of the players
	require.Equal(t, 0, snapBob.MainPot)
	require.Equal(t, 60, snapBob.Players[0].CurrentBet)

	// Calling closes preflop and settles the pot
	s.cmd("p2", ActionCall, 0)
	snap := s.snap("p1")
	require.Equal(t, "flop", snap.Stage)
	require.Equal(t, 120, snap.MainPot)
	require.Empty(t, snap.SidePots)
	require.Equal(t, 0, snap.Players[0].CurrentBet)
	require.Equal(t, 0, snap.Players[1].CurrentBet)
	require.Len(t, snap.CommunityCards, 3)

	// Post-flop the non-button seat acts first heads-up
	require.True(t, s.snap("p2").IsMyTurn)

	history := snap.ActionHistory
	require.NotEmpty(t, history)
	require.Equal(t, "call", history[len(history)-1].Action)
}

func TestCheckedDownHandReachesShowdown(t *testing.T) {
	t.Parallel()
	s := newSyncRoom(t, defaultRoomConfig())
	s.join("p1", "Alice")
	s.join("p2", "Bob")
	s.start("p1")

	s.cmd("p1", ActionCall, 0)
	s.cmd("p2", ActionCheck, 0)
	for _, street := range []string{"flop", "turn", "river"} {
		require.Equal(t, street, s.snap("p1").Stage)
		s.cmd("p2", ActionCheck, 0)
		s.cmd("p1", ActionCheck, 0)
	}

	snap := s.snap("p1")
	require.Equal(t, "showdown", snap.Stage)
	require.Len(t, snap.CommunityCards, 5)
	require.NotEmpty(t, snap.Winners)
	for _, w := range snap.Winners {
		require.NotEmpty(t, w.HandName, "showdown winners carry a hand name")
	}
	require.True(t, snap.CanStart, "next hand can start after showdown")
	require.False(t, snap.IsMyTurn)

	// Chips conserved across the hand
	total := 0
	for _, p := range snap.Players {
		total += p.Chips
	}
	require.Equal(t, 2000, total)
}

func TestUncontestedWinMucksCards(t *testing.T) {
	t.Parallel()
	s := newSyncRoom(t, defaultRoomConfig())
	s.join("p1", "Alice")
	s.join("p2", "Bob")
	s.start("p1")

	s.cmd("p1", ActionFold, 0)

	snapAlice := s.snap("p1")
	require.Equal(t, "showdown", snapAlice.Stage)
	require.Len(t, snapAlice.Winners, 1)
	require.Equal(t, "Bob", snapAlice.Winners[0].Name)
	require.Equal(t, 30, snapAlice.Winners[0].Amount)
	require.Empty(t, snapAlice.Winners[0].HandName)

	// The winner's cards are never revealed on an uncontested win
	require.Equal(t, []CardView{HiddenCardView(), HiddenCardView()}, snapAlice.Players[1].Hand)

	require.Equal(t, 990, snapAlice.Players[0].Chips)
	require.Equal(t, 1010, snapAlice.Players[1].Chips)
}

func TestAllInRunOutBroadcastsEachStreet(t *testing.T) {
	t.Parallel()
	s := newSyncRoom(t, defaultRoomConfig())
	trAlice := s.join("p1", "Alice")
	s.join("p2", "Bob")
	s.start("p1")

	s.cmd("p1", ActionAllIn, 0)
	s.cmd("p2", ActionCall, 0)

	// Nobody can act, so the board runs out with a snapshot per street
	require.Equal(t, "showdown", s.snap("p1").Stage)
	for _, stage := range []string{"flop", "turn", "river"} {
		snap := trAlice.snapshotAtStage(t, stage)
		require.Equal(t, 2000, snap.MainPot)
	}

	final := trAlice.lastSnapshot(t)
	require.NotEmpty(t, final.Winners)
	total := 0
	for _, p := range final.Players {
		total += p.Chips
	}
	require.Equal(t, 2000, total)
}
