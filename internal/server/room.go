package server

import (
	"errors"
	"fmt"
	rand "math/rand/v2"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/holdem-rooms/internal/game"
	"github.com/lox/holdem-rooms/internal/gameid"
)

const (
	// inboxSize bounds the command queue; senders block when a room falls
	// behind rather than growing memory without limit
	inboxSize = 64

	// maxChatLength clamps a single chat line
	maxChatLength = 200

	// maxChatHistory bounds the retained chat log
	maxChatHistory = 100

	// snapshotHistory is how many recent actions a snapshot carries
	snapshotHistory = 10
)

// ErrRoomClosed is returned for commands sent to a room that has shut down
var ErrRoomClosed = errors.New("room is closed")

// RoomConfig fixes a room's table parameters at creation
type RoomConfig struct {
	Name          string
	Mode          game.BettingMode
	SmallBlind    int
	BigBlind      int
	Ante          int
	StartingChips int
	MaxPlayers    int
	TurnTimeout   time.Duration
}

// seat is one occupied chair: the stable player identity plus the chips it
// carries between hands. The seat survives a dropped connection; only an
// explicit leave releases it.
type seat struct {
	playerID  string
	name      string
	chips     int
	connected bool
}

// roomPhase tracks where the room is between hands
type roomPhase int

const (
	phaseLobby roomPhase = iota
	phaseInHand
	phaseBetweenHands
)

// timerKey identifies one exact acting state. A timer fire whose key no
// longer matches the live hand is stale and must be dropped: Stop cannot
// recall a callback that is already in flight.
type timerKey struct {
	handID      string
	seat        int
	actionIndex int
}

// Room commands. The inbox serialises them so the run goroutine is the
// only writer of room state; handlers validate and forward, never mutate.

type roomCommand interface{ isRoomCommand() }

type joinCmd struct {
	playerID string
	name     string
	reply    chan error
}

type leaveCmd struct{ playerID string }

type disconnectCmd struct{ playerID string }

type actionCmd struct {
	playerID string
	cmd      ClientCommand
}

type timerFiredCmd struct{ key timerKey }

type snapshotCmd struct {
	playerID string
	reply    chan *Snapshot
}

type infoCmd struct{ reply chan RoomInfo }

type shutdownCmd struct{ reply chan struct{} }

func (joinCmd) isRoomCommand()       {}
func (leaveCmd) isRoomCommand()      {}
func (disconnectCmd) isRoomCommand() {}
func (actionCmd) isRoomCommand()     {}
func (timerFiredCmd) isRoomCommand() {}
func (snapshotCmd) isRoomCommand()   {}
func (infoCmd) isRoomCommand()       {}
func (shutdownCmd) isRoomCommand()   {}

// Room owns all per-room mutable state: the seats, the live hand, the chat
// log and the action timer. A single goroutine drains the inbox and is the
// only state writer, so hands never see interleaved mutation and no locks
// guard game state.
type Room struct {
	ID string

	cfg      RoomConfig
	sessions *SessionManager
	logger   *log.Logger
	clock    quartz.Clock
	rng      *rand.Rand

	inbox chan roomCommand
	done  chan struct{}

	// deregister is called from the room goroutine when the room closes
	// itself (last player left, or an invariant failed); the registry uses
	// it to drop the room from the directory.
	deregister func(roomID string)

	// State below is owned by run().
	seats       []*seat
	owner       string
	phase       roomPhase
	hand        *game.HandState
	handSeats   []string // playerID per hand seat index
	button      int
	chat        []ChatData
	lastWinners []WinnerView
	failed      bool

	timer        *quartz.Timer
	timerKey     timerKey
	turnDeadline time.Time
}

// NewRoom creates a room. Call Start to begin processing commands.
func NewRoom(id string, cfg RoomConfig, sessions *SessionManager, logger *log.Logger, clock quartz.Clock, rng *rand.Rand, deregister func(string)) *Room {
	return &Room{
		ID:         id,
		cfg:        cfg,
		sessions:   sessions,
		logger:     logger.WithPrefix("room").With("room", id),
		clock:      clock,
		rng:        rng,
		inbox:      make(chan roomCommand, inboxSize),
		done:       make(chan struct{}),
		deregister: deregister,
		phase:      phaseLobby,
		button:     -1,
	}
}

// Start launches the room goroutine
func (r *Room) Start() {
	go r.run()
}

// Join seats the player, or reattaches them when the ID is already seated.
// Blocks until the room has processed the command.
func (r *Room) Join(playerID, name string) error {
	reply := make(chan error, 1)
	if !r.post(joinCmd{playerID: playerID, name: name, reply: reply}) {
		return ErrRoomClosed
	}
	select {
	case err := <-reply:
		return err
	case <-r.done:
		return ErrRoomClosed
	}
}

// Dispatch forwards a client frame into the room. Frames from one
// connection are processed in send order.
func (r *Room) Dispatch(playerID string, cmd ClientCommand) {
	r.post(actionCmd{playerID: playerID, cmd: cmd})
}

// Disconnect marks the player's transport dead. It never blocks: a send
// inside a broadcast can tear down a connection, which lands here on the
// room's own goroutine.
func (r *Room) Disconnect(playerID string) {
	select {
	case r.inbox <- disconnectCmd{playerID: playerID}:
	case <-r.done:
	default:
		go r.post(disconnectCmd{playerID: playerID})
	}
}

// StateFor returns the player's personalised snapshot, or nil when the
// room has shut down.
func (r *Room) StateFor(playerID string) *Snapshot {
	reply := make(chan *Snapshot, 1)
	if !r.post(snapshotCmd{playerID: playerID, reply: reply}) {
		return nil
	}
	select {
	case snap := <-reply:
		return snap
	case <-r.done:
		return nil
	}
}

// Info returns the room's lobby listing
func (r *Room) Info() RoomInfo {
	closed := RoomInfo{ID: r.ID, Name: r.cfg.Name, Stage: "closed", Mode: r.cfg.Mode.String()}
	reply := make(chan RoomInfo, 1)
	if !r.post(infoCmd{reply: reply}) {
		return closed
	}
	select {
	case info := <-reply:
		return info
	case <-r.done:
		return closed
	}
}

// Shutdown stops the room goroutine and closes its connections. Safe to
// call more than once.
func (r *Room) Shutdown() {
	reply := make(chan struct{})
	if !r.post(shutdownCmd{reply: reply}) {
		return
	}
	select {
	case <-reply:
	case <-r.done:
	}
}

// post queues a command unless the room has shut down
func (r *Room) post(cmd roomCommand) bool {
	select {
	case r.inbox <- cmd:
		return true
	case <-r.done:
		return false
	}
}

func (r *Room) run() {
	for {
		select {
		case cmd := <-r.inbox:
			r.handle(cmd)
			select {
			case <-r.done:
				r.drain()
				return
			default:
			}
		case <-r.done:
			r.drain()
			return
		}
	}
}

// drain answers whatever was queued behind the shutdown so no caller is
// left waiting on a reply channel.
func (r *Room) drain() {
	for {
		select {
		case cmd := <-r.inbox:
			switch c := cmd.(type) {
			case joinCmd:
				c.reply <- ErrRoomClosed
			case snapshotCmd:
				c.reply <- nil
			case infoCmd:
				c.reply <- r.info()
			case shutdownCmd:
				close(c.reply)
			}
		default:
			return
		}
	}
}

func (r *Room) handle(cmd roomCommand) {
	switch c := cmd.(type) {
	case joinCmd:
		c.reply <- r.handleJoin(c.playerID, c.name)
	case leaveCmd:
		r.handleLeave(c.playerID)
	case disconnectCmd:
		r.handleDisconnect(c.playerID)
	case actionCmd:
		r.handleCommand(c.playerID, c.cmd)
	case timerFiredCmd:
		r.handleTimerFired(c.key)
	case snapshotCmd:
		c.reply <- r.snapshotFor(c.playerID)
	case infoCmd:
		c.reply <- r.info()
	case shutdownCmd:
		r.close()
		close(c.reply)
	}
}

func (r *Room) handleJoin(playerID, name string) error {
	if s := r.seatOf(playerID); s != nil {
		// Same identity on a fresh transport is a reconnect
		s.connected = true
		if name != "" {
			s.name = name
		}
		r.logger.Info("Player reconnected", "player", playerID, "name", s.name)
		r.replayChat(playerID)
		r.broadcastState()
		return nil
	}

	if len(r.seats) >= r.cfg.MaxPlayers {
		return fmt.Errorf("room is full (%d players)", r.cfg.MaxPlayers)
	}
	if r.phase == phaseInHand {
		return fmt.Errorf("a hand is in progress, try again when it finishes")
	}
	if name == "" {
		name = playerID
	}

	r.seats = append(r.seats, &seat{
		playerID:  playerID,
		name:      name,
		chips:     r.cfg.StartingChips,
		connected: true,
	})
	if r.owner == "" {
		r.owner = playerID
	}

	r.logger.Info("Player joined", "player", playerID, "name", name, "seats", len(r.seats))
	r.replayChat(playerID)
	r.systemChat(fmt.Sprintf("%s joined the room", name))
	r.broadcastState()
	return nil
}

// replayChat catches a fresh transport up on the retained chat log
func (r *Room) replayChat(playerID string) {
	for _, entry := range r.chat {
		msg, err := NewMessage(MessageTypeChat, entry)
		if err != nil {
			continue
		}
		if err := r.sessions.Send(r.ID, playerID, msg); err != nil {
			return
		}
	}
}

func (r *Room) handleLeave(playerID string) {
	s := r.seatOf(playerID)
	if s == nil {
		return
	}

	// A live hand sees the departure as a fold
	if r.phase == phaseInHand && r.hand != nil && !r.hand.Finished() {
		if hs := r.handSeatOf(playerID); hs >= 0 && !r.hand.Players[hs].Folded {
			r.hand.ForceFold(hs)
		}
	}

	r.removeSeat(playerID)
	r.logger.Info("Player left", "player", playerID, "seats", len(r.seats))
	r.systemChat(fmt.Sprintf("%s left the room", s.name))
	r.sessions.ClosePlayer(r.ID, playerID)

	if len(r.seats) == 0 {
		r.logger.Info("Room is empty, shutting down")
		r.close()
		if r.deregister != nil {
			r.deregister(r.ID)
		}
		return
	}

	if r.owner == playerID {
		r.owner = r.seats[0].playerID
		r.systemChat(fmt.Sprintf("%s is now the room owner", r.seats[0].name))
	}

	if r.phase == phaseInHand {
		r.advance()
		return
	}
	r.broadcastState()
}

func (r *Room) handleDisconnect(playerID string) {
	s := r.seatOf(playerID)
	if s == nil || !s.connected {
		return
	}
	// A reconnect may already have attached a replacement transport; the
	// close of the displaced one must not mark the seat away
	if r.sessions.Connected(r.ID, playerID) {
		return
	}

	s.connected = false
	r.logger.Info("Player disconnected", "player", playerID)
	r.broadcastState()
}

func (r *Room) handleCommand(playerID string, cmd ClientCommand) {
	s := r.seatOf(playerID)
	if s == nil {
		r.sendError(playerID, "not_in_room", "You are not seated in this room")
		return
	}

	switch cmd.Action {
	case ActionChat:
		r.handleChat(s, cmd.Content)
	case ActionStartGame:
		r.handleStartGame(playerID)
	case ActionLeave:
		r.handleLeave(playerID)
	case ActionFold, ActionCheck, ActionCall, ActionBet, ActionRaise, ActionAllIn:
		r.handleGameAction(playerID, cmd)
	default:
		r.sendError(playerID, "unknown_action", fmt.Sprintf("Unknown action %q", cmd.Action))
	}
}

func (r *Room) handleChat(s *seat, content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	if runes := []rune(content); len(runes) > maxChatLength {
		content = string(runes[:maxChatLength])
	}

	r.appendChat(ChatData{
		PlayerName: s.name,
		Content:    content,
		MsgType:    ChatTypePlayer,
		Timestamp:  r.clock.Now().Unix(),
	})
}

func (r *Room) handleStartGame(playerID string) {
	if playerID != r.owner {
		r.sendError(playerID, "not_owner", "Only the room owner can start the game")
		return
	}
	if r.phase == phaseInHand {
		r.sendError(playerID, "hand_in_progress", "A hand is already in progress")
		return
	}

	funded := 0
	for _, s := range r.seats {
		if s.chips > 0 {
			funded++
		}
	}
	if funded < 2 {
		r.sendError(playerID, "not_enough_players", "Need at least 2 players with chips")
		return
	}

	r.button = r.nextFundedSeat(r.button + 1)

	names := make([]string, len(r.seats))
	stacks := make([]int, len(r.seats))
	r.handSeats = make([]string, len(r.seats))
	for i, s := range r.seats {
		names[i] = s.name
		stacks[i] = s.chips
		r.handSeats[i] = s.playerID
	}

	r.hand = game.NewHand(r.rng, names, r.button, r.cfg.SmallBlind, r.cfg.BigBlind,
		game.WithID(gameid.Generate()),
		game.WithBettingMode(r.cfg.Mode),
		game.WithAnte(r.cfg.Ante),
		game.WithChips(stacks),
	)
	r.phase = phaseInHand
	r.lastWinners = nil

	r.logger.Info("Hand started", "hand", r.hand.ID, "players", funded, "button", r.button)
	r.systemChat("New hand dealt")
	r.advance()
}

func (r *Room) handleGameAction(playerID string, cmd ClientCommand) {
	if r.phase != phaseInHand || r.hand == nil || r.hand.Finished() {
		r.sendError(playerID, "no_hand", "No hand is in progress")
		return
	}
	seatIdx := r.handSeatOf(playerID)
	if seatIdx < 0 {
		r.sendError(playerID, "not_in_hand", "You are not in this hand")
		return
	}

	kind, err := game.ParseActionKind(cmd.Action)
	if err != nil {
		r.sendError(playerID, "unknown_action", err.Error())
		return
	}

	// A rejected action leaves the hand untouched: the sender alone hears
	// about it and the turn timer keeps running
	if err := r.hand.ProcessAction(seatIdx, kind, cmd.Amount); err != nil {
		r.sendError(playerID, "illegal_action", err.Error())
		return
	}

	r.stopTimer()
	r.advance()
}

func (r *Room) handleTimerFired(key timerKey) {
	// Only the currently armed timer may act. Stop cannot recall a fire
	// already in flight, so anything else is stale and dropped.
	if r.timer == nil || key != r.timerKey {
		return
	}
	if r.phase != phaseInHand || r.hand == nil || r.hand.Finished() {
		return
	}
	if r.hand.ID != key.handID || r.hand.ActivePlayer != key.seat {
		return
	}

	p := r.hand.Players[key.seat]
	bounds := r.hand.Bounds(key.seat)
	connected := false
	if key.seat < len(r.handSeats) {
		if s := r.seatOf(r.handSeats[key.seat]); s != nil {
			connected = s.connected
		}
	}

	// Free check for a present player; everyone else folds. A disconnected
	// seat folds even when checking would be free, so an absent player
	// cannot ride the timer to showdown for nothing.
	if connected && bounds.CanCheck {
		if err := r.hand.ProcessAction(key.seat, game.Check, 0); err != nil {
			r.fail(fmt.Errorf("timeout check rejected: %w", err))
			return
		}
		r.logger.Info("Player timed out, checked", "player", p.Name, "seat", key.seat)
		r.systemChat(fmt.Sprintf("%s timed out and checked", p.Name))
	} else {
		r.hand.ForceFold(key.seat)
		r.logger.Info("Player timed out, folded", "player", p.Name, "seat", key.seat)
		r.systemChat(fmt.Sprintf("%s timed out and folded", p.Name))
	}

	r.stopTimer()
	r.advance()
}

// advance walks the hand forward after a mutation: it runs out streets
// whose betting is closed, finishes the hand when it is over, and
// otherwise re-arms the action timer and broadcasts the new state.
func (r *Room) advance() {
	if r.hand == nil || r.failed {
		return
	}

	if r.hand.Uncontested() {
		r.finishHand()
		return
	}

	for r.hand.StreetComplete() && r.hand.Street != game.Showdown {
		if err := r.hand.NextStreet(); err != nil {
			r.fail(err)
			return
		}
		if r.hand.Street == game.Showdown {
			break
		}
		r.systemChat(fmt.Sprintf("Dealing the %s", r.hand.Street))
		if r.hand.StreetComplete() {
			// Board run-out with nobody left to act: show each street
			r.broadcastState()
		}
	}

	if r.hand.Street == game.Showdown {
		r.finishHand()
		return
	}

	if err := r.hand.CheckConservation(); err != nil {
		r.fail(err)
		return
	}

	// Re-arm only when the acting turn changed; a fold elsewhere at the
	// table must not reset the acting player's clock
	if r.timer == nil || r.timerKey.handID != r.hand.ID || r.timerKey.seat != r.hand.ActivePlayer {
		r.armTimer()
	}
	r.broadcastState()
}

func (r *Room) finishHand() {
	r.stopTimer()

	winners, err := r.hand.Finish()
	if err != nil {
		r.fail(err)
		return
	}

	r.lastWinners = make([]WinnerView, 0, len(winners))
	for _, w := range winners {
		r.lastWinners = append(r.lastWinners, WinnerView{Name: w.Name, Amount: w.Amount, HandName: w.HandName})
		if w.HandName != "" {
			r.systemChat(fmt.Sprintf("%s wins %d with %s", w.Name, w.Amount, w.HandName))
		} else {
			r.systemChat(fmt.Sprintf("%s wins %d", w.Name, w.Amount))
		}
	}

	// Carry final stacks back onto the seats
	for i, playerID := range r.handSeats {
		if s := r.seatOf(playerID); s != nil {
			s.chips = r.hand.Players[i].Chips
		}
	}

	r.phase = phaseBetweenHands
	r.logger.Info("Hand finished", "hand", r.hand.ID, "winners", len(winners))
	r.broadcastState()
}

// fail closes the room after an internal invariant violation. Chips
// committed to the unfinished hand are returned to their owners so the
// failure never destroys anyone's stack, then everyone is told and the
// room shuts down.
func (r *Room) fail(err error) {
	r.logger.Error("Room failed, closing", "error", err)
	r.failed = true
	r.stopTimer()

	if r.hand != nil && !r.hand.Finished() {
		for i, p := range r.hand.Players {
			p.Chips += p.TotalBet
			p.TotalBet = 0
			p.Bet = 0
			if i < len(r.handSeats) {
				if s := r.seatOf(r.handSeats[i]); s != nil {
					s.chips = p.Chips
				}
			}
		}
	}
	r.hand = nil
	r.phase = phaseLobby

	if msg, merr := NewMessage(MessageTypeRoomError, RoomErrorData{
		Message: fmt.Sprintf("room closed after internal error: %v", err),
	}); merr == nil {
		r.sessions.Broadcast(r.ID, msg)
	}

	r.close()
	if r.deregister != nil {
		r.deregister(r.ID)
	}
}

// close stops the timer, releases waiters and closes every transport.
// Only ever called from the room goroutine.
func (r *Room) close() {
	r.stopTimer()
	select {
	case <-r.done:
	default:
		close(r.done)
	}
	r.sessions.CloseRoom(r.ID)
}

// armTimer starts the action clock for the acting seat, replacing any
// previous timer. The captured key ties the fire to this one turn.
func (r *Room) armTimer() {
	r.stopTimer()
	if r.hand == nil || r.hand.ActivePlayer < 0 {
		return
	}

	key := timerKey{handID: r.hand.ID, seat: r.hand.ActivePlayer, actionIndex: r.hand.ActionIndex}
	r.timerKey = key
	r.turnDeadline = r.clock.Now().Add(r.cfg.TurnTimeout)
	r.timer = r.clock.AfterFunc(r.cfg.TurnTimeout, func() {
		select {
		case r.inbox <- timerFiredCmd{key: key}:
		case <-r.done:
		}
	})
}

func (r *Room) stopTimer() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.timerKey = timerKey{}
	r.turnDeadline = time.Time{}
}

// appendChat records a chat line and broadcasts it
func (r *Room) appendChat(msg ChatData) {
	r.chat = append(r.chat, msg)
	if len(r.chat) > maxChatHistory {
		r.chat = r.chat[len(r.chat)-maxChatHistory:]
	}

	wire, err := NewMessage(MessageTypeChat, msg)
	if err != nil {
		r.logger.Error("Failed to encode chat message", "error", err)
		return
	}
	r.sessions.Broadcast(r.ID, wire)
}

func (r *Room) systemChat(content string) {
	r.appendChat(ChatData{
		PlayerName: "System",
		Content:    content,
		MsgType:    ChatTypeSystem,
		Timestamp:  r.clock.Now().Unix(),
	})
}

// sendError delivers an error frame to one player without touching state
func (r *Room) sendError(playerID, code, message string) {
	msg, err := NewMessage(MessageTypeError, ErrorData{Code: code, Message: message})
	if err != nil {
		r.logger.Error("Failed to encode error message", "error", err)
		return
	}
	if err := r.sessions.Send(r.ID, playerID, msg); err != nil {
		r.logger.Debug("Could not deliver error", "player", playerID, "error", err)
	}
}

// broadcastState fans a personalised snapshot out to every connected player
func (r *Room) broadcastState() {
	r.sessions.BroadcastPersonal(r.ID, func(playerID string) *Message {
		msg, err := NewMessage(MessageTypeGameState, r.snapshotFor(playerID))
		if err != nil {
			r.logger.Error("Failed to encode snapshot", "player", playerID, "error", err)
			return nil
		}
		return msg
	})
}

func (r *Room) info() RoomInfo {
	return RoomInfo{
		ID:          r.ID,
		Name:        r.cfg.Name,
		PlayerCount: len(r.seats),
		Stage:       r.stage(),
		Mode:        r.cfg.Mode.String(),
	}
}

// stage is the wire name for the room's current state
func (r *Room) stage() string {
	if r.hand == nil {
		return "waiting"
	}
	if r.hand.Finished() {
		return game.Showdown.String()
	}
	return r.hand.Street.String()
}

func (r *Room) seatOf(playerID string) *seat {
	for _, s := range r.seats {
		if s.playerID == playerID {
			return s
		}
	}
	return nil
}

// handSeatOf maps a player to their seat index in the live hand, -1 when
// they are not in it
func (r *Room) handSeatOf(playerID string) int {
	for i, id := range r.handSeats {
		if id == playerID {
			return i
		}
	}
	return -1
}

func (r *Room) removeSeat(playerID string) {
	for i, s := range r.seats {
		if s.playerID == playerID {
			r.seats = append(r.seats[:i], r.seats[i+1:]...)
			// Keep the button on the same physical seat
			if r.button > i {
				r.button--
			}
			return
		}
	}
}

// nextFundedSeat scans clockwise from the given index for a seat with chips
func (r *Room) nextFundedSeat(from int) int {
	n := len(r.seats)
	for i := 0; i < n; i++ {
		idx := ((from+i)%n + n) % n
		if r.seats[idx].chips > 0 {
			return idx
		}
	}
	return 0
}
