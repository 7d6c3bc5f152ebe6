package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/holdem-rooms/internal/client"
	"github.com/lox/holdem-rooms/internal/server"
)

const (
	logPane = iota
	inputPane
)

// Model renders one room session: a scrolling table log, a sidebar with
// the seats and pots, and an action pane where commands are typed.
type Model struct {
	client *client.Client
	lobby  *client.Lobby
	logger *log.Logger

	logViewport viewport.Model
	actionInput textinput.Model

	snap     *server.Snapshot
	gameLog  []string
	errLine  string
	quitting bool
	closed   bool
	nextRoom string

	focusedPane int
	width       int
	height      int
	initialized bool
}

func NewModel(c *client.Client, lobby *client.Lobby, logger *log.Logger) *Model {
	vp := viewport.New(40, 10)

	ti := textinput.New()
	ti.Placeholder = "fold / check / call / bet 40 / raise 60 ... anything else is chat"
	ti.Prompt = "> "
	ti.CharLimit = 200
	ti.Focus()

	return &Model{
		client:      c,
		lobby:       lobby,
		logger:      logger,
		logViewport: vp,
		actionInput: ti,
		focusedPane: inputPane,
	}
}

// NextRoom returns the room code the user hopped to with /join, or empty
// when the session ended for good.
func (m *Model) NextRoom() string {
	return m.nextRoom
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.initialized = true
		m.resizePanes()
		return m, nil

	case GameStateMsg:
		m.snap = msg.Snapshot
		m.errLine = ""
		return m, nil

	case ChatMsg:
		m.appendLog(formatChat(msg.Chat))
		return m, nil

	case ErrorMsg:
		m.errLine = msg.Err.Message
		m.appendLog(ErrorStyle.Render("error: " + msg.Err.Message))
		return m, nil

	case RoomClosedMsg:
		m.closed = true
		m.appendLog(WarningStyle.Render("room closed: " + msg.Reason))
		m.errLine = "room closed, press q to exit"
		return m, nil

	case DisconnectedMsg:
		m.closed = true
		m.appendLog(WarningStyle.Render("connection lost"))
		m.errLine = "disconnected, press q to exit"
		return m, nil

	case lobbyLinesMsg:
		for _, line := range msg.lines {
			m.appendLog(line)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, m.updatePanes(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Sequence(tea.ClearScreen, tea.Quit)

	case "q", "esc":
		// Plain q still types into the input box; it only quits once the
		// session is over or the log pane has focus.
		if m.closed || m.focusedPane == logPane {
			m.quitting = true
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		}

	case "tab":
		if m.focusedPane == logPane {
			m.focusedPane = inputPane
			m.actionInput.Focus()
		} else {
			m.focusedPane = logPane
			m.actionInput.Blur()
		}
		return m, nil

	case "enter":
		if m.focusedPane == inputPane {
			return m, m.submitInput()
		}
	}

	return m, m.updatePanes(msg)
}

// updatePanes routes remaining messages to whichever pane has focus.
func (m *Model) updatePanes(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if m.focusedPane == inputPane {
		m.actionInput, cmd = m.actionInput.Update(msg)
	} else {
		m.logViewport, cmd = m.logViewport.Update(msg)
	}
	return cmd
}

func (m *Model) submitInput() tea.Cmd {
	input := strings.TrimSpace(m.actionInput.Value())
	m.actionInput.SetValue("")
	if input == "" {
		return nil
	}

	if cmd, handled := m.lobbyCommand(input); handled {
		return cmd
	}

	cmd, quit, err := parseInput(input)
	if err != nil {
		m.errLine = err.Error()
		return nil
	}

	if cmd.Action != "" {
		if err := m.client.SendCommand(cmd); err != nil {
			m.errLine = err.Error()
			return nil
		}
	}
	if quit {
		m.quitting = true
		return tea.Sequence(tea.ClearScreen, tea.Quit)
	}
	return nil
}

// lobbyLinesMsg carries lobby command output into the log pane
type lobbyLinesMsg struct {
	lines []string
}

// lobbyCommand handles the slash verbs that talk to the lobby rather than
// the current room: listing rooms, creating one, and hopping to another.
// Slash-only, so bare words still read as chat.
func (m *Model) lobbyCommand(input string) (tea.Cmd, bool) {
	fields := strings.Fields(input)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return nil, false
	}
	verb := strings.ToLower(strings.TrimPrefix(fields[0], "/"))

	switch verb {
	case "rooms", "list":
		if m.lobby == nil {
			m.errLine = "lobby unavailable"
			return nil, true
		}
		lobby := m.lobby
		return func() tea.Msg {
			rooms, err := lobby.ListRooms()
			if err != nil {
				return lobbyLinesMsg{lines: []string{ErrorStyle.Render(err.Error())}}
			}
			if len(rooms) == 0 {
				return lobbyLinesMsg{lines: []string{InfoStyle.Render("no rooms open")}}
			}
			lines := make([]string, 0, len(rooms)+1)
			lines = append(lines, HandInfoStyle.Render("open rooms:"))
			for _, r := range rooms {
				lines = append(lines, fmt.Sprintf("  %s  %s (%s, %d players, %s)",
					r.ID, r.Name, r.Mode, r.PlayerCount, r.Stage))
			}
			return lobbyLinesMsg{lines: lines}
		}, true

	case "create":
		if m.lobby == nil {
			m.errLine = "lobby unavailable"
			return nil, true
		}
		lobby := m.lobby
		name := strings.TrimSpace(strings.TrimPrefix(input, fields[0]))
		return func() tea.Msg {
			info, err := lobby.CreateRoom(server.CreateRoomRequest{Name: name})
			if err != nil {
				return lobbyLinesMsg{lines: []string{ErrorStyle.Render(err.Error())}}
			}
			return lobbyLinesMsg{lines: []string{
				SuccessStyle.Render(fmt.Sprintf("created room %s, hop over with /join %s", info.ID, info.ID)),
			}}
		}, true

	case "join", "hop":
		if len(fields) < 2 {
			m.errLine = "join needs a room code, e.g. /join AB2C34DE"
			return nil, true
		}
		m.nextRoom = strings.ToUpper(fields[1])
		if m.client != nil {
			_ = m.client.Leave()
		}
		m.quitting = true
		return tea.Sequence(tea.ClearScreen, tea.Quit), true
	}

	return nil, false
}

// parseInput maps one typed line to a client command. Poker verbs act on
// the table, quit and leave end the session, and any line that is not a
// recognised verb is sent as table chat. A slash prefix forces command
// interpretation, so typos like /flod report an error instead of being
// broadcast to the table.
func parseInput(input string) (cmd server.ClientCommand, quit bool, err error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return server.ClientCommand{}, false, nil
	}

	slash := strings.HasPrefix(fields[0], "/")
	verb := strings.ToLower(strings.TrimPrefix(fields[0], "/"))

	switch verb {
	case "start", "deal":
		return server.ClientCommand{Action: server.ActionStartGame}, false, nil
	case "fold":
		return server.ClientCommand{Action: server.ActionFold}, false, nil
	case "check":
		return server.ClientCommand{Action: server.ActionCheck}, false, nil
	case "call":
		return server.ClientCommand{Action: server.ActionCall}, false, nil
	case "allin", "all-in", "jam":
		return server.ClientCommand{Action: server.ActionAllIn}, false, nil
	case "bet", "raise":
		if len(fields) < 2 {
			return server.ClientCommand{}, false, fmt.Errorf("%s needs an amount, e.g. %s 40", verb, verb)
		}
		amount, aerr := strconv.Atoi(fields[1])
		if aerr != nil || amount <= 0 {
			return server.ClientCommand{}, false, fmt.Errorf("%q is not a valid amount", fields[1])
		}
		action := server.ActionBet
		if verb == "raise" {
			action = server.ActionRaise
		}
		return server.ClientCommand{Action: action, Amount: amount}, false, nil
	case "say", "chat":
		content := strings.TrimSpace(strings.TrimPrefix(input, fields[0]))
		if content == "" {
			return server.ClientCommand{}, false, fmt.Errorf("nothing to say")
		}
		return server.ClientCommand{Action: server.ActionChat, Content: content}, false, nil
	case "leave":
		return server.ClientCommand{Action: server.ActionLeave}, true, nil
	case "quit", "exit":
		return server.ClientCommand{}, true, nil
	default:
		if slash {
			return server.ClientCommand{}, false, fmt.Errorf("unknown command %q", verb)
		}
		return server.ClientCommand{Action: server.ActionChat, Content: input}, false, nil
	}
}

func (m *Model) appendLog(entry string) {
	m.gameLog = append(m.gameLog, entry)
	if len(m.gameLog) > 500 {
		m.gameLog = m.gameLog[len(m.gameLog)-500:]
	}
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	m.logViewport.GotoBottom()
}

func (m *Model) resizePanes() {
	logWidth := m.width - m.sidebarWidth() - 6
	if logWidth < 20 {
		logWidth = 20
	}
	logHeight := m.height - m.actionPaneHeight() - 4
	if logHeight < 3 {
		logHeight = 3
	}
	m.logViewport.Width = logWidth
	m.logViewport.Height = logHeight
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	m.logViewport.GotoBottom()
}

func (m *Model) sidebarWidth() int {
	w := m.width / 3
	if w < 28 {
		w = 28
	}
	if w > 44 {
		w = 44
	}
	return w
}

func (m *Model) actionPaneHeight() int {
	return 8
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.initialized || m.width == 0 {
		return "Connecting..."
	}

	logBorder := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(m.logViewport.Width + 2).
		Height(m.logViewport.Height)
	if m.focusedPane == logPane {
		logBorder = logBorder.BorderForeground(lipgloss.Color("#7D56F4"))
	}

	sidebarBorder := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(m.sidebarWidth()).
		Height(m.logViewport.Height)

	actionBorder := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(m.width - 4).
		Height(m.actionPaneHeight())
	if m.focusedPane == inputPane {
		actionBorder = actionBorder.BorderForeground(lipgloss.Color("#7D56F4"))
	}

	topRow := lipgloss.JoinHorizontal(
		lipgloss.Top,
		logBorder.Render(m.logViewport.View()),
		sidebarBorder.Render(m.renderSidebar()),
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		topRow,
		actionBorder.Render(m.renderActionPane()),
	)
}

func (m *Model) renderSidebar() string {
	if m.snap == nil {
		return InfoStyle.Render("waiting for table state...")
	}

	var b strings.Builder
	s := m.snap

	b.WriteString(HeaderStyle.Render(fmt.Sprintf(" %s [%s] ", s.RoomName, s.RoomID)))
	b.WriteString("\n")
	b.WriteString(InfoStyle.Render(fmt.Sprintf("%s %d/%d", s.BettingMode, s.SmallBlind, s.BigBlind)))
	if s.Ante > 0 {
		b.WriteString(InfoStyle.Render(fmt.Sprintf(" ante %d", s.Ante)))
	}
	b.WriteString("\n\n")

	b.WriteString(HandInfoStyle.Render(strings.ToUpper(s.Stage)))
	b.WriteString("\n")

	if s.MainPot > 0 || len(s.SidePots) > 0 {
		b.WriteString(HandInfoStyle.Render(fmt.Sprintf("Pot: $%d", s.MainPot)))
		for i, sp := range s.SidePots {
			b.WriteString(InfoStyle.Render(fmt.Sprintf("  side %d: $%d", i+1, sp.Amount)))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for _, p := range s.Players {
		b.WriteString(renderSeat(p))
		b.WriteString("\n")
	}

	return b.String()
}

func renderSeat(p server.PlayerView) string {
	marker := "  "
	if p.IsCurrent {
		marker = ActionsStyle.Render("→ ")
	}

	name := p.Name
	if p.IsSelf {
		name = SelfStyle.Render(name)
	}

	var badges []string
	if p.IsDealer {
		badges = append(badges, "D")
	}
	if p.IsSB {
		badges = append(badges, "SB")
	}
	if p.IsBB {
		badges = append(badges, "BB")
	}
	badge := ""
	if len(badges) > 0 {
		badge = InfoStyle.Render(" [" + strings.Join(badges, ",") + "]")
	}

	status := ""
	switch {
	case p.Folded:
		status = InfoStyle.Render(" folded")
	case p.AllIn:
		status = WarningStyle.Render(" all-in")
	}

	bet := ""
	if p.CurrentBet > 0 {
		bet = fmt.Sprintf("  bet $%d", p.CurrentBet)
	}

	return fmt.Sprintf("%s%s%s  $%d%s%s", marker, name, badge, p.Chips, bet, status)
}

func (m *Model) renderActionPane() string {
	var b strings.Builder

	if m.snap != nil {
		s := m.snap

		if len(s.CommunityCards) > 0 {
			b.WriteString("Board: " + formatCards(s.CommunityCards) + "  ")
		}
		if self := selfSeat(s); self != nil && len(self.Hand) > 0 {
			b.WriteString("Your hand: " + formatCards(self.Hand))
		}
		b.WriteString("\n")

		switch {
		case len(s.Winners) > 0:
			for _, w := range s.Winners {
				line := fmt.Sprintf("%s wins $%d", w.Name, w.Amount)
				if w.HandName != "" {
					line += " with " + w.HandName
				}
				b.WriteString(SuccessStyle.Render(line) + "\n")
			}
		case s.IsMyTurn:
			b.WriteString(ActionsStyle.Render(turnPrompt(s)) + "\n")
		case s.Stage == "waiting" && s.CanStart:
			b.WriteString(ActionsStyle.Render("type start to deal") + "\n")
		case s.Stage == "waiting":
			b.WriteString(InfoStyle.Render("waiting for players...") + "\n")
		default:
			b.WriteString(InfoStyle.Render(waitingLine(s)) + "\n")
		}
	} else {
		b.WriteString(InfoStyle.Render("joining table...") + "\n\n")
	}

	if m.errLine != "" {
		b.WriteString(ErrorStyle.Render(m.errLine) + "\n")
	} else {
		b.WriteString("\n")
	}

	b.WriteString(m.actionInput.View() + "\n")
	b.WriteString(HelpStyle.Render("tab: switch pane • /rooms /create /join CODE • ctrl+c: quit"))

	return b.String()
}

func turnPrompt(s *server.Snapshot) string {
	var parts []string
	if s.ToCall > 0 {
		parts = append(parts, fmt.Sprintf("to call $%d", s.ToCall))
		if s.CanRaise {
			parts = append(parts, fmt.Sprintf("raise %d-%d", s.MinRaise, s.MaxRaise))
		}
	} else {
		parts = append(parts, "check or bet")
		parts = append(parts, fmt.Sprintf("bet %d-%d", s.MinRaise, s.MaxRaise))
	}
	parts = append(parts, fmt.Sprintf("%ds left", s.RemainingTime))
	return "your turn: " + strings.Join(parts, ", ")
}

func waitingLine(s *server.Snapshot) string {
	for _, p := range s.Players {
		if p.IsCurrent {
			return fmt.Sprintf("waiting on %s (%ds)...", p.Name, s.RemainingTime)
		}
	}
	return "waiting..."
}

func selfSeat(s *server.Snapshot) *server.PlayerView {
	for i := range s.Players {
		if s.Players[i].IsSelf {
			return &s.Players[i]
		}
	}
	return nil
}

// formatCards renders a card list, colouring by suit and masking
// face-down cards.
func formatCards(cards []server.CardView) string {
	if len(cards) == 0 {
		return ""
	}
	parts := make([]string, 0, len(cards))
	for _, c := range cards {
		switch {
		case c.Hidden:
			parts = append(parts, HiddenCardStyle.Render("??"))
		case c.Color == "red":
			parts = append(parts, RedCardStyle.Render(c.Rank+c.Suit))
		default:
			parts = append(parts, BlackCardStyle.Render(c.Rank+c.Suit))
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func formatChat(c server.ChatData) string {
	if c.MsgType == server.ChatTypeSystem {
		return InfoStyle.Render("• " + c.Content)
	}
	return SelfStyle.Render(c.PlayerName) + ": " + c.Content
}
