package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/trade-arena/pkg/resource"
	"github.com/jwebster45206/trade-arena/pkg/state"
)

const PlaceHolderText = "Type your message, or an [Offer] / [Accept] / [Deny] token..."

// ConsoleUI is the BubbleTea model that runs the hot-seat table. Both
// players share the keyboard; the input line always belongs to the player
// whose turn it is.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	episode      *state.EpisodeState
	prompts      [2]string
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool
	creating     bool
	notice       string

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type episodeCreatedMsg struct {
	resp *EpisodeResponse
	err  error
}

type turnResultMsg struct {
	resp *TurnResponse
	err  error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	gameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	playerZeroStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")). // teal
			Bold(true)

	playerOneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:       cfg,
		client:       client,
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
		ready:        false,
		creating:     true,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(m.createEpisode(), textarea.Blink)
}

// activePlayer is the seat that owns the input line. Turns alternate
// strictly, so parity of the turn counter decides.
func (m ConsoleUI) activePlayer() int {
	if m.episode == nil {
		return 0
	}
	return m.episode.Turn % 2
}

func playerLabel(playerID int) string {
	if playerID == 0 {
		return playerZeroStyle.Render("Player 0: ")
	}
	return playerOneStyle.Render("Player 1: ")
}

// writeChatContent rebuilds the transcript pane for the current width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding

	var content strings.Builder
	content.WriteString(titleStyle.Render("TRADE ARENA") + "\n\n")
	content.WriteString("Two seats, one keyboard. Negotiate, offer, accept, deny.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth-6)) + "\n\n")

	if m.episode != nil {
		for _, msg := range m.episode.Transcript {
			if msg.From == state.GameID {
				content.WriteString(gameStyle.Render("[GAME] ") +
					wordwrap.String(msg.Content, chatWidth-7) + "\n\n")
				continue
			}
			content.WriteString(playerLabel(msg.From) +
				wordwrap.String(msg.Content, chatWidth-10) + "\n\n")
		}
	}

	if m.notice != "" {
		content.WriteString(loadingStyle.Render(m.notice) + "\n\n")
	}
	if m.err != nil {
		content.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n\n")
	}
	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m *ConsoleUI) writeMetadata() {
	es := m.episode
	if es == nil {
		return
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("EPISODE") + "\n\n")

	content.WriteString("ID:\n")
	content.WriteString(es.ID.String()[:8] + "...\n\n")

	content.WriteString(fmt.Sprintf("Seed: %d\n", es.Seed))
	if es.TurnLimit > 0 {
		content.WriteString(fmt.Sprintf("Turn: %d / %d\n", es.Turn, es.TurnLimit))
	} else {
		content.WriteString(fmt.Sprintf("Turn: %d\n", es.Turn))
	}
	content.WriteString("Status: " + es.Status + "\n\n")

	if es.PendingOffer != nil {
		content.WriteString("Pending offer:\n")
		content.WriteString(fmt.Sprintf("Player %d awaits Player %d\n\n",
			es.PendingOffer.ProposerID, es.PendingOffer.RecipientID))
	}

	for pid := range es.Players {
		v := es.Valuations[pid]
		content.WriteString(fmt.Sprintf("Player %d (%+d):\n", pid, v.Change))
		for _, k := range resource.Kinds {
			content.WriteString(fmt.Sprintf("• %s: %d\n", k, es.Players[pid].Stock[k]))
		}
		content.WriteString("\n")
	}

	if es.Status == state.StatusActive {
		content.WriteString(fmt.Sprintf("To act: Player %d\n\n", m.activePlayer()))
	} else if es.Outcome != nil {
		if es.Outcome.WinnerID != nil {
			content.WriteString(fmt.Sprintf("Winner: Player %d\n\n", *es.Outcome.WinnerID))
		} else {
			content.WriteString("Result: draw\n\n")
		}
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• /values: Your values\n")
	content.WriteString("• /copy: Copy transcript\n")

	m.metaViewport.SetContent(content.String())
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		// Pass mouse events to all components; each ignores events outside
		// its bounds.
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		chatWidth := int(float64(m.width)*0.75) - 4
		metaWidth := m.width - chatWidth - 6

		m.chatViewport.Width = chatWidth - 2
		m.chatViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(chatWidth - 4)

		m.ready = true
		m.writeChatContent()
		m.writeMetadata()

	case episodeCreatedMsg:
		m.creating = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.episode = msg.resp.Episode
			m.prompts = msg.resp.Prompts
		}
		m.writeChatContent()
		m.writeMetadata()
		return m, textarea.Blink

	case turnResultMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.episode = msg.resp.Episode
			if m.episode.Status == state.StatusComplete {
				m.notice = "Episode complete. Ctrl+C to leave the table."
			}
		}
		m.writeChatContent()
		m.writeMetadata()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading || m.creating || m.episode == nil {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			if m.episode.Status != state.StatusActive {
				m.notice = "Episode complete. Ctrl+C to leave the table."
				m.writeChatContent()
				return m, nil
			}

			m.textarea.Reset()
			m.loading = true
			m.notice = ""
			m.err = nil
			m.progressTick = 0
			m.writeChatContent()

			return m, tea.Batch(m.submitTurn(m.activePlayer(), input), progressTick())
		}

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))

	switch cmd {
	case "/help":
		helpText := `
Commands:
• /help - Show this help
• /values - Show the acting player's private values
• /copy - Copy the transcript to the clipboard
• Ctrl+C - Quit

How to play:
• Chat freely, then propose with: [Offer] I give 2 Wheat; You give 1 Ore.
• While an offer is pending, the other seat answers [Accept] or [Deny]
• Highest inventory value gain at the turn limit wins
`
		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + titleStyle.Render("Help:") + helpText + "\n")
		m.chatViewport.GotoBottom()

	case "/values":
		if m.episode != nil {
			pid := m.activePlayer()
			var valuesText strings.Builder
			valuesText.WriteString(titleStyle.Render(fmt.Sprintf("Player %d values:", pid)) + "\n")
			for _, k := range resource.Kinds {
				valuesText.WriteString(fmt.Sprintf("• %s: %d each\n", k, m.episode.Players[pid].Values[k]))
			}
			valuesText.WriteString("\n")

			currentContent := m.chatViewport.View()
			m.chatViewport.SetContent(currentContent + valuesText.String())
			m.chatViewport.GotoBottom()
		}

	case "/copy":
		if m.episode != nil {
			var transcript strings.Builder
			for _, msg := range m.episode.Transcript {
				if msg.From == state.GameID {
					transcript.WriteString("[GAME] " + msg.Content + "\n")
				} else {
					transcript.WriteString(fmt.Sprintf("Player %d: %s\n", msg.From, msg.Content))
				}
			}
			if err := clipboard.WriteAll(transcript.String()); err != nil {
				m.notice = "Clipboard unavailable: " + err.Error()
			} else {
				m.notice = "Transcript copied to clipboard."
			}
			m.writeChatContent()
		}
	}

	m.textarea.Reset()
	return m, nil
}

func (m ConsoleUI) createEpisode() tea.Cmd {
	return func() tea.Msg {
		resp, err := createEpisode(m.client, m.config)
		return episodeCreatedMsg{resp, err}
	}
}

func (m ConsoleUI) submitTurn(playerID int, text string) tea.Cmd {
	return func() tea.Msg {
		resp, err := sendTurn(m.client, m.config.APIBaseURL, m.episode.ID, playerID, text)
		return turnResultMsg{resp, err}
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Leave the table?"))
	content.WriteString("\n\n")
	content.WriteString("The episode stays on the server and can be resumed.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready || m.creating {
		return "\n  Setting up the table..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", chatWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
