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

	"github.com/brancaskitchen/office-rpg/pkg/game"
)

const PlaceHolderText = "What do you do next?"

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	gameState    *game.GameState
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int

	// notice is a transient line shown under the input (command feedback)
	notice string
}

type turnResultMsg struct {
	gameState *game.GameState
	err       error
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

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	diceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("213")) // magenta

	suggestionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")). // dark grey
			Italic(true)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	gainStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")) // bright green

	lossStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

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

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client, gs *game.GameState) ConsoleUI {
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
		gameState:    gs,
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
	}
}

// writeChatContent rebuilds the chat transcript for the current viewport width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6

	var content strings.Builder
	content.WriteString(titleStyle.Render("OFFICE RPG") + "\n\n")
	content.WriteString("Another day at the office. Type what you do and press Enter.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(chatWidth-6, 10))) + "\n\n")

	for _, msg := range m.gameState.Messages {
		switch {
		case msg.IsUser:
			content.WriteString(userStyle.Render("You: ") + wordwrap.String(msg.Content, chatWidth-6) + "\n\n")
		case msg.IsSystem:
			content.WriteString(systemStyle.Render(wordwrap.String(msg.Content, chatWidth-6)) + "\n\n")
		default:
			content.WriteString(narratorStyle.Render("Narrator: ") + wordwrap.String(msg.Content, chatWidth-10) + "\n")
			if len(msg.Suggestions) > 0 {
				content.WriteString(suggestionStyle.Render("Try: "+strings.Join(msg.Suggestions, " / ")) + "\n")
			}
			content.WriteString("\n")
		}
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

// writeMetadata rebuilds the right-hand character panel.
func (m *ConsoleUI) writeMetadata() {
	gs := m.gameState
	var content strings.Builder

	if gs.Character != nil {
		content.WriteString(titleStyle.Render(gs.Character.Name) + "\n")
		if level := gs.Level(); level != nil {
			content.WriteString(fmt.Sprintf("Level %d %s\n", level.Value, gs.Character.Type))
			content.WriteString(fmt.Sprintf("EXP: %d / %d\n", level.Exp, level.MaxExp))
		}
		content.WriteString("\n")
	}

	for _, stat := range gs.Stats {
		if stat.IsLevel() {
			continue
		}
		line := fmt.Sprintf("%s: %d", stat.Name, stat.Value)
		if stat.MaxValue > 0 {
			line = fmt.Sprintf("%s: %d/%d", stat.Name, stat.Value, stat.MaxValue)
		}
		if stat.Change != nil && *stat.Change != 0 {
			if *stat.Change > 0 {
				line += gainStyle.Render(fmt.Sprintf(" (+%d)", *stat.Change))
			} else {
				line += lossStyle.Render(fmt.Sprintf(" (%d)", *stat.Change))
			}
		}
		content.WriteString(line + "\n")
	}
	content.WriteString(fmt.Sprintf("Coins: %dC\n", gs.Coins))

	if gs.SkillPoints > 0 {
		content.WriteString("\n" + gainStyle.Render(fmt.Sprintf("%d skill point(s)!", gs.SkillPoints)) + "\n")
		content.WriteString(suggestionStyle.Render("/skill <stat> to spend") + "\n")
	}

	if gs.Enemy != nil {
		content.WriteString("\n" + errorStyle.Render(fmt.Sprintf("Enemy: %s (HP %d)", gs.Enemy.Type, gs.Enemy.HP)) + "\n")
	}

	content.WriteString("\nInventory:\n")
	if len(gs.Inventory) == 0 {
		content.WriteString("Empty\n")
	}
	for _, item := range gs.Inventory {
		line := "• " + item.Name
		if item.Quantity > 1 {
			line += fmt.Sprintf(" x%d", item.Quantity)
		}
		if item.StatBonus != nil {
			label := "DMG"
			if item.StatBonus.Stat == game.StatDefense {
				label = "DEF"
			}
			line += fmt.Sprintf(" (+%d %s)", item.StatBonus.Value, label)
		}
		content.WriteString(line + "\n")
	}

	content.WriteString("\nCommands:\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /undo: Undo turn\n")
	content.WriteString("• /skill <stat>\n")
	content.WriteString("• /copy: Copy last\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• Ctrl+C: Quit\n")

	m.metaViewport.SetContent(content.String())
}

func (m ConsoleUI) Init() tea.Cmd {
	return textarea.Blink
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
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		chatWidth := int(float64(m.width)*0.72) - 4
		metaWidth := m.width - chatWidth - 6

		m.chatViewport.Width = chatWidth - 2
		m.chatViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(chatWidth - 4)

		m.ready = true
		m.writeChatContent()
		m.writeMetadata()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.textarea.Reset()
			m.notice = ""
			m.loading = true
			m.progressTick = 0

			roll, err := game.RollD20()
			if err != nil {
				roll = 10
			}

			// Show the pending input and roll immediately.
			m.gameState.Messages = append(m.gameState.Messages, game.Message{
				Content: input,
				IsUser:  true,
			})
			m.writeChatContent()
			m.notice = diceStyle.Render(fmt.Sprintf("🎲 You rolled %d", roll))

			return m, tea.Batch(m.sendTurn(input, roll), progressTick())
		}

	case turnResultMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.writeChatContent()
			currentContent := m.chatViewport.View()
			m.chatViewport.SetContent(currentContent + errorStyle.Render("Error: "+msg.err.Error()) + "\n\n")
		} else {
			m.gameState = msg.gameState
			m.writeChatContent()
			m.writeMetadata()
		}
		m.chatViewport.GotoBottom()
		return m, nil

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
	m.textarea.Reset()
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(input)))

	switch fields[0] {
	case "/help":
		helpText := `
Commands:
• /undo - Undo the last turn
• /skill <stat> - Spend a skill point (e.g. /skill strength)
• /copy - Copy the last narrator message to the clipboard
• /help - Show this help
• Ctrl+C - Quit

How to play:
• Type your actions and press Enter
• A d20 is rolled for every action; high rolls go well
`
		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + titleStyle.Render("Help:") + helpText + "\n")
		m.chatViewport.GotoBottom()

	case "/undo":
		if m.loading {
			return m, nil
		}
		m.loading = true
		m.progressTick = 0
		return m, tea.Batch(m.sendUndo(), progressTick())

	case "/skill":
		if len(fields) < 2 {
			m.notice = errorStyle.Render("Usage: /skill <stat>")
			return m, nil
		}
		if m.loading {
			return m, nil
		}
		m.loading = true
		m.progressTick = 0
		return m, tea.Batch(m.sendSkill(fields[1]), progressTick())

	case "/copy":
		last := ""
		for i := len(m.gameState.Messages) - 1; i >= 0; i-- {
			if !m.gameState.Messages[i].IsUser && !m.gameState.Messages[i].IsSystem {
				last = m.gameState.Messages[i].Content
				break
			}
		}
		if last == "" {
			m.notice = errorStyle.Render("Nothing to copy")
		} else if err := clipboard.WriteAll(last); err != nil {
			m.notice = errorStyle.Render("Clipboard unavailable: " + err.Error())
		} else {
			m.notice = suggestionStyle.Render("Copied last narrator message")
		}

	default:
		m.notice = errorStyle.Render("Unknown command: " + fields[0])
	}

	return m, nil
}

func (m ConsoleUI) sendTurn(message string, roll int) tea.Cmd {
	return func() tea.Msg {
		gs, err := playTurn(m.client, m.config.APIBaseURL, m.gameState.ID, message, roll)
		return turnResultMsg{gs, err}
	}
}

func (m ConsoleUI) sendUndo() tea.Cmd {
	return func() tea.Msg {
		gs, err := undoTurn(m.client, m.config.APIBaseURL, m.gameState.ID)
		return turnResultMsg{gs, err}
	}
}

func (m ConsoleUI) sendSkill(stat string) tea.Cmd {
	return func() tea.Msg {
		gs, err := spendSkillPoint(m.client, m.config.APIBaseURL, m.gameState.ID, stat)
		return turnResultMsg{gs, err}
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
	content.WriteString(modalTitleStyle.Render("Clock Out?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to leave the office?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.72) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			m.notice,
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 10))),
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
		usable = 30
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
