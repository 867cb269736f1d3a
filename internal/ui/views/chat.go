package views

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskdeck/internal/api"
	"taskdeck/internal/assistant"
	"taskdeck/internal/models"
	"taskdeck/internal/ui/styles"
)

type chatReplyMsg struct {
	reply assistant.Reply
}

type chatOutcomeMsg struct {
	outcome assistant.Outcome
}

type assistantEffectMsg struct {
	effect assistant.Effect
}

// quick prompts fill the empty input with a starting point
var quickPrompts = []string{
	"Show me all my tasks",
	"Create a high priority task to ",
	"What tasks are in review?",
}

// ChatView is the assistant panel. All state transitions live in the
// mediator; this view only renders the transcript and routes keys.
type ChatView struct {
	gw  *api.Client
	med *assistant.Mediator

	styles *styles.Styles
	input  textinput.Model

	width  int
	height int
	online bool
	errMsg string
}

// NewChatView creates the assistant panel.
func NewChatView(gw *api.Client) *ChatView {
	input := textinput.New()
	input.Placeholder = "Ask the assistant..."
	input.CharLimit = models.MaxChatMessageLen

	return &ChatView{
		gw:     gw,
		med:    assistant.New(gw),
		styles: styles.NewStyles(),
		input:  input,
	}
}

func (c *ChatView) setSize(w, h int) {
	c.width = w
	c.height = h
}

func (c *ChatView) setOnline(online bool) {
	c.online = online
}

func (c *ChatView) open() tea.Cmd {
	c.input.Focus()
	return textinput.Blink
}

// handleKey processes one key press, reporting whether the panel should
// close.
func (c *ChatView) handleKey(msg tea.KeyMsg) (closed bool, cmd tea.Cmd) {
	state := c.med.State()

	if state == assistant.AwaitingConfirmation {
		switch msg.String() {
		case "y", "Y":
			ex, err := c.med.Confirm()
			if err != nil {
				c.errMsg = err.Error()
				return false, nil
			}
			return false, c.executeCmd(ex)
		case "n", "N", "esc":
			if err := c.med.Cancel(); err != nil {
				c.errMsg = err.Error()
			}
			return false, nil
		}
		return false, nil
	}

	switch msg.String() {
	case "esc":
		// An unanswered request must not surface a confirmation after the
		// panel reopens.
		if state == assistant.AwaitingResponse {
			c.med.Reset()
		}
		c.errMsg = ""
		c.input.Blur()
		return true, nil

	case "enter":
		text := strings.TrimSpace(c.input.Value())
		req, err := c.med.Submit(text)
		if err != nil {
			c.errMsg = err.Error()
			return false, nil
		}
		c.errMsg = ""
		c.input.SetValue("")
		return false, c.sendCmd(req)

	case "1", "2", "3":
		if c.input.Value() == "" && state == assistant.Idle {
			idx := int(msg.String()[0] - '1')
			c.input.SetValue(quickPrompts[idx])
			c.input.CursorEnd()
			return false, nil
		}
	}

	var inputCmd tea.Cmd
	c.input, inputCmd = c.input.Update(msg)
	return false, inputCmd
}

// handleAsync feeds finished network calls back into the mediator.
func (c *ChatView) handleAsync(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case chatReplyMsg:
		c.med.HandleReply(msg.reply)
		return nil

	case chatOutcomeMsg:
		eff := c.med.HandleOutcome(msg.outcome)
		if eff.Kind == assistant.EffectNone {
			return nil
		}
		return func() tea.Msg {
			return assistantEffectMsg{effect: eff}
		}
	}
	return nil
}

func (c *ChatView) sendCmd(req *assistant.Request) tea.Cmd {
	med := c.med
	return func() tea.Msg {
		return chatReplyMsg{reply: med.Send(context.Background(), req)}
	}
}

func (c *ChatView) executeCmd(ex *assistant.Execution) tea.Cmd {
	med := c.med
	return func() tea.Msg {
		return chatOutcomeMsg{outcome: med.Execute(context.Background(), ex)}
	}
}

func (c *ChatView) View() string {
	s := c.styles
	width := 70
	if c.width > 0 && c.width-6 < width {
		width = max(c.width-6, 30)
	}

	health := s.ToastError.Render("● assistant offline")
	if c.online {
		health = s.ToastSuccess.Render("● assistant online")
	}

	rows := []string{
		s.Title.Render("Assistant") + "  " + health,
		"",
	}

	// Render the newest messages that fit the panel height.
	maxLines := c.height - 14
	if maxLines < 6 {
		maxLines = 6
	}
	var transcript []string
	for _, m := range c.med.Transcript() {
		transcript = append(transcript, c.renderMessage(m, width)...)
	}
	if len(transcript) > maxLines {
		transcript = transcript[len(transcript)-maxLines:]
	}
	rows = append(rows, transcript...)

	switch c.med.State() {
	case assistant.AwaitingResponse:
		rows = append(rows, "", s.Help.Render("thinking..."))
	case assistant.Executing:
		rows = append(rows, "", s.Help.Render("applying..."))
	case assistant.AwaitingConfirmation:
		if p := c.med.Pending(); p != nil {
			rows = append(rows, "",
				s.ToastInfo.Render("Confirm: "+p.Summary),
				s.Help.Render("y confirm • n cancel"),
			)
		}
	}

	if c.errMsg != "" {
		rows = append(rows, "", s.ToastError.Render(c.errMsg))
	}

	rows = append(rows,
		"",
		s.InputFocused.Width(width).Render(c.input.View()),
		s.Help.Render("↵ send • 1-3 quick prompts • esc close"),
	)

	return s.ChatPanel.Width(width + 2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (c *ChatView) renderMessage(m assistant.Message, width int) []string {
	s := c.styles

	style := s.ChatAssistant
	prefix := "assistant"
	switch {
	case m.Role == assistant.RoleUser:
		style = s.ChatUser
		prefix = "you"
	case m.IsError:
		style = s.ChatError
	case m.IsSuccess:
		style = s.ChatSuccess
	}

	var lines []string
	lines = append(lines, s.HelpKey.Render(prefix))
	for _, line := range strings.Split(m.Body, "\n") {
		lines = append(lines, style.Width(width).Render(line))
	}
	return lines
}
