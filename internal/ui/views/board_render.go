package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"taskdeck/internal/drag"
	"taskdeck/internal/models"
	"taskdeck/internal/ui/styles"
)

func (v *BoardView) View() string {
	if v.width == 0 {
		return "Loading..."
	}

	if v.chatOpen {
		return v.overlay(v.chat.View())
	}
	if v.form != nil {
		return v.overlay(v.form.render(v.styles))
	}
	if v.detail != nil {
		return v.overlay(v.detail.render(v.styles))
	}
	if v.confirm != nil {
		return v.overlay(v.renderDeleteConfirm())
	}
	if v.showHelp {
		return v.overlay(v.renderHelpPopup())
	}

	var body string
	if v.listMode {
		body = v.renderList()
	} else {
		body = v.renderBoard()
	}

	out := lipgloss.JoinVertical(lipgloss.Left,
		v.renderHeader(),
		v.renderStatusLine(),
		"",
		body,
		v.renderHelpLine(),
	)
	if v.listMode {
		// Board mode stays left-aligned so mouse coordinates map onto
		// lanes directly; the list takes no pointer input.
		return styles.CenterView(out, v.width, v.height)
	}
	return out
}

// overlay centers a popup in the terminal, replacing the board underneath.
func (v *BoardView) overlay(content string) string {
	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, content)
}

func (v *BoardView) renderHeader() string {
	s := v.styles

	mode := "Board"
	if v.listMode {
		mode = "List"
	}
	left := s.Title.Render("taskdeck") + "  " + s.TitleMuted.Render(mode)

	ai := s.ToastError.Render("● AI offline")
	if v.aiOnline {
		ai = s.ToastSuccess.Render("● AI")
	}

	right := ai + "  " + s.TitleMuted.Render(v.sess.User().DisplayName())

	gap := v.boardWidth() - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderStatusLine shows the toast when present, lane counts otherwise.
func (v *BoardView) renderStatusLine() string {
	s := v.styles

	if v.toast != "" {
		switch v.toastKind {
		case toastSuccess:
			return s.ToastSuccess.Render(v.toast)
		case toastInfo:
			return s.ToastInfo.Render(v.toast)
		default:
			return s.ToastError.Render(v.toast)
		}
	}

	if v.searching {
		return "Search: " + v.searchInput.View()
	}

	var parts []string
	counts := v.model.Counts()
	for _, status := range models.Statuses {
		parts = append(parts, fmt.Sprintf("%s %d", status.Label(), counts[status]))
	}
	line := strings.Join(parts, " • ")
	if v.query != "" {
		line += "  filter: " + v.query
	}
	if v.loading {
		line += "  (loading...)"
	}
	return s.Help.Render(line)
}

func (v *BoardView) renderBoard() string {
	outer := v.laneOuterWidth()
	visible := v.visibleCards()

	lanes := make([]string, 0, len(models.Statuses)*2-1)
	for i, status := range models.Statuses {
		if i > 0 {
			lanes = append(lanes, strings.Repeat(" ", laneGap))
		}
		lanes = append(lanes, v.renderLane(i, status, outer, visible))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, lanes...)
}

func (v *BoardView) renderLane(i int, status models.Status, outer, visible int) string {
	s := v.styles
	inner := outer - 2
	tasks := v.lane(status)

	header := fmt.Sprintf("%s (%d)", status.Label(), len(tasks))
	if v.scroll[i] > 0 || len(tasks) > v.scroll[i]+visible {
		header += " ↕"
	}
	rows := []string{s.LaneHeader.Foreground(styles.StatusColor(status)).Render(truncate(header, inner))}

	end := min(v.scroll[i]+visible, len(tasks))
	for idx := v.scroll[i]; idx < end; idx++ {
		rows = append(rows, v.renderCard(tasks[idx], i, idx, inner))
	}

	laneStyle := s.Lane
	if target, ok := v.drag.Target(); ok && target == status {
		laneStyle = s.LaneDrop
	} else if i == v.laneIdx {
		laneStyle = s.LaneFocused
	}

	body := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return laneStyle.Width(inner).Height(1 + visible*cardHeight).Render(body)
}

func (v *BoardView) renderCard(t models.Task, lane, idx, width int) string {
	s := v.styles

	style := s.Card
	switch {
	case v.drag.State() != drag.Idle && v.drag.TaskID() == t.ID:
		style = s.CardGrabbed
	case lane == v.laneIdx && idx == v.cursor[lane]:
		style = s.CardCursor
	}

	title := t.Title
	if t.ID < 0 {
		title = "⧗ " + title // not yet confirmed by the backend
	}

	meta := string(t.Priority)
	if t.AssigneeID != nil {
		meta += " · " + v.userName(*t.AssigneeID)
	}
	if t.DueDate != nil {
		meta += " · " + t.DueDate.Format("Jan 2")
	}
	if t.CommentCount > 0 {
		meta += fmt.Sprintf(" · %d💬", t.CommentCount)
	}
	if t.Status == models.StatusInReview && t.ReviewStatus != nil {
		meta += " · " + string(*t.ReviewStatus)
	}

	return style.Width(width).Render(
		truncate(title, width) + "\n" +
			lipgloss.NewStyle().Foreground(styles.PriorityColor(t.Priority)).Render(truncate(meta, width)),
	)
}

func (v *BoardView) renderList() string {
	s := v.styles
	tasks := v.visible()
	if len(tasks) == 0 {
		return s.TitleMuted.Render("No tasks.")
	}

	width := v.boardWidth()
	var rows []string
	for i, t := range tasks {
		line := fmt.Sprintf("%-12s %-7s %s", t.Status.Label(), t.Priority, t.Title)
		if t.AssigneeID != nil {
			line += " · " + v.userName(*t.AssigneeID)
		}
		if t.DueDate != nil {
			line += " · due " + t.DueDate.Format("2006-01-02")
		}
		line = truncate(line, width-2)
		if i == v.listCursor {
			rows = append(rows, s.ListSelected.Render("> "+line))
		} else {
			rows = append(rows, s.ListItem.Render("  "+line))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (v *BoardView) renderDeleteConfirm() string {
	s := v.styles
	t := v.confirm.task
	return s.Popup.Render(lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Delete Task"),
		"",
		fmt.Sprintf("Delete %q?", truncate(t.Title, 50)),
		"",
		s.Help.Render("y delete • n cancel"),
	))
}

func (v *BoardView) renderHelpLine() string {
	s := v.styles
	if v.drag.State() != drag.Idle {
		return s.Help.Render("←/→ choose lane • space/↵ drop • esc cancel")
	}
	return s.Help.Render("↑↓←→ navigate • space grab • ↵ open • n new • e edit • d delete • a assistant • ? help")
}

func (v *BoardView) renderHelpPopup() string {
	s := v.styles
	row := func(k, desc string) string {
		return s.HelpKey.Render(fmt.Sprintf("%-9s", k)) + " " + desc
	}
	return s.Popup.Render(lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Keyboard Shortcuts"),
		"",
		row("↑/↓", "move between cards"),
		row("←/→", "move between lanes"),
		row("space", "grab / drop a card"),
		row("enter", "open task details"),
		row("n", "new task"),
		row("e", "edit task"),
		row("d", "delete task"),
		row("/", "search"),
		row("v", "toggle board / list"),
		row("a", "assistant"),
		row("r", "reload"),
		row("ctrl+l", "log out"),
		row("q", "quit"),
		"",
		s.Help.Render("press any key to close"),
	))
}

func (v *BoardView) boardWidth() int {
	outer := v.laneOuterWidth()
	return outer*len(models.Statuses) + laneGap*(len(models.Statuses)-1)
}

func (v *BoardView) userName(id int64) string {
	if u, ok := v.users[id]; ok {
		return u.DisplayName()
	}
	return fmt.Sprintf("user %d", id)
}

func truncate(s string, w int) string {
	if w <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= w {
		return s
	}
	if w <= 1 {
		return string(runes[:w])
	}
	return string(runes[:w-1]) + "…"
}
