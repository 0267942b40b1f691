package display

import (
	"context"
	"fmt"
	"strings"

	"kitchen_console/internal/kitchen"
	"kitchen_console/internal/models"
	"kitchen_console/internal/refresh"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Controller is the part of refresh.Controller the display drives.
type Controller interface {
	Mount(ctx context.Context)
	Unmount()
	SetView(ctx context.Context, view refresh.ViewMode)
	Refresh(ctx context.Context) error
	Snapshot() refresh.Snapshot
}

// SnapshotMsg tells the model to re-read the controller snapshot.
type SnapshotMsg struct{}

// NoticeMsg carries an error to show the user. A nil Err clears the notice.
type NoticeMsg struct {
	Err error
}

// actionSentMsg reports an accepted backend action. The data on screen does
// not change until the next refresh.
type actionSentMsg struct {
	text string
}

// row is one selectable line. In the grouped view, receipt indexes into
// Snapshot.Grouped and receipts without items get a single row with no item.
type row struct {
	receiptID uint
	itemID    uint
	itemName  string
	status    models.ReceiptItemStatus
	hasItem   bool
	receipt   int
}

type Model struct {
	ctx        context.Context
	controller Controller
	actions    *Actions
	keys       KeyMap

	snapshot refresh.Snapshot
	cursor   int
	notice   string
	info     string
	width    int
	height   int
}

func NewModel(ctx context.Context, controller Controller, actions *Actions) Model {
	return Model{
		ctx:        ctx,
		controller: controller,
		actions:    actions,
		keys:       DefaultKeyMap,
		snapshot:   controller.Snapshot(),
	}
}

// Init mounts the controller, which fetches the active view right away.
func (m Model) Init() tea.Cmd {
	controller, ctx := m.controller, m.ctx
	return func() tea.Msg {
		controller.Mount(ctx)
		return SnapshotMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotMsg:
		m.snapshot = m.controller.Snapshot()
		m.clampCursor()
		return m, nil

	case NoticeMsg:
		if msg.Err == nil {
			m.notice = ""
		} else {
			m.notice = msg.Err.Error()
			m.info = ""
		}
		return m, nil

	case actionSentMsg:
		m.info = msg.text
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	controller, ctx := m.controller, m.ctx

	switch {
	case key.Matches(msg, m.keys.Quit):
		controller.Unmount()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows())-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleView):
		view := m.snapshot.View.Toggle()
		m.snapshot.View = view
		m.cursor = 0
		m.notice, m.info = "", ""
		return m, func() tea.Msg {
			controller.SetView(ctx, view)
			return SnapshotMsg{}
		}

	case key.Matches(msg, m.keys.Refresh):
		m.notice, m.info = "", ""
		return m, func() tea.Msg {
			_ = controller.Refresh(ctx)
			return SnapshotMsg{}
		}

	case key.Matches(msg, m.keys.Advance):
		return m, m.advanceSelected()

	case key.Matches(msg, m.keys.Complete):
		return m, m.completeSelected()
	}
	return m, nil
}

// advanceSelected returns nil when the selected item cannot move forward.
func (m Model) advanceSelected() tea.Cmd {
	selected, ok := m.selected()
	if !ok || !selected.hasItem {
		return nil
	}
	next, ok := kitchen.Next(selected.status)
	if !ok {
		return nil
	}

	actions, ctx := m.actions, m.ctx
	return func() tea.Msg {
		sent, err := actions.ChangeItemStatus(ctx, selected.receiptID, selected.itemID, selected.status, next)
		if !sent || err != nil {
			return nil
		}
		return actionSentMsg{text: fmt.Sprintf("%s → %s sent", selected.itemName, ItemStatusPresentation(next).Label)}
	}
}

// completeSelected returns nil unless the selected receipt passes the
// completion gate. Completion is only offered in the grouped view.
func (m Model) completeSelected() tea.Cmd {
	if m.snapshot.View != refresh.ViewGrouped {
		return nil
	}
	selected, ok := m.selected()
	if !ok {
		return nil
	}
	receipt := m.snapshot.Grouped[selected.receipt]
	if !receipt.AllItemsDone() {
		return nil
	}

	actions, ctx := m.actions, m.ctx
	return func() tea.Msg {
		sent, err := actions.CompleteReceipt(ctx, receipt)
		if !sent || err != nil {
			return nil
		}
		return actionSentMsg{text: fmt.Sprintf("Receipt %s completion sent", receipt.ReceiptNumber)}
	}
}

func (m Model) rows() []row {
	var rows []row
	switch m.snapshot.View {
	case refresh.ViewFlat:
		for _, item := range m.snapshot.Flat {
			rows = append(rows, row{
				receiptID: item.ReceiptID,
				itemID:    item.ID,
				itemName:  item.ItemName,
				status:    item.Status,
				hasItem:   true,
				receipt:   -1,
			})
		}
	case refresh.ViewGrouped:
		for i, receipt := range m.snapshot.Grouped {
			if len(receipt.Items) == 0 {
				rows = append(rows, row{receiptID: receipt.ReceiptID, receipt: i})
				continue
			}
			for _, item := range receipt.Items {
				rows = append(rows, row{
					receiptID: receipt.ReceiptID,
					itemID:    item.ID,
					itemName:  item.ItemName,
					status:    item.Status,
					hasItem:   true,
					receipt:   i,
				})
			}
		}
	}
	return rows
}

func (m Model) selected() (row, bool) {
	rows := m.rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return row{}, false
	}
	return rows[m.cursor], true
}

func (m *Model) clampCursor() {
	count := len(m.rows())
	if m.cursor >= count {
		m.cursor = count - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.snapshot.View {
	case refresh.ViewFlat:
		b.WriteString(m.renderFlat())
	default:
		b.WriteString(m.renderGrouped())
	}

	b.WriteString("\n")
	switch {
	case m.notice != "":
		b.WriteString(errorStyle.Render("Error: " + m.notice))
	case m.info != "":
		b.WriteString(faintStyle.Render(m.info + " (shown after next refresh)"))
	}
	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderHeader() string {
	flat, grouped := "Items", "Receipts"
	if m.snapshot.View == refresh.ViewFlat {
		flat = activeTabStyle.Render(flat)
	} else {
		grouped = activeTabStyle.Render(grouped)
	}

	state := ""
	switch {
	case m.snapshot.Loading:
		state = "refreshing…"
	case !m.snapshot.RefreshedAt.IsZero():
		state = "updated " + m.snapshot.RefreshedAt.Local().Format("15:04:05")
	}

	return headerStyle.Render("Kitchen") + "  " + flat + " | " + grouped + "  " + faintStyle.Render(state)
}

func (m Model) renderEmpty(text string) string {
	if m.snapshot.RefreshedAt.IsZero() {
		text = "Loading…"
	}
	return faintStyle.Render(text) + "\n"
}

func (m Model) renderFlat() string {
	if len(m.snapshot.Flat) == 0 {
		return m.renderEmpty("No pending items.")
	}

	var b strings.Builder
	for i, item := range m.snapshot.Flat {
		line := fmt.Sprintf("%-8s %-14s %2d× %-24s %s",
			item.ReceiptNumber,
			destination(item.IsDelivery, item.TableNumber, item.PhoneNumber, item.Location),
			item.Quantity,
			item.ItemName,
			renderStatusOptions(item.Status),
		)
		if item.Notes != nil && *item.Notes != "" {
			line += "  " + faintStyle.Render(*item.Notes)
		}
		b.WriteString(m.renderRow(i, line))
	}
	return b.String()
}

func (m Model) renderGrouped() string {
	if len(m.snapshot.Grouped) == 0 {
		return m.renderEmpty("No open receipts.")
	}

	var b strings.Builder
	index := 0
	for _, receipt := range m.snapshot.Grouped {
		header := receiptStyle.Render(receipt.ReceiptNumber) + "  " +
			destination(receipt.IsDelivery, receipt.TableNumber, receipt.PhoneNumber, receipt.Location) + "  " +
			OrderStatusPresentation(receipt.Status()).Render()
		if receipt.AllItemsDone() {
			header += "  " + faintStyle.Render("[c] complete")
		}
		b.WriteString(header + "\n")

		if len(receipt.Items) == 0 {
			b.WriteString(m.renderRow(index, faintStyle.Render("  no items")))
			index++
			continue
		}
		for _, item := range receipt.Items {
			line := fmt.Sprintf("  %2d× %-24s %s", item.Quantity, item.ItemName, renderStatusOptions(item.Status))
			if item.Notes != nil && *item.Notes != "" {
				line += "  " + faintStyle.Render(*item.Notes)
			}
			b.WriteString(m.renderRow(index, line))
			index++
		}
	}
	return b.String()
}

func (m Model) renderRow(index int, line string) string {
	if index == m.cursor {
		return selectedStyle.Render("›"+line) + "\n"
	}
	return " " + line + "\n"
}

func (m Model) renderHelp() string {
	parts := make([]string, 0, 7)
	for _, binding := range m.keys.helpBindings() {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	line := strings.Join(parts, " · ")
	if m.width > 0 {
		line = lipgloss.NewStyle().MaxWidth(m.width).Render(line)
	}
	return faintStyle.Render(line)
}

func destination(isDelivery bool, table *int, phone, location *string) string {
	if !isDelivery {
		if table != nil {
			return fmt.Sprintf("Table %d", *table)
		}
		return "Dine-in"
	}
	parts := []string{"Delivery"}
	if location != nil && *location != "" {
		parts = append(parts, *location)
	}
	if phone != nil && *phone != "" {
		parts = append(parts, *phone)
	}
	return strings.Join(parts, " ")
}
