package display

import (
	"strings"

	"kitchen_console/internal/kitchen"
	"kitchen_console/internal/models"

	"github.com/charmbracelet/lipgloss"
)

// Presentation is how a status is drawn: a label, a one-cell icon and a
// foreground color.
type Presentation struct {
	Label string
	Icon  string
	Color lipgloss.Color
}

// ItemStatusPresentation covers every item status. Unknown values render as
// themselves in the faint color.
func ItemStatusPresentation(status models.ReceiptItemStatus) Presentation {
	switch status {
	case models.ItemPending:
		return Presentation{Label: "Pending", Icon: "○", Color: lipgloss.Color("245")}
	case models.ItemPreparing:
		return Presentation{Label: "Preparing", Icon: "◐", Color: lipgloss.Color("214")}
	case models.ItemReady:
		return Presentation{Label: "Ready", Icon: "●", Color: lipgloss.Color("42")}
	case models.ItemDone:
		return Presentation{Label: "Done", Icon: "✓", Color: lipgloss.Color("33")}
	}
	return Presentation{Label: string(status), Icon: "?", Color: faintColor}
}

func OrderStatusPresentation(status kitchen.OrderStatus) Presentation {
	switch status {
	case kitchen.OrderPending:
		return Presentation{Label: "Pending", Icon: "○", Color: lipgloss.Color("245")}
	case kitchen.OrderPreparing:
		return Presentation{Label: "Preparing", Icon: "◐", Color: lipgloss.Color("214")}
	case kitchen.OrderReady:
		return Presentation{Label: "Ready", Icon: "●", Color: lipgloss.Color("42")}
	case kitchen.OrderDone:
		return Presentation{Label: "Done", Icon: "✓", Color: lipgloss.Color("33")}
	case kitchen.OrderCompleted:
		return Presentation{Label: "Completed", Icon: "■", Color: lipgloss.Color("99")}
	}
	return Presentation{Label: string(status), Icon: "?", Color: faintColor}
}

var (
	faintColor     = lipgloss.Color("240")
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	faintStyle     = lipgloss.NewStyle().Foreground(faintColor)
	selectedStyle  = lipgloss.NewStyle().Background(lipgloss.Color("237")).Foreground(lipgloss.Color("255"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	receiptStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("111"))
	activeTabStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// Render draws the icon and label in the status color.
func (p Presentation) Render() string {
	return lipgloss.NewStyle().Foreground(p.Color).Render(p.Icon + " " + p.Label)
}

// renderStatusOptions draws all four statuses for an item. Only the next
// step is highlighted as selectable; the current one is bracketed.
func renderStatusOptions(current models.ReceiptItemStatus) string {
	options := kitchen.StatusOptions(current)
	parts := make([]string, 0, len(options))
	for _, option := range options {
		presentation := ItemStatusPresentation(option.Status)
		switch {
		case option.Current:
			parts = append(parts, lipgloss.NewStyle().Foreground(presentation.Color).Bold(true).Render("["+presentation.Label+"]"))
		case option.Enabled:
			parts = append(parts, lipgloss.NewStyle().Foreground(presentation.Color).Underline(true).Render(presentation.Label))
		default:
			parts = append(parts, faintStyle.Render(presentation.Label))
		}
	}
	return strings.Join(parts, " ")
}
