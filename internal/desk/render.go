package desk

import (
	"fmt"
	"strings"

	"github.com/edgard/helpdeskbot/internal/config"
	"github.com/edgard/helpdeskbot/internal/quickbase"
)

// FormatTicket renders a ticket as plain text.
func FormatTicket(t *quickbase.Ticket) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎫 %s: %s\n", t.Number, t.Subject)
	fmt.Fprintf(&sb, "Status: %s\n", t.Status)
	fmt.Fprintf(&sb, "Priority: %s\n", t.Priority)
	fmt.Fprintf(&sb, "Category: %s", t.Category)
	if !t.CreatedAt.IsZero() {
		fmt.Fprintf(&sb, "\nCreated: %s", t.CreatedAt.Format("2006-01-02 15:04 MST"))
	}
	if t.URL != "" {
		fmt.Fprintf(&sb, "\n%s", t.URL)
	}
	return sb.String()
}

// FormatTickets renders one line per ticket.
func FormatTickets(tickets []quickbase.Ticket) string {
	lines := make([]string, 0, len(tickets))
	for _, t := range tickets {
		lines = append(lines, fmt.Sprintf("• %s [%s] %s", t.Number, t.Status, t.Subject))
	}
	return strings.Join(lines, "\n")
}

// RenderText renders a reply for text-only channels.
func RenderText(r Reply, m config.MessagesConfig) string {
	switch r.Kind {
	case ReplyAnswer:
		if r.RecordID > 0 && r.Ticket != nil {
			return fmt.Sprintf("%s\n\n%s (%s)", r.Text, m.FeedbackPrompt, r.Ticket.Number)
		}
		return r.Text + "\n\n" + m.FeedbackPrompt
	case ReplyTicket:
		if r.Text == "" && r.Ticket != nil {
			return FormatTicket(r.Ticket)
		}
		return r.Text
	case ReplyForm:
		if r.Form.Description == "" {
			return m.TicketUsage
		}
		return r.Text
	default:
		return r.Text
	}
}
