package teams

import (
	"fmt"

	"github.com/edgard/helpdeskbot/internal/config"
	"github.com/edgard/helpdeskbot/internal/desk"
	"github.com/edgard/helpdeskbot/internal/quickbase"
)

const (
	// AdaptiveCardContentType is the attachment type for Adaptive Cards.
	AdaptiveCardContentType = "application/vnd.microsoft.card.adaptive"
	adaptiveCardVersion     = "1.4"
)

type element = map[string]any

func adaptiveCard(body []element, actions []element) Attachment {
	card := element{
		"type":    "AdaptiveCard",
		"$schema": "http://adaptivecards.io/schemas/adaptive-card.json",
		"version": adaptiveCardVersion,
		"body":    body,
	}
	if len(actions) > 0 {
		card["actions"] = actions
	}
	return Attachment{ContentType: AdaptiveCardContentType, Content: card}
}

func textBlock(text string, extra element) element {
	block := element{"type": "TextBlock", "text": text, "wrap": true}
	for k, v := range extra {
		block[k] = v
	}
	return block
}

func submitAction(title, action string, recordID int64, question string) element {
	return element{
		"type":  "Action.Submit",
		"title": title,
		"data": element{
			"action":    action,
			"record_id": recordID,
			"question":  question,
		},
	}
}

// AnswerCard renders an answer with the resolved and escalate buttons.
func AnswerCard(r desk.Reply, m config.MessagesConfig) Attachment {
	body := []element{textBlock(r.Text, nil)}
	if r.Ticket != nil {
		body = append(body, textBlock(fmt.Sprintf("Ticket %s · %s", r.Ticket.Number, r.Ticket.Status),
			element{"isSubtle": true, "size": "Small", "spacing": "Medium"}))
	}
	body = append(body, textBlock(m.FeedbackPrompt, element{"weight": "Bolder", "spacing": "Medium"}))

	return adaptiveCard(body, []element{
		submitAction(m.ResolvedButton, desk.ActionResolved, r.RecordID, r.Question),
		submitAction(m.EscalateButton, desk.ActionEscalate, r.RecordID, r.Question),
	})
}

func choices(values []string) []element {
	out := make([]element, 0, len(values))
	for _, v := range values {
		out = append(out, element{"title": v, "value": v})
	}
	return out
}

// FormCard renders the ticket form pre-filled from the reply.
func FormCard(r desk.Reply, m config.MessagesConfig) Attachment {
	body := []element{
		textBlock(r.Text, element{"weight": "Bolder", "size": "Medium"}),
		{"type": "Input.Text", "id": "subject", "label": "Subject", "value": r.Form.Subject, "maxLength": 100, "isRequired": true},
		{"type": "Input.Text", "id": "description", "label": "Description", "value": r.Form.Description, "isMultiline": true, "isRequired": true},
		{"type": "Input.ChoiceSet", "id": "category", "label": "Category", "value": r.Form.Category, "choices": choices(quickbase.Categories)},
		{"type": "Input.ChoiceSet", "id": "priority", "label": "Priority", "value": r.Form.Priority, "choices": choices(quickbase.Priorities)},
	}
	return adaptiveCard(body, []element{submitAction(m.FormSubmit, desk.ActionSubmit, r.RecordID, r.Question)})
}

func ticketFacts(t *quickbase.Ticket) element {
	facts := []element{
		{"title": "Status", "value": t.Status},
		{"title": "Priority", "value": t.Priority},
		{"title": "Category", "value": t.Category},
	}
	if !t.CreatedAt.IsZero() {
		facts = append(facts, element{"title": "Created", "value": t.CreatedAt.Format("2006-01-02 15:04 MST")})
	}
	return element{"type": "FactSet", "facts": facts}
}

// TicketCard renders a single ticket with a link to QuickBase.
func TicketCard(r desk.Reply) Attachment {
	t := r.Ticket
	var body []element
	if r.Text != "" {
		body = append(body, textBlock(r.Text, nil))
	}
	if t.Subject != "" {
		body = append(body, textBlock(fmt.Sprintf("%s: %s", t.Number, t.Subject), element{"weight": "Bolder"}))
	}
	body = append(body, ticketFacts(t))

	var actions []element
	if t.URL != "" {
		actions = append(actions, element{"type": "Action.OpenUrl", "title": "Open in QuickBase", "url": t.URL})
	}
	return adaptiveCard(body, actions)
}

// TicketsCard lists tickets, one container per ticket.
func TicketsCard(tickets []quickbase.Ticket) Attachment {
	body := make([]element, 0, len(tickets)+1)
	body = append(body, textBlock(fmt.Sprintf("Open tickets (%d)", len(tickets)), element{"weight": "Bolder", "size": "Medium"}))
	for i := range tickets {
		t := &tickets[i]
		body = append(body, element{
			"type":      "Container",
			"separator": true,
			"items": []element{
				textBlock(fmt.Sprintf("[%s](%s) %s", t.Number, t.URL, t.Subject), nil),
				textBlock(fmt.Sprintf("%s · %s", t.Status, t.Priority), element{"isSubtle": true, "size": "Small"}),
			},
		})
	}
	return adaptiveCard(body, nil)
}

// render turns a desk reply into an outgoing activity.
func render(out *Activity, r desk.Reply, m config.MessagesConfig) {
	switch {
	case r.Kind == desk.ReplyAnswer:
		out.Attachments = []Attachment{AnswerCard(r, m)}
	case r.Kind == desk.ReplyForm:
		out.Attachments = []Attachment{FormCard(r, m)}
	case r.Kind == desk.ReplyTicket && r.Ticket != nil:
		out.Attachments = []Attachment{TicketCard(r)}
	case r.Kind == desk.ReplyTickets:
		out.Attachments = []Attachment{TicketsCard(r.Tickets)}
	default:
		out.Text = r.Text
		out.TextFormat = "plain"
	}
}
