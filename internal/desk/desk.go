// Package desk implements the platform-neutral support flow: answer a
// question, mirror it into the ticketing system and handle the resolved /
// escalate feedback that follows.
package desk

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/edgard/helpdeskbot/internal/config"
	"github.com/edgard/helpdeskbot/internal/database"
	"github.com/edgard/helpdeskbot/internal/errs"
	"github.com/edgard/helpdeskbot/internal/generator"
	"github.com/edgard/helpdeskbot/internal/logger"
	"github.com/edgard/helpdeskbot/internal/metrics"
	"github.com/edgard/helpdeskbot/internal/quickbase"
	"github.com/edgard/helpdeskbot/internal/responder"
)

const (
	botResponseSeparator = "\n\n--- Bot Response ---\n"
	userTicketsLimit     = 10
)

// Deps provides the collaborators of a Desk. History and Metrics are optional.
type Deps struct {
	Logger    *slog.Logger
	Messages  config.MessagesConfig
	Tickets   Tickets
	Responder Responder
	History   History
	Metrics   *metrics.Recorder
	// HistoryTurns is the number of earlier exchanges replayed to the generator.
	HistoryTurns int
}

// Desk is safe for concurrent use.
type Desk struct {
	deps     Deps
	log      *slog.Logger
	validate *validator.Validate
}

// New creates a Desk.
func New(deps Deps) *Desk {
	return &Desk{
		deps:     deps,
		log:      deps.Logger.With("component", "desk"),
		validate: newValidator(),
	}
}

// HandleMessage answers a chat message. Every message that is not a known
// command produces exactly one ticket-creation call with status Bot Assisted;
// text that merely starts with "/" is a question like any other.
func (d *Desk) HandleMessage(ctx context.Context, in Inquiry) Reply {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return Reply{Kind: ReplyText, Text: d.deps.Messages.Help}
	}
	in.Text = text

	if cmd, _ := ParseCommand(text); isCommand(cmd) {
		return d.command(ctx, in)
	}

	log := d.log.With("platform", in.Platform, "conversation_id", in.ConversationID, "user_id", in.User.ID)
	log.InfoContext(ctx, "Handling message", "text_preview", logger.Truncate(text, 50))

	answer := d.deps.Responder.Respond(ctx, responder.Request{
		Message: text,
		History: d.recentTurns(ctx, in.ConversationID),
	})

	var recordID int64
	ticket := d.record(ctx, in, answer)
	if ticket != nil {
		recordID = ticket.RecordID
	}

	d.saveExchange(ctx, in, answer)

	log.InfoContext(ctx, "Message answered", "source", answer.Source, "record_id", recordID)
	return Reply{
		Kind:     ReplyAnswer,
		Text:     answer.Body,
		Answer:   answer,
		Question: text,
		RecordID: recordID,
		Ticket:   ticket,
	}
}

// HandleAction processes a feedback button or a submitted ticket form.
func (d *Desk) HandleAction(ctx context.Context, in Inquiry, a Action) Reply {
	d.deps.Metrics.ActionHandled(a.Name)
	log := d.log.With("platform", in.Platform, "action", a.Name, "record_id", a.RecordID)

	switch a.Name {
	case ActionResolved:
		// Bot Assisted tickets are closed by the auto_close task.
		log.InfoContext(ctx, "User marked answer as resolved")
		return Reply{Kind: ReplyText, Text: d.deps.Messages.Acknowledgment}

	case ActionEscalate:
		log.InfoContext(ctx, "User asked for more help, sending ticket form")
		form := FormFromQuestion(a.Question, quickbase.DefaultCategory)
		return Reply{
			Kind:     ReplyForm,
			Text:     d.deps.Messages.FormTitle,
			Form:     form,
			Question: a.Question,
			RecordID: a.RecordID,
		}

	case ActionSubmit:
		return d.submit(ctx, in, a)

	default:
		log.WarnContext(ctx, "Unknown action")
		return Reply{Kind: ReplyText, Text: d.deps.Messages.GeneralError}
	}
}

// Escalate moves a recorded ticket to Open without a form. When the record is
// unknown and the question is available, a new Open ticket is created instead.
func (d *Desk) Escalate(ctx context.Context, in Inquiry, recordID int64, question string) Reply {
	d.deps.Metrics.ActionHandled(ActionEscalate)
	log := d.log.With("platform", in.Platform, "record_id", recordID)

	if recordID > 0 {
		ticket, err := d.deps.Tickets.UpdateTicket(ctx, recordID, quickbase.Changes{
			Status:   quickbase.StatusOpen,
			Priority: quickbase.PriorityMedium,
		})
		switch {
		case err == nil:
			d.deps.Metrics.TicketRecorded(quickbase.StatusOpen, "ok")
			log.InfoContext(ctx, "Ticket escalated", "ticket_number", ticket.Number)
			return d.ticketReply(d.deps.Messages.TicketEscalated, ticket)
		case !errs.Is(err, errs.CodeNotFound):
			d.deps.Metrics.TicketRecorded(quickbase.StatusOpen, "error")
			log.ErrorContext(ctx, "Failed to escalate ticket", "error", err)
			return Reply{Kind: ReplyText, Text: d.deps.Messages.TicketFailed}
		}
		log.WarnContext(ctx, "Ticket to escalate no longer exists, opening a new one")
	}

	if strings.TrimSpace(question) == "" {
		return Reply{Kind: ReplyText, Text: d.deps.Messages.EscalateNeedsTicket}
	}
	return d.open(ctx, in, FormFromQuestion(question, quickbase.DefaultCategory))
}

// OpenTicket creates an Open ticket straight from free text, for platforms without forms.
func (d *Desk) OpenTicket(ctx context.Context, in Inquiry, text string) Reply {
	if strings.TrimSpace(text) == "" {
		return Reply{Kind: ReplyText, Text: d.deps.Messages.TicketUsage}
	}
	return d.submit(ctx, in, Action{Name: ActionSubmit, Form: FormFromQuestion(text, quickbase.DefaultCategory)})
}

func (d *Desk) submit(ctx context.Context, in Inquiry, a Action) Reply {
	log := d.log.With("platform", in.Platform, "record_id", a.RecordID)

	form := a.Form
	form.normalize()
	if err := d.validate.Struct(form); err != nil {
		log.InfoContext(ctx, "Ticket form rejected", "error", err)
		return Reply{
			Kind:     ReplyForm,
			Text:     fill(d.deps.Messages.InvalidForm, "{errors}", describeValidation(err)),
			Form:     form,
			Question: a.Question,
			RecordID: a.RecordID,
		}
	}

	if a.RecordID > 0 {
		ticket, err := d.deps.Tickets.UpdateTicket(ctx, a.RecordID, quickbase.Changes{
			Subject:     form.Subject,
			Description: form.Description,
			Priority:    form.Priority,
			Category:    form.Category,
			Status:      quickbase.StatusOpen,
		})
		switch {
		case err == nil:
			d.deps.Metrics.TicketRecorded(quickbase.StatusOpen, "ok")
			log.InfoContext(ctx, "Ticket escalated from form", "ticket_number", ticket.Number)
			return d.ticketReply(d.deps.Messages.TicketEscalated, ticket)
		case !errs.Is(err, errs.CodeNotFound):
			d.deps.Metrics.TicketRecorded(quickbase.StatusOpen, "error")
			log.ErrorContext(ctx, "Failed to update ticket from form", "error", err)
			return Reply{Kind: ReplyText, Text: d.deps.Messages.TicketFailed}
		}
		log.WarnContext(ctx, "Ticket from form no longer exists, opening a new one")
	}

	return d.open(ctx, in, form)
}

func (d *Desk) open(ctx context.Context, in Inquiry, form TicketForm) Reply {
	ticket, err := d.deps.Tickets.CreateTicket(ctx, quickbase.NewTicket{
		Subject:     form.Subject,
		Description: form.Description,
		Priority:    form.Priority,
		Category:    form.Category,
		Status:      quickbase.StatusOpen,
		UserEmail:   in.User.Email,
		UserName:    in.User.Name,
	})
	if err != nil {
		d.deps.Metrics.TicketRecorded(quickbase.StatusOpen, "error")
		d.log.ErrorContext(ctx, "Failed to open ticket", "platform", in.Platform, "error", err)
		return Reply{Kind: ReplyText, Text: d.deps.Messages.TicketFailed}
	}

	d.deps.Metrics.TicketRecorded(quickbase.StatusOpen, "ok")
	d.log.InfoContext(ctx, "Ticket opened", "platform", in.Platform, "ticket_number", ticket.Number)
	return d.ticketReply(d.deps.Messages.TicketCreated, ticket)
}

// record mirrors an answered question into the ticketing system. Failures are
// logged and reported as a nil ticket.
func (d *Desk) record(ctx context.Context, in Inquiry, answer responder.Answer) *quickbase.Ticket {
	category := quickbase.DefaultCategory
	if answer.Entry != nil && quickbase.IsCategory(answer.Entry.Category) {
		category = answer.Entry.Category
	}

	ticket, err := d.deps.Tickets.CreateTicket(ctx, quickbase.NewTicket{
		Subject:     Subject(in.Text),
		Description: in.Text + botResponseSeparator + answer.Body,
		Priority:    quickbase.PriorityLow,
		Category:    category,
		Status:      quickbase.StatusBotAssisted,
		UserEmail:   in.User.Email,
		UserName:    in.User.Name,
	})
	if err != nil {
		d.deps.Metrics.TicketRecorded(quickbase.StatusBotAssisted, "error")
		d.log.ErrorContext(ctx, "Failed to record bot-assisted ticket",
			"platform", in.Platform,
			"conversation_id", in.ConversationID,
			"error", err)
		return nil
	}

	d.deps.Metrics.TicketRecorded(quickbase.StatusBotAssisted, "ok")
	return ticket
}

func (d *Desk) recentTurns(ctx context.Context, conversationID string) []generator.Turn {
	if d.deps.History == nil || d.deps.HistoryTurns <= 0 || conversationID == "" {
		return nil
	}

	turns, err := d.deps.History.RecentTurns(ctx, conversationID, d.deps.HistoryTurns*2)
	if err != nil {
		d.log.WarnContext(ctx, "Failed to load conversation history", "conversation_id", conversationID, "error", err)
		return nil
	}

	history := make([]generator.Turn, 0, len(turns))
	for _, t := range turns {
		history = append(history, generator.Turn{Role: t.Role, Content: t.Content})
	}
	return history
}

func (d *Desk) saveExchange(ctx context.Context, in Inquiry, answer responder.Answer) {
	if d.deps.History == nil || in.ConversationID == "" {
		return
	}

	for _, turn := range []*database.Turn{
		{Role: database.RoleUser, Content: in.Text},
		{Role: database.RoleAssistant, Content: answer.Body, Source: answer.Source},
	} {
		turn.ConversationID = in.ConversationID
		turn.Platform = in.Platform
		turn.UserID = in.User.ID
		if err := d.deps.History.SaveTurn(ctx, turn); err != nil {
			d.log.WarnContext(ctx, "Failed to save conversation turn", "conversation_id", in.ConversationID, "error", err)
			return
		}
	}
}

func (d *Desk) ticketReply(template string, t *quickbase.Ticket) Reply {
	return Reply{
		Kind:     ReplyTicket,
		Text:     fill(template, "{ticket}", t.Number, "{status}", t.Status),
		Ticket:   t,
		RecordID: t.RecordID,
	}
}

// fill substitutes {placeholder} pairs in a configured message.
func fill(template string, oldnew ...string) string {
	return strings.NewReplacer(oldnew...).Replace(template)
}
