package desk

import (
	"context"

	"github.com/edgard/helpdeskbot/internal/database"
	"github.com/edgard/helpdeskbot/internal/quickbase"
	"github.com/edgard/helpdeskbot/internal/responder"
)

// Platforms an inquiry can arrive from.
const (
	PlatformTeams    = "teams"
	PlatformTelegram = "telegram"
	PlatformCLI      = "cli"
)

// Feedback action names carried by answer cards and buttons.
const (
	ActionResolved = "resolved"
	ActionEscalate = "escalate"
	ActionSubmit   = "submit_ticket"
)

// User identifies the person asking.
type User struct {
	ID    string
	Name  string
	Email string
}

// Inquiry is one inbound chat message, already stripped of platform markup.
type Inquiry struct {
	Platform       string
	ConversationID string
	User           User
	Text           string
}

// Action is a feedback button press or a submitted ticket form.
type Action struct {
	Name     string
	RecordID int64
	Question string
	Form     TicketForm
}

// ReplyKind tells the platform adapter how to render a Reply.
type ReplyKind string

const (
	// ReplyText is a plain message.
	ReplyText ReplyKind = "text"
	// ReplyAnswer is an answer followed by the resolved / escalate actions.
	ReplyAnswer ReplyKind = "answer"
	// ReplyForm asks the user to fill in a ticket form.
	ReplyForm ReplyKind = "form"
	// ReplyTicket reports a single ticket.
	ReplyTicket ReplyKind = "ticket"
	// ReplyTickets lists tickets.
	ReplyTickets ReplyKind = "tickets"
)

// Reply is the platform-neutral outcome of handling an inquiry or action.
type Reply struct {
	Kind ReplyKind
	Text string

	// Answer, Question and RecordID are set for ReplyAnswer. RecordID is zero
	// when the ticket could not be recorded.
	Answer   responder.Answer
	Question string
	RecordID int64

	// Form is the pre-filled form for ReplyForm.
	Form TicketForm

	Ticket  *quickbase.Ticket
	Tickets []quickbase.Ticket
}

// Tickets is the ticketing backend.
type Tickets interface {
	CreateTicket(ctx context.Context, t quickbase.NewTicket) (*quickbase.Ticket, error)
	UpdateTicket(ctx context.Context, recordID int64, ch quickbase.Changes) (*quickbase.Ticket, error)
	GetTicket(ctx context.Context, number string) (*quickbase.Ticket, error)
	UserTickets(ctx context.Context, email string, limit int) ([]quickbase.Ticket, error)
}

// History stores conversation turns replayed to the generator.
type History interface {
	SaveTurn(ctx context.Context, turn *database.Turn) error
	RecentTurns(ctx context.Context, conversationID string, limit int) ([]database.Turn, error)
	ClearConversation(ctx context.Context, conversationID string) (int64, error)
}

// Responder answers questions.
type Responder interface {
	Respond(ctx context.Context, req responder.Request) responder.Answer
}
