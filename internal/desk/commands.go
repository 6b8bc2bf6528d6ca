package desk

import (
	"context"
	"strings"

	"github.com/edgard/helpdeskbot/internal/errs"
)

// Chat commands. None of them records a Bot Assisted ticket.
const (
	CommandStart     = "/start"
	CommandHelp      = "/help"
	CommandStatus    = "/status"
	CommandMyTickets = "/my-tickets"
	CommandTicket    = "/ticket"
	CommandReset     = "/reset"
)

// ParseCommand splits "/status IT-0042" into "/status" and "IT-0042". A
// Telegram-style "@botname" suffix on the command is dropped, and underscores
// read as hyphens since Telegram command names cannot contain "-".
func ParseCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	cmd, arg, _ := strings.Cut(text, " ")
	if at := strings.IndexByte(cmd, '@'); at > 0 {
		cmd = cmd[:at]
	}
	cmd = strings.ReplaceAll(strings.ToLower(cmd), "_", "-")
	return cmd, strings.TrimSpace(arg)
}

func isCommand(cmd string) bool {
	switch cmd {
	case CommandStart, CommandHelp, CommandStatus, CommandMyTickets, CommandTicket, CommandReset:
		return true
	}
	return false
}

func (d *Desk) command(ctx context.Context, in Inquiry) Reply {
	cmd, arg := ParseCommand(in.Text)
	log := d.log.With("platform", in.Platform, "command", cmd, "user_id", in.User.ID)
	log.InfoContext(ctx, "Handling command")

	switch cmd {
	case CommandStart:
		return Reply{Kind: ReplyText, Text: d.deps.Messages.Welcome}

	case CommandStatus:
		return d.status(ctx, arg)

	case CommandMyTickets:
		return d.myTickets(ctx, in)

	case CommandTicket:
		// A description on the command line pre-fills the form.
		return Reply{
			Kind:     ReplyForm,
			Text:     d.deps.Messages.FormTitle,
			Form:     FormFromQuestion(arg, ""),
			Question: arg,
		}

	case CommandReset:
		if d.deps.History != nil {
			if _, err := d.deps.History.ClearConversation(ctx, in.ConversationID); err != nil {
				log.ErrorContext(ctx, "Failed to clear conversation history", "error", err)
				return Reply{Kind: ReplyText, Text: d.deps.Messages.GeneralError}
			}
		}
		return Reply{Kind: ReplyText, Text: d.deps.Messages.HistoryCleared}

	default:
		return Reply{Kind: ReplyText, Text: d.deps.Messages.Help}
	}
}

func (d *Desk) status(ctx context.Context, number string) Reply {
	number = strings.ToUpper(strings.TrimSpace(number))
	if number == "" {
		return Reply{Kind: ReplyText, Text: d.deps.Messages.StatusUsage}
	}

	ticket, err := d.deps.Tickets.GetTicket(ctx, number)
	switch {
	case errs.Is(err, errs.CodeNotFound):
		return Reply{Kind: ReplyText, Text: fill(d.deps.Messages.TicketNotFound, "{ticket}", number)}
	case err != nil:
		d.log.ErrorContext(ctx, "Failed to look up ticket", "ticket_number", number, "error", err)
		return Reply{Kind: ReplyText, Text: d.deps.Messages.TicketFailed}
	}

	return Reply{Kind: ReplyTicket, Ticket: ticket, RecordID: ticket.RecordID}
}

func (d *Desk) myTickets(ctx context.Context, in Inquiry) Reply {
	if in.User.Email == "" {
		return Reply{Kind: ReplyText, Text: d.deps.Messages.EmailUnknown}
	}

	tickets, err := d.deps.Tickets.UserTickets(ctx, in.User.Email, userTicketsLimit)
	if err != nil {
		d.log.ErrorContext(ctx, "Failed to list user tickets", "error", err)
		return Reply{Kind: ReplyText, Text: d.deps.Messages.TicketFailed}
	}
	if len(tickets) == 0 {
		return Reply{Kind: ReplyText, Text: d.deps.Messages.NoOpenTickets}
	}

	return Reply{Kind: ReplyTickets, Text: FormatTickets(tickets), Tickets: tickets}
}
