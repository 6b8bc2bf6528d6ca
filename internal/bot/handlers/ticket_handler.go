package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/helpdeskbot/internal/desk"
)

// NewTicketHandler returns a handler for "/ticket <description>". Telegram has
// no forms, so the description opens an Open ticket right away.
func NewTicketHandler(deps HandlerDeps) bot.HandlerFunc {
	return ticketHandler{deps}.Handle
}

type ticketHandler struct {
	deps HandlerDeps
}

func (h ticketHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "ticket")

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.WarnContext(ctx, "Ticket handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	_, description := desk.ParseCommand(msg.Text)
	log.InfoContext(ctx, "Handling /ticket command", "chat_id", msg.Chat.ID, "user_id", msg.From.ID)

	ctx, cancel := context.WithTimeout(ctx, deskTimeout)
	defer cancel()

	r := h.deps.Desk.OpenTicket(ctx, inquiry(msg, msg.From, msg.Text), description)
	sendReply(ctx, b, log, h.deps, msg.Chat.ID, msg.ID, r)
}
