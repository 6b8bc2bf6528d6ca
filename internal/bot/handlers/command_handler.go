package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewCommandHandler returns the handler for the commands the desk answers
// directly: /start, /help, /status, /my_tickets and /reset.
func NewCommandHandler(deps HandlerDeps) bot.HandlerFunc {
	return commandHandler{deps}.Handle
}

type commandHandler struct {
	deps HandlerDeps
}

func (h commandHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "command")

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.WarnContext(ctx, "Command handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, deskTimeout)
	defer cancel()

	r := h.deps.Desk.HandleMessage(ctx, inquiry(msg, msg.From, msg.Text))
	sendReply(ctx, b, log, h.deps, msg.Chat.ID, 0, r)
}
