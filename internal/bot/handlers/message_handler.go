package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewMessageHandler returns the default handler: every text message that is
// not a registered command is answered and recorded as a ticket.
func NewMessageHandler(deps HandlerDeps) bot.HandlerFunc {
	return Typing(deps)(messageHandler{deps}.Handle)
}

type messageHandler struct {
	deps HandlerDeps
}

func (h messageHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "message")

	msg := update.Message
	if msg == nil || msg.From == nil || strings.TrimSpace(msg.Text) == "" {
		log.DebugContext(ctx, "Ignoring update without text", "update_id", update.ID)
		return
	}
	if msg.From.IsBot {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, deskTimeout)
	defer cancel()

	// The reply quotes the question so an escalation can recover it later.
	r := h.deps.Desk.HandleMessage(ctx, inquiry(msg, msg.From, msg.Text))
	sendReply(ctx, b, log, h.deps, msg.Chat.ID, msg.ID, r)
}
