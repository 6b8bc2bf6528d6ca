package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/helpdeskbot/internal/desk"
)

// NewCallbackHandler returns the handler for the feedback keyboard.
// "resolved:<rid>" acknowledges; "escalate:<rid>" moves the ticket to Open
// with the question taken from the message the answer replied to.
func NewCallbackHandler(deps HandlerDeps) bot.HandlerFunc {
	return callbackHandler{deps}.Handle
}

type callbackHandler struct {
	deps HandlerDeps
}

func (h callbackHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "callback")

	q := update.CallbackQuery
	if q == nil || q.Message.Message == nil {
		log.WarnContext(ctx, "Callback without an accessible message", "update_id", update.ID)
		return
	}
	answer := q.Message.Message

	if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: q.ID}); err != nil {
		log.DebugContext(ctx, "Failed to answer callback query", "error", err)
	}
	// Drop the keyboard so the same answer cannot be escalated twice.
	if _, err := b.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
		ChatID:      answer.Chat.ID,
		MessageID:   answer.ID,
		ReplyMarkup: &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{}},
	}); err != nil {
		log.DebugContext(ctx, "Failed to remove feedback keyboard", "error", err)
	}

	action, rawID, _ := strings.Cut(q.Data, ":")
	recordID, _ := strconv.ParseInt(rawID, 10, 64)

	var question string
	if answer.ReplyToMessage != nil {
		question = answer.ReplyToMessage.Text
	}
	in := inquiry(answer, &q.From, question)
	log = log.With("action", action, "record_id", recordID, "user_id", q.From.ID)

	ctx, cancel := context.WithTimeout(ctx, deskTimeout)
	defer cancel()

	var r desk.Reply
	switch action + ":" {
	case callbackResolved:
		r = h.deps.Desk.HandleAction(ctx, in, desk.Action{Name: desk.ActionResolved, RecordID: recordID, Question: question})
	case callbackEscalate:
		r = h.deps.Desk.Escalate(ctx, in, recordID, question)
	default:
		log.WarnContext(ctx, "Unknown callback data", "data", q.Data)
		return
	}
	sendReply(ctx, b, log, h.deps, answer.Chat.ID, 0, r)
}
