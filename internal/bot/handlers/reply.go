package handlers

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/helpdeskbot/internal/config"
	"github.com/edgard/helpdeskbot/internal/desk"
)

const (
	deskTimeout        = 90 * time.Second
	sendMessageTimeout = 10 * time.Second
)

// inquiry builds the desk input for a Telegram message. Telegram does not
// expose email addresses, so ticket lookups by requester are unavailable.
func inquiry(msg *models.Message, from *models.User, text string) desk.Inquiry {
	in := desk.Inquiry{
		Platform:       desk.PlatformTelegram,
		ConversationID: strconv.FormatInt(msg.Chat.ID, 10),
		Text:           text,
	}
	if from != nil {
		in.User = desk.User{
			ID:   strconv.FormatInt(from.ID, 10),
			Name: strings.TrimSpace(from.FirstName + " " + from.LastName),
		}
	}
	return in
}

// feedbackKeyboard offers the resolved and escalate buttons for a recorded answer.
func feedbackKeyboard(m config.MessagesConfig, recordID int64) *models.InlineKeyboardMarkup {
	id := strconv.FormatInt(recordID, 10)
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{{
			{Text: m.ResolvedButton, CallbackData: callbackResolved + id},
			{Text: m.EscalateButton, CallbackData: callbackEscalate + id},
		}},
	}
}

// sendReply renders r as plain text, attaching the feedback keyboard to
// answers, and sends it as a reply to replyTo.
func sendReply(ctx context.Context, b *tgbot.Bot, log *slog.Logger, deps HandlerDeps, chatID int64, replyTo int, r desk.Reply) {
	m := deps.Messages
	if r.Kind == desk.ReplyAnswer {
		r.Text = deps.Text.PlainText(r.Text)
	}
	params := &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   desk.RenderText(r, m),
	}
	if replyTo != 0 {
		params.ReplyParameters = &models.ReplyParameters{MessageID: replyTo}
	}
	if r.Kind == desk.ReplyAnswer {
		params.ReplyMarkup = feedbackKeyboard(m, r.RecordID)
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendMessageTimeout)
	defer cancel()
	if _, err := b.SendMessage(sendCtx, params); err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "chat_id", chatID, "reply_kind", r.Kind, "error", err)
	}
}
