// Package handlers contains the Telegram command, message and callback
// handlers, their registration and middleware.
package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Typing shows the "typing" chat action while the wrapped handler runs a
// ticketing or generator call.
func Typing(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			if chatID, ok := updateChatID(update); ok {
				_, err := b.SendChatAction(ctx, &tgbot.SendChatActionParams{
					ChatID: chatID,
					Action: models.ChatActionTyping,
				})
				if err != nil {
					deps.Logger.DebugContext(ctx, "Typing action failed", "chat_id", chatID, "error", err)
				}
			}
			next(ctx, b, update)
		}
	}
}

func updateChatID(update *models.Update) (int64, bool) {
	switch {
	case update.Message != nil:
		return update.Message.Chat.ID, true
	case update.CallbackQuery != nil && update.CallbackQuery.Message.Message != nil:
		return update.CallbackQuery.Message.Message.Chat.ID, true
	}
	return 0, false
}
