// Package logger configures structured logging for the helpdesk bot and
// provides request logging middleware for the webhook server and the
// Telegram channel.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/gofiber/fiber/v3"
)

// ParseLevel maps a configuration level name to a slog level, defaulting to info.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a slog Logger writing to stdout and installs it as the default.
func NewLogger(levelStr string, jsonOutput bool) *slog.Logger {
	logger := New(os.Stdout, levelStr, jsonOutput)
	slog.SetDefault(logger)
	return logger
}

// New creates a logger writing to w without touching the default logger.
func New(w io.Writer, levelStr string, jsonOutput bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(levelStr)}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// HTTPMiddleware logs every webhook request with its status and duration.
func HTTPMiddleware(log *slog.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		startTime := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		attrs := []any{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"ip", c.IP(),
			"duration", time.Since(startTime),
		}
		switch {
		case status >= fiber.StatusInternalServerError:
			log.ErrorContext(c.Context(), "Request failed", append(attrs, "error", err)...)
		case status >= fiber.StatusBadRequest:
			log.WarnContext(c.Context(), "Request rejected", append(attrs, "error", err)...)
		default:
			log.DebugContext(c.Context(), "Request handled", attrs...)
		}
		return err
	}
}

// TelegramMiddleware logs incoming Telegram updates before and after handling.
func TelegramMiddleware(log *slog.Logger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			startTime := time.Now()
			logEntry := log.With("update_id", update.ID)

			switch {
			case update.Message != nil:
				logEntry = logEntry.With(
					"update_type", "message",
					"chat_id", update.Message.Chat.ID,
					"message_id", update.Message.ID,
					"text_preview", Truncate(update.Message.Text, 50),
				)
			case update.CallbackQuery != nil:
				logEntry = logEntry.With(
					"update_type", "callback_query",
					"user_id", update.CallbackQuery.From.ID,
					"data", update.CallbackQuery.Data,
				)
			default:
				logEntry = logEntry.With("update_type", "other")
			}

			logEntry.DebugContext(ctx, "Processing update")
			next(ctx, b, update)
			logEntry.InfoContext(ctx, "Finished processing update", "duration", time.Since(startTime))
		}
	}
}

// Truncate shortens s to at most maxLen runes, marking the cut with "...".
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(runes[:maxLen-3]) + "..."
}
