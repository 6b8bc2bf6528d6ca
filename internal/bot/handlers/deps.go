package handlers

import (
	"context"
	"log/slog"

	"github.com/edgard/helpdeskbot/internal/config"
	"github.com/edgard/helpdeskbot/internal/desk"
	"github.com/edgard/helpdeskbot/internal/sanitize"
)

// Desk is the support flow the Telegram handlers delegate to.
type Desk interface {
	HandleMessage(ctx context.Context, in desk.Inquiry) desk.Reply
	HandleAction(ctx context.Context, in desk.Inquiry, a desk.Action) desk.Reply
	Escalate(ctx context.Context, in desk.Inquiry, recordID int64, question string) desk.Reply
	OpenTicket(ctx context.Context, in desk.Inquiry, text string) desk.Reply
}

// HandlerDeps provides dependencies for Telegram handlers. Text converts
// generated markdown to plain text; nil sends answers as they are.
type HandlerDeps struct {
	Logger   *slog.Logger
	Messages config.MessagesConfig
	Desk     Desk
	Text     *sanitize.Policy
}
