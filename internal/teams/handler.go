package teams

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edgard/helpdeskbot/internal/config"
	"github.com/edgard/helpdeskbot/internal/desk"
	"github.com/edgard/helpdeskbot/internal/errs"
)

// Desk is the support flow the handler delegates to.
type Desk interface {
	HandleMessage(ctx context.Context, in desk.Inquiry) desk.Reply
	HandleAction(ctx context.Context, in desk.Inquiry, a desk.Action) desk.Reply
}

const defaultProcessTimeout = 2 * time.Minute

// HandlerDeps provides the collaborators of a Handler. ProcessTimeout bounds
// the background work for one activity; zero means two minutes.
type HandlerDeps struct {
	Logger         *slog.Logger
	Messages       config.MessagesConfig
	Auth           Authenticator
	Connector      Connector
	Desk           Desk
	ProcessTimeout time.Duration
}

// Handler processes Bot Framework activities posted to the webhook.
type Handler struct {
	deps    HandlerDeps
	log     *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewHandler creates a Handler.
func NewHandler(deps HandlerDeps) *Handler {
	timeout := deps.ProcessTimeout
	if timeout <= 0 {
		timeout = defaultProcessTimeout
	}
	return &Handler{deps: deps, log: deps.Logger.With("component", "teams"), timeout: timeout}
}

// Process authenticates one activity and hands it to a background worker.
// Malformed bodies yield a CodeValidation error and failed authentication a
// CodeUnauthorized error. Once accepted, the activity is answered through
// the connector, so the webhook can acknowledge it well inside the channel's
// delivery timeout and the channel never redelivers a recorded message.
func (h *Handler) Process(ctx context.Context, authHeader string, body []byte) error {
	var a Activity
	if err := json.Unmarshal(body, &a); err != nil {
		return errs.NewValidationError("malformed activity", err)
	}
	if a.Type == "" || a.ServiceURL == "" || a.Conversation.ID == "" {
		return errs.NewValidationError("activity is missing type, serviceUrl or conversation", nil)
	}

	if err := h.deps.Auth.Authenticate(ctx, authHeader, a.ServiceURL); err != nil {
		return err
	}

	log := h.log.With(
		"request_id", uuid.NewString(),
		"activity_id", a.ID,
		"activity_type", a.Type,
		"conversation_id", a.Conversation.ID,
	)

	var work func(context.Context, *slog.Logger, *Activity)
	switch a.Type {
	case ActivityMessage:
		work = h.handleMessage
	case ActivityConversationUpdate:
		work = h.welcome
	default:
		log.DebugContext(ctx, "Ignoring activity")
		return nil
	}

	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
	h.wg.Go(func() {
		defer cancel()
		work(bg, log, &a)
	})
	return nil
}

// Wait blocks until every accepted activity has been handled.
func (h *Handler) Wait() {
	h.wg.Wait()
}

func (h *Handler) handleMessage(ctx context.Context, log *slog.Logger, a *Activity) {
	in := desk.Inquiry{
		Platform:       desk.PlatformTeams,
		ConversationID: a.Conversation.ID,
		User: desk.User{
			ID:    a.From.ID,
			Name:  a.From.Name,
			Email: h.email(ctx, log, a),
		},
		Text: cleanText(a.Text),
	}

	var r desk.Reply
	if action, ok := parseAction(a.Value); ok {
		log.InfoContext(ctx, "Card action received", "action", action.Name, "record_id", action.RecordID)
		r = h.deps.Desk.HandleAction(ctx, in, action)
	} else {
		r = h.deps.Desk.HandleMessage(ctx, in)
	}

	out := reply(a)
	render(out, r, h.deps.Messages)
	if err := h.deps.Connector.SendActivity(ctx, a.ServiceURL, out); err != nil {
		log.ErrorContext(ctx, "Failed to deliver reply", "reply_kind", r.Kind, "error", err)
		return
	}
	log.InfoContext(ctx, "Reply delivered", "reply_kind", r.Kind, "record_id", r.RecordID)
}

// welcome greets users added to a conversation, skipping the bot itself.
func (h *Handler) welcome(ctx context.Context, log *slog.Logger, a *Activity) {
	for _, member := range a.MembersAdded {
		if member.ID == a.Recipient.ID {
			continue
		}
		out := reply(a)
		out.ReplyToID = ""
		out.Recipient = member
		out.Text = h.deps.Messages.Welcome
		if err := h.deps.Connector.SendActivity(ctx, a.ServiceURL, out); err != nil {
			log.ErrorContext(ctx, "Failed to send welcome", "member_id", member.ID, "error", err)
		}
	}
}

// email resolves the sender's address through the members endpoint. Failures
// leave it empty; the ticket is then recorded without a requester email.
func (h *Handler) email(ctx context.Context, log *slog.Logger, a *Activity) string {
	member, err := h.deps.Connector.Member(ctx, a.ServiceURL, a.Conversation.ID, a.From.ID)
	if err != nil {
		log.WarnContext(ctx, "Could not resolve sender email", "user_id", a.From.ID, "error", err)
		return ""
	}
	if member.Email != "" {
		return member.Email
	}
	if strings.Contains(member.UserPrincipalName, "@") {
		return member.UserPrincipalName
	}
	return ""
}

func parseAction(value json.RawMessage) (desk.Action, bool) {
	if len(value) == 0 || string(value) == "null" {
		return desk.Action{}, false
	}
	var v actionValue
	if err := json.Unmarshal(value, &v); err != nil || v.Action == "" {
		return desk.Action{}, false
	}
	return desk.Action{
		Name:     v.Action,
		RecordID: int64(v.RecordID),
		Question: v.Question,
		Form: desk.TicketForm{
			Subject:     v.Subject,
			Description: v.Description,
			Category:    v.Category,
			Priority:    v.Priority,
		},
	}, true
}
