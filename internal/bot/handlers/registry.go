package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// Callback data prefixes of the feedback keyboard, followed by the record id.
const (
	callbackResolved = "resolved:"
	callbackEscalate = "escalate:"
)

// RegisteredHandler describes one Telegram handler and its middleware.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands returns the command and callback handlers. Free text is
// served by the default handler, see NewMessageHandler.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	command := NewCommandHandler(deps)
	for _, name := range []string{"start", "help", "status", "my_tickets", "reset"} {
		handlers["/"+name] = RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     name,
			Handler:     command,
			MatchType:   tgbot.MatchTypeCommandStartOnly,
		}
	}

	typing := []tgbot.Middleware{Typing(deps)}

	handlers["/ticket"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "ticket",
		Handler:     NewTicketHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  typing,
	}
	handlers[callbackResolved] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeCallbackQueryData,
		Pattern:     callbackResolved,
		Handler:     NewCallbackHandler(deps),
		MatchType:   tgbot.MatchTypePrefix,
	}
	handlers[callbackEscalate] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeCallbackQueryData,
		Pattern:     callbackEscalate,
		Handler:     NewCallbackHandler(deps),
		MatchType:   tgbot.MatchTypePrefix,
		Middleware:  typing,
	}

	return handlers
}
