package config

import "time"

// DefaultSystemInstruction is the persona used for generated answers.
const DefaultSystemInstruction = `You are a direct, efficient IT support assistant for company employees.

Company culture values:
- Brevity and clarity over lengthy explanations
- Actionable, numbered steps over theory
- Getting users working as soon as possible

Answer the user's IT problem with a short, step-by-step solution. If the problem clearly needs
hands-on help from IT staff (hardware replacement, licenses, admin access, new user setup), say so
in one sentence and suggest opening a ticket.`

// defaults lists every configuration key with its default value. Every key must
// be present here so that environment overrides reach viper's Unmarshal.
var defaults = map[string]any{
	"logger.level": "info",
	"logger.json":  true,

	"server.addr":          ":8080",
	"server.read_timeout":  30 * time.Second,
	"server.write_timeout": 60 * time.Second,
	"server.rate_limit":    120,
	"server.redis_url":     "",

	"teams.app_id":          "",
	"teams.app_secret":      "",
	"teams.tenant_id":       "",
	"teams.skip_auth":       false,
	"teams.issuer":          "https://api.botframework.com",
	"teams.jwks_url":        "https://login.botframework.com/v1/.well-known/keys",
	"teams.reply_timeout":   15 * time.Second,
	"teams.process_timeout": 2 * time.Minute,

	"generator.provider":           "openai",
	"generator.endpoint":           "",
	"generator.api_key":            "",
	"generator.model":              "gpt-4o",
	"generator.api_version":        "",
	"generator.temperature":        0.3,
	"generator.max_tokens":         800,
	"generator.timeout":            20 * time.Second,
	"generator.max_retries":        1,
	"generator.retry_delay":        500 * time.Millisecond,
	"generator.system_instruction": DefaultSystemInstruction,

	"quickbase.base_url":    "https://api.quickbase.com/v1",
	"quickbase.realm":       "",
	"quickbase.user_token":  "",
	"quickbase.app_id":      "",
	"quickbase.table_id":    "",
	"quickbase.timeout":     10 * time.Second,
	"quickbase.max_retries": 1,
	"quickbase.retry_delay": 500 * time.Millisecond,

	"quickbase.fields.date_created":  1,
	"quickbase.fields.date_modified": 2,
	"quickbase.fields.record_id":     3,
	"quickbase.fields.ticket_number": 6,
	"quickbase.fields.subject":       7,
	"quickbase.fields.description":   8,
	"quickbase.fields.priority":      9,
	"quickbase.fields.category":      10,
	"quickbase.fields.status":        11,
	"quickbase.fields.user_email":    12,
	"quickbase.fields.user_name":     13,

	"knowledge.path": "",

	"database.path": "helpdesk.db",

	"history.max_turns": 5,
	"history.retention": 7 * 24 * time.Hour,

	"scheduler.auto_close_after": 24 * time.Hour,
	"scheduler.tasks": map[string]any{
		"auto_close":      map[string]any{"enabled": true, "schedule": "0 */15 * * * *"},
		"history_prune":   map[string]any{"enabled": true, "schedule": "0 30 3 * * *"},
		"sql_maintenance": map[string]any{"enabled": true, "schedule": "0 0 4 * * 0"},
	},

	"telegram.token": "",

	"messages.welcome":               "👋 Hi! I'm the IT support bot. Describe your problem and I'll try to fix it right away.",
	"messages.help":                  "Describe your IT problem in a sentence and I'll answer right away.\n\nCommands:\n/status <ticket> - check a ticket\n/my-tickets - list your open tickets\n/ticket - open a ticket for IT staff\n/reset - forget this conversation\n/help - show this message",
	"messages.fallback":              "I couldn't work this one out automatically. Please contact the IT service desk, or use \"I still need help\" to open a ticket.",
	"messages.feedback_prompt":       "Did this solve your problem?",
	"messages.resolved_button":       "✅ This helped",
	"messages.escalate_button":       "🙋 I still need help",
	"messages.acknowledgment":        "✅ Great, glad that worked! Your request will be closed automatically.",
	"messages.form_title":            "Open a ticket with IT",
	"messages.form_submit":           "Submit ticket",
	"messages.ticket_created":        "🎫 Ticket {ticket} created with status {status}. IT will follow up.",
	"messages.ticket_escalated":      "🎫 Ticket {ticket} is now {status}. IT staff will pick it up shortly.",
	"messages.ticket_failed":         "❌ I couldn't reach the ticketing system. Please try again in a few minutes or contact the IT service desk.",
	"messages.ticket_not_found":      "I couldn't find ticket {ticket}.",
	"messages.ticket_usage":          "Send /ticket followed by a description of the problem.",
	"messages.status_usage":          "Send /status followed by a ticket number, for example /status IT-0042.",
	"messages.no_open_tickets":       "✅ You have no open tickets.",
	"messages.email_unknown":         "I couldn't determine your email address, so I can't look up your tickets.",
	"messages.invalid_form":          "Some ticket fields are missing or invalid: {errors}",
	"messages.general_error":         "❌ An error occurred. Please try again later.",
	"messages.escalate_needs_ticket": "I couldn't record your request earlier. Send /ticket followed by a description and I'll open one for IT.",
	"messages.history_cleared":       "🧹 Conversation history cleared.",
}

// legacyEnv binds the environment variable names used by the original
// serverless deployment so existing app settings keep working.
var legacyEnv = map[string]string{
	"generator.endpoint":   "GPT5_ENDPOINT",
	"generator.api_key":    "GPT5_API_KEY",
	"generator.model":      "GPT5_MODEL",
	"quickbase.realm":      "QB_REALM",
	"quickbase.user_token": "QB_USER_TOKEN",
	"quickbase.app_id":     "QB_APP_ID",
	"quickbase.table_id":   "QB_TICKETS_TABLE_ID",
	"teams.app_id":         "TEAMS_APP_ID",
	"teams.app_secret":     "TEAMS_APP_SECRET",
	"teams.tenant_id":      "TEAMS_TENANT_ID",
}
