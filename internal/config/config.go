// Package config provides configuration loading, validation, and management
// for the helpdesk bot. It reads an optional YAML file, overlays environment
// variables and validates the result.
package config

import "time"

// Config defines the application configuration parameters for all components.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Server    ServerConfig    `mapstructure:"server"`
	Teams     TeamsConfig     `mapstructure:"teams"`
	Generator GeneratorConfig `mapstructure:"generator"`
	QuickBase QuickBaseConfig `mapstructure:"quickbase"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Database  DatabaseConfig  `mapstructure:"database"`
	History   HistoryConfig   `mapstructure:"history"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls the slog handler.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// ServerConfig configures the webhook HTTP listener.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"          validate:"required"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"  validate:"min=1s"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"min=1s"`
	// RateLimit is the number of requests allowed per client IP per minute. Zero disables the limiter.
	RateLimit int `mapstructure:"rate_limit" validate:"min=0"`
	// RedisURL, when set, stores limiter counters in Redis so that all instances share them.
	RedisURL string `mapstructure:"redis_url" validate:"omitempty,url"`
}

// TeamsConfig holds the Bot Framework registration used for Microsoft Teams.
type TeamsConfig struct {
	AppID     string `mapstructure:"app_id"     validate:"required_unless=SkipAuth true"`
	AppSecret string `mapstructure:"app_secret" validate:"required_unless=SkipAuth true"`
	TenantID  string `mapstructure:"tenant_id"`
	// SkipAuth disables inbound token verification and outbound token acquisition.
	// Only meant for the Bot Framework Emulator.
	SkipAuth     bool          `mapstructure:"skip_auth"`
	Issuer       string        `mapstructure:"issuer"        validate:"required"`
	JWKSURL      string        `mapstructure:"jwks_url"      validate:"required,url"`
	ReplyTimeout time.Duration `mapstructure:"reply_timeout" validate:"min=1s,max=1m"`

	// ProcessTimeout bounds the background handling of one activity.
	ProcessTimeout time.Duration `mapstructure:"process_timeout" validate:"min=1s,max=10m"`
}

// GeneratorConfig configures the generative-text fallback.
type GeneratorConfig struct {
	Provider string `mapstructure:"provider" validate:"oneof=openai gemini"`
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url"`
	APIKey   string `mapstructure:"api_key"  validate:"required"`
	Model    string `mapstructure:"model"    validate:"required"`
	// APIVersion switches the openai provider to Azure OpenAI semantics when set.
	APIVersion        string        `mapstructure:"api_version"`
	Temperature       float32       `mapstructure:"temperature"        validate:"min=0,max=2"`
	MaxTokens         int           `mapstructure:"max_tokens"         validate:"min=0"`
	Timeout           time.Duration `mapstructure:"timeout"            validate:"min=1s,max=5m"`
	MaxRetries        uint          `mapstructure:"max_retries"        validate:"max=5"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"`
	SystemInstruction string        `mapstructure:"system_instruction" validate:"required"`
}

// QuickBaseConfig configures the ticketing backend.
type QuickBaseConfig struct {
	BaseURL    string          `mapstructure:"base_url"    validate:"required,url"`
	Realm      string          `mapstructure:"realm"       validate:"required"`
	UserToken  string          `mapstructure:"user_token"  validate:"required"`
	AppID      string          `mapstructure:"app_id"`
	TableID    string          `mapstructure:"table_id"    validate:"required"`
	Timeout    time.Duration   `mapstructure:"timeout"     validate:"min=1s,max=2m"`
	MaxRetries uint            `mapstructure:"max_retries" validate:"max=5"`
	RetryDelay time.Duration   `mapstructure:"retry_delay"`
	Fields     QuickBaseFields `mapstructure:"fields"`
}

// QuickBaseFields maps ticket attributes to QuickBase field ids.
type QuickBaseFields struct {
	DateCreated  int `mapstructure:"date_created"  validate:"gt=0"`
	DateModified int `mapstructure:"date_modified" validate:"gt=0"`
	RecordID     int `mapstructure:"record_id"     validate:"gt=0"`
	TicketNumber int `mapstructure:"ticket_number" validate:"gt=0"`
	Subject      int `mapstructure:"subject"       validate:"gt=0"`
	Description  int `mapstructure:"description"   validate:"gt=0"`
	Priority     int `mapstructure:"priority"      validate:"gt=0"`
	Category     int `mapstructure:"category"      validate:"gt=0"`
	Status       int `mapstructure:"status"        validate:"gt=0"`
	UserEmail    int `mapstructure:"user_email"    validate:"gt=0"`
	UserName     int `mapstructure:"user_name"     validate:"gt=0"`
}

// KnowledgeConfig points at the keyword table. An empty path selects the built-in entries.
type KnowledgeConfig struct {
	Path string `mapstructure:"path"`
}

// DatabaseConfig configures the local conversation-history database.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// HistoryConfig controls how much conversation context reaches the generator.
type HistoryConfig struct {
	// MaxTurns is the number of user/assistant exchanges replayed to the generator. Zero disables history.
	MaxTurns  int           `mapstructure:"max_turns" validate:"min=0,max=50"`
	Retention time.Duration `mapstructure:"retention" validate:"min=1h"`
}

// SchedulerConfig lists background tasks by registry name.
type SchedulerConfig struct {
	Tasks          map[string]TaskConfig `mapstructure:"tasks"            validate:"dive"`
	AutoCloseAfter time.Duration         `mapstructure:"auto_close_after" validate:"min=1m"`
}

// TaskConfig enables a task and sets its cron schedule (seconds field optional).
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// TelegramConfig enables the optional Telegram channel when Token is set.
type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

// MessagesConfig holds every user-visible string.
type MessagesConfig struct {
	Welcome             string `mapstructure:"welcome"               validate:"required"`
	Help                string `mapstructure:"help"                  validate:"required"`
	Fallback            string `mapstructure:"fallback"              validate:"required"`
	FeedbackPrompt      string `mapstructure:"feedback_prompt"       validate:"required"`
	ResolvedButton      string `mapstructure:"resolved_button"       validate:"required"`
	EscalateButton      string `mapstructure:"escalate_button"       validate:"required"`
	Acknowledgment      string `mapstructure:"acknowledgment"        validate:"required"`
	FormTitle           string `mapstructure:"form_title"            validate:"required"`
	FormSubmit          string `mapstructure:"form_submit"           validate:"required"`
	TicketCreated       string `mapstructure:"ticket_created"        validate:"required"`
	TicketEscalated     string `mapstructure:"ticket_escalated"      validate:"required"`
	TicketFailed        string `mapstructure:"ticket_failed"         validate:"required"`
	TicketNotFound      string `mapstructure:"ticket_not_found"      validate:"required"`
	TicketUsage         string `mapstructure:"ticket_usage"          validate:"required"`
	StatusUsage         string `mapstructure:"status_usage"          validate:"required"`
	NoOpenTickets       string `mapstructure:"no_open_tickets"       validate:"required"`
	EmailUnknown        string `mapstructure:"email_unknown"         validate:"required"`
	InvalidForm         string `mapstructure:"invalid_form"          validate:"required"`
	GeneralError        string `mapstructure:"general_error"         validate:"required"`
	EscalateNeedsTicket string `mapstructure:"escalate_needs_ticket" validate:"required"`
	HistoryCleared      string `mapstructure:"history_cleared"       validate:"required"`
}
