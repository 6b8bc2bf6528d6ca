package quickbase

import (
	"fmt"
	"time"
)

// Ticket statuses.
const (
	StatusBotAssisted = "Bot Assisted"
	StatusOpen        = "Open"
	StatusResolved    = "Resolved"
)

// Ticket priorities.
const (
	PriorityLow      = "Low"
	PriorityMedium   = "Medium"
	PriorityHigh     = "High"
	PriorityCritical = "Critical"
)

// DefaultCategory is used when no better category is known.
const DefaultCategory = "General Support"

// Categories lists the ticket categories accepted by the tickets table.
var Categories = []string{
	"Password Reset",
	"Software Installation",
	"Hardware Issue",
	"Network Connectivity",
	"Email Issues",
	"Teams/Office 365",
	"VPN Access",
	"Printer Problems",
	"File Access",
	"Security Concern",
	"New User Setup",
	DefaultCategory,
	"Other",
}

// Priorities lists the accepted priorities, lowest first.
var Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// IsCategory reports whether c is a known category.
func IsCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Ticket is a record in the tickets table.
type Ticket struct {
	RecordID    int64     `json:"record_id"`
	Number      string    `json:"ticket_number"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	UserEmail   string    `json:"user_email"`
	UserName    string    `json:"user_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	URL         string    `json:"url"`
}

// NewTicket holds the fields of a ticket to create.
type NewTicket struct {
	Subject     string
	Description string
	Priority    string
	Category    string
	Status      string
	UserEmail   string
	UserName    string
}

// Changes lists the fields to update. Empty strings leave a field untouched.
type Changes struct {
	Subject     string
	Description string
	Priority    string
	Category    string
	Status      string
}

// Stats summarizes the tickets table.
type Stats struct {
	Open          int            `json:"open"`
	BotAssisted   int            `json:"bot_assisted"`
	ResolvedToday int            `json:"resolved_today"`
	ByPriority    map[string]int `json:"by_priority"`
	ByStatus      map[string]int `json:"by_status"`
}

// Field describes one column of the tickets table.
type Field struct {
	ID        int    `json:"id"`
	Label     string `json:"label"`
	FieldType string `json:"fieldType"`
}

// FallbackNumber formats a ticket number from a record id when the table
// does not compute one itself.
func FallbackNumber(recordID int64) string {
	return fmt.Sprintf("IT-%04d", recordID)
}
