// Package teams adapts the Bot Framework protocol used by Microsoft Teams to
// the desk flow: inbound activity parsing and token verification, Adaptive
// Card rendering and replies through the connector REST API.
package teams

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Activity types handled by the webhook.
const (
	ActivityMessage            = "message"
	ActivityConversationUpdate = "conversationUpdate"
)

// Activity is the subset of the Bot Framework activity schema the bot uses.
type Activity struct {
	Type         string              `json:"type"`
	ID           string              `json:"id,omitempty"`
	ServiceURL   string              `json:"serviceUrl,omitempty"`
	ChannelID    string              `json:"channelId,omitempty"`
	From         ChannelAccount      `json:"from"`
	Recipient    ChannelAccount      `json:"recipient"`
	Conversation ConversationAccount `json:"conversation"`
	Text         string              `json:"text,omitempty"`
	TextFormat   string              `json:"textFormat,omitempty"`
	Locale       string              `json:"locale,omitempty"`
	ReplyToID    string              `json:"replyToId,omitempty"`
	Value        json.RawMessage     `json:"value,omitempty"`
	MembersAdded []ChannelAccount    `json:"membersAdded,omitempty"`
	Attachments  []Attachment        `json:"attachments,omitempty"`
}

// ChannelAccount identifies a user or the bot.
type ChannelAccount struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	AADObjectID string `json:"aadObjectId,omitempty"`
}

// ConversationAccount identifies a conversation.
type ConversationAccount struct {
	ID               string `json:"id"`
	Name             string `json:"name,omitempty"`
	ConversationType string `json:"conversationType,omitempty"`
	TenantID         string `json:"tenantId,omitempty"`
	IsGroup          bool   `json:"isGroup,omitempty"`
}

// Attachment carries a card.
type Attachment struct {
	ContentType string `json:"contentType"`
	Content     any    `json:"content"`
}

// TeamsChannelAccount is returned by the conversation members endpoint.
type TeamsChannelAccount struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// actionValue is the data of an Action.Submit merged with the card inputs.
type actionValue struct {
	Action      string   `json:"action"`
	RecordID    recordID `json:"record_id"`
	Question    string   `json:"question"`
	Subject     string   `json:"subject"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Priority    string   `json:"priority"`
}

// recordID accepts a JSON number or a numeric string.
type recordID int64

func (r *recordID) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*r = 0
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return err
	}
	*r = recordID(n)
	return nil
}

var (
	mentionTag = regexp.MustCompile(`(?s)<at>.*?</at>`)
	htmlTag    = regexp.MustCompile(`<[^>]+>`)
)

// cleanText removes @mentions and markup that Teams adds to message text.
func cleanText(text string) string {
	text = mentionTag.ReplaceAllString(text, "")
	text = htmlTag.ReplaceAllString(text, "")
	text = strings.NewReplacer("&nbsp;", " ", "&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'").Replace(text)
	return strings.TrimSpace(text)
}

// reply builds an outgoing message addressed back to the sender of a.
func reply(a *Activity) *Activity {
	return &Activity{
		Type:         ActivityMessage,
		From:         a.Recipient,
		Recipient:    a.From,
		Conversation: a.Conversation,
		ReplyToID:    a.ID,
		Locale:       a.Locale,
	}
}
