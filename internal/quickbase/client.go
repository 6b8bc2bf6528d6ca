// Package quickbase is a small client for the QuickBase JSON REST API, scoped
// to the IT tickets table.
package quickbase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/edgard/helpdeskbot/internal/config"
	"github.com/edgard/helpdeskbot/internal/errs"
	"github.com/edgard/helpdeskbot/internal/resilience"
)

const maxResponseBytes = 4 << 20

// Client talks to one QuickBase tickets table.
type Client struct {
	httpClient *http.Client
	baseURL    string
	realm      string
	token      string
	tableID    string
	fields     config.QuickBaseFields
	policy     resilience.Policy
	log        *slog.Logger
	now        func() time.Time
}

// NewClient creates a client from configuration. Reads and updates retry on
// throttling, server errors and transport failures; inserts only on 429 and 503.
func NewClient(cfg config.QuickBaseConfig, log *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		realm:      cfg.Realm,
		token:      cfg.UserToken,
		tableID:    cfg.TableID,
		fields:     cfg.Fields,
		policy: resilience.Policy{
			Attempts: cfg.MaxRetries + 1,
			Delay:    cfg.RetryDelay,
			Timeout:  cfg.Timeout,
		},
		log: log.With("component", "quickbase"),
		now: time.Now,
	}
}

// TicketURL links to the record in the QuickBase UI.
func (c *Client) TicketURL(recordID int64) string {
	return fmt.Sprintf("https://%s/db/%s?a=dr&rid=%d", c.realm, c.tableID, recordID)
}

// CreateTicket inserts a ticket and returns it with its record id and number.
func (c *Client) CreateTicket(ctx context.Context, t NewTicket) (*Ticket, error) {
	f := c.fields
	row := map[string]any{}
	setValue(row, f.Subject, t.Subject)
	setValue(row, f.Description, t.Description)
	setValue(row, f.Priority, t.Priority)
	setValue(row, f.Category, t.Category)
	setValue(row, f.Status, t.Status)
	setValue(row, f.UserEmail, t.UserEmail)
	setValue(row, f.UserName, t.UserName)

	resp, err := c.upsert(ctx, "create_ticket", []map[string]any{row}, retryableCreate)
	if err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	if len(resp.Metadata.CreatedRecordIDs) == 0 {
		return nil, fmt.Errorf("create ticket: %w", lineError(resp, "no record created"))
	}

	recordID := resp.Metadata.CreatedRecordIDs[0]
	ticket := &Ticket{
		RecordID:    recordID,
		Subject:     t.Subject,
		Description: t.Description,
		Priority:    t.Priority,
		Category:    t.Category,
		Status:      t.Status,
		UserEmail:   t.UserEmail,
		UserName:    t.UserName,
		CreatedAt:   c.now().UTC(),
		UpdatedAt:   c.now().UTC(),
		URL:         c.TicketURL(recordID),
	}
	if len(resp.Data) > 0 {
		ticket.Number = resp.Data[0].text(f.TicketNumber)
	}
	if ticket.Number == "" {
		ticket.Number = FallbackNumber(recordID)
	}

	c.log.InfoContext(ctx, "Ticket created",
		"record_id", recordID,
		"ticket_number", ticket.Number,
		"status", t.Status,
		"category", t.Category)
	return ticket, nil
}

// UpdateTicket applies changes to an existing record. A record id unknown to
// QuickBase yields a CodeNotFound error.
func (c *Client) UpdateTicket(ctx context.Context, recordID int64, ch Changes) (*Ticket, error) {
	if recordID <= 0 {
		return nil, errs.NewNotFoundError("update ticket: no record id", nil)
	}

	f := c.fields
	row := map[string]any{strconv.Itoa(f.RecordID): map[string]any{"value": recordID}}
	setValue(row, f.Subject, ch.Subject)
	setValue(row, f.Description, ch.Description)
	setValue(row, f.Priority, ch.Priority)
	setValue(row, f.Category, ch.Category)
	setValue(row, f.Status, ch.Status)

	resp, err := c.upsert(ctx, "update_ticket", []map[string]any{row}, retryable)
	if err != nil {
		return nil, fmt.Errorf("update ticket %d: %w", recordID, err)
	}

	if !containsID(resp.Metadata.UpdatedRecordIDs, recordID) && !containsID(resp.Metadata.UnchangedRecordIDs, recordID) {
		return nil, errs.NewNotFoundError(fmt.Sprintf("update ticket %d", recordID), lineError(resp, "record not found"))
	}

	var ticket *Ticket
	if len(resp.Data) > 0 {
		ticket = c.toTicket(resp.Data[0])
	}
	if ticket == nil || ticket.RecordID == 0 {
		ticket = &Ticket{RecordID: recordID, URL: c.TicketURL(recordID), Status: ch.Status}
	}

	c.log.InfoContext(ctx, "Ticket updated", "record_id", recordID, "ticket_number", ticket.Number, "status", ticket.Status)
	return ticket, nil
}

// UpdateStatuses sets status on every record in recordIDs and returns how many changed.
func (c *Client) UpdateStatuses(ctx context.Context, recordIDs []int64, status string) (int, error) {
	if len(recordIDs) == 0 {
		return 0, nil
	}

	rows := make([]map[string]any, 0, len(recordIDs))
	for _, id := range recordIDs {
		rows = append(rows, map[string]any{
			strconv.Itoa(c.fields.RecordID): map[string]any{"value": id},
			strconv.Itoa(c.fields.Status):   map[string]any{"value": status},
		})
	}

	resp, err := c.upsert(ctx, "update_statuses", rows, retryable)
	if err != nil {
		return 0, fmt.Errorf("update statuses: %w", err)
	}
	return len(resp.Metadata.UpdatedRecordIDs), nil
}

// GetTicket looks a ticket up by its number.
func (c *Client) GetTicket(ctx context.Context, number string) (*Ticket, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, errs.NewValidationError("ticket number is required", nil)
	}

	where := fmt.Sprintf("{%d.EX.'%s'}", c.fields.TicketNumber, quote(number))
	// Fall back to the record id for tables without a computed number field.
	if id, ok := parseFallbackNumber(number); ok {
		where += fmt.Sprintf("OR{%d.EX.%d}", c.fields.RecordID, id)
	}

	tickets, err := c.query(ctx, "get_ticket", where, 1)
	if err != nil {
		return nil, fmt.Errorf("get ticket %s: %w", number, err)
	}
	if len(tickets) == 0 {
		return nil, errs.NewNotFoundError(fmt.Sprintf("ticket %s not found", number), nil)
	}
	return &tickets[0], nil
}

// UserTickets returns the requester's tickets that are not resolved, newest first.
func (c *Client) UserTickets(ctx context.Context, email string, limit int) ([]Ticket, error) {
	if strings.TrimSpace(email) == "" {
		return nil, errs.NewValidationError("email is required", nil)
	}
	where := fmt.Sprintf("{%d.EX.'%s'}AND{%d.XEX.'%s'}",
		c.fields.UserEmail, quote(email), c.fields.Status, StatusResolved)

	tickets, err := c.query(ctx, "user_tickets", where, limit)
	if err != nil {
		return nil, fmt.Errorf("list tickets for %s: %w", email, err)
	}
	return tickets, nil
}

// ListByStatus returns tickets with the given status created before cutoff,
// oldest first. A zero cutoff returns every ticket with the status.
func (c *Client) ListByStatus(ctx context.Context, status string, cutoff time.Time, limit int) ([]Ticket, error) {
	where := fmt.Sprintf("{%d.EX.'%s'}", c.fields.Status, quote(status))

	// Oldest first so a limited page holds the tickets closest to any cutoff.
	tickets, err := c.queryOrdered(ctx, "list_by_status", where, limit, "ASC")
	if err != nil {
		return nil, fmt.Errorf("list %s tickets: %w", status, err)
	}
	if cutoff.IsZero() {
		return tickets, nil
	}

	filtered := tickets[:0]
	for _, t := range tickets {
		if !t.CreatedAt.IsZero() && t.CreatedAt.Before(cutoff) {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

// Statistics counts open tickets by priority and status, plus tickets resolved today.
func (c *Client) Statistics(ctx context.Context) (*Stats, error) {
	open, err := c.query(ctx, "statistics_open",
		fmt.Sprintf("{%d.XEX.'%s'}", c.fields.Status, StatusResolved), 0)
	if err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}
	resolved, err := c.query(ctx, "statistics_resolved",
		fmt.Sprintf("{%d.EX.'%s'}AND{%d.OAF.'today'}", c.fields.Status, StatusResolved, c.fields.DateModified), 0)
	if err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}

	stats := &Stats{
		Open:          len(open),
		ResolvedToday: len(resolved),
		ByPriority:    make(map[string]int),
		ByStatus:      make(map[string]int),
	}
	for _, t := range open {
		stats.ByPriority[t.Priority]++
		stats.ByStatus[t.Status]++
		if t.Status == StatusBotAssisted {
			stats.BotAssisted++
		}
	}
	return stats, nil
}

// Fields returns the tickets table schema.
func (c *Client) Fields(ctx context.Context) ([]Field, error) {
	var fields []Field
	path := "/fields?tableId=" + url.QueryEscape(c.tableID)
	if err := c.do(ctx, "fields", http.MethodGet, path, nil, &fields, retryable); err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}
	return fields, nil
}

// Ping checks that the table is reachable with the configured token.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Fields(ctx)
	return err
}

type fieldValue struct {
	Value json.RawMessage `json:"value"`
}

type record map[string]fieldValue

type upsertRequest struct {
	To             string           `json:"to"`
	Data           []map[string]any `json:"data"`
	FieldsToReturn []int            `json:"fieldsToReturn"`
}

type upsertResponse struct {
	Data     []record `json:"data"`
	Metadata struct {
		CreatedRecordIDs   []int64             `json:"createdRecordIds"`
		UpdatedRecordIDs   []int64             `json:"updatedRecordIds"`
		UnchangedRecordIDs []int64             `json:"unchangedRecordIds"`
		LineErrors         map[string][]string `json:"lineErrors"`
	} `json:"metadata"`
}

type sortField struct {
	FieldID int    `json:"fieldId"`
	Order   string `json:"order"`
}

type queryOptions struct {
	Top int `json:"top,omitempty"`
}

type queryRequest struct {
	From    string        `json:"from"`
	Select  []int         `json:"select"`
	Where   string        `json:"where,omitempty"`
	SortBy  []sortField   `json:"sortBy,omitempty"`
	Options *queryOptions `json:"options,omitempty"`
}

type queryResponse struct {
	Data []record `json:"data"`
}

type apiError struct {
	Message     string `json:"message"`
	Description string `json:"description"`
}

func (c *Client) allFields() []int {
	f := c.fields
	return []int{
		f.RecordID, f.TicketNumber, f.Subject, f.Description, f.Priority, f.Category,
		f.Status, f.UserEmail, f.UserName, f.DateCreated, f.DateModified,
	}
}

func (c *Client) upsert(ctx context.Context, op string, rows []map[string]any, retry func(error) bool) (*upsertResponse, error) {
	req := upsertRequest{
		To:             c.tableID,
		Data:           rows,
		FieldsToReturn: c.allFields(),
	}
	var resp upsertResponse
	if err := c.do(ctx, op, http.MethodPost, "/records", req, &resp, retry); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) query(ctx context.Context, op, where string, limit int) ([]Ticket, error) {
	return c.queryOrdered(ctx, op, where, limit, "DESC")
}

func (c *Client) queryOrdered(ctx context.Context, op, where string, limit int, order string) ([]Ticket, error) {
	req := queryRequest{
		From:   c.tableID,
		Select: c.allFields(),
		Where:  where,
		SortBy: []sortField{{FieldID: c.fields.DateCreated, Order: order}},
	}
	if limit > 0 {
		req.Options = &queryOptions{Top: limit}
	}

	var resp queryResponse
	if err := c.do(ctx, op, http.MethodPost, "/records/query", req, &resp, retryable); err != nil {
		return nil, err
	}

	tickets := make([]Ticket, 0, len(resp.Data))
	for _, r := range resp.Data {
		tickets = append(tickets, *c.toTicket(r))
	}
	return tickets, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any, retry func(error) bool) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	policy := c.policy
	policy.Name = "quickbase:" + op
	policy.Retryable = retry
	_, err := resilience.Do(ctx, policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.send(ctx, method, path, payload, out)
	})
	if err != nil {
		c.log.WarnContext(ctx, "QuickBase call failed", "operation", op, "error", err)
	}
	return err
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("QB-Realm-Hostname", c.realm)
	req.Header.Set("Authorization", "QB-USER-TOKEN "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.NewAPIError(fmt.Sprintf("quickbase %s %s", method, path), 0, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return errs.NewAPIError(fmt.Sprintf("quickbase %s %s: read body", method, path), 0, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		_ = json.Unmarshal(data, &apiErr)
		msg := strings.TrimSpace(apiErr.Message + " " + apiErr.Description)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return errs.NewAPIError(
			fmt.Sprintf("quickbase %s %s returned %d: %s", method, path, resp.StatusCode, msg),
			resp.StatusCode, nil)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode quickbase response: %w", err)
		}
	}
	return nil
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || !errs.Is(err, errs.CodeAPI) {
		return false
	}
	status := errs.Status(err)
	return status == 0 || status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// retryableCreate retries an insert only when QuickBase refused it before
// writing. A timeout or transport failure may hide a committed record.
func retryableCreate(err error) bool {
	if !errs.Is(err, errs.CodeAPI) {
		return false
	}
	status := errs.Status(err)
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

func (c *Client) toTicket(r record) *Ticket {
	f := c.fields
	t := &Ticket{
		RecordID:    r.number(f.RecordID),
		Number:      r.text(f.TicketNumber),
		Subject:     r.text(f.Subject),
		Description: r.text(f.Description),
		Priority:    r.text(f.Priority),
		Category:    r.text(f.Category),
		Status:      r.text(f.Status),
		UserEmail:   r.text(f.UserEmail),
		UserName:    r.text(f.UserName),
		CreatedAt:   r.timestamp(f.DateCreated),
		UpdatedAt:   r.timestamp(f.DateModified),
	}
	if t.RecordID > 0 {
		t.URL = c.TicketURL(t.RecordID)
		if t.Number == "" {
			t.Number = FallbackNumber(t.RecordID)
		}
	}
	return t
}

func (r record) text(fieldID int) string {
	v, ok := r[strconv.Itoa(fieldID)]
	if !ok || len(v.Value) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(v.Value, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(v.Value, &n); err == nil {
		return n.String()
	}
	// User fields come back as objects.
	var user struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(v.Value, &user); err == nil {
		if user.Email != "" {
			return user.Email
		}
		return user.Name
	}
	return ""
}

func (r record) number(fieldID int) int64 {
	v, ok := r[strconv.Itoa(fieldID)]
	if !ok {
		return 0
	}
	var n json.Number
	if err := json.Unmarshal(v.Value, &n); err != nil {
		return 0
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return int64(f)
	}
	return 0
}

func (r record) timestamp(fieldID int) time.Time {
	s := r.text(fieldID)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func setValue(row map[string]any, fieldID int, value string) {
	if fieldID <= 0 || value == "" {
		return
	}
	row[strconv.Itoa(fieldID)] = map[string]any{"value": value}
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func lineError(resp *upsertResponse, fallback string) error {
	for _, msgs := range resp.Metadata.LineErrors {
		if len(msgs) > 0 {
			return errors.New(strings.Join(msgs, "; "))
		}
	}
	return errors.New(fallback)
}

// quote escapes a value for a single-quoted query literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}

func parseFallbackNumber(number string) (int64, bool) {
	rest, ok := strings.CutPrefix(strings.ToUpper(number), "IT-")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
