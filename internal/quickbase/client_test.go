package quickbase

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/edgard/helpdeskbot/internal/config"
	"github.com/edgard/helpdeskbot/internal/errs"
)

func testFields() config.QuickBaseFields {
	return config.QuickBaseFields{
		DateCreated: 1, DateModified: 2, RecordID: 3, TicketNumber: 6, Subject: 7,
		Description: 8, Priority: 9, Category: 10, Status: 11, UserEmail: 12, UserName: 13,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.QuickBaseConfig{
		BaseURL:    srv.URL,
		Realm:      "example.quickbase.com",
		UserToken:  "token-123",
		TableID:    "tickets",
		Timeout:    2 * time.Second,
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
		Fields:     testFields(),
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func value(v any) map[string]any { return map[string]any{"value": v} }

func TestCreateTicket(t *testing.T) {
	t.Parallel()

	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/records" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("QB-Realm-Hostname"); got != "example.quickbase.com" {
			t.Errorf("QB-Realm-Hostname = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "QB-USER-TOKEN token-123" {
			t.Errorf("Authorization = %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, map[string]any{
			"data": []map[string]any{{"3": value(42), "6": value("IT-0042")}},
			"metadata": map[string]any{
				"createdRecordIds":              []int{42},
				"totalNumberOfRecordsProcessed": 1,
			},
		})
	})

	ticket, err := c.CreateTicket(context.Background(), NewTicket{
		Subject:     "I can't reset my password",
		Description: "I can't reset my password\n\n--- Bot Response ---\nGo to ...",
		Priority:    PriorityLow,
		Category:    "Password Reset",
		Status:      StatusBotAssisted,
		UserEmail:   "jane@example.com",
	})
	if err != nil {
		t.Fatalf("CreateTicket() error = %v", err)
	}

	if ticket.RecordID != 42 || ticket.Number != "IT-0042" {
		t.Errorf("ticket = %+v", ticket)
	}
	if ticket.URL != "https://example.quickbase.com/db/tickets?a=dr&rid=42" {
		t.Errorf("URL = %q", ticket.URL)
	}

	if body["to"] != "tickets" {
		t.Errorf("to = %v", body["to"])
	}
	rows, _ := body["data"].([]any)
	if len(rows) != 1 {
		t.Fatalf("data = %v", body["data"])
	}
	row := rows[0].(map[string]any)
	if status := row["11"].(map[string]any)["value"]; status != StatusBotAssisted {
		t.Errorf("status field = %v", status)
	}
	if _, ok := row["13"]; ok {
		t.Error("empty user name must not be sent")
	}
	if _, ok := row["3"]; ok {
		t.Error("record id must not be sent on create")
	}
}

func TestCreateTicketFallbackNumber(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"data":     []map[string]any{{"3": value(7)}},
			"metadata": map[string]any{"createdRecordIds": []int{7}},
		})
	})

	ticket, err := c.CreateTicket(context.Background(), NewTicket{Subject: "x", Status: StatusOpen})
	if err != nil {
		t.Fatal(err)
	}
	if ticket.Number != "IT-0007" {
		t.Errorf("Number = %q, want IT-0007", ticket.Number)
	}
}

func TestCreateTicketRetriesServerErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		wantCalls int32
		wantCode  string
	}{
		{name: "unavailable retried", status: http.StatusServiceUnavailable, wantCalls: 2, wantCode: errs.CodeAPI},
		{name: "throttled retried", status: http.StatusTooManyRequests, wantCalls: 2, wantCode: errs.CodeAPI},
		{name: "server error not retried", status: http.StatusInternalServerError, wantCalls: 1, wantCode: errs.CodeAPI},
		{name: "bad request not retried", status: http.StatusBadRequest, wantCalls: 1, wantCode: errs.CodeAPI},
		{name: "unauthorized not retried", status: http.StatusUnauthorized, wantCalls: 1, wantCode: errs.CodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				writeJSON(w, tt.status, map[string]string{"message": "Nope", "description": "details"})
			})

			_, err := c.CreateTicket(context.Background(), NewTicket{Subject: "x"})
			if err == nil {
				t.Fatal("expected error")
			}
			if calls.Load() != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls.Load(), tt.wantCalls)
			}
			if got := errs.Code(err); got != tt.wantCode {
				t.Errorf("Code() = %q, want %q", got, tt.wantCode)
			}
			if errs.Status(err) != tt.status {
				t.Errorf("Status() = %d, want %d", errs.Status(err), tt.status)
			}
			if !strings.Contains(err.Error(), "Nope details") {
				t.Errorf("error %q lacks upstream message", err)
			}
		})
	}
}

func TestCreateTicketNotRepeatedAfterTimeout(t *testing.T) {
	t.Parallel()

	var inserts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := inserts.Add(1)
		if n == 1 {
			// Committed, but answered after the client gave up.
			time.Sleep(150 * time.Millisecond)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"data":     []map[string]any{{"3": value(n)}},
			"metadata": map[string]any{"createdRecordIds": []int64{int64(n)}},
		})
	}))
	t.Cleanup(srv.Close)

	c := NewClient(config.QuickBaseConfig{
		BaseURL:    srv.URL,
		Realm:      "example.quickbase.com",
		UserToken:  "token-123",
		TableID:    "tickets",
		Timeout:    50 * time.Millisecond,
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
		Fields:     testFields(),
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if _, err := c.CreateTicket(context.Background(), NewTicket{Subject: "VPN down", Status: StatusBotAssisted}); err == nil {
		t.Fatal("expected timeout error")
	}
	if got := inserts.Load(); got != 1 {
		t.Errorf("inserts = %d, want 1", got)
	}
}

func TestUpdateTicket(t *testing.T) {
	t.Parallel()

	var row map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Data []map[string]any `json:"data"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		row = body.Data[0]
		writeJSON(w, http.StatusOK, map[string]any{
			"data": []map[string]any{{
				"3":  value(42),
				"6":  value("IT-0042"),
				"7":  value("VPN drops"),
				"11": value(StatusOpen),
				"12": value(map[string]string{"email": "jane@example.com", "name": "Jane"}),
				"1":  value("2026-10-19T08:00:00Z"),
			}},
			"metadata": map[string]any{"updatedRecordIds": []int{42}},
		})
	})

	ticket, err := c.UpdateTicket(context.Background(), 42, Changes{Status: StatusOpen, Priority: PriorityHigh})
	if err != nil {
		t.Fatalf("UpdateTicket() error = %v", err)
	}
	if ticket.Status != StatusOpen || ticket.Number != "IT-0042" || ticket.UserEmail != "jane@example.com" {
		t.Errorf("ticket = %+v", ticket)
	}
	if !ticket.CreatedAt.Equal(time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v", ticket.CreatedAt)
	}
	if id := row["3"].(map[string]any)["value"]; id != float64(42) {
		t.Errorf("record id sent = %v", id)
	}
	if _, ok := row["7"]; ok {
		t.Error("unchanged subject must not be sent")
	}
}

func TestUpdateTicketNotFound(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMultiStatus, map[string]any{
			"data": []any{},
			"metadata": map[string]any{
				"lineErrors": map[string][]string{"1": {"Record ID 999 does not exist"}},
			},
		})
	})

	_, err := c.UpdateTicket(context.Background(), 999, Changes{Status: StatusOpen})
	if !errs.Is(err, errs.CodeNotFound) {
		t.Fatalf("UpdateTicket() error = %v, want not found", err)
	}
	if !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("error %q lacks line error", err)
	}

	if _, err := c.UpdateTicket(context.Background(), 0, Changes{}); !errs.Is(err, errs.CodeNotFound) {
		t.Errorf("UpdateTicket(0) error = %v", err)
	}
}

func TestGetTicket(t *testing.T) {
	t.Parallel()

	var where string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/records/query" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body queryRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		where = body.Where
		if strings.Contains(where, "IT-0042") {
			writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{{
				"3": value(42), "6": value("IT-0042"), "11": value(StatusBotAssisted), "9": value(PriorityLow),
			}}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": []any{}})
	})

	ticket, err := c.GetTicket(context.Background(), " IT-0042 ")
	if err != nil {
		t.Fatalf("GetTicket() error = %v", err)
	}
	if ticket.Status != StatusBotAssisted || ticket.RecordID != 42 {
		t.Errorf("ticket = %+v", ticket)
	}
	if where != "{6.EX.'IT-0042'}OR{3.EX.42}" {
		t.Errorf("where = %q", where)
	}

	_, err = c.GetTicket(context.Background(), "HR-1")
	if !errs.Is(err, errs.CodeNotFound) {
		t.Errorf("GetTicket(missing) error = %v", err)
	}
	if where != "{6.EX.'HR-1'}" {
		t.Errorf("where = %q", where)
	}

	if _, err := c.GetTicket(context.Background(), ""); !errs.Is(err, errs.CodeValidation) {
		t.Errorf("GetTicket(empty) error = %v", err)
	}
}

func TestUserTicketsQuotesEmail(t *testing.T) {
	t.Parallel()

	var body queryRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{
			{"3": value(2), "11": value(StatusOpen)},
			{"3": value(1), "11": value(StatusBotAssisted)},
		}})
	})

	tickets, err := c.UserTickets(context.Background(), "o'brien@example.com", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(tickets) != 2 || tickets[0].Number != "IT-0002" {
		t.Errorf("tickets = %+v", tickets)
	}
	if body.Where != `{12.EX.'o\'brien@example.com'}AND{11.XEX.'Resolved'}` {
		t.Errorf("where = %q", body.Where)
	}
	if body.Options == nil || body.Options.Top != 10 {
		t.Errorf("options = %+v", body.Options)
	}
}

func TestListByStatusFiltersByCutoff(t *testing.T) {
	t.Parallel()

	var body queryRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{
			{"3": value(1), "1": value("2026-10-17T08:00:00Z")},
			{"3": value(2), "1": value("2026-10-19T08:00:00Z")},
		}})
	})

	cutoff := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
	tickets, err := c.ListByStatus(context.Background(), StatusBotAssisted, cutoff, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(tickets) != 1 || tickets[0].RecordID != 1 {
		t.Errorf("tickets = %+v", tickets)
	}
	if len(body.SortBy) != 1 || body.SortBy[0].Order != "ASC" {
		t.Errorf("sortBy = %+v", body.SortBy)
	}
}

func TestStatistics(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body queryRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if strings.Contains(body.Where, "OAF") {
			writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{{"3": value(9)}}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{
			{"3": value(1), "9": value(PriorityLow), "11": value(StatusBotAssisted)},
			{"3": value(2), "9": value(PriorityHigh), "11": value(StatusOpen)},
			{"3": value(3), "9": value(PriorityLow), "11": value(StatusOpen)},
		}})
	})

	stats, err := c.Statistics(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Open != 3 || stats.ResolvedToday != 1 || stats.BotAssisted != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.ByPriority[PriorityLow] != 2 || stats.ByStatus[StatusOpen] != 2 {
		t.Errorf("breakdown = %+v / %+v", stats.ByPriority, stats.ByStatus)
	}
}

func TestFields(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/fields" || r.URL.Query().Get("tableId") != "tickets" {
			t.Errorf("unexpected %s %s", r.Method, r.URL)
		}
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 3, "label": "Record ID#", "fieldType": "recordid"},
			{"id": 11, "label": "Status", "fieldType": "text-multiple-choice"},
		})
	})

	fields, err := c.Fields(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(fields) != 2 || fields[1].Label != "Status" || fields[0].FieldType != "recordid" {
		t.Errorf("fields = %+v", fields)
	}
}

func TestHelpers(t *testing.T) {
	t.Parallel()

	if got := quote(`it's a \ test`); got != `it\'s a \\ test` {
		t.Errorf("quote() = %q", got)
	}
	if id, ok := parseFallbackNumber("it-0042"); !ok || id != 42 {
		t.Errorf("parseFallbackNumber() = %d, %v", id, ok)
	}
	if _, ok := parseFallbackNumber("IT-abc"); ok {
		t.Error("parseFallbackNumber accepted non-numeric suffix")
	}
	if !IsCategory("VPN Access") || IsCategory("Coffee Machine") {
		t.Error("IsCategory mismatch")
	}
}
