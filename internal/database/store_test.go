package database

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	t.Cleanup(func() { CloseDB(db) })
	return NewStore(db, nil)
}

func TestSaveAndRecentTurns(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	for i := range 6 {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		turn := &Turn{
			ConversationID: "conv-1",
			Platform:       "teams",
			UserID:         "user-1",
			Role:           role,
			Content:        fmt.Sprintf("message %d", i),
		}
		if err := store.SaveTurn(ctx, turn); err != nil {
			t.Fatalf("SaveTurn() error = %v", err)
		}
		if turn.ID == 0 {
			t.Error("SaveTurn() did not set ID")
		}
	}
	if err := store.SaveTurn(ctx, &Turn{ConversationID: "conv-2", Platform: "teams", Role: RoleUser, Content: "other"}); err != nil {
		t.Fatal(err)
	}

	turns, err := store.RecentTurns(ctx, "conv-1", 4)
	if err != nil {
		t.Fatalf("RecentTurns() error = %v", err)
	}
	if len(turns) != 4 {
		t.Fatalf("RecentTurns() returned %d turns, want 4", len(turns))
	}
	for i, want := range []string{"message 2", "message 3", "message 4", "message 5"} {
		if turns[i].Content != want {
			t.Errorf("turn %d = %q, want %q", i, turns[i].Content, want)
		}
	}
	if turns[0].CreatedAt.IsZero() || turns[0].Platform != "teams" {
		t.Errorf("turn fields not round-tripped: %+v", turns[0])
	}

	none, err := store.RecentTurns(ctx, "conv-1", 0)
	if err != nil || len(none) != 0 {
		t.Errorf("RecentTurns(limit 0) = %v, %v", none, err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Turns != 7 || stats.Conversations != 2 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestSaveTurnValidation(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	tests := []struct {
		name string
		turn *Turn
	}{
		{name: "nil", turn: nil},
		{name: "no conversation", turn: &Turn{Role: RoleUser, Content: "x"}},
		{name: "bad role", turn: &Turn{ConversationID: "c", Role: "system", Content: "x"}},
		{name: "empty content", turn: &Turn{ConversationID: "c", Role: RoleUser}},
	}
	for _, tt := range tests {
		if err := store.SaveTurn(context.Background(), tt.turn); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestPruneAndClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	old := time.Now().Add(-10 * 24 * time.Hour)
	for _, turn := range []*Turn{
		{ConversationID: "a", Platform: "teams", Role: RoleUser, Content: "old", CreatedAt: old},
		{ConversationID: "a", Platform: "teams", Role: RoleUser, Content: "new"},
		{ConversationID: "b", Platform: "telegram", Role: RoleUser, Content: "new"},
	} {
		if err := store.SaveTurn(ctx, turn); err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := store.PruneTurns(ctx, time.Now().Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("PruneTurns() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("PruneTurns() deleted %d, want 1", deleted)
	}

	cleared, err := store.ClearConversation(ctx, "b")
	if err != nil || cleared != 1 {
		t.Errorf("ClearConversation() = %d, %v", cleared, err)
	}

	remaining, err := store.RecentTurns(ctx, "a", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 1 || remaining[0].Content != "new" {
		t.Errorf("remaining turns = %+v", remaining)
	}
}

func TestMaintenanceAndPing(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if err := store.RunSQLMaintenance(context.Background()); err != nil {
		t.Fatalf("RunSQLMaintenance() error = %v", err)
	}
}

func TestExtractDBNameFromPath(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"helpdesk.db":                   "helpdesk.db",
		"file:helpdesk.db?cache=shared": "helpdesk.db",
		"file:my%20data.db":             "my data.db",
	}
	for in, want := range tests {
		if got := ExtractDBNameFromPath(in); got != want {
			t.Errorf("ExtractDBNameFromPath(%q) = %q, want %q", in, got, want)
		}
	}
}
