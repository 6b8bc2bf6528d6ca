package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// maxRecentTurns caps RecentTurns regardless of the requested limit.
const maxRecentTurns = 100

// Store defines conversation history operations.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveTurn inserts a turn and sets its ID.
	SaveTurn(ctx context.Context, turn *Turn) error

	// RecentTurns returns up to limit turns of a conversation, oldest first.
	RecentTurns(ctx context.Context, conversationID string, limit int) ([]Turn, error)

	// PruneTurns deletes turns created before cutoff and returns how many were removed.
	PruneTurns(ctx context.Context, cutoff time.Time) (int64, error)

	// ClearConversation deletes every turn of a conversation.
	ClearConversation(ctx context.Context, conversationID string) (int64, error)

	// Stats counts stored turns and conversations.
	Stats(ctx context.Context) (Stats, error)

	// RunSQLMaintenance performs VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by db.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) SaveTurn(ctx context.Context, turn *Turn) error {
	if turn == nil {
		return errors.New("cannot save nil turn")
	}
	if turn.ConversationID == "" {
		return errors.New("turn must have a conversation_id")
	}
	if turn.Role != RoleUser && turn.Role != RoleAssistant {
		return fmt.Errorf("invalid turn role %q", turn.Role)
	}
	if turn.Content == "" {
		return errors.New("turn must have non-empty content")
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	turn.CreatedAt = turn.CreatedAt.UTC()

	const query = `
        INSERT INTO conversation_turns (conversation_id, platform, user_id, role, content, source, created_at)
        VALUES (:conversation_id, :platform, :user_id, :role, :content, :source, :created_at);
    `

	result, err := s.db.NamedExecContext(ctx, query, turn)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving turn", "conversation_id", turn.ConversationID, "error", err)
		return fmt.Errorf("failed to save turn for conversation %s: %w", turn.ConversationID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		turn.ID = id
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving turn",
			"conversation_id", turn.ConversationID, "error", err)
	}

	s.logger.DebugContext(ctx, "Turn saved", "conversation_id", turn.ConversationID, "role", turn.Role, "turn_id", turn.ID)
	return nil
}

func (s *sqlxStore) RecentTurns(ctx context.Context, conversationID string, limit int) ([]Turn, error) {
	if conversationID == "" {
		return nil, errors.New("conversation_id cannot be empty")
	}
	if limit <= 0 {
		return nil, nil
	}
	if limit > maxRecentTurns {
		limit = maxRecentTurns
	}

	const query = `
        SELECT id, conversation_id, platform, user_id, role, content, source, created_at
        FROM conversation_turns
        WHERE conversation_id = ?
        ORDER BY id DESC
        LIMIT ?;
    `

	var turns []Turn
	err := s.db.SelectContext(ctx, &turns, query, conversationID, limit)
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context done while fetching turns", "conversation_id", conversationID, "error", err)
		return nil, err
	case err != nil:
		s.logger.ErrorContext(ctx, "Error fetching recent turns", "conversation_id", conversationID, "error", err)
		return nil, fmt.Errorf("failed to get recent turns for conversation %s: %w", conversationID, err)
	}

	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

func (s *sqlxStore) PruneTurns(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM conversation_turns WHERE created_at < ?;`, cutoff.UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error pruning turns", "cutoff", cutoff, "error", err)
		return 0, fmt.Errorf("failed to prune turns: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned turns: %w", err)
	}
	s.logger.InfoContext(ctx, "Pruned conversation turns", "deleted", deleted, "cutoff", cutoff)
	return deleted, nil
}

func (s *sqlxStore) ClearConversation(ctx context.Context, conversationID string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM conversation_turns WHERE conversation_id = ?;`, conversationID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear conversation %s: %w", conversationID, err)
	}
	return result.RowsAffected()
}

func (s *sqlxStore) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	const query = `SELECT COUNT(*) AS turns, COUNT(DISTINCT conversation_id) AS conversations FROM conversation_turns;`
	if err := s.db.GetContext(ctx, &stats, query); err != nil {
		return Stats{}, fmt.Errorf("failed to count turns: %w", err)
	}
	return stats, nil
}

// RunSQLMaintenance executes VACUUM, which SQLite requires outside a transaction.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)")
	_, err := s.db.ExecContext(ctx, "VACUUM;")
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed")
	return nil
}
