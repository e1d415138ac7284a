// Package conversation persists WhatsApp message history so the intent
// detector can look back across recent turns.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Role identifies who authored a message.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation groups the messages exchanged with one phone number.
type Conversation struct {
	ID            uuid.UUID
	LeadID        uuid.UUID
	Phone         string
	StartedAt     time.Time
	LastMessageAt time.Time
}

// Message is one turn in a conversation.
type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	Role           string
	Content        string
	CreatedAt      time.Time
}

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists conversations and messages to PostgreSQL.
type Store struct {
	db DB
}

// NewStore creates a new conversation store.
func NewStore(db DB) *Store {
	if db == nil {
		panic("conversation: pgx db required")
	}
	return &Store{db: db}
}

// EnsureConversation returns the conversation for a lead, creating one on
// first contact.
func (s *Store) EnsureConversation(ctx context.Context, leadID uuid.UUID, phone string) (uuid.UUID, error) {
	var existing uuid.UUID
	err := s.db.QueryRow(ctx,
		`SELECT id FROM conversations WHERE lead_id = $1`, leadID,
	).Scan(&existing)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("conversation: lookup: %w", err)
	}

	id := uuid.New()
	now := time.Now().UTC()
	_, err = s.db.Exec(ctx, `
		INSERT INTO conversations (id, lead_id, phone, started_at, last_message_at)
		VALUES ($1, $2, $3, $4, $5)`,
		id, leadID, phone, now, now,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("conversation: create: %w", err)
	}
	return id, nil
}

// SaveMessage appends a turn and bumps the conversation's last activity.
func (s *Store) SaveMessage(ctx context.Context, conversationID uuid.UUID, role, content string) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(ctx, `
		INSERT INTO messages (id, conversation_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), conversationID, role, content, now,
	)
	if err != nil {
		return fmt.Errorf("conversation: save message: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`UPDATE conversations SET last_message_at = $1 WHERE id = $2`,
		now, conversationID,
	)
	if err != nil {
		return fmt.Errorf("conversation: bump activity: %w", err)
	}
	return nil
}

// RecentMessages returns the latest turns, oldest first.
func (s *Store) RecentMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, conversation_id, role, content, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("conversation: recent messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("conversation: scan message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse into chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
