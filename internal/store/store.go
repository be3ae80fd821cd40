// Package store persists handled conversations for auditing.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Conversation is one audited question/answer exchange, with the plan and
// tool results kept as raw JSON.
type Conversation struct {
	ID        string          `json:"id"`
	Question  string          `json:"question"`
	Plan      json.RawMessage `json:"plan"`
	Result    json.RawMessage `json:"result"`
	Answer    string          `json:"answer"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store wraps the Postgres connection used for conversation auditing.
type Store struct {
	DB *sql.DB
}

// New opens a Postgres connection and verifies it with a ping.
func New(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Store{DB: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.DB.Close()
}

// SaveConversation inserts one handled exchange.
func (s *Store) SaveConversation(ctx context.Context, conv Conversation) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO conversations (id, question, plan, result, answer, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		conv.ID, conv.Question, conv.Plan, conv.Result, conv.Answer, conv.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving conversation: %w", err)
	}
	return nil
}

// GetConversation fetches one exchange by id.
func (s *Store) GetConversation(ctx context.Context, id string) (Conversation, error) {
	var conv Conversation
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, question, plan, result, answer, created_at FROM conversations WHERE id = $1`, id).
		Scan(&conv.ID, &conv.Question, &conv.Plan, &conv.Result, &conv.Answer, &conv.CreatedAt)
	if err != nil {
		return Conversation{}, fmt.Errorf("getting conversation %s: %w", id, err)
	}
	return conv, nil
}

// ListConversations returns the most recent exchanges, newest first.
func (s *Store) ListConversations(ctx context.Context, limit int) ([]Conversation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, question, plan, result, answer, created_at FROM conversations ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		var conv Conversation
		if err := rows.Scan(&conv.ID, &conv.Question, &conv.Plan, &conv.Result, &conv.Answer, &conv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		out = append(out, conv)
	}
	return out, rows.Err()
}
