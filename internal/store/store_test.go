package store

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Store{DB: db}, mock
}

func TestSaveConversation(t *testing.T) {
	s, mock := newMockStore(t)

	conv := Conversation{
		ID:        "6f1c1a2e-9d1f-4a8f-b2a3-0c5d9e8f7a61",
		Question:  "What is the cheapest plan?",
		Plan:      json.RawMessage(`{"actions":["optimal"]}`),
		Result:    json.RawMessage(`{"index":0}`),
		Answer:    "The cheapest plan is Basic.",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO conversations (id, question, plan, result, answer, created_at) VALUES ($1, $2, $3, $4, $5, $6)`)).
		WithArgs(conv.ID, conv.Question, []byte(conv.Plan), []byte(conv.Result), conv.Answer, conv.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.SaveConversation(context.Background(), conv); err != nil {
		t.Fatalf("SaveConversation: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetConversation(t *testing.T) {
	s, mock := newMockStore(t)

	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "question", "plan", "result", "answer", "created_at"}).
		AddRow("abc", "How many plans?", []byte(`{"actions":["subscriptions"]}`), []byte(`{}`), "Three plans.", created)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, question, plan, result, answer, created_at FROM conversations WHERE id = $1`)).
		WithArgs("abc").
		WillReturnRows(rows)

	conv, err := s.GetConversation(context.Background(), "abc")
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if conv.Answer != "Three plans." {
		t.Fatalf("unexpected answer %q", conv.Answer)
	}
	if !conv.CreatedAt.Equal(created) {
		t.Fatalf("unexpected created_at %v", conv.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListConversationsDefaultLimit(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "question", "plan", "result", "answer", "created_at"}).
		AddRow("a", "q1", []byte(`{}`), []byte(`{}`), "a1", time.Now()).
		AddRow("b", "q2", []byte(`{}`), []byte(`{}`), "a2", time.Now())

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, question, plan, result, answer, created_at FROM conversations ORDER BY created_at DESC LIMIT $1`)).
		WithArgs(50).
		WillReturnRows(rows)

	out, err := s.ListConversations(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(out))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
