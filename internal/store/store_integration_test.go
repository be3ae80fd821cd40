package store

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestStoreRoundTripIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcPostgres.WithDatabase("harvey"),
		tcPostgres.WithUsername("harvey"),
		tcPostgres.WithPassword("harvey"),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp")),
	)
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	s, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	schema, err := os.ReadFile("../../migrations/0001_create_conversations.up.sql")
	if err != nil {
		t.Fatalf("reading migration: %v", err)
	}
	if _, err := s.DB.ExecContext(ctx, string(schema)); err != nil {
		t.Fatalf("applying schema: %v", err)
	}

	conv := Conversation{
		ID:        uuid.NewString(),
		Question:  "What is the most expensive plan?",
		Plan:      json.RawMessage(`{"actions":[{"name":"optimal","objective":"maximize"}]}`),
		Result:    json.RawMessage(`{"index":0,"action":"optimal"}`),
		Answer:    "The Enterprise plan.",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := s.SaveConversation(ctx, conv); err != nil {
		t.Fatalf("SaveConversation: %v", err)
	}

	got, err := s.GetConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if got.Question != conv.Question || got.Answer != conv.Answer {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	list, err := s.ListConversations(ctx, 10)
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(list) != 1 || list[0].ID != conv.ID {
		t.Fatalf("expected the saved conversation, got %+v", list)
	}
}
