package history_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"cmdsock/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	zero := 0
	entries := []history.Entry{
		{ID: "a", Command: "echo one", Outcome: history.OutcomeCompleted, ExitCode: &zero, RequestBytes: 8, ResponseBytes: 4, StartedAt: base, FinishedAt: base.Add(10 * time.Millisecond)},
		{ID: "b", Command: "", Outcome: history.OutcomeEmptyRequest, StartedAt: base.Add(time.Second), FinishedAt: base.Add(time.Second)},
		{ID: "c", Command: "uname", Outcome: history.OutcomeLaunchFailed, RequestBytes: 5, StartedAt: base.Add(2 * time.Second), FinishedAt: base.Add(2 * time.Second)},
	}
	for _, entry := range entries {
		if err := store.Record(ctx, entry); err != nil {
			t.Fatalf("Record %s: %v", entry.ID, err)
		}
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(recent))
	}
	if recent[0].ID != "c" || recent[1].ID != "b" {
		t.Fatalf("expected newest first, got %s then %s", recent[0].ID, recent[1].ID)
	}
	if recent[0].ExitCode != nil {
		t.Fatalf("expected launch failure to have no exit code, got %d", *recent[0].ExitCode)
	}

	all, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	first := all[2]
	if first.Command != "echo one" || first.Outcome != history.OutcomeCompleted {
		t.Fatalf("unexpected first entry: %#v", first)
	}
	if first.ExitCode == nil || *first.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %v", first.ExitCode)
	}
	if !first.StartedAt.Equal(base) {
		t.Fatalf("expected started_at %v, got %v", base, first.StartedAt)
	}
	if first.Duration() != 10*time.Millisecond {
		t.Fatalf("expected 10ms duration, got %v", first.Duration())
	}
}

func TestRecordRequiresID(t *testing.T) {
	store := openStore(t)
	if err := store.Record(context.Background(), history.Entry{Command: "true"}); err == nil {
		t.Fatal("expected error for entry without id")
	}
}

func TestPrune(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	for i, started := range []time.Time{now.AddDate(0, 0, -40), now.AddDate(0, 0, -31), now.AddDate(0, 0, -1)} {
		entry := history.Entry{
			ID:         string(rune('a' + i)),
			Command:    "true",
			Outcome:    history.OutcomeCompleted,
			StartedAt:  started,
			FinishedAt: started,
		}
		if err := store.Record(ctx, entry); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	removed, err := store.Prune(ctx, now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 entries pruned, got %d", removed)
	}
	remaining, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != "c" {
		t.Fatalf("unexpected remaining entries: %#v", remaining)
	}
}

func TestOpenReusesExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	now := time.Now()
	if err := store.Record(context.Background(), history.Entry{ID: "x", Command: "id", Outcome: history.OutcomeCompleted, StartedAt: now, FinishedAt: now}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	entries, err := reopened.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 || entries[0].Command != "id" {
		t.Fatalf("expected persisted entry, got %#v", entries)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := history.Open(path); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestRecordAfterCloseReturnsErrClosed(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	entry := history.Entry{ID: "late", Outcome: history.OutcomeCompleted, StartedAt: time.Now(), FinishedAt: time.Now()}
	if err := store.Record(context.Background(), entry); !errors.Is(err, history.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
