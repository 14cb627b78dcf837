package journal_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"framecast/internal/journal"
	"framecast/internal/keyframe"
	"framecast/internal/logging"
	"framecast/internal/mobject"
	"framecast/internal/testsupport"
)

func sampleEntry(index int, kind keyframe.Kind) keyframe.Entry {
	square := mobject.Square("square", 2, mobject.DefaultStyle())
	return keyframe.Entry{
		Index:       index,
		Kind:        kind,
		Name:        "Shift(square)",
		Duration:    1.5,
		Final:       square.Serialize(nil),
		PublishedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestRecordAndList(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	ctx := context.Background()

	if err := store.BeginSession(ctx, "s1", "square_to_circle"); err != nil {
		t.Fatalf("BeginSession: %v", err)
	}
	if err := store.Record(ctx, "s1", sampleEntry(0, keyframe.KindPlay)); err != nil {
		t.Fatalf("Record 0: %v", err)
	}
	wait := sampleEntry(1, keyframe.KindWait)
	wait.Name = "Wait"
	wait.Skipped = true
	if err := store.Record(ctx, "s1", wait); err != nil {
		t.Fatalf("Record 1: %v", err)
	}

	records, err := store.List(ctx, "s1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	first := records[0]
	if first.Index != 0 || first.Kind != keyframe.KindPlay || first.Duration != 1.5 || first.ObjectCount != 1 {
		t.Fatalf("unexpected first record %+v", first)
	}
	if !first.PublishedAt.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Fatalf("unexpected published time %v", first.PublishedAt)
	}
	if records[1].Kind != keyframe.KindWait || !records[1].Skipped {
		t.Fatalf("unexpected second record %+v", records[1])
	}

	frame, err := store.Frame(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if len(frame) != 1 || len(frame[0].Points) != 5 {
		t.Fatalf("unexpected frame %+v", frame)
	}
	if _, err := store.Frame(ctx, "s1", 9); !errors.Is(err, keyframe.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestDuplicateIndexRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	ctx := context.Background()

	if err := store.BeginSession(ctx, "s1", "demo"); err != nil {
		t.Fatalf("BeginSession: %v", err)
	}
	if err := store.Record(ctx, "s1", sampleEntry(0, keyframe.KindPlay)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Record(ctx, "s1", sampleEntry(0, keyframe.KindPlay)); err == nil {
		t.Fatal("expected duplicate keyframe to be rejected")
	}
}

func TestSessionsNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	ctx := context.Background()

	if _, err := store.LatestSession(ctx); !errors.Is(err, journal.ErrNoSessions) {
		t.Fatalf("expected ErrNoSessions, got %v", err)
	}
	if err := store.BeginSession(ctx, "old", "a"); err != nil {
		t.Fatalf("BeginSession: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := store.BeginSession(ctx, "new", "b"); err != nil {
		t.Fatalf("BeginSession: %v", err)
	}
	if err := store.Record(ctx, "new", sampleEntry(0, keyframe.KindPlay)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	sessions, err := store.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != "new" || sessions[0].Units != 1 || sessions[1].Units != 0 {
		t.Fatalf("unexpected sessions %+v", sessions)
	}
	latest, err := store.LatestSession(ctx)
	if err != nil || latest.ID != "new" || latest.Scene != "b" {
		t.Fatalf("unexpected latest %+v (%v)", latest, err)
	}
}

func TestSinkArchivesCacheEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	ctx := context.Background()
	if err := store.BeginSession(ctx, "s1", "demo"); err != nil {
		t.Fatalf("BeginSession: %v", err)
	}

	cache := keyframe.NewCache(logging.NewNop())
	cache.AddSink(store.Sink("s1"))
	for i := 0; i < 3; i++ {
		if err := cache.Append(ctx, sampleEntry(i, keyframe.KindPlay)); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}
	records, err := store.List(ctx, "s1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 archived keyframes, got %d", len(records))
	}
}

func TestSchemaVersionMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	path := store.Path()
	store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := journal.Open(path); !errors.Is(err, journal.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
