package database_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"digestgram/internal/database"
)

func newTestDatabase(t *testing.T) *database.Database {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "db.sqlite"), log)
	if err != nil {
		t.Fatalf("failed to initialize db: %v", err)
	}
	t.Cleanup(func() {
		if err = db.Close(); err != nil {
			t.Errorf("failed to close db: %v", err)
		}
	})

	return db
}

func TestEnsureUserIsIdempotent(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	first, err := db.EnsureUser(ctx, 42, "alice")
	if err != nil {
		t.Fatalf("failed to ensure user: %v", err)
	}

	if first.ID != 42 || first.Username != "alice" {
		t.Fatalf("unexpected user: %+v", first)
	}

	second, err := db.EnsureUser(ctx, 42, "someone-else")
	if err != nil {
		t.Fatalf("failed to ensure user twice: %v", err)
	}

	if second.Username != "alice" {
		t.Fatalf("expected the original row to survive, got %+v", second)
	}

	if second.CreatedAt != first.CreatedAt {
		t.Fatalf("expected one row, got different created_at: %d vs %d",
			first.CreatedAt, second.CreatedAt)
	}
}

func TestSaveSummaryNeverDeduplicates(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	if _, err := db.EnsureUser(ctx, 42, "alice"); err != nil {
		t.Fatalf("failed to ensure user: %v", err)
	}

	first, err := db.SaveSummary(ctx, 42, "original", "summary")
	if err != nil {
		t.Fatalf("failed to save summary: %v", err)
	}

	second, err := db.SaveSummary(ctx, 42, "original", "summary")
	if err != nil {
		t.Fatalf("failed to save summary twice: %v", err)
	}

	if first.ID == second.ID {
		t.Fatalf("expected distinct record ids, got %d twice", first.ID)
	}

	records, err := db.ListUserSummaries(ctx, 42, 10)
	if err != nil {
		t.Fatalf("failed to list summaries: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	if records[0].ID != second.ID {
		t.Fatalf("expected newest record first, got id %d", records[0].ID)
	}
}

func TestSaveSummaryRoundTripsFields(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	record, err := db.SaveSummary(ctx, 7, "original text", "summary text")
	if err != nil {
		t.Fatalf("failed to save summary: %v", err)
	}

	if record.UserID != 7 ||
		record.OriginalText != "original text" ||
		record.SummaryText != "summary text" {
		t.Fatalf("unexpected record: %+v", record)
	}

	if record.CreatedAt == 0 {
		t.Fatalf("expected created_at to be set")
	}

	records, err := db.ListUserSummaries(ctx, 7, 1)
	if err != nil {
		t.Fatalf("failed to list summaries: %v", err)
	}

	if len(records) != 1 || records[0] != *record {
		t.Fatalf("stored record mismatch: %+v vs %+v", records, record)
	}
}

func TestAddChannelIgnoresDuplicates(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	if _, err := db.EnsureUser(ctx, 42, "alice"); err != nil {
		t.Fatalf("failed to ensure user: %v", err)
	}

	url := "https://t.me/s/example"

	if err := db.AddChannel(ctx, 42, url, []string{"crypto", "ai"}); err != nil {
		t.Fatalf("failed to add channel: %v", err)
	}

	if err := db.AddChannel(ctx, 42, url, []string{"other"}); err != nil {
		t.Fatalf("failed to add channel twice: %v", err)
	}

	channels, err := db.ListUserChannels(ctx, 42)
	if err != nil {
		t.Fatalf("failed to list channels: %v", err)
	}

	if len(channels) != 1 {
		t.Fatalf("expected 1 channel, got %d", len(channels))
	}

	ch := channels[0]
	if ch.URL != url || len(ch.Keywords) != 2 || ch.Keywords[0] != "crypto" || ch.Keywords[1] != "ai" {
		t.Fatalf("unexpected channel: %+v", ch)
	}
}

func TestAddChannelRejectsEmptyURL(t *testing.T) {
	db := newTestDatabase(t)

	if err := db.AddChannel(context.Background(), 42, "   ", nil); err == nil {
		t.Fatalf("expected error for empty URL")
	}
}

func TestRemoveChannel(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	if err := db.AddChannel(ctx, 42, "https://t.me/s/example", nil); err != nil {
		t.Fatalf("failed to add channel: %v", err)
	}

	channels, err := db.ListUserChannels(ctx, 42)
	if err != nil {
		t.Fatalf("failed to list channels: %v", err)
	}

	if err = db.RemoveChannel(ctx, channels[0].ID); err != nil {
		t.Fatalf("failed to remove channel: %v", err)
	}

	channels, err = db.ListUserChannels(ctx, 42)
	if err != nil {
		t.Fatalf("failed to list channels after removal: %v", err)
	}

	if len(channels) != 0 {
		t.Fatalf("expected no channels, got %d", len(channels))
	}
}

func TestListActiveChannelsSpansUsers(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	if err := db.AddChannel(ctx, 1, "https://t.me/s/first", nil); err != nil {
		t.Fatalf("failed to add channel: %v", err)
	}
	if err := db.AddChannel(ctx, 2, "https://t.me/s/second", []string{"go"}); err != nil {
		t.Fatalf("failed to add channel: %v", err)
	}

	channels, err := db.ListActiveChannels(ctx)
	if err != nil {
		t.Fatalf("failed to list active channels: %v", err)
	}

	if len(channels) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(channels))
	}
}

func TestListUserSummariesHonorsLimit(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	for range 4 {
		if _, err := db.SaveSummary(ctx, 42, "original", "summary"); err != nil {
			t.Fatalf("failed to save summary: %v", err)
		}
	}

	records, err := db.ListUserSummaries(ctx, 42, 2)
	if err != nil {
		t.Fatalf("failed to list summaries: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}
