package digest_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"digestgram/internal/channel"
	"digestgram/internal/database"
	"digestgram/internal/digest"
	"digestgram/internal/pipeline"
	"digestgram/internal/summarizer"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example</title>
    <item>
      <title>Bitcoin hits a new high</title>
      <link>https://example.com/1</link>
    </item>
    <item>
      <title>Weather forecast for tomorrow</title>
      <link>https://example.com/2</link>
    </item>
  </channel>
</rss>`

type echoSummarizer struct{}

func (echoSummarizer) Summarize(_ context.Context, input summarizer.Input) string {
	return "summary of: " + input.Text
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRunner(t *testing.T) (*digest.Runner, *database.Database) {
	t.Helper()

	log := discardLogger()

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "db.sqlite"), log)
	if err != nil {
		t.Fatalf("failed to initialize db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	p := pipeline.New(db, echoSummarizer{}, log)

	return digest.New(db, channel.NewFetcher(log), p, log), db
}

func TestRunForUserFiltersAndSummarizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, feedXML)
	}))
	defer srv.Close()

	runner, db := newTestRunner(t)
	ctx := context.Background()

	if err := db.AddChannel(ctx, 42, srv.URL, []string{"bitcoin"}); err != nil {
		t.Fatalf("failed to add channel: %v", err)
	}

	digests, err := runner.RunForUser(ctx, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(digests) != 1 {
		t.Fatalf("expected 1 channel digest, got %d", len(digests))
	}

	d := digests[0]
	if d.ChannelURL != srv.URL {
		t.Fatalf("unexpected channel URL: %q", d.ChannelURL)
	}

	if len(d.Posts) != 1 {
		t.Fatalf("expected 1 filtered post, got %d", len(d.Posts))
	}

	if d.Posts[0].Summary != "summary of: Bitcoin hits a new high" {
		t.Fatalf("unexpected summary: %q", d.Posts[0].Summary)
	}

	records, err := db.ListUserSummaries(ctx, 42, 10)
	if err != nil {
		t.Fatalf("failed to list summaries: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("expected 1 persisted record, got %d", len(records))
	}
}

func TestRunForUserWithoutChannels(t *testing.T) {
	runner, _ := newTestRunner(t)

	digests, err := runner.RunForUser(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(digests) != 0 {
		t.Fatalf("expected no digests, got %d", len(digests))
	}
}

func TestRunAllGroupsByUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, feedXML)
	}))
	defer srv.Close()

	runner, db := newTestRunner(t)
	ctx := context.Background()

	if err := db.AddChannel(ctx, 1, srv.URL, nil); err != nil {
		t.Fatalf("failed to add channel: %v", err)
	}
	if err := db.AddChannel(ctx, 2, srv.URL, []string{"nomatch"}); err != nil {
		t.Fatalf("failed to add channel: %v", err)
	}

	digests, err := runner.RunAll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(digests) != 1 {
		t.Fatalf("expected digests for exactly one user, got %d", len(digests))
	}

	userDigests, ok := digests[1]
	if !ok || len(userDigests) != 1 {
		t.Fatalf("expected digest for user 1, got %+v", digests)
	}

	if len(userDigests[0].Posts) != 2 {
		t.Fatalf("expected 2 posts without keyword filter, got %d", len(userDigests[0].Posts))
	}
}
