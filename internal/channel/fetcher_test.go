package channel_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"digestgram/internal/channel"
	"digestgram/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolveChannelURL(t *testing.T) {
	tests := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{"@example", "https://t.me/s/example", true},
		{"  @example  ", "https://t.me/s/example", true},
		{"https://t.me/example", "https://t.me/s/example", true},
		{"https://t.me/s/example", "https://t.me/s/example", true},
		{"add https://example.com/feed.xml please", "https://example.com/feed.xml", true},
		{"no channel here", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := channel.ResolveChannelURL(tt.text)
		if ok != tt.wantOK || got != tt.want {
			t.Fatalf("ResolveChannelURL(%q) = (%q, %v), want (%q, %v)",
				tt.text, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFilterByKeywords(t *testing.T) {
	posts := []domain.Post{
		{Text: "Bitcoin hits a new high"},
		{Text: "Weather forecast for tomorrow"},
		{Text: "New AI model released"},
	}

	filtered := channel.FilterByKeywords(posts, []string{"crypto", "AI", "bitcoin"})

	if len(filtered) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(filtered))
	}

	if filtered[0].Text != "Bitcoin hits a new high" || filtered[1].Text != "New AI model released" {
		t.Fatalf("unexpected posts: %+v", filtered)
	}
}

func TestFilterByKeywordsKeepsAllWithoutKeywords(t *testing.T) {
	posts := []domain.Post{{Text: "one"}, {Text: "two"}}

	if got := channel.FilterByKeywords(posts, nil); len(got) != len(posts) {
		t.Fatalf("expected all posts, got %d", len(got))
	}
}

func TestFetchRecentPostsParsesRSS(t *testing.T) {
	const rss = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example</title>
    <item>
      <title>First post</title>
      <link>https://example.com/1</link>
      <description>First description</description>
      <pubDate>Mon, 06 Jan 2025 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Second post</title>
      <link>https://example.com/2</link>
      <pubDate>Mon, 06 Jan 2025 09:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Third post</title>
      <link>https://example.com/3</link>
    </item>
  </channel>
</rss>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rss)
	}))
	defer srv.Close()

	fetcher := channel.NewFetcher(discardLogger())

	posts, err := fetcher.FetchRecentPosts(context.Background(), domain.Channel{
		ID:     1,
		UserID: 42,
		URL:    srv.URL,
	}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}

	first := posts[0]
	if first.URL != "https://example.com/1" {
		t.Fatalf("unexpected post URL: %q", first.URL)
	}

	if first.Text != "First post\nFirst description" {
		t.Fatalf("unexpected post text: %q", first.Text)
	}

	if first.ChannelID != 1 || first.ChannelURL != srv.URL {
		t.Fatalf("unexpected channel attribution: %+v", first)
	}

	if first.PublishedAt == 0 {
		t.Fatalf("expected published timestamp to be set")
	}
}

func TestFetchRecentPostsFailsOnUnreachableFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	fetcher := channel.NewFetcher(discardLogger())

	_, err := fetcher.FetchRecentPosts(context.Background(), domain.Channel{URL: srv.URL}, 5)
	if err == nil {
		t.Fatalf("expected error for unreachable feed")
	}
}
