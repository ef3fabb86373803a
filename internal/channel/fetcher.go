package channel

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"digestgram/internal/domain"

	"github.com/mmcdole/gofeed"
	"mvdan.cc/xurls/v2"
)

const telegramClientTimeout = 20 * time.Second

// Fetcher retrieves recent posts from a source channel: public Telegram
// channels via their t.me/s preview pages, everything else as RSS/Atom.
type Fetcher struct {
	libParser      *gofeed.Parser
	telegramClient *http.Client
	log            *slog.Logger
}

func NewFetcher(log *slog.Logger) *Fetcher {
	return &Fetcher{
		libParser:      gofeed.NewParser(),
		telegramClient: &http.Client{Timeout: telegramClientTimeout},
		log:            log,
	}
}

// ResolveChannelURL extracts a canonical channel URL from free-form command
// text: an @username slug or the first https URL found.
func ResolveChannelURL(text string) (string, bool) {
	text = strings.TrimSpace(text)

	if m := telegramAtSignSlugRe.FindStringSubmatch(text); m != nil {
		slug := strings.TrimSpace(m[2])
		if telegramSlugRe.MatchString(slug) {
			return TelegramChannelCanonicalURL(slug), true
		}
	}

	httpsURLRe, err := xurls.StrictMatchingScheme("https://")
	if err != nil {
		return "", false
	}

	raw := strings.TrimSpace(httpsURLRe.FindString(text))
	if raw == "" {
		return "", false
	}

	if ok, slug := IsTelegramChannelURL(raw); ok {
		return TelegramChannelCanonicalURL(slug), true
	}

	return raw, true
}

func (f *Fetcher) FetchRecentPosts(
	ctx context.Context,
	ch domain.Channel,
	limit int,
) ([]domain.Post, error) {
	if ok, slug := IsTelegramChannelURL(ch.URL); ok {
		return f.fetchTelegramPosts(ctx, ch, slug, limit)
	}

	return f.fetchFeedPosts(ctx, ch, limit)
}

func (f *Fetcher) fetchTelegramPosts(
	ctx context.Context,
	ch domain.Channel,
	slug string,
	limit int,
) ([]domain.Post, error) {
	items, err := f.fetchTelegramChannelItems(ctx, slug)
	if len(items) == 0 && err != nil {
		return nil, fmt.Errorf("fetch telegram channel items: %w", err)
	}
	if err != nil {
		f.log.WarnContext(ctx, "Some channel items are skipped",
			"error", err,
			"channelURL", ch.URL,
			"itemCount", len(items))
	}

	// The preview page lists items oldest first; keep the newest ones.
	if len(items) > limit {
		items = items[len(items)-limit:]
	}

	posts := make([]domain.Post, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]

		posts = append(posts, domain.Post{
			Text:        item.text,
			URL:         item.URL,
			ChannelID:   ch.ID,
			ChannelURL:  ch.URL,
			PublishedAt: item.published.Unix(),
		})
	}

	return posts, nil
}

func (f *Fetcher) fetchFeedPosts(
	ctx context.Context,
	ch domain.Channel,
	limit int,
) ([]domain.Post, error) {
	parsed, err := f.libParser.ParseURLWithContext(ch.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed by URL %q: %w", ch.URL, err)
	}

	var posts []domain.Post

	for _, item := range parsed.Items {
		if len(posts) >= limit {
			break
		}

		text := strings.TrimSpace(item.Title)
		if description := strings.TrimSpace(item.Description); description != "" {
			if text != "" {
				text += "\n"
			}
			text += description
		}
		if text == "" {
			continue
		}

		publishedAt := time.Now().UTC()
		if item.PublishedParsed != nil {
			publishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			publishedAt = *item.UpdatedParsed
		}

		posts = append(posts, domain.Post{
			Text:        text,
			URL:         strings.TrimSpace(item.Link),
			ChannelID:   ch.ID,
			ChannelURL:  ch.URL,
			PublishedAt: publishedAt.Unix(),
		})
	}

	return posts, nil
}

// FilterByKeywords keeps posts whose text contains at least one keyword,
// case-insensitively. An empty keyword list keeps everything.
func FilterByKeywords(posts []domain.Post, keywords []string) []domain.Post {
	if len(keywords) == 0 {
		return posts
	}

	var filtered []domain.Post

	for _, post := range posts {
		lowered := strings.ToLower(post.Text)

		for _, kw := range keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}

			if strings.Contains(lowered, kw) {
				filtered = append(filtered, post)
				break
			}
		}
	}

	return filtered
}
