package digest

import (
	"context"
	"fmt"
	"log/slog"

	"digestgram/internal/channel"
	"digestgram/internal/database"
	"digestgram/internal/domain"
	"digestgram/internal/pipeline"
)

const postsPerChannel = 5

type PostSummary struct {
	URL     string
	Summary string
}

type ChannelDigest struct {
	ChannelURL string
	Posts      []PostSummary
}

// Runner builds digests for registered channels: it fetches recent posts,
// applies the channel's keyword filter, and pushes every kept post through
// the summarization pipeline.
type Runner struct {
	db       *database.Database
	fetcher  *channel.Fetcher
	pipeline *pipeline.Pipeline
	log      *slog.Logger
}

func New(
	db *database.Database,
	fetcher *channel.Fetcher,
	p *pipeline.Pipeline,
	log *slog.Logger,
) *Runner {
	return &Runner{
		db:       db,
		fetcher:  fetcher,
		pipeline: p,
		log:      log,
	}
}

func (r *Runner) RunForUser(ctx context.Context, userID int64) ([]ChannelDigest, error) {
	channels, err := r.db.ListUserChannels(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user channels: %w", err)
	}

	return r.run(ctx, channels), nil
}

// RunAll builds digests for every user with at least one active channel.
func (r *Runner) RunAll(ctx context.Context) (map[int64][]ChannelDigest, error) {
	channels, err := r.db.ListActiveChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active channels: %w", err)
	}

	byUser := make(map[int64][]domain.Channel)
	for _, ch := range channels {
		byUser[ch.UserID] = append(byUser[ch.UserID], ch)
	}

	digests := make(map[int64][]ChannelDigest, len(byUser))
	for userID, userChannels := range byUser {
		if userDigests := r.run(ctx, userChannels); len(userDigests) > 0 {
			digests[userID] = userDigests
		}
	}

	return digests, nil
}

func (r *Runner) run(ctx context.Context, channels []domain.Channel) []ChannelDigest {
	var digests []ChannelDigest

	for _, ch := range channels {
		if ctx.Err() != nil {
			return digests
		}

		posts, err := r.fetcher.FetchRecentPosts(ctx, ch, postsPerChannel)
		if err != nil {
			r.log.ErrorContext(ctx, "Failed to fetch channel posts",
				"error", err,
				"channelID", ch.ID,
				"channelURL", ch.URL,
				"userID", ch.UserID)

			continue
		}

		posts = channel.FilterByKeywords(posts, ch.Keywords)
		if len(posts) == 0 {
			continue
		}

		chDigest := ChannelDigest{ChannelURL: ch.URL}

		for _, post := range posts {
			summary, runErr := r.pipeline.RunWithSource(
				ctx, ch.UserID, "", post.Text, post.URL)
			if runErr != nil {
				r.log.ErrorContext(ctx, "Failed to summarize post",
					"error", runErr,
					"channelID", ch.ID,
					"postURL", post.URL,
					"userID", ch.UserID)

				continue
			}

			chDigest.Posts = append(chDigest.Posts, PostSummary{
				URL:     post.URL,
				Summary: summary,
			})
		}

		if len(chDigest.Posts) > 0 {
			digests = append(digests, chDigest)
		}
	}

	return digests
}
