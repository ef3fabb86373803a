package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"digestgram/internal/channel"
	"digestgram/internal/database"
	"digestgram/internal/digest"
	"digestgram/internal/pipeline"
	"digestgram/internal/ratelimiter"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	BotUpdateTimeout = 60

	updateProcessingTimeout = 60 * time.Second
)

type Bot struct {
	api          *tgbotapi.BotAPI
	rateLimiter  *ratelimiter.RateLimiter
	db           *database.Database
	pipeline     *pipeline.Pipeline
	fetcher      *channel.Fetcher
	digests      *digest.Runner
	allowedUsers []int64
	log          *slog.Logger
}

func New(
	token string,
	db *database.Database,
	p *pipeline.Pipeline,
	fetcher *channel.Fetcher,
	digests *digest.Runner,
	allowedUsers []int64,
	log *slog.Logger,
) (*Bot, error) {
	token = strings.TrimSpace(token)

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}

	return &Bot{
		api:          api,
		rateLimiter:  ratelimiter.New(api, log),
		db:           db,
		pipeline:     p,
		fetcher:      fetcher,
		digests:      digests,
		allowedUsers: allowedUsers,
		log:          log,
	}, nil
}

func (b *Bot) Start(ctx context.Context) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = BotUpdateTimeout

	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.log.InfoContext(ctx, "Bot context is done",
				"error", ctx.Err())
			return

		case update, ok := <-updates:
			if !ok {
				b.log.InfoContext(ctx, "Updates channel is closed")
				return
			}

			b.handleUpdate(ctx, &update)
		}
	}
}

func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
	b.rateLimiter.Stop()
}

func (b *Bot) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	if update.Message == nil {
		return
	}

	message := update.Message
	if message.From == nil || !b.userAllowed(message.From.ID) {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, updateProcessingTimeout)
	defer cancel()

	if err := b.handleMessage(ctx, message); err != nil {
		b.log.ErrorContext(ctx, "Failed to handle message",
			"error", err,
			"chatID", message.Chat.ID,
			"userID", message.From.ID)
	}
}

func (b *Bot) userAllowed(userID int64) bool {
	if len(b.allowedUsers) == 0 {
		return true
	}

	return slices.Contains(b.allowedUsers, userID)
}

// SendDigests delivers per-channel digest messages to one chat.
func (b *Bot) SendDigests(
	ctx context.Context,
	chatID int64,
	digests []digest.ChannelDigest,
) error {
	if len(digests) == 0 {
		return b.sendMessage(chatID, "📭 Nothing new in your channels\\.")
	}

	var errs []error

	for _, d := range digests {
		if err := b.sendMessage(chatID, formatChannelDigest(d)); err != nil {
			errs = append(errs, fmt.Errorf("send message: %w", err))
		}
	}

	if len(errs) > 0 {
		b.log.ErrorContext(ctx, "Failed to send some digest messages",
			"errorCount", len(errs),
			"chatID", chatID,
			"digestCount", len(digests))
	}

	return errors.Join(errs...)
}

func (b *Bot) sendMessage(chatID int64, text string) error {
	message := tgbotapi.NewMessage(chatID, text)
	message.ParseMode = tgbotapi.ModeMarkdownV2
	message.DisableWebPagePreview = true

	_, err := b.rateLimiter.Send(message)

	return err
}

func formatChannelDigest(d digest.ChannelDigest) string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("📝 *Digest for %s*\n\n", escapeMarkdownV2(d.ChannelURL)))

	for _, post := range d.Posts {
		if post.URL != "" {
			builder.WriteString(fmt.Sprintf("– [post](%s)\n%s\n\n",
				post.URL, escapeMarkdownV2(post.Summary)))
		} else {
			builder.WriteString(fmt.Sprintf("– %s\n\n", escapeMarkdownV2(post.Summary)))
		}
	}

	return strings.TrimSpace(builder.String())
}
