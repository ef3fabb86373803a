package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"digestgram/internal/channel"
	"digestgram/internal/pipeline"
)

const historyLimit = 5

const welcomeText = `🤖 *Welcome to Digestgram\!*

I can help you:

– Register source channels with keyword filters:
  /add\_channel @mychannel \| crypto, ai, finance
– Get channel list with /list and remove entries with /remove\_channel <id\>
– Summarize any text with /summarize <text\>
– Browse filtered posts with /top\_posts
– Receive digests: daily automatically or on demand with /digest
– See your recent summaries with /history`

const unknownCommandText = `✖️ Unknown command\. Use /start to see what I can do\.`

func (b *Bot) handleStartCommand(
	ctx context.Context,
	chatID int64,
	userID int64,
	username string,
) error {
	if _, err := b.db.EnsureUser(ctx, userID, username); err != nil {
		errs := []error{fmt.Errorf("ensure user: %w", err)}

		if sendErr := b.sendMessage(chatID, "❌ Failed\\."); sendErr != nil {
			errs = append(errs, fmt.Errorf("send message: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	return b.sendMessage(chatID, welcomeText)
}

func (b *Bot) handleAddChannelCommand(
	ctx context.Context,
	text string,
	chatID int64,
	userID int64,
	username string,
) error {
	args := strings.TrimSpace(strings.TrimPrefix(text, "/add_channel"))

	channelPart := args
	var keywords []string

	if before, after, found := strings.Cut(args, "|"); found {
		channelPart = before

		for _, kw := range strings.Split(after, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				keywords = append(keywords, kw)
			}
		}
	}

	channelURL, ok := channel.ResolveChannelURL(channelPart)
	if !ok {
		return b.sendMessage(chatID,
			"❌ Invalid format\\.\nExample: `/add_channel @mychannel | crypto, ai, finance`")
	}

	if _, err := b.db.EnsureUser(ctx, userID, username); err != nil {
		return b.replyOnError(chatID, fmt.Errorf("ensure user: %w", err))
	}

	if err := b.db.AddChannel(ctx, userID, channelURL, keywords); err != nil {
		return b.replyOnError(chatID, fmt.Errorf("add channel: %w", err))
	}

	reply := fmt.Sprintf("✅ Channel %s is added\\.", escapeMarkdownV2(channelURL))
	if len(keywords) > 0 {
		reply = fmt.Sprintf("✅ Channel %s is added with keywords: %s\\.",
			escapeMarkdownV2(channelURL),
			escapeMarkdownV2(strings.Join(keywords, ", ")))
	}

	return b.sendMessage(chatID, reply)
}

func (b *Bot) handleListCommand(ctx context.Context, chatID int64, userID int64) error {
	channels, err := b.db.ListUserChannels(ctx, userID)
	if err != nil {
		return b.replyOnError(chatID, fmt.Errorf("list user channels: %w", err))
	}

	if len(channels) == 0 {
		return b.sendMessage(chatID,
			"📭 You have no channels yet\\. Use /add\\_channel to register one\\.")
	}

	var builder strings.Builder
	builder.WriteString("📋 *Your channels*\n\n")

	for _, ch := range channels {
		builder.WriteString(fmt.Sprintf("`%d` – %s", ch.ID, escapeMarkdownV2(ch.URL)))

		if len(ch.Keywords) > 0 {
			builder.WriteString(fmt.Sprintf(" \\(%s\\)",
				escapeMarkdownV2(strings.Join(ch.Keywords, ", "))))
		}

		builder.WriteString("\n")
	}

	return b.sendMessage(chatID, builder.String())
}

func (b *Bot) handleRemoveChannelCommand(
	ctx context.Context,
	text string,
	chatID int64,
	userID int64,
) error {
	arg := strings.TrimSpace(strings.TrimPrefix(text, "/remove_channel"))

	channelID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return b.sendMessage(chatID,
			"❌ Send a channel id after /remove\\_channel\\. See /list\\.")
	}

	channels, err := b.db.ListUserChannels(ctx, userID)
	if err != nil {
		return b.replyOnError(chatID, fmt.Errorf("list user channels: %w", err))
	}

	owned := false
	for _, ch := range channels {
		if ch.ID == channelID {
			owned = true
			break
		}
	}

	if !owned {
		return b.sendMessage(chatID, "❌ You have no channel with this id\\.")
	}

	if err = b.db.RemoveChannel(ctx, channelID); err != nil {
		return b.replyOnError(chatID, fmt.Errorf("remove channel: %w", err))
	}

	return b.sendMessage(chatID, "✅ Channel is removed\\.")
}

func (b *Bot) handleSummarizeCommand(
	ctx context.Context,
	text string,
	chatID int64,
	userID int64,
	username string,
) error {
	rawText := strings.TrimPrefix(text, "/summarize")

	summary, err := b.pipeline.Run(ctx, userID, username, rawText)

	switch {
	case errors.Is(err, pipeline.ErrEmptyText):
		return b.sendMessage(chatID, "❌ Send text after /summarize\\.")

	case err != nil:
		return b.replyOnError(chatID, fmt.Errorf("run pipeline: %w", err))

	default:
		return b.sendMessage(chatID, escapeMarkdownV2(summary))
	}
}

func (b *Bot) handleTopPostsCommand(ctx context.Context, chatID int64, userID int64) error {
	channels, err := b.db.ListUserChannels(ctx, userID)
	if err != nil {
		return b.replyOnError(chatID, fmt.Errorf("list user channels: %w", err))
	}

	if len(channels) == 0 {
		return b.sendMessage(chatID,
			"📭 You have no channels yet\\. Use /add\\_channel to register one\\.")
	}

	var builder strings.Builder
	builder.WriteString("📌 *Top posts*\n\n")
	found := false

	for _, ch := range channels {
		posts, fetchErr := b.fetcher.FetchRecentPosts(ctx, ch, topPostsPerChannel)
		if fetchErr != nil {
			b.log.ErrorContext(ctx, "Failed to fetch channel posts",
				"error", fetchErr,
				"channelID", ch.ID,
				"channelURL", ch.URL,
				"userID", userID)

			continue
		}

		posts = channel.FilterByKeywords(posts, ch.Keywords)
		if len(posts) == 0 {
			continue
		}

		found = true
		builder.WriteString(fmt.Sprintf("🔹 *%s*\n", escapeMarkdownV2(ch.URL)))

		for _, post := range posts {
			builder.WriteString(fmt.Sprintf("– [%s](%s)\n",
				escapeMarkdownV2(postPreview(post.Text)), post.URL))
		}

		builder.WriteString("\n")
	}

	if !found {
		return b.sendMessage(chatID, "📭 No matching posts right now\\.")
	}

	return b.sendMessage(chatID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleDigestCommand(ctx context.Context, chatID int64, userID int64) error {
	digests, err := b.digests.RunForUser(ctx, userID)
	if err != nil {
		return b.replyOnError(chatID, fmt.Errorf("run digest for user: %w", err))
	}

	return b.SendDigests(ctx, chatID, digests)
}

func (b *Bot) handleHistoryCommand(ctx context.Context, chatID int64, userID int64) error {
	records, err := b.db.ListUserSummaries(ctx, userID, historyLimit)
	if err != nil {
		return b.replyOnError(chatID, fmt.Errorf("list user summaries: %w", err))
	}

	if len(records) == 0 {
		return b.sendMessage(chatID, "📭 No summaries yet\\. Try /summarize\\.")
	}

	var builder strings.Builder
	builder.WriteString("🗂 *Recent summaries*\n\n")

	for _, record := range records {
		builder.WriteString(fmt.Sprintf("– %s\n\n", escapeMarkdownV2(record.SummaryText)))
	}

	return b.sendMessage(chatID, strings.TrimSpace(builder.String()))
}

func (b *Bot) replyOnError(chatID int64, err error) error {
	errs := []error{err}

	if sendErr := b.sendMessage(chatID, "❌ Failed\\."); sendErr != nil {
		errs = append(errs, fmt.Errorf("send message: %w", sendErr))
	}

	return errors.Join(errs...)
}

const (
	topPostsPerChannel  = 5
	postPreviewMaxChars = 80
)

func postPreview(text string) string {
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) <= postPreviewMaxChars {
		return text
	}

	return strings.TrimSpace(string(runes[:postPreviewMaxChars])) + "…"
}
