package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	return b.withSpinner(ctx, message.Chat.ID, func() error {
		text := strings.TrimSpace(message.Text)
		chatID := message.Chat.ID
		userID := message.From.ID
		username := message.From.UserName

		switch {
		case strings.HasPrefix(text, "/start"):
			return b.handleStartCommand(ctx, chatID, userID, username)
		case strings.HasPrefix(text, "/add_channel"):
			return b.handleAddChannelCommand(ctx, text, chatID, userID, username)
		case strings.HasPrefix(text, "/list"):
			return b.handleListCommand(ctx, chatID, userID)
		case strings.HasPrefix(text, "/remove_channel"):
			return b.handleRemoveChannelCommand(ctx, text, chatID, userID)
		case strings.HasPrefix(text, "/summarize"):
			return b.handleSummarizeCommand(ctx, text, chatID, userID, username)
		case strings.HasPrefix(text, "/top_posts"):
			return b.handleTopPostsCommand(ctx, chatID, userID)
		case strings.HasPrefix(text, "/digest"):
			return b.handleDigestCommand(ctx, chatID, userID)
		case strings.HasPrefix(text, "/history"):
			return b.handleHistoryCommand(ctx, chatID, userID)
		default:
			return b.sendMessage(chatID, unknownCommandText)
		}
	})
}
