package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"digestgram/internal/domain"
)

const keywordSeparator = ","

// EnsureUser returns the existing user row or creates one. Concurrent calls
// for the same id resolve through the primary key: the losing writer simply
// observes the winner's row.
func (d *Database) EnsureUser(
	ctx context.Context,
	userID int64,
	username string,
) (*domain.User, error) {
	username = strings.TrimSpace(username)

	insert := `insert into users (user_id, username, created_at)
	values (?, ?, ?)
	on conflict (user_id) do nothing`

	if _, err := d.db.ExecContext(ctx, insert, userID, username, time.Now().Unix()); err != nil {
		return nil, fmt.Errorf("failed to execute insert: %w", err)
	}

	query := "select user_id, username, created_at from users where user_id = ?"

	var u domain.User
	row := d.db.QueryRowContext(ctx, query, userID)
	if err := row.Scan(&u.ID, &u.Username, &u.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &u, nil
}

// SaveSummary appends one immutable record per call. The insert runs in its
// own transaction so readers never observe a partial row.
func (d *Database) SaveSummary(
	ctx context.Context,
	userID int64,
	originalText string,
	summaryText string,
) (*domain.SummaryRecord, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil &&
			!errors.Is(rollbackErr, sql.ErrTxDone) {
			d.log.ErrorContext(ctx, "Failed to rollback transaction",
				"error", rollbackErr,
				"userID", userID,
				"operation", "SaveSummary")
		}
	}()

	rec := domain.SummaryRecord{
		UserID:       userID,
		OriginalText: originalText,
		SummaryText:  summaryText,
		CreatedAt:    time.Now().Unix(),
	}

	query := `insert into summaries_log (user_id, original_text, summary_text, created_at)
	values (?, ?, ?, ?)`

	res, err := tx.ExecContext(ctx, query,
		rec.UserID, rec.OriginalText, rec.SummaryText, rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to execute insert: %w", err)
	}

	rec.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch inserted id: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &rec, nil
}

func (d *Database) ListUserSummaries(
	ctx context.Context,
	userID int64,
	limit int64,
) ([]domain.SummaryRecord, error) {
	query := `select id, user_id, original_text, summary_text, created_at
	from summaries_log
	where user_id = ?
	order by id desc
	limit ?`

	rows, err := d.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"userID", userID,
				"operation", "ListUserSummaries")
		}
	}()

	var records []domain.SummaryRecord
	for rows.Next() {
		var r domain.SummaryRecord
		if err = rows.Scan(&r.ID, &r.UserID, &r.OriginalText, &r.SummaryText, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		records = append(records, r)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return records, nil
}

func (d *Database) AddChannel(
	ctx context.Context,
	userID int64,
	channelURL string,
	keywords []string,
) error {
	channelURL = strings.TrimSpace(channelURL)
	if channelURL == "" {
		return errors.New("channel URL is empty")
	}

	query := `insert or ignore into channels (user_id, url, keywords, active, created_at)
	values (?, ?, ?, 1, ?)`

	_, err := d.db.ExecContext(ctx, query,
		userID, channelURL, joinKeywords(keywords), time.Now().Unix())

	return err
}

func (d *Database) RemoveChannel(ctx context.Context, channelID int64) error {
	query := "delete from channels where id = ?"

	_, err := d.db.ExecContext(ctx, query, channelID)

	return err
}

func (d *Database) ListUserChannels(
	ctx context.Context,
	userID int64,
) ([]domain.Channel, error) {
	query := `select id, user_id, url, keywords, active, created_at
	from channels
	where user_id = ? and active = 1`

	return d.queryChannels(ctx, query, userID)
}

func (d *Database) ListActiveChannels(ctx context.Context) ([]domain.Channel, error) {
	query := `select id, user_id, url, keywords, active, created_at
	from channels
	where active = 1`

	return d.queryChannels(ctx, query)
}

func (d *Database) queryChannels(
	ctx context.Context,
	query string,
	args ...any,
) ([]domain.Channel, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"operation", "queryChannels")
		}
	}()

	var channels []domain.Channel
	for rows.Next() {
		var ch domain.Channel
		var keywords string

		if err = rows.Scan(&ch.ID, &ch.UserID, &ch.URL, &keywords, &ch.Active, &ch.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		ch.URL = strings.TrimSpace(ch.URL)
		ch.Keywords = splitKeywords(keywords)

		channels = append(channels, ch)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return channels, nil
}

func joinKeywords(keywords []string) string {
	var cleaned []string

	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}

		cleaned = append(cleaned, kw)
	}

	return strings.Join(cleaned, keywordSeparator)
}

func splitKeywords(raw string) []string {
	var keywords []string

	for _, kw := range strings.Split(raw, keywordSeparator) {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}

		keywords = append(keywords, kw)
	}

	return keywords
}
