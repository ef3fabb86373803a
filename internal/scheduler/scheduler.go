package scheduler

import (
	"context"
	"log/slog"
	"time"

	"digestgram/internal/bot"
	"digestgram/internal/digest"

	"github.com/robfig/cron/v3"
)

const (
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0

	runDigestsTimeout = 15 * time.Minute
)

// Scheduler runs the periodic digest job: one pass over all active channels,
// one digest delivery per user.
type Scheduler struct {
	ctx      context.Context
	cron     *cron.Cron
	cronSpec string
	bot      *bot.Bot
	digests  *digest.Runner
	log      *slog.Logger
}

func New(
	ctx context.Context,
	cronSpec string,
	botInst *bot.Bot,
	digests *digest.Runner,
	log *slog.Logger,
) *Scheduler {
	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	return &Scheduler{
		ctx:      ctx,
		cron:     c,
		cronSpec: cronSpec,
		bot:      botInst,
		digests:  digests,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cronSpec, s.runDigests); err != nil {
		return err
	}

	s.cron.Start()

	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) runDigests() {
	ctx, cancel := context.WithTimeout(s.ctx, runDigestsTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return
	default:
	}

	userDigests, err := s.digests.RunAll(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to run digests",
			"error", err,
			"usersWithDigests", len(userDigests))

		return
	}

	for userID, digests := range userDigests {
		if ctx.Err() != nil {
			s.log.InfoContext(ctx, "Scheduler context is done",
				"error", ctx.Err())
			return
		}

		if err = s.bot.SendDigests(ctx, userID, digests); err != nil {
			s.log.ErrorContext(ctx, "Failed to send user digests",
				"error", err,
				"userID", userID,
				"digestCount", len(digests))
		}
	}
}
