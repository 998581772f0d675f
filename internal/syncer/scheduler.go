package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Scheduler runs recurring jobs on independent goroutines. Shutdown is
// cooperative: cancelling the context stops scheduling new runs, while a
// run already in progress completes so the watermark-advance-after-batch
// invariant holds.
type Scheduler struct {
	wg sync.WaitGroup
}

// NewScheduler creates an empty Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Every runs fn at a fixed interval. When immediate is true the first run
// happens right away, which lets a restarted process catch up on its
// lookback window without waiting out a full interval.
func (s *Scheduler) Every(ctx context.Context, name string, interval time.Duration, immediate bool, fn func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if immediate {
			s.runJob(ctx, name, fn)
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runJob(ctx, name, fn)
			}
		}
	}()
	log.Info().Str("job", name).Dur("interval", interval).Msg("scheduler: recurring job registered")
}

// DailyAt runs fn once per day at the given local time of day.
func (s *Scheduler) DailyAt(ctx context.Context, name string, hour, minute int, fn func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		for {
			wait := untilNext(time.Now(), hour, minute)
			timer := time.NewTimer(wait)

			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				s.runJob(ctx, name, fn)
			}
		}
	}()
	log.Info().Str("job", name).Str("at", time.Date(0, 1, 1, hour, minute, 0, 0, time.UTC).Format("15:04")).Msg("scheduler: daily job registered")
}

// runJob executes one run detached from the shutdown signal so an in-flight
// batch is never aborted mid-way.
func (s *Scheduler) runJob(ctx context.Context, name string, fn func(context.Context)) {
	if ctx.Err() != nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("job", name).Any("panic", r).Msg("scheduler: job panicked")
		}
	}()

	fn(context.WithoutCancel(ctx))
}

// Wait blocks until all schedule loops have observed cancellation and all
// in-flight runs have completed.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// untilNext returns the duration from now until the next occurrence of
// hour:minute, always in the future.
func untilNext(now time.Time, hour, minute int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
