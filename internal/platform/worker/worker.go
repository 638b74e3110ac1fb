// Package worker runs the long-lived loops of the bot: a repeated step with
// backoff on failure, plus housekeeping tasks on their own tickers.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	logFieldWorker = "worker"
	logFieldTask   = "task"

	defaultMaxBackoff = time.Minute
)

// ErrStepPanicked wraps a panic raised by a step so it counts as a failure.
var ErrStepPanicked = errors.New("step panicked")

// StepFunc is one iteration of the loop, e.g. one long poll.
type StepFunc func(ctx context.Context) error

// Task is housekeeping run once at start and then every Interval,
// independently of how long the step blocks.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context)
}

// Loop repeats Step until the context ends. After a success it pauses for
// Interval; after consecutive failures the pause doubles up to MaxBackoff.
type Loop struct {
	Name       string
	Interval   time.Duration
	MaxBackoff time.Duration
	Step       StepFunc
	Tasks      []Task

	// OnError sees every failed step with the current run of failures.
	OnError func(err error, failures int)

	Logger *zerolog.Logger
}

// Run blocks until ctx is canceled and returns the wrapped context error.
// Tasks are stopped and awaited before it returns.
func (l *Loop) Run(ctx context.Context) error {
	logger := getLogger(l.Logger)
	logger.Info().Str(logFieldWorker, l.Name).Int("tasks", len(l.Tasks)).Msg("starting worker loop")

	taskCtx, cancelTasks := context.WithCancel(ctx)

	var wg sync.WaitGroup

	for _, task := range l.Tasks {
		task := task

		if task.Interval <= 0 || task.Run == nil {
			continue
		}

		wg.Add(1)

		go func() {
			defer wg.Done()

			runTask(taskCtx, task, logger)
		}()
	}

	defer func() {
		cancelTasks()
		wg.Wait()
		logger.Info().Str(logFieldWorker, l.Name).Msg("worker loop stopped")
	}()

	failures := 0

	for {
		if ctx.Err() != nil {
			return fmt.Errorf("worker loop %s: %w", l.Name, ctx.Err())
		}

		pause := l.Interval

		if err := l.runStep(ctx, logger); err != nil {
			failures++
			pause = Backoff(l.Interval, l.maxBackoff(), failures)

			if l.OnError != nil {
				l.OnError(err, failures)
			} else {
				logger.Error().Err(err).Str(logFieldWorker, l.Name).Int("failures", failures).Msg("step failed")
			}
		} else {
			failures = 0
		}

		if err := Wait(ctx, pause); err != nil {
			return fmt.Errorf("worker loop %s: %w", l.Name, err)
		}
	}
}

func (l *Loop) runStep(ctx context.Context, logger *zerolog.Logger) (err error) {
	if l.Step == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Str(logFieldWorker, l.Name).Msg("recovered from panic in step")

			err = fmt.Errorf("%w: %v", ErrStepPanicked, r)
		}
	}()

	return l.Step(ctx)
}

func (l *Loop) maxBackoff() time.Duration {
	if l.MaxBackoff <= 0 {
		return defaultMaxBackoff
	}

	return l.MaxBackoff
}

// Backoff is the pause after the given number of consecutive failures:
// base doubled per extra failure, capped at maxPause. A non-positive base
// means no pause.
func Backoff(base, maxPause time.Duration, failures int) time.Duration {
	if base <= 0 {
		return 0
	}

	pause := base
	for i := 1; i < failures && pause < maxPause; i++ {
		pause *= 2
	}

	return min(pause, maxPause)
}

func runTask(ctx context.Context, task Task, logger *zerolog.Logger) {
	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	for {
		runTaskOnce(ctx, task, logger)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func runTaskOnce(ctx context.Context, task Task, logger *zerolog.Logger) {
	defer RecoverPanic(logger, task.Name)

	logger.Debug().Str(logFieldTask, task.Name).Msg("running task")
	task.Run(ctx)
}

// Wait blocks until d elapses or ctx is canceled.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("wait interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// RecoverPanic recovers from panics and logs them.
// Use as: defer worker.RecoverPanic(logger, "operation name")
func RecoverPanic(logger *zerolog.Logger, operation string) {
	if r := recover(); r != nil {
		getLogger(logger).Error().
			Interface("panic", r).
			Str("operation", operation).
			Msg("recovered from panic")
	}
}

func getLogger(logger *zerolog.Logger) *zerolog.Logger {
	if logger == nil {
		nop := zerolog.Nop()

		return &nop
	}

	return logger
}
