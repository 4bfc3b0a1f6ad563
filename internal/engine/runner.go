package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"gitlab.com/yelinaung/subscription-bot/internal/logger"
)

const (
	// DefaultCheckInterval is how often the Runner starts a pass.
	DefaultCheckInterval = 15 * time.Minute
	// PassTimeout bounds a single pass, excluding background delivery.
	PassTimeout = 2 * time.Minute
)

// Passer runs one evaluation pass.
type Passer interface {
	RunPass(ctx context.Context) (PassResult, error)
}

// Runner starts passes on a fixed interval and on demand. Passes never
// overlap: triggers that arrive while a pass runs are coalesced into one.
type Runner struct {
	passer   Passer
	interval time.Duration

	cron    *cron.Cron
	trigger chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewRunner creates a Runner. A non-positive interval uses DefaultCheckInterval.
func NewRunner(p Passer, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	return &Runner{
		passer:   p,
		interval: interval,
		trigger:  make(chan struct{}, 1),
	}
}

// Start schedules the periodic task and runs one pass immediately.
func (r *Runner) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", r.interval), r.Trigger); err != nil {
		cancel()
		return fmt.Errorf("failed to schedule evaluation pass: %w", err)
	}

	r.cron = c
	r.cancel = cancel
	r.wg.Add(1)
	go r.loop(ctx)

	c.Start()
	r.Trigger()

	logger.Log.Info().Dur("interval", r.interval).Msg("Notification runner started")
	return nil
}

// Trigger requests a pass as soon as possible.
func (r *Runner) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Stop halts the periodic task and waits for a running pass to return.
func (r *Runner) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
	r.cancel()
	r.wg.Wait()
	logger.Log.Info().Msg("Notification runner stopped")
}

func (r *Runner) loop(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.trigger:
			r.run(ctx)
		}
	}
}

func (r *Runner) run(ctx context.Context) {
	passCtx, cancel := context.WithTimeout(ctx, PassTimeout)
	defer cancel()

	res, err := r.passer.RunPass(passCtx)
	switch {
	case errors.Is(err, ErrPassInFlight):
		logger.Log.Debug().Msg("Pass already in flight")
	case err != nil:
		logger.Log.Error().Err(err).Msg("Evaluation pass failed")
	case res.Skipped:
		logger.Log.Debug().Str("reason", res.Reason).Msg("Evaluation pass skipped")
	}
}
