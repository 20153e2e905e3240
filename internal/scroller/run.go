package scroller

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
)

// Verifier is a periodic state checker running alongside the frame loop
type Verifier interface {
	Run(ctx context.Context) error
}

// Run drives animation frames every frameInterval and, when verifier is not
// nil, the verification loop. It blocks until ctx is cancelled.
func Run(ctx context.Context, m *Manager, frameInterval time.Duration, verifier Verifier) error {
	if frameInterval <= 0 {
		frameInterval = time.Second / 60
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(frameInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				m.Advance(m.clk.Now())
			}
		}
	})

	if verifier != nil {
		g.Go(func() error {
			return verifier.Run(ctx)
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
