package dataset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/mentorpulse/internal/domain/indicators"
	model "github.com/okian/mentorpulse/internal/domain/model"
	"github.com/okian/mentorpulse/internal/domain/types"
	"github.com/okian/mentorpulse/pkg/logger"
)

// RunOptions controls Run.
type RunOptions struct {
	// BatchID of the submission; empty means a fresh uuid.
	BatchID string
	// Verify polls the leaderboard until it matches a local computation.
	Verify bool
	// Top is the leaderboard size compared when verifying.
	Top int
	// Wait bounds the time spent polling.
	Wait time.Duration
	// Poll is the interval between leaderboard fetches.
	Poll time.Duration
	// Calculator computes the local reference. Nil uses the default engine.
	Calculator *indicators.Calculator
}

// Report summarises a Run.
type Report struct {
	Ack         Ack
	Leaderboard []types.RankEntry
	Verified    bool
	Took        time.Duration
}

// Run submits ds to the service behind c and, when asked, waits for the
// recomputation to settle and checks the leaderboard against a local
// computation of the same dataset.
func Run(ctx context.Context, c *Client, ds *model.Dataset, opts RunOptions) (Report, error) {
	start := time.Now()
	log := logger.Get().Named("dataset-run")
	if opts.Top < 1 {
		opts.Top = 10
	}
	if opts.Wait <= 0 {
		opts.Wait = 30 * time.Second
	}
	if opts.Poll <= 0 {
		opts.Poll = 250 * time.Millisecond
	}

	if err := c.Health(ctx); err != nil {
		return Report{}, fmt.Errorf("service health check failed: %w", err)
	}
	ack, err := c.Submit(ctx, opts.BatchID, ds)
	if err != nil {
		return Report{}, fmt.Errorf("submit failed: %w", err)
	}
	report := Report{Ack: ack}
	if !opts.Verify {
		report.Took = time.Since(start)
		return report, nil
	}

	calc := opts.Calculator
	if calc == nil {
		calc = indicators.NewCalculator()
	}
	expected := Expected(calc.CalculateCohort(ds))
	top := min(opts.Top, len(expected))

	waitCtx, cancel := context.WithTimeout(ctx, opts.Wait)
	defer cancel()
	ticker := time.NewTicker(opts.Poll)
	defer ticker.Stop()

	var lastErr error
	for {
		board, err := c.Leaderboard(waitCtx, max(top, 1))
		switch {
		case err != nil:
			lastErr = err
		default:
			report.Leaderboard = board
			lastErr = VerifyLeaderboard(expected, board)
			if lastErr == nil && len(board) == top {
				report.Verified = true
				report.Took = time.Since(start)
				log.Info(ctx, "leaderboard verified", logger.Int("entries", len(board)), logger.Duration("took", report.Took))
				return report, nil
			}
		}
		select {
		case <-waitCtx.Done():
			report.Took = time.Since(start)
			if lastErr == nil {
				lastErr = errors.New("leaderboard did not settle")
			}
			return report, fmt.Errorf("verification timed out: %w", lastErr)
		case <-ticker.C:
		}
	}
}
