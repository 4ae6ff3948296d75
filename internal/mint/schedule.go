package mint

import (
	"math/rand"
	"time"

	"github.com/mbc20/clawmint/internal/moltbook"
	"github.com/mbc20/clawmint/pkg/config"
)

// Schedule computes how long a miner sleeps after each attempt.
//
// The rules mirror what the posting service actually enforces:
//   - after a successful mint the account is cooling down for two hours, so
//     sleep the full window plus jitter to keep agents from re-firing in sync
//   - a 429 with a seconds hint is precise; honor it with a small buffer
//   - a 429 with only a minutes hint gets a slightly larger buffer
//   - a 429 with no hints at all is treated as a full cooldown
//   - anything unclassified retries quickly
type Schedule struct {
	SuccessSleep      time.Duration
	SuccessJitterMin  time.Duration
	SuccessJitterMax  time.Duration
	UnknownRetry      time.Duration
	RateLimitFallback time.Duration
	SecondsHintBuffer time.Duration
	MinutesHintBuffer time.Duration

	// jitter returns a random duration in [0, n); swapped out in tests.
	jitter func(n time.Duration) time.Duration
}

// NewSchedule builds a schedule from config.
func NewSchedule(cfg config.ScheduleConfig) *Schedule {
	return &Schedule{
		SuccessSleep:      cfg.SuccessSleep.Std(),
		SuccessJitterMin:  cfg.SuccessJitterMin.Std(),
		SuccessJitterMax:  cfg.SuccessJitterMax.Std(),
		UnknownRetry:      cfg.UnknownRetry.Std(),
		RateLimitFallback: cfg.RateLimitFallback.Std(),
		SecondsHintBuffer: cfg.SecondsHintBuffer.Std(),
		MinutesHintBuffer: cfg.MinutesHintBuffer.Std(),
		jitter: func(n time.Duration) time.Duration {
			if n <= 0 {
				return 0
			}
			return time.Duration(rand.Int63n(int64(n)))
		},
	}
}

// Next returns the sleep duration before the next attempt.
func (s *Schedule) Next(outcome Outcome, hint *moltbook.APIError) time.Duration {
	switch outcome {
	case OutcomeSuccess:
		window := s.SuccessJitterMax - s.SuccessJitterMin
		return s.SuccessSleep + s.SuccessJitterMin + s.jitter(window)

	case OutcomeRateLimited:
		if hint != nil && hint.RetryAfterSeconds > 0 {
			return time.Duration(hint.RetryAfterSeconds)*time.Second + s.SecondsHintBuffer
		}
		if hint != nil && hint.RetryAfterMinutes > 0 {
			return time.Duration(hint.RetryAfterMinutes)*time.Minute + s.MinutesHintBuffer
		}
		return s.RateLimitFallback + s.MinutesHintBuffer

	default:
		return s.UnknownRetry
	}
}
