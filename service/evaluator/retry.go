package evaluator

import (
	"context"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/viant/txshield/internal/logging"
	"github.com/viant/txshield/model"
)

// RetryConfig controls WithRetry.
type RetryConfig struct {
	Attempts uint          `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	Delay    time.Duration `json:"delay,omitempty" yaml:"delay,omitempty"`
}

// DefaultRetryConfig returns three attempts with a 100ms back-off base.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{Attempts: 3, Delay: 100 * time.Millisecond}
}

// Permanent marks err so WithRetry gives up immediately.
func Permanent(err error) error {
	return retry.Unrecoverable(err)
}

// WithRetry retries ev on error. Invalid verdicts are not retried.
func WithRetry(ev Evaluator, config RetryConfig, logger *slog.Logger) Evaluator {
	if config.Attempts == 0 {
		config = DefaultRetryConfig()
	}
	logger = logging.OrDefault(logger)
	return Func(func(ctx context.Context, transaction *model.Transaction, account *model.Account) (*model.RiskVerdict, error) {
		return retry.DoWithData(
			func() (*model.RiskVerdict, error) {
				return ev.Evaluate(ctx, transaction, account)
			},
			retry.Attempts(config.Attempts),
			retry.Delay(config.Delay),
			retry.DelayType(retry.BackOffDelay),
			retry.LastErrorOnly(true),
			retry.Context(ctx),
			retry.OnRetry(func(n uint, err error) {
				logger.WarnContext(ctx, "risk evaluation failed, retrying",
					"transaction_id", transaction.ID,
					"attempt", n+1,
					"error", err)
			}),
		)
	})
}
