package txshield_test

import (
	"bytes"
	"context"
	"embed"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	_ "github.com/viant/afs/embed"
	"github.com/viant/txshield"
	"github.com/viant/txshield/internal/logging"
	"github.com/viant/txshield/model"
	"github.com/viant/txshield/progress"
	"github.com/viant/txshield/service/event"
	"github.com/viant/txshield/service/messaging"
	"github.com/viant/txshield/service/review"
)

//go:embed testdata/*
var embedFS embed.FS

func loadBatch(t *testing.T) ([]*model.Transaction, *model.Account) {
	t.Helper()
	ctx := context.Background()
	fs := afs.New()
	transactions, err := txshield.LoadTransactions(ctx, fs, "embed:///testdata/transactions.json", &embedFS)
	require.NoError(t, err)
	account, err := txshield.LoadAccount(ctx, fs, "embed:///testdata/account.json", &embedFS)
	require.NoError(t, err)
	return transactions, account
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("TXSHIELD_LOG_LEVEL", "debug")
	t.Setenv("TXSHIELD_WIRE_REVIEWER", "Compliance Officer Lee")
	config, err := txshield.LoadConfig(context.Background(), afs.New(), "embed:///testdata/config.yaml", &embedFS)
	require.NoError(t, err)

	assert.Equal(t, "json", config.Logging.Format)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, 2*time.Minute, config.Policy.ReviewTimeout)
	assert.Equal(t, 2, config.Dispatcher.MaxPendingPrompts)
	assert.Equal(t, "Compliance Officer Lee", config.Dispatcher.Routes["wire"])
	assert.Equal(t, txshield.EvaluatorPreset, config.Evaluator.Kind)
	assert.EqualValues(t, 2, config.Evaluator.Retry.Attempts)
	assert.Equal(t, 10*time.Millisecond, config.Evaluator.Retry.Delay)
	assert.Equal(t, 6, config.Evaluator.Rules.DayStartHour, "unset sections keep defaults")
	assert.Equal(t, messaging.VendorMemory, config.Messaging.Vendor)
}

func TestLoadConfig_Errors(t *testing.T) {
	type testCase struct {
		description string
		content     string
	}
	testCases := []testCase{
		{description: "unknown key", content: "dispatcher:\n  maxPending: 2\n"},
		{description: "invalid level", content: "logging:\n  level: loud\n"},
		{description: "review levels cannot change", content: "policy:\n  reviewLevels: [medium, high, critical]\n"},
		{description: "fs vendor needs base url", content: "messaging:\n  vendor: fs\n"},
		{description: "malformed", content: "dispatcher: [\n"},
	}
	ctx := context.Background()
	fs := afs.New()
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			URL := "mem://localhost/txshield/config/" + t.Name() + ".yaml"
			require.NoError(t, fs.Upload(ctx, URL, 0644, bytes.NewReader([]byte(tc.content))))
			_, err := txshield.LoadConfig(ctx, fs, URL)
			assert.Error(t, err)
		})
	}

	_, err := txshield.LoadConfig(ctx, fs, "mem://localhost/txshield/config/missing.yaml")
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	type testCase struct {
		description string
		mutate      func(c *txshield.Config)
		expectErr   bool
	}
	testCases := []testCase{
		{description: "defaults", mutate: func(c *txshield.Config) {}},
		{description: "pending prompts", mutate: func(c *txshield.Config) { c.Dispatcher.MaxPendingPrompts = 0 }, expectErr: true},
		{description: "negative deadline", mutate: func(c *txshield.Config) { c.Dispatcher.Deadline = -time.Second }, expectErr: true},
		{description: "evaluator kind", mutate: func(c *txshield.Config) { c.Evaluator.Kind = "llm" }, expectErr: true},
		{description: "day hours", mutate: func(c *txshield.Config) { c.Evaluator.Rules.DayStartHour = 23 }, expectErr: true},
		{description: "log format", mutate: func(c *txshield.Config) { c.Logging.Format = "xml" }, expectErr: true},
		{description: "events vendor", mutate: func(c *txshield.Config) {
			c.Events.Enabled = true
			c.Events.Vendor = "kafka"
		}, expectErr: true},
		{description: "fs messaging", mutate: func(c *txshield.Config) {
			c.Messaging.Vendor = messaging.VendorFs
			c.Messaging.BaseURL = "mem://localhost/txshield/queues"
		}},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			config := txshield.DefaultConfig()
			tc.mutate(config)
			err := config.Validate()
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoadTransactions(t *testing.T) {
	transactions, account := loadBatch(t)
	require.Len(t, transactions, 2)
	assert.Equal(t, "TRX-002", transactions[1].ID)
	assert.Equal(t, "25000", transactions[1].Amount.String())
	require.NotNil(t, transactions[1].RiskLevel)
	assert.Equal(t, model.RiskLevelHigh, *transactions[1].RiskLevel)
	assert.Len(t, transactions[1].RiskFactors, 4)
	assert.Equal(t, "ACC-12345", account.ID)
	assert.Len(t, account.UsualRecipients, 3)

	ctx := context.Background()
	fs := afs.New()
	URL := "mem://localhost/txshield/input/wrapped.json"
	require.NoError(t, fs.Upload(ctx, URL, 0644, bytes.NewReader([]byte(`{"transactions":[{"transactionId":"TRX-9"}]}`))))
	wrapped, err := txshield.LoadTransactions(ctx, fs, URL)
	require.NoError(t, err)
	require.Len(t, wrapped, 1)
	assert.Equal(t, "TRX-9", wrapped[0].ID)

	malformed := "mem://localhost/txshield/input/malformed.json"
	require.NoError(t, fs.Upload(ctx, malformed, 0644, bytes.NewReader([]byte(`[{"amount":"abc"}]`))))
	_, err = txshield.LoadTransactions(ctx, fs, malformed)
	assert.True(t, errors.Is(err, model.ErrValidation))

	invalidAccount := "mem://localhost/txshield/input/account.json"
	require.NoError(t, fs.Upload(ctx, invalidAccount, 0644, bytes.NewReader([]byte(`{"accountId":"ACC-1","currency":"dollars"}`))))
	_, err = txshield.LoadAccount(ctx, fs, invalidAccount)
	assert.True(t, errors.Is(err, model.ErrValidation))
}

type eventLog struct {
	mu    sync.Mutex
	types []event.Type
}

func (l *eventLog) add(e *event.Event[any]) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.types = append(l.types, e.Context.EventType)
}

func (l *eventLog) count(eventType event.Type) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	ret := 0
	for _, candidate := range l.types {
		if candidate == eventType {
			ret++
		}
	}
	return ret
}

func TestService_Review(t *testing.T) {
	type testCase struct {
		description  string
		answer       string
		expectStatus model.Status
		expectSigner string
	}
	testCases := []testCase{
		{description: "reviewer approves", answer: "YES", expectStatus: model.StatusApproved, expectSigner: "Security Analyst Smith"},
		{description: "reviewer asks to investigate", answer: "investigate", expectStatus: model.StatusFlaggedForInvestigation},
		{description: "reviewer rejects", answer: "no", expectStatus: model.StatusRejected},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			ctx := context.Background()
			transactions, account := loadBatch(t)
			config := txshield.DefaultConfig()
			config.Evaluator.Kind = txshield.EvaluatorPreset
			registry := prometheus.NewRegistry()
			events := &eventLog{}
			var finished bool
			var progressMu sync.Mutex
			srv, err := txshield.New(ctx,
				txshield.WithConfig(config),
				txshield.WithLogger(logging.Discard()),
				txshield.WithMetricsRegisterer(registry),
				txshield.WithEventListener(events.add),
				txshield.WithProgress(func(c progress.Counters) {
					progressMu.Lock()
					finished = finished || c.Done()
					progressMu.Unlock()
				}),
			)
			require.NoError(t, err)
			defer srv.Close()

			var prompts []*review.Prompt
			var promptsMu sync.Mutex
			stop := review.AutoResponder(ctx, srv.Channel(), func(p *review.Prompt) string {
				promptsMu.Lock()
				prompts = append(prompts, p)
				promptsMu.Unlock()
				return tc.answer
			}, logging.Discard())
			defer stop()

			result, err := srv.Review(ctx, transactions, account)
			require.NoError(t, err)
			require.True(t, result.Complete())
			require.Len(t, result.Entries, 2)

			first := result.Entries[0]
			assert.Equal(t, "TRX-001", first.TransactionID)
			assert.Equal(t, model.StatusApproved, first.Status)
			assert.Equal(t, "auto-approval-system", first.Approver.ValueOrZero())
			assert.True(t, first.ApprovalTime.Valid)

			second := result.Entries[1]
			assert.Equal(t, "TRX-002", second.TransactionID)
			assert.Equal(t, tc.expectStatus, second.Status)
			assert.Equal(t, "high", second.RiskLevel.ValueOrZero())
			assert.Equal(t, tc.expectSigner, second.Approver.ValueOrZero())
			assert.Equal(t, tc.expectSigner != "", second.ApprovalTime.Valid)

			promptsMu.Lock()
			require.Len(t, prompts, 1, "only the high risk transaction is prompted")
			assert.Contains(t, prompts[0].Message, "RISK ASSESSMENT: HIGH")
			assert.Contains(t, prompts[0].Message, "First-time recipient")
			promptsMu.Unlock()

			count, err := testutil.GatherAndCount(registry, "txshield_sessions_total")
			require.NoError(t, err)
			assert.Equal(t, 2, count, "auto approval and reviewer decision are separate series")

			assert.Eventually(t, func() bool {
				return events.count(event.TypeSessionResolved) == 2
			}, time.Second, 10*time.Millisecond)

			progressMu.Lock()
			assert.True(t, finished)
			progressMu.Unlock()
			assert.Empty(t, srv.Channel().Outstanding(ctx))
		})
	}
}

func TestService_FsMessaging(t *testing.T) {
	ctx := context.Background()
	transactions, account := loadBatch(t)
	config := txshield.DefaultConfig()
	config.Evaluator.Kind = txshield.EvaluatorPreset
	config.Messaging.Vendor = messaging.VendorFs
	config.Messaging.BaseURL = "mem://localhost/txshield/fs-messaging"
	config.Events.Enabled = true
	config.Events.Vendor = messaging.VendorFs
	config.Events.BaseURL = "mem://localhost/txshield/fs-events"
	fs := afs.New()

	srv, err := txshield.New(ctx, txshield.WithConfig(config), txshield.WithFs(fs), txshield.WithLogger(logging.Discard()))
	require.NoError(t, err)
	defer srv.Close()
	stop := review.AutoResponder(ctx, srv.Channel(), review.Always("yes"), logging.Discard())
	defer stop()

	result, err := srv.Review(ctx, transactions, account)
	require.NoError(t, err)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, "Security Analyst Smith", result.Entries[1].Approver.ValueOrZero())

	objects, err := fs.List(ctx, "mem://localhost/txshield/fs-events")
	require.NoError(t, err)
	assert.NotEmpty(t, objects, "events are persisted as files")
}

func TestService_RulesEvaluator(t *testing.T) {
	ctx := context.Background()
	transactions, account := loadBatch(t)
	for _, transaction := range transactions {
		transaction.RiskLevel = nil
		transaction.RiskFactors = nil
	}
	config := txshield.DefaultConfig()
	config.Dispatcher.Deadline = 100 * time.Millisecond
	srv, err := txshield.New(ctx, txshield.WithConfig(config), txshield.WithLogger(logging.Discard()))
	require.NoError(t, err)

	result, err := srv.Review(ctx, transactions, account)
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "TRX-001", result.Entries[0].TransactionID)
	assert.Equal(t, "low", result.Entries[0].RiskLevel.ValueOrZero())
	require.Len(t, result.Pending, 1, "nobody answers the critical wire")
	assert.Equal(t, "TRX-002", result.Pending[0].TransactionID)
}

func TestService_Webhook(t *testing.T) {
	srv, err := txshield.New(context.Background(), txshield.WithLogger(logging.Discard()))
	require.NoError(t, err)
	assert.NotNil(t, srv.Webhook().Handler())
	assert.NotNil(t, srv.Terminal())
	assert.Equal(t, txshield.EvaluatorRules, srv.Config().Evaluator.Kind)
}
