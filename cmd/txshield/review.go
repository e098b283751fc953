package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/viant/afs"
	"github.com/viant/txshield"
	"github.com/viant/txshield/internal/logging"
	"github.com/viant/txshield/model"
	"github.com/viant/txshield/service/dispatcher"
	"github.com/viant/txshield/service/review"
	"github.com/viant/txshield/transport/terminal"
	"golang.org/x/sync/errgroup"
)

type reviewFlags struct {
	config       string
	transactions string
	account      string
	reviewer     string
	evaluator    string
	auto         string
	webhook      bool
	deadline     time.Duration
	json         bool
}

func parseReviewFlags(args []string, stderr io.Writer) (*reviewFlags, error) {
	ret := &reviewFlags{}
	flags := flag.NewFlagSet("review", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&ret.config, "config", "", "YAML config URL")
	flags.StringVar(&ret.transactions, "transactions", "", "transactions JSON URL (required)")
	flags.StringVar(&ret.account, "account", "", "account JSON URL (required)")
	flags.StringVar(&ret.reviewer, "reviewer", "", "default reviewer")
	flags.StringVar(&ret.evaluator, "evaluator", "", "evaluator kind: rules or preset")
	flags.StringVar(&ret.auto, "auto", "", "answer every prompt with this text instead of asking")
	flags.BoolVar(&ret.webhook, "webhook", false, "collect answers over HTTP instead of the terminal")
	flags.DurationVar(&ret.deadline, "deadline", 0, "stop waiting for reviewers after this long")
	flags.BoolVar(&ret.json, "json", false, "print the report as JSON")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if ret.transactions == "" || ret.account == "" {
		flags.Usage()
		return nil, errors.New("-transactions and -account are required")
	}
	return ret, nil
}

func runReview(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseReviewFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		_, _ = fmt.Fprintln(stderr, err)
		return exitUsage
	}
	fs := afs.New()
	config := txshield.DefaultConfig()
	if opts.config != "" {
		if config, err = txshield.LoadConfig(ctx, fs, location(opts.config)); err != nil {
			_, _ = fmt.Fprintf(stderr, "invalid config: %v\n", err)
			return exitFailure
		}
	}
	if opts.reviewer != "" {
		config.Dispatcher.DefaultReviewer = opts.reviewer
	}
	if opts.evaluator != "" {
		config.Evaluator.Kind = opts.evaluator
	}
	if opts.deadline > 0 {
		config.Dispatcher.Deadline = opts.deadline
	}
	logger, err := logging.New(config.Logging, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "invalid logging config: %v\n", err)
		return exitFailure
	}

	transactions, err := txshield.LoadTransactions(ctx, fs, location(opts.transactions))
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "failed to load transactions: %v\n", err)
		return exitFailure
	}
	account, err := txshield.LoadAccount(ctx, fs, location(opts.account))
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "failed to load account: %v\n", err)
		return exitFailure
	}

	srv, err := txshield.New(ctx, txshield.WithConfig(config), txshield.WithLogger(logger), txshield.WithFs(fs))
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "failed to start: %v\n", err)
		return exitFailure
	}
	defer srv.Close()

	answerCtx, stopAnswers := context.WithCancel(ctx)
	var answers errgroup.Group
	switch {
	case opts.auto != "":
		stop := review.AutoResponder(answerCtx, srv.Channel(), review.Always(opts.auto), logger)
		answers.Go(func() error {
			<-answerCtx.Done()
			stop()
			return nil
		})
	case opts.webhook:
		server := srv.Webhook()
		answers.Go(func() error { return server.ListenAndServe(answerCtx, config.Webhook.Addr) })
		answers.Go(func() error { return server.Drain(answerCtx) })
	default:
		console := srv.Terminal(terminal.WithIO(stdin, stdout))
		answers.Go(func() error { return console.Run(answerCtx) })
	}

	result, err := srv.Review(ctx, transactions, account)
	stopAnswers()
	if answerErr := answers.Wait(); answerErr != nil {
		logger.Warn("reviewer transport stopped with error", "error", answerErr)
	}
	if result == nil {
		_, _ = fmt.Fprintf(stderr, "review failed: %v\n", err)
		return exitFailure
	}

	if opts.json {
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		if encErr := encoder.Encode(result); encErr != nil {
			_, _ = fmt.Fprintf(stderr, "failed to encode report: %v\n", encErr)
			return exitFailure
		}
	} else {
		printSummary(stdout, result, transactions)
	}
	if err != nil || !result.Complete() {
		if result.Halted != nil {
			_, _ = fmt.Fprintf(stderr, "batch halted: %v\n", result.Halted)
		}
		return exitIncomplete
	}
	return exitOK
}

// location turns a local path into an absolute one; URLs pass through.
func location(URL string) string {
	if strings.Contains(URL, "://") {
		return URL
	}
	if abs, err := filepath.Abs(URL); err == nil {
		return abs
	}
	return URL
}

func printSummary(w io.Writer, result *dispatcher.Result, transactions []*model.Transaction) {
	byID := make(map[string]*model.Transaction, len(transactions))
	for _, transaction := range transactions {
		if transaction != nil {
			byID[transaction.ID] = transaction
		}
	}
	_, _ = fmt.Fprintln(w, "\n===== TRANSACTION SUMMARY =====")
	for _, entry := range result.Entries {
		_, _ = fmt.Fprintf(w, "- %s (%s): %s\n", entry.TransactionID, entry.Type, entry.Status)
		if transaction, ok := byID[entry.TransactionID]; ok {
			_, _ = fmt.Fprintf(w, "  Amount: %s %s\n", model.FormatAmount(transaction.Amount, transaction.Currency), transaction.Currency)
		}
		riskLevel := "UNKNOWN"
		if entry.RiskLevel.Valid {
			riskLevel = strings.ToUpper(entry.RiskLevel.String)
		}
		_, _ = fmt.Fprintf(w, "  Risk Level: %s\n", riskLevel)
		_, _ = fmt.Fprintf(w, "  Reason: %s\n", entry.Reason)
		if entry.Approver.Valid {
			_, _ = fmt.Fprintf(w, "  Approved by: %s\n", entry.Approver.String)
		}
		if entry.ApprovalTime.Valid {
			_, _ = fmt.Fprintf(w, "  Approval date: %s\n", entry.ApprovalTime.Time.Format(time.RFC3339))
		}
		_, _ = fmt.Fprintln(w)
	}
	for _, invalid := range result.Invalid {
		_, _ = fmt.Fprintf(w, "- #%d %s: INVALID (%s)\n", invalid.Index, invalid.TransactionID, invalid.Error)
	}
	for _, pending := range result.Pending {
		_, _ = fmt.Fprintf(w, "- %s: PENDING (%s, awaiting %s)\n", pending.TransactionID, pending.State, pending.Reviewer)
	}
	for _, notStarted := range result.NotStarted {
		_, _ = fmt.Fprintf(w, "- %s: NOT STARTED\n", notStarted.TransactionID)
	}
}
