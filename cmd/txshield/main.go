// Command txshield reviews a batch of transactions, holding risky ones for a
// reviewer's decision.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// Exit codes.
const (
	exitOK         = 0
	exitFailure    = 1
	exitUsage      = 2
	exitIncomplete = 3
)

// Run is the testable entry point.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stderr)
		return exitUsage
	}
	switch args[1] {
	case "review":
		return runReview(ctx, args[2:], stdin, stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return exitOK
	}
	_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
	printUsage(stderr)
	return exitUsage
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Usage: txshield <command> [flags]")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Commands:")
	_, _ = fmt.Fprintln(w, "  review   assess a batch and collect reviewer decisions")
	_, _ = fmt.Fprintln(w, "  help     show this message")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Run 'txshield review -h' for review flags.")
}
