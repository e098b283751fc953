package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), append([]string{"txshield"}, args...), strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	type testCase struct {
		description string
		args        []string
		expectCode  int
	}
	testCases := []testCase{
		{description: "no command", expectCode: exitUsage},
		{description: "unknown command", args: []string{"audit"}, expectCode: exitUsage},
		{description: "help", args: []string{"help"}, expectCode: exitOK},
		{description: "missing inputs", args: []string{"review", "-auto", "yes"}, expectCode: exitUsage},
		{description: "bad flag", args: []string{"review", "-bogus"}, expectCode: exitUsage},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			code, _, _ := run(t, "", tc.args...)
			assert.Equal(t, tc.expectCode, code)
		})
	}
}

func TestRun_ReviewAuto(t *testing.T) {
	code, stdout, stderr := run(t, "",
		"review",
		"-transactions", "testdata/transactions.json",
		"-account", "testdata/account.json",
		"-evaluator", "preset",
		"-auto", "yes")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "===== TRANSACTION SUMMARY =====")
	assert.Contains(t, stdout, "- TRX-001 (transfer): Approved")
	assert.Contains(t, stdout, "Approved by: auto-approval-system")
	assert.Contains(t, stdout, "- TRX-002 (wire): Approved")
	assert.Contains(t, stdout, "Amount: 25000.00 USD")
	assert.Contains(t, stdout, "Risk Level: HIGH")
	assert.Contains(t, stdout, "Approved by: Security Analyst Smith")
}

func TestRun_ReviewTerminal(t *testing.T) {
	type testCase struct {
		description string
		answer      string
		expect      string
	}
	testCases := []testCase{
		{description: "investigate", answer: "investigate\n", expect: "- TRX-002 (wire): FlaggedForInvestigation"},
		{description: "reject", answer: "no\n", expect: "- TRX-002 (wire): Rejected"},
		{description: "unclear answer", answer: "maybe later\n", expect: "Reason: ambiguous-response"},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			code, stdout, stderr := run(t, tc.answer,
				"review",
				"-transactions", "testdata/transactions.json",
				"-account", "testdata/account.json",
				"-evaluator", "preset",
				"-reviewer", "Security Analyst Smith")
			require.Equal(t, exitOK, code, stderr)
			assert.Contains(t, stdout, "TRANSACTION SECURITY ALERT")
			assert.Contains(t, stdout, "Security Analyst Smith, do you authorize this transaction to proceed? (yes/no/investigate):")
			assert.Contains(t, stdout, tc.expect)
		})
	}
}

func TestRun_ReviewJSON(t *testing.T) {
	code, stdout, stderr := run(t, "",
		"review",
		"-transactions", "testdata/transactions.json",
		"-account", "testdata/account.json",
		"-evaluator", "preset",
		"-auto", "no",
		"-json")
	require.Equal(t, exitOK, code, stderr)
	var report struct {
		Entries []struct {
			TransactionID string  `json:"transactionId"`
			Status        string  `json:"finalStatus"`
			Approver      *string `json:"approver"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	require.Len(t, report.Entries, 2)
	assert.Equal(t, "Approved", report.Entries[0].Status)
	assert.Equal(t, "Rejected", report.Entries[1].Status)
	assert.Nil(t, report.Entries[1].Approver)
}

func TestRun_ReviewDeadline(t *testing.T) {
	code, stdout, _ := run(t, "",
		"review",
		"-transactions", "testdata/transactions.json",
		"-account", "testdata/account.json",
		"-deadline", "100ms")
	assert.Equal(t, exitIncomplete, code)
	assert.Contains(t, stdout, "- TRX-002: PENDING")
}

func TestRun_ReviewInvalidInput(t *testing.T) {
	code, _, stderr := run(t, "",
		"review",
		"-transactions", "testdata/transactions.json",
		"-account", "testdata/missing.json",
		"-auto", "yes")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "failed to load account")
}
