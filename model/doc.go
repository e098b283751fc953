// Package model contains the data exchanged by the review workflow:
// transactions and their account context, risk verdicts, final
// dispositions and the report produced at the end of a batch.
//
// It also defines the error taxonomy shared by the engine, the review
// channel and the dispatcher. Every error raised by those components is
// marked with one of the sentinels declared in errors.go so that callers can
// classify it with errors.Is.
package model
