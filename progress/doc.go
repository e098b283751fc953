// Package progress keeps aggregated counters for a dispatched batch so a
// CLI or webhook can report how many sessions are still waiting on a
// reviewer.
package progress
