// Package review implements the suspend/resume handshake between a session
// waiting on a human decision and the reviewer who answers it. A prompt is
// keyed by (session id, reviewer); a response resumes only the session whose
// key it carries, and only once.
package review
