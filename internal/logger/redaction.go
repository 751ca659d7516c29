package logger

import (
	"io"
	"regexp"
)

const redacted = "[REDACTED]"

// Redactor masks secrets that reach the log through fact fields, globals or
// command payloads.
type Redactor struct {
	patterns []*regexp.Regexp
}

// NewRedactor creates a redactor with the built-in patterns.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`Bearer\s+[a-zA-Z0-9._-]+`),
			regexp.MustCompile(`(?i)"?(password|passwd|pwd)"?\s*[:=]\s*"?[^\s",}]+"?`),
			regexp.MustCompile(`(?i)"?(api[_-]?key|token|secret)"?\s*[:=]\s*"?[a-zA-Z0-9._-]{8,}"?`),
			regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
			// card numbers in order facts
			regexp.MustCompile(`\b(?:\d[ -]?){13,16}\b`),
		},
	}
}

// AddPattern adds a custom redaction pattern.
func (r *Redactor) AddPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	r.patterns = append(r.patterns, re)
	return nil
}

// Redact masks every match in s.
func (r *Redactor) Redact(s string) string {
	for _, p := range r.patterns {
		s = p.ReplaceAllString(s, redacted)
	}
	return s
}

// Wrap returns a writer that redacts before writing to w.
func (r *Redactor) Wrap(w io.Writer) io.Writer {
	return &redactingWriter{w: w, r: r}
}

type redactingWriter struct {
	w io.Writer
	r *Redactor
}

// Write reports len(p) on success so zerolog does not treat a shorter
// redacted line as a short write.
func (w *redactingWriter) Write(p []byte) (int, error) {
	if _, err := w.w.Write([]byte(w.r.Redact(string(p)))); err != nil {
		return 0, err
	}
	return len(p), nil
}
