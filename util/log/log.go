// Package log is a small leveled logger in the shape of the teacher's
// util/log/clog.go (Severity levels, printf-style entry points) but
// stripped down to what a storage-core library needs: it writes to an
// io.Writer instead of glog-style rotated files, and it threads
// github.com/cockroachdb/logtags context (range id, request id, ...)
// through every line instead of hand-formatting a prefix.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/logtags"
)

// Severity identifies the sort of log line: info, warning, error.
// A message written at a high Severity is never suppressed by a lower
// configured threshold; this package has no threshold at all (that is a
// process-level knob the out-of-scope config-file loader would own), it
// always writes everything, matching how a library logger with no daemon
// lifecycle of its own is expected to behave.
type Severity int32

const (
	InfoLog Severity = iota
	WarningLog
	ErrorLog
	FatalLog
)

func (s Severity) String() string {
	switch s {
	case InfoLog:
		return "INFO"
	case WarningLog:
		return "WARNING"
	case ErrorLog:
		return "ERROR"
	case FatalLog:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

var (
	mu  sync.Mutex
	out io.Writer = os.Stderr
)

// SetOutput redirects all subsequent log lines to w. Tests use this to
// capture output instead of spamming stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// WithTags returns a context carrying an additional logtags key/value
// pair, following the same accumulate-as-you-descend convention the
// teacher uses logtags for: a range's operations start from
// log.WithTags(ctx, "r", rangeID) once and every log line issued while
// handling that request picks up the tag automatically.
func WithTags(ctx context.Context, key string, value interface{}) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	buf := logtags.FromContext(ctx)
	if buf == nil {
		buf = &logtags.Buffer{}
	}
	buf = buf.Add(key, value)
	return logtags.WithTags(ctx, buf)
}

func tagString(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	buf := logtags.FromContext(ctx)
	if buf == nil {
		return ""
	}
	return buf.String()
}

func output(ctx context.Context, sev Severity, format string, args ...interface{}) {
	tags := tagString(ctx)
	msg := fmt.Sprintf(format, args...)
	mu.Lock()
	defer mu.Unlock()
	if tags != "" {
		fmt.Fprintf(out, "%s %s [%s] %s\n", time.Now().UTC().Format(time.RFC3339Nano), sev, tags, msg)
	} else {
		fmt.Fprintf(out, "%s %s %s\n", time.Now().UTC().Format(time.RFC3339Nano), sev, msg)
	}
}

// Infof logs at InfoLog severity. Used for range state transitions
// (serving, closing, closed) and process startup/shutdown — never for
// NotFound, which is a normal outcome, not an error worth a log line.
func Infof(ctx context.Context, format string, args ...interface{}) {
	output(ctx, InfoLog, format, args...)
}

// Warningf logs at WarningLog severity.
func Warningf(ctx context.Context, format string, args ...interface{}) {
	output(ctx, WarningLog, format, args...)
}

// Errorf logs at ErrorLog severity. Used for IOError and Corruption,
// which the executor never recovers from locally.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	output(ctx, ErrorLog, format, args...)
}

// Fatalf logs at FatalLog severity and terminates the process. Reserved
// for invariant violations the core cannot safely continue past (e.g. a
// range descriptor read back from the meta store failing to parse at
// startup).
func Fatalf(ctx context.Context, format string, args ...interface{}) {
	output(ctx, FatalLog, format, args...)
	os.Exit(1)
}
