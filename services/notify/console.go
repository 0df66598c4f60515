package notifysvc

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core"
)

var labels = map[core.Severity]string{
	core.SeveritySuccess: "✔",
	core.SeverityInfo:    "i",
	core.SeverityWarning: "!",
	core.SeverityError:   "✖",
}

type consoleNotifier struct {
	mu        sync.Mutex
	out       io.Writer
	appName   string
	retryHint string
}

var _ core.Notifier = (*consoleNotifier)(nil)

// NewConsoleNotifier writes every notification as one line to out. retryHint, when set, is appended
// to notifications that can be retried.
func NewConsoleNotifier(out io.Writer, appName, retryHint string) core.Notifier {
	return &consoleNotifier{out: out, appName: appName, retryHint: retryHint}
}

func (n *consoleNotifier) Notify(notif core.Notification) {
	line := new(strings.Builder)
	_, _ = fmt.Fprintf(line, "[%s] %s %s", n.appName, label(notif.Severity), notif.Message)
	if notif.Retry != nil && n.retryHint != "" {
		_, _ = fmt.Fprintf(line, " (%s)", n.retryHint)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = fmt.Fprintln(n.out, line.String())
}

func label(sev core.Severity) string {
	if l, ok := labels[sev]; ok {
		return l
	}
	return string(sev)
}

// Recorder keeps every notification it receives, and optionally prints them too.
type Recorder struct {
	mu   sync.Mutex
	sent []core.Notification
	next core.Notifier
}

var _ core.Notifier = (*Recorder)(nil)

// NewRecorder returns a Recorder forwarding to next (may be nil).
func NewRecorder(next core.Notifier) *Recorder {
	return &Recorder{next: next}
}

func (r *Recorder) Notify(notif core.Notification) {
	r.mu.Lock()
	r.sent = append(r.sent, notif)
	r.mu.Unlock()
	if r.next != nil {
		r.next.Notify(notif)
	}
}

// Sent returns a copy of the recorded notifications.
func (r *Recorder) Sent() []core.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Notification(nil), r.sent...)
}

// Last returns the latest notification, if any.
func (r *Recorder) Last() (core.Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return core.Notification{}, false
	}
	return r.sent[len(r.sent)-1], true
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}
