package notifysvc

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core"
)

func TestConsoleNotifier(t *testing.T) {
	retry := func(context.Context) error { return nil }

	tests := []struct {
		name  string
		notif core.Notification
		want  string
	}{
		{
			name:  "success",
			notif: core.Notification{Severity: core.SeveritySuccess, Message: "Welcome back, Ama!"},
			want:  "[Alumni] ✔ Welcome back, Ama!\n",
		},
		{
			name:  "retryable error",
			notif: core.Notification{Severity: core.SeverityError, Message: "Unable to reach the server.", Retry: retry},
			want:  "[Alumni] ✖ Unable to reach the server. (run the command again to retry)\n",
		},
		{
			name:  "unknown severity",
			notif: core.Notification{Severity: "debug", Message: "hello"},
			want:  "[Alumni] debug hello\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			NewConsoleNotifier(buf, "Alumni", "run the command again to retry").Notify(tt.notif)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestRecorder(t *testing.T) {
	buf := new(bytes.Buffer)
	rec := NewRecorder(NewConsoleNotifier(buf, "Alumni", ""))

	_, ok := rec.Last()
	assert.False(t, ok)

	rec.Notify(core.Notification{Severity: core.SeverityInfo, Message: "one"})
	rec.Notify(core.Notification{Severity: core.SeverityWarning, Message: "two"})

	assert.Len(t, rec.Sent(), 2)
	last, ok := rec.Last()
	assert.True(t, ok)
	assert.Equal(t, "two", last.Message)
	assert.Equal(t, "[Alumni] i one\n[Alumni] ! two\n", buf.String())

	rec.Reset()
	assert.Empty(t, rec.Sent())
}
