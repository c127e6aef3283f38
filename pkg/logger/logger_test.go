package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLogger_LogEvent_Levels(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	al.LogEvent(context.Background(), AuditEvent{
		Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Username:  "admin",
		Action:    "LOGIN_SUCCESS",
		Details:   "User logged in as admin",
		IPAddress: "127.0.0.1",
	})
	al.LogEvent(context.Background(), AuditEvent{Username: "ghost", Action: "LOGIN_FAILED", Failure: true})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	assert.Equal(t, "INFO", first["level"])
	assert.Equal(t, "LOGIN_SUCCESS", first["action"])
	assert.Equal(t, "2024-01-02T03:04:05Z", first["timestamp"])
	assert.Equal(t, "127.0.0.1", first["ip_address"])

	var second map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &second))
	assert.Equal(t, "WARN", second["level"])
	assert.NotContains(t, second, "details")
}

func TestSanitizedEmail(t *testing.T) {
	assert.Equal(t, "a****@*****.com", SanitizedEmail("admin@eduif.com"))
	assert.Equal(t, "x@*******.org", SanitizedEmail("x@example.org"))
	assert.Equal(t, "[invalid-email]", SanitizedEmail("not-an-email"))
	assert.Equal(t, "[invalid-email]", SanitizedEmail("a@b@c"))
}

func TestSanitizeQueryString(t *testing.T) {
	assert.True(t, SanitizeQueryString("password=hunter2"))
	assert.True(t, SanitizeQueryString("Session_Token=abc"))
	assert.False(t, SanitizeQueryString("limit=50"))
	assert.False(t, SanitizeQueryString(""))
}

func TestRedactedAttr(t *testing.T) {
	assert.Equal(t, "[REDACTED]", RedactedAttr("username", "admin", "production").Value.String())
	assert.Equal(t, "admin", RedactedAttr("username", "admin", "development").Value.String())
}
