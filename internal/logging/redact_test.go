package logging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/tasklist/internal/config"
)

func encodeEntry(t *testing.T, enc zapcore.Encoder) string {
	t.Helper()
	buf, err := enc.EncodeEntry(zapcore.Entry{Message: "m", Time: time.Unix(0, 0)}, nil)
	require.NoError(t, err)
	return buf.String()
}

func TestRedactingEncoder_SensitiveKeys(t *testing.T) {
	enc, err := NewRedactingEncoder(newEncoder("json"), NewDefaultConfig().Redaction)
	require.NoError(t, err)

	enc.AddString("senha", "pw123")
	enc.AddString("username", "alice")

	out := encodeEntry(t, enc)
	assert.Contains(t, out, `"senha":"[REDACTED]"`)
	assert.Contains(t, out, `"username":"alice"`)
	assert.NotContains(t, out, "pw123")
}

func TestRedactingEncoder_BcryptPattern(t *testing.T) {
	enc, err := NewRedactingEncoder(newEncoder("json"), NewDefaultConfig().Redaction)
	require.NoError(t, err)

	enc.AddString("value", "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

	out := encodeEntry(t, enc)
	assert.Contains(t, out, `"value":"[REDACTED:pattern]"`)
}

func TestRedactingEncoder_Disabled(t *testing.T) {
	enc, err := NewRedactingEncoder(newEncoder("json"), RedactionConfig{Enabled: false})
	require.NoError(t, err)

	enc.AddString("password", "visible")
	assert.Contains(t, encodeEntry(t, enc), `"password":"visible"`)
}

func TestRedactingEncoder_InvalidPattern(t *testing.T) {
	_, err := NewRedactingEncoder(newEncoder("json"), RedactionConfig{
		Enabled:  true,
		Patterns: []string{"("},
	})
	assert.Error(t, err)
}

func TestRedactingEncoder_CloneKeepsRules(t *testing.T) {
	enc, err := NewRedactingEncoder(newEncoder("json"), NewDefaultConfig().Redaction)
	require.NoError(t, err)

	clone := enc.Clone()
	clone.AddString("token", "abc")
	assert.Contains(t, encodeEntry(t, clone), `"token":"[REDACTED]"`)
}

func TestSecretField(t *testing.T) {
	f := Secret("smtp_password", config.Secret("app-password"))
	assert.Equal(t, "[REDACTED:12]", f.String)

	f = RedactedString("cookie", "abcdef")
	assert.Equal(t, "[REDACTED:6]", f.String)
}
