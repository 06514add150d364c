package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStdLogger_SilentUnlessVerbose(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, false)
	l.Info("hello", nil)
	l.Error("boom", errors.New("x"), nil)
	assert.Empty(t, buf.String())
}

func TestStdLogger_FieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, true)
	l.Warn("cache write failed", map[string]interface{}{"check": "local.disk-space", "attempt": 2})
	l.Error("fix failed", errors.New("denied"), nil)

	out := buf.String()
	assert.Contains(t, out, "[WARN] cache write failed attempt=2 check=local.disk-space")
	assert.Contains(t, out, "[ERROR] fix failed error=denied")
}

func TestVerboseFromEnv(t *testing.T) {
	tests := map[string]bool{"1": true, "true": true, "TRUE": true, "0": false, "": false, "yes": false}
	for value, want := range tests {
		t.Setenv(EnvDebug, value)
		assert.Equal(t, want, VerboseFromEnv(), value)
	}
}
