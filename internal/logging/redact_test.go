package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fyrsmithlabs/streamline/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newBufferedLogger(t *testing.T, cfg RedactionConfig) (*zap.Logger, *bytes.Buffer) {
	t.Helper()
	enc, err := NewRedactingEncoder(newEncoder("json"), cfg)
	require.NoError(t, err)
	var buf bytes.Buffer
	core := zapcore.NewCore(enc, zapcore.AddSync(&buf), zapcore.DebugLevel)
	return zap.New(core), &buf
}

func TestSecretField(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := &Logger{zap: zap.New(core), config: NewDefaultConfig()}

	logger.Info(context.Background(), "loaded remote config", Secret("credentials", config.Secret("super-secret-value")))

	logs := observed.All()
	require.Len(t, logs, 1)

	field := logs[0].Context[0]
	marshaler, ok := field.Interface.(zapcore.ObjectMarshaler)
	require.True(t, ok)
	enc := zapcore.NewMapObjectEncoder()
	require.NoError(t, marshaler.MarshalLogObject(enc))
	assert.Equal(t, "[REDACTED:18]", enc.Fields["credentials"])
}

func TestRedactedString(t *testing.T) {
	field := RedactedString("authorization", "Bearer abcdef")
	assert.Equal(t, "[REDACTED:13]", field.String)
}

func TestRedactingEncoder_CallSiteFields(t *testing.T) {
	logger, buf := newBufferedLogger(t, NewDefaultConfig().Redaction)

	logger.Info("request sent",
		zap.String("authorization", "Bearer abc123"),
		zap.String("header", "Bearer xyz789"),
		zap.String("project.id", "p-1"),
		zap.Error(errors.New("token eyJhbGciOi.eyJzdWIiOi.c2lnbmF0dXJl rejected")),
	)

	out := buf.String()
	assert.NotContains(t, out, "abc123")
	assert.NotContains(t, out, "xyz789")
	assert.NotContains(t, out, "c2lnbmF0dXJl")
	assert.Contains(t, out, `"project.id":"p-1"`)
	assert.Contains(t, out, redacted)
	assert.Contains(t, out, redactedPattern)
}

func TestRedactingEncoder_WithFields(t *testing.T) {
	logger, buf := newBufferedLogger(t, NewDefaultConfig().Redaction)

	logger.With(zap.String("bearer_token", "plain-token")).Info("child")

	assert.NotContains(t, buf.String(), "plain-token")
	assert.Contains(t, buf.String(), `"bearer_token":"[REDACTED]"`)
}

func TestRedactingEncoder_MessagePattern(t *testing.T) {
	logger, buf := newBufferedLogger(t, NewDefaultConfig().Redaction)

	logger.Info("sending Bearer leaked-value")

	assert.NotContains(t, buf.String(), "leaked-value")
}

func TestRedactingEncoder_Disabled(t *testing.T) {
	logger, buf := newBufferedLogger(t, RedactionConfig{Enabled: false, Patterns: []string{"[invalid("}})

	logger.Info("x", zap.String("authorization", "Bearer visible"))

	assert.Contains(t, buf.String(), "visible")
}

func TestNewRedactingEncoder_InvalidPattern(t *testing.T) {
	cfg := RedactionConfig{
		Enabled:  true,
		Fields:   []string{"password"},
		Patterns: []string{`(?i)bearer\s+\S+`, "[invalid("},
	}

	encoder, err := NewRedactingEncoder(newEncoder("json"), cfg)

	assert.Error(t, err)
	assert.Nil(t, encoder)
	assert.Contains(t, err.Error(), "invalid redaction pattern")
}

func TestNewRedactingEncoder_PatternTooLong(t *testing.T) {
	cfg := RedactionConfig{
		Enabled:  true,
		Patterns: []string{strings.Repeat("a", maxPatternLen+1)},
	}

	encoder, err := NewRedactingEncoder(newEncoder("json"), cfg)

	assert.Error(t, err)
	assert.Nil(t, encoder)
	assert.Contains(t, err.Error(), "pattern too long")
}

func TestRedactingEncoder_AllMethodsImplemented(t *testing.T) {
	encoder, err := NewRedactingEncoder(newEncoder("json"), RedactionConfig{
		Enabled: true,
		Fields:  []string{"password", "token", "certificate", "credentials", "secret_array"},
	})
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		encoder.AddString("password", "secret")
		encoder.AddByteString("token", []byte("token-value"))
		encoder.AddBinary("certificate", []byte{0x00})
		_ = encoder.AddReflected("safe_field", "value")
		_ = encoder.AddObject("credentials", zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
			return nil
		}))
		_ = encoder.AddArray("secret_array", zapcore.ArrayMarshalerFunc(func(enc zapcore.ArrayEncoder) error {
			return nil
		}))
		_ = encoder.Clone()
	})
}
