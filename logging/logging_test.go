// SPDX-FileCopyrightText: Copyright 2026 The sitesec Authors
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cri-st/sitesec/env"
	"github.com/cri-st/sitesec/env/mocks"
)

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(WithOutput(&buf))

	logger.Debug("filtered")
	assert.Empty(t, buf.String(), "DEBUG should be filtered at INFO level")

	logger.Info("policy loaded", "rules", 7)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "policy loaded", entry["msg"])
	assert.EqualValues(t, 7, entry["rules"])

	ts, ok := entry["time"].(string)
	require.True(t, ok, "time field should be a string")
	_, err := time.Parse(time.RFC3339, ts)
	assert.NoError(t, err)
}

func TestNew_TextFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(WithFormat(FormatText), WithLevel(slog.LevelDebug), WithOutput(&buf))

	logger.Debug("debug message")

	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), `msg="debug message"`)
}

func TestNew_WithLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		level       slog.Level
		logLevel    slog.Level
		shouldWrite bool
	}{
		{"debug logger writes debug", slog.LevelDebug, slog.LevelDebug, true},
		{"info logger filters debug", slog.LevelInfo, slog.LevelDebug, false},
		{"warn logger filters info", slog.LevelWarn, slog.LevelInfo, false},
		{"error logger writes error", slog.LevelError, slog.LevelError, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			logger := New(WithLevel(tc.level), WithOutput(&buf))

			logger.Log(context.TODO(), tc.logLevel, "test")

			if tc.shouldWrite {
				assert.NotEmpty(t, buf.String())
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestNew_DynamicLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var lvl slog.LevelVar
	lvl.Set(slog.LevelWarn)

	logger := New(WithLevel(&lvl), WithOutput(&buf))

	logger.Info("should not appear")
	assert.Empty(t, buf.String())

	lvl.Set(slog.LevelInfo)
	logger.Info("should appear")
	assert.NotEmpty(t, buf.String())
}

func TestWithEnv(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		format    string
		level     string
		wantText  bool
		wantDebug bool
	}{
		{"unset keeps defaults", "", "", false, false},
		{"text and debug", "text", "debug", true, true},
		{"upper case values", "TEXT", "DEBUG", true, true},
		{"unknown values fall back", "xml", "loud", false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			reader := mocks.NewMockReader(ctrl)
			reader.EXPECT().Getenv(env.LogFormat).Return(tc.format)
			reader.EXPECT().Getenv(env.LogLevel).Return(tc.level)

			var buf bytes.Buffer
			logger := New(WithOutput(&buf), WithEnv(reader))
			logger.Debug("sample")

			if !tc.wantDebug {
				assert.Empty(t, buf.String())
				logger.Info("sample")
			}
			if tc.wantText {
				assert.Contains(t, buf.String(), "msg=sample")
			} else {
				assert.True(t, json.Valid(bytes.TrimSpace(buf.Bytes())), "expected JSON, got %q", buf.String())
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" WARN "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewHandler_ProducesSameOutputAsNew(t *testing.T) {
	t.Parallel()

	var buf1, buf2 bytes.Buffer
	New(WithOutput(&buf1)).Info("same message", "key", "value")
	slog.New(NewHandler(WithOutput(&buf2))).Info("same message", "key", "value")

	var entry1, entry2 map[string]any
	require.NoError(t, json.Unmarshal(buf1.Bytes(), &entry1))
	require.NoError(t, json.Unmarshal(buf2.Bytes(), &entry2))

	assert.Equal(t, entry1["msg"], entry2["msg"])
	assert.Equal(t, entry1["key"], entry2["key"])
}

func TestReplaceAttr(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 17, 10, 30, 0, 0, time.UTC)
	result := replaceAttr(nil, slog.Time(slog.TimeKey, now))
	assert.Equal(t, "2026-02-17T10:30:00Z", result.Value.String())

	attr := slog.String("key", "value")
	assert.Equal(t, attr, replaceAttr(nil, attr))
}
