package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"go.viam.com/test"
)

func newBufferLogger(name string, level Level) (Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := NewBlankLogger(name)
	logger.SetLevel(level)
	logger.AddAppender(NewWriterAppender(&buf))
	return logger, &buf
}

func splitLine(t *testing.T, buf *bytes.Buffer) []string {
	t.Helper()
	line, err := buf.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)
	return strings.Split(strings.TrimSuffix(line, "\n"), "\t")
}

func TestConsoleFormat(t *testing.T) {
	logger, buf := newBufferLogger("tof", DEBUG)

	logger.Info("hello")
	parts := splitLine(t, buf)
	test.That(t, parts, test.ShouldHaveLength, 5)
	test.That(t, len(parts[0]), test.ShouldEqual, len("2006-01-02T15:04:05.000Z"))
	test.That(t, parts[1], test.ShouldEqual, "INFO")
	test.That(t, parts[2], test.ShouldEqual, "tof")
	test.That(t, parts[3], test.ShouldStartWith, "logging/impl_test.go:")
	test.That(t, parts[4], test.ShouldEqual, "hello")

	logger.Debugw("frame dropped", "width", 240, "reason", "mismatch")
	parts = splitLine(t, buf)
	test.That(t, parts, test.ShouldHaveLength, 6)
	test.That(t, parts[1], test.ShouldEqual, "DEBUG")
	test.That(t, parts[4], test.ShouldEqual, "frame dropped")

	fields := map[string]interface{}{}
	test.That(t, json.Unmarshal([]byte(parts[5]), &fields), test.ShouldBeNil)
	test.That(t, fields, test.ShouldResemble, map[string]interface{}{"width": 240.0, "reason": "mismatch"})
}

func TestLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger("tof", WARN)

	logger.Debug("nope")
	logger.Infof("nope %d", 1)
	test.That(t, buf.Len(), test.ShouldEqual, 0)

	logger.Warnf("yes %d", 2)
	parts := splitLine(t, buf)
	test.That(t, parts[1], test.ShouldEqual, "WARN")
	test.That(t, parts[len(parts)-1], test.ShouldEqual, "yes 2")

	logger.SetLevel(ERROR)
	logger.Warn("nope")
	test.That(t, buf.Len(), test.ShouldEqual, 0)
	test.That(t, logger.GetLevel(), test.ShouldEqual, ERROR)
}

func TestSublogger(t *testing.T) {
	logger, buf := newBufferLogger("tof", INFO)
	sub := logger.Sublogger("render")

	sub.Error("boom")
	parts := splitLine(t, buf)
	test.That(t, parts[2], test.ShouldEqual, "tof.render")

	// Sublogger levels are independent of the parent after creation.
	sub.SetLevel(ERROR)
	logger.Info("still here")
	test.That(t, splitLine(t, buf)[2], test.ShouldEqual, "tof")
}

func TestUnpairedKey(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Warnw("odd", "lonely")
	entries := logs.FilterMessage("odd").All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].ContextMap()["lonely"], test.ShouldNotBeNil)
}

func TestLevelFromString(t *testing.T) {
	for inp, expected := range map[string]Level{"debug": DEBUG, "INFO": INFO, "Warn": WARN, "error": ERROR} {
		level, err := LevelFromString(inp)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, expected)
	}
	_, err := LevelFromString("verbose")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestContextFields(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	ctx := WithFields(context.Background(), "frame", 7)
	ctx = WithFields(ctx, "camera", "4")

	logger.CWarnw(ctx, "late frame", "delay_ms", 12)
	entries := logs.FilterMessage("late frame").All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].ContextMap(), test.ShouldResemble, map[string]interface{}{
		"frame":    int64(7),
		"camera":   "4",
		"delay_ms": int64(12),
	})

	// fields only ride along on the context variants
	logger.Warnw("plain")
	test.That(t, logs.FilterMessage("plain").All()[0].ContextMap(), test.ShouldBeEmpty)
}

func TestDebugMode(t *testing.T) {
	logger, buf := newBufferLogger("tof", ERROR)
	ctx := context.Background()

	logger.CDebugw(ctx, "hidden")
	logger.CInfow(ctx, "hidden")
	test.That(t, buf.Len(), test.ShouldEqual, 0)

	ctx = EnableDebugMode(ctx, "")
	test.That(t, IsDebugMode(ctx), test.ShouldBeTrue)
	test.That(t, DebugTag(ctx), test.ShouldHaveLength, 6)

	logger.CDebugw(ctx, "shown")
	parts := splitLine(t, buf)
	test.That(t, parts[1], test.ShouldEqual, "DEBUG")
	test.That(t, parts[4], test.ShouldEqual, "shown")
	test.That(t, parts[5], test.ShouldContainSubstring, DebugTag(ctx))

	// the debug tag only widens the context variants
	logger.Debug("still hidden")
	test.That(t, buf.Len(), test.ShouldEqual, 0)
}
