package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

// testAppender sends entries to the test that produced them, so output from parallel tests stays
// apart and only shows for failures or -v.
type testAppender struct {
	tb testing.TB
}

// NewTestAppender returns an appender writing console-formatted lines to tb.Log.
func NewTestAppender(tb testing.TB) Appender {
	return testAppender{tb}
}

func (app testAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	app.tb.Helper()
	line, err := formatLine(entry, fields)
	app.tb.Log(line)
	return err
}

func (app testAppender) Sync() error {
	return nil
}
