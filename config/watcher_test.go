package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/tofviewer/logging"
)

func TestWatcherReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.json")
	test.That(t, os.WriteFile(path, []byte(`{"zoom": 0.5}`), 0o600), test.ShouldBeNil)

	logger, logs := logging.NewObservedTestLogger(t)
	w, err := NewWatcher(context.Background(), path, 10*time.Millisecond, logger)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, w.Close(), test.ShouldBeNil)
	}()

	// invalid edits are reported and not delivered
	test.That(t, os.WriteFile(path, []byte(`{"zoom": 7}`), 0o600), test.ShouldBeNil)
	deadline := time.After(5 * time.Second)
	for logs.FilterMessage("ignoring invalid config change").Len() == 0 {
		select {
		case <-deadline:
			t.Fatal("invalid config was not reported")
		case <-time.After(10 * time.Millisecond):
		}
	}

	test.That(t, os.WriteFile(path, []byte(`{"zoom": 0.75, "rotation": 90}`), 0o600), test.ShouldBeNil)
	select {
	case conf := <-w.Config():
		test.That(t, conf.Zoom, test.ShouldEqual, float32(0.75))
		test.That(t, conf.Rotation, test.ShouldEqual, 90)
	case <-time.After(5 * time.Second):
		t.Fatal("config change not delivered")
	}
}

func TestWatcherMissingDirectory(t *testing.T) {
	_, err := NewWatcher(context.Background(), filepath.Join(t.TempDir(), "nope", "viewer.json"), 0,
		logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}
