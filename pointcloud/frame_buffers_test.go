package pointcloud

import (
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestFrameBuffersEmpty(t *testing.T) {
	fb := NewFrameBuffers(2, 2)
	called := false
	err := fb.WithConsumer(func(cloud *Cloud) error {
		called = true
		test.That(t, cloud, test.ShouldBeNil)
		return nil
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, called, test.ShouldBeTrue)
}

func TestFrameBuffersPublishSwaps(t *testing.T) {
	fb := NewFrameBuffers(2, 2)

	slot := fb.BeginProduce()
	slot.Vertices[2] = 7
	test.That(t, fb.Publish(1), test.ShouldBeNil)

	next := fb.BeginProduce()
	test.That(t, next, test.ShouldNotEqual, slot)

	test.That(t, fb.WithConsumer(func(cloud *Cloud) error {
		test.That(t, cloud, test.ShouldEqual, slot)
		test.That(t, cloud.N, test.ShouldEqual, 1)
		test.That(t, cloud.Vertices[2], test.ShouldEqual, float32(7))
		return nil
	}), test.ShouldBeNil)

	// the consumer's error is passed through
	sentinel := errors.New("draw failed")
	test.That(t, fb.WithConsumer(func(*Cloud) error { return sentinel }), test.ShouldEqual, sentinel)
}

func TestFrameBuffersPublishBounds(t *testing.T) {
	fb := NewFrameBuffers(2, 2)
	test.That(t, fb.Publish(-1), test.ShouldNotBeNil)
	test.That(t, fb.Publish(5), test.ShouldNotBeNil)
	test.That(t, fb.Publish(4), test.ShouldBeNil)
	test.That(t, fb.Publish(0), test.ShouldBeNil)
}

func TestFrameBuffersClose(t *testing.T) {
	fb := NewFrameBuffers(2, 2)
	test.That(t, fb.Publish(3), test.ShouldBeNil)
	fb.Close()
	test.That(t, fb.Closed(), test.ShouldBeTrue)

	err := fb.Publish(1)
	test.That(t, errors.Is(err, ErrFrameBuffersClosed), test.ShouldBeTrue)

	// last published frame is still drawable
	test.That(t, fb.WithConsumer(func(cloud *Cloud) error {
		test.That(t, cloud.N, test.ShouldEqual, 3)
		return nil
	}), test.ShouldBeNil)
}

// Each published frame stamps every point with its frame id; the consumer must never see a mix.
func TestFrameBuffersNoTornFrames(t *testing.T) {
	const w, h, frames = 16, 16, 500
	fb := NewFrameBuffers(w, h)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for id := 1; id <= frames; id++ {
			slot := fb.BeginProduce()
			n := id % (w*h + 1)
			for i := 0; i < n*FloatsPerPoint; i++ {
				slot.Vertices[i] = float32(id)
			}
			if err := fb.Publish(n); err != nil {
				t.Error(err)
				return
			}
		}
	}()

	lastSeen := 0
	check := func(cloud *Cloud) error {
		if cloud == nil || cloud.N == 0 {
			return nil
		}
		if cloud.N > w*h {
			return errors.Errorf("point count %d over capacity", cloud.N)
		}
		id := int(cloud.Vertices[0])
		if id < lastSeen {
			return errors.Errorf("frame %d seen after %d", id, lastSeen)
		}
		for i := 0; i < cloud.N*FloatsPerPoint; i++ {
			if int(cloud.Vertices[i]) != id {
				return errors.Errorf("torn frame %d at %d", id, i)
			}
		}
		lastSeen = id
		return nil
	}

	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		test.That(t, fb.WithConsumer(check), test.ShouldBeNil)
	}
	test.That(t, lastSeen, test.ShouldEqual, frames)
}
