package pointcloud

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrFrameBuffersClosed is returned by Publish once the buffers have been closed.
var ErrFrameBuffersClosed = errors.New("frame buffers closed")

// FrameBuffers is a double-buffered cloud shared by one producer and one consumer. The producer
// fills the producer slot outside any lock and publishes it with an O(1) swap; the consumer reads
// the published slot under the same lock. Both slots are allocated once for the worst case.
type FrameBuffers struct {
	// producer is only touched by the producing goroutine, and by Publish under mu.
	producer *Cloud

	mu        sync.Mutex
	consumer  *Cloud
	published bool
	closed    bool
}

// NewFrameBuffers allocates both slots for width*height points.
func NewFrameBuffers(width, height int) *FrameBuffers {
	return &FrameBuffers{
		producer: NewCloud(width * height),
		consumer: NewCloud(width * height),
	}
}

// BeginProduce returns the producer slot. Only the producing goroutine may call it, and the slot
// must not be retained across Publish.
func (fb *FrameBuffers) BeginProduce() *Cloud {
	return fb.producer
}

// Publish commits n points in the producer slot and swaps it with the consumer slot. Frames that
// are never drawn are simply overwritten by the next Publish.
func (fb *FrameBuffers) Publish(n int) error {
	if n < 0 || n > fb.producer.Capacity() {
		return errors.Errorf("point count %d outside [0, %d]", n, fb.producer.Capacity())
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.closed {
		return ErrFrameBuffersClosed
	}
	fb.producer.N = n
	fb.producer, fb.consumer = fb.consumer, fb.producer
	fb.published = true
	return nil
}

// WithConsumer calls fn with the most recently published cloud while holding the lock, so fn must
// only bind and draw. If nothing has been published yet, fn receives nil.
func (fb *FrameBuffers) WithConsumer(fn func(cloud *Cloud) error) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if !fb.published {
		return fn(nil)
	}
	return fn(fb.consumer)
}

// Close rejects every later Publish. The last published cloud stays readable.
func (fb *FrameBuffers) Close() {
	fb.mu.Lock()
	fb.closed = true
	fb.mu.Unlock()
}

// Closed reports whether Close has been called.
func (fb *FrameBuffers) Closed() bool {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.closed
}
