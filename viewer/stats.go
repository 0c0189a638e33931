package viewer

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/montanaflynn/stats"
	"go.uber.org/atomic"

	"go.viam.com/tofviewer/logging"
	"go.viam.com/tofviewer/utils"
)

// pointsWindow is how many published frames the average point count covers.
const pointsWindow = 30

// Stats counts frames as they move from the source to the screen. It is safe for concurrent use.
type Stats struct {
	received   atomic.Uint64
	published  atomic.Uint64
	dropped    atomic.Uint64
	drawn      atomic.Uint64
	drawErrors atomic.Uint64
	points     *utils.RollingAverage

	latencyMu sync.Mutex
	latencies []float64
	latencyAt int
}

// NewStats returns zeroed counters.
func NewStats() *Stats {
	return &Stats{
		points:    utils.NewRollingAverage(pointsWindow),
		latencies: make([]float64, 0, pointsWindow),
	}
}

// recordLatency keeps the producer time of the last pointsWindow published frames.
func (s *Stats) recordLatency(d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)
	s.latencyMu.Lock()
	defer s.latencyMu.Unlock()
	if len(s.latencies) < cap(s.latencies) {
		s.latencies = append(s.latencies, ms)
		return
	}
	s.latencies[s.latencyAt] = ms
	s.latencyAt = (s.latencyAt + 1) % len(s.latencies)
}

// LatencyPercentile returns the given percentile, in milliseconds, of the time recent frames
// spent between arrival and publish. It fails before any frame has been published.
func (s *Stats) LatencyPercentile(percent float64) (float64, error) {
	s.latencyMu.Lock()
	window := append(stats.Float64Data(nil), s.latencies...)
	s.latencyMu.Unlock()
	return stats.Percentile(window, percent)
}

// AveragePoints is the mean point count of recently published frames.
func (s *Stats) AveragePoints() int {
	return s.points.Average()
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Received   uint64
	Published  uint64
	Dropped    uint64
	Drawn      uint64
	DrawErrors uint64
}

// Snapshot returns the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Received:   s.received.Load(),
		Published:  s.published.Load(),
		Dropped:    s.dropped.Load(),
		Drawn:      s.drawn.Load(),
		DrawErrors: s.drawErrors.Load(),
	}
}

// Sub returns the counter increments since prev.
func (s StatsSnapshot) Sub(prev StatsSnapshot) StatsSnapshot {
	return StatsSnapshot{
		Received:   s.Received - prev.Received,
		Published:  s.Published - prev.Published,
		Dropped:    s.Dropped - prev.Dropped,
		Drawn:      s.Drawn - prev.Drawn,
		DrawErrors: s.DrawErrors - prev.DrawErrors,
	}
}

func (s StatsSnapshot) keysAndValues() []interface{} {
	return []interface{}{
		"received", s.Received,
		"published", s.Published,
		"dropped", s.Dropped,
		"drawn", s.Drawn,
		"draw_errors", s.DrawErrors,
	}
}

// reportStats returns a worker logging the counter increments every interval.
func reportStats(s *Stats, clk clock.Clock, interval time.Duration, logger logging.Logger) func(context.Context) {
	var prev StatsSnapshot
	return utils.TickerWorker(clk, interval, func(context.Context) {
		cur := s.Snapshot()
		delta := cur.Sub(prev)
		if delta.Received == 0 {
			logger.Warnw("no depth frames received", "interval", interval, "total_received", cur.Received)
		}
		kvs := append(delta.keysAndValues(), "avg_points", s.AveragePoints(), "interval", interval)
		if p50, err := s.LatencyPercentile(50); err == nil {
			p95, _ := s.LatencyPercentile(95)
			kvs = append(kvs, "latency_p50_ms", p50, "latency_p95_ms", p95)
		}
		logger.Debugw("frame stats", kvs...)
		prev = cur
	})
}
