package utils

import "sync"

// RollingAverage is the mean of the last NumSamples values added. It is safe for concurrent use.
type RollingAverage struct {
	mu    sync.Mutex
	data  []int
	pos   int
	count int
}

// NewRollingAverage returns an average over the last numSamples values. numSamples must be positive.
func NewRollingAverage(numSamples int) *RollingAverage {
	return &RollingAverage{data: make([]int, numSamples)}
}

// NumSamples returns the window size.
func (ra *RollingAverage) NumSamples() int {
	return len(ra.data)
}

// Add records x, evicting the oldest value once the window is full.
func (ra *RollingAverage) Add(x int) {
	ra.mu.Lock()
	defer ra.mu.Unlock()
	ra.data[ra.pos] = x
	ra.pos++
	if ra.pos >= len(ra.data) {
		ra.pos = 0
	}
	if ra.count < len(ra.data) {
		ra.count++
	}
}

// Average returns the mean of the values in the window, or 0 before anything is added.
func (ra *RollingAverage) Average() int {
	ra.mu.Lock()
	defer ra.mu.Unlock()
	if ra.count == 0 {
		return 0
	}
	sum := 0
	for _, d := range ra.data[:ra.count] {
		sum += d
	}
	return sum / ra.count
}
