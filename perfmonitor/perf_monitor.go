// Package perfmonitor measures wall-clock elapsed time between a Start and
// Stop call. The increment client uses it to report how long a full exchange
// took; the figure is diagnostic only.
package perfmonitor

import "time"

// PerformanceMonitor captures a start and end instant and reports the
// elapsed time between them. The zero-value semantics are deliberate: Stop
// without a prior Start is a no-op, and ElapsedMilliseconds returns 0 until
// both instants have been captured. Not safe for concurrent use; each
// measurement belongs to one goroutine.
type PerformanceMonitor struct {
	startTime time.Time
	endTime   time.Time
}

// NewPerformanceMonitor returns a monitor with no measurement in progress.
//
// Returns:
//   - A new PerformanceMonitor
func NewPerformanceMonitor() *PerformanceMonitor {
	return &PerformanceMonitor{}
}

// Start records the current instant as the start of the measurement,
// overwriting any previous start.
func (pm *PerformanceMonitor) Start() {
	pm.startTime = time.Now()
}

// Stop records the current instant as the end of the measurement. Calling
// Stop without a prior Start is a no-op; repeated calls move the end point
// forward.
func (pm *PerformanceMonitor) Stop() {
	if pm.startTime.IsZero() {
		return
	}

	pm.endTime = time.Now()
}

// Reset discards both instants so the monitor can be reused.
func (pm *PerformanceMonitor) Reset() {
	pm.startTime = time.Time{}
	pm.endTime = time.Time{}
}

// ElapsedMilliseconds returns the measured duration in milliseconds, or 0
// if Start and Stop have not both been called.
//
// Returns:
//   - The elapsed time in milliseconds as a float64
func (pm *PerformanceMonitor) ElapsedMilliseconds() float64 {
	if pm.startTime.IsZero() || pm.endTime.IsZero() {
		return 0.0
	}

	return float64(pm.endTime.Sub(pm.startTime)) / float64(time.Millisecond)
}
