// Package metrics records simulation activity for Prometheus.
package metrics

import "time"

// Recorder receives simulation events. Implementations must be safe for
// concurrent use; every virtual user shares one.
type Recorder interface {
	// PageOpened fires on every page load, entry re-opens after a dead end
	// included.
	PageOpened(dwell time.Duration)
	LinkRejected(reason string)
	DeadEnd()
	SessionReset()
	UserStarted()
	UserFinished(outcome string)
}

// Nop discards every event.
type Nop struct{}

var _ Recorder = Nop{}

func (Nop) PageOpened(time.Duration) {}
func (Nop) LinkRejected(string)      {}
func (Nop) DeadEnd()                 {}
func (Nop) SessionReset()            {}
func (Nop) UserStarted()             {}
func (Nop) UserFinished(string)      {}

// OrNop returns r, or Nop when r is nil.
func OrNop(r Recorder) Recorder {
	if r == nil {
		return Nop{}
	}
	return r
}
