// Package failuredetector implements a phi-accrual failure detector:
// instead of a binary up/down verdict from a fixed timeout, it tracks
// the empirical distribution of heartbeat inter-arrival times per
// endpoint and derives a continuous suspicion level (phi) from it.
package failuredetector

import (
	"math"
	"sync"
	"time"

	"github.com/ringkeeper/gossipcore/endpoint"
)

// phiFactor converts a normalized inter-arrival ratio into the log-scale
// phi used by the accrual detector: phi = (Δ / mean) / ln(10).
const phiFactor = 1 / math.Ln10

// DefaultWindowSize bounds the sliding window of inter-arrival samples
// kept per endpoint (§4.2, N ≈ 1000).
const DefaultWindowSize = 1000

// DefaultThreshold is the phi value above which an endpoint is
// convicted (§8 scenario 4, φ ≈ 8).
const DefaultThreshold = 8.0

// Listener is notified exactly once per threshold crossing.
type Listener interface {
	Convict(e endpoint.ID, phi float64)
}

// window holds the bounded history of inter-arrival intervals for one
// endpoint, plus the last time a heartbeat was reported.
type window struct {
	intervals  []float64 // milliseconds
	size       int
	lastArrive time.Time
}

func newWindow(size int) *window {
	return &window{size: size}
}

func (w *window) add(now time.Time) {
	if !w.lastArrive.IsZero() {
		interval := now.Sub(w.lastArrive).Seconds() * 1000
		if interval > 0 {
			w.intervals = append(w.intervals, interval)
			if len(w.intervals) > w.size {
				w.intervals = w.intervals[len(w.intervals)-w.size:]
			}
		}
	}
	w.lastArrive = now
}

func (w *window) mean() float64 {
	if len(w.intervals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range w.intervals {
		sum += v
	}
	return sum / float64(len(w.intervals))
}

// phi computes the suspicion level given the time elapsed (ms) since the
// last reported heartbeat.
func (w *window) phi(elapsedMillis float64) float64 {
	mean := w.mean()
	if mean <= 0 {
		return 0
	}
	return elapsedMillis / mean * phiFactor
}

// Detector is a phi-accrual failure detector covering every known
// remote endpoint. The local endpoint is never reported to it.
type Detector struct {
	mu         sync.Mutex
	windows    map[endpoint.ID]*window
	convicted  map[endpoint.ID]bool // true once phi has crossed threshold, until Remove/Report resets it
	listeners  []Listener
	windowSize int
	threshold  float64
	now        func() time.Time
}

// New builds a Detector with the given suspicion threshold and sample
// window size. Pass a nil now for time.Now; tests inject a fake clock.
func New(threshold float64, windowSize int, now func() time.Time) *Detector {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	if now == nil {
		now = time.Now
	}
	return &Detector{
		windows:    make(map[endpoint.ID]*window),
		convicted:  make(map[endpoint.ID]bool),
		windowSize: windowSize,
		threshold:  threshold,
		now:        now,
	}
}

// Subscribe registers l to receive Convict callbacks.
func (d *Detector) Subscribe(l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, l)
}

// Report records a heartbeat arrival for e at the current time, and
// clears any outstanding conviction (a fresh arrival means e is no
// longer suspected until interpretation says otherwise).
func (d *Detector) Report(e endpoint.ID) {
	now := d.now()
	d.mu.Lock()
	w, ok := d.windows[e]
	if !ok {
		w = newWindow(d.windowSize)
		d.windows[e] = w
	}
	w.add(now)
	delete(d.convicted, e)
	d.mu.Unlock()
}

// Interpret computes phi for e from the elapsed time since its last
// reported heartbeat and, if phi crosses the threshold for the first
// time since the last Report, invokes every listener's Convict exactly
// once. Listeners are invoked outside the detector's lock (§4.2).
func (d *Detector) Interpret(e endpoint.ID) float64 {
	now := d.now()

	d.mu.Lock()
	w, ok := d.windows[e]
	if !ok {
		d.mu.Unlock()
		return 0
	}
	elapsed := now.Sub(w.lastArrive).Seconds() * 1000
	phi := w.phi(elapsed)
	crossed := phi >= d.threshold && !d.convicted[e]
	if crossed {
		d.convicted[e] = true
	}
	listeners := d.listeners
	d.mu.Unlock()

	if crossed {
		for _, l := range listeners {
			l.Convict(e, phi)
		}
	}
	return phi
}

// Remove discards all history for e, e.g. once it has been evicted from
// the cluster.
func (d *Detector) Remove(e endpoint.ID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.windows, e)
	delete(d.convicted, e)
}

// ForceConviction emits a conviction for e regardless of its current
// phi, used on shutdown to mark the local node down immediately.
func (d *Detector) ForceConviction(e endpoint.ID) {
	d.mu.Lock()
	d.convicted[e] = true
	listeners := d.listeners
	d.mu.Unlock()

	for _, l := range listeners {
		l.Convict(e, math.Inf(1))
	}
}
