// Package vblank implements VblankEventHandler: a per-display goroutine
// that dispatches vsync callbacks at the display's refresh rate and gates
// them on power mode, modeled on the adaptive select/sleep loop in the
// teacher's internal/wallpaper.Manager.Run and the per-output channel
// pattern in internal/wlrenderer.
package vblank

import (
	"sync"
	"time"
)

// Callback fires once per simulated vsync with a monotonic timestamp in
// nanoseconds.
type Callback func(displayID int, timestampNS int64)

// IdleNotifier is the DisplayQueue method the handler drives each tick,
// narrowed to HandleIdleCase so this package doesn't import displayqueue.
type IdleNotifier interface {
	HandleIdleCase(inComposition bool)
}

// PowerMode mirrors displayqueue.PowerMode's ordinal values without
// importing that package, to keep the ownership direction
// DisplayQueue -> Vblank and never the reverse (spec §9 cyclic-ownership
// note: the handler's only reference back to the queue is the non-owning
// IdleNotifier it is given).
type PowerMode int

const (
	PowerOff PowerMode = iota
	PowerDoze
	PowerDozeSuspend
	PowerOn
)

// Handler drives vsync dispatch for one display.
type Handler struct {
	displayID int
	interval  time.Duration

	mu      sync.Mutex
	mode    PowerMode
	cb      Callback
	idle    IdleNotifier
	running bool

	stop chan struct{}
	done chan struct{}
}

// New returns a Handler ticking at the given refresh interval (e.g.
// 16.666ms for 60Hz), initially powered off.
func New(displayID int, interval time.Duration, idle IdleNotifier) *Handler {
	return &Handler{displayID: displayID, interval: interval, idle: idle}
}

// RegisterCallback sets the vsync callback invoked each tick while powered
// on.
func (h *Handler) RegisterCallback(cb Callback) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cb = cb
}

// SetPowerMode arms or disarms the dispatch loop. On is the only mode that
// runs the loop; Off/Doze/DozeSuspend all stop it.
func (h *Handler) SetPowerMode(mode PowerMode) {
	h.mu.Lock()
	h.mode = mode
	wasRunning := h.running
	h.mu.Unlock()

	if mode == PowerOn {
		h.start()
		return
	}
	if wasRunning {
		h.stopLoop()
	}
}

// Enabled reports whether the dispatch loop is currently running.
func (h *Handler) Enabled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running
}

func (h *Handler) start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.stop = make(chan struct{})
	h.done = make(chan struct{})
	h.mu.Unlock()

	go h.loop()
}

func (h *Handler) stopLoop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	stop := h.stop
	done := h.done
	h.running = false
	h.mu.Unlock()

	close(stop)
	<-done
}

// loop ticks at the configured interval, correcting drift by measuring
// elapsed wall time rather than assuming the timer fires exactly on
// schedule — the same adaptive-timing idiom as the teacher's
// wallpaper.Manager.Run select loop.
func (h *Handler) loop() {
	defer close(h.done)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	start := time.Now()
	var tick int64

	for {
		select {
		case <-h.stop:
			return
		case now := <-ticker.C:
			tick++
			ts := now.Sub(start).Nanoseconds()

			h.mu.Lock()
			cb := h.cb
			h.mu.Unlock()
			if cb != nil {
				cb(h.displayID, ts)
			}
			if h.idle != nil {
				h.idle.HandleIdleCase(false)
			}
		}
	}
}
