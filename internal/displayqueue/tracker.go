package displayqueue

import "sync"

// TrackerBits is the FrameStateTracker state word.
type TrackerBits uint32

const (
	IgnoreUpdates TrackerBits = 1 << iota
	TrackingFrames
	RevalidateLayers
	PrepareComposition
	PrepareIdleComposition
	RenderIdleDisplay
)

func (b TrackerBits) has(bit TrackerBits) bool { return b&bit != 0 }

// FrameStateTracker holds the idle/revalidation bookkeeping QueueUpdate and
// the vblank thread's HandleIdleCase both touch; every field here is
// protected by mu (the idle_tracker_.idle_lock_ of spec §5).
type FrameStateTracker struct {
	mu sync.Mutex

	bits TrackerBits

	idleFrames             int
	hasCursorLayer         bool
	totalPlanes            int
	revalidateFramesCounter int

	vsync   VsyncCallback
	refresh RefreshCallback
	vsyncOn bool
}

// VsyncCallback matches spec §6's vsync callback contract.
type VsyncCallback func(displayID int, timestampNS int64)

// RefreshCallback matches spec §6's refresh callback contract.
type RefreshCallback func(displayID int)

// scoped is the per-call guard: acquired at the top of QueueUpdate, it
// reports whether the call should be ignored outright, and its finish clears
// PrepareIdleComposition on every exit path, including early returns
// (spec §5's "scoped ownership of the frame-level tracker"). wasRenderIdle
// records RenderIdleDisplay at entry; nothing restores it on exit.
type scoped struct {
	t            *FrameStateTracker
	ignore       bool
	wasRenderIdle bool
}

// beginFrame acquires the scoped idle-state guard for one QueueUpdate call.
func (t *FrameStateTracker) beginFrame() *scoped {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := &scoped{t: t}
	if t.bits.has(IgnoreUpdates) || t.bits.has(PrepareIdleComposition) {
		s.ignore = true
	}
	s.wasRenderIdle = t.bits.has(RenderIdleDisplay)
	return s
}

// finish releases the guard acquired by beginFrame. PrepareIdleComposition
// only ever reserves the single QueueUpdate call it woke, whether or not
// that call actually ran the idle-composition path; without this the next
// call's beginFrame would see the bit still set and ignore forever.
func (s *scoped) finish() {
	s.t.clearPrepareIdleComposition()
}

// setIgnoreUpdates sets IgnoreUpdates and zeroes the frame counters, per the
// IgnoreUpdates() operation.
func (t *FrameStateTracker) setIgnoreUpdates() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bits |= IgnoreUpdates
	t.idleFrames = 0
	t.revalidateFramesCounter = 0
}

// forceRefresh clears IgnoreUpdates and sets RevalidateLayers. It returns
// nothing; the caller decides under the power-mode lock whether the refresh
// callback fires.
func (t *FrameStateTracker) forceRefresh() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bits &^= IgnoreUpdates
	t.bits |= RevalidateLayers
}

// resetForFullValidation clears the per-frame bits a full-validation pass
// consumes, unless this is an idle frame (the idle-composition path keeps
// its own flags alive across the call per spec §4.1.1 phase 3).
func (t *FrameStateTracker) resetForFullValidation(idleFrame bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idleFrame {
		return
	}
	t.bits &^= RevalidateLayers | PrepareComposition
}

// handleIdleCase implements the vblank-thread side channel: returns true
// only on the frame where the idle counter passes kIdleFrames, at which
// point the caller must fire the refresh callback under power_mode_lock_
// and set PrepareIdleComposition.
func (t *FrameStateTracker) handleIdleCase(inComposition bool, planeCount int, idleFrames int, cursorPresent bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if inComposition || planeCount <= 1 || t.bits.has(TrackingFrames) ||
		t.bits.has(RevalidateLayers) || cursorPresent {
		return false
	}

	if t.idleFrames > idleFrames {
		return false
	}
	t.idleFrames++
	if t.idleFrames <= idleFrames {
		return false
	}

	t.bits |= PrepareIdleComposition
	return true
}

// setRenderIdleDisplay sets or clears RenderIdleDisplay, used when cloned
// mode demotes an idle frame to idle-display rendering.
func (t *FrameStateTracker) setRenderIdleDisplay(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if on {
		t.bits |= RenderIdleDisplay
	} else {
		t.bits &^= RenderIdleDisplay
	}
}

// setHasCursor records whether the current frame contains a cursor layer.
func (t *FrameStateTracker) setHasCursor(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hasCursorLayer = v
}

func (t *FrameStateTracker) renderIdleMode() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bits.has(RenderIdleDisplay)
}

func (t *FrameStateTracker) revalidateLayers() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bits.has(RevalidateLayers)
}

func (t *FrameStateTracker) clearPrepareIdleComposition() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bits &^= PrepareIdleComposition
}

// registerVsyncCallback and registerRefreshCallback delegate under
// idle_lock_, matching spec §4.1's delegation list.
func (t *FrameStateTracker) registerVsyncCallback(cb VsyncCallback) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.vsync = cb
}

func (t *FrameStateTracker) registerRefreshCallback(cb RefreshCallback) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refresh = cb
}

func (t *FrameStateTracker) vsyncControl(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.vsyncOn = on
}
