package displayqueue

import (
	"fmt"
	"sync"
	"time"

	"github.com/matjam/hwcomposer/internal/fence"
	"github.com/matjam/hwcomposer/internal/overlay"
	"github.com/matjam/hwcomposer/internal/resourcemanager"
)

// kIdleFrames is the number of consecutive idle frames before the refresh
// callback fires (spec §6 constants).
const kIdleFrames = 30

// DoubleBufferingMode selects which of the two compile-time fence-wait
// strategies the original offers; here it's a Queue field instead of a
// build tag. New leaves it at SingleBuffered and nothing outside this
// package can change it.
type DoubleBufferingMode bool

const (
	SingleBuffered DoubleBufferingMode = false
	DoubleBuffered DoubleBufferingMode = true
)

// Queue is the DisplayQueue state machine.
type Queue struct {
	displayID int

	powerMu sync.Mutex
	state   StateBits

	tracker  FrameStateTracker
	scaling  ScalingTracker
	color    colorCorrection
	video    *videoState

	rm       *resourcemanager.Manager
	planes   PlaneManager
	display  PhysicalDisplay
	gpu      gpuCompositor
	vblank   Vblank

	doubleBuffering DoubleBufferingMode

	width, height int32
	transform     overlay.Transform

	inFlightLayers     []*overlay.OverlayLayer
	previousPlaneState []*overlay.PlaneState

	currentCompositionPlanes []*overlay.PlaneState
	surfacesNotInUse         []*overlay.NativeSurface
	markNotInUse             []*overlay.NativeSurface

	kmsFence fence.Fence

	lastCommitFailedUpdate bool

	// pendingInit is not used: the lazy display init at the end of a
	// successful commit (spec §4.1.1 phase 6.8) is the display's own
	// HandleLazyInitialization, which commit calls.
	pendingInit func()
}

// New constructs an un-initialized Queue for displayID.
func New(displayID int) *Queue {
	return &Queue{
		displayID: displayID,
		color:     newColorCorrection(),
		video:     newVideoState(),
		kmsFence:  fence.New(fence.None),
	}
}

// Initialize builds the plane manager, resets the queue, and arms vblank in
// the Off state. Fails if the resource manager or plane manager is missing.
func (q *Queue) Initialize(rm *resourcemanager.Manager, width, height int32, planes PlaneManager, display PhysicalDisplay, gpu gpuCompositor, vblank Vblank) error {
	if err := resourcemanager.Validate(rm); err != nil {
		return fmt.Errorf("displayqueue: %w", err)
	}
	if planes == nil {
		return fmt.Errorf("displayqueue: nil plane manager")
	}
	if err := planes.Initialize(width, height); err != nil {
		return fmt.Errorf("displayqueue: plane manager init: %w", err)
	}

	q.rm = rm
	q.planes = planes
	q.display = display
	q.gpu = gpu
	q.vblank = vblank
	q.width, q.height = width, height

	q.ResetQueue()
	if q.vblank != nil {
		q.vblank.SetPowerMode(PowerOff)
	}
	return nil
}

// ResetQueue clears all per-frame state and purges the resource manager's
// buffers, used by Initialize and HandleExit.
func (q *Queue) ResetQueue() {
	if q.rm != nil {
		q.rm.Purge()
	}
	q.inFlightLayers = nil
	q.previousPlaneState = nil
	q.currentCompositionPlanes = nil
	q.surfacesNotInUse = nil
	q.markNotInUse = nil
	q.lastCommitFailedUpdate = false
}

// SetPowerMode transitions the display power state.
func (q *Queue) SetPowerMode(mode PowerMode) {
	switch mode {
	case PowerOff, PowerDoze:
		q.HandleExit()
	case PowerDozeSuspend:
		q.powerMu.Lock()
		q.state |= PoweredOn
		q.powerMu.Unlock()
		if q.vblank != nil {
			q.vblank.SetPowerMode(mode)
		}
	case PowerOn:
		q.powerMu.Lock()
		q.state |= PoweredOn | ConfigurationChanged | NeedsColorCorrection
		q.state &^= IgnoreIdleRefresh
		if q.gpu != nil {
			q.gpu.Init(q.rm, -1)
		}
		q.powerMu.Unlock()
		if q.vblank != nil {
			q.vblank.SetPowerMode(mode)
		}
	default:
		// Bad power mode: silently ignored (spec §7).
	}
}

// RotateDisplay ORs a transform bit into the plane transform and propagates
// it to the plane manager.
func (q *Queue) RotateDisplay(t overlay.Transform) {
	q.transform |= t
	if q.planes != nil {
		q.planes.SetDisplayTransform(q.transform)
	}
}

// SetCloneMode enters or leaves cloned-display mode.
func (q *Queue) SetCloneMode(on bool) {
	q.powerMu.Lock()
	defer q.powerMu.Unlock()
	if on {
		q.state |= ClonedMode
		if q.vblank != nil {
			q.vblank.SetPowerMode(PowerOff)
		}
		return
	}
	q.state &^= ClonedMode
	q.state |= ConfigurationChanged
	if q.vblank != nil {
		q.vblank.SetPowerMode(PowerOn)
	}
}

// IgnoreUpdates suppresses QueueUpdate until the next ForceRefresh.
func (q *Queue) IgnoreUpdates() {
	q.tracker.setIgnoreUpdates()
}

// ForceRefresh clears IgnoreUpdates, marks RevalidateLayers, and invokes the
// refresh callback under the power-mode lock if powered on and not
// ignoring idle refresh.
func (q *Queue) ForceRefresh() {
	q.tracker.forceRefresh()

	q.powerMu.Lock()
	defer q.powerMu.Unlock()
	if !q.state.has(PoweredOn) || q.state.has(IgnoreIdleRefresh) {
		return
	}
	q.tracker.mu.Lock()
	cb := q.tracker.refresh
	q.tracker.mu.Unlock()
	if cb != nil {
		cb(q.displayID)
	}
}

// HandleIdleCase is invoked by the vblank thread every refresh cycle.
func (q *Queue) HandleIdleCase(inComposition bool) {
	planeCount := len(q.previousPlaneState)
	cursorPresent := q.tracker.hasCursorLayer

	if !q.tracker.handleIdleCase(inComposition, planeCount, kIdleFrames, cursorPresent) {
		return
	}

	q.powerMu.Lock()
	cb := q.tracker.refresh
	q.powerMu.Unlock()
	if cb != nil {
		cb(q.displayID)
	}
}

// DisplayConfigurationChanged marks the display configuration dirty, forcing
// full validation next frame.
func (q *Queue) DisplayConfigurationChanged() {
	q.powerMu.Lock()
	defer q.powerMu.Unlock()
	q.state |= ConfigurationChanged
}

// UpdateScalingRatio records a fractional scaling delta if the areas
// differ, and marks the configuration changed.
func (q *Queue) UpdateScalingRatio(pw, ph, dw, dh int32) {
	if !q.scaling.update(pw, ph, dw, dh) {
		return
	}
	q.powerMu.Lock()
	defer q.powerMu.Unlock()
	q.state |= ConfigurationChanged
}

// RegisterVsyncCallback, RegisterRefreshCallback and VSyncControl delegate
// under idle_lock_ (spec §4.1).
func (q *Queue) RegisterVsyncCallback(cb VsyncCallback) { q.tracker.registerVsyncCallback(cb) }
func (q *Queue) RegisterRefreshCallback(cb RefreshCallback) {
	q.tracker.registerRefreshCallback(cb)
}
func (q *Queue) VSyncControl(on bool) { q.tracker.vsyncControl(on) }

// SetGamma, SetContrast, SetBrightness, SetColorTransform mask channel
// inputs to 8 bits where applicable and set NeedsColorCorrection.
func (q *Queue) SetGamma(r, g, b float32) {
	q.color.setGamma(r, g, b)
	q.markColorCorrectionDirty()
}

func (q *Queue) SetContrast(r, g, b uint32) {
	q.color.setContrast(r, g, b)
	q.markColorCorrectionDirty()
}

func (q *Queue) SetBrightness(r, g, b uint32) {
	q.color.setBrightness(r, g, b)
	q.markColorCorrectionDirty()
}

func (q *Queue) SetColorTransform(matrix [16]float32, hint ColorTransformHint) {
	q.color.setColorTransform(matrix, hint)
	q.markColorCorrectionDirty()
}

func (q *Queue) markColorCorrectionDirty() {
	q.powerMu.Lock()
	defer q.powerMu.Unlock()
	q.state |= NeedsColorCorrection
}

// Video controls, taken under video_lock_ (spec §4.1); setters set
// requested_video_effect, restorers clear it.
func (q *Queue) SetVideoColor(c ColorControl, value uint32)  { q.video.setVideoColor(c, value) }
func (q *Queue) GetVideoColor(c ColorControl) uint32         { return q.video.getVideoColor(c) }
func (q *Queue) RestoreVideoDefaultColor(c ColorControl)     { q.video.restoreVideoDefaultColor(c) }
func (q *Queue) SetVideoDeinterlace(f DeinterlaceFlag, c DeinterlaceControl) {
	q.video.setVideoDeinterlace(f, c)
}
func (q *Queue) RestoreVideoDefaultDeinterlace() { q.video.restoreVideoDefaultDeinterlace() }
func (q *Queue) SetVideoScalingMode(mode int)    { q.video.setVideoScalingMode(mode) }

// HandleExit is idempotent: sets IgnoreIdleRefresh, disables vblank, closes
// any pending kms fence, disables outstanding planes on the physical
// display, resets the state word preserving only
// DisableOverlayUsage|ClonedMode|ConfigurationChanged, and resets the queue.
func (q *Queue) HandleExit() {
	q.powerMu.Lock()
	q.state |= IgnoreIdleRefresh
	preserved := q.state & (DisableOverlayUsage | ClonedMode | ConfigurationChanged)
	q.powerMu.Unlock()

	if q.vblank != nil {
		q.vblank.SetPowerMode(PowerOff)
	}

	if q.kmsFence.Valid() {
		q.kmsFence.Close()
	}

	if q.display != nil && len(q.previousPlaneState) > 0 {
		q.display.Disable(q.previousPlaneState)
	}

	q.powerMu.Lock()
	q.state = preserved
	q.powerMu.Unlock()

	q.ResetQueue()
}

// retireFenceTimeout bounds how long QueueUpdate will wait on a kms fence;
// the fence is closed and the frame goes on whether or not the wait
// succeeded. Chosen generously since a correctly
// functioning GPU/display pair signals within a frame interval.
const retireFenceTimeout = 500 * time.Millisecond
