package displayqueue

import (
	"testing"

	"github.com/matjam/hwcomposer/internal/fence"
	"github.com/matjam/hwcomposer/internal/overlay"
	"github.com/matjam/hwcomposer/internal/resourcemanager"
)

const fourccXRGB = 0x34325258

// fakePlaneManager is a minimal, scanout-only PlaneManager: every visible
// layer gets its own scanout PlaneState, mirroring the one-plane-per-layer
// case a small hardware generation would hit in practice.
type fakePlaneManager struct {
	initialized bool
	transform   overlay.Transform
	validateCalls int
	revalidateCalls int
	forceGPU    []bool
}

func (p *fakePlaneManager) Initialize(width, height int32) error {
	p.initialized = true
	return nil
}

func (p *fakePlaneManager) SetDisplayTransform(t overlay.Transform) { p.transform = t }

func (p *fakePlaneManager) ValidateLayers(layers []*overlay.OverlayLayer, startIndex int, forceGPU bool,
	current *[]*overlay.PlaneState, previous []*overlay.PlaneState,
	surfacesNotInUse *[]*overlay.NativeSurface) (renderNeeded, renderCursor, commitChecked bool) {
	p.validateCalls++
	p.forceGPU = append(p.forceGPU, forceGPU)

	for i := startIndex; i < len(layers); i++ {
		l := layers[i]
		if !l.Visible {
			continue
		}
		ps := &overlay.PlaneState{SourceLayers: []int{i}, CanSquash: true}
		if forceGPU {
			ps.NeedsOffscreenComposition = true
			ps.Surfaces = []*overlay.NativeSurface{overlay.NewNativeSurface(100, 100)}
			renderNeeded = true
		}
		if l.Cursor {
			ps.IsCursorPlane = true
		}
		*current = append(*current, ps)
	}
	return renderNeeded, renderCursor, true
}

func (p *fakePlaneManager) ReValidatePlanes(current []*overlay.PlaneState, layers []*overlay.OverlayLayer,
	surfacesNotInUse *[]*overlay.NativeSurface, needsPlaneValidation, reValidateCommit bool) (renderNeeded, forceFull bool) {
	p.revalidateCalls++
	return false, false
}

func (p *fakePlaneManager) SetOffScreenPlaneTarget(ps *overlay.PlaneState, surfacesNotInUse *[]*overlay.NativeSurface) {
	ps.Surfaces = []*overlay.NativeSurface{overlay.NewNativeSurface(100, 100)}
}

func (p *fakePlaneManager) MarkSurfacesForRecycling(ps *overlay.PlaneState, outQueue *[]*overlay.NativeSurface, immediate bool) {
	for _, s := range ps.Surfaces {
		s.InUse = false
		if immediate {
			s.Age = overlay.AgeReleasing
		}
		*outQueue = append(*outQueue, s)
	}
	ps.Surfaces = nil
}

func (p *fakePlaneManager) ReleaseAllOffScreenTargets(current []*overlay.PlaneState) {
	for _, ps := range current {
		ps.Surfaces = nil
	}
}

func (p *fakePlaneManager) CheckPlaneFormat(fourcc uint32) bool { return fourcc == fourccXRGB }

// fakeDisplay is a PhysicalDisplay that always commits successfully unless
// failCommit is set.
type fakeDisplay struct {
	failCommit     bool
	commits        int
	disables       int
	colorCorrected int
	lazyInits      int
}

func (d *fakeDisplay) Commit(current, previous []*overlay.PlaneState, disableOverlays bool) (fence.Fence, error) {
	d.commits++
	if d.failCommit {
		return fence.New(fence.None), errCommitFailed
	}
	return fence.New(fence.None), nil
}

func (d *fakeDisplay) Disable(previous []*overlay.PlaneState) error {
	d.disables++
	return nil
}

func (d *fakeDisplay) SetColorCorrection(gammaR, gammaG, gammaB float32, contrast, brightness uint32) error {
	d.colorCorrected++
	return nil
}

func (d *fakeDisplay) SetColorTransformMatrix(matrix [16]float32, hint int) error { return nil }

func (d *fakeDisplay) HandleLazyInitialization() { d.lazyInits++ }

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

const errCommitFailed = fakeErr("commit failed")

// fakeGPU is a gpuCompositor that always succeeds.
type fakeGPU struct {
	beginFrames int
	draws       int
	failBegin   bool
	failDraw    bool
}

func (g *fakeGPU) Init(rm *resourcemanager.Manager, gpuFD int) error { return nil }
func (g *fakeGPU) BeginFrame(disableOverlays bool) bool {
	g.beginFrames++
	return !g.failBegin
}
func (g *fakeGPU) Draw(planes []*overlay.PlaneState, layers []*overlay.OverlayLayer, rects []overlay.Rect) bool {
	g.draws++
	return !g.failDraw
}
func (g *fakeGPU) UpdateLayerPixelData(layers []*overlay.OverlayLayer) {}
func (g *fakeGPU) EnsurePixelDataUpdated()                            {}
func (g *fakeGPU) Reset()                                             {}
func (g *fakeGPU) SetVideoColor(r, g2, b uint32)                      {}
func (g *fakeGPU) SetVideoDeinterlace(mode int)                       {}

// fakeVblank is a Vblank that just tracks power mode.
type fakeVblank struct {
	mode    PowerMode
	enabled bool
}

func (v *fakeVblank) SetPowerMode(mode PowerMode) {
	v.mode = mode
	v.enabled = mode == PowerOn || mode == PowerDozeSuspend
}
func (v *fakeVblank) Enabled() bool { return v.enabled }

func newTestQueue(t *testing.T) (*Queue, *fakePlaneManager, *fakeDisplay, *fakeGPU, *fakeVblank) {
	t.Helper()
	q := New(0)
	pm := &fakePlaneManager{}
	disp := &fakeDisplay{}
	gpu := &fakeGPU{}
	vb := &fakeVblank{}

	rm := resourcemanager.New()
	if err := q.Initialize(rm, 1920, 1080, pm, disp, gpu, vb); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	q.SetPowerMode(PowerOn)
	return q, pm, disp, gpu, vb
}

func layerAt(z int, w, h int32) *overlay.Layer {
	return &overlay.Layer{
		Z:            z,
		Buffer:       &overlay.Buffer{Width: w, Height: h, Format: fourccXRGB},
		DisplayFrame: overlay.Rect{Left: 0, Top: 0, Right: w, Bottom: h},
		SourceCrop:   overlay.RectF{Left: 0, Top: 0, Right: 1, Bottom: 1},
	}
}

// S1: steady state. Two consecutive QueueUpdate calls with identical,
// unchanged layers should both succeed and the second should be cheaper
// (no new plane validation needed once cached).
func TestQueueUpdateSteadyState(t *testing.T) {
	q, _, disp, _, _ := newTestQueue(t)

	layers := []*overlay.Layer{layerAt(0, 1920, 1080)}

	ok, f := q.QueueUpdate(layers, false, false)
	if !ok {
		t.Fatal("first QueueUpdate should succeed")
	}
	f.Close()

	if disp.commits != 1 {
		t.Errorf("expected 1 commit after first frame, got %d", disp.commits)
	}

	ok, f = q.QueueUpdate(layers, false, false)
	if !ok {
		t.Fatal("second QueueUpdate with unchanged layers should succeed")
	}
	f.Close()
}

// S2: a cursor layer appears mid-stream; it should route to its own plane
// state, and the frame that adds it must not fail.
func TestQueueUpdateCursorAppears(t *testing.T) {
	q, _, _, _, _ := newTestQueue(t)

	base := []*overlay.Layer{layerAt(0, 1920, 1080)}
	ok, f := q.QueueUpdate(base, false, false)
	if !ok {
		t.Fatal("base frame should succeed")
	}
	f.Close()

	cursor := layerAt(1, 32, 32)
	cursor.Cursor = true
	withCursor := []*overlay.Layer{base[0], cursor}

	ok, f = q.QueueUpdate(withCursor, false, false)
	if !ok {
		t.Fatal("frame adding a cursor layer should succeed")
	}
	f.Close()
}

// S4: a failing commit must be reported as a failure and leave the queue
// able to recover on the next call once the display starts succeeding
// again.
func TestQueueUpdateCommitFailureRecovers(t *testing.T) {
	q, _, disp, _, _ := newTestQueue(t)
	layers := []*overlay.Layer{layerAt(0, 1920, 1080)}

	disp.failCommit = true
	ok, f := q.QueueUpdate(layers, false, false)
	if ok {
		t.Fatal("QueueUpdate should report failure when Commit fails")
	}
	f.Close()

	disp.failCommit = false
	ok, f = q.QueueUpdate(layers, false, false)
	if !ok {
		t.Fatal("QueueUpdate should recover once Commit succeeds again")
	}
	f.Close()
}

// S5: idle aging. HandleIdleCase should eventually fire the refresh
// callback once the idle-frame threshold is exceeded.
func TestHandleIdleCaseFiresRefreshAfterThreshold(t *testing.T) {
	q, _, _, _, _ := newTestQueue(t)

	layers := []*overlay.Layer{layerAt(0, 1920, 1080), layerAt(1, 1920, 1080)}
	ok, f := q.QueueUpdate(layers, false, false)
	if !ok {
		t.Fatal("setup frame should succeed")
	}
	f.Close()

	fired := false
	q.RegisterRefreshCallback(func(displayID int) { fired = true })

	for i := 0; i < kIdleFrames+1; i++ {
		q.HandleIdleCase(false)
	}

	if !fired {
		t.Error("refresh callback should fire once idle frames exceed the threshold")
	}
}

// HandleIdleCase should never fire while a cursor layer is present (the
// queue treats cursor movement as activity).
func TestHandleIdleCaseSuppressedByCursor(t *testing.T) {
	q, _, _, _, _ := newTestQueue(t)

	base := layerAt(0, 1920, 1080)
	cursor := layerAt(1, 32, 32)
	cursor.Cursor = true
	layers := []*overlay.Layer{base, cursor}

	ok, f := q.QueueUpdate(layers, false, false)
	if !ok {
		t.Fatal("setup frame should succeed")
	}
	f.Close()

	fired := false
	q.RegisterRefreshCallback(func(displayID int) { fired = true })

	for i := 0; i < kIdleFrames+5; i++ {
		q.HandleIdleCase(false)
	}

	if fired {
		t.Error("refresh callback should not fire while a cursor layer is present")
	}
}

func TestSetPowerModeOffDisablesVblankAndDisplay(t *testing.T) {
	q, _, disp, _, vb := newTestQueue(t)
	layers := []*overlay.Layer{layerAt(0, 1920, 1080)}
	ok, f := q.QueueUpdate(layers, false, false)
	if !ok {
		t.Fatal("setup frame should succeed")
	}
	f.Close()

	q.SetPowerMode(PowerOff)

	if vb.enabled {
		t.Error("SetPowerMode(PowerOff) should disable vblank dispatch")
	}
	if disp.disables != 1 {
		t.Errorf("SetPowerMode(PowerOff) should disable the display once, got %d calls", disp.disables)
	}
}

func TestForceRefreshInvokesCallbackWhilePoweredOn(t *testing.T) {
	q, _, _, _, _ := newTestQueue(t)

	fired := false
	q.RegisterRefreshCallback(func(displayID int) { fired = true })
	q.ForceRefresh()

	if !fired {
		t.Error("ForceRefresh should invoke the refresh callback while powered on")
	}
}

func TestIgnoreUpdatesSuppressesQueueUpdate(t *testing.T) {
	q, _, disp, _, _ := newTestQueue(t)
	q.IgnoreUpdates()

	layers := []*overlay.Layer{layerAt(0, 1920, 1080)}
	ok, f := q.QueueUpdate(layers, false, false)
	if !ok {
		t.Fatal("an ignored QueueUpdate should still report success")
	}
	f.Close()

	if disp.commits != 0 {
		t.Errorf("an ignored QueueUpdate should not commit, got %d commits", disp.commits)
	}
}

func TestHandleExitIsIdempotent(t *testing.T) {
	q, _, disp, _, vb := newTestQueue(t)
	layers := []*overlay.Layer{layerAt(0, 1920, 1080)}
	ok, f := q.QueueUpdate(layers, false, false)
	if !ok {
		t.Fatal("setup frame should succeed")
	}
	f.Close()

	q.HandleExit()
	q.HandleExit()

	if vb.enabled {
		t.Error("HandleExit should leave vblank disabled")
	}
	if disp.disables != 1 {
		t.Errorf("a second HandleExit should not re-disable the display, got %d calls", disp.disables)
	}
}

func TestSetGammaContrastBrightnessMarkColorCorrectionDirty(t *testing.T) {
	q, _, disp, _, _ := newTestQueue(t)

	q.SetGamma(1.1, 1.0, 0.9)
	q.SetContrast(10, 20, 30)
	q.SetBrightness(1, 2, 3)

	layers := []*overlay.Layer{layerAt(0, 1920, 1080)}
	ok, f := q.QueueUpdate(layers, false, false)
	if !ok {
		t.Fatal("QueueUpdate should succeed")
	}
	f.Close()

	if disp.colorCorrected == 0 {
		t.Error("a pending color correction should be pushed to the display on the next commit")
	}
}

func TestRotateDisplayPropagatesToPlaneManager(t *testing.T) {
	q, pm, _, _, _ := newTestQueue(t)
	q.RotateDisplay(overlay.TransformRotate90)

	if pm.transform&overlay.TransformRotate90 == 0 {
		t.Error("RotateDisplay should propagate the transform bit to the plane manager")
	}
}
