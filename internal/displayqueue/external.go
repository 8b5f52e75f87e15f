package displayqueue

import (
	"github.com/matjam/hwcomposer/internal/compositor"
	"github.com/matjam/hwcomposer/internal/fence"
	"github.com/matjam/hwcomposer/internal/overlay"
)

// PhysicalDisplay is the kernel driver adapter DisplayQueue commits plane
// configurations through (spec §6). Implemented by internal/kmsdrm.
type PhysicalDisplay interface {
	Commit(current, previous []*overlay.PlaneState, disableOverlays bool) (fence.Fence, error)
	Disable(previous []*overlay.PlaneState) error
	SetColorCorrection(gammaR, gammaG, gammaB float32, contrast, brightness uint32) error
	SetColorTransformMatrix(matrix [16]float32, hint int) error
	HandleLazyInitialization()
}

// PlaneManager is the DisplayPlaneManager contract (spec §4.2), narrowed to
// the methods QueueUpdate/GetCachedLayers call.
type PlaneManager interface {
	Initialize(width, height int32) error
	SetDisplayTransform(t overlay.Transform)
	ValidateLayers(layers []*overlay.OverlayLayer, startIndex int, forceGPU bool,
		current *[]*overlay.PlaneState, previous []*overlay.PlaneState,
		surfacesNotInUse *[]*overlay.NativeSurface) (renderNeeded, renderCursor, commitChecked bool)
	ReValidatePlanes(current []*overlay.PlaneState, layers []*overlay.OverlayLayer,
		surfacesNotInUse *[]*overlay.NativeSurface, needsPlaneValidation, reValidateCommit bool) (renderNeeded, forceFull bool)
	SetOffScreenPlaneTarget(ps *overlay.PlaneState, surfacesNotInUse *[]*overlay.NativeSurface)
	MarkSurfacesForRecycling(ps *overlay.PlaneState, outQueue *[]*overlay.NativeSurface, immediate bool)
	ReleaseAllOffScreenTargets(current []*overlay.PlaneState)
	CheckPlaneFormat(fourcc uint32) bool
}

// Vblank is the contract DisplayQueue drives its vsync handler through;
// internal/vblank.Handler is adapted to it in internal/cli/cmd/start.go.
// Cyclic ownership (spec §9): DisplayQueue owns the handler and holds this
// interface; the handler holds a non-owning back-reference to DisplayQueue
// as a vblank.IdleNotifier, so there is no reference cycle in the
// ownership graph.
type Vblank interface {
	SetPowerMode(mode PowerMode)
	Enabled() bool
}

// gpuCompositor aliases compositor.Compositor under the name QueueUpdate's
// algorithm description uses.
type gpuCompositor = compositor.Compositor
