// Package planemanager implements DisplayPlaneManager's contract (spec
// §4.2): choosing plane/layer assignments, allocating and recycling
// offscreen surfaces, and re-validating an existing plan against changed
// layer content. The selection algorithm for which planes can host which
// layers on a given hardware generation is out of scope (spec §1); this
// package implements a capability-driven policy simple enough to exercise
// every contract method without a hardware capability database.
package planemanager

import (
	"github.com/matjam/hwcomposer/internal/overlay"
)

// Manager is the Go DisplayPlaneManager.
type Manager struct {
	width, height int32
	transform     overlay.Transform
	hwPlanes      []overlay.PlaneHandle
	cursorPlane   overlay.PlaneHandle
}

// New returns a Manager that will draw from the given ordered hardware
// planes (primary first) plus an optional dedicated cursor plane.
func New(hwPlanes []overlay.PlaneHandle, cursorPlane overlay.PlaneHandle) *Manager {
	return &Manager{hwPlanes: hwPlanes, cursorPlane: cursorPlane}
}

// Initialize records the display's pixel dimensions.
func (m *Manager) Initialize(width, height int32) error {
	m.width, m.height = width, height
	return nil
}

// SetDisplayTransform ORs a transform bit into the manager's recorded
// display transform. ValidateLayers and ReValidatePlanes do not read it.
func (m *Manager) SetDisplayTransform(t overlay.Transform) {
	m.transform |= t
}

// CheckPlaneFormat reports whether any hardware plane can scan out fourcc.
func (m *Manager) CheckPlaneFormat(fourcc uint32) bool {
	for _, p := range m.hwPlanes {
		if p.SupportsFormat(fourcc) {
			return true
		}
	}
	return false
}

// HasSurfaces reports whether any plane state in current holds an offscreen
// surface.
func HasSurfaces(current []*overlay.PlaneState) bool {
	for _, ps := range current {
		if len(ps.Surfaces) > 0 {
			return true
		}
	}
	return false
}

// ValidateLayers appends plane assignments for layers[startIndex:], choosing
// scanout vs. offscreen composition per hardware capability and forceGPU.
// It returns whether a GPU render pass is needed this frame.
func (m *Manager) ValidateLayers(
	layers []*overlay.OverlayLayer,
	startIndex int,
	forceGPU bool,
	current *[]*overlay.PlaneState,
	previous []*overlay.PlaneState,
	surfacesNotInUse *[]*overlay.NativeSurface,
) (renderNeeded bool, renderCursor bool, commitChecked bool) {
	for i := startIndex; i < len(layers); i++ {
		layer := layers[i]
		if !layer.Visible {
			continue
		}

		if layer.Cursor && m.cursorPlane != nil {
			ps := &overlay.PlaneState{
				Plane:         m.cursorPlane,
				SourceLayers:  []int{i},
				IsCursorPlane: true,
				Scanout:       true,
			}
			*current = append(*current, ps)
			renderCursor = true
			continue
		}

		hwIdx := len(*current)
		if hwIdx >= len(m.hwPlanes) || forceGPU || !m.canScanOut(layer) {
			ps := m.assignOffscreen(layer, i, surfacesNotInUse)
			*current = append(*current, ps)
			renderNeeded = true
			continue
		}

		plane := m.hwPlanes[hwIdx]
		ps := &overlay.PlaneState{
			Plane:        plane,
			SourceLayers: []int{i},
			Scanout:      true,
			IsVideoPlane: layer.Video,
			DamageRect:   layer.SurfaceDamage,
		}
		*current = append(*current, ps)
	}

	// A freshly built plan is commit-valid by construction; commitChecked
	// tells QueueUpdate it need not re-run ReValidatePlanes immediately
	// after a pure-addition ValidateLayers call.
	commitChecked = true
	return renderNeeded, renderCursor, commitChecked
}

func (m *Manager) canScanOut(layer *overlay.OverlayLayer) bool {
	if layer.Buffer == nil {
		return false
	}
	return m.CheckPlaneFormat(layer.Buffer.Format) && layer.CanScanOut
}

func (m *Manager) assignOffscreen(layer *overlay.OverlayLayer, index int, surfacesNotInUse *[]*overlay.NativeSurface) *overlay.PlaneState {
	ps := &overlay.PlaneState{
		SourceLayers:              []int{index},
		NeedsOffscreenComposition: true,
		IsVideoPlane:              layer.Video,
		DamageRect:                layer.SurfaceDamage,
	}
	m.SetOffScreenPlaneTarget(ps, surfacesNotInUse)
	return ps
}

// SetOffScreenPlaneTarget allocates or reuses an offscreen surface for
// plane, preferring a recycled surface of matching dimensions from
// surfacesNotInUse over a fresh allocation.
func (m *Manager) SetOffScreenPlaneTarget(ps *overlay.PlaneState, surfacesNotInUse *[]*overlay.NativeSurface) {
	width, height := m.width, m.height

	for i, s := range *surfacesNotInUse {
		if s.Width == width && s.Height == height {
			*surfacesNotInUse = append((*surfacesNotInUse)[:i], (*surfacesNotInUse)[i+1:]...)
			s.InUse = true
			ps.Surfaces = []*overlay.NativeSurface{s}
			return
		}
	}

	ps.Surfaces = []*overlay.NativeSurface{overlay.NewNativeSurface(width, height)}
	ps.Surfaces[0].InUse = true
}

// ReValidatePlanes adjusts an existing plan for changed layer contents,
// returning whether a GPU render is needed and whether full validation is
// now required instead (forceFull is an out-parameter by convention,
// matching the original's reference-parameter shape).
func (m *Manager) ReValidatePlanes(
	current []*overlay.PlaneState,
	layers []*overlay.OverlayLayer,
	surfacesNotInUse *[]*overlay.NativeSurface,
	needsPlaneValidation bool,
	reValidateCommit bool,
) (renderNeeded bool, forceFull bool) {
	for _, ps := range current {
		if !ps.NeedsOffscreenComposition {
			continue
		}
		for _, idx := range ps.SourceLayers {
			if idx < 0 || idx >= len(layers) {
				forceFull = true
				return false, forceFull
			}
			layer := layers[idx]
			if layer.Delta.DimensionsChanged || layer.NeedsFullDraw {
				if len(ps.Surfaces) == 0 {
					m.SetOffScreenPlaneTarget(ps, surfacesNotInUse)
				}
				renderNeeded = true
			}
			if layer.Cursor != ps.IsCursorPlane && needsPlaneValidation {
				forceFull = true
			}
		}
	}
	return renderNeeded, forceFull
}

// MarkSurfacesForRecycling transfers plane's surfaces into outQueue. If
// immediate, the surfaces are marked age -1 (AgeReleasing) right away
// instead of waiting for the normal ageing pass to retire them.
func (m *Manager) MarkSurfacesForRecycling(ps *overlay.PlaneState, outQueue *[]*overlay.NativeSurface, immediate bool) {
	for _, s := range ps.Surfaces {
		s.InUse = false
		if immediate {
			s.Age = overlay.AgeReleasing
		}
		*outQueue = append(*outQueue, s)
	}
	ps.Surfaces = nil
}

// ReleaseFreeOffScreenTargets drops every surface in notInUse whose age has
// reached AgeReleasing, returning the surfaces still worth keeping.
func ReleaseFreeOffScreenTargets(notInUse []*overlay.NativeSurface) []*overlay.NativeSurface {
	kept := notInUse[:0]
	for _, s := range notInUse {
		if s.Age != overlay.AgeReleasing {
			kept = append(kept, s)
		}
	}
	return kept
}

// ReleaseAllOffScreenTargets unconditionally drops every plane's surfaces,
// used by the display queue when it releases surfaces after an idle frame.
func (m *Manager) ReleaseAllOffScreenTargets(current []*overlay.PlaneState) {
	for _, ps := range current {
		ps.Surfaces = nil
	}
}
