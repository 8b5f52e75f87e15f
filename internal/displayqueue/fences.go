package displayqueue

import (
	"github.com/matjam/hwcomposer/internal/fence"
	"github.com/matjam/hwcomposer/internal/overlay"
)

// updateOnScreenSurfaces ages every surface of every plane in
// previousPlaneState, the plan commit has just made current (spec §4.1.3).
// For a triple-buffered plane the
// ages are rotated to {2,0,1} so the freshly drawn surface is oldest and
// the next-to-draw is youngest; any other size falls back to age = 2-i,
// which produces negative ages for i>2 (spec §9 open question 2 — kept
// faithfully; SetOffScreenPlaneTarget in this implementation never
// constructs a surface set outside {1,3}, so that branch is unreachable in
// practice).
func (q *Queue) updateOnScreenSurfaces() {
	for _, ps := range q.previousPlaneState {
		ageSurfaces(ps.Surfaces)
	}
}

func ageSurfaces(surfaces []*overlay.NativeSurface) {
	if len(surfaces) == 3 {
		rotation := [3]overlay.SurfaceAge{2, 0, 1}
		for i, s := range surfaces {
			s.Age = rotation[i]
		}
		return
	}
	for i, s := range surfaces {
		s.Age = overlay.SurfaceAge(2 - i)
	}
}

// releaseSurfaces has the plane manager drop the offscreen surfaces of every
// plane in previousPlaneState (the plan just committed) and empties the
// free and pending-release surface lists; called when a frame is idle (spec
// §4.1.1 phase 6.5).
func (q *Queue) releaseSurfaces() {
	if q.planes != nil {
		q.planes.ReleaseAllOffScreenTargets(q.previousPlaneState)
	}
	q.surfacesNotInUse = nil
	q.markNotInUse = nil
}

// releaseSurfacesAsNeeded releases unreferenced surfaces only when a full
// validation occurred this frame; an incremental frame keeps its surface
// pool warm for reuse on the next frame.
func (q *Queue) releaseSurfacesAsNeeded(validateLayers bool) {
	if !validateLayers {
		return
	}
	kept := q.surfacesNotInUse[:0]
	for _, s := range q.surfacesNotInUse {
		if s.InUse {
			kept = append(kept, s)
		}
	}
	q.surfacesNotInUse = kept
}

// setReleaseFenceToLayers distributes the retire fence produced by a
// successful commit to every source layer of every previously-committed
// plane (spec §4.1.4), writing into the caller-owned Layer.ReleaseFence
// rather than the queue's own OverlayLayer, per overlay/layer.go's
// documented contract. Scanout planes hand every source layer a duplicate
// of outFence directly; offscreen-composed planes hand every source layer
// a duplicate of the plane's composition acquire fence (falling back to the
// layer's own acquire fence if the plane never produced one), then close
// the plane's composition fence once. layers and srcLayers are the same
// index-aligned pair buildFrameLayers produced for the frame that is now
// previousPlaneState.
func (q *Queue) setReleaseFenceToLayers(layers []*overlay.OverlayLayer, srcLayers []*overlay.Layer, outFence fence.Fence) {
	for _, ps := range q.previousPlaneState {
		if !ps.NeedsOffscreenComposition {
			for _, idx := range ps.SourceLayers {
				if idx < 0 || idx >= len(srcLayers) {
					continue
				}
				srcLayers[idx].ReleaseFence = outFence.Dup()
			}
			continue
		}

		compFence := fence.New(fence.None)
		if len(ps.Surfaces) > 0 {
			compFence = ps.Surfaces[0].AcquireFence
		}
		for _, idx := range ps.SourceLayers {
			if idx < 0 || idx >= len(srcLayers) {
				continue
			}
			if compFence.Valid() {
				srcLayers[idx].ReleaseFence = compFence.Dup()
			} else if idx < len(layers) {
				srcLayers[idx].ReleaseFence = layers[idx].AcquireFence.Dup()
			}
		}
		if compFence.Valid() {
			compFence.Close()
		}
	}
}
