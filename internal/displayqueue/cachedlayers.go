package displayqueue

import "github.com/matjam/hwcomposer/internal/overlay"

// cachedLayersResult is GetCachedLayers's output (spec §4.1.2).
type cachedLayersResult struct {
	canIgnoreCommit      bool
	needsPlaneValidation bool
	forceFullValidation  bool
	onlyCursorRectChanged bool
}

// getCachedLayers patches previousPlaneState into currentCompositionPlanes
// in place, applying the removal at removeIndex and refreshing per-plane
// damage/source/display frames, the incremental-validation fast path spec
// §4.1.1 phase 2 depends on.
func (q *Queue) getCachedLayers(layers []*overlay.OverlayLayer, removeIndex int) cachedLayersResult {
	var res cachedLayersResult
	res.canIgnoreCommit = true
	res.onlyCursorRectChanged = true

	current := make([]*overlay.PlaneState, 0, len(q.previousPlaneState))
	for _, ps := range q.previousPlaneState {
		current = append(current, ps.Clone())
	}

	checkToSquash := false

	for i := 0; i < len(current); i++ {
		ps := current[i]

		// Removal.
		if removeIndex != -1 && topmostLayerIndex(ps) >= removeIndex {
			if len(ps.SourceLayers) == 1 {
				erasedPrimary := i == 0
				q.planes.MarkSurfacesForRecycling(ps, &q.surfacesNotInUse, true)
				current = append(current[:i], current[i+1:]...)
				i--
				if erasedPrimary && len(current) > 0 {
					res.forceFullValidation = true
					q.currentCompositionPlanes = current
					return res
				}
				res.canIgnoreCommit = false
				continue
			}
			ps.SourceLayers = truncateAt(ps.SourceLayers, removeIndex)
			ps.ClearSurface = true
			res.canIgnoreCommit = false
			if len(ps.SourceLayers) == 1 {
				checkToSquash = true
			}
		}

		if ps.NeedsOffscreenComposition {
			var union overlay.Rect
			fullReset := false
			for _, idx := range ps.SourceLayers {
				if idx < 0 || idx >= len(layers) {
					continue
				}
				l := layers[idx]
				if l.Delta.DimensionsChanged {
					fullReset = true
					ps.DamageRect = l.DisplayFrame
				}
				if !l.Cursor {
					res.onlyCursorRectChanged = false
				}
				union = overlay.Union(union, l.SurfaceDamage)
			}
			if fullReset || !union.Empty() {
				if len(ps.Surfaces) == 0 {
					q.planes.SetOffScreenPlaneTarget(ps, &q.surfacesNotInUse)
				} else {
					ps.DamageRect = overlay.Union(ps.DamageRect, union)
				}
				res.canIgnoreCommit = false
			}
			continue
		}

		// Scanout plane, single layer.
		if len(ps.SourceLayers) == 1 {
			idx := ps.SourceLayers[0]
			if idx < 0 || idx >= len(layers) {
				continue
			}
			l := layers[idx]
			if l.Buffer != nil && !l.Buffer.HasFrameBuffer() {
				if creator, ok := any(q.display).(overlay.FBCreator); ok {
					if err := l.Buffer.CreateFrameBuffer(creator, -1); err != nil {
						res.forceFullValidation = true
						q.currentCompositionPlanes = current
						return res
					}
				}
			}
			if l.Delta.ContentChanged || l.Delta.DimensionsChanged || l.NeedsRevalidation || l.NeedsFullDraw {
				res.canIgnoreCommit = false
				ps.DamageRect = overlay.Union(ps.DamageRect, l.SurfaceDamage)
			}
		}
	}

	if checkToSquash {
		current = squashLast(current, &q.surfacesNotInUse, q.planes)
	}

	q.currentCompositionPlanes = current
	res.needsPlaneValidation = !res.canIgnoreCommit
	return res
}

func topmostLayerIndex(ps *overlay.PlaneState) int {
	max := -1
	for _, idx := range ps.SourceLayers {
		if idx > max {
			max = idx
		}
	}
	return max
}

func truncateAt(indices []int, threshold int) []int {
	out := indices[:0:0]
	for _, idx := range indices {
		if idx < threshold {
			out = append(out, idx)
		}
	}
	return out
}

// squashLast merges the last two squashable, single-layer planes (skipping
// a trailing cursor plane) into one, recycling the merged-away plane's
// surface and erasing it from the returned slice, per spec §4.1.2's squash
// phase. current is passed by value, so the erase can only take effect
// through the returned slice; callers must assign the result back.
func squashLast(current []*overlay.PlaneState, surfacesNotInUse *[]*overlay.NativeSurface, pm PlaneManager) []*overlay.PlaneState {
	end := len(current)
	if end > 0 && current[end-1].IsCursorPlane {
		end--
	}
	if end < 2 {
		return current
	}
	top := current[end-1]
	below := current[end-2]
	if len(top.SourceLayers) != 1 || len(below.SourceLayers) != 1 {
		return current
	}
	if !top.CanSquash || !below.CanSquash {
		return current
	}
	below.SourceLayers = append(below.SourceLayers, top.SourceLayers...)
	below.NeedsOffscreenComposition = true
	if len(below.Surfaces) == 0 {
		pm.SetOffScreenPlaneTarget(below, surfacesNotInUse)
	}
	pm.MarkSurfacesForRecycling(top, surfacesNotInUse, false)

	return append(current[:end-1], current[end:]...)
}
