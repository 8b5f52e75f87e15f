package displayqueue

import (
	"github.com/matjam/hwcomposer/internal/fence"
	"github.com/matjam/hwcomposer/internal/overlay"
)

// QueueUpdate is the core per-frame operation (spec §4.1.1). It diffs
// sourceLayers against the previous frame, decides between an incremental
// patch and a full revalidation, drives GPU composition and the kernel
// atomic commit, and returns a retire fence the caller owns. idleUpdate is
// a hint from the caller that no layer content changed since the last call;
// handleConstraints is reserved for hardware-specific layer constraints the
// plane manager's selection algorithm consults (out of scope here, spec
// §1) and is threaded through unused by the queue itself.
func (q *Queue) QueueUpdate(sourceLayers []*overlay.Layer, idleUpdate bool, handleConstraints bool) (bool, fence.Fence) {
	_ = handleConstraints

	guard := q.tracker.beginFrame()
	defer guard.finish()
	if guard.ignore {
		return true, fence.New(fence.None)
	}

	layers, srcLayers, addIndex, removeIndex, handleRawPixelUpdate, hasVideoLayer, reValidateCommit, hasCursor :=
		q.buildFrameLayers(sourceLayers)

	q.tracker.setHasCursor(hasCursor)

	validateLayers := q.lastCommitFailedUpdate || len(q.previousPlaneState) == 0 ||
		addIndex == 0 || q.tracker.revalidateLayers()

	idleFrame := (q.tracker.renderIdleMode() || idleUpdate) &&
		addIndex == -1 && removeIndex == -1 && !reValidateCommit
	validateLayers = validateLayers || idleFrame

	if hasVideoLayer && q.video.needsForceComposition() {
		validateLayers = true
		idleFrame = false
	}

	_, renderCursor, ignoreCommit := q.runValidation(layers, addIndex, removeIndex, reValidateCommit, &validateLayers, idleFrame)
	_ = renderCursor

	if ignoreCommit {
		q.inFlightLayers = layers
		return true, fence.New(fence.None)
	}

	if needsOffscreenComposition(q.currentCompositionPlanes) {
		if q.gpu == nil || !q.gpu.BeginFrame(q.overlaysDisabled()) {
			q.lastCommitFailedUpdate = true
			return false, fence.New(fence.None)
		}
		rects := make([]overlay.Rect, 0, len(q.currentCompositionPlanes))
		for _, ps := range q.currentCompositionPlanes {
			rects = append(rects, ps.DamageRect)
		}
		if !q.gpu.Draw(q.currentCompositionPlanes, layers, rects) {
			q.lastCommitFailedUpdate = true
			return false, fence.New(fence.None)
		}
	} else if handleRawPixelUpdate && q.gpu != nil {
		q.gpu.EnsurePixelDataUpdated()
	}

	return q.commit(layers, srcLayers, validateLayers, idleFrame)
}

// buildFrameLayers is QueueUpdate phase 1: build this frame's OverlayLayer
// list and compute the add/remove diff indices against in_flight_layers.
// srcLayers is returned index-aligned with layers, mapping each built
// OverlayLayer back to the caller-owned Layer it came from, since layers
// filtered out above (nil buffer, empty frame, not visible) mean z does not
// index directly into sourceLayers.
func (q *Queue) buildFrameLayers(sourceLayers []*overlay.Layer) (
	layers []*overlay.OverlayLayer, srcLayers []*overlay.Layer, addIndex, removeIndex int,
	handleRawPixelUpdate, hasVideoLayer, reValidateCommit, hasCursor bool,
) {
	addIndex, removeIndex = -1, -1
	layers = make([]*overlay.OverlayLayer, 0, len(sourceLayers))
	srcLayers = make([]*overlay.Layer, 0, len(sourceLayers))

	z := 0
	for _, l := range sourceLayers {
		if l.Buffer == nil || l.DisplayFrame.Empty() {
			continue
		}

		var prevPeer *overlay.OverlayLayer
		if z < len(q.inFlightLayers) {
			prevPeer = q.inFlightLayers[z]
		}

		adjusted := *l
		adjusted.Z = z
		if q.scaling.active {
			adjusted.DisplayFrame.Left, adjusted.DisplayFrame.Top, adjusted.DisplayFrame.Right, adjusted.DisplayFrame.Bottom =
				q.scaling.expand(l.DisplayFrame.Left, l.DisplayFrame.Top, l.DisplayFrame.Right, l.DisplayFrame.Bottom)
		}

		ov := overlay.BuildOverlayLayer(&adjusted, prevPeer)
		if !ov.Visible {
			continue
		}

		handleRawPixelUpdate = handleRawPixelUpdate || ov.Delta.RawPixelChanged
		hasVideoLayer = hasVideoLayer || ov.Video
		reValidateCommit = reValidateCommit || ov.NeedsRevalidation
		hasCursor = hasCursor || ov.Cursor

		if z >= len(q.inFlightLayers) && addIndex == -1 {
			addIndex = z
		}
		if prevPeer != nil && (ov.Cursor != prevPeer.Cursor || ov.Video != prevPeer.Video) {
			if removeIndex == -1 {
				removeIndex = z
			}
			if addIndex == -1 {
				addIndex = z
			}
		}

		layers = append(layers, ov)
		srcLayers = append(srcLayers, l)
		z++
	}

	size := len(layers)
	previousSize := len(q.inFlightLayers)
	if size < previousSize && removeIndex == -1 {
		removeIndex = size
	}
	if addIndex != -1 && removeIndex != -1 {
		removeIndex = min(addIndex, removeIndex)
	}

	return layers, srcLayers, addIndex, removeIndex, handleRawPixelUpdate, hasVideoLayer, reValidateCommit, hasCursor
}

// runValidation is QueueUpdate phases 2-3: try the incremental path, fall
// back to full validation if it's ruled out or demands it. *validateLayers
// is updated in place to reflect which path actually ran. ignoreCommit is
// true only when the incremental path ran, added no planes, found the
// content unchanged and needs no GPU render.
func (q *Queue) runValidation(layers []*overlay.OverlayLayer, addIndex, removeIndex int, reValidateCommit bool, validateLayers *bool, idleFrame bool) (renderNeeded, renderCursor, ignoreCommit bool) {
	if !*validateLayers {
		result := q.getCachedLayers(layers, removeIndex)
		if result.forceFullValidation {
			*validateLayers = true
		} else {
			if addIndex > 0 {
				rn, rc, commitChecked := q.planes.ValidateLayers(layers, addIndex, false,
					&q.currentCompositionPlanes, q.previousPlaneState, &q.surfacesNotInUse)
				renderNeeded = renderNeeded || rn
				renderCursor = renderCursor || rc
				if commitChecked {
					reValidateCommit = false
				}
			}

			if reValidateCommit || result.needsPlaneValidation {
				rn, forceFull := q.planes.ReValidatePlanes(q.currentCompositionPlanes, layers,
					&q.surfacesNotInUse, result.needsPlaneValidation, reValidateCommit)
				renderNeeded = renderNeeded || rn
				if forceFull {
					*validateLayers = true
				}
			}

			if !*validateLayers && result.canIgnoreCommit && !renderNeeded && addIndex <= 0 {
				return false, renderCursor, true
			}
		}
	}

	if *validateLayers {
		q.tracker.resetForFullValidation(idleFrame)
		forceGPU := q.overlaysDisabled() || idleFrame || (q.configurationChanged() && len(layers) > 1)

		q.currentCompositionPlanes = nil
		rn, rc, _ := q.planes.ValidateLayers(layers, 0, forceGPU,
			&q.currentCompositionPlanes, q.previousPlaneState, &q.surfacesNotInUse)
		renderNeeded, renderCursor = rn, rc

		q.powerMu.Lock()
		q.state &^= ConfigurationChanged
		q.powerMu.Unlock()
	}

	return renderNeeded, renderCursor, false
}

// commit is QueueUpdate phases 5-6: push pending color correction, commit
// the plane configuration atomically, and perform post-commit bookkeeping.
// srcLayers is buildFrameLayers's index-aligned mapping back to the
// caller-owned layers that fed layers, needed to deliver release fences.
func (q *Queue) commit(layers []*overlay.OverlayLayer, srcLayers []*overlay.Layer, validateLayers, idleFrame bool) (bool, fence.Fence) {
	if q.doubleBuffering == SingleBuffered && q.kmsFence.Valid() {
		q.kmsFence.WaitAndClose(retireFenceTimeout)
	}

	if q.needsColorCorrection() && q.display != nil {
		q.display.SetColorCorrection(q.color.gammaR, q.color.gammaG, q.color.gammaB, q.color.contrast, q.color.brightness)
		q.display.SetColorTransformMatrix(q.color.matrix, int(q.color.hint))
		q.powerMu.Lock()
		q.state &^= NeedsColorCorrection
		q.powerMu.Unlock()
	}

	outFence := fence.New(fence.None)
	var err error
	if q.display != nil {
		outFence, err = q.display.Commit(q.currentCompositionPlanes, q.previousPlaneState, q.overlaysDisabled())
	}
	if err != nil {
		q.lastCommitFailedUpdate = true
		return false, fence.New(fence.None)
	}
	q.lastCommitFailedUpdate = false

	for _, s := range q.markNotInUse {
		s.Age = overlay.AgeReleasing
	}
	q.markNotInUse = nil

	q.inFlightLayers = layers
	q.previousPlaneState = q.currentCompositionPlanes
	q.currentCompositionPlanes = nil

	q.updateOnScreenSurfaces()

	remaining := q.surfacesNotInUse[:0]
	for _, s := range q.surfacesNotInUse {
		if s.Age > 0 {
			s.Age--
			remaining = append(remaining, s)
		} else {
			q.markNotInUse = append(q.markNotInUse, s)
		}
	}
	q.surfacesNotInUse = remaining

	if idleFrame {
		q.releaseSurfaces()
		q.powerMu.Lock()
		q.state |= LastFrameIdleUpdate
		cloned := q.state.has(ClonedMode)
		q.powerMu.Unlock()
		if cloned {
			q.tracker.setRenderIdleDisplay(true)
		}
	} else {
		q.powerMu.Lock()
		q.state &^= LastFrameIdleUpdate
		q.powerMu.Unlock()
		q.releaseSurfacesAsNeeded(validateLayers)
	}

	retireFence := fence.New(fence.None)
	if outFence.Valid() {
		if !q.state.has(ClonedMode) {
			retireFence = outFence.Dup()
		}
		q.kmsFence.Close()
		q.kmsFence = outFence
		q.setReleaseFenceToLayers(layers, srcLayers, outFence)
	}

	if q.doubleBuffering == DoubleBuffered && q.kmsFence.Valid() {
		q.kmsFence.WaitAndClose(retireFenceTimeout)
	}

	if q.display != nil {
		q.display.HandleLazyInitialization()
	}

	return true, retireFence
}

func needsOffscreenComposition(planes []*overlay.PlaneState) bool {
	for _, ps := range planes {
		if ps.NeedsOffscreenComposition {
			return true
		}
	}
	return false
}

func (q *Queue) overlaysDisabled() bool {
	q.powerMu.Lock()
	defer q.powerMu.Unlock()
	return q.state.has(DisableOverlayUsage)
}

func (q *Queue) configurationChanged() bool {
	q.powerMu.Lock()
	defer q.powerMu.Unlock()
	return q.state.has(ConfigurationChanged)
}

func (q *Queue) needsColorCorrection() bool {
	q.powerMu.Lock()
	defer q.powerMu.Unlock()
	return q.state.has(NeedsColorCorrection)
}
