package overlay

import "github.com/matjam/hwcomposer/internal/fence"

// Layer is the caller-owned handle for one application surface submitted to
// QueueUpdate. The queue never retains a Layer past the call that built an
// OverlayLayer from it; the caller is free to mutate or free it once
// QueueUpdate returns, except for ReleaseFence which the queue populates.
type Layer struct {
	Index int // position in the caller's Z-ordered list

	Buffer        *Buffer
	DisplayFrame  Rect
	SourceCrop    RectF
	Transform     Transform
	Blending      BlendMode
	PlaneAlpha    float32
	SurfaceDamage Rect
	Z             int

	Cursor bool
	Video  bool

	// AcquireFence signals when Buffer's contents are ready to read.
	AcquireFence fence.Fence
	// ReleaseFence is populated by QueueUpdate: a duplicate the caller owns
	// and must eventually close, signalling when Buffer is safe to reuse.
	ReleaseFence fence.Fence
}

// DeltaBits captures what changed between an OverlayLayer and its
// predecessor at the same Z, the inputs to the incremental-validation
// decision.
type DeltaBits struct {
	DimensionsChanged bool
	SourceRectChanged bool
	ContentChanged    bool
	RawPixelChanged   bool
}

// Any reports whether anything changed at all.
func (d DeltaBits) Any() bool {
	return d.DimensionsChanged || d.SourceRectChanged || d.ContentChanged || d.RawPixelChanged
}

// OverlayLayer is the per-frame value object derived from a Layer, built in
// QueueUpdate and moved into in_flight_layers on a successful commit.
type OverlayLayer struct {
	Z             int
	OriginalIndex int

	Buffer        *Buffer
	DisplayFrame  Rect
	SourceCrop    RectF
	Transform     Transform
	Blending      BlendMode
	PlaneAlpha    float32
	SurfaceDamage Rect

	Visible           bool
	Cursor            bool
	Video             bool
	CanScanOut        bool
	NeedsRevalidation bool
	NeedsFullDraw     bool

	Delta DeltaBits

	AcquireFence fence.Fence
	// CompositionFence is the acquire fence produced by the GPU composition
	// pass that wrote this layer's contribution into a shared surface, or
	// invalid if this layer scans out directly.
	CompositionFence fence.Fence
}

// BuildOverlayLayer constructs this frame's OverlayLayer for l, diffing
// against prev (the previous frame's peer at the same Z, or nil if none
// existed).
func BuildOverlayLayer(l *Layer, prev *OverlayLayer) *OverlayLayer {
	ov := &OverlayLayer{
		Z:             l.Z,
		OriginalIndex: l.Index,
		Buffer:        l.Buffer,
		DisplayFrame:  l.DisplayFrame,
		SourceCrop:    l.SourceCrop,
		Transform:     l.Transform,
		Blending:      l.Blending,
		PlaneAlpha:    l.PlaneAlpha,
		SurfaceDamage: l.SurfaceDamage,
		Cursor:        l.Cursor,
		Video:         l.Video,
		AcquireFence:  l.AcquireFence,
		CompositionFence: fence.New(fence.None),
	}
	ov.Visible = !l.DisplayFrame.Empty() && l.Buffer != nil
	ov.CanScanOut = ov.Visible && !needsOffscreen(ov)

	if prev != nil {
		ov.Delta.DimensionsChanged = ov.DisplayFrame != prev.DisplayFrame ||
			(ov.Buffer != nil && prev.Buffer != nil &&
				(ov.Buffer.Width != prev.Buffer.Width || ov.Buffer.Height != prev.Buffer.Height))
		ov.Delta.SourceRectChanged = ov.SourceCrop != prev.SourceCrop
		ov.Delta.ContentChanged = !ov.SurfaceDamage.Empty() || ov.Cursor != prev.Cursor || ov.Video != prev.Video
		ov.Delta.RawPixelChanged = ov.Buffer != nil && prev.Buffer != nil && ov.Buffer.NeedsTextureUpload()
		ov.NeedsRevalidation = ov.Cursor != prev.Cursor || ov.Video != prev.Video
		ov.NeedsFullDraw = ov.Delta.DimensionsChanged
	} else {
		// No predecessor: everything about this layer is new.
		ov.Delta = DeltaBits{DimensionsChanged: true, SourceRectChanged: true, ContentChanged: true}
		ov.NeedsRevalidation = true
		ov.NeedsFullDraw = true
	}

	return ov
}

// needsOffscreen reports whether a layer's current facets rule out direct
// scan-out on this generation of hardware; the plane manager makes the
// authoritative decision, this is only used to seed CanScanOut before a
// plane assignment exists.
func needsOffscreen(ov *OverlayLayer) bool {
	return ov.Transform != TransformNone && ov.Blending == BlendCoverage
}
