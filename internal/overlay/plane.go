package overlay

// RevalidationFlags marks which facets of a plane assignment need
// re-checking against the underlying hardware before the next commit.
type RevalidationFlags uint32

const (
	RevalidateNone    RevalidationFlags = 0
	RevalidateScanout RevalidationFlags = 1 << 0
	RevalidateScaling RevalidationFlags = 1 << 1
	RevalidateFormat  RevalidationFlags = 1 << 2
)

// Kind tags the closed set of plane roles the source models with virtual
// dispatch; Go prefers an exhaustive tagged union here.
type Kind int

const (
	KindScanout Kind = iota
	KindOffscreenComposed
	KindCursor
	KindVideo
)

// PlaneHandle is the hardware resource a DisplayPlaneState is bound to;
// implemented by internal/kmsdrm. Kept as an interface so planemanager and
// displayqueue have no cgo dependency.
type PlaneHandle interface {
	ID() uint32
	SupportsFormat(fourcc uint32) bool
}

// PlaneState is one slot in a plane assignment: a hardware plane, the
// source-layer indices it draws from (bottom to top within the plane), and
// the offscreen surfaces backing it if any.
type PlaneState struct {
	Plane PlaneHandle

	// SourceLayers holds indices into the frame's OverlayLayer slice,
	// ordered bottom-most first.
	SourceLayers []int

	// Surfaces holds 0 (pure scanout), 1, or 3 offscreen render targets.
	Surfaces []*NativeSurface

	DamageRect Rect

	NeedsOffscreenComposition bool
	IsCursorPlane             bool
	IsVideoPlane              bool
	Scanout                   bool
	ApplyEffects              bool
	ClearSurface              bool
	CanSquash                 bool

	Revalidation RevalidationFlags
}

// Kind reports the tagged role this plane state currently plays.
func (p *PlaneState) Kind() Kind {
	switch {
	case p.IsCursorPlane:
		return KindCursor
	case p.IsVideoPlane:
		return KindVideo
	case p.NeedsOffscreenComposition:
		return KindOffscreenComposed
	default:
		return KindScanout
	}
}

// CheckInvariant reports whether this state upholds "exactly one source
// layer when not offscreen-composed" (spec §3 DisplayPlaneState invariant);
// callers assert this in tests rather than enforcing it at every mutation
// site, matching how the original treats it as a structural property of a
// correct ValidateLayers/ReValidatePlanes rather than a runtime check.
func (p *PlaneState) CheckInvariant() bool {
	if p.NeedsOffscreenComposition {
		return true
	}
	return len(p.SourceLayers) == 1
}

// Clone returns a shallow copy suitable for copying previous_plane_state
// into current_composition_planes at the start of GetCachedLayers; the
// SourceLayers and Surfaces slices are copied so mutating the clone never
// touches the original.
func (p *PlaneState) Clone() *PlaneState {
	c := *p
	c.SourceLayers = append([]int(nil), p.SourceLayers...)
	c.Surfaces = append([]*NativeSurface(nil), p.Surfaces...)
	return &c
}
