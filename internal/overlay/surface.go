package overlay

import "github.com/matjam/hwcomposer/internal/fence"

// SurfaceAge encodes LRU order within a plane's surface set. -1 means
// scheduled for release.
type SurfaceAge int

const (
	AgeReleasing SurfaceAge = -1
)

// NativeSurface is an offscreen render target the compositor draws into and
// a plane later scans out. Allocated by the plane manager, recycled through
// surfacesNotInUse, destroyed by ReleaseFreeOffScreenTargets.
type NativeSurface struct {
	Width, Height int32
	Age           SurfaceAge

	// Texture is the backend-specific handle (e.g. a GL texture/FBO pair)
	// the compositor draws into; opaque to this package.
	Texture uint32

	// AcquireFence signals when the compositor's draw into this surface has
	// completed and it is safe to scan out or sample.
	AcquireFence fence.Fence

	InUse bool
}

// NewNativeSurface allocates a surface at age 2 (freshly minted, not yet
// drawn), the state UpdateOnScreenSurfaces expects for a newly-added member
// of a rotation set.
func NewNativeSurface(width, height int32) *NativeSurface {
	return &NativeSurface{Width: width, Height: height, Age: 2, Texture: 0,
		AcquireFence: fence.New(fence.None)}
}

// Resize reallocates the surface's backing dimensions, invalidating any
// prior texture; the caller (plane manager) is responsible for releasing
// the old texture through the compositor before calling this.
func (s *NativeSurface) Resize(width, height int32) {
	s.Width, s.Height = width, height
	s.Texture = 0
}
