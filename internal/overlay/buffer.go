package overlay

import "fmt"

// Usage classifies what a buffer's contents are used for, mirroring the
// layer-usage tag the original DrmBuffer carries so the plane manager and
// compositor can special-case cursor and video content.
type Usage int

const (
	UsageNormal Usage = iota
	UsageCursor
	UsageVideo
)

// Buffer wraps one imported native buffer: a DMA-BUF-style handle plus the
// per-plane layout the kernel scan-out path and the GPU texture-upload path
// both need. It is the Go analogue of wsi/drm/drmbuffer.h's DrmBuffer,
// carried in full (including the previous-size fields DrmBuffer keeps for
// media resize tracking) even though a freshly-imported buffer only ever
// populates a subset.
type Buffer struct {
	Width, Height     int32
	Format            uint32 // fourcc, e.g. DRM_FORMAT_XRGB8888
	FrameBufferFormat uint32
	Pitches           [4]uint32
	Offsets           [4]uint32
	GemHandles        [4]uint32
	PrimeFD           int
	Usage             Usage
	TotalPlanes       int

	// PreviousWidth/PreviousHeight record the buffer's size as of the last
	// time RefreshPixelData ran for it; NeedsTextureUpload compares against
	// them, and the compositor uses that to decide whether the buffer's
	// texture must be reallocated rather than reused.
	PreviousWidth, PreviousHeight int32

	fbID  uint32
	hasFB bool
}

// HasFrameBuffer reports whether CreateFrameBuffer has already succeeded for
// this buffer.
func (b *Buffer) HasFrameBuffer() bool {
	return b.hasFB
}

// FrameBufferID returns the scan-out framebuffer id created by
// CreateFrameBuffer. Valid only if HasFrameBuffer is true.
func (b *Buffer) FrameBufferID() uint32 {
	return b.fbID
}

// FBCreator realizes a scan-out framebuffer object for a buffer given a GPU
// or DRM device fd; it is implemented by internal/kmsdrm and injected so
// this package has no cgo dependency of its own.
type FBCreator interface {
	CreateFrameBuffer(b *Buffer, gpuFD int) (fbID uint32, err error)
}

// CreateFrameBuffer lazily realizes the scan-out framebuffer, caching the
// result. Safe to call repeatedly; it is a no-op once hasFB is true.
func (b *Buffer) CreateFrameBuffer(creator FBCreator, gpuFD int) error {
	if b.hasFB {
		return nil
	}
	fbID, err := creator.CreateFrameBuffer(b, gpuFD)
	if err != nil {
		return fmt.Errorf("overlay: create framebuffer: %w", err)
	}
	b.fbID = fbID
	b.hasFB = true
	return nil
}

// NeedsTextureUpload reports whether this buffer's backing size changed
// since it was last composed, which forces a fresh GPU texture rather than
// reuse of one bound to the old dimensions.
func (b *Buffer) NeedsTextureUpload() bool {
	return b.Width != b.PreviousWidth || b.Height != b.PreviousHeight
}

// RefreshPixelData records the buffer's current size as "previously seen",
// called once per frame a layer backed by this buffer is actually drawn.
func (b *Buffer) RefreshPixelData() {
	b.PreviousWidth = b.Width
	b.PreviousHeight = b.Height
}

// Dump renders a short diagnostic summary, matching DrmBuffer::Dump's role
// as a debug aid rather than a stable API.
func (b *Buffer) Dump() string {
	return fmt.Sprintf("buffer(%dx%d fmt=%#x planes=%d primefd=%d fb=%v)",
		b.Width, b.Height, b.Format, b.TotalPlanes, b.PrimeFD, b.hasFB)
}
