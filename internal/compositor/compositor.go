// Package compositor implements the GPU rasterizer that draws source layers
// into offscreen NativeSurfaces, generalizing the teacher's glxrenderer
// two-texture crossfade into an N-layer, N-plane composition pass.
package compositor

import (
	"fmt"
	"image"
	"runtime"

	"github.com/go-gl/gl/v2.1/gl"
	"golang.org/x/image/draw"

	"github.com/matjam/hwcomposer/internal/overlay"
	"github.com/matjam/hwcomposer/internal/resourcemanager"
)

// Compositor is the contract spec §4.3 describes.
type Compositor interface {
	Init(rm *resourcemanager.Manager, gpuFD int) error
	BeginFrame(disableOverlays bool) bool
	Draw(planes []*overlay.PlaneState, layers []*overlay.OverlayLayer, rects []overlay.Rect) bool
	UpdateLayerPixelData(layers []*overlay.OverlayLayer)
	EnsurePixelDataUpdated()
	Reset()

	SetVideoColor(r, g, b uint32)
	SetVideoDeinterlace(mode int)
}

// GL is a go-gl/v2.1-backed Compositor. It assumes an already-current GL
// context (established by whatever owns the render node / GBM surface);
// unlike glxrenderer it does not create its own context, since under KMS
// the context is bound once at daemon startup and shared across displays.
type GL struct {
	rm      *resourcemanager.Manager
	gpuFD   int
	ready   bool
	videoR  uint32
	videoG  uint32
	videoB  uint32
	deint   int
	texture map[*overlay.Buffer]uint32
}

// New returns an uninitialized GL compositor.
func New() *GL {
	return &GL{texture: make(map[*overlay.Buffer]uint32)}
}

// Init binds the compositor to a resource manager and GPU render-node fd.
func (c *GL) Init(rm *resourcemanager.Manager, gpuFD int) error {
	if rm == nil {
		return fmt.Errorf("compositor: nil resource manager")
	}
	runtime.LockOSThread()
	if err := gl.Init(); err != nil {
		return fmt.Errorf("compositor: gl.Init: %w", err)
	}
	c.rm = rm
	c.gpuFD = gpuFD
	c.ready = true
	return nil
}

// BeginFrame prepares GL state for a frame's draw calls.
func (c *GL) BeginFrame(disableOverlays bool) bool {
	if !c.ready {
		return false
	}
	gl.ClearColor(0, 0, 0, 1)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	return true
}

// Draw renders, for every plane that needs offscreen composition and has at
// least one surface, the plane's source layers with the viewport sized to
// its first surface. It draws into whichever framebuffer is bound at the
// time and sets no acquire fence on any surface. Failure of any single
// plane's draw fails the whole call, matching "GPU draw failed" in spec §7
// (no partial state is published by the caller).
func (c *GL) Draw(planes []*overlay.PlaneState, layers []*overlay.OverlayLayer, rects []overlay.Rect) bool {
	if !c.ready {
		return false
	}
	for _, ps := range planes {
		if !ps.NeedsOffscreenComposition || len(ps.Surfaces) == 0 {
			continue
		}
		target := ps.Surfaces[0]
		if !c.drawPlane(ps, target, layers) {
			return false
		}
	}
	return true
}

func (c *GL) drawPlane(ps *overlay.PlaneState, target *overlay.NativeSurface, layers []*overlay.OverlayLayer) bool {
	gl.Viewport(0, 0, int32(target.Width), int32(target.Height))
	gl.Clear(gl.COLOR_BUFFER_BIT)

	for _, idx := range ps.SourceLayers {
		if idx < 0 || idx >= len(layers) {
			return false
		}
		layer := layers[idx]
		tex, err := c.textureFor(layer)
		if err != nil {
			return false
		}
		gl.Enable(gl.TEXTURE_2D)
		gl.BindTexture(gl.TEXTURE_2D, tex)
		gl.Color4f(1, 1, 1, layer.PlaneAlpha)
		drawQuad(layer.SourceCrop)
	}
	return true
}

// textureFor returns the cached GL texture for a layer's buffer,
// reallocating its storage at the buffer's size when the buffer reports
// NeedsTextureUpload; no pixel data is copied into it. Mirrors
// glxrenderer.createTexture generalized to a texture cache keyed by buffer
// rather than a fixed textureA/textureB pair.
func (c *GL) textureFor(layer *overlay.OverlayLayer) (uint32, error) {
	if layer.Buffer == nil {
		return 0, fmt.Errorf("compositor: layer has no buffer")
	}
	if tex, ok := c.texture[layer.Buffer]; ok && !layer.Buffer.NeedsTextureUpload() {
		return tex, nil
	}

	tex, ok := c.texture[layer.Buffer]
	if !ok {
		gl.GenTextures(1, &tex)
		c.texture[layer.Buffer] = tex
	}
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, layer.Buffer.Width, layer.Buffer.Height, 0,
		gl.RGBA, gl.UNSIGNED_BYTE, nil)
	layer.Buffer.RefreshPixelData()
	return tex, nil
}

func drawQuad(crop overlay.RectF) {
	gl.Begin(gl.QUADS)
	gl.TexCoord2f(crop.Left, crop.Bottom)
	gl.Vertex2f(-1, -1)
	gl.TexCoord2f(crop.Right, crop.Bottom)
	gl.Vertex2f(1, -1)
	gl.TexCoord2f(crop.Right, crop.Top)
	gl.Vertex2f(1, 1)
	gl.TexCoord2f(crop.Left, crop.Top)
	gl.Vertex2f(-1, 1)
	gl.End()
}

// UpdateLayerPixelData refreshes the GPU-side texture for every layer whose
// buffer reports NeedsTextureUpload (its size changed since it was last
// drawn), without a full Draw pass.
func (c *GL) UpdateLayerPixelData(layers []*overlay.OverlayLayer) {
	for _, l := range layers {
		if l.Buffer != nil && l.Buffer.NeedsTextureUpload() {
			c.textureFor(l)
		}
	}
}

// EnsurePixelDataUpdated is the no-draw path QueueUpdate takes when only a
// raw-pixel update occurred (spec §4.1.1 phase 4).
func (c *GL) EnsurePixelDataUpdated() {}

// Reset drops every cached texture, called on a full queue reset.
func (c *GL) Reset() {
	for _, tex := range c.texture {
		t := tex
		gl.DeleteTextures(1, &t)
	}
	c.texture = make(map[*overlay.Buffer]uint32)
}

func (c *GL) SetVideoColor(r, g, b uint32)    { c.videoR, c.videoG, c.videoB = r, g, b }
func (c *GL) SetVideoDeinterlace(mode int)    { c.deint = mode }

// ScaleFixture builds a synthetic RGBA source image of the given size by
// scaling src, a stand-in for a real buffer's pixel content where no WSI
// import path is available. The compositor itself does not call it.
func ScaleFixture(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}
