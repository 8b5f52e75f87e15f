package compositor

import (
	"image"
	"image/color"
	"testing"

	"github.com/matjam/hwcomposer/internal/overlay"
)

func TestBeginFrameFailsWithoutInit(t *testing.T) {
	c := New()
	if c.BeginFrame(false) {
		t.Error("BeginFrame should fail before Init has established a GL context")
	}
}

func TestDrawFailsWithoutInit(t *testing.T) {
	c := New()
	ok := c.Draw(
		[]*overlay.PlaneState{{NeedsOffscreenComposition: true, Surfaces: []*overlay.NativeSurface{overlay.NewNativeSurface(10, 10)}}},
		nil, nil,
	)
	if ok {
		t.Error("Draw should fail before Init has established a GL context")
	}
}

func TestInitRejectsNilResourceManager(t *testing.T) {
	c := New()
	if err := c.Init(nil, -1); err == nil {
		t.Error("Init should reject a nil resource manager")
	}
}

func TestSetVideoColorAndDeinterlaceRecordState(t *testing.T) {
	c := New()
	c.SetVideoColor(1, 2, 3)
	c.SetVideoDeinterlace(5)

	if c.videoR != 1 || c.videoG != 2 || c.videoB != 3 {
		t.Errorf("video color = (%d,%d,%d), want (1,2,3)", c.videoR, c.videoG, c.videoB)
	}
	if c.deint != 5 {
		t.Errorf("deint = %d, want 5", c.deint)
	}
}

func TestResetClearsTextureCacheWithoutGLContext(t *testing.T) {
	c := New()
	// No textures were ever uploaded (no GL context), so Reset must be a
	// no-op over an empty cache rather than touch the GL API.
	c.Reset()
	if len(c.texture) != 0 {
		t.Errorf("texture cache should be empty after Reset, got %d entries", len(c.texture))
	}
}

func TestScaleFixtureProducesRequestedDimensions(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}

	dst := ScaleFixture(src, 16, 8)

	if dst.Bounds().Dx() != 16 || dst.Bounds().Dy() != 8 {
		t.Errorf("ScaleFixture size = %dx%d, want 16x8", dst.Bounds().Dx(), dst.Bounds().Dy())
	}
}
