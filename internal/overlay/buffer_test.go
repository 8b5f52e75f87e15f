package overlay

import "testing"

type fakeFBCreator struct {
	calls int
	fbID  uint32
	err   error
}

func (f *fakeFBCreator) CreateFrameBuffer(b *Buffer, gpuFD int) (uint32, error) {
	f.calls++
	return f.fbID, f.err
}

func TestCreateFrameBufferCaches(t *testing.T) {
	b := &Buffer{Width: 1920, Height: 1080}
	creator := &fakeFBCreator{fbID: 42}

	if err := b.CreateFrameBuffer(creator, 3); err != nil {
		t.Fatalf("CreateFrameBuffer: %v", err)
	}
	if !b.HasFrameBuffer() {
		t.Fatal("HasFrameBuffer() = false after successful create")
	}
	if got := b.FrameBufferID(); got != 42 {
		t.Errorf("FrameBufferID() = %d, want 42", got)
	}

	if err := b.CreateFrameBuffer(creator, 3); err != nil {
		t.Fatalf("second CreateFrameBuffer: %v", err)
	}
	if creator.calls != 1 {
		t.Errorf("creator called %d times, want 1 (cached)", creator.calls)
	}
}

func TestNeedsTextureUpload(t *testing.T) {
	b := &Buffer{Width: 100, Height: 100}
	if !b.NeedsTextureUpload() {
		t.Error("a buffer with no prior size should need upload")
	}

	b.RefreshPixelData()
	if b.NeedsTextureUpload() {
		t.Error("NeedsTextureUpload() should be false right after RefreshPixelData")
	}

	b.Width = 200
	if !b.NeedsTextureUpload() {
		t.Error("NeedsTextureUpload() should be true after a size change")
	}

	b.RefreshPixelData()
	if b.PreviousWidth != 200 || b.PreviousHeight != 100 {
		t.Errorf("RefreshPixelData() = (%d, %d), want (200, 100)", b.PreviousWidth, b.PreviousHeight)
	}
}
