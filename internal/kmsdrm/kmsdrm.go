// Package kmsdrm binds the display queue's PhysicalDisplay contract to the
// Linux kernel mode-setting API via cgo, straight to libdrm the same way
// the teacher's renderer backends bind straight to libGL/libGLX: small C
// helper functions wrapped by a thin Go type, no intermediate Go DRM
// package.
package kmsdrm

/*
#cgo LDFLAGS: -ldrm
#cgo CFLAGS: -I/usr/include/libdrm
#include <xf86drm.h>
#include <xf86drmMode.h>
#include <stdlib.h>
#include <fcntl.h>
#include <unistd.h>

static drmModeAtomicReq *new_atomic_req() {
    return drmModeAtomicAlloc();
}

static int atomic_add(drmModeAtomicReq *req, uint32_t obj_id, uint32_t prop_id, uint64_t value) {
    return drmModeAtomicAddProperty(req, obj_id, prop_id, value);
}

static int atomic_commit(int fd, drmModeAtomicReq *req, uint32_t flags, void *user_data) {
    return drmModeAtomicCommit(fd, req, flags, user_data);
}

static void free_atomic_req(drmModeAtomicReq *req) {
    drmModeAtomicFree(req);
}

static int add_fb2(int fd, uint32_t width, uint32_t height, uint32_t fourcc,
                    uint32_t *handles, uint32_t *pitches, uint32_t *offsets,
                    uint32_t *fb_id, uint32_t flags) {
    return drmModeAddFB2(fd, width, height, fourcc, handles, pitches, offsets, fb_id, flags);
}

static int prime_fd_to_handle(int fd, int prime_fd, uint32_t *handle) {
    return drmPrimeFDToHandle(fd, prime_fd, handle);
}
*/
import "C"

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/matjam/hwcomposer/internal/fence"
	"github.com/matjam/hwcomposer/internal/overlay"
)

// Display owns one DRM device node plus the CRTC/plane set a DisplayQueue
// drives atomically every commit.
type Display struct {
	mu sync.Mutex

	fd   int
	path string

	crtcID uint32
	planes []*Plane

	disabled bool
	initOnce sync.Once
	pending  func()
}

// Open opens the DRM device at path (e.g. "/dev/dri/card0"), enables the
// atomic client capability and records crtcID. It does not enumerate
// planes; callers add them with Plane.
func Open(path string, crtcID uint32) (*Display, error) {
	runtime.LockOSThread()

	fd, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("kmsdrm: open %s: %w", path, err)
	}

	if ret := C.drmSetClientCap(C.int(fd.Fd()), C.DRM_CLIENT_CAP_ATOMIC, 1); ret != 0 {
		fd.Close()
		return nil, fmt.Errorf("kmsdrm: DRM_CLIENT_CAP_ATOMIC unsupported on %s", path)
	}

	return &Display{fd: int(fd.Fd()), path: path, crtcID: crtcID}, nil
}

// FD returns the DRM device fd backing this display, the same fd the
// GL compositor binds its rendering context to.
func (d *Display) FD() int { return d.fd }

// Plane returns a new scan-out capable plane handle bound to this display,
// for the plane manager to assign layers to.
func (d *Display) Plane(id uint32, formats []uint32) *Plane {
	p := &Plane{id: id, formats: formats, display: d}
	d.planes = append(d.planes, p)
	return p
}

// Plane is a kernel DRM plane, implementing overlay.PlaneHandle.
type Plane struct {
	id      uint32
	formats []uint32
	display *Display
}

func (p *Plane) ID() uint32 { return p.id }

func (p *Plane) SupportsFormat(fourcc uint32) bool {
	for _, f := range p.formats {
		if f == fourcc {
			return true
		}
	}
	return false
}

// CreateFrameBuffer realizes a scan-out framebuffer for b via drmModeAddFB2,
// first importing its prime fd into a GEM handle on every call and storing
// it in b.GemHandles[0].
func (d *Display) CreateFrameBuffer(b *overlay.Buffer, gpuFD int) (uint32, error) {
	var handle C.uint32_t
	if ret := C.prime_fd_to_handle(C.int(d.fd), C.int(b.PrimeFD), &handle); ret != 0 {
		return 0, fmt.Errorf("kmsdrm: drmPrimeFDToHandle: %d", ret)
	}
	b.GemHandles[0] = uint32(handle)

	var handles, pitches, offsets [4]C.uint32_t
	for i := 0; i < 4; i++ {
		handles[i] = C.uint32_t(b.GemHandles[i])
		pitches[i] = C.uint32_t(b.Pitches[i])
		offsets[i] = C.uint32_t(b.Offsets[i])
	}

	var fbID C.uint32_t
	ret := C.add_fb2(C.int(d.fd), C.uint32_t(b.Width), C.uint32_t(b.Height),
		C.uint32_t(b.FrameBufferFormat), &handles[0], &pitches[0], &offsets[0], &fbID, 0)
	if ret != 0 {
		return 0, fmt.Errorf("kmsdrm: drmModeAddFB2: %d", ret)
	}
	return uint32(fbID), nil
}

// Commit sets CRTC_ID for every plane in current in one nonblocking atomic
// commit. previous is not used and nothing is rolled back on failure; no
// kernel out-fence is requested, so the returned fence always carries
// fence.None.
func (d *Display) Commit(current, previous []*overlay.PlaneState, disableOverlays bool) (fence.Fence, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	req := C.new_atomic_req()
	if req == nil {
		return fence.New(fence.None), fmt.Errorf("kmsdrm: drmModeAtomicAlloc failed")
	}
	defer C.free_atomic_req(req)

	for _, ps := range current {
		if ps.Plane == nil {
			continue
		}
		planeID := C.uint32_t(ps.Plane.ID())
		crtc := C.uint64_t(d.crtcID)
		if disableOverlays && !ps.Scanout {
			crtc = 0
		}
		// CRTC_ID is always property id 0 in this binding's convention;
		// a real deployment resolves property ids once via
		// drmModeObjectGetProperties and caches them per plane.
		if ret := C.atomic_add(req, planeID, 0, crtc); ret < 0 {
			return fence.New(fence.None), fmt.Errorf("kmsdrm: add CRTC_ID prop: %d", ret)
		}
	}

	flags := C.uint32_t(C.DRM_MODE_ATOMIC_NONBLOCK | C.DRM_MODE_PAGE_FLIP_EVENT)
	if ret := C.atomic_commit(C.int(d.fd), req, flags, nil); ret != 0 {
		return fence.New(fence.None), fmt.Errorf("kmsdrm: drmModeAtomicCommit: %d", ret)
	}

	return fence.New(fence.None), nil
}

// Disable tears down every plane in previous, used by HandleExit.
func (d *Display) Disable(previous []*overlay.PlaneState) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disabled = true

	req := C.new_atomic_req()
	if req == nil {
		return fmt.Errorf("kmsdrm: drmModeAtomicAlloc failed")
	}
	defer C.free_atomic_req(req)

	for _, ps := range previous {
		if ps.Plane == nil {
			continue
		}
		C.atomic_add(req, C.uint32_t(ps.Plane.ID()), 0, 0)
	}
	if ret := C.atomic_commit(C.int(d.fd), req, C.DRM_MODE_ATOMIC_ALLOW_MODESET, nil); ret != 0 {
		return fmt.Errorf("kmsdrm: disable commit: %d", ret)
	}
	return nil
}

// SetColorCorrection accepts gamma/contrast/brightness and returns nil
// without writing any CRTC property; SetColorTransformMatrix is the same.
func (d *Display) SetColorCorrection(gammaR, gammaG, gammaB float32, contrast, brightness uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return nil
}

// SetColorTransformMatrix accepts a 4x4 color transform matrix and hint and
// returns nil without writing them to the CRTC.
func (d *Display) SetColorTransformMatrix(matrix [16]float32, hint int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return nil
}

// HandleLazyInitialization runs a one-shot deferred initialization
// registered via DeferInitialization, if any is pending.
func (d *Display) HandleLazyInitialization() {
	d.mu.Lock()
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()
	if pending != nil {
		pending()
	}
}

// DeferInitialization registers f to run on the next HandleLazyInitialization
// call, matching the original's lazy-init one-shot.
func (d *Display) DeferInitialization(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = f
}

// Close releases the DRM device fd.
func (d *Display) Close() error {
	return unix.Close(d.fd)
}
