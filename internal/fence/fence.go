// Package fence models kernel sync-fence file descriptors as linear
// resources: moved by default, duplicated explicitly when a value must be
// broadcast to more than one holder.
package fence

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// None is the value of a fence field that carries no fence.
const None = -1

// Fence wraps a sync-fence fd. The zero value wraps fd 0, which Valid
// reports as a real descriptor; construct fences with New or Dup.
type Fence struct {
	fd int
}

// New takes ownership of fd. fd must be a valid fence fd or None.
func New(fd int) Fence {
	return Fence{fd: fd}
}

// Valid reports whether the fence carries a real fd.
func (f Fence) Valid() bool {
	return f.fd > None
}

// FD returns the underlying descriptor without transferring ownership.
func (f Fence) FD() int {
	return f.fd
}

// Dup returns a new Fence owning a duplicate of f's fd. The caller of Dup
// owns the returned Fence independently of f. Dup on an invalid fence
// returns another invalid fence.
func (f Fence) Dup() Fence {
	if !f.Valid() {
		return Fence{fd: None}
	}
	nfd, err := unix.Dup(f.fd)
	if err != nil {
		return Fence{fd: None}
	}
	return Fence{fd: nfd}
}

// Close releases the fd, if any. Closing an already-closed or invalid fence
// is a no-op. After Close, f must not be used again.
func (f *Fence) Close() error {
	if !f.Valid() {
		return nil
	}
	fd := f.fd
	f.fd = None
	return unix.Close(fd)
}

// Wait polls the fence fd for the given timeout, returning once it has
// signalled or the timeout elapses. An invalid fence is treated as already
// signalled.
func (f Fence) Wait(timeout time.Duration) error {
	if !f.Valid() {
		return nil
	}
	ms := int(timeout / time.Millisecond)
	fds := []unix.PollFd{{Fd: int32(f.fd), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, ms)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("fence: poll: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("fence: wait timed out after %s", timeout)
		}
		if fds[0].Revents&(unix.POLLERR|unix.POLLNVAL) != 0 {
			return fmt.Errorf("fence: fd %d signalled error", f.fd)
		}
		return nil
	}
}

// WaitAndClose waits for the fence then closes it, matching the
// wait-then-close discipline the display queue applies to a retained
// kms fence before it can be reused.
func (f *Fence) WaitAndClose(timeout time.Duration) error {
	err := f.Wait(timeout)
	cerr := f.Close()
	if err != nil {
		return err
	}
	return cerr
}
