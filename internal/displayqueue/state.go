// Package displayqueue implements the per-display composition pipeline:
// the per-frame validation/caching state machine that decides which layers
// scan out directly, which need GPU composition, and drives the resulting
// plane configuration into a kernel display driver every refresh cycle.
package displayqueue

// StateBits is the DisplayQueue state word. The specified bits are the
// complete legal set; any other bit observed is an invariant violation, not
// a value to silently ignore.
type StateBits uint32

const (
	PoweredOn StateBits = 1 << iota
	ConfigurationChanged
	NeedsColorCorrection
	DisableOverlayUsage
	IgnoreIdleRefresh
	ClonedMode
	LastFrameIdleUpdate
	MarkSurfacesForRelease
	ReleaseSurfaces

	validStateBits = PoweredOn | ConfigurationChanged | NeedsColorCorrection |
		DisableOverlayUsage | IgnoreIdleRefresh | ClonedMode | LastFrameIdleUpdate |
		MarkSurfacesForRelease | ReleaseSurfaces
)

func (s StateBits) has(bit StateBits) bool { return s&bit != 0 }

// invalid reports whether s carries any bit outside the legal set.
func (s StateBits) invalid() bool { return s&^validStateBits != 0 }

// PowerMode is the display power state passed to SetPowerMode.
type PowerMode int

const (
	PowerOff PowerMode = iota
	PowerDoze
	PowerDozeSuspend
	PowerOn
)

// ColorTransformHint classifies the color transform matrix, so a display
// driver that only supports identity + simple cases can fast-path it.
type ColorTransformHint int

const (
	ColorTransformIdentical ColorTransformHint = iota
	ColorTransformArbitraryMatrix
)
