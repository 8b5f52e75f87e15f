package displayqueue

import "sync"

// ColorControl names a video-plane color knob, reconstructed from the
// original's video color setter call sites (original_source/common/display
// /displayqueue.cpp SetVideoColor/GetVideoColor).
type ColorControl int

const (
	ColorControlBrightness ColorControl = iota
	ColorControlContrast
	ColorControlHue
	ColorControlSaturation
)

// DeinterlaceFlag enables or disables video deinterlacing.
type DeinterlaceFlag int

const (
	DeinterlaceFlagOff DeinterlaceFlag = iota
	DeinterlaceFlagOn
)

// DeinterlaceControl selects the deinterlace algorithm used when
// DeinterlaceFlagOn is set.
type DeinterlaceControl int

const (
	DeinterlaceControlBob DeinterlaceControl = iota
	DeinterlaceControlWeave
	DeinterlaceControlMotionAdaptive
)

// videoState holds the video-plane tuning knobs taken under video_lock_
// (spec §5): requested vs. applied video-effect flag, per-channel color
// values, and deinterlace mode. A video-tuning thread distinct from the
// caller and vblank threads may mutate this.
type videoState struct {
	mu sync.Mutex

	requestedVideoEffect bool
	appliedVideoEffect   bool

	color      map[ColorControl]uint32
	defaultColor map[ColorControl]uint32

	deinterlaceFlag    DeinterlaceFlag
	deinterlaceControl DeinterlaceControl
	defaultDeinterlace DeinterlaceFlag
}

func newVideoState() *videoState {
	return &videoState{
		color:        make(map[ColorControl]uint32),
		defaultColor: make(map[ColorControl]uint32),
	}
}

func (v *videoState) setVideoColor(c ColorControl, value uint32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.color[c] = value
	v.requestedVideoEffect = true
}

func (v *videoState) getVideoColor(c ColorControl) uint32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.color[c]
}

func (v *videoState) restoreVideoDefaultColor(c ColorControl) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.color[c] = v.defaultColor[c]
	v.requestedVideoEffect = false
}

func (v *videoState) setVideoDeinterlace(flag DeinterlaceFlag, control DeinterlaceControl) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.deinterlaceFlag = flag
	v.deinterlaceControl = control
	v.requestedVideoEffect = true
}

func (v *videoState) restoreVideoDefaultDeinterlace() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.deinterlaceFlag = v.defaultDeinterlace
	v.requestedVideoEffect = false
}

// setVideoScalingMode intentionally does not touch requestedVideoEffect:
// the original has that assignment commented out (spec §9 open question 1),
// preserved here exactly. Scaling-mode changes alone never force media
// recomposition.
func (v *videoState) setVideoScalingMode(mode int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	_ = mode
}

// needsForceComposition reports whether requested and applied video-effect
// flags disagree, and if so applies the requested flag and reports true,
// matching QueueUpdate phase 1's "force media composition" check which
// updates appliedVideoEffect as a side effect of the comparison.
func (v *videoState) needsForceComposition() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.requestedVideoEffect == v.appliedVideoEffect {
		return false
	}
	v.appliedVideoEffect = v.requestedVideoEffect
	return true
}
