package overlay

import "testing"

type fakePlane struct{ id uint32 }

func (f fakePlane) ID() uint32                 { return f.id }
func (f fakePlane) SupportsFormat(uint32) bool { return true }

func TestPlaneStateKind(t *testing.T) {
	tests := []struct {
		name string
		ps   PlaneState
		want Kind
	}{
		{"cursor wins", PlaneState{IsCursorPlane: true, IsVideoPlane: true}, KindCursor},
		{"video", PlaneState{IsVideoPlane: true}, KindVideo},
		{"offscreen composed", PlaneState{NeedsOffscreenComposition: true}, KindOffscreenComposed},
		{"plain scanout", PlaneState{}, KindScanout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ps.Kind(); got != tt.want {
				t.Errorf("Kind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckInvariant(t *testing.T) {
	tests := []struct {
		name string
		ps   PlaneState
		want bool
	}{
		{"offscreen always holds", PlaneState{NeedsOffscreenComposition: true, SourceLayers: nil}, true},
		{"scanout with one layer", PlaneState{SourceLayers: []int{0}}, true},
		{"scanout with zero layers", PlaneState{SourceLayers: nil}, false},
		{"scanout with two layers", PlaneState{SourceLayers: []int{0, 1}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ps.CheckInvariant(); got != tt.want {
				t.Errorf("CheckInvariant() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlaneStateCloneIsIndependent(t *testing.T) {
	ps := &PlaneState{
		Plane:        fakePlane{id: 7},
		SourceLayers: []int{0, 1},
		Surfaces:     []*NativeSurface{NewNativeSurface(100, 100)},
	}

	clone := ps.Clone()
	clone.SourceLayers[0] = 99
	clone.Surfaces = append(clone.Surfaces, NewNativeSurface(50, 50))

	if ps.SourceLayers[0] == 99 {
		t.Error("mutating the clone's SourceLayers should not affect the original")
	}
	if len(ps.Surfaces) != 1 {
		t.Error("appending to the clone's Surfaces should not affect the original")
	}
}
