package overlay

import "testing"

func TestRectEmpty(t *testing.T) {
	tests := []struct {
		name string
		r    Rect
		want bool
	}{
		{"zero rect", Rect{}, true},
		{"normal rect", Rect{0, 0, 100, 100}, false},
		{"zero width", Rect{10, 0, 10, 100}, true},
		{"zero height", Rect{0, 10, 100, 10}, true},
		{"inverted", Rect{100, 100, 0, 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Empty(); got != tt.want {
				t.Errorf("Empty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRectWidthHeight(t *testing.T) {
	r := Rect{Left: 10, Top: 20, Right: 110, Bottom: 220}
	if got := r.Width(); got != 100 {
		t.Errorf("Width() = %d, want 100", got)
	}
	if got := r.Height(); got != 200 {
		t.Errorf("Height() = %d, want 200", got)
	}
}

func TestUnion(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want Rect
	}{
		{
			name: "a empty returns b",
			a:    Rect{},
			b:    Rect{0, 0, 50, 50},
			want: Rect{0, 0, 50, 50},
		},
		{
			name: "b empty returns a",
			a:    Rect{0, 0, 50, 50},
			b:    Rect{},
			want: Rect{0, 0, 50, 50},
		},
		{
			name: "disjoint rects bound both",
			a:    Rect{0, 0, 10, 10},
			b:    Rect{20, 20, 30, 30},
			want: Rect{0, 0, 30, 30},
		},
		{
			name: "overlapping rects",
			a:    Rect{0, 0, 20, 20},
			b:    Rect{10, 10, 30, 30},
			want: Rect{0, 0, 30, 30},
		},
		{
			name: "b contained in a",
			a:    Rect{0, 0, 100, 100},
			b:    Rect{10, 10, 20, 20},
			want: Rect{0, 0, 100, 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Union(tt.a, tt.b); got != tt.want {
				t.Errorf("Union(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestTransformComposition(t *testing.T) {
	if TransformRotate180 != TransformFlipH|TransformFlipV {
		t.Error("Rotate180 should be FlipH|FlipV")
	}
	if TransformRotate270 != TransformRotate90|TransformRotate180 {
		t.Error("Rotate270 should be Rotate90|Rotate180")
	}
}
