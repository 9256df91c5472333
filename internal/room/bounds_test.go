package room

import "testing"

func TestRangeClampSaturates(t *testing.T) {
	r := Range{Min: 50, Max: 1316}

	tests := []struct {
		name    string
		current int
		delta   int
		want    int
	}{
		{"inside", 100, 10, 110},
		{"negative inside", 100, -10, 90},
		{"saturate min", 55, -10, 50},
		{"saturate max", 1310, 10, 1316},
		{"exactly min", 60, -10, 50},
		{"exactly max", 1306, 10, 1316},
		{"huge positive", 100, 1_000_000, 1316},
		{"huge negative", 100, -1_000_000, 50},
		{"zero delta", 700, 0, 700},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Clamp(tt.current, tt.delta); got != tt.want {
				t.Fatalf("Clamp(%d, %d) = %d, want %d", tt.current, tt.delta, got, tt.want)
			}
		})
	}
}

func TestRangeClampIdempotentAtBoundary(t *testing.T) {
	r := Range{Min: 550, Max: 768}

	atMin := r.Clamp(555, -10)
	if atMin != 550 {
		t.Fatalf("expected clamp to min, got %d", atMin)
	}
	if again := r.Clamp(atMin, -10); again != atMin {
		t.Fatalf("clamping a clamped value moved it: %d -> %d", atMin, again)
	}

	atMax := r.Clamp(765, 10)
	if atMax != 768 {
		t.Fatalf("expected clamp to max, got %d", atMax)
	}
	if again := r.Clamp(atMax, 10); again != atMax {
		t.Fatalf("clamping a clamped value moved it: %d -> %d", atMax, again)
	}
}

func TestBoundsRangeSelectsAxis(t *testing.T) {
	b := Bounds{X: Range{Min: 1, Max: 2}, Y: Range{Min: 3, Max: 4}}
	if got := b.Range(AxisX); got != b.X {
		t.Fatalf("AxisX returned %+v", got)
	}
	if got := b.Range(AxisY); got != b.Y {
		t.Fatalf("AxisY returned %+v", got)
	}
}
