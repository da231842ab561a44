package gaze

import (
	"math"
	"testing"
)

// openEye returns landmarks with the given height over a width of 30.
func openEye(height float64) LandmarkSet {
	return LandmarkSet{
		{X: 10, Y: 20},
		{X: 18, Y: 20 - height/2},
		{X: 26, Y: 20 - height/2},
		{X: 40, Y: 20},
		{X: 26, Y: 20 + height/2},
		{X: 18, Y: 20 + height/2},
	}
}

func TestOpennessRatio(t *testing.T) {
	ratio := OpennessRatio(openEye(9))
	if math.Abs(ratio-0.3) > 1e-9 {
		t.Errorf("Expected ratio 0.3, got %v", ratio)
	}

	ratio = OpennessRatio(openEye(1.5))
	if math.Abs(ratio-0.05) > 1e-9 {
		t.Errorf("Expected ratio 0.05, got %v", ratio)
	}
}

func TestOpennessRatio_UsesExtremeLids(t *testing.T) {
	ls := LandmarkSet{
		{X: 0, Y: 10},
		{X: 3, Y: 8}, // higher upper lid point wins
		{X: 6, Y: 9},
		{X: 20, Y: 10},
		{X: 6, Y: 11},
		{X: 3, Y: 12}, // lower lower lid point wins
	}
	ratio := OpennessRatio(ls)
	if math.Abs(ratio-0.2) > 1e-9 {
		t.Errorf("Expected ratio 0.2 from lid extremes, got %v", ratio)
	}
}

func TestOpennessRatio_Degenerate(t *testing.T) {
	zeroWidth := openEye(4)
	zeroWidth[InnerCorner].X = zeroWidth[OuterCorner].X

	tooTall := openEye(4)
	tooTall[UpperLidA].Y = -100

	nan := openEye(4)
	nan[LowerLidB].Y = math.NaN()

	inf := openEye(4)
	inf[InnerCorner].X = math.Inf(1)

	tests := []struct {
		name string
		ls   LandmarkSet
	}{
		{"nil", nil},
		{"too few points", openEye(4)[:5]},
		{"zero width", zeroWidth},
		{"ratio above one", tooTall},
		{"nan", nan},
		{"inf", inf},
	}

	for _, tc := range tests {
		if got := OpennessRatio(tc.ls); got != DefaultOpenness {
			t.Errorf("%s: ratio = %v, want %v", tc.name, got, DefaultOpenness)
		}
	}
}

func TestOpennessRatio_ZeroWidthAlwaysDefault(t *testing.T) {
	for x := -50.0; x <= 50; x += 12.5 {
		ls := openEye(float64(int(x) % 7))
		ls[OuterCorner].X = x
		ls[InnerCorner].X = x
		if got := OpennessRatio(ls); got != 0.3 {
			t.Errorf("x=%v: ratio = %v, want exactly 0.3", x, got)
		}
	}
}

func TestAverageOpenness(t *testing.T) {
	eyes := EyeFeatureSet{Left: openEye(3), Right: openEye(6)}
	avg := AverageOpenness(eyes)
	if math.Abs(avg-0.15) > 1e-9 {
		t.Errorf("Expected average 0.15, got %v", avg)
	}

	// A missing side falls back to the default ratio
	avg = AverageOpenness(EyeFeatureSet{Left: openEye(3)})
	if math.Abs(avg-(0.1+DefaultOpenness)/2) > 1e-9 {
		t.Errorf("Expected average with fallback %v, got %v", (0.1+DefaultOpenness)/2, avg)
	}
}
