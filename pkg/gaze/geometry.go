package gaze

import "math"

// Landmark indices of a single eye, in the order the tracker reports them.
const (
	OuterCorner  = 0
	UpperLidA    = 1
	UpperLidB    = 2
	InnerCorner  = 3
	LowerLidA    = 4
	LowerLidB    = 5
	NumLandmarks = 6
)

// DefaultOpenness is the ratio reported when the landmark geometry is unusable.
const DefaultOpenness = 0.3

// Point is a 2D landmark coordinate in tracker pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LandmarkSet is the ordered landmark list of one eye.
// A nil set means the tracker produced nothing usable for that side.
type LandmarkSet []Point

// EyeFeatureSet carries the landmarks of both eyes for one frame.
type EyeFeatureSet struct {
	Left  LandmarkSet `json:"left"`
	Right LandmarkSet `json:"right"`
}

// OpennessRatio returns the vertical/horizontal extent ratio of one eye.
// It never fails: sets with fewer than six points, zero width, non-finite
// coordinates or a ratio outside [0,1] all yield DefaultOpenness.
func OpennessRatio(ls LandmarkSet) float64 {
	if len(ls) < NumLandmarks {
		return DefaultOpenness
	}

	upperY := math.Min(ls[UpperLidA].Y, ls[UpperLidB].Y)
	lowerY := math.Max(ls[LowerLidA].Y, ls[LowerLidB].Y)
	leftX := ls[OuterCorner].X
	rightX := ls[InnerCorner].X

	height := math.Abs(lowerY - upperY)
	width := math.Abs(rightX - leftX)

	if width == 0 || !finite(height) || !finite(width) {
		return DefaultOpenness
	}

	ratio := height / width
	if !finite(ratio) || ratio < 0 || ratio > 1 {
		return DefaultOpenness
	}
	return ratio
}

// AverageOpenness is the mean openness of both eyes.
func AverageOpenness(eyes EyeFeatureSet) float64 {
	return (OpennessRatio(eyes.Left) + OpennessRatio(eyes.Right)) / 2.0
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
