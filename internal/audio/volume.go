package audio

import "math"

// Volume returns the RMS amplitude of a frame. An empty frame has volume 0.
func Volume(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}

	var s float64
	for _, x := range f {
		v := float64(x)
		s += v * v
	}
	return math.Sqrt(s / float64(len(f)))
}
