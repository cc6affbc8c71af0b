package numerics

import "math"

// GaussianKernel1D generates a normalized 1D Gaussian kernel of radius
// sigma, sized 2*ceil(sigma*3)+1 (three standard deviations each side),
// matching the teacher's separable-blur kernel generation.
func GaussianKernel1D(sigma float64) []float32 {
	if sigma <= 0 {
		return []float32{1.0}
	}
	half := int(math.Ceil(sigma * 3))
	size := half*2 + 1
	kernel := make([]float32, size)
	twoSigmaSq := 2 * sigma * sigma
	var sum float64
	for i := 0; i < size; i++ {
		x := float64(i - half)
		v := math.Exp(-(x * x) / twoSigmaSq)
		kernel[i] = float32(v)
		sum += v
	}
	if sum > 0 {
		inv := float32(1.0 / sum)
		for i := range kernel {
			kernel[i] *= inv
		}
	}
	return kernel
}

// BlurChannelSeparable applies a separable Gaussian blur to a single-channel
// plane (width x height, row-major, length == width*height), used by the
// Lab-tools stage to blur only the L channel while leaving a/b untouched
// (spec 4.6). Edge samples clamp, matching every other neighborhood
// operation in the pipeline.
func BlurChannelSeparable(plane []float32, width, height int, sigma float64) []float32 {
	out := make([]float32, len(plane))
	if sigma <= 0 {
		copy(out, plane)
		return out
	}
	kernel := GaussianKernel1D(sigma)
	half := len(kernel) / 2

	temp := make([]float32, len(plane))
	for y := 0; y < height; y++ {
		row := y * width
		for x := 0; x < width; x++ {
			var acc float32
			for k, w := range kernel {
				sx := x + k - half
				if sx < 0 {
					sx = 0
				} else if sx >= width {
					sx = width - 1
				}
				acc += plane[row+sx] * w
			}
			temp[row+x] = acc
		}
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var acc float32
			for k, w := range kernel {
				sy := y + k - half
				if sy < 0 {
					sy = 0
				} else if sy >= height {
					sy = height - 1
				}
				acc += temp[sy*width+x] * w
			}
			out[y*width+x] = acc
		}
	}
	return out
}
