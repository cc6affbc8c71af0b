package numerics

import "sort"

// MedianLuma computes the median Rec.709 luminance over an odd-sized square
// neighborhood centered at (x, y), reading from an edge-clamped buffer.
// size must be 3, 5, or 7, matching the dust_size kernel selection in the
// Retouch auto-dust detector (spec 4.4).
func MedianLuma(buf *Buffer, x, y, size int) float32 {
	half := size / 2
	samples := make([]float32, 0, size*size)
	for dy := -half; dy <= half; dy++ {
		for dx := -half; dx <= half; dx++ {
			r, g, b := buf.At(x+dx, y+dy)
			samples = append(samples, Rec709Luma(r, g, b))
		}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return samples[len(samples)/2]
}

// MedianRGB computes the per-channel median over a size x size neighborhood,
// used as the Retouch reference value (spec 4.4, "reference value via a
// median filter").
func MedianRGB(buf *Buffer, x, y, size int) (r, g, b float32) {
	half := size / 2
	n := size * size
	rs := make([]float32, 0, n)
	gs := make([]float32, 0, n)
	bs := make([]float32, 0, n)
	for dy := -half; dy <= half; dy++ {
		for dx := -half; dx <= half; dx++ {
			pr, pg, pb := buf.At(x+dx, y+dy)
			rs = append(rs, pr)
			gs = append(gs, pg)
			bs = append(bs, pb)
		}
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i] < rs[j] })
	sort.Slice(gs, func(i, j int) bool { return gs[i] < gs[j] })
	sort.Slice(bs, func(i, j int) bool { return bs[i] < bs[j] })
	mid := n / 2
	return rs[mid], gs[mid], bs[mid]
}

// MinLuma3x3 computes the minimum Rec.709 luminance over the 3x3
// neighborhood of (x, y). Used by manual healing to reject residual dust
// in the sampled reference (spec 4.4).
func MinLuma3x3(buf *Buffer, x, y int) float32 {
	min := float32(1e38)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			r, g, b := buf.At(x+dx, y+dy)
			l := Rec709Luma(r, g, b)
			if l < min {
				min = l
			}
		}
	}
	return min
}
