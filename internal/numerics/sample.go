package numerics

// BilinearSample samples buf at floating-point pixel coordinates (x, y).
// Out-of-bounds samples clamp to the edge, matching the Transform stage's
// edge-extension contract (spec 4.3).
func BilinearSample(buf *Buffer, x, y float64) (r, g, b float32) {
	x0 := int(floorf(x))
	y0 := int(floorf(y))
	x1 := x0 + 1
	y1 := y0 + 1

	fx := float32(x - float64(x0))
	fy := float32(y - float64(y0))

	r00, g00, b00 := buf.At(x0, y0)
	r10, g10, b10 := buf.At(x1, y0)
	r01, g01, b01 := buf.At(x0, y1)
	r11, g11, b11 := buf.At(x1, y1)

	r0 := lerp(r00, r10, fx)
	r1 := lerp(r01, r11, fx)
	g0 := lerp(g00, g10, fx)
	g1 := lerp(g01, g11, fx)
	b0 := lerp(b00, b10, fx)
	b1 := lerp(b01, b11, fx)

	return lerp(r0, r1, fy), lerp(g0, g1, fy), lerp(b0, b1, fy)
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

func floorf(v float64) float64 {
	i := int64(v)
	if v < 0 && float64(i) != v {
		i--
	}
	return float64(i)
}
