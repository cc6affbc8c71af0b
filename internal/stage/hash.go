package stage

// hash2 produces a deterministic pseudo-random value in [0,1) from two
// integer coordinates and a salt, used for dust-grain synthesis and
// manual-heal sample jitter (spec 4.4). Coordinates are always full-image
// coordinates, never tile-local, so retouching is independent of tile
// offset (spec 3 invariant iii).
func hash2(x, y, salt int32) float32 {
	h := uint32(x)*374761393 + uint32(y)*668265263 + uint32(salt)*2246822519
	h = (h ^ (h >> 13)) * 1274126177
	h ^= h >> 16
	return float32(h%1_000_000) / 1_000_000
}
