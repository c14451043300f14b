package synth

// Salts keep the pseudo-random streams for different parameters independent
const (
	saltStart uint64 = iota + 1
	saltEnd
	saltWobble
	saltVelocity
	saltSnare
	saltHiHat
)

// hash01 maps (index, salt) to [0, 1) with the splitmix64 finalizer.
// It is a pure function, so renders are reproducible and safe to run concurrently.
func hash01(index, salt uint64) float64 {
	x := index*0x9E3779B97F4A7C15 + salt*0xD1B54A32D192ED03
	x ^= x >> 30
	x *= 0xBF58476D1CE4E5B9
	x ^= x >> 27
	x *= 0x94D049BB133111EB
	x ^= x >> 31
	return float64(x>>11) * (1.0 / (1 << 53))
}

// hashSigned maps (index, salt) to [-1, 1)
func hashSigned(index, salt uint64) float64 {
	return 2*hash01(index, salt) - 1
}
