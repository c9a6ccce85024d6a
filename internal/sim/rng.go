package sim

// RNG is a seeded mulberry32 generator. Every probabilistic decision in the
// simulation draws from one of these, so a fixed seed reproduces a full
// session's event sequence exactly.
type RNG struct {
	state uint32
}

// NewRNG creates a generator from a 32-bit seed.
func NewRNG(seed uint32) *RNG {
	return &RNG{state: seed}
}

// Next returns a float in [0, 1).
func (r *RNG) Next() float64 {
	r.state += 0x6d2b79f5
	t := (r.state ^ (r.state >> 15)) * (r.state | 1)
	t = (t + (t^(t>>7))*(t|61)) ^ t
	return float64(t^(t>>14)) / 4294967296.0
}

// NextInt returns an integer in [min, max] inclusive.
func (r *RNG) NextInt(min, max int) int {
	return int(r.Next()*float64(max-min+1)) + min
}

// NextFloat returns a float in [min, max).
func (r *RNG) NextFloat(min, max float64) float64 {
	return r.Next()*(max-min) + min
}

// Intn returns an integer in [0, n).
func (r *RNG) Intn(n int) int {
	return int(r.Next() * float64(n))
}

// Chance returns true with the given probability.
func (r *RNG) Chance(probability float64) bool {
	return r.Next() < probability
}

// Pick returns a random element of items. Items must be non-empty.
func Pick[T any](r *RNG, items []T) T {
	return items[r.Intn(len(items))]
}
