// Package entropy provides the simulation's random stream: a seeded PRNG for
// discrete choices and layered simplex noise for smooth brownian motion and
// flow turbulence. Every stochastic decision in the engine draws from one
// Source so that a run is reproducible from its seed.
package entropy

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Source is a deterministic random stream.
type Source struct {
	rng   *rand.Rand
	noise opensimplex.Noise
}

// NewSource creates a Source from a seed. Seed 0 picks a random seed.
func NewSource(seed int64) *Source {
	if seed == 0 {
		seed = rand.Int63()
	}
	return &Source{
		rng:   rand.New(rand.NewSource(seed)),
		noise: opensimplex.New(seed),
	}
}

// Float returns a random float64 in [0, 1).
func (s *Source) Float() float64 { return s.rng.Float64() }

// Range returns a random float64 in [lo, hi).
func (s *Source) Range(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

// Intn returns a random int in [0, n).
func (s *Source) Intn(n int) int { return s.rng.Intn(n) }

// Perm returns a random permutation of [0, n).
func (s *Source) Perm(n int) []int { return s.rng.Perm(n) }

// Shuffle randomizes the order of n elements using swap.
func (s *Source) Shuffle(n int, swap func(i, j int)) { s.rng.Shuffle(n, swap) }

// Angle returns a random angle in [0, 2π).
func (s *Source) Angle() float64 { return s.rng.Float64() * 2 * math.Pi }

// Impulse returns a random 2D impulse with magnitude in [0, scale).
func (s *Source) Impulse(scale float64) (dx, dy float64) {
	a := s.Angle()
	m := s.rng.Float64() * scale
	return math.Cos(a) * m, math.Sin(a) * m
}

// Noise2 samples smooth noise in [-1, 1] at (x, y).
func (s *Source) Noise2(x, y float64) float64 {
	return s.noise.Eval2(x, y)
}

// Octave layers multiple noise frequencies for a more organic signal.
func (s *Source) Octave(x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += s.noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
