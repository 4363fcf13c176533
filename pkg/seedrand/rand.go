package seedrand

import "math/rand/v2"

const (
	lcgMultiplier = 9301
	lcgIncrement  = 49297
	lcgModulus    = 233280
)

// Source yields floats in [0,1).
type Source interface {
	Next() float64
}

// Rand is the seeded linear congruential generator.
// It is not safe for concurrent use.
type Rand struct {
	state int64
}

// New returns a generator whose state starts at |seed|.
func New(seed int64) *Rand {
	if seed < 0 {
		seed = -seed
	}
	return &Rand{state: seed}
}

// ForTarget seeds a generator from Hash(target).
func ForTarget(target string) *Rand {
	return New(int64(Hash(target)))
}

// Next advances the state and returns state/233280.
func (r *Rand) Next() float64 {
	r.state = (r.state*lcgMultiplier + lcgIncrement) % lcgModulus
	return float64(r.state) / lcgModulus
}

// Intn returns floor(Next()*n).
func Intn(src Source, n int) int {
	return int(src.Next() * float64(n))
}

type unseeded struct{}

func (unseeded) Next() float64 { return rand.Float64() }

// Unseeded returns a Source backed by the process-wide generator.
// Safe for concurrent use.
func Unseeded() Source { return unseeded{} }

// Sequence replays a fixed list of values, wrapping around when exhausted.
// Used to make effectful generators deterministic in tests.
type Sequence struct {
	values []float64
	pos    int
	calls  int
}

// NewSequence returns a Sequence over values. An empty sequence yields 0.
func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: values}
}

// Next returns the next value of the sequence.
func (s *Sequence) Next() float64 {
	s.calls++
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.pos%len(s.values)]
	s.pos++
	return v
}

// Calls reports how many values have been drawn.
func (s *Sequence) Calls() int { return s.calls }
