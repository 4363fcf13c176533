package seedrand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashKnownValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int32
	}{
		{"", 0},
		{"a", 97},
		{"ab", 97*31 + 98},
		{"hello", 99162322},
		// Wraps past int32 while folding.
		{"https://example.com", 632849614},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Hash(tt.in))
		})
	}
}

func TestHashDeterministic(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"x", "https://a.test/path?q=1", "ünïcödé", "😀 emoji"} {
		assert.Equal(t, Hash(s), Hash(s), s)
	}
}

func TestHashUsesUTF16Units(t *testing.T) {
	t.Parallel()

	// U+1F600 encodes as the surrogate pair D83D DE00.
	want := int32(0xD83D)*31 + int32(0xDE00)
	assert.Equal(t, want, Hash("😀"))
}

func TestRandFirstValues(t *testing.T) {
	t.Parallel()

	r := New(0)
	assert.InDelta(t, 49297.0/233280, r.Next(), 1e-12)
	// (49297*9301 + 49297) % 233280
	assert.InDelta(t, float64((49297*9301+49297)%233280)/233280, r.Next(), 1e-12)
}

func TestRandNegativeSeedUsesAbs(t *testing.T) {
	t.Parallel()

	a, b := New(-12345), New(12345)
	for i := 0; i < 50; i++ {
		require.Equal(t, b.Next(), a.Next())
	}
}

func TestRandDeterministicAndInRange(t *testing.T) {
	t.Parallel()

	for _, seed := range []int64{0, 1, 42, -7, 2147483647, -2147483648} {
		a, b := New(seed), New(seed)
		for i := 0; i < 1000; i++ {
			va, vb := a.Next(), b.Next()
			require.Equal(t, va, vb)
			require.GreaterOrEqual(t, va, 0.0)
			require.Less(t, va, 1.0)
		}
	}
}

func TestForTargetMatchesHashSeed(t *testing.T) {
	t.Parallel()

	a := ForTarget("https://example.com")
	b := New(int64(Hash("https://example.com")))
	assert.Equal(t, b.Next(), a.Next())
}

func TestSequence(t *testing.T) {
	t.Parallel()

	s := NewSequence(0.1, 0.5)
	assert.Equal(t, 0.1, s.Next())
	assert.Equal(t, 0.5, s.Next())
	assert.Equal(t, 0.1, s.Next())
	assert.Equal(t, 3, s.Calls())

	empty := NewSequence()
	assert.Zero(t, empty.Next())
}

func TestIntn(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2, Intn(NewSequence(0.5), 5))
	assert.Equal(t, 4, Intn(NewSequence(0.99), 5))
	assert.Equal(t, 0, Intn(NewSequence(0), 5))
}

func TestUnseededRange(t *testing.T) {
	t.Parallel()

	src := Unseeded()
	for i := 0; i < 1000; i++ {
		v := src.Next()
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}
