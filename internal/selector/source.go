package selector

import (
	cryptorand "crypto/rand"
	"math/big"
	"math/rand/v2"
)

// Source yields uniformly distributed integers in [0, n).
type Source interface {
	IntN(n int) int
}

type cryptoSource struct {
	fallback func(n int) int
}

// NewCryptoSource returns a Source backed by crypto/rand. If the system
// generator ever fails, draws come from math/rand/v2 instead.
func NewCryptoSource() Source {
	return &cryptoSource{fallback: rand.IntN}
}

func (s *cryptoSource) IntN(n int) int {
	if n <= 0 {
		return 0
	}

	v, err := cryptorand.Int(cryptorand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// #nosec G404 -- only reached when the system generator is unavailable
		return s.fallback(n)
	}

	return int(v.Int64())
}

// Between returns a uniform integer in the inclusive range [lo, hi].
// If hi < lo it returns lo.
func Between(src Source, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return lo + src.IntN(hi-lo+1)
}
