package composer

import (
	"crypto/rand"
	"errors"
	"math/big"
	mrand "math/rand/v2"
	"sync"
)

// Source supplies uniformly distributed integers.
// Implementations must be safe for concurrent use.
type Source interface {
	// IntN returns a uniform random int in [0, n). n must be positive.
	IntN(n int) (int, error)
}

var errNonPositiveBound = errors.New("bound must be positive")

type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
func NewCryptoSource() Source {
	return cryptoSource{}
}

func (cryptoSource) IntN(n int) (int, error) {
	if n <= 0 {
		return 0, errNonPositiveBound
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

// seededSource is deterministic for a given seed. Meant for tests and
// reproducible sampling, never for real passwords.
type seededSource struct {
	mu  sync.Mutex
	rnd *mrand.Rand
}

// NewSeededSource returns a deterministic Source seeded with seed.
func NewSeededSource(seed uint64) Source {
	return &seededSource{
		rnd: mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (s *seededSource) IntN(n int) (int, error) {
	if n <= 0 {
		return 0, errNonPositiveBound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.IntN(n), nil
}
