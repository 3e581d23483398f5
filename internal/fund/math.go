package fund

import (
	"fmt"
	"math/big"

	"github.com/quantfold/vault/internal/domain"
)

// mulDiv returns floor(a * b / c), computing the product with big-integer
// intermediates so it cannot truncate before the division. c must be > 0.
// Fails with ErrRange when the quotient itself does not fit in 64 bits.
func mulDiv(a, b, c uint64) (uint64, error) {
	p := new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
	p.Quo(p, new(big.Int).SetUint64(c))
	if !p.IsUint64() {
		return 0, fmt.Errorf("%w: %d * %d / %d exceeds the representable amount", domain.ErrRange, a, b, c)
	}
	return p.Uint64(), nil
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
