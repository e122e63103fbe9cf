package staking

import "github.com/holiman/uint256"

// AlphaToTao prices subnet units in base currency through the subnet reserves:
// alpha * taoReserve / alphaReserve. The product is computed in 256 bits and
// the result clamped to uint64. An empty alpha reserve prices everything at 0.
func AlphaToTao(alpha, taoReserve, alphaReserve uint64) uint64 {
	return mulDiv(alpha, taoReserve, alphaReserve, 0)
}

// TaoToAlpha is the inverse of AlphaToTao: tao * alphaReserve / taoReserve.
// When either reserve is empty the subnet has no price yet and units are
// minted 1:1.
func TaoToAlpha(tao, taoReserve, alphaReserve uint64) uint64 {
	if taoReserve == 0 || alphaReserve == 0 {
		return tao
	}
	return mulDiv(tao, alphaReserve, taoReserve, tao)
}

func mulDiv(a, b, denominator, fallback uint64) uint64 {
	if denominator == 0 {
		return fallback
	}
	product := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	quotient := product.Div(product, uint256.NewInt(denominator))
	if !quotient.IsUint64() {
		return ^uint64(0)
	}
	return quotient.Uint64()
}
