package chain

import (
	"fmt"
	"math/big"
	"strings"
)

// zeroAddress is what getPair returns when no pair exists.
const zeroAddress = "0x0000000000000000000000000000000000000000"

// IsZeroAddress reports whether the hex address is the zero address.
func IsZeroAddress(addr string) bool {
	return strings.EqualFold(addr, zeroAddress)
}

// SameAddress compares two hex addresses case-insensitively.
func SameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}

// AsAddress coerces a decoded output value into a hex address string.
func AsAddress(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("chain: expected address string, got %T", v)
	}
	return s, nil
}

// AsAddresses coerces a decoded output value into a hex address slice.
func AsAddresses(v any) ([]string, error) {
	s, ok := v.([]string)
	if !ok {
		return nil, fmt.Errorf("chain: expected address slice, got %T", v)
	}
	return s, nil
}

// AsBigInt coerces a decoded output value into a *big.Int. Narrow native
// integer outputs are widened.
func AsBigInt(v any) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		return n, nil
	case uint8:
		return big.NewInt(int64(n)), nil
	case uint16:
		return big.NewInt(int64(n)), nil
	case uint32:
		return big.NewInt(int64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case int64:
		return big.NewInt(n), nil
	default:
		return nil, fmt.Errorf("chain: expected integer, got %T", v)
	}
}

// AsUint8 coerces a decoded output value into a uint8 (token decimals).
func AsUint8(v any) (uint8, error) {
	switch n := v.(type) {
	case uint8:
		return n, nil
	case *big.Int:
		if n.IsUint64() && n.Uint64() <= 255 {
			return uint8(n.Uint64()), nil
		}
		return 0, fmt.Errorf("chain: integer %s out of uint8 range", n)
	default:
		return 0, fmt.Errorf("chain: expected uint8, got %T", v)
	}
}

// AsString coerces a decoded output value into a string (token symbol).
func AsString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("chain: expected string, got %T", v)
	}
	return s, nil
}
