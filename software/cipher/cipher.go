// Package cipher implements the keyed per-pixel transforms: a self-inverse XOR
// and a modular addition whose inverse subtracts the key. Neither is secure;
// they exist to scramble an image reversibly.
package cipher

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/samber/lo"
)

type Algorithm string

const (
	XOR    Algorithm = "xor"
	AddKey Algorithm = "add_key"
)

// Algorithms lists every supported selector in CLI order.
var Algorithms = []Algorithm{XOR, AddKey}

var ErrInvalidAlgorithm = errors.New("unsupported algorithm")

func (a Algorithm) Valid() bool {
	return lo.Contains(Algorithms, a)
}

func (a Algorithm) String() string {
	return string(a)
}

// ParseAlgorithm maps a CLI selector onto an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	a := Algorithm(s)
	if !a.Valid() {
		names := lo.Map(Algorithms, func(a Algorithm, _ int) string { return "'" + string(a) + "'" })
		return "", fmt.Errorf("%w %q: choose %s", ErrInvalidAlgorithm, s, strings.Join(names, " or "))
	}
	return a, nil
}

type Direction int

const (
	Forward Direction = iota
	Inverse
)

func (d Direction) String() string {
	if d == Inverse {
		return "inverse"
	}
	return "forward"
}

// NormalizeKey reduces key into [0,255] using floored modulo, so -1 maps to 255.
func NormalizeKey(key int) uint8 {
	m := key % 256
	if m < 0 {
		m += 256
	}
	return uint8(m)
}

var modulus = big.NewInt(256)

// NormalizeBigKey is NormalizeKey for keys outside the int range.
func NormalizeBigKey(key *big.Int) uint8 {
	// big.Int.Mod is Euclidean, always in [0,256).
	return uint8(new(big.Int).Mod(key, modulus).Uint64())
}

// Table returns the channel mapping for one algorithm, key and direction:
// channel value c becomes t[c].
func Table(key uint8, alg Algorithm, dir Direction) ([256]uint8, error) {
	var t [256]uint8
	switch alg {
	case XOR:
		for c := range t {
			t[c] = uint8(c) ^ key
		}
	case AddKey:
		k := key
		if dir == Inverse {
			k = -key
		}
		for c := range t {
			t[c] = uint8(c) + k
		}
	default:
		return t, fmt.Errorf("%w %q", ErrInvalidAlgorithm, string(alg))
	}
	return t, nil
}

// NormalizeKey64 is NormalizeKey for int64 keys on any platform.
func NormalizeKey64(key int64) uint8 {
	m := key % 256
	if m < 0 {
		m += 256
	}
	return uint8(m)
}
