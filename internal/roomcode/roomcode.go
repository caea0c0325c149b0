// Package roomcode generates short, human-typeable room codes for the
// rendezvous relay fabric.
package roomcode

import (
	"math/rand/v2"
	"time"
)

const (
	codeLength = 8

	timestampDigits = 5
	randomDigits    = 3
)

var (
	timestampModulo = pow36(timestampDigits)
	randomModulo    = pow36(randomDigits)
)

const base36Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

func pow36(n int) uint64 {
	v := uint64(1)
	for i := 0; i < n; i++ {
		v *= 36
	}
	return v
}

// Generate returns an 8-character base-36 room code composed of a 10ms time
// bucket (5 digits) and a random suffix (3 digits), left-padded with '0'.
func Generate() string {
	millis := uint64(time.Now().UnixMilli())
	return generate(millis, rand.Uint64N(randomModulo))
}

// generate is the deterministic core used by Generate and by tests that
// need to pin the time and random components (see §8 S6).
func generate(millisSinceEpoch, randomPart uint64) string {
	timePart := (millisSinceEpoch / 10) % timestampModulo
	randomPart %= randomModulo
	combined := timePart*randomModulo + randomPart
	return toBase36(combined, codeLength)
}

// GenerateFrom exposes the deterministic core for tests.
func GenerateFrom(millisSinceEpoch, randomPart uint64) string {
	return generate(millisSinceEpoch, randomPart)
}

func toBase36(value uint64, length int) string {
	if value == 0 {
		return zeros(length)
	}
	buf := make([]byte, 0, length)
	for value > 0 {
		buf = append(buf, base36Chars[value%36])
		value /= 36
	}
	// buf is in low-to-high digit order; reverse it.
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	if len(buf) < length {
		padded := make([]byte, length)
		pad := length - len(buf)
		for i := 0; i < pad; i++ {
			padded[i] = '0'
		}
		copy(padded[pad:], buf)
		return string(padded)
	}
	return string(buf)
}

func zeros(length int) string {
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = '0'
	}
	return string(buf)
}
