// Package vlq implements [Variable-length quantity] encoding as used in the
// identifier octets of BER and in OBJECT IDENTIFIER sub-identifiers. A VLQ is
// essentially a base-128 big-endian representation of an unsigned integer with
// the eighth bit of each octet marking continuation. VLQ is identical to
// [LEB128] except in endianness.
//
// All functions in this package operate on byte slices. The codec layers work
// on fully materialized octet buffers, so there is no reader or writer form.
//
// [Variable-length quantity]: https://en.wikipedia.org/wiki/Variable-length_quantity
// [LEB128]: https://en.wikipedia.org/wiki/LEB128
package vlq

import (
	"errors"
	"math/bits"
	"unsafe"

	"golang.org/x/exp/constraints"
)

var (
	// ErrTruncated is returned when a VLQ is cut short by the end of the input.
	ErrTruncated = errors.New("vlq is truncated")
	// ErrNotMinimal is returned when a VLQ starts with a 0x80 octet.
	ErrNotMinimal = errors.New("vlq is not minimally encoded")
	// ErrOverflow is returned when a VLQ does not fit into the target type.
	ErrOverflow = errors.New("vlq too large for target type")
)

// Len returns the number of bytes needed to encode n as a VLQ.
func Len[T constraints.Unsigned](n T) int {
	if n == 0 {
		return 1
	}
	l := 0
	for i := n; i > 0; i >>= 7 {
		l++
	}
	return l
}

// Append appends the VLQ encoding of n to dst and returns the extended slice.
func Append[T constraints.Unsigned](dst []byte, n T) []byte {
	l := Len(n)
	for j := l - 1; j >= 0; j-- {
		b := byte(n>>(j*7)) & 0x7f
		if j > 0 {
			b |= 0x80
		}
		dst = append(dst, b)
	}
	return dst
}

// Decode parses a minimally encoded unsigned VLQ from the start of b. It
// returns the decoded value and the number of bytes consumed. The maximum
// allowed value is limited by the size of T.
//
// A VLQ starting with a 0x80 octet (an encoded leading zero) is rejected with
// [ErrNotMinimal].
func Decode[T constraints.Unsigned](b []byte) (ret T, n int, err error) {
	if len(b) == 0 {
		return 0, 0, ErrTruncated
	}
	if b[0] == 0x80 {
		return 0, 0, ErrNotMinimal
	}

	numBits := 0
	for ; n < len(b); n++ {
		ret = ret<<7 | T(b[n]&0x7f)
		if numBits == 0 {
			numBits = bits.Len8(b[n] & 0x7f)
		} else {
			numBits += 7
		}
		if numBits > int(unsafe.Sizeof(ret)*8) {
			return 0, n + 1, ErrOverflow
		}
		if b[n]&0x80 == 0 {
			return ret, n + 1, nil
		}
	}
	return 0, n, ErrTruncated
}
