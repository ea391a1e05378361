// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"math"
	"math/bits"

	"tagwire.dev/asn1"
	"tagwire.dev/asn1/internal/vlq"
)

// LengthIndefinite when used as the length of a [header] indicates that the
// element uses the constructed indefinite-length format.
const LengthIndefinite = -1

// header represents the identifier and length octets of an encoded element.
// The form bit of the tag mirrors the constructed flag.
type header struct {
	tag         asn1.Tag
	constructed bool
	length      int // content octets, or LengthIndefinite
	size        int // number of identifier and length octets
}

// isEndOfContents reports whether h is the end-of-contents marker.
func (h header) isEndOfContents() bool {
	return h.tag == asn1.Tag{}
}

// appendTag appends the identifier octets for t to dst. The form recorded in t
// is ignored; the constructed argument decides bit 6 of the leading octet.
func appendTag(dst []byte, t asn1.Tag, constructed bool) []byte {
	b := uint8(t.Class)
	if constructed {
		b |= 0x20
	}
	if t.Number < 31 {
		return append(dst, b|uint8(t.Number))
	}
	dst = append(dst, b|0x1f)
	return vlq.Append(dst, t.Number)
}

// appendLength appends the length octets for a content region of the given
// size to dst. If indefinite is true the single indefinite-length octet 0x80
// is emitted and length is ignored.
func appendLength(dst []byte, length int, indefinite bool) ([]byte, error) {
	if indefinite {
		return append(dst, 0x80), nil
	}
	if length < 128 {
		return append(dst, byte(length)), nil
	}
	numBytes := (bits.Len(uint(length)) + 7) / 8
	if numBytes > 126 {
		return dst, errValue(KindInvalidLength, "length octets overflow")
	}
	dst = append(dst, 0x80|byte(numBytes))
	for ; numBytes > 0; numBytes-- {
		dst = append(dst, byte(length>>uint((numBytes-1)*8)))
	}
	return dst, nil
}

// decodeHeader parses the identifier and length octets at the start of b.
// offset is the position of b within the overall substrate and is used for
// error reporting only.
//
// The end-of-contents marker is returned as a zero-tag header of size 2;
// whether it is permitted at the current position is for the caller to
// decide. A marker with the constructed bit set, a long-form length or a
// nonzero length is rejected here.
func decodeHeader(b []byte, offset int) (header, error) {
	if len(b) == 0 {
		return header{}, errAt(KindTruncatedInput, offset, "missing identifier octet")
	}
	id := b[0]
	h := header{
		tag:         asn1.Tag{Class: asn1.Class(id & 0xC0), Form: asn1.Form(id & 0x20), Number: uint32(id & 0x1f)},
		constructed: id&0x20 != 0,
	}
	i := 1

	if id == 0x00 || id == 0x20 {
		// The reserved [UNIVERSAL 0] tag only appears as the two-octet
		// end-of-contents marker.
		if h.constructed {
			return h, errAt(KindUnexpectedEndOfContents, offset, "end-of-contents with constructed form")
		}
		if len(b) < 2 {
			return h, errAt(KindTruncatedInput, offset, "missing length octet")
		}
		if b[1] != 0x00 {
			return h, errAt(KindUnexpectedEndOfContents, offset, "end-of-contents with nonzero length")
		}
		h.tag = asn1.Tag{}
		h.size = 2
		return h, nil
	}

	if id&0x1f == 0x1f {
		n, l, err := vlq.Decode[uint32](b[1:])
		switch err {
		case nil:
		case vlq.ErrTruncated:
			return h, errAt(KindTruncatedInput, offset, "identifier octets exhausted")
		case vlq.ErrNotMinimal:
			return h, errAt(KindMalformedPrimitive, offset, "identifier octets not minimally encoded")
		default:
			return h, errAt(KindValueOutOfRange, offset, "tag number too large")
		}
		h.tag.Number = n
		i += l
	}

	if h.tag.Class == asn1.ClassUniversal && h.tag.Number == asn1.NumberReserved {
		return h, errAt(KindMalformedPrimitive, offset, "reserved tag number in long form")
	}

	if i >= len(b) {
		return h, errAt(KindTruncatedInput, offset, "missing length octet")
	}
	switch l := b[i]; {
	case l < 0x80:
		h.length = int(l)
		i++
	case l == 0x80:
		if !h.constructed {
			return h, errAt(KindInvalidLength, offset, "indefinite length on primitive element")
		}
		h.length = LengthIndefinite
		i++
	case l == 0xFF:
		return h, errAt(KindInvalidLength, offset, "reserved length octet")
	default:
		numBytes := int(l & 0x7f)
		i++
		for ; numBytes > 0; numBytes-- {
			if i >= len(b) {
				return h, errAt(KindTruncatedInput, offset, "length octets exhausted")
			}
			if h.length > math.MaxInt>>8 {
				return h, errAt(KindInvalidLength, offset, "length too large")
			}
			h.length = h.length<<8 | int(b[i])
			i++
		}
	}
	h.size = i
	return h, nil
}

// isEndOfContentsOctets reports whether b starts with the two end-of-contents
// octets.
func isEndOfContentsOctets(b []byte) bool {
	return len(b) >= 2 && b[0] == 0x00 && b[1] == 0x00
}

// skipElement determines the extent of the complete element at the start of b
// without interpreting its contents. It returns the total number of octets
// the element occupies, including identifier, length and any end-of-contents
// markers. offset is the position of b within the overall substrate.
func skipElement(b []byte, offset int) (int, error) {
	h, err := decodeHeader(b, offset)
	if err != nil {
		return 0, err
	}
	if h.isEndOfContents() {
		return 0, errAt(KindUnexpectedEndOfContents, offset, "unexpected end-of-contents")
	}
	if h.length != LengthIndefinite {
		if h.size+h.length > len(b) {
			return 0, errAt(KindTruncatedInput, offset, "content region shorter than declared length")
		}
		return h.size + h.length, nil
	}
	n := h.size
	for {
		if isEndOfContentsOctets(b[n:]) {
			return n + 2, nil
		}
		c, err := skipElement(b[n:], offset+n)
		if err != nil {
			return 0, err
		}
		n += c
	}
}
