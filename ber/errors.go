// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"errors"
	"strconv"
)

// Kind classifies the ways in which encoding or decoding can fail. Every error
// produced by this package is an [*Error] carrying one of these kinds.
type Kind int

//go:generate go tool stringer -type=Kind -trimprefix=Kind

const (
	// KindTruncatedInput indicates that a content region is shorter than its
	// declared length, or that the identifier or length octets end mid-parse.
	KindTruncatedInput Kind = iota

	// KindInvalidLength indicates a reserved length octet (0xFF), more than
	// 126 length octets, or an indefinite length on a primitive element.
	KindInvalidLength

	// KindInvalidTagForm indicates a constructed bit inconsistent with the
	// type, e.g. a constructed INTEGER or a primitive SEQUENCE.
	KindInvalidTagForm

	// KindUnexpectedEndOfContents indicates an end-of-contents marker inside
	// definite-length content, an EOC with a nonzero or long-form length, an
	// EOC with the constructed bit set, or an EOC at the top level when not
	// explicitly permitted.
	KindUnexpectedEndOfContents

	// KindUnknownType indicates that no codec matches the value or tag and no
	// spec guidance was supplied.
	KindUnknownType

	// KindSpecMismatch indicates that a decoded element disagrees with the
	// supplied spec.
	KindSpecMismatch

	// KindMalformedPrimitive indicates invalid content octets of a primitive
	// type, such as an OBJECT IDENTIFIER sub-identifier with a leading 0x80
	// octet or a BIT STRING with more than 7 unused bits.
	KindMalformedPrimitive

	// KindValueOutOfRange indicates a value outside the representable range of
	// its encoding, such as an OBJECT IDENTIFIER sub-identifier beyond 2^32-1.
	KindValueOutOfRange

	// KindSizeConstraintViolation indicates that a constructed value failed
	// its declared size constraint, either before encoding or after decoding.
	KindSizeConstraintViolation
)

// Error is the error type produced by this package. It records the kind of
// failure and, where possible, the byte offset of the failing element within
// the substrate.
type Error struct {
	Kind Kind

	// Offset is the byte offset of the element that caused the failure, or -1
	// if the error is not tied to a location (encoding errors).
	Offset int

	msg string
}

// errValue returns an error that is not tied to an input location.
func errValue(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Offset: -1, msg: msg}
}

// errAt returns an error located at the given substrate offset.
func errAt(kind Kind, offset int, msg string) *Error {
	return &Error{Kind: kind, Offset: offset, msg: msg}
}

func (e *Error) Error() string {
	s := "ber: " + e.Kind.String()
	if e.Offset >= 0 {
		s += " at offset " + strconv.Itoa(e.Offset)
	}
	if e.msg != "" {
		s += ": " + e.msg
	}
	return s
}

// KindOf returns the kind of err if it is an [*Error] produced by this
// package.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
