// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ber implements the ASN.1 Basic Encoding Rules (BER) as defined in
// [Rec. ITU-T X.690] for the value model of the [tagwire.dev/asn1] package.
// See also “[A Layman's Guide to a Subset of ASN.1, BER, and DER]”.
//
// The package is organized as a pair of dispatchers over per-type codecs. An
// [Encoder] selects the codec for a value by its tag set and type id, the
// codec produces the content octets, and the framing layer adds the
// identifier and length octets. A [Decoder] reads identifier and length
// octets, selects the codec by tag (optionally cross-checked against a
// caller-supplied spec) and lets the codec consume the content region. Both
// registries are assembled at package initialization and never change
// afterwards, so encoders and decoders are freely shareable between
// goroutines.
//
// Both directions operate on fully materialized octet buffers. Encoding
// produces a byte slice; decoding consumes one element from a byte slice and
// returns the residual octets.
//
// [Rec. ITU-T X.690]: https://www.itu.int/rec/T-REC-X.690
// [A Layman's Guide to a Subset of ASN.1, BER, and DER]: http://luca.ntop.org/Teaching/Appunti/asn1.html
package ber

import (
	"tagwire.dev/asn1"
)

// Marshal returns the BER encoding of v using definite lengths and no
// chunking.
func Marshal(v asn1.Value) ([]byte, error) {
	return NewEncoder(EncodeOptions{}).Encode(v)
}

// MarshalWithOptions returns the BER encoding of v shaped by opts.
func MarshalWithOptions(v asn1.Value, opts EncodeOptions) ([]byte, error) {
	return NewEncoder(opts).Encode(v)
}

// Unmarshal parses one BER-encoded element from the start of b. It returns
// the decoded value and any residual octets following the element. The
// residual is empty when b holds exactly one element.
func Unmarshal(b []byte) (asn1.Value, []byte, error) {
	return NewDecoder(DecodeOptions{}).Decode(b)
}

// UnmarshalWithOptions parses one BER-encoded element from the start of b
// using the given options.
func UnmarshalWithOptions(b []byte, opts DecodeOptions) (asn1.Value, []byte, error) {
	return NewDecoder(opts).Decode(b)
}
