// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"fmt"
	"math/big"
	"strconv"

	"tagwire.dev/asn1"
	"tagwire.dev/asn1/internal/vlq"
)

// EncodeOptions control the shape of the produced encoding. The zero value
// produces definite-length, unchunked encodings with defaulted components
// omitted.
type EncodeOptions struct {
	// Indefinite requests the indefinite-length format for constructed
	// elements whose codec supports it. Primitive elements always use a
	// definite length.
	Indefinite bool

	// MaxChunkSize splits BIT STRING and octet string values longer than this
	// many octets into a constructed encoding of chunks of exactly this size.
	// Zero disables chunking.
	MaxChunkSize int

	// EmitDefaulted keeps SEQUENCE and SET components that equal their
	// declared default. By default such components are omitted, matching the
	// DER canonicalization rule.
	EmitDefaulted bool
}

// Encoder encodes ASN.1 values into their BER representation. An Encoder is
// immutable and safe for concurrent use.
//
// To create an Encoder, use [NewEncoder].
type Encoder struct {
	opts    EncodeOptions
	tagMap  map[asn1.TagSet]valueEncoder
	typeMap map[asn1.TypeID]valueEncoder
}

// NewEncoder returns an [Encoder] using the given options. The codec
// registries are fixed at package initialization and shared between all
// encoders.
func NewEncoder(opts EncodeOptions) *Encoder {
	return &Encoder{opts: opts, tagMap: encoderTagMap, typeMap: encoderTypeMap}
}

// Encode returns the BER encoding of v.
func (e *Encoder) Encode(v asn1.Value) ([]byte, error) {
	return e.encode(v, !e.opts.Indefinite, e.opts.MaxChunkSize)
}

// encode dispatches v to its codec and frames the produced content octets.
// This is the recursion point for constructed types and chunked strings.
func (e *Encoder) encode(v asn1.Value, definite bool, maxChunk int) ([]byte, error) {
	enc, err := e.encoderFor(v)
	if err != nil {
		return nil, err
	}
	content, constructed, err := enc.encodeValue(e, v, definite, maxChunk)
	if err != nil {
		return nil, err
	}
	ts := v.TagSet()
	if ts.Len() == 0 {
		// untagged pass-through (CHOICE, ANY)
		return content, nil
	}
	if !constructed {
		// the primitive form implies a definite length
		definite = true
	}
	indefinite := !definite && enc.supportsIndefinite()
	out := appendTag(make([]byte, 0, len(content)+12), ts.Outermost(), constructed)
	if out, err = appendLength(out, len(content), indefinite); err != nil {
		return nil, err
	}
	out = append(out, content...)
	if indefinite {
		out = append(out, 0x00, 0x00)
	}
	return out, nil
}

// encoderFor selects the codec for v. The lookup order is: explicit-tag
// wrapper for tag sets deeper than one, then the type-id registry, then the
// tag-set registry, then the base-tag-set registry.
func (e *Encoder) encoderFor(v asn1.Value) (valueEncoder, error) {
	if v == nil {
		return nil, errValue(KindUnknownType, "cannot encode nil value")
	}
	ts := v.TagSet()
	if ts.Len() > 1 {
		return explicitTagEncoder{}, nil
	}
	if id := v.TypeID(); id != asn1.TypeNone {
		if enc, ok := e.typeMap[id]; ok {
			return enc, nil
		}
	}
	if enc, ok := e.tagMap[ts]; ok {
		return enc, nil
	}
	if enc, ok := e.tagMap[v.BaseTagSet()]; ok {
		return enc, nil
	}
	return nil, errValue(KindUnknownType, fmt.Sprintf("no encoder for %T", v))
}

// valueEncoder produces the content octets of a single element. The framing
// around the content is handled by [Encoder.encode].
type valueEncoder interface {
	// encodeValue returns the content octets of v and whether they form a
	// constructed encoding.
	encodeValue(e *Encoder, v asn1.Value, definite bool, maxChunk int) (content []byte, constructed bool, err error)

	// supportsIndefinite reports whether elements of this type may use the
	// indefinite-length format.
	supportsIndefinite() bool
}

var bigOne = big.NewInt(1)

// minimalIntOctets returns the shortest two's-complement big-endian encoding
// of v. Zero encodes as a single 0x00 octet.
func minimalIntOctets(v *big.Int) []byte {
	switch v.Sign() {
	case 0:
		return []byte{0x00}
	case 1:
		bs := v.Bytes()
		if bs[0]&0x80 != 0 {
			return append([]byte{0x00}, bs...)
		}
		return bs
	}
	// A negative number is converted to two's-complement form by inverting
	// |v|-1. If the most significant bit is unset the result needs a 0xFF pad
	// octet to stay negative.
	n := new(big.Int).Neg(v)
	n.Sub(n, bigOne)
	bs := n.Bytes()
	for i := range bs {
		bs[i] ^= 0xff
	}
	if len(bs) == 0 || bs[0]&0x80 == 0 {
		return append([]byte{0xff}, bs...)
	}
	return bs
}

//region end-of-contents

// endOfContentsEncoder encodes the end-of-contents marker. The marker has no
// content octets; the framing layer produces the two 0x00 octets.
type endOfContentsEncoder struct{}

func (endOfContentsEncoder) encodeValue(*Encoder, asn1.Value, bool, int) ([]byte, bool, error) {
	return nil, false, nil
}

func (endOfContentsEncoder) supportsIndefinite() bool { return false }

//endregion

//region explicit tags

// explicitTagEncoder handles values whose tag set is deeper than one. It
// strips the outermost tag, re-dispatches the remaining value and reports the
// result as constructed so the framing layer wraps it in the stripped tag.
type explicitTagEncoder struct{}

func (explicitTagEncoder) encodeValue(e *Encoder, v asn1.Value, definite bool, maxChunk int) ([]byte, bool, error) {
	inner := v.WithTagSet(v.TagSet().Truncated())
	content, err := e.encode(inner, definite, maxChunk)
	return content, true, err
}

func (explicitTagEncoder) supportsIndefinite() bool { return true }

//endregion

//region BOOLEAN, INTEGER and ENUMERATED

// intEncoder encodes the INTEGER, ENUMERATED and BOOLEAN types. All three
// share the same content encoding: a minimally encoded two's-complement
// big-endian integer.
type intEncoder struct{}

func (intEncoder) encodeValue(_ *Encoder, v asn1.Value, _ bool, _ int) ([]byte, bool, error) {
	var n *big.Int
	switch vv := v.(type) {
	case asn1.Integer:
		n = vv.Big()
	case asn1.Enumerated:
		n = big.NewInt(vv.Int64())
	case asn1.Boolean:
		n = big.NewInt(0)
		if vv.Bool() {
			n.SetInt64(1)
		}
	default:
		return nil, false, errValue(KindUnknownType, fmt.Sprintf("cannot encode %T as INTEGER", v))
	}
	return minimalIntOctets(n), false, nil
}

func (intEncoder) supportsIndefinite() bool { return false }

//endregion

//region BIT STRING

// bitStringEncoder encodes the BIT STRING type. The primitive form consists
// of a leading unused-bits octet followed by the packed bits. When chunking is
// requested and the value is long enough, the value is split into chunks that
// are encoded recursively through the dispatcher.
type bitStringEncoder struct{}

func (bitStringEncoder) encodeValue(e *Encoder, v asn1.Value, definite bool, maxChunk int) ([]byte, bool, error) {
	bs, ok := v.(asn1.BitString)
	if !ok {
		return nil, false, errValue(KindUnknownType, fmt.Sprintf("cannot encode %T as BIT STRING", v))
	}
	if !bs.IsValid() {
		return nil, false, errValue(KindMalformedPrimitive, "bit string shorter than its bit length")
	}
	if maxChunk == 0 || bs.BitLength <= maxChunk*8 {
		numBytes := (bs.BitLength + 8 - 1) / 8
		padding := byte((8 - bs.BitLength%8) % 8)
		content := make([]byte, 0, numBytes+1)
		content = append(content, padding)
		content = append(content, bs.Bytes[:numBytes]...)
		if numBytes > 0 {
			// zero out the padding bits
			content[numBytes] &= ^byte(1<<padding - 1)
		}
		return content, false, nil
	}

	var out []byte
	for pos := 0; pos < bs.BitLength; pos += maxChunk * 8 {
		n := min(maxChunk*8, bs.BitLength-pos)
		chunk := asn1.NewBitString(bs.Bytes[pos/8:pos/8+(n+8-1)/8], n).WithTagSet(v.TagSet())
		sub, err := e.encode(chunk, definite, maxChunk)
		if err != nil {
			return nil, false, err
		}
		out = append(out, sub...)
	}
	return out, true, nil
}

func (bitStringEncoder) supportsIndefinite() bool { return true }

//endregion

//region OCTET STRING and character strings

// octetStringEncoder encodes the OCTET STRING type and every type sharing its
// content encoding: the restricted character strings and the textual time
// types. When chunking is requested, the value is split into substrings that
// are encoded recursively through the dispatcher so tagging applies uniformly
// to each chunk.
type octetStringEncoder struct{}

func (octetStringEncoder) encodeValue(e *Encoder, v asn1.Value, definite bool, maxChunk int) ([]byte, bool, error) {
	bv, ok := v.(asn1.BytesValue)
	if !ok {
		return nil, false, errValue(KindUnknownType, fmt.Sprintf("cannot encode %T as OCTET STRING", v))
	}
	payload := bv.Bytes()
	if maxChunk == 0 || len(payload) <= maxChunk {
		return payload, false, nil
	}

	var out []byte
	for pos := 0; pos < len(payload); pos += maxChunk {
		chunk := bv.WithBytes(payload[pos:min(pos+maxChunk, len(payload))])
		sub, err := e.encode(chunk, definite, maxChunk)
		if err != nil {
			return nil, false, err
		}
		out = append(out, sub...)
	}
	return out, true, nil
}

func (octetStringEncoder) supportsIndefinite() bool { return true }

//endregion

//region NULL

// nullEncoder encodes the NULL type, which has no content octets.
type nullEncoder struct{}

func (nullEncoder) encodeValue(*Encoder, asn1.Value, bool, int) ([]byte, bool, error) {
	return nil, false, nil
}

func (nullEncoder) supportsIndefinite() bool { return false }

//endregion

//region OBJECT IDENTIFIER

// oidPrefixes short-circuits the packing of the first sub-identifiers for
// frequently used OID prefixes.
var oidPrefixes = map[[5]uint64][]byte{
	{1, 3, 6, 1, 2}: {43, 6, 1, 2},
	{1, 3, 6, 1, 4}: {43, 6, 1, 4},
}

// maxSubIdentifier is the largest sub-identifier value accepted on either
// codec path.
const maxSubIdentifier = 1<<32 - 1

// objectIdentifierEncoder encodes the OBJECT IDENTIFIER type. The first two
// sub-identifiers pack into 40*first+second; subsequent sub-identifiers use
// base-128 encoding.
type objectIdentifierEncoder struct{}

func (objectIdentifierEncoder) encodeValue(_ *Encoder, v asn1.Value, _ bool, _ int) ([]byte, bool, error) {
	oid, ok := v.(asn1.ObjectIdentifier)
	if !ok {
		return nil, false, errValue(KindUnknownType, fmt.Sprintf("cannot encode %T as OBJECT IDENTIFIER", v))
	}
	arcs := oid.Arcs()
	if len(arcs) < 2 {
		return nil, false, errValue(KindMalformedPrimitive, "object identifier "+oid.String()+" needs at least two sub-identifiers")
	}

	var content []byte
	index := 2
	if len(arcs) >= 5 {
		if p, ok := oidPrefixes[[5]uint64(arcs[:5])]; ok {
			content = append(content, p...)
			index = 5
		}
	}
	if index == 2 {
		if arcs[0] > 2 || (arcs[0] < 2 && arcs[1] > 39) || arcs[1] > maxSubIdentifier {
			return nil, false, errValue(KindValueOutOfRange, "initial sub-identifiers out of range in "+oid.String())
		}
		content = vlq.Append(content, arcs[0]*40+arcs[1])
	}
	for _, arc := range arcs[index:] {
		if arc > maxSubIdentifier {
			return nil, false, errValue(KindValueOutOfRange, "sub-identifier "+strconv.FormatUint(arc, 10)+" out of range in "+oid.String())
		}
		content = vlq.Append(content, arc)
	}
	return content, false, nil
}

func (objectIdentifierEncoder) supportsIndefinite() bool { return false }

//endregion

//region REAL

// realEncoder encodes the REAL type. Base-10 values use the ISO 6093 NR3
// representation, base-2 values the binary representation with a normalized
// odd mantissa. Zero encodes as empty content.
type realEncoder struct{}

func (realEncoder) encodeValue(_ *Encoder, v asn1.Value, _ bool, _ int) ([]byte, bool, error) {
	r, ok := v.(asn1.Real)
	if !ok {
		return nil, false, errValue(KindUnknownType, fmt.Sprintf("cannot encode %T as REAL", v))
	}
	switch r.IsInfinity() {
	case 1:
		return []byte{0x40}, false, nil
	case -1:
		return []byte{0x41}, false, nil
	}
	m := r.Mantissa()
	if m == 0 {
		return nil, false, nil
	}

	switch r.Base() {
	case 10:
		s := strconv.FormatInt(m, 10) + "E"
		if r.Exponent() == 0 {
			s += "+0"
		} else {
			s += strconv.Itoa(r.Exponent())
		}
		return append([]byte{0x03}, s...), false, nil
	case 2:
		fo := byte(0x80)
		if m < 0 {
			fo |= 0x40
			m = -m
		}
		e := int64(r.Exponent())
		for m&1 == 0 {
			m >>= 1
			e++
		}
		eo := minimalIntOctets(big.NewInt(e))
		var prefix []byte
		switch len(eo) {
		case 1:
		case 2:
			fo |= 0x01
		case 3:
			fo |= 0x02
		default:
			fo |= 0x03
			prefix = []byte{byte(len(eo))}
		}
		content := append([]byte{fo}, prefix...)
		content = append(content, eo...)
		return append(content, big.NewInt(m).Bytes()...), false, nil
	}
	return nil, false, errValue(KindMalformedPrimitive, "prohibited real base "+strconv.Itoa(r.Base()))
}

func (realEncoder) supportsIndefinite() bool { return false }

//endregion

//region SEQUENCE and SET

// sequenceEncoder encodes SEQUENCE and SET values with named components.
// Components that are absent are skipped; components equal to their declared
// default are skipped unless [EncodeOptions.EmitDefaulted] is set.
type sequenceEncoder struct{}

func (sequenceEncoder) encodeValue(e *Encoder, v asn1.Value, definite bool, maxChunk int) ([]byte, bool, error) {
	cv := v.(asn1.ConstructedValue)
	cv.SetDefaults()
	if err := cv.VerifySize(); err != nil {
		return nil, false, errValue(KindSizeConstraintViolation, err.Error())
	}
	var content []byte
	for i := 0; i < cv.Len(); i++ {
		comp := cv.Component(i)
		if comp == nil {
			continue
		}
		if !e.opts.EmitDefaulted {
			if def := cv.DefaultComponent(i); def != nil && asn1.Equal(def, comp) {
				continue
			}
		}
		sub, err := e.encode(comp, definite, maxChunk)
		if err != nil {
			return nil, false, err
		}
		content = append(content, sub...)
	}
	return content, true, nil
}

func (sequenceEncoder) supportsIndefinite() bool { return true }

// sequenceOfEncoder encodes the homogeneous SEQUENCE OF and SET OF values.
type sequenceOfEncoder struct{}

func (sequenceOfEncoder) encodeValue(e *Encoder, v asn1.Value, definite bool, maxChunk int) ([]byte, bool, error) {
	cv := v.(asn1.ConstructedValue)
	if err := cv.VerifySize(); err != nil {
		return nil, false, errValue(KindSizeConstraintViolation, err.Error())
	}
	var content []byte
	for i := 0; i < cv.Len(); i++ {
		comp := cv.Component(i)
		if comp == nil {
			continue
		}
		sub, err := e.encode(comp, definite, maxChunk)
		if err != nil {
			return nil, false, err
		}
		content = append(content, sub...)
	}
	return content, true, nil
}

func (sequenceOfEncoder) supportsIndefinite() bool { return true }

//endregion

//region CHOICE

// choiceEncoder encodes CHOICE values by delegating to the chosen
// alternative. An untagged CHOICE contributes no framing of its own.
type choiceEncoder struct{}

func (choiceEncoder) encodeValue(e *Encoder, v asn1.Value, definite bool, maxChunk int) ([]byte, bool, error) {
	ch := v.(asn1.ChoiceValue)
	comp := ch.Chosen()
	if comp == nil {
		return nil, false, errValue(KindUnknownType, "choice has no chosen alternative")
	}
	content, err := e.encode(comp, definite, maxChunk)
	return content, true, err
}

func (choiceEncoder) supportsIndefinite() bool { return true }

//endregion

//region ANY

// anyEncoder emits the raw octets of an ANY value verbatim.
type anyEncoder struct{}

func (anyEncoder) encodeValue(_ *Encoder, v asn1.Value, definite bool, _ int) ([]byte, bool, error) {
	return v.(asn1.BytesValue).Bytes(), !definite, nil
}

func (anyEncoder) supportsIndefinite() bool { return true }

//endregion

// universalSet returns the singleton tag set of the universal type with the
// given number.
func universalSet(number uint32) asn1.TagSet {
	return asn1.NewTagSet(asn1.Universal(number))
}

// encoderTagMap is the tag-set keyed encoder registry. It is assembled once
// and never mutated afterwards.
var encoderTagMap = map[asn1.TagSet]valueEncoder{
	universalSet(asn1.NumberReserved):         endOfContentsEncoder{},
	universalSet(asn1.NumberBoolean):          intEncoder{},
	universalSet(asn1.NumberInteger):          intEncoder{},
	universalSet(asn1.NumberBitString):        bitStringEncoder{},
	universalSet(asn1.NumberOctetString):      octetStringEncoder{},
	universalSet(asn1.NumberNull):             nullEncoder{},
	universalSet(asn1.NumberObjectIdentifier): objectIdentifierEncoder{},
	universalSet(asn1.NumberEnumerated):       intEncoder{},
	universalSet(asn1.NumberReal):             realEncoder{},
	// SEQUENCE and SET share their tags with SEQUENCE OF and SET OF; the
	// type-id registry disambiguates.
	universalSet(asn1.NumberSequence): sequenceOfEncoder{},
	universalSet(asn1.NumberSet):      sequenceOfEncoder{},
	// character string types
	universalSet(asn1.NumberUTF8String):      octetStringEncoder{},
	universalSet(asn1.NumberNumericString):   octetStringEncoder{},
	universalSet(asn1.NumberPrintableString): octetStringEncoder{},
	universalSet(asn1.NumberTeletexString):   octetStringEncoder{},
	universalSet(asn1.NumberVideotexString):  octetStringEncoder{},
	universalSet(asn1.NumberIA5String):       octetStringEncoder{},
	universalSet(asn1.NumberGraphicString):   octetStringEncoder{},
	universalSet(asn1.NumberVisibleString):   octetStringEncoder{},
	universalSet(asn1.NumberGeneralString):   octetStringEncoder{},
	universalSet(asn1.NumberUniversalString): octetStringEncoder{},
	universalSet(asn1.NumberBMPString):       octetStringEncoder{},
	// time types
	universalSet(asn1.NumberUTCTime):         octetStringEncoder{},
	universalSet(asn1.NumberGeneralizedTime): octetStringEncoder{},
}

// encoderTypeMap is the type-id keyed encoder registry for the type families
// whose tags are ambiguous or absent.
var encoderTypeMap = map[asn1.TypeID]valueEncoder{
	asn1.TypeSequence:   sequenceEncoder{},
	asn1.TypeSet:        sequenceEncoder{},
	asn1.TypeSequenceOf: sequenceOfEncoder{},
	asn1.TypeSetOf:      sequenceOfEncoder{},
	asn1.TypeChoice:     choiceEncoder{},
	asn1.TypeAny:        anyEncoder{},
}
