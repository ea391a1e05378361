// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"tagwire.dev/asn1"
	"tagwire.dev/asn1/internal/vlq"
)

// SubstrateFunc is the raw content pass-through hook. When supplied via
// [DecodeOptions], the decoder does not parse the content region of the
// outermost element. Instead it calls the hook with the spec in effect, the
// raw content octets and their length; for an indefinite-length element the
// length is [LengthIndefinite] and the substrate extends to the end of the
// input. The hook's results are returned to the caller of Decode unchanged.
//
// This hook enables deferred or pluggable parsing of inner content.
type SubstrateFunc func(spec asn1.Value, substrate []byte, length int) (asn1.Value, []byte, error)

// DecodeOptions control how a [Decoder] interprets its input. The zero value
// decodes self-describing input tolerantly.
type DecodeOptions struct {
	// Spec guides decoding with an expected type. A decoded element whose tag
	// disagrees with the spec is an error. The CHOICE and ANY types are only
	// reachable through a spec.
	Spec asn1.Value

	// AllowEndOfContents permits a bare end-of-contents marker at the top
	// level, which decodes into [asn1.EndOfContents].
	AllowEndOfContents bool

	// Substrate, if non-nil, replaces parsing of the outermost element's
	// content region. See [SubstrateFunc].
	Substrate SubstrateFunc

	// StrictIntegers rejects INTEGER and ENUMERATED encodings with redundant
	// leading octets, as required by DER. By default such encodings are
	// accepted.
	StrictIntegers bool
}

// Decoder decodes BER-encoded elements into ASN.1 values. A Decoder is
// immutable and safe for concurrent use.
//
// To create a Decoder, use [NewDecoder].
type Decoder struct {
	opts    DecodeOptions
	tagMap  map[asn1.TagSet]valueDecoder
	typeMap map[asn1.TypeID]valueDecoder
}

// NewDecoder returns a [Decoder] using the given options. The codec
// registries are fixed at package initialization and shared between all
// decoders.
func NewDecoder(opts DecodeOptions) *Decoder {
	return &Decoder{opts: opts, tagMap: decoderTagMap, typeMap: decoderTypeMap}
}

// Decode parses one element from the start of b and returns the decoded value
// together with the residual octets following the element. Decode never
// returns a partial result: on error the value is nil.
func (d *Decoder) Decode(b []byte) (asn1.Value, []byte, error) {
	return d.decodeElement(b, 0, d.opts.Spec, d.opts.AllowEndOfContents, d.opts.Substrate)
}

// decodeElement parses one complete element at the start of b. offset is the
// position of b within the overall substrate and is used for error reporting.
// This is the recursion point for nested elements.
func (d *Decoder) decodeElement(b []byte, offset int, spec asn1.Value, allowEOC bool, subst SubstrateFunc) (asn1.Value, []byte, error) {
	// Untagged specs (CHOICE, ANY) have no tag of their own; the element at
	// the current position belongs to the alternative or passes through raw.
	if spec != nil && spec.TagSet().Len() == 0 {
		switch spec.TypeID() {
		case asn1.TypeChoice:
			return d.decodeOpenChoice(b, offset, spec.(asn1.ChoiceValue), subst)
		case asn1.TypeAny:
			n, err := skipElement(b, offset)
			if err != nil {
				return nil, b, err
			}
			if subst != nil {
				return subst(spec, b[:n], n)
			}
			return spec.(asn1.BytesValue).WithBytes(b[:n]), b[n:], nil
		}
	}

	h, err := decodeHeader(b, offset)
	if err != nil {
		return nil, b, err
	}
	if h.isEndOfContents() {
		if allowEOC {
			return asn1.EndOfContents, b[2:], nil
		}
		return nil, b, errAt(KindUnexpectedEndOfContents, offset, "end-of-contents not permitted here")
	}

	var content []byte
	if h.length != LengthIndefinite {
		if h.size+h.length > len(b) {
			return nil, b, errAt(KindTruncatedInput, offset, "content region shorter than declared length")
		}
		content = b[h.size : h.size+h.length]
	}

	if subst != nil {
		if h.length == LengthIndefinite {
			return subst(spec, b[h.size:], LengthIndefinite)
		}
		return subst(spec, content, h.length)
	}

	if spec != nil {
		sts := spec.TagSet()
		if !h.tag.Equivalent(sts.Outermost()) {
			return nil, b, errAt(KindSpecMismatch, offset,
				"decoded tag "+h.tag.String()+" does not match expected "+sts.Outermost().String())
		}
		if sts.Len() > 1 {
			return d.decodeExplicit(b, offset, h, content, spec)
		}
		dec, err := d.decoderForSpec(spec)
		if err != nil {
			return nil, b, err
		}
		v, rest, err := d.runDecoder(dec, b, h, spec, offset)
		if err != nil {
			return nil, b, err
		}
		return v.WithTagSet(sts), rest, nil
	}

	// Self-describing input: the tag selects the codec.
	if dec, ok := d.decoderForTag(h.tag); ok {
		return d.runDecoder(dec, b, h, nil, offset)
	}
	if h.constructed {
		// An unknown constructed tag is recovered as an explicitly tagged
		// inner element.
		return d.decodeExplicitUnknown(b, offset, h, content)
	}
	return nil, b, errAt(KindUnknownType, offset, "no decoder for "+h.tag.String())
}

// runDecoder invokes dec on the element described by h at the start of b and
// returns the decoded value and the residual octets after the element.
func (d *Decoder) runDecoder(dec valueDecoder, b []byte, h header, spec asn1.Value, elemOff int) (asn1.Value, []byte, error) {
	if h.length == LengthIndefinite {
		v, n, err := dec.decodeValue(d, b[h.size:], h, spec, elemOff)
		if err != nil {
			return nil, b, err
		}
		return v, b[h.size+n:], nil
	}
	v, _, err := dec.decodeValue(d, b[h.size:h.size+h.length], h, spec, elemOff)
	if err != nil {
		return nil, b, err
	}
	return v, b[h.size+h.length:], nil
}

// decodeOpenChoice decodes the element at the start of b against the
// alternatives of an untagged CHOICE.
func (d *Decoder) decodeOpenChoice(b []byte, offset int, ch asn1.ChoiceValue, subst SubstrateFunc) (asn1.Value, []byte, error) {
	h, err := decodeHeader(b, offset)
	if err != nil {
		return nil, b, err
	}
	if h.isEndOfContents() {
		return nil, b, errAt(KindUnexpectedEndOfContents, offset, "end-of-contents not permitted here")
	}
	for i, alt := range ch.Alternatives() {
		if !fieldMatches(alt, h.tag) {
			continue
		}
		v, rest, err := d.decodeElement(b, offset, alt.Type, false, subst)
		if err != nil {
			return nil, b, err
		}
		if subst != nil {
			// the hook's results pass through unchanged
			return v, rest, nil
		}
		return ch.Choose(i, v), rest, nil
	}
	return nil, b, errAt(KindSpecMismatch, offset, "no choice alternative matches "+h.tag.String())
}

// decodeExplicit peels one explicit tag from an element whose spec carries a
// tag set deeper than one and decodes the single inner element against the
// remaining tags.
func (d *Decoder) decodeExplicit(b []byte, offset int, h header, content []byte, spec asn1.Value) (asn1.Value, []byte, error) {
	if !h.constructed {
		return nil, b, errAt(KindInvalidTagForm, offset, "explicitly tagged element must be constructed")
	}
	sts := spec.TagSet()
	innerTags := sts.Truncated()
	innerSpec := spec.WithTagSet(innerTags)

	if h.length == LengthIndefinite {
		inner, rest, err := d.decodeElement(b[h.size:], offset+h.size, innerSpec, false, nil)
		if err != nil {
			return nil, b, err
		}
		if !isEndOfContentsOctets(rest) {
			return nil, b, errAt(KindUnexpectedEndOfContents, offset, "missing end-of-contents after explicitly tagged element")
		}
		if inner.TagSet() != innerTags {
			return nil, b, errAt(KindSpecMismatch, offset, "inner tag set does not match expected "+innerTags.String())
		}
		return inner.WithTagSet(sts), rest[2:], nil
	}

	inner, rest, err := d.decodeElement(content, offset+h.size, innerSpec, false, nil)
	if err != nil {
		return nil, b, err
	}
	if len(rest) != 0 {
		return nil, b, errAt(KindSpecMismatch, offset, "explicitly tagged element has trailing data")
	}
	if inner.TagSet() != innerTags {
		return nil, b, errAt(KindSpecMismatch, offset, "inner tag set does not match expected "+innerTags.String())
	}
	return inner.WithTagSet(sts), b[h.size+h.length:], nil
}

// decodeExplicitUnknown recovers an element with an unknown constructed tag
// as an explicitly tagged inner element. The inner element is decoded
// self-describing and the unknown tag is recorded as an explicit tag on the
// result.
func (d *Decoder) decodeExplicitUnknown(b []byte, offset int, h header, content []byte) (asn1.Value, []byte, error) {
	if h.length == LengthIndefinite {
		inner, rest, err := d.decodeElement(b[h.size:], offset+h.size, nil, false, nil)
		if err != nil {
			return nil, b, err
		}
		if !isEndOfContentsOctets(rest) {
			return nil, b, errAt(KindUnexpectedEndOfContents, offset, "missing end-of-contents after explicitly tagged element")
		}
		inner, err = wrapExplicit(inner, h.tag, offset)
		if err != nil {
			return nil, b, err
		}
		return inner, rest[2:], nil
	}
	inner, rest, err := d.decodeElement(content, offset+h.size, nil, false, nil)
	if err != nil {
		return nil, b, err
	}
	if len(rest) != 0 {
		return nil, b, errAt(KindUnknownType, offset, "multiple elements under unknown constructed tag "+h.tag.String())
	}
	inner, err = wrapExplicit(inner, h.tag, offset)
	if err != nil {
		return nil, b, err
	}
	return inner, b[h.size+h.length:], nil
}

// wrapExplicit records an unknown outer tag as an explicit tag on a decoded
// value.
func wrapExplicit(inner asn1.Value, t asn1.Tag, offset int) (asn1.Value, error) {
	ts := inner.TagSet()
	if ts.Len() >= asn1.MaxTagSetDepth {
		return nil, errAt(KindUnknownType, offset, "explicit tagging deeper than supported")
	}
	return inner.WithTagSet(ts.TagExplicitly(t)), nil
}

// decoderForSpec selects the codec for a spec-guided decode: first by type
// id, then by the spec's base tag set.
func (d *Decoder) decoderForSpec(spec asn1.Value) (valueDecoder, error) {
	if id := spec.TypeID(); id != asn1.TypeNone {
		if dec, ok := d.typeMap[id]; ok {
			return dec, nil
		}
	}
	if dec, ok := d.tagMap[spec.BaseTagSet()]; ok {
		return dec, nil
	}
	return nil, errValue(KindUnknownType, fmt.Sprintf("no decoder for spec %T", spec))
}

// decoderForTag selects the codec for a self-describing element. Registry
// keys carry the canonical form bit of their type, so the lookup also tries
// the flipped form; the codec itself validates the form it requires.
func (d *Decoder) decoderForTag(t asn1.Tag) (valueDecoder, bool) {
	if dec, ok := d.tagMap[asn1.NewTagSet(t)]; ok {
		return dec, true
	}
	alt := t
	if alt.Form == asn1.FormPrimitive {
		alt.Form = asn1.FormConstructed
	} else {
		alt.Form = asn1.FormPrimitive
	}
	dec, ok := d.tagMap[asn1.NewTagSet(alt)]
	return dec, ok
}

// fieldMatches reports whether an element with tag t can populate f. Untyped
// fields and untagged ANY fields match any tag; untagged CHOICE fields match
// if any alternative matches.
func fieldMatches(f asn1.Field, t asn1.Tag) bool {
	if f.Type == nil {
		return true
	}
	ts := f.Type.TagSet()
	if ts.Len() == 0 {
		if ch, ok := f.Type.(asn1.ChoiceValue); ok {
			for _, alt := range ch.Alternatives() {
				if fieldMatches(alt, t) {
					return true
				}
			}
			return false
		}
		return true // untagged ANY
	}
	return ts.Outermost().Equivalent(t)
}

// valueDecoder parses the content region of a single element. The framing
// around the content is handled by [Decoder.decodeElement].
type valueDecoder interface {
	// decodeValue parses the content of one element. For a definite-length
	// element, content holds exactly the content region. For an
	// indefinite-length element, content holds all octets following the
	// header and the codec must consume the terminating end-of-contents
	// marker. elemOff is the substrate offset of the element's first
	// identifier octet. The returned count is the number of content octets
	// consumed, including any end-of-contents octets.
	decodeValue(d *Decoder, content []byte, h header, spec asn1.Value, elemOff int) (asn1.Value, int, error)
}

//region BOOLEAN

// booleanDecoder decodes the BOOLEAN type. Any non-zero content octet decodes
// as true.
type booleanDecoder struct{}

func (booleanDecoder) decodeValue(_ *Decoder, content []byte, h header, _ asn1.Value, elemOff int) (asn1.Value, int, error) {
	if h.constructed {
		return nil, 0, errAt(KindInvalidTagForm, elemOff, "constructed BOOLEAN")
	}
	if len(content) != 1 {
		return nil, 0, errAt(KindMalformedPrimitive, elemOff, "BOOLEAN must have exactly one content octet")
	}
	return asn1.NewBoolean(content[0] != 0), 1, nil
}

//endregion

//region INTEGER and ENUMERATED

// intDecoder decodes the INTEGER and ENUMERATED types from their
// two's-complement big-endian content encoding.
type intDecoder struct {
	enum bool
}

func (c intDecoder) decodeValue(d *Decoder, content []byte, h header, _ asn1.Value, elemOff int) (asn1.Value, int, error) {
	if h.constructed {
		return nil, 0, errAt(KindInvalidTagForm, elemOff, "constructed INTEGER")
	}
	if d.opts.StrictIntegers {
		if len(content) == 0 {
			return nil, 0, errAt(KindMalformedPrimitive, elemOff, "empty INTEGER")
		}
		if len(content) >= 2 &&
			(content[0] == 0x00 && content[1]&0x80 == 0 ||
				content[0] == 0xFF && content[1]&0x80 == 0x80) {
			return nil, 0, errAt(KindMalformedPrimitive, elemOff, "INTEGER not minimally encoded")
		}
	}
	n := new(big.Int).SetBytes(content)
	if len(content) > 0 && content[0]&0x80 != 0 {
		n.Sub(n, new(big.Int).Lsh(bigOne, uint(len(content)*8)))
	}
	if c.enum {
		if !n.IsInt64() {
			return nil, 0, errAt(KindValueOutOfRange, elemOff, "ENUMERATED value out of range")
		}
		return asn1.NewEnumerated(n.Int64()), len(content), nil
	}
	return asn1.NewIntegerBig(n), len(content), nil
}

//endregion

//region BIT STRING

// bitStringDecoder decodes the BIT STRING type. The constructed form is a
// concatenation of BIT STRING chunk encodings of which only the final one may
// have unused bits.
type bitStringDecoder struct{}

func (c bitStringDecoder) decodeValue(d *Decoder, content []byte, h header, _ asn1.Value, elemOff int) (asn1.Value, int, error) {
	bs, n, err := c.decodeContent(d, content, h, elemOff)
	if err != nil {
		return nil, 0, err
	}
	return bs, n, nil
}

func (c bitStringDecoder) decodeContent(d *Decoder, b []byte, h header, elemOff int) (asn1.BitString, int, error) {
	if !h.constructed {
		if len(b) == 0 {
			return asn1.BitString{}, 0, errAt(KindMalformedPrimitive, elemOff, "empty BIT STRING")
		}
		padding := b[0]
		if padding > 7 {
			return asn1.BitString{}, 0, errAt(KindMalformedPrimitive, elemOff, "more than 7 unused bits in BIT STRING")
		}
		if padding > 0 && len(b) == 1 {
			return asn1.BitString{}, 0, errAt(KindMalformedPrimitive, elemOff, "unused bits in empty BIT STRING")
		}
		bits := append([]byte(nil), b[1:]...)
		if padding > 0 {
			// zero out the padding bits
			bits[len(bits)-1] &= ^byte(1<<padding - 1)
		}
		return asn1.NewBitString(bits, len(bits)*8-int(padding)), len(b), nil
	}

	indefinite := h.length == LengthIndefinite
	contentOff := elemOff + h.size
	var buf []byte
	bitLen := 0
	pos := 0
	for {
		if indefinite {
			if isEndOfContentsOctets(b[pos:]) {
				pos += 2
				break
			}
			if pos >= len(b) {
				return asn1.BitString{}, 0, errAt(KindTruncatedInput, contentOff+pos, "missing end-of-contents")
			}
		} else if pos >= len(b) {
			break
		}
		ch, err := decodeHeader(b[pos:], contentOff+pos)
		if err != nil {
			return asn1.BitString{}, 0, err
		}
		if ch.isEndOfContents() {
			return asn1.BitString{}, 0, errAt(KindUnexpectedEndOfContents, contentOff+pos, "end-of-contents inside definite-length content")
		}
		if !ch.tag.Equivalent(h.tag) {
			kind := KindMalformedPrimitive
			if indefinite {
				kind = KindUnexpectedEndOfContents
			}
			return asn1.BitString{}, 0, errAt(kind, contentOff+pos, "nested encoding "+ch.tag.String()+" in constructed BIT STRING")
		}
		sub := b[pos+ch.size:]
		if ch.length != LengthIndefinite {
			if ch.size+ch.length > len(b)-pos {
				return asn1.BitString{}, 0, errAt(KindTruncatedInput, contentOff+pos, "chunk exceeds its parent")
			}
			sub = sub[:ch.length]
		}
		chunk, n, err := c.decodeContent(d, sub, ch, contentOff+pos)
		if err != nil {
			return asn1.BitString{}, 0, err
		}
		if bitLen%8 != 0 {
			return asn1.BitString{}, 0, errAt(KindMalformedPrimitive, contentOff+pos, "only the final BIT STRING chunk may have unused bits")
		}
		buf = append(buf, chunk.Bytes...)
		bitLen += chunk.BitLength
		pos += ch.size + n
	}
	return asn1.NewBitString(buf, bitLen), pos, nil
}

//endregion

//region OCTET STRING and character strings

// newStringValue constructs the value of the string family identified by a
// universal tag number.
func newStringValue(number uint32, payload []byte) asn1.Value {
	s := string(payload)
	switch number {
	case asn1.NumberUTF8String:
		return asn1.NewUTF8String(s)
	case asn1.NumberNumericString:
		return asn1.NewNumericString(s)
	case asn1.NumberPrintableString:
		return asn1.NewPrintableString(s)
	case asn1.NumberTeletexString:
		return asn1.NewTeletexString(s)
	case asn1.NumberVideotexString:
		return asn1.NewVideotexString(s)
	case asn1.NumberIA5String:
		return asn1.NewIA5String(s)
	case asn1.NumberGraphicString:
		return asn1.NewGraphicString(s)
	case asn1.NumberVisibleString:
		return asn1.NewVisibleString(s)
	case asn1.NumberGeneralString:
		return asn1.NewGeneralString(s)
	case asn1.NumberUniversalString:
		return asn1.NewUniversalString(s)
	case asn1.NumberBMPString:
		return asn1.NewBMPString(s)
	case asn1.NumberUTCTime:
		return asn1.NewUTCTime(s)
	case asn1.NumberGeneralizedTime:
		return asn1.NewGeneralizedTime(s)
	}
	return asn1.NewOctetString(payload)
}

// octetStringDecoder decodes the OCTET STRING type and every type sharing its
// content encoding. The constructed form is a concatenation of chunk
// encodings of the same base type.
type octetStringDecoder struct{}

func (c octetStringDecoder) decodeValue(d *Decoder, content []byte, h header, spec asn1.Value, elemOff int) (asn1.Value, int, error) {
	payload, n, err := c.decodeContent(d, content, h, elemOff)
	if err != nil {
		return nil, 0, err
	}
	if bv, ok := spec.(asn1.BytesValue); ok {
		return bv.WithBytes(payload), n, nil
	}
	if h.tag.Class == asn1.ClassUniversal {
		return newStringValue(h.tag.Number, payload), n, nil
	}
	return asn1.NewOctetString(payload), n, nil
}

func (c octetStringDecoder) decodeContent(d *Decoder, b []byte, h header, elemOff int) ([]byte, int, error) {
	if !h.constructed {
		return b, len(b), nil
	}

	indefinite := h.length == LengthIndefinite
	contentOff := elemOff + h.size
	var buf []byte
	pos := 0
	for {
		if indefinite {
			if isEndOfContentsOctets(b[pos:]) {
				pos += 2
				break
			}
			if pos >= len(b) {
				return nil, 0, errAt(KindTruncatedInput, contentOff+pos, "missing end-of-contents")
			}
		} else if pos >= len(b) {
			break
		}
		ch, err := decodeHeader(b[pos:], contentOff+pos)
		if err != nil {
			return nil, 0, err
		}
		if ch.isEndOfContents() {
			return nil, 0, errAt(KindUnexpectedEndOfContents, contentOff+pos, "end-of-contents inside definite-length content")
		}
		if !ch.tag.Equivalent(h.tag) {
			kind := KindMalformedPrimitive
			if indefinite {
				kind = KindUnexpectedEndOfContents
			}
			return nil, 0, errAt(kind, contentOff+pos, "nested encoding "+ch.tag.String()+" in constructed string")
		}
		sub := b[pos+ch.size:]
		if ch.length != LengthIndefinite {
			if ch.size+ch.length > len(b)-pos {
				return nil, 0, errAt(KindTruncatedInput, contentOff+pos, "chunk exceeds its parent")
			}
			sub = sub[:ch.length]
		}
		chunk, n, err := c.decodeContent(d, sub, ch, contentOff+pos)
		if err != nil {
			return nil, 0, err
		}
		buf = append(buf, chunk...)
		pos += ch.size + n
	}
	return buf, pos, nil
}

//endregion

//region NULL

// nullDecoder decodes the NULL type, which must have empty content.
type nullDecoder struct{}

func (nullDecoder) decodeValue(_ *Decoder, content []byte, h header, _ asn1.Value, elemOff int) (asn1.Value, int, error) {
	if h.constructed {
		return nil, 0, errAt(KindInvalidTagForm, elemOff, "constructed NULL")
	}
	if len(content) != 0 {
		return nil, 0, errAt(KindMalformedPrimitive, elemOff, "NULL with nonzero length")
	}
	return asn1.NewNull(), 0, nil
}

//endregion

//region OBJECT IDENTIFIER

// objectIdentifierDecoder decodes the OBJECT IDENTIFIER type. The first two
// sub-identifiers are recovered from the combined leading value; sub-ids with
// a leading 0x80 continuation octet are rejected.
type objectIdentifierDecoder struct{}

func (objectIdentifierDecoder) decodeValue(_ *Decoder, content []byte, h header, _ asn1.Value, elemOff int) (asn1.Value, int, error) {
	if h.constructed {
		return nil, 0, errAt(KindInvalidTagForm, elemOff, "constructed OBJECT IDENTIFIER")
	}
	if len(content) == 0 {
		return nil, 0, errAt(KindMalformedPrimitive, elemOff, "zero-length OBJECT IDENTIFIER")
	}
	arcs := make([]uint64, 2, len(content)+1)
	for pos := 0; pos < len(content); {
		v, n, err := vlq.Decode[uint64](content[pos:])
		switch err {
		case nil:
		case vlq.ErrNotMinimal:
			return nil, 0, errAt(KindMalformedPrimitive, elemOff, "sub-identifier with leading 0x80 octet")
		case vlq.ErrTruncated:
			return nil, 0, errAt(KindMalformedPrimitive, elemOff, "truncated sub-identifier")
		default:
			return nil, 0, errAt(KindValueOutOfRange, elemOff, "sub-identifier out of range")
		}
		if pos == 0 {
			// the first sub-identifier packs the leading pair
			switch {
			case v < 40:
				arcs[0], arcs[1] = 0, v
			case v < 80:
				arcs[0], arcs[1] = 1, v-40
			default:
				arcs[0], arcs[1] = 2, v-80
			}
		} else {
			arcs = append(arcs, v)
		}
		if arcs[len(arcs)-1] > maxSubIdentifier {
			return nil, 0, errAt(KindValueOutOfRange, elemOff, "sub-identifier out of range")
		}
		pos += n
	}
	return asn1.NewObjectIdentifier(arcs...), len(content), nil
}

//endregion

//region REAL

// realDecoder decodes the REAL type. Binary representations with base 8 or 16
// and the binary scale factor are folded into a base-2 exponent.
type realDecoder struct{}

func (c realDecoder) decodeValue(_ *Decoder, content []byte, h header, _ asn1.Value, elemOff int) (asn1.Value, int, error) {
	if h.constructed {
		return nil, 0, errAt(KindInvalidTagForm, elemOff, "constructed REAL")
	}
	if len(content) == 0 {
		return asn1.NewReal(0, 10, 0), 0, nil
	}
	first := content[0]
	switch {
	case first&0xC0 == 0x40:
		if len(content) != 1 {
			return nil, 0, errAt(KindMalformedPrimitive, elemOff, "special REAL value with content octets")
		}
		switch first {
		case 0x40:
			return asn1.NewRealInfinity(1), 1, nil
		case 0x41:
			return asn1.NewRealInfinity(-1), 1, nil
		}
		return nil, 0, errAt(KindMalformedPrimitive, elemOff, "reserved special REAL value")
	case first&0x80 == 0:
		r, err := c.decodeDecimal(content, elemOff)
		if err != nil {
			return nil, 0, err
		}
		return r, len(content), nil
	}
	r, err := c.decodeBinary(content, elemOff)
	if err != nil {
		return nil, 0, err
	}
	return r, len(content), nil
}

// decodeDecimal parses the ISO 6093 character representation selected by the
// low nibble of the leading octet (NR1, NR2 or NR3) into a base-10 triple.
func (realDecoder) decodeDecimal(content []byte, elemOff int) (asn1.Real, error) {
	nr := content[0] & 0x3F
	if nr == 0 || nr > 3 {
		return asn1.Real{}, errAt(KindMalformedPrimitive, elemOff, "invalid decimal REAL representation")
	}
	s := strings.TrimLeft(string(content[1:]), " ")
	s = strings.Replace(s, ",", ".", 1)

	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	i := 0
	var mantissa uint64
	digits := 0
	exponent := 0
	for ; i < len(s) && '0' <= s[i] && s[i] <= '9'; i++ {
		mantissa = mantissa*10 + uint64(s[i]-'0')
		digits++
	}
	if digits == 0 {
		return asn1.Real{}, errAt(KindMalformedPrimitive, elemOff, "malformed decimal REAL")
	}
	if i < len(s) && s[i] == '.' {
		if nr == 1 {
			return asn1.Real{}, errAt(KindMalformedPrimitive, elemOff, "NR1 REAL with fraction")
		}
		for i++; i < len(s) && '0' <= s[i] && s[i] <= '9'; i++ {
			mantissa = mantissa*10 + uint64(s[i]-'0')
			exponent--
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		if nr != 3 {
			return asn1.Real{}, errAt(KindMalformedPrimitive, elemOff, "exponent in non-NR3 REAL")
		}
		e, err := strconv.Atoi(s[i+1:])
		if err != nil {
			return asn1.Real{}, errAt(KindMalformedPrimitive, elemOff, "malformed REAL exponent")
		}
		exponent += e
		i = len(s)
	}
	if i != len(s) {
		return asn1.Real{}, errAt(KindMalformedPrimitive, elemOff, "malformed decimal REAL")
	}
	if mantissa > 1<<63-1 {
		return asn1.Real{}, errAt(KindValueOutOfRange, elemOff, "REAL mantissa out of range")
	}
	m := int64(mantissa)
	if neg {
		m = -m
	}
	return asn1.NewReal(m, 10, exponent), nil
}

// decodeBinary parses the binary representation 1SBBFFEE into a base-2
// triple.
func (realDecoder) decodeBinary(content []byte, elemOff int) (asn1.Real, error) {
	first := content[0]
	var scale int
	switch first & 0x30 >> 4 {
	case 0:
		scale = 1
	case 1:
		scale = 3
	case 2:
		scale = 4
	default:
		return asn1.Real{}, errAt(KindMalformedPrimitive, elemOff, "reserved REAL base")
	}
	f := int(first & 0x0C >> 2)

	pos := 1
	expLen := int(first&0x03) + 1
	if expLen == 4 {
		if len(content) < 2 {
			return asn1.Real{}, errAt(KindMalformedPrimitive, elemOff, "truncated REAL exponent")
		}
		expLen = int(content[1])
		pos = 2
		if expLen == 0 {
			return asn1.Real{}, errAt(KindMalformedPrimitive, elemOff, "zero-length REAL exponent")
		}
	}
	if expLen > 8 {
		return asn1.Real{}, errAt(KindValueOutOfRange, elemOff, "REAL exponent too long")
	}
	if pos+expLen > len(content) {
		return asn1.Real{}, errAt(KindMalformedPrimitive, elemOff, "truncated REAL exponent")
	}
	var e int64
	for _, b := range content[pos : pos+expLen] {
		e = e<<8 | int64(b)
	}
	// sign extend
	e <<= 64 - expLen*8
	e >>= 64 - expLen*8
	pos += expLen

	if pos == len(content) {
		return asn1.Real{}, errAt(KindMalformedPrimitive, elemOff, "REAL with empty mantissa")
	}
	var m uint64
	for _, b := range content[pos:] {
		if m > (1<<63-1)>>8 {
			return asn1.Real{}, errAt(KindValueOutOfRange, elemOff, "REAL mantissa out of range")
		}
		m = m<<8 | uint64(b)
	}
	mantissa := int64(m)
	if first&0x40 != 0 {
		mantissa = -mantissa
	}

	e2 := e*int64(scale) + int64(f)
	if e2 > 1<<31-1 || e2 < -(1<<31) {
		return asn1.Real{}, errAt(KindValueOutOfRange, elemOff, "REAL exponent out of range")
	}
	return asn1.NewReal(mantissa, 2, int(e2)), nil
}

//endregion
