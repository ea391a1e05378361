// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"strconv"

	"tagwire.dev/asn1"
)

// childWalker iterates the child elements within the content region of a
// constructed element. For a definite-length parent, b holds exactly the
// content region. For an indefinite-length parent, b holds all octets after
// the header and iteration ends at the end-of-contents marker.
type childWalker struct {
	b          []byte
	off        int // substrate offset of b[0]
	indefinite bool
	pos        int
	err        error
}

// next reports whether another child element follows and, if so, parses its
// header. The child's element region starts at w.pos.
func (w *childWalker) next() (header, bool) {
	if w.err != nil {
		return header{}, false
	}
	if w.indefinite {
		if isEndOfContentsOctets(w.b[w.pos:]) {
			w.pos += 2
			return header{}, false
		}
		if w.pos >= len(w.b) {
			w.err = errAt(KindTruncatedInput, w.off+w.pos, "missing end-of-contents")
			return header{}, false
		}
	} else if w.pos >= len(w.b) {
		return header{}, false
	}
	h, err := decodeHeader(w.b[w.pos:], w.off+w.pos)
	if err != nil {
		w.err = err
		return header{}, false
	}
	if h.isEndOfContents() {
		w.err = errAt(KindUnexpectedEndOfContents, w.off+w.pos, "end-of-contents inside definite-length content")
		return header{}, false
	}
	return h, true
}

// decodeChild decodes the child element at the current position against spec
// and advances past it.
func (w *childWalker) decodeChild(d *Decoder, spec asn1.Value) (asn1.Value, bool) {
	v, rest, err := d.decodeElement(w.b[w.pos:], w.off+w.pos, spec, false, nil)
	if err != nil {
		w.err = err
		return nil, false
	}
	w.pos += len(w.b[w.pos:]) - len(rest)
	return v, true
}

// newChildWalker returns a walker over the children of the element described
// by h. content is the slice passed to decodeValue, elemOff the substrate
// offset of the element start.
func newChildWalker(content []byte, h header, elemOff int) *childWalker {
	return &childWalker{
		b:          content,
		off:        elemOff + h.size,
		indefinite: h.length == LengthIndefinite,
	}
}

//region SEQUENCE and SET

// sequenceDecoder decodes SEQUENCE and SET elements. With a spec, children
// are matched against the declared component schema; without one, the result
// holds anonymous positional components decoded self-describing.
//
// For SEQUENCE the components must appear in schema order; the set variant
// accepts them in any order.
type sequenceDecoder struct {
	set bool
}

func (c sequenceDecoder) decodeValue(d *Decoder, content []byte, h header, spec asn1.Value, elemOff int) (asn1.Value, int, error) {
	if !h.constructed {
		return nil, 0, errAt(KindInvalidTagForm, elemOff, "primitive SEQUENCE or SET")
	}
	w := newChildWalker(content, h, elemOff)

	cv, _ := spec.(asn1.ConstructedValue)
	var fields []asn1.Field
	switch sv := cv.(type) {
	case *asn1.Sequence:
		fields = sv.Fields()
	case *asn1.Set:
		fields = sv.Fields()
	}
	if cv == nil || len(fields) == 0 {
		// no component schema: collect anonymous components decoded
		// self-describing
		result := cv
		if result == nil {
			if c.set || h.tag.Number == asn1.NumberSet {
				result = asn1.NewSet()
			} else {
				result = asn1.NewSequence()
			}
		} else {
			result = result.WithTagSet(result.TagSet()).(asn1.ConstructedValue)
			result.Clear()
		}
		for i := 0; ; i++ {
			if _, ok := w.next(); !ok {
				break
			}
			v, ok := w.decodeChild(d, nil)
			if !ok {
				break
			}
			result.SetComponent(i, v)
		}
		if w.err != nil {
			return nil, 0, w.err
		}
		return result, w.pos, nil
	}

	fresh := cv.WithTagSet(cv.TagSet()).(asn1.ConstructedValue)
	fresh.Clear()

	var err error
	if c.set {
		err = c.decodeAnyOrder(d, w, fresh, fields, elemOff)
	} else {
		err = c.decodeInOrder(d, w, fresh, fields, elemOff)
	}
	if err != nil {
		return nil, 0, err
	}
	fresh.SetDefaults()
	if err := fresh.VerifySize(); err != nil {
		return nil, 0, errAt(KindSizeConstraintViolation, elemOff, err.Error())
	}
	return fresh, w.pos, nil
}

// decodeInOrder matches children against the schema positionally. OPTIONAL
// and DEFAULT components absorb a non-matching tag by being skipped; any
// other mismatch is an error.
func (sequenceDecoder) decodeInOrder(d *Decoder, w *childWalker, result asn1.ConstructedValue, fields []asn1.Field, elemOff int) error {
	idx := 0
	for {
		ch, ok := w.next()
		if !ok {
			break
		}
		for idx < len(fields) && !fieldMatches(fields[idx], ch.tag) {
			if !fields[idx].Optional && fields[idx].Default == nil {
				return errAt(KindSpecMismatch, w.off+w.pos,
					"component "+fieldName(fields[idx], idx)+" expected, got "+ch.tag.String())
			}
			idx++
		}
		if idx >= len(fields) {
			return errAt(KindSpecMismatch, w.off+w.pos, "extra component "+ch.tag.String())
		}
		var fieldSpec asn1.Value
		if fields[idx].Type != nil {
			fieldSpec = fields[idx].Type
		}
		v, ok := w.decodeChild(d, fieldSpec)
		if !ok {
			break
		}
		result.SetComponent(idx, v)
		idx++
	}
	if w.err != nil {
		return w.err
	}
	for ; idx < len(fields); idx++ {
		if !fields[idx].Optional && fields[idx].Default == nil {
			return errAt(KindSpecMismatch, elemOff, "missing component "+fieldName(fields[idx], idx))
		}
	}
	return nil
}

// decodeAnyOrder matches each child against the first unfilled component
// whose tag fits. This implements the SET acceptance rule: any order, with
// ambiguous tags resolved in favor of the first unfilled position.
func (sequenceDecoder) decodeAnyOrder(d *Decoder, w *childWalker, result asn1.ConstructedValue, fields []asn1.Field, elemOff int) error {
	for {
		ch, ok := w.next()
		if !ok {
			break
		}
		idx := -1
		for i := range fields {
			if result.Component(i) == nil && fieldMatches(fields[i], ch.tag) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return errAt(KindSpecMismatch, w.off+w.pos, "unexpected component "+ch.tag.String())
		}
		var fieldSpec asn1.Value
		if fields[idx].Type != nil {
			fieldSpec = fields[idx].Type
		}
		v, ok := w.decodeChild(d, fieldSpec)
		if !ok {
			break
		}
		result.SetComponent(idx, v)
	}
	if w.err != nil {
		return w.err
	}
	for i, f := range fields {
		if result.Component(i) == nil && !f.Optional && f.Default == nil {
			return errAt(KindSpecMismatch, elemOff, "missing component "+fieldName(f, i))
		}
	}
	return nil
}

// fieldName returns the component name for diagnostics.
func fieldName(f asn1.Field, i int) string {
	if f.Name != "" {
		return f.Name
	}
	return "#" + strconv.Itoa(i)
}

// sequenceOfDecoder decodes the homogeneous SEQUENCE OF and SET OF types.
// Every child is decoded against the element prototype; the size constraint
// is checked after decoding.
type sequenceOfDecoder struct{}

func (sequenceOfDecoder) decodeValue(d *Decoder, content []byte, h header, spec asn1.Value, elemOff int) (asn1.Value, int, error) {
	if !h.constructed {
		return nil, 0, errAt(KindInvalidTagForm, elemOff, "primitive SEQUENCE OF or SET OF")
	}
	cv := spec.(asn1.ConstructedValue)
	var proto asn1.Value
	switch sv := cv.(type) {
	case *asn1.SequenceOf:
		proto = sv.Prototype()
	case *asn1.SetOf:
		proto = sv.Prototype()
	}
	fresh := cv.WithTagSet(cv.TagSet()).(asn1.ConstructedValue)
	fresh.Clear()

	w := newChildWalker(content, h, elemOff)
	for i := 0; ; i++ {
		if _, ok := w.next(); !ok {
			break
		}
		v, ok := w.decodeChild(d, proto)
		if !ok {
			break
		}
		fresh.SetComponent(i, v)
	}
	if w.err != nil {
		return nil, 0, w.err
	}
	if err := fresh.VerifySize(); err != nil {
		return nil, 0, errAt(KindSizeConstraintViolation, elemOff, err.Error())
	}
	return fresh, w.pos, nil
}

//endregion

//region CHOICE

// choiceDecoder decodes a tagged CHOICE. Tagging a CHOICE is always explicit,
// so the element wraps a single inner element that is matched against the
// alternatives.
type choiceDecoder struct{}

func (choiceDecoder) decodeValue(d *Decoder, content []byte, h header, spec asn1.Value, elemOff int) (asn1.Value, int, error) {
	if !h.constructed {
		return nil, 0, errAt(KindInvalidTagForm, elemOff, "tagged CHOICE must be constructed")
	}
	ch := spec.(asn1.ChoiceValue)
	open := ch.WithTagSet(asn1.TagSet{})

	w := newChildWalker(content, h, elemOff)
	if _, ok := w.next(); !ok {
		if w.err != nil {
			return nil, 0, w.err
		}
		return nil, 0, errAt(KindSpecMismatch, elemOff, "tagged CHOICE without alternative")
	}
	v, ok := w.decodeChild(d, open)
	if !ok {
		return nil, 0, w.err
	}
	if _, ok := w.next(); ok || w.err != nil {
		if w.err != nil {
			return nil, 0, w.err
		}
		return nil, 0, errAt(KindSpecMismatch, elemOff, "tagged CHOICE with multiple alternatives")
	}
	return v, w.pos, nil
}

//endregion

//region ANY

// anyDecoder decodes a tagged ANY: the content region passes through as raw
// octets. The untagged ANY is handled by the dispatcher because it consumes a
// complete element including its header.
type anyDecoder struct{}

func (anyDecoder) decodeValue(_ *Decoder, content []byte, h header, spec asn1.Value, elemOff int) (asn1.Value, int, error) {
	payload := content
	consumed := len(content)
	if h.length == LengthIndefinite {
		pos := 0
		for !isEndOfContentsOctets(content[pos:]) {
			if pos >= len(content) {
				return nil, 0, errAt(KindTruncatedInput, elemOff, "missing end-of-contents")
			}
			n, err := skipElement(content[pos:], elemOff+h.size+pos)
			if err != nil {
				return nil, 0, err
			}
			pos += n
		}
		payload = content[:pos]
		consumed = pos + 2
	}
	if bv, ok := spec.(asn1.BytesValue); ok {
		return bv.WithBytes(payload), consumed, nil
	}
	return asn1.NewAny(payload), consumed, nil
}

//endregion

// decoderTagMap is the tag-set keyed decoder registry used for
// self-describing input and as the base-tag fallback for spec-guided
// decoding. It is assembled once and never mutated afterwards.
var decoderTagMap = map[asn1.TagSet]valueDecoder{
	universalSet(asn1.NumberBoolean):          booleanDecoder{},
	universalSet(asn1.NumberInteger):          intDecoder{},
	universalSet(asn1.NumberBitString):        bitStringDecoder{},
	universalSet(asn1.NumberOctetString):      octetStringDecoder{},
	universalSet(asn1.NumberNull):             nullDecoder{},
	universalSet(asn1.NumberObjectIdentifier): objectIdentifierDecoder{},
	universalSet(asn1.NumberEnumerated):       intDecoder{enum: true},
	universalSet(asn1.NumberReal):             realDecoder{},
	universalSet(asn1.NumberSequence):         sequenceDecoder{},
	universalSet(asn1.NumberSet):              sequenceDecoder{set: true},
	// character string types
	universalSet(asn1.NumberUTF8String):      octetStringDecoder{},
	universalSet(asn1.NumberNumericString):   octetStringDecoder{},
	universalSet(asn1.NumberPrintableString): octetStringDecoder{},
	universalSet(asn1.NumberTeletexString):   octetStringDecoder{},
	universalSet(asn1.NumberVideotexString):  octetStringDecoder{},
	universalSet(asn1.NumberIA5String):       octetStringDecoder{},
	universalSet(asn1.NumberGraphicString):   octetStringDecoder{},
	universalSet(asn1.NumberVisibleString):   octetStringDecoder{},
	universalSet(asn1.NumberGeneralString):   octetStringDecoder{},
	universalSet(asn1.NumberUniversalString): octetStringDecoder{},
	universalSet(asn1.NumberBMPString):       octetStringDecoder{},
	// time types
	universalSet(asn1.NumberUTCTime):         octetStringDecoder{},
	universalSet(asn1.NumberGeneralizedTime): octetStringDecoder{},
}

// decoderTypeMap is the type-id keyed decoder registry for the type families
// whose tags are ambiguous or absent.
var decoderTypeMap = map[asn1.TypeID]valueDecoder{
	asn1.TypeSequence:   sequenceDecoder{},
	asn1.TypeSet:        sequenceDecoder{set: true},
	asn1.TypeSequenceOf: sequenceOfDecoder{},
	asn1.TypeSetOf:      sequenceOfDecoder{},
	asn1.TypeChoice:     choiceDecoder{},
	asn1.TypeAny:        anyDecoder{},
}
