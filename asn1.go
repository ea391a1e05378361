// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asn1 implements the value model for ASN.1 encoded data structures as
// defined in [Rec. ITU-T X.680]. This package defines the tag model (tags and
// tag sets) and Go types for the universal ASN.1 types. Encoding and decoding
// of values using the Basic Encoding Rules is implemented in the
// [tagwire.dev/asn1/ber] subpackage.
//
// # Tags and Tag Sets
//
// Every ASN.1 type is identified by a tag, a triple of class, form and number
// represented by the [Tag] type. Tagging a type wraps or replaces its tag:
// explicit tagging adds an outer tag, implicit tagging replaces the outermost
// tag. The tower of tags a value carries is represented by the [TagSet] type,
// innermost tag first. A plain value of a universal type has a tag set of
// length one containing the type's base tag.
//
// # Values
//
// Every ASN.1 value implements the [Value] interface, which exposes the tag
// set the value carries, the tag set of its underlying base type, and a type
// id that distinguishes type families sharing a tag (SEQUENCE and SEQUENCE OF
// both use tag number 16, SET and SET OF tag number 17). Values are plain Go values;
// tagging methods return modified copies and never mutate their receiver.
//
// [Rec. ITU-T X.680]: https://www.itu.int/rec/T-REC-X.680
package asn1

import (
	"strconv"
	"strings"
)

// Class holds the class part of an ASN.1 tag. The class acts as a namespace
// for the tag number. The constant values correspond to the class bits of the
// BER identifier octet.
type Class uint8

// Predefined [Class] constants. These are all the possible values of the Class
// type.
const (
	ClassUniversal       Class = 0x00
	ClassApplication     Class = 0x40
	ClassContextSpecific Class = 0x80
	ClassPrivate         Class = 0xC0
)

// Form indicates whether an element uses the primitive or constructed
// encoding. The constant values correspond to bit 6 of the BER identifier
// octet. The form recorded in a [Tag] is advisory: encoders recompute the
// actual form of an element (a chunked string flips from primitive to
// constructed).
type Form uint8

// Predefined [Form] constants.
const (
	FormPrimitive   Form = 0x00
	FormConstructed Form = 0x20
)

// MaxTagNumber is the largest tag number supported by this module on both the
// encoding and the decoding path.
const MaxTagNumber = 1<<32 - 1

// Tag constitutes an ASN.1 tag, consisting of its class, form and number. For
// details, see Section 8 of Rec. ITU-T X.680.
type Tag struct {
	Class  Class
	Form   Form
	Number uint32
}

// NewTag returns the tag with the given class, form and number.
func NewTag(class Class, form Form, number uint32) Tag {
	return Tag{Class: class, Form: form, Number: number}
}

// Equivalent reports whether t and o identify the same tag, ignoring the
// advisory form bit.
func (t Tag) Equivalent(o Tag) bool {
	return t.Class == o.Class && t.Number == o.Number
}

// String returns a string representation of t in a format similar to the one
// used in ASN.1 notation. The tag number is enclosed by square brackets and
// prefixed with the class used. To avoid ambiguity, the UNIVERSAL word is used
// for universal tags, although this is not valid ASN.1 syntax.
func (t Tag) String() string {
	n := strconv.FormatUint(uint64(t.Number), 10)
	switch t.Class {
	case ClassUniversal:
		return "[UNIVERSAL " + n + "]"
	case ClassApplication:
		return "[APPLICATION " + n + "]"
	case ClassContextSpecific:
		return "[" + n + "]"
	case ClassPrivate:
		return "[PRIVATE " + n + "]"
	}
	panic("unreachable")
}

// Universal tag numbers in the [ClassUniversal] namespace. These assignments
// are defined in Rec. ITU-T X.680, Section 8, Table 1.
const (
	NumberReserved uint32 = iota
	NumberBoolean
	NumberInteger
	NumberBitString
	NumberOctetString
	NumberNull
	NumberObjectIdentifier
	NumberObjectDescriptor
	NumberExternal
	NumberReal
	NumberEnumerated
	NumberEmbeddedPDV
	NumberUTF8String
	NumberRelativeOID
	NumberTime
	_
	NumberSequence
	NumberSet
	NumberNumericString
	NumberPrintableString
	NumberTeletexString
	NumberVideotexString
	NumberIA5String
	NumberUTCTime
	NumberGeneralizedTime
	NumberGraphicString
	NumberVisibleString
	NumberGeneralString
	NumberUniversalString
	NumberCharacterString
	NumberBMPString
)

// Universal returns the tag of the universal type with the given number. Types
// that are always encoded using the constructed form (SEQUENCE, SET) carry
// [FormConstructed], all others [FormPrimitive].
func Universal(number uint32) Tag {
	form := FormPrimitive
	if number == NumberSequence || number == NumberSet {
		form = FormConstructed
	}
	return Tag{Class: ClassUniversal, Form: form, Number: number}
}

// MaxTagSetDepth bounds the number of tags a TagSet can hold. Keeping the
// backing array inline makes TagSet comparable and therefore directly usable
// as a dispatch map key.
const MaxTagSetDepth = 6

// TagSet is the ordered tower of tags a value carries, innermost tag first and
// outermost tag last. A bare value of a universal type has a TagSet of length
// one; each layer of explicit tagging appends one tag. The zero TagSet is
// empty and describes an untagged type (CHOICE, ANY).
//
// TagSet is a comparable value type and can be used as a map key.
type TagSet struct {
	n    int
	tags [MaxTagSetDepth]Tag
}

// NewTagSet returns the TagSet consisting of the given tags, innermost first.
func NewTagSet(tags ...Tag) TagSet {
	if len(tags) > MaxTagSetDepth {
		panic("asn1: tag set too deep")
	}
	var ts TagSet
	ts.n = copy(ts.tags[:], tags)
	return ts
}

// Len returns the number of tags in ts.
func (ts TagSet) Len() int {
	return ts.n
}

// At returns the i-th tag of ts, counting from the innermost tag.
func (ts TagSet) At(i int) Tag {
	if i < 0 || i >= ts.n {
		panic("index out of range")
	}
	return ts.tags[i]
}

// Outermost returns the outermost tag of ts. This is the tag that appears
// first in the encoded representation of a value. Outermost panics if ts is
// empty.
func (ts TagSet) Outermost() Tag {
	if ts.n == 0 {
		panic("asn1: empty tag set")
	}
	return ts.tags[ts.n-1]
}

// TagExplicitly returns a copy of ts with t appended as a new outermost tag.
// The form of the new tag is forced to [FormConstructed] because an explicitly
// tagged element always wraps a complete inner encoding.
func (ts TagSet) TagExplicitly(t Tag) TagSet {
	if ts.n == MaxTagSetDepth {
		panic("asn1: tag set too deep")
	}
	t.Form = FormConstructed
	ts.tags[ts.n] = t
	ts.n++
	return ts
}

// TagImplicitly returns a copy of ts with the outermost tag replaced by t. The
// form of the previous outermost tag is preserved. If ts is empty, the result
// contains just t.
func (ts TagSet) TagImplicitly(t Tag) TagSet {
	if ts.n == 0 {
		return NewTagSet(t)
	}
	t.Form = ts.tags[ts.n-1].Form
	ts.tags[ts.n-1] = t
	return ts
}

// Truncated returns a copy of ts with the outermost tag removed. Truncated
// panics if ts is empty.
func (ts TagSet) Truncated() TagSet {
	if ts.n == 0 {
		panic("asn1: empty tag set")
	}
	ts.tags[ts.n-1] = Tag{}
	ts.n--
	return ts
}

// String returns the tags of ts in wire order, outermost tag first.
func (ts TagSet) String() string {
	var s strings.Builder
	for i := ts.n - 1; i >= 0; i-- {
		s.WriteString(ts.tags[i].String())
	}
	return s.String()
}

// TypeID identifies an ASN.1 type family. Type ids disambiguate families that
// share a tag: SEQUENCE and SEQUENCE OF both use tag number 16, SET and SET OF
// both use tag number 17, and CHOICE and ANY carry no tag at all.
type TypeID int

// Type ids for the type families implemented by this package.
const (
	TypeNone TypeID = iota
	TypeBoolean
	TypeInteger
	TypeBitString
	TypeOctetString
	TypeNull
	TypeObjectIdentifier
	TypeReal
	TypeEnumerated
	TypeUTF8String
	TypeNumericString
	TypePrintableString
	TypeTeletexString
	TypeVideotexString
	TypeIA5String
	TypeGraphicString
	TypeVisibleString
	TypeGeneralString
	TypeUniversalString
	TypeBMPString
	TypeUTCTime
	TypeGeneralizedTime
	TypeSequence
	TypeSequenceOf
	TypeSet
	TypeSetOf
	TypeChoice
	TypeAny
	TypeEndOfContents
)

// Value is the contract every ASN.1 value satisfies. It is the surface the
// codec layers consume: the tag set the value carries, the tag set of its
// untagged base type, and the type id of its family.
type Value interface {
	// TagSet returns the tag set of the value, including any implicit or
	// explicit tagging applied to it.
	TagSet() TagSet

	// BaseTagSet returns the tag set the value would have with all tagging
	// stripped, i.e. the tag set of its base type.
	BaseTagSet() TagSet

	// TypeID returns the id of the value's type family.
	TypeID() TypeID

	// WithTagSet returns a copy of the value carrying the given tag set.
	WithTagSet(ts TagSet) Value
}

// BytesValue is implemented by values with an octet payload: OCTET STRING, the
// character string and time types, and ANY.
type BytesValue interface {
	Value

	// Bytes returns the payload octets of the value.
	Bytes() []byte

	// WithBytes returns a copy of the value with the payload replaced. The tag
	// set of the receiver is preserved.
	WithBytes(b []byte) Value
}

// ConstructedValue is the structural surface of the SEQUENCE, SET,
// SEQUENCE OF and SET OF types.
type ConstructedValue interface {
	Value

	// Len returns the number of component slots currently held by the value.
	Len() int

	// Component returns the component at position i, or nil if the slot is
	// unset. Positions at or beyond Len return nil.
	Component(i int) Value

	// SetComponent stores v at position i, growing the component list as
	// needed.
	SetComponent(i int, v Value)

	// DefaultComponent returns the declared default for position i, or nil.
	DefaultComponent(i int) Value

	// SetDefaults fills every unset component that declares a default with
	// that default.
	SetDefaults()

	// VerifySize checks the value against its size constraint, if any.
	VerifySize() error

	// Clear removes all components.
	Clear()
}

// ChoiceValue is the structural surface of the CHOICE type.
type ChoiceValue interface {
	Value

	// Alternatives returns the declared alternatives of the choice.
	Alternatives() []Field

	// Chosen returns the currently chosen alternative's value, or nil.
	Chosen() Value

	// ChosenIndex returns the index of the chosen alternative, or -1.
	ChosenIndex() int

	// Choose returns a copy of the choice with alternative i set to v.
	Choose(i int, v Value) ChoiceValue
}

// SameType reports whether a and b carry the same tag set. This is the
// compatibility check decoders use when validating a decoded value against a
// caller-provided type.
func SameType(a, b Value) bool {
	return a != nil && b != nil && a.TagSet() == b.TagSet()
}
