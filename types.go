// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asn1

import (
	"bytes"
	"math/big"
	"strconv"
	"strings"
)

// orBase returns ts if it carries any tags and the singleton tag set of base
// otherwise. Value types use it to fall back to their base tag.
func orBase(ts TagSet, base Tag) TagSet {
	if ts.Len() > 0 {
		return ts
	}
	return NewTagSet(base)
}

//region [UNIVERSAL 1] BOOLEAN

// Boolean represents the ASN.1 BOOLEAN type.
type Boolean struct {
	tags TagSet
	v    bool
}

// NewBoolean returns a Boolean holding v.
func NewBoolean(v bool) Boolean {
	return Boolean{v: v}
}

// Bool returns the value of v.
func (v Boolean) Bool() bool { return v.v }

func (v Boolean) TagSet() TagSet     { return orBase(v.tags, Universal(NumberBoolean)) }
func (v Boolean) BaseTagSet() TagSet { return NewTagSet(Universal(NumberBoolean)) }
func (v Boolean) TypeID() TypeID     { return TypeBoolean }

// WithTagSet returns a copy of v carrying the given tag set.
func (v Boolean) WithTagSet(ts TagSet) Value { v.tags = ts; return v }

// Implicit returns a copy of v with its outermost tag replaced by t.
func (v Boolean) Implicit(t Tag) Boolean { v.tags = v.TagSet().TagImplicitly(t); return v }

// Explicit returns a copy of v wrapped in the explicit tag t.
func (v Boolean) Explicit(t Tag) Boolean { v.tags = v.TagSet().TagExplicitly(t); return v }

func (v Boolean) String() string { return strconv.FormatBool(v.v) }

//endregion

//region [UNIVERSAL 2] INTEGER

// Integer represents the ASN.1 INTEGER type. The value is backed by a
// [big.Int] so the full range of the wire format round-trips.
type Integer struct {
	tags TagSet
	v    *big.Int
}

// NewInteger returns an Integer holding v.
func NewInteger(v int64) Integer {
	return Integer{v: big.NewInt(v)}
}

// NewIntegerBig returns an Integer holding a copy of v.
func NewIntegerBig(v *big.Int) Integer {
	return Integer{v: new(big.Int).Set(v)}
}

// Big returns the value of v. The returned integer must not be modified.
func (v Integer) Big() *big.Int {
	if v.v == nil {
		return new(big.Int)
	}
	return v.v
}

// Int64 returns the value of v as an int64. The second return value reports
// whether the value fits.
func (v Integer) Int64() (int64, bool) {
	b := v.Big()
	return b.Int64(), b.IsInt64()
}

func (v Integer) TagSet() TagSet     { return orBase(v.tags, Universal(NumberInteger)) }
func (v Integer) BaseTagSet() TagSet { return NewTagSet(Universal(NumberInteger)) }
func (v Integer) TypeID() TypeID     { return TypeInteger }

// WithTagSet returns a copy of v carrying the given tag set.
func (v Integer) WithTagSet(ts TagSet) Value { v.tags = ts; return v }

// Implicit returns a copy of v with its outermost tag replaced by t.
func (v Integer) Implicit(t Tag) Integer { v.tags = v.TagSet().TagImplicitly(t); return v }

// Explicit returns a copy of v wrapped in the explicit tag t.
func (v Integer) Explicit(t Tag) Integer { v.tags = v.TagSet().TagExplicitly(t); return v }

func (v Integer) String() string { return v.Big().String() }

//endregion

//region [UNIVERSAL 3] BIT STRING

// BitString represents the ASN.1 BIT STRING type. A bit string is padded up to
// the nearest byte in memory and the number of valid bits is recorded. Padding
// bits are encoded and decoded as zero bits.
type BitString struct {
	tags      TagSet
	Bytes     []byte // bits packed into bytes, most significant bit first
	BitLength int    // length in bits
}

// NewBitString returns a BitString over the given packed bits.
func NewBitString(b []byte, bitLength int) BitString {
	return BitString{Bytes: b, BitLength: bitLength}
}

// IsValid reports whether there are enough bytes in v for the indicated
// BitLength.
func (v BitString) IsValid() bool {
	return v.BitLength >= 0 && len(v.Bytes) >= (v.BitLength+8-1)/8
}

// Len returns the number of bits in v.
func (v BitString) Len() int { return v.BitLength }

// At returns the bit at the given index. If the index is out of range At
// panics.
func (v BitString) At(i int) int {
	if i < 0 || i >= v.BitLength {
		panic("index out of range")
	}
	return int(v.Bytes[i/8]>>(7-uint(i%8))) & 1
}

func (v BitString) TagSet() TagSet     { return orBase(v.tags, Universal(NumberBitString)) }
func (v BitString) BaseTagSet() TagSet { return NewTagSet(Universal(NumberBitString)) }
func (v BitString) TypeID() TypeID     { return TypeBitString }

// WithTagSet returns a copy of v carrying the given tag set.
func (v BitString) WithTagSet(ts TagSet) Value { v.tags = ts; return v }

// Implicit returns a copy of v with its outermost tag replaced by t.
func (v BitString) Implicit(t Tag) BitString { v.tags = v.TagSet().TagImplicitly(t); return v }

// Explicit returns a copy of v wrapped in the explicit tag t.
func (v BitString) Explicit(t Tag) BitString { v.tags = v.TagSet().TagExplicitly(t); return v }

// String formats v into a readable binary representation.
func (v BitString) String() string {
	var sb strings.Builder
	sb.Grow(v.BitLength)
	for i := 0; i < v.BitLength; i++ {
		sb.WriteByte('0' + byte(v.At(i)))
	}
	return sb.String()
}

//endregion

//region [UNIVERSAL 4] OCTET STRING

// OctetString represents the ASN.1 OCTET STRING type.
type OctetString struct {
	tags TagSet
	v    []byte
}

// NewOctetString returns an OctetString over b. The slice is not copied.
func NewOctetString(b []byte) OctetString {
	return OctetString{v: b}
}

// Bytes returns the payload of v.
func (v OctetString) Bytes() []byte { return v.v }

// WithBytes returns a copy of v with the payload replaced by b.
func (v OctetString) WithBytes(b []byte) Value { v.v = b; return v }

func (v OctetString) TagSet() TagSet     { return orBase(v.tags, Universal(NumberOctetString)) }
func (v OctetString) BaseTagSet() TagSet { return NewTagSet(Universal(NumberOctetString)) }
func (v OctetString) TypeID() TypeID     { return TypeOctetString }

// WithTagSet returns a copy of v carrying the given tag set.
func (v OctetString) WithTagSet(ts TagSet) Value { v.tags = ts; return v }

// Implicit returns a copy of v with its outermost tag replaced by t.
func (v OctetString) Implicit(t Tag) OctetString { v.tags = v.TagSet().TagImplicitly(t); return v }

// Explicit returns a copy of v wrapped in the explicit tag t.
func (v OctetString) Explicit(t Tag) OctetString { v.tags = v.TagSet().TagExplicitly(t); return v }

func (v OctetString) String() string { return string(v.v) }

//endregion

//region [UNIVERSAL 5] NULL

// Null represents the ASN.1 NULL type.
type Null struct {
	tags TagSet
}

// NewNull returns a Null value.
func NewNull() Null { return Null{} }

func (v Null) TagSet() TagSet     { return orBase(v.tags, Universal(NumberNull)) }
func (v Null) BaseTagSet() TagSet { return NewTagSet(Universal(NumberNull)) }
func (v Null) TypeID() TypeID     { return TypeNull }

// WithTagSet returns a copy of v carrying the given tag set.
func (v Null) WithTagSet(ts TagSet) Value { v.tags = ts; return v }

// Implicit returns a copy of v with its outermost tag replaced by t.
func (v Null) Implicit(t Tag) Null { v.tags = v.TagSet().TagImplicitly(t); return v }

// Explicit returns a copy of v wrapped in the explicit tag t.
func (v Null) Explicit(t Tag) Null { v.tags = v.TagSet().TagExplicitly(t); return v }

func (v Null) String() string { return "NULL" }

//endregion

//region [UNIVERSAL 6] OBJECT IDENTIFIER

// ObjectIdentifier represents an ASN.1 OBJECT IDENTIFIER. The semantics of an
// object identifier are specified in [Rec. ITU-T X.660].
//
// [Rec. ITU-T X.660]: https://www.itu.int/rec/T-REC-X.660
type ObjectIdentifier struct {
	tags TagSet
	arcs []uint64
}

// NewObjectIdentifier returns the OBJECT IDENTIFIER with the given
// sub-identifiers.
func NewObjectIdentifier(arcs ...uint64) ObjectIdentifier {
	return ObjectIdentifier{arcs: arcs}
}

// Arcs returns the sub-identifiers of v. The returned slice must not be
// modified.
func (v ObjectIdentifier) Arcs() []uint64 { return v.arcs }

func (v ObjectIdentifier) TagSet() TagSet {
	return orBase(v.tags, Universal(NumberObjectIdentifier))
}
func (v ObjectIdentifier) BaseTagSet() TagSet {
	return NewTagSet(Universal(NumberObjectIdentifier))
}
func (v ObjectIdentifier) TypeID() TypeID { return TypeObjectIdentifier }

// WithTagSet returns a copy of v carrying the given tag set.
func (v ObjectIdentifier) WithTagSet(ts TagSet) Value { v.tags = ts; return v }

// Implicit returns a copy of v with its outermost tag replaced by t.
func (v ObjectIdentifier) Implicit(t Tag) ObjectIdentifier {
	v.tags = v.TagSet().TagImplicitly(t)
	return v
}

// Explicit returns a copy of v wrapped in the explicit tag t.
func (v ObjectIdentifier) Explicit(t Tag) ObjectIdentifier {
	v.tags = v.TagSet().TagExplicitly(t)
	return v
}

// String returns the dot-separated notation of v.
func (v ObjectIdentifier) String() string {
	var s strings.Builder
	s.Grow(32)
	for i, a := range v.arcs {
		if i > 0 {
			s.WriteByte('.')
		}
		s.WriteString(strconv.FormatUint(a, 10))
	}
	return s.String()
}

//endregion

//region [UNIVERSAL 9] REAL

// Real represents the ASN.1 REAL type as the (mantissa, base, exponent)
// triple, so that v = mantissa * base^exponent. The base is restricted to 2
// and 10. The two infinities are represented separately.
type Real struct {
	tags     TagSet
	mantissa int64
	base     int
	exponent int
	inf      int8 // -1, 0, +1
}

// NewReal returns the Real mantissa * base^exponent. The base must be 2 or
// 10; other bases are rejected by the encoder.
func NewReal(mantissa int64, base, exponent int) Real {
	return Real{mantissa: mantissa, base: base, exponent: exponent}
}

// NewRealInfinity returns positive infinity if sign >= 0 and negative
// infinity otherwise.
func NewRealInfinity(sign int) Real {
	if sign >= 0 {
		return Real{inf: 1}
	}
	return Real{inf: -1}
}

// Mantissa returns the mantissa of v.
func (v Real) Mantissa() int64 { return v.mantissa }

// Base returns the base of v.
func (v Real) Base() int { return v.base }

// Exponent returns the exponent of v.
func (v Real) Exponent() int { return v.exponent }

// IsInfinity returns +1 for positive infinity, -1 for negative infinity and 0
// otherwise.
func (v Real) IsInfinity() int { return int(v.inf) }

// IsZero reports whether v is a finite zero.
func (v Real) IsZero() bool { return v.inf == 0 && v.mantissa == 0 }

// normalized returns the triple of v with a base-2 mantissa reduced to odd.
// Base-10 values are returned unchanged.
func (v Real) normalized() (m int64, b, e int) {
	m, b, e = v.mantissa, v.base, v.exponent
	if m == 0 {
		return 0, 0, 0
	}
	if b != 2 {
		return m, b, e
	}
	for m&1 == 0 {
		m >>= 1
		e++
	}
	return m, b, e
}

func (v Real) TagSet() TagSet     { return orBase(v.tags, Universal(NumberReal)) }
func (v Real) BaseTagSet() TagSet { return NewTagSet(Universal(NumberReal)) }
func (v Real) TypeID() TypeID     { return TypeReal }

// WithTagSet returns a copy of v carrying the given tag set.
func (v Real) WithTagSet(ts TagSet) Value { v.tags = ts; return v }

// Implicit returns a copy of v with its outermost tag replaced by t.
func (v Real) Implicit(t Tag) Real { v.tags = v.TagSet().TagImplicitly(t); return v }

// Explicit returns a copy of v wrapped in the explicit tag t.
func (v Real) Explicit(t Tag) Real { v.tags = v.TagSet().TagExplicitly(t); return v }

func (v Real) String() string {
	switch v.inf {
	case 1:
		return "inf"
	case -1:
		return "-inf"
	}
	return "{" + strconv.FormatInt(v.mantissa, 10) + ", " +
		strconv.Itoa(v.base) + ", " + strconv.Itoa(v.exponent) + "}"
}

//endregion

//region [UNIVERSAL 10] ENUMERATED

// Enumerated represents the ASN.1 ENUMERATED type.
type Enumerated struct {
	tags TagSet
	v    int64
}

// NewEnumerated returns an Enumerated holding v.
func NewEnumerated(v int64) Enumerated {
	return Enumerated{v: v}
}

// Int64 returns the value of v.
func (v Enumerated) Int64() int64 { return v.v }

func (v Enumerated) TagSet() TagSet     { return orBase(v.tags, Universal(NumberEnumerated)) }
func (v Enumerated) BaseTagSet() TagSet { return NewTagSet(Universal(NumberEnumerated)) }
func (v Enumerated) TypeID() TypeID     { return TypeEnumerated }

// WithTagSet returns a copy of v carrying the given tag set.
func (v Enumerated) WithTagSet(ts TagSet) Value { v.tags = ts; return v }

// Implicit returns a copy of v with its outermost tag replaced by t.
func (v Enumerated) Implicit(t Tag) Enumerated { v.tags = v.TagSet().TagImplicitly(t); return v }

// Explicit returns a copy of v wrapped in the explicit tag t.
func (v Enumerated) Explicit(t Tag) Enumerated { v.tags = v.TagSet().TagExplicitly(t); return v }

func (v Enumerated) String() string { return strconv.FormatInt(v.v, 10) }

//endregion

//region Character string and time types

// CharacterString represents the restricted character string types and the
// string-based time types (UTCTime, GeneralizedTime). All of these types share
// the OCTET STRING content encoding and differ only in their base tag, so a
// single Go type carries the whole family. Use the per-family constructors
// such as [NewUTF8String] or [NewIA5String].
type CharacterString struct {
	base Tag
	id   TypeID
	tags TagSet
	v    string
}

// NewUTF8String returns a UTF8String value.
func NewUTF8String(s string) CharacterString {
	return CharacterString{base: Universal(NumberUTF8String), id: TypeUTF8String, v: s}
}

// NewNumericString returns a NumericString value.
func NewNumericString(s string) CharacterString {
	return CharacterString{base: Universal(NumberNumericString), id: TypeNumericString, v: s}
}

// NewPrintableString returns a PrintableString value.
func NewPrintableString(s string) CharacterString {
	return CharacterString{base: Universal(NumberPrintableString), id: TypePrintableString, v: s}
}

// NewTeletexString returns a TeletexString (T61String) value.
func NewTeletexString(s string) CharacterString {
	return CharacterString{base: Universal(NumberTeletexString), id: TypeTeletexString, v: s}
}

// NewVideotexString returns a VideotexString value.
func NewVideotexString(s string) CharacterString {
	return CharacterString{base: Universal(NumberVideotexString), id: TypeVideotexString, v: s}
}

// NewIA5String returns an IA5String value.
func NewIA5String(s string) CharacterString {
	return CharacterString{base: Universal(NumberIA5String), id: TypeIA5String, v: s}
}

// NewGraphicString returns a GraphicString value.
func NewGraphicString(s string) CharacterString {
	return CharacterString{base: Universal(NumberGraphicString), id: TypeGraphicString, v: s}
}

// NewVisibleString returns a VisibleString value.
func NewVisibleString(s string) CharacterString {
	return CharacterString{base: Universal(NumberVisibleString), id: TypeVisibleString, v: s}
}

// NewGeneralString returns a GeneralString value.
func NewGeneralString(s string) CharacterString {
	return CharacterString{base: Universal(NumberGeneralString), id: TypeGeneralString, v: s}
}

// NewUniversalString returns a UniversalString value.
func NewUniversalString(s string) CharacterString {
	return CharacterString{base: Universal(NumberUniversalString), id: TypeUniversalString, v: s}
}

// NewBMPString returns a BMPString value.
func NewBMPString(s string) CharacterString {
	return CharacterString{base: Universal(NumberBMPString), id: TypeBMPString, v: s}
}

// NewUTCTime returns a UTCTime value holding the given textual time.
func NewUTCTime(s string) CharacterString {
	return CharacterString{base: Universal(NumberUTCTime), id: TypeUTCTime, v: s}
}

// NewGeneralizedTime returns a GeneralizedTime value holding the given textual
// time.
func NewGeneralizedTime(s string) CharacterString {
	return CharacterString{base: Universal(NumberGeneralizedTime), id: TypeGeneralizedTime, v: s}
}

// Bytes returns the payload of v.
func (v CharacterString) Bytes() []byte { return []byte(v.v) }

// WithBytes returns a copy of v with the payload replaced by b.
func (v CharacterString) WithBytes(b []byte) Value { v.v = string(b); return v }

func (v CharacterString) TagSet() TagSet     { return orBase(v.tags, v.base) }
func (v CharacterString) BaseTagSet() TagSet { return NewTagSet(v.base) }
func (v CharacterString) TypeID() TypeID     { return v.id }

// WithTagSet returns a copy of v carrying the given tag set.
func (v CharacterString) WithTagSet(ts TagSet) Value { v.tags = ts; return v }

// Implicit returns a copy of v with its outermost tag replaced by t.
func (v CharacterString) Implicit(t Tag) CharacterString {
	v.tags = v.TagSet().TagImplicitly(t)
	return v
}

// Explicit returns a copy of v wrapped in the explicit tag t.
func (v CharacterString) Explicit(t Tag) CharacterString {
	v.tags = v.TagSet().TagExplicitly(t)
	return v
}

func (v CharacterString) String() string { return v.v }

//endregion

//region End of contents

// EndOfContents is the singleton value whose encoding terminates an
// indefinite-length constructed element. Its tag is the reserved
// [UNIVERSAL 0] tag and it encodes as the two octets 00 00.
var EndOfContents Value = endOfContents{}

type endOfContents struct{}

func (endOfContents) TagSet() TagSet         { return NewTagSet(Universal(NumberReserved)) }
func (endOfContents) BaseTagSet() TagSet     { return NewTagSet(Universal(NumberReserved)) }
func (endOfContents) TypeID() TypeID         { return TypeEndOfContents }
func (endOfContents) WithTagSet(TagSet) Value { return endOfContents{} }
func (endOfContents) String() string          { return "EndOfContents" }

//endregion

// Equal reports whether a and b are values of the same type family holding
// equal payloads. Tag sets are not compared; use [SameType] for tag
// compatibility checks. Unset components of constructed values compare equal
// to each other.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.TypeID() != b.TypeID() {
		return false
	}
	switch va := a.(type) {
	case Boolean:
		return va.v == b.(Boolean).v
	case Integer:
		return va.Big().Cmp(b.(Integer).Big()) == 0
	case BitString:
		vb := b.(BitString)
		return va.BitLength == vb.BitLength && bytes.Equal(va.Bytes, vb.Bytes)
	case OctetString:
		return bytes.Equal(va.v, b.(OctetString).v)
	case Null:
		return true
	case ObjectIdentifier:
		vb := b.(ObjectIdentifier)
		if len(va.arcs) != len(vb.arcs) {
			return false
		}
		for i := range va.arcs {
			if va.arcs[i] != vb.arcs[i] {
				return false
			}
		}
		return true
	case Real:
		vb := b.(Real)
		if va.inf != 0 || vb.inf != 0 {
			return va.inf == vb.inf
		}
		am, ab, ae := va.normalized()
		bm, bb, be := vb.normalized()
		return am == bm && ab == bb && ae == be
	case Enumerated:
		return va.v == b.(Enumerated).v
	case CharacterString:
		return va.v == b.(CharacterString).v
	case endOfContents:
		return true
	case *Sequence:
		return equalComponents(va, b.(*Sequence))
	case *Set:
		return equalComponents(va, b.(*Set))
	case *SequenceOf:
		return equalComponents(va, b.(*SequenceOf))
	case *SetOf:
		return equalComponents(va, b.(*SetOf))
	case *Choice:
		vb := b.(*Choice)
		return va.chosen == vb.chosen && Equal(va.value, vb.value)
	case Any:
		return bytes.Equal(va.v, b.(Any).v)
	}
	return false
}

// equalComponents compares two constructed values component-wise.
func equalComponents(a, b ConstructedValue) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if !Equal(a.Component(i), b.Component(i)) {
			return false
		}
	}
	return true
}
