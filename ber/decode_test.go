// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tagwire.dev/asn1"
)

func mustDecode(t *testing.T, data []byte, opts DecodeOptions) (asn1.Value, []byte) {
	t.Helper()
	v, rest, err := UnmarshalWithOptions(data, opts)
	require.NoError(t, err)
	return v, rest
}

func decodeKind(t *testing.T, data []byte, opts DecodeOptions) Kind {
	t.Helper()
	_, _, err := UnmarshalWithOptions(data, opts)
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok, "error %v is not a *ber.Error", err)
	return kind
}

func TestDecode_LargeTag(t *testing.T) {
	v, rest := mustDecode(t, []byte{127, 141, 245, 182, 253, 47, 3, 2, 1, 1}, DecodeOptions{})
	assert.True(t, asn1.Equal(asn1.NewInteger(1), v))
	assert.Empty(t, rest)
	assert.Equal(t, 2, v.TagSet().Len())
}

func TestDecode_Integer(t *testing.T) {
	big64, _ := new(big.Int).SetString("FFFFFFFFFFFFFFFF", 16)

	tests := map[string]struct {
		data []byte
		want asn1.Value
		rest []byte
	}{
		"Pos":      {[]byte{2, 1, 12}, asn1.NewInteger(12), nil},
		"Neg":      {[]byte{2, 1, 244}, asn1.NewInteger(-12), nil},
		"Zero":     {[]byte{2, 0}, asn1.NewInteger(0), nil},
		"ZeroLong": {[]byte{2, 1, 0}, asn1.NewInteger(0), nil},
		"MinusOne": {[]byte{2, 1, 255}, asn1.NewInteger(-1), nil},
		"PosLong": {[]byte{2, 9, 0, 255, 255, 255, 255, 255, 255, 255, 255},
			asn1.NewIntegerBig(big64), nil},
		"NegLong": {[]byte{2, 9, 255, 0, 0, 0, 0, 0, 0, 0, 1},
			asn1.NewIntegerBig(new(big.Int).Neg(big64)), nil},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			v, rest := mustDecode(t, tt.data, DecodeOptions{})
			assert.True(t, asn1.Equal(tt.want, v), "got %v", v)
			assert.Equal(t, len(tt.rest), len(rest))
		})
	}

	t.Run("Spec", func(t *testing.T) {
		assert.Equal(t, KindSpecMismatch, decodeKind(t, []byte{2, 1, 12}, DecodeOptions{Spec: asn1.NewNull()}))
		v, _ := mustDecode(t, []byte{2, 1, 12}, DecodeOptions{Spec: asn1.NewInteger(0)})
		assert.True(t, asn1.Equal(asn1.NewInteger(12), v))
	})

	t.Run("TagFormat", func(t *testing.T) {
		assert.Equal(t, KindInvalidTagForm, decodeKind(t, []byte{34, 1, 12}, DecodeOptions{}))
	})

	t.Run("Strict", func(t *testing.T) {
		opts := DecodeOptions{StrictIntegers: true}
		assert.Equal(t, KindMalformedPrimitive, decodeKind(t, []byte{2, 2, 0, 12}, opts))
		assert.Equal(t, KindMalformedPrimitive, decodeKind(t, []byte{2, 2, 255, 244}, opts))
		assert.Equal(t, KindMalformedPrimitive, decodeKind(t, []byte{2, 0}, opts))
		v, _ := mustDecode(t, []byte{2, 2, 0, 255}, opts)
		assert.True(t, asn1.Equal(asn1.NewInteger(255), v))
	})

	t.Run("Tolerant", func(t *testing.T) {
		v, _ := mustDecode(t, []byte{2, 2, 0, 12}, DecodeOptions{})
		assert.True(t, asn1.Equal(asn1.NewInteger(12), v))
	})
}

func TestDecode_Boolean(t *testing.T) {
	tests := map[string]struct {
		data []byte
		want bool
		rest int
	}{
		"True":      {[]byte{1, 1, 1}, true, 0},
		"TrueNeg":   {[]byte{1, 1, 255}, true, 0},
		"ExtraTrue": {[]byte{1, 1, 1, 0, 120, 50, 50}, true, 4},
		"False":     {[]byte{1, 1, 0}, false, 0},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			v, rest := mustDecode(t, tt.data, DecodeOptions{})
			assert.True(t, asn1.Equal(asn1.NewBoolean(tt.want), v))
			assert.Len(t, rest, tt.rest)
		})
	}

	t.Run("TagFormat", func(t *testing.T) {
		assert.Equal(t, KindInvalidTagForm, decodeKind(t, []byte{33, 1, 1}, DecodeOptions{}))
	})
	t.Run("BadLength", func(t *testing.T) {
		assert.Equal(t, KindMalformedPrimitive, decodeKind(t, []byte{1, 2, 0, 0}, DecodeOptions{}))
	})
}

func TestDecode_BitString(t *testing.T) {
	want := asn1.NewBitString([]byte{169, 138}, 15)

	tests := map[string][]byte{
		"DefMode":          {3, 3, 1, 169, 138},
		"DefModeChunked":   {35, 8, 3, 2, 0, 169, 3, 2, 1, 138},
		"IndefModeChunked": {35, 128, 3, 2, 0, 169, 3, 2, 1, 138, 0, 0},
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			v, rest := mustDecode(t, data, DecodeOptions{})
			assert.True(t, asn1.Equal(want, v), "got %v", v)
			assert.Empty(t, rest)
		})
	}

	t.Run("TypeChecking", func(t *testing.T) {
		// a constructed BIT STRING assembled out of an INTEGER
		assert.Equal(t, KindMalformedPrimitive, decodeKind(t, []byte{35, 4, 2, 2, 42, 42}, DecodeOptions{}))
	})
	t.Run("BadPadding", func(t *testing.T) {
		assert.Equal(t, KindMalformedPrimitive, decodeKind(t, []byte{3, 2, 8, 169}, DecodeOptions{}))
	})
	t.Run("NonFinalPadding", func(t *testing.T) {
		data := []byte{35, 8, 3, 2, 1, 169, 3, 2, 0, 138}
		assert.Equal(t, KindMalformedPrimitive, decodeKind(t, data, DecodeOptions{}))
	})
}

func TestDecode_OctetString(t *testing.T) {
	want := asn1.NewOctetString([]byte("Quick brown fox"))

	tests := map[string][]byte{
		"DefMode":   {4, 15, 81, 117, 105, 99, 107, 32, 98, 114, 111, 119, 110, 32, 102, 111, 120},
		"IndefMode": {36, 128, 4, 15, 81, 117, 105, 99, 107, 32, 98, 114, 111, 119, 110, 32, 102, 111, 120, 0, 0},
		"DefModeChunked": {36, 23, 4, 4, 81, 117, 105, 99, 4, 4, 107, 32, 98, 114,
			4, 4, 111, 119, 110, 32, 4, 3, 102, 111, 120},
		"IndefModeChunked": {36, 128, 4, 4, 81, 117, 105, 99, 4, 4, 107, 32, 98, 114,
			4, 4, 111, 119, 110, 32, 4, 3, 102, 111, 120, 0, 0},
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			v, rest := mustDecode(t, data, DecodeOptions{})
			assert.True(t, asn1.Equal(want, v), "got %v", v)
			assert.Empty(t, rest)
		})
	}

	t.Run("MixedChunkType", func(t *testing.T) {
		assert.Equal(t, KindMalformedPrimitive, decodeKind(t, []byte{36, 4, 2, 2, 42, 42}, DecodeOptions{}))
	})
}

func TestDecode_ExplicitTaggedOctetString(t *testing.T) {
	want := asn1.NewOctetString([]byte("Quick brown fox")).
		Explicit(asn1.NewTag(asn1.ClassApplication, asn1.FormPrimitive, 5))

	tests := map[string][]byte{
		"DefMode": {101, 17, 4, 15, 81, 117, 105, 99, 107, 32, 98, 114, 111, 119, 110, 32, 102, 111, 120},
		"IndefMode": {101, 128, 36, 128, 4, 15, 81, 117, 105, 99, 107, 32, 98, 114, 111, 119, 110, 32,
			102, 111, 120, 0, 0, 0, 0},
		"DefModeChunked": {101, 25, 36, 23, 4, 4, 81, 117, 105, 99, 4, 4, 107, 32, 98, 114,
			4, 4, 111, 119, 110, 32, 4, 3, 102, 111, 120},
		"IndefModeChunked": {101, 128, 36, 128, 4, 4, 81, 117, 105, 99, 4, 4, 107, 32, 98, 114,
			4, 4, 111, 119, 110, 32, 4, 3, 102, 111, 120, 0, 0, 0, 0},
	}
	for name, data := range tests {
		t.Run("SelfDescribing/"+name, func(t *testing.T) {
			v, rest := mustDecode(t, data, DecodeOptions{})
			assert.True(t, asn1.SameType(want, v), "tag set %v", v.TagSet())
			assert.True(t, asn1.Equal(want, v))
			assert.Empty(t, rest)
		})
		t.Run("Guided/"+name, func(t *testing.T) {
			v, rest := mustDecode(t, data, DecodeOptions{Spec: want})
			assert.True(t, asn1.SameType(want, v))
			assert.True(t, asn1.Equal(want, v))
			assert.Empty(t, rest)
		})
	}
}

func TestDecode_Null(t *testing.T) {
	v, rest := mustDecode(t, []byte{5, 0}, DecodeOptions{})
	assert.True(t, asn1.Equal(asn1.NewNull(), v))
	assert.Empty(t, rest)

	assert.Equal(t, KindInvalidTagForm, decodeKind(t, []byte{37, 0}, DecodeOptions{}))
	assert.Equal(t, KindMalformedPrimitive, decodeKind(t, []byte{5, 1, 0}, DecodeOptions{}))
}

func TestDecode_ObjectIdentifier(t *testing.T) {
	tests := map[string]struct {
		data []byte
		want asn1.ObjectIdentifier
	}{
		"One":         {[]byte{6, 6, 43, 6, 0, 191, 255, 126}, asn1.NewObjectIdentifier(1, 3, 6, 0, 0xffffe)},
		"Edge1":       {[]byte{6, 1, 39}, asn1.NewObjectIdentifier(0, 39)},
		"Edge2":       {[]byte{6, 1, 79}, asn1.NewObjectIdentifier(1, 39)},
		"Edge3":       {[]byte{6, 1, 120}, asn1.NewObjectIdentifier(2, 40)},
		"Edge4":       {[]byte{6, 5, 0x90, 0x80, 0x80, 0x80, 0x4F}, asn1.NewObjectIdentifier(2, 0xffffffff)},
		"Edge5":       {[]byte{6, 1, 0x7F}, asn1.NewObjectIdentifier(2, 47)},
		"Edge6":       {[]byte{6, 2, 0x81, 0x00}, asn1.NewObjectIdentifier(2, 48)},
		"Edge7":       {[]byte{6, 3, 0x81, 0x34, 0x03}, asn1.NewObjectIdentifier(2, 100, 3)},
		"Edge8":       {[]byte{6, 2, 133, 0}, asn1.NewObjectIdentifier(2, 560)},
		"Edge9":       {[]byte{6, 4, 0x88, 0x84, 0x87, 0x02}, asn1.NewObjectIdentifier(2, 16843570)},
		"NonLeading":  {[]byte{6, 5, 85, 4, 129, 128, 0}, asn1.NewObjectIdentifier(2, 5, 4, 16384)},
		"Precomputed": {[]byte{6, 5, 43, 6, 1, 2, 1}, asn1.NewObjectIdentifier(1, 3, 6, 1, 2, 1)},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			v, rest := mustDecode(t, tt.data, DecodeOptions{})
			assert.True(t, asn1.Equal(tt.want, v), "got %v", v)
			assert.Empty(t, rest)
		})
	}

	errs := map[string]struct {
		data []byte
		kind Kind
	}{
		"Leading0x80Case1": {[]byte{6, 5, 85, 4, 128, 129, 0}, KindMalformedPrimitive},
		"Leading0x80Case2": {[]byte{6, 7, 1, 0x80, 0x80, 0x80, 0x80, 0x80, 0x7F}, KindMalformedPrimitive},
		"Leading0x80Case3": {[]byte{6, 2, 0x80, 1}, KindMalformedPrimitive},
		"Leading0x80Case4": {[]byte{6, 2, 0x80, 0x7F}, KindMalformedPrimitive},
		"TagFormat":        {[]byte{38, 1, 239}, KindInvalidTagForm},
		"ZeroLength":       {[]byte{6, 0, 0}, KindMalformedPrimitive},
		"Indefinite":       {[]byte{6, 128, 0}, KindInvalidLength},
		"ReservedLength":   {[]byte{6, 255, 0}, KindInvalidLength},
		"Truncated":        {[]byte{6, 2, 0x81, 0x80}, KindMalformedPrimitive},
		"ArcOverflow": {[]byte{0x06, 0x11, 0x83, 0xC6, 0xDF, 0xD4, 0xCC, 0xB3, 0xFF, 0xFF,
			0xFE, 0xF0, 0xB8, 0xD6, 0xB8, 0xCB, 0xE2, 0xB7, 0x17}, KindValueOutOfRange},
	}
	for name, tt := range errs {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.kind, decodeKind(t, tt.data, DecodeOptions{}))
		})
	}
}

func TestDecode_Real(t *testing.T) {
	tests := map[string]struct {
		data []byte
		want asn1.Real
	}{
		"Char":         {[]byte{9, 7, 3, 49, 50, 51, 69, 49, 49}, asn1.NewReal(123, 10, 11)},
		"Bin1":         {[]byte{9, 3, 128, 255, 1}, asn1.NewReal(1, 2, -1)},
		"Bin2":         {[]byte{9, 3, 148, 255, 13}, asn1.NewReal(26, 2, -3)},
		"Bin3":         {[]byte{9, 3, 160, 254, 1}, asn1.NewReal(1, 2, -8)},
		"Bin4":         {[]byte{9, 3, 128, 0, 1}, asn1.NewReal(1, 2, 0)},
		"Bin5":         {[]byte{9, 4, 161, 255, 1, 3}, asn1.NewReal(3, 2, -1020)},
		"PlusInf":      {[]byte{9, 1, 64}, asn1.NewRealInfinity(1)},
		"MinusInf":     {[]byte{9, 1, 65}, asn1.NewRealInfinity(-1)},
		"Empty":        {[]byte{9, 0}, asn1.NewReal(0, 10, 0)},
		"NegMantissa":  {[]byte{9, 3, 192, 0, 3}, asn1.NewReal(-3, 2, 0)},
		"CharFraction": {[]byte{9, 5, 2, 49, 50, 46, 53}, asn1.NewReal(125, 10, -1)},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			v, rest := mustDecode(t, tt.data, DecodeOptions{})
			assert.True(t, asn1.Equal(tt.want, v), "got %v", v)
			assert.Empty(t, rest)
		})
	}

	errs := map[string]struct {
		data []byte
		kind Kind
	}{
		"TagFormat":       {[]byte{41, 0}, KindInvalidTagForm},
		"ReservedSpecial": {[]byte{9, 1, 66}, KindMalformedPrimitive},
		"ReservedBase":    {[]byte{9, 3, 0xB0, 0, 1}, KindMalformedPrimitive},
		"BadNR":           {[]byte{9, 2, 0, 49}, KindMalformedPrimitive},
		"EmptyMantissa":   {[]byte{9, 2, 128, 0}, KindMalformedPrimitive},
	}
	for name, tt := range errs {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.kind, decodeKind(t, tt.data, DecodeOptions{}))
		})
	}
}

func TestDecode_Sequence(t *testing.T) {
	expected := func() *asn1.Sequence {
		s := namedSequence()
		s.SetComponent(0, asn1.NewNull())
		s.SetComponent(1, asn1.NewOctetString([]byte("quick brown")))
		s.SetComponent(2, asn1.NewInteger(1))
		return s
	}()

	tests := map[string][]byte{
		"DefMode": {48, 18, 5, 0, 4, 11, 113, 117, 105, 99, 107, 32, 98, 114, 111, 119, 110, 2, 1, 1},
		"IndefMode": {48, 128, 5, 0, 36, 128, 4, 11, 113, 117, 105, 99, 107, 32, 98, 114, 111, 119, 110,
			0, 0, 2, 1, 1, 0, 0},
		"DefModeChunked": {48, 24, 5, 0, 36, 17, 4, 4, 113, 117, 105, 99, 4, 4, 107, 32, 98, 114,
			4, 3, 111, 119, 110, 2, 1, 1},
		"IndefModeChunked": {48, 128, 5, 0, 36, 128, 4, 4, 113, 117, 105, 99, 4, 4, 107, 32, 98, 114,
			4, 3, 111, 119, 110, 0, 0, 2, 1, 1, 0, 0},
	}
	for name, data := range tests {
		t.Run("SelfDescribing/"+name, func(t *testing.T) {
			v, rest := mustDecode(t, data, DecodeOptions{})
			assert.True(t, asn1.Equal(expected, v), "got %v", v)
			assert.Empty(t, rest)
		})
		t.Run("Guided/"+name, func(t *testing.T) {
			v, rest := mustDecode(t, data, DecodeOptions{Spec: namedSequence()})
			assert.True(t, asn1.Equal(expected, v), "got %v", v)
			assert.Empty(t, rest)
		})
	}

	t.Run("TagFormat", func(t *testing.T) {
		data := []byte{16, 18, 5, 0, 4, 11, 113, 117, 105, 99, 107, 32, 98, 114, 111, 119, 110, 2, 1, 1}
		assert.Equal(t, KindInvalidTagForm, decodeKind(t, data, DecodeOptions{}))
	})
}

func TestDecode_GuidedSequence(t *testing.T) {
	build := func(fill func(s *asn1.Sequence)) *asn1.Sequence {
		s := namedSequence()
		fill(s)
		s.SetDefaults()
		return s
	}
	bare := build(func(s *asn1.Sequence) {
		s.SetComponent(0, asn1.NewNull())
	})
	withOptional := build(func(s *asn1.Sequence) {
		s.SetComponent(0, asn1.NewNull())
		s.SetComponent(1, asn1.NewOctetString([]byte("quick brown")))
	})
	withDefaulted := build(func(s *asn1.Sequence) {
		s.SetComponent(0, asn1.NewNull())
		s.SetComponent(2, asn1.NewInteger(1))
	})

	tests := map[string]struct {
		data []byte
		want *asn1.Sequence
	}{
		"Bare":            {[]byte{48, 128, 5, 0, 0, 0}, bare},
		"BareDefMode":     {[]byte{48, 2, 5, 0}, bare},
		"Optional":        {[]byte{48, 15, 5, 0, 4, 11, 113, 117, 105, 99, 107, 32, 98, 114, 111, 119, 110}, withOptional},
		"OptionalIndef": {[]byte{48, 128, 5, 0, 36, 128, 4, 11, 113, 117, 105, 99, 107, 32, 98, 114, 111,
			119, 110, 0, 0, 0, 0}, withOptional},
		"OptionalChunked": {[]byte{48, 21, 5, 0, 36, 17, 4, 4, 113, 117, 105, 99, 4, 4, 107, 32, 98, 114,
			4, 3, 111, 119, 110}, withOptional},
		"Defaulted":      {[]byte{48, 5, 5, 0, 2, 1, 1}, withDefaulted},
		"DefaultedIndef": {[]byte{48, 128, 5, 0, 2, 1, 1, 0, 0}, withDefaulted},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			v, rest := mustDecode(t, tt.data, DecodeOptions{Spec: namedSequence()})
			assert.True(t, asn1.Equal(tt.want, v), "got %v", v)
			assert.Empty(t, rest)
		})
	}

	t.Run("MissingMandatory", func(t *testing.T) {
		assert.Equal(t, KindSpecMismatch, decodeKind(t, []byte{48, 3, 2, 1, 1}, DecodeOptions{Spec: namedSequence()}))
	})
	t.Run("ExtraComponent", func(t *testing.T) {
		data := []byte{48, 8, 5, 0, 2, 1, 1, 1, 1, 255}
		assert.Equal(t, KindSpecMismatch, decodeKind(t, data, DecodeOptions{Spec: namedSequence()}))
	})
}

func TestDecode_Set(t *testing.T) {
	spec := asn1.NewSet(
		asn1.Field{Name: "flag", Type: asn1.NewBoolean(false)},
		asn1.Field{Name: "num", Type: asn1.NewInteger(0)},
	)
	want := spec.WithTagSet(spec.TagSet()).(*asn1.Set)
	want.SetComponent(0, asn1.NewBoolean(true))
	want.SetComponent(1, asn1.NewInteger(5))

	t.Run("InOrder", func(t *testing.T) {
		v, _ := mustDecode(t, []byte{49, 6, 1, 1, 255, 2, 1, 5}, DecodeOptions{Spec: spec})
		assert.True(t, asn1.Equal(want, v), "got %v", v)
	})
	t.Run("AnyOrder", func(t *testing.T) {
		v, _ := mustDecode(t, []byte{49, 6, 2, 1, 5, 1, 1, 255}, DecodeOptions{Spec: spec})
		assert.True(t, asn1.Equal(want, v), "got %v", v)
	})
	t.Run("Unexpected", func(t *testing.T) {
		assert.Equal(t, KindSpecMismatch, decodeKind(t, []byte{49, 2, 5, 0}, DecodeOptions{Spec: spec}))
	})
}

func TestDecode_SequenceOf(t *testing.T) {
	spec := asn1.NewSequenceOf(asn1.NewInteger(0))
	v, rest := mustDecode(t, []byte{48, 6, 2, 1, 1, 2, 1, 2}, DecodeOptions{Spec: spec})
	require.Empty(t, rest)
	sv := v.(*asn1.SequenceOf)
	require.Equal(t, 2, sv.Len())
	assert.True(t, asn1.Equal(asn1.NewInteger(1), sv.Component(0)))
	assert.True(t, asn1.Equal(asn1.NewInteger(2), sv.Component(1)))

	t.Run("SizeConstraint", func(t *testing.T) {
		tight := asn1.NewSequenceOf(asn1.NewInteger(0)).WithSizeConstraint(3, 4)
		assert.Equal(t, KindSizeConstraintViolation,
			decodeKind(t, []byte{48, 6, 2, 1, 1, 2, 1, 2}, DecodeOptions{Spec: tight}))
	})
	t.Run("ElementMismatch", func(t *testing.T) {
		assert.Equal(t, KindSpecMismatch, decodeKind(t, []byte{48, 2, 5, 0}, DecodeOptions{Spec: spec}))
	})
}

func choiceSpec() *asn1.Choice {
	return asn1.NewChoice(
		asn1.Field{Name: "place-holder", Type: asn1.NewNull()},
		asn1.Field{Name: "number", Type: asn1.NewInteger(0)},
		asn1.Field{Name: "string", Type: asn1.NewOctetString(nil)},
	)
}

func TestDecode_Choice(t *testing.T) {
	t.Run("BySpec", func(t *testing.T) {
		v, rest := mustDecode(t, []byte{5, 0}, DecodeOptions{Spec: choiceSpec()})
		require.Empty(t, rest)
		ch := v.(asn1.ChoiceValue)
		assert.Equal(t, 0, ch.ChosenIndex())
		assert.True(t, asn1.Equal(asn1.NewNull(), ch.Chosen()))
	})

	t.Run("WithoutSpec", func(t *testing.T) {
		v, _ := mustDecode(t, []byte{5, 0}, DecodeOptions{})
		assert.True(t, asn1.Equal(asn1.NewNull(), v))
	})

	t.Run("UndefLength", func(t *testing.T) {
		data := []byte{36, 128, 4, 3, 97, 98, 99, 4, 3, 100, 101, 102, 4, 2, 103, 104, 0, 0}
		v, rest := mustDecode(t, data, DecodeOptions{Spec: choiceSpec()})
		require.Empty(t, rest)
		ch := v.(asn1.ChoiceValue)
		assert.Equal(t, 2, ch.ChosenIndex())
		assert.True(t, asn1.Equal(asn1.NewOctetString([]byte("abcdefgh")), ch.Chosen()))
	})

	t.Run("ExplicitTag", func(t *testing.T) {
		spec := choiceSpec().Explicit(asn1.NewTag(asn1.ClassContextSpecific, asn1.FormConstructed, 4))
		v, rest := mustDecode(t, []byte{164, 2, 5, 0}, DecodeOptions{Spec: spec})
		require.Empty(t, rest)
		ch := v.(asn1.ChoiceValue)
		assert.Equal(t, 0, ch.ChosenIndex())
	})

	t.Run("ExplicitTagUndefLength", func(t *testing.T) {
		spec := choiceSpec().Explicit(asn1.NewTag(asn1.ClassContextSpecific, asn1.FormConstructed, 4))
		v, rest := mustDecode(t, []byte{164, 128, 5, 0, 0, 0}, DecodeOptions{Spec: spec})
		require.Empty(t, rest)
		assert.Equal(t, 0, v.(asn1.ChoiceValue).ChosenIndex())
	})

	t.Run("NoMatch", func(t *testing.T) {
		assert.Equal(t, KindSpecMismatch, decodeKind(t, []byte{9, 0}, DecodeOptions{Spec: choiceSpec()}))
	})
}

func TestDecode_Any(t *testing.T) {
	t.Run("Untagged", func(t *testing.T) {
		v, rest := mustDecode(t, []byte{4, 3, 102, 111, 120}, DecodeOptions{Spec: asn1.NewAny(nil)})
		require.Empty(t, rest)
		assert.True(t, asn1.Equal(asn1.NewAny([]byte{4, 3, 102, 111, 120}), v))
	})

	t.Run("TaggedExplicit", func(t *testing.T) {
		spec := asn1.NewAny(nil).Explicit(asn1.NewTag(asn1.ClassContextSpecific, asn1.FormPrimitive, 4))
		v, rest := mustDecode(t, []byte{164, 5, 4, 3, 102, 111, 120}, DecodeOptions{Spec: spec})
		require.Empty(t, rest)
		assert.True(t, asn1.Equal(asn1.NewAny([]byte{4, 3, 102, 111, 120}), v))
	})

	t.Run("TaggedImplicit", func(t *testing.T) {
		spec := asn1.NewAny(nil).Implicit(asn1.NewTag(asn1.ClassContextSpecific, asn1.FormPrimitive, 4))
		v, rest := mustDecode(t, []byte{132, 5, 4, 3, 102, 111, 120}, DecodeOptions{Spec: spec})
		require.Empty(t, rest)
		assert.True(t, asn1.Equal(asn1.NewAny([]byte{4, 3, 102, 111, 120}), v))
	})

	t.Run("TaggedExplicitIndef", func(t *testing.T) {
		spec := asn1.NewAny(nil).Explicit(asn1.NewTag(asn1.ClassContextSpecific, asn1.FormPrimitive, 4))
		v, rest := mustDecode(t, []byte{164, 128, 4, 3, 102, 111, 120, 0, 0}, DecodeOptions{Spec: spec})
		require.Empty(t, rest)
		assert.True(t, asn1.Equal(asn1.NewAny([]byte{4, 3, 102, 111, 120}), v))
	})
}

func TestDecode_EndOfContents(t *testing.T) {
	t.Run("TopLevelRejected", func(t *testing.T) {
		assert.Equal(t, KindUnexpectedEndOfContents, decodeKind(t, []byte{0, 0}, DecodeOptions{}))
	})
	t.Run("TopLevelAllowed", func(t *testing.T) {
		v, rest := mustDecode(t, []byte{0, 0}, DecodeOptions{AllowEndOfContents: true})
		assert.True(t, asn1.Equal(asn1.EndOfContents, v))
		assert.Empty(t, rest)
	})
	t.Run("InsideDefinite", func(t *testing.T) {
		assert.Equal(t, KindUnexpectedEndOfContents, decodeKind(t, []byte{0x23, 0x02, 0x00, 0x00}, DecodeOptions{}))
	})
	t.Run("EmptyIndefinite", func(t *testing.T) {
		v, rest := mustDecode(t, []byte{0x23, 0x80, 0x00, 0x00}, DecodeOptions{})
		assert.True(t, asn1.Equal(asn1.NewBitString(nil, 0), v))
		assert.Empty(t, rest)
	})
	t.Run("LongFormEOC", func(t *testing.T) {
		assert.Equal(t, KindUnexpectedEndOfContents, decodeKind(t, []byte{0x23, 0x80, 0x00, 0x81, 0x00}, DecodeOptions{}))
	})
	t.Run("ConstructedEOC", func(t *testing.T) {
		assert.Equal(t, KindUnexpectedEndOfContents, decodeKind(t, []byte{0x23, 0x80, 0x20, 0x00}, DecodeOptions{}))
	})
	t.Run("EOCWithData", func(t *testing.T) {
		assert.Equal(t, KindUnexpectedEndOfContents, decodeKind(t, []byte{0x23, 0x80, 0x00, 0x01, 0x00}, DecodeOptions{}))
	})
	t.Run("TaggedEOC", func(t *testing.T) {
		assert.Equal(t, KindUnexpectedEndOfContents, decodeKind(t, []byte{0x23, 0x80, 0x81, 0x00}, DecodeOptions{}))
	})
	t.Run("MissingEOC", func(t *testing.T) {
		assert.Equal(t, KindTruncatedInput, decodeKind(t, []byte{0x23, 0x80, 0x03, 0x02, 0x00, 0xA9}, DecodeOptions{}))
	})
}

func TestDecode_Substrate(t *testing.T) {
	capture := func(length *int) SubstrateFunc {
		return func(spec asn1.Value, substrate []byte, l int) (asn1.Value, []byte, error) {
			*length = l
			return asn1.NewAny(substrate), nil, nil
		}
	}

	tests := map[string]struct {
		data       []byte
		spec       asn1.Value
		wantBytes  []byte
		wantLength int
	}{
		"BitStringDef": {
			data:       []byte{35, 8, 3, 2, 0, 169, 3, 2, 1, 138},
			wantBytes:  []byte{3, 2, 0, 169, 3, 2, 1, 138},
			wantLength: 8,
		},
		"BitStringIndef": {
			data:       []byte{35, 128, 3, 2, 0, 169, 3, 2, 1, 138, 0, 0},
			wantBytes:  []byte{3, 2, 0, 169, 3, 2, 1, 138, 0, 0},
			wantLength: LengthIndefinite,
		},
		"ExplicitTagged": {
			data:       []byte{101, 17, 4, 15, 81, 117, 105, 99, 107, 32, 98, 114, 111, 119, 110, 32, 102, 111, 120},
			wantBytes:  []byte{4, 15, 81, 117, 105, 99, 107, 32, 98, 114, 111, 119, 110, 32, 102, 111, 120},
			wantLength: 17,
		},
		"Sequence": {
			data:       []byte{48, 18, 5, 0, 4, 11, 113, 117, 105, 99, 107, 32, 98, 114, 111, 119, 110, 2, 1, 1},
			wantBytes:  []byte{5, 0, 4, 11, 113, 117, 105, 99, 107, 32, 98, 114, 111, 119, 110, 2, 1, 1},
			wantLength: 18,
		},
		"UntaggedAny": {
			data:       []byte{4, 3, 102, 111, 120},
			spec:       asn1.NewAny(nil),
			wantBytes:  []byte{4, 3, 102, 111, 120},
			wantLength: 5,
		},
		"UntaggedAnyConstructed": {
			data:       []byte{164, 5, 4, 3, 102, 111, 120},
			spec:       asn1.NewAny(nil),
			wantBytes:  []byte{164, 5, 4, 3, 102, 111, 120},
			wantLength: 7,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			length := 0
			v, rest := mustDecode(t, tt.data, DecodeOptions{Spec: tt.spec, Substrate: capture(&length)})
			require.Empty(t, rest)
			assert.Equal(t, tt.wantBytes, v.(asn1.Any).Bytes())
			assert.Equal(t, tt.wantLength, length)
		})
	}
}

func TestDecode_SpecValidation(t *testing.T) {
	specs := map[string]struct {
		data []byte
		spec asn1.Value
	}{
		"Integer":     {[]byte{2, 1, 12}, asn1.NewInteger(0)},
		"OctetString": {[]byte{4, 3, 102, 111, 120}, asn1.NewOctetString(nil)},
		"Sequence":    {[]byte{48, 2, 5, 0}, namedSequence()},
	}
	for name, tt := range specs {
		t.Run(name, func(t *testing.T) {
			v, _ := mustDecode(t, tt.data, DecodeOptions{Spec: tt.spec})
			assert.Equal(t, tt.spec.BaseTagSet(), v.BaseTagSet())
		})
	}
}

func TestDecode_Truncated(t *testing.T) {
	tests := map[string][]byte{
		"Content":    {2, 5, 1},
		"Identifier": {0x9F, 0x81},
		"Length":     {0x30, 0x82, 0x01},
		"Empty":      {},
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, KindTruncatedInput, decodeKind(t, data, DecodeOptions{}))
		})
	}
}

func TestDecode_UnknownType(t *testing.T) {
	// a primitive element of an unknown, non-universal tag cannot be decoded
	// without a spec
	assert.Equal(t, KindUnknownType, decodeKind(t, []byte{0x87, 0x01, 0xFF}, DecodeOptions{}))
}
