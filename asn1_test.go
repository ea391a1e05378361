// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asn1

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTag_String(t *testing.T) {
	tests := map[string]Tag{
		"[UNIVERSAL 16]": Universal(NumberSequence),
		"[APPLICATION 5]": NewTag(ClassApplication, FormPrimitive, 5),
		"[173]":           NewTag(ClassContextSpecific, FormConstructed, 173),
		"[PRIVATE 0]":     NewTag(ClassPrivate, FormPrimitive, 0),
	}
	for want, tag := range tests {
		assert.Equal(t, want, tag.String())
	}
}

func TestUniversal(t *testing.T) {
	assert.Equal(t, FormConstructed, Universal(NumberSequence).Form)
	assert.Equal(t, FormConstructed, Universal(NumberSet).Form)
	assert.Equal(t, FormPrimitive, Universal(NumberInteger).Form)
}

func TestTag_Equivalent(t *testing.T) {
	a := NewTag(ClassUniversal, FormPrimitive, 4)
	b := NewTag(ClassUniversal, FormConstructed, 4)
	assert.True(t, a.Equivalent(b))
	assert.False(t, a.Equivalent(NewTag(ClassUniversal, FormPrimitive, 5)))
	assert.False(t, a.Equivalent(NewTag(ClassApplication, FormPrimitive, 4)))
}

func TestTagSet(t *testing.T) {
	base := NewTagSet(Universal(NumberOctetString))
	assert.Equal(t, 1, base.Len())

	explicit := base.TagExplicitly(NewTag(ClassApplication, FormPrimitive, 5))
	assert.Equal(t, 2, explicit.Len())
	assert.Equal(t, NewTag(ClassApplication, FormConstructed, 5), explicit.Outermost())
	assert.Equal(t, Universal(NumberOctetString), explicit.At(0))

	implicit := base.TagImplicitly(NewTag(ClassContextSpecific, FormConstructed, 3))
	assert.Equal(t, 1, implicit.Len())
	// the previous form is preserved
	assert.Equal(t, NewTag(ClassContextSpecific, FormPrimitive, 3), implicit.Outermost())

	assert.Equal(t, base, explicit.Truncated())
}

func TestTagSet_MapKey(t *testing.T) {
	m := map[TagSet]string{
		NewTagSet(Universal(NumberInteger)): "INTEGER",
	}
	// a separately constructed equal tag set hits the same key
	got, ok := m[NewInteger(42).TagSet()]
	assert.True(t, ok)
	assert.Equal(t, "INTEGER", got)
}

func TestTagSet_EmptyForUntagged(t *testing.T) {
	assert.Equal(t, 0, NewAny(nil).TagSet().Len())
	assert.Equal(t, 0, NewChoice().TagSet().Len())
	assert.Equal(t, 1, NewAny(nil).Implicit(NewTag(ClassContextSpecific, FormPrimitive, 4)).TagSet().Len())
}

func TestSameType(t *testing.T) {
	tag := NewTag(ClassApplication, FormPrimitive, 5)
	a := NewOctetString([]byte("abc")).Explicit(tag)
	b := NewOctetString([]byte("xyz")).Explicit(tag)
	assert.True(t, SameType(a, b))
	assert.False(t, SameType(a, NewOctetString(nil)))
	assert.False(t, SameType(a, nil))
}

func TestBitString(t *testing.T) {
	bs := NewBitString([]byte{0xA9, 0x8A}, 15)
	assert.True(t, bs.IsValid())
	assert.Equal(t, 15, bs.Len())
	assert.Equal(t, 1, bs.At(0))
	assert.Equal(t, 0, bs.At(1))
	assert.Equal(t, 1, bs.At(14))
	assert.Equal(t, "101010011000101", bs.String())
	assert.False(t, NewBitString([]byte{0xA9}, 15).IsValid())
}

func TestInteger(t *testing.T) {
	v := NewInteger(-12)
	i, ok := v.Int64()
	assert.True(t, ok)
	assert.Equal(t, int64(-12), i)
	assert.Equal(t, "-12", v.String())

	zero := Integer{}
	assert.Equal(t, int64(0), zero.Big().Int64())
}

func TestObjectIdentifier_String(t *testing.T) {
	assert.Equal(t, "1.3.6.1.2.1", NewObjectIdentifier(1, 3, 6, 1, 2, 1).String())
}

func TestEqual(t *testing.T) {
	tests := map[string]struct {
		a, b Value
		want bool
	}{
		"Boolean":         {NewBoolean(true), NewBoolean(true), true},
		"BooleanDiffers":  {NewBoolean(true), NewBoolean(false), false},
		"Integer":         {NewInteger(42), NewInteger(42), true},
		"IntegerDiffers":  {NewInteger(42), NewInteger(43), false},
		"IgnoresTags":     {NewInteger(1), NewInteger(1).Implicit(NewTag(ClassContextSpecific, FormPrimitive, 0)), true},
		"TypeMismatch":    {NewInteger(1), NewEnumerated(1), false},
		"Null":            {NewNull(), NewNull(), true},
		"OctetString":     {NewOctetString([]byte("ab")), NewOctetString([]byte("ab")), true},
		"String":          {NewUTF8String("ab"), NewUTF8String("ab"), true},
		"StringKind":      {NewUTF8String("ab"), NewIA5String("ab"), false},
		"OID":             {NewObjectIdentifier(1, 2, 3), NewObjectIdentifier(1, 2, 3), true},
		"OIDDiffers":      {NewObjectIdentifier(1, 2, 3), NewObjectIdentifier(1, 2), false},
		"RealNormalized":  {NewReal(26, 2, -3), NewReal(13, 2, -2), true},
		"RealBaseDiffers": {NewReal(1, 2, 0), NewReal(1, 10, 0), false},
		"RealZero":        {NewReal(0, 2, 5), NewReal(0, 10, 0), true},
		"RealInfinity":    {NewRealInfinity(1), NewRealInfinity(1), true},
		"RealInfSign":     {NewRealInfinity(1), NewRealInfinity(-1), false},
		"EndOfContents":   {EndOfContents, EndOfContents, true},
		"Nil":             {nil, nil, true},
		"NilLeft":         {nil, NewNull(), false},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestSequence_Components(t *testing.T) {
	s := NewSequence(
		Field{Name: "id", Type: NewInteger(0)},
		Field{Name: "note", Type: NewOctetString(nil), Optional: true},
		Field{Name: "age", Type: NewInteger(0), Default: NewInteger(33)},
	)
	assert.Equal(t, 0, s.Len())

	s.SetComponent(0, NewInteger(7))
	assert.Equal(t, 1, s.Len())
	assert.Nil(t, s.Component(1))

	s.SetDefaults()
	assert.True(t, Equal(NewInteger(33), s.Component(2)))
	assert.Nil(t, s.Component(1))

	s.Clear()
	assert.Equal(t, 0, s.Len())
}

func TestSequence_EqualByComponents(t *testing.T) {
	a := NewSequence()
	a.SetComponent(0, NewNull())
	a.SetComponent(1, NewInteger(1))
	b := NewSequence(Field{Name: "x", Type: NewNull()}, Field{Name: "y", Type: NewInteger(0)})
	b.SetComponent(0, NewNull())
	b.SetComponent(1, NewInteger(1))
	assert.True(t, Equal(a, b))
	b.SetComponent(1, NewInteger(2))
	assert.False(t, Equal(a, b))
}

func TestSequenceOf_SizeConstraint(t *testing.T) {
	s := NewSequenceOf(NewInteger(0)).WithSizeConstraint(1, 2)
	assert.Error(t, s.VerifySize())
	s.Append(NewInteger(1))
	assert.NoError(t, s.VerifySize())
	s.Append(NewInteger(2))
	s.Append(NewInteger(3))
	assert.Error(t, s.VerifySize())
}

func TestChoice(t *testing.T) {
	c := NewChoice(
		Field{Name: "empty", Type: NewNull()},
		Field{Name: "number", Type: NewInteger(0)},
	)
	assert.Nil(t, c.Chosen())
	assert.Equal(t, -1, c.ChosenIndex())

	chosen := c.Choose(1, NewInteger(9))
	assert.Equal(t, 1, chosen.ChosenIndex())
	assert.True(t, Equal(NewInteger(9), chosen.Chosen()))
	// the original is unchanged
	assert.Nil(t, c.Chosen())
}

func TestWithTagSetCopies(t *testing.T) {
	s := NewSequence()
	s.SetComponent(0, NewNull())
	c := s.WithTagSet(NewTagSet(NewTag(ClassContextSpecific, FormConstructed, 1))).(*Sequence)
	c.Clear()
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 0, c.Len())
}
