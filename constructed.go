// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asn1

import (
	"fmt"
)

// Field describes one named component of a SEQUENCE or SET, or one alternative
// of a CHOICE.
type Field struct {
	// Name is the component name from the ASN.1 module. It is used for
	// diagnostics only.
	Name string

	// Type is the component's type, given as a prototype value. A nil Type
	// leaves the component untyped; decoders then derive the type from the
	// encoded tag.
	Type Value

	// Optional marks the component as OPTIONAL.
	Optional bool

	// Default holds the DEFAULT value of the component, or nil. A component
	// with a default is implicitly optional.
	Default Value
}

// structured carries the shared state of the SEQUENCE and SET types.
type structured struct {
	tags       TagSet
	fields     []Field
	components []Value
}

// Len returns the number of component slots currently held.
func (s *structured) Len() int { return len(s.components) }

// Component returns the component at position i, or nil if the slot is unset
// or beyond the current length.
func (s *structured) Component(i int) Value {
	if i < 0 || i >= len(s.components) {
		return nil
	}
	return s.components[i]
}

// SetComponent stores v at position i, growing the component list as needed.
func (s *structured) SetComponent(i int, v Value) {
	for len(s.components) <= i {
		s.components = append(s.components, nil)
	}
	s.components[i] = v
}

// Fields returns the declared component schema. The result is nil for values
// constructed without a schema.
func (s *structured) Fields() []Field { return s.fields }

// DefaultComponent returns the declared default for position i, or nil.
func (s *structured) DefaultComponent(i int) Value {
	if i < 0 || i >= len(s.fields) {
		return nil
	}
	return s.fields[i].Default
}

// SetDefaults fills every unset component that declares a default with that
// default.
func (s *structured) SetDefaults() {
	for i, f := range s.fields {
		if f.Default != nil && s.Component(i) == nil {
			s.SetComponent(i, f.Default)
		}
	}
}

// VerifySize implements [ConstructedValue]. SEQUENCE and SET have no size
// constraint.
func (s *structured) VerifySize() error { return nil }

// Clear removes all components.
func (s *structured) Clear() { s.components = nil }

//region [UNIVERSAL 16] SEQUENCE

// Sequence represents the ASN.1 SEQUENCE type with named components. The
// component schema is given as a [Field] list; values without a schema hold
// anonymous positional components (this is what decoding without a spec
// produces).
type Sequence struct {
	structured
}

// NewSequence returns an empty SEQUENCE with the given component schema.
func NewSequence(fields ...Field) *Sequence {
	return &Sequence{structured{fields: fields}}
}

func (s *Sequence) TagSet() TagSet     { return orBase(s.tags, Universal(NumberSequence)) }
func (s *Sequence) BaseTagSet() TagSet { return NewTagSet(Universal(NumberSequence)) }
func (s *Sequence) TypeID() TypeID     { return TypeSequence }

// WithTagSet returns a copy of s carrying the given tag set. The component
// list is shared between the copy and s.
func (s *Sequence) WithTagSet(ts TagSet) Value {
	c := *s
	c.tags = ts
	return &c
}

// Implicit returns a copy of s with its outermost tag replaced by t.
func (s *Sequence) Implicit(t Tag) *Sequence {
	return s.WithTagSet(s.TagSet().TagImplicitly(t)).(*Sequence)
}

// Explicit returns a copy of s wrapped in the explicit tag t.
func (s *Sequence) Explicit(t Tag) *Sequence {
	return s.WithTagSet(s.TagSet().TagExplicitly(t)).(*Sequence)
}

//endregion

//region [UNIVERSAL 17] SET

// Set represents the ASN.1 SET type with named components. Unlike SEQUENCE,
// the components of a SET may appear in any order in an encoding.
type Set struct {
	structured
}

// NewSet returns an empty SET with the given component schema.
func NewSet(fields ...Field) *Set {
	return &Set{structured{fields: fields}}
}

func (s *Set) TagSet() TagSet     { return orBase(s.tags, Universal(NumberSet)) }
func (s *Set) BaseTagSet() TagSet { return NewTagSet(Universal(NumberSet)) }
func (s *Set) TypeID() TypeID     { return TypeSet }

// WithTagSet returns a copy of s carrying the given tag set. The component
// list is shared between the copy and s.
func (s *Set) WithTagSet(ts TagSet) Value {
	c := *s
	c.tags = ts
	return &c
}

// Implicit returns a copy of s with its outermost tag replaced by t.
func (s *Set) Implicit(t Tag) *Set {
	return s.WithTagSet(s.TagSet().TagImplicitly(t)).(*Set)
}

// Explicit returns a copy of s wrapped in the explicit tag t.
func (s *Set) Explicit(t Tag) *Set {
	return s.WithTagSet(s.TagSet().TagExplicitly(t)).(*Set)
}

//endregion

// ofValue carries the shared state of the SEQUENCE OF and SET OF types.
type ofValue struct {
	tags        TagSet
	elem        Value // element prototype, may be nil
	components  []Value
	minSize     int
	maxSize     int
	constrained bool
}

// Len returns the number of elements.
func (s *ofValue) Len() int { return len(s.components) }

// Component returns the element at position i, or nil if out of range.
func (s *ofValue) Component(i int) Value {
	if i < 0 || i >= len(s.components) {
		return nil
	}
	return s.components[i]
}

// SetComponent stores v at position i, growing the element list as needed.
func (s *ofValue) SetComponent(i int, v Value) {
	for len(s.components) <= i {
		s.components = append(s.components, nil)
	}
	s.components[i] = v
}

// Append adds v at the end of the element list.
func (s *ofValue) Append(v Value) {
	s.components = append(s.components, v)
}

// Prototype returns the element prototype, or nil.
func (s *ofValue) Prototype() Value { return s.elem }

// DefaultComponent implements [ConstructedValue]. Elements of homogeneous
// types have no defaults.
func (s *ofValue) DefaultComponent(int) Value { return nil }

// SetDefaults implements [ConstructedValue]. It is a no-op.
func (s *ofValue) SetDefaults() {}

// VerifySize checks the element count against the size constraint, if any.
func (s *ofValue) VerifySize() error {
	if !s.constrained {
		return nil
	}
	if n := len(s.components); n < s.minSize || n > s.maxSize {
		return fmt.Errorf("%d elements outside size constraint [%d..%d]", len(s.components), s.minSize, s.maxSize)
	}
	return nil
}

// Clear removes all elements.
func (s *ofValue) Clear() { s.components = nil }

// setSize records a size constraint.
func (s *ofValue) setSize(min, max int) {
	s.minSize, s.maxSize, s.constrained = min, max, true
}

//region [UNIVERSAL 16] SEQUENCE OF

// SequenceOf represents the homogeneous ASN.1 SEQUENCE OF type. It shares its
// tag with SEQUENCE; the two are distinguished by their type id.
type SequenceOf struct {
	ofValue
}

// NewSequenceOf returns an empty SEQUENCE OF with the given element prototype.
// The prototype may be nil, in which case decoded elements derive their type
// from the encoded tag.
func NewSequenceOf(elem Value, components ...Value) *SequenceOf {
	return &SequenceOf{ofValue{elem: elem, components: components}}
}

// WithSizeConstraint returns a copy of s that rejects element counts outside
// [min, max] in [ofValue.VerifySize].
func (s *SequenceOf) WithSizeConstraint(min, max int) *SequenceOf {
	c := *s
	c.setSize(min, max)
	return &c
}

func (s *SequenceOf) TagSet() TagSet     { return orBase(s.tags, Universal(NumberSequence)) }
func (s *SequenceOf) BaseTagSet() TagSet { return NewTagSet(Universal(NumberSequence)) }
func (s *SequenceOf) TypeID() TypeID     { return TypeSequenceOf }

// WithTagSet returns a copy of s carrying the given tag set. The element list
// is shared between the copy and s.
func (s *SequenceOf) WithTagSet(ts TagSet) Value {
	c := *s
	c.tags = ts
	return &c
}

// Implicit returns a copy of s with its outermost tag replaced by t.
func (s *SequenceOf) Implicit(t Tag) *SequenceOf {
	return s.WithTagSet(s.TagSet().TagImplicitly(t)).(*SequenceOf)
}

// Explicit returns a copy of s wrapped in the explicit tag t.
func (s *SequenceOf) Explicit(t Tag) *SequenceOf {
	return s.WithTagSet(s.TagSet().TagExplicitly(t)).(*SequenceOf)
}

//endregion

//region [UNIVERSAL 17] SET OF

// SetOf represents the homogeneous ASN.1 SET OF type. It shares its tag with
// SET; the two are distinguished by their type id.
type SetOf struct {
	ofValue
}

// NewSetOf returns an empty SET OF with the given element prototype. The
// prototype may be nil.
func NewSetOf(elem Value, components ...Value) *SetOf {
	return &SetOf{ofValue{elem: elem, components: components}}
}

// WithSizeConstraint returns a copy of s that rejects element counts outside
// [min, max] in [ofValue.VerifySize].
func (s *SetOf) WithSizeConstraint(min, max int) *SetOf {
	c := *s
	c.setSize(min, max)
	return &c
}

func (s *SetOf) TagSet() TagSet     { return orBase(s.tags, Universal(NumberSet)) }
func (s *SetOf) BaseTagSet() TagSet { return NewTagSet(Universal(NumberSet)) }
func (s *SetOf) TypeID() TypeID     { return TypeSetOf }

// WithTagSet returns a copy of s carrying the given tag set. The element list
// is shared between the copy and s.
func (s *SetOf) WithTagSet(ts TagSet) Value {
	c := *s
	c.tags = ts
	return &c
}

// Implicit returns a copy of s with its outermost tag replaced by t.
func (s *SetOf) Implicit(t Tag) *SetOf {
	return s.WithTagSet(s.TagSet().TagImplicitly(t)).(*SetOf)
}

// Explicit returns a copy of s wrapped in the explicit tag t.
func (s *SetOf) Explicit(t Tag) *SetOf {
	return s.WithTagSet(s.TagSet().TagExplicitly(t)).(*SetOf)
}

//endregion

//region CHOICE

// Choice represents the ASN.1 CHOICE type. A CHOICE has no tag of its own;
// the tag of the chosen alternative carries through to the encoding. A CHOICE
// may itself be tagged, which in ASN.1 is always explicit.
type Choice struct {
	tags   TagSet
	alts   []Field
	chosen int
	value  Value
}

// NewChoice returns a CHOICE with the given alternatives and no chosen value.
func NewChoice(alternatives ...Field) *Choice {
	return &Choice{alts: alternatives, chosen: -1}
}

// Alternatives returns the declared alternatives of c.
func (c *Choice) Alternatives() []Field { return c.alts }

// Chosen returns the value of the chosen alternative, or nil.
func (c *Choice) Chosen() Value { return c.value }

// ChosenIndex returns the index of the chosen alternative, or -1.
func (c *Choice) ChosenIndex() int { return c.chosen }

// Choose returns a copy of c with alternative i set to v.
func (c *Choice) Choose(i int, v Value) ChoiceValue {
	cc := *c
	cc.chosen = i
	cc.value = v
	return &cc
}

// TagSet returns the tags applied to c. An untagged CHOICE has an empty tag
// set.
func (c *Choice) TagSet() TagSet     { return c.tags }
func (c *Choice) BaseTagSet() TagSet { return TagSet{} }
func (c *Choice) TypeID() TypeID     { return TypeChoice }

// WithTagSet returns a copy of c carrying the given tag set.
func (c *Choice) WithTagSet(ts TagSet) Value {
	cc := *c
	cc.tags = ts
	return &cc
}

// Explicit returns a copy of c wrapped in the explicit tag t.
func (c *Choice) Explicit(t Tag) *Choice {
	return c.WithTagSet(c.TagSet().TagExplicitly(t)).(*Choice)
}

//endregion

//region ANY

// Any represents the ASN.1 ANY type: a complete encoded element kept as
// opaque octets. An untagged Any has an empty tag set and its octets pass
// through encoding and decoding verbatim.
type Any struct {
	tags TagSet
	v    []byte
}

// NewAny returns an Any over the given raw octets.
func NewAny(b []byte) Any {
	return Any{v: b}
}

// Bytes returns the raw octets of v.
func (v Any) Bytes() []byte { return v.v }

// WithBytes returns a copy of v with the octets replaced by b.
func (v Any) WithBytes(b []byte) Value { v.v = b; return v }

// TagSet returns the tags applied to v. An untagged Any has an empty tag set.
func (v Any) TagSet() TagSet     { return v.tags }
func (v Any) BaseTagSet() TagSet { return TagSet{} }
func (v Any) TypeID() TypeID     { return TypeAny }

// WithTagSet returns a copy of v carrying the given tag set.
func (v Any) WithTagSet(ts TagSet) Value { v.tags = ts; return v }

// Implicit returns a copy of v with its outermost tag replaced by t.
func (v Any) Implicit(t Tag) Any { v.tags = v.TagSet().TagImplicitly(t); return v }

// Explicit returns a copy of v wrapped in the explicit tag t.
func (v Any) Explicit(t Tag) Any { v.tags = v.TagSet().TagExplicitly(t); return v }

//endregion
