package entity

import (
	"math"
	"strconv"
)

// Kind identifies the variant held by a Value. It is fixed when the value is
// created; only a full replacement changes it.
type Kind int

const (
	KindInvalid Kind = iota
	KindNumber
	KindString
	KindBool
	KindNull
	KindReference
	KindStruct
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindNull:
		return "null"
	case KindReference:
		return "reference"
	case KindStruct:
		return "struct"
	case KindArray:
		return "array"
	default:
		return "invalid"
	}
}

// Value is a tagged variant over the value kinds of the entities format.
// There is no implicit coercion between variants; use the As* accessors.
type Value struct {
	Kind Kind

	Num   float64 // KindNumber
	IsInt bool    // KindNumber: literal had no fraction or exponent
	Str   string  // KindString value or KindReference name
	Bool  bool    // KindBool

	Props []Property   // KindStruct, in declaration order
	Elems []ArrayEntry // KindArray, in declaration order
}

// ArrayEntry is one positional array element. Index holds the authored
// index label, which may be sparse or duplicated; it is stored as written
// and only normalized by the repair utility.
type ArrayEntry struct {
	Index    int64
	HasIndex bool
	Value    Value
}

// Property is a key/value pair owned by an entity or struct value.
type Property struct {
	Key   string
	Value Value
}

func Number(f float64) Value     { return Value{Kind: KindNumber, Num: f} }
func Int(i int64) Value          { return Value{Kind: KindNumber, Num: float64(i), IsInt: true} }
func String(s string) Value      { return Value{Kind: KindString, Str: s} }
func Bool(b bool) Value          { return Value{Kind: KindBool, Bool: b} }
func Null() Value                { return Value{Kind: KindNull} }
func Reference(name string) Value { return Value{Kind: KindReference, Str: name} }

func Struct(props ...Property) Value {
	return Value{Kind: KindStruct, Props: props}
}

// Array builds an array value. The format gives an array with no elements
// no distinct written form: it serializes as an empty block, which re-parses
// as an empty struct. Parsed documents never hold an empty array.
func Array(elems ...ArrayEntry) Value {
	return Value{Kind: KindArray, Elems: elems}
}

// AsNumber reports the numeric value, if this is a number.
func (v Value) AsNumber() (float64, bool) {
	if v.Kind != KindNumber {
		return 0, false
	}
	return v.Num, true
}

// AsInt reports the value as an integer when it is a number with an
// integral value inside the int64 range.
func (v Value) AsInt() (int64, bool) {
	if v.Kind != KindNumber || v.Num != math.Trunc(v.Num) {
		return 0, false
	}
	if v.Num < -(1<<63) || v.Num >= 1<<63 {
		return 0, false
	}
	return int64(v.Num), true
}

// AsString reports the string value, if this is a string.
func (v Value) AsString() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

// AsBool reports the boolean value, if this is a bool.
func (v Value) AsBool() (bool, bool) {
	if v.Kind != KindBool {
		return false, false
	}
	return v.Bool, true
}

// IsScalar reports whether the value is a leaf (not a struct or array).
func (v Value) IsScalar() bool {
	return v.Kind != KindStruct && v.Kind != KindArray
}

// Scalar returns a canonical text form of a leaf value, used by the index.
// Struct and array values have no scalar form.
func (v Value) Scalar() (string, bool) {
	switch v.Kind {
	case KindNumber:
		if v.IsInt {
			if v.Num >= -(1<<63) && v.Num < 1<<63 {
				return strconv.FormatInt(int64(v.Num), 10), true
			}
			return strconv.FormatFloat(v.Num, 'f', -1, 64), true
		}
		return strconv.FormatFloat(v.Num, 'g', -1, 64), true
	case KindString, KindReference:
		return v.Str, true
	case KindBool:
		if v.Bool {
			return "true", true
		}
		return "false", true
	case KindNull:
		return "null", true
	default:
		return "", false
	}
}

// Equal reports structural equality: same kind, same payload, recursively.
// Numbers compare exactly; the integer-origin flag is part of the identity.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return v.Num == o.Num && v.IsInt == o.IsInt
	case KindString, KindReference:
		return v.Str == o.Str
	case KindBool:
		return v.Bool == o.Bool
	case KindNull:
		return true
	case KindStruct:
		if len(v.Props) != len(o.Props) {
			return false
		}
		for i := range v.Props {
			if v.Props[i].Key != o.Props[i].Key || !v.Props[i].Value.Equal(o.Props[i].Value) {
				return false
			}
		}
		return true
	case KindArray:
		if len(v.Elems) != len(o.Elems) {
			return false
		}
		for i := range v.Elems {
			a, b := v.Elems[i], o.Elems[i]
			if a.HasIndex != b.HasIndex || (a.HasIndex && a.Index != b.Index) || !a.Value.Equal(b.Value) {
				return false
			}
		}
		return true
	default:
		return true
	}
}
