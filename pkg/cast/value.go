package cast

import (
	"fmt"
	"math"

	"github.com/flywave/go3d/quaternion"
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"github.com/flywave/go3d/vec4"
)

// PropertyType selects the value codec of a property.
type PropertyType uint8

const (
	TypeByte    PropertyType = iota + 1 // "b"  u8
	TypeShort                           // "h"  u16
	TypeInt                             // "i"  u32
	TypeLong                            // "l"  u64
	TypeFloat                           // "f"  f32
	TypeDouble                          // "d"  f64
	TypeString                          // "s"  null-terminated string
	TypeVector2                         // "2v" 2 x f32
	TypeVector3                         // "3v" 3 x f32
	TypeVector4                         // "4v" 4 x f32
)

var typeTags = map[string]PropertyType{
	"b":  TypeByte,
	"h":  TypeShort,
	"i":  TypeInt,
	"l":  TypeLong,
	"f":  TypeFloat,
	"d":  TypeDouble,
	"s":  TypeString,
	"2v": TypeVector2,
	"3v": TypeVector3,
	"4v": TypeVector4,
}

// ParsePropertyType maps a type tag to its PropertyType.
func ParsePropertyType(tag string) (PropertyType, error) {
	t, ok := typeTags[tag]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownPropertyType, tag)
	}
	return t, nil
}

// Tag returns the on-disk type tag.
func (t PropertyType) Tag() string {
	switch t {
	case TypeByte:
		return "b"
	case TypeShort:
		return "h"
	case TypeInt:
		return "i"
	case TypeLong:
		return "l"
	case TypeFloat:
		return "f"
	case TypeDouble:
		return "d"
	case TypeString:
		return "s"
	case TypeVector2:
		return "2v"
	case TypeVector3:
		return "3v"
	case TypeVector4:
		return "4v"
	default:
		return ""
	}
}

// String returns a human-readable type name.
func (t PropertyType) String() string {
	switch t {
	case TypeByte:
		return "Byte"
	case TypeShort:
		return "Short"
	case TypeInt:
		return "Int"
	case TypeLong:
		return "Long"
	case TypeFloat:
		return "Float"
	case TypeDouble:
		return "Double"
	case TypeString:
		return "String"
	case TypeVector2:
		return "Vector2"
	case TypeVector3:
		return "Vector3"
	case TypeVector4:
		return "Vector4"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// Value is one decoded property value. The variant is fixed by Type; the
// accessors report false when asked for a variant they cannot represent.
type Value struct {
	typ  PropertyType
	bits uint64     // integers, and float bits for f/d
	vec  [4]float32 // 2v, 3v, 4v
	str  string
}

// Constructors, mainly useful for building fixtures.

func ByteValue(v uint8) Value { return Value{typ: TypeByte, bits: uint64(v)} }
func ShortValue(v uint16) Value { return Value{typ: TypeShort, bits: uint64(v)} }
func IntValue(v uint32) Value { return Value{typ: TypeInt, bits: uint64(v)} }
func LongValue(v uint64) Value { return Value{typ: TypeLong, bits: v} }
func FloatValue(v float32) Value { return Value{typ: TypeFloat, bits: uint64(math.Float32bits(v))} }
func DoubleValue(v float64) Value { return Value{typ: TypeDouble, bits: math.Float64bits(v)} }
func StringValue(v string) Value { return Value{typ: TypeString, str: v} }

func Vector2Value(v vec2.T) Value { return Value{typ: TypeVector2, vec: [4]float32{v[0], v[1]}} }
func Vector3Value(v vec3.T) Value { return Value{typ: TypeVector3, vec: [4]float32{v[0], v[1], v[2]}} }
func Vector4Value(v vec4.T) Value { return Value{typ: TypeVector4, vec: [4]float32(v)} }

// Type returns the value's variant.
func (v Value) Type() PropertyType {
	return v.typ
}

// Uint returns b, h and i values widened to uint32.
func (v Value) Uint() (uint32, bool) {
	switch v.typ {
	case TypeByte, TypeShort, TypeInt:
		return uint32(v.bits), true
	}
	return 0, false
}

// Int returns b, h and i values as int32. An i value is reinterpreted,
// so 0xFFFFFFFF reads as -1.
func (v Value) Int() (int32, bool) {
	switch v.typ {
	case TypeByte, TypeShort, TypeInt:
		return int32(uint32(v.bits)), true
	}
	return 0, false
}

// Long returns any integer value widened to uint64.
func (v Value) Long() (uint64, bool) {
	switch v.typ {
	case TypeByte, TypeShort, TypeInt, TypeLong:
		return v.bits, true
	}
	return 0, false
}

// Float returns an f value.
func (v Value) Float() (float32, bool) {
	if v.typ != TypeFloat {
		return 0, false
	}
	return math.Float32frombits(uint32(v.bits)), true
}

// Double returns a d value.
func (v Value) Double() (float64, bool) {
	if v.typ != TypeDouble {
		return 0, false
	}
	return math.Float64frombits(v.bits), true
}

// Text returns an s value.
func (v Value) Text() (string, bool) {
	if v.typ != TypeString {
		return "", false
	}
	return v.str, true
}

// Vector2 returns a 2v value.
func (v Value) Vector2() (vec2.T, bool) {
	if v.typ != TypeVector2 {
		return vec2.T{}, false
	}
	return vec2.T{v.vec[0], v.vec[1]}, true
}

// Vector3 returns a 3v value.
func (v Value) Vector3() (vec3.T, bool) {
	if v.typ != TypeVector3 {
		return vec3.T{}, false
	}
	return vec3.T{v.vec[0], v.vec[1], v.vec[2]}, true
}

// Vector4 returns a 4v value.
func (v Value) Vector4() (vec4.T, bool) {
	if v.typ != TypeVector4 {
		return vec4.T{}, false
	}
	return vec4.T(v.vec), true
}

// Quaternion reinterprets a 4v value as a rotation (x, y, z, w).
func (v Value) Quaternion() (quaternion.T, bool) {
	if v.typ != TypeVector4 {
		return quaternion.T{}, false
	}
	return quaternion.T(v.vec), true
}

// String formats the value for dumps.
func (v Value) String() string {
	switch v.typ {
	case TypeByte, TypeShort, TypeInt, TypeLong:
		return fmt.Sprintf("%d", v.bits)
	case TypeFloat:
		f, _ := v.Float()
		return fmt.Sprintf("%g", f)
	case TypeDouble:
		d, _ := v.Double()
		return fmt.Sprintf("%g", d)
	case TypeString:
		return fmt.Sprintf("%q", v.str)
	case TypeVector2:
		return fmt.Sprintf("(%g, %g)", v.vec[0], v.vec[1])
	case TypeVector3:
		return fmt.Sprintf("(%g, %g, %g)", v.vec[0], v.vec[1], v.vec[2])
	case TypeVector4:
		return fmt.Sprintf("(%g, %g, %g, %g)", v.vec[0], v.vec[1], v.vec[2], v.vec[3])
	default:
		return "<invalid>"
	}
}

// readValue decodes one value of type t, consuming exactly its encoded width.
func readValue(r *reader, t PropertyType) (Value, error) {
	v := Value{typ: t}
	var err error

	switch t {
	case TypeByte:
		var b uint8
		b, err = r.u8()
		v.bits = uint64(b)
	case TypeShort:
		var h uint16
		h, err = r.u16()
		v.bits = uint64(h)
	case TypeInt:
		var i uint32
		i, err = r.u32()
		v.bits = uint64(i)
	case TypeLong:
		v.bits, err = r.u64()
	case TypeFloat:
		var i uint32
		i, err = r.u32()
		v.bits = uint64(i)
	case TypeDouble:
		v.bits, err = r.u64()
	case TypeString:
		v.str, err = r.cstring()
	case TypeVector2:
		err = r.floats(v.vec[:2])
	case TypeVector3:
		err = r.floats(v.vec[:3])
	case TypeVector4:
		err = r.floats(v.vec[:4])
	default:
		return Value{}, fmt.Errorf("%w: %d", ErrUnknownPropertyType, t)
	}

	if err != nil {
		return Value{}, err
	}
	return v, nil
}
