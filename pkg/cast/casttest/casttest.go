// Package casttest encodes Cast fixtures for tests. It writes exactly what
// it is given, duplicates and odd sizes included, so decoder edge cases can
// be reproduced byte for byte.
package casttest

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/Faultbox/castview/pkg/cast"
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"github.com/flywave/go3d/vec4"
)

// Node is a fixture node. Props are written in order, even when names repeat.
type Node struct {
	ID       cast.NodeID
	Hash     uint64
	Props    []*cast.Property
	Children []*Node
}

// N builds a fixture node.
func N(id cast.NodeID, hash uint64, props ...*cast.Property) *Node {
	return &Node{ID: id, Hash: hash, Props: props}
}

// With appends children and returns n for chaining.
func (n *Node) With(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// P builds a property whose type is taken from its first value.
func P(name string, values ...cast.Value) *cast.Property {
	var t cast.PropertyType
	if len(values) > 0 {
		t = values[0].Type()
	}
	return &cast.Property{Name: name, Type: t, Values: values}
}

// PT builds a property with an explicit type, allowing empty value lists.
func PT(name string, t cast.PropertyType, values ...cast.Value) *cast.Property {
	return &cast.Property{Name: name, Type: t, Values: values}
}

// Str is a one-value string property.
func Str(name, s string) *cast.Property {
	return P(name, cast.StringValue(s))
}

// Long is a one-value u64 property.
func Long(name string, v uint64) *cast.Property {
	return P(name, cast.LongValue(v))
}

// Int is a one-value u32 property.
func Int(name string, v uint32) *cast.Property {
	return P(name, cast.IntValue(v))
}

// Vec2s builds a 2v property.
func Vec2s(name string, vs ...vec2.T) *cast.Property {
	values := make([]cast.Value, len(vs))
	for i, v := range vs {
		values[i] = cast.Vector2Value(v)
	}
	return PT(name, cast.TypeVector2, values...)
}

// Vec3s builds a 3v property.
func Vec3s(name string, vs ...vec3.T) *cast.Property {
	values := make([]cast.Value, len(vs))
	for i, v := range vs {
		values[i] = cast.Vector3Value(v)
	}
	return PT(name, cast.TypeVector3, values...)
}

// Vec4s builds a 4v property.
func Vec4s(name string, vs ...vec4.T) *cast.Property {
	values := make([]cast.Value, len(vs))
	for i, v := range vs {
		values[i] = cast.Vector4Value(v)
	}
	return PT(name, cast.TypeVector4, values...)
}

// Ints builds a u32 property from plain ints.
func Ints(name string, vs ...int) *cast.Property {
	values := make([]cast.Value, len(vs))
	for i, v := range vs {
		values[i] = cast.IntValue(uint32(v))
	}
	return PT(name, cast.TypeInt, values...)
}

// Shorts builds a u16 property from plain ints.
func Shorts(name string, vs ...int) *cast.Property {
	values := make([]cast.Value, len(vs))
	for i, v := range vs {
		values[i] = cast.ShortValue(uint16(v))
	}
	return PT(name, cast.TypeShort, values...)
}

// Floats builds an f32 property.
func Floats(name string, vs ...float32) *cast.Property {
	values := make([]cast.Value, len(vs))
	for i, v := range vs {
		values[i] = cast.FloatValue(v)
	}
	return PT(name, cast.TypeFloat, values...)
}

// Encode writes a complete file with the standard magic.
func Encode(version uint32, roots ...*Node) []byte {
	return EncodeWithMagic(cast.Magic, version, roots...)
}

// EncodeWithMagic writes a complete file with an arbitrary magic.
func EncodeWithMagic(magic, version uint32, roots ...*Node) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, cast.Header{
		Magic:     magic,
		Version:   version,
		RootCount: uint32(len(roots)),
	})
	for _, root := range roots {
		buf.Write(EncodeNode(root))
	}
	return buf.Bytes()
}

// EncodeNode writes a single node and its subtree.
func EncodeNode(n *Node) []byte {
	var body bytes.Buffer
	for _, p := range n.Props {
		body.Write(EncodeProperty(p))
	}
	for _, c := range n.Children {
		body.Write(EncodeNode(c))
	}

	var buf bytes.Buffer
	le := binary.LittleEndian
	binary.Write(&buf, le, uint32(n.ID))
	binary.Write(&buf, le, uint32(24+body.Len()))
	binary.Write(&buf, le, n.Hash)
	binary.Write(&buf, le, uint32(len(n.Props)))
	binary.Write(&buf, le, uint32(len(n.Children)))
	buf.Write(body.Bytes())
	return buf.Bytes()
}

// EncodeProperty writes a property header, name and values.
func EncodeProperty(p *cast.Property) []byte {
	return EncodeRawProperty(p.Type.Tag(), p.Name, p.Values)
}

// EncodeRawProperty writes a property with an arbitrary type tag. Values are
// encoded according to their own variant.
func EncodeRawProperty(tag, name string, values []cast.Value) []byte {
	var buf bytes.Buffer
	le := binary.LittleEndian

	var rawTag [2]byte
	copy(rawTag[:], tag)
	buf.Write(rawTag[:])
	binary.Write(&buf, le, uint16(len(name)))
	binary.Write(&buf, le, uint32(len(values)))
	buf.WriteString(name)

	for _, v := range values {
		writeValue(&buf, v)
	}
	return buf.Bytes()
}

func writeValue(buf *bytes.Buffer, v cast.Value) {
	le := binary.LittleEndian
	switch v.Type() {
	case cast.TypeByte:
		x, _ := v.Uint()
		buf.WriteByte(uint8(x))
	case cast.TypeShort:
		x, _ := v.Uint()
		binary.Write(buf, le, uint16(x))
	case cast.TypeInt:
		x, _ := v.Uint()
		binary.Write(buf, le, x)
	case cast.TypeLong:
		x, _ := v.Long()
		binary.Write(buf, le, x)
	case cast.TypeFloat:
		x, _ := v.Float()
		binary.Write(buf, le, math.Float32bits(x))
	case cast.TypeDouble:
		x, _ := v.Double()
		binary.Write(buf, le, math.Float64bits(x))
	case cast.TypeString:
		s, _ := v.Text()
		buf.WriteString(s)
		buf.WriteByte(0)
	case cast.TypeVector2:
		x, _ := v.Vector2()
		binary.Write(buf, le, [2]float32(x))
	case cast.TypeVector3:
		x, _ := v.Vector3()
		binary.Write(buf, le, [3]float32(x))
	case cast.TypeVector4:
		x, _ := v.Vector4()
		binary.Write(buf, le, [4]float32(x))
	}
}
