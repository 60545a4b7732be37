package cast

import "fmt"

// Property is a named, homogeneously typed, ordered list of values.
type Property struct {
	Name   string
	Type   PropertyType
	Values []Value
}

// First returns the first value of the property.
func (p *Property) First() (Value, bool) {
	if p == nil || len(p.Values) == 0 {
		return Value{}, false
	}
	return p.Values[0], true
}

// Len returns the number of values.
func (p *Property) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Values)
}

// readProperty decodes one property: a 2-byte type tag, u16 name length,
// u32 value count, the raw name bytes, then the values.
func readProperty(r *reader) (*Property, error) {
	rawTag, err := r.take(2)
	if err != nil {
		return nil, err
	}
	nameLen, err := r.u16()
	if err != nil {
		return nil, err
	}
	valueCount, err := r.u32()
	if err != nil {
		return nil, err
	}

	name, err := r.sized(int(nameLen))
	if err != nil {
		return nil, fmt.Errorf("reading property name: %w", err)
	}

	tag := string(rawTag)
	if rawTag[1] == 0 {
		tag = string(rawTag[:1])
	}
	typ, err := ParsePropertyType(tag)
	if err != nil {
		return nil, fmt.Errorf("property %q: %w", name, err)
	}

	// Preallocation is capped by the bytes left in the buffer.
	prop := &Property{
		Name:   name,
		Type:   typ,
		Values: make([]Value, 0, min(int(valueCount), r.remaining()+1)),
	}
	for i := uint32(0); i < valueCount; i++ {
		v, err := readValue(r, typ)
		if err != nil {
			return nil, fmt.Errorf("property %q value %d: %w", name, i, err)
		}
		prop.Values = append(prop.Values, v)
	}

	return prop, nil
}
