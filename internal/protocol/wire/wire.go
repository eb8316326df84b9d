// Package wire decodes and encodes the protobuf field format used inside
// native API messages.
//
// Decoding is best-effort: input comes from device firmware, so malformed or
// unsupported trailing bytes end the parse instead of failing it.
package wire

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Number is a protobuf field number.
type Number = protowire.Number

// Fields holds decoded values keyed by field number, one map per wire class.
// Repeated occurrences keep arrival order.
type Fields struct {
	Varints  map[Number][]uint64
	Bytes    map[Number][][]byte
	Fixed32s map[Number][]uint32
	Fixed64s map[Number][]uint64
}

func newFields() Fields {
	return Fields{
		Varints:  make(map[Number][]uint64),
		Bytes:    make(map[Number][][]byte),
		Fixed32s: make(map[Number][]uint32),
		Fixed64s: make(map[Number][]uint64),
	}
}

// Decode parses b and never fails. Parsing stops at the first truncated
// value, overlong length, invalid tag or group wire type.
func Decode(b []byte) Fields {
	f := newFields()
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return f
		}
		b = b[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return f
			}
			f.Varints[num] = append(f.Varints[num], v)
			b = b[n:]
		case protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return f
			}
			f.Fixed64s[num] = append(f.Fixed64s[num], v)
			b = b[n:]
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return f
			}
			val := make([]byte, len(v))
			copy(val, v)
			f.Bytes[num] = append(f.Bytes[num], val)
			b = b[n:]
		case protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return f
			}
			f.Fixed32s[num] = append(f.Fixed32s[num], v)
			b = b[n:]
		default:
			return f
		}
	}
	return f
}

// Len returns the total number of decoded values.
func (f Fields) Len() int {
	total := 0
	for _, v := range f.Varints {
		total += len(v)
	}
	for _, v := range f.Bytes {
		total += len(v)
	}
	for _, v := range f.Fixed32s {
		total += len(v)
	}
	for _, v := range f.Fixed64s {
		total += len(v)
	}
	return total
}

// Has reports whether any value was decoded for num.
func (f Fields) Has(num Number) bool {
	return len(f.Varints[num]) > 0 || len(f.Bytes[num]) > 0 ||
		len(f.Fixed32s[num]) > 0 || len(f.Fixed64s[num]) > 0
}

// Varint returns the first varint for num, or 0.
func (f Fields) Varint(num Number) uint64 {
	if v := f.Varints[num]; len(v) > 0 {
		return v[0]
	}
	return 0
}

// Uint32 returns the first varint for num truncated to 32 bits.
func (f Fields) Uint32(num Number) uint32 {
	return uint32(f.Varint(num))
}

// Bool returns whether the first varint for num is non-zero.
func (f Fields) Bool(num Number) bool {
	return f.Varint(num) != 0
}

// RawBytes returns the first length-delimited value for num, or nil.
func (f Fields) RawBytes(num Number) []byte {
	if v := f.Bytes[num]; len(v) > 0 {
		return v[0]
	}
	return nil
}

// String returns the first length-delimited value for num as a string.
// The bytes are not validated; rendering layers substitute invalid UTF-8.
func (f Fields) String(num Number) string {
	return string(f.RawBytes(num))
}

// Strings returns every length-delimited value for num in arrival order.
func (f Fields) Strings(num Number) []string {
	vals := f.Bytes[num]
	if len(vals) == 0 {
		return nil
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		out = append(out, string(v))
	}
	return out
}

// Fixed32 returns the first fixed32 for num, or 0.
func (f Fields) Fixed32(num Number) uint32 {
	if v := f.Fixed32s[num]; len(v) > 0 {
		return v[0]
	}
	return 0
}

// Fixed64 returns the first fixed64 for num, or 0.
func (f Fields) Fixed64(num Number) uint64 {
	if v := f.Fixed64s[num]; len(v) > 0 {
		return v[0]
	}
	return 0
}
