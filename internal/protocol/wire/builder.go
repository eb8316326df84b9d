package wire

import "google.golang.org/protobuf/encoding/protowire"

// Builder appends fields in implicit-presence style: zero values and empty
// strings are omitted.
type Builder struct {
	buf []byte
}

func (b *Builder) Varint(num Number, v uint64) *Builder {
	if v == 0 {
		return b
	}
	b.buf = protowire.AppendTag(b.buf, num, protowire.VarintType)
	b.buf = protowire.AppendVarint(b.buf, v)
	return b
}

func (b *Builder) Uint32(num Number, v uint32) *Builder {
	return b.Varint(num, uint64(v))
}

func (b *Builder) Bool(num Number, v bool) *Builder {
	return b.Varint(num, protowire.EncodeBool(v))
}

func (b *Builder) String(num Number, v string) *Builder {
	if v == "" {
		return b
	}
	b.buf = protowire.AppendTag(b.buf, num, protowire.BytesType)
	b.buf = protowire.AppendString(b.buf, v)
	return b
}

// Strings appends one length-delimited value per element, keeping empty ones
// so repeated fields round-trip positionally.
func (b *Builder) Strings(num Number, vs []string) *Builder {
	for _, v := range vs {
		b.buf = protowire.AppendTag(b.buf, num, protowire.BytesType)
		b.buf = protowire.AppendString(b.buf, v)
	}
	return b
}

func (b *Builder) Fixed32(num Number, v uint32) *Builder {
	if v == 0 {
		return b
	}
	b.buf = protowire.AppendTag(b.buf, num, protowire.Fixed32Type)
	b.buf = protowire.AppendFixed32(b.buf, v)
	return b
}

func (b *Builder) Fixed64(num Number, v uint64) *Builder {
	if v == 0 {
		return b
	}
	b.buf = protowire.AppendTag(b.buf, num, protowire.Fixed64Type)
	b.buf = protowire.AppendFixed64(b.buf, v)
	return b
}

// Bytes returns the encoded message. The builder may keep appending afterwards.
func (b *Builder) Bytes() []byte {
	out := make([]byte, len(b.buf))
	copy(out, b.buf)
	return out
}
