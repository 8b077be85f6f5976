package wasm

import "errors"

// LEB128 utilities over a byte cursor. Only the unsigned 32-bit form is
// needed for the sections this package decodes structurally.

// ErrOverflow is returned when a LEB128 value exceeds the maximum bit width.
var ErrOverflow = errors.New("leb128: overflow")

// ErrTruncated is returned when the input ends mid-value.
var ErrTruncated = errors.New("leb128: truncated input")

type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) eof() bool {
	return c.pos >= len(c.data)
}

func (c *cursor) byte() (byte, error) {
	if c.eof() {
		return 0, ErrTruncated
	}
	b := c.data[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) bytes(n uint32) ([]byte, error) {
	if uint64(c.pos)+uint64(n) > uint64(len(c.data)) {
		return nil, ErrTruncated
	}
	b := c.data[c.pos : c.pos+int(n)]
	c.pos += int(n)
	return b, nil
}

func (c *cursor) u32() (uint32, error) {
	var result uint32
	var shift uint
	for {
		b, err := c.byte()
		if err != nil {
			return 0, err
		}
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
		if shift >= 35 {
			return 0, ErrOverflow
		}
	}
}

func (c *cursor) name() (string, error) {
	n, err := c.u32()
	if err != nil {
		return "", err
	}
	b, err := c.bytes(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// appendU32 appends the unsigned LEB128 encoding of v to dst.
func appendU32(dst []byte, v uint32) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		dst = append(dst, b)
		if v == 0 {
			return dst
		}
	}
}

// appendU32LE appends the fixed-width little-endian encoding of v.
func appendU32LE(dst []byte, v uint32) []byte {
	return append(dst, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func appendName(dst []byte, s string) []byte {
	dst = appendU32(dst, mustU32(len(s)))
	return append(dst, s...)
}
