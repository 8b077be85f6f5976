package descriptor

import (
	"errors"
	"fmt"
)

// Wire tags emitted by the module's describe glue. One u32 per tag,
// payloads documented per tag below.
const (
	tagI8         uint32 = 0
	tagU8         uint32 = 1
	tagI16        uint32 = 2
	tagU16        uint32 = 3
	tagI32        uint32 = 4
	tagU32        uint32 = 5
	tagI64        uint32 = 6
	tagU64        uint32 = 7
	tagF32        uint32 = 8
	tagF64        uint32 = 9
	tagBoolean    uint32 = 10
	tagFunction   uint32 = 11 // arity, args..., ret
	tagClosure    uint32 = 12 // shim idx, dtor idx, mutable, function
	tagString     uint32 = 13
	tagRef        uint32 = 14 // inner
	tagRefMut     uint32 = 15 // inner
	tagSlice      uint32 = 16 // element
	tagVector     uint32 = 17 // element
	tagAnyref     uint32 = 18
	tagEnum       uint32 = 19
	tagRustStruct uint32 = 20 // name length, name chars...
	tagChar       uint32 = 21
	tagOptional   uint32 = 22 // inner
	tagUnit       uint32 = 23
	tagClampedU8  uint32 = 24
)

// ErrTruncated reports a descriptor stream that ended mid-value.
var ErrTruncated = errors.New("descriptor: truncated encoding")

// Decode parses the u32 stream recorded by the descriptor interpreter into
// a Descriptor. A decoding failure is fatal to the one binding being
// described, never to the whole run.
func Decode(data []uint32) (*Descriptor, error) {
	dec := &decoder{data: data}
	d, err := dec.descriptor()
	if err != nil {
		return nil, err
	}
	if dec.pos != len(dec.data) {
		return nil, fmt.Errorf("descriptor: %d trailing words", len(dec.data)-dec.pos)
	}
	return d, nil
}

type decoder struct {
	data []uint32
	pos  int
}

func (dec *decoder) next() (uint32, error) {
	if dec.pos >= len(dec.data) {
		return 0, ErrTruncated
	}
	v := dec.data[dec.pos]
	dec.pos++
	return v, nil
}

func (dec *decoder) descriptor() (*Descriptor, error) {
	tag, err := dec.next()
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagUnit:
		return &Descriptor{Kind: KindUnit}, nil
	case tagBoolean:
		return &Descriptor{Kind: KindBool}, nil
	case tagI8:
		return &Descriptor{Kind: KindI8}, nil
	case tagU8:
		return &Descriptor{Kind: KindU8}, nil
	case tagI16:
		return &Descriptor{Kind: KindI16}, nil
	case tagU16:
		return &Descriptor{Kind: KindU16}, nil
	case tagI32:
		return &Descriptor{Kind: KindI32}, nil
	case tagU32:
		return &Descriptor{Kind: KindU32}, nil
	case tagI64:
		return &Descriptor{Kind: KindI64}, nil
	case tagU64:
		return &Descriptor{Kind: KindU64}, nil
	case tagF32:
		return &Descriptor{Kind: KindF32}, nil
	case tagF64:
		return &Descriptor{Kind: KindF64}, nil
	case tagChar:
		return &Descriptor{Kind: KindChar}, nil
	case tagString:
		return &Descriptor{Kind: KindString}, nil
	case tagAnyref:
		return &Descriptor{Kind: KindAnyref}, nil
	case tagEnum:
		return &Descriptor{Kind: KindEnum}, nil
	case tagClampedU8:
		return &Descriptor{Kind: KindU8, Clamped: true}, nil
	case tagRef, tagRefMut, tagSlice, tagVector, tagOptional:
		inner, err := dec.descriptor()
		if err != nil {
			return nil, err
		}
		kind := map[uint32]Kind{
			tagRef:      KindRef,
			tagRefMut:   KindRefMut,
			tagSlice:    KindSlice,
			tagVector:   KindVector,
			tagOptional: KindOption,
		}[tag]
		return &Descriptor{Kind: kind, Inner: inner}, nil
	case tagRustStruct:
		name, err := dec.name()
		if err != nil {
			return nil, err
		}
		return &Descriptor{Kind: KindStruct, Name: name}, nil
	case tagFunction:
		fn, err := dec.function()
		if err != nil {
			return nil, err
		}
		return &Descriptor{Kind: KindFunction, Func: fn}, nil
	case tagClosure:
		shim, err := dec.next()
		if err != nil {
			return nil, err
		}
		dtor, err := dec.next()
		if err != nil {
			return nil, err
		}
		mutable, err := dec.next()
		if err != nil {
			return nil, err
		}
		inner, err := dec.descriptor()
		if err != nil {
			return nil, err
		}
		if inner.Kind != KindFunction {
			return nil, fmt.Errorf("descriptor: closure wraps %s, want function", inner.Kind)
		}
		return &Descriptor{
			Kind: KindClosure,
			Func: inner.Func,
			Closure: &Closure{
				ShimIdx: shim,
				DtorIdx: dtor,
				Mutable: mutable != 0,
				Func:    *inner.Func,
			},
		}, nil
	default:
		return nil, fmt.Errorf("descriptor: unknown tag %d", tag)
	}
}

func (dec *decoder) function() (*Function, error) {
	arity, err := dec.next()
	if err != nil {
		return nil, err
	}
	// arity is unvalidated wire data; cap the allocation by what the
	// remaining stream could actually hold (one word per argument minimum)
	capHint := len(dec.data) - dec.pos
	if uint64(arity) < uint64(capHint) {
		capHint = int(arity)
	}
	fn := &Function{Args: make([]Descriptor, 0, capHint)}
	for i := uint32(0); i < arity; i++ {
		arg, err := dec.descriptor()
		if err != nil {
			return nil, err
		}
		fn.Args = append(fn.Args, *arg)
	}
	ret, err := dec.descriptor()
	if err != nil {
		return nil, err
	}
	fn.Ret = *ret
	return fn, nil
}

func (dec *decoder) name() (string, error) {
	n, err := dec.next()
	if err != nil {
		return "", err
	}
	capHint := len(dec.data) - dec.pos
	if uint64(n) < uint64(capHint) {
		capHint = int(n)
	}
	runes := make([]rune, 0, capHint)
	for i := uint32(0); i < n; i++ {
		c, err := dec.next()
		if err != nil {
			return "", err
		}
		runes = append(runes, rune(c))
	}
	return string(runes), nil
}
