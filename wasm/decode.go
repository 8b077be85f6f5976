package wasm

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Parsing errors returned by ParseModule.
var (
	ErrInvalidMagic   = errors.New("invalid wasm magic number")
	ErrInvalidVersion = errors.New("invalid wasm version")
)

// ParseModule parses a WebAssembly binary module, decoding the import,
// export and memory sections and retaining everything else verbatim.
func ParseModule(data []byte) (*Module, error) {
	if len(data) < 8 {
		return nil, ErrInvalidMagic
	}
	if binary.LittleEndian.Uint32(data[0:4]) != Magic {
		return nil, ErrInvalidMagic
	}
	if binary.LittleEndian.Uint32(data[4:8]) != Version {
		return nil, ErrInvalidVersion
	}

	m := &Module{importSec: -1, exportSec: -1, memorySec: -1}
	c := &cursor{data: data, pos: 8}

	// WASM spec order: Type(1), Import(2), Function(3), Table(4), Memory(5),
	// Tag(13), Global(6), Export(7), Start(8), Element(9), DataCount(12),
	// Code(10), Data(11). Custom sections may appear anywhere.
	var lastOrder int

	for !c.eof() {
		id, err := c.byte()
		if err != nil {
			return nil, err
		}
		size, err := c.u32()
		if err != nil {
			return nil, fmt.Errorf("section %d header: %w", id, err)
		}
		body, err := c.bytes(size)
		if err != nil {
			return nil, fmt.Errorf("section %d body: %w", id, err)
		}

		if id != SectionCustom {
			order := sectionOrder(id)
			if order == 0 {
				return nil, fmt.Errorf("unknown section id %d", id)
			}
			if order <= lastOrder {
				return nil, fmt.Errorf("section %d out of order", id)
			}
			lastOrder = order
		}

		sec := section{id: id, body: body}
		if id == SectionCustom {
			nc := &cursor{data: body}
			name, err := nc.name()
			if err != nil {
				return nil, fmt.Errorf("custom section name: %w", err)
			}
			sec.name = name
		}
		m.sections = append(m.sections, sec)

		switch id {
		case SectionImport:
			m.importSec = len(m.sections) - 1
			if m.Imports, err = decodeImports(body); err != nil {
				return nil, fmt.Errorf("import section: %w", err)
			}
		case SectionExport:
			m.exportSec = len(m.sections) - 1
			if m.Exports, err = decodeExports(body); err != nil {
				return nil, fmt.Errorf("export section: %w", err)
			}
		case SectionMemory:
			m.memorySec = len(m.sections) - 1
			if m.Memories, err = decodeMemories(body); err != nil {
				return nil, fmt.Errorf("memory section: %w", err)
			}
		}
	}

	return m, nil
}

func decodeImports(body []byte) ([]Import, error) {
	c := &cursor{data: body}
	count, err := c.u32()
	if err != nil {
		return nil, err
	}
	imports := make([]Import, 0, count)
	for i := uint32(0); i < count; i++ {
		var imp Import
		if imp.Module, err = c.name(); err != nil {
			return nil, err
		}
		if imp.Name, err = c.name(); err != nil {
			return nil, err
		}
		if imp.Kind, err = c.byte(); err != nil {
			return nil, err
		}
		switch imp.Kind {
		case KindFunc:
			if imp.TypeIdx, err = c.u32(); err != nil {
				return nil, err
			}
		case KindMemory:
			mem, err := decodeLimits(c)
			if err != nil {
				return nil, err
			}
			imp.Memory = &mem
		case KindTable:
			start := c.pos
			if _, err = c.byte(); err != nil { // reftype
				return nil, err
			}
			if _, err = decodeLimits(c); err != nil {
				return nil, err
			}
			imp.Raw = body[start:c.pos]
		case KindGlobal:
			start := c.pos
			if _, err = c.byte(); err != nil { // valtype
				return nil, err
			}
			if _, err = c.byte(); err != nil { // mutability
				return nil, err
			}
			imp.Raw = body[start:c.pos]
		case KindTag:
			start := c.pos
			if _, err = c.byte(); err != nil { // attribute
				return nil, err
			}
			if _, err = c.u32(); err != nil { // type index
				return nil, err
			}
			imp.Raw = body[start:c.pos]
		default:
			return nil, fmt.Errorf("import %d: unknown kind %d", i, imp.Kind)
		}
		imports = append(imports, imp)
	}
	return imports, nil
}

func decodeExports(body []byte) ([]Export, error) {
	c := &cursor{data: body}
	count, err := c.u32()
	if err != nil {
		return nil, err
	}
	exports := make([]Export, 0, count)
	for i := uint32(0); i < count; i++ {
		var e Export
		if e.Name, err = c.name(); err != nil {
			return nil, err
		}
		if e.Kind, err = c.byte(); err != nil {
			return nil, err
		}
		if e.Kind > KindTag {
			return nil, fmt.Errorf("export %q: unknown kind %d", e.Name, e.Kind)
		}
		if e.Index, err = c.u32(); err != nil {
			return nil, err
		}
		exports = append(exports, e)
	}
	return exports, nil
}

func decodeMemories(body []byte) ([]MemoryType, error) {
	c := &cursor{data: body}
	count, err := c.u32()
	if err != nil {
		return nil, err
	}
	mems := make([]MemoryType, 0, count)
	for i := uint32(0); i < count; i++ {
		mem, err := decodeLimits(c)
		if err != nil {
			return nil, err
		}
		mems = append(mems, mem)
	}
	return mems, nil
}

func decodeLimits(c *cursor) (MemoryType, error) {
	flags, err := c.byte()
	if err != nil {
		return MemoryType{}, err
	}
	var mem MemoryType
	mem.Shared = flags&limitsShared != 0
	if mem.Min, err = c.u32(); err != nil {
		return MemoryType{}, err
	}
	if flags&limitsHasMax != 0 {
		max, err := c.u32()
		if err != nil {
			return MemoryType{}, err
		}
		mem.Max = &max
	}
	return mem, nil
}

// customPayload strips the name prefix from a custom section body.
func customPayload(body []byte) []byte {
	c := &cursor{data: body}
	if _, err := c.name(); err != nil {
		return nil
	}
	return body[c.pos:]
}
