package wasm

import (
	"fmt"

	"fortio.org/safecast"
)

// Encode encodes the module to WebAssembly binary format. Decoded sections
// are regenerated from their exported slices; everything else round-trips
// verbatim. Sections whose slices became non-empty after parsing a module
// that lacked them are inserted at their canonical position.
func (m *Module) Encode() []byte {
	out := make([]byte, 0, m.encodedSizeHint())
	out = appendU32LE(out, Magic)
	out = appendU32LE(out, Version)

	wroteImports := false
	wroteExports := false
	wroteMemories := false

	emit := func(id byte, body []byte) []byte {
		out = append(out, id)
		out = appendU32(out, mustU32(len(body)))
		return append(out, body...)
	}

	// A synthesized section goes immediately before the first non-custom
	// section that canonically follows it.
	needInsert := func(id byte, next byte) bool {
		switch id {
		case SectionImport:
			return !wroteImports && m.importSec < 0 && len(m.Imports) > 0 &&
				sectionOrder(next) > sectionOrder(SectionImport)
		case SectionMemory:
			return !wroteMemories && m.memorySec < 0 && len(m.Memories) > 0 &&
				sectionOrder(next) > sectionOrder(SectionMemory)
		case SectionExport:
			return !wroteExports && m.exportSec < 0 && len(m.Exports) > 0 &&
				sectionOrder(next) > sectionOrder(SectionExport)
		}
		return false
	}

	for _, s := range m.sections {
		if s.id != SectionCustom {
			if needInsert(SectionImport, s.id) {
				out = emit(SectionImport, m.encodeImports())
				wroteImports = true
			}
			if needInsert(SectionMemory, s.id) {
				out = emit(SectionMemory, m.encodeMemories())
				wroteMemories = true
			}
			if needInsert(SectionExport, s.id) {
				out = emit(SectionExport, m.encodeExports())
				wroteExports = true
			}
		}
		switch s.id {
		case SectionImport:
			if len(m.Imports) > 0 {
				out = emit(SectionImport, m.encodeImports())
			}
			wroteImports = true
		case SectionExport:
			if len(m.Exports) > 0 {
				out = emit(SectionExport, m.encodeExports())
			}
			wroteExports = true
		case SectionMemory:
			if len(m.Memories) > 0 {
				out = emit(SectionMemory, m.encodeMemories())
			}
			wroteMemories = true
		default:
			out = emit(s.id, s.body)
		}
	}

	if !wroteImports && len(m.Imports) > 0 {
		out = emit(SectionImport, m.encodeImports())
	}
	if !wroteMemories && len(m.Memories) > 0 {
		out = emit(SectionMemory, m.encodeMemories())
	}
	if !wroteExports && len(m.Exports) > 0 {
		out = emit(SectionExport, m.encodeExports())
	}

	return out
}

func (m *Module) encodedSizeHint() int {
	n := 8
	for _, s := range m.sections {
		n += len(s.body) + 6
	}
	n += len(m.Imports)*24 + len(m.Exports)*16
	return n
}

func (m *Module) encodeImports() []byte {
	var body []byte
	body = appendU32(body, mustU32(len(m.Imports)))
	for _, imp := range m.Imports {
		body = appendName(body, imp.Module)
		body = appendName(body, imp.Name)
		body = append(body, imp.Kind)
		switch imp.Kind {
		case KindFunc:
			body = appendU32(body, imp.TypeIdx)
		case KindMemory:
			body = appendLimits(body, *imp.Memory)
		default:
			body = append(body, imp.Raw...)
		}
	}
	return body
}

func (m *Module) encodeExports() []byte {
	var body []byte
	body = appendU32(body, mustU32(len(m.Exports)))
	for _, e := range m.Exports {
		body = appendName(body, e.Name)
		body = append(body, e.Kind)
		body = appendU32(body, e.Index)
	}
	return body
}

func (m *Module) encodeMemories() []byte {
	var body []byte
	body = appendU32(body, mustU32(len(m.Memories)))
	for _, mem := range m.Memories {
		body = appendLimits(body, mem)
	}
	return body
}

func appendLimits(dst []byte, mem MemoryType) []byte {
	var flags byte
	if mem.Max != nil {
		flags |= limitsHasMax
	}
	if mem.Shared {
		flags |= limitsShared
	}
	dst = append(dst, flags)
	dst = appendU32(dst, mem.Min)
	if mem.Max != nil {
		dst = appendU32(dst, *mem.Max)
	}
	return dst
}

// mustU32 narrows a length to u32. Lengths beyond u32 cannot appear in a
// well-formed module, so overflow here is a programming error.
func mustU32(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Sprintf("wasm: length %d overflows u32", n))
	}
	return v
}
