package wasm

// Binary format constants.
const (
	Magic   uint32 = 0x6D736100 // "\0asm"
	Version uint32 = 0x1
)

// Section IDs.
const (
	SectionCustom    byte = 0
	SectionType      byte = 1
	SectionImport    byte = 2
	SectionFunction  byte = 3
	SectionTable     byte = 4
	SectionMemory    byte = 5
	SectionGlobal    byte = 6
	SectionExport    byte = 7
	SectionStart     byte = 8
	SectionElement   byte = 9
	SectionCode      byte = 10
	SectionData      byte = 11
	SectionDataCount byte = 12
	SectionTag       byte = 13
)

// Import/export kinds.
const (
	KindFunc   byte = 0
	KindTable  byte = 1
	KindMemory byte = 2
	KindGlobal byte = 3
	KindTag    byte = 4
)

// Limits flag bits.
const (
	limitsHasMax byte = 0x01
	limitsShared byte = 0x02
)

// Module is a parsed WebAssembly module specialized for binding rewriting.
// Every section is retained in its original order with its raw payload;
// the import, export and memory sections are additionally decoded into the
// exported slices below and re-encoded from them, so mutating the slices
// mutates the module. All other sections round-trip byte for byte.
type Module struct {
	Imports  []Import
	Exports  []Export
	Memories []MemoryType

	sections  []section
	importSec int // index into sections, -1 when absent
	exportSec int
	memorySec int
}

// section is one raw section in original order. Decoded sections keep their
// original body too, but Encode regenerates it from the decoded view.
type section struct {
	id   byte
	name string // custom sections only
	body []byte
}

// Import is one import entry. Function and memory descriptors are decoded;
// table, global and tag descriptors pass through as raw bytes.
type Import struct {
	Module string
	Name   string
	Kind   byte
	TypeIdx uint32      // KindFunc
	Memory  *MemoryType // KindMemory
	Raw     []byte      // KindTable, KindGlobal, KindTag descriptor payload
}

// Export is one export table entry.
type Export struct {
	Name  string
	Kind  byte
	Index uint32
}

// MemoryType holds linear memory limits.
type MemoryType struct {
	Min    uint32
	Max    *uint32
	Shared bool
}

// HasExport reports whether name is present in the export table.
func (m *Module) HasExport(name string) bool {
	for i := range m.Exports {
		if m.Exports[i].Name == name {
			return true
		}
	}
	return false
}

// HasImport reports whether the (module, name) import entry is present.
func (m *Module) HasImport(module, name string) bool {
	for i := range m.Imports {
		if m.Imports[i].Module == module && m.Imports[i].Name == name {
			return true
		}
	}
	return false
}

// Memory returns the module's linear memory limits and whether the memory
// is imported rather than defined. ok is false when the module has no
// memory at all.
func (m *Module) Memory() (mem MemoryType, imported, ok bool) {
	if len(m.Memories) > 0 {
		return m.Memories[0], false, true
	}
	for i := range m.Imports {
		if m.Imports[i].Kind == KindMemory && m.Imports[i].Memory != nil {
			return *m.Imports[i].Memory, true, true
		}
	}
	return MemoryType{}, false, false
}

// RetainExports keeps only the export entries keep returns true for.
func (m *Module) RetainExports(keep func(Export) bool) {
	kept := m.Exports[:0]
	for _, e := range m.Exports {
		if keep(e) {
			kept = append(kept, e)
		}
	}
	m.Exports = kept
}

// CustomSections returns the names of all custom sections in order.
func (m *Module) CustomSections() []string {
	var names []string
	for _, s := range m.sections {
		if s.id == SectionCustom {
			names = append(names, s.name)
		}
	}
	return names
}

// CustomSection returns the payload of the first custom section with the
// given name, excluding the name prefix itself.
func (m *Module) CustomSection(name string) ([]byte, bool) {
	for _, s := range m.sections {
		if s.id == SectionCustom && s.name == name {
			return customPayload(s.body), true
		}
	}
	return nil, false
}

// RemoveCustomSection drops every custom section with the given name.
func (m *Module) RemoveCustomSection(name string) {
	m.filterSections(func(s section) bool {
		return s.id != SectionCustom || s.name != name
	})
}

func (m *Module) filterSections(keep func(section) bool) {
	kept := m.sections[:0]
	for _, s := range m.sections {
		if !keep(s) {
			continue
		}
		kept = append(kept, s)
	}
	m.sections = kept
	m.reindex()
}

func (m *Module) reindex() {
	m.importSec, m.exportSec, m.memorySec = -1, -1, -1
	for i, s := range m.sections {
		switch s.id {
		case SectionImport:
			m.importSec = i
		case SectionExport:
			m.exportSec = i
		case SectionMemory:
			m.memorySec = i
		}
	}
}

// sectionOrder maps a section ID to its canonical position. Custom
// sections may appear anywhere.
func sectionOrder(id byte) int {
	switch id {
	case SectionType:
		return 1
	case SectionImport:
		return 2
	case SectionFunction:
		return 3
	case SectionTable:
		return 4
	case SectionMemory:
		return 5
	case SectionTag:
		return 6
	case SectionGlobal:
		return 7
	case SectionExport:
		return 8
	case SectionStart:
		return 9
	case SectionElement:
		return 10
	case SectionDataCount:
		return 11
	case SectionCode:
		return 12
	case SectionData:
		return 13
	}
	return 0
}
