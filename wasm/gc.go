package wasm

// GC is the dead-code-elimination collaborator run during assembly. The
// pass is section-level: it strips custom sections that carry no runtime
// behavior (metadata left behind by toolchains), keeping the "name" section
// only when keepDebug is set. Function-level elimination is left to the
// producing toolchain's linker; the generator itself removes unused glue
// exports before calling GC, so repeated passes reach a fixed point.
func GC(m *Module, keepDebug bool) {
	m.filterSections(func(s section) bool {
		if s.id != SectionCustom {
			return true
		}
		if s.name == "name" {
			return keepDebug
		}
		return isEssentialCustom(s.name)
	})
}

// isEssentialCustom reports custom sections that must survive GC because
// the running module depends on them.
func isEssentialCustom(name string) bool {
	switch name {
	case "dylink", "dylink.0", "target_features":
		return true
	}
	return false
}
