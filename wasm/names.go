package wasm

// Function names live in subsection 1 of the "name" custom section.
const nameSubFunction byte = 1

// RenameFunctionNames applies rename to every entry of the name section's
// function-names subsection. Other subsections pass through unchanged. A
// module without a name section, or one whose payload does not parse, is
// left untouched.
func (m *Module) RenameFunctionNames(rename func(string) string) {
	for i := range m.sections {
		s := &m.sections[i]
		if s.id != SectionCustom || s.name != "name" {
			continue
		}
		payload, err := renameInNamePayload(customPayload(s.body), rename)
		if err != nil {
			return
		}
		body := appendName(nil, "name")
		s.body = append(body, payload...)
		return
	}
}

func renameInNamePayload(payload []byte, rename func(string) string) ([]byte, error) {
	c := &cursor{data: payload}
	var out []byte
	for !c.eof() {
		id, err := c.byte()
		if err != nil {
			return nil, err
		}
		size, err := c.u32()
		if err != nil {
			return nil, err
		}
		sub, err := c.bytes(size)
		if err != nil {
			return nil, err
		}
		if id == nameSubFunction {
			sub, err = renameInNameMap(sub, rename)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, id)
		out = appendU32(out, mustU32(len(sub)))
		out = append(out, sub...)
	}
	return out, nil
}

// renameInNameMap rewrites a (func index, name) association list.
func renameInNameMap(sub []byte, rename func(string) string) ([]byte, error) {
	c := &cursor{data: sub}
	count, err := c.u32()
	if err != nil {
		return nil, err
	}
	out := appendU32(nil, count)
	for i := uint32(0); i < count; i++ {
		idx, err := c.u32()
		if err != nil {
			return nil, err
		}
		name, err := c.name()
		if err != nil {
			return nil, err
		}
		out = appendU32(out, idx)
		out = appendName(out, rename(name))
	}
	return out, nil
}
