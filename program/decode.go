package program

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/wippyai/wasm-bindgen/errors"
)

// Decode parses the msgpack payload of the program custom section.
func Decode(data []byte) (*Program, error) {
	var p Program
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return nil, errors.InvalidData(errors.PhaseParse, "program metadata section", err)
	}
	return &p, nil
}

// Encode serializes a Program back into custom-section payload form. The
// generator itself never writes metadata; this exists for tests and for
// tooling that synthesizes fixtures.
func Encode(p *Program) ([]byte, error) {
	return msgpack.Marshal(p)
}
