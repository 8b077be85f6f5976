package interp_test

import (
	"context"
	"testing"

	"github.com/wippyai/wasm-bindgen/descriptor"
	"github.com/wippyai/wasm-bindgen/interp"
	"github.com/wippyai/wasm-bindgen/program"
)

func leb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

func wname(s string) []byte {
	return append(leb(uint32(len(s))), s...)
}

func sec(id byte, body []byte) []byte {
	out := []byte{id}
	out = append(out, leb(uint32(len(body)))...)
	return append(out, body...)
}

// describeModule builds a module whose single query export streams the
// given words through the describe import.
func describeModule(query string, words []uint32) []byte {
	m := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

	// type 0: (param i32), type 1: ()
	types := leb(2)
	types = append(types, 0x60, 0x01, 0x7F, 0x00)
	types = append(types, 0x60, 0x00, 0x00)
	m = append(m, sec(1, types)...)

	imp := leb(1)
	imp = append(imp, wname(program.PlaceholderModule)...)
	imp = append(imp, wname(interp.DescribeImport)...)
	imp = append(imp, 0x00)
	imp = append(imp, leb(0)...)
	m = append(m, sec(2, imp)...)

	m = append(m, sec(3, append(leb(1), leb(1)...))...)

	exp := leb(1)
	exp = append(exp, wname(query)...)
	exp = append(exp, 0x00)
	exp = append(exp, leb(1)...)
	m = append(m, sec(7, exp)...)

	var body []byte
	body = append(body, 0x00) // no locals
	for _, w := range words {
		body = append(body, 0x41)         // i32.const
		body = append(body, leb(w)...)    // all test words fit one LEB byte
		body = append(body, 0x10, 0x00)   // call $describe
	}
	body = append(body, 0x0B)
	code := append(leb(1), leb(uint32(len(body)))...)
	code = append(code, body...)
	m = append(m, sec(10, code)...)

	return m
}

func TestInterpretRecordsDescriptorStream(t *testing.T) {
	ctx := context.Background()
	query := program.DescribeQuery("add")
	// function(i32, i32) -> i32
	words := []uint32{11, 2, 4, 4, 4}

	i, err := interp.New(ctx, describeModule(query, words))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer i.Close(ctx)

	got, err := i.Interpret(ctx, query)
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if len(got) != len(words) {
		t.Fatalf("recorded %v, want %v", got, words)
	}
	for n := range got {
		if got[n] != words[n] {
			t.Fatalf("recorded %v, want %v", got, words)
		}
	}

	d, err := descriptor.Decode(got)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	fn := d.GetFunction()
	if fn == nil || len(fn.Args) != 2 || fn.Ret.Kind != descriptor.KindI32 {
		t.Errorf("decoded descriptor wrong: %+v", d)
	}
}

func TestInterpretMissingExportSkips(t *testing.T) {
	ctx := context.Background()
	i, err := interp.New(ctx, describeModule(program.DescribeQuery("add"), []uint32{23}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer i.Close(ctx)

	got, err := i.Interpret(ctx, program.DescribeQuery("gone"))
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil stream for missing export, got %v", got)
	}
}

func TestInterpretIsRepeatable(t *testing.T) {
	ctx := context.Background()
	query := program.DescribeQuery("unit")
	i, err := interp.New(ctx, describeModule(query, []uint32{23}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer i.Close(ctx)

	for n := 0; n < 3; n++ {
		got, err := i.Interpret(ctx, query)
		if err != nil {
			t.Fatalf("Interpret #%d: %v", n, err)
		}
		if len(got) != 1 || got[0] != 23 {
			t.Fatalf("Interpret #%d = %v", n, got)
		}
	}
}
