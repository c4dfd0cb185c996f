// Package wasmtest encodes minimal wasm modules for tests. Every function has
// the type () -> i32.
package wasmtest

const (
	opCall     = 0x10
	opI32Const = 0x41
	opI32Add   = 0x6a
	opEnd      = 0x0b
)

type testImport struct {
	module, name string
}

type testFunc struct {
	name string
	body []byte
}

type testModule struct {
	imports []testImport
	funcs   []testFunc
}

func (m testModule) encode() []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	// type section: one func type () -> i32
	out = appendSection(out, 1, []byte{0x01, 0x60, 0x00, 0x01, 0x7f})

	if len(m.imports) > 0 {
		payload := uleb(nil, uint32(len(m.imports)))
		for _, imp := range m.imports {
			payload = appendName(payload, imp.module)
			payload = appendName(payload, imp.name)
			payload = append(payload, 0x00, 0x00)
		}
		out = appendSection(out, 2, payload)
	}

	funcs := uleb(nil, uint32(len(m.funcs)))
	for range m.funcs {
		funcs = append(funcs, 0x00)
	}
	out = appendSection(out, 3, funcs)

	exports := uleb(nil, uint32(len(m.funcs)))
	for i, f := range m.funcs {
		exports = appendName(exports, f.name)
		exports = append(exports, 0x00)
		exports = uleb(exports, uint32(len(m.imports)+i))
	}
	out = appendSection(out, 7, exports)

	code := uleb(nil, uint32(len(m.funcs)))
	for _, f := range m.funcs {
		body := append([]byte{0x00}, f.body...)
		body = append(body, opEnd)
		code = uleb(code, uint32(len(body)))
		code = append(code, body...)
	}
	return appendSection(out, 10, code)
}

func appendSection(out []byte, id byte, payload []byte) []byte {
	out = append(out, id)
	out = uleb(out, uint32(len(payload)))
	return append(out, payload...)
}

func appendName(out []byte, s string) []byte {
	out = uleb(out, uint32(len(s)))
	return append(out, s...)
}

func uleb(out []byte, v uint32) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}

func sleb(out []byte, v int32) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

// Constant returns a module exporting fn() = value.
func Constant(fn string, value int32) []byte {
	return testModule{
		funcs: []testFunc{{name: fn, body: sleb([]byte{opI32Const}, value)}},
	}.encode()
}

// Increment returns a module exporting fn() = module.name() + 1, where
// module.name is an imported () -> i32 function.
func Increment(fn, module, name string) []byte {
	body := []byte{opCall, 0x00, opI32Const, 0x01, opI32Add}
	return testModule{
		imports: []testImport{{module: module, name: name}},
		funcs:   []testFunc{{name: fn, body: body}},
	}.encode()
}
