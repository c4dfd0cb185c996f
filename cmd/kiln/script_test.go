package main

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
	"go.trai.ch/kiln/internal/adapters/wasm/wasmtest"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"kiln": func() {
			os.Exit(run(context.Background(), os.Args[1:], os.Stderr, graftComponents))
		},
	})
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir:   filepath.Join("testdata", "script"),
		Setup: setupScript,
		Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
			"wasm": cmdWasm,
		},
	})
}

func setupScript(env *testscript.Env) error {
	env.Setenv("NO_COLOR", "1")
	env.Setenv("CI", "true")

	homeDir := filepath.Join(env.WorkDir, ".home")
	if err := os.MkdirAll(homeDir, 0o750); err != nil {
		return err
	}
	env.Setenv("HOME", homeDir)
	return nil
}

// cmdWasm writes a test module:
//
//	wasm const <file> <fn> <value>
//	wasm inc <file> <fn> <module> <name>
func cmdWasm(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("unsupported: ! wasm")
	}
	if len(args) < 2 {
		ts.Fatalf("usage: wasm const|inc file args...")
	}

	var bin []byte
	switch kind, rest := args[0], args[2:]; kind {
	case "const":
		if len(rest) != 2 {
			ts.Fatalf("usage: wasm const file fn value")
		}
		v, err := strconv.ParseInt(rest[1], 10, 32)
		ts.Check(err)
		bin = wasmtest.Constant(rest[0], int32(v))
	case "inc":
		if len(rest) != 3 {
			ts.Fatalf("usage: wasm inc file fn module name")
		}
		bin = wasmtest.Increment(rest[0], rest[1], rest[2])
	default:
		ts.Fatalf("unknown module kind %q", kind)
	}

	path := ts.MkAbs(args[1])
	ts.Check(os.MkdirAll(filepath.Dir(path), 0o750))
	ts.Check(os.WriteFile(path, bin, 0o600))
}
