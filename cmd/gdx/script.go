package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"

	"github.com/wippyai/classbridge/bridge"
	"github.com/wippyai/classbridge/internal/demo"
	"github.com/wippyai/classbridge/wasmhost"
)

// runScript instantiates a wasm guest linked against the gdext module. The
// guest's start function runs on instantiation; an exported "run" is called
// afterwards if present.
func runScript(sess *demo.Session, path string) error {
	ctx := context.Background()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		return fmt.Errorf("instantiate WASI: %w", err)
	}
	if _, err := wasmhost.New(sess.Host, wasmhost.WithLogger(bridge.Logger().Named("wasmhost"))).Instantiate(ctx, r); err != nil {
		return fmt.Errorf("instantiate %s: %w", wasmhost.ModuleName, err)
	}

	compiled, err := r.CompileModule(ctx, data)
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}
	cfg := wazero.NewModuleConfig().
		WithName("script").
		WithStdout(os.Stdout).
		WithStderr(os.Stderr).
		WithArgs(path)
	mod, err := r.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		var exit *sys.ExitError
		if errors.As(err, &exit) && exit.ExitCode() == 0 {
			return nil
		}
		return fmt.Errorf("instantiate: %w", err)
	}

	if run := mod.ExportedFunction("run"); run != nil {
		if _, err := run.Call(ctx); err != nil {
			return fmt.Errorf("call run: %w", err)
		}
	}
	return nil
}
