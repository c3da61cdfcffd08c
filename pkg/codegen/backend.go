package codegen

import (
	"bytes"
	"fmt"

	"github.com/xplshn/polc/pkg/ast"
	"github.com/xplshn/polc/pkg/config"
)

// Backend is the interface that all code generation backends must implement.
type Backend interface {
	// Generate takes a parsed program and a configuration, and produces the
	// target assembly as a byte buffer.
	Generate(prog *ast.Program, cfg *config.Config) (*bytes.Buffer, error)
}

// SelectBackend returns the backend registered under name.
func SelectBackend(name string) (Backend, error) {
	switch name {
	case config.BackendNasm:
		return NewNasmBackend(), nil
	case config.BackendQBE:
		return NewQBEBackend(), nil
	default:
		return nil, fmt.Errorf("unsupported backend '%s'", name)
	}
}

// Emit renders prog as NASM assembly.
func Emit(prog *ast.Program, cfg *config.Config) (string, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	buf, err := NewNasmBackend().Generate(prog, cfg)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
