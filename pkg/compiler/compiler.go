// Package compiler runs the whole pipeline: lexing, parsing and code
// generation. Every stage returns the first error it meets and the pipeline
// stops there, so a failed compilation produces no output at all.
package compiler

import (
	"github.com/xplshn/polc/pkg/ast"
	"github.com/xplshn/polc/pkg/codegen"
	"github.com/xplshn/polc/pkg/config"
	"github.com/xplshn/polc/pkg/lexer"
	"github.com/xplshn/polc/pkg/parser"
	"github.com/xplshn/polc/pkg/token"
)

// Stages holds the intermediate results of one compilation.
type Stages struct {
	Tokens  []token.Token
	Program *ast.Program
	Output  string
}

// Compile translates source into assembly for the configured backend.
func Compile(source string, cfg *config.Config) (string, error) {
	st, err := Run(source, cfg)
	if err != nil {
		return "", err
	}
	return st.Output, nil
}

// Front runs the lexer and parser only.
func Front(source string, cfg *config.Config) (*Stages, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	tokens, err := lexer.Tokenize(source)
	if err != nil {
		return nil, err
	}
	prog, err := parser.NewParser(tokens, cfg).Parse()
	if err != nil {
		return nil, err
	}
	return &Stages{Tokens: tokens, Program: prog}, nil
}

// Run runs every stage and keeps their results.
func Run(source string, cfg *config.Config) (*Stages, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	st, err := Front(source, cfg)
	if err != nil {
		return nil, err
	}
	backend, err := codegen.SelectBackend(cfg.BackendName)
	if err != nil {
		return nil, err
	}
	buf, err := backend.Generate(st.Program, cfg)
	if err != nil {
		return nil, err
	}
	st.Output = buf.String()
	return st, nil
}
