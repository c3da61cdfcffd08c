package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"
	"github.com/xplshn/polc/pkg/util"
)

func writeSource(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.pol")
	be.Err(t, os.WriteFile(path, []byte(src), 0644), nil)
	return path
}

func runPolc(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Setenv("POLC_TARGET", "")
	t.Setenv("POLC_VERBOSE", "")
	var out, diagOut bytes.Buffer
	diag := &util.Diag{Prog: "polc", Out: &diagOut}
	err = newApp(diag, &out).Run(args)
	return out.String(), diagOut.String(), err
}

func TestCompileToFile(t *testing.T) {
	in := writeSource(t, "function _start ; int x = + 40 2 ; sys 60 x ;")
	out := filepath.Join(t.TempDir(), "prog.asm")

	_, _, err := runPolc(t, "-o", out, in)
	be.Err(t, err, nil)
	asm, err := os.ReadFile(out)
	be.Err(t, err, nil)
	be.True(t, strings.HasPrefix(string(asm), "global _start\nsection .text\n_start:\n"))
	be.True(t, strings.Contains(string(asm), "mov rax, 40\nadd rax, 2\nmov [rbp-8], rax\n"))
}

func TestPositionalOutput(t *testing.T) {
	in := writeSource(t, "function f ;")
	out := filepath.Join(t.TempDir(), "second.asm")
	_, _, err := runPolc(t, in, out)
	be.Err(t, err, nil)
	_, err = os.Stat(out)
	be.Err(t, err, nil)
}

func TestCompileToStdout(t *testing.T) {
	in := writeSource(t, "function f ;")
	stdout, _, err := runPolc(t, "-o", "-", in)
	be.Err(t, err, nil)
	be.Equal(t, stdout, "global _start\nsection .text\nf:\npush rbp\nmov rbp, rsp\n\nmov rsp, rbp\npop rbp\nret\n")
}

func TestDumps(t *testing.T) {
	in := writeSource(t, "function f a ; int x = * a 3 ; @g")

	stdout, _, err := runPolc(t, "--dump-tokens", in)
	be.Err(t, err, nil)
	be.Equal(t, strings.Fields(stdout)[:3], []string{"'function'", "f", "a"})
	be.True(t, strings.HasSuffix(stdout, "@g\n"))

	stdout, _, err = runPolc(t, "--dump-ast", in)
	be.Err(t, err, nil)
	be.Equal(t, stdout, "function f a ;\n    int x = * a 3 ;\n    @g\n")

	stdout, _, err = runPolc(t, "-t", "qbe/amd64_sysv", "-d", in)
	be.Err(t, err, nil)
	be.True(t, strings.Contains(stdout, "export function $f() {"))
	be.True(t, strings.Contains(stdout, "mul"))

	_, stderr, err := runPolc(t, "-d", in)
	be.Err(t, err, "needs the qbe backend")
	be.True(t, strings.Contains(stderr, "polc: error:"))
}

func TestFeatureFlagsReachTheParser(t *testing.T) {
	in := writeSource(t, "function main ; @helper")
	_, _, err := runPolc(t, "-o", "-", in)
	be.Err(t, err, nil)

	_, stderr, err := runPolc(t, "-Fcheck-calls", "-o", "-", in)
	be.Err(t, err, util.ErrUndefinedCall)
	be.True(t, strings.Contains(stderr, "call to undefined function: 'helper'"))
}

func TestVerbose(t *testing.T) {
	in := writeSource(t, "function f ;")
	_, stderr, err := runPolc(t, "-v", "-o", "-", in)
	be.Err(t, err, nil)
	be.True(t, strings.Contains(stderr, "polc: info: tokenizing and parsing"))
	be.True(t, strings.Contains(stderr, "generating code with 'nasm' backend"))
}

func TestTargetFromEnvironment(t *testing.T) {
	in := writeSource(t, "function f ;")
	var out bytes.Buffer
	t.Setenv("POLC_TARGET", "qbe/amd64_sysv")
	diag := &util.Diag{Prog: "polc", Out: &bytes.Buffer{}}
	be.Err(t, newApp(diag, &out).Run([]string{"-d", in}), nil)
	be.True(t, strings.HasPrefix(out.String(), "export function $f() {"))
}

func TestDriverErrors(t *testing.T) {
	in := writeSource(t, "function f ; int x = y ;")
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no input", nil, "no input file specified"},
		{"too many args", []string{"a", "b", "c"}, "got 3 arguments"},
		{"missing file", []string{filepath.Join(t.TempDir(), "nope.pol")}, "could not read file"},
		{"bad target", []string{"-t", "llvm", in}, "unsupported backend"},
		{"compile error", []string{"-o", "-", in}, "undeclared identifier"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, err := runPolc(t, tt.args...)
			be.Err(t, err, tt.want)
			be.True(t, strings.Contains(stderr, tt.want))
		})
	}
}

func TestDumpTokensOnlyLexes(t *testing.T) {
	in := writeSource(t, "function main ; @helper")
	stdout, stderr, err := runPolc(t, "--dump-tokens", "-Fcheck-calls", in)
	be.Err(t, err, nil)
	be.True(t, strings.HasSuffix(stdout, "@helper\n"))
	be.Equal(t, stderr, "polc: warning: -Fcheck-calls has no effect with --dump-tokens\n")
}
