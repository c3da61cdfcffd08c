package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nalgeon/be"
)

func TestGoldenPath(t *testing.T) {
	be.Equal(t, goldenPath("tests/exit.pol", "nasm"), "tests/exit.nasm.golden")
	be.Equal(t, goldenPath("tests/exit.pol", "qbe/arm64"), "tests/exit.qbe-arm64.golden")
}

func TestHashInputs(t *testing.T) {
	h := hashInputs("nasm", []byte("function f ;"), []byte("x"))
	be.Equal(t, h, hashInputs("nasm", []byte("function f ;"), []byte("x")))
	be.True(t, h != hashInputs("qbe", []byte("function f ;"), []byte("x")))
	be.True(t, h != hashInputs("nasm", []byte("function f ;x"), nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	be.Err(t, os.WriteFile(path, []byte(content), 0644), nil)
}

func TestTestFile(t *testing.T) {
	dir := t.TempDir()
	ok := filepath.Join(dir, "ok.pol")
	bad := filepath.Join(dir, "bad.pol")
	missing := filepath.Join(dir, "missing.pol")
	writeFile(t, ok, "function f ;")
	writeFile(t, goldenPath(ok, "nasm"), "global _start\nsection .text\nf:\npush rbp\nmov rbp, rsp\n\nmov rsp, rbp\npop rbp\nret\n")
	writeFile(t, bad, "function f ; sys 1 y ;")
	writeFile(t, goldenPath(bad, "nasm"), "compile error: semantic error: undeclared identifier: 'y' in function 'g'\n")
	writeFile(t, missing, "function f ;")

	ctx := context.Background()
	prev := make(TestSuiteResults)

	res := testFile(ctx, ok, "nasm", prev)
	be.Equal(t, res.Status, "PASS")

	res = testFile(ctx, bad, "nasm", prev)
	be.Equal(t, res.Status, "FAIL")
	be.True(t, res.Diff != "")

	res = testFile(ctx, missing, "nasm", prev)
	be.Equal(t, res.Status, "SKIP")

	res = testFile(ctx, filepath.Join(dir, "absent.pol"), "nasm", prev)
	be.Equal(t, res.Status, "ERROR")
}

func TestTestFileCacheAndUpdate(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "p.pol")
	writeFile(t, src, "function f ; int x = 1 ;")
	ctx := context.Background()

	*update = true
	res := testFile(ctx, src, "nasm", nil)
	*update = false
	be.Equal(t, res.Status, "UPDATED")
	_, err := os.Stat(goldenPath(src, "nasm"))
	be.Err(t, err, nil)

	res = testFile(ctx, src, "nasm", nil)
	be.Equal(t, res.Status, "PASS")

	*useCache = true
	defer func() { *useCache = false }()
	cached := testFile(ctx, src, "nasm", TestSuiteResults{src: res})
	be.Equal(t, cached.Message, "Cached result")

	writeFile(t, src, "function f ; int x = 2 ;")
	res = testFile(ctx, src, "nasm", TestSuiteResults{src: res})
	be.Equal(t, res.Status, "FAIL")
}

func TestRunSuite(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a", "b", "c"} {
		src := filepath.Join(dir, name+".pol")
		writeFile(t, src, "function "+name+" ;")
	}
	files, err := expandGlobPatterns(filepath.Join(dir, "*.pol") + " " + filepath.Join(dir, "a.pol"))
	be.Err(t, err, nil)
	be.Equal(t, len(files), 3)

	*update = true
	results := runSuite(context.Background(), files, "nasm", nil)
	*update = false
	be.Equal(t, len(results), 3)
	for _, r := range results {
		be.Equal(t, r.Status, "UPDATED")
	}

	*skipFiles = files[1]
	defer func() { *skipFiles = "" }()
	results = runSuite(context.Background(), files, "nasm", nil)
	statuses := []string{results[0].Status, results[1].Status, results[2].Status}
	be.Equal(t, statuses, []string{"PASS", "SKIP", "PASS"})

	m := make(TestSuiteResults)
	for _, r := range results {
		m[r.File] = r
	}
	be.True(t, !hasFailures(m))
	m[files[0]].Status = "FAIL"
	be.True(t, hasFailures(m))
}

func TestInterruptedSuiteSkips(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.pol")
	writeFile(t, src, "function a ;")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := runSuite(ctx, []string{src}, "nasm", nil)
	be.Equal(t, results[0].Status, "SKIP")
	be.Equal(t, results[0].Message, "Interrupted")
}
