package compiler

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// testCase is one "Test: <name>" section of a markdown corpus. The section
// holds a `pol` fence with the source and either an `asm` fence with the
// expected output or a `compile-error` fence with the expected message.
type testCase struct {
	Name         string
	Line         int
	Features     []string
	Source       string
	Asm          string
	CompileError string
}

func extractTestCases(markdown []byte) ([]testCase, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(markdown))

	var cases []testCase
	var current *testCase
	flush := func() error {
		if current == nil {
			return nil
		}
		if current.Source == "" {
			return fmt.Errorf("test '%s' has no pol fence", current.Name)
		}
		if (current.Asm == "") == (current.CompileError == "") {
			return fmt.Errorf("test '%s' needs exactly one of an asm or a compile-error fence", current.Name)
		}
		cases = append(cases, *current)
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Heading:
			heading := nodeText(n, markdown)
			if !strings.HasPrefix(heading, "Test: ") {
				return ast.WalkContinue, nil
			}
			if err := flush(); err != nil {
				return ast.WalkStop, err
			}
			current = &testCase{Name: strings.TrimPrefix(heading, "Test: "), Line: lineOf(n, markdown)}

		case *ast.FencedCodeBlock:
			lang := string(n.Language(markdown))
			if current == nil {
				if lang != "" {
					return ast.WalkStop, fmt.Errorf("line %d: %s fence outside of a test", lineOf(n, markdown), lang)
				}
				return ast.WalkContinue, nil
			}
			content := blockText(n, markdown)
			switch lang {
			case "pol":
				current.Source = content
			case "asm":
				current.Asm = content
			case "compile-error":
				current.CompileError = strings.TrimSpace(content)
			case "features":
				current.Features = strings.Fields(content)
			default:
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence '%s' in test '%s'", lineOf(n, markdown), lang, current.Name)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return cases, nil
}

func nodeText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			buf.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func blockText(block *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	for i := 0; i < block.Lines().Len(); i++ {
		line := block.Lines().At(i)
		buf.Write(line.Value(source))
	}
	return buf.String()
}

func lineOf(node ast.Node, source []byte) int {
	var offset int
	switch n := node.(type) {
	case *ast.FencedCodeBlock:
		if n.Info != nil {
			offset = n.Info.Segment.Start
		} else if n.Lines().Len() > 0 {
			offset = n.Lines().At(0).Start
		}
	default:
		if node.Lines().Len() > 0 {
			offset = node.Lines().At(0).Start
		}
	}
	return bytes.Count(source[:offset], []byte("\n")) + 1
}
