package parser

import (
	"github.com/xplshn/polc/pkg/ast"
	"github.com/xplshn/polc/pkg/config"
	"github.com/xplshn/polc/pkg/token"
	"github.com/xplshn/polc/pkg/util"
)

// Parser holds the state for the parsing process
type Parser struct {
	tokens []token.Token
	pos    int
	cfg    *config.Config

	funcs   []*ast.Function
	current *funcBuilder
}

// funcBuilder owns the function being parsed. Its table is never shared
// with another function.
type funcBuilder struct {
	fn *ast.Function
}

func newFuncBuilder(name string, params []string) *funcBuilder {
	return &funcBuilder{fn: &ast.Function{
		Name:   name,
		Params: params,
		Idents: ast.NewIdentTable(params),
	}}
}

func (b *funcBuilder) append(stmt *ast.Node) { b.fn.Body = append(b.fn.Body, stmt) }

// NewParser creates a Parser over a token sequence. A nil cfg means the
// default configuration.
func NewParser(tokens []token.Token, cfg *config.Config) *Parser {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &Parser{tokens: tokens, cfg: cfg}
}

// Parse parses tokens with the default configuration.
func Parse(tokens []token.Token) (*ast.Program, error) {
	return NewParser(tokens, nil).Parse()
}

// Parser helpers
func (p *Parser) isAtEnd() bool { return p.pos >= len(p.tokens) }

func (p *Parser) next() (token.Token, error) {
	if p.isAtEnd() {
		return token.Token{Type: token.EOF}, util.Errorf(util.ErrUnexpectedEOF, "")
	}
	tok := p.tokens[p.pos]
	p.pos++
	return tok, nil
}

func (p *Parser) expect(tokType token.Type, context string) (token.Token, error) {
	tok, err := p.next()
	if err != nil {
		return tok, util.Errorf(util.ErrUnexpectedEOF, "expected %s %s", tokType, context)
	}
	if tok.Type != tokType {
		return tok, util.Errorf(util.ErrUnexpectedToken, "expected %s %s, got %s", tokType, context, tok)
	}
	return tok, nil
}

// Parse consumes the whole token sequence. The first error aborts parsing
// and no program is returned.
func (p *Parser) Parse() (*ast.Program, error) {
	for !p.isAtEnd() {
		if err := p.parseTopLevel(); err != nil {
			return nil, err
		}
	}
	p.flush()

	prog := &ast.Program{Funcs: p.funcs}
	if p.cfg.IsFeatureEnabled(config.FeatCheckCalls) {
		if err := checkCalls(prog); err != nil {
			return nil, err
		}
	}
	return prog, nil
}

func (p *Parser) flush() {
	if p.current != nil {
		p.funcs = append(p.funcs, p.current.fn)
		p.current = nil
	}
}

func (p *Parser) parseTopLevel() error {
	tok, _ := p.next()
	if tok.Type == token.Function {
		return p.parseFuncDecl()
	}
	if p.current == nil {
		return util.Errorf(util.ErrNoFunction, "%s before any function declaration", tok)
	}

	switch tok.Type {
	case token.Call:
		p.current.append(ast.NewCall(tok.Value))
		return nil
	case token.Sys:
		return p.parseSyscall()
	}
	if tok.Type.IsTypeMarker() {
		return p.parseAssign()
	}
	return util.Errorf(util.ErrUnexpectedToken, "%s cannot start a statement", tok)
}

func (p *Parser) parseFuncDecl() error {
	nameTok, err := p.expect(token.Ident, "after 'function'")
	if err != nil {
		return err
	}

	var params []string
	for {
		tok, err := p.next()
		if err != nil {
			return util.Errorf(util.ErrUnexpectedEOF, "in parameter list of '%s'", nameTok.Value)
		}
		if tok.Type == token.Semi {
			break
		}
		if tok.Type != token.Ident {
			return util.Errorf(util.ErrUnexpectedToken, "expected parameter name in '%s', got %s", nameTok.Value, tok)
		}
		params = append(params, tok.Value)
	}

	if p.cfg.IsFeatureEnabled(config.FeatStrictNames) {
		if err := p.checkNames(nameTok.Value, params); err != nil {
			return err
		}
	}

	p.flush()
	p.current = newFuncBuilder(nameTok.Value, params)
	return nil
}

func (p *Parser) checkNames(name string, params []string) error {
	if p.current != nil && p.current.fn.Name == name {
		return util.Errorf(util.ErrDuplicateFunc, "'%s'", name)
	}
	for _, fn := range p.funcs {
		if fn.Name == name {
			return util.Errorf(util.ErrDuplicateFunc, "'%s'", name)
		}
	}
	seen := make(map[string]bool, len(params))
	for _, param := range params {
		if seen[param] {
			return util.Errorf(util.ErrDuplicateParam, "'%s' in function '%s'", param, name)
		}
		seen[param] = true
	}
	return nil
}

func (p *Parser) parseSyscall() error {
	numTok, err := p.expect(token.Number, "after 'sys'")
	if err != nil {
		return err
	}

	var args []*ast.Node
	for {
		tok, err := p.next()
		if err != nil {
			return util.Errorf(util.ErrUnexpectedEOF, "in arguments of syscall %d", numTok.Num)
		}
		switch tok.Type {
		case token.Semi:
			p.current.append(ast.NewSyscall(numTok.Num, args))
			return nil
		case token.Number:
			args = append(args, ast.NewNumber(tok.Num))
		case token.Ident:
			ident, err := p.resolve(tok.Value)
			if err != nil {
				return err
			}
			args = append(args, ident)
		default:
			return util.Errorf(util.ErrUnexpectedToken, "syscall argument must be an integer or identifier, got %s", tok)
		}
	}
}

func (p *Parser) parseAssign() error {
	nameTok, err := p.expect(token.Ident, "after type")
	if err != nil {
		return err
	}
	if _, err := p.expect(token.Assign, "after '"+nameTok.Value+"'"); err != nil {
		return err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return err
	}
	if _, err := p.expect(token.Semi, "after assignment to '"+nameTok.Value+"'"); err != nil {
		return err
	}

	slot := p.current.fn.Idents.Bind(nameTok.Value)
	p.current.append(ast.NewAssign(slot, expr))
	return nil
}

func (p *Parser) resolve(name string) (*ast.Node, error) {
	slot, ok := p.current.fn.Idents.Lookup(name)
	if !ok {
		return nil, util.Errorf(util.ErrUndeclared, "'%s' in function '%s'", name, p.current.fn.Name)
	}
	return ast.NewIdent(slot), nil
}

var binaryOps = map[token.Type]ast.Op{
	token.Plus:  ast.OpAdd,
	token.Minus: ast.OpSub,
	token.Star:  ast.OpMul,
	token.Slash: ast.OpDiv,
}

// parseExpr reads one prefix expression: an operand, or an operator
// followed by exactly two expressions.
func (p *Parser) parseExpr() (*ast.Node, error) {
	tok, err := p.next()
	if err != nil {
		return nil, util.Errorf(util.ErrUnexpectedEOF, "in expression")
	}

	switch tok.Type {
	case token.Number:
		return ast.NewNumber(tok.Num), nil
	case token.Ident:
		return p.resolve(tok.Value)
	}
	if !tok.Type.IsOperator() {
		return nil, util.Errorf(util.ErrUnexpectedToken, "expected expression, got %s", tok)
	}
	op := binaryOps[tok.Type]

	left, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	right, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return ast.NewBinaryOp(op, left, right), nil
}

func checkCalls(prog *ast.Program) error {
	for _, fn := range prog.Funcs {
		for _, stmt := range fn.Body {
			if stmt.Type != ast.Call {
				continue
			}
			name := stmt.Data.(ast.CallNode).Name
			if prog.Lookup(name) == nil {
				return util.Errorf(util.ErrUndefinedCall, "'%s' called from '%s'", name, fn.Name)
			}
		}
	}
	return nil
}
