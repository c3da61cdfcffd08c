package codegen

import (
	"fmt"

	"github.com/xplshn/polc/pkg/ast"
	"github.com/xplshn/polc/pkg/config"
	"github.com/xplshn/polc/pkg/ir"
	"github.com/xplshn/polc/pkg/util"
)

var irOps = map[ast.Op]ir.Op{
	ast.OpAdd: ir.OpAdd,
	ast.OpSub: ir.OpSub,
	ast.OpMul: ir.OpMul,
	ast.OpDiv: ir.OpUDiv,
}

// Context lowers a parsed program into IR for the QBE backend.
type Context struct {
	prog         *ir.Program
	tempCount    int
	currentFunc  *ir.Func
	currentBlock *ir.BasicBlock
	wordSize     int
	wordType     ir.Type
	cfg          *config.Config
}

func NewContext(cfg *config.Config) *Context {
	return &Context{
		prog:     &ir.Program{WordSize: cfg.WordSize},
		wordSize: cfg.WordSize,
		wordType: ir.GetType(cfg.WordSize),
		cfg:      cfg,
	}
}

// newTemp numbers temporaries from 1 within each function.
func (ctx *Context) newTemp() *ir.Temporary {
	ctx.tempCount++
	return &ir.Temporary{ID: ctx.tempCount}
}

func slotValue(s ast.Slot) *ir.Temporary {
	return &ir.Temporary{Name: fmt.Sprintf("s%d", s.Index()), ID: -1}
}

func (ctx *Context) startBlock(label *ir.Label) {
	block := &ir.BasicBlock{Label: label}
	ctx.currentFunc.Blocks = append(ctx.currentFunc.Blocks, block)
	ctx.currentBlock = block
}

func (ctx *Context) addInstr(instr *ir.Instruction) {
	if ctx.currentBlock == nil {
		ctx.startBlock(&ir.Label{Name: "start"})
	}
	ctx.currentBlock.Instructions = append(ctx.currentBlock.Instructions, instr)
}

func (ctx *Context) GenerateIR(prog *ast.Program) (*ir.Program, error) {
	for _, fn := range prog.Funcs {
		if err := ctx.codegenFunc(fn); err != nil {
			return nil, err
		}
	}
	return ctx.prog, nil
}

func (ctx *Context) codegenFunc(fn *ast.Function) error {
	ctx.currentFunc = &ir.Func{Name: fn.Name}
	ctx.currentBlock = nil
	ctx.tempCount = 0
	ctx.prog.Funcs = append(ctx.prog.Funcs, ctx.currentFunc)
	ctx.startBlock(&ir.Label{Name: "start"})

	size := ir.SizeOfType(ctx.wordType, ctx.wordSize)
	for i := 0; i < fn.FrameSize(); i++ {
		ctx.addInstr(&ir.Instruction{
			Op: ir.OpAlloc, Typ: ir.GetType(8), Result: slotValue(ast.Slot(i)),
			Args: []ir.Value{&ir.Const{Value: size}}, Align: int(size),
		})
	}

	for _, stmt := range fn.Body {
		if err := ctx.codegenStmt(fn, stmt); err != nil {
			return err
		}
	}
	ctx.addInstr(&ir.Instruction{Op: ir.OpRet})
	return nil
}

func (ctx *Context) codegenStmt(fn *ast.Function, stmt *ast.Node) error {
	switch stmt.Type {
	case ast.Assign:
		d := stmt.Data.(ast.AssignNode)
		val := ctx.codegenExpr(d.Expr)
		ctx.addInstr(&ir.Instruction{Op: ir.OpStore, Typ: ctx.wordType, Args: []ir.Value{val, slotValue(d.Target)}})
	case ast.Call:
		name := stmt.Data.(ast.CallNode).Name
		ctx.addInstr(&ir.Instruction{Op: ir.OpCall, Args: []ir.Value{&ir.Global{Name: name}}})
	case ast.Syscall:
		d := stmt.Data.(ast.SyscallNode)
		if len(d.Args) > len(SyscallRegs) {
			return util.Errorf(util.ErrTooManyArgs, "syscall %d in function '%s' takes at most %d arguments, got %d",
				d.Number, fn.Name, len(SyscallRegs), len(d.Args))
		}
		// Syscalls go through the C library's syscall(2) wrapper, which
		// takes the number as its only named argument.
		args := []ir.Value{&ir.Global{Name: "syscall"}, &ir.Const{Value: int64(d.Number)}}
		for _, arg := range d.Args {
			args = append(args, ctx.codegenExpr(arg))
		}
		ctx.addInstr(&ir.Instruction{Op: ir.OpCall, Args: args, Variadic: true, NamedArgs: 1})
	default:
		return fmt.Errorf("codegen: unexpected statement node type %d", stmt.Type)
	}
	return nil
}

// codegenExpr returns a constant or a temporary holding the value of n.
func (ctx *Context) codegenExpr(n *ast.Node) ir.Value {
	switch n.Type {
	case ast.Number:
		return &ir.Const{Value: int64(n.Data.(ast.NumberNode).Value)}
	case ast.Ident:
		t := ctx.newTemp()
		ctx.addInstr(&ir.Instruction{Op: ir.OpLoad, Typ: ctx.wordType, Result: t, Args: []ir.Value{slotValue(n.Data.(ast.IdentNode).Slot)}})
		return t
	}

	d := n.Data.(ast.BinaryOpNode)
	left := ctx.codegenExpr(d.Left)
	right := ctx.codegenExpr(d.Right)
	t := ctx.newTemp()
	ctx.addInstr(&ir.Instruction{Op: irOps[d.Op], Typ: ctx.wordType, Result: t, Args: []ir.Value{left, right}})
	return t
}
