package codegen

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/xplshn/polc/pkg/ast"
	"github.com/xplshn/polc/pkg/config"
	"github.com/xplshn/polc/pkg/util"
)

// SyscallRegs are the argument registers of the x86-64 Linux syscall ABI,
// in argument order.
var SyscallRegs = []string{"rdi", "rsi", "rdx", "r10", "r8", "r9"}

const (
	accumulator = "rax"
	scratch     = "rcx"
	stackAlign  = 16
)

var nasmOps = map[ast.Op]string{
	ast.OpAdd: "add",
	ast.OpSub: "sub",
	ast.OpMul: "imul",
}

type nasmBackend struct {
	out      *strings.Builder
	wordSize int
}

func NewNasmBackend() Backend { return &nasmBackend{} }

func (b *nasmBackend) Generate(prog *ast.Program, cfg *config.Config) (*bytes.Buffer, error) {
	var sb strings.Builder
	b.out = &sb
	b.wordSize = cfg.WordSize
	if b.wordSize <= 0 {
		b.wordSize = 8
	}

	b.emit("global _start")
	b.emit("section .text")
	for _, fn := range prog.Funcs {
		if err := b.genFunc(fn); err != nil {
			return nil, err
		}
	}
	return bytes.NewBufferString(sb.String()), nil
}

func (b *nasmBackend) emit(format string, args ...interface{}) {
	fmt.Fprintf(b.out, format, args...)
	b.out.WriteByte('\n')
}

func (b *nasmBackend) genFunc(fn *ast.Function) error {
	b.emit("%s:", fn.Name)
	b.emit("push rbp")
	b.emit("mov rbp, rsp")
	// Reserve the slots so push, call and syscall stay below them.
	if n := fn.FrameSize(); n > 0 {
		frame := (n*b.wordSize + stackAlign - 1) / stackAlign * stackAlign
		b.emit("sub rsp, %d", frame)
	}

	for _, stmt := range fn.Body {
		if err := b.genStmt(fn, stmt); err != nil {
			return err
		}
	}

	b.emit("")
	b.emit("mov rsp, rbp")
	b.emit("pop rbp")
	b.emit("ret")
	return nil
}

// slotAddr addresses a slot below the saved frame pointer.
func (b *nasmBackend) slotAddr(s ast.Slot) string {
	return fmt.Sprintf("[rbp-%d]", (s.Index()+1)*b.wordSize)
}

// operand renders a leaf node as an instruction operand.
func (b *nasmBackend) operand(n *ast.Node) string {
	switch n.Type {
	case ast.Ident:
		return b.slotAddr(n.Data.(ast.IdentNode).Slot)
	case ast.Number:
		return fmt.Sprint(n.Data.(ast.NumberNode).Value)
	}
	panic(fmt.Sprintf("codegen: node type %d is not an operand", n.Type))
}

// fitsImm32 reports whether a literal survives sign extension from a 32-bit
// immediate.
func fitsImm32(n *ast.Node) bool {
	return n.Type != ast.Number || n.Data.(ast.NumberNode).Value <= math.MaxInt32
}

func (b *nasmBackend) genStmt(fn *ast.Function, stmt *ast.Node) error {
	switch stmt.Type {
	case ast.Assign:
		d := stmt.Data.(ast.AssignNode)
		dst := b.slotAddr(d.Target)
		switch {
		case d.Expr.Type == ast.Number && fitsImm32(d.Expr):
			b.emit("mov qword %s, %s", dst, b.operand(d.Expr))
		case d.Expr.IsLeaf():
			b.emit("mov %s, %s", accumulator, b.operand(d.Expr))
			b.emit("mov %s, %s", dst, accumulator)
		default:
			b.genExpr(d.Expr)
			b.emit("mov %s, %s", dst, accumulator)
		}
	case ast.Call:
		b.emit("call %s", stmt.Data.(ast.CallNode).Name)
	case ast.Syscall:
		d := stmt.Data.(ast.SyscallNode)
		if len(d.Args) > len(SyscallRegs) {
			return util.Errorf(util.ErrTooManyArgs, "syscall %d in function '%s' takes at most %d arguments, got %d",
				d.Number, fn.Name, len(SyscallRegs), len(d.Args))
		}
		b.emit("mov %s, %d", accumulator, d.Number)
		for i, arg := range d.Args {
			b.emit("mov %s, %s", SyscallRegs[i], b.operand(arg))
		}
		b.emit("syscall")
	default:
		return fmt.Errorf("codegen: unexpected statement node type %d", stmt.Type)
	}
	return nil
}

// genExpr leaves the value of n in the accumulator.
func (b *nasmBackend) genExpr(n *ast.Node) {
	if n.IsLeaf() {
		b.emit("mov %s, %s", accumulator, b.operand(n))
		return
	}

	d := n.Data.(ast.BinaryOpNode)
	b.genExpr(d.Left)

	right := ""
	switch {
	case !d.Right.IsLeaf():
		b.emit("push %s", accumulator)
		b.genExpr(d.Right)
		b.emit("mov %s, %s", scratch, accumulator)
		b.emit("pop %s", accumulator)
		right = scratch
	case !fitsImm32(d.Right):
		b.emit("mov %s, %s", scratch, b.operand(d.Right))
		right = scratch
	default:
		right = b.operand(d.Right)
	}

	if d.Op == ast.OpDiv {
		if right != scratch {
			b.emit("mov %s, %s", scratch, right)
		}
		b.emit("xor rdx, rdx")
		b.emit("div %s", scratch)
		return
	}
	b.emit("%s %s, %s", nasmOps[d.Op], accumulator, right)
}
