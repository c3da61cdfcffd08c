package codegen

import (
	"fmt"
	"strings"

	"github.com/xplshn/polc/pkg/ast"
	"github.com/xplshn/polc/pkg/config"
	"github.com/xplshn/polc/pkg/ir"
)

type qbeBackend struct {
	out  *strings.Builder
	prog *ir.Program
}

func NewQBEBackend() Backend { return &qbeBackend{} }

// GenerateIR lowers prog and renders it as QBE IR. Syscalls go through the
// C library's syscall(2) wrapper, so the result must be linked against libc.
func (b *qbeBackend) GenerateIR(prog *ast.Program, cfg *config.Config) (string, error) {
	irProg, err := NewContext(cfg).GenerateIR(prog)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	b.out, b.prog = &sb, irProg
	for _, fn := range irProg.Funcs {
		b.genFunc(fn)
	}
	return sb.String(), nil
}

// GenerateIR renders prog as QBE IR without assembling it.
func GenerateIR(prog *ast.Program, cfg *config.Config) (string, error) {
	return NewQBEBackend().(*qbeBackend).GenerateIR(prog, cfg)
}

func (b *qbeBackend) genFunc(fn *ir.Func) {
	fmt.Fprintf(b.out, "export function $%s() {\n", fn.Name)
	for _, block := range fn.Blocks {
		b.genBlock(block)
	}
	b.out.WriteString("}\n\n")
}

func (b *qbeBackend) genBlock(block *ir.BasicBlock) {
	fmt.Fprintf(b.out, "@%s\n", block.Label.Name)
	for _, instr := range block.Instructions {
		b.genInstr(instr)
	}
}

func (b *qbeBackend) genInstr(instr *ir.Instruction) {
	b.out.WriteString("\t")
	if instr.Op == ir.OpCall {
		b.genCall(instr)
		return
	}

	if instr.Result != nil {
		fmt.Fprintf(b.out, "%s =%s ", b.formatValue(instr.Result), b.formatType(instr.Typ))
	}
	b.out.WriteString(b.formatOp(instr))
	for i, arg := range instr.Args {
		b.out.WriteString(" ")
		b.out.WriteString(b.formatValue(arg))
		if i < len(instr.Args)-1 {
			b.out.WriteString(",")
		}
	}
	b.out.WriteString("\n")
}

func (b *qbeBackend) genCall(instr *ir.Instruction) {
	argType := b.formatType(ir.GetType(b.prog.WordSize))
	var args []string
	for i, arg := range instr.Args[1:] {
		if instr.Variadic && i == instr.NamedArgs {
			args = append(args, "...")
		}
		args = append(args, argType+" "+b.formatValue(arg))
	}
	if instr.Variadic && len(instr.Args)-1 == instr.NamedArgs {
		args = append(args, "...")
	}
	fmt.Fprintf(b.out, "call %s(%s)\n", b.formatValue(instr.Args[0]), strings.Join(args, ", "))
}

func (b *qbeBackend) formatValue(v ir.Value) string {
	switch val := v.(type) {
	case *ir.Const:
		return fmt.Sprintf("%d", val.Value)
	case *ir.Global:
		return "$" + val.Name
	case *ir.Temporary:
		if val.ID == -1 {
			return "%" + val.Name
		}
		return fmt.Sprintf("%%t%d", val.ID)
	case *ir.Label:
		return "@" + val.Name
	}
	return ""
}

func (b *qbeBackend) formatType(t ir.Type) string {
	switch t {
	case ir.TypeW:
		return "w"
	case ir.TypeL:
		return "l"
	}
	return ""
}

func (b *qbeBackend) formatOp(instr *ir.Instruction) string {
	switch instr.Op {
	case ir.OpAlloc:
		if instr.Align <= 4 {
			return "alloc4"
		}
		return "alloc8"
	case ir.OpLoad:
		return "load" + b.formatType(instr.Typ)
	case ir.OpStore:
		return "store" + b.formatType(instr.Typ)
	case ir.OpAdd:
		return "add"
	case ir.OpSub:
		return "sub"
	case ir.OpMul:
		return "mul"
	case ir.OpUDiv:
		return "udiv"
	case ir.OpRet:
		return "ret"
	}
	return fmt.Sprintf("unknown_op_%d", instr.Op)
}
