package ast

import (
	"fmt"
	"io"
	"slices"
	"strings"
)

// Fprint writes prog back out in source form, with every identifier
// reference spelled by the name of its slot.
func Fprint(w io.Writer, prog *Program) error {
	var sb strings.Builder
	for _, fn := range prog.Funcs {
		sb.WriteString("function " + fn.Name)
		for _, p := range fn.Params {
			sb.WriteString(" " + p)
		}
		sb.WriteString(" ;\n")
		names := fn.Idents.Names()
		for _, stmt := range fn.Body {
			sb.WriteString("    ")
			writeStmt(&sb, stmt, names)
			sb.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// slotName spells a slot by its name unless the name resolves to an earlier
// slot, as a repeated parameter does; such slots print as $N.
func slotName(names []string, s Slot) string {
	i := s.Index()
	if i < 0 || i >= len(names) || slices.Index(names, names[i]) != i {
		return fmt.Sprintf("$%d", i)
	}
	return names[i]
}

func writeStmt(sb *strings.Builder, n *Node, names []string) {
	switch n.Type {
	case Assign:
		d := n.Data.(AssignNode)
		fmt.Fprintf(sb, "int %s = ", slotName(names, d.Target))
		writeExpr(sb, d.Expr, names)
		sb.WriteString(" ;")
	case Call:
		sb.WriteString("@" + n.Data.(CallNode).Name)
	case Syscall:
		d := n.Data.(SyscallNode)
		fmt.Fprintf(sb, "sys %d", d.Number)
		for _, arg := range d.Args {
			sb.WriteString(" ")
			writeExpr(sb, arg, names)
		}
		sb.WriteString(" ;")
	default:
		writeExpr(sb, n, names)
	}
}

func writeExpr(sb *strings.Builder, n *Node, names []string) {
	switch n.Type {
	case Number:
		fmt.Fprintf(sb, "%d", n.Data.(NumberNode).Value)
	case Ident:
		sb.WriteString(slotName(names, n.Data.(IdentNode).Slot))
	case BinaryOp:
		d := n.Data.(BinaryOpNode)
		sb.WriteString(d.Op.String() + " ")
		writeExpr(sb, d.Left, names)
		sb.WriteString(" ")
		writeExpr(sb, d.Right, names)
	}
}
