// Package ast defines the types used to represent a parsed program
package ast

import "fmt"

// NodeType defines the kind of a node
type NodeType int

const (
	// Expressions
	Number NodeType = iota
	Ident
	BinaryOp

	// Statements
	Assign
	Call
	Syscall
)

// Op is an arithmetic operator of a BinaryOp node
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
)

func (op Op) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// Node is an expression or a statement. Children are owned exclusively by
// their parent; the tree has no sharing.
type Node struct {
	Type NodeType
	Data interface{}
}

// Slot is the index of a local variable in its function's frame. It is only
// meaningful relative to the function that allocated it.
type Slot int

func (s Slot) Index() int { return int(s) }

type NumberNode struct{ Value uint32 }
type IdentNode struct{ Slot Slot }
type BinaryOpNode struct {
	Op    Op
	Left  *Node
	Right *Node
}

type AssignNode struct {
	Target Slot
	Expr   *Node
}
type CallNode struct{ Name string }

// SyscallNode arguments are Number or Ident nodes.
type SyscallNode struct {
	Number uint32
	Args   []*Node
}

func NewNumber(value uint32) *Node {
	return &Node{Type: Number, Data: NumberNode{Value: value}}
}

func NewIdent(slot Slot) *Node {
	return &Node{Type: Ident, Data: IdentNode{Slot: slot}}
}

func NewBinaryOp(op Op, left, right *Node) *Node {
	return &Node{Type: BinaryOp, Data: BinaryOpNode{Op: op, Left: left, Right: right}}
}

func NewAssign(target Slot, expr *Node) *Node {
	return &Node{Type: Assign, Data: AssignNode{Target: target, Expr: expr}}
}

func NewCall(name string) *Node {
	return &Node{Type: Call, Data: CallNode{Name: name}}
}

func NewSyscall(number uint32, args []*Node) *Node {
	return &Node{Type: Syscall, Data: SyscallNode{Number: number, Args: args}}
}

// IsLeaf reports whether n is an operand that needs no evaluation.
func (n *Node) IsLeaf() bool {
	return n.Type == Number || n.Type == Ident
}

// Function is a parsed function declaration. It is immutable once the
// parser has appended it to a Program.
type Function struct {
	Name   string
	Params []string
	Idents *IdentTable
	Body   []*Node
}

// FrameSize is the number of slots the function's frame needs.
func (f *Function) FrameSize() int { return f.Idents.Len() }

// Program is the list of functions in declaration order.
type Program struct {
	Funcs []*Function
}

// Lookup returns the first function declared with name.
func (p *Program) Lookup(name string) *Function {
	for _, fn := range p.Funcs {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}
