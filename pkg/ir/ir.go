package ir

import "strconv"

type Op int

const (
	OpAlloc Op = iota
	OpLoad
	OpStore
	OpAdd
	OpSub
	OpMul
	OpUDiv
	OpCall
	OpRet
)

type Type int

const (
	TypeNone Type = iota
	TypeW         // word (32-bit)
	TypeL         // long (64-bit)
)

type Value interface {
	isValue()
	String() string
}

type Const struct{ Value int64 }
type Global struct{ Name string }
type Temporary struct {
	Name string
	ID   int
}
type Label struct{ Name string }

func (c *Const) isValue()     {}
func (g *Global) isValue()    {}
func (t *Temporary) isValue() {}
func (l *Label) isValue()     {}

func (c *Const) String() string     { return strconv.FormatInt(c.Value, 10) }
func (g *Global) String() string    { return g.Name }
func (t *Temporary) String() string { return t.Name }
func (l *Label) String() string     { return l.Name }

type Func struct {
	Name   string
	Blocks []*BasicBlock
}

type BasicBlock struct {
	Label        *Label
	Instructions []*Instruction
}

// Instruction is one three-address operation. For OpCall, Args[0] is the
// callee and the rest are its arguments; when Variadic is set, the first
// NamedArgs arguments are fixed and the remainder are variadic.
type Instruction struct {
	Op        Op
	Typ       Type
	Result    Value
	Args      []Value
	Align     int
	Variadic  bool
	NamedArgs int
}

type Program struct {
	Funcs    []*Func
	WordSize int
}

// GetType returns the integer type that holds one machine word.
func GetType(wordSize int) Type {
	switch wordSize {
	case 4:
		return TypeW
	default:
		return TypeL
	}
}

func SizeOfType(t Type, wordSize int) int64 {
	switch t {
	case TypeW:
		return 4
	case TypeL:
		return 8
	default:
		return int64(wordSize)
	}
}
