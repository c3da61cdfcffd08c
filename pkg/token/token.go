package token

import "strconv"

type Type int

const (
	EOF Type = iota
	Ident
	Number
	Assign
	Semi
	Plus
	Minus
	Star
	Slash
	Function
	Call
	Sys
	Int
)

var KeywordMap = map[string]Type{
	"function": Function,
	"sys":      Sys,
	"int":      Int,
}

// Reverse mapping from Type to the keyword string
var TypeStrings = map[Type]string{
	EOF:    "end of input",
	Ident:  "identifier",
	Number: "integer",
	Assign: "'='",
	Semi:   "';'",
	Plus:   "'+'",
	Minus:  "'-'",
	Star:   "'*'",
	Slash:  "'/'",
	Call:   "'@'",
}

func init() {
	for str, typ := range KeywordMap {
		TypeStrings[typ] = "'" + str + "'"
	}
}

func (t Type) String() string {
	if s, ok := TypeStrings[t]; ok {
		return s
	}
	return "Type(" + strconv.Itoa(int(t)) + ")"
}

// IsOperator reports whether t is one of the four arithmetic operators.
func (t Type) IsOperator() bool { return t >= Plus && t <= Slash }

// IsTypeMarker reports whether t names a value type. Int is the only one.
func (t Type) IsTypeMarker() bool { return t == Int }

// Token is a single lexeme. Value holds the name of an Ident or the callee
// of a Call; Num holds the value of a Number.
type Token struct {
	Type  Type
	Value string
	Num   uint32
}

func (t Token) String() string {
	switch t.Type {
	case Ident:
		return t.Value
	case Number:
		return strconv.FormatUint(uint64(t.Num), 10)
	case Call:
		return "@" + t.Value
	}
	return t.Type.String()
}
