// Package ast defines the MiniC abstract syntax tree delivered by the
// parser and consumed by IR lowering. Nodes are a uniform tree: an opcode
// from a closed set, ordered children, and leaf payloads.
package ast

// Op identifies the kind of an AST node
type Op int

const (
	CompileUnit Op = iota
	FuncDef
	FuncFormalParams
	FuncFormalParam
	FuncCall
	FuncRealParams
	Block
	DeclStmt
	VarDecl
	ArrayDef
	ArrayAccess
	Assign
	Return
	If
	IfElse
	While
	Break
	Continue
	Add
	Sub
	Mul
	Div
	Mod
	Neg
	Lt
	Le
	Gt
	Ge
	Eq
	Ne
	LogicalAnd
	LogicalOr
	LogicalNot
	LeafVarID
	LeafLiteralUint
	LeafType
)

var opNames = map[Op]string{
	CompileUnit:      "compile-unit",
	FuncDef:          "func-def",
	FuncFormalParams: "formal-params",
	FuncFormalParam:  "formal-param",
	FuncCall:         "call",
	FuncRealParams:   "real-params",
	Block:            "block",
	DeclStmt:         "decl-stmt",
	VarDecl:          "var-decl",
	ArrayDef:         "array-def",
	ArrayAccess:      "array-access",
	Assign:           "assign",
	Return:           "return",
	If:               "if",
	IfElse:           "if-else",
	While:            "while",
	Break:            "break",
	Continue:         "continue",
	Add:              "add",
	Sub:              "sub",
	Mul:              "mul",
	Div:              "div",
	Mod:              "mod",
	Neg:              "neg",
	Lt:               "lt",
	Le:               "le",
	Gt:               "gt",
	Ge:               "ge",
	Eq:               "eq",
	Ne:               "ne",
	LogicalAnd:       "and",
	LogicalOr:        "or",
	LogicalNot:       "not",
	LeafVarID:        "id",
	LeafLiteralUint:  "literal",
	LeafType:         "type",
}

func (op Op) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return "op?"
}

// BasicType is the primitive type tag carried by LeafType nodes
type BasicType int

const (
	TypeInt BasicType = iota
	TypeVoid
)

func (t BasicType) String() string {
	if t == TypeVoid {
		return "void"
	}
	return "int"
}

// Node is a node of the MiniC AST. Leaf payloads are populated only for
// the corresponding leaf opcodes.
type Node struct {
	Op       Op
	Children []*Node

	Name  string    // LeafVarID
	Value int64     // LeafLiteralUint
	Radix int       // LeafLiteralUint: 10, 8 or 16
	Type  BasicType // LeafType

	Line int // source line, 1-based
}

// New creates an interior node with the given children
func New(op Op, line int, children ...*Node) *Node {
	return &Node{Op: op, Line: line, Children: children}
}

// NewIdent creates an identifier leaf
func NewIdent(name string, line int) *Node {
	return &Node{Op: LeafVarID, Name: name, Line: line}
}

// NewLiteral creates an integer literal leaf
func NewLiteral(value int64, radix int, line int) *Node {
	return &Node{Op: LeafLiteralUint, Value: value, Radix: radix, Line: line}
}

// NewType creates a primitive type leaf
func NewType(t BasicType, line int) *Node {
	return &Node{Op: LeafType, Type: t, Line: line}
}

// Add appends children and returns the node
func (n *Node) Add(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}
