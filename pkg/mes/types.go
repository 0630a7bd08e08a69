// Package mes decodes AI5 MES script bytecode and renders it as an assembly
// listing or as pseudocode.
//
// The opcode values used throughout this package are virtual: they do not
// correspond to the bytes of any particular title. Decoding goes through an
// OpcodeTable selected for the target title, which maps physical bytes to
// virtual opcodes.
package mes

import (
	"fmt"
	"strings"
)

// AddressSynthetic marks a statement or target that has no real source
// address.
const AddressSynthetic uint32 = 0xFFFFFFFF

// --- Statement opcodes ---

// StmtOp is a virtual statement opcode.
type StmtOp uint8

const (
	StmtEnd    StmtOp = 0x00
	StmtTxt    StmtOp = 0x01
	StmtStr    StmtOp = 0x02
	StmtSetRBC StmtOp = 0x03
	StmtSetV   StmtOp = 0x04
	StmtSetRBE StmtOp = 0x05
	StmtSetAC  StmtOp = 0x06
	StmtSetAAt StmtOp = 0x07
	StmtSetAD  StmtOp = 0x08
	StmtSetAW  StmtOp = 0x09
	StmtSetAB  StmtOp = 0x0A
	StmtJz     StmtOp = 0x0B
	StmtJmp    StmtOp = 0x0C
	StmtSys    StmtOp = 0x0D
	StmtGoto   StmtOp = 0x0E
	StmtCall   StmtOp = 0x0F
	StmtMenuI  StmtOp = 0x10
	StmtProc   StmtOp = 0x11
	StmtUtil   StmtOp = 0x12
	StmtLine   StmtOp = 0x13
	StmtProcD  StmtOp = 0x14
	StmtMenuS  StmtOp = 0x15
	StmtSetRD  StmtOp = 0x16

	numStmtOps = 0x17

	StmtInvalid StmtOp = 0xFF
)

var stmtMnemonics = [numStmtOps]string{
	"END", "TXT", "STR", "SETRBC", "SETV", "SETRBE", "SETAC", "SETA@",
	"SETAD", "SETAW", "SETAB", "JZ", "JMP", "SYS", "GOTO", "CALL",
	"MENUI", "PROC", "UTIL", "LINE", "PROCD", "MENUS", "SETRD",
}

// String returns the assembly mnemonic.
func (op StmtOp) String() string {
	if op < numStmtOps {
		return stmtMnemonics[op]
	}
	return fmt.Sprintf("STMT_%02X", uint8(op))
}

// ParseStmtOp resolves an assembly mnemonic (case-insensitive).
func ParseStmtOp(name string) (StmtOp, bool) {
	for i, m := range stmtMnemonics {
		if strings.EqualFold(m, name) {
			return StmtOp(i), true
		}
	}
	return StmtInvalid, false
}

// --- Expression opcodes ---

// ExprOp is a virtual expression opcode.
type ExprOp uint8

const (
	ExprImm          ExprOp = 0x00 // compact immediate, not a real opcode
	ExprVar          ExprOp = 0x80
	ExprArray16Get16 ExprOp = 0xA0
	ExprArray16Get8  ExprOp = 0xC0
	ExprPlus         ExprOp = 0xE0
	ExprMinus        ExprOp = 0xE1
	ExprMul          ExprOp = 0xE2
	ExprDiv          ExprOp = 0xE3
	ExprMod          ExprOp = 0xE4
	ExprRand         ExprOp = 0xE5
	ExprAnd          ExprOp = 0xE6
	ExprOr           ExprOp = 0xE7
	ExprBitAnd       ExprOp = 0xE8
	ExprBitIOr       ExprOp = 0xE9
	ExprBitXor       ExprOp = 0xEA
	ExprLt           ExprOp = 0xEB
	ExprGt           ExprOp = 0xEC
	ExprLte          ExprOp = 0xED
	ExprGte          ExprOp = 0xEE
	ExprEq           ExprOp = 0xEF
	ExprNeq          ExprOp = 0xF0
	ExprImm16        ExprOp = 0xF1
	ExprImm32        ExprOp = 0xF2
	ExprReg16        ExprOp = 0xF3 // 16-bit index
	ExprReg8         ExprOp = 0xF4 // index given by expression
	ExprArray32Get32 ExprOp = 0xF5
	ExprArray32Get16 ExprOp = 0xF6
	ExprArray32Get8  ExprOp = 0xF7
	ExprVar32        ExprOp = 0xF8
	ExprEnd          ExprOp = 0xFF
)

var exprNames = [256]string{
	ExprImm: "IMM", ExprVar: "VAR", ExprArray16Get16: "ARRAY16_GET16",
	ExprArray16Get8: "ARRAY16_GET8", ExprPlus: "PLUS", ExprMinus: "MINUS",
	ExprMul: "MUL", ExprDiv: "DIV", ExprMod: "MOD", ExprRand: "RAND",
	ExprAnd: "AND", ExprOr: "OR", ExprBitAnd: "BITAND", ExprBitIOr: "BITIOR",
	ExprBitXor: "BITXOR", ExprLt: "LT", ExprGt: "GT", ExprLte: "LTE",
	ExprGte: "GTE", ExprEq: "EQ", ExprNeq: "NEQ", ExprImm16: "IMM16",
	ExprImm32: "IMM32", ExprReg16: "REG16", ExprReg8: "REG8",
	ExprArray32Get32: "ARRAY32_GET32", ExprArray32Get16: "ARRAY32_GET16",
	ExprArray32Get8: "ARRAY32_GET8", ExprVar32: "VAR32", ExprEnd: "END",
}

func (op ExprOp) String() string {
	if s := exprNames[op]; s != "" {
		return s
	}
	return fmt.Sprintf("EXPR_%02X", uint8(op))
}

// ParseExprOp resolves an expression opcode name (case-insensitive).
func ParseExprOp(name string) (ExprOp, bool) {
	for i, s := range exprNames {
		if s != "" && strings.EqualFold(s, name) {
			return ExprOp(i), true
		}
	}
	return ExprEnd, false
}

// IsBinary reports whether op takes two operands.
func (op ExprOp) IsBinary() bool {
	switch op {
	case ExprPlus, ExprMinus, ExprMul, ExprDiv, ExprMod,
		ExprAnd, ExprOr, ExprBitAnd, ExprBitIOr, ExprBitXor,
		ExprLt, ExprGt, ExprLte, ExprGte, ExprEq, ExprNeq:
		return true
	}
	return false
}

// --- Expressions and parameters ---

// Expression is a node of an expression tree. Arg holds the immediate value
// or index; its width is implied by Op. For unary nodes SubA is the operand.
// For binary nodes SubA is the right-hand operand and SubB the left-hand
// one, matching the order in which the stack encoding yields them.
type Expression struct {
	Op   ExprOp
	Arg  uint32
	SubA *Expression
	SubB *Expression
}

// ParamType tags a call parameter.
type ParamType uint8

const (
	ParamString     ParamType = 1
	ParamExpression ParamType = 2
)

// Parameter is an argument of a call-like statement.
type Parameter struct {
	Type ParamType
	Str  []byte // raw Shift_JIS bytes, without terminator
	Expr *Expression
}

// --- Statements ---

// StmtHeader carries the bookkeeping common to every statement.
type StmtHeader struct {
	Address      uint32
	NextAddress  uint32
	IsJumpTarget bool
}

// Header returns the statement's bookkeeping fields.
func (h *StmtHeader) Header() *StmtHeader { return h }

// Statement is one decoded MES statement. The concrete types are the *Stmt
// structs in this file.
type Statement interface {
	Op() StmtOp
	Header() *StmtHeader
}

// EndStmt ends the current procedure or file.
type EndStmt struct{ StmtHeader }

// TextStmt is a text literal: TXT for double-byte text, STR for single-byte.
type TextStmt struct {
	StmtHeader
	Kind       StmtOp // StmtTxt or StmtStr
	Text       []byte
	Terminated bool // ended by a NUL rather than by a foreign byte or EOF
	Unprefixed bool // no opcode byte preceded the text
}

// SetRBCStmt assigns to a bit register with a constant index.
type SetRBCStmt struct {
	StmtHeader
	RegNo uint16
	Exprs []*Expression
}

// SetVStmt assigns to a 16-bit variable.
type SetVStmt struct {
	StmtHeader
	VarNo uint8
	Exprs []*Expression
}

// SetRBEStmt assigns to a bit register with a computed index.
type SetRBEStmt struct {
	StmtHeader
	RegExpr  *Expression
	ValExprs []*Expression
}

// SetArrayStmt is one of the indexed stores SETAC, SETA@, SETAD, SETAW and
// SETAB, which share a payload layout.
type SetArrayStmt struct {
	StmtHeader
	Kind     StmtOp
	VarNo    uint8
	OffExpr  *Expression
	ValExprs []*Expression
}

// JzStmt jumps to Addr when Expr evaluates to zero.
type JzStmt struct {
	StmtHeader
	Addr uint32
	Expr *Expression
}

// JmpStmt jumps unconditionally.
type JmpStmt struct {
	StmtHeader
	Addr uint32
}

// SysStmt invokes a numbered system call.
type SysStmt struct {
	StmtHeader
	Expr   *Expression
	Params []Parameter
}

// ParamStmt covers the parameter-list-only statements GOTO, CALL, PROC and
// UTIL.
type ParamStmt struct {
	StmtHeader
	Kind   StmtOp
	Params []Parameter
}

// MenuIStmt defines a menu entry whose body ends at Addr.
type MenuIStmt struct {
	StmtHeader
	Addr   uint32
	Params []Parameter
}

// LineStmt is a source line marker.
type LineStmt struct {
	StmtHeader
	Arg uint8
}

// ProcDStmt defines a procedure; SkipAddr is the address past its body.
type ProcDStmt struct {
	StmtHeader
	SkipAddr uint32
	NoExpr   *Expression
}

// MenuSStmt executes the current menu.
type MenuSStmt struct{ StmtHeader }

// SetRDStmt assigns to a 32-bit variable.
type SetRDStmt struct {
	StmtHeader
	VarNo    uint8
	ValExprs []*Expression
}

func (*EndStmt) Op() StmtOp        { return StmtEnd }
func (s *TextStmt) Op() StmtOp     { return s.Kind }
func (*SetRBCStmt) Op() StmtOp     { return StmtSetRBC }
func (*SetVStmt) Op() StmtOp       { return StmtSetV }
func (*SetRBEStmt) Op() StmtOp     { return StmtSetRBE }
func (s *SetArrayStmt) Op() StmtOp { return s.Kind }
func (*JzStmt) Op() StmtOp         { return StmtJz }
func (*JmpStmt) Op() StmtOp        { return StmtJmp }
func (*SysStmt) Op() StmtOp        { return StmtSys }
func (s *ParamStmt) Op() StmtOp    { return s.Kind }
func (*MenuIStmt) Op() StmtOp      { return StmtMenuI }
func (*LineStmt) Op() StmtOp       { return StmtLine }
func (*ProcDStmt) Op() StmtOp      { return StmtProcD }
func (*MenuSStmt) Op() StmtOp      { return StmtMenuS }
func (*SetRDStmt) Op() StmtOp      { return StmtSetRD }

// Target returns the intra-file control transfer target of s, if it has
// one.
func Target(s Statement) (uint32, bool) {
	switch v := s.(type) {
	case *JzStmt:
		return v.Addr, true
	case *JmpStmt:
		return v.Addr, true
	case *MenuIStmt:
		return v.Addr, true
	case *ProcDStmt:
		return v.SkipAddr, true
	}
	return 0, false
}

// --- Program ---

// Program is the decoded statement sequence of one buffer.
type Program struct {
	Statements []Statement // decode order, ascending address
	Targets    []uint32    // distinct control transfer targets, ascending
	Dangling   []uint32    // targets that match no decoded statement, ascending
}

// StatementAt returns the statement decoded at addr.
func (p *Program) StatementAt(addr uint32) (Statement, bool) {
	lo, hi := 0, len(p.Statements)
	for lo < hi {
		mid := (lo + hi) / 2
		a := p.Statements[mid].Header().Address
		switch {
		case a == addr:
			return p.Statements[mid], true
		case a < addr:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return nil, false
}
