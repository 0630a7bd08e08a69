package mes

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/yoremi/ai5dev-go/pkg/gamedef"
)

// ErrNoGame is returned when decoding is attempted without an opcode table.
var ErrNoGame = errors.New("no game selected")

// Range is a compact-immediate opcode family: the bytes Base through
// Base+Count-1 all decode to Op, with the operand equal to the byte's
// offset from Base.
type Range struct {
	Op    ExprOp
	Base  byte
	Count int
}

// Layout is the physical opcode assignment of one engine generation.
type Layout struct {
	Name        string
	Statements  map[StmtOp]byte
	Expressions map[ExprOp]byte
	Ranges      []Range
}

var classicExprs = map[ExprOp]byte{
	ExprPlus: 0xE0, ExprMinus: 0xE1, ExprMul: 0xE2, ExprDiv: 0xE3,
	ExprMod: 0xE4, ExprRand: 0xE5, ExprAnd: 0xE6, ExprOr: 0xE7,
	ExprBitAnd: 0xE8, ExprBitIOr: 0xE9, ExprBitXor: 0xEA, ExprLt: 0xEB,
	ExprGt: 0xEC, ExprLte: 0xED, ExprGte: 0xEE, ExprEq: 0xEF,
	ExprNeq: 0xF0, ExprImm16: 0xF1, ExprImm32: 0xF2, ExprReg16: 0xF3,
	ExprReg8: 0xF4, ExprArray32Get32: 0xF5, ExprArray32Get16: 0xF6,
	ExprArray32Get8: 0xF7, ExprVar32: 0xF8, ExprEnd: 0xFF,
}

var classicRanges = []Range{
	{ExprImm, 0x00, 0x80},
	{ExprVar, 0x80, 0x20},
	{ExprArray16Get16, 0xA0, 0x20},
	{ExprArray16Get8, 0xC0, 0x20},
}

// LayoutAI5 is the layout of the classic engine.
var LayoutAI5 = Layout{
	Name: "AI5",
	Statements: map[StmtOp]byte{
		StmtEnd: 0x00, StmtTxt: 0x01, StmtStr: 0x02, StmtSetRBC: 0x03,
		StmtSetV: 0x04, StmtSetRBE: 0x05, StmtSetAC: 0x06, StmtSetAAt: 0x07,
		StmtSetAD: 0x08, StmtSetAW: 0x09, StmtSetAB: 0x0A, StmtJz: 0x0B,
		StmtJmp: 0x0C, StmtSys: 0x0D, StmtGoto: 0x0E, StmtCall: 0x0F,
		StmtMenuI: 0x10, StmtProc: 0x11, StmtUtil: 0x12, StmtLine: 0x13,
		StmtProcD: 0x14, StmtMenuS: 0x15, StmtSetRD: 0x16,
	},
	Expressions: classicExprs,
	Ranges:      classicRanges,
}

// LayoutAI5WIN is the layout of AI5WIN titles: SETRD sits with the other
// assignments and the control statements move up by one.
var LayoutAI5WIN = Layout{
	Name: "AI5WIN",
	Statements: map[StmtOp]byte{
		StmtEnd: 0x00, StmtTxt: 0x01, StmtStr: 0x02, StmtSetRBC: 0x03,
		StmtSetV: 0x04, StmtSetRBE: 0x05, StmtSetAC: 0x06, StmtSetAAt: 0x07,
		StmtSetAD: 0x08, StmtSetAW: 0x09, StmtSetAB: 0x0A, StmtSetRD: 0x0B,
		StmtJz: 0x0C, StmtJmp: 0x0D, StmtSys: 0x0E, StmtGoto: 0x0F,
		StmtCall: 0x10, StmtMenuI: 0x11, StmtProc: 0x12, StmtUtil: 0x13,
		StmtLine: 0x14, StmtProcD: 0x15, StmtMenuS: 0x16,
	},
	Expressions: classicExprs,
	Ranges:      classicRanges,
}

type exprEntry struct {
	op   ExprOp
	base byte
	ok   bool
}

// OpcodeTable maps between virtual and physical opcodes for one title. It is
// immutable once built and safe for concurrent use.
type OpcodeTable struct {
	name       string
	layout     Layout
	stmtToByte [numStmtOps]int16 // -1 = unmapped
	byteToStmt [256]StmtOp
	exprToByte map[ExprOp]byte
	byteToExpr [256]exprEntry
}

// NewOpcodeTable validates a layout and builds its lookup tables. Every
// physical byte may be claimed by at most one opcode, and the expression
// terminator must be mapped.
func NewOpcodeTable(l Layout) (*OpcodeTable, error) {
	t := &OpcodeTable{
		name:       l.Name,
		layout:     l,
		exprToByte: make(map[ExprOp]byte, len(l.Expressions)+len(l.Ranges)),
	}
	for i := range t.stmtToByte {
		t.stmtToByte[i] = -1
	}
	for i := range t.byteToStmt {
		t.byteToStmt[i] = StmtInvalid
	}

	// map iteration order would make collision errors nondeterministic
	stmts := make([]StmtOp, 0, len(l.Statements))
	for op := range l.Statements {
		stmts = append(stmts, op)
	}
	sort.Slice(stmts, func(i, j int) bool { return stmts[i] < stmts[j] })
	for _, op := range stmts {
		b := l.Statements[op]
		if op >= numStmtOps {
			return nil, errors.Errorf("layout %s: invalid statement opcode %d", l.Name, op)
		}
		if prev := t.byteToStmt[b]; prev != StmtInvalid {
			return nil, errors.Errorf("layout %s: byte 0x%02x claimed by both %s and %s", l.Name, b, prev, op)
		}
		t.byteToStmt[b] = op
		t.stmtToByte[op] = int16(b)
	}

	claim := func(b byte, e exprEntry) error {
		if prev := t.byteToExpr[b]; prev.ok {
			return errors.Errorf("layout %s: byte 0x%02x claimed by both %s and %s", l.Name, b, prev.op, e.op)
		}
		t.byteToExpr[b] = e
		return nil
	}
	for _, r := range l.Ranges {
		if r.Count <= 0 || int(r.Base)+r.Count > 256 {
			return nil, errors.Errorf("layout %s: bad range for %s", l.Name, r.Op)
		}
		for i := 0; i < r.Count; i++ {
			if err := claim(r.Base+byte(i), exprEntry{op: r.Op, base: r.Base, ok: true}); err != nil {
				return nil, err
			}
		}
		t.exprToByte[r.Op] = r.Base
	}
	exprs := make([]ExprOp, 0, len(l.Expressions))
	for op := range l.Expressions {
		exprs = append(exprs, op)
	}
	sort.Slice(exprs, func(i, j int) bool { return exprs[i] < exprs[j] })
	for _, op := range exprs {
		b := l.Expressions[op]
		if err := claim(b, exprEntry{op: op, base: b, ok: true}); err != nil {
			return nil, err
		}
		t.exprToByte[op] = b
	}
	if _, ok := t.exprToByte[ExprEnd]; !ok {
		return nil, errors.Errorf("layout %s: no expression terminator", l.Name)
	}
	return t, nil
}

// TableFor returns the opcode table for a catalogued title.
func TableFor(id gamedef.GameID) (*OpcodeTable, error) {
	def, ok := gamedef.Lookup(id)
	if !ok {
		return nil, errors.Wrapf(ErrNoGame, "unknown game id %d", int(id))
	}
	l := LayoutAI5
	if def.Engine == gamedef.EngineAI5WIN {
		l = LayoutAI5WIN
	}
	l.Name = def.Name
	return NewOpcodeTable(l)
}

// WithStatements returns a new table whose statement assignments are
// overridden by the given map.
func (t *OpcodeTable) WithStatements(overrides map[StmtOp]byte) (*OpcodeTable, error) {
	l := t.Layout()
	for op, b := range overrides {
		l.Statements[op] = b
	}
	return NewOpcodeTable(l)
}

// Name returns the name of the title or layout the table was built for.
func (t *OpcodeTable) Name() string { return t.name }

// Layout returns a copy of the table's layout.
func (t *OpcodeTable) Layout() Layout {
	l := Layout{
		Name:        t.layout.Name,
		Statements:  make(map[StmtOp]byte, len(t.layout.Statements)),
		Expressions: make(map[ExprOp]byte, len(t.layout.Expressions)),
		Ranges:      append([]Range(nil), t.layout.Ranges...),
	}
	for k, v := range t.layout.Statements {
		l.Statements[k] = v
	}
	for k, v := range t.layout.Expressions {
		l.Expressions[k] = v
	}
	return l
}

// StmtOpcode returns the physical byte for a virtual statement opcode.
func (t *OpcodeTable) StmtOpcode(op StmtOp) (byte, bool) {
	if op >= numStmtOps || t.stmtToByte[op] < 0 {
		return 0, false
	}
	return byte(t.stmtToByte[op]), true
}

// OpcodeToStmt returns the virtual statement opcode for a physical byte.
func (t *OpcodeTable) OpcodeToStmt(b byte) (StmtOp, bool) {
	op := t.byteToStmt[b]
	return op, op != StmtInvalid
}

// ExprOpcode returns the physical byte for a virtual expression opcode. For
// compact-immediate families this is the range base.
func (t *OpcodeTable) ExprOpcode(op ExprOp) (byte, bool) {
	b, ok := t.exprToByte[op]
	return b, ok
}

// OpcodeToExpr returns the virtual expression opcode for a physical byte,
// along with the operand folded into the byte for compact-immediate
// families (zero otherwise).
func (t *OpcodeTable) OpcodeToExpr(b byte) (ExprOp, uint8, bool) {
	e := t.byteToExpr[b]
	if !e.ok {
		return ExprEnd, 0, false
	}
	return e.op, b - e.base, true
}
