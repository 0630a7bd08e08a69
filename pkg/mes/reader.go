package mes

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/go-restruct/restruct"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/yoremi/ai5dev-go/pkg/binarray"
	"github.com/yoremi/ai5dev-go/pkg/encoding"
)

// Decode failure kinds. Errors returned by Parse and the Reader are
// *DecodeError values wrapping one of these; test with errors.Is.
var (
	ErrMalformedOpcode     = errors.New("malformed opcode")
	ErrMalformedExpression = errors.New("malformed expression")
	ErrTruncated           = errors.New("truncated buffer")
)

// DecodeError locates a decode failure in the input.
type DecodeError struct {
	Offset  int    // offset of the byte that could not be read or decoded
	Address int    // address of the enclosing statement, -1 if unknown
	Op      StmtOp // kind of the enclosing statement, StmtInvalid if unknown
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Address < 0 {
		return fmt.Sprintf("%v (offset 0x%x)", e.Err, e.Offset)
	}
	if e.Op == StmtInvalid {
		return fmt.Sprintf("statement at 0x%08x: %v (offset 0x%x)", e.Address, e.Err, e.Offset)
	}
	return fmt.Sprintf("%s at 0x%08x: %v (offset 0x%x)", e.Op, e.Address, e.Err, e.Offset)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Reader reads MES bytecode sequentially from a buffer.
type Reader struct {
	buf *binarray.Buffer
	pos int
	tbl *OpcodeTable
}

// NewReader creates a reader positioned at the start of data.
func NewReader(data []byte, tbl *OpcodeTable) *Reader {
	return &Reader{buf: binarray.FromBytes(data), tbl: tbl}
}

// Pos returns the current read position.
func (r *Reader) Pos() int { return r.pos }

// AtEnd returns true if the reader has consumed the whole buffer.
func (r *Reader) AtEnd() bool { return r.pos >= r.buf.Len() }

func (r *Reader) errorAt(off int, kind error, format string, args ...interface{}) error {
	return &DecodeError{
		Offset:  off,
		Address: -1,
		Op:      StmtInvalid,
		Err:     errors.Wrapf(kind, format, args...),
	}
}

func (r *Reader) truncated(what string) error {
	return r.errorAt(r.pos, ErrTruncated, "%s runs past end of data", what)
}

// Next reads the next byte and advances.
func (r *Reader) Next() (byte, error) {
	b, err := r.buf.U8(r.pos)
	if err != nil {
		return 0, r.truncated("byte")
	}
	r.pos++
	return b, nil
}

// Peek returns the next byte without advancing.
func (r *Reader) Peek() (byte, error) {
	b, err := r.buf.U8(r.pos)
	if err != nil {
		return 0, r.truncated("byte")
	}
	return b, nil
}

// ReadUint16 reads a little-endian 16-bit unsigned integer.
func (r *Reader) ReadUint16() (uint16, error) {
	v, err := r.buf.U16(r.pos)
	if err != nil {
		return 0, r.truncated("uint16")
	}
	r.pos += 2
	return v, nil
}

// ReadUint32 reads a little-endian 32-bit unsigned integer.
func (r *Reader) ReadUint32() (uint32, error) {
	v, err := r.buf.U32(r.pos)
	if err != nil {
		return 0, r.truncated("uint32")
	}
	r.pos += 4
	return v, nil
}

// unpack decodes the n-byte operand block at the current position into v,
// a pointer to one of the operand structs below.
func (r *Reader) unpack(v interface{}, n int) error {
	data, err := r.buf.Slice(r.pos, n)
	if err != nil {
		return r.truncated(fmt.Sprintf("%d-byte operand", n))
	}
	if err := restruct.Unpack(data, binary.LittleEndian, v); err != nil {
		return r.errorAt(r.pos, ErrMalformedOpcode, "operand: %v", err)
	}
	r.pos += n
	return nil
}

// Fixed operand blocks.
type (
	varOperand  struct{ VarNo uint8 }
	regOperand  struct{ RegNo uint16 }
	addrOperand struct{ Addr uint32 }
	lineOperand struct{ Arg uint8 }
)

var (
	varOperandSize  = operandSize(varOperand{})
	regOperandSize  = operandSize(regOperand{})
	addrOperandSize = operandSize(addrOperand{})
	lineOperandSize = operandSize(lineOperand{})
)

func operandSize(v interface{}) int {
	n, err := restruct.SizeOf(v)
	if err != nil {
		panic(fmt.Sprintf("mes: bad operand layout %T: %v", v, err))
	}
	return n
}

// --- Expressions ---

// ReadExpression decodes one expression. Expressions are stored in postfix
// order and terminated by the END opcode; operators take their operands
// from the value stack, right-hand operand first.
func (r *Reader) ReadExpression() (*Expression, error) {
	var stack []*Expression

	for {
		start := r.pos
		b, err := r.Next()
		if err != nil {
			return nil, err
		}
		op, arg, ok := r.tbl.OpcodeToExpr(b)
		if !ok {
			return nil, r.errorAt(start, ErrMalformedOpcode, "invalid expression opcode 0x%02x", b)
		}

		pop := func() (*Expression, error) {
			if len(stack) == 0 {
				return nil, r.errorAt(start, ErrMalformedExpression, "%s: operand expected", op)
			}
			e := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			return e, nil
		}

		expr := &Expression{Op: op}
		switch op {
		case ExprEnd:
			if len(stack) != 1 {
				return nil, r.errorAt(start, ErrMalformedExpression,
					"terminator with %d values on the stack", len(stack))
			}
			return stack[0], nil
		case ExprImm, ExprVar:
			expr.Arg = uint32(arg)
		case ExprArray16Get16, ExprArray16Get8:
			expr.Arg = uint32(arg)
			if expr.SubA, err = pop(); err != nil {
				return nil, err
			}
		case ExprRand, ExprReg8:
			if expr.SubA, err = pop(); err != nil {
				return nil, err
			}
		case ExprImm16, ExprReg16:
			v, err := r.ReadUint16()
			if err != nil {
				return nil, err
			}
			expr.Arg = uint32(v)
		case ExprImm32:
			if expr.Arg, err = r.ReadUint32(); err != nil {
				return nil, err
			}
		case ExprArray32Get32, ExprArray32Get16, ExprArray32Get8:
			v, err := r.Next()
			if err != nil {
				return nil, err
			}
			expr.Arg = uint32(v)
			if expr.SubA, err = pop(); err != nil {
				return nil, err
			}
		case ExprVar32:
			v, err := r.Next()
			if err != nil {
				return nil, err
			}
			expr.Arg = uint32(v)
		default:
			if !op.IsBinary() {
				return nil, r.errorAt(start, ErrMalformedOpcode, "unhandled expression opcode %s", op)
			}
			if expr.SubA, err = pop(); err != nil {
				return nil, err
			}
			if expr.SubB, err = pop(); err != nil {
				return nil, err
			}
		}
		stack = append(stack, expr)
	}
}

// ReadExpressionList decodes a list of expressions. Each expression is
// followed by a continuation byte; zero ends the list.
func (r *Reader) ReadExpressionList() ([]*Expression, error) {
	var exprs []*Expression
	for {
		e, err := r.ReadExpression()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		more, err := r.Next()
		if err != nil {
			return nil, err
		}
		if more == 0 {
			return exprs, nil
		}
	}
}

// readSz reads a NUL-terminated string parameter.
func (r *Reader) readSz() ([]byte, error) {
	start := r.pos
	for {
		b, err := r.Next()
		if err != nil {
			return nil, r.errorAt(start, ErrTruncated, "unterminated string parameter")
		}
		if b == 0 {
			return r.buf.Data[start : r.pos-1], nil
		}
	}
}

// ReadParameterList decodes tagged parameters up to the zero tag.
func (r *Reader) ReadParameterList() ([]Parameter, error) {
	var params []Parameter
	for {
		start := r.pos
		tag, err := r.Next()
		if err != nil {
			return nil, err
		}
		switch ParamType(tag) {
		case 0:
			return params, nil
		case ParamString:
			s, err := r.readSz()
			if err != nil {
				return nil, err
			}
			params = append(params, Parameter{Type: ParamString, Str: s})
		case ParamExpression:
			e, err := r.ReadExpression()
			if err != nil {
				return nil, err
			}
			params = append(params, Parameter{Type: ParamExpression, Expr: e})
		default:
			return nil, r.errorAt(start, ErrMalformedExpression, "invalid parameter type 0x%02x", tag)
		}
	}
}

// readText reads a text literal body. Text ends at a NUL, which is
// consumed, or before the first byte that is not a character of the
// literal's kind.
func (r *Reader) readText(kind StmtOp) (text []byte, terminated bool, err error) {
	start := r.pos
	isChar := encoding.IsHankaku
	width := 1
	if kind == StmtTxt {
		isChar = encoding.IsZenkaku
		width = 2
	}
	for !r.AtEnd() {
		c := r.buf.Data[r.pos]
		if c == 0 {
			r.pos++
			return r.buf.Data[start : r.pos-1], true, nil
		}
		if !isChar(c) {
			break
		}
		if _, err := r.buf.Slice(r.pos, width); err != nil {
			return nil, false, r.truncated("double-byte character")
		}
		r.pos += width
	}
	return r.buf.Data[start:r.pos], false, nil
}

// --- Statements ---

// ReadStatement decodes the statement at the current position. The
// returned statement's header is left zero; Parse fills it in.
func (r *Reader) ReadStatement() (Statement, error) {
	start := r.pos
	b, err := r.Peek()
	if err != nil {
		return nil, err
	}

	op, ok := r.tbl.OpcodeToStmt(b)
	if !ok {
		// text without an opcode byte
		switch {
		case encoding.IsZenkaku(b):
			return r.readTextStmt(StmtTxt, true)
		case encoding.IsHankaku(b):
			return r.readTextStmt(StmtStr, true)
		}
		return nil, r.errorAt(start, ErrMalformedOpcode, "invalid statement opcode 0x%02x", b)
	}
	r.pos++

	switch op {
	case StmtEnd:
		return &EndStmt{}, nil
	case StmtMenuS:
		return &MenuSStmt{}, nil

	case StmtTxt, StmtStr:
		return r.readTextStmt(op, false)

	case StmtSetRBC:
		var reg regOperand
		if err := r.unpack(&reg, regOperandSize); err != nil {
			return nil, err
		}
		exprs, err := r.ReadExpressionList()
		if err != nil {
			return nil, err
		}
		return &SetRBCStmt{RegNo: reg.RegNo, Exprs: exprs}, nil

	case StmtSetV:
		var v varOperand
		if err := r.unpack(&v, varOperandSize); err != nil {
			return nil, err
		}
		exprs, err := r.ReadExpressionList()
		if err != nil {
			return nil, err
		}
		return &SetVStmt{VarNo: v.VarNo, Exprs: exprs}, nil

	case StmtSetRBE:
		reg, err := r.ReadExpression()
		if err != nil {
			return nil, err
		}
		vals, err := r.ReadExpressionList()
		if err != nil {
			return nil, err
		}
		return &SetRBEStmt{RegExpr: reg, ValExprs: vals}, nil

	case StmtSetAC, StmtSetAAt, StmtSetAD, StmtSetAW, StmtSetAB:
		var v varOperand
		if err := r.unpack(&v, varOperandSize); err != nil {
			return nil, err
		}
		off, err := r.ReadExpression()
		if err != nil {
			return nil, err
		}
		vals, err := r.ReadExpressionList()
		if err != nil {
			return nil, err
		}
		return &SetArrayStmt{Kind: op, VarNo: v.VarNo, OffExpr: off, ValExprs: vals}, nil

	case StmtJz:
		e, err := r.ReadExpression()
		if err != nil {
			return nil, err
		}
		var a addrOperand
		if err := r.unpack(&a, addrOperandSize); err != nil {
			return nil, err
		}
		return &JzStmt{Addr: a.Addr, Expr: e}, nil

	case StmtJmp:
		var a addrOperand
		if err := r.unpack(&a, addrOperandSize); err != nil {
			return nil, err
		}
		return &JmpStmt{Addr: a.Addr}, nil

	case StmtSys:
		e, err := r.ReadExpression()
		if err != nil {
			return nil, err
		}
		params, err := r.ReadParameterList()
		if err != nil {
			return nil, err
		}
		return &SysStmt{Expr: e, Params: params}, nil

	case StmtGoto, StmtCall, StmtProc, StmtUtil:
		params, err := r.ReadParameterList()
		if err != nil {
			return nil, err
		}
		return &ParamStmt{Kind: op, Params: params}, nil

	case StmtMenuI:
		params, err := r.ReadParameterList()
		if err != nil {
			return nil, err
		}
		var a addrOperand
		if err := r.unpack(&a, addrOperandSize); err != nil {
			return nil, err
		}
		return &MenuIStmt{Addr: a.Addr, Params: params}, nil

	case StmtLine:
		var l lineOperand
		if err := r.unpack(&l, lineOperandSize); err != nil {
			return nil, err
		}
		return &LineStmt{Arg: l.Arg}, nil

	case StmtProcD:
		e, err := r.ReadExpression()
		if err != nil {
			return nil, err
		}
		var a addrOperand
		if err := r.unpack(&a, addrOperandSize); err != nil {
			return nil, err
		}
		return &ProcDStmt{SkipAddr: a.Addr, NoExpr: e}, nil

	case StmtSetRD:
		var v varOperand
		if err := r.unpack(&v, varOperandSize); err != nil {
			return nil, err
		}
		vals, err := r.ReadExpressionList()
		if err != nil {
			return nil, err
		}
		return &SetRDStmt{VarNo: v.VarNo, ValExprs: vals}, nil
	}

	return nil, r.errorAt(start, ErrMalformedOpcode, "unhandled statement opcode %s", op)
}

func (r *Reader) readTextStmt(kind StmtOp, unprefixed bool) (Statement, error) {
	text, terminated, err := r.readText(kind)
	if err != nil {
		return nil, err
	}
	return &TextStmt{Kind: kind, Text: text, Terminated: terminated, Unprefixed: unprefixed}, nil
}

// --- Main decode loop ---

// Parse decodes a whole MES buffer. On failure no partial result is
// returned; the error is a *DecodeError locating the bad input.
func Parse(data []byte, tbl *OpcodeTable) (*Program, error) {
	if tbl == nil {
		return nil, errors.WithStack(ErrNoGame)
	}

	r := NewReader(data, tbl)
	var stmts []Statement
	pending := make(map[uint32]struct{})

	for !r.AtEnd() {
		addr := r.Pos()
		s, err := r.ReadStatement()
		if err != nil {
			var de *DecodeError
			if errors.As(err, &de) {
				de.Address = addr
				if op, ok := tbl.OpcodeToStmt(data[addr]); ok {
					de.Op = op
				}
			}
			glog.V(1).Infof("mes: decode of %s data failed: %v", tbl.Name(), err)
			return nil, err
		}
		s.Header().Address = uint32(addr)
		if t, ok := Target(s); ok {
			pending[t] = struct{}{}
		}
		if glog.V(2) {
			glog.Infof("mes: 0x%08x %s (%d bytes)", addr, s.Op(), r.Pos()-addr)
		}
		stmts = append(stmts, s)
	}

	for i, s := range stmts {
		h := s.Header()
		if i+1 < len(stmts) {
			h.NextAddress = stmts[i+1].Header().Address
		} else {
			h.NextAddress = uint32(len(data))
		}
	}

	prog := &Program{Statements: stmts}
	for t := range pending {
		prog.Targets = append(prog.Targets, t)
	}
	sort.Slice(prog.Targets, func(i, j int) bool { return prog.Targets[i] < prog.Targets[j] })
	for _, t := range prog.Targets {
		if s, ok := prog.StatementAt(t); ok {
			s.Header().IsJumpTarget = true
			continue
		}
		prog.Dangling = append(prog.Dangling, t)
		glog.V(1).Infof("mes: jump target 0x%08x does not start a statement", t)
	}
	return prog, nil
}
