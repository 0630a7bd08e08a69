package mes

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/yoremi/ai5dev-go/pkg/encoding"
)

// Mode selects a statement list rendering.
type Mode int

const (
	ModePlain Mode = iota // pseudocode without labels
	ModeFlat              // pseudocode with jump target labels
	ModeAsm               // assembly mnemonics with jump target labels
)

func (m Mode) String() string {
	switch m {
	case ModePlain:
		return "plain"
	case ModeFlat:
		return "flat"
	case ModeAsm:
		return "asm"
	default:
		return "[unknown]"
	}
}

// ParseMode resolves a mode name.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(name) {
	case "plain", "print":
		return ModePlain, nil
	case "flat", "":
		return ModeFlat, nil
	case "asm":
		return ModeAsm, nil
	}
	return ModeFlat, errors.Errorf("unknown output mode: %q", name)
}

// PrintOptions controls text rendering.
type PrintOptions struct {
	Encoding encoding.Type // conversion applied to text literals
	Syscalls SyscallTable  // nil means DefaultSyscalls
}

// Printer renders decoded MES to a writer. Output is buffered; write errors
// are sticky and reported by Flush.
type Printer struct {
	w    *bufio.Writer
	opts PrintOptions
}

// NewPrinter creates a printer writing to w.
func NewPrinter(w io.Writer, opts PrintOptions) *Printer {
	if opts.Syscalls == nil {
		opts.Syscalls = DefaultSyscalls
	}
	return &Printer{w: bufio.NewWriter(w), opts: opts}
}

// Flush writes any buffered output.
func (p *Printer) Flush() error {
	return p.w.Flush()
}

func (p *Printer) puts(s string)                            { p.w.WriteString(s) }
func (p *Printer) putc(c byte)                              { p.w.WriteByte(c) }
func (p *Printer) printf(format string, args ...interface{}) { fmt.Fprintf(p.w, format, args...) }

func (p *Printer) indent(n int) {
	for i := 0; i < n; i++ {
		p.putc('\t')
	}
}

// --- Expressions ---

func binaryOpString(op ExprOp) string {
	switch op {
	case ExprPlus:
		return "+"
	case ExprMinus:
		return "-"
	case ExprMul:
		return "*"
	case ExprDiv:
		return "/"
	case ExprMod:
		return "%"
	case ExprAnd:
		return "&&"
	case ExprOr:
		return "||"
	case ExprBitAnd:
		return "&"
	case ExprBitIOr:
		return "|"
	case ExprBitXor:
		return "^"
	case ExprLt:
		return "<"
	case ExprGt:
		return ">"
	case ExprLte:
		return "<="
	case ExprGte:
		return ">="
	case ExprEq:
		return "=="
	case ExprNeq:
		return "!="
	}
	panic(fmt.Sprintf("mes: invalid binary operator: %s", op))
}

func isMultiplicative(op ExprOp) bool {
	return op == ExprMul || op == ExprDiv || op == ExprMod
}

func isArithmetic(op ExprOp) bool {
	return isMultiplicative(op) || op == ExprPlus || op == ExprMinus
}

// parensRequired reports whether sub must be parenthesized as an operand of
// the binary operator op.
func parensRequired(op ExprOp, sub *Expression) bool {
	if !sub.Op.IsBinary() {
		return false
	}
	switch op {
	case ExprMul, ExprDiv, ExprMod:
		return true
	case ExprPlus, ExprMinus:
		return !isMultiplicative(sub.Op)
	case ExprLt, ExprGt, ExprLte, ExprGte, ExprEq, ExprNeq:
		return !isArithmetic(sub.Op)
	case ExprBitAnd, ExprBitIOr, ExprBitXor:
		return true
	case ExprAnd, ExprOr:
		return sub.Op == ExprAnd || sub.Op == ExprOr
	}
	panic(fmt.Sprintf("mes: invalid binary operator: %s", op))
}

// FormatNumber renders an immediate. Small values are decimal; values that
// look like masks (low byte clear, 2^n, 2^n-1) are hexadecimal; anything
// else is hexadecimal only in a bitwise context.
func FormatNumber(n uint32, bitwise bool) string {
	hex := bitwise
	switch {
	case n < 255:
		hex = false
	case n&0xff == 0:
		hex = true
	case n&(n-1) == 0 || (n+1)&n == 0:
		hex = true
	}
	if hex {
		return fmt.Sprintf("0x%x", n)
	}
	return fmt.Sprintf("%d", n)
}

func (p *Printer) binary(e *Expression, bitwise bool) {
	// SubB is the left-hand operand
	p.operand(e.Op, e.SubB, bitwise)
	p.printf(" %s ", binaryOpString(e.Op))
	p.operand(e.Op, e.SubA, bitwise)
}

func (p *Printer) operand(op ExprOp, sub *Expression, bitwise bool) {
	if parensRequired(op, sub) {
		p.putc('(')
		p.expr(sub, bitwise)
		p.putc(')')
		return
	}
	p.expr(sub, bitwise)
}

// systemVar renders a read or write of a system variable table. base is
// the array number; zero selects the system table itself.
func (p *Printer) systemVar(names *[NumSystemVariables]string, sysName, arrName, elem string, base uint32, index *Expression) {
	if base == 0 && index.Op == ExprImm {
		if name, ok := systemVarName(names, index.Arg); ok {
			p.printf("System.%s", name)
			return
		}
	}
	if base == 0 {
		p.printf("System.%s[", sysName)
	} else {
		p.printf("%s[%d]->%s[", arrName, int(base)-1, elem)
	}
	p.PrintExpression(index)
	p.putc(']')
}

func (p *Printer) expr(e *Expression, bitwise bool) {
	switch e.Op {
	case ExprImm, ExprImm16, ExprImm32:
		p.puts(FormatNumber(e.Arg, bitwise))
	case ExprVar:
		p.printf("var16[%d]", e.Arg)
	case ExprArray16Get16:
		p.systemVar(&SystemVar16Names, "var16", "var16", "word", e.Arg, e.SubA)
	case ExprArray16Get8:
		p.printf("var16[%d]->byte[", e.Arg)
		p.PrintExpression(e.SubA)
		p.putc(']')
	case ExprPlus, ExprMinus, ExprMul, ExprDiv, ExprMod:
		p.binary(e, bitwise)
	case ExprAnd, ExprOr, ExprLt, ExprGt, ExprLte, ExprGte, ExprEq, ExprNeq:
		p.binary(e, false)
	case ExprBitAnd, ExprBitIOr, ExprBitXor:
		p.binary(e, true)
	case ExprRand:
		p.puts("rand(")
		p.PrintExpression(e.SubA)
		p.putc(')')
	case ExprReg16:
		p.printf("var4[%d]", e.Arg)
	case ExprReg8:
		p.puts("var4[")
		p.PrintExpression(e.SubA)
		p.putc(']')
	case ExprArray32Get32:
		p.systemVar(&SystemVar32Names, "var32", "var32", "dword", e.Arg, e.SubA)
	case ExprArray32Get16:
		p.printf("var32[%d]->word[", int(e.Arg)-1)
		p.PrintExpression(e.SubA)
		p.putc(']')
	case ExprArray32Get8:
		p.printf("var32[%d]->byte[", int(e.Arg)-1)
		p.PrintExpression(e.SubA)
		p.putc(']')
	case ExprVar32:
		p.printf("var32[%d]", e.Arg)
	default:
		panic(fmt.Sprintf("mes: cannot print %s expression", e.Op))
	}
}

// PrintExpression renders an expression outside of any bitwise context.
func (p *Printer) PrintExpression(e *Expression) {
	p.expr(e, false)
}

// PrintExpressionList renders comma-separated expressions.
func (p *Printer) PrintExpressionList(exprs []*Expression) {
	for i, e := range exprs {
		if i > 0 {
			p.putc(',')
		}
		p.PrintExpression(e)
	}
}

// --- Parameters ---

func (p *Printer) text(b []byte) {
	s, err := encoding.ToUTF8(b, p.opts.Encoding)
	if err != nil {
		s = string(b)
	}
	p.putc('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			p.putc('\\')
		}
		p.putc(s[i])
	}
	p.putc('"')
}

// PrintParameter renders one call parameter.
func (p *Printer) PrintParameter(param Parameter) {
	switch param.Type {
	case ParamString:
		p.text(param.Str)
	case ParamExpression:
		p.PrintExpression(param.Expr)
	default:
		panic(fmt.Sprintf("mes: invalid parameter type %d", param.Type))
	}
}

func (p *Printer) parametersFrom(params []Parameter, start int) {
	p.putc('(')
	for i := start; i < len(params); i++ {
		if i > start {
			p.putc(',')
		}
		p.PrintParameter(params[i])
	}
	p.putc(')')
}

// PrintParameters renders a parenthesized parameter list.
func (p *Printer) PrintParameters(params []Parameter) {
	p.parametersFrom(params, 0)
}

func (p *Printer) label(addr uint32) {
	p.printf("L_%08x", addr)
}

// --- Assembly ---

// PrintAsmStatement renders a statement with its assembly mnemonic, preceded by
// a label line if it is a jump target.
func (p *Printer) PrintAsmStatement(s Statement, indent int) {
	if s.Header().IsJumpTarget {
		p.indent(indent - 1)
		p.label(s.Header().Address)
		p.puts(":\n")
	}
	p.indent(indent)

	switch v := s.(type) {
	case *EndStmt:
		p.puts("END")
	case *TextStmt:
		p.printf("%s ", v.Kind)
		p.text(v.Text)
	case *SetRBCStmt:
		p.printf("SETRBC[%d] = ", v.RegNo)
		p.PrintExpressionList(v.Exprs)
	case *SetVStmt:
		p.printf("SETV[%d] = ", v.VarNo)
		p.PrintExpressionList(v.Exprs)
	case *SetRBEStmt:
		p.puts("SETRBE[")
		p.PrintExpression(v.RegExpr)
		p.puts("] = ")
		p.PrintExpressionList(v.ValExprs)
	case *SetArrayStmt:
		p.printf("%s[%d][", v.Kind, v.VarNo)
		p.PrintExpression(v.OffExpr)
		p.puts("] = ")
		p.PrintExpressionList(v.ValExprs)
	case *JzStmt:
		p.puts("JZ ")
		p.PrintExpression(v.Expr)
		p.putc(' ')
		p.label(v.Addr)
	case *JmpStmt:
		p.puts("JMP ")
		p.label(v.Addr)
	case *SysStmt:
		p.puts("SYS[")
		p.PrintExpression(v.Expr)
		p.putc(']')
		p.PrintParameters(v.Params)
	case *ParamStmt:
		p.puts(v.Kind.String())
		p.PrintParameters(v.Params)
	case *MenuIStmt:
		p.puts("MENUI")
		p.PrintParameters(v.Params)
		p.putc(' ')
		p.label(v.Addr)
	case *LineStmt:
		p.printf("LINE %d", v.Arg)
	case *ProcDStmt:
		p.puts("PROCD ")
		p.PrintExpression(v.NoExpr)
		p.putc(' ')
		p.label(v.SkipAddr)
	case *MenuSStmt:
		p.puts("MENUS")
	case *SetRDStmt:
		p.printf("SETRD[%d] = ", v.VarNo)
		p.PrintExpressionList(v.ValExprs)
	default:
		panic(fmt.Sprintf("mes: cannot print statement %T", s))
	}
	p.puts(";\n")
}

// --- Pseudocode ---

func (p *Printer) sys(s *SysStmt) {
	name, consumed, ok := p.opts.Syscalls.Resolve(s)
	if !ok {
		p.puts("System.function[")
		p.PrintExpression(s.Expr)
		p.putc(']')
		p.PrintParameters(s.Params)
		return
	}
	p.puts(name)
	p.parametersFrom(s.Params, consumed)
}

// PrintStatement renders a statement as pseudocode. Labels are not printed.
func (p *Printer) PrintStatement(s Statement, indent int) {
	p.indent(indent)

	switch v := s.(type) {
	case *EndStmt:
		p.puts("return")
	case *TextStmt:
		if v.Unprefixed {
			p.puts("unprefixed ")
		}
		if !v.Terminated {
			p.puts("unterminated ")
		}
		p.text(v.Text)
	case *SetRBCStmt:
		p.printf("var4[%d] = ", v.RegNo)
		p.PrintExpressionList(v.Exprs)
	case *SetVStmt:
		p.printf("var16[%d] = ", v.VarNo)
		p.PrintExpressionList(v.Exprs)
	case *SetRBEStmt:
		p.puts("var4[")
		p.PrintExpression(v.RegExpr)
		p.puts("] = ")
		p.PrintExpressionList(v.ValExprs)
	case *SetArrayStmt:
		switch v.Kind {
		case StmtSetAC:
			p.printf("var16[%d]->byte[", v.VarNo)
			p.PrintExpression(v.OffExpr)
			p.putc(']')
		case StmtSetAAt:
			p.systemVar(&SystemVar16Names, "var16", "var16", "word", uint32(v.VarNo), v.OffExpr)
		case StmtSetAD:
			p.systemVar(&SystemVar32Names, "var32", "var32", "dword", uint32(v.VarNo), v.OffExpr)
		case StmtSetAW:
			p.printf("var32[%d]->word[", int(v.VarNo)-1)
			p.PrintExpression(v.OffExpr)
			p.putc(']')
		case StmtSetAB:
			p.printf("var32[%d]->byte[", int(v.VarNo)-1)
			p.PrintExpression(v.OffExpr)
			p.putc(']')
		}
		p.puts(" = ")
		p.PrintExpressionList(v.ValExprs)
	case *JzStmt:
		p.puts("jz ")
		p.PrintExpression(v.Expr)
		p.putc(' ')
		p.label(v.Addr)
	case *JmpStmt:
		p.puts("goto ")
		p.label(v.Addr)
	case *SysStmt:
		p.sys(v)
	case *ParamStmt:
		switch v.Kind {
		case StmtGoto:
			p.puts("jump")
		case StmtCall, StmtProc:
			p.puts("call")
		case StmtUtil:
			p.puts("util")
		}
		p.PrintParameters(v.Params)
	case *MenuIStmt:
		p.puts("defmenu")
		p.PrintParameters(v.Params)
		p.putc(' ')
		p.label(v.Addr)
	case *LineStmt:
		p.printf("line %d", v.Arg)
	case *ProcDStmt:
		p.puts("defproc ")
		p.PrintExpression(v.NoExpr)
		p.putc(' ')
		p.label(v.SkipAddr)
	case *MenuSStmt:
		p.puts("menuexec")
	case *SetRDStmt:
		p.printf("var32[%d] = ", v.VarNo)
		p.PrintExpressionList(v.ValExprs)
	default:
		panic(fmt.Sprintf("mes: cannot print statement %T", s))
	}
	p.puts(";\n")
}

// PrintProgram renders every statement of prog in the given mode and flushes
// the output.
func (p *Printer) PrintProgram(prog *Program, mode Mode) error {
	for _, s := range prog.Statements {
		switch mode {
		case ModeAsm:
			p.PrintAsmStatement(s, 1)
		case ModeFlat:
			if s.Header().IsJumpTarget {
				p.label(s.Header().Address)
				p.puts(":\n")
			}
			p.PrintStatement(s, 1)
		default:
			p.PrintStatement(s, 1)
		}
	}
	return errors.Wrap(p.Flush(), "write failed")
}

// Print renders prog to w.
func Print(w io.Writer, prog *Program, mode Mode, opts PrintOptions) error {
	return NewPrinter(w, opts).PrintProgram(prog, mode)
}

// FormatExpression renders an expression to a string.
func FormatExpression(e *Expression) string {
	var sb strings.Builder
	p := NewPrinter(&sb, PrintOptions{})
	p.PrintExpression(e)
	p.Flush()
	return sb.String()
}
