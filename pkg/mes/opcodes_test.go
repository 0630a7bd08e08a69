package mes

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoremi/ai5dev-go/pkg/gamedef"
)

func TestTableForAllGames(t *testing.T) {
	for _, g := range gamedef.Games {
		tbl, err := TableFor(g.ID)
		require.NoError(t, err, g.Name)
		assert.Equal(t, g.Name, tbl.Name())

		// every virtual statement must round trip
		for op := StmtOp(0); op < numStmtOps; op++ {
			b, ok := tbl.StmtOpcode(op)
			require.True(t, ok, "%s: %s unmapped", g.Name, op)
			back, ok := tbl.OpcodeToStmt(b)
			require.True(t, ok)
			assert.Equal(t, op, back, "%s: byte 0x%02x", g.Name, b)
		}
	}
}

func TestTableForUnknown(t *testing.T) {
	_, err := TableFor(gamedef.GameNone)
	assert.True(t, errors.Is(err, ErrNoGame))
	_, err = TableFor(gamedef.GameID(99))
	assert.True(t, errors.Is(err, ErrNoGame))
}

func TestClassicExpressionRanges(t *testing.T) {
	tbl := classicTable(t)

	tests := []struct {
		b   byte
		op  ExprOp
		arg uint8
	}{
		{0x00, ExprImm, 0},
		{0x7f, ExprImm, 0x7f},
		{0x80, ExprVar, 0},
		{0x9f, ExprVar, 0x1f},
		{0xa0, ExprArray16Get16, 0},
		{0xbf, ExprArray16Get16, 0x1f},
		{0xc3, ExprArray16Get8, 3},
		{0xe0, ExprPlus, 0},
		{0xe4, ExprMod, 0},
		{0xf8, ExprVar32, 0},
		{0xff, ExprEnd, 0},
	}
	for _, tt := range tests {
		op, arg, ok := tbl.OpcodeToExpr(tt.b)
		require.True(t, ok, "byte 0x%02x", tt.b)
		assert.Equal(t, tt.op, op, "byte 0x%02x", tt.b)
		assert.Equal(t, tt.arg, arg, "byte 0x%02x", tt.b)
	}

	for _, b := range []byte{0xf9, 0xfa, 0xfe} {
		_, _, ok := tbl.OpcodeToExpr(b)
		assert.False(t, ok, "byte 0x%02x", b)
	}

	b, ok := tbl.ExprOpcode(ExprArray16Get8)
	require.True(t, ok)
	assert.Equal(t, byte(0xc0), b)
	b, ok = tbl.ExprOpcode(ExprNeq)
	require.True(t, ok)
	assert.Equal(t, byte(0xf0), b)
}

func TestAI5WINLayout(t *testing.T) {
	for _, id := range []gamedef.GameID{gamedef.GameAiShimai, gamedef.GameBeyond} {
		tbl, err := TableFor(id)
		require.NoError(t, err)

		b, _ := tbl.StmtOpcode(StmtSetRD)
		assert.Equal(t, byte(0x0b), b)
		b, _ = tbl.StmtOpcode(StmtJz)
		assert.Equal(t, byte(0x0c), b)
		b, _ = tbl.StmtOpcode(StmtMenuS)
		assert.Equal(t, byte(0x16), b)
	}

	classic := classicTable(t)
	b, _ := classic.StmtOpcode(StmtJz)
	assert.Equal(t, byte(0x0b), b)
	_, ok := classic.OpcodeToStmt(0x17)
	assert.False(t, ok)
}

func TestNewOpcodeTableCollisions(t *testing.T) {
	l := classicTable(t).Layout()
	l.Statements[StmtTxt] = 0x00
	_, err := NewOpcodeTable(l)
	assert.Error(t, err)

	l = classicTable(t).Layout()
	l.Expressions[ExprPlus] = 0x05 // inside the IMM range
	_, err = NewOpcodeTable(l)
	assert.Error(t, err)

	l = classicTable(t).Layout()
	delete(l.Expressions, ExprEnd)
	_, err = NewOpcodeTable(l)
	assert.Error(t, err)
}

func TestLayoutIsCopy(t *testing.T) {
	tbl := classicTable(t)
	l := tbl.Layout()
	l.Statements[StmtLine] = 0x30

	b, _ := tbl.StmtOpcode(StmtLine)
	assert.Equal(t, byte(0x13), b)
	assert.Equal(t, byte(0x13), LayoutAI5.Statements[StmtLine])
}

func TestWithStatements(t *testing.T) {
	base := classicTable(t)
	tbl, err := base.WithStatements(map[StmtOp]byte{StmtLine: 0x1f})
	require.NoError(t, err)

	op, ok := tbl.OpcodeToStmt(0x1f)
	require.True(t, ok)
	assert.Equal(t, StmtLine, op)
	_, ok = tbl.OpcodeToStmt(0x13)
	assert.False(t, ok)

	// the base table is untouched
	op, ok = base.OpcodeToStmt(0x13)
	require.True(t, ok)
	assert.Equal(t, StmtLine, op)

	_, err = base.WithStatements(map[StmtOp]byte{StmtLine: 0x00})
	assert.Error(t, err)
}

func TestOpcodeNames(t *testing.T) {
	assert.Equal(t, "SETA@", StmtSetAAt.String())
	assert.Equal(t, "STMT_20", StmtOp(0x20).String())
	assert.Equal(t, "ARRAY32_GET16", ExprArray32Get16.String())

	op, ok := ParseStmtOp("setrd")
	require.True(t, ok)
	assert.Equal(t, StmtSetRD, op)
	_, ok = ParseStmtOp("NOPE")
	assert.False(t, ok)

	eop, ok := ParseExprOp("bitxor")
	require.True(t, ok)
	assert.Equal(t, ExprBitXor, eop)
	_, ok = ParseExprOp("")
	assert.False(t, ok, "unnamed slots")
	_, ok = ParseExprOp("NOPE")
	assert.False(t, ok)

	// every named opcode parses back to itself
	for i := 0; i < 256; i++ {
		op := ExprOp(i)
		if exprNames[op] == "" {
			continue
		}
		got, ok := ParseExprOp(op.String())
		require.True(t, ok, op.String())
		assert.Equal(t, op, got)
	}
}
