package mes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sysStmt(sel *Expression, params ...*Expression) *SysStmt {
	s := &SysStmt{Expr: sel}
	for _, p := range params {
		s.Params = append(s.Params, Parameter{Type: ParamExpression, Expr: p})
	}
	return s
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		s        *SysStmt
		want     string
		consumed int
		ok       bool
	}{
		{"direct", sysStmt(imm(0), imm(16)), "System.set_font_size", 0, true},
		{"subsystem", sysStmt(imm(5), imm(3), imm(1)), "System.Audio.se_play", 1, true},
		{"unnamed function", sysStmt(imm(4), imm(10)), "System.SaveData.function[10]", 1, true},
		{"anonymous subsystem", sysStmt(imm(3), imm(1)), "System.function[3].function[1]", 1, true},
		{"unknown selector", sysStmt(imm(99)), "", 0, false},
		{"computed selector", sysStmt(v16(0)), "", 0, false},
		{"wide selector", sysStmt(&Expression{Op: ExprImm16, Arg: 2}, imm(5)), "", 0, false},
		{"no function", sysStmt(imm(2)), "", 0, false},
		{"wide function", sysStmt(imm(2), &Expression{Op: ExprImm16, Arg: 5}), "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, consumed, ok := DefaultSyscalls.Resolve(tt.s)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, name)
			assert.Equal(t, tt.consumed, consumed)
		})
	}

	s := &SysStmt{Expr: imm(2), Params: []Parameter{{Type: ParamString, Str: []byte("x")}}}
	_, _, ok := DefaultSyscalls.Resolve(s)
	assert.False(t, ok, "string function selector")
}

func TestMerge(t *testing.T) {
	merged := DefaultSyscalls.Merge(SyscallTable{
		2:  {Functions: map[int]string{7: "blink", 5: "appear"}},
		30: {Subsystem: "Movie", Functions: map[int]string{0: "play"}},
		11: {Name: "sleep"},
	})

	assert.Equal(t, "Cursor", merged[2].Subsystem)
	assert.Equal(t, "blink", merged[2].Functions[7])
	assert.Equal(t, "appear", merged[2].Functions[5])
	assert.Equal(t, "reload", merged[2].Functions[0])
	assert.Equal(t, "play", merged[30].Functions[0])
	assert.Equal(t, "sleep", merged[11].Name)

	// the receiver is left alone
	assert.Equal(t, "show", DefaultSyscalls[2].Functions[5])
	_, ok := DefaultSyscalls[2].Functions[7]
	assert.False(t, ok)
	assert.Equal(t, "wait", DefaultSyscalls[11].Name)
}

func TestMergeFunctionsWithoutSubsystem(t *testing.T) {
	merged := DefaultSyscalls.Merge(SyscallTable{
		30: {Functions: map[int]string{1: "foo"}},
		11: {Functions: map[int]string{1: "bar"}},
	})

	_, ok := merged[30]
	assert.False(t, ok, "new number without a subsystem")
	assert.Equal(t, DefaultSyscalls[11], merged[11])

	_, _, ok = merged.Resolve(sysStmt(imm(30), imm(1)))
	assert.False(t, ok)
	name, consumed, ok := merged.Resolve(sysStmt(imm(11), imm(10)))
	assert.True(t, ok)
	assert.Equal(t, "System.wait", name)
	assert.Equal(t, 0, consumed)
}

func TestSystemVarName(t *testing.T) {
	name, ok := systemVarName(&SystemVar16Names, 23)
	assert.True(t, ok)
	assert.Equal(t, "mask_color", name)

	_, ok = systemVarName(&SystemVar16Names, 0)
	assert.False(t, ok)
	_, ok = systemVarName(&SystemVar32Names, NumSystemVariables)
	assert.False(t, ok)
}
