package mes

import (
	"fmt"
)

// NumSystemVariables is the number of named slots in each system variable
// table.
const NumSystemVariables = 26

// System variable slots with known meaning. Slots without a name print as
// raw indexed accesses.
var (
	SystemVar16Names = [NumSystemVariables]string{
		2:  "flags",
		5:  "text_home_x",
		6:  "text_home_y",
		7:  "width",
		8:  "height",
		9:  "text_cursor_x",
		10: "text_cursor_y",
		12: "font_width",
		13: "font_height",
		15: "font_width2",
		16: "font_height2",
		23: "mask_color",
	}
	SystemVar32Names = [NumSystemVariables]string{
		0: "memory",
		5: "palette",
		7: "file_data",
		8: "menu_entry_addresses",
		9: "menu_entry_numbers",
	}
)

func systemVarName(names *[NumSystemVariables]string, no uint32) (string, bool) {
	if no >= NumSystemVariables || names[no] == "" {
		return "", false
	}
	return names[no], true
}

// Syscall describes one system call number. A call with a Name is printed
// directly. A call with a Subsystem takes its first parameter as a function
// selector, looked up in Functions.
type Syscall struct {
	Name      string         `yaml:"name,omitempty"`
	Subsystem string         `yaml:"subsystem,omitempty"`
	Functions map[int]string `yaml:"functions,omitempty"`
}

// SyscallTable maps system call numbers to their descriptions.
type SyscallTable map[int]Syscall

// DefaultSyscalls is the system call table shared by the supported titles.
var DefaultSyscalls = SyscallTable{
	0: {Name: "set_font_size"},
	2: {Subsystem: "Cursor", Functions: map[int]string{
		0: "reload",
		1: "unload",
		2: "save_pos",
		3: "set_pos",
		4: "load",
		5: "show",
		6: "hide",
	}},
	3: {Subsystem: "function[3]"},
	4: {Subsystem: "SaveData", Functions: map[int]string{
		0:  "resume_load",
		1:  "resume_save",
		2:  "load",
		3:  "save",
		4:  "load_var4",
		5:  "save_var4",
		6:  "save_union_var4",
		7:  "load_var4_slice",
		8:  "save_var4_slice",
		9:  "copy",
		13: "set_mes_name",
	}},
	5: {Subsystem: "Audio", Functions: map[int]string{
		0:  "bgm_play",
		2:  "bgm_stop",
		3:  "se_play",
		4:  "bgm_fade_sync",
		5:  "bgm_set_volume",
		7:  "bgm_fade",
		9:  "bgm_fade_out_sync",
		10: "bgm_fade_out",
		12: "se_stop",
		18: "bgm_stop2",
	}},
	7: {Subsystem: "File", Functions: map[int]string{
		0: "read",
		1: "write",
	}},
	8: {Name: "load_image"},
	9: {Subsystem: "Palette", Functions: map[int]string{
		0: "set",
	}},
	10: {Subsystem: "Image", Functions: map[int]string{
		2: "fill_bg",
		4: "swap_bg_fg",
	}},
	11: {Name: "wait"},
	12: {Name: "set_text_colors"},
	13: {Name: "farcall"},
	16: {Name: "get_time"},
	17: {Name: "noop"},
	19: {Subsystem: "function[19]"},
	20: {Name: "noop2"},
	21: {Name: "strlen"},
	22: {Subsystem: "function[22]"},
	23: {Name: "set_screen_surface"},
}

// Merge returns a new table holding t's entries overridden by o's. Function
// names of a subsystem present in both tables are merged. An entry of o with
// neither a name nor a subsystem only extends an existing subsystem and is
// dropped otherwise.
func (t SyscallTable) Merge(o SyscallTable) SyscallTable {
	out := make(SyscallTable, len(t)+len(o))
	for no, c := range t {
		out[no] = c
	}
	for no, c := range o {
		prev, ok := out[no]
		isSub := ok && prev.Subsystem != ""
		if c.Name == "" && c.Subsystem == "" && !isSub {
			continue
		}
		if isSub && c.Name == "" && (c.Subsystem == "" || c.Subsystem == prev.Subsystem) {
			fns := make(map[int]string, len(prev.Functions)+len(c.Functions))
			for k, v := range prev.Functions {
				fns[k] = v
			}
			for k, v := range c.Functions {
				fns[k] = v
			}
			c.Subsystem = prev.Subsystem
			c.Functions = fns
		}
		out[no] = c
	}
	return out
}

// intParameter returns params[i] if it is a compact immediate.
func intParameter(params []Parameter, i int) (int, bool) {
	if i >= len(params) {
		return 0, false
	}
	p := params[i]
	if p.Type != ParamExpression || p.Expr.Op != ExprImm {
		return 0, false
	}
	return int(p.Expr.Arg), true
}

// Resolve names a system call. It returns the qualified name and the number
// of leading parameters consumed by the name. ok is false when the call
// must be printed in the generic System.function[...] form.
func (t SyscallTable) Resolve(s *SysStmt) (name string, consumed int, ok bool) {
	if s.Expr.Op != ExprImm {
		return "", 0, false
	}
	call, ok := t[int(s.Expr.Arg)]
	if !ok {
		return "", 0, false
	}
	if call.Subsystem == "" {
		return "System." + call.Name, 0, true
	}
	cmd, ok := intParameter(s.Params, 0)
	if !ok {
		return "", 0, false
	}
	fn, ok := call.Functions[cmd]
	if !ok {
		fn = fmt.Sprintf("function[%d]", cmd)
	}
	return "System." + call.Subsystem + "." + fn, 1, true
}
