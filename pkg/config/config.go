// Package config loads the ai5dev.yaml settings file and turns it into the
// opcode table and print options used by the decoder.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/yoremi/ai5dev-go/pkg/encoding"
	"github.com/yoremi/ai5dev-go/pkg/gamedef"
	"github.com/yoremi/ai5dev-go/pkg/mes"
)

const (
	// Version is the ai5dev-go version string
	Version = "0.3.0"

	// FileName is the name of the settings file
	FileName = "ai5dev.yaml"

	// EnvVar names the environment variable pointing at the settings
	// directory
	EnvVar = "AI5DEV"
)

// Config is the contents of a settings file. Every field is optional;
// command-line flags take precedence.
type Config struct {
	Game       string           `yaml:"game"`
	Encoding   string           `yaml:"encoding"`
	Mode       string           `yaml:"mode"`
	Compressed bool             `yaml:"compressed"` // inputs are LZSS packed
	Syscalls   mes.SyscallTable `yaml:"syscalls"`
	Opcodes    map[string]int   `yaml:"opcodes"` // statement mnemonic -> byte

	path string
}

// Path returns the file the configuration was read from, or "" for the
// built-in defaults.
func (c *Config) Path() string { return c.path }

// Find returns the first settings file on the search path:
//  1. $AI5DEV
//  2. the executable directory
//  3. the home directory and ~/.ai5dev
func Find() (string, bool) {
	env := os.Getenv(EnvVar)
	home, _ := os.UserHomeDir()
	execDir := filepath.Dir(os.Args[0])

	searchPaths := []string{env, execDir}
	if home != "" {
		searchPaths = append(searchPaths, home, filepath.Join(home, ".ai5dev"))
	}
	for _, p := range searchPaths {
		if p == "" {
			continue
		}
		fname := filepath.Join(p, FileName)
		if st, err := os.Stat(fname); err == nil && !st.IsDir() {
			return fname, true
		}
	}
	return "", false
}

// Load reads the settings file at fname. An empty fname searches for one
// with Find; if none exists the defaults are returned.
func Load(fname string) (*Config, error) {
	if fname == "" {
		var ok bool
		if fname, ok = Find(); !ok {
			glog.V(1).Infof("config: no %s found, using defaults", FileName)
			return &Config{}, nil
		}
	}
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read '%s'", fname)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "'%s'", fname)
	}
	c.path = fname
	glog.V(1).Infof("config: loaded %s", fname)
	return c, nil
}

// Parse decodes settings from YAML. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	c := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	for no, call := range c.Syscalls {
		if call.Name != "" && call.Subsystem != "" {
			return errors.Errorf("syscall %d: name and subsystem are exclusive", no)
		}
		if call.Name == "" && call.Subsystem == "" && len(call.Functions) == 0 {
			return errors.Errorf("syscall %d: empty entry", no)
		}
		if call.Name != "" && len(call.Functions) > 0 {
			return errors.Errorf("syscall %d: functions need a subsystem", no)
		}
		if call.Name == "" && call.Subsystem == "" && mes.DefaultSyscalls[no].Subsystem == "" {
			return errors.Errorf("syscall %d: functions need a subsystem (%d is not a built-in one)", no, no)
		}
	}
	for name, b := range c.Opcodes {
		if _, ok := mes.ParseStmtOp(name); !ok {
			return errors.Errorf("opcodes: unknown statement %q", name)
		}
		if b < 0 || b > 0xff {
			return errors.Errorf("opcodes: %s: byte value %d out of range", name, b)
		}
	}
	return nil
}

// GameID resolves the configured title. An empty name is mes.ErrNoGame.
func (c *Config) GameID() (gamedef.GameID, error) {
	if c.Game == "" {
		return gamedef.GameNone, errors.WithStack(mes.ErrNoGame)
	}
	return gamedef.ParseGameID(c.Game)
}

// OpcodeTable builds the opcode table for the configured title with the
// configured statement overrides applied.
func (c *Config) OpcodeTable() (*mes.OpcodeTable, error) {
	id, err := c.GameID()
	if err != nil {
		return nil, err
	}
	tbl, err := mes.TableFor(id)
	if err != nil {
		return nil, err
	}
	if len(c.Opcodes) == 0 {
		return tbl, nil
	}
	overrides := make(map[mes.StmtOp]byte, len(c.Opcodes))
	for name, b := range c.Opcodes {
		op, _ := mes.ParseStmtOp(name)
		overrides[op] = byte(b)
	}
	return tbl.WithStatements(overrides)
}

// PrintOptions returns the printer settings: the text encoding and the
// built-in system call table extended by the configured entries.
func (c *Config) PrintOptions() (mes.PrintOptions, error) {
	enc, err := encoding.Parse(c.Encoding)
	if err != nil {
		return mes.PrintOptions{}, err
	}
	return mes.PrintOptions{
		Encoding: enc,
		Syscalls: mes.DefaultSyscalls.Merge(c.Syscalls),
	}, nil
}

// PrintMode returns the configured output mode, flat pseudocode by default.
func (c *Config) PrintMode() (mes.Mode, error) {
	return mes.ParseMode(c.Mode)
}
