package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/yoremi/ai5dev-go/pkg/binarray"
	"github.com/yoremi/ai5dev-go/pkg/mes"
)

func newDecodeCmd(use, short string, mode mes.Mode) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <file.mes...>",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(cmd, args, func(w io.Writer, s *session, prog *mes.Program, _ *binarray.Buffer) error {
				return mes.Print(w, prog, mode, s.opts)
			})
		},
	}
}

// outputFor opens the destination for one input file. With several inputs
// the output flag names a directory.
func outputFor(cmd *cobra.Command, fname string, many bool) (io.WriteCloser, error) {
	if OutputPath == "" {
		return nopCloser{cmd.OutOrStdout()}, nil
	}
	dest := OutputPath
	if many {
		if err := os.MkdirAll(OutputPath, 0o755); err != nil {
			return nil, errors.Wrapf(err, "cannot create '%s'", OutputPath)
		}
		base := strings.TrimSuffix(filepath.Base(fname), filepath.Ext(fname))
		dest = filepath.Join(OutputPath, base+".txt")
	}
	f, err := os.Create(dest)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot create '%s'", dest)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

type renderFunc func(w io.Writer, s *session, prog *mes.Program, buf *binarray.Buffer) error

// runDecode decodes every input and renders it. A failing file is logged
// and skipped; the command fails if any file did.
func runDecode(cmd *cobra.Command, args []string, render renderFunc) error {
	s, err := loadSession()
	if err != nil {
		return err
	}

	failed := 0
	for _, fname := range args {
		if err := decodeOne(cmd, s, fname, len(args) > 1, render); err != nil {
			glog.Errorf("%s: %v", fname, err)
			failed++
		}
	}
	if failed > 0 {
		return errors.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

func decodeOne(cmd *cobra.Command, s *session, fname string, many bool, render renderFunc) error {
	prog, buf, err := s.parse(fname)
	if err != nil {
		return err
	}
	if len(prog.Dangling) > 0 {
		glog.Warningf("%s: %d jump targets outside the statement stream", fname, len(prog.Dangling))
	}
	w, err := outputFor(cmd, fname, many)
	if err != nil {
		return err
	}
	if err := render(w, s, prog, buf); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func init() {
	rootCmd.AddCommand(
		newDecodeCmd("asm", "Print an assembly listing", mes.ModeAsm),
		newDecodeCmd("flat", "Print pseudocode with jump labels", mes.ModeFlat),
		newDecodeCmd("print", "Print pseudocode without labels", mes.ModePlain),
	)
}
