package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/yoremi/ai5dev-go/pkg/binarray"
	"github.com/yoremi/ai5dev-go/pkg/mes"
)

var infoCmd = &cobra.Command{
	Use:   "info <file.mes...>",
	Short: "Summarize decoded files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDecode(cmd, args, writeInfo)
	},
}

func writeInfo(w io.Writer, s *session, prog *mes.Program, buf *binarray.Buffer) error {
	counts := make(map[mes.StmtOp]int)
	for _, stmt := range prog.Statements {
		counts[stmt.Op()]++
	}

	fmt.Fprintf(w, "Game:       %s\n", s.tbl.Name())
	fmt.Fprintf(w, "Size:       %d bytes\n", buf.Len())
	fmt.Fprintf(w, "MD5:        %x\n", buf.Digest())
	fmt.Fprintf(w, "Statements: %d\n", len(prog.Statements))
	fmt.Fprintf(w, "Targets:    %d (%d dangling)\n", len(prog.Targets), len(prog.Dangling))
	for op := mes.StmtEnd; op <= mes.StmtSetRD; op++ {
		if n := counts[op]; n > 0 {
			fmt.Fprintf(w, "  %-7s %d\n", op, n)
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
