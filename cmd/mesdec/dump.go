package main

import (
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/yoremi/ai5dev-go/pkg/binarray"
	"github.com/yoremi/ai5dev-go/pkg/mes"
)

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

var dumpCmd = &cobra.Command{
	Use:   "dump <file.mes...>",
	Short: "Dump the decoded statement tree",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDecode(cmd, args, func(w io.Writer, s *session, prog *mes.Program, _ *binarray.Buffer) error {
			for _, stmt := range prog.Statements {
				h := stmt.Header()
				if _, err := fmt.Fprintf(w, "# 0x%08x %s\n", h.Address, stmt.Op()); err != nil {
					return err
				}
				dumpConfig.Fdump(w, stmt)
			}
			if len(prog.Dangling) > 0 {
				fmt.Fprint(w, "# dangling targets\n")
				dumpConfig.Fdump(w, prog.Dangling)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}
