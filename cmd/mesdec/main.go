// mesdec decodes AI5 MES script files into assembly listings or pseudocode.
//
// Usage:
//
//	mesdec [flags] <command> <file.mes...>
//
// Commands:
//
//	asm     assembly listing with jump labels
//	flat    pseudocode with jump labels (default config mode)
//	print   pseudocode without labels
//	dump    decoded statement tree
//	info    file summary
//	games   list supported titles
package main

import (
	"os"

	"github.com/golang/glog"
)

func main() {
	defer glog.Flush()
	if err := rootCmd.Execute(); err != nil {
		glog.Errorf("%v", err)
		glog.Flush()
		os.Exit(1)
	}
}
