package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yoremi/ai5dev-go/pkg/gamedef"
)

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "List supported titles",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-11s %-7s %s\n", "Name", "Engine", "Title")
		for _, g := range gamedef.Games {
			fmt.Fprintf(w, "%-11s %-7s %s\n", g.Name, g.Engine, g.Description)
		}
	},
}

func init() {
	rootCmd.AddCommand(gamesCmd)
}
