package main

import (
	"fmt"

	"github.com/spf13/cobra"

	deorbit "github.com/TenessyD/MGA802-projet-final"
)

var materialsCmd = &cobra.Command{
	Use:   "materials",
	Short: "List the tether materials",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, m := range deorbit.Materials() {
			fmt.Fprintln(cmd.OutOrStdout(), m)
		}
		return nil
	},
}
