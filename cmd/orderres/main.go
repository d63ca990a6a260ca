package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "orderres",
		Short: "Resolve products and quantities from order messages",
		Long: `orderres finds which catalog products a free-text order message asks for
and how many of each.

Catalogs are JSON files holding either a list of product names or a list of
objects with a "product_name" field.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(resolveCmd())
	rootCmd.AddCommand(matchCmd())
	rootCmd.AddCommand(poCmd())

	return rootCmd
}
