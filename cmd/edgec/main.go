// Command edgec compiles, renders, and inspects edge templates.
package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	errColor = color.New(color.FgRed, color.Bold)
	okColor  = color.New(color.FgGreen)
)

var rootCmd = &cobra.Command{
	Use:   "edgec",
	Short: "Edge template compiler and toolchain",
	Long: `edgec compiles edge templates to javascript, renders them to HTML,
and dumps token trees for debugging.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(tokensCmd)

	if err := rootCmd.Execute(); err != nil {
		errColor.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
