package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mbarley/edge/lexer"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens <file.edge>",
	Short: "Dump a template's token tree",
	Long: `Tokens lexes a template file and prints its token tree, one token per
line, with block children indented.`,
	Args: cobra.ExactArgs(1),
	RunE: runTokens,
}

var (
	tagColor      = color.New(color.FgCyan, color.Bold)
	mustacheColor = color.New(color.FgGreen)
	commentColor  = color.New(color.FgHiBlack)
)

func runTokens(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	tokens, err := lexer.Tokenize(string(content), args[0])
	if err != nil {
		return err
	}
	printTokens(cmd, tokens, 0)
	return nil
}

func printTokens(cmd *cobra.Command, tokens []lexer.Token, depth int) {
	var indent = strings.Repeat("  ", depth)
	for _, t := range tokens {
		var pos = fmt.Sprintf("%3d:%-3d", t.Loc.Line, t.Loc.Col)
		switch t.Kind {
		case lexer.Text:
			fmt.Fprintf(cmd.OutOrStdout(), "%s %stext %q\n", pos, indent, t.Text)
		case lexer.Mustache:
			var label = "mustache"
			if t.Raw {
				label = "mustache(raw)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s%s {{ %s }}\n",
				pos, indent, mustacheColor.Sprint(label), strings.TrimSpace(t.Text))
		case lexer.Comment:
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s%s\n",
				pos, indent, commentColor.Sprintf("comment %q", t.Text))
		case lexer.Tag:
			var arg string
			if a := strings.TrimSpace(t.RawArg); a != "" {
				arg = "(" + a + ")"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s%s%s\n",
				pos, indent, tagColor.Sprintf("@%s", t.Name), arg)
			printTokens(cmd, t.Children, depth+1)
		}
	}
}
