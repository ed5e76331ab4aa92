package main

import (
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/mbarley/edge"
)

var renderCmd = &cobra.Command{
	Use:   "render [flags] <template-ref>",
	Short: "Render one template to HTML",
	Long: `Render compiles the templates under the views directory, renders the
named one with data from a YAML file, and writes the HTML to stdout or
to a file.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringP("views", "d", ".", "directory of *.edge templates")
	renderCmd.Flags().String("disk", "default", "disk name to mount the directory as")
	renderCmd.Flags().StringP("data", "f", "", "YAML file of render data")
	renderCmd.Flags().String("globals", "", "file of globals (YAML or name = literal lines)")
	renderCmd.Flags().StringP("out", "o", "", "write output here instead of stdout")
}

func runRender(cmd *cobra.Command, args []string) error {
	views, _ := cmd.Flags().GetString("views")
	disk, _ := cmd.Flags().GetString("disk")
	dataFile, _ := cmd.Flags().GetString("data")
	globalsFile, _ := cmd.Flags().GetString("globals")
	out, _ := cmd.Flags().GetString("out")

	var bundle = edge.NewBundle().Mount(disk, views)
	if globalsFile != "" {
		bundle.AddGlobalsFile(globalsFile)
	}
	renderer, err := bundle.CompileToRenderer()
	if err != nil {
		return err
	}

	var obj map[string]interface{}
	if dataFile != "" {
		content, err := os.ReadFile(dataFile)
		if err != nil {
			return err
		}
		if err := yaml.Unmarshal(content, &obj); err != nil {
			return err
		}
	}

	html, err := renderer.RenderString(args[0], obj)
	if err != nil {
		return err
	}
	if out == "" {
		_, err = io.WriteString(cmd.OutOrStdout(), html)
		return err
	}
	return atomic.WriteFile(out, strings.NewReader(html))
}
