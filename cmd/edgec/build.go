package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mbarley/edge"
	"github.com/mbarley/edge/edgejs"
	"github.com/mbarley/edge/loader"
	"github.com/mbarley/edge/template"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] <views-dir>",
	Short: "Compile a directory of templates to javascript",
	Long: `Build compiles every *.edge file under the given directory to a .js
file mirroring the source layout, plus a runtime.js that the generated
code needs loaded first.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringP("out", "o", "dist", "output directory")
	buildCmd.Flags().String("disk", "default", "disk name to mount the directory as")
	buildCmd.Flags().IntP("jobs", "j", runtime.NumCPU(), "max concurrent compiles")
	buildCmd.Flags().Bool("watch", false, "stay running and rebuild on changes")
}

func runBuild(cmd *cobra.Command, args []string) error {
	var viewsDir = args[0]
	out, _ := cmd.Flags().GetString("out")
	disk, _ := cmd.Flags().GetString("disk")
	jobs, _ := cmd.Flags().GetInt("jobs")
	watch, _ := cmd.Flags().GetBool("watch")

	var bundle = edge.NewBundle().WatchFiles(watch).Mount(disk, viewsDir)
	registry, err := bundle.Compile()
	if err != nil {
		return err
	}
	if err := writeAll(cmd, registry, viewsDir, disk, out, jobs); err != nil {
		return err
	}
	if !watch {
		return nil
	}
	bundle.SetRecompilationCallback(func(reg *template.Registry) {
		if err := writeAll(cmd, reg, viewsDir, disk, out, jobs); err != nil {
			errColor.Fprintln(cmd.ErrOrStderr(), err)
		}
	})
	select {}
}

type buildTarget struct {
	name string // canonical template name
	rel  string // output path relative to the output directory
}

func writeAll(cmd *cobra.Command, reg *template.Registry, viewsDir, disk, out string, jobs int) error {
	targets, err := buildTargets(viewsDir, disk)
	if err != nil {
		return err
	}

	var g errgroup.Group
	g.SetLimit(jobs)
	for _, target := range targets {
		target := target
		g.Go(func() error {
			var buf bytes.Buffer
			if err := edgejs.Write(&buf, reg, target.name); err != nil {
				return err
			}
			var path = filepath.Join(out, target.rel)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			return atomic.WriteFile(path, &buf)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// The generated modules resolve and escape through the runtime, so
	// ship it alongside them.
	if err := os.MkdirAll(out, 0o755); err != nil {
		return err
	}
	if err := atomic.WriteFile(filepath.Join(out, "runtime.js"), strings.NewReader(edgejs.Runtime())); err != nil {
		return err
	}
	okColor.Fprintf(cmd.OutOrStdout(), "compiled %d templates to %s\n", len(targets), out)
	return nil
}

func buildTargets(viewsDir, disk string) ([]buildTarget, error) {
	var targets []buildTarget
	var err = filepath.Walk(viewsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".edge") {
			return nil
		}
		rel, err := filepath.Rel(viewsDir, path)
		if err != nil {
			return err
		}
		targets = append(targets, buildTarget{
			name: loader.Name(disk, rel),
			rel:  strings.TrimSuffix(rel, ".edge") + ".js",
		})
		return nil
	})
	return targets, err
}
