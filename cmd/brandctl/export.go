package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"brand-builder/internal/export"

	"github.com/spf13/cobra"
)

var (
	exportURL     string
	exportOut     string
	exportSize    string
	exportScale   float64
	exportChrome  string
	exportTimeout time.Duration
)

var exportCmd = &cobra.Command{
	Use:       "export pdf|png",
	Short:     "Rasterize a print route into a PDF or PNG files",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"pdf", "png"},
	RunE:      runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportURL, "url", "", "print route to render, e.g. http://localhost:5173/case-studies/{id}/print")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file; png exports add -N per page when there are several")
	exportCmd.Flags().StringVar(&exportSize, "size", "a4", "page size: a4 or slide")
	exportCmd.Flags().Float64Var(&exportScale, "scale", export.DefaultScale, "pixel density")
	exportCmd.Flags().StringVar(&exportChrome, "chrome", "", "devtools URL of a running Chrome; launches one when empty")
	exportCmd.Flags().DurationVar(&exportTimeout, "timeout", 2*time.Minute, "overall timeout")
	_ = exportCmd.MarkFlagRequired("url")
	_ = exportCmd.MarkFlagRequired("out")
}

func sizeByName(name string) (export.Size, error) {
	switch strings.ToLower(name) {
	case "a4":
		return export.A4, nil
	case "slide":
		return export.Slide, nil
	}
	return export.Size{}, fmt.Errorf("unknown size %q (want a4 or slide)", name)
}

// pngPaths names one output file per page: out itself for a single page,
// otherwise out with -1, -2, ... before the extension.
func pngPaths(out string, n int) []string {
	if n == 1 {
		return []string{out}
	}
	ext := filepath.Ext(out)
	if ext == "" {
		ext = ".png"
	}
	base := strings.TrimSuffix(out, filepath.Ext(out))
	paths := make([]string, n)
	for i := range paths {
		paths[i] = fmt.Sprintf("%s-%d%s", base, i+1, ext)
	}
	return paths
}

func runExport(cmd *cobra.Command, args []string) error {
	format := args[0]
	if format != "pdf" && format != "png" {
		return fmt.Errorf("unknown format %q (want pdf or png)", format)
	}
	size, err := sizeByName(exportSize)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), exportTimeout)
	defer cancel()

	browser, closeBrowser, err := export.Browser(ctx, exportChrome)
	if err != nil {
		return err
	}
	defer closeBrowser()

	root, closePage, err := export.OpenPage(ctx, browser, exportURL, size, exportScale, exportTimeout)
	if err != nil {
		return err
	}
	defer closePage()

	progress := func(p int) {
		fmt.Fprintf(cmd.ErrOrStderr(), "\rexporting %3d%%", p)
		if p == 100 {
			fmt.Fprintln(cmd.ErrOrStderr())
		}
	}

	switch format {
	case "pdf":
		var buf bytes.Buffer
		if err := export.PDF(ctx, root, size, exportScale, progress, &buf); err != nil {
			return err
		}
		if err := os.WriteFile(exportOut, buf.Bytes(), 0o644); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), exportOut)
	case "png":
		images, err := export.PNG(ctx, root, size, exportScale, progress)
		if err != nil {
			return err
		}
		for i, p := range pngPaths(exportOut, len(images)) {
			if err := os.WriteFile(p, images[i], 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
	}
	return nil
}
