package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"

	"github.com/Faultbox/castview/internal/assets"
	"github.com/Faultbox/castview/internal/config"
	"github.com/Faultbox/castview/internal/export"
	"github.com/Faultbox/castview/internal/importer"
	"github.com/Faultbox/castview/internal/logger"
	"github.com/Faultbox/castview/pkg/cast"
	"github.com/Faultbox/castview/pkg/model"
)

var (
	errUsage   = errors.New("usage error")
	errDiffers = errors.New("files differ")
)

var (
	bold    = color.New(color.Bold).SprintFunc()
	added   = color.New(color.FgGreen).SprintFunc()
	removed = color.New(color.FgRed).SprintFunc()
	dim     = color.New(color.FgHiBlack).SprintFunc()
)

type app struct {
	cfg *config.Config
	out io.Writer
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `castview - Cast model file utility

Usage:
  castview [-config file] [-debug] [-workers N] <command> [options]

Commands:
  info <file.cast>                       Show model summary
  tree [-n N] [-hashes] <file.cast>      Print the node tree
  diff [-hashes] [-all] [-model] <a> <b> Compare two node trees or models
  list [-q term] [-filter expr] [paths]  List model files (default: library paths)
  export [-o dir] <file.cast>            Write GLB and WebP texture thumbnails

Examples:
  castview info hero.cast
  castview tree -n 4 hero.cast
  castview list -q "hero, villain" ./models
  castview list -filter 'Size > 1048576 && glob("*_lod0", Name)'
  castview -output out export hero.cast`)
}

func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func (a *app) importOptions() importer.Options {
	return importer.Options{Workers: a.cfg.Import.Workers}
}

func logWarnings(path string, warnings []importer.Warning) {
	for _, w := range warnings {
		logger.Warn("projection warning",
			zap.String("file", path),
			zap.Stringer("node", w.Node),
			zap.String("hash", fmt.Sprintf("%#x", w.Hash)),
			zap.String("message", w.Message),
		)
	}
}

func (a *app) cmdInfo(args []string) error {
	fs := a.newFlagSet("info")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: castview info <file.cast>")
		return errUsage
	}
	path := fs.Arg(0)

	file, err := cast.ParseFile(path)
	if err != nil {
		return err
	}
	node, ok := importer.SelectModel(file)
	if !ok {
		return fmt.Errorf("%s: %w", path, importer.ErrNoModel)
	}
	res, err := importer.Project(node, a.importOptions())
	if err != nil {
		return err
	}
	logWarnings(path, res.Warnings)

	printModel(a.out, path, file, res)
	return nil
}

func printModel(w io.Writer, path string, file *cast.File, res *importer.Result) {
	m := res.Model
	fmt.Fprintf(w, "%s %s\n", bold("File:"), path)
	fmt.Fprintf(w, "%s v%d, %d roots\n", bold("Cast:"), file.Version, len(file.Roots))
	fmt.Fprintf(w, "%s %s\n", bold("Model:"), m.Name)
	fmt.Fprintf(w, "%s %d vertices, %d faces\n", bold("Totals:"), m.VertexCount(), m.FaceCount())
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s (%d)\n", bold("Bones"), len(m.Skeleton.Bones))
	for i := range m.Skeleton.Bones {
		b := &m.Skeleton.Bones[i]
		t := m.Skeleton.World(i)
		fmt.Fprintf(w, "  %3d %-24s parent=%-4d pos=(%.3f, %.3f, %.3f)\n",
			i, b.DisplayName(i), b.Parent, t.Translation[0], t.Translation[1], t.Translation[2])
	}

	fmt.Fprintf(w, "%s (%d)\n", bold("Materials"), len(m.Materials))
	for i := range m.Materials {
		mat := &m.Materials[i]
		tex := dim("(no texture)")
		if ref, ok := mat.ColorTexture(); ok {
			tex = fmt.Sprintf("%s: %s", ref.Usage, ref.FileName)
		}
		fmt.Fprintf(w, "  %3d %-24s %s\n", i, mat.Name, tex)
	}

	fmt.Fprintf(w, "%s (%d)\n", bold("Meshes"), len(m.Meshes))
	for i := range m.Meshes {
		printMesh(w, m, i)
	}

	if len(res.Warnings) > 0 {
		fmt.Fprintf(w, "\n%s %d (see log)\n", removed("Warnings:"), len(res.Warnings))
	}
}

func printMesh(w io.Writer, m *model.Model, i int) {
	mesh := &m.Meshes[i]
	mat := dim("-")
	if mesh.Material != nil && *mesh.Material < len(m.Materials) {
		mat = m.Materials[*mesh.Material].Name
	}
	var layout model.Layout
	if mesh.Vertices != nil {
		layout = mesh.Vertices.Layout()
	}
	fmt.Fprintf(w, "  %3d %-24s verts=%-6d faces=%-6d uv=%d influence=%d material=%s\n",
		i, mesh.Name, mesh.Vertices.Len(), len(mesh.Faces), layout.UVLayers, layout.MaxInfluence, mat)
}

func (a *app) cmdTree(args []string) error {
	fs := a.newFlagSet("tree")
	limit := fs.Int("n", 8, "Values shown per property (0 = all)")
	hashes := fs.Bool("hashes", false, "Show node hashes")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: castview tree [-n N] [-hashes] <file.cast>")
		return errUsage
	}

	file, err := cast.ParseFile(fs.Arg(0))
	if err != nil {
		return err
	}
	return cast.Dump(a.out, file, cast.DumpOptions{MaxValues: *limit, Hashes: *hashes})
}

func (a *app) cmdDiff(args []string) error {
	fs := a.newFlagSet("diff")
	hashes := fs.Bool("hashes", false, "Compare node hashes too")
	all := fs.Bool("all", false, "Print unchanged lines")
	byModel := fs.Bool("model", false, "Compare projected models as a JSON merge patch")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: castview diff [-hashes] [-all] [-model] <a.cast> <b.cast>")
		return errUsage
	}

	if *byModel {
		patch, err := modelPatch(fs.Arg(0), fs.Arg(1), a.importOptions())
		if err != nil {
			return err
		}
		if string(patch) == "{}" {
			fmt.Fprintln(a.out, "identical")
			return nil
		}
		fmt.Fprintln(a.out, string(patch))
		return errDiffers
	}

	opts := cast.DumpOptions{Hashes: *hashes}
	from, err := dumpFile(fs.Arg(0), opts)
	if err != nil {
		return err
	}
	to, err := dumpFile(fs.Arg(1), opts)
	if err != nil {
		return err
	}

	if !writeDiff(a.out, from, to, *all) {
		fmt.Fprintln(a.out, "identical")
		return nil
	}
	return errDiffers
}

func dumpFile(path string, opts cast.DumpOptions) (string, error) {
	file, err := cast.ParseFile(path)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := cast.Dump(&sb, file, opts); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// writeDiff prints a line diff of two tree dumps and reports whether they
// differ.
func writeDiff(w io.Writer, from, to string, all bool) bool {
	dmp := diffpatch.New()
	a, b, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	changed := false
	for _, d := range diffs {
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			line = strings.TrimSuffix(line, "\n")
			switch d.Type {
			case diffpatch.DiffInsert:
				changed = true
				fmt.Fprintln(w, added("+ "+line))
			case diffpatch.DiffDelete:
				changed = true
				fmt.Fprintln(w, removed("- "+line))
			default:
				if all {
					fmt.Fprintln(w, "  "+line)
				}
			}
		}
	}
	return changed
}

func (a *app) cmdList(args []string) error {
	fs := a.newFlagSet("list")
	query := fs.String("q", "", "Comma-separated name search")
	filter := fs.String("filter", "", "Filter expression over Name, Path, Dir and Size")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	paths := fs.Args()
	if len(paths) == 0 {
		paths = a.cfg.Library.Paths
	}
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: castview list [-q term] [-filter expr] <paths...>")
		return errUsage
	}

	m := assets.NewManager(assets.Options{
		Recursive: a.cfg.Library.Recursive,
		Import:    a.importOptions(),
	})
	if _, err := m.LoadFiles(paths); err != nil {
		logger.Warn("some paths could not be scanned", zap.Error(err))
	}

	if *filter != "" {
		if err := m.Filter(*filter); err != nil {
			return err
		}
	} else {
		m.Search(assets.NewSearchTerm(*query))
	}

	for i := 0; i < m.Visible(); i++ {
		cols := m.Info(i)
		fmt.Fprintf(a.out, "%-32s %-6s %-7s %10s\n", cols[0], cols[1], cols[2], cols[3])
	}
	fmt.Fprintln(a.out, dim(fmt.Sprintf("%d of %d models", m.Visible(), m.Total())))
	return nil
}

func (a *app) cmdExport(args []string) error {
	fs := a.newFlagSet("export")
	out := fs.String("o", a.cfg.Export.OutputDir, "Output directory")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: castview export [-o dir] <file.cast>")
		return errUsage
	}
	path := fs.Arg(0)

	m := assets.NewManager(assets.Options{Import: a.importOptions()})
	p, err := m.PreviewFile(path)
	if err != nil {
		return err
	}
	logWarnings(path, p.Warnings)

	written, err := export.Files(*out, p.Name, p.Model, p.Images, export.Options{
		Thumbnails:    a.cfg.Export.TexturesWebP,
		ThumbnailSize: a.cfg.Export.ThumbnailSize,
	})
	for _, f := range written {
		fmt.Fprintln(a.out, added("wrote"), f)
	}
	return err
}
